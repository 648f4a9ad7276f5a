package availability

import "errors"

var (
	// ErrRuleNotFound возвращается, когда правило доступности не найдено
	ErrRuleNotFound = errors.New("availability.repository: rule not found")

	// ErrRuleOverlap возвращается, когда правило пересекается с другим правилом того же дня недели
	ErrRuleOverlap = errors.New("availability.repository: rule overlaps an existing rule")

	// ErrExceptionNotFound возвращается, когда исключение не найдено
	ErrExceptionNotFound = errors.New("availability.repository: exception not found")

	// ErrExceptionExists возвращается, когда на дату уже есть исключение
	ErrExceptionExists = errors.New("availability.repository: exception for the date already exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("availability.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("availability.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("availability.repository: failed to scan row")
)
