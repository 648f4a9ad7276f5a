package schedule

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("schedule: invalid input data")

	// ErrResourceNotFound возвращается, когда ресурс не найден
	ErrResourceNotFound = errors.New("schedule: resource not found")

	// ErrRuleNotFound возвращается, когда правило не найдено
	ErrRuleNotFound = errors.New("schedule: rule not found")

	// ErrRuleOverlap возвращается, когда правило пересекается с другим правилом того же дня
	ErrRuleOverlap = errors.New("schedule: rule overlaps an existing rule")

	// ErrExceptionNotFound возвращается, когда исключение не найдено
	ErrExceptionNotFound = errors.New("schedule: exception not found")

	// ErrExceptionExists возвращается, когда исключение на дату уже есть
	ErrExceptionExists = errors.New("schedule: exception already exists")

	// ErrBusy возвращается, когда не удалось дождаться блокировки ресурса
	ErrBusy = errors.New("schedule: resource is busy")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("schedule: internal error")
)
