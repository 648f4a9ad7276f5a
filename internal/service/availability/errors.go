package availability

import "errors"

var (
	// ErrInvalidInput возвращается при некорректном диапазоне дат
	ErrInvalidInput = errors.New("availability.service: invalid input")

	// ErrResourceNotFound возвращается, когда ресурс не найден, удален или принадлежит другому tenant
	ErrResourceNotFound = errors.New("availability.service: resource not found")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("availability.service: internal error")
)
