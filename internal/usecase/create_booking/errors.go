package create_booking

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден, удален или принадлежит другому tenant
	ErrResourceNotFound = errors.New("create_booking: resource not found")

	// ErrResourceInactive возвращается, когда ресурс выключен или не имеет вместимости
	ErrResourceInactive = errors.New("create_booking: resource is not bookable")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrServiceInactive возвращается, когда услуга отключена
	ErrServiceInactive = errors.New("create_booking: service is inactive")

	// ErrCapacityExceeded возвращается, когда участников больше вместимости ресурса
	ErrCapacityExceeded = errors.New("create_booking: attendee count exceeds resource capacity")

	// ErrTooLateToBook возвращается для начала в прошлом или раньше минимального уведомления
	ErrTooLateToBook = errors.New("create_booking: too late to book this time")

	// ErrConflict возвращается, когда интервал с буферами пересекается с активным бронированием
	ErrConflict = errors.New("create_booking: time range conflicts with an active booking")

	// ErrBusy возвращается, когда блокировку ресурса не удалось получить вовремя; запрос можно повторить
	ErrBusy = errors.New("create_booking: resource is busy, retry later")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
