package reschedule_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("reschedule_booking: booking not found")

	// ErrCannotReschedule возвращается для бронирований в статусе, из которого перенос запрещен
	ErrCannotReschedule = errors.New("reschedule_booking: booking cannot be rescheduled in its current status")

	// ErrResourceNotFound возвращается, когда ресурс бронирования удален
	ErrResourceNotFound = errors.New("reschedule_booking: resource not found")

	// ErrResourceInactive возвращается, когда ресурс выключен
	ErrResourceInactive = errors.New("reschedule_booking: resource is not bookable")

	// ErrClientIDReused возвращается, когда ключ идемпотентности уже использован другим бронированием
	ErrClientIDReused = errors.New("reschedule_booking: client generated id belongs to another booking")

	// ErrTooLateToBook возвращается для нового начала в прошлом или раньше минимального уведомления
	ErrTooLateToBook = errors.New("reschedule_booking: too late to book this time")

	// ErrConflict возвращается, когда новый интервал пересекается с другим активным бронированием
	ErrConflict = errors.New("reschedule_booking: time range conflicts with an active booking")

	// ErrBusy возвращается, когда блокировку ресурса не удалось получить вовремя
	ErrBusy = errors.New("reschedule_booking: resource is busy, retry later")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reschedule_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reschedule_booking: internal error")
)
