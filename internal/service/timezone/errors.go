package timezone

import "errors"

var (
	// ErrNoTimezone возвращается, когда зона не задана ни у ресурса, ни у tenant
	ErrNoTimezone = errors.New("timezone: neither resource nor tenant timezone is set")

	// ErrUnknownTimezone возвращается для имени, отсутствующего в базе IANA
	ErrUnknownTimezone = errors.New("timezone: unknown IANA timezone")

	// ErrTimezoneGap возвращается для несуществующего локального времени (переход вперёд)
	ErrTimezoneGap = errors.New("timezone: wall-clock time does not exist on this date")

	// ErrTimezoneAmbiguous возвращается для локального времени, встречающегося дважды
	ErrTimezoneAmbiguous = errors.New("timezone: wall-clock time is ambiguous on this date")

	// ErrResourceNotFound возвращается, когда ресурс не найден в справочнике
	ErrResourceNotFound = errors.New("timezone: resource not found")

	// ErrInvalidMinute возвращается для минуты вне диапазона 0..1440
	ErrInvalidMinute = errors.New("timezone: minute of day out of range")

	// ErrInternal возвращается при ошибках справочника
	ErrInternal = errors.New("timezone: internal error")
)
