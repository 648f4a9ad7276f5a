package domain

// Business validation constants
const (
	MinDayOfWeek           = 1 // ISO: понедельник
	MaxDayOfWeek           = 7 // ISO: воскресенье
	MaxGridMinutes         = 24 * 60
	MinGridMinutes         = 1
	MaxAttendees           = 1000
	MaxCancellationReason  = 500
	MaxDescriptionLength   = 500
	MaxClientGeneratedID   = 128
	MaxServicesPerBooking  = 10
	MaxBufferMinutes       = 24 * 60
	MaxServiceDurationMins = 24 * 60
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses статусы, занимающие ресурс.
// Используется при проверке пересечений и построении слотов.
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCheckedIn,
}

// AllStatuses все статусы жизненного цикла
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCheckedIn,
	StatusCompleted,
	StatusCanceled,
	StatusNoShow,
	StatusRescheduled,
}
