package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending     BookingStatus = "pending"
	StatusConfirmed   BookingStatus = "confirmed"
	StatusCheckedIn   BookingStatus = "checked_in"
	StatusCompleted   BookingStatus = "completed"
	StatusCanceled    BookingStatus = "canceled"
	StatusNoShow      BookingStatus = "no_show"
	StatusRescheduled BookingStatus = "rescheduled"
)

// transitions допустимые переходы статусов.
// rescheduled выставляется только переносом, через UpdateStatus он недоступен.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCanceled, StatusRescheduled},
	StatusConfirmed: {StatusCheckedIn, StatusCanceled, StatusNoShow, StatusRescheduled},
	StatusCheckedIn: {StatusCompleted, StatusCanceled, StatusNoShow},
}

// ParseBookingStatus validates a raw status value
func ParseBookingStatus(s string) (BookingStatus, bool) {
	status := BookingStatus(s)
	for _, known := range AllStatuses {
		if status == known {
			return status, true
		}
	}
	return "", false
}

// IsActive returns true for statuses that hold the resource
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

// IsTerminal returns true if no further transition is possible
func (s BookingStatus) IsTerminal() bool {
	return !s.IsActive()
}

// CanTransitionTo reports whether the state machine allows s -> next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking reservation of a resource for [StartAt, EndAt)
type Booking struct {
	ID         string
	TenantID   string
	CustomerID string
	ResourceID string
	ServiceID  string // услуга первой позиции

	StartAt   time.Time // UTC
	EndAt     time.Time // UTC
	BookingTZ string    // IANA зона для отображения локального времени

	// Буферы фиксируются в момент создания: изменение услуги в каталоге
	// не сдвигает уже занятые интервалы
	BufferBeforeMinutes int
	BufferAfterMinutes  int

	Status            BookingStatus
	AttendeeCount     int
	ClientGeneratedID *string
	RescheduledFrom   *string

	CancellationReason *string
	CanceledAt         *time.Time

	Items []BookingItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingItem line item of a multi-service booking.
// Items share the parent time window and contribute their own buffers.
type BookingItem struct {
	ID                  string
	BookingID           string
	ServiceID           string
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
}

// IsActive returns true if the booking occupies its resource
func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// CanBeCanceled returns true if the booking can move to canceled
func (b *Booking) CanBeCanceled() bool {
	return b.Status.CanTransitionTo(StatusCanceled)
}

// CanBeRescheduled returns true if the booking can be moved to another time
func (b *Booking) CanBeRescheduled() bool {
	return b.Status.CanTransitionTo(StatusRescheduled)
}

// Span booking time range without buffers
func (b *Booking) Span() interval.Span {
	return interval.Span{Start: b.StartAt, End: b.EndAt}
}

// PaddedSpan [StartAt - buffer_before, EndAt + buffer_after)
func (b *Booking) PaddedSpan() interval.Span {
	return interval.Pad(b.Span(),
		time.Duration(b.BufferBeforeMinutes)*time.Minute,
		time.Duration(b.BufferAfterMinutes)*time.Minute)
}

// DurationMinutes booking length in minutes
func (b *Booking) DurationMinutes() int {
	return int(b.EndAt.Sub(b.StartAt) / time.Minute)
}

// Clone deep copy, used by storages that must not share memory with callers
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.ClientGeneratedID = clonePtr(b.ClientGeneratedID)
	c.RescheduledFrom = clonePtr(b.RescheduledFrom)
	c.CancellationReason = clonePtr(b.CancellationReason)
	c.CanceledAt = clonePtr(b.CanceledAt)
	if b.Items != nil {
		c.Items = make([]BookingItem, len(b.Items))
		copy(c.Items, b.Items)
	}
	return &c
}

// BookingFilter фильтр списка бронирований ресурса
type BookingFilter struct {
	TenantID   string          // Обязательный параметр
	ResourceID string          // Обязательный параметр
	From       *time.Time      // Бронирования, заканчивающиеся после From (опционально)
	To         *time.Time      // Бронирования, начинающиеся до To (опционально)
	Statuses   []BookingStatus // Пусто = все статусы
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
