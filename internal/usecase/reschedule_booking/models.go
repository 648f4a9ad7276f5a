package reschedule_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на перенос бронирования.
// Новое начало задается либо NewStartAt, либо парой LocalDate + LocalTime в зоне ресурса.
type Request struct {
	TenantID          string
	BookingID         string
	NewStartAt        *time.Time
	LocalDate         *time.Time
	LocalTime         types.TimeString
	ClientGeneratedID string // опционально; делает перенос идемпотентным
}

// Response модель ответа: новое бронирование и перенесенное исходное
type Response struct {
	Booking  *domain.Booking
	Previous *domain.Booking
	Replayed bool
}

// Config политика переноса
type Config struct {
	MinNoticeMinutes int
}
