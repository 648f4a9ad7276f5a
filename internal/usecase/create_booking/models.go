package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на создание бронирования.
// Начало задается либо StartAt, либо парой LocalDate + LocalTime в зоне ресурса.
type Request struct {
	TenantID          string
	CustomerID        string
	ResourceID        string
	ServiceIDs        []string // первая услуга = основная
	StartAt           *time.Time
	LocalDate         *time.Time
	LocalTime         types.TimeString
	AttendeeCount     int
	ClientGeneratedID string               // ключ идемпотентности в рамках tenant
	Status            domain.BookingStatus // pending или confirmed; пусто = из конфигурации
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking  *domain.Booking
	Replayed bool // true, если бронирование с этим client_generated_id уже существовало
}

// Config политика создания бронирований
type Config struct {
	InitialStatus    domain.BookingStatus
	MinNoticeMinutes int
}
