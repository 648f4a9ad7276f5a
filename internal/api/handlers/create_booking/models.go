package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// CreateBookingRequest HTTP request model.
// Начало передается либо startAt (RFC 3339), либо localDate + localTime в зоне ресурса.
type CreateBookingRequest struct {
	CustomerID        string     `json:"customerId" validate:"required,max=128"`
	ResourceID        string     `json:"resourceId" validate:"required,max=128"`
	ServiceIDs        []string   `json:"serviceIds" validate:"required,min=1,max=10,dive,required"`
	StartAt           *time.Time `json:"startAt,omitempty"`
	LocalDate         string     `json:"localDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LocalTime         string     `json:"localTime,omitempty" validate:"omitempty,len=5"`
	AttendeeCount     int        `json:"attendeeCount,omitempty" validate:"gte=0"`
	ClientGeneratedID string     `json:"clientGeneratedId" validate:"required,max=128"`
	Status            string     `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed"`
}

// BookingResponse HTTP response model
type BookingResponse = models.BookingResponse

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(tenantID string) (*createBooking.Request, error) {
	req := &createBooking.Request{
		TenantID:          tenantID,
		CustomerID:        r.CustomerID,
		ResourceID:        r.ResourceID,
		ServiceIDs:        r.ServiceIDs,
		StartAt:           r.StartAt,
		LocalTime:         types.TimeString(r.LocalTime),
		AttendeeCount:     r.AttendeeCount,
		ClientGeneratedID: r.ClientGeneratedID,
		Status:            domain.BookingStatus(r.Status),
	}
	if req.AttendeeCount == 0 {
		req.AttendeeCount = 1
	}

	if r.LocalDate != "" {
		date, err := handlers.ParseDate(r.LocalDate)
		if err != nil {
			return nil, err
		}
		req.LocalDate = &date
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return models.FromDomainBooking(resp.Booking)
}
