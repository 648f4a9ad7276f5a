package reschedule_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	rescheduleBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/reschedule_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	NewStartAt        *time.Time `json:"newStartAt,omitempty"`
	LocalDate         string     `json:"localDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LocalTime         string     `json:"localTime,omitempty" validate:"omitempty,len=5"`
	ClientGeneratedID string     `json:"clientGeneratedId,omitempty" validate:"omitempty,max=128"`
}

// RescheduleBookingResponse HTTP response model
type RescheduleBookingResponse struct {
	Booking  *models.BookingResponse `json:"booking"`
	Previous *models.BookingResponse `json:"previous"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *RescheduleBookingRequest) ToUseCaseRequest(tenantID, bookingID string) (*rescheduleBooking.Request, error) {
	req := &rescheduleBooking.Request{
		TenantID:          tenantID,
		BookingID:         bookingID,
		NewStartAt:        r.NewStartAt,
		LocalTime:         types.TimeString(r.LocalTime),
		ClientGeneratedID: r.ClientGeneratedID,
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
func FromUseCaseResponse(resp *rescheduleBooking.Response) *RescheduleBookingResponse {
	return &RescheduleBookingResponse{
		Booking:  models.FromDomainBooking(resp.Booking),
		Previous: models.FromDomainBooking(resp.Previous),
	}
}
