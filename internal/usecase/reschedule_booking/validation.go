package reschedule_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.TenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	if req.BookingID == "" {
		return fmt.Errorf("%w: bookingID is required", ErrInvalidInput)
	}

	if len(req.ClientGeneratedID) > domain.MaxClientGeneratedID {
		return fmt.Errorf("%w: clientGeneratedId must be at most %d characters", ErrInvalidInput, domain.MaxClientGeneratedID)
	}

	hasLocal := req.LocalDate != nil || !req.LocalTime.IsZero()
	if (req.NewStartAt == nil) == !hasLocal {
		return fmt.Errorf("%w: exactly one of newStartAt or localDate+localTime is required", ErrInvalidInput)
	}
	if hasLocal {
		if req.LocalDate == nil || req.LocalTime.IsZero() || req.LocalTime == types.EndOfDay {
			return fmt.Errorf("%w: localDate and a start localTime must be set together", ErrInvalidInput)
		}
		if err := req.LocalTime.Validate(); err != nil {
			return fmt.Errorf("%w: invalid localTime: %v", ErrInvalidInput, err)
		}
	}

	return nil
}

// validateResource ресурс бронирования не удален и доступен для записи
func validateResource(resource *domain.Resource, tenantID string) error {
	if resource.IsDeleted() || resource.TenantID != tenantID {
		return ErrResourceNotFound
	}
	if !resource.IsBookable() {
		return ErrResourceInactive
	}
	return nil
}

// validateStart новое начало не раньше now + minNotice
func validateStart(start, now time.Time, minNoticeMinutes int) error {
	if start.Before(now.Add(time.Duration(minNoticeMinutes) * time.Minute)) {
		return fmt.Errorf("%w: new start %s is too early", ErrTooLateToBook, start.Format(time.RFC3339))
	}
	return nil
}
