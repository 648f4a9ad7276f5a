package create_booking

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

	if req.CustomerID == "" {
		return fmt.Errorf("%w: customerID is required", ErrInvalidInput)
	}

	if req.ResourceID == "" {
		return fmt.Errorf("%w: resourceID is required", ErrInvalidInput)
	}

	if req.ClientGeneratedID == "" || len(req.ClientGeneratedID) > domain.MaxClientGeneratedID {
		return fmt.Errorf("%w: clientGeneratedId is required and must be at most %d characters",
			ErrInvalidInput, domain.MaxClientGeneratedID)
	}

	if len(req.ServiceIDs) == 0 || len(req.ServiceIDs) > domain.MaxServicesPerBooking {
		return fmt.Errorf("%w: between 1 and %d services are required", ErrInvalidInput, domain.MaxServicesPerBooking)
	}
	seen := make(map[string]struct{}, len(req.ServiceIDs))
	for _, id := range req.ServiceIDs {
		if id == "" {
			return fmt.Errorf("%w: empty serviceId", ErrInvalidInput)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate serviceId %s", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	if req.AttendeeCount < 1 || req.AttendeeCount > domain.MaxAttendees {
		return fmt.Errorf("%w: attendeeCount must be in 1..%d", ErrInvalidInput, domain.MaxAttendees)
	}

	hasLocal := req.LocalDate != nil || !req.LocalTime.IsZero()
	if (req.StartAt == nil) == !hasLocal {
		return fmt.Errorf("%w: exactly one of startAt or localDate+localTime is required", ErrInvalidInput)
	}
	if hasLocal {
		if req.LocalDate == nil || req.LocalTime.IsZero() {
			return fmt.Errorf("%w: localDate and localTime must be set together", ErrInvalidInput)
		}
		if req.LocalTime == types.EndOfDay {
			return fmt.Errorf("%w: localTime 24:00 is not a start time", ErrInvalidInput)
		}
		if err := req.LocalTime.Validate(); err != nil {
			return fmt.Errorf("%w: invalid localTime: %v", ErrInvalidInput, err)
		}
	}

	if req.Status != "" && req.Status != domain.StatusPending && req.Status != domain.StatusConfirmed {
		return fmt.Errorf("%w: initial status must be pending or confirmed", ErrInvalidInput)
	}

	return nil
}

// validateResource ресурс принадлежит tenant, активен и вмещает участников
func validateResource(resource *domain.Resource, tenantID string, attendees int) error {
	if resource.IsDeleted() || resource.TenantID != tenantID {
		return ErrResourceNotFound
	}

	if !resource.IsBookable() {
		return ErrResourceInactive
	}

	if attendees > resource.Capacity {
		return fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, attendees, resource.Capacity)
	}

	return nil
}

// validateService проверяет, что услуга доступна tenant и включена
func validateService(service *domain.Service, tenantID string) error {
	if service.TenantID != tenantID {
		return ErrServiceNotFound
	}

	if !service.Active {
		return fmt.Errorf("%w: %s", ErrServiceInactive, service.ID)
	}

	if service.DurationMinutes <= 0 || service.DurationMinutes > domain.MaxServiceDurationMins {
		return fmt.Errorf("%w: service %s duration %d is out of range", ErrInvalidInput, service.ID, service.DurationMinutes)
	}

	if service.BufferBeforeMinutes < 0 || service.BufferBeforeMinutes > domain.MaxBufferMinutes ||
		service.BufferAfterMinutes < 0 || service.BufferAfterMinutes > domain.MaxBufferMinutes {
		return fmt.Errorf("%w: service %s buffers are out of range", ErrInvalidInput, service.ID)
	}

	return nil
}

// validateStart начало не раньше now + minNotice
func validateStart(start, now time.Time, minNoticeMinutes int) error {
	earliest := now.Add(time.Duration(minNoticeMinutes) * time.Minute)
	if start.Before(earliest) {
		if minNoticeMinutes > 0 {
			return fmt.Errorf("%w: must book at least %d minutes in advance", ErrTooLateToBook, minNoticeMinutes)
		}
		return fmt.Errorf("%w: start is in the past", ErrTooLateToBook)
	}
	return nil
}

// buildItems позиции бронирования. Все позиции делят одно окно:
// длительность = максимум длительностей, буферы = максимумы буферов.
func buildItems(services []*domain.Service) (items []domain.BookingItem, duration, before, after int) {
	items = make([]domain.BookingItem, 0, len(services))
	for _, s := range services {
		items = append(items, domain.BookingItem{
			ServiceID:           s.ID,
			DurationMinutes:     s.DurationMinutes,
			BufferBeforeMinutes: s.BufferBeforeMinutes,
			BufferAfterMinutes:  s.BufferAfterMinutes,
		})
		duration = max(duration, s.DurationMinutes)
		before = max(before, s.BufferBeforeMinutes)
		after = max(after, s.BufferAfterMinutes)
	}
	return items, duration, before, after
}
