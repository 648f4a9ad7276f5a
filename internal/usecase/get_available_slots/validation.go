package get_available_slots

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.TenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	if req.ResourceID == "" {
		return fmt.Errorf("%w: resourceID is required", ErrInvalidInput)
	}

	if req.ServiceID == "" {
		return fmt.Errorf("%w: serviceID is required", ErrInvalidInput)
	}

	if req.From.IsZero() || req.To.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}

	if req.GridMinutes < 0 || req.GridMinutes > domain.MaxGridMinutes {
		return fmt.Errorf("%w: grid must be in %d..%d minutes", ErrInvalidInput, domain.MinGridMinutes, domain.MaxGridMinutes)
	}

	return nil
}

// validateService проверяет, что услуга доступна tenant и включена
func validateService(service *domain.Service, tenantID string) error {
	if service.TenantID != tenantID {
		return ErrServiceNotFound
	}

	if !service.Active {
		return ErrServiceInactive
	}

	if service.DurationMinutes <= 0 || service.DurationMinutes > domain.MaxServiceDurationMins {
		return fmt.Errorf("%w: service duration %d is out of range", ErrInvalidInput, service.DurationMinutes)
	}

	if service.BufferBeforeMinutes < 0 || service.BufferAfterMinutes < 0 {
		return fmt.Errorf("%w: service buffers must not be negative", ErrInvalidInput)
	}

	return nil
}
