package get_available_slots

import (
	"fmt"
	"strconv"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	ResourceID      string          `json:"resourceId"`
	ServiceID       string          `json:"serviceId"`
	Timezone        string          `json:"timezone"`
	DurationMinutes int             `json:"durationMinutes"`
	GridMinutes     int             `json:"gridMinutes"`
	Slots           []AvailableSlot `json:"slots"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartAt   time.Time `json:"startAt"`
	EndAt     time.Time `json:"endAt"`
	LocalDate string    `json:"localDate"`
	LocalTime string    `json:"localTime"`
	Timezone  string    `json:"timezone"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartAt:   slot.StartAt.UTC(),
			EndAt:     slot.EndAt.UTC(),
			LocalDate: slot.LocalDate.Format(domain.DateFormat),
			LocalTime: slot.LocalTime.String(),
			Timezone:  slot.Timezone,
		}
	}

	return &AvailableSlotsResponse{
		ResourceID:      resp.ResourceID,
		ServiceID:       resp.ServiceID,
		Timezone:        resp.Timezone,
		DurationMinutes: resp.DurationMinutes,
		GridMinutes:     resp.GridMinutes,
		Slots:           slots,
	}
}

// ToUseCaseRequest создает запрос use case из query параметров.
// to по умолчанию равен from.
func ToUseCaseRequest(tenantID, resourceID, serviceID, fromStr, toStr, gridStr string) (*getAvailableSlots.Request, error) {
	from, err := handlers.ParseDate(fromStr)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}

	to := from
	if toStr != "" {
		if to, err = handlers.ParseDate(toStr); err != nil {
			return nil, fmt.Errorf("to: %w", err)
		}
	}

	grid := 0
	if gridStr != "" {
		if grid, err = strconv.Atoi(gridStr); err != nil {
			return nil, fmt.Errorf("grid: %w", err)
		}
	}

	return &getAvailableSlots.Request{
		TenantID:    tenantID,
		ResourceID:  resourceID,
		ServiceID:   serviceID,
		From:        from,
		To:          to,
		GridMinutes: grid,
	}, nil
}
