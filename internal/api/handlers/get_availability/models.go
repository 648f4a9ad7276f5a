package get_availability

import (
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	ResourceID string        `json:"resourceId"`
	Days       []DayResponse `json:"days"`
}

// DayResponse открытые окна одной даты
type DayResponse struct {
	Date     string           `json:"date"`
	Weekday  int              `json:"weekday"`
	Timezone string           `json:"timezone"`
	Windows  []WindowResponse `json:"windows"`
}

// WindowResponse окно в минутах суток зоны ресурса
type WindowResponse struct {
	StartMinute int    `json:"startMinute"`
	EndMinute   int    `json:"endMinute"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// FromServiceResult конвертирует результат сервиса в HTTP response
func FromServiceResult(resourceID string, result *availability.Result) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		ResourceID: resourceID,
		Days:       make([]DayResponse, 0, len(result.Days)),
	}

	for _, day := range result.Days {
		windows := make([]WindowResponse, 0, len(day.Windows))
		for _, w := range day.Windows {
			windows = append(windows, WindowResponse{
				StartMinute: w.Start,
				EndMinute:   w.End,
				StartTime:   label(w.Start),
				EndTime:     label(w.End),
			})
		}
		resp.Days = append(resp.Days, DayResponse{
			Date:     day.Date.Format(domain.DateFormat),
			Weekday:  day.Weekday,
			Timezone: day.Timezone,
			Windows:  windows,
		})
	}

	return resp
}

func label(minute int) string {
	ts, err := types.FromMinutes(minute)
	if err != nil {
		return ""
	}
	return ts.String()
}
