package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// AvailableSlot represents an offerable start time
type AvailableSlot struct {
	StartAt   time.Time        // UTC
	EndAt     time.Time        // UTC, StartAt + длительность услуги
	LocalDate time.Time        // календарная дата в зоне ресурса
	LocalTime types.TimeString // время начала в зоне ресурса
	Timezone  string
}

// DurationMinutes returns the slot length
func (s *AvailableSlot) DurationMinutes() int {
	return int(s.EndAt.Sub(s.StartAt) / time.Minute)
}
