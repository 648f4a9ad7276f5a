package get_available_slots

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/timezone"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// slotParams параметры услуги и сетки для генерации стартов
type slotParams struct {
	duration     time.Duration
	bufferBefore time.Duration
	bufferAfter  time.Duration
	grid         time.Duration
	earliest     time.Time // минимально допустимое начало (now + min notice)
}

// generateStarts возвращает допустимые моменты начала внутри открытого окна.
// Сетка привязана к началу окна. Занятые интервалы вычитаются из окна, затем в каждом
// свободном отрезке берутся точки сетки, для которых
// start - bufferBefore >= free.Start и start + duration + bufferAfter <= free.End.
func generateStarts(window interval.Span, busy []interval.Span, p slotParams) []time.Time {
	starts := make([]time.Time, 0)
	if p.grid <= 0 || window.IsEmpty() {
		return starts
	}

	for _, free := range interval.Subtract(window, busy) {
		minStart := free.Start.Add(p.bufferBefore)
		if minStart.Before(p.earliest) {
			minStart = p.earliest
		}

		current := alignToGrid(window.Start, minStart, p.grid)
		for !current.Add(p.duration + p.bufferAfter).After(free.End) {
			starts = append(starts, current)
			current = current.Add(p.grid)
		}
	}
	return starts
}

// alignToGrid первая точка сетки anchor + k*grid, не раньше min
func alignToGrid(anchor, min time.Time, grid time.Duration) time.Time {
	offset := min.Sub(anchor)
	if offset <= 0 {
		return anchor
	}
	steps := offset / grid
	if offset%grid != 0 {
		steps++
	}
	return anchor.Add(steps * grid)
}

// busySpans интервалы с буферами, зафиксированными на самих бронированиях
func busySpans(bookings []*domain.Booking) []interval.Span {
	spans := make([]interval.Span, 0, len(bookings))
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		spans = append(spans, b.PaddedSpan())
	}
	return spans
}

// toSlots дополняет старты локальными датой и временем зоны ресурса
func toSlots(starts []time.Time, duration time.Duration, loc *time.Location) []domain.AvailableSlot {
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	slots := make([]domain.AvailableSlot, 0, len(starts))
	for i, start := range starts {
		if i > 0 && start.Equal(starts[i-1]) {
			continue
		}
		wall := timezone.WallClockIn(loc, start)
		localTime, err := types.FromMinutes(wall.MinuteOfDay)
		if err != nil {
			continue
		}
		slots = append(slots, domain.AvailableSlot{
			StartAt:   start.UTC(),
			EndAt:     start.Add(duration).UTC(),
			LocalDate: wall.Date,
			LocalTime: localTime,
			Timezone:  wall.TZName,
		})
	}
	return slots
}
