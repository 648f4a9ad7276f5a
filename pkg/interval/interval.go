// Package interval содержит примитивы полуоткрытых интервалов [start, end):
// минутные диапазоны внутри суток и абсолютные интервалы во времени.
// Все функции чистые, входные слайсы не модифицируются.
package interval

import (
	"sort"
	"time"
)

// MinutesPerDay количество минут в сутках, верхняя граница MinuteRange.End
const MinutesPerDay = 1440

// MinuteRange полуоткрытый диапазон минут от полуночи [Start, End)
type MinuteRange struct {
	Start int
	End   int
}

// Span полуоткрытый абсолютный интервал [Start, End)
type Span struct {
	Start time.Time
	End   time.Time
}

// IsEmpty возвращает true, если диапазон не содержит ни одной минуты
func (r MinuteRange) IsEmpty() bool {
	return r.End <= r.Start
}

// Length длина диапазона в минутах
func (r MinuteRange) Length() int {
	if r.IsEmpty() {
		return 0
	}
	return r.End - r.Start
}

// Valid проверяет, что диапазон лежит в пределах суток и Start < End
func (r MinuteRange) Valid() bool {
	return r.Start >= 0 && r.End <= MinutesPerDay && r.Start < r.End
}

// Contains проверяет, что other целиком лежит внутри r
func (r MinuteRange) Contains(other MinuteRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// OverlapsMinutes true тогда и только тогда, когда a.Start < b.End && b.Start < a.End
func OverlapsMinutes(a, b MinuteRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// MergeMinutes сортирует диапазоны и склеивает пересекающиеся и смежные
func MergeMinutes(ranges []MinuteRange) []MinuteRange {
	sorted := make([]MinuteRange, 0, len(ranges))
	for _, r := range ranges {
		if !r.IsEmpty() {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := make([]MinuteRange, 0, len(sorted))
	for _, r := range sorted {
		last := len(merged) - 1
		if last >= 0 && r.Start <= merged[last].End {
			if r.End > merged[last].End {
				merged[last].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// SubtractMinutes возвращает свободные части window после удаления busy
func SubtractMinutes(window MinuteRange, busy []MinuteRange) []MinuteRange {
	if window.IsEmpty() {
		return []MinuteRange{}
	}

	free := make([]MinuteRange, 0, 1)
	cursor := window.Start
	for _, b := range MergeMinutes(busy) {
		if b.End <= cursor {
			continue
		}
		if b.Start >= window.End {
			break
		}
		if b.Start > cursor {
			free = append(free, MinuteRange{Start: cursor, End: b.Start})
		}
		cursor = b.End
		if cursor >= window.End {
			return free
		}
	}
	if cursor < window.End {
		free = append(free, MinuteRange{Start: cursor, End: window.End})
	}
	return free
}

// IsEmpty возвращает true для вырожденного интервала
func (s Span) IsEmpty() bool {
	return !s.End.After(s.Start)
}

// Duration длительность интервала
func (s Span) Duration() time.Duration {
	if s.IsEmpty() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Contains проверяет, что other целиком лежит внутри s
func (s Span) Contains(other Span) bool {
	return !other.Start.Before(s.Start) && !other.End.After(s.End)
}

// Overlaps true тогда и только тогда, когда a.Start < b.End && b.Start < a.End.
// Смежные интервалы (a.End == b.Start) не пересекаются.
func Overlaps(a, b Span) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Pad расширяет интервал на before слева и after справа
func Pad(s Span, before, after time.Duration) Span {
	return Span{Start: s.Start.Add(-before), End: s.End.Add(after)}
}

// Merge сортирует интервалы и склеивает пересекающиеся и смежные
func Merge(spans []Span) []Span {
	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if !s.IsEmpty() {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]Span, 0, len(sorted))
	for _, s := range sorted {
		last := len(merged) - 1
		if last >= 0 && !s.Start.After(merged[last].End) {
			if s.End.After(merged[last].End) {
				merged[last].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Subtract возвращает свободные части window после удаления всех busy.
// busy предварительно склеиваются, результат отсортирован.
func Subtract(window Span, busy []Span) []Span {
	if window.IsEmpty() {
		return []Span{}
	}

	free := make([]Span, 0, 1)
	cursor := window.Start
	for _, b := range Merge(busy) {
		if !b.End.After(cursor) {
			continue
		}
		if !b.Start.Before(window.End) {
			break
		}
		if b.Start.After(cursor) {
			free = append(free, Span{Start: cursor, End: b.Start})
		}
		cursor = b.End
		if !cursor.Before(window.End) {
			return free
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Span{Start: cursor, End: window.End})
	}
	return free
}

// OverlapsAny проверяет пересечение s хотя бы с одним из others
func OverlapsAny(s Span, others []Span) bool {
	for _, o := range others {
		if Overlaps(s, o) {
			return true
		}
	}
	return false
}
