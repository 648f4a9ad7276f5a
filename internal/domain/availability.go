package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var (
	ErrInvalidDayOfWeek = errors.New("domain: day_of_week must be in 1..7")
	ErrInvalidMinutes   = errors.New("domain: minutes must satisfy 0 <= start < end <= 1440")
	ErrPartialException = errors.New("domain: exception minutes must be both set or both null")
	ErrInvalidBreak     = errors.New("domain: break must be both set or both unset and lie inside the block")
	ErrInvalidTime      = errors.New("domain: invalid wall-clock time")
)

// AvailabilityRule recurring weekly open window of a resource
type AvailabilityRule struct {
	ID          string
	TenantID    string
	ResourceID  string
	DayOfWeek   int // ISO: 1 = понедельник
	StartMinute int
	EndMinute   int
	Recurrence  *string // зарезервировано для не еженедельных шаблонов
	CreatedAt   time.Time
}

// Range rule window in minutes of day
func (r *AvailabilityRule) Range() interval.MinuteRange {
	return interval.MinuteRange{Start: r.StartMinute, End: r.EndMinute}
}

// Validate checks day-of-week and minute bounds
func (r *AvailabilityRule) Validate() error {
	if r.DayOfWeek < MinDayOfWeek || r.DayOfWeek > MaxDayOfWeek {
		return fmt.Errorf("%w: got %d", ErrInvalidDayOfWeek, r.DayOfWeek)
	}
	if !r.Range().Valid() {
		return fmt.Errorf("%w: got [%d, %d)", ErrInvalidMinutes, r.StartMinute, r.EndMinute)
	}
	return nil
}

// AvailabilityException date-specific override; replaces rule windows for the date
type AvailabilityException struct {
	ID          string
	TenantID    string
	ResourceID  string
	Date        time.Time // только дата, UTC полночь
	StartMinute *int      // nil вместе с EndMinute = закрыто весь день
	EndMinute   *int
	Description string
	CreatedAt   time.Time
}

// IsClosure returns true for a full-day closure
func (e *AvailabilityException) IsClosure() bool {
	return e.StartMinute == nil && e.EndMinute == nil
}

// Windows replacement windows for the date
func (e *AvailabilityException) Windows() []interval.MinuteRange {
	if e.IsClosure() || e.StartMinute == nil || e.EndMinute == nil {
		return []interval.MinuteRange{}
	}
	return []interval.MinuteRange{{Start: *e.StartMinute, End: *e.EndMinute}}
}

// Validate checks the nullable minute pair
func (e *AvailabilityException) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidMinutes)
	}
	if (e.StartMinute == nil) != (e.EndMinute == nil) {
		return ErrPartialException
	}
	if e.IsClosure() {
		return nil
	}
	r := interval.MinuteRange{Start: *e.StartMinute, End: *e.EndMinute}
	if !r.Valid() {
		return fmt.Errorf("%w: got [%d, %d)", ErrInvalidMinutes, r.Start, r.End)
	}
	return nil
}

// TimeBlock presentation composite of one weekly window plus an optional break.
// StaffName, StaffRole and Color are denormalized display data.
type TimeBlock struct {
	ID         string
	TenantID   string
	ResourceID string // сотрудник
	RuleID     string // правило, созданное вместе с блоком
	DayOfWeek  int
	StartTime  types.TimeString
	EndTime    types.TimeString
	BreakStart *types.TimeString
	BreakEnd   *types.TimeString
	Recurring  bool
	Color      string
	StaffName  string
	StaffRole  string
	CreatedAt  time.Time
}

// Range block window in minutes of day
func (b *TimeBlock) Range() (interval.MinuteRange, error) {
	start, err := b.StartTime.Minutes()
	if err != nil {
		return interval.MinuteRange{}, fmt.Errorf("%w: start_time: %v", ErrInvalidTime, err)
	}
	end, err := b.EndTime.Minutes()
	if err != nil {
		return interval.MinuteRange{}, fmt.Errorf("%w: end_time: %v", ErrInvalidTime, err)
	}
	return interval.MinuteRange{Start: start, End: end}, nil
}

// Break break range; ok = false when the block has no break
func (b *TimeBlock) Break() (r interval.MinuteRange, ok bool, err error) {
	if b.BreakStart == nil || b.BreakEnd == nil {
		return interval.MinuteRange{}, false, nil
	}
	start, err := b.BreakStart.Minutes()
	if err != nil {
		return interval.MinuteRange{}, false, fmt.Errorf("%w: break_start: %v", ErrInvalidTime, err)
	}
	end, err := b.BreakEnd.Minutes()
	if err != nil {
		return interval.MinuteRange{}, false, fmt.Errorf("%w: break_end: %v", ErrInvalidTime, err)
	}
	return interval.MinuteRange{Start: start, End: end}, true, nil
}

// Windows open sub-windows: [start, end) or [start, breakStart) + [breakEnd, end)
func (b *TimeBlock) Windows() ([]interval.MinuteRange, error) {
	block, err := b.Range()
	if err != nil {
		return nil, err
	}
	brk, ok, err := b.Break()
	if err != nil {
		return nil, err
	}
	if !ok {
		return []interval.MinuteRange{block}, nil
	}
	return interval.SubtractMinutes(block, []interval.MinuteRange{brk}), nil
}

// Validate checks the block window and that the break lies strictly inside it
func (b *TimeBlock) Validate() error {
	if b.DayOfWeek < MinDayOfWeek || b.DayOfWeek > MaxDayOfWeek {
		return fmt.Errorf("%w: got %d", ErrInvalidDayOfWeek, b.DayOfWeek)
	}
	block, err := b.Range()
	if err != nil {
		return err
	}
	if !block.Valid() {
		return fmt.Errorf("%w: got %s-%s", ErrInvalidMinutes, b.StartTime, b.EndTime)
	}
	if (b.BreakStart == nil) != (b.BreakEnd == nil) {
		return ErrInvalidBreak
	}
	brk, ok, err := b.Break()
	if err != nil {
		return err
	}
	if ok && (brk.IsEmpty() || brk.Start <= block.Start || brk.End >= block.End) {
		return fmt.Errorf("%w: break %s-%s", ErrInvalidBreak, *b.BreakStart, *b.BreakEnd)
	}
	return nil
}
