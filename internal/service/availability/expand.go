package availability

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/interval"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Expand открытые окна одной даты:
//  1. объединение правил дня недели;
//  2. исключение на дату заменяет их целиком (оба поля пусты = закрыто);
//  3. перерывы блоков расписания этого дня недели вырезаются из окон.
//
// Некорректные записи пропускаются с предупреждением.
func Expand(
	date time.Time,
	rules []*domain.AvailabilityRule,
	exception *domain.AvailabilityException,
	blocks []*domain.TimeBlock,
	logger Logger,
) []interval.MinuteRange {
	weekday := types.ISOWeekday(date)

	var windows []interval.MinuteRange
	if exception != nil {
		if err := exception.Validate(); err != nil {
			logger.Warn("Availability: skipping malformed exception %s: %v", exception.ID, err)
			windows = ruleWindows(weekday, rules, logger)
		} else {
			windows = exception.Windows()
		}
	} else {
		windows = ruleWindows(weekday, rules, logger)
	}

	if len(windows) == 0 {
		return []interval.MinuteRange{}
	}
	return splitBreaks(weekday, windows, blocks, logger)
}

func ruleWindows(weekday int, rules []*domain.AvailabilityRule, logger Logger) []interval.MinuteRange {
	ranges := make([]interval.MinuteRange, 0, len(rules))
	for _, rule := range rules {
		if rule.DayOfWeek != weekday {
			continue
		}
		if err := rule.Validate(); err != nil {
			logger.Warn("Availability: skipping malformed rule %s: %v", rule.ID, err)
			continue
		}
		ranges = append(ranges, rule.Range())
	}
	// Пересечения отклоняются при записи, здесь объединяем на случай старых данных
	return interval.MergeMinutes(ranges)
}

func splitBreaks(weekday int, windows []interval.MinuteRange, blocks []*domain.TimeBlock, logger Logger) []interval.MinuteRange {
	breaks := make([]interval.MinuteRange, 0)
	for _, block := range blocks {
		if block.DayOfWeek != weekday {
			continue
		}
		if err := block.Validate(); err != nil {
			logger.Warn("Availability: skipping malformed time block %s: %v", block.ID, err)
			continue
		}
		brk, ok, err := block.Break()
		if err != nil || !ok {
			continue
		}
		breaks = append(breaks, brk)
	}
	if len(breaks) == 0 {
		return windows
	}

	result := make([]interval.MinuteRange, 0, len(windows)+len(breaks))
	for _, w := range windows {
		result = append(result, interval.SubtractMinutes(w, breaks)...)
	}
	return result
}
