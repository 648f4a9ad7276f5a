package types

import "time"

// DateFormat формат календарной даты YYYY-MM-DD
const DateFormat = "2006-01-02"

// DateOnly отбрасывает время и зону, оставляя календарную дату в UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate парсит дату в формате YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// ISOWeekday день недели по ISO 8601: понедельник = 1, воскресенье = 7
func ISOWeekday(date time.Time) int {
	return (int(date.Weekday())+6)%7 + 1
}

// DaysBetween перечисляет даты from..to включительно
func DaysBetween(from, to time.Time) []time.Time {
	from, to = DateOnly(from), DateOnly(to)
	if to.Before(from) {
		return nil
	}
	days := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
