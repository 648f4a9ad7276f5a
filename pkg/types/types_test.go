package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeString(t *testing.T) {
	ts, err := NewTimeStringFromString("09:30")
	require.NoError(t, err)

	minutes, err := ts.Minutes()
	require.NoError(t, err)
	assert.Equal(t, 570, minutes)

	later, err := ts.AddMinutes(45)
	require.NoError(t, err)
	assert.Equal(t, TimeString("10:15"), later)
	assert.True(t, ts.IsBefore(later))
	assert.True(t, later.IsAfter(ts))

	_, err = ts.AddMinutes(24 * 60)
	assert.ErrorIs(t, err, ErrTimeOverflow)

	end, err := NewTimeStringFromString("24:00")
	require.NoError(t, err)
	minutes, err = end.Minutes()
	require.NoError(t, err)
	assert.Equal(t, 1440, minutes)

	for _, bad := range []string{"", "9:30", "25:00", "10:61", "ab:cd"} {
		_, err := NewTimeStringFromString(bad)
		assert.ErrorIs(t, err, ErrInvalidTimeString, bad)
	}
}

func TestISOWeekday(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, ISOWeekday(monday))
	assert.Equal(t, 7, ISOWeekday(monday.AddDate(0, 0, 6)))
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2026, 2, 27, 15, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)

	days := DaysBetween(from, to)
	require.Len(t, days, 4)
	assert.Equal(t, "2026-02-27", days[0].Format(DateFormat))
	assert.Equal(t, "2026-03-02", days[3].Format(DateFormat))
	assert.Nil(t, DaysBetween(to, from))
}
