package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"partial", Span{at(10, 0), at(11, 0)}, Span{at(10, 30), at(11, 30)}, true},
		{"adjacent", Span{at(10, 0), at(11, 0)}, Span{at(11, 0), at(12, 0)}, false},
		{"contained", Span{at(10, 0), at(12, 0)}, Span{at(10, 30), at(11, 0)}, true},
		{"disjoint", Span{at(8, 0), at(9, 0)}, Span{at(10, 0), at(11, 0)}, false},
		{"identical", Span{at(10, 0), at(11, 0)}, Span{at(10, 0), at(11, 0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a))
		})
	}
}

func TestPad(t *testing.T) {
	padded := Pad(Span{at(10, 0), at(11, 0)}, 15*time.Minute, 10*time.Minute)
	assert.Equal(t, at(9, 45), padded.Start)
	assert.Equal(t, at(11, 10), padded.End)
}

func TestMerge_CoalescesAdjacentAndOverlapping(t *testing.T) {
	merged := Merge([]Span{
		{at(13, 0), at(14, 0)},
		{at(9, 0), at(10, 0)},
		{at(10, 0), at(11, 0)},
		{at(10, 30), at(11, 30)},
		{at(15, 0), at(15, 0)},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, Span{at(9, 0), at(11, 30)}, merged[0])
	assert.Equal(t, Span{at(13, 0), at(14, 0)}, merged[1])
}

func TestSubtract(t *testing.T) {
	window := Span{at(9, 0), at(17, 0)}

	t.Run("no busy", func(t *testing.T) {
		assert.Equal(t, []Span{window}, Subtract(window, nil))
	})

	t.Run("busy in the middle", func(t *testing.T) {
		free := Subtract(window, []Span{{at(12, 0), at(13, 0)}, {at(10, 0), at(11, 0)}})
		assert.Equal(t, []Span{
			{at(9, 0), at(10, 0)},
			{at(11, 0), at(12, 0)},
			{at(13, 0), at(17, 0)},
		}, free)
	})

	t.Run("busy overhangs edges", func(t *testing.T) {
		free := Subtract(window, []Span{{at(8, 0), at(9, 30)}, {at(16, 30), at(18, 0)}})
		assert.Equal(t, []Span{{at(9, 30), at(16, 30)}}, free)
	})

	t.Run("busy covers window", func(t *testing.T) {
		assert.Empty(t, Subtract(window, []Span{{at(8, 0), at(18, 0)}}))
	})

	t.Run("adjacent busy leaves window intact", func(t *testing.T) {
		free := Subtract(window, []Span{{at(7, 0), at(9, 0)}, {at(17, 0), at(18, 0)}})
		assert.Equal(t, []Span{window}, free)
	})
}

func TestMinuteRanges(t *testing.T) {
	assert.True(t, OverlapsMinutes(MinuteRange{540, 600}, MinuteRange{590, 620}))
	assert.False(t, OverlapsMinutes(MinuteRange{540, 600}, MinuteRange{600, 620}))

	merged := MergeMinutes([]MinuteRange{{780, 1020}, {540, 720}, {700, 760}})
	assert.Equal(t, []MinuteRange{{540, 760}, {780, 1020}}, merged)

	free := SubtractMinutes(MinuteRange{540, 1020}, []MinuteRange{{720, 780}})
	assert.Equal(t, []MinuteRange{{540, 720}, {780, 1020}}, free)

	assert.True(t, MinuteRange{0, 1440}.Valid())
	assert.False(t, MinuteRange{600, 600}.Valid())
	assert.False(t, MinuteRange{-1, 10}.Valid())
}
