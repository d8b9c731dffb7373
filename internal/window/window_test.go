package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, ist)
}

func TestGeneratorResolve(t *testing.T) {
	// Thursday afternoon.
	gen := NewGenerator(at(2026, time.October, 15, 14, 30), ist)

	tests := []struct {
		kind  Kind
		start time.Time
		end   time.Time
	}{
		{Today, at(2026, time.October, 15, 0, 0), at(2026, time.October, 16, 0, 0)},
		{Yesterday, at(2026, time.October, 14, 0, 0), at(2026, time.October, 15, 0, 0)},
		{ThisWeek, at(2026, time.October, 11, 0, 0), at(2026, time.October, 18, 0, 0)},
		{LastWeek, at(2026, time.October, 4, 0, 0), at(2026, time.October, 11, 0, 0)},
		{ThisMonth, at(2026, time.October, 1, 0, 0), at(2026, time.November, 1, 0, 0)},
		{LastMonth, at(2026, time.September, 1, 0, 0), at(2026, time.October, 1, 0, 0)},
		{Last7Days, at(2026, time.October, 9, 0, 0), at(2026, time.October, 16, 0, 0)},
		{Last30Days, at(2026, time.September, 16, 0, 0), at(2026, time.October, 16, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w, err := gen.Resolve(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, w.Kind)
			assert.True(t, tt.start.Equal(w.Start), "start = %s, want %s", w.Start, tt.start)
			assert.True(t, tt.end.Equal(w.End), "end = %s, want %s", w.End, tt.end)
		})
	}
}

func TestGeneratorBoundariesUseBusinessZone(t *testing.T) {
	// 20:00 UTC on the 14th is already the 15th in IST.
	gen := NewGenerator(time.Date(2026, time.October, 14, 20, 0, 0, 0, time.UTC), ist)

	w, err := gen.Resolve(Today)
	require.NoError(t, err)
	assert.True(t, at(2026, time.October, 15, 0, 0).Equal(w.Start))
}

func TestGeneratorWeekStartsOnSunday(t *testing.T) {
	gen := NewGenerator(at(2026, time.March, 1, 9, 0), ist)

	w, err := gen.Resolve(ThisWeek)
	require.NoError(t, err)
	assert.True(t, at(2026, time.March, 1, 0, 0).Equal(w.Start))

	last, err := gen.Resolve(LastMonth)
	require.NoError(t, err)
	assert.True(t, at(2026, time.February, 1, 0, 0).Equal(last.Start))
	assert.True(t, at(2026, time.March, 1, 0, 0).Equal(last.End))
}

func TestGeneratorIsStable(t *testing.T) {
	gen := NewGenerator(at(2026, time.October, 15, 14, 30), ist)

	first, err := gen.Resolve(Today)
	require.NoError(t, err)
	second, err := gen.Resolve(Today)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	c1, err := gen.Custom(time.Time{}, time.Time{})
	require.NoError(t, err)
	c2, err := gen.Custom(time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestGeneratorCustom(t *testing.T) {
	now := at(2026, time.October, 15, 14, 30)
	gen := NewGenerator(now, ist)

	t.Run("defaults", func(t *testing.T) {
		w, err := gen.Custom(time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, Custom, w.Kind)
		assert.True(t, at(2026, time.October, 15, 0, 0).Equal(w.Start))
		assert.True(t, now.Equal(w.End))
	})

	t.Run("explicit bounds", func(t *testing.T) {
		w, err := gen.Custom(at(2026, time.October, 1, 8, 0), at(2026, time.October, 2, 8, 0))
		require.NoError(t, err)
		assert.True(t, at(2026, time.October, 1, 8, 0).Equal(w.Start))
		assert.True(t, at(2026, time.October, 2, 8, 0).Equal(w.End))
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := gen.Custom(at(2026, time.October, 2, 8, 0), at(2026, time.October, 1, 8, 0))
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("start after defaulted end", func(t *testing.T) {
		_, err := gen.Custom(at(2026, time.October, 20, 0, 0), time.Time{})
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" ThisWeek ")
	require.NoError(t, err)
	assert.Equal(t, ThisWeek, k)

	_, err = ParseKind("fortnight")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestWindowContainsIsHalfOpen(t *testing.T) {
	w := Window{Start: at(2026, time.October, 15, 0, 0), End: at(2026, time.October, 16, 0, 0)}

	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Millisecond)))
}

func TestSpan(t *testing.T) {
	gen := NewGenerator(at(2026, time.October, 15, 14, 30), ist)
	today, _ := gen.Resolve(Today)
	lastMonth, _ := gen.Resolve(LastMonth)

	start, end := Span([]Window{today, lastMonth})
	assert.True(t, lastMonth.Start.Equal(start))
	assert.True(t, today.End.Equal(end))
}
