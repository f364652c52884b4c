package businesshours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/jira-mirror/internal/config"
)

func weekdayConfig() config.BusinessHoursConfig {
	return config.BusinessHoursConfig{
		StartHour: 9,
		EndHour:   17,
		Weekdays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Timezone:  "UTC",
	}
}

// 2025-01-06 is a Monday.
func utc(day, hour, minute int) time.Time {
	return time.Date(2025, time.January, day, hour, minute, 0, 0, time.UTC)
}

func TestCalculator_SingleDay(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(weekdayConfig())

	testCases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  time.Duration
	}{
		{
			name:  "SpanningWholeWindow",
			start: utc(6, 8, 0),
			end:   utc(6, 18, 0),
			want:  8 * time.Hour,
		},
		{
			name:  "InsideWindow",
			start: utc(6, 10, 0),
			end:   utc(6, 11, 30),
			want:  90 * time.Minute,
		},
		{
			name:  "EntirelyBeforeWindow",
			start: utc(6, 6, 0),
			end:   utc(6, 8, 30),
			want:  0,
		},
		{
			name:  "EntirelyAfterWindow",
			start: utc(6, 18, 0),
			end:   utc(6, 22, 0),
			want:  0,
		},
		{
			name:  "StraddlingWindowStart",
			start: utc(6, 8, 0),
			end:   utc(6, 10, 0),
			want:  time.Hour,
		},
		{
			name:  "EndEqualsStart",
			start: utc(6, 10, 0),
			end:   utc(6, 10, 0),
			want:  0,
		},
		{
			name:  "EndBeforeStart",
			start: utc(6, 12, 0),
			end:   utc(6, 10, 0),
			want:  0,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, testCase.want, calc.Elapsed(testCase.start, testCase.end))
		})
	}
}

func TestCalculator_WeekendSpan(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(weekdayConfig())

	// Friday 2025-01-10 16:00 to Monday 2025-01-13 10:00: one hour on
	// Friday (16-17) plus one hour on Monday (9-10).
	got := calc.Elapsed(utc(10, 16, 0), utc(13, 10, 0))
	assert.Equal(t, 2*time.Hour, got)
}

func TestCalculator_MultiDaySpanPartitionsExactly(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(weekdayConfig())

	// Monday 08:00 through Wednesday 18:00 covers three full windows.
	got := calc.Elapsed(utc(6, 8, 0), utc(8, 18, 0))
	assert.Equal(t, 24*time.Hour, got)

	// Sliding the start inside Monday's window removes exactly that much.
	got = calc.Elapsed(utc(6, 13, 0), utc(8, 18, 0))
	assert.Equal(t, 20*time.Hour, got)
}

func TestCalculator_NonWorkingDaysContributeNothing(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(weekdayConfig())

	// Saturday 2025-01-11 to Sunday 2025-01-12, both non-working.
	assert.Equal(t, time.Duration(0), calc.Elapsed(utc(11, 9, 0), utc(12, 17, 0)))
}

func TestCalculator_TimezoneInterpretsWallClock(t *testing.T) {
	t.Parallel()

	cfg := weekdayConfig()
	cfg.Timezone = "America/New_York"
	calc := NewCalculator(cfg)

	// 14:00-22:00 UTC on a Monday is 09:00-17:00 in New York (EST,
	// UTC-5): the full window.
	got := calc.Elapsed(utc(6, 14, 0), utc(6, 22, 0))
	assert.Equal(t, 8*time.Hour, got)
}

func TestCalculator_Determinism(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(weekdayConfig())
	start, end := utc(6, 10, 0), utc(9, 15, 30)

	first := calc.Elapsed(start, end)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, calc.Elapsed(start, end))
	}
}

func TestCalculator_SecondsAndHoursViews(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(weekdayConfig())
	start, end := utc(6, 10, 0), utc(6, 11, 30)

	assert.Equal(t, int64(5400), calc.ElapsedBusinessSeconds(start, end))
	assert.InDelta(t, 1.5, calc.ElapsedBusinessHours(start, end), 1e-9)
}
