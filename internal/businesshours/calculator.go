package businesshours

import (
	"time"

	"github.com/spec-kit/jira-mirror/internal/config"
)

// Calculator computes elapsed working time between two instants for a
// fixed working window and weekday set. It is immutable after
// construction and performs no I/O; the configuration must already have
// passed config validation.
type Calculator struct {
	startHour int
	endHour   int
	weekdays  map[time.Weekday]bool
	location  *time.Location
}

// NewCalculator builds a calculator from validated configuration.
func NewCalculator(cfg config.BusinessHoursConfig) *Calculator {
	weekdays := make(map[time.Weekday]bool, len(cfg.Weekdays))
	for _, day := range cfg.Weekdays {
		weekdays[day] = true
	}
	return &Calculator{
		startHour: cfg.StartHour,
		endHour:   cfg.EndHour,
		weekdays:  weekdays,
		location:  cfg.Location(),
	}
}

// Elapsed returns the working time inside the half-open interval
// [start, end). The interval is walked one calendar day at a time in
// the configured zone; each working day contributes the intersection of
// its window with the interval. end <= start yields zero.
func (c *Calculator) Elapsed(start, end time.Time) time.Duration {
	if !end.After(start) {
		return 0
	}

	start = start.In(c.location)
	end = end.In(c.location)

	var total time.Duration
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, c.location)
	for day.Before(end) {
		next := day.AddDate(0, 0, 1)
		if c.weekdays[day.Weekday()] {
			windowStart := time.Date(day.Year(), day.Month(), day.Day(), c.startHour, 0, 0, 0, c.location)
			windowEnd := time.Date(day.Year(), day.Month(), day.Day(), c.endHour, 0, 0, 0, c.location)

			lo := windowStart
			if start.After(lo) {
				lo = start
			}
			hi := windowEnd
			if end.Before(hi) {
				hi = end
			}
			if hi.After(lo) {
				total += hi.Sub(lo)
			}
		}
		day = next
	}
	return total
}

// ElapsedBusinessSeconds is Elapsed expressed in whole seconds.
func (c *Calculator) ElapsedBusinessSeconds(start, end time.Time) int64 {
	return int64(c.Elapsed(start, end) / time.Second)
}

// ElapsedBusinessHours is Elapsed expressed in fractional hours, the
// unit the aggregation payload reports.
func (c *Calculator) ElapsedBusinessHours(start, end time.Time) float64 {
	return c.Elapsed(start, end).Hours()
}
