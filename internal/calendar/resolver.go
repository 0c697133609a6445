// Package calendar implements counted-duration arithmetic over tenant
// operational-hours profiles: measuring elapsed counted time between two
// instants and projecting a deadline by adding a counted budget to an
// anchor. Each operational-hours mode has its own resolver so window
// clipping, holidays, and DST behavior stay isolated per mode.
package calendar

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// maxLookaheadDays bounds the forward walk in AddCounted. A profile that
// yields no counted time within this horizon is unusable configuration,
// not an infinite loop.
const maxLookaheadDays = 731

// Resolver maps wall-clock intervals to counted durations and adds counted
// budgets to timestamps. Implementations are safe for concurrent use.
type Resolver interface {
	// CountedBetween returns the counted duration between start and end.
	// Returns zero when end is not after start.
	CountedBetween(start, end time.Time) time.Duration
	// AddCounted returns the UTC instant at which the counted budget,
	// measured from start, is exhausted.
	AddCounted(start time.Time, budget time.Duration) (time.Time, error)
}

// NewResolver builds the resolver for a profile and holiday set.
func NewResolver(profile domain.OperationalHoursProfile, holidays domain.HolidaySet) (Resolver, error) {
	if err := profile.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError(err.Error(), nil)
	}
	loc, err := profile.Location()
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error(), map[string]any{"timezone": profile.Timezone})
	}

	switch profile.Mode {
	case domain.HoursModeCalendar:
		return &calendarResolver{loc: loc, holidays: holidays}, nil
	case domain.HoursModeBusiness, domain.HoursModeCustom:
		if !profile.HasWindows() {
			return nil, apperrors.NewConfigurationError(
				"operational hours profile has no windows on any weekday", nil)
		}
		return &windowResolver{loc: loc, holidays: holidays, windows: profile.Windows}, nil
	default:
		return nil, apperrors.NewConfigurationError("unknown operational hours mode", nil)
	}
}

// calendarResolver counts 24x7 wall-clock time, excluding holiday dates.
type calendarResolver struct {
	loc      *time.Location
	holidays domain.HolidaySet
}

func (r *calendarResolver) CountedBetween(start, end time.Time) time.Duration {
	if !end.After(start) {
		return 0
	}
	cur := start.In(r.loc)
	endLocal := end.In(r.loc)

	var counted time.Duration
	for cur.Before(endLocal) {
		dayEnd := nextMidnight(cur, r.loc)
		segEnd := dayEnd
		if endLocal.Before(segEnd) {
			segEnd = endLocal
		}
		if !r.isHoliday(cur) {
			counted += segEnd.Sub(cur)
		}
		cur = dayEnd
	}
	return counted
}

func (r *calendarResolver) AddCounted(start time.Time, budget time.Duration) (time.Time, error) {
	cur := start.In(r.loc)
	if budget <= 0 {
		return cur.UTC(), nil
	}

	remaining := budget
	for day := 0; day <= maxLookaheadDays; day++ {
		dayEnd := nextMidnight(cur, r.loc)
		if !r.isHoliday(cur) {
			available := dayEnd.Sub(cur)
			if remaining <= available {
				return cur.Add(remaining).UTC(), nil
			}
			remaining -= available
		}
		cur = dayEnd
	}
	return time.Time{}, apperrors.NewConfigurationError(
		"no counted time available within lookahead horizon",
		map[string]any{"lookahead_days": maxLookaheadDays})
}

func (r *calendarResolver) isHoliday(t time.Time) bool {
	y, m, d := t.Date()
	return r.holidays.Contains(y, m, d)
}

// windowResolver counts only time inside per-weekday windows on non-holiday
// dates. Window boundaries are evaluated in local wall time per calendar
// day, so DST transitions neither double-count nor lose window time.
type windowResolver struct {
	loc      *time.Location
	holidays domain.HolidaySet
	windows  map[time.Weekday][]domain.DayWindow
}

func (r *windowResolver) CountedBetween(start, end time.Time) time.Duration {
	if !end.After(start) {
		return 0
	}
	startLocal := start.In(r.loc)
	endLocal := end.In(r.loc)

	var counted time.Duration
	for day, last := dayOf(startLocal, r.loc), dayOf(endLocal, r.loc); !day.After(last); day = day.AddDate(0, 0, 1) {
		y, m, d := day.Date()
		if r.holidays.Contains(y, m, d) {
			continue
		}
		for _, w := range r.windows[day.Weekday()] {
			wStart := minuteOfDay(day, w.StartMinute, r.loc)
			wEnd := minuteOfDay(day, w.EndMinute, r.loc)

			segStart := wStart
			if startLocal.After(segStart) {
				segStart = startLocal
			}
			segEnd := wEnd
			if endLocal.Before(segEnd) {
				segEnd = endLocal
			}
			if segEnd.After(segStart) {
				counted += segEnd.Sub(segStart)
			}
		}
	}
	return counted
}

func (r *windowResolver) AddCounted(start time.Time, budget time.Duration) (time.Time, error) {
	startLocal := start.In(r.loc)
	remaining := budget
	if remaining < 0 {
		remaining = 0
	}

	day := dayOf(startLocal, r.loc)
	for i := 0; i <= maxLookaheadDays; i++ {
		y, m, d := day.Date()
		if r.holidays.Contains(y, m, d) {
			day = day.AddDate(0, 0, 1)
			continue
		}
		for _, w := range r.windows[day.Weekday()] {
			wStart := minuteOfDay(day, w.StartMinute, r.loc)
			wEnd := minuteOfDay(day, w.EndMinute, r.loc)

			segStart := wStart
			if startLocal.After(segStart) {
				segStart = startLocal
			}
			if !segStart.Before(wEnd) {
				continue
			}
			available := wEnd.Sub(segStart)
			if remaining <= available {
				// Exact exhaustion at window close lands on the
				// window-close instant.
				return segStart.Add(remaining).UTC(), nil
			}
			remaining -= available
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, apperrors.NewConfigurationError(
		"no counted time available within lookahead horizon",
		map[string]any{"lookahead_days": maxLookaheadDays})
}

// dayOf returns local midnight of t's calendar day.
func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// nextMidnight returns local midnight of the day after t's calendar day.
func nextMidnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// minuteOfDay resolves a window boundary to an instant on the given day.
func minuteOfDay(day time.Time, minute int, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minute/60, minute%60, 0, 0, loc)
}
