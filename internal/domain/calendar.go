package domain

import (
	"fmt"
	"sort"
	"time"
)

// HoursMode selects how operational time is counted for a tenant.
type HoursMode string

const (
	// HoursModeCalendar counts wall-clock time, 24x7, minus holidays.
	HoursModeCalendar HoursMode = "CALENDAR"
	// HoursModeBusiness counts time inside a shared weekday window set.
	HoursModeBusiness HoursMode = "BUSINESS"
	// HoursModeCustom counts time inside explicit per-day windows.
	HoursModeCustom HoursMode = "CUSTOM"
)

// DayWindow is a working interval within one calendar day, expressed as
// minutes from local midnight. Start is inclusive, End exclusive.
type DayWindow struct {
	StartMinute int
	EndMinute   int
}

// OperationalHoursProfile describes when the SLA clock runs for a tenant.
type OperationalHoursProfile struct {
	Mode     HoursMode
	Timezone string
	Windows  map[time.Weekday][]DayWindow
}

// Location resolves the profile timezone. An empty timezone means UTC.
func (p OperationalHoursProfile) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// Validate checks window invariants: bounds within the day, positive length,
// and non-overlapping ordered windows per weekday.
func (p OperationalHoursProfile) Validate() error {
	switch p.Mode {
	case HoursModeCalendar, HoursModeBusiness, HoursModeCustom:
	default:
		return fmt.Errorf("unknown operational hours mode %q", p.Mode)
	}
	for day, windows := range p.Windows {
		prevEnd := -1
		for _, w := range windows {
			if w.StartMinute < 0 || w.EndMinute > 24*60 {
				return fmt.Errorf("%s window %d-%d outside day bounds", day, w.StartMinute, w.EndMinute)
			}
			if w.EndMinute <= w.StartMinute {
				return fmt.Errorf("%s window %d-%d has non-positive length", day, w.StartMinute, w.EndMinute)
			}
			if w.StartMinute < prevEnd {
				return fmt.Errorf("%s windows overlap or are unordered at %d", day, w.StartMinute)
			}
			prevEnd = w.EndMinute
		}
	}
	return nil
}

// HasWindows reports whether any weekday has at least one window.
func (p OperationalHoursProfile) HasWindows() bool {
	for _, windows := range p.Windows {
		if len(windows) > 0 {
			return true
		}
	}
	return false
}

// Holiday is a zero-counted date in the tenant timezone. Recurring holidays
// match their month and day every year.
type Holiday struct {
	Name      string
	Date      time.Time
	Recurring bool
}

// HolidaySet answers holiday membership for calendar dates.
type HolidaySet struct {
	fixed     map[string]struct{}
	recurring map[string]struct{}
}

// NewHolidaySet builds a set from individual holidays, dropping duplicates.
func NewHolidaySet(holidays []Holiday) HolidaySet {
	set := HolidaySet{
		fixed:     make(map[string]struct{}, len(holidays)),
		recurring: make(map[string]struct{}),
	}
	for _, h := range holidays {
		if h.Recurring {
			set.recurring[h.Date.Format("01-02")] = struct{}{}
			continue
		}
		set.fixed[h.Date.Format("2006-01-02")] = struct{}{}
	}
	return set
}

// Contains reports whether the given local calendar date is a holiday.
func (s HolidaySet) Contains(year int, month time.Month, day int) bool {
	if len(s.fixed) == 0 && len(s.recurring) == 0 {
		return false
	}
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if _, ok := s.fixed[date.Format("2006-01-02")]; ok {
		return true
	}
	_, ok := s.recurring[date.Format("01-02")]
	return ok
}

// Dates returns the fixed holiday dates in ascending order, mainly for
// logging and report output.
func (s HolidaySet) Dates() []string {
	out := make([]string, 0, len(s.fixed))
	for d := range s.fixed {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
