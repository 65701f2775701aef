// Package recur expands a repeat specification into concrete, dated
// occurrences. Expansion is pure: the same inputs always yield the same
// occurrences, and nothing here consults the clock or existing rows.
package recur

import (
	"fmt"
	"time"

	"habitloop/internal/apperr"
)

type Pattern string

const (
	PatternNone     Pattern = "none"
	PatternDaily    Pattern = "daily"
	PatternWeekdays Pattern = "weekdays"
	PatternWeekends Pattern = "weekends"
	PatternWeekly   Pattern = "weekly"
)

const (
	// DefaultRepeatDays is the window for daily/weekdays/weekends patterns.
	DefaultRepeatDays = 30
	// DefaultNumberOfWeeks is the window for the weekly pattern.
	DefaultNumberOfWeeks = 4
)

// Spec describes how a habit repeats. Weekdays holds ISO weekday numbers
// (1=Monday .. 7=Sunday) and applies to PatternWeekly only. Zero values for
// RepeatDays/NumberOfWeeks mean "use the default"; negative values are
// rejected.
type Spec struct {
	Pattern       Pattern `json:"pattern"`
	Weekdays      []int   `json:"weekdays,omitempty"`
	RepeatDays    int     `json:"repeat_days,omitempty"`
	NumberOfWeeks int     `json:"number_of_weeks,omitempty"`
}

// Occurrence is one generated schedule slot.
type Occurrence struct {
	Date            time.Time
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
}

func (s Spec) Validate() error {
	switch s.Pattern {
	case PatternNone, PatternDaily, PatternWeekdays, PatternWeekends:
	case PatternWeekly:
		if len(s.Weekdays) == 0 {
			return apperr.InvalidRepeatSpec("weekly repeat requires at least one weekday")
		}
		for _, wd := range s.Weekdays {
			if wd < 1 || wd > 7 {
				return apperr.InvalidRepeatSpec(fmt.Sprintf("weekday %d outside 1..7", wd))
			}
		}
	default:
		return apperr.InvalidRepeatSpec(fmt.Sprintf("unknown repeat pattern %q", s.Pattern))
	}

	if s.RepeatDays < 0 {
		return apperr.InvalidRepeatSpec("repeat_days must be positive")
	}
	if s.NumberOfWeeks < 0 {
		return apperr.InvalidRepeatSpec("number_of_weeks must be positive")
	}
	return nil
}

// Expand materializes spec into occurrences anchored on start's calendar
// date. start's time-of-day is preserved on every generated date; end, when
// given, contributes its time-of-day the same way. A duration is carried
// verbatim and never derived from end.
func Expand(spec Spec, start time.Time, end *time.Time, durationMinutes *int) ([]Occurrence, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var dates []time.Time
	anchor := midnight(start)

	switch spec.Pattern {
	case PatternNone:
		dates = []time.Time{anchor}

	case PatternDaily, PatternWeekdays, PatternWeekends:
		days := spec.RepeatDays
		if days == 0 {
			days = DefaultRepeatDays
		}
		for off := 0; off < days; off++ {
			d := anchor.AddDate(0, 0, off)
			if matchesDayFilter(spec.Pattern, d) {
				dates = append(dates, d)
			}
		}

	case PatternWeekly:
		weeks := spec.NumberOfWeeks
		if weeks == 0 {
			weeks = DefaultNumberOfWeeks
		}
		wanted := make(map[int]bool, len(spec.Weekdays))
		for _, wd := range spec.Weekdays {
			wanted[wd] = true
		}
		for off := 0; off < weeks*7; off++ {
			d := anchor.AddDate(0, 0, off)
			if wanted[ISOWeekday(d)] {
				dates = append(dates, d)
			}
		}
	}

	occs := make([]Occurrence, 0, len(dates))
	for _, d := range dates {
		occ := Occurrence{
			Date:            d,
			StartTime:       atTimeOfDay(d, start),
			DurationMinutes: durationMinutes,
		}
		if end != nil {
			e := atTimeOfDay(d, *end)
			occ.EndTime = &e
		}
		occs = append(occs, occ)
	}
	return occs, nil
}

// ISOWeekday returns the ISO-8601 weekday number, 1=Monday .. 7=Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func matchesDayFilter(p Pattern, d time.Time) bool {
	switch p {
	case PatternWeekdays:
		return ISOWeekday(d) <= 5
	case PatternWeekends:
		return ISOWeekday(d) >= 6
	default:
		return true
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atTimeOfDay(date time.Time, clock time.Time) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0,
		clock.Location(),
	)
}
