// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package analytics

import (
	"time"
)

// Range selects the reporting window.
type Range string

const (
	RangeToday    Range = "today"
	RangeWeek     Range = "week"
	RangeMonth    Range = "month"
	RangeQuarter  Range = "quarter"
	RangeHalfYear Range = "half_year"
	RangeYear     Range = "year"
)

// DefaultRange is used for empty and unknown selectors.
const DefaultRange = RangeMonth

var rangeDays = map[Range]int{
	RangeToday:    0,
	RangeWeek:     7,
	RangeMonth:    30,
	RangeQuarter:  90,
	RangeHalfYear: 180,
	RangeYear:     365,
}

// ParseRange maps a query value to a Range, falling back to month.
func ParseRange(s string) Range {
	r := Range(s)
	if _, ok := rangeDays[r]; ok {
		return r
	}
	return DefaultRange
}

// Days is N in "start = end - N days".
func (r Range) Days() int {
	if n, ok := rangeDays[r]; ok {
		return n
	}
	return rangeDays[DefaultRange]
}

const dateLayout = "2006-01-02"

// Window is an inclusive span of calendar dates. Dates are held as UTC
// midnights so comparisons are free of DST and zone effects.
type Window struct {
	Start time.Time
	End   time.Time
}

// Civil truncates t to its calendar date in t's own location.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WindowFor returns the window for r ending on now's local calendar date.
func WindowFor(r Range, now time.Time) Window {
	end := Civil(now.In(time.Local))
	return Window{Start: end.AddDate(0, 0, -r.Days()), End: end}
}

// Contains reports whether d (a civil date) lies in the window.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Len is the number of calendar days in the window.
func (w Window) Len() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Previous is the window of the same length ending the day before Start.
func (w Window) Previous() Window {
	end := w.Start.AddDate(0, 0, -1)
	return Window{Start: end.AddDate(0, 0, -(w.Len() - 1)), End: end}
}

// ParseDate reads the leading YYYY-MM-DD of s, so "2024-01-15" and
// "2024-01-15T00:00:00Z" give the same date.
func ParseDate(s string) (time.Time, bool) {
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}
