package pings

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	timePattern     = "HH:MM"
	datePattern     = "DD.MM.YYYY' or 'DD.MM"
	combinedPattern = "DD.MM[.YYYY] HH:MM"

	// ScheduleLayout renders a resolved instant the way it was entered.
	ScheduleLayout = "02.01.2006 15:04"
)

var (
	timeRe = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
	dateRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})(?:\.(\d{4}))?$`)
)

// Resolver turns loosely formatted ET dates and times into instants.
// ET is treated as numerically identical to UTC.
type Resolver struct {
	Now func() time.Time
}

// NewResolver returns a Resolver reading the wall clock.
func NewResolver() *Resolver {
	return &Resolver{Now: time.Now}
}

// Resolve parses a date ("DD.MM.YYYY" or "DD.MM") and a time ("HH:MM").
// A year-less date is placed in the current year, or the next one when
// the result would be in the past.
func (r *Resolver) Resolve(dateStr, timeStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)

	tm := timeRe.FindStringSubmatch(timeStr)
	if tm == nil {
		return time.Time{}, &FormatError{MessageID: "ErrBadTimeFormat", Expected: timePattern, Input: timeStr}
	}
	hour, _ := strconv.Atoi(tm[1])
	minute, _ := strconv.Atoi(tm[2])
	if hour > 23 || minute > 59 {
		return time.Time{}, &FormatError{MessageID: "ErrInvalidDate", Input: timeStr}
	}

	dm := dateRe.FindStringSubmatch(dateStr)
	if dm == nil {
		return time.Time{}, &FormatError{MessageID: "ErrBadDateFormat", Expected: datePattern, Input: dateStr}
	}
	day, _ := strconv.Atoi(dm[1])
	month, _ := strconv.Atoi(dm[2])

	if dm[3] != "" {
		year, _ := strconv.Atoi(dm[3])
		t, ok := calendarDate(year, month, day, hour, minute)
		if !ok {
			return time.Time{}, &FormatError{MessageID: "ErrInvalidDate", Input: dateStr}
		}
		return t, nil
	}

	now := r.now().UTC()
	// One rollover only: a date that exists neither this year nor next
	// (29.02 two years before a leap year) is rejected.
	for _, year := range []int{now.Year(), now.Year() + 1} {
		t, ok := calendarDate(year, month, day, hour, minute)
		if ok && !t.Before(now) {
			return t, nil
		}
	}
	return time.Time{}, &FormatError{MessageID: "ErrInvalidDate", Input: dateStr}
}

// ResolveCombined parses "DD.MM[.YYYY] HH:MM" given as a single string.
func (r *Resolver) ResolveCombined(s string) (time.Time, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, &FormatError{MessageID: "ErrBadDateTimeFormat", Expected: combinedPattern, Input: s}
	}
	return r.Resolve(parts[0], parts[1])
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// calendarDate builds a UTC instant, rejecting dates time.Date would normalize.
func calendarDate(year, month, day, hour, minute int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
