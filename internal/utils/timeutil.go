// Package utils contains small helpers shared across services and
// handlers. Dates travel through the system as "YYYY-MM-DD" strings and
// clock times as "HH:MM" strings; this file owns the conversions.
package utils

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// ClockLayout is the wire and storage format for slot times.
const ClockLayout = "15:04"

// ErrBadDate is returned for strings that do not parse as YYYY-MM-DD.
var ErrBadDate = errors.New("invalid date, expected YYYY-MM-DD")

// ErrBadClock is returned for strings that do not parse as HH:MM.
var ErrBadClock = errors.New("invalid time, expected HH:MM")

// ParseDate validates a date string and returns it as a UTC midnight
// time.Time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	return t, nil
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, ErrBadClock
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes since midnight back into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MondayOf normalizes a date string to the Monday of its ISO week.
func MondayOf(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // Sunday belongs to the week that started six days earlier
	}
	return t.AddDate(0, 0, -(wd - 1)).Format(DateLayout), nil
}

// AddDays shifts a date string by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// ISOWeekday returns the ISO weekday (1=Monday .. 7=Sunday) of a date.
func ISOWeekday(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return wd, nil
}

// StartDateTime combines a date and a clock string into one UTC instant.
func StartDateTime(date, clock string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(m) * time.Minute), nil
}

// HoursUntil returns the fractional hours from now until the instant,
// computed as whole minutes divided by 60 so sub-minute noise does not
// flip refund tiers.
func HoursUntil(now, at time.Time) float64 {
	minutes := at.Sub(now) / time.Minute
	return float64(minutes) / 60.0
}
