// Package domain holds the alarm model and the occurrence calculator.
package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrInvalidAlarm    = errors.New("domain: invalid alarm")
	ErrInvalidTimezone = errors.New("domain: invalid timezone")
	ErrDuplicateID     = errors.New("domain: duplicate alarm id")
	ErrNotFound        = errors.New("domain: alarm not found")
)

// Date is a civil calendar date. The zero value means "not set".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: start date %q: %v", ErrInvalidAlarm, s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf extracts the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// AddDays returns the date n days later, normalized across month boundaries.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	return DateOf(t)
}

// Weekday returns the weekday index with Monday=0 .. Sunday=6.
func (d Date) Weekday() int {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return (int(t.Weekday()) + 6) % 7
}

// Alarm is the scheduling unit. Construct through NewAlarm so the invariants
// hold; the scheduler only ever mutates Enabled.
type Alarm struct {
	ID         string
	Label      string
	Hour       int
	Minute     int
	Second     int
	Timezone   string
	RepeatDays []int
	StartDate  Date
	Music      MusicSettings
	Enabled    bool
	Volume     float64
}

// NewAlarm validates and normalizes an alarm definition. It is the single
// construction boundary: label defaults to the id, an empty timezone becomes
// UTC, repeat days are deduplicated and sorted, zero volume takes the 1.0
// default, and an unresolvable timezone fails here rather than at
// calculation time.
func NewAlarm(a Alarm) (Alarm, error) {
	if a.ID == "" {
		return Alarm{}, fmt.Errorf("%w: id must not be empty", ErrInvalidAlarm)
	}
	if a.Label == "" {
		a.Label = a.ID
	}
	if a.Hour < 0 || a.Hour > 23 || a.Minute < 0 || a.Minute > 59 || a.Second < 0 || a.Second > 59 {
		return Alarm{}, fmt.Errorf("%w: time %02d:%02d:%02d outside the 24h clock", ErrInvalidAlarm, a.Hour, a.Minute, a.Second)
	}
	if a.Timezone == "" {
		a.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(a.Timezone); err != nil {
		return Alarm{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, a.Timezone)
	}
	days, err := NormalizeRepeatDays(a.RepeatDays)
	if err != nil {
		return Alarm{}, err
	}
	a.RepeatDays = days
	if a.Volume == 0 {
		a.Volume = 1.0
	}
	if a.Volume < 0 {
		return Alarm{}, fmt.Errorf("%w: volume must be positive", ErrInvalidAlarm)
	}
	if a.Music.Source == "" && a.Music.Resource == "" {
		a.Music = Tone(a.Music.ToneFrequencyHz, a.Music.ToneDurationSeconds)
	}
	a.Music, err = a.Music.normalize()
	if err != nil {
		return Alarm{}, err
	}
	return a, nil
}

// NormalizeRepeatDays range-checks, deduplicates and sorts a weekday set
// (0=Monday .. 6=Sunday). The operation is idempotent.
func NormalizeRepeatDays(days []int) ([]int, error) {
	if len(days) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(days))
	for _, day := range days {
		if day < 0 || day > 6 {
			return nil, fmt.Errorf("%w: weekday index %d outside 0 (Monday) .. 6 (Sunday)", ErrInvalidAlarm, day)
		}
		if !slices.Contains(out, day) {
			out = append(out, day)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Repeats reports whether the alarm recurs on a weekday set.
func (a Alarm) Repeats() bool {
	return len(a.RepeatDays) > 0
}
