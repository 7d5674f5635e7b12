package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyRecurrenceDetails = errors.New("domain: recurrence details are empty")
	ErrInvalidWeekday         = errors.New("domain: invalid weekday")
	ErrInvalidMonthDay        = errors.New("domain: invalid day of month")
	ErrInvalidTimeOfDay       = errors.New("domain: invalid time of day")
)

// weekdayNames maps every accepted spelling to a weekday. The UI stores English
// names; short forms and Portuguese names show up in older rows.
var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "domingo": time.Sunday, "dom": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "segunda": time.Monday, "seg": time.Monday, "segunda-feira": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "terca": time.Tuesday, "terça": time.Tuesday, "ter": time.Tuesday, "terça-feira": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "quarta": time.Wednesday, "qua": time.Wednesday, "quarta-feira": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "quinta": time.Thursday, "qui": time.Thursday, "quinta-feira": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "sexta": time.Friday, "sex": time.Friday, "sexta-feira": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "sabado": time.Saturday, "sábado": time.Saturday, "sab": time.Saturday,
}

// ParseWeekday maps a stored weekday label to time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdayNames[key]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// WeekdaySet is the set of weekdays a weekly task repeats on.
type WeekdaySet [7]bool

func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s[d]
}

func (s WeekdaySet) IsEmpty() bool {
	for _, v := range s {
		if v {
			return false
		}
	}
	return true
}

// Days returns the members in Sunday-first order.
func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for i, v := range s {
		if v {
			out = append(out, time.Weekday(i))
		}
	}
	return out
}

// ParseWeekdays parses comma-separated weekday names. Any unknown entry
// invalidates the whole set.
func ParseWeekdays(details string) (WeekdaySet, error) {
	var set WeekdaySet
	if strings.TrimSpace(details) == "" {
		return set, ErrEmptyRecurrenceDetails
	}
	for _, part := range strings.Split(details, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := ParseWeekday(part)
		if err != nil {
			return WeekdaySet{}, err
		}
		set[d] = true
	}
	if set.IsEmpty() {
		return set, ErrEmptyRecurrenceDetails
	}
	return set, nil
}

// ParseMonthDay parses the day-of-month payload of a monthly task.
func ParseMonthDay(details string) (int, error) {
	raw := strings.TrimSpace(details)
	if raw == "" {
		return 0, ErrEmptyRecurrenceDetails
	}
	day, err := strconv.Atoi(raw)
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMonthDay, details)
	}
	return day, nil
}

// ParseTimeOfDay parses HH:MM (a trailing :SS from time columns is accepted).
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return hour, minute, nil
}
