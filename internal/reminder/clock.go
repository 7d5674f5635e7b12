package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Clock is the source of the current instant.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used by tests and dry runs.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// TimezoneSource resolves a user's IANA zone name.
type TimezoneSource interface {
	GetUserTimezone(ctx context.Context, userID string) (string, error)
}

// UserClock turns the process clock into "now in the user's timezone".
// Every cycle and trigger computation goes through it.
type UserClock struct {
	clock    Clock
	source   TimezoneSource
	fallback *time.Location

	locs sync.Map // zone name -> *time.Location
}

func NewUserClock(clock Clock, source TimezoneSource, fallbackZone string) (*UserClock, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	fallback, err := time.LoadLocation(strings.TrimSpace(fallbackZone))
	if err != nil {
		return nil, fmt.Errorf("reminder: load fallback timezone %q: %w", fallbackZone, err)
	}
	return &UserClock{clock: clock, source: source, fallback: fallback}, nil
}

// Now returns the current instant in the user's zone. A lookup failure or an
// unknown zone falls back to the default zone and is reported through err.
func (c *UserClock) Now(ctx context.Context, userID string) (time.Time, error) {
	if c.source == nil {
		return c.clock.Now().In(c.fallback), nil
	}
	zone, err := c.source.GetUserTimezone(ctx, userID)
	if err != nil {
		return c.clock.Now().In(c.fallback), fmt.Errorf("reminder: timezone for user %s: %w", userID, err)
	}
	return c.NowIn(zone)
}

// Instant is the process clock's now, zone untouched.
func (c *UserClock) Instant() time.Time {
	return c.clock.Now()
}

// NowIn returns the current instant in the named zone.
func (c *UserClock) NowIn(zone string) (time.Time, error) {
	loc, err := c.Location(zone)
	return c.clock.Now().In(loc), err
}

// Location resolves a zone name, caching successful loads. Empty names use
// the fallback silently; unknown names use it with an error.
func (c *UserClock) Location(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return c.fallback, nil
	}
	if v, ok := c.locs.Load(zone); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return c.fallback, fmt.Errorf("reminder: unknown timezone %q: %w", zone, err)
	}
	c.locs.Store(zone, loc)
	return loc, nil
}

// StartOfDay is midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a date-only value (read in UTC) is t's calendar day.
func SameDate(date time.Time, t time.Time) bool {
	dy, dm, dd := date.UTC().Date()
	ty, tm, td := t.Date()
	return dy == ty && dm == tm && dd == td
}
