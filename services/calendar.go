package services

import (
	"fmt"
	"sync"
	"time"
)

var locations sync.Map // tz name → *time.Location

// Location resolves an IANA timezone name. Empty or unknown names fall back to UTC.
func Location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	if loc, ok := locations.Load(tz); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	locations.Store(tz, loc)
	return loc
}

// ValidTimezone reports whether tz names a loadable location.
func ValidTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// WeekID formats t's ISO year and week as "2006-W01".
func WeekID(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// CurrentWeekID is the ISO week of now as seen in timezone tz.
func CurrentWeekID(now time.Time, tz string) string {
	return WeekID(now.In(Location(tz)))
}

// IsSameWeek compares two week ids.
func IsSameWeek(a, b string) bool {
	return a != "" && a == b
}

// ParseWeekID splits a week id into ISO year and week.
func ParseWeekID(id string) (year, week int, err error) {
	if _, err = fmt.Sscanf(id, "%4d-W%2d", &year, &week); err != nil {
		return 0, 0, fmt.Errorf("invalid week id %q: %w", id, err)
	}
	if week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("invalid week id %q: week out of range", id)
	}
	return year, week, nil
}

// WeekStart returns the Monday 00:00 UTC that opens the given ISO week.
func WeekStart(year, week int) time.Time {
	// Jan 4th always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	wd := int(jan4.Weekday())
	if wd == 0 {
		wd = 7
	}
	return jan4.AddDate(0, 0, 1-wd+(week-1)*7)
}

// NextWeekID returns the week id following id, crossing year boundaries exactly.
func NextWeekID(id string) (string, error) {
	y, w, err := ParseWeekID(id)
	if err != nil {
		return "", err
	}
	return WeekID(WeekStart(y, w).AddDate(0, 0, 7)), nil
}

// IsFollowingWeek reports whether cur is the week right after prev.
func IsFollowingWeek(prev, cur string) bool {
	next, err := NextWeekID(prev)
	if err != nil {
		return false
	}
	return next == cur
}
