package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// clockRe accepts 00:00..23:59 with two-digit hours and minutes.
var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a strict 24-hour "HH:MM" value.
func ParseClock(s string) (Clock, error) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return Clock{Hour: h, Minute: min}, nil
}

// MustClock is ParseClock for constants; it panics on malformed input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// IsClock reports whether s is a valid "HH:MM" value.
func IsClock(s string) bool {
	_, err := ParseClock(s)
	return err == nil
}

// String returns HH:MM.
func (c Clock) String() string {
	return FormatMinutes(c.Minutes())
}

// Minutes returns minutes since midnight (0..1439).
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// FormatMinutes returns HH:MM for minutes since midnight (00:00..23:59).
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	h := mins / 60
	m := mins % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ValidateTZ checks that the tz is a valid IANA location.
func ValidateTZ(tz string) (*time.Location, error) {
	return time.LoadLocation(tz)
}
