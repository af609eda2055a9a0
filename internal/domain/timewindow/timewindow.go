// Package timewindow provides pure time-of-day arithmetic over "HH:MM"
// wall-clock strings, used to decide whether a deal is currently inside its
// active window and how long remains until the window closes.
package timewindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// ErrInvalidFormat is returned when a time string is not a valid 24-hour
// "HH:MM" value.
var ErrInvalidFormat = errors.New("invalid time format")

const minutesPerDay = 24 * 60

// ToMinutes parses a 24-hour "HH:MM" string into a minute offset from
// midnight in [0, 1439]. It returns ErrInvalidFormat when the string does
// not split into exactly two numeric parts or when the hour or minute is
// out of range.
func ToMinutes(s string) (int, error) {
	hour, minute, err := parseClock(s)
	if err != nil {
		return 0, err
	}
	return hour*60 + minute, nil
}

// InRange reports whether current lies within [start, end], inclusive on
// both bounds. All three arguments are "HH:MM" strings interpreted on the
// same day: a window whose end is numerically before its start does not
// wrap past midnight.
func InRange(current, start, end string) (bool, error) {
	cur, err := ToMinutes(current)
	if err != nil {
		return false, errors.Wrap(err, "current")
	}
	from, err := ToMinutes(start)
	if err != nil {
		return false, errors.Wrap(err, "start")
	}
	until, err := ToMinutes(end)
	if err != nil {
		return false, errors.Wrap(err, "end")
	}
	return from <= cur && cur <= until, nil
}

// Remaining computes the whole hours and minutes from now until the next
// occurrence of the end time-of-day. When end (interpreted today) is at or
// before now, it rolls forward to the same time tomorrow, so the result is
// never negative.
func Remaining(now time.Time, end string) (hours, minutes int, err error) {
	endMins, err := ToMinutes(end)
	if err != nil {
		return 0, 0, err
	}

	nowMins := now.Hour()*60 + now.Minute()
	diff := endMins - nowMins
	if diff <= 0 {
		diff += minutesPerDay
	}
	return diff / 60, diff % 60, nil
}

// Clock formats the hour and minute of t as a zero-padded 24-hour "HH:MM"
// string.
func Clock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Format12Hour converts a 24-hour "HH:MM" string to a 12-hour display form
// with an AM/PM suffix. Hours 0 and 12 both display as 12; minutes are
// passed through as given.
func Format12Hour(s string) (string, error) {
	hour, minute, err := parseClock(s)
	if err != nil {
		return "", err
	}

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, minute, suffix), nil
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, errors.Wrapf(ErrInvalidFormat, "%q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidFormat, "%q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidFormat, "%q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, errors.Wrapf(ErrInvalidFormat, "%q", s)
	}
	return hour, minute, nil
}
