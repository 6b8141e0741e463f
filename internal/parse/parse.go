// Package parse turns raw request and command-line input into typed values.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

var (
	pinRe     = regexp.MustCompile(`^\d{4}$`)
	readingRe = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
)

// PIN validates an operator PIN: exactly four digits, surrounding spaces ignored.
func PIN(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !pinRe.MatchString(s) {
		return "", fmt.Errorf("pin must be exactly 4 digits")
	}
	return s, nil
}

// Reading parses a non-negative hour-meter reading. Both "1540.5" and
// "1540,5" are accepted.
func Reading(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if !readingRe.MatchString(s) {
		return 0, fmt.Errorf("unable to parse hour-meter reading: %q", raw)
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse hour-meter reading: %q: %w", raw, err)
	}
	return v, nil
}

// Day parses a YYYY-MM-DD date as midnight in loc.
func Day(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse day %q, expected YYYY-MM-DD: %w", raw, err)
	}
	return t, nil
}

// DayEnd parses a YYYY-MM-DD date as 23:59:59 of that day in loc, so a
// period ending on it includes the whole day.
func DayEnd(raw string, loc *time.Location) (time.Time, error) {
	t, err := Day(raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Second), nil
}

// OptionalDay is Day for query parameters: empty input yields nil.
func OptionalDay(raw string, loc *time.Location, end bool) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var (
		t   time.Time
		err error
	)
	if end {
		t, err = DayEnd(raw, loc)
	} else {
		t, err = Day(raw, loc)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
