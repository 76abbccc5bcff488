package timespec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse parses a date specification entered on the command line.
// Supported forms:
//   - "none", "clear" or "": no date (nil)
//   - "today", "tomorrow", "yesterday"
//   - "+Nd" / "-Nd": N days from today, "+Nw" for weeks
//   - "2026-10-18" (midnight in now's location)
//   - RFC3339 timestamps: "2026-10-18T13:00:00Z"
//
// Relative forms resolve to midnight in now's location.
func Parse(spec string, now time.Time) (*time.Time, error) {
	spec = strings.TrimSpace(spec)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(spec) {
	case "", "none", "clear":
		return nil, nil
	case "today":
		return &today, nil
	case "tomorrow":
		t := today.AddDate(0, 0, 1)
		return &t, nil
	case "yesterday":
		t := today.AddDate(0, 0, -1)
		return &t, nil
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, spec, now.Location()); err == nil {
		return &t, nil
	}
	if t, ok := parseOffset(spec, today); ok {
		return &t, nil
	}

	return nil, fmt.Errorf("invalid date specification: %s (use 'today', '+3d', '2026-10-18', RFC3339 or 'none')", spec)
}

func parseOffset(spec string, today time.Time) (time.Time, bool) {
	if len(spec) < 3 || (spec[0] != '+' && spec[0] != '-') {
		return time.Time{}, false
	}
	unit := spec[len(spec)-1]
	n, err := strconv.Atoi(spec[1 : len(spec)-1])
	if err != nil || n < 0 {
		return time.Time{}, false
	}
	if spec[0] == '-' {
		n = -n
	}

	switch unit {
	case 'd', 'D':
		return today.AddDate(0, 0, n), true
	case 'w', 'W':
		return today.AddDate(0, 0, 7*n), true
	}
	return time.Time{}, false
}
