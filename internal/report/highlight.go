package report

import (
	"time"

	"github.com/dyluth/standup/pkg/standup"
)

// CriticalWorkingDays is how close a committed date must be, in working days,
// for a row to be flagged.
const CriticalWorkingDays = 5

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// nextWorkingDay is the first weekday after day.
func nextWorkingDay(day time.Time) time.Time {
	next := day.AddDate(0, 0, 1)
	for isWeekend(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// workingDaysUntil counts the weekdays in (from, to].
func workingDaysUntil(from, to time.Time) int {
	days := 0
	for cur := from; cur.Before(to); {
		cur = cur.AddDate(0, 0, 1)
		if !isWeekend(cur) {
			days++
		}
	}
	return days
}

// IsNextWorkingDay reports whether date falls on the working day after now,
// in now's location.
func IsNextWorkingDay(date *time.Time, now time.Time) bool {
	if date == nil {
		return false
	}
	loc := now.Location()
	return startOfDay(*date, loc).Equal(nextWorkingDay(startOfDay(now, loc)))
}

// IsCritical flags a common task whose committed date has passed or is at
// most CriticalWorkingDays working days away, unless it is ready for release.
func IsCritical(t standup.CommonTask, now time.Time) bool {
	if t.CommittedDate == nil || t.Status == standup.StatusReadyForRelease {
		return false
	}
	loc := now.Location()
	today := startOfDay(now, loc)
	committed := startOfDay(*t.CommittedDate, loc)
	if !committed.After(today) {
		return true
	}
	return workingDaysUntil(today, committed) <= CriticalWorkingDays
}
