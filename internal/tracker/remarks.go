package tracker

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dyluth/standup/pkg/standup"
)

// FormatDate renders a date as "October 18th, 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %s, %d", t.Format("January"), humanize.Ordinal(t.Day()), t.Year())
}

// FormatTimestamp renders an instant as "October 18th, 2026 3:04 PM".
func FormatTimestamp(t time.Time) string {
	return FormatDate(t) + " " + t.Format("3:04 PM")
}

// PrependRemark puts line at the top of the remarks log. Remarks are newest first.
func PrependRemark(remarks, line string) string {
	if remarks == "" {
		return line
	}
	return line + "\n" + remarks
}

// DateAddedLine is the audit line for a date set for the first time.
func DateAddedLine(field standup.DateField, value, now time.Time) string {
	return fmt.Sprintf("[%s] : %s added as %s", FormatTimestamp(now), field.Label(), FormatDate(value))
}

// DateChangedLine is the audit line for a confirmed value to value change.
// A nil old value renders as N/A.
func DateChangedLine(field standup.DateField, old *time.Time, value time.Time, reason string, now time.Time) string {
	from := "N/A"
	if old != nil {
		from = FormatDate(*old)
	}
	if field == standup.FieldCommittedDate {
		return fmt.Sprintf("[%s] : Committed date changed from %s to %s with Reason : %s",
			FormatTimestamp(now), from, FormatDate(value), reason)
	}
	return fmt.Sprintf("[%s] : %s changed from %s to %s due to Reason : %s",
		FormatTimestamp(now), field.Label(), from, FormatDate(value), reason)
}
