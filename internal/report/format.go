package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/standup/pkg/standup"
)

// OutputFormat specifies how a section listing is written.
type OutputFormat string

const (
	// OutputFormatDefault uses a table with truncated text
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL writes complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat accepts "", "default", "table" and "jsonl"/"json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "default", "table":
		return OutputFormatDefault, nil
	case "jsonl", "json":
		return OutputFormatJSONL, nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// ListOptions controls WriteSection.
type ListOptions struct {
	Format  OutputFormat
	Ongoing bool
	Now     time.Time
}

// WriteSection writes one section of data to w.
func WriteSection(w io.Writer, data standup.StandupData, section standup.Section, opts ListOptions) error {
	if opts.Ongoing {
		data = Ongoing(data)
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	switch opts.Format {
	case OutputFormatDefault, "":
		_, err := FormatTable(w, data, section, opts.Now)
		return err
	case OutputFormatJSONL:
		return FormatJSONL(w, data, section)
	default:
		return fmt.Errorf("unknown output format: %s", opts.Format)
	}
}

// FormatTable writes a section as a table and returns the number of rows.
// Common rows flagged by IsCritical are marked with "!", dates falling on the
// next working day with "*".
func FormatTable(w io.Writer, data standup.StandupData, section standup.Section, now time.Time) (int, error) {
	switch section.Kind() {
	case standup.KindCommon:
		tasks, _ := data.Common(section)
		return formatCommonTable(w, section, tasks, now), nil
	case standup.KindRelease:
		return formatReleaseTable(w, data.Release, now), nil
	case standup.KindRwt:
		return formatRwtTable(w, data.Rwt, now), nil
	}
	return 0, fmt.Errorf("%w: %s", standup.ErrUnknownSection, section)
}

func formatCommonTable(w io.Writer, section standup.Section, tasks []standup.CommonTask, now time.Time) int {
	if len(tasks) == 0 {
		fmt.Fprintf(w, "No tasks in %s\n", section.Title())
		return 0
	}

	fmt.Fprintf(w, "%s:\n\n", section.Title())
	row := "%-1s %-8s %-9s %-32s %-20s %-11s %-11s %-11s %s\n"
	fmt.Fprintf(w, row, "", "ID", "ADO", "TASK", "STATUS", "DEV DUE", "QA END", "COMMITTED", "REMARKS")
	fmt.Fprintf(w, row, "", "--------", "---------", strings.Repeat("-", 32), strings.Repeat("-", 20),
		"-----------", "-----------", "-----------", strings.Repeat("-", 40))

	for _, t := range tasks {
		mark := ""
		if IsCritical(t, now) {
			mark = "!"
		}
		fmt.Fprintf(w, row,
			mark,
			formatID(t.ID),
			dash(t.ExternalID),
			truncate(t.TaskName, 32),
			truncate(string(t.Status), 20),
			formatDate(t.DevDueDate, now),
			formatDate(t.QAEndDate, now),
			formatDate(t.CommittedDate, now),
			formatText(t.Remarks),
		)
	}

	printCount(w, len(tasks))
	return len(tasks)
}

func formatReleaseTable(w io.Writer, tasks []standup.ReleaseTask, now time.Time) int {
	if len(tasks) == 0 {
		fmt.Fprintf(w, "No tasks in %s\n", standup.SectionRelease.Title())
		return 0
	}

	fmt.Fprintf(w, "%s:\n\n", standup.SectionRelease.Title())
	row := "%-8s %-9s %-28s %-30s %-10s %-11s %s\n"
	fmt.Fprintf(w, row, "ID", "ADO", "ITEM", "STATUS", "JMDB", "COMMITTED", "SERVICES")
	fmt.Fprintf(w, row, "--------", "---------", strings.Repeat("-", 28), strings.Repeat("-", 30),
		"----------", "-----------", strings.Repeat("-", 30))

	for _, t := range tasks {
		statuses := make([]string, len(t.Status))
		for i, s := range t.Status {
			statuses[i] = string(s)
		}
		fmt.Fprintf(w, row,
			formatID(t.ID),
			dash(t.ExternalID),
			truncate(t.Item, 28),
			truncate(dash(strings.Join(statuses, ", ")), 30),
			truncate(dash(t.JMDBID), 10),
			formatDate(t.CommittedDate, now),
			truncate(dash(strings.Join(t.Services, ", ")), 40),
		)
	}

	printCount(w, len(tasks))
	return len(tasks)
}

func formatRwtTable(w io.Writer, tasks []standup.RwtTask, now time.Time) int {
	if len(tasks) == 0 {
		fmt.Fprintf(w, "No tasks in %s\n", standup.SectionRwt.Title())
		return 0
	}

	fmt.Fprintf(w, "%s:\n\n", standup.SectionRwt.Title())
	row := "%-8s %-32s %-14s %-11s %-11s %s\n"
	fmt.Fprintf(w, row, "ID", "FEATURE", "STATUS", "START", "END", "COLLABORATORS")
	fmt.Fprintf(w, row, "--------", strings.Repeat("-", 32), "--------------", "-----------", "-----------",
		strings.Repeat("-", 30))

	for _, t := range tasks {
		fmt.Fprintf(w, row,
			formatID(t.ID),
			truncate(t.Feature, 32),
			t.Status,
			formatDate(t.StartDate, now),
			formatDate(t.EndDate, now),
			truncate(dash(strings.Join(t.Collaborators, ", ")), 40),
		)
	}

	printCount(w, len(tasks))
	return len(tasks)
}

func printCount(w io.Writer, n int) {
	noun := "task"
	if n != 1 {
		noun = "tasks"
	}
	fmt.Fprintf(w, "\n%d %s\n", n, noun)
}

// FormatJSONL writes every record of a section as one JSON object per line.
func FormatJSONL(w io.Writer, data standup.StandupData, section standup.Section) error {
	var records []any
	switch section.Kind() {
	case standup.KindCommon:
		tasks, _ := data.Common(section)
		for _, t := range tasks {
			records = append(records, t)
		}
	case standup.KindRelease:
		for _, t := range data.Release {
			records = append(records, t)
		}
	case standup.KindRwt:
		for _, t := range data.Rwt {
			records = append(records, t)
		}
	default:
		return fmt.Errorf("%w: %s", standup.ErrUnknownSection, section)
	}

	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal task to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatStats writes the headline counts.
func FormatStats(w io.Writer, s Stats) {
	fmt.Fprintf(w, "%-18s %d\n", "In Planning", s.PlanningOpen)
	fmt.Fprintf(w, "%-18s %d\n", "Dev & QA Active", s.DevQAActive)
	fmt.Fprintf(w, "%-18s %d\n", "PROD Issues", s.ProdOpen)
	fmt.Fprintf(w, "%-18s %d / %d\n", "Release Progress", s.ReleaseCompleted, s.ReleaseTotal)
}

// FormatSingleJSON writes v as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatID truncates a task ID to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatDate renders a date as YYYY-MM-DD in now's location, with "*" for the
// next working day. Missing dates render as "-".
func formatDate(d *time.Time, now time.Time) string {
	if d == nil {
		return "-"
	}
	out := d.In(now.Location()).Format("2006-01-02")
	if IsNextWorkingDay(d, now) {
		out += "*"
	}
	return out
}

// formatText returns the first non-empty line of s, truncated to 40 characters.
func formatText(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return truncate(trimmed, 40)
		}
	}
	return "-"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
