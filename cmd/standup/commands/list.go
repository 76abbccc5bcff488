package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/standup/internal/printer"
	"github.com/dyluth/standup/internal/report"
	"github.com/dyluth/standup/internal/tracker"
	"github.com/dyluth/standup/pkg/standup"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	listOutputFormat string
	listOngoing      bool
)

var listCmd = &cobra.Command{
	Use:   "list [SECTION [TASK_ID]]",
	Short: "Show the standup board",
	Long: `Show the standup board in list or get mode.

List Mode (no TASK_ID):
  Without SECTION every table is shown followed by the meeting notes.
  Sections: planning, devQa, prod, release, rwt

  Rows marked ! are at risk: the committed date is today, past, or within
  five working days. Dates marked * fall on the next working day.

Get Mode (with TASK_ID):
  Displays the complete task as pretty-printed JSON.
  Supports short IDs (e.g., "abc123" instead of full UUID).

Output Formats (list mode only):
  default - Human-readable tables
  jsonl   - Line-delimited JSON, one task per line

Examples:
  # Whole board
  standup list

  # Only tasks still in flight in dev/QA
  standup list devQa --ongoing

  # Pipe release tasks to jq
  standup list release -o jsonl | jq .crLink

  # One task by short ID
  standup list planning 3f2a9c`,
	Args: cobra.MaximumNArgs(2),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	listCmd.Flags().BoolVar(&listOngoing, "ongoing", false, "Hide completed, released and removed tasks")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := report.ParseOutputFormat(listOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	sections := standup.Sections
	if len(args) > 0 {
		section, err := parseSection(args[0])
		if err != nil {
			return err
		}
		sections = []standup.Section{section}
	}

	s, err := openSession(context.Background(), nil)
	if err != nil {
		return err
	}
	defer s.close()

	if len(args) == 2 {
		return showTask(cmd, s, sections[0], args[1])
	}

	out := cmd.OutOrStdout()
	data := s.board.Snapshot()
	opts := report.ListOptions{Format: format, Ongoing: listOngoing, Now: time.Now()}

	for i, section := range sections {
		if format == report.OutputFormatDefault && i > 0 {
			fmt.Fprintln(out)
		}
		if err := report.WriteSection(out, data, section, opts); err != nil {
			return printer.Error("failed to list tasks", err.Error(), nil)
		}
	}

	if format == report.OutputFormatDefault && len(args) == 0 && data.MeetingNotes != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, color.New(color.Bold).Sprint("Meeting Notes"))
		fmt.Fprintln(out, data.MeetingNotes)
	}
	return nil
}

func showTask(cmd *cobra.Command, s *session, section standup.Section, shortID string) error {
	id, err := s.resolveID(section, shortID)
	if err != nil {
		return err
	}

	data := s.board.Snapshot()
	var task any
	switch section.Kind() {
	case standup.KindCommon:
		tasks, _ := data.Common(section)
		task, _, _ = tracker.Find(tasks, id)
	case standup.KindRelease:
		task, _, _ = tracker.Find(data.Release, id)
	case standup.KindRwt:
		task, _, _ = tracker.Find(data.Rwt, id)
	}
	return report.FormatSingleJSON(cmd.OutOrStdout(), task)
}
