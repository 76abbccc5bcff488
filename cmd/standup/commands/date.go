package commands

import (
	"context"
	"time"

	"github.com/dyluth/standup/internal/printer"
	"github.com/spf13/cobra"
)

var (
	dateReason string
)

var dateCmd = &cobra.Command{
	Use:   "date SECTION TASK_ID FIELD VALUE",
	Short: "Set or clear one date of a task",
	Long: `Set or clear one date of a task.

Fields:
  planning, devQa, prod  DevStartDate DevDueDate QAStartDate QAEndDate committedDate
  release                committedDate
  rwt                    startDate endDate

VALUE is YYYY-MM-DD, RFC3339, today, tomorrow, yesterday, an offset such as
+3d or -1w, or "none" to clear the date.

Filling an empty date or clearing one is applied directly. Moving a date that
was already set needs --reason: the old and new dates and the reason are
appended to the remarks and, for tasks with an Azure DevOps ID, posted as a
comment.`,
	Example: `  standup date devQa 3f2a9c committedDate 2026-11-02
  standup date devQa 3f2a9c committedDate +1w --reason "Blocked on API"
  standup date rwt 91c0aa endDate none`,
	Args: cobra.ExactArgs(4),
	RunE: runDate,
}

func init() {
	dateCmd.Flags().StringVar(&dateReason, "reason", "", "Reason for moving a date that was already set")
	rootCmd.AddCommand(dateCmd)
}

func runDate(cmd *cobra.Command, args []string) (err error) {
	section, err := parseSection(args[0])
	if err != nil {
		return err
	}
	field, value, err := parseDate(args[2], args[3], time.Now())
	if err != nil {
		return err
	}

	s, err := openSession(context.Background(), nil)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	id, err := s.resolveID(section, args[1])
	if err != nil {
		return err
	}

	res, err := s.board.SetDate(section, id, field, value)
	if err != nil {
		return mutationError("set date", err)
	}
	if err := settlePending(s, section, id, res, dateReason); err != nil {
		return err
	}

	if value == nil {
		printer.Success("Cleared %s on task %s\n", field.Label(), shortID(id))
	} else {
		printer.Success("Set %s on task %s to %s\n", field.Label(), shortID(id), value.Format(time.DateOnly))
	}
	s.warnIfEphemeral()
	return nil
}
