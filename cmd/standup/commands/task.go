package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dyluth/standup/internal/printer"
	"github.com/dyluth/standup/internal/timespec"
	"github.com/dyluth/standup/internal/tracker"
	"github.com/dyluth/standup/pkg/standup"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add SECTION",
	Short: "Add an empty task to a section",
	Long: `Append a new task with default values to the end of a section and print
its ID. Fill it in with "standup update".`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var (
	updateExternalID    string
	updateName          string
	updateStatus        []string
	updateCollaborators []string
	updateRemarks       string
	updateItem          string
	updateCRLink        string
	updateJMDBID        string
	updateServices      []string
	updateFeature       string
	updateDates         []string
	updateReason        string
)

var updateCmd = &cobra.Command{
	Use:   "update SECTION TASK_ID",
	Short: "Edit the fields of a task",
	Long: `Edit the fields of a task. Only the flags given are changed.

Fields by section:
  planning, devQa, prod  --ado-id --name --status --collaborators --remarks
  release                --ado-id --item --status --cr-link --jmdb-id --services --remarks
  rwt                    --feature --status --collaborators --remarks

Dates are set with --date FIELD=VALUE (repeatable). VALUE is YYYY-MM-DD,
RFC3339, today, tomorrow, yesterday, an offset such as +3d or -1w, or
"none" to clear it. Moving a committed or planned date that was already set
needs --reason; the change is recorded in the remarks.

Tasks with an Azure DevOps ID get a comment for every new remark line.`,
	Example: `  standup update devQa 3f2a9c --status "QA In Progress" --remarks "Waiting on build"
  standup update planning 3f2a9c --date DevDueDate=+2d --reason "Scope grew"
  standup update release 7be01d --status "Ready For Release,Released To Prod"`,
	Args: cobra.ExactArgs(2),
	RunE: runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:     "delete SECTION TASK_ID",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(2),
	RunE:    runDelete,
}

var moveCmd = &cobra.Command{
	Use:   "move SECTION FROM TO",
	Short: "Move a task to another position",
	Long: `Move the task at position FROM to position TO within a section.
Positions start at 1, in the order shown by "standup list".`,
	Args: cobra.ExactArgs(3),
	RunE: runMove,
}

func init() {
	addUpdateFlags(updateCmd)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(moveCmd)
}

func addUpdateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&updateExternalID, "ado-id", "", "Azure DevOps work item ID (digits only)")
	f.StringVar(&updateName, "name", "", "Task name")
	f.StringSliceVar(&updateStatus, "status", nil, "Status (release tasks accept a comma separated list)")
	f.StringSliceVar(&updateCollaborators, "collaborators", nil, "Comma separated collaborators")
	f.StringVar(&updateRemarks, "remarks", "", "Replace the remarks")
	f.StringVar(&updateItem, "item", "", "Release item")
	f.StringVar(&updateCRLink, "cr-link", "", "Change request link")
	f.StringVar(&updateJMDBID, "jmdb-id", "", "JMDB ID")
	f.StringSliceVar(&updateServices, "services", nil, "Comma separated services")
	f.StringVar(&updateFeature, "feature", "", "Feature under rework testing")
	f.StringArrayVar(&updateDates, "date", nil, "Set a date: FIELD=VALUE")
	f.StringVar(&updateReason, "reason", "", "Reason for moving a date that was already set")
}

// closeSession closes s, keeping the first error.
func closeSession(s *session, err *error) {
	if cerr := s.close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func runAdd(cmd *cobra.Command, args []string) (err error) {
	section, err := parseSection(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(context.Background(), nil)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	id, err := s.board.Add(section)
	if err != nil {
		return mutationError("add task", err)
	}

	printer.Success("Added task to %s\n", section.Title())
	fmt.Fprintln(cmd.OutOrStdout(), id)
	s.warnIfEphemeral()
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) (err error) {
	section, err := parseSection(args[0])
	if err != nil {
		return err
	}
	now := time.Now()
	dates, err := parseDateFlags(updateDates, now)
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

	changed := cmd.Flags().Changed
	var res tracker.UpdateResult

	switch section.Kind() {
	case standup.KindCommon:
		var p tracker.CommonPatch
		if changed("ado-id") {
			p.ExternalID = &updateExternalID
		}
		if changed("name") {
			p.TaskName = &updateName
		}
		if changed("status") {
			status, err := singleStatus(updateStatus)
			if err != nil {
				return err
			}
			cs := standup.CommonStatus(status)
			p.Status = &cs
		}
		if changed("collaborators") {
			p.Collaborators = &updateCollaborators
		}
		if changed("remarks") {
			p.Remarks = &updateRemarks
		}
		p.Dates = dates
		res, err = s.board.UpdateCommon(section, id, p)

	case standup.KindRelease:
		var p tracker.ReleasePatch
		if changed("ado-id") {
			p.ExternalID = &updateExternalID
		}
		if changed("item") {
			p.Item = &updateItem
		}
		if changed("status") {
			statuses := make([]standup.ReleaseStatus, 0, len(updateStatus))
			for _, st := range updateStatus {
				statuses = append(statuses, standup.ReleaseStatus(strings.TrimSpace(st)))
			}
			p.Status = &statuses
		}
		if changed("cr-link") {
			p.CRLink = &updateCRLink
		}
		if changed("jmdb-id") {
			p.JMDBID = &updateJMDBID
		}
		if changed("services") {
			p.Services = &updateServices
		}
		if changed("remarks") {
			p.Remarks = &updateRemarks
		}
		p.Dates = dates
		res, err = s.board.UpdateRelease(id, p)

	case standup.KindRwt:
		var p tracker.RwtPatch
		if changed("feature") {
			p.Feature = &updateFeature
		}
		if changed("status") {
			status, err := singleStatus(updateStatus)
			if err != nil {
				return err
			}
			rs := standup.RwtStatus(status)
			p.Status = &rs
		}
		if changed("collaborators") {
			p.Collaborators = &updateCollaborators
		}
		if changed("remarks") {
			p.Remarks = &updateRemarks
		}
		p.Dates = dates
		err = s.board.UpdateRwt(id, p)
	}
	if err != nil {
		return mutationError("update task", err)
	}

	if err := settlePending(s, section, id, res, updateReason); err != nil {
		return err
	}
	printer.Success("Updated task %s\n", shortID(id))
	s.warnIfEphemeral()
	return nil
}

func runDelete(cmd *cobra.Command, args []string) (err error) {
	section, err := parseSection(args[0])
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
	if err := s.board.Delete(section, id); err != nil {
		return mutationError("delete task", err)
	}

	printer.Success("Deleted task %s from %s\n", shortID(id), section.Title())
	s.warnIfEphemeral()
	return nil
}

func runMove(cmd *cobra.Command, args []string) (err error) {
	section, err := parseSection(args[0])
	if err != nil {
		return err
	}
	from, err := parsePosition(args[1])
	if err != nil {
		return err
	}
	to, err := parsePosition(args[2])
	if err != nil {
		return err
	}

	s, err := openSession(context.Background(), nil)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	moved, err := s.board.Reorder(section, from-1, to-1)
	if err != nil {
		return mutationError("move task", err)
	}
	if !moved {
		n := len(s.board.Snapshot().IDs(section))
		return printer.Error(
			"invalid position",
			fmt.Sprintf("%s has %d task(s); cannot move %d to %d", section.Title(), n, from, to),
			nil,
		)
	}

	printer.Success("Moved task %d to position %d in %s\n", from, to, section.Title())
	s.warnIfEphemeral()
	return nil
}

func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, printer.Error(
			"invalid position",
			fmt.Sprintf("Position must be a number from 1: %s", arg),
			nil,
		)
	}
	return n, nil
}

func singleStatus(values []string) (string, error) {
	if len(values) != 1 {
		return "", printer.Error(
			"invalid status",
			"Exactly one status is allowed for this section.",
			[]string{"Quote statuses containing spaces: --status \"QA In Progress\""},
		)
	}
	return strings.TrimSpace(values[0]), nil
}

// parseDateFlags parses FIELD=VALUE pairs. The field name is matched
// case-insensitively; support on the section is checked by the board.
func parseDateFlags(values []string, now time.Time) (map[standup.DateField]*time.Time, error) {
	if len(values) == 0 {
		return nil, nil
	}
	dates := make(map[standup.DateField]*time.Time, len(values))
	for _, v := range values {
		name, spec, ok := strings.Cut(v, "=")
		if !ok {
			return nil, printer.Error(
				"invalid date",
				fmt.Sprintf("Expected FIELD=VALUE, got %q", v),
				[]string{"Example: --date committedDate=2026-11-02"},
			)
		}
		field, value, err := parseDate(name, spec, now)
		if err != nil {
			return nil, err
		}
		dates[field] = value
	}
	return dates, nil
}

func parseDate(name, spec string, now time.Time) (standup.DateField, *time.Time, error) {
	field, err := standup.ParseDateField(strings.TrimSpace(name))
	if err != nil {
		return "", nil, printer.Error("invalid date field", err.Error(), nil)
	}
	value, err := timespec.Parse(spec, now)
	if err != nil {
		return "", nil, printer.Error(
			"invalid date",
			err.Error(),
			[]string{"Use YYYY-MM-DD, today, tomorrow, +3d, -1w or none"},
		)
	}
	return field, value, nil
}

// settlePending confirms a staged date change with reason, or drops it and
// reports that a reason is needed. A CLI session ends with the command, so a
// change cannot stay staged.
func settlePending(s *session, section standup.Section, id string, res tracker.UpdateResult, reason string) error {
	if res.Pending == nil {
		return nil
	}
	if strings.TrimSpace(reason) == "" {
		s.board.CancelDateChange(section, id)
		return printer.ErrorWithContext(
			"reason required",
			fmt.Sprintf("%s was already set; moving it needs a reason. Other changes were saved.", res.Pending.Field.Label()),
			map[string]string{
				"Field":     string(res.Pending.Field),
				"New value": res.Pending.Value.Format(time.DateOnly),
			},
			[]string{"Re-run with --reason \"...\""},
		)
	}
	if _, err := s.board.ConfirmDateChange(section, id, reason); err != nil {
		return mutationError("change date", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
