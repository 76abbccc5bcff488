package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/standup/internal/printer"
	"github.com/spf13/cobra"
)

var (
	notesClear bool
)

var notesCmd = &cobra.Command{
	Use:   "notes [TEXT]",
	Short: "Show or replace the meeting notes",
	Long: `Without TEXT the meeting notes are printed. With TEXT they are replaced.
Use "-" to read the notes from standard input and --clear to empty them.`,
	Example: `  standup notes
  standup notes "Demo moved to Thursday"
  cat notes.txt | standup notes -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNotes,
}

func init() {
	notesCmd.Flags().BoolVar(&notesClear, "clear", false, "Empty the meeting notes")
	rootCmd.AddCommand(notesCmd)
}

func runNotes(cmd *cobra.Command, args []string) (err error) {
	var text string
	update := notesClear || len(args) == 1
	switch {
	case notesClear && len(args) == 1:
		return printer.Error("conflicting arguments", "--clear cannot be combined with TEXT", nil)
	case len(args) == 1 && args[0] == "-":
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return printer.Error("failed to read notes", err.Error(), nil)
		}
		text = strings.TrimRight(string(raw), "\n")
	case len(args) == 1:
		text = args[0]
	}

	s, err := openSession(context.Background(), nil)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	if !update {
		notes := s.board.Snapshot().MeetingNotes
		if notes == "" {
			printer.Info("No meeting notes\n")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), notes)
		return nil
	}

	s.board.SetMeetingNotes(text)
	if text == "" {
		printer.Success("Cleared meeting notes\n")
	} else {
		printer.Success("Updated meeting notes\n")
	}
	s.warnIfEphemeral()
	return nil
}
