package commands

import (
	"context"

	"github.com/dyluth/standup/internal/printer"
	"github.com/dyluth/standup/internal/report"
	"github.com/spf13/cobra"
)

var (
	statsOutputFormat string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the headline counts",
	Long: `Show the dashboard counts: open planning tasks, active dev/QA tasks,
open prod issues and release progress (completed / total).`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsOutputFormat, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	format, err := report.ParseOutputFormat(statsOutputFormat)
	if err != nil {
		return printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, json"})
	}

	s, err := openSession(context.Background(), nil)
	if err != nil {
		return err
	}
	defer s.close()

	stats := report.ComputeStats(s.board.Snapshot())
	if format == report.OutputFormatJSONL {
		return report.FormatSingleJSON(cmd.OutOrStdout(), stats)
	}
	report.FormatStats(cmd.OutOrStdout(), stats)
	return nil
}
