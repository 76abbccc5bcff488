package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dyluth/standup/internal/printer"
	"github.com/dyluth/standup/internal/report"
	"github.com/dyluth/standup/pkg/standup"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made by other sessions",
	Long: `Follow board changes made elsewhere: other sessions sharing the Redis
workspace and edits to the connected shared file.

Each change prints the new headline counts.

Output Formats:
  default - Human-readable lines with timestamps
  json    - Line-delimited JSON for programmatic processing

Examples:
  standup watch
  standup watch --output=json > changes.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(watchCmd)
}

// boardChange is one line of json watch output
type boardChange struct {
	Time  time.Time    `json:"time"`
	Tasks int          `json:"tasks"`
	Stats report.Stats `json:"stats"`
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	switch watchOutputFormat {
	case "default", "json":
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, nil)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	var mu sync.Mutex
	out := cmd.OutOrStdout()
	s.adapter.Subscribe(func(data standup.StandupData) {
		mu.Lock()
		defer mu.Unlock()
		if err := writeChange(out, watchOutputFormat, data, time.Now()); err != nil {
			s.log.WithError(err).Warn("Failed to write change")
		}
	})
	if err := s.adapter.Start(ctx); err != nil {
		return printer.Error("failed to watch storage", err.Error(), nil)
	}

	if watchOutputFormat == "default" {
		where := "workspace " + s.cfg.Workspace
		if dir, ok := s.adapter.Connected(); ok {
			where += " and " + dir
		}
		printer.Info("Watching %s (Ctrl+C to stop)\n", where)
	}

	<-ctx.Done()
	return nil
}

func writeChange(w io.Writer, format string, data standup.StandupData, now time.Time) error {
	total := 0
	for _, section := range standup.Sections {
		total += len(data.IDs(section))
	}
	stats := report.ComputeStats(data)

	if format == "json" {
		line, err := json.Marshal(boardChange{Time: now, Tasks: total, Stats: stats})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", line)
		return err
	}

	_, err := fmt.Fprintf(w, "[%s] Board changed: %s tasks | planning %d | dev/qa %d | prod %d | release %d/%d\n",
		now.Format("15:04:05"), humanize.Comma(int64(total)),
		stats.PlanningOpen, stats.DevQAActive, stats.ProdOpen, stats.ReleaseCompleted, stats.ReleaseTotal)
	return err
}
