package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/standup/internal/api"
	"github.com/dyluth/standup/internal/notify"
	"github.com/dyluth/standup/internal/printer"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	Long: `Serve the board as a JSON API for the dashboard.

The server keeps one board for its lifetime, follows changes made by other
sessions and the shared file, and exposes:
  /api/...   board, sections, tasks, dates, notes, stats and notifications
  /healthz   storage health
  /metrics   Prometheus metrics

The listen address defaults to server.addr from the configuration.`,
	Example: `  standup serve
  standup serve --addr 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var notifications *api.NotificationLog
	s, err := openSession(ctx, func(log logrus.FieldLogger) notify.Notifier {
		notifications = api.NewNotificationLog(api.DefaultNotificationLimit, log)
		return notifications
	})
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	if err := s.adapter.Start(ctx); err != nil {
		return printer.Error("failed to watch storage", err.Error(), nil)
	}

	if s.log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := serveAddr
	if addr == "" {
		addr = s.cfg.Server.Addr
	}

	server := api.NewServer(s.board, api.Options{
		Files:         s.adapter,
		Pinger:        s.local,
		Notifications: notifications,
		Logger:        s.log,
	})
	server.Start(addr)
	printer.Success("Serving workspace %s on %s\n", s.cfg.Workspace, addr)

	<-ctx.Done()
	s.log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Warn("API server did not shut down cleanly")
	}
	return nil
}
