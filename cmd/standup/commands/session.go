package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/standup/internal/ado"
	"github.com/dyluth/standup/internal/config"
	"github.com/dyluth/standup/internal/logging"
	"github.com/dyluth/standup/internal/notify"
	"github.com/dyluth/standup/internal/printer"
	"github.com/dyluth/standup/internal/resolver"
	"github.com/dyluth/standup/internal/storage"
	"github.com/dyluth/standup/internal/tracker"
	"github.com/dyluth/standup/pkg/standup"
	"github.com/sirupsen/logrus"
)

// closeTimeout bounds the final flush of pending saves.
const closeTimeout = 10 * time.Second

// session wires one board to its storage and Azure DevOps dispatcher.
type session struct {
	cfg        *config.StandupConfig
	log        *logrus.Logger
	local      storage.LocalStore
	adapter    *storage.Adapter
	dispatcher *ado.Dispatcher
	board      *tracker.Board
}

// notifierFunc builds the session's notifier once the logger exists.
type notifierFunc func(logrus.FieldLogger) notify.Notifier

// openSession loads the configuration and the current board. Notifications
// from the board and the dispatcher go to the notifier built by newNotifier,
// or to the terminal when it is nil.
func openSession(ctx context.Context, newNotifier notifierFunc) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Config": configPath},
			[]string{"Create a default configuration:\n  standup init"},
		)
	}

	log := logging.New(cfg.Logging)
	var notifier notify.Notifier = &printer.Notifier{}
	if newNotifier != nil {
		notifier = newNotifier(log)
	}

	local, err := openLocalStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	adapter := storage.NewAdapter(local, storage.Options{
		Bootstrap:    cfg.Storage.Bootstrap,
		PollInterval: cfg.PollInterval(),
		Logger:       log,
	})

	data := adapter.Load(ctx)
	if cfg.Storage.SharedDir != "" {
		res, err := adapter.ReconnectFile(ctx, cfg.Storage.SharedDir, data)
		if err != nil {
			printer.Warning("Shared directory %s is unavailable: %v\n", cfg.Storage.SharedDir, err)
		} else {
			data = res.Data
		}
	}

	client := ado.NewClient(cfg.ADOClientConfig())
	if !client.Configured() {
		log.Debugf("%s not set, changelogs will not be posted", ado.PATEnvVar)
	}
	dispatcher := ado.NewDispatcher(client, notifier, log)

	board := tracker.NewBoard(data, adapter, dispatcher, tracker.Options{
		SaveDelay: cfg.SaveDebounce(),
		Notifier:  notifier,
		Logger:    log,
	})
	adapter.Subscribe(board.Replace)

	return &session{
		cfg:        cfg,
		log:        log,
		local:      local,
		adapter:    adapter,
		dispatcher: dispatcher,
		board:      board,
	}, nil
}

func openLocalStore(ctx context.Context, cfg *config.StandupConfig, log logrus.FieldLogger) (storage.LocalStore, error) {
	if cfg.Storage.RedisURL == "" {
		log.Debug("No redis_url configured, using in-memory storage")
		return storage.NewMemoryStore(), nil
	}

	store, err := storage.NewRedisStoreFromURL(cfg.Storage.RedisURL, cfg.Workspace)
	if err != nil {
		return nil, printer.Error(
			"invalid Redis URL",
			err.Error(),
			[]string{"Check storage.redis_url in " + configPath},
		)
	}
	store.SetLogger(log)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, printer.ErrorWithContext(
			"Redis unavailable",
			fmt.Sprintf("Failed to connect to Redis: %v", err),
			map[string]string{"URL": cfg.Storage.RedisURL},
			[]string{"Start Redis, or remove storage.redis_url to keep the board in memory"},
		)
	}
	return store, nil
}

// close flushes the pending save, waits for outstanding changelog posts and
// releases storage.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	err := s.board.Close(ctx)
	s.dispatcher.Wait()
	if cerr := s.adapter.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return printer.Error("failed to save", err.Error(), nil)
	}
	return nil
}

// warnIfEphemeral reminds the user that an in-memory board is lost on exit.
func (s *session) warnIfEphemeral() {
	if s.cfg.Storage.RedisURL != "" {
		return
	}
	if _, ok := s.adapter.Connected(); ok {
		return
	}
	printer.Warning("No storage.redis_url or shared directory configured; this change is not kept after exit\n")
}

// parseSection converts a section argument, printing the valid names on error.
func parseSection(arg string) (standup.Section, error) {
	section, err := standup.ParseSection(arg)
	if err != nil {
		names := make([]string, len(standup.Sections))
		for i, s := range standup.Sections {
			names[i] = string(s)
		}
		return "", printer.Error(
			"unknown section",
			fmt.Sprintf("Unknown section: %s", arg),
			[]string{fmt.Sprintf("Valid sections: %v", names)},
		)
	}
	return section, nil
}

// resolveID expands a short id within section.
func (s *session) resolveID(section standup.Section, shortID string) (string, error) {
	id, err := resolver.ResolveTaskID(s.board.Snapshot(), section, shortID)
	if err == nil {
		return id, nil
	}

	var ambiguous *resolver.AmbiguousError
	switch {
	case errors.As(err, &ambiguous):
		return "", printer.Error(
			"ambiguous task ID",
			resolver.FormatAmbiguousError(ambiguous),
			[]string{"Use a longer prefix or the full ID"},
		)
	case resolver.IsNotFoundError(err):
		return "", printer.Error(
			"task not found",
			err.Error(),
			[]string{fmt.Sprintf("List the section:\n  standup list %s", section)},
		)
	default:
		return "", printer.Error("invalid task ID", err.Error(), nil)
	}
}

// mutationError prints a board error in the CLI's format.
func mutationError(action string, err error) error {
	switch {
	case errors.Is(err, tracker.ErrTaskNotFound):
		return printer.Error("task not found", err.Error(), nil)
	case errors.Is(err, tracker.ErrReasonRequired):
		return printer.Error(
			"reason required",
			"Changing a date that was already set needs a reason.",
			[]string{"Re-run with --reason \"...\""},
		)
	default:
		return printer.Error(fmt.Sprintf("failed to %s", action), err.Error(), nil)
	}
}
