// Package storage persists the standup document. The Adapter mirrors every save
// into a LocalStore (Redis, or memory for single-process sessions) and, while a
// shared directory is connected, into a JSON file that other people may edit
// concurrently. There is no merge: the most recent full read wins.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyluth/standup/internal/metrics"
	"github.com/dyluth/standup/internal/watch"
	"github.com/dyluth/standup/pkg/standup"
	"github.com/sirupsen/logrus"
)

// Options configures an Adapter. Zero values select defaults.
type Options struct {
	// Bootstrap is a path or http(s) URL read on the first Load without a
	// connected file. When present it replaces the local store value. Empty
	// disables bootstrapping.
	Bootstrap string

	// PollInterval is the fallback interval of the shared file watcher.
	PollInterval time.Duration

	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// ConnectResult describes a newly connected shared file.
type ConnectResult struct {
	Data      standup.StandupData
	FileName  string
	Directory string
}

// Listener receives aggregates read from outside this session.
type Listener func(standup.StandupData)

// Adapter is the persistence service for one session. Construct it once and
// pass it to whatever owns the aggregate.
type Adapter struct {
	local        LocalStore
	bootstrap    string
	pollInterval time.Duration
	httpClient   *http.Client
	log          logrus.FieldLogger

	// mu guards the shared file state. It is held across a file write and the
	// following stat so the watcher never mistakes our own write for an
	// external one.
	mu          sync.Mutex
	file        *SharedFile
	fileModTime time.Time
	stopWatch   context.CancelFunc
	watchDone   chan struct{}

	lmu       sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64

	relayMu   sync.Mutex
	stopRelay context.CancelFunc
	relayDone chan struct{}

	bootstrapped atomic.Bool
}

// NewAdapter creates an adapter over local. The adapter owns local from here
// on and closes it in Close.
func NewAdapter(local LocalStore, opts Options) *Adapter {
	if opts.PollInterval <= 0 {
		opts.PollInterval = watch.DefaultPollInterval
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Adapter{
		local:        local,
		bootstrap:    opts.Bootstrap,
		pollInterval: opts.PollInterval,
		httpClient:   opts.HTTPClient,
		log:          opts.Logger.WithField("component", "storage"),
		listeners:    make(map[uint64]Listener),
	}
}

// Load returns the current aggregate. It never fails: every read or parse
// problem is logged and the next source is tried, ending with an empty
// aggregate.
func (a *Adapter) Load(ctx context.Context) standup.StandupData {
	a.mu.Lock()
	file := a.file
	if file != nil {
		raw, mod, err := file.Read()
		if err == nil {
			a.fileModTime = mod
			a.mu.Unlock()
			return a.revive(raw, "shared file")
		}
		a.log.WithError(err).Error("Failed to read standup data from file")
	}
	a.mu.Unlock()

	if data, ok := a.loadBootstrap(ctx); ok {
		return data
	}

	raw, ok, err := a.local.Get(ctx)
	if err != nil {
		a.log.WithError(err).Error("Failed to read local storage")
		return standup.Empty()
	}
	if ok {
		return a.revive([]byte(raw), "local storage")
	}
	return standup.Empty()
}

// loadBootstrap adopts the bootstrap document and mirrors it into the local
// store. Only the first call per adapter reads the source.
func (a *Adapter) loadBootstrap(ctx context.Context) (standup.StandupData, bool) {
	if !a.bootstrapped.CompareAndSwap(false, true) {
		return standup.StandupData{}, false
	}

	raw, ok, err := fetchBootstrap(ctx, a.httpClient, a.bootstrap)
	if err != nil {
		a.log.WithError(err).WithField("source", a.bootstrap).Warn("No bootstrap document loaded")
		return standup.StandupData{}, false
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return standup.StandupData{}, false
	}
	data, err := standup.Revive(raw)
	if err != nil {
		a.log.WithError(err).WithField("source", a.bootstrap).Warn("Failed to parse bootstrap document")
		return standup.StandupData{}, false
	}

	if err := a.setLocal(ctx, data); err != nil {
		a.log.WithError(err).Error("Failed to cache bootstrap document into local storage")
	}
	a.log.WithField("source", a.bootstrap).Info("Loaded bootstrap document")
	return data, true
}

// Save mirrors data into the local store and, when connected, the shared
// file. Only a local store failure is returned; file failures are logged and
// surface again on the next save.
func (a *Adapter) Save(ctx context.Context, data standup.StandupData) error {
	localErr := a.setLocal(ctx, data)
	metrics.SavesTotal.WithLabelValues(metrics.Result(localErr)).Inc()
	if localErr != nil {
		a.log.WithError(localErr).Error("Failed to persist standup data to local storage")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return localErr
	}

	fileErr := a.writeFileLocked(data)
	metrics.FileWritesTotal.WithLabelValues(metrics.Result(fileErr)).Inc()
	if fileErr != nil {
		a.log.WithError(fileErr).WithField("path", a.file.Path()).Error("Failed to persist standup data to file")
	}
	return localErr
}

func (a *Adapter) setLocal(ctx context.Context, data standup.StandupData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize standup data: %w", err)
	}
	return a.local.Set(ctx, string(raw))
}

func (a *Adapter) writeFileLocked(data standup.StandupData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize standup data: %w", err)
	}
	mod, err := a.file.Write(raw)
	if err != nil {
		return err
	}
	a.fileModTime = mod
	return nil
}

// ConnectFile asks picker for a directory and connects its shared file. A
// non-empty file becomes the active aggregate; an empty one is seeded with
// current. Either way the result is mirrored into the local store.
// ErrPickerCancelled is returned untouched for the caller to ignore.
func (a *Adapter) ConnectFile(ctx context.Context, picker DirectoryPicker, current standup.StandupData) (ConnectResult, error) {
	dir, err := picker.PickDirectory(ctx)
	if err != nil {
		return ConnectResult{}, err
	}

	file, err := OpenSharedFile(dir)
	if err != nil {
		return ConnectResult{}, err
	}

	a.DisconnectFile()

	a.mu.Lock()
	a.file = file
	data := current
	raw, _, err := file.Read()
	switch {
	case err != nil:
		a.log.WithError(err).Error("Failed to load data from shared file")
	case len(bytes.TrimSpace(raw)) == 0:
		if err := a.writeFileLocked(current); err != nil {
			a.log.WithError(err).Error("Failed to seed shared file")
		}
	default:
		revived, err := standup.Revive(raw)
		if err != nil {
			a.log.WithError(err).Error("Failed to parse shared file, keeping current data")
		} else {
			data = revived
		}
	}
	if m, err := file.ModTime(); err == nil {
		a.fileModTime = m
	}
	a.startWatchLocked()
	a.mu.Unlock()

	if err := a.setLocal(ctx, data); err != nil {
		a.log.WithError(err).Error("Failed to mirror shared file into local storage")
	}
	a.log.WithField("path", file.Path()).Info("Connected shared file")
	return ConnectResult{Data: data, FileName: file.Name(), Directory: file.Dir()}, nil
}

// DisconnectFile drops the shared file and stops watching it. The file itself
// is left in place.
func (a *Adapter) DisconnectFile() {
	a.mu.Lock()
	stop, done := a.stopWatch, a.watchDone
	a.file = nil
	a.fileModTime = time.Time{}
	a.stopWatch, a.watchDone = nil, nil
	a.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
}

// Connected reports the connected directory, if any.
func (a *Adapter) Connected() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return "", false
	}
	return a.file.Dir(), true
}

// ReconnectFile connects dir without a picker, for sessions restoring a
// previously connected directory. The file's content is returned as the
// active aggregate, or current if it is empty.
func (a *Adapter) ReconnectFile(ctx context.Context, dir string, current standup.StandupData) (ConnectResult, error) {
	return a.ConnectFile(ctx, StaticPicker(dir), current)
}

func (a *Adapter) startWatchLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.stopWatch, a.watchDone = cancel, done

	path := a.file.Path()
	go func() {
		defer close(done)
		_ = watch.File(ctx, path, a.pollInterval, a.checkFile)
	}()
}

// checkFile re-reads the shared file when its modification time moved past the
// last one seen, and hands the result to every listener.
func (a *Adapter) checkFile() {
	a.mu.Lock()
	if a.file == nil {
		a.mu.Unlock()
		return
	}
	mod, err := a.file.ModTime()
	if err != nil {
		a.mu.Unlock()
		a.log.WithError(err).Error("Failed to read shared file updates")
		return
	}
	if !mod.After(a.fileModTime) {
		a.mu.Unlock()
		return
	}
	raw, mod, err := a.file.Read()
	if err != nil {
		a.mu.Unlock()
		a.log.WithError(err).Error("Failed to read shared file updates")
		return
	}
	a.fileModTime = mod
	a.mu.Unlock()

	metrics.ExternalReloadsTotal.WithLabelValues(metrics.SourceFile).Inc()
	a.log.Debug("Shared file changed externally")
	a.broadcast(a.revive(raw, "shared file"))
}

// Subscribe registers a listener for aggregates read from outside this
// session. The returned function removes it.
func (a *Adapter) Subscribe(l Listener) func() {
	a.lmu.Lock()
	defer a.lmu.Unlock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = l
	return func() {
		a.lmu.Lock()
		defer a.lmu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *Adapter) broadcast(data standup.StandupData) {
	a.lmu.Lock()
	listeners := make([]Listener, 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.lmu.Unlock()

	for _, l := range listeners {
		l(data.Clone())
	}
}

// Start relays writes made by other contexts to the local store.
func (a *Adapter) Start(ctx context.Context) error {
	a.relayMu.Lock()
	defer a.relayMu.Unlock()
	if a.stopRelay != nil {
		return errors.New("adapter already started")
	}

	relayCtx, cancel := context.WithCancel(ctx)
	sub, err := a.local.Watch(relayCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to watch local storage: %w", err)
	}

	done := make(chan struct{})
	a.stopRelay, a.relayDone = cancel, done

	go func() {
		defer close(done)
		defer sub.Close()
		events, errs := sub.Events(), sub.Errors()
		for events != nil || errs != nil {
			select {
			case value, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if value == "" {
					continue
				}
				data, err := standup.Revive([]byte(value))
				if err != nil {
					a.log.WithError(err).Error("Failed to process storage event payload")
					continue
				}
				metrics.ExternalReloadsTotal.WithLabelValues(metrics.SourceLocal).Inc()
				a.broadcast(data)
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				a.log.WithError(err).Warn("Local storage subscription error")
			}
		}
	}()
	return nil
}

// Close stops the relay and the file watcher, then closes the local store.
func (a *Adapter) Close() error {
	a.relayMu.Lock()
	stop, done := a.stopRelay, a.relayDone
	a.stopRelay, a.relayDone = nil, nil
	a.relayMu.Unlock()
	if stop != nil {
		stop()
		<-done
	}

	a.DisconnectFile()
	return a.local.Close()
}

func (a *Adapter) revive(raw []byte, source string) standup.StandupData {
	if len(bytes.TrimSpace(raw)) == 0 {
		return standup.Empty()
	}
	data, err := standup.Revive(raw)
	if err != nil {
		a.log.WithError(err).WithField("source", source).Error("Failed to parse standup data")
		return standup.Empty()
	}
	return data
}
