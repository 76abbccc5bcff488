package ado

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dyluth/standup/internal/metrics"
	"github.com/dyluth/standup/internal/notify"
	"github.com/sirupsen/logrus"
)

// Poster is the subset of Client used by the Dispatcher.
type Poster interface {
	PostComment(ctx context.Context, itemID, text string) error
}

// Dispatcher sends each changelog line once, on its own goroutine. There is no
// retry and no queue: a failure is reported and the line is dropped.
type Dispatcher struct {
	poster   Poster
	notifier notify.Notifier
	log      logrus.FieldLogger
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher. notifier and logger may be nil.
func NewDispatcher(poster Poster, notifier notify.Notifier, logger logrus.FieldLogger) *Dispatcher {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{
		poster:   poster,
		notifier: notifier,
		log:      logger.WithField("component", "ado"),
	}
}

// Dispatch posts text to itemID in the background. Later edits do not cancel
// an in-flight post.
func (d *Dispatcher) Dispatch(itemID, text string) {
	if itemID == "" || strings.TrimSpace(text) == "" {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		err := d.poster.PostComment(context.Background(), itemID, text)
		metrics.DispatchesTotal.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			d.log.WithError(err).WithField("item_id", itemID).Error("Failed to post changelog")
			d.notifier.Notify(notify.Error(fmt.Sprintf("Failed to update %s", itemID), err.Error()))
			return
		}
		d.log.WithField("item_id", itemID).Debug("Posted changelog")
		d.notifier.Notify(notify.Info("Azure DevOps updated", fmt.Sprintf("Changelog posted to %s", itemID)))
	}()
}

// Wait blocks until every in-flight dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
