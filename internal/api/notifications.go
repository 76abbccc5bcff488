package api

import (
	"sync"
	"time"

	"github.com/dyluth/standup/internal/notify"
	"github.com/sirupsen/logrus"
)

// DefaultNotificationLimit is how many notifications a NotificationLog keeps.
const DefaultNotificationLimit = 100

// LoggedNotification is a notification with its arrival order and time.
type LoggedNotification struct {
	notify.Notification
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
}

// NotificationLog keeps the most recent notifications for the dashboard to
// poll, and logs each one.
type NotificationLog struct {
	mu    sync.Mutex
	limit int
	seq   uint64
	items []LoggedNotification
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewNotificationLog creates a log holding up to limit entries.
func NewNotificationLog(limit int, logger logrus.FieldLogger) *NotificationLog {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NotificationLog{
		limit: limit,
		log:   logger.WithField("component", "notifications"),
		now:   time.Now,
	}
}

func (l *NotificationLog) Notify(n notify.Notification) {
	entry := l.log.WithField("title", n.Title)
	if n.Level == notify.LevelError {
		entry.Warn(n.Message)
	} else {
		entry.Info(n.Message)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.items = append(l.items, LoggedNotification{Notification: n, Seq: l.seq, Time: l.now()})
	if over := len(l.items) - l.limit; over > 0 {
		l.items = append(l.items[:0:0], l.items[over:]...)
	}
}

// Since returns the kept notifications with a sequence number above after,
// oldest first.
func (l *NotificationLog) Since(after uint64) []LoggedNotification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LoggedNotification, 0, len(l.items))
	for _, item := range l.items {
		if item.Seq > after {
			out = append(out, item)
		}
	}
	return out
}
