package storage

import (
	"context"
	"sync"
)

// LocalStore is the durable key/value slot holding the serialised document for
// one workspace, plus a change feed carrying writes made by other contexts.
type LocalStore interface {
	// Get returns the stored value. ok is false when nothing has been stored.
	Get(ctx context.Context) (value string, ok bool, err error)

	// Set stores value and announces it to other contexts.
	Set(ctx context.Context, value string) error

	// Watch delivers values written by other contexts. A context never
	// receives its own writes.
	Watch(ctx context.Context) (*Subscription, error)

	Ping(ctx context.Context) error
	Close() error
}

// Subscription represents an active change feed on a LocalStore.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan string
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of values written elsewhere.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan string {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// MemoryStore keeps the document in process memory. It backs sessions with no
// Redis configured and tests. Stores created with Share see one value and
// receive each other's writes, like browser tabs sharing local storage.
type MemoryStore struct {
	backing *memoryBacking
}

type memoryBacking struct {
	mu       sync.Mutex
	value    string
	ok       bool
	watchers map[*memoryWatcher]struct{}
}

type memoryWatcher struct {
	owner *MemoryStore
	ch    chan string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{backing: &memoryBacking{watchers: make(map[*memoryWatcher]struct{})}}
}

// Share returns another context over the same backing value.
func (m *MemoryStore) Share() *MemoryStore {
	return &MemoryStore{backing: m.backing}
}

func (m *MemoryStore) Get(_ context.Context) (string, bool, error) {
	b := m.backing
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, b.ok, nil
}

func (m *MemoryStore) Set(_ context.Context, value string) error {
	b := m.backing
	b.mu.Lock()
	defer b.mu.Unlock()

	b.value, b.ok = value, true
	for w := range b.watchers {
		if w.owner == m {
			continue
		}
		select {
		case w.ch <- value:
		default:
			// slow watcher, drop
		}
	}
	return nil
}

func (m *MemoryStore) Watch(ctx context.Context) (*Subscription, error) {
	b := m.backing
	w := &memoryWatcher{owner: m, ch: make(chan string, 10)}
	errorsChan := make(chan error)

	b.mu.Lock()
	b.watchers[w] = struct{}{}
	b.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-subCtx.Done()
		b.mu.Lock()
		delete(b.watchers, w)
		close(w.ch)
		b.mu.Unlock()
		close(errorsChan)
	}()

	return &Subscription{events: w.ch, errors: errorsChan, cancel: cancel}, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
