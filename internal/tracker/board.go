package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dyluth/standup/internal/notify"
	"github.com/dyluth/standup/pkg/standup"
	"github.com/sirupsen/logrus"
)

// Store persists the whole aggregate.
type Store interface {
	Save(ctx context.Context, data standup.StandupData) error
}

// Dispatcher forwards changelog lines to the external tracker. Implementations
// must not block.
type Dispatcher interface {
	Dispatch(itemID, text string)
}

// Options configures a Board. Zero values select defaults.
type Options struct {
	SaveDelay time.Duration
	Notifier  notify.Notifier
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

// UpdateResult reports what an update did beyond changing the record.
type UpdateResult struct {
	Pending    *PendingDateChange `json:"pending,omitempty"`
	Changelogs []Changelog        `json:"changelogs,omitempty"`
}

// Board owns the aggregate for one session. Every local mutation schedules a
// debounced save; changes observed from outside replace the aggregate
// wholesale via Replace. All methods are safe for concurrent use.
type Board struct {
	store      Store
	dispatcher Dispatcher
	notifier   notify.Notifier
	log        logrus.FieldLogger
	now        func() time.Time
	saves      *Debouncer
	saveMu     sync.Mutex

	mu      sync.Mutex
	data    standup.StandupData
	pending map[string]DateChangeState
}

// NewBoard creates a board over initial. dispatcher may be nil, in which case
// changelogs are computed but never sent.
func NewBoard(initial standup.StandupData, store Store, dispatcher Dispatcher, opts Options) *Board {
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	b := &Board{
		store:      store,
		dispatcher: dispatcher,
		notifier:   opts.Notifier,
		log:        opts.Logger.WithField("component", "board"),
		now:        opts.Now,
		data:       initial.Clone(),
		pending:    make(map[string]DateChangeState),
	}
	b.saves = NewDebouncer(opts.SaveDelay, func() { _ = b.save(context.Background()) })
	return b
}

func rowKey(s standup.Section, id string) string {
	return string(s) + "/" + id
}

// Snapshot returns a deep copy of the current aggregate.
func (b *Board) Snapshot() standup.StandupData {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data.Clone()
}

// Add appends a default record to the section and returns its id.
func (b *Board) Add(section standup.Section) (string, error) {
	var id string
	err := b.mutate(func(d *standup.StandupData) error {
		switch section.Kind() {
		case standup.KindCommon:
			task := standup.NewCommonTask()
			tasks, _ := d.Common(section)
			*d, _ = d.WithCommon(section, Add(tasks, task))
			id = task.ID
		case standup.KindRelease:
			task := standup.NewReleaseTask()
			d.Release = Add(d.Release, task)
			id = task.ID
		case standup.KindRwt:
			task := standup.NewRwtTask()
			d.Rwt = Add(d.Rwt, task)
			id = task.ID
		default:
			return fmt.Errorf("%w: %q", standup.ErrUnknownSection, section)
		}
		return nil
	})
	return id, err
}

// UpdateCommon applies a patch to a planning, devQa or prod task.
func (b *Board) UpdateCommon(section standup.Section, id string, p CommonPatch) (UpdateResult, error) {
	var res UpdateResult
	err := b.mutate(func(d *standup.StandupData) error {
		tasks, err := d.Common(section)
		if err != nil {
			return err
		}
		task, _, ok := Find(tasks, id)
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrTaskNotFound, id, section)
		}
		out, err := ApplyCommonPatch(task, p, b.now())
		if err != nil {
			return err
		}
		tasks, _ = Update(tasks, out.Task)
		*d, _ = d.WithCommon(section, tasks)
		b.stageLocked(section, id, out.Pending)
		res = UpdateResult{Pending: out.Pending, Changelogs: out.Changelogs}
		return nil
	})
	if err != nil {
		return UpdateResult{}, err
	}
	b.dispatch(res.Changelogs)
	return res, nil
}

// UpdateRelease applies a patch to a release task.
func (b *Board) UpdateRelease(id string, p ReleasePatch) (UpdateResult, error) {
	var res UpdateResult
	err := b.mutate(func(d *standup.StandupData) error {
		task, _, ok := Find(d.Release, id)
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrTaskNotFound, id, standup.SectionRelease)
		}
		out, err := ApplyReleasePatch(task, p, b.now())
		if err != nil {
			return err
		}
		d.Release, _ = Update(d.Release, out.Task)
		b.stageLocked(standup.SectionRelease, id, out.Pending)
		res = UpdateResult{Pending: out.Pending, Changelogs: out.Changelogs}
		return nil
	})
	if err != nil {
		return UpdateResult{}, err
	}
	b.dispatch(res.Changelogs)
	return res, nil
}

// UpdateRwt applies a patch to a rework-testing task.
func (b *Board) UpdateRwt(id string, p RwtPatch) error {
	return b.mutate(func(d *standup.StandupData) error {
		task, _, ok := Find(d.Rwt, id)
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrTaskNotFound, id, standup.SectionRwt)
		}
		out, err := ApplyRwtPatch(task, p)
		if err != nil {
			return err
		}
		d.Rwt, _ = Update(d.Rwt, out)
		return nil
	})
}

// SetDate edits a single date field. A nil value clears it. On audited fields
// a value to value edit is staged and reported in the result.
func (b *Board) SetDate(section standup.Section, id string, field standup.DateField, value *time.Time) (UpdateResult, error) {
	dates := map[standup.DateField]*time.Time{field: value}
	switch section.Kind() {
	case standup.KindCommon:
		return b.UpdateCommon(section, id, CommonPatch{Dates: dates})
	case standup.KindRelease:
		return b.UpdateRelease(id, ReleasePatch{Dates: dates})
	case standup.KindRwt:
		return UpdateResult{}, b.UpdateRwt(id, RwtPatch{Dates: dates})
	default:
		return UpdateResult{}, fmt.Errorf("%w: %q", standup.ErrUnknownSection, section)
	}
}

// PendingDateChange returns the change staged on a row, if any.
func (b *Board) PendingDateChange(section standup.Section, id string) (PendingDateChange, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[rowKey(section, id)].Pending()
}

// CancelDateChange drops the change staged on a row. It reports whether there
// was one.
func (b *Board) CancelDateChange(section standup.Section, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := rowKey(section, id)
	state, ok := b.pending[key]
	if !ok || !state.Awaiting() {
		return false
	}
	delete(b.pending, key)
	return true
}

// ConfirmDateChange applies the change staged on a row, logging it with the
// reason. A blank reason leaves the change staged.
func (b *Board) ConfirmDateChange(section standup.Section, id, reason string) (UpdateResult, error) {
	var res UpdateResult
	err := b.mutate(func(d *standup.StandupData) error {
		key := rowKey(section, id)
		_, change, err := b.pending[key].Confirm(reason)
		if err != nil {
			return err
		}

		switch section.Kind() {
		case standup.KindCommon:
			tasks, _ := d.Common(section)
			task, _, ok := Find(tasks, id)
			if !ok {
				delete(b.pending, key)
				return fmt.Errorf("%w: %s in %s", ErrTaskNotFound, id, section)
			}
			out, err := ConfirmCommonDateChange(task, change, reason, b.now())
			if err != nil {
				return err
			}
			tasks, _ = Update(tasks, out.Task)
			*d, _ = d.WithCommon(section, tasks)
			res.Changelogs = out.Changelogs
		case standup.KindRelease:
			task, _, ok := Find(d.Release, id)
			if !ok {
				delete(b.pending, key)
				return fmt.Errorf("%w: %s in %s", ErrTaskNotFound, id, section)
			}
			out, err := ConfirmReleaseDateChange(task, change, reason, b.now())
			if err != nil {
				return err
			}
			d.Release, _ = Update(d.Release, out.Task)
		default:
			return fmt.Errorf("%w: %q has no audited dates", standup.ErrUnknownSection, section)
		}
		delete(b.pending, key)
		return nil
	})
	if err != nil {
		return UpdateResult{}, err
	}
	b.dispatch(res.Changelogs)
	return res, nil
}

// Delete removes a record. Any change staged on it is dropped.
func (b *Board) Delete(section standup.Section, id string) error {
	return b.mutate(func(d *standup.StandupData) error {
		var ok bool
		switch section.Kind() {
		case standup.KindCommon:
			tasks, _ := d.Common(section)
			tasks, ok = Delete(tasks, id)
			*d, _ = d.WithCommon(section, tasks)
		case standup.KindRelease:
			d.Release, ok = Delete(d.Release, id)
		case standup.KindRwt:
			d.Rwt, ok = Delete(d.Rwt, id)
		default:
			return fmt.Errorf("%w: %q", standup.ErrUnknownSection, section)
		}
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrTaskNotFound, id, section)
		}
		delete(b.pending, rowKey(section, id))
		return nil
	})
}

// Reorder moves the record at from to to. Invalid indices are a no-op and
// report false.
func (b *Board) Reorder(section standup.Section, from, to int) (bool, error) {
	var moved bool
	err := b.mutate(func(d *standup.StandupData) error {
		switch section.Kind() {
		case standup.KindCommon:
			tasks, _ := d.Common(section)
			tasks, moved = Reorder(tasks, from, to)
			*d, _ = d.WithCommon(section, tasks)
		case standup.KindRelease:
			d.Release, moved = Reorder(d.Release, from, to)
		case standup.KindRwt:
			d.Rwt, moved = Reorder(d.Rwt, from, to)
		default:
			return fmt.Errorf("%w: %q", standup.ErrUnknownSection, section)
		}
		if !moved {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	return moved, err
}

// SetMeetingNotes replaces the free-text notes.
func (b *Board) SetMeetingNotes(text string) {
	_ = b.mutate(func(d *standup.StandupData) error {
		d.MeetingNotes = text
		return nil
	})
}

// Replace swaps in an aggregate read from outside this session. A scheduled
// save is cancelled so the external content is not immediately overwritten,
// and no new save is scheduled.
func (b *Board) Replace(data standup.StandupData) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.saves.Cancel() {
		b.log.Warn("Discarding unsaved local edits in favour of external change")
	}
	b.data = data.Clone()
}

// Flush runs a scheduled save now and returns its error. A save already in
// flight is waited for.
func (b *Board) Flush(ctx context.Context) error {
	if !b.saves.Cancel() {
		b.saveMu.Lock()
		defer b.saveMu.Unlock()
		return nil
	}
	return b.save(ctx)
}

// Close flushes any scheduled save.
func (b *Board) Close(ctx context.Context) error {
	return b.Flush(ctx)
}

// errNoChange aborts a mutation without scheduling a save.
var errNoChange = errors.New("no change")

// mutate runs fn on a working copy under the board lock. The copy replaces the
// aggregate and a save is scheduled only when fn succeeds.
func (b *Board) mutate(fn func(d *standup.StandupData) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	working := b.data
	if err := fn(&working); err != nil {
		return err
	}
	b.data = working
	b.saves.Trigger()
	return nil
}

func (b *Board) stageLocked(section standup.Section, id string, change *PendingDateChange) {
	if change == nil {
		return
	}
	key := rowKey(section, id)
	b.pending[key] = b.pending[key].Request(change.Field, change.Value)
}

func (b *Board) save(ctx context.Context) error {
	b.saveMu.Lock()
	defer b.saveMu.Unlock()

	data := b.Snapshot()
	if err := b.store.Save(ctx, data); err != nil {
		b.log.WithError(err).Error("Auto-save failed")
		b.notifier.Notify(notify.Error("Auto-save failed", err.Error()))
		return err
	}
	return nil
}

func (b *Board) dispatch(changelogs []Changelog) {
	if b.dispatcher == nil {
		return
	}
	for _, c := range changelogs {
		b.dispatcher.Dispatch(c.ItemID, c.Text)
	}
}
