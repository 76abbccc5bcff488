package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/standup/internal/notify"
	"github.com/dyluth/standup/pkg/standup"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	saves []standup.StandupData
	err   error
}

func (s *fakeStore) Save(_ context.Context, data standup.StandupData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, data)
	return s.err
}

func (s *fakeStore) all() []standup.StandupData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]standup.StandupData(nil), s.saves...)
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []Changelog
}

func (d *fakeDispatcher) Dispatch(itemID, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, Changelog{ItemID: itemID, Text: text})
}

func (d *fakeDispatcher) all() []Changelog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Changelog(nil), d.sent...)
}

func setupBoard(t *testing.T, delay time.Duration) (*Board, *fakeStore, *fakeDispatcher, *notify.Recorder) {
	t.Helper()
	store := &fakeStore{}
	dispatcher := &fakeDispatcher{}
	recorder := &notify.Recorder{}
	logger, _ := test.NewNullLogger()

	board := NewBoard(standup.Empty(), store, dispatcher, Options{
		SaveDelay: delay,
		Notifier:  recorder,
		Logger:    logger,
		Now:       func() time.Time { return testNow },
	})
	t.Cleanup(func() { _ = board.Close(context.Background()) })
	return board, store, dispatcher, recorder
}

func TestBoard_AddUpdateDelete(t *testing.T) {
	board, _, _, _ := setupBoard(t, time.Hour)

	var added []string
	for i := 0; i < 3; i++ {
		id, err := board.Add(standup.SectionPlanning)
		require.NoError(t, err)
		added = append(added, id)
	}
	assert.Equal(t, added, board.Snapshot().IDs(standup.SectionPlanning))

	_, err := board.UpdateCommon(standup.SectionPlanning, added[1], CommonPatch{TaskName: ptr("Checkout")})
	require.NoError(t, err)
	assert.Equal(t, "Checkout", board.Snapshot().Planning[1].TaskName)

	require.NoError(t, board.Delete(standup.SectionPlanning, added[0]))
	assert.Equal(t, added[1:], board.Snapshot().IDs(standup.SectionPlanning))

	err = board.Delete(standup.SectionPlanning, added[0])
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = board.UpdateCommon(standup.SectionPlanning, "missing", CommonPatch{TaskName: ptr("x")})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, added[1:], board.Snapshot().IDs(standup.SectionPlanning))

	_, err = board.Add(standup.Section("archive"))
	assert.ErrorIs(t, err, standup.ErrUnknownSection)
}

func TestBoard_Reorder(t *testing.T) {
	board, _, _, _ := setupBoard(t, time.Hour)
	a, _ := board.Add(standup.SectionRelease)
	b, _ := board.Add(standup.SectionRelease)
	c, _ := board.Add(standup.SectionRelease)

	moved, err := board.Reorder(standup.SectionRelease, 2, 0)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{c, a, b}, board.Snapshot().IDs(standup.SectionRelease))

	moved, err = board.Reorder(standup.SectionRelease, 5, 0)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, []string{c, a, b}, board.Snapshot().IDs(standup.SectionRelease))
}

func TestBoard_DebouncedSave(t *testing.T) {
	board, store, _, _ := setupBoard(t, 40*time.Millisecond)
	id, err := board.Add(standup.SectionDevQA)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		_, err := board.UpdateCommon(standup.SectionDevQA, id, CommonPatch{TaskName: ptr(string(rune('a' + i)))})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return len(store.all()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	saves := store.all()
	require.Len(t, saves, 1)
	assert.Equal(t, "f", saves[0].DevQA[0].TaskName, "the save reflects the last mutation")
}

func TestBoard_FlushAndSaveFailure(t *testing.T) {
	board, store, _, recorder := setupBoard(t, time.Hour)
	board.SetMeetingNotes("notes")

	require.NoError(t, board.Flush(context.Background()))
	require.Len(t, store.all(), 1)
	assert.Equal(t, "notes", store.all()[0].MeetingNotes)

	require.NoError(t, board.Flush(context.Background()), "nothing scheduled")
	assert.Len(t, store.all(), 1)

	store.mu.Lock()
	store.err = errors.New("quota exceeded")
	store.mu.Unlock()

	board.SetMeetingNotes("more")
	err := board.Flush(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "more", board.Snapshot().MeetingNotes, "in-memory state is retained")

	notes := recorder.All()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.LevelError, notes[0].Level)
	assert.Equal(t, "Auto-save failed", notes[0].Title)
}

func TestBoard_ReplaceCancelsPendingSave(t *testing.T) {
	board, store, _, _ := setupBoard(t, 30*time.Millisecond)
	board.SetMeetingNotes("local")

	external := standup.Empty()
	external.MeetingNotes = "external"
	board.Replace(external)

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, store.all())
	assert.Equal(t, "external", board.Snapshot().MeetingNotes)
}

func TestBoard_DateChangeFlow(t *testing.T) {
	board, _, dispatcher, _ := setupBoard(t, time.Hour)
	id, err := board.Add(standup.SectionProd)
	require.NoError(t, err)
	_, err = board.UpdateCommon(standup.SectionProd, id, CommonPatch{ExternalID: ptr("555")})
	require.NoError(t, err)

	due := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
	later := due.AddDate(0, 0, 2)

	res, err := board.SetDate(standup.SectionProd, id, standup.FieldDevDueDate, &due)
	require.NoError(t, err)
	assert.Nil(t, res.Pending)
	require.Len(t, dispatcher.all(), 1)

	res, err = board.SetDate(standup.SectionProd, id, standup.FieldDevDueDate, &later)
	require.NoError(t, err)
	require.NotNil(t, res.Pending)
	assert.True(t, board.Snapshot().Prod[0].DevDueDate.Equal(due), "not applied before a reason is given")

	pending, ok := board.PendingDateChange(standup.SectionProd, id)
	require.True(t, ok)
	assert.Equal(t, standup.FieldDevDueDate, pending.Field)

	_, err = board.ConfirmDateChange(standup.SectionProd, id, "")
	assert.ErrorIs(t, err, ErrReasonRequired)
	_, ok = board.PendingDateChange(standup.SectionProd, id)
	assert.True(t, ok)

	_, err = board.ConfirmDateChange(standup.SectionProd, id, "R")
	require.NoError(t, err)
	task := board.Snapshot().Prod[0]
	assert.True(t, task.DevDueDate.Equal(later))
	assert.Contains(t, task.Remarks, "due to Reason : R")
	_, ok = board.PendingDateChange(standup.SectionProd, id)
	assert.False(t, ok)

	sent := dispatcher.all()
	require.Len(t, sent, 2)
	assert.Equal(t, "555", sent[1].ItemID)
	assert.Contains(t, sent[1].Text, "due to Reason : R")

	_, err = board.SetDate(standup.SectionProd, id, standup.FieldDevDueDate, &due)
	require.NoError(t, err)
	assert.True(t, board.CancelDateChange(standup.SectionProd, id))
	assert.False(t, board.CancelDateChange(standup.SectionProd, id))
	assert.True(t, board.Snapshot().Prod[0].DevDueDate.Equal(later))
}

func TestBoard_NoDispatchWithoutExternalID(t *testing.T) {
	board, _, dispatcher, _ := setupBoard(t, time.Hour)
	id, _ := board.Add(standup.SectionPlanning)
	rel, _ := board.Add(standup.SectionRelease)

	due := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
	_, err := board.UpdateCommon(standup.SectionPlanning, id, CommonPatch{Remarks: ptr("hello"), Dates: dates(standup.FieldCommittedDate, &due)})
	require.NoError(t, err)
	_, err = board.UpdateRelease(rel, ReleasePatch{CRLink: ptr("https://cr"), JMDBID: ptr("J"), Services: &[]string{"a"}})
	require.NoError(t, err)

	assert.Empty(t, dispatcher.all())
}

func TestBoard_RwtDatesAreNotAudited(t *testing.T) {
	board, _, _, _ := setupBoard(t, time.Hour)
	id, _ := board.Add(standup.SectionRwt)

	start := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	later := start.AddDate(0, 0, 1)
	_, err := board.SetDate(standup.SectionRwt, id, standup.FieldStartDate, &start)
	require.NoError(t, err)
	res, err := board.SetDate(standup.SectionRwt, id, standup.FieldStartDate, &later)
	require.NoError(t, err)
	assert.Nil(t, res.Pending)

	task := board.Snapshot().Rwt[0]
	assert.True(t, task.StartDate.Equal(later))
	assert.Equal(t, "", task.Remarks)
}

func TestNewBoard_Defaults(t *testing.T) {
	board := NewBoard(standup.Empty(), &fakeStore{}, nil, Options{})
	assert.Equal(t, DefaultSaveDelay, board.saves.delay)
	assert.Equal(t, logrus.Fields{"component": "board"}, board.log.(*logrus.Entry).Data)

	id, err := board.Add(standup.SectionPlanning)
	require.NoError(t, err)
	_, err = board.UpdateCommon(standup.SectionPlanning, id, CommonPatch{ExternalID: ptr("1"), Remarks: ptr("x")})
	assert.NoError(t, err, "a nil dispatcher is allowed")
	board.saves.Cancel()
}
