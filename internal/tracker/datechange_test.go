package tracker

import (
	"testing"
	"time"

	"github.com/dyluth/standup/pkg/standup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDateEdit(t *testing.T) {
	a := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	b := a.AddDate(0, 0, 1)
	same := a

	tests := []struct {
		name     string
		old, new *time.Time
		want     DateEdit
	}{
		{"nil to nil", nil, nil, DateEditNoop},
		{"value to nil", &a, nil, DateEditClear},
		{"nil to value", nil, &a, DateEditAdd},
		{"value to other value", &a, &b, DateEditChange},
		{"value to same instant", &a, &same, DateEditNoop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDateEdit(tt.old, tt.new))
		})
	}
}

func TestDateChangeState(t *testing.T) {
	due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)

	t.Run("zero value is idle", func(t *testing.T) {
		var s DateChangeState
		assert.False(t, s.Awaiting())
		_, ok := s.Pending()
		assert.False(t, ok)
	})

	t.Run("request then cancel", func(t *testing.T) {
		s := Idle().Request(standup.FieldDevDueDate, due)
		require.True(t, s.Awaiting())
		s = s.Cancel()
		assert.False(t, s.Awaiting())
	})

	t.Run("blank reason keeps the change staged", func(t *testing.T) {
		s := AwaitingReason(standup.FieldDevDueDate, due)
		next, _, err := s.Confirm("   ")
		assert.ErrorIs(t, err, ErrReasonRequired)
		assert.True(t, next.Awaiting())
	})

	t.Run("confirm releases the change", func(t *testing.T) {
		s := AwaitingReason(standup.FieldDevDueDate, due)
		next, change, err := s.Confirm("R")
		require.NoError(t, err)
		assert.False(t, next.Awaiting())
		assert.Equal(t, standup.FieldDevDueDate, change.Field)
		assert.True(t, change.Value.Equal(due))
	})

	t.Run("confirm while idle", func(t *testing.T) {
		_, _, err := Idle().Confirm("R")
		assert.ErrorIs(t, err, ErrNoPendingChange)
	})

	t.Run("last request wins", func(t *testing.T) {
		s := Idle().Request(standup.FieldDevDueDate, due).Request(standup.FieldQAEndDate, due.AddDate(0, 0, 3))
		change, ok := s.Pending()
		require.True(t, ok)
		assert.Equal(t, standup.FieldQAEndDate, change.Field)
	})
}
