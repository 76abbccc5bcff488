package tracker

import (
	"strings"
	"time"

	"github.com/dyluth/standup/pkg/standup"
)

// DateEdit classifies a proposed change to an audited date field.
type DateEdit int

const (
	// DateEditNoop leaves the field untouched (nil to nil, or the same instant).
	DateEditNoop DateEdit = iota
	// DateEditClear applies silently.
	DateEditClear
	// DateEditAdd applies and logs an "added as" line.
	DateEditAdd
	// DateEditChange stages a pending change that needs a reason.
	DateEditChange
)

func (e DateEdit) String() string {
	switch e {
	case DateEditClear:
		return "clear"
	case DateEditAdd:
		return "add"
	case DateEditChange:
		return "change"
	default:
		return "noop"
	}
}

// ClassifyDateEdit applies the audit rule to an old and a proposed value.
func ClassifyDateEdit(old, proposed *time.Time) DateEdit {
	switch {
	case proposed == nil && old == nil:
		return DateEditNoop
	case proposed == nil:
		return DateEditClear
	case old == nil:
		return DateEditAdd
	case old.Equal(*proposed):
		return DateEditNoop
	default:
		return DateEditChange
	}
}

// PendingDateChange is a value to value date edit waiting for its reason.
type PendingDateChange struct {
	Field standup.DateField `json:"field"`
	Value time.Time         `json:"value"`
}

// DateChangeState is the per-row pending date change: either idle or awaiting
// a reason for exactly one field. The zero value is idle.
type DateChangeState struct {
	pending *PendingDateChange
}

// Idle returns the state with nothing staged.
func Idle() DateChangeState {
	return DateChangeState{}
}

// AwaitingReason returns the state with a change staged.
func AwaitingReason(field standup.DateField, value time.Time) DateChangeState {
	return DateChangeState{pending: &PendingDateChange{Field: field, Value: value}}
}

// Awaiting reports whether a change is staged.
func (s DateChangeState) Awaiting() bool {
	return s.pending != nil
}

// Pending returns the staged change, if any.
func (s DateChangeState) Pending() (PendingDateChange, bool) {
	if s.pending == nil {
		return PendingDateChange{}, false
	}
	return *s.pending, true
}

// Request stages a change. A change already staged on the row is replaced.
func (s DateChangeState) Request(field standup.DateField, value time.Time) DateChangeState {
	return AwaitingReason(field, value)
}

// Cancel drops the staged change without mutating anything.
func (s DateChangeState) Cancel() DateChangeState {
	return Idle()
}

// Confirm releases the staged change for application. A blank reason is
// rejected and the state is returned unchanged.
func (s DateChangeState) Confirm(reason string) (DateChangeState, PendingDateChange, error) {
	if s.pending == nil {
		return s, PendingDateChange{}, ErrNoPendingChange
	}
	if strings.TrimSpace(reason) == "" {
		return s, PendingDateChange{}, ErrReasonRequired
	}
	return Idle(), *s.pending, nil
}
