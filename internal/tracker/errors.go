package tracker

import "errors"

var (
	// ErrTaskNotFound is returned when no record in the section has the id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrReasonRequired is returned when a date change is confirmed with a blank reason.
	ErrReasonRequired = errors.New("a reason is required to change a date")

	// ErrNoPendingChange is returned when confirming a row with no staged date change.
	ErrNoPendingChange = errors.New("no pending date change")
)
