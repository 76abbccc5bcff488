package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/standup/pkg/standup"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
const MinShortIDLength = 6

// ResolveTaskID resolves a task id, or a prefix of one, within a section of
// data. Full UUIDs must exist; shorter inputs must be at least
// MinShortIDLength characters and match exactly one task.
func ResolveTaskID(data standup.StandupData, section standup.Section, shortID string) (string, error) {
	shortID = strings.TrimSpace(strings.ToLower(shortID))
	ids := data.IDs(section)

	if len(shortID) == 36 && strings.Count(shortID, "-") == 4 {
		for _, id := range ids {
			if strings.EqualFold(id, shortID) {
				return id, nil
			}
		}
		return "", &NotFoundError{ShortID: shortID, Section: section}
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(strings.ToLower(id), shortID) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID, Section: section}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no task matched the short ID.
type NotFoundError struct {
	ShortID string
	Section standup.Section
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no tasks in %s matching '%s'", e.Section, e.ShortID)
}

// AmbiguousError indicates multiple tasks matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d tasks", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly message listing up to 10
// matching ids.
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: ambiguous short ID '%s' matches %d tasks:\n", err.ShortID, len(err.Matches))

	shown := min(len(err.Matches), 10)
	for _, id := range err.Matches[:shown] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > shown {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-shown)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the task.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var target *AmbiguousError
	return errors.As(err, &target)
}
