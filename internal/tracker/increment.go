package tracker

import "strings"

// ExtractIncrementalRemark recovers the newly typed part of a remarks field.
// Remarks are edited by prepending, so when next ends with prev the increment
// is whatever sits in front of it. Any other edit is treated as entirely new
// text; mid-text edits are not diffed.
func ExtractIncrementalRemark(prev, next string) string {
	switch {
	case next == "":
		return ""
	case prev == "":
		return strings.TrimSpace(next)
	case next == prev:
		return ""
	case strings.HasSuffix(next, prev):
		return strings.TrimSpace(strings.TrimSuffix(next, prev))
	default:
		return strings.TrimSpace(next)
	}
}
