package standup

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// dateLayouts are tried in order when reviving a date string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Revive parses a persisted document and normalises it into a fully-populated
// aggregate. Only JSON syntax errors and a non-object top level are reported;
// every other defect is absorbed by defaulting the affected value.
func Revive(raw []byte) (StandupData, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Empty(), fmt.Errorf("failed to parse standup document: %w", err)
	}
	if doc == nil {
		return Empty(), nil
	}
	if _, ok := doc.(map[string]any); !ok {
		return Empty(), fmt.Errorf("standup document must be a JSON object, got %T", doc)
	}
	return ReviveValue(doc), nil
}

// ReviveValue normalises an already-decoded document. Anything that is not a
// JSON object yields Empty().
func ReviveValue(v any) StandupData {
	obj, ok := v.(map[string]any)
	if !ok {
		return Empty()
	}

	data := Empty()
	data.Planning = reviveList(obj["planning"], reviveCommonTask)
	data.DevQA = reviveList(obj["devQa"], reviveCommonTask)
	data.Prod = reviveList(obj["prod"], reviveCommonTask)
	data.Release = reviveList(obj["release"], reviveReleaseTask)
	data.Rwt = reviveList(obj["rwt"], reviveRwtTask)
	data.MeetingNotes = reviveString(obj["meetingNotes"])
	return data
}

func reviveList[T any](v any, revive func(map[string]any) T) []T {
	out := []T{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, revive(rec))
	}
	return out
}

func reviveCommonTask(rec map[string]any) CommonTask {
	status := CommonStatus(reviveString(rec["status"]))
	if status.Validate() != nil {
		status = StatusNotStarted
	}
	return CommonTask{
		ID:            reviveID(rec["id"]),
		ExternalID:    NormalizeExternalID(reviveString(rec["adoId"])),
		TaskName:      reviveString(rec["taskName"]),
		Status:        status,
		Collaborators: reviveStrings(rec["collaborators"]),
		DevStartDate:  ReviveDate(rec["DevStartDate"]),
		DevDueDate:    ReviveDate(rec["DevDueDate"]),
		QAStartDate:   ReviveDate(rec["QAStartDate"]),
		QAEndDate:     ReviveDate(rec["QAEndDate"]),
		Remarks:       reviveString(rec["remarks"]),
		CommittedDate: ReviveDate(rec["committedDate"]),
	}
}

func reviveReleaseTask(rec map[string]any) ReleaseTask {
	statuses := []ReleaseStatus{}
	for _, s := range reviveStrings(rec["status"]) {
		rs := ReleaseStatus(s)
		if rs.Validate() == nil {
			statuses = append(statuses, rs)
		}
	}
	return ReleaseTask{
		ID:            reviveID(rec["id"]),
		ExternalID:    NormalizeExternalID(reviveString(rec["adoId"])),
		Item:          reviveString(rec["item"]),
		Status:        statuses,
		CRLink:        reviveString(rec["crLink"]),
		JMDBID:        reviveString(rec["jmdbId"]),
		Services:      reviveStrings(rec["services"]),
		Remarks:       reviveString(rec["remarks"]),
		CommittedDate: ReviveDate(rec["committedDate"]),
	}
}

func reviveRwtTask(rec map[string]any) RwtTask {
	status := RwtStatus(reviveString(rec["status"]))
	if status.Validate() != nil {
		status = RwtPending
	}
	return RwtTask{
		ID:            reviveID(rec["id"]),
		Feature:       reviveString(rec["feature"]),
		Status:        status,
		Collaborators: reviveStrings(rec["collaborators"]),
		StartDate:     ReviveDate(rec["startDate"]),
		EndDate:       ReviveDate(rec["endDate"]),
		Remarks:       reviveString(rec["remarks"]),
	}
}

// reviveID keeps a non-empty string id; anything else gets a fresh UUID.
func reviveID(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return uuid.New().String()
}

func reviveString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// numeric ids written by hand
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func reviveStrings(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ReviveDate converts a persisted date value. Strings in RFC 3339 or
// YYYY-MM-DD form and epoch milliseconds are accepted; anything else is nil.
func ReviveDate(v any) *time.Time {
	switch d := v.(type) {
	case string:
		d = strings.TrimSpace(d)
		if d == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return &t
			}
		}
		return nil
	case float64:
		if d == 0 {
			return nil
		}
		t := time.UnixMilli(int64(d)).UTC()
		return &t
	default:
		return nil
	}
}
