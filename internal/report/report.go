// Package report derives the dashboard's read-only views from a snapshot:
// headline counts, "ongoing" filters, row highlights and CLI formatting.
package report

import (
	"github.com/dyluth/standup/pkg/standup"
)

// Stats are the dashboard headline counts.
type Stats struct {
	PlanningOpen     int `json:"planningOpen"`
	DevQAActive      int `json:"devQaActive"`
	ProdOpen         int `json:"prodOpen"`
	ReleasePending   int `json:"releasePending"`
	ReleaseCompleted int `json:"releaseCompleted"`
	ReleaseTotal     int `json:"releaseTotal"`
}

// ComputeStats counts open work per section.
func ComputeStats(data standup.StandupData) Stats {
	var s Stats
	for _, t := range data.Planning {
		if t.Status != standup.StatusComplete && t.Status != standup.StatusRemoved {
			s.PlanningOpen++
		}
	}
	for _, t := range data.DevQA {
		switch t.Status {
		case standup.StatusComplete, standup.StatusReleasedToProd, standup.StatusRemoved:
		default:
			s.DevQAActive++
		}
	}
	for _, t := range data.Prod {
		if t.Status != standup.StatusComplete && t.Status != standup.StatusRemoved {
			s.ProdOpen++
		}
	}
	for _, t := range data.Release {
		if t.HasStatus(standup.ReleaseReleased) {
			s.ReleaseCompleted++
		} else {
			s.ReleasePending++
		}
	}
	s.ReleaseTotal = len(data.Release)
	return s
}

// IsOngoingCommon reports whether a common task still needs attention.
func IsOngoingCommon(t standup.CommonTask) bool {
	switch t.Status {
	case standup.StatusComplete, standup.StatusScrapped, standup.StatusRemoved, standup.StatusReleasedToProd:
		return false
	}
	return true
}

// IsOngoingRelease reports whether a release item has not shipped yet.
func IsOngoingRelease(t standup.ReleaseTask) bool {
	return !t.HasStatus(standup.ReleaseReleased)
}

// IsOngoingRwt reports whether an rwt entry is still pending.
func IsOngoingRwt(t standup.RwtTask) bool {
	return t.Status != standup.RwtCompleted
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Ongoing returns a copy of data with only ongoing rows left in every
// section. Meeting notes are kept.
func Ongoing(data standup.StandupData) standup.StandupData {
	return standup.StandupData{
		Planning:     filter(data.Planning, IsOngoingCommon),
		DevQA:        filter(data.DevQA, IsOngoingCommon),
		Prod:         filter(data.Prod, IsOngoingCommon),
		Release:      filter(data.Release, IsOngoingRelease),
		Rwt:          filter(data.Rwt, IsOngoingRwt),
		MeetingNotes: data.MeetingNotes,
	}
}
