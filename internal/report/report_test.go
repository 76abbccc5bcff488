package report

import (
	"testing"
	"time"

	"github.com/dyluth/standup/pkg/standup"
	"github.com/stretchr/testify/assert"
)

// Friday
var testNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func day(d int) *time.Time {
	t := time.Date(2026, 10, d, 8, 30, 0, 0, time.UTC)
	return &t
}

func common(name string, status standup.CommonStatus) standup.CommonTask {
	t := standup.NewCommonTask()
	t.TaskName = name
	t.Status = status
	return t
}

func release(item string, statuses ...standup.ReleaseStatus) standup.ReleaseTask {
	t := standup.NewReleaseTask()
	t.Item = item
	t.Status = statuses
	return t
}

func rwt(feature string, status standup.RwtStatus) standup.RwtTask {
	t := standup.NewRwtTask()
	t.Feature = feature
	t.Status = status
	return t
}

func sampleBoard() standup.StandupData {
	data := standup.Empty()
	data.Planning = []standup.CommonTask{
		common("a", standup.StatusNotStarted),
		common("b", standup.StatusComplete),
		common("c", standup.StatusRemoved),
		common("d", standup.StatusScrapped),
	}
	data.DevQA = []standup.CommonTask{
		common("e", standup.StatusDevInProgress),
		common("f", standup.StatusReleasedToProd),
		common("g", standup.StatusQAInProgress),
	}
	data.Prod = []standup.CommonTask{
		common("h", standup.StatusOnHold),
		common("i", standup.StatusComplete),
	}
	data.Release = []standup.ReleaseTask{
		release("j", standup.ReleaseSREDone, standup.ReleaseReleased),
		release("k", standup.ReleaseCABReviewPending),
		release("l"),
	}
	data.Rwt = []standup.RwtTask{
		rwt("m", standup.RwtPending),
		rwt("n", standup.RwtCompleted),
	}
	data.MeetingNotes = "notes"
	return data
}

func TestComputeStats(t *testing.T) {
	assert.Equal(t, Stats{
		PlanningOpen:     2,
		DevQAActive:      2,
		ProdOpen:         1,
		ReleasePending:   2,
		ReleaseCompleted: 1,
		ReleaseTotal:     3,
	}, ComputeStats(sampleBoard()))

	assert.Equal(t, Stats{}, ComputeStats(standup.Empty()))
}

func names(tasks []standup.CommonTask) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.TaskName
	}
	return out
}

func TestOngoing(t *testing.T) {
	board := sampleBoard()
	ongoing := Ongoing(board)

	assert.Equal(t, []string{"a"}, names(ongoing.Planning), "scrapped is not ongoing")
	assert.Equal(t, []string{"e", "g"}, names(ongoing.DevQA))
	assert.Equal(t, []string{"h"}, names(ongoing.Prod))
	assert.Len(t, ongoing.Release, 2)
	assert.Equal(t, "k", ongoing.Release[0].Item)
	assert.Len(t, ongoing.Rwt, 1)
	assert.Equal(t, "m", ongoing.Rwt[0].Feature)
	assert.Equal(t, "notes", ongoing.MeetingNotes)

	assert.Len(t, board.Planning, 4, "input is not modified")
}

func TestIsNextWorkingDay(t *testing.T) {
	tests := []struct {
		name string
		date *time.Time
		want bool
	}{
		{name: "nil", date: nil, want: false},
		{name: "today", date: day(16), want: false},
		{name: "saturday", date: day(17), want: false},
		{name: "monday after the weekend", date: day(19), want: true},
		{name: "tuesday", date: day(20), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNextWorkingDay(tt.date, testNow))
		})
	}

	thursday := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)
	assert.True(t, IsNextWorkingDay(day(16), thursday))
}

func TestIsCritical(t *testing.T) {
	tests := []struct {
		name      string
		committed *time.Time
		status    standup.CommonStatus
		want      bool
	}{
		{name: "no committed date", committed: nil, status: standup.StatusDevInProgress, want: false},
		{name: "overdue", committed: day(10), status: standup.StatusDevInProgress, want: true},
		{name: "due today", committed: day(16), status: standup.StatusDevInProgress, want: true},
		{name: "five working days away", committed: day(23), status: standup.StatusDevInProgress, want: true},
		{name: "weekend after five working days", committed: day(25), status: standup.StatusDevInProgress, want: true},
		{name: "six working days away", committed: day(26), status: standup.StatusDevInProgress, want: false},
		{name: "ready for release is never critical", committed: day(10), status: standup.StatusReadyForRelease, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := common("x", tt.status)
			task.CommittedDate = tt.committed
			assert.Equal(t, tt.want, IsCritical(task, testNow))
		})
	}
}
