package tracker

import (
	"strings"
	"testing"
	"time"

	"github.com/dyluth/standup/pkg/standup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func dates(field standup.DateField, v *time.Time) map[standup.DateField]*time.Time {
	return map[standup.DateField]*time.Time{field: v}
}

func TestApplyCommonPatch_DateAudit(t *testing.T) {
	due := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
	later := due.AddDate(0, 0, 7)

	t.Run("null to value applies and logs one line", func(t *testing.T) {
		task := standup.NewCommonTask()
		task.Remarks = "older"

		res, err := ApplyCommonPatch(task, CommonPatch{Dates: dates(standup.FieldDevDueDate, &due)}, testNow)
		require.NoError(t, err)
		require.NotNil(t, res.Task.DevDueDate)
		assert.True(t, res.Task.DevDueDate.Equal(due))
		assert.Nil(t, res.Pending)

		lines := strings.Split(res.Task.Remarks, "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "["))
		assert.Contains(t, lines[0], "added as")
		assert.Equal(t, "older", lines[1])
	})

	t.Run("value to null clears silently", func(t *testing.T) {
		task := standup.NewCommonTask()
		task.QAEndDate = &due
		task.Remarks = "older"

		res, err := ApplyCommonPatch(task, CommonPatch{Dates: dates(standup.FieldQAEndDate, nil)}, testNow)
		require.NoError(t, err)
		assert.Nil(t, res.Task.QAEndDate)
		assert.Equal(t, "older", res.Task.Remarks)
	})

	t.Run("value to value is staged, not applied", func(t *testing.T) {
		task := standup.NewCommonTask()
		task.CommittedDate = &due

		res, err := ApplyCommonPatch(task, CommonPatch{Dates: dates(standup.FieldCommittedDate, &later)}, testNow)
		require.NoError(t, err)
		assert.True(t, res.Task.CommittedDate.Equal(due))
		assert.Equal(t, "", res.Task.Remarks)
		require.NotNil(t, res.Pending)
		assert.Equal(t, standup.FieldCommittedDate, res.Pending.Field)
		assert.True(t, res.Pending.Value.Equal(later))
	})

	t.Run("confirming logs the reason and applies the value", func(t *testing.T) {
		task := standup.NewCommonTask()
		task.DevStartDate = &due

		res, err := ConfirmCommonDateChange(task, PendingDateChange{Field: standup.FieldDevStartDate, Value: later}, "R", testNow)
		require.NoError(t, err)
		assert.True(t, res.Task.DevStartDate.Equal(later))
		assert.Contains(t, res.Task.Remarks, "due to Reason : R")

		task.CommittedDate = &due
		res, err = ConfirmCommonDateChange(task, PendingDateChange{Field: standup.FieldCommittedDate, Value: later}, "R", testNow)
		require.NoError(t, err)
		assert.Contains(t, res.Task.Remarks, "with Reason : R")
		assert.True(t, res.Task.CommittedDate.Equal(later))
	})

	t.Run("unsupported date field", func(t *testing.T) {
		_, err := ApplyCommonPatch(standup.NewCommonTask(), CommonPatch{Dates: dates(standup.FieldStartDate, &due)}, testNow)
		assert.ErrorIs(t, err, standup.ErrUnsupportedField)
	})

	t.Run("invalid status", func(t *testing.T) {
		status := standup.CommonStatus("Done")
		_, err := ApplyCommonPatch(standup.NewCommonTask(), CommonPatch{Status: &status}, testNow)
		assert.Error(t, err)
	})
}

func TestApplyCommonPatch_Changelog(t *testing.T) {
	t.Run("remark increment is forwarded when the task has an external id", func(t *testing.T) {
		task := standup.NewCommonTask()
		task.ExternalID = "4242"
		task.Remarks = "A"

		res, err := ApplyCommonPatch(task, CommonPatch{Remarks: ptr("B\nA")}, testNow)
		require.NoError(t, err)
		assert.Equal(t, []Changelog{{ItemID: "4242", Text: "B"}}, res.Changelogs)
	})

	t.Run("unchanged remarks produce nothing", func(t *testing.T) {
		task := standup.NewCommonTask()
		task.ExternalID = "4242"
		task.Remarks = "A"

		res, err := ApplyCommonPatch(task, CommonPatch{Remarks: ptr("A")}, testNow)
		require.NoError(t, err)
		assert.Empty(t, res.Changelogs)
	})

	t.Run("never without an external id", func(t *testing.T) {
		due := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
		task := standup.NewCommonTask()

		res, err := ApplyCommonPatch(task, CommonPatch{
			Remarks:  ptr("typed"),
			TaskName: ptr("renamed"),
			Dates:    dates(standup.FieldDevDueDate, &due),
		}, testNow)
		require.NoError(t, err)
		assert.Empty(t, res.Changelogs)
	})

	t.Run("patch external id is normalised before gating", func(t *testing.T) {
		task := standup.NewCommonTask()
		res, err := ApplyCommonPatch(task, CommonPatch{ExternalID: ptr("#12-34"), Remarks: ptr("note")}, testNow)
		require.NoError(t, err)
		assert.Equal(t, "1234", res.Task.ExternalID)
		assert.Equal(t, []Changelog{{ItemID: "1234", Text: "note"}}, res.Changelogs)
	})

	t.Run("audit line counts as an increment", func(t *testing.T) {
		due := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
		task := standup.NewCommonTask()
		task.ExternalID = "7"
		task.Remarks = "old"

		res, err := ApplyCommonPatch(task, CommonPatch{Dates: dates(standup.FieldDevStartDate, &due)}, testNow)
		require.NoError(t, err)
		require.Len(t, res.Changelogs, 1)
		assert.Contains(t, res.Changelogs[0].Text, "Dev Start Date added as October 25th, 2026")
	})

	t.Run("input task is not mutated", func(t *testing.T) {
		task := standup.NewCommonTask()
		task.Collaborators = []string{"a"}
		_, err := ApplyCommonPatch(task, CommonPatch{Collaborators: &[]string{"b", "c"}}, testNow)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, task.Collaborators)
	})
}

func TestApplyReleasePatch_Changelog(t *testing.T) {
	base := func() standup.ReleaseTask {
		task := standup.NewReleaseTask()
		task.ExternalID = "99"
		task.Services = []string{"cart"}
		return task
	}

	t.Run("cr link wins over services", func(t *testing.T) {
		res, err := ApplyReleasePatch(base(), ReleasePatch{
			CRLink:   ptr("https://cr/1"),
			Services: &[]string{"cart", "search"},
		}, testNow)
		require.NoError(t, err)
		require.Len(t, res.Changelogs, 1)
		assert.Equal(t, "18/10/2026 : Added CR Link : - https://cr/1", res.Changelogs[0].Text)
		assert.Equal(t, []string{"cart", "search"}, res.Task.Services)
	})

	t.Run("jmdb id", func(t *testing.T) {
		res, err := ApplyReleasePatch(base(), ReleasePatch{JMDBID: ptr("J-7")}, testNow)
		require.NoError(t, err)
		require.Len(t, res.Changelogs, 1)
		assert.Equal(t, "18/10/2026 : Added JMDB ID : - J-7", res.Changelogs[0].Text)
	})

	t.Run("services are comma joined", func(t *testing.T) {
		res, err := ApplyReleasePatch(base(), ReleasePatch{Services: &[]string{"cart", "search"}}, testNow)
		require.NoError(t, err)
		require.Len(t, res.Changelogs, 1)
		assert.Equal(t, "18/10/2026 : Added Services : - cart, search", res.Changelogs[0].Text)
	})

	t.Run("unchanged values produce nothing", func(t *testing.T) {
		task := base()
		task.CRLink = "x"
		res, err := ApplyReleasePatch(task, ReleasePatch{CRLink: ptr("x"), Services: &[]string{"cart"}}, testNow)
		require.NoError(t, err)
		assert.Empty(t, res.Changelogs)
	})

	t.Run("never without an external id", func(t *testing.T) {
		task := base()
		task.ExternalID = ""
		res, err := ApplyReleasePatch(task, ReleasePatch{CRLink: ptr("https://cr/1")}, testNow)
		require.NoError(t, err)
		assert.Empty(t, res.Changelogs)
	})

	t.Run("committed date audit", func(t *testing.T) {
		due := time.Date(2026, 10, 30, 0, 0, 0, 0, time.UTC)
		res, err := ApplyReleasePatch(base(), ReleasePatch{Dates: dates(standup.FieldCommittedDate, &due)}, testNow)
		require.NoError(t, err)
		assert.Contains(t, res.Task.Remarks, "Committed Date added as October 30th, 2026")

		later := due.AddDate(0, 0, 1)
		res, err = ApplyReleasePatch(res.Task, ReleasePatch{Dates: dates(standup.FieldCommittedDate, &later)}, testNow)
		require.NoError(t, err)
		require.NotNil(t, res.Pending)
		assert.True(t, res.Task.CommittedDate.Equal(due))

		confirmed, err := ConfirmReleaseDateChange(res.Task, *res.Pending, "R", testNow)
		require.NoError(t, err)
		assert.True(t, confirmed.Task.CommittedDate.Equal(later))
		assert.Contains(t, confirmed.Task.Remarks, "with Reason : R")
	})

	t.Run("invalid release status", func(t *testing.T) {
		_, err := ApplyReleasePatch(base(), ReleasePatch{Status: &[]standup.ReleaseStatus{"Nope"}}, testNow)
		assert.Error(t, err)
	})
}

func TestApplyRwtPatch(t *testing.T) {
	start := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	task := standup.NewRwtTask()
	task.StartDate = &start

	later := start.AddDate(0, 0, 3)
	status := standup.RwtCompleted
	out, err := ApplyRwtPatch(task, RwtPatch{Status: &status, Dates: dates(standup.FieldStartDate, &later)})
	require.NoError(t, err)

	assert.Equal(t, standup.RwtCompleted, out.Status)
	assert.True(t, out.StartDate.Equal(later), "rwt dates are applied without a reason")
	assert.Equal(t, "", out.Remarks)

	_, err = ApplyRwtPatch(task, RwtPatch{Dates: dates(standup.FieldDevDueDate, &later)})
	assert.ErrorIs(t, err, standup.ErrUnsupportedField)
}
