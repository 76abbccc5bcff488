package standup

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusValidate(t *testing.T) {
	for _, s := range CommonStatusOptions {
		assert.NoError(t, s.Validate(), s)
	}
	assert.Len(t, CommonStatusOptions, 16)
	assert.Error(t, CommonStatus("Done").Validate())

	for _, s := range ReleaseStatusOptions {
		assert.NoError(t, s.Validate(), s)
	}
	assert.Error(t, ReleaseStatus("Shipped").Validate())

	assert.NoError(t, RwtPending.Validate())
	assert.NoError(t, RwtCompleted.Validate())
	assert.Error(t, RwtStatus("").Validate())
}

func TestNewTasks(t *testing.T) {
	t.Run("common defaults", func(t *testing.T) {
		task := NewCommonTask()
		_, err := uuid.Parse(task.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusNotStarted, task.Status)
		assert.NotNil(t, task.Collaborators)
		assert.Nil(t, task.CommittedDate)
	})

	t.Run("ids are never reused", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			id := NewReleaseTask().ID
			assert.False(t, seen[id])
			seen[id] = true
		}
	})

	t.Run("rwt defaults", func(t *testing.T) {
		task := NewRwtTask()
		assert.Equal(t, RwtPending, task.Status)
	})
}

func TestNormalizeExternalID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"12345", "12345"},
		{"#123-456", "123456"},
		{"1234567890123", "123456789"},
		{"abc", ""},
		{" 42 ", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeExternalID(tt.in))
		})
	}
}

func TestStandupData_JSONFieldNames(t *testing.T) {
	d := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	data := Empty()
	data.Planning = append(data.Planning, CommonTask{ID: "p1", ExternalID: "42", DevDueDate: &d, Collaborators: []string{}})
	data.Release = append(data.Release, ReleaseTask{ID: "r1", JMDBID: "J1", Status: []ReleaseStatus{}, Services: []string{}})

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"planning", "devQa", "prod", "release", "rwt", "meetingNotes"} {
		assert.Contains(t, doc, key)
	}

	planning := doc["planning"].([]any)[0].(map[string]any)
	assert.Equal(t, "42", planning["adoId"])
	assert.Equal(t, "2026-10-18T00:00:00Z", planning["DevDueDate"])
	assert.Nil(t, planning["committedDate"])

	release := doc["release"].([]any)[0].(map[string]any)
	assert.Equal(t, "J1", release["jmdbId"])
	assert.Equal(t, []any{}, doc["devQa"])
}

func TestStandupData_Clone(t *testing.T) {
	d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	data := Empty()
	data.DevQA = []CommonTask{{ID: "a", Collaborators: []string{"x"}, DevStartDate: &d}}

	clone := data.Clone()
	clone.DevQA[0].Collaborators[0] = "y"
	*clone.DevQA[0].DevStartDate = d.AddDate(0, 0, 1)

	assert.Equal(t, "x", data.DevQA[0].Collaborators[0])
	assert.True(t, data.DevQA[0].DevStartDate.Equal(d))
}

func TestSection(t *testing.T) {
	assert.Equal(t, KindCommon, SectionDevQA.Kind())
	assert.Equal(t, KindRelease, SectionRelease.Kind())
	assert.Equal(t, KindRwt, SectionRwt.Kind())
	assert.Equal(t, KindUnknown, Section("archive").Kind())

	sec, err := ParseSection("DEVQA")
	require.NoError(t, err)
	assert.Equal(t, SectionDevQA, sec)

	_, err = ParseSection("archive")
	assert.True(t, errors.Is(err, ErrUnknownSection))

	data := Empty()
	_, err = data.Common(SectionRelease)
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestDateFields(t *testing.T) {
	assert.Equal(t, "QA Start Date", FieldQAStartDate.Label())
	assert.Equal(t, "Committed Date", FieldCommittedDate.Label())

	assert.True(t, FieldDevDueDate.Supports(KindCommon))
	assert.False(t, FieldDevDueDate.Supports(KindRelease))
	assert.True(t, FieldCommittedDate.Supports(KindRelease))
	assert.True(t, FieldEndDate.Supports(KindRwt))
	assert.False(t, FieldCommittedDate.Supports(KindRwt))

	f, err := ParseDateField("qaenddate")
	require.NoError(t, err)
	assert.Equal(t, FieldQAEndDate, f)

	d := time.Now()
	var task CommonTask
	require.NoError(t, task.SetDate(FieldQAEndDate, &d))
	got, err := task.Date(FieldQAEndDate)
	require.NoError(t, err)
	assert.Same(t, &d, got)

	var rwt RwtTask
	assert.ErrorIs(t, rwt.SetDate(FieldCommittedDate, &d), ErrUnsupportedField)
}
