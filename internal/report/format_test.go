package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dyluth/standup/pkg/standup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{
		"":      OutputFormatDefault,
		"table": OutputFormatDefault,
		"JSONL": OutputFormatJSONL,
		"json":  OutputFormatJSONL,
	} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOutputFormat("xml")
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	t.Run("empty section", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := FormatTable(&buf, standup.Empty(), standup.SectionDevQA, testNow)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, "No tasks in Dev & QA\n", buf.String())
	})

	t.Run("common rows", func(t *testing.T) {
		data := standup.Empty()
		task := common("Checkout redesign", standup.StatusDevInProgress)
		task.ExternalID = "4711"
		task.CommittedDate = day(19)
		task.DevDueDate = day(19)
		task.Remarks = "[October 16th, 2026 9:00 AM] : waiting on API\nolder line"
		data.DevQA = append(data.DevQA, task)

		var buf bytes.Buffer
		n, err := FormatTable(&buf, data, standup.SectionDevQA, testNow)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		out := buf.String()
		assert.Contains(t, out, "Dev & QA:")
		assert.Contains(t, out, "! "+task.ID[:8])
		assert.Contains(t, out, "4711")
		assert.Contains(t, out, "2026-10-19*")
		assert.Contains(t, out, "waiting on API")
		assert.NotContains(t, out, "older line")
		assert.Contains(t, out, "\n1 task\n")
	})

	t.Run("release rows", func(t *testing.T) {
		data := standup.Empty()
		task := release("Payments v2", standup.ReleaseSREDone, standup.ReleaseCABReviewPending)
		task.Services = []string{"api", "worker"}
		data.Release = append(data.Release, task, release("Other"))

		var buf bytes.Buffer
		n, err := FormatTable(&buf, data, standup.SectionRelease, testNow)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Contains(t, buf.String(), "SRE Done, CAB Review Pending")
		assert.Contains(t, buf.String(), "api, worker")
		assert.Contains(t, buf.String(), "\n2 tasks\n")
	})

	t.Run("rwt rows", func(t *testing.T) {
		data := standup.Empty()
		task := rwt("Wallet", standup.RwtPending)
		task.StartDate = day(14)
		data.Rwt = append(data.Rwt, task)

		var buf bytes.Buffer
		_, err := FormatTable(&buf, data, standup.SectionRwt, testNow)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "RWT Pending")
		assert.Contains(t, buf.String(), "2026-10-14")
	})

	t.Run("unknown section", func(t *testing.T) {
		_, err := FormatTable(&bytes.Buffer{}, standup.Empty(), standup.Section("backlog"), testNow)
		assert.ErrorIs(t, err, standup.ErrUnknownSection)
	})
}

func TestWriteSection_JSONL(t *testing.T) {
	data := sampleBoard()

	var buf bytes.Buffer
	err := WriteSection(&buf, data, standup.SectionPlanning, ListOptions{Format: OutputFormatJSONL, Ongoing: true, Now: testNow})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var task standup.CommonTask
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &task))
	assert.Equal(t, "a", task.TaskName)
}

func TestFormatStats(t *testing.T) {
	var buf bytes.Buffer
	FormatStats(&buf, ComputeStats(sampleBoard()))
	assert.Contains(t, buf.String(), "In Planning        2\n")
	assert.Contains(t, buf.String(), "Release Progress   1 / 3\n")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "-", formatText("  \n  "))
}
