package tracker

import (
	"strings"
	"testing"
	"time"

	"github.com/dyluth/standup/pkg/standup"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 10, 18, 15, 4, 0, 0, time.UTC)

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "October 18th, 2026 3:04 PM", FormatTimestamp(testNow))
	assert.Equal(t, "March 1st, 2026", FormatDate(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "March 22nd, 2026", FormatDate(time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "March 11th, 2026", FormatDate(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)))
}

func TestPrependRemark(t *testing.T) {
	assert.Equal(t, "new", PrependRemark("", "new"))
	assert.Equal(t, "new\nold", PrependRemark("old", "new"))
}

func TestDateLines(t *testing.T) {
	due := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
	later := due.AddDate(0, 0, 2)

	t.Run("added", func(t *testing.T) {
		line := DateAddedLine(standup.FieldDevDueDate, due, testNow)
		assert.Equal(t, "[October 18th, 2026 3:04 PM] : Dev Due Date added as October 25th, 2026", line)
	})

	t.Run("changed", func(t *testing.T) {
		line := DateChangedLine(standup.FieldQAStartDate, &due, later, "blocked", testNow)
		assert.Equal(t, "[October 18th, 2026 3:04 PM] : QA Start Date changed from October 25th, 2026 to October 27th, 2026 due to Reason : blocked", line)
	})

	t.Run("committed date uses its own template", func(t *testing.T) {
		line := DateChangedLine(standup.FieldCommittedDate, &due, later, "scope", testNow)
		assert.True(t, strings.Contains(line, "Committed date changed from"))
		assert.True(t, strings.HasSuffix(line, "with Reason : scope"))
	})

	t.Run("missing old value", func(t *testing.T) {
		line := DateChangedLine(standup.FieldDevStartDate, nil, later, "r", testNow)
		assert.Contains(t, line, "changed from N/A to")
	})
}
