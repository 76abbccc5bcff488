package tracker

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dyluth/standup/pkg/standup"
)

// Changelog is a line bound for the external work item identified by ItemID.
type Changelog struct {
	ItemID string `json:"itemId"`
	Text   string `json:"text"`
}

// changelogDate renders the DD/MM/YYYY prefix of release changelog lines.
func changelogDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// releaseChangelog derives at most one line from a release patch. CR link is
// checked first, then the JMDB id, then services; only the first field that the
// patch carries with a different value produces a line.
func releaseChangelog(old standup.ReleaseTask, p ReleasePatch, now time.Time) string {
	day := changelogDate(now)
	switch {
	case p.CRLink != nil && *p.CRLink != old.CRLink:
		return fmt.Sprintf("%s : Added CR Link : - %s", day, *p.CRLink)
	case p.JMDBID != nil && *p.JMDBID != old.JMDBID:
		return fmt.Sprintf("%s : Added JMDB ID : - %s", day, *p.JMDBID)
	case p.Services != nil && !slices.Equal(*p.Services, old.Services):
		return fmt.Sprintf("%s : Added Services : - %s", day, strings.Join(*p.Services, ", "))
	default:
		return ""
	}
}
