package standup

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CommonStatus is the lifecycle state of a planning, dev/QA or production task.
type CommonStatus string

const (
	StatusNotStarted         CommonStatus = "Not Started"
	StatusInSolutioning      CommonStatus = "In Solutioning"
	StatusSolutioned         CommonStatus = "Solutioned"
	StatusDevInProgress      CommonStatus = "Dev in Progress"
	StatusDevComplete        CommonStatus = "Dev Complete"
	StatusHandedOverToQA     CommonStatus = "Handed Over To QA"
	StatusQAInProgress       CommonStatus = "QA In Progress"
	StatusQAComplete         CommonStatus = "QA Complete"
	StatusReadyForRelease    CommonStatus = "Ready For Release"
	StatusReleasedToProd     CommonStatus = "Released To Prod"
	StatusOnHold             CommonStatus = "On Hold"
	StatusWaitingForApproval CommonStatus = "Waiting for Approval from Product"
	StatusDeprioritised      CommonStatus = "Deprioritised"
	StatusScrapped           CommonStatus = "Scrapped"
	StatusRemoved            CommonStatus = "Removed"
	StatusComplete           CommonStatus = "Complete"
)

// CommonStatusOptions lists every CommonStatus in display order.
var CommonStatusOptions = []CommonStatus{
	StatusNotStarted,
	StatusInSolutioning,
	StatusSolutioned,
	StatusDevInProgress,
	StatusDevComplete,
	StatusHandedOverToQA,
	StatusQAInProgress,
	StatusQAComplete,
	StatusReadyForRelease,
	StatusReleasedToProd,
	StatusOnHold,
	StatusWaitingForApproval,
	StatusDeprioritised,
	StatusScrapped,
	StatusRemoved,
	StatusComplete,
}

// Validate checks if the CommonStatus is a valid enum value.
func (s CommonStatus) Validate() error {
	if slices.Contains(CommonStatusOptions, s) {
		return nil
	}
	return fmt.Errorf("unknown status: %q", s)
}

// ReleaseStatus is one stage of a release item. A release task carries a set of them.
type ReleaseStatus string

const (
	ReleaseSREPending       ReleaseStatus = "SRE Pending"
	ReleaseSREDone          ReleaseStatus = "SRE Done"
	ReleaseCABReviewPending ReleaseStatus = "CAB Review Pending"
	ReleaseCABReviewDone    ReleaseStatus = "CAB Review Done"
	ReleaseReadyForRelease  ReleaseStatus = "Ready For Release"
	ReleaseReleased         ReleaseStatus = "Released"
)

// ReleaseStatusOptions lists every ReleaseStatus in display order.
var ReleaseStatusOptions = []ReleaseStatus{
	ReleaseSREPending,
	ReleaseSREDone,
	ReleaseCABReviewPending,
	ReleaseCABReviewDone,
	ReleaseReadyForRelease,
	ReleaseReleased,
}

// Validate checks if the ReleaseStatus is a valid enum value.
func (s ReleaseStatus) Validate() error {
	if slices.Contains(ReleaseStatusOptions, s) {
		return nil
	}
	return fmt.Errorf("unknown release status: %q", s)
}

// RwtStatus is the binary state of a rework-testing item.
type RwtStatus string

const (
	RwtPending   RwtStatus = "RWT Pending"
	RwtCompleted RwtStatus = "RWT Completed"
)

// Validate checks if the RwtStatus is a valid enum value.
func (s RwtStatus) Validate() error {
	switch s {
	case RwtPending, RwtCompleted:
		return nil
	default:
		return fmt.Errorf("unknown rwt status: %q", s)
	}
}

// CommonTask is a row of the planning, devQa or prod tables.
type CommonTask struct {
	ID            string       `json:"id"`
	ExternalID    string       `json:"adoId"` // Azure DevOps work item id, digits only
	TaskName      string       `json:"taskName"`
	Status        CommonStatus `json:"status"`
	Collaborators []string     `json:"collaborators"`
	DevStartDate  *time.Time   `json:"DevStartDate"`
	DevDueDate    *time.Time   `json:"DevDueDate"`
	QAStartDate   *time.Time   `json:"QAStartDate"`
	QAEndDate     *time.Time   `json:"QAEndDate"`
	Remarks       string       `json:"remarks"`
	CommittedDate *time.Time   `json:"committedDate"`
}

// ReleaseTask is a row of the release table.
type ReleaseTask struct {
	ID            string          `json:"id"`
	ExternalID    string          `json:"adoId"`
	Item          string          `json:"item"`
	Status        []ReleaseStatus `json:"status"`
	CRLink        string          `json:"crLink"`
	JMDBID        string          `json:"jmdbId"` // external reference id
	Services      []string        `json:"services"`
	Remarks       string          `json:"remarks"`
	CommittedDate *time.Time      `json:"committedDate"`
}

// RwtTask is a row of the rework-testing table.
type RwtTask struct {
	ID            string     `json:"id"`
	Feature       string     `json:"feature"`
	Status        RwtStatus  `json:"status"`
	Collaborators []string   `json:"collaborators"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	Remarks       string     `json:"remarks"`
}

func (t CommonTask) GetID() string  { return t.ID }
func (t ReleaseTask) GetID() string { return t.ID }
func (t RwtTask) GetID() string     { return t.ID }

// HasStatus reports whether s is one of the release task's statuses.
func (t ReleaseTask) HasStatus(s ReleaseStatus) bool {
	return slices.Contains(t.Status, s)
}

// StandupData is the aggregate root: the whole persisted document.
type StandupData struct {
	Planning     []CommonTask  `json:"planning"`
	DevQA        []CommonTask  `json:"devQa"`
	Prod         []CommonTask  `json:"prod"`
	Release      []ReleaseTask `json:"release"`
	Rwt          []RwtTask     `json:"rwt"`
	MeetingNotes string        `json:"meetingNotes"`
}

// Empty returns an aggregate with no tasks. Slices are non-nil so the document
// serialises with [] rather than null.
func Empty() StandupData {
	return StandupData{
		Planning: []CommonTask{},
		DevQA:    []CommonTask{},
		Prod:     []CommonTask{},
		Release:  []ReleaseTask{},
		Rwt:      []RwtTask{},
	}
}

// Clone returns a deep copy, so callers may hold it across mutations.
func (d StandupData) Clone() StandupData {
	out := StandupData{
		Planning:     cloneCommon(d.Planning),
		DevQA:        cloneCommon(d.DevQA),
		Prod:         cloneCommon(d.Prod),
		Release:      make([]ReleaseTask, len(d.Release)),
		Rwt:          make([]RwtTask, len(d.Rwt)),
		MeetingNotes: d.MeetingNotes,
	}
	for i, t := range d.Release {
		t.Status = slices.Clone(t.Status)
		t.Services = slices.Clone(t.Services)
		t.CommittedDate = cloneTime(t.CommittedDate)
		out.Release[i] = t
	}
	for i, t := range d.Rwt {
		t.Collaborators = slices.Clone(t.Collaborators)
		t.StartDate = cloneTime(t.StartDate)
		t.EndDate = cloneTime(t.EndDate)
		out.Rwt[i] = t
	}
	return out
}

// Common returns the common-task collection for a common section.
func (d StandupData) Common(s Section) ([]CommonTask, error) {
	switch s {
	case SectionPlanning:
		return d.Planning, nil
	case SectionDevQA:
		return d.DevQA, nil
	case SectionProd:
		return d.Prod, nil
	default:
		return nil, fmt.Errorf("%w: %q does not hold common tasks", ErrUnknownSection, s)
	}
}

// WithCommon returns a copy of d with the given common section replaced.
func (d StandupData) WithCommon(s Section, tasks []CommonTask) (StandupData, error) {
	switch s {
	case SectionPlanning:
		d.Planning = tasks
	case SectionDevQA:
		d.DevQA = tasks
	case SectionProd:
		d.Prod = tasks
	default:
		return d, fmt.Errorf("%w: %q does not hold common tasks", ErrUnknownSection, s)
	}
	return d, nil
}

// IDs returns the ids of a section in order.
func (d StandupData) IDs(s Section) []string {
	var ids []string
	switch s.Kind() {
	case KindCommon:
		tasks, _ := d.Common(s)
		for _, t := range tasks {
			ids = append(ids, t.ID)
		}
	case KindRelease:
		for _, t := range d.Release {
			ids = append(ids, t.ID)
		}
	case KindRwt:
		for _, t := range d.Rwt {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func cloneCommon(in []CommonTask) []CommonTask {
	out := make([]CommonTask, len(in))
	for i, t := range in {
		t.Collaborators = slices.Clone(t.Collaborators)
		t.DevStartDate = cloneTime(t.DevStartDate)
		t.DevDueDate = cloneTime(t.DevDueDate)
		t.QAStartDate = cloneTime(t.QAStartDate)
		t.QAEndDate = cloneTime(t.QAEndDate)
		t.CommittedDate = cloneTime(t.CommittedDate)
		out[i] = t
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// NewCommonTask returns a default common task with a fresh id.
func NewCommonTask() CommonTask {
	return CommonTask{
		ID:            uuid.New().String(),
		Status:        StatusNotStarted,
		Collaborators: []string{},
	}
}

// NewReleaseTask returns a default release task with a fresh id.
func NewReleaseTask() ReleaseTask {
	return ReleaseTask{
		ID:       uuid.New().String(),
		Status:   []ReleaseStatus{},
		Services: []string{},
	}
}

// NewRwtTask returns a default rework-testing task with a fresh id.
func NewRwtTask() RwtTask {
	return RwtTask{
		ID:            uuid.New().String(),
		Status:        RwtPending,
		Collaborators: []string{},
	}
}

// MaxExternalIDLength bounds Azure DevOps work item ids.
const MaxExternalIDLength = 9

// NormalizeExternalID strips everything but digits and truncates to
// MaxExternalIDLength characters.
func NormalizeExternalID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == MaxExternalIDLength {
				break
			}
		}
	}
	return b.String()
}
