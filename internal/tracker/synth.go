package tracker

import (
	"fmt"
	"slices"
	"time"

	"github.com/dyluth/standup/pkg/standup"
)

// CommonPatch is a partial update of a common task.
// nil pointer => "no change". A Dates entry with a nil value clears the field.
type CommonPatch struct {
	ExternalID    *string                          `json:"adoId,omitempty"`
	TaskName      *string                          `json:"taskName,omitempty"`
	Status        *standup.CommonStatus            `json:"status,omitempty"`
	Collaborators *[]string                        `json:"collaborators,omitempty"`
	Remarks       *string                          `json:"remarks,omitempty"`
	Dates         map[standup.DateField]*time.Time `json:"dates,omitempty"`
}

// ReleasePatch is a partial update of a release task. Only committedDate may
// appear in Dates.
type ReleasePatch struct {
	ExternalID *string                          `json:"adoId,omitempty"`
	Item       *string                          `json:"item,omitempty"`
	Status     *[]standup.ReleaseStatus         `json:"status,omitempty"`
	CRLink     *string                          `json:"crLink,omitempty"`
	JMDBID     *string                          `json:"jmdbId,omitempty"`
	Services   *[]string                        `json:"services,omitempty"`
	Remarks    *string                          `json:"remarks,omitempty"`
	Dates      map[standup.DateField]*time.Time `json:"dates,omitempty"`
}

// RwtPatch is a partial update of a rework-testing task. Its dates are set
// directly and never audited.
type RwtPatch struct {
	Feature       *string                          `json:"feature,omitempty"`
	Status        *standup.RwtStatus               `json:"status,omitempty"`
	Collaborators *[]string                        `json:"collaborators,omitempty"`
	Remarks       *string                          `json:"remarks,omitempty"`
	Dates         map[standup.DateField]*time.Time `json:"dates,omitempty"`
}

// CommonResult is the outcome of synthesising a common task update.
type CommonResult struct {
	Task       standup.CommonTask
	Pending    *PendingDateChange
	Changelogs []Changelog
}

// ReleaseResult is the outcome of synthesising a release task update.
type ReleaseResult struct {
	Task       standup.ReleaseTask
	Pending    *PendingDateChange
	Changelogs []Changelog
}

// ApplyCommonPatch merges p over task and applies the date audit rule to every
// date it carries, in CommonDateFields order. Value to value edits are staged,
// not applied; when several are staged in one patch the last one wins. A
// changelog with the incremental remark is produced when the remarks grew and
// the task has an external id.
func ApplyCommonPatch(task standup.CommonTask, p CommonPatch, now time.Time) (CommonResult, error) {
	if err := checkDates(p.Dates, standup.KindCommon); err != nil {
		return CommonResult{Task: task}, err
	}
	if p.Status != nil {
		if err := p.Status.Validate(); err != nil {
			return CommonResult{Task: task}, err
		}
	}

	updated := task
	updated.Collaborators = slices.Clone(task.Collaborators)
	if p.ExternalID != nil {
		updated.ExternalID = standup.NormalizeExternalID(*p.ExternalID)
	}
	if p.TaskName != nil {
		updated.TaskName = *p.TaskName
	}
	if p.Status != nil {
		updated.Status = *p.Status
	}
	if p.Collaborators != nil {
		updated.Collaborators = slices.Clone(*p.Collaborators)
	}
	remarksTouched := p.Remarks != nil
	if remarksTouched {
		updated.Remarks = *p.Remarks
	}

	var pending *PendingDateChange
	for _, field := range standup.CommonDateFields {
		proposed, ok := p.Dates[field]
		if !ok {
			continue
		}
		old, _ := task.Date(field)
		switch ClassifyDateEdit(old, proposed) {
		case DateEditClear:
			_ = updated.SetDate(field, nil)
		case DateEditAdd:
			v := *proposed
			_ = updated.SetDate(field, &v)
			updated.Remarks = PrependRemark(updated.Remarks, DateAddedLine(field, v, now))
			remarksTouched = true
		case DateEditChange:
			pending = &PendingDateChange{Field: field, Value: *proposed}
		}
	}

	res := CommonResult{Task: updated, Pending: pending}
	if remarksTouched {
		res.Changelogs = commonChangelog(task.Remarks, updated)
	}
	return res, nil
}

// ConfirmCommonDateChange applies a confirmed change and logs it with reason.
func ConfirmCommonDateChange(task standup.CommonTask, change PendingDateChange, reason string, now time.Time) (CommonResult, error) {
	old, err := task.Date(change.Field)
	if err != nil {
		return CommonResult{Task: task}, err
	}
	updated := task
	v := change.Value
	_ = updated.SetDate(change.Field, &v)
	updated.Remarks = PrependRemark(task.Remarks, DateChangedLine(change.Field, old, v, reason, now))
	return CommonResult{Task: updated, Changelogs: commonChangelog(task.Remarks, updated)}, nil
}

func commonChangelog(prevRemarks string, updated standup.CommonTask) []Changelog {
	if updated.ExternalID == "" {
		return nil
	}
	inc := ExtractIncrementalRemark(prevRemarks, updated.Remarks)
	if inc == "" {
		return nil
	}
	return []Changelog{{ItemID: updated.ExternalID, Text: inc}}
}

// ApplyReleasePatch merges p over task, audits the committed date and derives
// at most one changelog line from the CR link, JMDB id or services.
func ApplyReleasePatch(task standup.ReleaseTask, p ReleasePatch, now time.Time) (ReleaseResult, error) {
	if err := checkDates(p.Dates, standup.KindRelease); err != nil {
		return ReleaseResult{Task: task}, err
	}
	if p.Status != nil {
		for _, s := range *p.Status {
			if err := s.Validate(); err != nil {
				return ReleaseResult{Task: task}, err
			}
		}
	}

	updated := task
	updated.Status = slices.Clone(task.Status)
	updated.Services = slices.Clone(task.Services)
	if p.ExternalID != nil {
		updated.ExternalID = standup.NormalizeExternalID(*p.ExternalID)
	}
	if p.Item != nil {
		updated.Item = *p.Item
	}
	if p.Status != nil {
		updated.Status = slices.Clone(*p.Status)
	}
	if p.CRLink != nil {
		updated.CRLink = *p.CRLink
	}
	if p.JMDBID != nil {
		updated.JMDBID = *p.JMDBID
	}
	if p.Services != nil {
		updated.Services = slices.Clone(*p.Services)
	}
	if p.Remarks != nil {
		updated.Remarks = *p.Remarks
	}

	var pending *PendingDateChange
	if proposed, ok := p.Dates[standup.FieldCommittedDate]; ok {
		switch ClassifyDateEdit(task.CommittedDate, proposed) {
		case DateEditClear:
			updated.CommittedDate = nil
		case DateEditAdd:
			v := *proposed
			updated.CommittedDate = &v
			updated.Remarks = PrependRemark(updated.Remarks, DateAddedLine(standup.FieldCommittedDate, v, now))
		case DateEditChange:
			pending = &PendingDateChange{Field: standup.FieldCommittedDate, Value: *proposed}
		}
	}

	res := ReleaseResult{Task: updated, Pending: pending}
	if updated.ExternalID != "" {
		if line := releaseChangelog(task, p, now); line != "" {
			res.Changelogs = []Changelog{{ItemID: updated.ExternalID, Text: line}}
		}
	}
	return res, nil
}

// ConfirmReleaseDateChange applies a confirmed committed date change.
func ConfirmReleaseDateChange(task standup.ReleaseTask, change PendingDateChange, reason string, now time.Time) (ReleaseResult, error) {
	old, err := task.Date(change.Field)
	if err != nil {
		return ReleaseResult{Task: task}, err
	}
	updated := task
	v := change.Value
	updated.CommittedDate = &v
	updated.Remarks = PrependRemark(task.Remarks, DateChangedLine(change.Field, old, v, reason, now))
	return ReleaseResult{Task: updated}, nil
}

// ApplyRwtPatch merges p over task. Dates are applied as given.
func ApplyRwtPatch(task standup.RwtTask, p RwtPatch) (standup.RwtTask, error) {
	if err := checkDates(p.Dates, standup.KindRwt); err != nil {
		return task, err
	}
	if p.Status != nil {
		if err := p.Status.Validate(); err != nil {
			return task, err
		}
	}

	updated := task
	updated.Collaborators = slices.Clone(task.Collaborators)
	if p.Feature != nil {
		updated.Feature = *p.Feature
	}
	if p.Status != nil {
		updated.Status = *p.Status
	}
	if p.Collaborators != nil {
		updated.Collaborators = slices.Clone(*p.Collaborators)
	}
	if p.Remarks != nil {
		updated.Remarks = *p.Remarks
	}
	for field, v := range p.Dates {
		if v != nil {
			d := *v
			v = &d
		}
		_ = updated.SetDate(field, v)
	}
	return updated, nil
}

func checkDates(dates map[standup.DateField]*time.Time, kind standup.Kind) error {
	for field := range dates {
		if !field.Supports(kind) {
			return fmt.Errorf("%w: %s", standup.ErrUnsupportedField, field)
		}
	}
	return nil
}
