package standup

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownSection is returned when a section name or kind does not match.
	ErrUnknownSection = errors.New("unknown section")

	// ErrUnsupportedField is returned when a date field does not exist on a record kind.
	ErrUnsupportedField = errors.New("unsupported date field")
)

// Section names one of the five ordered tables of the board.
type Section string

const (
	SectionPlanning Section = "planning"
	SectionDevQA    Section = "devQa"
	SectionProd     Section = "prod"
	SectionRelease  Section = "release"
	SectionRwt      Section = "rwt"
)

// Sections lists every section in board order.
var Sections = []Section{SectionPlanning, SectionDevQA, SectionProd, SectionRelease, SectionRwt}

// Kind identifies which record type a section holds.
type Kind int

const (
	KindUnknown Kind = iota
	KindCommon
	KindRelease
	KindRwt
)

// Kind reports the record kind held by the section.
func (s Section) Kind() Kind {
	switch s {
	case SectionPlanning, SectionDevQA, SectionProd:
		return KindCommon
	case SectionRelease:
		return KindRelease
	case SectionRwt:
		return KindRwt
	default:
		return KindUnknown
	}
}

// Title is the display heading of the section.
func (s Section) Title() string {
	switch s {
	case SectionPlanning:
		return "Planning"
	case SectionDevQA:
		return "Dev & QA"
	case SectionProd:
		return "Production"
	case SectionRelease:
		return "Release"
	case SectionRwt:
		return "RWT"
	default:
		return string(s)
	}
}

// ParseSection accepts the persisted section name, case-insensitively.
func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if strings.EqualFold(string(sec), s) {
			return sec, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of planning, devQa, prod, release, rwt)", ErrUnknownSection, s)
}

// DateField names a nullable date on a task record. Values match the persisted
// JSON field names.
type DateField string

const (
	FieldDevStartDate  DateField = "DevStartDate"
	FieldDevDueDate    DateField = "DevDueDate"
	FieldQAStartDate   DateField = "QAStartDate"
	FieldQAEndDate     DateField = "QAEndDate"
	FieldCommittedDate DateField = "committedDate"
	FieldStartDate     DateField = "startDate"
	FieldEndDate       DateField = "endDate"
)

// CommonDateFields are the audited dates of a common task, in evaluation order.
var CommonDateFields = []DateField{FieldDevStartDate, FieldDevDueDate, FieldQAStartDate, FieldQAEndDate, FieldCommittedDate}

// Label is the human-readable name used in remark lines.
func (f DateField) Label() string {
	switch f {
	case FieldDevStartDate:
		return "Dev Start Date"
	case FieldDevDueDate:
		return "Dev Due Date"
	case FieldQAStartDate:
		return "QA Start Date"
	case FieldQAEndDate:
		return "QA End Date"
	case FieldCommittedDate:
		return "Committed Date"
	case FieldStartDate:
		return "Start Date"
	case FieldEndDate:
		return "End Date"
	default:
		return string(f)
	}
}

// Supports reports whether records of kind k carry the field.
func (f DateField) Supports(k Kind) bool {
	switch k {
	case KindCommon:
		switch f {
		case FieldDevStartDate, FieldDevDueDate, FieldQAStartDate, FieldQAEndDate, FieldCommittedDate:
			return true
		}
	case KindRelease:
		return f == FieldCommittedDate
	case KindRwt:
		return f == FieldStartDate || f == FieldEndDate
	}
	return false
}

// ParseDateField accepts the persisted field name, case-insensitively.
func ParseDateField(s string) (DateField, error) {
	for _, f := range []DateField{FieldDevStartDate, FieldDevDueDate, FieldQAStartDate, FieldQAEndDate, FieldCommittedDate, FieldStartDate, FieldEndDate} {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedField, s)
}

// Date returns the value of a date field.
func (t CommonTask) Date(f DateField) (*time.Time, error) {
	switch f {
	case FieldDevStartDate:
		return t.DevStartDate, nil
	case FieldDevDueDate:
		return t.DevDueDate, nil
	case FieldQAStartDate:
		return t.QAStartDate, nil
	case FieldQAEndDate:
		return t.QAEndDate, nil
	case FieldCommittedDate:
		return t.CommittedDate, nil
	}
	return nil, fmt.Errorf("%w: %s on common task", ErrUnsupportedField, f)
}

// SetDate sets a date field, nil clears it.
func (t *CommonTask) SetDate(f DateField, v *time.Time) error {
	switch f {
	case FieldDevStartDate:
		t.DevStartDate = v
	case FieldDevDueDate:
		t.DevDueDate = v
	case FieldQAStartDate:
		t.QAStartDate = v
	case FieldQAEndDate:
		t.QAEndDate = v
	case FieldCommittedDate:
		t.CommittedDate = v
	default:
		return fmt.Errorf("%w: %s on common task", ErrUnsupportedField, f)
	}
	return nil
}

// Date returns the value of a date field.
func (t ReleaseTask) Date(f DateField) (*time.Time, error) {
	if f == FieldCommittedDate {
		return t.CommittedDate, nil
	}
	return nil, fmt.Errorf("%w: %s on release task", ErrUnsupportedField, f)
}

// SetDate sets a date field, nil clears it.
func (t *ReleaseTask) SetDate(f DateField, v *time.Time) error {
	if f == FieldCommittedDate {
		t.CommittedDate = v
		return nil
	}
	return fmt.Errorf("%w: %s on release task", ErrUnsupportedField, f)
}

// Date returns the value of a date field.
func (t RwtTask) Date(f DateField) (*time.Time, error) {
	switch f {
	case FieldStartDate:
		return t.StartDate, nil
	case FieldEndDate:
		return t.EndDate, nil
	}
	return nil, fmt.Errorf("%w: %s on rwt task", ErrUnsupportedField, f)
}

// SetDate sets a date field, nil clears it.
func (t *RwtTask) SetDate(f DateField, v *time.Time) error {
	switch f {
	case FieldStartDate:
		t.StartDate = v
	case FieldEndDate:
		t.EndDate = v
	default:
		return fmt.Errorf("%w: %s on rwt task", ErrUnsupportedField, f)
	}
	return nil
}
