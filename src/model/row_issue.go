package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	IssueLevelWarn  = "warn"
	IssueLevelSkip  = "skip"
	IssueLevelFault = "fault"
)

// RowIssue stores a skip reason or a warning raised for a single row of a batch.
type RowIssue struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	BatchID  uuid.UUID `gorm:"type:uuid;index;not null" json:"batch_id"`
	RowIndex int       `gorm:"index;not null" json:"row_index"`
	Level    string    `gorm:"size:10;not null" json:"level"` // warn | skip | fault
	Code     string    `gorm:"size:50" json:"code"`
	Field    string    `gorm:"size:100" json:"field"`
	Message  string    `gorm:"size:1024;not null" json:"message"`

	CreatedAt time.Time `json:"created_at"`
}

func (RowIssue) TableName() string {
	return "import_row_issues"
}

// IssuesFromOutcomes flattens skip reasons and warnings into persistable issues.
func IssuesFromOutcomes(batchID uuid.UUID, outcomes []RowOutcome, faults []RowFault) []RowIssue {
	faulted := make(map[int]bool, len(faults))
	for _, f := range faults {
		faulted[f.RowIndex] = true
	}

	var issues []RowIssue
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeSkipped:
			level := IssueLevelSkip
			if faulted[o.RowIndex] {
				level = IssueLevelFault
			}
			issues = append(issues, RowIssue{
				BatchID:  batchID,
				RowIndex: o.RowIndex,
				Level:    level,
				Message:  o.Reason,
			})
		case OutcomeWarned:
			for _, w := range o.Warnings {
				issues = append(issues, RowIssue{
					BatchID:  batchID,
					RowIndex: o.RowIndex,
					Level:    IssueLevelWarn,
					Code:     string(w.Code),
					Field:    w.Field,
					Message:  w.Message,
				})
			}
		}
	}
	return issues
}
