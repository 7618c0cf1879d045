package model

import (
	"time"

	"github.com/google/uuid"
)

// Exception represents an unexpected fault that must be persisted
// for auditing and debugging, e.g. a row that panicked inside the normalizer.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Service string `gorm:"size:100;index" json:"service"` // e.g. "tradeimport"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "pipeline"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "normalizeRow"

	// Batch and row the fault belongs to, when known
	BatchID  *uuid.UUID `gorm:"type:uuid;index" json:"batch_id,omitempty"`
	RowIndex *int       `json:"row_index,omitempty"`

	Message string `gorm:"type:text" json:"message"`
	Stack   string `gorm:"type:text" json:"stack"`

	// debug | info | warn | error | fatal
	Level string `gorm:"size:20;index" json:"level"`

	// Extra context serialized as JSON
	Context string `gorm:"type:text" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
