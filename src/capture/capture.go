package capture

import (
	"context"
	"encoding/json"
	"errors"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"tradeimport/src/model"
)

const (
	Service = "tradeimport"

	LevelWarn  = "warn"
	LevelError = "error"
)

// ExceptionStore persists captured exceptions.
type ExceptionStore interface {
	Create(ctx context.Context, exc *model.Exception) error
}

// Capture records a system exception, logs it locally, and optionally
// persists it in the database.
func Capture(
	ctx context.Context,
	store ExceptionStore,
	module string,
	method string,
	level string,
	err error,
	contextData map[string]interface{},
) {
	if err == nil {
		return
	}

	exc := &model.Exception{
		Service:   Service,
		Module:    module,
		Method:    method,
		Message:   err.Error(),
		Stack:     string(debug.Stack()),
		Level:     level,
		Context:   marshalContext(contextData),
		CreatedAt: time.Now(),
	}

	logger.WithFields(map[string]interface{}{
		"service": Service,
		"module":  module,
		"method":  method,
		"level":   level,
	}).WithError(err).Error("System exception captured")

	persist(ctx, store, exc)
}

// CaptureRowFaults records one exception per faulted row of a batch and
// returns how many were stored. The stack recorded is the one taken where
// the row faulted, not the caller's.
func CaptureRowFaults(ctx context.Context, store ExceptionStore, batchID uuid.UUID, faults []model.RowFault) int {
	stored := 0
	for _, f := range faults {
		batch := batchID
		row := f.RowIndex

		exc := &model.Exception{
			Service:  Service,
			Module:   "pipeline",
			Method:   "normalizeRow",
			BatchID:  &batch,
			RowIndex: &row,
			Message:  f.Message,
			Stack:    f.Stack,
			Level:    LevelError,
			Context: marshalContext(map[string]interface{}{
				"line": f.Line,
			}),
			CreatedAt: time.Now(),
		}

		logger.WithFields(map[string]interface{}{
			"service":  Service,
			"batch_id": batchID.String(),
			"row":      f.RowIndex,
			"line":     f.Line,
		}).WithError(errors.New(f.Message)).Error("Row fault captured")

		if persist(ctx, store, exc) {
			stored++
		}
	}
	return stored
}

func persist(ctx context.Context, store ExceptionStore, exc *model.Exception) bool {
	if store == nil {
		return false
	}
	if err := store.Create(ctx, exc); err != nil {
		logger.WithError(err).Error("Failed to persist exception")
		return false
	}
	return true
}

func marshalContext(contextData map[string]interface{}) string {
	if contextData == nil {
		return ""
	}
	b, err := json.Marshal(contextData)
	if err != nil {
		return ""
	}
	return string(b)
}
