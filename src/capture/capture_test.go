package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeimport/src/model"
)

type memoryStore struct {
	created []*model.Exception
	err     error
}

func (m *memoryStore) Create(_ context.Context, exc *model.Exception) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, exc)
	return nil
}

func TestCapture(t *testing.T) {
	store := &memoryStore{}

	Capture(context.Background(), store, "cmd", "import", LevelError, errors.New("boom"), map[string]interface{}{"file": "trades.csv"})

	require.Len(t, store.created, 1)
	exc := store.created[0]
	assert.Equal(t, Service, exc.Service)
	assert.Equal(t, "cmd", exc.Module)
	assert.Equal(t, "import", exc.Method)
	assert.Equal(t, "boom", exc.Message)
	assert.Equal(t, `{"file":"trades.csv"}`, exc.Context)
	assert.NotEmpty(t, exc.Stack)
	assert.Nil(t, exc.BatchID)
}

func TestCaptureIgnoresNilError(t *testing.T) {
	store := &memoryStore{}
	Capture(context.Background(), store, "cmd", "import", LevelError, nil, nil)
	assert.Empty(t, store.created)
}

func TestCaptureWithoutStore(t *testing.T) {
	assert.NotPanics(t, func() {
		Capture(context.Background(), nil, "cmd", "import", LevelWarn, errors.New("boom"), nil)
	})
}

func TestCaptureRowFaults(t *testing.T) {
	store := &memoryStore{}
	batchID := uuid.New()
	faults := []model.RowFault{
		{RowIndex: 3, Line: 5, Message: "row fault: corrupt row", Stack: "goroutine 1"},
		{RowIndex: 9, Line: 12, Message: "parse error on line 12"},
	}

	stored := CaptureRowFaults(context.Background(), store, batchID, faults)

	assert.Equal(t, 2, stored)
	require.Len(t, store.created, 2)
	first := store.created[0]
	require.NotNil(t, first.BatchID)
	assert.Equal(t, batchID, *first.BatchID)
	require.NotNil(t, first.RowIndex)
	assert.Equal(t, 3, *first.RowIndex)
	assert.Equal(t, "goroutine 1", first.Stack)
	assert.Equal(t, `{"line":5}`, first.Context)
	assert.Equal(t, 9, *store.created[1].RowIndex)
}

func TestCaptureRowFaultsStoreError(t *testing.T) {
	store := &memoryStore{err: errors.New("db down")}
	stored := CaptureRowFaults(context.Background(), store, uuid.New(), []model.RowFault{{RowIndex: 1}})
	assert.Equal(t, 0, stored)
}
