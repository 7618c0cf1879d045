package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradeimport/src/database"
	"tradeimport/src/model"
)

const insertBatchSize = 500

// ImportRepository handles persistence of import batches with their trades
// and row issues.
type ImportRepository struct {
	db *gorm.DB
}

// TradeSearchOptions narrows SearchTrades. Nil fields are not filtered on.
type TradeSearchOptions struct {
	BatchID        *uuid.UUID
	Symbol         *string
	InstrumentType *model.InstrumentType
	ClosedAfter    *time.Time
	ClosedBefore   *time.Time
	Limit          int
	Offset         int
}

// NewImportRepository creates a new repository instance using the main read/write database.
func NewImportRepository() *ImportRepository {
	logger.WithField("component", "ImportRepository").
		Debug("Creating new ImportRepository with MainDB")

	return &ImportRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests, the read-only replica or a specific transaction.
func (r *ImportRepository) WithDB(db *gorm.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// SaveImport stores batch, its trades and its issues in one transaction.
// The trades and issues are copied and tagged with the batch ID; the caller's
// slices are left as they were.
func (r *ImportRepository) SaveImport(
	ctx context.Context,
	batch *model.ImportBatch,
	trades []model.CanonicalTrade,
	issues []model.RowIssue,
) error {

	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}

	fields := map[string]interface{}{
		"repo":     "ImportRepository",
		"op":       "SaveImport",
		"batch_id": batch.ID.String(),
		"trades":   len(trades),
		"issues":   len(issues),
	}
	logger.WithFields(fields).Debug("Saving import batch")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(batch).Error; err != nil {
			return err
		}

		if len(trades) > 0 {
			rows := make([]model.CanonicalTrade, len(trades))
			copy(rows, trades)
			for i := range rows {
				rows[i].ID = 0
				rows[i].BatchID = batch.ID
			}
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return err
			}
		}

		if len(issues) > 0 {
			rows := make([]model.RowIssue, len(issues))
			copy(rows, issues)
			for i := range rows {
				rows[i].ID = 0
				rows[i].BatchID = batch.ID
			}
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("Failed to save import batch")
		return err
	}

	logger.WithFields(fields).Info("Import batch saved")
	return nil
}

// FindBatch fetches a batch by ID with its row issues.
// Returns (nil, nil) if the batch is not found.
func (r *ImportRepository) FindBatch(
	ctx context.Context,
	id uuid.UUID,
) (*model.ImportBatch, error) {

	fields := map[string]interface{}{
		"repo":     "ImportRepository",
		"op":       "FindBatch",
		"batch_id": id.String(),
	}

	var batch model.ImportBatch
	err := r.db.WithContext(ctx).
		Preload("Issues", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_index ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&batch).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(fields).Info("Import batch not found")
			return nil, nil
		}

		logger.WithFields(fields).WithError(err).Error("Failed to fetch import batch")
		return nil, err
	}

	return &batch, nil
}

// ListBatches returns the latest batches, newest first.
func (r *ImportRepository) ListBatches(
	ctx context.Context,
	limit int,
) ([]model.ImportBatch, error) {

	if limit <= 0 {
		limit = 20
	}

	var batches []model.ImportBatch
	err := r.db.WithContext(ctx).
		Order("imported_at DESC").
		Limit(limit).
		Find(&batches).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "ImportRepository",
			"op":    "ListBatches",
			"limit": limit,
		}).WithError(err).Error("Failed to list import batches")

		return nil, err
	}

	return batches, nil
}

// SearchTrades returns persisted trades matching options, latest close first.
func (r *ImportRepository) SearchTrades(
	ctx context.Context,
	options TradeSearchOptions,
) ([]model.CanonicalTrade, error) {

	query := r.db.WithContext(ctx).Model(&model.CanonicalTrade{})

	if options.BatchID != nil {
		query = query.Where("batch_id = ?", *options.BatchID)
	}
	if options.Symbol != nil {
		query = query.Where("symbol = ?", *options.Symbol)
	}
	if options.InstrumentType != nil {
		query = query.Where("instrument_type = ?", *options.InstrumentType)
	}
	if options.ClosedAfter != nil {
		query = query.Where("closed_at >= ?", *options.ClosedAfter)
	}
	if options.ClosedBefore != nil {
		query = query.Where("closed_at <= ?", *options.ClosedBefore)
	}

	query = query.Order("closed_at DESC, id DESC")

	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var trades []model.CanonicalTrade
	if err := query.Find(&trades).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ImportRepository",
			"op":   "SearchTrades",
		}).WithError(err).Error("Failed to search trades")

		return nil, err
	}

	return trades, nil
}
