package migrations

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradeimport/src/model"
)

// DataMigration tracks executed data migrations.
// Table name is fixed to avoid collisions with other models.
type DataMigration struct {
	ID        string    `gorm:"primaryKey;size:200;column:id"`
	AppliedAt time.Time `gorm:"not null;column:applied_at"`
}

func (DataMigration) TableName() string { return "data_migrations" }

// RunOnce runs fn only if migrationID was not executed before.
// It records the migration as executed only after fn succeeds, in the same
// transaction as the work itself.
func RunOnce(db *gorm.DB, migrationID string, fn func(*gorm.DB) error) error {
	if db == nil {
		return nil
	}
	if migrationID == "" {
		return fmt.Errorf("migration id is empty")
	}
	if fn == nil {
		return fmt.Errorf("migration %q has nil fn", migrationID)
	}

	if err := db.AutoMigrate(&DataMigration{}); err != nil {
		return fmt.Errorf("ensure data_migrations table: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var m DataMigration
		err := tx.First(&m, "id = ?", migrationID).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check migration %q: %w", migrationID, err)
		}

		if err := fn(tx); err != nil {
			return fmt.Errorf("run migration %q: %w", migrationID, err)
		}

		rec := DataMigration{ID: migrationID, AppliedAt: time.Now().UTC()}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("record migration %q: %w", migrationID, err)
		}

		logrus.WithField("migration", migrationID).Info("[database] data migration applied")
		return nil
	})
}

// Run executes all data migrations that go beyond schema auto-migrations.
// Append new migrations at the bottom with a stable unique id.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	if err := RunOnce(db, "00001_backfill_trade_gross_pnl", backfillTradeGrossPnL); err != nil {
		return err
	}

	if err := RunOnce(db, "00002_backfill_batch_canonical_totals", backfillBatchCanonicalTotals); err != nil {
		return err
	}

	return nil
}

// backfillTradeGrossPnL fills gross_pnl for trades stored before the column
// existed. Gross is net plus the (always positive) commission.
func backfillTradeGrossPnL(db *gorm.DB) error {
	return db.Model(&model.CanonicalTrade{}).
		Where("gross_pnl IS NULL").
		Update("gross_pnl", gorm.Expr("net_pnl + commission")).Error
}

// backfillBatchCanonicalTotals recomputes the canonical totals of batches
// imported before they were stored, from the trades of each batch.
func backfillBatchCanonicalTotals(db *gorm.DB) error {
	var ids []uuid.UUID
	if err := db.Model(&model.ImportBatch{}).
		Where("canonical_net_pnl IS NULL").
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("list batches: %w", err)
	}

	for _, id := range ids {
		var totals struct {
			Net        decimal.Decimal
			Commission decimal.Decimal
		}
		if err := db.Model(&model.CanonicalTrade{}).
			Select("COALESCE(SUM(net_pnl), 0) AS net, COALESCE(SUM(commission), 0) AS commission").
			Where("batch_id = ?", id).
			Scan(&totals).Error; err != nil {
			return fmt.Errorf("sum trades of batch %s: %w", id, err)
		}

		if err := db.Model(&model.ImportBatch{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"canonical_net_pnl":    totals.Net,
				"canonical_commission": totals.Commission,
			}).Error; err != nil {
			return fmt.Errorf("update batch %s: %w", id, err)
		}
	}
	return nil
}
