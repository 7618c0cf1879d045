package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradeimport/src/model"
)

// ReadOnlyDB is an optional replica used by reporting queries (trade search,
// batch lookup). The database user should have SELECT-only permissions.
var ReadOnlyDB *gorm.DB

// InitReadOnlyDB connects to DATABASE_URL_READONLY when it is set. It runs no
// migrations; it only checks that the imported trades are reachable.
func InitReadOnlyDB() error {
	config := GetConfig()
	if config.DatabaseURLReadOnly == "" {
		logrus.Debug("[ReadOnlyDB] DATABASE_URL_READONLY not set, reads use MainDB")
		return nil
	}

	db, err := Open(config.Driver, config.DatabaseURLReadOnly, config.GormLogLevel)
	if err != nil {
		return fmt.Errorf("failed to connect ReadOnlyDB: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from ReadOnlyDB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping ReadOnlyDB: %w", err)
	}

	var count int64
	if err := db.Model(&model.ImportBatch{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to access import_batches on ReadOnlyDB: %w", err)
	}

	logrus.WithFields(map[string]interface{}{"batches": count}).Info("[ReadOnlyDB] import_batches reachable")

	ReadOnlyDB = db
	return nil
}

// Reader returns the replica when one is configured, MainDB otherwise.
func Reader() *gorm.DB {
	if ReadOnlyDB != nil {
		return ReadOnlyDB
	}
	return MainDB
}
