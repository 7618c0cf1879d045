package migrations

import (
	"fmt"

	"gorm.io/gorm"
)

// legacyTradeColumns maps column names used by earlier versions of the trades
// table to their current names.
var legacyTradeColumns = map[string]string{
	"pnl":        "net_pnl",
	"fees_total": "commission",
	"r_value":    "r_multiple",
}

// PrepareLegacyTradeColumns renames legacy trades columns so AutoMigrate finds
// the existing values instead of adding empty columns next to them. A column
// is only renamed when its new name does not exist yet.
func PrepareLegacyTradeColumns(db *gorm.DB) error {
	const table = "trades"

	m := db.Migrator()
	if !m.HasTable(table) {
		return nil
	}

	for legacy, current := range legacyTradeColumns {
		if !m.HasColumn(table, legacy) || m.HasColumn(table, current) {
			continue
		}
		if err := m.RenameColumn(table, legacy, current); err != nil {
			return fmt.Errorf("rename %s.%s to %s: %w", table, legacy, current, err)
		}
	}

	return nil
}
