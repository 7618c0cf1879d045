package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportBatch is the persisted summary of one pipeline run over one export file.
type ImportBatch struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Source     string    `gorm:"size:255;index" json:"source"`
	ImportedAt time.Time `gorm:"not null;index" json:"imported_at"`

	Valid          bool   `gorm:"not null" json:"valid"`
	MissingColumns string `gorm:"size:512" json:"missing_columns,omitempty"` // comma separated

	TotalRows    int `json:"total_rows"`
	Accepted     int `json:"accepted"`
	Warned       int `json:"warned"`
	Skipped      int `json:"skipped"`
	OptionTrades int `json:"option_trades"`

	RawNetPnL             decimal.Decimal `gorm:"column:raw_net_pnl;type:numeric(20,4)" json:"raw_net_pnl"`
	CanonicalNetPnL       decimal.Decimal `gorm:"column:canonical_net_pnl;type:numeric(20,4)" json:"canonical_net_pnl"`
	RawCommission         decimal.Decimal `gorm:"column:raw_commission;type:numeric(20,4)" json:"raw_commission"`
	CanonicalCommission   decimal.Decimal `gorm:"column:canonical_commission;type:numeric(20,4)" json:"canonical_commission"`
	InfiniteSubstitutions int             `json:"infinite_substitutions"`
	WithinTolerance       bool            `gorm:"not null;default:false" json:"within_tolerance"`

	CreatedAt time.Time `json:"created_at"`

	Trades []CanonicalTrade `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"trades,omitempty"`
	Issues []RowIssue       `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"issues,omitempty"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}
