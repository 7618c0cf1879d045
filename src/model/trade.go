package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InstrumentType string

const (
	InstrumentEquity InstrumentType = "equity"
	InstrumentOption InstrumentType = "option"
)

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// CanonicalTrade is the normalized form of one broker-export row.
// It is built once by the normalizer and never mutated afterwards.
type CanonicalTrade struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	BatchID  uuid.UUID `gorm:"type:uuid;index" json:"batch_id"`
	RowIndex int       `gorm:"not null" json:"row_index"`

	Symbol         string         `gorm:"size:64;index;not null" json:"symbol"`
	InstrumentType InstrumentType `gorm:"size:16;index;not null" json:"instrument_type"`
	Side           Side           `gorm:"size:8;not null" json:"side"`
	Quantity       int64          `gorm:"not null" json:"quantity"`

	EntryPrice decimal.Decimal `gorm:"column:entry_price;type:numeric(20,4)" json:"entry_price"`
	ExitPrice  decimal.Decimal `gorm:"column:exit_price;type:numeric(20,4)" json:"exit_price"`
	Commission decimal.Decimal `gorm:"column:commission;type:numeric(20,4)" json:"commission"` // commissions + fees, always positive
	NetPnL     decimal.Decimal `gorm:"column:net_pnl;type:numeric(20,4)" json:"net_pnl"`
	GrossPnL   decimal.Decimal `gorm:"column:gross_pnl;type:numeric(20,4)" json:"gross_pnl"` // NetPnL + Commission

	OpenedAt time.Time `gorm:"column:opened_at;index" json:"opened_at"`
	ClosedAt time.Time `gorm:"column:closed_at;index" json:"closed_at"`

	// Both stay invalid when the export carries no usable risk figure.
	RiskAmount decimal.NullDecimal `gorm:"column:risk_amount;type:numeric(20,4)" json:"risk_amount"`
	RMultiple  decimal.NullDecimal `gorm:"column:r_multiple;type:numeric(20,4)" json:"r_multiple"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name stable regardless of the struct name.
func (CanonicalTrade) TableName() string {
	return "trades"
}

// IsOption reports whether the trade was classified as a derivative contract.
func (t CanonicalTrade) IsOption() bool {
	return t.InstrumentType == InstrumentOption
}
