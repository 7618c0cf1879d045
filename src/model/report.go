package model

import "github.com/shopspring/decimal"

// ValidationReport is the result of the header check that runs before any row
// is parsed. Valid is false only when required columns are missing.
type ValidationReport struct {
	Valid          bool     `json:"valid"`
	MissingColumns []string `json:"missing_columns"`
	Warnings       []string `json:"warnings"`
	Columns        []string `json:"columns,omitempty"`
}

// DiagnosticReport compares the aggregates of the raw export with the
// aggregates of the canonical trades built from it.
type DiagnosticReport struct {
	RawNetPnL             decimal.Decimal `json:"raw_net_pnl"`
	CanonicalNetPnL       decimal.Decimal `json:"canonical_net_pnl"`
	NetPnLDiscrepancy     decimal.Decimal `json:"net_pnl_discrepancy"`
	RawCommission         decimal.Decimal `json:"raw_commission"`
	CanonicalCommission   decimal.Decimal `json:"canonical_commission"`
	CommissionDiscrepancy decimal.Decimal `json:"commission_discrepancy"`
	SkippedNetPnL         decimal.Decimal `json:"skipped_net_pnl"`
	WithinTolerance       bool            `json:"within_tolerance"`

	TotalRows    int `json:"total_rows"`
	Accepted     int `json:"accepted"`
	Skipped      int `json:"skipped"`
	Warned       int `json:"warned"`
	OptionTrades int `json:"option_trades"`
	EquityTrades int `json:"equity_trades"`

	InfiniteSubstitutions      int `json:"infinite_substitutions"`
	InvalidNumberSubstitutions int `json:"invalid_number_substitutions"`
	TimestampSubstitutions     int `json:"timestamp_substitutions"`

	Findings []string `json:"findings,omitempty"`
}
