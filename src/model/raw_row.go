package model

import "sort"

// Canonical column names of the broker export. Header cells are mapped onto
// these names before any row is read.
const (
	ColumnOpenDatetime  = "Open Datetime"
	ColumnCloseDatetime = "Close Datetime"
	ColumnSymbol        = "Symbol"
	ColumnSide          = "Side"
	ColumnVolume        = "Volume"
	ColumnEntryPrice    = "Entry Price"
	ColumnExitPrice     = "Exit Price"
	ColumnNetPnL        = "Net P&L"
	ColumnCommissions   = "Commissions"
	ColumnFees          = "Fees"
	ColumnInitialRisk   = "Initial Risk"
)

// RequiredColumns must all be present in the header, in this reporting order.
var RequiredColumns = []string{
	ColumnOpenDatetime,
	ColumnCloseDatetime,
	ColumnSymbol,
	ColumnSide,
	ColumnVolume,
	ColumnEntryPrice,
	ColumnExitPrice,
	ColumnNetPnL,
}

// OptionalColumns are read when present and treated as zero/absent otherwise.
var OptionalColumns = []string{
	ColumnCommissions,
	ColumnFees,
	ColumnInitialRisk,
}

// RawRow is one data line of the export keyed by canonical column name.
// Fields are unexported so a row cannot change after the reader built it.
type RawRow struct {
	index  int
	line   int
	values map[string]string
}

// NewRawRow copies values so later changes to the caller's map are not observed.
func NewRawRow(index, line int, values map[string]string) RawRow {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return RawRow{index: index, line: line, values: copied}
}

// Index is the zero-based position of the row among the data rows.
func (r RawRow) Index() int { return r.index }

// Line is the 1-based line in the source text where the row starts.
func (r RawRow) Line() int { return r.line }

// Get returns the raw cell for column, or "" when the column is absent.
func (r RawRow) Get(column string) string {
	return r.values[column]
}

// Has reports whether the header carried column.
func (r RawRow) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

func (r RawRow) Columns() []string {
	cols := make([]string, 0, len(r.values))
	for k := range r.values {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
