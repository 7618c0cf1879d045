package model

import "fmt"

type WarningCode string

const (
	WarningInfiniteValue    WarningCode = "infinite_value"
	WarningInvalidNumber    WarningCode = "invalid_number"
	WarningInvalidTimestamp WarningCode = "invalid_timestamp"
	WarningZeroRisk         WarningCode = "zero_risk"
	WarningUnknownSide      WarningCode = "unknown_side"
	WarningQuantityAdjusted WarningCode = "quantity_adjusted"
)

// Warning records one substitution made while normalizing a row.
type Warning struct {
	Code    WarningCode `json:"code"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
}

func NewWarning(code WarningCode, field, format string, args ...interface{}) Warning {
	return Warning{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	return fmt.Sprintf("%s [%s]: %s", w.Code, w.Field, w.Message)
}

type OutcomeKind string

const (
	OutcomeAccepted OutcomeKind = "accepted"
	OutcomeWarned   OutcomeKind = "warned"
	OutcomeSkipped  OutcomeKind = "skipped"
)

// RowOutcome is the result of normalizing a single row. Trade is set for
// accepted and warned rows; Reason is set for skipped rows.
type RowOutcome struct {
	Kind     OutcomeKind     `json:"kind"`
	RowIndex int             `json:"row_index"`
	Trade    *CanonicalTrade `json:"trade,omitempty"`
	Warnings []Warning       `json:"warnings,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

func Accepted(trade CanonicalTrade) RowOutcome {
	return RowOutcome{Kind: OutcomeAccepted, RowIndex: trade.RowIndex, Trade: &trade}
}

func Warned(trade CanonicalTrade, warnings []Warning) RowOutcome {
	w := make([]Warning, len(warnings))
	copy(w, warnings)
	return RowOutcome{Kind: OutcomeWarned, RowIndex: trade.RowIndex, Trade: &trade, Warnings: w}
}

func Skipped(reason string, rowIndex int) RowOutcome {
	return RowOutcome{Kind: OutcomeSkipped, RowIndex: rowIndex, Reason: reason}
}

// HasTrade reports whether the outcome contributes a trade to the result set.
func (o RowOutcome) HasTrade() bool {
	return o.Trade != nil && o.Kind != OutcomeSkipped
}

// CountWarnings returns how many warnings with code the outcome carries.
func (o RowOutcome) CountWarnings(code WarningCode) int {
	n := 0
	for _, w := range o.Warnings {
		if w.Code == code {
			n++
		}
	}
	return n
}

// RowFault describes a row that could not be read or that faulted inside
// the normalizer. Each fault also appears as a skipped outcome.
type RowFault struct {
	RowIndex int    `json:"row_index"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
	Stack    string `json:"stack,omitempty"`
}
