// Package reconcile recomputes the totals of an import from the raw rows and
// from the canonical trades and reports how far apart they are. It only
// reads its inputs.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradeimport/src/model"
	"tradeimport/src/numeric"
)

// Tolerance is the largest discrepancy, in currency units, that still counts
// as reconciled.
var Tolerance = decimal.New(1, -2)

// Reconcile builds the diagnostic report of one import. rawRows are re-parsed
// independently of the normalizer; substitution counts come from the warning
// tokens carried by outcomes.
func Reconcile(rawRows []model.RawRow, trades []model.CanonicalTrade, outcomes []model.RowOutcome) model.DiagnosticReport {
	report := model.DiagnosticReport{
		RawNetPnL:           decimal.Zero,
		CanonicalNetPnL:     decimal.Zero,
		RawCommission:       decimal.Zero,
		CanonicalCommission: decimal.Zero,
		SkippedNetPnL:       decimal.Zero,
		TotalRows:           len(outcomes),
	}

	skipped := make(map[int]bool)
	for _, o := range outcomes {
		switch o.Kind {
		case model.OutcomeAccepted:
			report.Accepted++
		case model.OutcomeWarned:
			report.Warned++
		case model.OutcomeSkipped:
			report.Skipped++
			skipped[o.RowIndex] = true
		}
		report.InfiniteSubstitutions += o.CountWarnings(model.WarningInfiniteValue)
		report.InvalidNumberSubstitutions += o.CountWarnings(model.WarningInvalidNumber)
		report.TimestampSubstitutions += o.CountWarnings(model.WarningInvalidTimestamp)
	}

	skippedCommission := decimal.Zero
	for _, row := range rawRows {
		net := numeric.ParseNumeric(row.Get(model.ColumnNetPnL))
		// Cells are summed with their signs, so a fee rebate offsets the
		// commission; exports that book costs as negatives still give a cost.
		commission := numeric.ParseNumeric(row.Get(model.ColumnCommissions)).
			Add(numeric.ParseNumeric(row.Get(model.ColumnFees))).Abs()

		report.RawNetPnL = report.RawNetPnL.Add(net)
		report.RawCommission = report.RawCommission.Add(commission)
		if skipped[row.Index()] {
			report.SkippedNetPnL = report.SkippedNetPnL.Add(net)
			skippedCommission = skippedCommission.Add(commission)
		}
	}

	for _, t := range trades {
		report.CanonicalNetPnL = report.CanonicalNetPnL.Add(t.NetPnL)
		report.CanonicalCommission = report.CanonicalCommission.Add(t.Commission)
		if t.IsOption() {
			report.OptionTrades++
		} else {
			report.EquityTrades++
		}
	}

	// Skipped rows never become trades, so their share is taken out of the raw
	// side before comparing.
	report.NetPnLDiscrepancy = report.RawNetPnL.Sub(report.SkippedNetPnL).Sub(report.CanonicalNetPnL).Abs()
	report.CommissionDiscrepancy = report.RawCommission.Sub(skippedCommission).Sub(report.CanonicalCommission).Abs()
	report.WithinTolerance = report.NetPnLDiscrepancy.LessThanOrEqual(Tolerance) &&
		report.CommissionDiscrepancy.LessThanOrEqual(Tolerance)

	report.Findings = findings(report, len(trades))
	return report
}

func findings(r model.DiagnosticReport, trades int) []string {
	var out []string
	if !r.NetPnLDiscrepancy.LessThanOrEqual(Tolerance) {
		out = append(out, fmt.Sprintf("net P&L discrepancy %s exceeds tolerance %s", r.NetPnLDiscrepancy.StringFixed(numeric.Scale), Tolerance))
	}
	if !r.CommissionDiscrepancy.LessThanOrEqual(Tolerance) {
		out = append(out, fmt.Sprintf("commission discrepancy %s exceeds tolerance %s", r.CommissionDiscrepancy.StringFixed(numeric.Scale), Tolerance))
	}
	if !r.SkippedNetPnL.IsZero() {
		out = append(out, fmt.Sprintf("skipped rows carry net P&L of %s", r.SkippedNetPnL.StringFixed(2)))
	}
	if r.InfiniteSubstitutions > 0 {
		out = append(out, fmt.Sprintf("%d infinite values replaced with 0", r.InfiniteSubstitutions))
	}
	if r.InvalidNumberSubstitutions > 0 {
		out = append(out, fmt.Sprintf("%d unparseable numbers replaced with 0", r.InvalidNumberSubstitutions))
	}
	if r.TimestampSubstitutions > 0 {
		out = append(out, fmt.Sprintf("%d timestamps replaced with the sentinel date", r.TimestampSubstitutions))
	}
	if r.Accepted+r.Warned != trades {
		out = append(out, fmt.Sprintf("outcome counts (%d accepted, %d warned) do not match %d trades", r.Accepted, r.Warned, trades))
	}
	return out
}
