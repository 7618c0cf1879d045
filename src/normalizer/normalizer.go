// Package normalizer converts a single raw export row into a canonical trade.
// Normalize is total: bad cells become warnings, a row without a symbol is
// skipped, nothing is returned as an error.
package normalizer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradeimport/src/model"
	"tradeimport/src/numeric"
	"tradeimport/src/symbols"
	"tradeimport/src/utils"
)

const ReasonMissingSymbol = "missing symbol"

var sideAliases = map[string]model.Side{
	"long":       model.SideLong,
	"l":          model.SideLong,
	"buy":        model.SideLong,
	"b":          model.SideLong,
	"bto":        model.SideLong,
	"short":      model.SideShort,
	"s":          model.SideShort,
	"sell":       model.SideShort,
	"ss":         model.SideShort,
	"sto":        model.SideShort,
	"sell short": model.SideShort,
}

// Normalizer maps raw rows to canonical trades using a symbol classifier.
type Normalizer struct {
	classifier *symbols.Classifier
}

// New returns a normalizer classifying symbols with classifier, or with the
// default rule set when classifier is nil.
func New(classifier *symbols.Classifier) *Normalizer {
	if classifier == nil {
		classifier = symbols.Default()
	}
	return &Normalizer{classifier: classifier}
}

var defaultNormalizer = New(nil)

// NormalizeRow normalizes raw with the default classifier.
func NormalizeRow(raw model.RawRow, rowIndex int) model.RowOutcome {
	return defaultNormalizer.Normalize(raw, rowIndex)
}

// Normalize builds the canonical trade for raw. The outcome is Accepted when
// every cell was usable, Warned when any value had to be substituted and
// Skipped when the row carries no symbol.
func (n *Normalizer) Normalize(raw model.RawRow, rowIndex int) model.RowOutcome {
	symbol := symbols.Normalize(raw.Get(model.ColumnSymbol))
	if symbol == "" {
		return model.Skipped(ReasonMissingSymbol, rowIndex)
	}

	r := &row{raw: raw}

	volume := r.number(model.ColumnVolume)
	entry := r.number(model.ColumnEntryPrice)
	exit := r.number(model.ColumnExitPrice)
	commission := r.number(model.ColumnCommissions).Add(r.number(model.ColumnFees)).Abs()
	net := r.number(model.ColumnNetPnL)

	trade := model.CanonicalTrade{
		RowIndex:       rowIndex,
		Symbol:         symbol,
		InstrumentType: n.classifier.Classify(symbol),
		Side:           r.side(),
		Quantity:       r.quantity(volume),
		EntryPrice:     entry.Abs(),
		ExitPrice:      exit.Abs(),
		Commission:     commission,
		NetPnL:         net,
		GrossPnL:       net.Add(commission),
		OpenedAt:       r.timestamp(model.ColumnOpenDatetime),
		ClosedAt:       r.timestamp(model.ColumnCloseDatetime),
	}
	trade.RiskAmount, trade.RMultiple = r.risk(net)

	if len(r.warnings) == 0 {
		return model.Accepted(trade)
	}
	return model.Warned(trade, r.warnings)
}

// row collects the warnings raised while reading one RawRow.
type row struct {
	raw      model.RawRow
	warnings []model.Warning
}

func (r *row) warn(code model.WarningCode, field, format string, args ...interface{}) {
	r.warnings = append(r.warnings, model.NewWarning(code, field, format, args...))
}

func (r *row) number(column string) decimal.Decimal {
	cell := r.raw.Get(column)
	res := numeric.Parse(cell)
	switch res.Status {
	case numeric.StatusInfinite:
		r.warn(model.WarningInfiniteValue, column, "infinite value %q replaced with 0", cell)
	case numeric.StatusInvalid:
		r.warn(model.WarningInvalidNumber, column, "unparseable number %q replaced with 0", cell)
	}
	return res.Value
}

// quantity is the whole-share count of volume. A negative or fractional
// volume is adjusted and flagged.
func (r *row) quantity(volume decimal.Decimal) int64 {
	q := volume.Abs().Truncate(0)
	if !q.Equal(volume) {
		r.warn(model.WarningQuantityAdjusted, model.ColumnVolume, "volume %s recorded as quantity %s", volume, q)
	}
	return q.IntPart()
}

func (r *row) timestamp(column string) time.Time {
	t, err := utils.ParseTradeTime(r.raw.Get(column))
	if err != nil {
		r.warn(model.WarningInvalidTimestamp, column, "%v; sentinel date used", err)
		return utils.SentinelTime
	}
	return t
}

func (r *row) side() model.Side {
	cell := r.raw.Get(model.ColumnSide)
	key := strings.Join(strings.Fields(strings.ToLower(cell)), " ")
	if side, ok := sideAliases[key]; ok {
		return side
	}
	r.warn(model.WarningUnknownSide, model.ColumnSide, "unrecognized side %q treated as long", cell)
	return model.SideLong
}

// risk returns the absolute risk amount and the R-multiple. Both stay null
// when the cell is absent, empty or unusable; a zero risk is flagged.
func (r *row) risk(net decimal.Decimal) (decimal.NullDecimal, decimal.NullDecimal) {
	var none decimal.NullDecimal
	if !r.raw.Has(model.ColumnInitialRisk) {
		return none, none
	}

	cell := r.raw.Get(model.ColumnInitialRisk)
	res := numeric.Parse(cell)
	switch res.Status {
	case numeric.StatusEmpty:
		return none, none
	case numeric.StatusInfinite:
		r.warn(model.WarningInfiniteValue, model.ColumnInitialRisk, "infinite risk %q ignored", cell)
		return none, none
	case numeric.StatusInvalid:
		r.warn(model.WarningInvalidNumber, model.ColumnInitialRisk, "unparseable risk %q ignored", cell)
		return none, none
	}

	if res.Value.IsZero() {
		r.warn(model.WarningZeroRisk, model.ColumnInitialRisk, "risk amount is zero; R-multiple omitted")
		return none, none
	}

	risk := res.Value.Abs()
	return decimal.NewNullDecimal(risk), decimal.NewNullDecimal(net.DivRound(risk, numeric.Scale))
}
