package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeimport/src/model"
	"tradeimport/src/normalizer"
	"tradeimport/src/utils"
)

const header = "Open Datetime,Close Datetime,Symbol,Side,Volume,Entry Price,Exit Price,Net P&L,Commissions,Fees,Initial Risk"

// buildExport returns an export of n rows. edit may rewrite the cells of a
// row, identified by its 1-based number.
func buildExport(n int, edit func(rowNumber int, cells []string)) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	for i := 1; i <= n; i++ {
		cells := []string{
			fmt.Sprintf("2024-01-%02d 09:30:00", i%28+1),
			fmt.Sprintf("2024-01-%02d 15:45:00", i%28+1),
			[]string{"AAPL", "MSFT", "SPY240315C00500000", "SPYO", "TSLA"}[i%5],
			[]string{"Long", "Short"}[i%2],
			fmt.Sprintf("%d", 10*i),
			"$100.00",
			"$101.50",
			fmt.Sprintf("\"$%d.%02d\"", i*3, i%100),
			"$1.00",
			"$0.25",
			"$50",
		}
		if edit != nil {
			edit(i, cells)
		}
		b.WriteString(strings.Join(cells, ",") + "\n")
	}
	return b.String()
}

func newTestImporter(workers int) (*Importer, *logrustest.Hook) {
	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewImporter(logrus.NewEntry(logger), workers), hook
}

func TestImportRowLevelFaultIsolation(t *testing.T) {
	text := buildExport(100, func(row int, cells []string) {
		switch row {
		case 50:
			cells[0] = "31/31/2024 99:99"
		case 75:
			cells[2] = ""
		}
	})

	importer, _ := newTestImporter(1)
	res := importer.Import(context.Background(), text)

	require.NoError(t, res.Err())
	require.Len(t, res.Outcomes, 100)
	assert.Len(t, res.Trades, 99)
	assert.Equal(t, 98, res.Diagnostics.Accepted)
	assert.Equal(t, 1, res.Diagnostics.Warned)
	assert.Equal(t, 1, res.Diagnostics.Skipped)

	warned := res.Outcomes[49]
	assert.Equal(t, model.OutcomeWarned, warned.Kind)
	assert.True(t, utils.IsSentinel(warned.Trade.OpenedAt))
	assert.Equal(t, 1, res.Diagnostics.TimestampSubstitutions)

	skipped := res.Outcomes[74]
	assert.Equal(t, model.OutcomeSkipped, skipped.Kind)
	assert.Equal(t, normalizer.ReasonMissingSymbol, skipped.Reason)
	assert.Equal(t, 74, skipped.RowIndex)
	assert.Empty(t, res.Faults)
}

func TestImportPreservesFileOrder(t *testing.T) {
	res := ImportTrades(buildExport(20, nil))

	require.Len(t, res.Trades, 20)
	for i, tr := range res.Trades {
		assert.Equal(t, i, tr.RowIndex)
	}
}

func TestImportReconcilesWithinTolerance(t *testing.T) {
	res := ImportTrades(buildExport(250, nil))

	assert.True(t, res.Diagnostics.WithinTolerance, "findings: %v", res.Diagnostics.Findings)
	assert.True(t, res.Diagnostics.RawNetPnL.Equal(res.Diagnostics.CanonicalNetPnL))
	assert.Equal(t, 100, res.Diagnostics.OptionTrades)
	for _, tr := range res.Trades {
		assert.True(t, tr.GrossPnL.Equal(tr.NetPnL.Add(tr.Commission)))
		assert.True(t, tr.RMultiple.Valid)
	}
}

func TestImportMissingNetPnL(t *testing.T) {
	text := strings.Replace(buildExport(3, nil), "Net P&L,", "", 1)

	importer, hook := newTestImporter(1)
	res := importer.Import(context.Background(), text)

	assert.False(t, res.Report.Valid)
	assert.Equal(t, []string{"Net P&L"}, res.Report.MissingColumns)
	assert.Empty(t, res.Trades)
	assert.Empty(t, res.Outcomes)
	assert.True(t, errors.Is(res.Err(), ErrInvalidStructure))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestImportMissingSymbolColumn(t *testing.T) {
	text := strings.Replace(buildExport(3, nil), "Symbol,", "", 1)
	res := ImportTrades(text)

	assert.False(t, res.Report.Valid)
	assert.Equal(t, []string{"Symbol"}, res.Report.MissingColumns)
	assert.Empty(t, res.Trades)
}

func TestImportIsIdempotent(t *testing.T) {
	text := buildExport(60, func(row int, cells []string) {
		if row%7 == 0 {
			cells[7] = "Inf"
		}
	})

	first := ImportTrades(text)
	second := ImportTrades(text)

	assert.Equal(t, first.Trades, second.Trades)
	assert.Equal(t, first.Outcomes, second.Outcomes)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
	assert.Equal(t, 8, first.Diagnostics.InfiniteSubstitutions)
}

func TestImportParallelMatchesSequential(t *testing.T) {
	text := buildExport(500, func(row int, cells []string) {
		switch {
		case row%11 == 0:
			cells[2] = ""
		case row%13 == 0:
			cells[1] = "garbage"
		}
	})

	sequential, _ := newTestImporter(1)
	parallel, _ := newTestImporter(8)

	want := sequential.Import(context.Background(), text)
	got := parallel.Import(context.Background(), text)

	assert.Equal(t, want.Trades, got.Trades)
	assert.Equal(t, want.Outcomes, got.Outcomes)
	assert.Equal(t, want.Diagnostics, got.Diagnostics)
}

type panickingNormalizer struct {
	failRow int
}

func (p panickingNormalizer) Normalize(raw model.RawRow, rowIndex int) model.RowOutcome {
	if rowIndex == p.failRow {
		panic("corrupt row")
	}
	return normalizer.NormalizeRow(raw, rowIndex)
}

func TestImportRecoversRowPanic(t *testing.T) {
	for _, workers := range []int{1, 4} {
		importer, hook := newTestImporter(workers)
		importer = importer.WithNormalizer(panickingNormalizer{failRow: 3})

		res := importer.Import(context.Background(), buildExport(10, nil))

		require.Len(t, res.Outcomes, 10)
		assert.Len(t, res.Trades, 9)
		assert.Equal(t, model.OutcomeSkipped, res.Outcomes[3].Kind)
		assert.Contains(t, res.Outcomes[3].Reason, "corrupt row")

		require.Len(t, res.Faults, 1)
		assert.Equal(t, 3, res.Faults[0].RowIndex)
		assert.Equal(t, 5, res.Faults[0].Line)
		assert.NotEmpty(t, res.Faults[0].Stack)

		var logged bool
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.ErrorLevel && strings.Contains(e.Message, "corrupt row") {
				logged = true
			}
		}
		assert.True(t, logged, "expected row fault to be logged")
	}
}

func TestImportCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	importer, _ := newTestImporter(1)
	res := importer.Import(ctx, buildExport(5, nil))

	assert.Empty(t, res.Trades)
	require.Len(t, res.Outcomes, 5)
	for _, o := range res.Outcomes {
		assert.Equal(t, model.OutcomeSkipped, o.Kind)
		assert.Contains(t, o.Reason, "canceled")
	}
}

func TestImportLogsSummary(t *testing.T) {
	importer, hook := newTestImporter(1)
	importer.Import(context.Background(), buildExport(3, nil))

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "import completed", last.Message)
	assert.Equal(t, 3, last.Data["accepted"])
}
