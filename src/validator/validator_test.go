package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeimport/src/model"
)

const fullHeader = "Open Datetime,Close Datetime,Symbol,Side,Volume,Entry Price,Exit Price,Net P&L,Commissions,Fees,Initial Risk"

func TestValidateStructure(t *testing.T) {
	t.Run("full header is valid", func(t *testing.T) {
		report := ValidateStructure(fullHeader + "\n")
		assert.True(t, report.Valid)
		assert.Empty(t, report.MissingColumns)
		assert.Empty(t, report.Warnings)
		assert.Len(t, report.Columns, 11)
	})

	t.Run("missing net pnl", func(t *testing.T) {
		header := strings.Replace(fullHeader, "Net P&L,", "", 1)
		report := ValidateStructure(header + "\n2024-01-02,2024-01-02,AAPL,Long,1,1,1,0,0\n")
		assert.False(t, report.Valid)
		assert.Equal(t, []string{model.ColumnNetPnL}, report.MissingColumns)
	})

	t.Run("missing columns reported in order", func(t *testing.T) {
		report := ValidateStructure("Side,Volume,Exit Price\n")
		assert.False(t, report.Valid)
		assert.Equal(t, []string{
			model.ColumnOpenDatetime,
			model.ColumnCloseDatetime,
			model.ColumnSymbol,
			model.ColumnEntryPrice,
			model.ColumnNetPnL,
		}, report.MissingColumns)
	})

	t.Run("empty input", func(t *testing.T) {
		for _, in := range []string{"", "\n\n"} {
			report := ValidateStructure(in)
			assert.False(t, report.Valid)
			assert.Equal(t, model.RequiredColumns, report.MissingColumns)
		}
	})

	t.Run("byte order mark and quoted names", func(t *testing.T) {
		quoted := "\uFEFF" + `"Open Datetime","Close Datetime","Symbol","Side","Volume","Entry Price","Exit Price","Net P&L"`
		report := ValidateStructure(quoted + "\n")
		require.True(t, report.Valid, "missing: %v", report.MissingColumns)
		assert.Contains(t, report.Warnings, "byte-order mark stripped from header")
	})

	t.Run("aliases and case", func(t *testing.T) {
		report := ValidateStructure("open time,EXIT TIME,Ticker,side,Qty,Entry Price,Exit Price,Net PnL,Commission,Fee,Risk\n")
		require.True(t, report.Valid, "missing: %v", report.MissingColumns)
		assert.Empty(t, report.Warnings)
		assert.Contains(t, report.Columns, model.ColumnInitialRisk)
	})

	t.Run("optional columns absent", func(t *testing.T) {
		header := "Open Datetime,Close Datetime,Symbol,Side,Volume,Entry Price,Exit Price,Net P&L"
		report := ValidateStructure(header + "\n")
		assert.True(t, report.Valid)
		assert.Len(t, report.Warnings, len(model.OptionalColumns))
	})

	t.Run("duplicate column", func(t *testing.T) {
		report := ValidateStructure(fullHeader + ",Symbol\n")
		assert.True(t, report.Valid)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "duplicate column")
	})

	t.Run("semicolon delimiter", func(t *testing.T) {
		report := ValidateStructure(strings.ReplaceAll(fullHeader, ",", ";") + "\n")
		assert.True(t, report.Valid)
	})

	t.Run("tab delimiter", func(t *testing.T) {
		report := ValidateStructure(strings.ReplaceAll(fullHeader, ",", "\t") + "\n")
		assert.True(t, report.Valid)
	})
}

func TestReadRows(t *testing.T) {
	text := fullHeader + "\n" +
		`2024-01-02 09:30:00,2024-01-02 10:00:00,AAPL,Long,100,"$150.00","$155.00","$1,234.50",$1.00,$0.50,$100` + "\n" +
		"\n" +
		`2024-01-03 09:30:00,2024-01-03 10:00:00,"TSLA",Short,10,200,190` + "\n"

	report, rows, faults := ReadRows(text)
	require.True(t, report.Valid)
	assert.Empty(t, faults)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 0, first.Index())
	assert.Equal(t, 2, first.Line())
	assert.Equal(t, "AAPL", first.Get(model.ColumnSymbol))
	assert.Equal(t, "$1,234.50", first.Get(model.ColumnNetPnL))
	assert.Equal(t, "$100", first.Get(model.ColumnInitialRisk))

	second := rows[1]
	assert.Equal(t, 1, second.Index())
	assert.Equal(t, 4, second.Line())
	assert.Equal(t, "TSLA", second.Get(model.ColumnSymbol))
	// short record: trailing columns exist but are empty
	assert.True(t, second.Has(model.ColumnNetPnL))
	assert.Equal(t, "", second.Get(model.ColumnNetPnL))
}

func TestReadRowsMultilineCell(t *testing.T) {
	text := fullHeader + ",Notes\n" +
		"2024-01-02,2024-01-02,AAPL,Long,1,1,2,1,0,0,,\"first line\nsecond line\"\n" +
		"2024-01-03,2024-01-03,MSFT,Long,1,1,2,1,0,0,,\n"

	_, rows, faults := ReadRows(text)
	assert.Empty(t, faults)
	require.Len(t, rows, 2)
	assert.Equal(t, "first line\nsecond line", rows[0].Get("Notes"))
	assert.Equal(t, 4, rows[1].Line())
}

func TestReadRowsInvalidHeader(t *testing.T) {
	report, rows, faults := ReadRows("Symbol,Side\nAAPL,Long\n")
	assert.False(t, report.Valid)
	assert.Nil(t, rows)
	assert.Nil(t, faults)
}

func TestReadRowsWithAliasesKeyedByCanonicalName(t *testing.T) {
	text := "Open Time;Close Time;Ticker;Side;Quantity;Entry Price;Exit Price;Net P/L\n" +
		"2024-01-02;2024-01-02;SPYO;Sell;3;1,5;2;-1\n"

	_, rows, _ := ReadRows(text)
	require.Len(t, rows, 1)
	assert.Equal(t, "SPYO", rows[0].Get(model.ColumnSymbol))
	assert.Equal(t, "3", rows[0].Get(model.ColumnVolume))
	assert.Equal(t, "-1", rows[0].Get(model.ColumnNetPnL))
	assert.False(t, rows[0].Has(model.ColumnCommissions))
}
