// Package validator checks the header of a broker export and reads its data
// rows into immutable RawRow values. A missing required column is the only
// fatal condition of an import; everything after a valid header is handled
// row by row.
package validator

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	logger "github.com/sirupsen/logrus"

	"tradeimport/src/model"
)

const byteOrderMark = "\uFEFF"

// columnAliases maps lower-cased header cells onto canonical column names.
var columnAliases = map[string]string{
	"open datetime": model.ColumnOpenDatetime,
	"open date":     model.ColumnOpenDatetime,
	"open time":     model.ColumnOpenDatetime,
	"entry time":    model.ColumnOpenDatetime,
	"entry date":    model.ColumnOpenDatetime,

	"close datetime": model.ColumnCloseDatetime,
	"close date":     model.ColumnCloseDatetime,
	"close time":     model.ColumnCloseDatetime,
	"exit time":      model.ColumnCloseDatetime,
	"exit date":      model.ColumnCloseDatetime,

	"symbol": model.ColumnSymbol,
	"ticker": model.ColumnSymbol,

	"side":      model.ColumnSide,
	"direction": model.ColumnSide,

	"volume":   model.ColumnVolume,
	"quantity": model.ColumnVolume,
	"qty":      model.ColumnVolume,
	"shares":   model.ColumnVolume,

	"entry price":     model.ColumnEntryPrice,
	"avg entry price": model.ColumnEntryPrice,
	"open price":      model.ColumnEntryPrice,

	"exit price":     model.ColumnExitPrice,
	"avg exit price": model.ColumnExitPrice,
	"close price":    model.ColumnExitPrice,

	"net p&l":    model.ColumnNetPnL,
	"net pnl":    model.ColumnNetPnL,
	"net p/l":    model.ColumnNetPnL,
	"net pl":     model.ColumnNetPnL,
	"net profit": model.ColumnNetPnL,

	"commissions": model.ColumnCommissions,
	"commission":  model.ColumnCommissions,

	"fees": model.ColumnFees,
	"fee":  model.ColumnFees,

	"initial risk": model.ColumnInitialRisk,
	"risk":         model.ColumnInitialRisk,
	"risk amount":  model.ColumnInitialRisk,
}

type header struct {
	// columns holds the canonical name for each position; "" marks a cell that
	// is blank or duplicates an earlier column.
	columns   []string
	delimiter rune
}

// ValidateStructure checks that every required column is present in the
// header of rawText. It reads nothing past the header line.
func ValidateStructure(rawText string) model.ValidationReport {
	_, _, report := open(rawText)
	return report
}

// ReadRows validates the header and, when it is valid, returns every data row
// in file order. Records the CSV reader cannot parse come back as faults; they
// keep their index so row numbering matches the file.
func ReadRows(rawText string) (model.ValidationReport, []model.RawRow, []model.RowFault) {
	r, hdr, report := open(rawText)
	if !report.Valid {
		return report, nil, nil
	}

	var rows []model.RawRow
	var faults []model.RowFault
	index := 0
	lastFaultLine := -1

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) || perr.StartLine == lastFaultLine {
				faults = append(faults, model.RowFault{RowIndex: index, Message: fmt.Sprintf("read aborted: %v", err)})
				logger.WithError(err).WithField("row", index).Error("Stopped reading export rows")
				break
			}
			lastFaultLine = perr.StartLine
			faults = append(faults, model.RowFault{RowIndex: index, Line: perr.StartLine, Message: perr.Error()})
			logger.WithFields(map[string]interface{}{
				"component": "validator",
				"row":       index,
				"line":      perr.StartLine,
			}).WithError(err).Warn("Unreadable export row")
			index++
			continue
		}

		line, _ := r.FieldPos(0)
		values := make(map[string]string, len(hdr.columns))
		for i, col := range hdr.columns {
			if col == "" {
				continue
			}
			if i < len(record) {
				values[col] = cleanCell(record[i])
			} else {
				values[col] = ""
			}
		}

		rows = append(rows, model.NewRawRow(index, line, values))
		index++
	}

	return report, rows, faults
}

// open strips a byte-order mark, detects the delimiter and reads the header.
// The returned reader is positioned on the first data row.
func open(rawText string) (*csv.Reader, header, model.ValidationReport) {
	report := model.ValidationReport{MissingColumns: []string{}, Warnings: []string{}}

	text := rawText
	if strings.HasPrefix(text, byteOrderMark) {
		text = strings.TrimPrefix(text, byteOrderMark)
		report.Warnings = append(report.Warnings, "byte-order mark stripped from header")
	}

	hdr := header{delimiter: detectDelimiter(firstLine(text))}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = hdr.delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	record, err := r.Read()
	if err != nil {
		report.MissingColumns = append(report.MissingColumns, model.RequiredColumns...)
		report.Warnings = append(report.Warnings, "no header line found")
		return r, hdr, report
	}

	seen := make(map[string]bool, len(record))
	for i, cell := range record {
		name := canonicalColumn(cell)
		if name == "" {
			hdr.columns = append(hdr.columns, "")
			continue
		}
		if seen[name] {
			hdr.columns = append(hdr.columns, "")
			report.Warnings = append(report.Warnings, fmt.Sprintf("duplicate column %q at position %d ignored", name, i+1))
			continue
		}
		seen[name] = true
		hdr.columns = append(hdr.columns, name)
		report.Columns = append(report.Columns, name)
	}

	for _, col := range model.RequiredColumns {
		if !seen[col] {
			report.MissingColumns = append(report.MissingColumns, col)
		}
	}
	for _, col := range model.OptionalColumns {
		if !seen[col] {
			report.Warnings = append(report.Warnings, fmt.Sprintf("optional column %q not found", col))
		}
	}

	report.Valid = len(report.MissingColumns) == 0
	if !report.Valid {
		logger.WithFields(map[string]interface{}{
			"component": "validator",
			"missing":   report.MissingColumns,
		}).Warn("Export header is missing required columns")
	}

	return r, hdr, report
}

func canonicalColumn(cell string) string {
	name := strings.TrimPrefix(strings.TrimSpace(cell), byteOrderMark)
	name = strings.TrimSpace(strings.Trim(name, `"'`))
	if name == "" {
		return ""
	}
	if canonical, ok := columnAliases[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

func cleanCell(value string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(value), `"`))
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// detectDelimiter prefers a comma and falls back to tab or semicolon when the
// header line has no comma at all.
func detectDelimiter(line string) rune {
	if strings.Contains(line, ",") {
		return ','
	}
	if strings.Contains(line, "\t") {
		return '\t'
	}
	if strings.Contains(line, ";") {
		return ';'
	}
	return ','
}
