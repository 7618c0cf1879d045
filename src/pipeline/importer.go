package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tradeimport/src/model"
	"tradeimport/src/normalizer"
	"tradeimport/src/reconcile"
	"tradeimport/src/validator"
)

// ErrInvalidStructure is returned by Result.Err when the header lacks required
// columns. It is the only condition that stops an import.
var ErrInvalidStructure = errors.New("export header is missing required columns")

// RowNormalizer turns one raw row into an outcome.
type RowNormalizer interface {
	Normalize(raw model.RawRow, rowIndex int) model.RowOutcome
}

type Result struct {
	Report      model.ValidationReport
	Trades      []model.CanonicalTrade
	Outcomes    []model.RowOutcome
	Rows        []model.RawRow
	Faults      []model.RowFault
	Diagnostics model.DiagnosticReport

	StartedAt  time.Time
	FinishedAt time.Time
}

// Err reports the structural failure of the import, if any.
func (r Result) Err() error {
	if r.Report.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidStructure, strings.Join(r.Report.MissingColumns, ", "))
}

type Importer struct {
	logger     *logrus.Entry
	normalizer RowNormalizer
	workers    int
	now        func() time.Time
}

// NewImporter returns an importer normalizing with the default rule set.
// workers <= 1 normalizes rows sequentially.
func NewImporter(logger *logrus.Entry, workers int) *Importer {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if workers < 1 {
		workers = 1
	}

	return &Importer{logger: logger, normalizer: normalizer.New(nil), workers: workers, now: time.Now}
}

// WithNormalizer returns a copy of the importer that uses n for every row.
func (i *Importer) WithNormalizer(n RowNormalizer) *Importer {
	cp := *i
	cp.normalizer = n
	return &cp
}

// ImportTrades runs a sequential import of rawText with the standard logger.
func ImportTrades(rawText string) Result {
	return NewImporter(nil, 1).Import(context.Background(), rawText)
}

// Import validates rawText, normalizes every data row and reconciles the
// totals. A row that faults is recorded as skipped; the remaining rows are
// still processed. Rows not yet normalized when ctx is done are skipped too.
func (i *Importer) Import(ctx context.Context, rawText string) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	result := Result{StartedAt: i.now(), Trades: []model.CanonicalTrade{}}

	report, rows, readFaults := validator.ReadRows(rawText)
	result.Report = report
	if !report.Valid {
		result.FinishedAt = i.now()
		i.logger.WithFields(logrus.Fields{
			"component": "pipeline",
			"missing":   report.MissingColumns,
		}).Error("import rejected: invalid header")
		return result
	}

	total := len(rows) + len(readFaults)
	outcomes := make([]model.RowOutcome, total)
	rowFaults := make([]*model.RowFault, total)

	for _, f := range readFaults {
		outcomes[f.RowIndex] = model.Skipped("unreadable row: "+f.Message, f.RowIndex)
	}

	if i.workers > 1 && len(rows) > 1 {
		var g errgroup.Group
		g.SetLimit(i.workers)
		for _, raw := range rows {
			g.Go(func() error {
				outcomes[raw.Index()], rowFaults[raw.Index()] = i.normalizeOne(ctx, raw)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, raw := range rows {
			outcomes[raw.Index()], rowFaults[raw.Index()] = i.normalizeOne(ctx, raw)
		}
	}

	result.Faults = append(result.Faults, readFaults...)
	for _, f := range rowFaults {
		if f != nil {
			result.Faults = append(result.Faults, *f)
		}
	}
	sort.SliceStable(result.Faults, func(a, b int) bool {
		return result.Faults[a].RowIndex < result.Faults[b].RowIndex
	})

	for _, o := range outcomes {
		if o.HasTrade() {
			result.Trades = append(result.Trades, *o.Trade)
		}
		i.logOutcome(o)
	}

	result.Rows = rows
	result.Outcomes = outcomes
	result.Diagnostics = reconcile.Reconcile(rows, result.Trades, outcomes)
	result.FinishedAt = i.now()

	entry := i.logger.WithFields(logrus.Fields{
		"component":        "pipeline",
		"rows":             total,
		"accepted":         result.Diagnostics.Accepted,
		"warned":           result.Diagnostics.Warned,
		"skipped":          result.Diagnostics.Skipped,
		"options":          result.Diagnostics.OptionTrades,
		"within_tolerance": result.Diagnostics.WithinTolerance,
	})
	if result.Diagnostics.WithinTolerance {
		entry.Info("import completed")
	} else {
		entry.WithField("findings", result.Diagnostics.Findings).Warn("import completed with reconciliation findings")
	}

	return result
}

func (i *Importer) normalizeOne(ctx context.Context, raw model.RawRow) (out model.RowOutcome, fault *model.RowFault) {
	if err := ctx.Err(); err != nil {
		return model.Skipped(fmt.Sprintf("import canceled: %v", err), raw.Index()), nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("row fault: %v", rec)
			out = model.Skipped(msg, raw.Index())
			fault = &model.RowFault{
				RowIndex: raw.Index(),
				Line:     raw.Line(),
				Message:  msg,
				Stack:    string(debug.Stack()),
			}
			i.logger.WithFields(logrus.Fields{
				"component": "pipeline",
				"row":       raw.Index(),
				"line":      raw.Line(),
			}).Error(msg)
		}
	}()

	return i.normalizer.Normalize(raw, raw.Index()), nil
}

func (i *Importer) logOutcome(o model.RowOutcome) {
	switch o.Kind {
	case model.OutcomeWarned:
		for _, w := range o.Warnings {
			i.logger.WithFields(logrus.Fields{
				"component": "pipeline",
				"row":       o.RowIndex,
				"code":      w.Code,
				"field":     w.Field,
			}).Debug(w.Message)
		}
	case model.OutcomeSkipped:
		i.logger.WithFields(logrus.Fields{
			"component": "pipeline",
			"row":       o.RowIndex,
		}).Debugf("row skipped: %s", o.Reason)
	}
}
