package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tradeimport/src/analytics"
	"tradeimport/src/capture"
	"tradeimport/src/database"
	"tradeimport/src/model"
	"tradeimport/src/pipeline"
	"tradeimport/src/repository"
)

// BatchStore persists the outcome of an import.
type BatchStore interface {
	SaveImport(ctx context.Context, batch *model.ImportBatch, trades []model.CanonicalTrade, issues []model.RowIssue) error
}

type Importer struct {
	Log    *logrus.Entry
	Config *Config
	Out    io.Writer

	// Store and Exceptions are opened from MainDB by Start when Persist is
	// set and they are nil.
	Store      BatchStore
	Exceptions capture.ExceptionStore
}

// Start reads the configured file, runs the import and, when asked to,
// persists the batch.
func (i *Importer) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if i.Config == nil {
		i.Config = GetConfig()
	}
	if i.Config.File == "" {
		return fmt.Errorf("no export file given (--file or IMPORT_FILE)")
	}

	data, err := os.ReadFile(i.Config.File)
	if err != nil {
		return fmt.Errorf("read export %s: %w", i.Config.File, err)
	}

	if i.Config.Persist && i.Store == nil {
		if err := database.InitMainDB(); err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		i.Store = repository.NewImportRepository()
		i.Exceptions = repository.NewExceptionRepository()
	}

	return i.Run(ctx, string(data))
}

// Run imports rawText and writes the report to Out. It returns
// pipeline.ErrInvalidStructure, wrapped, when the header is rejected.
func (i *Importer) Run(ctx context.Context, rawText string) error {
	if i.Log == nil {
		i.Log = logrus.WithField("cmd", "import")
	}
	if i.Config == nil {
		i.Config = GetConfig()
	}
	if i.Out == nil {
		i.Out = os.Stdout
	}

	source := i.Config.Source
	if source == "" && i.Config.File != "" {
		source = filepath.Base(i.Config.File)
	}
	log := i.Log.WithField("source", source)

	workers := i.Config.Workers
	if workers < 1 {
		workers = pipeline.GetConfig().Workers
	}

	res := pipeline.NewImporter(log.WithField("workers", workers), workers).Import(ctx, rawText)
	summary := analytics.Summarize(res.Trades)

	if err := i.render(res, summary); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if i.Config.Persist && i.Store != nil {
		batchID, err := i.persist(ctx, source, res)
		if err != nil {
			capture.Capture(ctx, i.Exceptions, "cmd/importer", "persist", capture.LevelError, err, map[string]interface{}{
				"source": source,
			})
			return fmt.Errorf("persist import: %w", err)
		}
		log.WithField("batch_id", batchID.String()).Info("import persisted")
	}

	return res.Err()
}

func (i *Importer) persist(ctx context.Context, source string, res pipeline.Result) (uuid.UUID, error) {
	batch := NewBatch(source, res)
	issues := model.IssuesFromOutcomes(batch.ID, res.Outcomes, res.Faults)

	if err := i.Store.SaveImport(ctx, batch, res.Trades, issues); err != nil {
		return uuid.Nil, err
	}

	if len(res.Faults) > 0 {
		stored := capture.CaptureRowFaults(ctx, i.Exceptions, batch.ID, res.Faults)
		i.Log.WithFields(logrus.Fields{
			"batch_id": batch.ID.String(),
			"faults":   len(res.Faults),
			"stored":   stored,
		}).Warn("row faults captured")
	}

	return batch.ID, nil
}

// NewBatch builds the persisted summary of res.
func NewBatch(source string, res pipeline.Result) *model.ImportBatch {
	d := res.Diagnostics
	return &model.ImportBatch{
		ID:                    uuid.New(),
		Source:                source,
		ImportedAt:            res.StartedAt,
		Valid:                 res.Report.Valid,
		MissingColumns:        strings.Join(res.Report.MissingColumns, ","),
		TotalRows:             d.TotalRows,
		Accepted:              d.Accepted,
		Warned:                d.Warned,
		Skipped:               d.Skipped,
		OptionTrades:          d.OptionTrades,
		RawNetPnL:             d.RawNetPnL,
		CanonicalNetPnL:       d.CanonicalNetPnL,
		RawCommission:         d.RawCommission,
		CanonicalCommission:   d.CanonicalCommission,
		InfiniteSubstitutions: d.InfiniteSubstitutions,
		WithinTolerance:       d.WithinTolerance,
	}
}

type jsonReport struct {
	Validation  model.ValidationReport `json:"validation"`
	Diagnostics model.DiagnosticReport `json:"diagnostics"`
	Summary     analytics.Summary      `json:"summary"`
	Issues      []model.RowOutcome     `json:"issues,omitempty"`
	Faults      []model.RowFault       `json:"faults,omitempty"`
}

func (i *Importer) render(res pipeline.Result, summary analytics.Summary) error {
	if strings.EqualFold(i.Config.Output, "json") {
		report := jsonReport{
			Validation:  res.Report,
			Diagnostics: res.Diagnostics,
			Summary:     summary,
			Faults:      res.Faults,
		}
		for _, o := range res.Outcomes {
			if o.Kind != model.OutcomeAccepted {
				report.Issues = append(report.Issues, o)
			}
		}
		enc := json.NewEncoder(i.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	w := tabwriter.NewWriter(i.Out, 0, 0, 2, ' ', 0)
	if !res.Report.Valid {
		fmt.Fprintf(w, "Header rejected\tmissing: %s\n", strings.Join(res.Report.MissingColumns, ", "))
		for _, msg := range res.Report.Warnings {
			fmt.Fprintf(w, "Warning\t%s\n", msg)
		}
		return w.Flush()
	}

	d := res.Diagnostics
	fmt.Fprintf(w, "Rows\t%d\n", d.TotalRows)
	fmt.Fprintf(w, "Accepted\t%d\n", d.Accepted)
	fmt.Fprintf(w, "Warned\t%d\n", d.Warned)
	fmt.Fprintf(w, "Skipped\t%d\n", d.Skipped)
	fmt.Fprintf(w, "Options / equities\t%d / %d\n", d.OptionTrades, d.EquityTrades)
	fmt.Fprintf(w, "Net P&L raw / canonical\t%s / %s\n", d.RawNetPnL.StringFixed(2), d.CanonicalNetPnL.StringFixed(2))
	fmt.Fprintf(w, "Commission raw / canonical\t%s / %s\n", d.RawCommission.StringFixed(2), d.CanonicalCommission.StringFixed(2))
	fmt.Fprintf(w, "Within tolerance\t%t\n", d.WithinTolerance)
	fmt.Fprintf(w, "Win rate\t%s\n", summary.WinRate.StringFixed(4))
	if summary.AverageR.Valid {
		fmt.Fprintf(w, "Average R (%d trades)\t%s\n", summary.RTrades, summary.AverageR.Decimal.StringFixed(2))
	}
	for _, msg := range res.Report.Warnings {
		fmt.Fprintf(w, "Warning\t%s\n", msg)
	}
	for _, f := range d.Findings {
		fmt.Fprintf(w, "Finding\t%s\n", f)
	}
	for _, o := range res.Outcomes {
		switch o.Kind {
		case model.OutcomeSkipped:
			fmt.Fprintf(w, "Row %d skipped\t%s\n", o.RowIndex, o.Reason)
		case model.OutcomeWarned:
			for _, warn := range o.Warnings {
				fmt.Fprintf(w, "Row %d warning\t%s\n", o.RowIndex, warn)
			}
		}
	}
	return w.Flush()
}
