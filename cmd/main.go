package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"tradeimport/cmd/importer"
	"tradeimport/src/database"
	"tradeimport/src/model"
	"tradeimport/src/repository"
	"tradeimport/src/symbols"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "tradeimport"
	app.Usage = "Normalize broker trade exports and check their financial integrity"
	app.Version = Version
	app.Before = setupLogger

	app.Commands = []cli.Command{
		importCMD,
		migrateCMD,
		classifyCMD,
		batchesCMD,
		tradesCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(_ *cli.Context) error {
	config := database.GetConfig()

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(config.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	// reports go to stdout
	logrus.SetOutput(os.Stderr)
	return nil
}

var (
	importCMD = cli.Command{
		Name:      "import",
		Usage:     "import a broker export",
		Action:    importAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "file, f", Usage: "path of the CSV export"},
			cli.IntFlag{Name: "workers, w", Usage: "rows normalized in parallel"},
			cli.BoolFlag{Name: "persist", Usage: "store the batch, its trades and row issues"},
			cli.StringFlag{Name: "source", Usage: "label stored with the batch (defaults to the file name)"},
			cli.StringFlag{Name: "output, o", Usage: "report format: text or json"},
		},
		Description: `Validate the header, normalize every row and print the validation and
   reconciliation reports. Flags override IMPORT_* environment variables.`,
	}
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "run database migrations",
		Action:      migrateAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Create or update the schema and apply pending data migrations`,
	}
	classifyCMD = cli.Command{
		Name:        "classify",
		Usage:       "classify symbols as option or equity",
		Action:      classifyAction,
		ArgsUsage:   "<symbol>...",
		Flags:       []cli.Flag{},
		Description: `Print the instrument type and matching rule of each symbol`,
	}
	batchesCMD = cli.Command{
		Name:      "batches",
		Usage:     "list stored import batches",
		Action:    batchesAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.IntFlag{Name: "limit", Value: 20},
		},
		Description: `List the latest import batches, newest first`,
	}
	tradesCMD = cli.Command{
		Name:      "trades",
		Usage:     "search stored trades",
		Action:    tradesAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "batch", Usage: "batch id"},
			cli.StringFlag{Name: "symbol"},
			cli.StringFlag{Name: "type", Usage: "option or equity"},
			cli.StringFlag{Name: "after", Usage: "closed at or after (RFC 3339)"},
			cli.StringFlag{Name: "before", Usage: "closed at or before (RFC 3339)"},
			cli.IntFlag{Name: "limit", Value: 50},
			cli.IntFlag{Name: "offset"},
		},
		Description: `Search persisted trades, latest close first`,
	}
)

func importAction(c *cli.Context) error {

	logrus.Info("Starting import CMD")

	config := importer.GetConfig()
	if c.IsSet("file") {
		config.File = c.String("file")
	}
	if c.IsSet("workers") {
		config.Workers = c.Int("workers")
	}
	if c.IsSet("persist") {
		config.Persist = c.Bool("persist")
	}
	if c.IsSet("source") {
		config.Source = c.String("source")
	}
	if c.IsSet("output") {
		config.Output = c.String("output")
	}
	if database.GetConfig().EnableDB {
		config.Persist = true
	}

	imp := &importer.Importer{
		Log:    logrus.WithField("cmd", "import"),
		Config: config,
		Out:    os.Stdout,
	}
	if err := imp.Start(); err != nil {
		logrus.WithError(err).Error("Import failed")
		return err
	}

	return nil
}

func migrateAction(_ *cli.Context) error {

	logrus.Info("Starting migrate CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to migrate database")
		return err
	}

	return nil
}

func classifyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one symbol is required")
	}

	classifier := symbols.Default()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, s := range c.Args() {
		kind, rule := classifier.Explain(s)
		if rule == "" {
			rule = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", symbols.Normalize(s), kind, rule)
	}
	return w.Flush()
}

func batchesAction(c *cli.Context) error {
	repo, err := reportingRepository()
	if err != nil {
		return err
	}

	batches, err := repo.ListBatches(context.Background(), c.Int("limit"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tIMPORTED\tVALID\tROWS\tACCEPTED\tWARNED\tSKIPPED\tNET P&L\tIN TOLERANCE")
	for _, b := range batches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%d\t%d\t%d\t%s\t%t\n",
			b.ID, b.Source, b.ImportedAt.Format(time.RFC3339), b.Valid,
			b.TotalRows, b.Accepted, b.Warned, b.Skipped,
			b.CanonicalNetPnL.StringFixed(2), b.WithinTolerance)
	}
	return w.Flush()
}

func tradesAction(c *cli.Context) error {
	options := repository.TradeSearchOptions{
		Limit:  c.Int("limit"),
		Offset: c.Int("offset"),
	}

	if v := c.String("batch"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fmt.Errorf("invalid batch id %q: %w", v, err)
		}
		options.BatchID = &id
	}
	if v := c.String("symbol"); v != "" {
		s := symbols.Normalize(v)
		options.Symbol = &s
	}
	if v := c.String("type"); v != "" {
		kind := model.InstrumentType(strings.ToLower(v))
		if kind != model.InstrumentOption && kind != model.InstrumentEquity {
			return fmt.Errorf("invalid instrument type %q", v)
		}
		options.InstrumentType = &kind
	}
	for name, dst := range map[string]**time.Time{"after": &options.ClosedAfter, "before": &options.ClosedBefore} {
		v := c.String(name)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", name, err)
		}
		*dst = &ts
	}

	repo, err := reportingRepository()
	if err != nil {
		return err
	}

	trades, err := repo.SearchTrades(context.Background(), options)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CLOSED\tSYMBOL\tTYPE\tSIDE\tQTY\tNET P&L\tCOMMISSION\tR")
	for _, t := range trades {
		r := "-"
		if t.RMultiple.Valid {
			r = t.RMultiple.Decimal.StringFixed(2)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			t.ClosedAt.Format(time.RFC3339), t.Symbol, t.InstrumentType, t.Side, t.Quantity,
			t.NetPnL.StringFixed(2), t.Commission.StringFixed(2), r)
	}
	return w.Flush()
}

// reportingRepository reads from the replica when one is configured.
func reportingRepository() (*repository.ImportRepository, error) {
	if err := database.InitMainDB(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.InitReadOnlyDB(); err != nil {
		return nil, fmt.Errorf("connect to read-only database: %w", err)
	}
	return (&repository.ImportRepository{}).WithDB(database.Reader()), nil
}
