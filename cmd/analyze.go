package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jamwojt/csv-sumup/internal/analysis"
	cfgpkg "github.com/jamwojt/csv-sumup/internal/config"
	"github.com/jamwojt/csv-sumup/internal/fsutil"
	"github.com/jamwojt/csv-sumup/internal/metrics"
	"github.com/jamwojt/csv-sumup/internal/store"
)

// runFlags are shared by analyze and analyze-batch. Each flag overrides the
// matching config key only when set on the command line.
type runFlags struct {
	delimiter     string
	encoding      string
	sheetName     string
	sheetIndex    int
	format        string
	sqlite        string
	metricsFile   string
	buffer        int
	padShortRows  bool
	maxCategories int
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter, a single character or 'tab' (default: by extension)")
	fs.StringVar(&f.encoding, "encoding", "", "text encoding: utf-8|latin1|windows-1252")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.StringVar(&f.format, "format", "", "output format: text|markdown|json")
	fs.StringVar(&f.sqlite, "sqlite", "", "also write column summaries to this SQLite database")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus text-format run metrics to this file")
	fs.IntVar(&f.buffer, "buffer", 0, "per-column channel capacity (0 = unbuffered)")
	fs.BoolVar(&f.padShortRows, "pad-short-rows", false, "pad rows with missing trailing cells instead of failing")
	fs.IntVar(&f.maxCategories, "max-categories", 0, "list at most this many categories per text column")
}

// settings is the effective configuration of one command invocation.
type settings struct {
	opt         analysis.Options
	format      string
	sqlite      string
	metricsFile string
}

func (f *runFlags) resolve(cmd *cobra.Command, c *cfgpkg.Global) (settings, error) {
	fs := cmd.Flags()
	if fs.Changed("delimiter") {
		c.Delimiter = f.delimiter
	}
	if fs.Changed("encoding") {
		c.Encoding = f.encoding
	}
	if fs.Changed("format") {
		c.OutputFormat = f.format
	}
	if fs.Changed("sqlite") {
		c.SQLitePath = f.sqlite
	}
	if fs.Changed("metrics-file") {
		c.MetricsFile = f.metricsFile
	}
	if fs.Changed("buffer") {
		c.ChannelBuffer = f.buffer
	}
	if fs.Changed("pad-short-rows") {
		c.PadShortRows = f.padShortRows
	}
	if fs.Changed("max-categories") {
		c.MaxCategoriesShown = f.maxCategories
	}
	if err := c.Validate(); err != nil {
		return settings{}, err
	}
	delim, err := cfgpkg.ParseDelimiter(c.Delimiter)
	if err != nil {
		return settings{}, err
	}

	opt := analysis.DefaultOptions()
	opt.Source.Delimiter = delim
	opt.Source.Encoding = c.Encoding
	opt.Source.TrimSpace = c.TrimSpace
	opt.Source.LazyQuotes = c.LazyQuotes
	opt.Source.SheetName = f.sheetName
	opt.Source.SheetIndex = f.sheetIndex
	opt.Buffer = c.ChannelBuffer
	opt.PadShortRows = c.PadShortRows
	opt.WarnAnomalies = c.WarnAnomalies
	opt.MaxCategories = c.MaxCategoriesShown
	return settings{opt: opt, format: c.OutputFormat, sqlite: c.SQLitePath, metricsFile: c.MetricsFile}, nil
}

// exporter writes finished reports to the optional SQLite and metrics sinks.
type exporter struct {
	s   settings
	db  *store.SQLite
	rec *metrics.Recorder
	out io.Writer
}

func newExporter(ctx context.Context, s settings, out io.Writer) (*exporter, error) {
	e := &exporter{s: s, out: out}
	if s.metricsFile != "" {
		e.rec = metrics.NewRecorder()
	}
	if s.sqlite != "" {
		db, err := store.OpenSQLite(ctx, s.sqlite)
		if err != nil {
			return nil, err
		}
		e.db = db
	}
	return e, nil
}

func (e *exporter) save(ctx context.Context, rep *analysis.Report) error {
	if e.db == nil {
		return nil
	}
	if err := e.db.SaveReport(ctx, rep); err != nil {
		return fmt.Errorf("save to sqlite: %w", err)
	}
	fmt.Fprintf(e.out, "✓ Saved %d column summaries to %s\n", len(rep.Cols), e.s.sqlite)
	return nil
}

func (e *exporter) close() error {
	var err error
	if e.rec != nil {
		err = e.rec.WriteTextfile(e.s.metricsFile)
	}
	if e.db != nil {
		if cerr := e.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

var (
	anaFlags      runFlags
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Summarize every column of a CSV/TSV/XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *currentConfig()
		s, err := anaFlags.resolve(cmd, &c)
		if err != nil {
			return err
		}
		return runAnalyze(cmd, args[0], s)
	},
}

func runAnalyze(cmd *cobra.Command, path string, s settings) (err error) {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	exp, err := newExporter(ctx, s, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := exp.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	s.opt.Logger = logger.With(zap.String("file", path))
	s.opt.Recorder = exp.rec

	rep, err := analysis.AnalyzeFile(ctx, path, s.opt)
	if err != nil {
		return err
	}
	body, err := rep.Render(s.format)
	if err != nil {
		return err
	}
	if anaOutputPath != "" {
		if err := fsutil.WriteFileAtomic(anaOutputPath, body); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
	} else if _, err := cmd.OutOrStdout().Write(body); err != nil {
		return err
	}
	return exp.save(ctx, rep)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report instead of stdout")
}
