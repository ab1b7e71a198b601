package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/jamwojt/csv-sumup/internal/config"
	"github.com/jamwojt/csv-sumup/internal/logging"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagLogLvl  string
	flagLogJSON bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "sumup",
	Short: "sumup: stream a CSV and summarize every column",
	Long: `sumup reads a CSV, TSV or XLSX file once and prints a per-column summary:
distinct categories for text columns, earliest and latest dates for date columns,
and sum, mean, exact median, variance and standard deviation for numeric columns.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sumup/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLvl, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so config set can repair a bad file
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = cfgpkg.Default()
		return
	}
	cfg = c
}

func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		cfg = cfgpkg.Default()
	}
	return cfg
}

// newLogger builds the command logger from config and global flags. Logs go to
// stderr so reports on stdout stay pipeable.
func newLogger() (*zap.Logger, error) {
	c := currentConfig()
	lc := logging.Config{Level: c.LogLevel, Encoding: c.LogEncoding}
	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") {
		lc.Level = flagLogLvl
	}
	if f.Changed("log-json") && flagLogJSON {
		lc.Encoding = "json"
	}
	if debug {
		lc.Level = "debug"
		lc.Development = true
	}
	return logging.New(lc)
}
