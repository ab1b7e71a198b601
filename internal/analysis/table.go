// Package analysis runs a file through the summarization pipeline and renders the result.
package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jamwojt/csv-sumup/internal/aggregate"
	"github.com/jamwojt/csv-sumup/internal/metrics"
	"github.com/jamwojt/csv-sumup/internal/pipeline"
	"github.com/jamwojt/csv-sumup/internal/source"
	"github.com/jamwojt/csv-sumup/internal/value"
)

// Options controls analysis behavior for tabular data.
type Options struct {
	Source source.Options
	// Buffer is the per-column channel capacity.
	Buffer        int
	PadShortRows  bool
	WarnAnomalies bool
	// MaxCategories is the largest category set listed in full; larger ones print "(a lot)".
	MaxCategories int
	Logger        *zap.Logger
	Recorder      *metrics.Recorder
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		Source:        source.DefaultOptions(),
		Buffer:        64,
		WarnAnomalies: true,
		MaxCategories: 10,
	}
}

// Report is the rendered-ready outcome of one run over one file.
type Report struct {
	Name     string          `json:"file"`
	RunID    string          `json:"run_id"`
	Rows     int64           `json:"rows"`
	Cols     []ColumnSummary `json:"columns"`
	Warnings []string        `json:"warnings,omitempty"`
	Elapsed  time.Duration   `json:"-"`

	maxCategories int
}

// ColumnSummary flattens one column's summary. Optional numbers are nil when the
// column has no such statistic.
type ColumnSummary struct {
	Name          string   `json:"name"`
	Kind          string   `json:"kind"` // text|number|date|unavailable
	Count         int64    `json:"count,omitempty"`
	Anomalies     int64    `json:"anomalies,omitempty"`
	Sum           *float64 `json:"sum,omitempty"`
	Mean          *float64 `json:"mean,omitempty"`
	Median        *float64 `json:"median,omitempty"`
	Variance      *float64 `json:"variance,omitempty"`
	Std           *float64 `json:"std,omitempty"`
	Earliest      string   `json:"earliest,omitempty"`
	Latest        string   `json:"latest,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	CategoryCount int      `json:"category_count,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// KindUnavailable marks a column whose aggregator produced no summary.
const KindUnavailable = "unavailable"

// AnalyzeFile reads path and summarizes every column. Open and header failures
// are returned before any aggregator starts.
func AnalyzeFile(ctx context.Context, path string, opt Options) (*Report, error) {
	src, err := source.Open(path, opt.Source)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	run, err := pipeline.Summarize(ctx, src.Columns(), src, pipeline.Options{
		Buffer:        opt.Buffer,
		PadShortRows:  opt.PadShortRows,
		WarnAnomalies: opt.WarnAnomalies,
		Logger:        opt.Logger,
		Recorder:      opt.Recorder,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", filepath.Base(path), err)
	}
	rep := FromRun(filepath.Base(path), run)
	rep.SetMaxCategories(opt.MaxCategories)
	return rep, nil
}

// FromRun converts a finished run into a Report.
func FromRun(name string, run *pipeline.Run) *Report {
	rep := &Report{
		Name:     name,
		RunID:    run.ID,
		Rows:     run.Rows,
		Warnings: run.Warnings,
		Elapsed:  run.Elapsed,
	}
	for _, res := range run.Results {
		rep.Cols = append(rep.Cols, columnFromResult(res))
	}
	return rep
}

// SetMaxCategories sets the category listing threshold used by Text and Markdown.
func (r *Report) SetMaxCategories(n int) { r.maxCategories = n }

func (r *Report) categoryLimit() int {
	if r.maxCategories <= 0 {
		return 10
	}
	return r.maxCategories
}

func columnFromResult(res aggregate.Result) ColumnSummary {
	c := ColumnSummary{Name: res.Column}
	if res.Err != nil {
		c.Error = res.Err.Error()
	}
	switch s := res.Summary.(type) {
	case aggregate.TextSummary:
		c.Kind = string(aggregate.SummaryText)
		c.Categories = s.Categories
		c.CategoryCount = s.CategoryCount
	case aggregate.NumberSummary:
		c.Kind = string(aggregate.SummaryNumber)
		c.Count = s.Count
		c.Anomalies = s.Anomalies
		c.Sum, c.Mean, c.Median = ptr(s.Sum), ptr(s.Mean), ptr(s.Median)
		if s.VarianceDefined {
			c.Variance, c.Std = ptr(s.Variance), ptr(s.Std)
		}
	case aggregate.DateSummary:
		c.Kind = string(aggregate.SummaryDate)
		c.Count = s.Count
		c.Anomalies = s.Anomalies
		c.Earliest = s.Earliest.Format(value.DateLayout)
		c.Latest = s.Latest.Format(value.DateLayout)
	default:
		c.Kind = KindUnavailable
	}
	return c
}

func ptr(f float64) *float64 { return &f }
