// Package pipeline fans rows out to one aggregator per column and joins their summaries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jamwojt/csv-sumup/internal/aggregate"
	"github.com/jamwojt/csv-sumup/internal/logging"
	"github.com/jamwojt/csv-sumup/internal/metrics"
	"github.com/jamwojt/csv-sumup/internal/value"
)

// Options controls a run.
type Options struct {
	// Buffer is the capacity of each column channel; 0 means unbuffered.
	Buffer int
	// PadShortRows fills missing trailing cells with "" instead of failing the run.
	PadShortRows bool
	// WarnAnomalies emits a warning for columns that received values of the wrong kind.
	WarnAnomalies bool
	Logger        *zap.Logger
	Recorder      *metrics.Recorder
	// RunID identifies the run in logs and exports; generated when empty.
	RunID string
	// Observer, if set, is called from each aggregator goroutine for every value it consumes.
	Observer func(column string, v value.Typed)
}

// RowSource yields data rows, returning io.EOF after the last one.
type RowSource interface {
	Next() ([]string, error)
}

// Run is the outcome of one summarization.
type Run struct {
	ID      string
	Columns []string
	Rows    int64
	// Results holds one entry per column, in column order.
	Results  []aggregate.Result
	Warnings []string
	Elapsed  time.Duration
}

// Summaries maps column names to their summaries. Columns without a summary are
// omitted; for repeated names the rightmost column wins.
func (r *Run) Summaries() map[string]aggregate.Summary {
	out := make(map[string]aggregate.Summary, len(r.Results))
	for _, res := range r.Results {
		if res.Summary != nil {
			out[res.Column] = res.Summary
		}
	}
	return out
}

// Coordinator owns the aggregators of one run. Dispatch must be called from a
// single goroutine; it is the only producer of every column channel.
type Coordinator struct {
	id       string
	columns  []string
	aggs     []*aggregate.Aggregator
	opt      Options
	log      *zap.Logger
	rows     int64
	warnings []string
	started  time.Time
	finished bool
}

// NewCoordinator creates one aggregator per column. Call Start before Dispatch.
func NewCoordinator(columns []string, opt Options) *Coordinator {
	id := opt.RunID
	if id == "" {
		id = uuid.NewString()
	}
	c := &Coordinator{
		id:      id,
		columns: append([]string(nil), columns...),
		opt:     opt,
		log:     logging.OrNop(opt.Logger).With(zap.String("run_id", id)),
	}
	c.aggs = make([]*aggregate.Aggregator, len(columns))
	for i, col := range columns {
		var opts []aggregate.Option
		if opt.Observer != nil {
			col, obs := col, opt.Observer
			opts = append(opts, aggregate.WithObserver(func(v value.Typed) { obs(col, v) }))
		}
		c.aggs[i] = aggregate.New(col, opt.Buffer, opts...)
	}
	return c
}

// ID returns the run identifier.
func (c *Coordinator) ID() string { return c.id }

// Start launches every aggregator goroutine.
func (c *Coordinator) Start() {
	c.started = time.Now()
	for _, a := range c.aggs {
		go a.Run()
	}
	c.log.Debug("run started", zap.Int("columns", len(c.columns)))
}

// Dispatch classifies each cell of row and forwards it to its column. Values that
// cannot be delivered are skipped with a warning. A row shorter than the column
// list is a *RowShapeError unless PadShortRows is set; extra cells are ignored.
func (c *Coordinator) Dispatch(ctx context.Context, row []string) error {
	c.rows++
	if len(row) < len(c.columns) {
		if !c.opt.PadShortRows {
			return &RowShapeError{Row: c.rows, Got: len(row), Want: len(c.columns)}
		}
		c.warn(fmt.Sprintf("row %d has %d cells, padded to %d", c.rows, len(row), len(c.columns)),
			zap.Int64("row", c.rows))
		padded := make([]string, len(c.columns))
		copy(padded, row)
		row = padded
	}
	c.opt.Recorder.Row()

	for i, a := range c.aggs {
		v := value.Classify(row[i])
		c.opt.Recorder.Value(v.Kind.String())
		err := c.deliver(ctx, a, v)
		if err == nil {
			continue
		}
		var de *DeliveryError
		if !errors.As(err, &de) {
			return err
		}
		de.Row = c.rows
		c.opt.Recorder.DeliveryFailure()
		c.warn(de.Error(), zap.String("column", de.Column), zap.Int64("row", c.rows))
	}
	return nil
}

func (c *Coordinator) deliver(ctx context.Context, a *aggregate.Aggregator, v value.Typed) error {
	select {
	case <-a.Done():
		return &DeliveryError{Column: a.Column(), Kind: v.Kind}
	default:
	}
	select {
	case a.Input() <- v:
		return nil
	case <-a.Done():
		return &DeliveryError{Column: a.Column(), Kind: v.Kind}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finish sends the end-of-stream sentinel to every column exactly once, waits for
// every aggregator, and returns the run. Calling it again returns nil.
func (c *Coordinator) Finish() *Run {
	if c.finished {
		return nil
	}
	c.finished = true

	for _, a := range c.aggs {
		select {
		case <-a.Done():
			c.warn((&DeliveryError{Column: a.Column(), Kind: value.KindEnd}).Error(), zap.String("column", a.Column()))
			continue
		default:
		}
		select {
		case a.Input() <- value.EndOfStream():
		case <-a.Done():
			c.warn((&DeliveryError{Column: a.Column(), Kind: value.KindEnd}).Error(), zap.String("column", a.Column()))
		}
	}

	results := make([]aggregate.Result, len(c.aggs))
	for i, a := range c.aggs {
		results[i] = c.join(a)
	}

	elapsed := time.Since(c.started)
	c.opt.Recorder.ObserveRun(elapsed)
	c.log.Info("run finished",
		zap.Int64("rows", c.rows),
		zap.Int("columns", len(c.columns)),
		zap.Int("warnings", len(c.warnings)),
		zap.Duration("elapsed", elapsed))

	return &Run{
		ID:       c.id,
		Columns:  c.columns,
		Rows:     c.rows,
		Results:  results,
		Warnings: c.warnings,
		Elapsed:  elapsed,
	}
}

func (c *Coordinator) join(a *aggregate.Aggregator) aggregate.Result {
	res := a.Wait()
	col := zap.String("column", res.Column)

	var pe *aggregate.PanicError
	if errors.As(res.Err, &pe) {
		res.Err = &JoinError{Column: res.Column, Err: pe}
		c.opt.Recorder.JoinFailure()
		c.warn(res.Err.Error(), col)
		return res
	}
	// empty columns and single-value variance are recoverable
	if res.Err != nil {
		c.warn(res.Err.Error(), col)
	}

	if c.opt.WarnAnomalies {
		switch s := res.Summary.(type) {
		case aggregate.NumberSummary:
			if s.Anomalies > 0 {
				c.warn(fmt.Sprintf("column %q: %d non-numeric values left out of the statistics", res.Column, s.Anomalies), col)
			}
		case aggregate.DateSummary:
			if s.Anomalies > 0 {
				c.warn(fmt.Sprintf("column %q: %d non-date values left out of the statistics", res.Column, s.Anomalies), col)
			}
		}
	}
	return res
}

func (c *Coordinator) warn(msg string, fields ...zap.Field) {
	c.warnings = append(c.warnings, msg)
	c.log.Warn(msg, fields...)
}

// Summarize runs the whole pipeline over rows. Structural failures (a short row
// without padding, a read error, cancellation) are returned after every
// aggregator has been terminated and joined; everything else lands in Run.Warnings.
func Summarize(ctx context.Context, columns []string, rows RowSource, opt Options) (*Run, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	c := NewCoordinator(columns, opt)
	c.Start()

	var runErr error
	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			runErr = fmt.Errorf("read row %d: %w", c.rows+1, err)
			break
		}
		if err := c.Dispatch(ctx, row); err != nil {
			runErr = err
			break
		}
	}

	run := c.Finish()
	if runErr != nil {
		return nil, runErr
	}
	return run, nil
}
