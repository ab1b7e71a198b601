// Package aggregate holds the per-column aggregators and the statistics they produce.
package aggregate

import (
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"

	"github.com/jamwojt/csv-sumup/internal/value"
)

// Lifecycle is the state of an Aggregator.
type Lifecycle int32

const (
	// Running: consuming values from the inbound channel.
	Running Lifecycle = iota
	// Draining: the sentinel arrived; no more input is read and the summary is being built.
	Draining
	// Finalized: the result is available through Wait.
	Finalized
)

func (l Lifecycle) String() string {
	switch l {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithObserver registers fn to be called, from the aggregator goroutine, for every
// value it consumes before the sentinel.
func WithObserver(fn func(value.Typed)) Option {
	return func(a *Aggregator) { a.observe = fn }
}

// Aggregator owns the State of one column and is fed through its own channel.
type Aggregator struct {
	column  string
	in      chan value.Typed
	done    chan struct{}
	state   atomic.Int32
	observe func(value.Typed)
	result  Result
}

// New creates an aggregator for column whose inbound channel holds up to buffer values.
// Call Run in its own goroutine.
func New(column string, buffer int, opts ...Option) *Aggregator {
	if buffer < 0 {
		buffer = 0
	}
	a := &Aggregator{
		column: column,
		in:     make(chan value.Typed, buffer),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Column returns the column name.
func (a *Aggregator) Column() string { return a.column }

// Input is the inbound channel. Values must be followed by exactly one value.EndOfStream.
func (a *Aggregator) Input() chan<- value.Typed { return a.in }

// Done is closed once the aggregator has finalized, normally or not.
func (a *Aggregator) Done() <-chan struct{} { return a.done }

// State reports the current lifecycle state.
func (a *Aggregator) State() Lifecycle { return Lifecycle(a.state.Load()) }

// Run consumes values until the sentinel arrives, then finalizes. A panic while
// consuming or summarizing is captured into the Result as a *PanicError.
func (a *Aggregator) Run() {
	defer close(a.done)
	var pc panics.Catcher
	pc.Try(func() { a.result = a.consume() })
	if r := pc.Recovered(); r != nil {
		a.result = Result{Column: a.column, Err: &PanicError{Column: a.column, Value: r.Value, Stack: r.Stack}}
	}
	a.state.Store(int32(Finalized))
}

// Wait blocks until the aggregator finalizes and returns its result.
func (a *Aggregator) Wait() Result {
	<-a.done
	return a.result
}

func (a *Aggregator) consume() Result {
	st := NewState(a.column)
	for v := range a.in {
		if v.IsEnd() {
			break
		}
		if a.observe != nil {
			a.observe(v)
		}
		st.Observe(v)
	}
	a.state.Store(int32(Draining))
	sum, err := st.Summarize()
	return Result{Column: a.column, Summary: sum, Err: err}
}
