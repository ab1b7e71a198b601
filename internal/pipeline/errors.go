package pipeline

import (
	"errors"
	"fmt"

	"github.com/jamwojt/csv-sumup/internal/value"
)

// ErrAggregatorGone is wrapped by DeliveryError when the receiving aggregator has
// already finalized.
var ErrAggregatorGone = errors.New("aggregator is gone")

// ErrNoColumns is returned when a run is started without any column.
var ErrNoColumns = errors.New("no columns to summarize")

// DeliveryError reports a value that could not be forwarded to its column. It is
// recoverable: the value is skipped and the run continues.
type DeliveryError struct {
	Column string
	Row    int64 // 1-based data row; 0 for the end-of-stream sentinel
	Kind   value.Kind
}

func (e *DeliveryError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("column %q: end-of-stream not delivered: %v", e.Column, ErrAggregatorGone)
	}
	return fmt.Sprintf("column %q: row %d %s value skipped: %v", e.Column, e.Row, e.Kind, ErrAggregatorGone)
}

func (e *DeliveryError) Unwrap() error { return ErrAggregatorGone }

// JoinError reports an aggregator that terminated abnormally before producing its summary.
type JoinError struct {
	Column string
	Err    error
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("aggregator did not finish: %v", e.Err)
}

func (e *JoinError) Unwrap() error { return e.Err }

// RowShapeError reports a data row with fewer cells than there are columns.
type RowShapeError struct {
	Row  int64
	Got  int
	Want int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("row %d has %d cells, expected %d", e.Row, e.Got, e.Want)
}
