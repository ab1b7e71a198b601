package aggregate

import "fmt"

// EmptyColumnError indicates a numeric column finalized without any real values.
type EmptyColumnError struct {
	Column string
}

func (e *EmptyColumnError) Error() string {
	return fmt.Sprintf("column %q: no numeric values, statistics unavailable", e.Column)
}

// InsufficientDataError indicates too few values for the sample variance.
// The rest of the summary is still valid.
type InsufficientDataError struct {
	Column string
	Count  int64
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("column %q: %d numeric value(s), sample variance needs at least 2", e.Column, e.Count)
}

// PanicError carries a panic recovered from a column aggregator.
type PanicError struct {
	Column string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("column %q: aggregator panicked: %v", e.Column, e.Value)
}
