package aggregate

import "time"

// SummaryKind names the variant of a Summary.
type SummaryKind string

const (
	SummaryText   SummaryKind = "text"
	SummaryNumber SummaryKind = "number"
	SummaryDate   SummaryKind = "date"
)

// Summary is the finished, immutable statistics of one column.
// It is one of TextSummary, NumberSummary or DateSummary.
type Summary interface {
	Kind() SummaryKind
}

// TextSummary describes a categorical column.
type TextSummary struct {
	Categories    []string // sorted, no duplicates
	CategoryCount int
}

func (TextSummary) Kind() SummaryKind { return SummaryText }

// NumberSummary describes a numeric column.
type NumberSummary struct {
	Count  int64
	Sum    float64
	Mean   float64
	Median float64
	// Variance is the Bessel-corrected sample variance; Std is its square root.
	// Both are only meaningful when VarianceDefined is set (Count >= 2).
	Variance        float64
	Std             float64
	VarianceDefined bool
	// Anomalies counts text or date values received after or before the numeric commit.
	Anomalies int64
}

func (NumberSummary) Kind() SummaryKind { return SummaryNumber }

// DateSummary describes a date column.
type DateSummary struct {
	Count     int64
	Earliest  time.Time
	Latest    time.Time
	Anomalies int64
}

func (DateSummary) Kind() SummaryKind { return SummaryDate }

// Result is what an aggregator hands back when it finalizes.
// Summary is nil when no statistics could be built; Err may be set alongside a
// non-nil Summary for recoverable conditions such as InsufficientDataError.
type Result struct {
	Column  string
	Summary Summary
	Err     error
}
