package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/jamwojt/csv-sumup/internal/value"
)

// ObservedKind is the inferred type of a column. It starts Undetermined (reported
// as text) and commits at most once, to Numeric or Date, on the first such value.
type ObservedKind uint8

const (
	Undetermined ObservedKind = iota
	Numeric
	Dated
)

func (k ObservedKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Dated:
		return "date"
	default:
		return "text"
	}
}

// commit moves an undetermined kind to to. Committed kinds never change.
func (k *ObservedKind) commit(to ObservedKind) {
	if *k == Undetermined {
		*k = to
	}
}

// State is the running aggregate of one column. It is owned by a single goroutine.
type State struct {
	column string
	kind   ObservedKind

	// numeric branch, Welford's online algorithm
	n    int64
	sum  float64
	mean float64
	m2   float64
	freq FrequencyMap

	// date branch
	dates    int64
	earliest time.Time
	latest   time.Time

	// text branch
	texts      int64
	categories map[string]struct{}
}

// NewState returns an empty state for the named column.
func NewState(column string) *State {
	return &State{
		column:     column,
		freq:       make(FrequencyMap),
		categories: make(map[string]struct{}),
	}
}

// Kind returns the currently observed kind.
func (s *State) Kind() ObservedKind { return s.kind }

// CategoryCount returns the number of distinct text values seen.
func (s *State) CategoryCount() int { return len(s.categories) }

// Observe folds one value into the state. The end-of-stream sentinel is ignored.
func (s *State) Observe(v value.Typed) {
	switch v.Kind {
	case value.KindNumber:
		s.kind.commit(Numeric)
		s.addNumber(v.Number)
	case value.KindDate:
		s.kind.commit(Dated)
		s.addDate(v.Date)
	case value.KindText:
		s.texts++
		s.categories[v.Text] = struct{}{}
	}
}

func (s *State) addNumber(x float64) {
	s.n++
	s.sum += x
	s.freq.Add(x)
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

func (s *State) addDate(d time.Time) {
	if s.dates == 0 || d.Before(s.earliest) {
		s.earliest = d
	}
	if s.dates == 0 || d.After(s.latest) {
		s.latest = d
	}
	s.dates++
}

// Summarize builds the summary matching the committed kind.
func (s *State) Summarize() (Summary, error) {
	switch s.kind {
	case Numeric:
		return s.numberSummary()
	case Dated:
		return DateSummary{
			Count:     s.dates,
			Earliest:  s.earliest,
			Latest:    s.latest,
			Anomalies: s.texts + s.n,
		}, nil
	default:
		cats := make([]string, 0, len(s.categories))
		for c := range s.categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		return TextSummary{Categories: cats, CategoryCount: len(cats)}, nil
	}
}

func (s *State) numberSummary() (Summary, error) {
	if s.n == 0 {
		return nil, &EmptyColumnError{Column: s.column}
	}
	median, err := MedianFromFrequencies(s.freq)
	if err != nil {
		return nil, &EmptyColumnError{Column: s.column}
	}
	sum := NumberSummary{
		Count:     s.n,
		Sum:       s.sum,
		Mean:      s.sum / float64(s.n),
		Median:    median,
		Anomalies: s.texts + s.dates,
	}
	if s.n < 2 {
		return sum, &InsufficientDataError{Column: s.column, Count: s.n}
	}
	sum.Variance = s.m2 / float64(s.n-1)
	sum.Std = math.Sqrt(sum.Variance)
	sum.VarianceDefined = true
	return sum, nil
}
