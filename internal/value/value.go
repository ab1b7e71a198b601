// Package value turns raw text cells into typed values.
package value

import (
	"fmt"
	"time"
)

// Kind tags the variant held by a Typed value.
type Kind uint8

const (
	KindText Kind = iota
	KindNumber
	KindDate
	// KindEnd marks the end-of-stream sentinel. It carries no data.
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindEnd:
		return "end"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Typed is one classified cell. Only the field matching Kind is meaningful.
type Typed struct {
	Kind   Kind
	Number float64
	Date   time.Time
	Text   string
}

// Number wraps a float as a typed value.
func Number(v float64) Typed { return Typed{Kind: KindNumber, Number: v} }

// Date wraps a calendar date. The time of day is dropped.
func Date(d time.Time) Typed {
	return Typed{Kind: KindDate, Date: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)}
}

// Text wraps a string that is neither a number nor a date.
func Text(s string) Typed { return Typed{Kind: KindText, Text: s} }

// EndOfStream is the termination sentinel sent once per column after the last row.
func EndOfStream() Typed { return Typed{Kind: KindEnd} }

// IsEnd reports whether v is the termination sentinel.
func (v Typed) IsEnd() bool { return v.Kind == KindEnd }

func (v Typed) String() string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("number(%g)", v.Number)
	case KindDate:
		return "date(" + v.Date.Format(DateLayout) + ")"
	case KindText:
		return fmt.Sprintf("text(%q)", v.Text)
	default:
		return v.Kind.String()
	}
}

// DateLayout is the canonical rendering of dates in reports.
const DateLayout = "2006-01-02"
