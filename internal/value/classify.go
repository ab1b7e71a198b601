package value

import (
	"math"
	"regexp"
	"strconv"
)

// plainFloat accepts an optional sign, digits with at most one decimal point,
// and an optional exponent. Hex floats, underscores, inf and nan are rejected.
var plainFloat = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// ParseNumber is the strict numeric parse used by Classify.
func ParseNumber(s string) (float64, bool) {
	if !plainFloat.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Classify converts one cell into a number, a date or text, in that order of precedence.
func Classify(cell string) Typed {
	if f, ok := ParseNumber(cell); ok {
		return Number(f)
	}
	if d, err := ParseDate(cell); err == nil {
		return Date(d)
	}
	return Text(cell)
}
