package value

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// ErrNotADate is returned when the digit runs of a string do not yield a full, valid date.
var ErrNotADate = errors.New("not a date")

// MalformedDateTokenError reports a digit run that could not be read as an integer.
type MalformedDateTokenError struct {
	Token string
	Err   error
}

func (e *MalformedDateTokenError) Error() string {
	return fmt.Sprintf("malformed date token %q: %v", e.Token, e.Err)
}

func (e *MalformedDateTokenError) Unwrap() error { return e.Err }

// Is lets callers treat any malformed token as "not a date".
func (e *MalformedDateTokenError) Is(target error) bool { return target == ErrNotADate }

// maxDateTokens bounds how many digit runs are inspected.
const maxDateTokens = 3

type partialDate struct {
	year, month, day          int
	hasYear, hasMonth, hasDay bool
}

// ParseDate recovers a calendar date from the first three digit runs of s.
//
// A four digit run is the year (the first one only). Before a year is seen the
// other runs are read as day then month (D-M-YYYY); after it they are read as
// month then day (YYYY-M-D). Every non-digit rune separates runs, so adjacent
// separators produce empty runs, which are malformed.
func ParseDate(s string) (time.Time, error) {
	var p partialDate
	for i, tok := range splitDigitRuns(s) {
		if i == maxDateTokens {
			break
		}
		if len(tok) == 4 {
			if !p.hasYear {
				y, err := strconv.Atoi(tok)
				if err != nil {
					return time.Time{}, &MalformedDateTokenError{Token: tok, Err: err}
				}
				p.year, p.hasYear = y, true
			}
			continue
		}
		n, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return time.Time{}, &MalformedDateTokenError{Token: tok, Err: err}
		}
		switch {
		case !p.hasYear && !p.hasDay:
			p.day, p.hasDay = int(n), true
		case !p.hasYear:
			p.month, p.hasMonth = int(n), true
		case !p.hasMonth:
			p.month, p.hasMonth = int(n), true
		default:
			p.day, p.hasDay = int(n), true
		}
	}
	if !p.hasYear || !p.hasMonth || !p.hasDay {
		return time.Time{}, ErrNotADate
	}
	return civilDate(p.year, p.month, p.day)
}

// civilDate rejects out-of-range components instead of letting time.Date normalize them.
func civilDate(y, m, d int) (time.Time, error) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, ErrNotADate
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, ErrNotADate
	}
	return t, nil
}

// splitDigitRuns splits s on every rune that is not an ASCII digit, keeping empty runs.
func splitDigitRuns(s string) []string {
	out := make([]string, 0, maxDateTokens+1)
	start := 0
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		if r >= '0' && r <= '9' {
			i += width
			continue
		}
		out = append(out, s[start:i])
		i += width
		start = i
		if len(out) > maxDateTokens {
			return out
		}
	}
	return append(out, s[start:])
}
