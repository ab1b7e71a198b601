package value

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateOrders(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2021-05-01", day(2021, time.May, 1)},
		{"2021-5-1", day(2021, time.May, 1)},
		{"01-12-2021", day(2021, time.December, 1)},
		{"1-12-2021", day(2021, time.December, 1)},
		{"31/01/1999", day(1999, time.January, 31)},
		{"2020.02.29", day(2020, time.February, 29)},
		{"2021-05-01T10:30:00", day(2021, time.May, 1)},
		{"5-2021-7", day(2021, time.July, 5)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	start := day(1999, time.December, 25)
	for i := 0; i < 800; i += 7 {
		d := start.AddDate(0, 0, i)
		for _, s := range []string{
			d.Format("2006-01-02"),
			d.Format("2-1-2006"),
			d.Format("02-01-2006"),
		} {
			got, err := ParseDate(s)
			require.NoError(t, err, s)
			assert.True(t, d.Equal(got), "%s parsed as %v", s, got)
		}
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"2021-05",
		"05-2021",
		"12-05",
		"2021-13-01",
		"2021-02-30",
		"31-04-2021",
		"0-1-2021",
		"May 1, 2021",
		"2021--05-01",
		"hello",
		"99999999999-1-2021",
	} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrNotADate, in)
	}
}

func TestParseDateMalformedToken(t *testing.T) {
	_, err := ParseDate("2021--01")
	var mt *MalformedDateTokenError
	require.True(t, errors.As(err, &mt), "want MalformedDateTokenError, got %v", err)
	assert.Equal(t, "", mt.Token)
	assert.ErrorIs(t, err, ErrNotADate)
}

func TestParseDateOnlyFirstYearCounts(t *testing.T) {
	// The second four digit run is consumed but ignored, and the third token slot is used up.
	_, err := ParseDate("2021-2022-05")
	assert.ErrorIs(t, err, ErrNotADate)
}

func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{"10", KindNumber},
		{"-3.25", KindNumber},
		{"+.5", KindNumber},
		{"1e5", KindNumber},
		{"1.", KindNumber},
		{"20210501", KindNumber},
		{"2021", KindNumber},
		{"2021-05-01", KindDate},
		{"01-12-2021", KindDate},
		{"abc", KindText},
		{"", KindText},
		{"NaN", KindText},
		{"inf", KindText},
		{"0x1p4", KindText},
		{"1_000", KindText},
		{"1,5", KindText},
		{"1e400", KindText},
	}
	for _, tt := range tests {
		got := Classify(tt.in)
		assert.Equal(t, tt.kind, got.Kind, "Classify(%q)", tt.in)
	}
}

func TestClassifyCarriesPayload(t *testing.T) {
	assert.Equal(t, 13.5, Classify("13.5").Number)
	assert.Equal(t, "north", Classify("north").Text)
	assert.True(t, day(2021, time.January, 1).Equal(Classify("2021-01-01").Date))
	assert.True(t, EndOfStream().IsEnd())
	assert.False(t, Text("").IsEnd())
}
