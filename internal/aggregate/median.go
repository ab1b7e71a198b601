package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrNoValues is returned when a median is requested from an empty multiset.
var ErrNoValues = errors.New("no values")

var half = decimal.New(5, -1)

// FrequencyMap counts occurrences of each distinct value, keyed by its exact
// shortest decimal representation.
type FrequencyMap map[string]uint64

// Key returns the map key used for v.
func Key(v float64) string { return decimal.NewFromFloat(v).String() }

// Add records one occurrence of v.
func (f FrequencyMap) Add(v float64) { f[Key(v)]++ }

// Total returns the number of occurrences folded into the map.
func (f FrequencyMap) Total() uint64 {
	var n uint64
	for _, c := range f {
		n += c
	}
	return n
}

// MedianFromFrequencies returns the exact median of the multiset described by f.
//
// Distinct values are sorted and two cursors eliminate occurrences from both ends
// in bulk until one or two occurrences remain in the middle. The work is
// proportional to the number of distinct values, never to the total count.
// f is not modified.
func MedianFromFrequencies(f FrequencyMap) (float64, error) {
	type bucket struct {
		v     decimal.Decimal
		count uint64
	}
	buckets := make([]bucket, 0, len(f))
	var remaining uint64
	for k, c := range f {
		if c == 0 {
			continue
		}
		d, err := decimal.NewFromString(k)
		if err != nil {
			return 0, fmt.Errorf("frequency key %q: %w", k, err)
		}
		buckets = append(buckets, bucket{v: d, count: c})
		remaining += c
	}
	if remaining == 0 {
		return 0, ErrNoValues
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].v.LessThan(buckets[j].v) })

	left, right := 0, len(buckets)-1
	for {
		for buckets[left].count == 0 {
			left++
		}
		for buckets[right].count == 0 {
			right--
		}
		if remaining <= 2 || left == right {
			break
		}
		k := min(buckets[left].count, buckets[right].count, (remaining-1)/2)
		buckets[left].count -= k
		buckets[right].count -= k
		remaining -= 2 * k
	}
	if left == right {
		return buckets[left].v.InexactFloat64(), nil
	}
	mid := buckets[left].v.Add(buckets[right].v).Mul(half)
	return mid.InexactFloat64(), nil
}
