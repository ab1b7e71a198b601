package aggregate

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func naiveMedian(xs []float64) float64 {
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	n := len(cp)
	if n%2 == 1 {
		return cp[n/2]
	}
	return (cp[n/2-1] + cp[n/2]) / 2
}

func freqOf(xs ...float64) FrequencyMap {
	f := make(FrequencyMap)
	for _, x := range xs {
		f.Add(x)
	}
	return f
}

func TestMedianFromFrequenciesCases(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"single", []float64{7}, 7},
		{"single repeated", []float64{3, 3, 3, 3}, 3},
		{"odd", []float64{1, 2, 3}, 2},
		{"even", []float64{1, 2, 3, 4}, 2.5},
		{"pair", []float64{1, 2}, 1.5},
		{"repeats low heavy", []float64{1, 1, 1, 2, 3}, 1},
		{"repeats high heavy", []float64{1, 5, 5}, 5},
		{"repeats even", []float64{1, 1, 2, 2}, 1.5},
		{"even same middle", []float64{1, 1, 1, 5}, 1},
		{"negative", []float64{-10, -2.5, 0, 4}, -1.25},
		{"scores", []float64{10, 20, 10}, 10},
		{"decimals", []float64{0.1, 0.2}, 0.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MedianFromFrequencies(freqOf(tt.xs...))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestMedianMatchesSortedReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 300; trial++ {
		n := 1 + rng.Intn(60)
		distinct := 1 + rng.Intn(8)
		xs := make([]float64, n)
		for i := range xs {
			// few distinct values so repeats are common
			xs[i] = float64(rng.Intn(distinct)) * 0.5
			if rng.Intn(4) == 0 {
				xs[i] = -xs[i]
			}
		}
		got, err := MedianFromFrequencies(freqOf(xs...))
		require.NoError(t, err)
		assert.InDelta(t, naiveMedian(xs), got, 1e-12, "xs=%v", xs)
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	f := freqOf(1, 2, 2, 3)
	_, err := MedianFromFrequencies(f)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), f.Total())
	assert.Equal(t, uint64(2), f[Key(2)])
}

func TestMedianEmpty(t *testing.T) {
	_, err := MedianFromFrequencies(FrequencyMap{})
	assert.ErrorIs(t, err, ErrNoValues)
	_, err = MedianFromFrequencies(FrequencyMap{"5": 0})
	assert.ErrorIs(t, err, ErrNoValues)
}

func TestFrequencyKeysAreExactDecimals(t *testing.T) {
	assert.Equal(t, "0.1", Key(0.1))
	assert.Equal(t, "10", Key(10))
	assert.Equal(t, "-2.5", Key(-2.5))
	assert.Equal(t, Key(1e-3), Key(0.001))
}
