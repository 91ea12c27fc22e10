package leaderboard

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func distributionEntries(n int) []Entry {
	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = Entry{Member: fmt.Sprintf("user%03d", i), Score: float64(i)}
	}
	return entries
}

func TestSampleDistributionPassthrough(t *testing.T) {
	entries := distributionEntries(30)

	points := sampleDistribution(entries, "user007", 100, rand.New(rand.NewSource(1)))

	require.Len(t, points, 30)
	highlighted := 0
	for i, p := range points {
		assert.Equal(t, float64(i), p.Value)
		if p.ShowVerticalLine {
			highlighted++
			assert.Equal(t, float64(7), p.Value)
		}
	}
	assert.Equal(t, 1, highlighted)
}

func TestSampleDistributionDrawsFixedSize(t *testing.T) {
	entries := distributionEntries(500)
	rng := rand.New(rand.NewSource(42))

	points := sampleDistribution(entries, "", 100, rng)

	// Over the threshold the draw size is the fixed constant regardless of
	// how far over the set is.
	assert.Len(t, points, distributionSampleSize)
	for i := 1; i < len(points); i++ {
		assert.LessOrEqual(t, points[i-1].Value, points[i].Value)
	}
}

func TestSampleDistributionAlwaysKeepsRequester(t *testing.T) {
	entries := distributionEntries(500)

	// Across many seeds the requester's point must survive the draw exactly
	// once, whether or not it was part of the random sample.
	for seed := int64(0); seed < 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		points := sampleDistribution(entries, "user123", 100, rng)

		highlighted := 0
		for _, p := range points {
			if p.ShowVerticalLine {
				highlighted++
				assert.Equal(t, float64(123), p.Value)
			}
		}
		require.Equal(t, 1, highlighted, "seed %d", seed)
		assert.LessOrEqual(t, len(points), distributionSampleSize+1)
	}
}

func TestSampleDistributionSmallSetOverThreshold(t *testing.T) {
	// 40 entries with a threshold of 10: over the threshold but under the
	// fixed draw size, so the draw is capped at the set size.
	entries := distributionEntries(40)
	rng := rand.New(rand.NewSource(7))

	points := sampleDistribution(entries, "user020", 10, rng)

	assert.Len(t, points, 40)
	highlighted := 0
	for _, p := range points {
		if p.ShowVerticalLine {
			highlighted++
		}
	}
	assert.Equal(t, 1, highlighted)
}

func TestSampleDistributionRequesterAbsent(t *testing.T) {
	entries := distributionEntries(200)
	rng := rand.New(rand.NewSource(3))

	points := sampleDistribution(entries, "stranger", 100, rng)

	assert.Len(t, points, distributionSampleSize)
	for _, p := range points {
		assert.False(t, p.ShowVerticalLine)
	}
}
