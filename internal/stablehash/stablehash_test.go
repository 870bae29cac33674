package stablehash

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	seeds := []string{"CVS Pharmacy", "Costco Pharmacy", "Walgreens #401", "", "metformin|cvs"}
	for _, seed := range seeds {
		first := Score(seed)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Score(seed), "seed %q must be stable", seed)
		}
		assert.GreaterOrEqual(t, first, 0.0)
		assert.Less(t, first, 1.0)
	}
}

func TestScoreSpreads(t *testing.T) {
	t.Parallel()

	// Distinct seeds should not all collapse to one value.
	seen := map[float64]bool{}
	for i := 0; i < 50; i++ {
		seen[Score(fmt.Sprintf("pharmacy-%d", i))] = true
	}
	assert.Greater(t, len(seen), 25)
}

func TestInterpolateBounds(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		v := Interpolate(fmt.Sprintf("seed-%d", i), 1.25, 1.75)
		assert.GreaterOrEqual(t, v, 1.25)
		assert.Less(t, v, 1.75)
	}
}

func TestVariationBounds(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		v := Variation(fmt.Sprintf("seed-%d", i), 0.12)
		assert.GreaterOrEqual(t, v, 0.88)
		assert.Less(t, v, 1.12)
	}
}

func TestBucket(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		b := Bucket(fmt.Sprintf("seed-%d", i), 10)
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 10)
	}
	assert.Equal(t, Bucket("CVS", 10), Bucket("CVS", 10))
}
