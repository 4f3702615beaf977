package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofulabs/mofumarket/internal/domain"
)

func TestPrice_EmptyOutcomeSet(t *testing.T) {
	_, err := Price(map[string]int64{})

	assert.ErrorIs(t, err, domain.ErrEmptyOutcomeSet)
}

func TestPrice_ZeroStakesEquiprobable(t *testing.T) {
	prices, err := Price(map[string]int64{"yes": 0, "no": 0})

	require.NoError(t, err)
	assert.InDelta(t, 0.5, prices["yes"], 1e-12)
	assert.InDelta(t, 0.5, prices["no"], 1e-12)
}

func TestPrice_LaplaceSmoothing(t *testing.T) {
	// (stake+1)/(total+n): yes = 101/152, no = 51/152.
	prices, err := Price(map[string]int64{"yes": 100, "no": 50})

	require.NoError(t, err)
	assert.InDelta(t, 101.0/152.0, prices["yes"], 1e-12)
	assert.InDelta(t, 51.0/152.0, prices["no"], 1e-12)
}

func TestPrice_NormalizationAndBounds(t *testing.T) {
	pools := []map[string]int64{
		{"a": 0, "b": 0, "c": 0},
		{"a": 1, "b": 0},
		{"a": 1000000, "b": 1},
		{"a": 3, "b": 5, "c": 7, "d": 11, "e": 13},
	}

	for _, stakes := range pools {
		prices, err := Price(stakes)
		require.NoError(t, err)

		var total float64
		for name, p := range prices {
			assert.Greater(t, p, 0.0, "price for %q must be strictly positive", name)
			assert.Less(t, p, 1.0, "price for %q must be strictly below one", name)
			total += p
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	}
}

func TestPrice_SmoothingFloorNeverReachesOne(t *testing.T) {
	// A runaway favourite approaches but never reaches probability 1.
	prev := 0.0
	for _, stake := range []int64{10, 1000, 100000, 10000000} {
		prices, err := Price(map[string]int64{"favourite": stake, "longshot": 0})
		require.NoError(t, err)

		p := prices["favourite"]
		assert.Greater(t, p, prev)
		assert.Less(t, p, 1.0)
		prev = p
	}
}

func TestSnapshot_OrderedByOutcome(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	points, err := Snapshot("evt-1", map[string]int64{"no": 20, "yes": 10, "maybe": 0}, at)

	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "maybe", points[0].Outcome)
	assert.Equal(t, "no", points[1].Outcome)
	assert.Equal(t, "yes", points[2].Outcome)

	var total float64
	for _, pt := range points {
		assert.Equal(t, "evt-1", pt.EventID)
		assert.Equal(t, at, pt.CreatedAt)
		total += pt.Price
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestSnapshot_EmptyOutcomeSet(t *testing.T) {
	_, err := Snapshot("evt-1", nil, time.Now())

	assert.ErrorIs(t, err, domain.ErrEmptyOutcomeSet)
}

// Floating-point sanity: the sum of smoothed probabilities is exact up to
// representation error even for awkward denominators.
func TestPrice_AwkwardDenominator(t *testing.T) {
	prices, err := Price(map[string]int64{"a": 1, "b": 1, "c": 1})
	require.NoError(t, err)

	total := prices["a"] + prices["b"] + prices["c"]
	assert.LessOrEqual(t, math.Abs(total-1.0), 1e-12)
}
