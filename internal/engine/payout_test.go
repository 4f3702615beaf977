package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(vals []int64) int64 {
	var total int64
	for _, v := range vals {
		total += v
	}
	return total
}

func TestDistribute_ExactShares(t *testing.T) {
	// A stakes 100, B stakes 50 on the winning side; 150 lost on the other.
	// Entitlements divide exactly: 100 + (100/150)*150 = 200, 50 + (50/150)*150 = 100.
	payouts := Distribute([]int64{100, 50}, 150, 150)

	require.Len(t, payouts, 2)
	assert.Equal(t, int64(200), payouts[0])
	assert.Equal(t, int64(100), payouts[1])
	assert.Equal(t, int64(300), sum(payouts))
}

func TestDistribute_LargestRemainderRounding(t *testing.T) {
	// A stakes 1, B stakes 2; losing pool 2. Raw entitlements are 1.667 and
	// 3.333; the single leftover unit goes to A, whose fractional remainder
	// (0.667) is larger.
	payouts := Distribute([]int64{1, 2}, 3, 2)

	require.Len(t, payouts, 2)
	assert.Equal(t, int64(2), payouts[0])
	assert.Equal(t, int64(3), payouts[1])
	assert.Equal(t, int64(5), sum(payouts))
}

func TestDistribute_TieBrokenByInputOrder(t *testing.T) {
	// Equal stakes, odd losing pool: both remainders are 0.5, so the
	// earlier bet wins the leftover unit.
	payouts := Distribute([]int64{5, 5}, 10, 3)

	require.Len(t, payouts, 2)
	assert.Equal(t, int64(7), payouts[0])
	assert.Equal(t, int64(6), payouts[1])
	assert.Equal(t, int64(13), sum(payouts))
}

func TestDistribute_NoLosingStake(t *testing.T) {
	payouts := Distribute([]int64{40, 60}, 100, 0)

	assert.Equal(t, []int64{40, 60}, payouts)
}

func TestDistribute_NoWinningStake(t *testing.T) {
	// Defined edge case: nothing to divide by, everyone keeps their stake.
	payouts := Distribute([]int64{}, 0, 500)

	assert.Empty(t, payouts)
}

func TestDistribute_Conservation(t *testing.T) {
	cases := []struct {
		name   string
		stakes []int64
		losing int64
	}{
		{"single winner", []int64{1}, 999},
		{"two equal", []int64{10, 10}, 7},
		{"prime pool", []int64{3, 5, 7, 11}, 13},
		{"skewed", []int64{1, 1, 1, 997}, 123},
		{"large values", []int64{123456, 654321, 111111}, 999999},
		{"ones", []int64{1, 1, 1, 1, 1, 1, 1}, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totalWinning := sum(tc.stakes)
			payouts := Distribute(tc.stakes, totalWinning, tc.losing)

			require.Len(t, payouts, len(tc.stakes))
			assert.Equal(t, totalWinning+tc.losing, sum(payouts),
				"payouts must conserve the full pool exactly")
			for i, p := range payouts {
				assert.GreaterOrEqual(t, p, tc.stakes[i],
					"a winner never receives less than their own stake")
			}
		})
	}
}

func TestDistribute_Deterministic(t *testing.T) {
	stakes := []int64{17, 3, 42, 8, 8, 25}
	first := Distribute(stakes, sum(stakes), 61)
	second := Distribute(stakes, sum(stakes), 61)

	assert.Equal(t, first, second, "identical input must yield identical payouts")
}

func TestDistribute_DoesNotMutateInput(t *testing.T) {
	stakes := []int64{1, 2, 3}
	Distribute(stakes, 6, 10)

	assert.Equal(t, []int64{1, 2, 3}, stakes)
}
