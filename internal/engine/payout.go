package engine

import "sort"

// Distribute computes exact-integer payouts for the winning side of a
// settled event. Each winner's entitlement is their own stake back plus a
// share of the losing pool proportional to their share of the winning pool:
//
//	payout(i) = stake(i) + stake(i)/totalWinning * totalLosing
//
// Entitlements are rounded with the largest-remainder method: every winner
// first receives the floor of their entitlement, then the leftover units
// (always fewer than the number of winners) go one each to the winners with
// the largest fractional remainder, ties broken by input order. This is the
// rounding rule that makes the totals conserve exactly:
//
//	sum(payouts) == totalWinning + totalLosing
//
// If either pool is zero there is nothing to transfer and every payout is
// the winner's own stake. The computation is pure integer arithmetic and
// therefore deterministic, which settlement reversal depends on.
func Distribute(winningStakes []int64, totalWinning, totalLosing int64) []int64 {
	payouts := make([]int64, len(winningStakes))

	if totalWinning == 0 || totalLosing == 0 {
		copy(payouts, winningStakes)
		return payouts
	}

	type remainder struct {
		idx  int
		frac int64 // (stake*totalLosing) mod totalWinning, the fractional part scaled by totalWinning
	}

	remainders := make([]remainder, len(winningStakes))
	var distributed int64
	for i, stake := range winningStakes {
		share := stake * totalLosing / totalWinning
		payouts[i] = stake + share
		distributed += share
		remainders[i] = remainder{idx: i, frac: stake * totalLosing % totalWinning}
	}

	// Leftover units lost to flooring; strictly fewer than len(winningStakes).
	leftover := totalLosing - distributed

	sort.SliceStable(remainders, func(i, j int) bool {
		return remainders[i].frac > remainders[j].frac
	})
	for k := int64(0); k < leftover; k++ {
		payouts[remainders[k].idx]++
	}

	return payouts
}
