// Package engine implements the pricing and settlement core of mofumarket.
// Everything in this package is a pure function over snapshots: the engine
// reads nothing from storage and mutates nothing, it only emits delta
// instructions (balance changes, price points) for the service layer to
// apply inside a transaction.
package engine

import (
	"sort"
	"time"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// Price derives per-outcome probabilities from the current stake pool using
// Laplace (add-one) smoothing:
//
//	prob(o) = (stake(o) + 1) / (total + len(stakes))
//
// Every probability lies strictly in (0,1) and the set sums to 1. With no
// stakes at all, outcomes are equiprobable. Price per unit share is defined
// as the probability itself. The only failure is an empty outcome set.
func Price(stakes map[string]int64) (map[string]float64, error) {
	if len(stakes) == 0 {
		return nil, domain.ErrEmptyOutcomeSet
	}

	var total int64
	for _, stake := range stakes {
		total += stake
	}
	denom := float64(total) + float64(len(stakes))

	prices := make(map[string]float64, len(stakes))
	for name, stake := range stakes {
		prices[name] = (float64(stake) + 1) / denom
	}
	return prices, nil
}

// Snapshot prices the given stake pool and returns one PricePoint per
// outcome, ordered by outcome name so repeated snapshots of the same pool
// are byte-for-byte identical. The caller appends the points to the price
// history after every stake-affecting operation.
func Snapshot(eventID string, stakes map[string]int64, at time.Time) ([]domain.PricePoint, error) {
	prices, err := Price(stakes)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(prices))
	for name := range prices {
		names = append(names, name)
	}
	sort.Strings(names)

	points := make([]domain.PricePoint, 0, len(names))
	for _, name := range names {
		points = append(points, domain.PricePoint{
			EventID:   eventID,
			Outcome:   name,
			Price:     prices[name],
			CreatedAt: at,
		})
	}
	return points, nil
}
