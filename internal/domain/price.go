package domain

import "time"

// PricePoint is an append-only price history record. One point per outcome
// is written after every stake-affecting operation and on resolution. The
// terminal points written at resolution (price exactly 0 or 1) are the only
// ones ever removed, and only when that resolution is reversed.
type PricePoint struct {
	ID        int64     `json:"id,omitempty"`
	EventID   string    `json:"event_id"`
	Outcome   string    `json:"outcome_name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
