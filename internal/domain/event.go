package domain

import "time"

// EventStatus represents the resolution state of an event.
type EventStatus string

const (
	EventStatusOpen     EventStatus = "open"
	EventStatusResolved EventStatus = "resolved"
)

// Event is a question members bet on. FinalOutcome is set only while the
// event is resolved; reversing a confirmation clears it and reopens the
// event.
type Event struct {
	ID           string      `json:"id"`
	PartyID      string      `json:"party_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Status       EventStatus `json:"status"`
	FinalOutcome string      `json:"final_outcome,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Outcome is one of the possible results of an event. Name is unique within
// the event; Color and DisplayOrder are cosmetic and play no role in
// pricing or settlement.
type Outcome struct {
	EventID      string    `json:"event_id"`
	Name         string    `json:"name"`
	Color        string    `json:"color"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}
