package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// EventStore implements domain.EventStore using PostgreSQL.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates an EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

const eventSelectCols = `id, party_id, title, COALESCE(description, ''), status, COALESCE(final_outcome, ''), created_at`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.PartyID, &e.Title, &e.Description, &e.Status, &e.FinalOutcome, &e.CreatedAt)
	if err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

// Create inserts the event and its outcome set in one transaction so an
// event can never exist without outcomes.
func (s *EventStore) Create(ctx context.Context, event domain.Event, outcomes []domain.Outcome) error {
	if len(outcomes) == 0 {
		return domain.ErrEmptyOutcomeSet
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin create event: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertEvent = `
		INSERT INTO events (id, party_id, title, description, status, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
	if _, err := tx.Exec(ctx, insertEvent,
		event.ID, event.PartyID, event.Title, event.Description,
		string(event.Status), event.CreatedAt,
	); err != nil {
		return fmt.Errorf("postgres: create event %s: %w", event.ID, err)
	}

	const insertOutcome = `
		INSERT INTO event_outcomes (event_id, name, color, display_order, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	for _, o := range outcomes {
		if _, err := tx.Exec(ctx, insertOutcome,
			event.ID, o.Name, o.Color, o.DisplayOrder, o.CreatedAt,
		); err != nil {
			return fmt.Errorf("postgres: create outcome %q for event %s: %w", o.Name, event.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit create event %s: %w", event.ID, err)
	}
	return nil
}

func (s *EventStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+eventSelectCols+` FROM events WHERE id = $1`, id)

	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("postgres: get event %s: %w", id, err)
	}
	return e, nil
}

func (s *EventStore) ListByParty(ctx context.Context, partyID string) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventSelectCols+` FROM events
		 WHERE party_id = $1 ORDER BY created_at DESC`, partyID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *EventStore) ListOutcomes(ctx context.Context, eventID string) ([]domain.Outcome, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_id, name, color, display_order, created_at FROM event_outcomes
		 WHERE event_id = $1 ORDER BY display_order ASC, name ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.Outcome
	for rows.Next() {
		var o domain.Outcome
		if err := rows.Scan(&o.EventID, &o.Name, &o.Color, &o.DisplayOrder, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func (s *EventStore) UpdateTitle(ctx context.Context, id, title string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE events SET title = $2 WHERE id = $1`, id, title)
	if err != nil {
		return fmt.Errorf("postgres: update event title %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.EventStore = (*EventStore)(nil)
