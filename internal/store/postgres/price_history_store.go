package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// PriceHistoryStore implements domain.PriceHistoryStore using PostgreSQL.
type PriceHistoryStore struct {
	pool *pgxpool.Pool
}

// NewPriceHistoryStore creates a PriceHistoryStore backed by the given
// connection pool.
func NewPriceHistoryStore(pool *pgxpool.Pool) *PriceHistoryStore {
	return &PriceHistoryStore{pool: pool}
}

func (s *PriceHistoryStore) Append(ctx context.Context, points []domain.PricePoint) error {
	return appendPricePoints(ctx, s.pool, points)
}

func appendPricePoints(ctx context.Context, q querier, points []domain.PricePoint) error {
	const query = `
		INSERT INTO outcome_price_history (event_id, outcome_name, price, created_at)
		VALUES ($1, $2, $3, $4)`
	for _, p := range points {
		if _, err := q.Exec(ctx, query, p.EventID, p.Outcome, p.Price, p.CreatedAt); err != nil {
			return fmt.Errorf("postgres: append price point %s/%s: %w", p.EventID, p.Outcome, err)
		}
	}
	return nil
}

func (s *PriceHistoryStore) ListByEvent(ctx context.Context, eventID string) ([]domain.PricePoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_id, outcome_name, price, created_at FROM outcome_price_history
		 WHERE event_id = $1 ORDER BY id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list price history: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.ID, &p.EventID, &p.Outcome, &p.Price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan price point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// DeleteTerminal removes the resolution-time points, which are the only
// rows ever written with a price of exactly 0 or 1.
func (s *PriceHistoryStore) DeleteTerminal(ctx context.Context, eventID string) error {
	return deleteTerminalPoints(ctx, s.pool, eventID)
}

func deleteTerminalPoints(ctx context.Context, q querier, eventID string) error {
	_, err := q.Exec(ctx,
		`DELETE FROM outcome_price_history WHERE event_id = $1 AND price IN (0, 1)`, eventID)
	if err != nil {
		return fmt.Errorf("postgres: delete terminal price points %s: %w", eventID, err)
	}
	return nil
}

var _ domain.PriceHistoryStore = (*PriceHistoryStore)(nil)
