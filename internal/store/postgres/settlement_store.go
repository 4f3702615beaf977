package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// SettlementStore applies settlement output in a single transaction: the
// event status flip, every balance delta, and the price history mutation
// commit together or not at all.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore creates a SettlementStore backed by the given
// connection pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

func (s *SettlementStore) ApplySettlement(ctx context.Context, eventID, finalOutcome string, deltas []domain.BalanceDelta, points []domain.PricePoint) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	// The status guard doubles as a lock against concurrent settlement:
	// only one transaction can flip the row from open to resolved.
	tag, err := tx.Exec(ctx,
		`UPDATE events SET status = 'resolved', final_outcome = $2
		 WHERE id = $1 AND status = 'open'`, eventID, finalOutcome)
	if err != nil {
		return fmt.Errorf("postgres: resolve event %s: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		if err := s.checkEventExists(ctx, eventID); err != nil {
			return err
		}
		return domain.ErrEventNotOpen
	}

	if err := applyDeltas(ctx, tx, deltas); err != nil {
		return err
	}
	if err := appendPricePoints(ctx, tx, points); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit settlement %s: %w", eventID, err)
	}
	return nil
}

func (s *SettlementStore) ApplyReversal(ctx context.Context, eventID string, deltas []domain.BalanceDelta) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin reversal: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE events SET status = 'open', final_outcome = NULL
		 WHERE id = $1 AND status = 'resolved'`, eventID)
	if err != nil {
		return fmt.Errorf("postgres: reopen event %s: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		if err := s.checkEventExists(ctx, eventID); err != nil {
			return err
		}
		return domain.ErrEventNotResolved
	}

	if err := applyDeltas(ctx, tx, deltas); err != nil {
		return err
	}
	if err := deleteTerminalPoints(ctx, tx, eventID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit reversal %s: %w", eventID, err)
	}
	return nil
}

// applyDeltas nets the deltas per member before touching balances, so a
// member who both wins and loses is judged on the aggregate.
func applyDeltas(ctx context.Context, q querier, deltas []domain.BalanceDelta) error {
	net := make(map[string]int64, len(deltas))
	order := make([]string, 0, len(deltas))
	for _, d := range deltas {
		if _, seen := net[d.MemberID]; !seen {
			order = append(order, d.MemberID)
		}
		net[d.MemberID] += d.Amount
	}

	for _, memberID := range order {
		amount := net[memberID]
		if amount == 0 {
			continue
		}
		if err := adjustBalance(ctx, q, memberID, amount); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettlementStore) checkEventExists(ctx context.Context, eventID string) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)", eventID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("postgres: check event %s: %w", eventID, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.SettlementStore = (*SettlementStore)(nil)
