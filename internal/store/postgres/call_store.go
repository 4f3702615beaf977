package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// CallStore implements domain.CallStore using PostgreSQL.
type CallStore struct {
	pool *pgxpool.Pool
}

// NewCallStore creates a CallStore backed by the given connection pool.
func NewCallStore(pool *pgxpool.Pool) *CallStore {
	return &CallStore{pool: pool}
}

const callSelectCols = `id, event_id, member_id, proposed_outcome, COALESCE(justification, ''), is_reversed, created_at`

func scanCall(row pgx.Row) (domain.Call, error) {
	var c domain.Call
	err := row.Scan(&c.ID, &c.EventID, &c.MemberID, &c.ProposedOutcome, &c.Justification, &c.Reversed, &c.CreatedAt)
	if err != nil {
		return domain.Call{}, err
	}
	return c, nil
}

func (s *CallStore) Create(ctx context.Context, call domain.Call) error {
	const query = `
		INSERT INTO event_calls (id, event_id, member_id, proposed_outcome, justification, is_reversed, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		call.ID, call.EventID, call.MemberID, call.ProposedOutcome,
		call.Justification, call.Reversed, call.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create call %s: %w", call.ID, err)
	}
	return nil
}

func (s *CallStore) GetByID(ctx context.Context, id string) (domain.Call, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+callSelectCols+` FROM event_calls WHERE id = $1`, id)

	c, err := scanCall(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Call{}, domain.ErrNotFound
		}
		return domain.Call{}, fmt.Errorf("postgres: get call %s: %w", id, err)
	}
	return c, nil
}

// ListByEvent returns calls newest first, the order the active-call rule
// inspects them in.
func (s *CallStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Call, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+callSelectCols+` FROM event_calls
		 WHERE event_id = $1 ORDER BY created_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list calls: %w", err)
	}
	defer rows.Close()

	var calls []domain.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan call: %w", err)
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

func (s *CallStore) MarkReversed(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE event_calls SET is_reversed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: mark call reversed %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.CallStore = (*CallStore)(nil)
