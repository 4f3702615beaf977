package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// BetStore implements domain.BetStore using PostgreSQL.
type BetStore struct {
	pool *pgxpool.Pool
}

// NewBetStore creates a BetStore backed by the given connection pool.
func NewBetStore(pool *pgxpool.Pool) *BetStore {
	return &BetStore{pool: pool}
}

const betSelectCols = `id, event_id, member_id, outcome_name, stake_mofus, price_at_bet, created_at`

func scanBet(row pgx.Row) (domain.Bet, error) {
	var b domain.Bet
	err := row.Scan(&b.ID, &b.EventID, &b.MemberID, &b.Outcome, &b.StakeMofus, &b.PriceAtBet, &b.CreatedAt)
	if err != nil {
		return domain.Bet{}, err
	}
	return b, nil
}

func (s *BetStore) Create(ctx context.Context, bet domain.Bet) error {
	const query = `
		INSERT INTO bets (id, event_id, member_id, outcome_name, stake_mofus, price_at_bet, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		bet.ID, bet.EventID, bet.MemberID, bet.Outcome,
		bet.StakeMofus, bet.PriceAtBet, bet.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create bet %s: %w", bet.ID, err)
	}
	return nil
}

// ListByEvent returns bets in placement order, ties broken by id so the
// ordering is stable across reads.
func (s *BetStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Bet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+betSelectCols+` FROM bets
		 WHERE event_id = $1 ORDER BY created_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets by event: %w", err)
	}
	defer rows.Close()

	return collectBets(rows)
}

func (s *BetStore) ListByParty(ctx context.Context, partyID string, opts domain.ListOpts) ([]domain.Bet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT b.id, b.event_id, b.member_id, b.outcome_name, b.stake_mofus, b.price_at_bet, b.created_at
		 FROM bets b
		 JOIN events e ON e.id = b.event_id
		 WHERE e.party_id = $1
		 ORDER BY b.created_at DESC, b.id DESC
		 LIMIT $2 OFFSET $3`, partyID, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets by party: %w", err)
	}
	defer rows.Close()

	return collectBets(rows)
}

func collectBets(rows pgx.Rows) ([]domain.Bet, error) {
	var bets []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

var _ domain.BetStore = (*BetStore)(nil)
