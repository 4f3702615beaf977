package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mofulabs/mofumarket/internal/domain"
)

// MemberStore implements domain.MemberStore using PostgreSQL.
type MemberStore struct {
	pool *pgxpool.Pool
}

// NewMemberStore creates a MemberStore backed by the given connection pool.
func NewMemberStore(pool *pgxpool.Pool) *MemberStore {
	return &MemberStore{pool: pool}
}

const memberSelectCols = `id, party_id, display_name, is_creator, balance_mofus, created_at`

func scanMember(row pgx.Row) (domain.Member, error) {
	var m domain.Member
	err := row.Scan(&m.ID, &m.PartyID, &m.DisplayName, &m.IsCreator, &m.BalanceMofus, &m.CreatedAt)
	if err != nil {
		return domain.Member{}, err
	}
	return m, nil
}

func (s *MemberStore) Create(ctx context.Context, member domain.Member) error {
	const query = `
		INSERT INTO party_members (id, party_id, display_name, is_creator, balance_mofus, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		member.ID, member.PartyID, member.DisplayName,
		member.IsCreator, member.BalanceMofus, member.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create member %s: %w", member.ID, err)
	}
	return nil
}

func (s *MemberStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+memberSelectCols+` FROM party_members WHERE id = $1`, id)

	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, domain.ErrNotFound
		}
		return domain.Member{}, fmt.Errorf("postgres: get member %s: %w", id, err)
	}
	return m, nil
}

func (s *MemberStore) GetByDisplayName(ctx context.Context, partyID, displayName string) (domain.Member, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+memberSelectCols+` FROM party_members WHERE party_id = $1 AND display_name = $2`,
		partyID, displayName)

	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, domain.ErrNotFound
		}
		return domain.Member{}, fmt.Errorf("postgres: get member %q in party %s: %w", displayName, partyID, err)
	}
	return m, nil
}

func (s *MemberStore) ListByParty(ctx context.Context, partyID string) ([]domain.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+memberSelectCols+` FROM party_members
		 WHERE party_id = $1 ORDER BY created_at ASC`, partyID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AdjustBalance applies a delta in a single guarded UPDATE. The read and
// write happen in one statement, so concurrent adjustments cannot lose
// updates; a delta that would push the balance below zero matches no row
// and is reported as ErrInsufficientBalance.
func (s *MemberStore) AdjustBalance(ctx context.Context, memberID string, delta int64) error {
	return adjustBalance(ctx, s.pool, memberID, delta)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the balance
// update can run standalone or inside a settlement transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func adjustBalance(ctx context.Context, q querier, memberID string, delta int64) error {
	const query = `
		UPDATE party_members
		SET balance_mofus = balance_mofus + $2
		WHERE id = $1 AND balance_mofus + $2 >= 0`

	tag, err := q.Exec(ctx, query, memberID, delta)
	if err != nil {
		return fmt.Errorf("postgres: adjust balance %s: %w", memberID, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing member from an uncovered debit.
		var exists bool
		if err := q.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM party_members WHERE id = $1)", memberID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: adjust balance %s: %w", memberID, err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrInsufficientBalance
	}
	return nil
}

func (s *MemberStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM party_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete member %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.MemberStore = (*MemberStore)(nil)
