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

// PartyStore implements domain.PartyStore using PostgreSQL.
type PartyStore struct {
	pool *pgxpool.Pool
}

// NewPartyStore creates a PartyStore backed by the given connection pool.
func NewPartyStore(pool *pgxpool.Pool) *PartyStore {
	return &PartyStore{pool: pool}
}

const partySelectCols = `id, slug, name, party_code, starting_mofus, created_by_display_name, created_at`

func scanParty(row pgx.Row) (domain.Party, error) {
	var p domain.Party
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Code, &p.StartingMofus, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return domain.Party{}, err
	}
	return p, nil
}

// Create inserts a new party. A unique-constraint collision on the slug or
// join code surfaces as domain.ErrAlreadyExists so the service layer can
// regenerate and retry.
func (s *PartyStore) Create(ctx context.Context, party domain.Party) error {
	const query = `
		INSERT INTO parties (id, slug, name, party_code, starting_mofus, created_by_display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		party.ID, party.Slug, party.Name, party.Code,
		party.StartingMofus, party.CreatedBy, party.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create party %s: %w", party.ID, err)
	}
	return nil
}

func (s *PartyStore) GetByID(ctx context.Context, id string) (domain.Party, error) {
	return s.getBy(ctx, "id", id)
}

func (s *PartyStore) GetBySlug(ctx context.Context, slug string) (domain.Party, error) {
	return s.getBy(ctx, "slug", slug)
}

func (s *PartyStore) GetByCode(ctx context.Context, code string) (domain.Party, error) {
	return s.getBy(ctx, "party_code", code)
}

func (s *PartyStore) getBy(ctx context.Context, col, value string) (domain.Party, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+partySelectCols+` FROM parties WHERE `+col+` = $1`, value)

	p, err := scanParty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Party{}, domain.ErrNotFound
		}
		return domain.Party{}, fmt.Errorf("postgres: get party by %s: %w", col, err)
	}
	return p, nil
}

var _ domain.PartyStore = (*PartyStore)(nil)
