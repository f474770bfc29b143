package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jitsports/sportsroom/internal/domain"
)

type IdentityRepository interface {
	GetOrCreateByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id int64) (*domain.Identity, error)
}

type identityRepository struct {
	pool *pgxpool.Pool
}

func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

const identityCols = `id, email, name, provisioned, created_at`

// GetOrCreateByEmail lazily creates an identity shell for an address that has
// never been seen. The shell holds codes but stays unprovisioned until the
// first successful verification.
func (r *identityRepository) GetOrCreateByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	const q = `
		INSERT INTO identities (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = excluded.email
		RETURNING ` + identityCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var i domain.Identity
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&i.ID, &i.Email, &i.Name, &i.Provisioned, &i.CreatedAt,
	)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return &i, nil
}

func (r *identityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	const q = `SELECT ` + identityCols + ` FROM identities WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var i domain.Identity
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&i.ID, &i.Email, &i.Name, &i.Provisioned, &i.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &i, mapStorageErr(err)
}

func (r *identityRepository) FindByID(ctx context.Context, id int64) (*domain.Identity, error) {
	const q = `SELECT ` + identityCols + ` FROM identities WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var i domain.Identity
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&i.ID, &i.Email, &i.Name, &i.Provisioned, &i.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &i, mapStorageErr(err)
}
