package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jitsports/sportsroom/internal/domain"
)

type CodeRepository interface {
	// ReplaceActive supersedes any outstanding unconsumed code for the
	// identity and inserts a fresh one, atomically. Last-issued-wins.
	ReplaceActive(ctx context.Context, identityID int64, codeHash string, issuedAt, expiresAt time.Time) (*domain.OneTimeCode, error)

	// ActiveByIdentity returns the current outstanding code, or nil when
	// none exists. Expiry is the caller's check; superseded and consumed
	// rows are never returned.
	ActiveByIdentity(ctx context.Context, identityID int64) (*domain.OneTimeCode, error)

	// ConsumeAndProvision marks the code consumed exactly once and flips
	// the identity to provisioned, in one transaction. Returns false when
	// another verification got there first; either both writes land or
	// neither does, so a failed attempt never burns the code.
	ConsumeAndProvision(ctx context.Context, codeID, identityID int64, at time.Time) (bool, error)

	// DeleteExpired is storage hygiene; correctness never depends on it.
	DeleteExpired(ctx context.Context) (int64, error)
}

type codeRepository struct {
	pool *pgxpool.Pool
}

func NewCodeRepository(pool *pgxpool.Pool) CodeRepository {
	return &codeRepository{pool: pool}
}

const codeCols = `id, identity_id, code_hash, issued_at, expires_at, consumed_at, superseded_at`

func (r *codeRepository) ReplaceActive(ctx context.Context, identityID int64, codeHash string, issuedAt, expiresAt time.Time) (*domain.OneTimeCode, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer tx.Rollback(ctx)

	const supersede = `
		UPDATE one_time_codes
		SET superseded_at = $2
		WHERE identity_id = $1
		  AND consumed_at IS NULL
		  AND superseded_at IS NULL`

	if _, err := tx.Exec(ctx, supersede, identityID, issuedAt); err != nil {
		return nil, mapStorageErr(err)
	}

	const insert = `
		INSERT INTO one_time_codes (identity_id, code_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + codeCols

	var c domain.OneTimeCode
	err = tx.QueryRow(ctx, insert, identityID, codeHash, issuedAt, expiresAt).Scan(
		&c.ID, &c.IdentityID, &c.CodeHash, &c.IssuedAt, &c.ExpiresAt, &c.ConsumedAt, &c.SupersededAt,
	)
	if err != nil {
		return nil, mapStorageErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapStorageErr(err)
	}
	return &c, nil
}

func (r *codeRepository) ActiveByIdentity(ctx context.Context, identityID int64) (*domain.OneTimeCode, error) {
	const q = `
		SELECT ` + codeCols + `
		FROM one_time_codes
		WHERE identity_id = $1
		  AND superseded_at IS NULL
		ORDER BY id DESC
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.OneTimeCode
	err := r.pool.QueryRow(ctx, q, identityID).Scan(
		&c.ID, &c.IdentityID, &c.CodeHash, &c.IssuedAt, &c.ExpiresAt, &c.ConsumedAt, &c.SupersededAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return &c, nil
}

func (r *codeRepository) ConsumeAndProvision(ctx context.Context, codeID, identityID int64, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, mapStorageErr(err)
	}
	defer tx.Rollback(ctx)

	const consume = `
		UPDATE one_time_codes
		SET consumed_at = $2
		WHERE id = $1
		  AND consumed_at IS NULL
		RETURNING id`

	var id int64
	err = tx.QueryRow(ctx, consume, codeID, at).Scan(&id)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, mapStorageErr(err)
	}

	const provision = `UPDATE identities SET provisioned = true WHERE id = $1`
	if _, err := tx.Exec(ctx, provision, identityID); err != nil {
		return false, mapStorageErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, mapStorageErr(err)
	}
	return true, nil
}

func (r *codeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `
		DELETE FROM one_time_codes
		WHERE (consumed_at IS NOT NULL AND consumed_at < now() - interval '30 days')
		   OR (consumed_at IS NULL AND expires_at < now() - interval '7 days')`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, mapStorageErr(err)
	}
	return result.RowsAffected(), nil
}
