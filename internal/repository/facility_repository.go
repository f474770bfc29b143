package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jitsports/sportsroom/internal/domain"
)

type FacilityRepository interface {
	List(ctx context.Context) ([]domain.Facility, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Facility, error)
}

type facilityRepository struct {
	pool *pgxpool.Pool
}

func NewFacilityRepository(pool *pgxpool.Pool) FacilityRepository {
	return &facilityRepository{pool: pool}
}

const facilityCols = `id, slug, name, max_players, duration_minutes`

func (r *facilityRepository) List(ctx context.Context) ([]domain.Facility, error) {
	const q = `SELECT ` + facilityCols + ` FROM facilities ORDER BY name`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()

	var facilities []domain.Facility
	for rows.Next() {
		var f domain.Facility
		if err := rows.Scan(&f.ID, &f.Slug, &f.Name, &f.MaxPlayers, &f.DurationMinutes); err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return facilities, mapStorageErr(rows.Err())
}

func (r *facilityRepository) FindBySlug(ctx context.Context, slug string) (*domain.Facility, error) {
	const q = `SELECT ` + facilityCols + ` FROM facilities WHERE slug = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var f domain.Facility
	err := r.pool.QueryRow(ctx, q, slug).Scan(&f.ID, &f.Slug, &f.Name, &f.MaxPlayers, &f.DurationMinutes)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return &f, nil
}
