package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jitsports/sportsroom/internal/domain"
)

type BookingRepository interface {
	// Reserve inserts a held booking for the (facility, slot start) key and
	// confirms it inside one transaction. The partial unique index over
	// active bookings is the collision arbiter: a conflicting insert fails
	// the whole transaction with domain.ErrSlotTaken and leaves no state.
	Reserve(ctx context.Context, identityID, facilityID int64, slotStart time.Time) (*domain.Booking, error)

	FindByID(ctx context.Context, id int64) (*domain.Booking, error)

	// Cancel transitions an active booking to cancelled. Returns false when
	// the row was not active anymore.
	Cancel(ctx context.Context, id int64, at time.Time) (bool, error)

	// BookedSlots returns slot starts occupied by held or confirmed bookings
	// for a facility inside [from, to). Single statement, so one snapshot.
	BookedSlots(ctx context.Context, facilityID int64, from, to time.Time) ([]time.Time, error)

	ListByIdentity(ctx context.Context, identityID int64) ([]domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `b.id, b.identity_id, b.facility_id, f.name, b.slot_start, b.status, b.created_at, b.cancelled_at`

func (r *bookingRepository) Reserve(ctx context.Context, identityID, facilityID int64, slotStart time.Time) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO bookings (identity_id, facility_id, slot_start, status)
		VALUES ($1, $2, $3, 'held')
		RETURNING id, created_at`

	var (
		id        int64
		createdAt time.Time
	)
	if err := tx.QueryRow(ctx, insert, identityID, facilityID, slotStart).Scan(&id, &createdAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrSlotTaken
		}
		return nil, mapStorageErr(err)
	}

	const confirm = `UPDATE bookings SET status = 'confirmed' WHERE id = $1`
	if _, err := tx.Exec(ctx, confirm, id); err != nil {
		return nil, mapStorageErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrSlotTaken
		}
		return nil, fmt.Errorf("commit reservation: %w", mapStorageErr(err))
	}

	return &domain.Booking{
		ID:         id,
		IdentityID: identityID,
		FacilityID: facilityID,
		SlotStart:  slotStart,
		Status:     domain.BookingConfirmed,
		CreatedAt:  createdAt,
	}, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `
		SELECT ` + bookingCols + `
		FROM bookings b
		JOIN facilities f ON f.id = b.facility_id
		WHERE b.id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Booking
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.IdentityID, &b.FacilityID, &b.Facility, &b.SlotStart, &b.Status, &b.CreatedAt, &b.CancelledAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return &b, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, id int64, at time.Time) (bool, error) {
	const q = `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $2
		WHERE id = $1
		  AND status IN ('held', 'confirmed')
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var cancelled int64
	err := r.pool.QueryRow(ctx, q, id, at).Scan(&cancelled)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, mapStorageErr(err)
	}
	return true, nil
}

func (r *bookingRepository) BookedSlots(ctx context.Context, facilityID int64, from, to time.Time) ([]time.Time, error) {
	const q = `
		SELECT slot_start
		FROM bookings
		WHERE facility_id = $1
		  AND slot_start >= $2
		  AND slot_start < $3
		  AND status IN ('held', 'confirmed')`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, facilityID, from, to)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()

	var slots []time.Time
	for rows.Next() {
		var s time.Time
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, mapStorageErr(rows.Err())
}

func (r *bookingRepository) ListByIdentity(ctx context.Context, identityID int64) ([]domain.Booking, error) {
	const q = `
		SELECT ` + bookingCols + `
		FROM bookings b
		JOIN facilities f ON f.id = b.facility_id
		WHERE b.identity_id = $1
		ORDER BY b.slot_start ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, identityID)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.IdentityID, &b.FacilityID, &b.Facility, &b.SlotStart, &b.Status, &b.CreatedAt, &b.CancelledAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, mapStorageErr(rows.Err())
}
