package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/airfare/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HoldRepository interface {
	CreateHeld(ctx context.Context, hold *domain.Hold) (remaining int, err error)
	GetByToken(ctx context.Context, token string) (*domain.Hold, error)
	Release(ctx context.Context, token string) error
	ExpireBefore(ctx context.Context, deadline time.Time) ([]domain.Hold, error)
}

type PGHoldRepository struct {
	db *pgxpool.Pool
}

func NewHoldRepository(db *pgxpool.Pool) HoldRepository {
	return &PGHoldRepository{db: db}
}

const holdColumns = `id, token, flight_id, seats, status, expires_at, created_at, updated_at`

// CreateHeld decrements the flight's seat counter and inserts the hold row
// in one transaction, so a hold never exists without its seats and seats
// are never taken without a durable hold to recover them from. Returns the
// post-decrement availability.
func (r *PGHoldRepository) CreateHeld(ctx context.Context, hold *domain.Hold) (int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var remaining int
	if err := tx.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - $2, updated_at = now() WHERE id=$1 AND available_seats >= $2 RETURNING available_seats`, hold.FlightID, hold.Seats).Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotEnoughSeats
		}
		return 0, err
	}

	hold.Status = domain.HoldStatusHeld
	if err := tx.QueryRow(ctx, `INSERT INTO holds (token, flight_id, seats, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`, hold.Token, hold.FlightID, hold.Seats, hold.Status, hold.ExpiresAt).
		Scan(&hold.ID, &hold.CreatedAt, &hold.UpdatedAt); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *PGHoldRepository) GetByToken(ctx context.Context, token string) (*domain.Hold, error) {
	row := r.db.QueryRow(ctx, `SELECT `+holdColumns+` FROM holds WHERE token=$1`, token)
	var h domain.Hold
	if err := row.Scan(&h.ID, &h.Token, &h.FlightID, &h.Seats, &h.Status, &h.ExpiresAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHoldNotFound
		}
		return nil, err
	}
	return &h, nil
}

// Release flips a HELD hold to RELEASED and returns its seats to the
// flight, both in one transaction.
func (r *PGHoldRepository) Release(ctx context.Context, token string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var flightID int64
	var seats int
	if err := tx.QueryRow(ctx, `UPDATE holds SET status=$2, updated_at=now() WHERE token=$1 AND status=$3 RETURNING flight_id, seats`,
		token, domain.HoldStatusReleased, domain.HoldStatusHeld).Scan(&flightID, &seats); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrHoldNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE flights SET available_seats = available_seats + $2, updated_at = now() WHERE id=$1`, flightID, seats); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ExpireBefore sweeps HELD holds whose expiry has passed, flipping them to
// EXPIRED and returning their seats. Flip and release commit together so a
// crash mid-sweep cannot release seats twice.
func (r *PGHoldRepository) ExpireBefore(ctx context.Context, deadline time.Time) ([]domain.Hold, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `UPDATE holds SET status=$1, updated_at=now() WHERE status=$2 AND expires_at <= $3 RETURNING `+holdColumns,
		domain.HoldStatusExpired, domain.HoldStatusHeld, deadline)
	if err != nil {
		return nil, err
	}

	var expired []domain.Hold
	for rows.Next() {
		var h domain.Hold
		if err := rows.Scan(&h.ID, &h.Token, &h.FlightID, &h.Seats, &h.Status, &h.ExpiresAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, h := range expired {
		if _, err := tx.Exec(ctx, `UPDATE flights SET available_seats = available_seats + $2, updated_at = now() WHERE id=$1`, h.FlightID, h.Seats); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expired, nil
}

var _ HoldRepository = (*PGHoldRepository)(nil)
