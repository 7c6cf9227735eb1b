package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FareHistoryRepository interface {
	Append(ctx context.Context, flightID int64, fareCents int64, seatsAvailable int) error
}

type PGFareHistoryRepository struct {
	db *pgxpool.Pool
}

func NewFareHistoryRepository(db *pgxpool.Pool) FareHistoryRepository {
	return &PGFareHistoryRepository{db: db}
}

func (r *PGFareHistoryRepository) Append(ctx context.Context, flightID int64, fareCents int64, seatsAvailable int) error {
	_, err := r.db.Exec(ctx, `INSERT INTO fare_history (flight_id, fare_cents, seats_available) VALUES ($1, $2, $3)`, flightID, fareCents, seatsAvailable)
	return err
}

var _ FareHistoryRepository = (*PGFareHistoryRepository)(nil)
