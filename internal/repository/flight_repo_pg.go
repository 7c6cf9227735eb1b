package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/airfare/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, origin, destination string, dayStart, dayEnd time.Time, minSeats int) ([]domain.Flight, error)
	TryReserveSeats(ctx context.Context, flightID int64, seats int) (bool, error)
	ReleaseSeats(ctx context.Context, flightID int64, seats int) error
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, origin, destination, departure_time, arrival_time, base_price_cents, total_seats, available_seats, demand_factor, seat_cursor, created_at, updated_at`

func scanFlight(row pgx.Row, f *domain.Flight) error {
	return row.Scan(&f.ID, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.BasePriceCents, &f.TotalSeats, &f.AvailableSeats, &f.DemandFactor, &f.SeatCursor, &f.CreatedAt, &f.UpdatedAt)
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := scanFlight(rows, &f); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := scanFlight(row, &f); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Search(ctx context.Context, origin, destination string, dayStart, dayEnd time.Time, minSeats int) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE lower(origin)=lower($1) AND lower(destination)=lower($2)
		AND departure_time >= $3 AND departure_time < $4
		AND available_seats >= $5
		ORDER BY departure_time`, origin, destination, dayStart, dayEnd, minSeats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := scanFlight(rows, &f); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

// TryReserveSeats atomically decrements available_seats by seats only when
// enough remain. The conditional update is the single serialization point
// for the counter, so concurrent callers can never oversell.
func (r *PGFlightRepository) TryReserveSeats(ctx context.Context, flightID int64, seats int) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = available_seats - $2, updated_at = now() WHERE id=$1 AND available_seats >= $2`, flightID, seats)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGFlightRepository) ReleaseSeats(ctx context.Context, flightID int64, seats int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = available_seats + $2, updated_at = now() WHERE id=$1`, flightID, seats)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
