package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Domenick1991/airfare/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	CreateConfirmed(ctx context.Context, booking *domain.Booking, passenger *domain.Passenger, holdToken string) error
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	CancelConfirmed(ctx context.Context, pnr string) (*domain.Booking, error)
	HistoryByPNR(ctx context.Context, pnr string) ([]domain.BookingView, error)
	HistoryByEmail(ctx context.Context, email string) ([]domain.BookingView, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const uniqueViolation = "23505"

// CreateConfirmed commits the whole confirmation in one transaction: the
// hold flips to CONFIRMED, the passenger row is inserted, seat labels are
// allocated from the flight's monotonic cursor and the booking row is
// written. A PNR collision aborts the transaction with domain.ErrPNRTaken
// so the caller can retry with a fresh locator.
func (r *PGBookingRepository) CreateConfirmed(ctx context.Context, booking *domain.Booking, passenger *domain.Passenger, holdToken string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var holdFlightID int64
	var holdSeats int
	err = tx.QueryRow(ctx, `UPDATE holds SET status=$2, updated_at=now() WHERE token=$1 AND status=$3 AND expires_at > now() RETURNING flight_id, seats`,
		holdToken, domain.HoldStatusConfirmed, domain.HoldStatusHeld).Scan(&holdFlightID, &holdSeats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classifyHold(ctx, holdToken)
		}
		return err
	}
	if holdFlightID != booking.FlightID || holdSeats != booking.BookedSeats {
		return fmt.Errorf("%w: hold does not match flight and seat count", domain.ErrValidation)
	}

	if err := tx.QueryRow(ctx, `INSERT INTO passengers (first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, passenger.FirstName, passenger.LastName, passenger.Email, passenger.Phone).
		Scan(&passenger.ID, &passenger.CreatedAt); err != nil {
		return err
	}

	// Seat labels come from a per-flight cursor bumped in the same
	// transaction, so concurrent confirms never overlap.
	var cursor int
	if err := tx.QueryRow(ctx, `UPDATE flights SET seat_cursor = seat_cursor + $2, updated_at = now() WHERE id=$1 RETURNING seat_cursor`,
		booking.FlightID, booking.BookedSeats).Scan(&cursor); err != nil {
		return err
	}
	labels := make([]string, 0, booking.BookedSeats)
	for i := cursor - booking.BookedSeats + 1; i <= cursor; i++ {
		labels = append(labels, strconv.Itoa(i))
	}
	booking.SeatNumbers = strings.Join(labels, ",")

	booking.PassengerID = passenger.ID
	booking.Status = domain.BookingStatusConfirmed
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (pnr, flight_id, passenger_id, seat_numbers, booked_seats, price_paid_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		booking.PNR, booking.FlightID, booking.PassengerID, booking.SeatNumbers, booking.BookedSeats, booking.PricePaidCents, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrPNRTaken
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) classifyHold(ctx context.Context, token string) error {
	var status domain.HoldStatus
	if err := r.db.QueryRow(ctx, `SELECT status FROM holds WHERE token=$1`, token).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrHoldNotFound
		}
		return err
	}
	if status == domain.HoldStatusHeld {
		return domain.ErrHoldExpired
	}
	return domain.ErrHoldNotFound
}

func (r *PGBookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT id, pnr, flight_id, passenger_id, seat_numbers, booked_seats, price_paid_cents, status, created_at, updated_at FROM bookings WHERE pnr=$1`, pnr)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.PNR, &b.FlightID, &b.PassengerID, &b.SeatNumbers, &b.BookedSeats, &b.PricePaidCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CancelConfirmed flips a CONFIRMED booking to CANCELLED and returns its
// seats to the flight. Both updates commit together: a cancellation is not
// complete until the seats are back in the pool.
func (r *PGBookingRepository) CancelConfirmed(ctx context.Context, pnr string) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `UPDATE bookings SET status=$2, updated_at=now() WHERE pnr=$1 AND status=$3
		RETURNING id, pnr, flight_id, passenger_id, seat_numbers, booked_seats, price_paid_cents, status, created_at, updated_at`,
		pnr, domain.BookingStatusCancelled, domain.BookingStatusConfirmed)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.PNR, &b.FlightID, &b.PassengerID, &b.SeatNumbers, &b.BookedSeats, &b.PricePaidCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyBooking(ctx, pnr)
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE flights SET available_seats = available_seats + $2, updated_at = now() WHERE id=$1`, b.FlightID, b.BookedSeats); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) classifyBooking(ctx context.Context, pnr string) error {
	var status domain.BookingStatus
	if err := r.db.QueryRow(ctx, `SELECT status FROM bookings WHERE pnr=$1`, pnr).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBookingNotFound
		}
		return err
	}
	return fmt.Errorf("%w: status %s", domain.ErrNotCancellable, status)
}

const historySelect = `SELECT b.pnr, b.flight_id, f.origin, f.destination, f.departure_time, f.arrival_time,
		p.first_name || ' ' || p.last_name, b.seat_numbers, b.booked_seats, b.price_paid_cents, b.status, b.created_at
	FROM bookings b
	JOIN flights f ON f.id = b.flight_id
	JOIN passengers p ON p.id = b.passenger_id`

func (r *PGBookingRepository) HistoryByPNR(ctx context.Context, pnr string) ([]domain.BookingView, error) {
	rows, err := r.db.Query(ctx, historySelect+` WHERE b.pnr=$1 ORDER BY b.created_at DESC`, pnr)
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}

func (r *PGBookingRepository) HistoryByEmail(ctx context.Context, email string) ([]domain.BookingView, error) {
	rows, err := r.db.Query(ctx, historySelect+` WHERE lower(p.email)=lower($1) ORDER BY b.created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}

func scanHistory(rows pgx.Rows) ([]domain.BookingView, error) {
	defer rows.Close()

	views := make([]domain.BookingView, 0)
	for rows.Next() {
		var v domain.BookingView
		if err := rows.Scan(&v.PNR, &v.FlightID, &v.Origin, &v.Destination, &v.DepartureTime, &v.ArrivalTime,
			&v.PassengerName, &v.SeatNumbers, &v.BookedSeats, &v.PricePaidCents, &v.Status, &v.CreatedAt); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
