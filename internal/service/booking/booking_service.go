package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Domenick1991/airfare/internal/domain"
	"github.com/Domenick1991/airfare/internal/kafka"
	"github.com/Domenick1991/airfare/internal/pricing"
	"github.com/Domenick1991/airfare/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pnrPrefix      = "PN"
	pnrRandomChars = 8
	maxPNRAttempts = 5

	pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type BookingUseCase interface {
	BeginHold(ctx context.Context, input BeginHoldInput) (*HoldQuote, error)
	Confirm(ctx context.Context, input ConfirmInput) (*Confirmation, error)
	Cancel(ctx context.Context, pnr string) (*domain.Booking, error)
	History(ctx context.Context, input HistoryInput) ([]domain.BookingView, error)
	ExpireHolds(ctx context.Context) ([]domain.Hold, error)
}

type PaymentProcessor interface {
	Charge(ctx context.Context, amountCents int64) (string, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BeginHoldInput struct {
	FlightID int64 `json:"flight_id"`
	Seats    int   `json:"seats"`
}

type HoldQuote struct {
	FlightID          int64     `json:"flight_id"`
	HoldToken         string    `json:"hold_token"`
	SeatsReserved     int       `json:"seats_reserved"`
	PricePerSeatCents int64     `json:"price_per_seat_cents"`
	TotalPriceCents   int64     `json:"total_price_cents"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type PassengerInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type ConfirmInput struct {
	FlightID  int64          `json:"flight_id"`
	Seats     int            `json:"seats"`
	HoldToken string         `json:"hold_token"`
	Passenger PassengerInput `json:"passenger"`
}

type Confirmation struct {
	PNR            string `json:"pnr"`
	BookingID      int64  `json:"booking_id"`
	FlightID       int64  `json:"flight_id"`
	SeatNumbers    string `json:"seat_numbers"`
	PricePaidCents int64  `json:"price_paid_cents"`
	TransactionID  string `json:"transaction_id"`
}

type HistoryInput struct {
	PNR   string
	Email string
}

// BookingService drives the hold -> pay -> confirm state machine. A hold
// quote is non-binding: the fare is recomputed from current flight state
// at confirmation time.
type BookingService struct {
	holds              repository.HoldRepository
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	fares              repository.FareHistoryRepository
	payments           PaymentProcessor
	producer           Producer
	logger             *zap.Logger
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	now                func() time.Time
	randAlnum          func(n int) string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithClock overrides the wall clock used for pricing and hold expiry.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// WithRandAlnum overrides the random generator behind PNR locators.
func WithRandAlnum(gen func(n int) string) BookingServiceOption {
	return func(s *BookingService) {
		s.randAlnum = gen
	}
}

func NewBookingService(
	holds repository.HoldRepository,
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	fares repository.FareHistoryRepository,
	payments PaymentProcessor,
	producer Producer,
	logger *zap.Logger,
	bookingTopic string,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		holds:        holds,
		bookings:     bookings,
		flights:      flights,
		fares:        fares,
		payments:     payments,
		producer:     producer,
		logger:       logger,
		bookingTopic: bookingTopic,
		holdTTL:      holdTTL,
		now:          time.Now,
		randAlnum:    defaultRandAlnum,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func defaultRandAlnum(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(pnrAlphabet[rand.Intn(len(pnrAlphabet))])
	}
	return b.String()
}

func (s *BookingService) newPNR() string {
	return pnrPrefix + s.randAlnum(pnrRandomChars)
}

// BeginHold reserves seats and quotes a fare. The decrement and the hold
// row commit together, and the quote is priced from post-decrement
// availability: the hold itself pushes the price the caller sees.
func (s *BookingService) BeginHold(ctx context.Context, input BeginHoldInput) (*HoldQuote, error) {
	if input.Seats < 1 {
		return nil, fmt.Errorf("%w: seats must be >= 1", domain.ErrValidation)
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}

	hold := &domain.Hold{
		Token:     uuid.NewString(),
		FlightID:  flight.ID,
		Seats:     input.Seats,
		ExpiresAt: s.now().Add(s.holdTTL),
	}
	remaining, err := s.holds.CreateHeld(ctx, hold)
	if err != nil {
		return nil, err
	}

	fare := pricing.Fare(flight.BasePriceCents, flight.TotalSeats, remaining, flight.DepartureTime, flight.DemandFactor, s.now())
	s.recordFare(ctx, flight.ID, fare, remaining)

	s.publish(ctx, "hold_created", kafka.BookingEvent{
		HoldToken:   hold.Token,
		FlightID:    hold.FlightID,
		Seats:       hold.Seats,
		Status:      string(hold.Status),
		AmountCents: fare * int64(hold.Seats),
	})

	return &HoldQuote{
		FlightID:          flight.ID,
		HoldToken:         hold.Token,
		SeatsReserved:     hold.Seats,
		PricePerSeatCents: fare,
		TotalPriceCents:   fare * int64(hold.Seats),
		ExpiresAt:         hold.ExpiresAt,
	}, nil
}

// Confirm re-prices the booking at confirmation time, charges the payment
// processor and persists the confirmed booking. A declined payment
// releases the held seats before the error is surfaced.
func (s *BookingService) Confirm(ctx context.Context, input ConfirmInput) (*Confirmation, error) {
	if input.Seats < 1 {
		return nil, fmt.Errorf("%w: seats must be >= 1", domain.ErrValidation)
	}
	if input.HoldToken == "" {
		return nil, fmt.Errorf("%w: hold_token is required", domain.ErrValidation)
	}
	if strings.TrimSpace(input.Passenger.FirstName) == "" || strings.TrimSpace(input.Passenger.LastName) == "" {
		return nil, fmt.Errorf("%w: passenger first and last name are required", domain.ErrValidation)
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}

	fare := pricing.Fare(flight.BasePriceCents, flight.TotalSeats, flight.AvailableSeats, flight.DepartureTime, flight.DemandFactor, s.now())
	total := fare * int64(input.Seats)

	transactionID, err := s.payments.Charge(ctx, total)
	if err != nil {
		if !errors.Is(err, domain.ErrPaymentDeclined) {
			return nil, fmt.Errorf("charge payment: %w", err)
		}
		// Compensation first: the hold must not outlive the declined
		// payment. A missing hold means the reaper already released it.
		if relErr := s.holds.Release(ctx, input.HoldToken); relErr != nil && !errors.Is(relErr, domain.ErrHoldNotFound) {
			return nil, fmt.Errorf("release hold after declined payment: %w", relErr)
		}
		s.logger.Info("payment declined, hold released",
			zap.String("hold_token", input.HoldToken),
			zap.Int64("flight_id", input.FlightID),
			zap.Int64("amount_cents", total),
		)
		return nil, err
	}

	passenger := &domain.Passenger{
		FirstName: input.Passenger.FirstName,
		LastName:  input.Passenger.LastName,
		Email:     input.Passenger.Email,
		Phone:     input.Passenger.Phone,
	}
	booking := &domain.Booking{
		FlightID:       flight.ID,
		BookedSeats:    input.Seats,
		PricePaidCents: total,
	}

	for attempt := 0; attempt < maxPNRAttempts; attempt++ {
		booking.PNR = s.newPNR()
		err = s.bookings.CreateConfirmed(ctx, booking, passenger, input.HoldToken)
		if !errors.Is(err, domain.ErrPNRTaken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.recordFare(ctx, flight.ID, fare, flight.AvailableSeats)

	s.publish(ctx, "booking_confirmed", kafka.BookingEvent{
		PNR:         booking.PNR,
		HoldToken:   input.HoldToken,
		FlightID:    booking.FlightID,
		Seats:       booking.BookedSeats,
		Email:       passenger.Email,
		Status:      string(booking.Status),
		AmountCents: booking.PricePaidCents,
	})

	return &Confirmation{
		PNR:            booking.PNR,
		BookingID:      booking.ID,
		FlightID:       booking.FlightID,
		SeatNumbers:    booking.SeatNumbers,
		PricePaidCents: booking.PricePaidCents,
		TransactionID:  transactionID,
	}, nil
}

// Cancel flips a CONFIRMED booking to CANCELLED; the repository commits
// the status flip and the seat release as one transaction.
func (s *BookingService) Cancel(ctx context.Context, pnr string) (*domain.Booking, error) {
	if pnr == "" {
		return nil, fmt.Errorf("%w: pnr is required", domain.ErrValidation)
	}

	cancelled, err := s.bookings.CancelConfirmed(ctx, pnr)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_cancelled", kafka.BookingEvent{
		PNR:      cancelled.PNR,
		FlightID: cancelled.FlightID,
		Seats:    cancelled.BookedSeats,
		Status:   string(cancelled.Status),
	})
	return cancelled, nil
}

// History looks up bookings by exact PNR or passenger email, newest first.
// Exactly one filter must be given.
func (s *BookingService) History(ctx context.Context, input HistoryInput) ([]domain.BookingView, error) {
	hasPNR := input.PNR != ""
	hasEmail := input.Email != ""
	if hasPNR == hasEmail {
		return nil, fmt.Errorf("%w: provide either pnr or email", domain.ErrValidation)
	}
	if hasPNR {
		return s.bookings.HistoryByPNR(ctx, input.PNR)
	}
	return s.bookings.HistoryByEmail(ctx, input.Email)
}

// ExpireHolds sweeps holds past their expiry, returning their seats.
func (s *BookingService) ExpireHolds(ctx context.Context) ([]domain.Hold, error) {
	expired, err := s.holds.ExpireBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for _, h := range expired {
		s.publish(ctx, "hold_expired", kafka.BookingEvent{
			HoldToken: h.Token,
			FlightID:  h.FlightID,
			Seats:     h.Seats,
			Status:    string(h.Status),
		})
	}
	if len(expired) > 0 {
		s.logger.Info("expired holds", zap.Int("count", len(expired)))
	}
	return expired, nil
}

func (s *BookingService) recordFare(ctx context.Context, flightID int64, fareCents int64, seatsAvailable int) {
	if s.fares == nil {
		return
	}
	if err := s.fares.Append(ctx, flightID, fareCents, seatsAvailable); err != nil {
		s.logger.Warn("append fare history", zap.Int64("flight_id", flightID), zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, event kafka.BookingEvent) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event.Type = eventType
	event.At = s.now()

	key := event.PNR
	if key == "" {
		key = event.HoldToken
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, key, event); err != nil {
		s.logger.Warn("publish booking event", zap.String("type", eventType), zap.Error(err))
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			s.logger.Warn("publish notification event", zap.String("type", eventType), zap.Error(err))
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
