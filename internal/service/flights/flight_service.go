package flights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airfare/internal/domain"
	"github.com/Domenick1991/airfare/internal/pricing"
	"github.com/Domenick1991/airfare/internal/repository"
	"go.uber.org/zap"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, input SearchInput) ([]SearchResult, error)
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	GetSearch(ctx context.Context, origin, destination string, day time.Time, minSeats int) ([]domain.Flight, error)
	SetSearch(ctx context.Context, origin, destination string, day time.Time, minSeats int, flights []domain.Flight) error
}

type SearchInput struct {
	Origin      string
	Destination string
	Date        time.Time
	MinSeats    int
}

// SearchResult carries the live dynamic price alongside the flight, so a
// caller sees what a seat costs right now, not the base fare.
type SearchResult struct {
	FlightID          int64     `json:"flight_id"`
	Origin            string    `json:"origin"`
	Destination       string    `json:"destination"`
	DepartureTime     time.Time `json:"departure_time"`
	ArrivalTime       time.Time `json:"arrival_time"`
	AvailableSeats    int       `json:"available_seats"`
	PricePerSeatCents int64     `json:"price_per_seat_cents"`
}

type FlightService struct {
	repo   repository.FlightRepository
	cache  Cache
	logger *zap.Logger
	now    func() time.Time
}

type FlightServiceOption func(*FlightService)

// WithClock overrides the wall clock used for pricing.
func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

func NewFlightService(repo repository.FlightRepository, cache Cache, logger *zap.Logger, opts ...FlightServiceOption) *FlightService {
	service := &FlightService{repo: repo, cache: cache, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.logger.Warn("cache flights", zap.Error(err))
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Search filters flights by route (case-insensitive), departure calendar
// date and minimum availability, pricing each match from current state.
func (s *FlightService) Search(ctx context.Context, input SearchInput) ([]SearchResult, error) {
	if strings.TrimSpace(input.Origin) == "" || strings.TrimSpace(input.Destination) == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", domain.ErrValidation)
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	if input.MinSeats < 1 {
		return nil, fmt.Errorf("%w: min_seats must be >= 1", domain.ErrValidation)
	}

	dayStart := time.Date(input.Date.Year(), input.Date.Month(), input.Date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var flights []domain.Flight
	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, input.Origin, input.Destination, dayStart, input.MinSeats); err == nil && cached != nil {
			flights = cached
		}
	}
	if flights == nil {
		found, err := s.repo.Search(ctx, input.Origin, input.Destination, dayStart, dayEnd, input.MinSeats)
		if err != nil {
			return nil, err
		}
		flights = found
		if s.cache != nil {
			if err := s.cache.SetSearch(ctx, input.Origin, input.Destination, dayStart, input.MinSeats, flights); err != nil {
				s.logger.Warn("cache search", zap.Error(err))
			}
		}
	}

	now := s.now()
	results := make([]SearchResult, 0, len(flights))
	for _, f := range flights {
		fare := pricing.Fare(f.BasePriceCents, f.TotalSeats, f.AvailableSeats, f.DepartureTime, f.DemandFactor, now)
		results = append(results, SearchResult{
			FlightID:          f.ID,
			Origin:            f.Origin,
			Destination:       f.Destination,
			DepartureTime:     f.DepartureTime,
			ArrivalTime:       f.ArrivalTime,
			AvailableSeats:    f.AvailableSeats,
			PricePerSeatCents: fare,
		})
	}
	return results, nil
}

var _ FlightUseCase = (*FlightService)(nil)
