package flights

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/airfare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, origin, destination string, dayStart, dayEnd time.Time, minSeats int) ([]domain.Flight, error) {
	args := m.Called(ctx, origin, destination, dayStart, dayEnd, minSeats)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) TryReserveSeats(ctx context.Context, flightID int64, seats int) (bool, error) {
	args := m.Called(ctx, flightID, seats)
	return args.Bool(0), args.Error(1)
}

func (m *MockFlightRepository) ReleaseSeats(ctx context.Context, flightID int64, seats int) error {
	args := m.Called(ctx, flightID, seats)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) GetSearch(ctx context.Context, origin, destination string, day time.Time, minSeats int) ([]domain.Flight, error) {
	args := m.Called(ctx, origin, destination, day, minSeats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetSearch(ctx context.Context, origin, destination string, day time.Time, minSeats int, flights []domain.Flight) error {
	args := m.Called(ctx, origin, destination, day, minSeats, flights)
	return args.Error(0)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testFlights() []domain.Flight {
	return []domain.Flight{{
		ID:             1,
		Origin:         "LED",
		Destination:    "SVO",
		DepartureTime:  testNow.Add(200 * time.Hour),
		ArrivalTime:    testNow.Add(202 * time.Hour),
		BasePriceCents: 10000,
		TotalSeats:     10,
		AvailableSeats: 10,
		DemandFactor:   0.5,
	}}
}

func newTestFlightService() (*FlightService, *MockFlightRepository, *MockCache) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, cache, zap.NewNop(), WithClock(func() time.Time { return testNow }))
	return service, repo, cache
}

func TestFlightService_List_CacheHit(t *testing.T) {
	service, repo, cache := newTestFlightService()
	ctx := context.Background()

	cache.On("GetFlights", ctx).Return(testFlights(), nil).Once()

	flights, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Len(t, flights, 1)
	repo.AssertNotCalled(t, "List")
}

func TestFlightService_List_CacheMiss(t *testing.T) {
	service, repo, cache := newTestFlightService()
	ctx := context.Background()

	cache.On("GetFlights", ctx).Return(nil, nil).Once()
	repo.On("List", ctx).Return(testFlights(), nil).Once()
	cache.On("SetFlights", ctx, mock.Anything).Return(nil).Once()

	flights, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Len(t, flights, 1)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestFlightService_Search_PricesFromCurrentState(t *testing.T) {
	service, repo, cache := newTestFlightService()
	ctx := context.Background()

	dayStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	cache.On("GetSearch", ctx, "LED", "SVO", dayStart, 1).Return(nil, nil).Once()
	repo.On("Search", ctx, "LED", "SVO", dayStart, dayEnd, 1).Return(testFlights(), nil).Once()
	cache.On("SetSearch", ctx, "LED", "SVO", dayStart, 1, mock.Anything).Return(nil).Once()

	results, err := service.Search(ctx, SearchInput{
		Origin:      "LED",
		Destination: "SVO",
		Date:        dayStart,
		MinSeats:    1,
	})

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	// 200h out, full availability, demand 0.5 -> 145.00
	assert.Equal(t, int64(14500), results[0].PricePerSeatCents)
	repo.AssertExpectations(t)
}

func TestFlightService_Search_CachedRowsStillPriced(t *testing.T) {
	service, repo, cache := newTestFlightService()
	ctx := context.Background()

	dayStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	cache.On("GetSearch", ctx, "LED", "SVO", dayStart, 1).Return(testFlights(), nil).Once()

	results, err := service.Search(ctx, SearchInput{
		Origin:      "LED",
		Destination: "SVO",
		Date:        dayStart,
		MinSeats:    1,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(14500), results[0].PricePerSeatCents)
	repo.AssertNotCalled(t, "Search")
}

func TestFlightService_Search_Validation(t *testing.T) {
	service, _, _ := newTestFlightService()
	ctx := context.Background()
	date := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		input SearchInput
	}{
		{"missing origin", SearchInput{Destination: "SVO", Date: date, MinSeats: 1}},
		{"missing destination", SearchInput{Origin: "LED", Date: date, MinSeats: 1}},
		{"missing date", SearchInput{Origin: "LED", Destination: "SVO", MinSeats: 1}},
		{"zero min seats", SearchInput{Origin: "LED", Destination: "SVO", Date: date}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := service.Search(ctx, tc.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Nil(t, results)
		})
	}
}

func TestFlightService_GetByID(t *testing.T) {
	service, repo, _ := newTestFlightService()
	ctx := context.Background()

	flight := &testFlights()[0]
	repo.On("GetByID", ctx, int64(1)).Return(flight, nil).Once()

	found, err := service.GetByID(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), found.ID)
}
