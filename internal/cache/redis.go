package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airfare/config"
	"github.com/Domenick1991/airfare/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache caches flight rows for the read side. Fares are never cached;
// they depend on the wall clock and are recomputed on every read.
type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL: flightsTTL,
	}
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	return c.get(ctx, flightsKey())
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	return c.set(ctx, flightsKey(), flights)
}

func (c *RedisCache) GetSearch(ctx context.Context, origin, destination string, day time.Time, minSeats int) ([]domain.Flight, error) {
	return c.get(ctx, searchKey(origin, destination, day, minSeats))
}

func (c *RedisCache) SetSearch(ctx context.Context, origin, destination string, day time.Time, minSeats int, flights []domain.Flight) error {
	return c.set(ctx, searchKey(origin, destination, day, minSeats), flights)
}

func (c *RedisCache) get(ctx context.Context, key string) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) set(ctx context.Context, key string, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.flightsTTL).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func searchKey(origin, destination string, day time.Time, minSeats int) string {
	return fmt.Sprintf("cache:search:%s:%s:%s:%d", origin, destination, day.Format("2006-01-02"), minSeats)
}
