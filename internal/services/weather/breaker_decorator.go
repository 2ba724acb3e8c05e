package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pogoda34/weather-bot/internal/models"
)

const (
	breakerInterval = 30 * time.Second
	breakerTimeout  = 15 * time.Second

	tripAfterFailures = 5
)

// BreakerClient guards one provider with a shared circuit breaker so that
// a flapping upstream is skipped quickly during digest batches.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped client
}

func NewBreakerClient(name string, wrapped client) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfterFailures
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) Current(ctx context.Context, loc models.Location) (models.WeatherData, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.wrapped.Current(ctx, loc)
	})
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("%s unavailable: %w", b.name, err)
	}
	data, ok := result.(models.WeatherData)
	if !ok {
		return models.WeatherData{}, fmt.Errorf("%s unavailable: unexpected result type", b.name)
	}
	return data, nil
}

func (b *BreakerClient) Forecast(ctx context.Context, loc models.Location) ([]models.ForecastDay, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.wrapped.Forecast(ctx, loc)
	})
	if err != nil {
		return nil, fmt.Errorf("%s unavailable: %w", b.name, err)
	}
	days, ok := result.([]models.ForecastDay)
	if !ok {
		return nil, fmt.Errorf("%s unavailable: unexpected result type", b.name)
	}
	return days, nil
}
