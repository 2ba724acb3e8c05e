package decorators

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pogoda34/weather-bot/internal/models"
)

type weatherGetterService interface {
	Current(ctx context.Context, loc models.Location) (models.WeatherData, error)
	Forecast(ctx context.Context, loc models.Location) ([]models.ForecastDay, error)
}

type cacheClient[T any] interface {
	Set(ctx context.Context, key string, value T, expiration time.Duration) error
	Get(ctx context.Context, key string, returnValue *T) error
}

// CachedService caches provider answers in Redis so that a digest batch
// for many subscribers of the same city hits the upstream once.
type CachedService struct {
	inner         weatherGetterService
	currentCache  cacheClient[models.WeatherData]
	forecastCache cacheClient[[]models.ForecastDay]
	log           zerolog.Logger
	liveTime      time.Duration
}

func NewCachedService(
	inner weatherGetterService,
	currentCache cacheClient[models.WeatherData],
	forecastCache cacheClient[[]models.ForecastDay],
	logger zerolog.Logger,
	liveTime time.Duration,
) *CachedService {
	logger = logger.With().Str("component", "CachedWeatherService").Logger()
	return &CachedService{
		inner:         inner,
		currentCache:  currentCache,
		forecastCache: forecastCache,
		log:           logger,
		liveTime:      liveTime,
	}
}

func (s *CachedService) Current(ctx context.Context, loc models.Location) (models.WeatherData, error) {
	key := cacheKey("current", loc)
	var data models.WeatherData

	if err := s.currentCache.Get(ctx, key, &data); err == nil {
		s.log.Debug().Str("key", key).Msg("cache hit")
		return data, nil
	}

	data, err := s.inner.Current(ctx, loc)
	if err != nil {
		return models.WeatherData{}, err
	}
	if err := s.currentCache.Set(ctx, key, data, s.liveTime); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return data, nil
}

func (s *CachedService) Forecast(ctx context.Context, loc models.Location) ([]models.ForecastDay, error) {
	key := cacheKey("forecast", loc)
	var days []models.ForecastDay

	if err := s.forecastCache.Get(ctx, key, &days); err == nil {
		s.log.Debug().Str("key", key).Msg("cache hit")
		return days, nil
	}

	days, err := s.inner.Forecast(ctx, loc)
	if err != nil {
		return nil, err
	}
	if err := s.forecastCache.Set(ctx, key, days, s.liveTime); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return days, nil
}

func cacheKey(kind string, loc models.Location) string {
	return fmt.Sprintf("weather:%s:%.3f,%.3f", kind, loc.Lat, loc.Lon)
}
