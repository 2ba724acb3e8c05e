package weather

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pogoda34/weather-bot/internal/models"
)

var errAllProvidersFailed = errors.New("all weather providers failed to fetch data")

type client interface {
	Current(ctx context.Context, loc models.Location) (models.WeatherData, error)
	Forecast(ctx context.Context, loc models.Location) ([]models.ForecastDay, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ServiceProvider tries each configured provider in order and returns the
// first successful answer.
type ServiceProvider struct {
	log     zerolog.Logger
	clients []client
}

func NewService(logger zerolog.Logger, clients ...client) *ServiceProvider {
	logger = logger.With().Str("component", "WeatherService").Logger()
	return &ServiceProvider{clients: clients, log: logger}
}

func (s *ServiceProvider) Current(ctx context.Context, loc models.Location) (models.WeatherData, error) {
	for _, c := range s.clients {
		data, err := c.Current(ctx, loc)
		if err != nil {
			s.log.Warn().Err(err).Msg("provider failed, trying next")
			continue
		}
		return data, nil
	}
	return models.WeatherData{}, errAllProvidersFailed
}

func (s *ServiceProvider) Forecast(ctx context.Context, loc models.Location) ([]models.ForecastDay, error) {
	for _, c := range s.clients {
		days, err := c.Forecast(ctx, loc)
		if err != nil {
			s.log.Warn().Err(err).Msg("provider failed, trying next")
			continue
		}
		return days, nil
	}
	return nil, errAllProvidersFailed
}
