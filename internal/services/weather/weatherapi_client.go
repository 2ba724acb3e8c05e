package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pogoda34/weather-bot/internal/models"
)

// ClientWeatherAPI queries api.weatherapi.com, used as the fallback
// provider. WeatherAPI has no OpenWeather condition codes, so ConditionID
// stays zero and the formatter falls back to the generic emoji.
type ClientWeatherAPI struct {
	APIKey string
	apiURL string
	client HTTPClient
	log    zerolog.Logger
}

func NewClientWeatherAPI(apiKey, apiURL string, httpClient HTTPClient, logger zerolog.Logger) *ClientWeatherAPI {
	logger = logger.With().Str("component", "WeatherAPIClient").Logger()
	return &ClientWeatherAPI{APIKey: apiKey, apiURL: apiURL, client: httpClient, log: logger}
}

func (s *ClientWeatherAPI) Current(ctx context.Context, loc models.Location) (models.WeatherData, error) {
	url := fmt.Sprintf("%s/current.json?key=%s&q=%.3f,%.3f&lang=ru",
		s.apiURL, s.APIKey, loc.Lat, loc.Lon)

	var raw struct {
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
		Current struct {
			TempC     float64 `json:"temp_c"`
			FeelsC    float64 `json:"feelslike_c"`
			Humidity  int     `json:"humidity"`
			WindKph   float64 `json:"wind_kph"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}
	if err := s.getJSON(ctx, url, &raw); err != nil {
		return models.WeatherData{}, err
	}

	return models.WeatherData{
		City:        raw.Location.Name,
		Temperature: raw.Current.TempC,
		FeelsLike:   raw.Current.FeelsC,
		Humidity:    raw.Current.Humidity,
		WindSpeed:   kphToMs(raw.Current.WindKph),
		Condition:   raw.Current.Condition.Text,
	}, nil
}

func (s *ClientWeatherAPI) Forecast(ctx context.Context, loc models.Location) ([]models.ForecastDay, error) {
	url := fmt.Sprintf("%s/forecast.json?key=%s&q=%.3f,%.3f&days=%d&lang=ru",
		s.apiURL, s.APIKey, loc.Lat, loc.Lon, forecastDaysLimit)

	var raw struct {
		Forecast struct {
			ForecastDay []struct {
				DateEpoch int64 `json:"date_epoch"`
				Day       struct {
					AvgTempC  float64 `json:"avgtemp_c"`
					Condition struct {
						Text string `json:"text"`
					} `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := s.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}

	days := make([]models.ForecastDay, 0, len(raw.Forecast.ForecastDay))
	for _, d := range raw.Forecast.ForecastDay {
		days = append(days, models.ForecastDay{
			Date:        time.Unix(d.DateEpoch, 0).UTC(),
			Temperature: d.Day.AvgTempC,
			Condition:   d.Day.Condition.Text,
		})
	}
	return days, nil
}

func (s *ClientWeatherAPI) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			s.log.Error().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather API error: status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func kphToMs(kph float64) float64 {
	return kph / 3.6
}
