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

const forecastDaysLimit = 5

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// ClientOpenWeatherMap queries api.openweathermap.org by coordinates.
type ClientOpenWeatherMap struct {
	APIKey string
	apiURL string
	client HTTPClient
	log    zerolog.Logger
}

func NewOpenWeatherMapClient(apiKey, apiURL string, httpClient HTTPClient, logger zerolog.Logger) *ClientOpenWeatherMap {
	logger = logger.With().Str("component", "OpenWeatherMapClient").Logger()
	return &ClientOpenWeatherMap{APIKey: apiKey, apiURL: apiURL, client: httpClient, log: logger}
}

func (s *ClientOpenWeatherMap) Current(ctx context.Context, loc models.Location) (models.WeatherData, error) {
	url := fmt.Sprintf("%s/weather?lat=%.3f&lon=%.3f&appid=%s&units=metric&lang=ru",
		s.apiURL, loc.Lat, loc.Lon, s.APIKey)

	var raw currentResponse
	if err := s.getJSON(ctx, url, &raw); err != nil {
		return models.WeatherData{}, err
	}
	if len(raw.Weather) == 0 {
		return models.WeatherData{}, fmt.Errorf("OpenWeatherMap: empty weather block")
	}

	return models.WeatherData{
		City:        raw.Name,
		Temperature: raw.Main.Temp,
		FeelsLike:   raw.Main.FeelsLike,
		Humidity:    raw.Main.Humidity,
		WindSpeed:   raw.Wind.Speed,
		Condition:   raw.Weather[0].Description,
		ConditionID: raw.Weather[0].ID,
	}, nil
}

// Forecast collapses the 3-hourly forecast list to the first reading of
// each UTC calendar day, capped at five days.
func (s *ClientOpenWeatherMap) Forecast(ctx context.Context, loc models.Location) ([]models.ForecastDay, error) {
	url := fmt.Sprintf("%s/forecast?lat=%.3f&lon=%.3f&appid=%s&units=metric&lang=ru",
		s.apiURL, loc.Lat, loc.Lon, s.APIKey)

	var raw forecastResponse
	if err := s.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}

	var days []models.ForecastDay
	seen := map[string]bool{}
	for _, it := range raw.List {
		ts := time.Unix(it.Dt, 0).UTC()
		day := ts.Format("02.01")
		if seen[day] {
			continue
		}
		seen[day] = true

		cond := ""
		if len(it.Weather) > 0 {
			cond = it.Weather[0].Description
		}
		days = append(days, models.ForecastDay{
			Date:        ts,
			Temperature: it.Main.Temp,
			Condition:   cond,
		})
		if len(days) == forecastDaysLimit {
			break
		}
	}
	return days, nil
}

func (s *ClientOpenWeatherMap) getJSON(ctx context.Context, url string, out any) error {
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
		return fmt.Errorf("OpenWeatherMap error: status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
