package weather_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pogoda34/weather-bot/internal/models"
	"github.com/pogoda34/weather-bot/internal/services/weather"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, ok := args.Get(0).(*http.Response)
	if !ok {
		return nil, args.Error(1)
	}
	return resp, args.Error(1)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

var volgograd = models.Location{Lat: 48.708, Lon: 44.513}

func TestOpenWeather_Current_Success(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(jsonResponse(http.StatusOK, `{
		"name": "Волгоград",
		"main": {"temp": 15.4, "feels_like": 13.9, "humidity": 60},
		"wind": {"speed": 4.2},
		"weather": [{"id": 800, "description": "ясно"}]
	}`), nil).Once()
	t.Cleanup(func() { m.AssertExpectations(t) })

	c := weather.NewOpenWeatherMapClient("key", "https://api.test", m, zerolog.Nop())

	data, err := c.Current(context.Background(), volgograd)
	require.NoError(t, err)
	assert.Equal(t, "Волгоград", data.City)
	assert.Equal(t, 15.4, data.Temperature)
	assert.Equal(t, 13.9, data.FeelsLike)
	assert.Equal(t, 60, data.Humidity)
	assert.Equal(t, 4.2, data.WindSpeed)
	assert.Equal(t, "ясно", data.Condition)
	assert.Equal(t, 800, data.ConditionID)
}

func TestOpenWeather_Current_NonOKStatus(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(
		jsonResponse(http.StatusUnauthorized, `{"cod":401}`), nil).Once()
	t.Cleanup(func() { m.AssertExpectations(t) })

	c := weather.NewOpenWeatherMapClient("bad-key", "https://api.test", m, zerolog.Nop())

	data, err := c.Current(context.Background(), volgograd)
	assert.Error(t, err)
	assert.Equal(t, models.WeatherData{}, data)
}

func TestOpenWeather_Forecast_CollapsesToFirstReadingPerDay(t *testing.T) {
	// Three readings on 18.06 and two on 19.06: one row per day, first wins.
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(jsonResponse(http.StatusOK, `{
		"list": [
			{"dt": 1750215600, "main": {"temp": 18.2}, "weather": [{"description": "ясно"}]},
			{"dt": 1750226400, "main": {"temp": 22.9}, "weather": [{"description": "облачно"}]},
			{"dt": 1750237200, "main": {"temp": 25.1}, "weather": [{"description": "облачно"}]},
			{"dt": 1750302000, "main": {"temp": 17.0}, "weather": [{"description": "дождь"}]},
			{"dt": 1750312800, "main": {"temp": 19.5}, "weather": [{"description": "дождь"}]}
		]
	}`), nil).Once()
	t.Cleanup(func() { m.AssertExpectations(t) })

	c := weather.NewOpenWeatherMapClient("key", "https://api.test", m, zerolog.Nop())

	days, err := c.Forecast(context.Background(), volgograd)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 18.2, days[0].Temperature)
	assert.Equal(t, "ясно", days[0].Condition)
	assert.Equal(t, "18.06", days[0].Date.Format("02.01"))
	assert.Equal(t, 17.0, days[1].Temperature)
	assert.Equal(t, "19.06", days[1].Date.Format("02.01"))
}

func TestWeatherAPI_Current_Success(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(jsonResponse(http.StatusOK, `{
		"location": {"name": "Volgograd"},
		"current": {
			"temp_c": 20.0,
			"feelslike_c": 18.5,
			"humidity": 55,
			"wind_kph": 18.0,
			"condition": {"text": "Солнечно"}
		}
	}`), nil).Once()
	t.Cleanup(func() { m.AssertExpectations(t) })

	c := weather.NewClientWeatherAPI("key", "https://api.test", m, zerolog.Nop())

	data, err := c.Current(context.Background(), volgograd)
	require.NoError(t, err)
	assert.Equal(t, "Volgograd", data.City)
	assert.Equal(t, 20.0, data.Temperature)
	assert.InDelta(t, 5.0, data.WindSpeed, 0.001, "kph converted to m/s")
	assert.Equal(t, "Солнечно", data.Condition)
	assert.Zero(t, data.ConditionID)
}

func TestWeatherAPI_Current_ServerError(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(
		jsonResponse(http.StatusInternalServerError, `{"error":"boom"}`), nil).Once()
	t.Cleanup(func() { m.AssertExpectations(t) })

	c := weather.NewClientWeatherAPI("key", "https://api.test", m, zerolog.Nop())

	data, err := c.Current(context.Background(), volgograd)
	assert.Error(t, err)
	assert.Equal(t, models.WeatherData{}, data)
}
