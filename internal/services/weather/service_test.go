package weather_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pogoda34/weather-bot/internal/models"
	"github.com/pogoda34/weather-bot/internal/services/weather"
)

func TestService_Current_FallsBackToNextProvider(t *testing.T) {
	want := models.WeatherData{City: "Камышин", Temperature: 17.3}

	primary := &mockWrapped{}
	primary.On("Current", mock.Anything, volgograd).
		Return(nil, errors.New("rate limited")).Once()

	secondary := &mockWrapped{}
	secondary.On("Current", mock.Anything, volgograd).Return(want, nil).Once()

	t.Cleanup(func() {
		primary.AssertExpectations(t)
		secondary.AssertExpectations(t)
	})

	svc := weather.NewService(zerolog.Nop(), primary, secondary)

	got, err := svc.Current(context.Background(), volgograd)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_Current_FirstProviderWins(t *testing.T) {
	want := models.WeatherData{City: "Волжский", Temperature: 23.0}

	primary := &mockWrapped{}
	primary.On("Current", mock.Anything, volgograd).Return(want, nil).Once()

	secondary := &mockWrapped{}

	t.Cleanup(func() {
		primary.AssertExpectations(t)
		secondary.AssertNotCalled(t, "Current")
	})

	svc := weather.NewService(zerolog.Nop(), primary, secondary)

	got, err := svc.Current(context.Background(), volgograd)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_Current_AllProvidersFail(t *testing.T) {
	primary := &mockWrapped{}
	primary.On("Current", mock.Anything, volgograd).
		Return(nil, errors.New("down")).Once()

	secondary := &mockWrapped{}
	secondary.On("Current", mock.Anything, volgograd).
		Return(nil, errors.New("also down")).Once()

	t.Cleanup(func() {
		primary.AssertExpectations(t)
		secondary.AssertExpectations(t)
	})

	svc := weather.NewService(zerolog.Nop(), primary, secondary)

	_, err := svc.Current(context.Background(), volgograd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all weather providers failed")
}

func TestService_Forecast_FallsBackToNextProvider(t *testing.T) {
	want := []models.ForecastDay{{Temperature: 11.0, Condition: "дождь"}}

	primary := &mockWrapped{}
	primary.On("Forecast", mock.Anything, volgograd).
		Return(nil, errors.New("timeout")).Once()

	secondary := &mockWrapped{}
	secondary.On("Forecast", mock.Anything, volgograd).Return(want, nil).Once()

	t.Cleanup(func() {
		primary.AssertExpectations(t)
		secondary.AssertExpectations(t)
	})

	svc := weather.NewService(zerolog.Nop(), primary, secondary)

	got, err := svc.Forecast(context.Background(), volgograd)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
