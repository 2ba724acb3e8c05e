package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pogoda34/weather-bot/internal/models"
)

func TestConditionEmoji(t *testing.T) {
	tests := []struct {
		name string
		id   int
		want string
	}{
		{"thunderstorm", 211, "⛈"},
		{"drizzle", 310, "🌧"},
		{"rain", 501, "☔️"},
		{"snow", 600, "❄️"},
		{"fog", 741, "🌫"},
		{"clear", 800, "☀️"},
		{"few clouds", 801, "🌤"},
		{"scattered clouds", 802, "⛅️"},
		{"overcast", 804, "☁️"},
		{"fallback provider zero id", 0, "🌡"},
		{"unknown", 900, "🌡"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conditionEmoji(tt.id))
		})
	}
}

func TestGreetingByWindow(t *testing.T) {
	assert.Equal(t, "Доброе утро!", greeting(7))
	assert.Equal(t, "Добрый вечер!", greeting(18))
}

func TestFormatCurrent(t *testing.T) {
	d := models.WeatherData{
		Temperature: 15.6,
		FeelsLike:   -2.4,
		Humidity:    60,
		WindSpeed:   4.25,
		Condition:   "ясно",
		ConditionID: 800,
	}

	got := formatCurrent(d, "Волгоград")

	assert.Contains(t, got, "📍 <b>ВОЛГОГРАД</b>")
	assert.Contains(t, got, "<b>☀️ Ясно</b>")
	assert.Contains(t, got, "🌡 Температура: +16°C")
	assert.Contains(t, got, "🤔 Ощущается: -2°C")
	assert.Contains(t, got, "💨 Ветер: 4.2 м/с")
	assert.Contains(t, got, "💧 Влажность: 60%")
}

func TestFormatForecast(t *testing.T) {
	days := []models.ForecastDay{
		{Date: time.Date(2025, 6, 18, 3, 0, 0, 0, time.UTC), Temperature: 18.2, Condition: "ясно"},
		{Date: time.Date(2025, 6, 19, 3, 0, 0, 0, time.UTC), Temperature: 16.7, Condition: "дождь"},
	}

	got := formatForecast(days, "Камышин")

	assert.Contains(t, got, "🗓 <b>ПРОГНОЗ: КАМЫШИН</b>")
	assert.Contains(t, got, "<b>18.06</b>: +18°C, ясно")
	assert.Contains(t, got, "<b>19.06</b>: +17°C, дождь")
}

func TestFormatDigest(t *testing.T) {
	d := models.WeatherData{Temperature: 20, Condition: "облачно", ConditionID: 803}

	morning := formatDigest(d, "Волжский", 7)
	assert.Contains(t, morning, "🔔 <b>РАССЫЛКА</b>")
	assert.Contains(t, morning, "Доброе утро!")
	assert.Contains(t, morning, "📍 <b>ВОЛЖСКИЙ</b>")

	evening := formatDigest(d, "Волжский", 18)
	assert.Contains(t, evening, "Добрый вечер!")
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Ясно", capitalize("ясно"))
	assert.Equal(t, "Rain", capitalize("rain"))
	assert.Equal(t, "", capitalize(""))
}

func TestRoundTemp(t *testing.T) {
	assert.Equal(t, 16, roundTemp(15.6))
	assert.Equal(t, -2, roundTemp(-2.4))
	assert.Equal(t, 0, roundTemp(0.4))
}
