package telegram

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pogoda34/weather-bot/internal/models"
)

const divider = "➖➖➖➖➖➖➖➖➖➖"

// conditionEmoji maps OpenWeather condition ids to an emoji. Unknown ids
// (including the zero value from fallback providers) get the generic one.
func conditionEmoji(id int) string {
	switch {
	case id >= 200 && id <= 232:
		return "⛈"
	case id >= 300 && id <= 321:
		return "🌧"
	case id >= 500 && id <= 531:
		return "☔️"
	case id >= 600 && id <= 622:
		return "❄️"
	case id >= 701 && id <= 781:
		return "🌫"
	case id == 800:
		return "☀️"
	case id == 801:
		return "🌤"
	case id == 802:
		return "⛅️"
	case id == 803 || id == 804:
		return "☁️"
	default:
		return "🌡"
	}
}

// greeting frames the digest by delivery window.
func greeting(localHour int) string {
	if localHour < 12 {
		return "Доброе утро!"
	}
	return "Добрый вечер!"
}

func formatCurrent(d models.WeatherData, cityName string) string {
	return fmt.Sprintf(
		"📍 <b>%s</b>\n%s\n<b>%s %s</b>\n\n"+
			"🌡 Температура: %+d°C\n"+
			"🤔 Ощущается: %+d°C\n"+
			"💨 Ветер: %.1f м/с\n"+
			"💧 Влажность: %d%%\n%s",
		strings.ToUpper(cityName), divider,
		conditionEmoji(d.ConditionID), capitalize(d.Condition),
		roundTemp(d.Temperature), roundTemp(d.FeelsLike),
		d.WindSpeed, d.Humidity, divider,
	)
}

func formatForecast(days []models.ForecastDay, cityName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 <b>ПРОГНОЗ: %s</b>\n➖➖➖➖➖➖➖➖\n", strings.ToUpper(cityName))
	for _, day := range days {
		fmt.Fprintf(&sb, "\n<b>%s</b>: %+d°C, %s",
			day.Date.Format("02.01"), roundTemp(day.Temperature), day.Condition)
	}
	return sb.String()
}

func formatDigest(d models.WeatherData, cityName string, localHour int) string {
	return fmt.Sprintf("🔔 <b>РАССЫЛКА</b>\n%s\n\n%s",
		greeting(localHour), formatCurrent(d, cityName))
}

func roundTemp(t float64) int {
	return int(math.Round(t))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
