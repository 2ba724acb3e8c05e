package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a chat has no stored subscription.
var ErrNotFound = errors.New("subscription not found")

// Subscription binds a Telegram chat to a single catalog city for the
// scheduled digest. The chat ID is the primary key: re-subscribing
// overwrites the previous record.
type Subscription struct {
	ChatID    int64
	CityKey   string
	CityName  string
	CreatedAt time.Time
}

// Location is a geographic point used to query the weather providers.
type Location struct {
	Lat float64
	Lon float64
}

// WeatherData is a point-in-time reading for one location.
type WeatherData struct {
	City        string
	Temperature float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
	Condition   string
	ConditionID int
}

// ForecastDay is a single day of the 5-day forecast.
type ForecastDay struct {
	Date        time.Time
	Temperature float64
	Condition   string
}
