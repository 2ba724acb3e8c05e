package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Host        string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port        string `envconfig:"SERVER_PORT" default:"10000"`
	ReadTimeout int    `envconfig:"SERVER_TIMEOUT" default:"10"`
}

type Telegram struct {
	Token       string `envconfig:"BOT_TOKEN" required:"true"`
	PollTimeout int    `envconfig:"BOT_POLL_TIMEOUT" default:"60"`
}

type Weather struct {
	OpenWeatherAPIKey string        `envconfig:"OPENWEATHER_API_KEY" required:"true"`
	OpenWeatherURL    string        `envconfig:"OPENWEATHER_URL" default:"https://api.openweathermap.org/data/2.5"`
	WeatherAPIKey     string        `envconfig:"WEATHERAPI_KEY"`
	WeatherAPIURL     string        `envconfig:"WEATHERAPI_URL" default:"https://api.weatherapi.com/v1"`
	CacheTTL          time.Duration `envconfig:"WEATHER_CACHE_TTL" default:"10m"`
}

type Db struct {
	Dialect        string `envconfig:"DB_DIALECT" default:"sqlite"`
	Source         string `envconfig:"DB_NAME" default:"subscribers.db"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_DIR" default:"./migrations"`
}

type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Notifier configures the scheduled digest loop. Hours are local hours
// computed with the fixed UTCOffset, not a timezone database: the bot has
// always treated "local" as UTC+3 and subscribers expect exactly that.
type Notifier struct {
	Hours        []int         `envconfig:"NOTIFIER_HOURS" default:"7,18"`
	UTCOffset    int           `envconfig:"NOTIFIER_UTC_OFFSET" default:"3"`
	PollInterval time.Duration `envconfig:"NOTIFIER_POLL_INTERVAL" default:"30s"`
	SendDelay    time.Duration `envconfig:"NOTIFIER_SEND_DELAY" default:"200ms"`
}

type Config struct {
	LogsPath    string `envconfig:"LOGS_PATH" default:"logs/weather-bot.log"`
	HTTPLogPath string `envconfig:"HTTP_LOGS_PATH" default:"logs/weather-http.log"`

	Telegram Telegram
	Weather  Weather
	DB       Db
	Redis    Redis
	Server   Server
	Notifier Notifier
}

func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}
