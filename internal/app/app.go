package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pogoda34/weather-bot/internal/cache"
	"github.com/pogoda34/weather-bot/internal/config"
	"github.com/pogoda34/weather-bot/internal/metrics"
	"github.com/pogoda34/weather-bot/internal/models"
	"github.com/pogoda34/weather-bot/internal/repository/sqlite"
	"github.com/pogoda34/weather-bot/internal/scheduler"
	serviceLogger "github.com/pogoda34/weather-bot/internal/services/logger"
	serviceWeather "github.com/pogoda34/weather-bot/internal/services/weather"
	"github.com/pogoda34/weather-bot/internal/services/weather/decorators"
	"github.com/pogoda34/weather-bot/internal/telegram"
)

const (
	timeoutDuration = 5 * time.Second

	logFileMode = 0o644
)

type App struct {
	cfg config.Config
	l   zerolog.Logger
}

type ServiceContainer struct {
	Bot       *telegram.Bot
	Scheduler *scheduler.Scheduler
	SubRepo   *sqlite.SubscriptionRepository
	M         *metrics.Metrics

	Router     *gin.Engine
	Srv        *http.Server
	Db         *sql.DB
	Rdb        *redis.Client
	fileLogger *zap.Logger
}

func New(cfg config.Config, logger zerolog.Logger) *App {
	logger = logger.With().Str("component", "App").Logger()
	return &App{cfg: cfg, l: logger}
}

func (a *App) Start(ctx context.Context) error {
	srvContainer, err := a.init()
	if err != nil {
		return err
	}

	defer func() {
		if err := srvContainer.Srv.Close(); err != nil {
			a.l.Error().Err(err).Msg("error closing HTTP server")
		}
	}()

	srvContainer.Router.Use(gin.Recovery(), srvContainer.M.HTTPMiddleware())

	// The hosting platform probes this endpoint to keep the dyno awake.
	srvContainer.Router.GET("/", func(c *gin.Context) {
		a.l.Debug().Msg("keep-alive ping received")
		c.String(http.StatusOK, "Bot is running!")
	})
	srvContainer.Router.GET("/metrics", gin.WrapH(srvContainer.M.Handler()))

	go srvContainer.Scheduler.Run(ctx)
	a.l.Info().Msg("scheduler started")

	go func() {
		if err := srvContainer.Bot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.l.Error().Err(err).Msg("bot polling stopped with error")
		}
	}()

	go func() {
		a.l.Info().Str("http_addr", a.cfg.ServerAddress()).Msg("HTTP server listening")
		if err := srvContainer.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.l.Error().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	a.l.Info().Msg("shutdown signal received")
	return a.Stop(srvContainer)
}

func (a *App) Stop(srvContainer ServiceContainer) error {
	a.l.Info().Msg("stopping application")

	ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
	defer cancel()
	if err := srvContainer.Srv.Shutdown(ctx); err != nil {
		a.l.Error().Err(err).Msg("HTTP shutdown error")
	} else {
		a.l.Info().Msg("HTTP server stopped")
	}

	if err := srvContainer.Db.Close(); err != nil {
		a.l.Error().Err(err).Msg("database close error")
	} else {
		a.l.Info().Msg("database closed")
	}

	if err := srvContainer.Rdb.Close(); err != nil {
		a.l.Error().Err(err).Msg("redis close error")
	} else {
		a.l.Info().Msg("redis connection closed")
	}

	if err := srvContainer.fileLogger.Sync(); err != nil {
		a.l.Warn().Err(err).Msg("failed to sync HTTP file logger")
	}

	a.l.Info().Msg("application shutdown complete")
	return nil
}

func (a *App) init() (ServiceContainer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
	defer cancel()

	db, err := CreateSqliteDb(ctx, a.cfg.DB.Dialect, a.cfg.DB.Source)
	if err != nil {
		return ServiceContainer{}, err
	}
	if err := InitSqliteDb(db, a.cfg.DB.Dialect, a.cfg.DB.MigrationsPath); err != nil {
		return ServiceContainer{}, err
	}

	m := metrics.New("weather_bot", db, a.cfg.DB.Source)

	router := gin.New()
	httpSrv := &http.Server{
		Addr:        a.cfg.ServerAddress(),
		Handler:     router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	repo := sqlite.NewSubscriptionRepository(db, a.l, m)

	fileLogger, err := newFileLogger(a.cfg.HTTPLogPath)
	if err != nil {
		return ServiceContainer{}, err
	}
	httpLogClient := &http.Client{
		Transport: serviceLogger.NewRoundTripper(fileLogger),
	}

	openWeatherClient := serviceWeather.NewOpenWeatherMapClient(
		a.cfg.Weather.OpenWeatherAPIKey,
		a.cfg.Weather.OpenWeatherURL,
		httpLogClient,
		a.l,
	)
	weatherAPIClient := serviceWeather.NewClientWeatherAPI(
		a.cfg.Weather.WeatherAPIKey,
		a.cfg.Weather.WeatherAPIURL,
		httpLogClient,
		a.l,
	)
	weatherSvc := serviceWeather.NewService(a.l,
		serviceWeather.NewBreakerClient("OpenWeatherMap", openWeatherClient),
		serviceWeather.NewBreakerClient("WeatherAPI", weatherAPIClient),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	cachedWeather := decorators.NewCachedService(
		weatherSvc,
		cache.NewRedisClient[models.WeatherData](redisClient, a.l),
		cache.NewRedisClient[[]models.ForecastDay](redisClient, a.l),
		a.l,
		a.cfg.Weather.CacheTTL,
	)

	bot, err := telegram.New(
		a.cfg.Telegram.Token,
		a.cfg.Telegram.PollTimeout,
		repo,
		cachedWeather,
		a.l,
		m,
	)
	if err != nil {
		return ServiceContainer{}, err
	}

	sched := scheduler.New(
		repo,
		cachedWeather,
		bot,
		a.l,
		m,
		a.cfg.Notifier.Hours,
		a.cfg.Notifier.UTCOffset,
		a.cfg.Notifier.PollInterval,
		a.cfg.Notifier.SendDelay,
	)

	return ServiceContainer{
		Bot:        bot,
		Scheduler:  sched,
		SubRepo:    repo,
		M:          m,
		Router:     router,
		Srv:        httpSrv,
		Db:         db,
		Rdb:        redisClient,
		fileLogger: fileLogger,
	}, nil
}

func CreateSqliteDb(ctx context.Context, dialect, name string) (*sql.DB, error) {
	if name == "" {
		return nil, errors.New("database name cannot be empty")
	}
	connectionString := "file:" + name + "?cache=shared&mode=rwc"
	db, err := sql.Open(dialect, connectionString)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

func InitSqliteDb(db *sql.DB, dialect, migrationPath string) error {
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	return goose.Up(db, migrationPath)
}

func newFileLogger(filePath string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(filepath.Clean(filePath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(file),
		zap.InfoLevel,
	)
	return zap.New(core), nil
}
