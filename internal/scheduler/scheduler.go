package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pogoda34/weather-bot/internal/catalog"
	"github.com/pogoda34/weather-bot/internal/metrics"
	"github.com/pogoda34/weather-bot/internal/models"
)

const perSubscriberTimeout = 15 * time.Second

type subscriptionLister interface {
	ListAll(ctx context.Context) ([]models.Subscription, error)
}

type weatherGetter interface {
	Current(ctx context.Context, loc models.Location) (models.WeatherData, error)
}

type digestSender interface {
	SendWeather(chatID int64, cityName string, data models.WeatherData, localHour int) error
}

// Scheduler drives the twice-daily digest. It wakes every poll interval,
// converts wall clock to bot-local time (a fixed UTC offset, deliberately
// not DST-aware) and fires one delivery batch per configured hour per day.
//
// The delivered set lives only in memory: a restart inside a window can
// repeat that day's digest, a restart across one can lose it. That is the
// accepted trade-off, there is no persisted delivery state.
type Scheduler struct {
	repo    subscriptionLister
	weather weatherGetter
	sender  digestSender
	log     zerolog.Logger
	m       *metrics.Metrics

	hours        []int
	utcOffset    time.Duration
	pollInterval time.Duration
	sendDelay    time.Duration

	// Now is the clock source; tests replace it with a fake.
	Now func() time.Time

	// SubscriberTimeout bounds the fetch and delivery for one subscriber;
	// tests shorten it.
	SubscriberTimeout time.Duration

	delivered map[int]bool
}

// New constructs a Scheduler. hours are local hours of day (0..23),
// utcOffsetHours the fixed offset defining "local".
func New(
	repo subscriptionLister,
	weather weatherGetter,
	sender digestSender,
	logger zerolog.Logger,
	m *metrics.Metrics,
	hours []int,
	utcOffsetHours int,
	pollInterval time.Duration,
	sendDelay time.Duration,
) *Scheduler {
	logger = logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{
		repo:              repo,
		weather:           weather,
		sender:            sender,
		log:               logger,
		m:                 m,
		hours:             hours,
		utcOffset:         time.Duration(utcOffsetHours) * time.Hour,
		pollInterval:      pollInterval,
		sendDelay:         sendDelay,
		Now:               time.Now,
		SubscriberTimeout: perSubscriberTimeout,
		delivered:         make(map[int]bool),
	}
}

// Run blocks until ctx is canceled. The first check happens immediately,
// then once per poll interval. Nothing inside a tick terminates the loop.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().
		Ints("hours", s.hours).
		Dur("poll_interval", s.pollInterval).
		Msg("scheduler started")

	s.Tick(ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopping")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling decision: fire every pending window whose hour
// matches local time, re-arm every window whose hour does not. A window is
// only marked delivered after its batch ran to completion, so a failure to
// even list subscribers retries on the next qualifying tick.
func (s *Scheduler) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("tick panicked, loop continues")
			s.m.TechnicalErrors.WithLabelValues("tick_panic", "critical").Inc()
		}
	}()

	localHour := s.localTime().Hour()

	for _, h := range s.hours {
		if h == localHour {
			if !s.delivered[h] && s.runBatch(ctx, h) {
				s.delivered[h] = true
			}
			continue
		}
		// Local time has left this window: arm it for the next day.
		delete(s.delivered, h)
	}
}

// localTime applies the fixed offset. Not a timezone lookup on purpose:
// subscribers were promised 07:00/18:00 MSK and MSK has no DST.
func (s *Scheduler) localTime() time.Time {
	return s.Now().UTC().Add(s.utcOffset)
}

// runBatch delivers the digest to every subscriber, best effort. Reports
// false only when the subscription list itself could not be fetched.
func (s *Scheduler) runBatch(ctx context.Context, hour int) bool {
	start := time.Now()
	window := strconv.Itoa(hour)
	s.m.DigestRuns.WithLabelValues(window).Inc()

	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Int("hour", hour).Msg("failed to list subscriptions")
		s.m.TechnicalErrors.WithLabelValues("list_subscriptions", "critical").Inc()
		return false
	}
	s.log.Info().Int("hour", hour).Int("count", len(subs)).Msg("starting digest batch")

	for i, sub := range subs {
		if i > 0 && !s.pause(ctx) {
			s.log.Warn().Int("hour", hour).Msg("digest batch abandoned on shutdown")
			break
		}
		s.sendOne(ctx, sub, hour)
	}

	dur := time.Since(start)
	s.m.DigestRunDuration.WithLabelValues(window).Observe(dur.Seconds())
	s.log.Info().Int("hour", hour).Dur("duration", dur).Msg("digest batch completed")
	return true
}

// sendOne fetches and delivers for a single subscriber. Every failure is
// local: the subscriber is skipped and the batch moves on.
func (s *Scheduler) sendOne(ctx context.Context, sub models.Subscription, localHour int) {
	city, ok := catalog.Get(sub.CityKey)
	if !ok {
		s.log.Warn().
			Int64("chat_id", sub.ChatID).
			Str("city_key", sub.CityKey).
			Msg("subscription references unknown city, skipping")
		s.m.BusinessErrors.WithLabelValues("unknown_city_key", "warning").Inc()
		s.m.RecordDelivery("skipped")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.SubscriberTimeout)
	defer cancel()

	data, err := s.weather.Current(ctx, city.Location)
	if err != nil {
		s.log.Warn().Err(err).
			Int64("chat_id", sub.ChatID).
			Str("city", sub.CityName).
			Msg("weather fetch failed, subscriber skipped")
		s.m.RecordDelivery("skipped")
		return
	}

	if err := s.deliver(ctx, sub, data, localHour); err != nil {
		s.log.Error().Err(err).
			Int64("chat_id", sub.ChatID).
			Msg("digest delivery failed")
		s.m.RecordDelivery("error")
		return
	}
	s.m.RecordDelivery("ok")
}

// deliver runs one send under the subscriber deadline. The sender has no
// context support, so a send that outlives the deadline is abandoned
// rather than waited on; the batch must keep moving.
func (s *Scheduler) deliver(ctx context.Context, sub models.Subscription, data models.WeatherData, localHour int) error {
	done := make(chan error, 1)
	go func() {
		done <- s.sender.SendWeather(sub.ChatID, sub.CityName, data, localHour)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// pause sleeps the pacing delay between consecutive sends, honoring
// cancellation. Keeps the bot under Telegram's outbound rate limit.
func (s *Scheduler) pause(ctx context.Context) bool {
	if s.sendDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.sendDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
