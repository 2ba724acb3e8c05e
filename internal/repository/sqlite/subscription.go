package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/pogoda34/weather-bot/internal/metrics"
	"github.com/pogoda34/weather-bot/internal/models"
)

// SubscriptionRepository handles CRUD operations on subscriptions with
// structured logging and metrics.
type SubscriptionRepository struct {
	DB  *sql.DB
	log zerolog.Logger
	m   *metrics.Metrics
}

// NewSubscriptionRepository constructs a repository with logger context and metrics collector.
func NewSubscriptionRepository(db *sql.DB, logger zerolog.Logger, m *metrics.Metrics) *SubscriptionRepository {
	logger = logger.With().Str("component", "SubscriptionRepository").Logger()
	return &SubscriptionRepository{DB: db, log: logger, m: m}
}

// Upsert stores the subscription for a chat, replacing any previous one.
// A chat holds at most one subscription at a time.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub models.Subscription) error {
	start := time.Now()

	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO subscriptions (chat_id, city_key, city_name, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET
		    city_key = excluded.city_key,
		    city_name = excluded.city_name,
		    updated_at = excluded.created_at`,
		sub.ChatID, sub.CityKey, sub.CityName, time.Now(),
	)
	dur := time.Since(start)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).
			Int64("chat_id", sub.ChatID).
			Msg("failed to upsert subscription")
		r.m.TechnicalErrors.WithLabelValues("db_upsert_error", "critical").Inc()
		return err
	}

	r.log.Info().Ctx(ctx).
		Int64("chat_id", sub.ChatID).
		Str("city_key", sub.CityKey).
		Dur("duration", dur).
		Msg("subscription saved")
	r.m.SubscriptionsCreated.Inc()
	return nil
}

// GetByChatID returns the subscription for a chat, or ErrNotFound.
func (r *SubscriptionRepository) GetByChatID(ctx context.Context, chatID int64) (models.Subscription, error) {
	var sub models.Subscription
	var created sql.NullTime

	err := r.DB.QueryRowContext(ctx,
		`SELECT chat_id, city_key, city_name, created_at
		 FROM subscriptions WHERE chat_id = ?`, chatID,
	).Scan(&sub.ChatID, &sub.CityKey, &sub.CityName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscription{}, models.ErrNotFound
	}
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).
			Int64("chat_id", chatID).
			Msg("failed to query subscription")
		r.m.TechnicalErrors.WithLabelValues("db_query_error", "critical").Inc()
		return models.Subscription{}, err
	}
	if created.Valid {
		sub.CreatedAt = created.Time
	}
	return sub, nil
}

// Delete removes the subscription for a chat. Returns false if none existed.
func (r *SubscriptionRepository) Delete(ctx context.Context, chatID int64) (bool, error) {
	start := time.Now()

	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE chat_id = ?", chatID,
	)
	dur := time.Since(start)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).
			Int64("chat_id", chatID).
			Msg("failed to delete subscription")
		r.m.TechnicalErrors.WithLabelValues("db_delete_error", "critical").Inc()
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		r.m.TechnicalErrors.WithLabelValues("db_rows_error", "critical").Inc()
		return false, err
	}

	if count > 0 {
		r.log.Info().Ctx(ctx).
			Int64("chat_id", chatID).
			Dur("duration", dur).
			Msg("subscription deleted")
		r.m.SubscriptionsCanceled.Inc()
	}
	return count > 0, nil
}

// ListAll returns a snapshot of every stored subscription.
func (r *SubscriptionRepository) ListAll(ctx context.Context) ([]models.Subscription, error) {
	start := time.Now()

	rows, err := r.DB.QueryContext(ctx,
		`SELECT chat_id, city_key, city_name, created_at FROM subscriptions`,
	)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to query subscriptions")
		r.m.TechnicalErrors.WithLabelValues("db_query_error", "critical").Inc()
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error().Err(err).Ctx(ctx).Msg("failed to close rows after query")
		}
	}(rows)

	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		var created sql.NullTime

		if err := rows.Scan(&sub.ChatID, &sub.CityKey, &sub.CityName, &created); err != nil {
			r.log.Error().Err(err).Ctx(ctx).Msg("failed to scan subscription row")
			r.m.TechnicalErrors.WithLabelValues("db_scan_error", "critical").Inc()
			return nil, err
		}
		if created.Valid {
			sub.CreatedAt = created.Time
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		r.m.TechnicalErrors.WithLabelValues("db_rows_error", "critical").Inc()
		return nil, err
	}

	r.log.Debug().Ctx(ctx).
		Int("count", len(subs)).
		Dur("duration", time.Since(start)).
		Msg("retrieved subscriptions")
	return subs, nil
}
