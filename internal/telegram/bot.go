package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/pogoda34/weather-bot/internal/catalog"
	"github.com/pogoda34/weather-bot/internal/metrics"
	"github.com/pogoda34/weather-bot/internal/models"
)

const (
	handlerTimeout = 10 * time.Second

	// Headroom on top of the long-poll timeout so getUpdates is not cut
	// short while every other Bot API call still has an upper bound.
	pollTimeoutMargin = 10 * time.Second
)

type subscriptionStore interface {
	Upsert(ctx context.Context, sub models.Subscription) error
	GetByChatID(ctx context.Context, chatID int64) (models.Subscription, error)
	Delete(ctx context.Context, chatID int64) (bool, error)
}

type weatherService interface {
	Current(ctx context.Context, loc models.Location) (models.WeatherData, error)
	Forecast(ctx context.Context, loc models.Location) ([]models.ForecastDay, error)
}

// Bot is the conversational transport: long polling, inline-keyboard
// menus, and the outbound channel the scheduler delivers through.
type Bot struct {
	api         *tgbotapi.BotAPI
	repo        subscriptionStore
	weather     weatherService
	log         zerolog.Logger
	m           *metrics.Metrics
	pollTimeout int
}

func New(
	token string,
	pollTimeout int,
	repo subscriptionStore,
	weather weatherService,
	logger zerolog.Logger,
	m *metrics.Metrics,
) (*Bot, error) {
	httpClient := &http.Client{
		Timeout: time.Duration(pollTimeout)*time.Second + pollTimeoutMargin,
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("component", "TelegramBot").Logger()
	logger.Info().Str("username", api.Self.UserName).Msg("authorized on Telegram")
	return &Bot{
		api:         api,
		repo:        repo,
		weather:     weather,
		log:         logger,
		m:           m,
		pollTimeout: pollTimeout,
	}, nil
}

// StartPolling consumes updates until ctx is canceled. A webhook left by a
// previous deployment would break getUpdates, so it is dropped first.
func (b *Bot) StartPolling(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		b.log.Warn().Err(err).Msg("failed to delete webhook")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.log.Info().Msg("polling for updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info().Msg("polling stopped")
			return ctx.Err()
		case up := <-updates:
			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			if err := b.handleUpdate(hctx, up); err != nil {
				b.log.Error().Err(err).Msg("update handling failed")
				b.m.TechnicalErrors.WithLabelValues("update_handler", "warning").Inc()
			}
			cancel()
		}
	}
}

// SendWeather delivers the scheduled digest for one subscriber. This is
// the scheduler's delivery port.
func (b *Bot) SendWeather(chatID int64, cityName string, data models.WeatherData, localHour int) error {
	msg := tgbotapi.NewMessage(chatID, formatDigest(data, cityName, localHour))
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleUpdate(ctx context.Context, up tgbotapi.Update) error {
	switch {
	case up.Message != nil && up.Message.IsCommand():
		if up.Message.Command() == "start" {
			b.log.Info().Int64("chat_id", up.Message.Chat.ID).Msg("start command")
			return b.sendMainMenu(up.Message.Chat.ID)
		}
		return nil
	case up.CallbackQuery != nil:
		return b.handleCallback(ctx, up.CallbackQuery)
	default:
		return nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	// Telegram drops the originating message from callbacks older than
	// 48 hours; there is no chat to reply into, so only stop the spinner.
	if cq.Message == nil {
		b.answer(cq.ID, "")
		return nil
	}
	chatID := cq.Message.Chat.ID
	data := cq.Data

	switch {
	case data == "home":
		b.answer(cq.ID, "")
		return b.sendMainMenu(chatID)
	case strings.HasPrefix(data, "weather:"):
		return b.showCurrent(ctx, cq, strings.TrimPrefix(data, "weather:"))
	case strings.HasPrefix(data, "forecast:"):
		return b.showForecast(ctx, cq, strings.TrimPrefix(data, "forecast:"))
	case data == "sub:menu":
		b.answer(cq.ID, "")
		return b.sendSubMenu(ctx, chatID)
	case data == "sub:list":
		b.answer(cq.ID, "")
		return b.sendSubList(chatID)
	case strings.HasPrefix(data, "sub:set:"):
		return b.subscribe(ctx, cq, strings.TrimPrefix(data, "sub:set:"))
	case data == "unsub":
		return b.unsubscribe(ctx, cq)
	default:
		b.answer(cq.ID, "")
		b.log.Warn().Str("data", data).Msg("unknown callback")
		return nil
	}
}

func (b *Bot) showCurrent(ctx context.Context, cq *tgbotapi.CallbackQuery, key string) error {
	city, ok := catalog.Get(key)
	if !ok {
		b.answer(cq.ID, "Город не найден")
		return nil
	}
	b.answer(cq.ID, "Загружаю: "+city.Name)
	b.m.WeatherRequests.WithLabelValues("current").Inc()

	text := "⚠️ Ошибка данных погоды"
	if data, err := b.weather.Current(ctx, city.Location); err == nil {
		text = formatCurrent(data, city.Name)
	} else {
		b.log.Warn().Err(err).Str("city", city.Key).Msg("current weather fetch failed")
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Прогноз на 5 дней", "forecast:"+key),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Меню", "home"),
		),
	)
	return b.sendHTML(cq.Message.Chat.ID, text, &kb)
}

func (b *Bot) showForecast(ctx context.Context, cq *tgbotapi.CallbackQuery, key string) error {
	city, ok := catalog.Get(key)
	if !ok {
		b.answer(cq.ID, "Город не найден")
		return nil
	}
	b.answer(cq.ID, "Прогноз: "+city.Name)
	b.m.WeatherRequests.WithLabelValues("forecast").Inc()

	text := "⚠️ Ошибка данных погоды"
	if days, err := b.weather.Forecast(ctx, city.Location); err == nil {
		text = formatForecast(days, city.Name)
	} else {
		b.log.Warn().Err(err).Str("city", city.Key).Msg("forecast fetch failed")
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "weather:"+key),
		),
	)
	return b.sendHTML(cq.Message.Chat.ID, text, &kb)
}

func (b *Bot) sendSubMenu(ctx context.Context, chatID int64) error {
	var text string
	var kb tgbotapi.InlineKeyboardMarkup

	sub, err := b.repo.GetByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("subscription lookup failed")
	}
	if err == nil {
		text = "📬 <b>РАССЫЛКА</b>\n\nВы подписаны на: <b>" + sub.CityName + "</b>"
		kb = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("❌ Отписаться", "unsub"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "home"),
			),
		)
	} else {
		text = "📬 <b>РАССЫЛКА</b>\n\nПодписаться на прогноз (07:00 и 18:00 МСК)?"
		kb = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔔 Подписаться", "sub:list"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "home"),
			),
		)
	}
	return b.sendHTML(chatID, text, &kb)
}

func (b *Bot) sendSubList(chatID int64) error {
	rows := cityRows("sub:set:", false)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Отмена", "sub:menu"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return b.sendHTML(chatID, "Выберите город для рассылки:", &kb)
}

func (b *Bot) subscribe(ctx context.Context, cq *tgbotapi.CallbackQuery, key string) error {
	city, ok := catalog.Get(key)
	if !ok {
		b.answer(cq.ID, "Город не найден")
		return nil
	}
	err := b.repo.Upsert(ctx, models.Subscription{
		ChatID:   cq.Message.Chat.ID,
		CityKey:  city.Key,
		CityName: city.Name,
	})
	if err != nil {
		b.answer(cq.ID, "Не получилось, попробуйте ещё раз")
		return err
	}
	b.alert(cq.ID, "✅ Подписка на "+city.Name+" оформлена!")
	return b.sendSubMenu(ctx, cq.Message.Chat.ID)
}

func (b *Bot) unsubscribe(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if _, err := b.repo.Delete(ctx, cq.Message.Chat.ID); err != nil {
		b.answer(cq.ID, "Не получилось, попробуйте ещё раз")
		return err
	}
	b.alert(cq.ID, "❌ Подписка отменена")
	return b.sendSubMenu(ctx, cq.Message.Chat.ID)
}

func (b *Bot) sendMainMenu(chatID int64) error {
	rows := cityRows("weather:", true)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📬 Рассылка", "sub:menu"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	text := "🌤 <b>ПОГОДА 34</b>\nВолгоградская область\n\nВыберите город из списка ниже:"
	return b.sendHTML(chatID, text, &kb)
}

// cityRows lays the catalog out two buttons per row.
func cityRows(prefix string, withEmoji bool) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range catalog.All() {
		label := c.Name
		if withEmoji {
			label = c.Emoji + " " + c.Name
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, prefix+c.Key))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func (b *Bot) sendHTML(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Warn().Err(err).Msg("callback answer failed")
	}
}

func (b *Bot) alert(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		b.log.Warn().Err(err).Msg("callback alert failed")
	}
}
