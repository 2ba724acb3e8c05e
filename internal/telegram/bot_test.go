package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogoda34/weather-bot/internal/metrics"
	"github.com/pogoda34/weather-bot/internal/models"
)

// recordingTransport answers every Bot API call locally and keeps the
// called method names in order.
type recordingTransport struct {
	mu      sync.Mutex
	methods []string
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.Split(req.URL.Path, "/")
	method := parts[len(parts)-1]

	rt.mu.Lock()
	rt.methods = append(rt.methods, method)
	rt.mu.Unlock()

	result := json.RawMessage(`true`)
	if method == "sendMessage" {
		result = json.RawMessage(`{"message_id":1,"date":1,"chat":{"id":1,"type":"private"}}`)
	}
	body, err := json.Marshal(map[string]any{"ok": true, "result": result})
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}, nil
}

func (rt *recordingTransport) called() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]string(nil), rt.methods...)
}

type fakeStore struct {
	subs map[int64]models.Subscription
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: map[int64]models.Subscription{}}
}

func (s *fakeStore) Upsert(_ context.Context, sub models.Subscription) error {
	s.subs[sub.ChatID] = sub
	return nil
}

func (s *fakeStore) GetByChatID(_ context.Context, chatID int64) (models.Subscription, error) {
	sub, ok := s.subs[chatID]
	if !ok {
		return models.Subscription{}, models.ErrNotFound
	}
	return sub, nil
}

func (s *fakeStore) Delete(_ context.Context, chatID int64) (bool, error) {
	_, ok := s.subs[chatID]
	delete(s.subs, chatID)
	return ok, nil
}

// newTestBot wires a Bot to a local transport, skipping the getMe
// handshake the real constructor performs.
func newTestBot(t *testing.T, rt *recordingTransport, repo subscriptionStore) *Bot {
	t.Helper()

	api := &tgbotapi.BotAPI{
		Token:  "test-token",
		Client: &http.Client{Transport: rt},
		Buffer: 100,
	}
	api.SetAPIEndpoint(tgbotapi.APIEndpoint)

	return &Bot{
		api:  api,
		repo: repo,
		log:  zerolog.Nop(),
		m:    metrics.New("telegram_test_"+strings.ToLower(t.Name()), nil, ""),
	}
}

// Callbacks on messages older than 48 hours arrive without the message;
// the bot must stop the spinner and nothing else.
func TestCallbackWithoutMessageOnlyAnswers(t *testing.T) {
	rt := &recordingTransport{}
	b := newTestBot(t, rt, newFakeStore())

	cq := &tgbotapi.CallbackQuery{ID: "cb-1", Data: "home"}
	require.NoError(t, b.handleCallback(context.Background(), cq))

	assert.Equal(t, []string{"answerCallbackQuery"}, rt.called(),
		"no reply can be sent without an originating chat")
}

func TestHomeCallbackSendsMenu(t *testing.T) {
	rt := &recordingTransport{}
	b := newTestBot(t, rt, newFakeStore())

	cq := &tgbotapi.CallbackQuery{
		ID:      "cb-2",
		Data:    "home",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 5}},
	}
	require.NoError(t, b.handleCallback(context.Background(), cq))

	assert.Equal(t, []string{"answerCallbackQuery", "sendMessage"}, rt.called())
}

func TestSubscribeCallbackStoresSelection(t *testing.T) {
	rt := &recordingTransport{}
	store := newFakeStore()
	b := newTestBot(t, rt, store)

	cq := &tgbotapi.CallbackQuery{
		ID:      "cb-3",
		Data:    "sub:set:kamyshin",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 9}},
	}
	require.NoError(t, b.handleCallback(context.Background(), cq))

	sub, err := store.GetByChatID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "kamyshin", sub.CityKey)
	assert.Equal(t, "Камышин", sub.CityName)
	assert.Contains(t, rt.called(), "sendMessage", "the updated menu is shown")
}
