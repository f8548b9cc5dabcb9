package bot

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/expense-bot/internal/dispatch"
)

const testBotName = "expense_bot"

// fakeTelegram is an in-memory TelegramAPI.
type fakeTelegram struct {
	updates    chan tgbotapi.Update
	requestErr error

	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	stopped  bool
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeTelegram) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegram) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mc, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, mc)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) sentMessages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func textUpdate(id int, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			MessageID: id * 10,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func commandUpdate(id int, chatID int64, command string) tgbotapi.Update {
	u := textUpdate(id, chatID, "/"+command)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command) + 1}}
	return u
}

func waitForSent(t *testing.T, f *fakeTelegram, n int) []tgbotapi.MessageConfig {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sent := f.sentMessages(); len(sent) >= n {
			return sent
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d replies, got %d", n, len(f.sentMessages()))
	return nil
}

func TestBot_Run(t *testing.T) {
	api := newFakeTelegram()
	sub := &mockSubmitter{}
	d := dispatch.New(4, zerolog.Nop())
	b := NewBot(api, testBotName, NewHandler(testParser(), sub), d, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- b.Run(ctx) }()

	api.updates <- commandUpdate(1, 100, "start")
	api.updates <- textUpdate(2, 200, "Eggs, 3.50, Walmart, Groceries")
	api.updates <- textUpdate(3, 300, "A, B, C")
	api.updates <- commandUpdate(4, 400, "settings")
	api.updates <- tgbotapi.Update{UpdateID: 5}
	api.updates <- tgbotapi.Update{UpdateID: 6, Message: &tgbotapi.Message{MessageID: 60, Chat: &tgbotapi.Chat{ID: 600}}}

	sent := waitForSent(t, api, 3)

	cancel()
	require.NoError(t, <-runErr)
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, d.Stop(stopCtx))

	sent = api.sentMessages()
	require.Len(t, sent, 3, "unknown commands and non-text updates get no reply")

	byChat := make(map[int64]tgbotapi.MessageConfig)
	for _, m := range sent {
		byChat[m.ChatID] = m
	}

	assert.Equal(t, HelpText, byChat[100].Text)
	assert.Equal(t, 10, byChat[100].ReplyToMessageID)

	assert.Contains(t, byChat[200].Text, "✅ Expense added:")
	assert.Equal(t, 20, byChat[200].ReplyToMessageID)

	assert.Contains(t, byChat[300].Text, "❌ Error: ")
	assert.Equal(t, 30, byChat[300].ReplyToMessageID)

	assert.Equal(t, 1, sub.calls())

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.True(t, api.stopped)
	require.Len(t, api.requests, 1)
	assert.Equal(t, tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}, api.requests[0])
}

func TestBot_RunFailsWhenDropPendingFails(t *testing.T) {
	api := newFakeTelegram()
	api.requestErr = errors.New("Unauthorized")
	b := NewBot(api, testBotName, NewHandler(testParser(), &mockSubmitter{}), dispatch.New(1, zerolog.Nop()), zerolog.Nop())

	err := b.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestBot_RunReturnsWhenUpdatesClosed(t *testing.T) {
	api := newFakeTelegram()
	close(api.updates)
	b := NewBot(api, testBotName, NewHandler(testParser(), &mockSubmitter{}), dispatch.New(1, zerolog.Nop()), zerolog.Nop())

	assert.NoError(t, b.Run(context.Background()))
}

func TestBot_IgnoresCommandsForOtherBots(t *testing.T) {
	api := newFakeTelegram()
	d := dispatch.New(4, zerolog.Nop())
	b := NewBot(api, testBotName, NewHandler(testParser(), &mockSubmitter{}), d, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- b.Run(ctx) }()

	api.updates <- commandUpdate(1, 100, "start@other_bot")
	api.updates <- commandUpdate(2, 200, "start@Expense_Bot")
	api.updates <- commandUpdate(3, 300, "help")

	waitForSent(t, api, 2)

	cancel()
	require.NoError(t, <-runErr)
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, d.Stop(stopCtx))

	sent := api.sentMessages()
	require.Len(t, sent, 2)
	for _, m := range sent {
		assert.NotEqual(t, int64(100), m.ChatID, "command for another bot must not be answered")
		assert.Equal(t, HelpText, m.Text)
	}
}

func TestTelegramLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewTelegramLogger(zerolog.New(buf).Level(zerolog.DebugLevel))

	l.Println(errors.New("connection reset"))
	l.Println("Failed to get updates, retrying in 3 seconds...")
	l.Printf("Endpoint: %s, params: %v\n", "getUpdates", map[string]string{})

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"message":"connection reset"`)
	assert.Contains(t, out, `"message":"Failed to get updates, retrying in 3 seconds..."`)
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"message":"Endpoint: getUpdates, params: map[]"`)
	assert.Contains(t, out, `"component":"tgbotapi"`)
}
