package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/expense-bot/internal/dispatch"
	"github.com/dvloznov/expense-bot/internal/logger"
)

// PollTimeoutSeconds is the long-poll timeout for getUpdates.
const PollTimeoutSeconds = 60

// TelegramAPI is the subset of *tgbotapi.BotAPI the bot uses.
type TelegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ TelegramAPI = (*tgbotapi.BotAPI)(nil)

// NewTelegramAPI authenticates with the Bot API using token. The library's
// own messages, such as polling failures, are routed to log.
func NewTelegramAPI(token string, log zerolog.Logger) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(NewTelegramLogger(log)); err != nil {
		return nil, fmt.Errorf("NewTelegramAPI: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("NewTelegramAPI: %w", err)
	}
	return api, nil
}

// TelegramLogger adapts a zerolog.Logger to tgbotapi.BotLogger.
// The library uses Println for failures and Printf for debug traces.
type TelegramLogger struct {
	log zerolog.Logger
}

var _ tgbotapi.BotLogger = (*TelegramLogger)(nil)

// NewTelegramLogger creates a TelegramLogger writing to log.
func NewTelegramLogger(log zerolog.Logger) *TelegramLogger {
	return &TelegramLogger{log: log.With().Str("component", "tgbotapi").Logger()}
}

func (l *TelegramLogger) Println(v ...interface{}) {
	l.log.Warn().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l *TelegramLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Bot receives Telegram updates and answers each text message through Handler.
type Bot struct {
	api        TelegramAPI
	username   string
	handler    *Handler
	dispatcher *dispatch.Dispatcher
	log        zerolog.Logger
}

// NewBot creates a new Telegram bot. username is the bot's own username; in
// group chats, commands addressed to any other bot are ignored.
func NewBot(api TelegramAPI, username string, handler *Handler, dispatcher *dispatch.Dispatcher, log zerolog.Logger) *Bot {
	return &Bot{
		api:        api,
		username:   username,
		handler:    handler,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Run drops updates that queued while the bot was offline, then long-polls
// until ctx is cancelled. Each message becomes its own dispatcher task.
// Run does not wait for in-flight tasks; stop the dispatcher for that.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("Run: drop pending updates: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = PollTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	b.log.Info().Msg("Polling for Telegram updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info().Msg("Stopped polling for Telegram updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.route(ctx, update)
		}
	}
}

// route dispatches one update. Updates without a text message are ignored.
func (b *Bot) route(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.Chat == nil {
		return
	}

	log := b.log.With().
		Int("update_id", update.UpdateID).
		Int64("chat_id", msg.Chat.ID).
		Int("telegram_message_id", msg.MessageID).
		Logger()
	msgCtx := logger.WithContext(ctx, log)

	if _, err := b.dispatcher.Dispatch(msgCtx, func(ctx context.Context) {
		b.handle(ctx, msg)
	}); err != nil {
		log.Warn().Err(err).Msg("Message not dispatched")
	}
}

func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) {
	log := logger.FromContext(ctx)

	var reply string
	if msg.IsCommand() {
		if b.addressedToOther(msg) {
			log.Debug().Str("command", msg.CommandWithAt()).Msg("Ignoring command for another bot")
			return
		}
		var ok bool
		reply, ok = b.handler.HandleCommand(msg.Command())
		if !ok {
			log.Debug().Str("command", msg.Command()).Msg("Ignoring unknown command")
			return
		}
	} else {
		reply = b.handler.HandleText(ctx, msg.Text)
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		log.Error().Err(err).Msg("Failed to send reply")
	}
}

// addressedToOther reports whether a command names a different bot,
// as in /start@otherbot.
func (b *Bot) addressedToOther(msg *tgbotapi.Message) bool {
	_, target, found := strings.Cut(msg.CommandWithAt(), "@")
	return found && !strings.EqualFold(target, b.username)
}
