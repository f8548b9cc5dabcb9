package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/dvloznov/expense-bot/internal/expense"
	"github.com/dvloznov/expense-bot/internal/logger"
	"github.com/dvloznov/expense-bot/internal/notion"
)

// Parser turns message text into an expense.
type Parser interface {
	Parse(message string) (domain.Expense, error)
}

// Submitter stores an expense in the external database.
type Submitter interface {
	Submit(ctx context.Context, e domain.Expense) (*notion.Submission, error)
}

// Handler runs the parse → submit pipeline for one message and builds the reply.
// It holds no per-message state and is safe for concurrent use.
type Handler struct {
	parser    Parser
	submitter Submitter
}

// NewHandler creates a new message handler.
func NewHandler(parser Parser, submitter Submitter) *Handler {
	return &Handler{
		parser:    parser,
		submitter: submitter,
	}
}

// HandleCommand returns the reply for a bot command (without the leading
// slash). ok is false for commands the bot does not answer.
func (h *Handler) HandleCommand(command string) (reply string, ok bool) {
	switch strings.ToLower(command) {
	case "start", "help":
		return HelpText, true
	default:
		return "", false
	}
}

// HandleText processes one expense message and always returns exactly one
// reply. The submitter is only called when parsing succeeds.
func (h *Handler) HandleText(ctx context.Context, text string) string {
	log := logger.FromContext(ctx)

	e, err := h.parser.Parse(text)
	if err != nil {
		var fe *expense.FormatError
		if errors.As(err, &fe) {
			log.Info().Err(err).Msg("Rejected malformed expense message")
			return FormatParseError(err)
		}
		log.Error().Err(err).Str("text", text).Msg("Unexpected error while parsing expense")
		return FormatUnexpectedError(err)
	}

	sub, err := h.submitter.Submit(ctx, e)
	if err != nil {
		log.Error().
			Err(err).
			Str("item", e.Item).
			Float64("price", e.Price).
			Str("store", e.Store).
			Str("category", e.Category).
			Msg("Failed to create Notion page")
		return FormatUnexpectedError(err)
	}

	log.Info().
		Str("page_id", sub.PageID).
		Str("item", e.Item).
		Float64("price", e.Price).
		Time("date", e.Date).
		Msg("Expense added")

	return FormatConfirmation(e)
}
