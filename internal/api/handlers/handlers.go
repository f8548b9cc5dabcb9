package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/expense-bot/internal/api/middleware"
	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/dvloznov/expense-bot/internal/expense"
	"github.com/dvloznov/expense-bot/internal/logger"
	"github.com/dvloznov/expense-bot/internal/notion"
)

// maxBodyBytes caps preview request bodies.
const maxBodyBytes = 64 << 10

// Parser turns message text into an expense.
type Parser interface {
	Parse(message string) (domain.Expense, error)
}

// HealthHandler reports liveness.
type HealthHandler struct {
	botName  string
	inFlight func() int
}

// NewHealthHandler creates a new health handler. inFlight may be nil.
func NewHealthHandler(botName string, inFlight func() int) *HealthHandler {
	return &HealthHandler{
		botName:  botName,
		inFlight: inFlight,
	}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"bot":    h.botName,
	}
	if h.inFlight != nil {
		resp["in_flight"] = h.inFlight()
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// PreviewHandler parses messages without writing to Notion.
type PreviewHandler struct {
	parser Parser
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(parser Parser) *PreviewHandler {
	return &PreviewHandler{
		parser: parser,
	}
}

// ExpenseResponse is the JSON form of a parsed expense.
type ExpenseResponse struct {
	Date     string  `json:"date"`
	Item     string  `json:"item"`
	Price    float64 `json:"price"`
	Store    string  `json:"store"`
	Category string  `json:"category"`
	Quantity string  `json:"quantity"`
}

// PreviewResponse is returned by Preview on success.
type PreviewResponse struct {
	Expense    ExpenseResponse      `json:"expense"`
	Properties notionapi.Properties `json:"properties"`
}

// NewExpenseResponse converts an expense to its JSON form.
func NewExpenseResponse(e domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		Date:     e.Date.Format("2006-01-02"),
		Item:     e.Item,
		Price:    e.Price,
		Store:    e.Store,
		Category: e.Category,
		Quantity: e.Quantity,
	}
}

// Preview handles POST /api/expenses/preview
func (h *PreviewHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	e, err := h.parser.Parse(req.Message)
	if err != nil {
		var fe *expense.FormatError
		if errors.As(err, &fe) {
			middleware.WriteError(w, http.StatusUnprocessableEntity, fe.Error())
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to parse preview message")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to parse message")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, PreviewResponse{
		Expense:    NewExpenseResponse(e),
		Properties: notion.ExpenseToNotionProperties(e),
	})
}
