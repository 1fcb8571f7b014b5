package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/expense-bot/internal/api/middleware"
	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/dvloznov/expense-bot/internal/logger"
	"github.com/dvloznov/expense-bot/internal/pipeline"
	"github.com/dvloznov/expense-bot/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Version is reported by the liveness probe.
const Version = "1.0"

// UnknownSender is recorded when a chat update has no sender name.
const UnknownSender = "Unknown"

// maxBodyBytes bounds inbound request bodies.
const maxBodyBytes = 1 << 20

// ExpenseRecorder is the part of pipeline.Service used by the handlers.
type ExpenseRecorder interface {
	Record(ctx context.Context, text, requester string) (pipeline.Extraction, error)
	RecordAndNotify(ctx context.Context, to domain.ReplyTarget, text, requester string) (pipeline.Extraction, error)
}

// ExpenseHandler serves the bot's HTTP surface.
type ExpenseHandler struct {
	recorder ExpenseRecorder
	now      func() time.Time
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(recorder ExpenseRecorder) *ExpenseHandler {
	return &ExpenseHandler{
		recorder: recorder,
		now:      time.Now,
	}
}

// Status handles GET /
func (h *ExpenseHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "Bot is running!",
		"version": Version,
	})
}

// Health handles GET /health
func (h *ExpenseHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}

// ListCategories handles GET /categories
func (h *ExpenseHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string][]string{
		"categories":      domain.CategoryList(),
		"payment_methods": domain.PaymentMethodList(),
	})
}

// TestResponse is the body returned by POST /test.
type TestResponse struct {
	Status     string               `json:"status"`
	Message    string               `json:"message"`
	ParsedData domain.ExpenseRecord `json:"parsed_data"`
}

// Test handles POST /test. It runs the pipeline up to the ledger without
// sending a chat confirmation.
func (h *ExpenseHandler) Test(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req struct {
		Text     string `json:"text"`
		UserName string `json:"user_name"`
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	requester := req.UserName
	if requester == "" {
		requester = pipeline.DefaultRequester
	}

	ex, err := h.recorder.Record(r.Context(), req.Text, requester)
	if err != nil {
		log.Error().Err(err).Str("requester", requester).Msg("Failed to record expense")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record expense")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, TestResponse{
		Status:     "success",
		Message:    AddedMessage(ex.Record),
		ParsedData: ex.Record,
	})
}

// Webhook handles POST / with a Telegram update.
func (h *ExpenseHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&update); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid update payload")
		return
	}

	msg, ok := telegram.MessageFromUpdate(update)
	if !ok {
		log.Debug().Int("update_id", update.UpdateID).Msg("Skipping update without text message")
		middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	requester := msg.SenderName
	if requester == "" {
		requester = UnknownSender
	}

	log = logger.WithFields(log, map[string]interface{}{
		"update_id":  update.UpdateID,
		"chat_id":    msg.ChatID,
		"message_id": msg.MessageID,
	})
	ctx := logger.WithContext(r.Context(), log)

	if _, err := h.recorder.RecordAndNotify(ctx, msg.ReplyTarget(), msg.Text, requester); err != nil {
		log.Error().Err(err).Msg("Failed to process update")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to process update")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AddedMessage is the one-line summary returned by the test call.
func AddedMessage(record domain.ExpenseRecord) string {
	return fmt.Sprintf("✅ Added %s (%s %s)", record.Description, record.Amount, record.Currency)
}
