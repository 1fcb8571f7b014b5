package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/dvloznov/expense-bot/internal/logger"
	"github.com/dvloznov/expense-bot/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	reply string
	err   error
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func (f *fakeOracle) Name() string { return "fake" }

type appendCall struct {
	record    domain.ExpenseRecord
	requester string
}

type fakeLedger struct {
	calls []appendCall
	err   error
}

func (f *fakeLedger) Append(ctx context.Context, record domain.ExpenseRecord, requester string) error {
	f.calls = append(f.calls, appendCall{record: record, requester: requester})
	return f.err
}

func (f *fakeLedger) Name() string { return "fake" }

type notifyCall struct {
	to     domain.ReplyTarget
	record domain.ExpenseRecord
}

type fakeNotifier struct {
	calls []notifyCall
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, to domain.ReplyTarget, record domain.ExpenseRecord) error {
	f.calls = append(f.calls, notifyCall{to: to, record: record})
	return f.err
}

const coffeeReply = `{"amount":"5","currency":"USD","description":"Coffee","category":"Food & Dining","date":"2024-01-15"}`

type fixture struct {
	ledger   *fakeLedger
	notifier *fakeNotifier
	server   http.Handler
}

func newFixture(reply string) *fixture {
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	now := func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	extractor := pipeline.NewExtractor(&fakeOracle{reply: reply}, pipeline.NewNormalizer(now))
	svc := pipeline.NewService(extractor, ledger, notifier, nil)

	return &fixture{
		ledger:   ledger,
		notifier: notifier,
		server:   Routes(NewExpenseHandler(svc)),
	}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	rec := newFixture(coffeeReply).do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Bot is running!","version":"1.0"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := newFixture(coffeeReply).do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	_, err := time.Parse(time.RFC3339, body["time"])
	assert.NoError(t, err)
}

func TestListCategories_FixedOrder(t *testing.T) {
	rec := newFixture(coffeeReply).do(http.MethodGet, "/categories", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"categories": [
			"Food & Dining", "Transportation", "Groceries", "Shopping",
			"Entertainment", "Bills & Utilities", "Healthcare", "Travel",
			"Education", "Personal Care", "Home & Garden", "Sports & Fitness",
			"Gifts & Donations", "Business", "Subscriptions", "Other"
		],
		"payment_methods": ["Cash", "Credit Card", "Debit Card", "Bank Transfer", "Digital Wallet", "Other"]
	}`, rec.Body.String())
}

func TestTest_CoffeeScenario(t *testing.T) {
	f := newFixture(coffeeReply)

	rec := f.do(http.MethodPost, "/test", `{"text":"Coffee $5","user_name":"Alice"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "✅ Added Coffee (5 USD)", resp.Message)
	assert.Equal(t, domain.ExpenseRecord{
		Amount:      "5",
		Currency:    "USD",
		Description: "Coffee",
		Category:    "Food & Dining",
		Date:        "2024-01-15",
	}, resp.ParsedData)

	require.Len(t, f.ledger.calls, 1)
	assert.Equal(t, "Alice", f.ledger.calls[0].requester)
	assert.Empty(t, f.notifier.calls)
}

func TestTest_DefaultUserName(t *testing.T) {
	f := newFixture(coffeeReply)

	rec := f.do(http.MethodPost, "/test", `{"text":"Coffee $5"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.ledger.calls, 1)
	assert.Equal(t, pipeline.DefaultRequester, f.ledger.calls[0].requester)
}

func TestTest_ParseFailureStillSucceeds(t *testing.T) {
	f := newFixture("not json")

	rec := f.do(http.MethodPost, "/test", `{"text":"lunch"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0", resp.ParsedData.Amount)
	assert.Equal(t, "lunch", resp.ParsedData.Description)
	assert.Equal(t, "Other", resp.ParsedData.Category)
	assert.True(t, strings.HasPrefix(resp.ParsedData.Notes, "Parse error:"))
}

func TestTest_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"text":`},
		{name: "missing text", body: `{"user_name":"Alice"}`},
		{name: "blank text", body: `{"text":"   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(coffeeReply)
			rec := f.do(http.MethodPost, "/test", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, f.ledger.calls)
		})
	}
}

func TestTest_LedgerFailure(t *testing.T) {
	f := newFixture(coffeeReply)
	f.ledger.err = errors.New("permission denied")

	rec := f.do(http.MethodPost, "/test", `{"text":"Coffee $5"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to record expense"}`, rec.Body.String())
}

const textUpdate = `{"update_id":10,"message":{"message_id":31,"date":0,"chat":{"id":99,"type":"private"},"from":{"id":7,"is_bot":false,"first_name":"Alice"},"text":"Coffee $5"}}`

func TestWebhook_TextMessage(t *testing.T) {
	f := newFixture(coffeeReply)

	rec := f.do(http.MethodPost, "/", textUpdate)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	require.Len(t, f.ledger.calls, 1)
	assert.Equal(t, "Alice", f.ledger.calls[0].requester)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, domain.ReplyTarget{ChatID: 99, MessageID: 31}, f.notifier.calls[0].to)
	assert.Equal(t, "Coffee", f.notifier.calls[0].record.Description)
}

func TestWebhook_PipelineLogsCarryUpdateFields(t *testing.T) {
	f := newFixture(coffeeReply)
	var buf bytes.Buffer

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(textUpdate))
	req = req.WithContext(logger.WithContext(req.Context(), logger.NewWithWriter(&buf)))
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var appended map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["message"] == "Expense appended to ledger" {
			appended = entry
		}
	}
	require.NotNil(t, appended, "pipeline should log through the request logger")
	assert.Equal(t, float64(10), appended["update_id"])
	assert.Equal(t, float64(99), appended["chat_id"])
	assert.Equal(t, float64(31), appended["message_id"])
}

func TestWebhook_NoSenderName(t *testing.T) {
	f := newFixture(coffeeReply)

	rec := f.do(http.MethodPost, "/", `{"update_id":11,"message":{"message_id":1,"date":0,"chat":{"id":-5,"type":"channel"},"text":"Coffee $5"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.ledger.calls, 1)
	assert.Equal(t, UnknownSender, f.ledger.calls[0].requester)
}

func TestWebhook_NonTextUpdateSkipped(t *testing.T) {
	f := newFixture(coffeeReply)

	rec := f.do(http.MethodPost, "/", `{"update_id":12,"edited_message":{"message_id":1,"date":0,"chat":{"id":99,"type":"private"},"text":"Coffee $6"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Empty(t, f.ledger.calls)
	assert.Empty(t, f.notifier.calls)
}

func TestWebhook_Failures(t *testing.T) {
	t.Run("ledger", func(t *testing.T) {
		f := newFixture(coffeeReply)
		f.ledger.err = errors.New("quota exceeded")

		rec := f.do(http.MethodPost, "/", textUpdate)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, f.notifier.calls)
	})

	t.Run("notifier", func(t *testing.T) {
		f := newFixture(coffeeReply)
		f.notifier.err = errors.New("chat not found")

		rec := f.do(http.MethodPost, "/", textUpdate)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Len(t, f.ledger.calls, 1)
	})

	t.Run("invalid payload", func(t *testing.T) {
		f := newFixture(coffeeReply)

		rec := f.do(http.MethodPost, "/", `not json`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.ledger.calls)
	})
}

func TestRoutes_NotFoundAndMethodNotAllowed(t *testing.T) {
	f := newFixture(coffeeReply)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodDelete, "/", http.StatusMethodNotAllowed},
		{http.MethodPost, "/categories", http.StatusMethodNotAllowed},
		{http.MethodGet, "/test", http.StatusMethodNotAllowed},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, "")
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestAddedMessage(t *testing.T) {
	got := AddedMessage(domain.ExpenseRecord{Description: "Taxi", Amount: "12.50", Currency: "EUR"})
	assert.Equal(t, "✅ Added Taxi (12.50 EUR)", got)
}
