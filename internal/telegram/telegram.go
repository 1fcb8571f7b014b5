// Package telegram formats expense confirmations and talks to the Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dvloznov/expense-bot/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the Bot API used to deliver messages.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot connects to the Bot API and validates the token with getMe.
// An empty endpoint means the public API; client may be nil.
func NewBot(token, endpoint string, client *http.Client) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("NewBot: token is required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("NewBot: %w", err)
	}
	return bot, nil
}

// Notifier sends expense confirmations to Telegram chats.
type Notifier struct {
	sender Sender
}

// NewNotifier creates a Notifier.
func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// Notify implements pipeline.Notifier. The confirmation is threaded under
// the message it answers. Delivery is not retried.
func (n *Notifier) Notify(ctx context.Context, to domain.ReplyTarget, record domain.ExpenseRecord) error {
	msg := tgbotapi.NewMessage(to.ChatID, FormatConfirmation(record))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyToMessageID = to.MessageID

	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("Notify: send message to chat %d: %w", to.ChatID, err)
	}
	return nil
}

// FormatConfirmation renders the Markdown confirmation for a recorded expense.
// The payment line is omitted when no method was stated.
func FormatConfirmation(record domain.ExpenseRecord) string {
	var b strings.Builder
	b.WriteString("✅ *Expense Added*\n\n")
	b.WriteString("📝 " + escape(record.Description) + "\n")
	b.WriteString("💰 " + escape(record.Amount) + " " + escape(record.Currency) + "\n")
	b.WriteString("📁 Category: " + escape(record.Category) + "\n")
	if record.PaymentMethod != "" {
		b.WriteString("💳 Payment: " + escape(record.PaymentMethod) + "\n")
	}
	b.WriteString("📅 Date: " + escape(record.Date))
	return b.String()
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
