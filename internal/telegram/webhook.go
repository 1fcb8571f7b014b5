package telegram

import (
	"fmt"

	"github.com/dvloznov/expense-bot/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Requester is the part of the Bot API used for webhook management.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetWebhookInfo() (tgbotapi.WebhookInfo, error)
}

// SetWebhook points the bot at url.
func SetWebhook(bot Requester, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("SetWebhook: parse url: %w", err)
	}
	if _, err := bot.Request(wh); err != nil {
		return fmt.Errorf("SetWebhook: %w", err)
	}
	return nil
}

// DeleteWebhook removes the webhook, optionally dropping queued updates.
func DeleteWebhook(bot Requester, dropPending bool) error {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("DeleteWebhook: %w", err)
	}
	return nil
}

// WebhookStatus describes the webhook currently registered for the bot.
func WebhookStatus(bot Requester) (tgbotapi.WebhookInfo, error) {
	info, err := bot.GetWebhookInfo()
	if err != nil {
		return tgbotapi.WebhookInfo{}, fmt.Errorf("WebhookStatus: %w", err)
	}
	return info, nil
}

// IncomingMessage is the part of an update the pipeline acts on.
type IncomingMessage struct {
	ChatID     int64
	MessageID  int
	Text       string
	SenderName string
}

// ReplyTarget addresses the confirmation for this message.
func (m IncomingMessage) ReplyTarget() domain.ReplyTarget {
	return domain.ReplyTarget{ChatID: m.ChatID, MessageID: m.MessageID}
}

// MessageFromUpdate extracts the text message carried by update. ok is false
// for updates without a text message (edits, callbacks, stickers, ...).
func MessageFromUpdate(update tgbotapi.Update) (IncomingMessage, bool) {
	m := update.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return IncomingMessage{}, false
	}

	in := IncomingMessage{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.From != nil {
		in.SenderName = m.From.FirstName
	}
	return in, true
}
