package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"rollcall/internal/ports/output"
)

type messageSender interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
}

// TelegramNotifier posts every participation change to the organisers' chat.
type TelegramNotifier struct {
	api    messageSender
	chatID int64
	tr     output.Translator
	locale string
}

func NewTelegramNotifier(apiKey string, chatID int64, tr output.Translator, locale string) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %w", err)
	}
	return newTelegramNotifier(api, chatID, tr, locale), nil
}

func newTelegramNotifier(api messageSender, chatID int64, tr output.Translator, locale string) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID, tr: tr, locale: locale}
}

func (t *TelegramNotifier) Notify(_ context.Context, n output.Notification) error {
	text := t.tr.T(t.locale, "host_change", map[string]any{
		"User":  n.UserID,
		"Kind":  n.Kind,
		"Title": titleOf(n),
	})
	if _, err := t.api.SendMessage(t.chatID, text, &tgbotapi.SendMessageOpts{}); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
