package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/infrastructure/i18n"
	"rollcall/internal/ports/output"
)

type directMessenger interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier sends participants a direct message. User ids are Discord
// user ids.
type DiscordNotifier struct {
	session directMessenger
	tr      output.Translator
	locale  string
}

func NewDiscordNotifier(session directMessenger, tr output.Translator, locale string) *DiscordNotifier {
	return &DiscordNotifier{session: session, tr: tr, locale: locale}
}

func (d *DiscordNotifier) Notify(ctx context.Context, n output.Notification) error {
	text := d.tr.T(d.locale, i18n.NotificationKey(n.Kind), map[string]any{
		"Title": titleOf(n),
		"Token": n.Token,
	})
	channel, err := d.session.UserChannelCreate(n.UserID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm with %s: %w", n.UserID, err)
	}
	if _, err := d.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm to %s: %w", n.UserID, err)
	}
	return nil
}

func titleOf(n output.Notification) string {
	if n.EventTitle != "" {
		return n.EventTitle
	}
	return n.EventID
}
