package discord

import (
	"github.com/bwmarrin/discordgo"

	"rollcall/internal/domain"
	"rollcall/internal/platform/sl"
	pkgdiscord "rollcall/pkg/discord"
)

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func respondEphemeral(s Session, i *discordgo.Interaction, content string) {
	_ = s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondError answers with the translated domain error. Errors without a
// domain code are logged.
func (h *Handler) respondError(s Session, i *discordgo.Interaction, action string, err error) {
	if domain.Code(err) == "" {
		h.log.Error(action, sl.Err(err))
	} else {
		h.log.Debug(action, sl.Err(err))
	}
	respondEphemeral(s, i, "❌ "+pkgdiscord.DomainErrorMessage(h.tr, h.locale, err))
}

func (h *Handler) sendDM(s Session, userID, content string) {
	ch, err := s.UserChannelCreate(userID)
	if err != nil || ch == nil {
		h.log.Warn("open dm", "user_id", userID, sl.Err(err))
		return
	}
	if _, err := s.ChannelMessageSend(ch.ID, content); err != nil {
		h.log.Warn("send dm", "user_id", userID, sl.Err(err))
	}
}
