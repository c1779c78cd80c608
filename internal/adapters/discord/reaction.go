package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/domain"
	"rollcall/internal/platform/sl"
	pkgdiscord "rollcall/pkg/discord"
)

const reactionJoinEmoji = "✅"

// HandleReactionJoin registers a member who reacted with ✅ on an event post.
// Refusals are sent by direct message; confirmations come from the
// notification channel.
func (h *Handler) HandleReactionJoin(s Session, r *discordgo.MessageReactionAdd) {
	if r.Emoji.Name != reactionJoinEmoji || r.Member == nil {
		return
	}
	ctx, cancel := h.context()
	defer cancel()

	_, err := h.engine.Register(ctx, r.MessageID, r.UserID)
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		return
	case err != nil:
		h.log.Debug("reaction join", "event_id", r.MessageID, "user_id", r.UserID, sl.Err(err))
		h.sendDM(s, r.UserID, "❌ "+pkgdiscord.DomainErrorMessage(h.tr, h.locale, err))
		return
	}

	h.refreshEventMessageByID(ctx, s, r.ChannelID, r.MessageID)
}

// HandleReactionLeave cancels the registration of a member who removed
// their ✅.
func (h *Handler) HandleReactionLeave(s Session, r *discordgo.MessageReactionRemove) {
	if r.Emoji.Name != reactionJoinEmoji {
		return
	}
	ctx, cancel := h.context()
	defer cancel()

	if _, err := h.engine.Cancel(ctx, r.MessageID, r.UserID); err != nil {
		return
	}
	h.refreshEventMessageByID(ctx, s, r.ChannelID, r.MessageID)
}
