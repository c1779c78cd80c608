package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/domain"
	"rollcall/internal/infrastructure/i18n"
	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/output"
	pkgdiscord "rollcall/pkg/discord"
)

// HandleComponent routes buttons and select menus by CustomID.
func (h *Handler) HandleComponent(s Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	switch {
	case customID == pkgdiscord.ButtonJoin:
		h.HandleJoin(s, i)
	case customID == pkgdiscord.ButtonLeave:
		h.HandleLeave(s, i)
	case customID == pkgdiscord.ButtonEdit:
		h.HandleEditEvent(s, i)
	case customID == pkgdiscord.ButtonRemove:
		h.HandleRemoveParticipant(s, i)
	case strings.HasPrefix(customID, selectRemovePrefix):
		h.HandleRemove(s, i)
	}
}

func (h *Handler) HandleJoin(s Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	// Only guild members may register; the engine trusts this verdict.
	if i.Member == nil || i.Member.User == nil || i.Message == nil {
		h.respondError(s, i.Interaction, "join", domain.ErrNotAuthorized)
		return
	}
	eventID := i.Message.ID

	res, err := h.engine.Register(ctx, eventID, i.Member.User.ID)
	if err != nil {
		h.respondError(s, i.Interaction, "join", err)
		return
	}

	event := h.refreshEventMessage(ctx, s, i.Message)
	kind := output.KindRegistered
	token := ""
	if res.Status == domain.StatusWaitlisted {
		kind = output.KindWaitlisted
	} else if res.Ticket != nil {
		token = res.Ticket.Token
	}
	respondEphemeral(s, i.Interaction, h.tr.T(h.locale, i18n.NotificationKey(kind), map[string]any{
		"Title": eventTitle(event, eventID),
		"Token": token,
	}))
}

func (h *Handler) HandleLeave(s Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	user := interactionUser(i)
	if user == nil || i.Message == nil {
		h.respondError(s, i.Interaction, "leave", domain.ErrNotAuthorized)
		return
	}
	eventID := i.Message.ID

	if _, err := h.engine.Cancel(ctx, eventID, user.ID); err != nil {
		h.respondError(s, i.Interaction, "leave", err)
		return
	}

	event := h.refreshEventMessage(ctx, s, i.Message)
	respondEphemeral(s, i.Interaction, "🗑️ "+h.tr.T(h.locale, i18n.NotificationKey(output.KindCancelled), map[string]any{
		"Title": eventTitle(event, eventID),
	}))
}

// HandleEditEvent opens the edit modal, prefilled with the current values.
func (h *Handler) HandleEditEvent(s Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	if i.Message == nil {
		return
	}
	if !isOrganizer(i.Member, organizerOf(i.Message)) {
		respondEphemeral(s, i.Interaction, "❌ Seul l'organisateur peut modifier l'événement.")
		return
	}
	event, err := h.engine.GetEvent(ctx, i.Message.ID)
	if err != nil {
		h.respondError(s, i.Interaction, "edit event", err)
		return
	}
	if err := s.InteractionRespond(i.Interaction, editEventModal(event)); err != nil {
		h.log.Warn("open edit modal", "event_id", event.ID, sl.Err(err))
	}
}

func organizerOf(msg *discordgo.Message) string {
	if msg == nil || len(msg.Embeds) == 0 {
		return ""
	}
	return pkgdiscord.OrganizerID(msg.Embeds[0])
}
