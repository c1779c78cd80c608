package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sl"
	pkgdiscord "rollcall/pkg/discord"
)

// refreshEventMessage redraws the event post from the engine's state and
// returns the event, or nil when it could not be loaded.
func (h *Handler) refreshEventMessage(ctx context.Context, s Session, msg *discordgo.Message) *entities.Event {
	event, err := h.engine.GetEvent(ctx, msg.ID)
	if err != nil {
		h.log.Warn("load event for refresh", "event_id", msg.ID, sl.Err(err))
		return nil
	}
	list, err := h.engine.ListParticipants(ctx, msg.ID)
	if err != nil {
		h.log.Warn("list participants for refresh", "event_id", msg.ID, sl.Err(err))
		return event
	}
	counts := pkgdiscord.CountParticipations(list)

	var embed discordgo.MessageEmbed
	if len(msg.Embeds) > 0 && msg.Embeds[0] != nil {
		embed = *msg.Embeds[0]
	}
	pkgdiscord.UpdateEventEmbed(h.tr, h.locale, &embed, event, counts)
	components := pkgdiscord.EventComponents(h.tr, h.locale, counts.Registered)

	embeds := []*discordgo.MessageEmbed{&embed}
	if _, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         msg.ID,
		Channel:    msg.ChannelID,
		Embeds:     &embeds,
		Components: &components,
	}); err != nil {
		h.log.Warn("update event message", "event_id", msg.ID, sl.Err(err))
	}
	return event
}

func (h *Handler) refreshEventMessageByID(ctx context.Context, s Session, channelID, messageID string) *entities.Event {
	msg, err := s.ChannelMessage(channelID, messageID)
	if err != nil || msg == nil {
		h.log.Warn("fetch event message", "event_id", messageID, sl.Err(err))
		return nil
	}
	return h.refreshEventMessage(ctx, s, msg)
}

func eventTitle(event *entities.Event, fallback string) string {
	if event == nil || event.Title == "" {
		return fallback
	}
	return event.Title
}
