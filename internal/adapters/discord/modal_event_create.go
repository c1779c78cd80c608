package discord

import (
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sl"
	pkgdiscord "rollcall/pkg/discord"
)

func createEventModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: createEventModalID,
			Title:    "Organiser un événement",
			Components: []discordgo.MessageComponent{
				textRow("title", "Titre", discordgo.TextInputShort, true, placeholderTitle, ""),
				textRow("date", "Date de fin", discordgo.TextInputShort, true, placeholderDate, ""),
				textRow("time", "Heure de fin", discordgo.TextInputShort, true, placeholderTime, ""),
				textRow("slots", "Nombre de places", discordgo.TextInputShort, false, placeholderSlots, ""),
			},
		},
	}
}

// parseSlots convertit la valeur du champ "Nombre de places" en entier
// (0 ou vide = illimité).
func parseSlots(slotsStr string) (int, error) {
	slotsStr = strings.TrimSpace(slotsStr)
	if slotsStr == "" || slotsStr == "0" {
		return 0, nil
	}
	n, err := strconv.Atoi(slotsStr)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("invalid")
	}
	return n, nil
}

// handleCreateEventModalSubmit posts the event message, then creates the
// event under that message's id. The post is removed if creation fails.
func (h *Handler) handleCreateEventModalSubmit(s Session, i *discordgo.InteractionCreate, data discordgo.ModalSubmitInteractionData) {
	ctx, cancel := h.context()
	defer cancel()

	values := pkgdiscord.ModalValues(data)
	title := strings.TrimSpace(values["title"])
	if title == "" {
		respondEphemeral(s, i.Interaction, "❌ Le titre est requis.")
		return
	}
	endsAt, err := pkgdiscord.ParseEventDateTime(values["date"], values["time"], h.now())
	if err != nil {
		respondEphemeral(s, i.Interaction, "❌ "+err.Error())
		return
	}
	slots, err := parseSlots(values["slots"])
	if err != nil {
		respondEphemeral(s, i.Interaction, "❌ Nombre de places invalide (entier positif ou vide).")
		return
	}

	event := &entities.Event{Title: title, Capacity: slots, EndsAt: endsAt}
	embed := pkgdiscord.BuildEventEmbed(h.tr, h.locale, event, interactionUser(i), pkgdiscord.Counts{})
	msg, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: pkgdiscord.EventComponents(h.tr, h.locale, 0),
	})
	if err != nil {
		h.log.Error("post event message", sl.Err(err))
		respondEphemeral(s, i.Interaction, "❌ "+h.tr.T(h.locale, "error_internal", nil))
		return
	}

	event.ID = msg.ID
	if err := h.engine.CreateEvent(ctx, event); err != nil {
		if delErr := s.ChannelMessageDelete(msg.ChannelID, msg.ID); delErr != nil {
			h.log.Warn("remove orphan event message", "message_id", msg.ID, sl.Err(delErr))
		}
		h.respondError(s, i.Interaction, "create event", err)
		return
	}

	h.log.Info("event created", "event_id", event.ID, "capacity", event.Capacity)
	respondEphemeral(s, i.Interaction, "✅ "+h.tr.T(h.locale, "event_created", map[string]any{"Title": event.Title}))
}
