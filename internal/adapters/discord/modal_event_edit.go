package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/domain/entities"
	pkgdiscord "rollcall/pkg/discord"
	"rollcall/pkg/tz"
)

func editEventModal(event *entities.Event) *discordgo.InteractionResponse {
	var date, clock, slots string
	if !event.EndsAt.IsZero() {
		local := event.EndsAt.In(tz.Events())
		date = local.Format("02/01/2006")
		clock = local.Format("15:04")
	}
	if event.Capacity > 0 {
		slots = strconv.Itoa(event.Capacity)
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: editEventModalIDPrefix + event.ID,
			Title:    "Modifier l'événement",
			Components: []discordgo.MessageComponent{
				textRow("title", "Titre", discordgo.TextInputShort, true, placeholderTitle, event.Title),
				textRow("date", "Date de fin", discordgo.TextInputShort, true, placeholderDate, date),
				textRow("time", "Heure de fin", discordgo.TextInputShort, true, placeholderTime, clock),
				textRow("slots", "Nombre de places", discordgo.TextInputShort, false, placeholderSlots, slots),
			},
		},
	}
}

// handleEditEventModalSubmit reschedules the event and applies the new
// capacity. Raising the capacity promotes from the waitlist.
func (h *Handler) handleEditEventModalSubmit(s Session, i *discordgo.InteractionCreate, data discordgo.ModalSubmitInteractionData, eventID string) {
	ctx, cancel := h.context()
	defer cancel()

	if !isOrganizer(i.Member, organizerOf(i.Message)) {
		respondEphemeral(s, i.Interaction, "❌ Seul l'organisateur peut modifier l'événement.")
		return
	}

	values := pkgdiscord.ModalValues(data)
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

	if err := h.engine.RescheduleEvent(ctx, eventID, strings.TrimSpace(values["title"]), endsAt); err != nil {
		h.respondError(s, i.Interaction, "reschedule", err)
		return
	}
	promoted, err := h.engine.UpdateCapacity(ctx, eventID, slots)
	if err != nil {
		h.respondError(s, i.Interaction, "update capacity", err)
		return
	}

	if i.Message != nil {
		h.refreshEventMessage(ctx, s, i.Message)
	}
	msg := "✅ Événement mis à jour."
	if len(promoted) > 0 {
		msg += fmt.Sprintf(" %d personne(s) sortie(s) de la liste d'attente.", len(promoted))
	}
	respondEphemeral(s, i.Interaction, msg)
}
