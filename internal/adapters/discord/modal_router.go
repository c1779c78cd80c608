package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	createEventModalID     = "create_event_modal"
	editEventModalIDPrefix = "edit_event_modal:"
)

// HandleModalSubmit route les différents modals en fonction de leur CustomID.
func (h *Handler) HandleModalSubmit(s Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	switch {
	case data.CustomID == createEventModalID:
		h.handleCreateEventModalSubmit(s, i, data)
	case strings.HasPrefix(data.CustomID, editEventModalIDPrefix):
		h.handleEditEventModalSubmit(s, i, data, strings.TrimPrefix(data.CustomID, editEventModalIDPrefix))
	default:
		// Modal inconnu : on ignore silencieusement pour rester robuste.
	}
}

func textRow(customID, label string, style discordgo.TextInputStyle, required bool, placeholder, value string) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.TextInput{
			CustomID:    customID,
			Label:       label,
			Style:       style,
			Required:    required,
			Placeholder: placeholder,
			Value:       value,
		},
	}}
}
