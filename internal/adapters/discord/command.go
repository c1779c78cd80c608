package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/platform/sl"
)

const (
	commandCreate   = "evenement"
	commandPresence = "presence"

	optionEvent = "evenement"
	optionToken = "billet"

	placeholderTitle = "Ex: Atelier couture, Ciné, Soirée jeux..."
	placeholderDate  = "Ex: 15/02/2026 (jour/mois/année)"
	placeholderTime  = "Ex: 22:00 (heure de fin)"
	placeholderSlots = "Ex: 4 ou vide = illimité"
)

// Commands lists the application commands the bot registers.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: commandCreate, Description: "Créer un nouvel événement"},
		{
			Name:        commandPresence,
			Description: "Enregistrer la présence d'un participant avec son billet",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: optionEvent, Description: "ID du message de l'événement", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: optionToken, Description: "Billet présenté", Required: true},
			},
		},
	}
}

func (h *Handler) HandleCreateCommand(s Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, createEventModal()); err != nil {
		h.log.Warn("open create modal", sl.Err(err))
	}
}

// HandlePresence scans a ticket at the door. The organizer's user id is
// recorded as the scanner.
func (h *Handler) HandlePresence(s Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	var eventID, token string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case optionEvent:
			eventID = strings.TrimSpace(opt.StringValue())
		case optionToken:
			token = strings.TrimSpace(opt.StringValue())
		}
	}

	organizerID := ""
	msg, err := s.ChannelMessage(i.ChannelID, eventID)
	if err == nil && msg != nil {
		organizerID = organizerOf(msg)
	}
	if !isOrganizer(i.Member, organizerID) {
		respondEphemeral(s, i.Interaction, "❌ Seul l'organisateur peut enregistrer les présences.")
		return
	}

	res, err := h.engine.Scan(ctx, eventID, token, i.Member.User.ID)
	if err != nil {
		h.respondError(s, i.Interaction, "presence", err)
		return
	}
	if msg != nil {
		h.refreshEventMessage(ctx, s, msg)
	}
	respondEphemeral(s, i.Interaction, "✅ "+h.tr.T(h.locale, "scan_ok", map[string]any{
		"User": "<@" + res.UserID + ">",
	}))
}
