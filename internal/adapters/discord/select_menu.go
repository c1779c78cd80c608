package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/domain"
)

const (
	selectRemovePrefix = "select_remove:"
	maxSelectOptions   = 25
)

// HandleRemoveParticipant lets the organizer pick a registered participant
// to cancel. Their slot goes to the head of the waitlist.
func (h *Handler) HandleRemoveParticipant(s Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	if i.Message == nil {
		return
	}
	if !isOrganizer(i.Member, organizerOf(i.Message)) {
		respondEphemeral(s, i.Interaction, "❌ Seul l'organisateur peut retirer un participant.")
		return
	}

	list, err := h.engine.ListParticipants(ctx, i.Message.ID)
	if err != nil {
		h.respondError(s, i.Interaction, "list participants", err)
		return
	}
	options := make([]discordgo.SelectMenuOption, 0, len(list))
	for _, p := range list {
		if p.Status != domain.StatusRegistered || len(options) == maxSelectOptions {
			continue
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       p.UserID,
			Value:       p.UserID,
			Description: fmt.Sprintf("Inscrit·e le %s", p.CreatedAt.Format("02/01 15:04")),
		})
	}
	if len(options) == 0 {
		respondEphemeral(s, i.Interaction, "ℹ️ Il n'y a aucun inscrit à retirer.")
		return
	}

	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Choisissez une personne à retirer :",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    selectRemovePrefix + i.Message.ID,
						Placeholder: "Sélectionner une personne à retirer",
						Options:     options,
					},
				}},
			},
		},
	})
}

// HandleRemove cancels the selected participant's registration.
func (h *Handler) HandleRemove(s Session, i *discordgo.InteractionCreate) {
	ctx, cancel := h.context()
	defer cancel()

	data := i.MessageComponentData()
	if len(data.Values) == 0 {
		return
	}
	eventID := strings.TrimPrefix(data.CustomID, selectRemovePrefix)
	userID := data.Values[0]

	post, err := s.ChannelMessage(i.ChannelID, eventID)
	if err != nil {
		post = nil
	}
	if !isOrganizer(i.Member, organizerOf(post)) {
		respondEphemeral(s, i.Interaction, "❌ Seul l'organisateur peut retirer un participant.")
		return
	}

	res, err := h.engine.Cancel(ctx, eventID, userID)
	if err != nil {
		h.respondError(s, i.Interaction, "remove participant", err)
		return
	}

	if post != nil {
		h.refreshEventMessage(ctx, s, post)
	}

	msg := fmt.Sprintf("✅ <@%s> a été retiré·e.", userID)
	if res.PromotedUserID != "" {
		msg += fmt.Sprintf(" <@%s> prend sa place.", res.PromotedUserID)
	}
	respondEphemeral(s, i.Interaction, msg)
}
