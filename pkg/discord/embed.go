package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/domain/entities"
	"rollcall/internal/ports/output"
)

const (
	embedColor = 0x5865F2
	embedTitle = "📅 %s"

	ButtonJoin   = "btn_join"
	ButtonLeave  = "btn_leave"
	ButtonEdit   = "btn_edit_event"
	ButtonRemove = "btn_remove_participant"
)

// Counts summarises an event's participations for display. Only counters are
// shown, never a public participant list.
type Counts struct {
	Registered int
	Waitlisted int
	Attended   int
}

func CountParticipations(list []entities.Participation) Counts {
	var c Counts
	for _, p := range list {
		switch {
		case p.IsRegistered():
			c.Registered++
		case p.IsWaitlisted():
			c.Waitlisted++
		case p.IsAttended():
			c.Attended++
		}
	}
	return c
}

func describe(tr output.Translator, locale, organizerID string, event *entities.Event, c Counts) string {
	var b strings.Builder
	if organizerID != "" {
		fmt.Fprintf(&b, "**Organisé par :** <@%s>\n\n", organizerID)
	}
	if !event.EndsAt.IsZero() {
		b.WriteString(tr.T(locale, "event_ends", map[string]any{"EndsAt": FormatEventDateTime(event.EndsAt)}))
		b.WriteString("\n")
	}
	taken := event.RegisteredCount
	if event.Unlimited() {
		b.WriteString(tr.T(locale, "event_unlimited", map[string]any{"Registered": taken}))
	} else {
		b.WriteString(tr.T(locale, "event_capacity", map[string]any{"Registered": taken, "Capacity": event.Capacity}))
	}
	if c.Waitlisted > 0 {
		fmt.Fprintf(&b, " • %d ⏳", c.Waitlisted)
	}
	if c.Attended > 0 {
		fmt.Fprintf(&b, " • %d ✅", c.Attended)
	}
	return b.String()
}

// BuildEventEmbed builds the event post embed.
func BuildEventEmbed(tr output.Translator, locale string, event *entities.Event, organizer *discordgo.User, c Counts) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf(embedTitle, event.Title),
		Color: embedColor,
	}
	organizerID := ""
	if organizer != nil {
		organizerID = organizer.ID
		embed.Author = &discordgo.MessageEmbedAuthor{Name: organizer.Username, IconURL: organizer.AvatarURL("256")}
		embed.Footer = &discordgo.MessageEmbedFooter{Text: organizer.ID}
	}
	embed.Description = describe(tr, locale, organizerID, event, c)
	return embed
}

// UpdateEventEmbed refreshes title and counters, keeping author and footer.
func UpdateEventEmbed(tr output.Translator, locale string, embed *discordgo.MessageEmbed, event *entities.Event, c Counts) {
	organizerID := ""
	if embed.Footer != nil {
		organizerID = embed.Footer.Text
	}
	embed.Title = fmt.Sprintf(embedTitle, event.Title)
	embed.Description = describe(tr, locale, organizerID, event, c)
}

// OrganizerID returns the organizer recorded in an event embed.
func OrganizerID(embed *discordgo.MessageEmbed) string {
	if embed == nil || embed.Footer == nil {
		return ""
	}
	return embed.Footer.Text
}

func EventComponents(tr output.Translator, locale string, registered int) []discordgo.MessageComponent {
	buttons := []discordgo.MessageComponent{
		discordgo.Button{Label: tr.T(locale, "button_join", nil), Style: discordgo.SuccessButton, CustomID: ButtonJoin},
		discordgo.Button{Label: tr.T(locale, "button_leave", nil), Style: discordgo.DangerButton, CustomID: ButtonLeave},
		discordgo.Button{Label: "✏️ Modifier", Style: discordgo.SecondaryButton, CustomID: ButtonEdit},
	}
	if registered > 0 {
		buttons = append(buttons, discordgo.Button{Label: "🗑️ Retirer un participant", Style: discordgo.SecondaryButton, CustomID: ButtonRemove})
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}
