package discord

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/input"
	"rollcall/internal/ports/output"
)

const interactionTimeout = 10 * time.Second

// Engine is the use case surface the Discord adapter drives.
type Engine interface {
	input.ParticipationUseCase
	input.EventUseCase
}

// Session is the subset of *discordgo.Session the handlers use.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Handler handles Discord interactions using use cases. An event posted
// from Discord is identified by the id of its message.
type Handler struct {
	engine Engine
	tr     output.Translator
	locale string
	log    *slog.Logger
	now    func() time.Time
}

func NewHandler(engine Engine, tr output.Translator, locale string, log *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		tr:     tr,
		locale: locale,
		log:    log.With(sl.Module("discord")),
		now:    time.Now,
	}
}

func (h *Handler) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), interactionTimeout)
}

// HandleInteraction routes an interaction to its handler.
func (h *Handler) HandleInteraction(s Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case commandCreate:
			h.HandleCreateCommand(s, i)
		case commandPresence:
			h.HandlePresence(s, i)
		}
	case discordgo.InteractionModalSubmit:
		h.HandleModalSubmit(s, i)
	case discordgo.InteractionMessageComponent:
		h.HandleComponent(s, i)
	}
}
