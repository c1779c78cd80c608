package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"rollcall/internal/platform/sl"
)

// Bot is the Discord adapter.
type Bot struct {
	session *discordgo.Session
	handler *Handler
	guildID string
	log     *slog.Logger
}

// NewBot creates the Discord session. Commands are registered on guildID,
// or globally when it is empty.
func NewBot(token, guildID string, log *slog.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessageReactions

	bot := &Bot{
		session: s,
		guildID: guildID,
		log:     log.With(sl.Module("discord.bot")),
	}
	bot.setupHandlers()
	return bot, nil
}

// SetHandler routes the session events to h. It must be called before Run.
func (b *Bot) SetHandler(h *Handler) {
	b.handler = h
}

// Session exposes the session for the direct message notifier.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

func (b *Bot) setupHandlers() {
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handler.HandleInteraction(s, i)
	})
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if s.State != nil && s.State.User != nil && r.UserID == s.State.User.ID {
			return
		}
		b.handler.HandleReactionJoin(s, r)
	})
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		b.handler.HandleReactionLeave(s, r)
	})
}

// Run opens the session, registers the commands and blocks until ctx ends.
func (b *Bot) Run(ctx context.Context) error {
	if b.handler == nil {
		return errors.New("discord bot has no handler")
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}
	defer b.session.Close()

	for _, cmd := range Commands() {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.guildID, cmd); err != nil {
			b.log.Warn("register command", slog.String("command", cmd.Name), sl.Err(err))
		}
	}

	b.log.Info("bot online", slog.String("user", b.session.State.User.Username))
	<-ctx.Done()
	b.log.Info("bot stopping")
	return nil
}
