package discord

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"

	"rollcall/internal/application"
	"rollcall/internal/domain"
	"rollcall/internal/infrastructure/i18n"
	"rollcall/internal/infrastructure/memory"
	"rollcall/internal/infrastructure/token"
	pkgdiscord "rollcall/pkg/discord"
)

type fakeSession struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	messages  map[string]*discordgo.Message
	edits     []*discordgo.MessageEdit
	deleted   []string
	dms       map[string][]string
	nextID    int
}

func newFakeSession() *fakeSession {
	return &fakeSession{messages: map[string]*discordgo.Message{}, dms: map[string][]string{}}
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) ChannelMessage(_, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, errors.New("unknown message")
	}
	return msg, nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms[channelID] = append(f.dms[channelID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg := &discordgo.Message{
		ID:         strconv.Itoa(1000 + f.nextID),
		ChannelID:  channelID,
		Embeds:     data.Embeds,
		Components: data.Components,
	}
	f.messages[msg.ID] = msg
	return msg, nil
}

func (f *fakeSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, m)
	msg := f.messages[m.ID]
	if msg == nil {
		msg = &discordgo.Message{ID: m.ID, ChannelID: m.Channel}
		f.messages[m.ID] = msg
	}
	if m.Embeds != nil {
		msg.Embeds = *m.Embeds
	}
	return msg, nil
}

func (f *fakeSession) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	delete(f.messages, messageID)
	return nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeSession) lastResponse() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

func (f *fakeSession) lastContent() string {
	resp := f.lastResponse()
	if resp == nil || resp.Data == nil {
		return ""
	}
	return resp.Data.Content
}

type HandlerSuite struct {
	suite.Suite
	s       *fakeSession
	h       *Handler
	engine  *application.Service
	now     time.Time
	channel string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	codec, err := token.NewCodec("0123456789abcdef0123456789abcdef")
	s.Require().NoError(err)

	s.now = time.Date(2026, 6, 12, 10, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	s.engine = application.New(store, store.Participations(), store.Events(), codec,
		application.WithLogger(log),
		application.WithClock(func() time.Time { return s.now }),
	)
	s.h = NewHandler(s.engine, i18n.NewTranslator("fr", log), "fr", log)
	s.h.now = func() time.Time { return s.now }
	s.s = newFakeSession()
	s.channel = "chan-1"
}

func member(id string, perms int64) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id, Username: "user-" + id}, Permissions: perms}
}

func (s *HandlerSuite) modalSubmit(customID string, m *discordgo.Member, msg *discordgo.Message, values map[string]string) *discordgo.InteractionCreate {
	rows := make([]discordgo.MessageComponent, 0, len(values))
	for k, v := range values {
		rows = append(rows, &discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: k, Value: v},
		}})
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionModalSubmit,
		ChannelID: s.channel,
		Member:    m,
		Message:   msg,
		Data:      discordgo.ModalSubmitInteractionData{CustomID: customID, Components: rows},
	}}
}

func (s *HandlerSuite) component(customID string, m *discordgo.Member, msg *discordgo.Message, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: s.channel,
		Member:    m,
		Message:   msg,
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID, Values: values},
	}}
}

// createEvent runs the create modal as organizer "org" and returns the post.
func (s *HandlerSuite) createEvent(slots string) *discordgo.Message {
	s.h.HandleInteraction(s.s, s.modalSubmit(createEventModalID, member("org", 0), nil, map[string]string{
		"title": "Atelier couture", "date": "13/06/2026", "time": "20:00", "slots": slots,
	}))
	s.Require().Contains(s.s.lastContent(), "✅")
	s.Require().Len(s.s.messages, 1)
	for _, msg := range s.s.messages {
		return msg
	}
	return nil
}

func (s *HandlerSuite) TestCreateCommandOpensModal() {
	s.h.HandleInteraction(s.s, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: commandCreate},
	}})
	resp := s.s.lastResponse()
	s.Require().NotNil(resp)
	s.Equal(discordgo.InteractionResponseModal, resp.Type)
	s.Equal(createEventModalID, resp.Data.CustomID)
}

func (s *HandlerSuite) TestCreateEvent() {
	post := s.createEvent("2")

	event, err := s.engine.GetEvent(s.T().Context(), post.ID)
	s.Require().NoError(err)
	s.Equal("Atelier couture", event.Title)
	s.Equal(2, event.Capacity)
	s.True(time.Date(2026, 6, 13, 18, 0, 0, 0, time.UTC).Equal(event.EndsAt), event.EndsAt)
	s.Equal("org", pkgdiscord.OrganizerID(post.Embeds[0]))
}

func (s *HandlerSuite) TestCreateEventValidation() {
	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{"missing title", map[string]string{"title": " ", "date": "13/06/2026", "time": "20:00"}, "titre"},
		{"past date", map[string]string{"title": "x", "date": "01/01/2026", "time": "20:00"}, "futur"},
		{"bad slots", map[string]string{"title": "x", "date": "13/06/2026", "time": "20:00", "slots": "-3"}, "places"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.h.HandleInteraction(s.s, s.modalSubmit(createEventModalID, member("org", 0), nil, tt.values))
			s.Contains(s.s.lastContent(), tt.want)
			s.Empty(s.s.messages)
		})
	}
}

func (s *HandlerSuite) TestJoinWaitlistLeave() {
	post := s.createEvent("1")

	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonJoin, member("alice", 0), post))
	s.Contains(s.s.lastContent(), "Inscription confirmée")
	s.Contains(s.s.lastContent(), "rc1.", "the ephemeral reply carries the ticket")

	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonJoin, member("bob", 0), post))
	s.Contains(s.s.lastContent(), "liste d'attente")

	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonJoin, member("alice", 0), post))
	s.Contains(s.s.lastContent(), "déjà inscrit")

	s.Contains(post.Embeds[0].Description, "Places : 1/1")
	s.Contains(post.Embeds[0].Description, "1 ⏳")

	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonLeave, member("alice", 0), post))
	s.Contains(s.s.lastContent(), "annulée")

	p, err := s.engine.GetParticipation(s.T().Context(), post.ID, "bob")
	s.Require().NoError(err)
	s.Equal(domain.StatusRegistered, p.Status)
	s.NotContains(post.Embeds[0].Description, "⏳")

	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonLeave, member("alice", 0), post))
	s.Contains(s.s.lastContent(), "pas inscrit")
}

func (s *HandlerSuite) TestJoinOutsideGuildIsRefused() {
	post := s.createEvent("0")

	i := s.component(pkgdiscord.ButtonJoin, nil, post)
	i.User = &discordgo.User{ID: "alice"}
	s.h.HandleInteraction(s.s, i)
	s.Contains(s.s.lastContent(), "pas le droit")

	_, err := s.engine.GetParticipation(s.T().Context(), post.ID, "alice")
	s.ErrorIs(err, domain.ErrNotRegistered)
}

func (s *HandlerSuite) TestLeaveWithoutUserIsAnswered() {
	post := s.createEvent("0")

	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonLeave, nil, post))
	s.Contains(s.s.lastContent(), "pas le droit")
}

func (s *HandlerSuite) TestPresence() {
	post := s.createEvent("0")
	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonJoin, member("alice", 0), post))
	p, err := s.engine.GetParticipation(s.T().Context(), post.ID, "alice")
	s.Require().NoError(err)

	presence := func(m *discordgo.Member, tok string) *discordgo.InteractionCreate {
		return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			ChannelID: s.channel,
			Member:    m,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: commandPresence,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: optionEvent, Type: discordgo.ApplicationCommandOptionString, Value: post.ID},
					{Name: optionToken, Type: discordgo.ApplicationCommandOptionString, Value: tok},
				},
			},
		}}
	}

	s.h.HandleInteraction(s.s, presence(member("mallory", 0), p.Ticket.Token))
	s.Contains(s.s.lastContent(), "Seul l'organisateur")

	s.h.HandleInteraction(s.s, presence(member("org", 0), p.Ticket.Token))
	s.Contains(s.s.lastContent(), "<@alice>")

	s.h.HandleInteraction(s.s, presence(member("staff", discordgo.PermissionManageEvents), p.Ticket.Token))
	s.Contains(s.s.lastContent(), "déjà enregistrée")

	got, err := s.engine.GetParticipation(s.T().Context(), post.ID, "alice")
	s.Require().NoError(err)
	s.Equal(domain.StatusAttended, got.Status)
	s.Equal("org", got.AttendedBy)
}

func (s *HandlerSuite) TestEditEvent() {
	post := s.createEvent("1")
	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonJoin, member("alice", 0), post))
	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonJoin, member("bob", 0), post))

	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonEdit, member("bob", 0), post))
	s.Contains(s.s.lastContent(), "Seul l'organisateur")

	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonEdit, member("org", 0), post))
	resp := s.s.lastResponse()
	s.Require().Equal(discordgo.InteractionResponseModal, resp.Type)
	s.Equal(editEventModalIDPrefix+post.ID, resp.Data.CustomID)

	s.h.HandleInteraction(s.s, s.modalSubmit(editEventModalIDPrefix+post.ID, member("org", 0), post, map[string]string{
		"title": "Atelier tricot", "date": "14/06/2026", "time": "21:00", "slots": "2",
	}))
	s.Contains(s.s.lastContent(), "1 personne(s)")

	event, err := s.engine.GetEvent(s.T().Context(), post.ID)
	s.Require().NoError(err)
	s.Equal("Atelier tricot", event.Title)
	s.Equal(2, event.Capacity)
	s.Equal(2, event.RegisteredCount)
	s.Equal("📅 Atelier tricot", post.Embeds[0].Title)
}

func (s *HandlerSuite) TestRemoveParticipant() {
	post := s.createEvent("1")
	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonJoin, member("alice", 0), post))
	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonJoin, member("bob", 0), post))

	s.h.HandleInteraction(s.s, s.component(pkgdiscord.ButtonRemove, member("org", 0), post))
	resp := s.s.lastResponse()
	s.Require().NotNil(resp.Data)
	s.Require().Len(resp.Data.Components, 1)
	menu := resp.Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	s.Require().Len(menu.Options, 1)
	s.Equal("alice", menu.Options[0].Value)

	s.h.HandleInteraction(s.s, s.component(menu.CustomID, member("org", 0), nil, "alice"))
	s.Contains(s.s.lastContent(), "<@bob> prend sa place")
	s.Empty(s.s.dms["dm-alice"], "the removal notice goes through the notification channel")

	_, err := s.engine.GetParticipation(s.T().Context(), post.ID, "alice")
	s.ErrorIs(err, domain.ErrNotRegistered)
}

func (s *HandlerSuite) TestReactions() {
	post := s.createEvent("0")
	reaction := &discordgo.MessageReaction{
		UserID:    "carol",
		MessageID: post.ID,
		ChannelID: s.channel,
		Emoji:     discordgo.Emoji{Name: reactionJoinEmoji},
	}

	s.h.HandleReactionJoin(s.s, &discordgo.MessageReactionAdd{MessageReaction: reaction, Member: member("carol", 0)})
	s.Empty(s.s.dms["dm-carol"], "confirmations go through the notification channel")
	p, err := s.engine.GetParticipation(s.T().Context(), post.ID, "carol")
	s.Require().NoError(err)
	s.Equal(domain.StatusRegistered, p.Status)

	s.h.HandleReactionJoin(s.s, &discordgo.MessageReactionAdd{MessageReaction: reaction, Member: member("carol", 0)})
	s.Require().Len(s.s.dms["dm-carol"], 1)
	s.Contains(s.s.dms["dm-carol"][0], "déjà inscrit")

	other := *reaction
	other.MessageID = "not-an-event"
	s.h.HandleReactionJoin(s.s, &discordgo.MessageReactionAdd{MessageReaction: &other, Member: member("carol", 0)})
	s.Len(s.s.dms["dm-carol"], 1, "reactions on other messages are ignored")

	s.h.HandleReactionLeave(s.s, &discordgo.MessageReactionRemove{MessageReaction: reaction})
	s.Len(s.s.dms["dm-carol"], 1)

	list, err := s.engine.ListParticipants(s.T().Context(), post.ID)
	s.Require().NoError(err)
	s.Empty(list)
}

func TestIsOrganizer(t *testing.T) {
	tests := []struct {
		name      string
		member    *discordgo.Member
		organizer string
		want      bool
	}{
		{"creator", member("org", 0), "org", true},
		{"manage events", member("staff", discordgo.PermissionManageEvents), "org", true},
		{"someone else", member("bob", discordgo.PermissionSendMessages), "org", false},
		{"unknown organizer", member("bob", 0), "", false},
		{"no member", nil, "org", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isOrganizer(tt.member, tt.organizer); got != tt.want {
				t.Fatalf("isOrganizer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSlots(t *testing.T) {
	for in, want := range map[string]int{"": 0, "0": 0, " 4 ": 4} {
		got, err := parseSlots(in)
		if err != nil || got != want {
			t.Fatalf("parseSlots(%q) = %d, %v", in, got, err)
		}
	}
	if _, err := parseSlots("-1"); err == nil {
		t.Fatal("negative slots accepted")
	}
}
