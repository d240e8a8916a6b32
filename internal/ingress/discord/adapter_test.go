package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
)

type fakeSession struct {
	opened  bool
	closed  bool
	sent    []string
	handler func(s *discordgo.Session, m *discordgo.MessageCreate)
}

func (f *fakeSession) Open() error  { f.opened = true; return nil }
func (f *fakeSession) Close() error { f.closed = true; return nil }
func (f *fakeSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, content)
	return &discordgo.Message{ID: "msg-1"}, nil
}
func (f *fakeSession) AddHandler(handler interface{}) func() {
	if h, ok := handler.(func(*discordgo.Session, *discordgo.MessageCreate)); ok {
		f.handler = h
	}
	return func() {}
}

type recordingSink struct {
	id     conversation.UserID
	action conversation.Action
	called bool
}

func (r *recordingSink) Act(id conversation.UserID, action conversation.Action) {
	r.id, r.action, r.called = id, action, true
}

func TestAdapter_IgnoresBotAuthoredMessages(t *testing.T) {
	fs := &fakeSession{}
	sink := &recordingSink{}
	a := &Adapter{session: fs, sink: sink}

	a.handleMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		Author:  &discordgo.User{ID: "bot-1", Bot: true},
		Content: "hello",
	}})

	if sink.called {
		t.Error("expected bot-authored messages to be ignored")
	}
}

func TestAdapter_EmitsNewMessageForDirectMessage(t *testing.T) {
	fs := &fakeSession{}
	sink := &recordingSink{}
	a := &Adapter{session: fs, sink: sink, botHandle: "hivebot"}

	a.handleMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		Author:  &discordgo.User{ID: "u1"},
		Content: "/help me",
		GuildID: "",
	}})

	if !sink.called {
		t.Fatal("expected Act to be called")
	}
	if sink.id != (conversation.UserID{Channel: "discord", User: "u1"}) {
		t.Errorf("unexpected id: %+v", sink.id)
	}
	if !sink.action.StartConversation {
		t.Error("expected a DM to start the conversation")
	}
	if sink.action.Message != "help me" {
		t.Errorf("expected normalized message, got %q", sink.action.Message)
	}
}

func TestAdapter_GuildMessageWithoutMentionDoesNotStartConversation(t *testing.T) {
	fs := &fakeSession{}
	sink := &recordingSink{}
	a := &Adapter{session: fs, sink: sink}

	a.handleMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		Author:  &discordgo.User{ID: "u1"},
		Content: "just chatting",
		GuildID: "guild-1",
	}})

	if !sink.called {
		t.Fatal("expected Act to be called")
	}
	if sink.action.StartConversation {
		t.Error("expected an unmentioned guild message not to start the conversation")
	}
}

func TestAdapter_SendTruncatesToDiscordMessageLimit(t *testing.T) {
	fs := &fakeSession{}
	a := &Adapter{session: fs}

	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'a'
	}
	if err := a.Send(nil, "channel-1", string(long)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fs.sent) != 1 || len(fs.sent[0]) != 2000 {
		t.Errorf("expected message truncated to 2000 chars, got %d", len(fs.sent[0]))
	}
}

func TestAdapter_SendToUserResolvesChannelFromLastMessage(t *testing.T) {
	fs := &fakeSession{}
	sink := &recordingSink{}
	a := &Adapter{session: fs, sink: sink}

	a.handleMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		Author:    &discordgo.User{ID: "u1"},
		Content:   "hi",
		ChannelID: "channel-9",
	}})

	if err := a.SendToUser(nil, "u1", "reply"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fs.sent) != 1 || fs.sent[0] != "reply" {
		t.Errorf("unexpected sent messages: %v", fs.sent)
	}
}

func TestAdapter_SendToUserUnknownUserErrors(t *testing.T) {
	a := &Adapter{session: &fakeSession{}}
	if err := a.SendToUser(nil, "unknown", "reply"); err == nil {
		t.Fatal("expected an error for a user with no known channel")
	}
}
