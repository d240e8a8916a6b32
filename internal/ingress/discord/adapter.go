// Package discord is a thin C6 ingress adapter: it translates Discord
// gateway events into conversation.NewMessageAction calls against a
// conversation dispatcher, and nothing else. Grounded on the session
// interface, Open/Close lifecycle, and AddHandler wiring of
// internal/channels/discord/adapter.go, trimmed to the single
// responsibility spec.md §4.6 names.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
	"github.com/terminal-alpha-beta/hivebot/internal/ingress"
)

// session is the subset of *discordgo.Session this adapter uses, mocked
// in tests the same way discordSession is mocked in the teacher.
type session interface {
	Open() error
	Close() error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	AddHandler(handler interface{}) func()
}

// Adapter is the Discord C6 ingress boundary: one Discord bot connection
// feeding a single conversation.Sink.
type Adapter struct {
	token     string
	botHandle string
	session   session
	sink      ingress.Sink
	logger    *slog.Logger

	mu          sync.Mutex
	lastChannel map[string]string // discord user id -> most recent channel id
}

// New constructs an Adapter. token is the Discord bot token; botHandle is
// the bot's own username, used to strip @-mentions from message text.
func New(token, botHandle string, sink ingress.Sink, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{token: token, botHandle: botHandle, sink: sink, logger: logger.With("adapter", "discord")}
}

// Start opens the Discord gateway connection and begins forwarding
// inbound messages to the adapter's sink.
func (a *Adapter) Start(ctx context.Context) error {
	if a.session == nil {
		dg, err := discordgo.New("Bot " + a.token)
		if err != nil {
			return fmt.Errorf("discord ingress: failed to create session: %w", err)
		}
		dg.Identify.Intents |= discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
		a.session = dg
	}

	a.session.AddHandler(a.handleMessageCreate)

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("discord ingress: failed to connect: %w", err)
	}
	a.logger.Info("discord ingress started")
	return nil
}

// Stop closes the gateway connection.
func (a *Adapter) Stop() error {
	if a.session == nil {
		return nil
	}
	return a.session.Close()
}

func (a *Adapter) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	id := conversation.UserID{Channel: "discord", User: m.Author.ID}
	isPrivate := m.GuildID == ""
	mentioned := mentionsBot(m, s)

	a.recordChannel(m.Author.ID, m.ChannelID)
	ingress.Dispatch(a.sink, id, m.Content, a.botHandle, isPrivate, mentioned)
}

// recordChannel remembers userID's most recently observed channel, so a
// later reply by user id alone (conversation.Env.Send only carries a
// conversation.UserID) knows where to deliver.
func (a *Adapter) recordChannel(userID, channelID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastChannel == nil {
		a.lastChannel = make(map[string]string)
	}
	a.lastChannel[userID] = channelID
}

func mentionsBot(m *discordgo.MessageCreate, s *discordgo.Session) bool {
	if s == nil || s.State == nil || s.State.User == nil {
		return false
	}
	for _, mention := range m.Mentions {
		if mention.ID == s.State.User.ID {
			return true
		}
	}
	return false
}

// Send delivers a text reply to channelID, truncated to Discord's
// 2000-character message limit per spec.md §6.
func (a *Adapter) Send(ctx context.Context, channelID, message string) error {
	const maxDiscordMessageLength = 2000
	if utf8.RuneCountInString(message) > maxDiscordMessageLength {
		message = string([]rune(message)[:maxDiscordMessageLength])
	}
	_, err := a.session.ChannelMessageSend(channelID, message)
	return err
}

// SendToUser resolves userID to its most recently observed channel and
// delivers message there. It is the function internal/conversation.Env.Send
// is wired to for the "discord" channel tag, since the conversation
// machine only ever addresses a UserID, never a raw Discord channel id.
func (a *Adapter) SendToUser(ctx context.Context, userID, message string) error {
	a.mu.Lock()
	channelID, ok := a.lastChannel[userID]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("discord ingress: no known channel for user %q", userID)
	}
	return a.Send(ctx, channelID, message)
}
