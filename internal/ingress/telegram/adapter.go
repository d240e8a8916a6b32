// Package telegram is a second thin C6 ingress adapter, demonstrating
// that the ingress boundary is platform-agnostic: it shares the same
// ingress.Sink/ingress.Dispatch normalization logic the discord adapter
// uses, over github.com/go-telegram/bot instead of discordgo.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
	"github.com/terminal-alpha-beta/hivebot/internal/ingress"
)

// botAPI is the subset of *tgbot.Bot this adapter uses, mocked in tests.
type botAPI interface {
	Start(ctx context.Context)
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
}

// Adapter is the Telegram C6 ingress boundary.
type Adapter struct {
	token     string
	botHandle string
	bot       botAPI
	sink      ingress.Sink
	logger    *slog.Logger

	mu       sync.Mutex
	lastChat map[string]int64 // telegram user id (string) -> most recent chat id
}

// New constructs an Adapter. botHandle is the bot's own @username, used
// to strip mentions of the bot from group-chat message text.
func New(token, botHandle string, sink ingress.Sink, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{token: token, botHandle: botHandle, sink: sink, logger: logger.With("adapter", "telegram")}

	b, err := tgbot.New(token, tgbot.WithDefaultHandler(a.handleUpdate))
	if err != nil {
		return nil, err
	}
	a.bot = b
	return a, nil
}

// Start begins long-polling for Telegram updates and forwarding inbound
// messages to the adapter's sink. It blocks until ctx is cancelled.
func (a *Adapter) Start(ctx context.Context) {
	a.logger.Info("telegram ingress started")
	a.bot.Start(ctx)
}

func (a *Adapter) handleUpdate(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.From.IsBot {
		return
	}

	msg := update.Message
	id := conversation.UserID{Channel: "telegram", User: strconv.FormatInt(msg.From.ID, 10)}
	isPrivate := msg.Chat.Type == models.ChatTypePrivate
	mentioned := a.botHandle != "" && strings.Contains(msg.Text, "@"+a.botHandle)

	a.recordChat(id.User, msg.Chat.ID)
	ingress.Dispatch(a.sink, id, msg.Text, a.botHandle, isPrivate, mentioned)
}

// recordChat remembers userID's most recently observed chat id, so a
// later reply by user id alone knows where to deliver.
func (a *Adapter) recordChat(userID string, chatID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastChat == nil {
		a.lastChat = make(map[string]int64)
	}
	a.lastChat[userID] = chatID
}

// Send delivers a text reply to chatID.
func (a *Adapter) Send(ctx context.Context, chatID int64, message string) error {
	_, err := a.bot.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: message})
	return err
}

// SendToUser resolves userID to its most recently observed chat id and
// delivers message there. It is the function internal/conversation.Env.Send
// is wired to for the "telegram" channel tag.
func (a *Adapter) SendToUser(ctx context.Context, userID, message string) error {
	a.mu.Lock()
	chatID, ok := a.lastChat[userID]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("telegram ingress: no known chat for user %q", userID)
	}
	return a.Send(ctx, chatID, message)
}
