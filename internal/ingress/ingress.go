// Package ingress holds the platform-agnostic boundary logic shared by
// every chat-platform adapter (C6): message normalization and the Sink
// the normalized result is handed to. Concrete adapters
// (internal/ingress/discord, internal/ingress/telegram) are thin
// translators from one platform's event types into this shape.
package ingress

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
)

// Sink is the dispatcher-facing boundary a platform adapter emits
// normalized messages to. internal/conversation.Dispatcher implements it.
type Sink interface {
	Act(id conversation.UserID, action conversation.Action)
}

// htmlTagPattern detects content worth running through the markdown
// converter. Most chat messages are already plain text; only rich-text
// payloads (forwarded web previews, bots posting HTML embeds) carry tags.
var htmlTagPattern = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

// FlattenHTML converts raw to Markdown when it looks like it carries HTML
// markup, per spec.md §1's out-of-scope-but-present HTML-to-Markdown
// collaborator (SPEC_FULL.md C11). Plain-text messages pass through
// unchanged, and a conversion failure falls back to the raw text rather
// than dropping the message.
func FlattenHTML(raw string) string {
	if !htmlTagPattern.MatchString(raw) {
		return raw
	}
	md, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		return raw
	}
	return strings.TrimSpace(md)
}

// NormalizeMessage strips the bot's @-handle, a leading slash, and
// collapses whitespace, exactly as spec.md §4.6 describes.
func NormalizeMessage(raw, botHandle string) string {
	text := raw
	if botHandle != "" {
		mention := regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(botHandle))
		text = mention.ReplaceAllString(text, "")
	}
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")
	return strings.Join(strings.Fields(text), " ")
}

// StartConversation decides a message's `start_conversation` flag: true
// for a direct message or a message that mentioned the bot, exactly as
// spec.md §4.6's NewMessage{..., start_conversation} does.
func StartConversation(isPrivate, containedMention bool) bool {
	return isPrivate || containedMention
}

// Dispatch normalizes raw and emits it as a NewMessage action to sink
// under id, unless the message is empty after normalization or the
// message itself is bot-authored (callers filter bot authorship before
// calling Dispatch; this function only handles the text transform).
func Dispatch(sink Sink, id conversation.UserID, raw, botHandle string, isPrivate, containedMention bool) {
	text := NormalizeMessage(FlattenHTML(raw), botHandle)
	if text == "" {
		return
	}
	sink.Act(id, conversation.NewMessageAction(text, StartConversation(isPrivate, containedMention)))
}
