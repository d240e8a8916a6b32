package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
)

// maxShortTermEntries matches execute_short_recall's hard-coded 20-entry window.
const maxShortTermEntries = 20

// RecallShortTerm formats the last <=20 entries of the current
// conversation's history, exactly as execute_short_recall does.
func RecallShortTerm(history []conversation.HistoryEntry) conversation.InternalFunctionResultData {
	start := 0
	if len(history) > maxShortTermEntries {
		start = len(history) - maxShortTermEntries
	}
	recent := history[start:]

	lines := make([]string, 0, len(recent))
	for _, entry := range recent {
		lines = append(lines, formatHistoryEntry(entry))
	}

	actual := fmt.Sprintf("Recent conversation history (last %d entries):\n\n%s", maxShortTermEntries, strings.Join(lines, "\n\n"))
	return conversation.InternalFunctionResultData{Actual: actual, Simplified: actual}
}

// formatHistoryEntry renders one entry the way HistoryEntry::format_simplified
// does: role-tagged blocks, since the original's own HistoryEntry::format
// is never defined on the union (only format_simplified is) and this is
// the rendering RecallShortTerm's formatted history must actually use.
func formatHistoryEntry(entry conversation.HistoryEntry) string {
	if entry.IsOutput {
		return fmt.Sprintf("<AGENT>\n%s", entry.Output.SimpleOutput)
	}
	switch entry.Input.Kind {
	case conversation.InputUserMessage:
		return fmt.Sprintf("<USER>\n%s", entry.Input.UserMessage)
	case conversation.InputToolResult:
		return fmt.Sprintf("<SYSTEM>\n%s", entry.Input.ToolResult.Simplified)
	case conversation.InputInternalFunctionResult:
		return fmt.Sprintf("<SYSTEM>\n%s", entry.Input.InternalFunctionResult.Simplified)
	default:
		return ""
	}
}

// Embedder turns text into a fixed-size vector, standing in for the
// original's fastembed::TextEmbedding (BGESmallENV15).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// LongTermStore is the per-user nearest-neighbour table C9 backs with
// Qdrant, standing in for the original's per-user LanceDB table.
type LongTermStore interface {
	// Upsert stores each entry's text as its own point in userID's
	// collection, creating the collection if this is the first write.
	Upsert(ctx context.Context, userID string, entries []string) error

	// Query returns the topK nearest entries to queryVector in userID's
	// collection.
	Query(ctx context.Context, userID string, queryVector []float32, topK int) ([]string, error)
}

const longTermRecallTopK = 5

// RecallLongTerm embeds searchTerm and queries userID's long-term
// collection for the 5 nearest entries, exactly as execute_long_recall's
// recall() does against a per-user LanceDB table.
func RecallLongTerm(ctx context.Context, embedder Embedder, store LongTermStore, userID, searchTerm string) (conversation.InternalFunctionResultData, error) {
	vector, err := embedder.Embed(ctx, searchTerm)
	if err != nil {
		return conversation.InternalFunctionResultData{}, err
	}

	matches, err := store.Query(ctx, userID, vector, longTermRecallTopK)
	if err != nil {
		return conversation.InternalFunctionResultData{}, err
	}

	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m)
		b.WriteString("\n")
	}
	actual := b.String()
	return conversation.InternalFunctionResultData{Actual: actual, Simplified: actual}, nil
}
