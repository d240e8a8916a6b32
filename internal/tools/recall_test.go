package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
)

func TestRecallShortTerm_WindowsToLast20Entries(t *testing.T) {
	history := make([]conversation.HistoryEntry, 0, 25)
	for i := 0; i < 25; i++ {
		history = append(history, conversation.HistoryEntry{
			Input: conversation.LLMInput{Kind: conversation.InputUserMessage, UserMessage: "msg"},
		})
	}
	result := RecallShortTerm(history)
	if got := strings.Count(result.Actual, "<USER>"); got != maxShortTermEntries {
		t.Errorf("expected %d entries in window, got %d", maxShortTermEntries, got)
	}
}

func TestRecallShortTerm_TagsRolesByEntryKind(t *testing.T) {
	history := []conversation.HistoryEntry{
		{Input: conversation.LLMInput{Kind: conversation.InputUserMessage, UserMessage: "hello"}},
		{IsOutput: true, Output: conversation.LLMResponse{SimpleOutput: "hi there"}},
		{Input: conversation.LLMInput{Kind: conversation.InputToolResult, ToolResult: conversation.ToolResultData{Simplified: "tool ran"}}},
		{Input: conversation.LLMInput{Kind: conversation.InputInternalFunctionResult, InternalFunctionResult: conversation.InternalFunctionResultData{Simplified: "recalled"}}},
	}
	result := RecallShortTerm(history)
	for _, want := range []string{"<USER>\nhello", "<AGENT>\nhi there", "<SYSTEM>\ntool ran", "<SYSTEM>\nrecalled"} {
		if !strings.Contains(result.Actual, want) {
			t.Errorf("expected result to contain %q, got:\n%s", want, result.Actual)
		}
	}
}

func TestRecallShortTerm_SimplifiedEqualsActual(t *testing.T) {
	result := RecallShortTerm(nil)
	if result.Simplified != result.Actual {
		t.Error("expected short-term recall to be unabridged in both actual and simplified")
	}
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeLongTermStore struct {
	matches []string
	err     error
}

func (f fakeLongTermStore) Upsert(ctx context.Context, userID string, entries []string) error {
	return nil
}

func (f fakeLongTermStore) Query(ctx context.Context, userID string, queryVector []float32, topK int) ([]string, error) {
	return f.matches, f.err
}

func TestRecallLongTerm_JoinsTopMatches(t *testing.T) {
	embedder := fakeEmbedder{vector: []float32{0.1, 0.2}}
	store := fakeLongTermStore{matches: []string{"first match", "second match"}}

	result, err := RecallLongTerm(context.Background(), embedder, store, "user-1", "what did we discuss")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Actual, "first match") || !strings.Contains(result.Actual, "second match") {
		t.Errorf("expected both matches present, got %q", result.Actual)
	}
	if result.Simplified != result.Actual {
		t.Error("expected long-term recall to be unabridged in both actual and simplified")
	}
}

func TestRecallLongTerm_PropagatesEmbedError(t *testing.T) {
	embedder := fakeEmbedder{err: errors.New("embedding backend unavailable")}
	store := fakeLongTermStore{}

	if _, err := RecallLongTerm(context.Background(), embedder, store, "user-1", "query"); err == nil {
		t.Fatal("expected embed error to propagate")
	}
}

func TestRecallLongTerm_PropagatesQueryError(t *testing.T) {
	embedder := fakeEmbedder{vector: []float32{0.1}}
	store := fakeLongTermStore{err: errors.New("collection not found")}

	if _, err := RecallLongTerm(context.Background(), embedder, store, "user-1", "query"); err == nil {
		t.Fatal("expected query error to propagate")
	}
}
