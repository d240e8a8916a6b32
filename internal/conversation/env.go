package conversation

import "context"

// Env bundles the conversation machine's external collaborators. It is
// the Go analogue of the original's `Env` struct (shared, reference-held
// handles to the inference driver, the chat platform client, and so on),
// injected so internal/conversation has no import-time dependency on
// internal/inference, internal/tools, or a concrete ingress adapter.
type Env struct {
	Config Config

	// Decide requests a structured decision from the inference driver
	// given the new input and the prior turn's conversation.
	Decide func(ctx context.Context, input LLMInput, conv Conversation) (LLMResponse, error)

	// Send delivers a text message to the user identified by id.
	Send func(ctx context.Context, id UserID, message string) error

	// ExecuteTool runs a ToolCall, given the conversation history so far
	// (needed by RecallShortTerm-adjacent tools and for context).
	ExecuteTool func(ctx context.Context, call ToolCall, history []HistoryEntry) (ToolResultData, error)

	// ExecuteFunction runs an internal memory FunctionCall.
	ExecuteFunction func(ctx context.Context, id UserID, call FunctionCall, history []HistoryEntry) (InternalFunctionResultData, error)

	// Commit persists a completed conversation to long-term memory.
	Commit func(ctx context.Context, id UserID, conv Conversation) error
}
