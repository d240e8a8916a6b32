package conversation

import "time"

// StateKind discriminates the State tagged union of spec.md §3.
type StateKind string

const (
	StateIdle                    StateKind = "idle"
	StateAwaitingLLMDecision     StateKind = "awaiting_llm_decision"
	StateSendingMessage          StateKind = "sending_message"
	StateRunningTool             StateKind = "running_tool"
	StateRunningInternalFunction StateKind = "running_internal_function"
	StateCommittingToMemory      StateKind = "committing_to_memory"
)

// State is the conversation machine's tagged-union state. Only the fields
// relevant to Kind are meaningful. The zero State has an empty Kind, which
// Transition rejects as invalid; Default gives the initial Idle state with
// no recent conversation.
type State struct {
	Kind StateKind

	// Idle
	Recent *RecentConversation

	// AwaitingLLMDecision
	IsTimeout    bool
	Conversation Conversation
	CurrentInput LLMInput

	// SendingMessage
	Outcome Outcome

	LastTransition time.Time
}

// Default returns the zero conversation state: Idle with no recent
// conversation, per spec.md §3.
func Default() State {
	return State{Kind: StateIdle}
}
