package conversation

// ActionKind discriminates the Action tagged union of spec.md §3.
type ActionKind string

const (
	ActionForceReset           ActionKind = "force_reset"
	ActionNewMessage           ActionKind = "new_message"
	ActionTimeout              ActionKind = "timeout"
	ActionLLMDecisionResult    ActionKind = "llm_decision_result"
	ActionMessageSent          ActionKind = "message_sent"
	ActionToolResult           ActionKind = "tool_result"
	ActionInternalFunctionResult ActionKind = "internal_function_result"
	ActionCommitResult         ActionKind = "commit_result"
)

// Action is every event the conversation machine observes: user messages,
// scheduled timeouts, a forced reset, and the result variant of each
// external operation the machine can dispatch.
type Action struct {
	Kind ActionKind

	// NewMessage
	Message          string
	StartConversation bool

	// LLMDecisionResult
	LLMResponse    LLMResponse
	LLMDecisionErr error

	// MessageSent
	MessageSentErr error

	// ToolResult
	ToolResult    ToolResultData
	ToolResultErr error

	// InternalFunctionResult
	InternalFunctionResult    InternalFunctionResultData
	InternalFunctionResultErr error

	// CommitResult
	CommitErr error
}

// NewMessageAction builds the action C6 emits for an inbound chat message.
func NewMessageAction(msg string, startConversation bool) Action {
	return Action{Kind: ActionNewMessage, Message: msg, StartConversation: startConversation}
}
