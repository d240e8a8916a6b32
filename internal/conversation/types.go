// Package conversation implements the agentic conversation state machine
// (C4): one instance per chat user, orchestrating an LLM reasoning loop
// with tool calls, internal memory functions, message delivery, timeouts,
// and idle memory commitment. It is instantiated over the generic actor
// runtime in internal/entity.
package conversation

import (
	"cmp"
	"time"
)

// UserID is the EntityId for a conversation: a (channel, user) pair,
// ordered first by Channel then by User so it satisfies the "orderable"
// requirement spec.md places on EntityId.
type UserID struct {
	Channel string
	User    string
}

// Compare orders UserIDs first by Channel, then by User.
func (a UserID) Compare(b UserID) int {
	if c := cmp.Compare(a.Channel, b.Channel); c != 0 {
		return c
	}
	return cmp.Compare(a.User, b.User)
}

func (u UserID) String() string { return u.Channel + "_" + u.User }

// MathOp identifies one arithmetic operator in a MathCalculation tool call.
type MathOp string

const (
	MathAdd MathOp = "add"
	MathSub MathOp = "sub"
	MathMul MathOp = "mul"
	MathDiv MathOp = "div"
	MathExp MathOp = "exp"
)

// MathOperation is one operator applied to a pair of operands.
type MathOperation struct {
	Op MathOp  `json:"op"`
	A  float32 `json:"a"`
	B  float32 `json:"b"`
}

// ToolCallKind discriminates ToolCall's variant.
type ToolCallKind string

const (
	ToolGetWeather     ToolCallKind = "get_weather"
	ToolWebSearch      ToolCallKind = "web_search"
	ToolVisitURL       ToolCallKind = "visit_url"
	ToolMathCalculation ToolCallKind = "math_calculation"
)

// ToolCall is the tagged union spec.md §3 describes: exactly one of the
// fields matching Kind is populated.
type ToolCall struct {
	Kind       ToolCallKind    `json:"kind"`
	Location   string          `json:"location,omitempty"`
	Query      string          `json:"query,omitempty"`
	URL        string          `json:"url,omitempty"`
	Operations []MathOperation `json:"operations,omitempty"`
}

// FunctionCallKind discriminates FunctionCall's variant.
type FunctionCallKind string

const (
	FunctionRecallShortTerm FunctionCallKind = "recall_short_term"
	FunctionRecallLongTerm  FunctionCallKind = "recall_long_term"
)

// FunctionCall is the tagged union for internal memory functions.
type FunctionCall struct {
	Kind       FunctionCallKind `json:"kind"`
	Reason     string           `json:"reason,omitempty"`
	SearchTerm string           `json:"search_term,omitempty"`
}

// OutcomeKind discriminates LLMResponse.Outcome's variant.
type OutcomeKind string

const (
	OutcomeMessageUser          OutcomeKind = "message_user"
	OutcomeIntermediateToolCall OutcomeKind = "intermediate_tool_call"
	OutcomeInternalFunctionCall OutcomeKind = "internal_function_call"
)

// Outcome is LLMResponse's tagged outcome variant.
type Outcome struct {
	Kind                OutcomeKind   `json:"kind"`
	Response            string        `json:"response,omitempty"`
	ProgressNotification string       `json:"progress_notification,omitempty"`
	ToolCall            *ToolCall     `json:"tool_call,omitempty"`
	FunctionCall        *FunctionCall `json:"function_call,omitempty"`
}

// LLMResponse is the structured decision produced by the inference driver
// and parsed according to the ThinkingAgent grammar.
type LLMResponse struct {
	Thoughts     string  `json:"thoughts"`
	Outcome      Outcome `json:"outcome"`
	SimpleOutput string  `json:"simple_output"`
}

// ToolResultData carries a tool's result in two granularities: Actual (the
// full text fed back to the model on the immediate next turn) and
// Simplified (the abridged text committed to persistent history).
type ToolResultData struct {
	Actual     string `json:"actual"`
	Simplified string `json:"simplified"`
}

// InternalFunctionResultData is the analogous pair for internal function
// calls (RecallShortTerm / RecallLongTerm).
type InternalFunctionResultData struct {
	Actual     string `json:"actual"`
	Simplified string `json:"simplified"`
}

// InputKind discriminates LLMInput's variant.
type InputKind string

const (
	InputUserMessage            InputKind = "user_message"
	InputToolResult              InputKind = "tool_result"
	InputInternalFunctionResult InputKind = "internal_function_result"
)

// LLMInput is what the conversation machine feeds to the inference driver
// as the "new input" of a turn: either a fresh user message or the result
// of the external operation dispatched by the previous turn's outcome.
type LLMInput struct {
	Kind                InputKind
	UserMessage         string
	ToolResult          ToolResultData
	InternalFunctionResult InternalFunctionResultData
}

// HistoryEntry is either an Input or an Output, in chronological,
// append-only order within a conversation's lifetime.
type HistoryEntry struct {
	IsOutput bool
	Input    LLMInput
	Output   LLMResponse
}

// Conversation is the ordered, append-only sequence of HistoryEntry for
// one user's in-flight exchange with the agent.
type Conversation struct {
	History []HistoryEntry
}

// Append returns a new Conversation with entry appended. Conversation
// values are always copied rather than mutated in place so that a stale
// closure captured before a ForceReset can never corrupt a newer one.
func (c Conversation) Append(entry HistoryEntry) Conversation {
	next := make([]HistoryEntry, len(c.History), len(c.History)+1)
	copy(next, c.History)
	next = append(next, entry)
	return Conversation{History: next}
}

// RecentConversation pairs a Conversation with the time it was last
// active, as stored by an Idle state once a conversation has occurred.
type RecentConversation struct {
	Conversation Conversation
	LastActivity time.Time
}
