package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/terminal-alpha-beta/hivebot/internal/entity"
)

// ErrInvalidTransition is returned (and the containing Transition call
// therefore rejects the action) whenever the (state, action) pair isn't
// one spec.md §4.4's table names — including every stale external-op
// result that arrives after the entity has since moved to a different
// state or been reset.
var ErrInvalidTransition = errors.New("conversation: invalid state/action pair")

type txResult = entity.TransitionResult[State, Action]
type op = entity.ExternalOp[Action]

// Transition implements spec.md §4.4's table as entity.Transition[UserID,
// State, Action, *Env].
func Transition(env *Env, id UserID, state State, action Action) (txResult, error) {
	if action.Kind == ActionForceReset {
		return txResult{State: State{Kind: StateIdle, LastTransition: now()}}, nil
	}

	switch state.Kind {
	case StateIdle:
		return idleTransition(env, id, state, action)
	case StateAwaitingLLMDecision:
		return awaitingLLMDecisionTransition(env, id, state, action)
	case StateSendingMessage:
		return sendingMessageTransition(env, id, state, action)
	case StateRunningTool:
		return runningToolTransition(env, id, state, action)
	case StateRunningInternalFunction:
		return runningInternalFunctionTransition(env, id, state, action)
	case StateCommittingToMemory:
		return committingToMemoryTransition(env, id, state, action)
	default:
		return txResult{}, ErrInvalidTransition
	}
}

func now() time.Time { return time.Now() }

func idleTransition(env *Env, id UserID, state State, action Action) (txResult, error) {
	if action.Kind == ActionNewMessage && action.StartConversation {
		conv := Conversation{}
		if state.Recent != nil {
			conv = state.Recent.Conversation
		}
		input := LLMInput{Kind: InputUserMessage, UserMessage: action.Message}

		next := State{
			Kind:           StateAwaitingLLMDecision,
			IsTimeout:      false,
			Conversation:   conv,
			CurrentInput:   input,
			LastTransition: now(),
		}
		return txResult{State: next, Ops: []op{decideOp(env, input, conv)}}, nil
	}

	if action.Kind == ActionTimeout && state.Recent != nil {
		input := LLMInput{Kind: InputUserMessage, UserMessage: env.Config.TimeoutGoodbyeMessage}
		conv := state.Recent.Conversation

		next := State{
			Kind:           StateAwaitingLLMDecision,
			IsTimeout:      true,
			Conversation:   conv,
			CurrentInput:   input,
			LastTransition: now(),
		}
		return txResult{State: next, Ops: []op{decideOp(env, input, conv)}}, nil
	}

	return txResult{}, ErrInvalidTransition
}

func awaitingLLMDecisionTransition(env *Env, id UserID, state State, action Action) (txResult, error) {
	if action.Kind != ActionLLMDecisionResult {
		return txResult{}, ErrInvalidTransition
	}

	if action.LLMDecisionErr != nil {
		return txResult{State: State{Kind: StateIdle, LastTransition: now()}}, nil
	}

	outcome := action.LLMResponse.Outcome
	updated := state.Conversation.
		Append(HistoryEntry{IsOutput: false, Input: state.CurrentInput}).
		Append(HistoryEntry{IsOutput: true, Output: action.LLMResponse})

	switch outcome.Kind {
	case OutcomeMessageUser:
		next := State{
			Kind:           StateSendingMessage,
			IsTimeout:      state.IsTimeout,
			Outcome:        outcome,
			Conversation:   updated,
			LastTransition: now(),
		}
		return txResult{State: next, Ops: []op{sendOp(env, id, outcome.Response)}}, nil

	case OutcomeIntermediateToolCall:
		if outcome.ProgressNotification != "" {
			next := State{
				Kind:           StateSendingMessage,
				IsTimeout:      state.IsTimeout,
				Outcome:        outcome,
				Conversation:   updated,
				LastTransition: now(),
			}
			return txResult{State: next, Ops: []op{sendOp(env, id, outcome.ProgressNotification)}}, nil
		}
		next := State{
			Kind:           StateRunningTool,
			IsTimeout:      state.IsTimeout,
			Conversation:   updated,
			LastTransition: now(),
		}
		return txResult{State: next, Ops: []op{executeToolOp(env, *outcome.ToolCall, updated.History)}}, nil

	case OutcomeInternalFunctionCall:
		next := State{
			Kind:           StateRunningInternalFunction,
			IsTimeout:      state.IsTimeout,
			Conversation:   updated,
			LastTransition: now(),
		}
		return txResult{State: next, Ops: []op{executeFunctionOp(env, id, *outcome.FunctionCall, updated.History)}}, nil

	default:
		return txResult{}, ErrInvalidTransition
	}
}

func sendingMessageTransition(env *Env, id UserID, state State, action Action) (txResult, error) {
	if action.Kind != ActionMessageSent {
		return txResult{}, ErrInvalidTransition
	}
	// Message-send errors are ignored: the outcome is handled the same
	// way whether delivery succeeded or failed (spec.md §4.4, §7).
	return handleOutcome(env, id, state.IsTimeout, state.Outcome, state.Conversation)
}

func runningToolTransition(env *Env, id UserID, state State, action Action) (txResult, error) {
	if action.Kind != ActionToolResult {
		return txResult{}, ErrInvalidTransition
	}

	result := action.ToolResult
	if action.ToolResultErr != nil {
		msg := "Tool execution failed: " + action.ToolResultErr.Error()
		result = ToolResultData{Actual: msg, Simplified: msg}
	}

	input := LLMInput{Kind: InputToolResult, ToolResult: result}
	next := State{
		Kind:           StateAwaitingLLMDecision,
		IsTimeout:      state.IsTimeout,
		Conversation:   state.Conversation,
		CurrentInput:   input,
		LastTransition: now(),
	}
	return txResult{State: next, Ops: []op{decideOp(env, input, state.Conversation)}}, nil
}

func runningInternalFunctionTransition(env *Env, id UserID, state State, action Action) (txResult, error) {
	if action.Kind != ActionInternalFunctionResult {
		return txResult{}, ErrInvalidTransition
	}

	result := action.InternalFunctionResult
	if action.InternalFunctionResultErr != nil {
		msg := "Internal function failed: " + action.InternalFunctionResultErr.Error()
		result = InternalFunctionResultData{Actual: msg, Simplified: msg}
	}

	input := LLMInput{Kind: InputInternalFunctionResult, InternalFunctionResult: result}
	next := State{
		Kind:           StateAwaitingLLMDecision,
		IsTimeout:      state.IsTimeout,
		Conversation:   state.Conversation,
		CurrentInput:   input,
		LastTransition: now(),
	}
	return txResult{State: next, Ops: []op{decideOp(env, input, state.Conversation)}}, nil
}

func committingToMemoryTransition(env *Env, id UserID, state State, action Action) (txResult, error) {
	if action.Kind != ActionCommitResult {
		return txResult{}, ErrInvalidTransition
	}
	// Commit errors are tier-1 transient (spec.md §7): the entity still
	// returns to Idle regardless of whether the write succeeded.
	return txResult{State: State{Kind: StateIdle, LastTransition: now()}}, nil
}

// handleOutcome decides the SendingMessage->next transition once the
// message has been sent, mirroring the original's `handle_outcome` helper.
func handleOutcome(env *Env, id UserID, isTimeout bool, outcome Outcome, conv Conversation) (txResult, error) {
	switch outcome.Kind {
	case OutcomeMessageUser:
		if isTimeout && !env.Config.PreserveRecentOnTimeout {
			// Supplemented per SPEC_FULL.md §4.4: a timeout-driven
			// goodbye commits the conversation to long-term memory
			// before the entity goes idle, giving the long-term store's
			// write side a real caller.
			next := State{Kind: StateCommittingToMemory, Conversation: conv, LastTransition: now()}
			return txResult{State: next, Ops: []op{commitOp(env, id, conv)}}, nil
		}
		recent := &RecentConversation{Conversation: conv, LastActivity: now()}
		return txResult{State: State{Kind: StateIdle, Recent: recent, LastTransition: now()}}, nil

	case OutcomeIntermediateToolCall:
		next := State{Kind: StateRunningTool, IsTimeout: isTimeout, Conversation: conv, LastTransition: now()}
		return txResult{State: next, Ops: []op{executeToolOp(env, *outcome.ToolCall, conv.History)}}, nil

	default:
		return txResult{}, ErrInvalidTransition
	}
}

func decideOp(env *Env, input LLMInput, conv Conversation) op {
	return func(ctx context.Context) Action {
		resp, err := env.Decide(ctx, input, conv)
		if err != nil {
			return Action{Kind: ActionLLMDecisionResult, LLMDecisionErr: err}
		}
		return Action{Kind: ActionLLMDecisionResult, LLMResponse: resp}
	}
}

func sendOp(env *Env, id UserID, message string) op {
	return func(ctx context.Context) Action {
		err := env.Send(ctx, id, message)
		return Action{Kind: ActionMessageSent, MessageSentErr: err}
	}
}

func executeToolOp(env *Env, call ToolCall, history []HistoryEntry) op {
	return func(ctx context.Context) Action {
		result, err := env.ExecuteTool(ctx, call, history)
		if err != nil {
			return Action{Kind: ActionToolResult, ToolResultErr: err}
		}
		return Action{Kind: ActionToolResult, ToolResult: result}
	}
}

func executeFunctionOp(env *Env, id UserID, call FunctionCall, history []HistoryEntry) op {
	return func(ctx context.Context) Action {
		result, err := env.ExecuteFunction(ctx, id, call, history)
		if err != nil {
			return Action{Kind: ActionInternalFunctionResult, InternalFunctionResultErr: err}
		}
		return Action{Kind: ActionInternalFunctionResult, InternalFunctionResult: result}
	}
}

func commitOp(env *Env, id UserID, conv Conversation) op {
	return func(ctx context.Context) Action {
		err := env.Commit(ctx, id, conv)
		return Action{Kind: ActionCommitResult, CommitErr: err}
	}
}
