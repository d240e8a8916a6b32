package conversation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testEnv() *Env {
	return &Env{Config: DefaultConfig()}
}

func TestTransition_IdleStartsConversationOnNewMessage(t *testing.T) {
	env := testEnv()
	env.Decide = func(ctx context.Context, input LLMInput, conv Conversation) (LLMResponse, error) {
		if input.Kind != InputUserMessage || input.UserMessage != "hi" {
			t.Fatalf("unexpected input: %+v", input)
		}
		return LLMResponse{Outcome: Outcome{Kind: OutcomeMessageUser, Response: "hello!"}}, nil
	}

	result, err := Transition(env, UserID{Channel: "discord", User: "u1"}, Default(), NewMessageAction("hi", true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Kind != StateAwaitingLLMDecision {
		t.Fatalf("expected AwaitingLLMDecision, got %v", result.State.Kind)
	}
	if len(result.Ops) != 1 {
		t.Fatalf("expected exactly one op, got %d", len(result.Ops))
	}

	action := result.Ops[0](context.Background())
	if action.Kind != ActionLLMDecisionResult {
		t.Fatalf("expected ActionLLMDecisionResult, got %v", action.Kind)
	}
	if action.LLMResponse.Outcome.Response != "hello!" {
		t.Fatalf("unexpected decide result: %+v", action.LLMResponse)
	}
}

func TestTransition_IdleIgnoresNewMessageWithoutStart(t *testing.T) {
	env := testEnv()
	_, err := Transition(env, UserID{}, Default(), Action{Kind: ActionNewMessage, Message: "hi", StartConversation: false})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransition_AwaitingLLMDecisionMessageUserGoesToSendingMessage(t *testing.T) {
	env := testEnv()
	var sentTo UserID
	var sentMsg string
	env.Send = func(ctx context.Context, id UserID, message string) error {
		sentTo, sentMsg = id, message
		return nil
	}

	state := State{Kind: StateAwaitingLLMDecision, CurrentInput: LLMInput{Kind: InputUserMessage, UserMessage: "hi"}}
	action := Action{
		Kind:       ActionLLMDecisionResult,
		LLMResponse: LLMResponse{Outcome: Outcome{Kind: OutcomeMessageUser, Response: "hello"}},
	}
	id := UserID{Channel: "discord", User: "u1"}

	result, err := Transition(env, id, state, action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Kind != StateSendingMessage {
		t.Fatalf("expected SendingMessage, got %v", result.State.Kind)
	}
	if len(result.State.Conversation.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(result.State.Conversation.History))
	}

	result.Ops[0](context.Background())
	if sentTo != id || sentMsg != "hello" {
		t.Fatalf("send op did not deliver expected message: %v %q", sentTo, sentMsg)
	}
}

func TestTransition_AwaitingLLMDecisionErrorGoesIdle(t *testing.T) {
	env := testEnv()
	action := Action{Kind: ActionLLMDecisionResult, LLMDecisionErr: errors.New("boom")}
	result, err := Transition(env, UserID{}, State{Kind: StateAwaitingLLMDecision}, action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Kind != StateIdle {
		t.Fatalf("expected Idle, got %v", result.State.Kind)
	}
}

func TestTransition_AwaitingLLMDecisionToolCallGoesToRunningTool(t *testing.T) {
	env := testEnv()
	state := State{Kind: StateAwaitingLLMDecision}
	call := ToolCall{Kind: ToolMathCalculation, Operations: []MathOperation{{Op: MathAdd, A: 2, B: 3}}}
	action := Action{
		Kind:       ActionLLMDecisionResult,
		LLMResponse: LLMResponse{Outcome: Outcome{Kind: OutcomeIntermediateToolCall, ToolCall: &call}},
	}

	result, err := Transition(env, UserID{}, state, action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Kind != StateRunningTool {
		t.Fatalf("expected RunningTool, got %v", result.State.Kind)
	}
}

func TestTransition_AwaitingLLMDecisionProgressNotificationSendsFirst(t *testing.T) {
	env := testEnv()
	var sent string
	env.Send = func(ctx context.Context, id UserID, message string) error {
		sent = message
		return nil
	}
	call := ToolCall{Kind: ToolWebSearch, Query: "weather"}
	action := Action{
		Kind: ActionLLMDecisionResult,
		LLMResponse: LLMResponse{Outcome: Outcome{
			Kind:                 OutcomeIntermediateToolCall,
			ProgressNotification: "searching...",
			ToolCall:             &call,
		}},
	}

	result, err := Transition(env, UserID{}, State{Kind: StateAwaitingLLMDecision}, action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Kind != StateSendingMessage {
		t.Fatalf("expected SendingMessage (progress first), got %v", result.State.Kind)
	}
	result.Ops[0](context.Background())
	if sent != "searching..." {
		t.Fatalf("expected progress notification sent, got %q", sent)
	}
}

func TestTransition_RunningToolFeedsResultBackToDecide(t *testing.T) {
	env := testEnv()
	env.Decide = func(ctx context.Context, input LLMInput, conv Conversation) (LLMResponse, error) {
		if input.Kind != InputToolResult {
			t.Fatalf("expected InputToolResult, got %v", input.Kind)
		}
		return LLMResponse{Outcome: Outcome{Kind: OutcomeMessageUser, Response: "5"}}, nil
	}
	action := Action{Kind: ActionToolResult, ToolResult: ToolResultData{Actual: "5", Simplified: "5"}}
	result, err := Transition(env, UserID{}, State{Kind: StateRunningTool}, action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Kind != StateAwaitingLLMDecision {
		t.Fatalf("expected AwaitingLLMDecision, got %v", result.State.Kind)
	}
}

func TestTransition_RunningToolErrorStillAdvancesWithErrorText(t *testing.T) {
	env := testEnv()
	env.Decide = func(ctx context.Context, input LLMInput, conv Conversation) (LLMResponse, error) {
		if input.ToolResult.Actual == "" {
			t.Fatalf("expected a synthesized error result, got empty actual")
		}
		return LLMResponse{}, nil
	}
	action := Action{Kind: ActionToolResult, ToolResultErr: errors.New("timeout")}
	result, err := Transition(env, UserID{}, State{Kind: StateRunningTool}, action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result.Ops[0](context.Background())
}

func TestTransition_ForceResetFromAnyStateGoesIdle(t *testing.T) {
	env := testEnv()
	states := []State{
		{Kind: StateAwaitingLLMDecision},
		{Kind: StateSendingMessage},
		{Kind: StateRunningTool},
		{Kind: StateRunningInternalFunction},
		{Kind: StateCommittingToMemory},
	}
	for _, s := range states {
		result, err := Transition(env, UserID{}, s, Action{Kind: ActionForceReset})
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", s.Kind, err)
		}
		if result.State.Kind != StateIdle {
			t.Errorf("ForceReset from %v: expected Idle, got %v", s.Kind, result.State.Kind)
		}
	}
}

func TestTransition_StaleToolResultAfterForceResetIsRejected(t *testing.T) {
	env := testEnv()
	// After a ForceReset the entity is Idle; a tool result meant for the
	// old RunningTool state must be rejected rather than silently applied.
	action := Action{Kind: ActionToolResult, ToolResult: ToolResultData{Actual: "late"}}
	_, err := Transition(env, UserID{}, Default(), action)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for stale tool result, got %v", err)
	}
}

func TestTransition_SendingMessageTimeoutGoodbyeCommitsToMemory(t *testing.T) {
	env := testEnv()
	var committedID UserID
	env.Commit = func(ctx context.Context, id UserID, conv Conversation) error {
		committedID = id
		return nil
	}
	id := UserID{Channel: "telegram", User: "u2"}
	state := State{Kind: StateSendingMessage, IsTimeout: true, Outcome: Outcome{Kind: OutcomeMessageUser, Response: "bye"}}

	result, err := Transition(env, id, state, Action{Kind: ActionMessageSent})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Kind != StateCommittingToMemory {
		t.Fatalf("expected CommittingToMemory, got %v", result.State.Kind)
	}

	result.Ops[0](context.Background())
	if committedID != id {
		t.Fatalf("expected commit for %v, got %v", id, committedID)
	}
}

func TestTransition_SendingMessageNonTimeoutGoesIdleWithRecent(t *testing.T) {
	env := testEnv()
	state := State{Kind: StateSendingMessage, IsTimeout: false, Outcome: Outcome{Kind: OutcomeMessageUser, Response: "ok"}}

	result, err := Transition(env, UserID{}, state, Action{Kind: ActionMessageSent})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Kind != StateIdle {
		t.Fatalf("expected Idle, got %v", result.State.Kind)
	}
	if result.State.Recent == nil {
		t.Fatal("expected Recent to be populated")
	}
}

func TestTransition_CommittingToMemoryAlwaysGoesIdle(t *testing.T) {
	env := testEnv()
	result, err := Transition(env, UserID{}, State{Kind: StateCommittingToMemory}, Action{Kind: ActionCommitResult, CommitErr: errors.New("write failed")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Kind != StateIdle {
		t.Fatalf("expected Idle even on commit error, got %v", result.State.Kind)
	}
}

func TestSchedule_IdleWithRecentArmsTimeout(t *testing.T) {
	sched := Schedule(DefaultConfig())
	state := State{Kind: StateIdle, Recent: &RecentConversation{LastActivity: time.Now()}}
	timers := sched(state)
	if len(timers) != 1 || timers[0].Action.Kind != ActionTimeout {
		t.Fatalf("expected one Timeout timer, got %+v", timers)
	}
}

func TestSchedule_IdleWithoutRecentArmsNothing(t *testing.T) {
	sched := Schedule(DefaultConfig())
	if timers := sched(Default()); len(timers) != 0 {
		t.Fatalf("expected no timers, got %+v", timers)
	}
}

func TestSchedule_RunningStatesArmForceReset(t *testing.T) {
	sched := Schedule(DefaultConfig())
	for _, kind := range []StateKind{
		StateAwaitingLLMDecision, StateSendingMessage, StateRunningTool,
		StateRunningInternalFunction, StateCommittingToMemory,
	} {
		timers := sched(State{Kind: kind, LastTransition: time.Now()})
		if len(timers) != 1 || timers[0].Action.Kind != ActionForceReset {
			t.Errorf("%v: expected one ForceReset timer, got %+v", kind, timers)
		}
	}
}
