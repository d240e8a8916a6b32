// Package prompt builds the dynamic, per-turn prompt text fed to the
// inference driver (C5), grounded directly on
// build_dynamic_prompt/generate_llm_response_examples in
// original_source/chatbot/src/externals/llama_cpp_external.rs.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
)

// exampleResponse mirrors LLMResponse's shape for the worked examples
// embedded in every dynamic prompt, minus the SimpleOutput field the
// original's example struct never populated either.
type exampleResponse struct {
	Thoughts string               `json:"thoughts"`
	Outcome  conversation.Outcome `json:"outcome"`
}

// Examples renders one worked example per LLMResponse outcome variant, in
// the same order and with the same pretty/compact mix as
// generate_llm_response_examples: MessageUser and the two InternalFunctionCall
// examples are pretty-printed, the two IntermediateToolCall examples are a
// mix of compact and pretty, matching the original's inconsistency exactly.
func Examples() string {
	var b strings.Builder

	writeExample := func(label string, pretty bool, resp exampleResponse) {
		var encoded []byte
		if pretty {
			encoded, _ = json.MarshalIndent(resp, "", "  ")
		} else {
			encoded, _ = json.Marshal(resp)
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", label, encoded)
	}

	writeExample("MessageUser Example", true, exampleResponse{
		Thoughts: "...",
		Outcome: conversation.Outcome{
			Kind:     conversation.OutcomeMessageUser,
			Response: "Hello there! How can I help you today?",
		},
	})

	writeExample("IntermediateToolCall (WebSearch) Example", false, exampleResponse{
		Thoughts: "...",
		Outcome: conversation.Outcome{
			Kind: conversation.OutcomeIntermediateToolCall,
			ToolCall: &conversation.ToolCall{
				Kind:  conversation.ToolWebSearch,
				Query: "latest news headlines",
			},
		},
	})

	writeExample("IntermediateToolCall (MathCalculation) Example", true, exampleResponse{
		Thoughts: "...",
		Outcome: conversation.Outcome{
			Kind: conversation.OutcomeIntermediateToolCall,
			ToolCall: &conversation.ToolCall{
				Kind: conversation.ToolMathCalculation,
				Operations: []conversation.MathOperation{
					{Op: conversation.MathAdd, A: 5, B: 3},
					{Op: conversation.MathMul, A: 2, B: 4},
				},
			},
		},
	})

	writeExample("InternalFunctionCall (RecallShortTerm) Example", true, exampleResponse{
		Thoughts: "...",
		Outcome: conversation.Outcome{
			Kind: conversation.OutcomeInternalFunctionCall,
			FunctionCall: &conversation.FunctionCall{
				Kind:   conversation.FunctionRecallShortTerm,
				Reason: "User asked about previous topic.",
			},
		},
	})

	writeExample("InternalFunctionCall (RecallLongTerm) Example", true, exampleResponse{
		Thoughts: "...",
		Outcome: conversation.Outcome{
			Kind: conversation.OutcomeInternalFunctionCall,
			FunctionCall: &conversation.FunctionCall{
				Kind:       conversation.FunctionRecallLongTerm,
				SearchTerm: "project details",
			},
		},
	})

	return b.String()
}

// formatInput renders new_input the way format_input does, wrapped in
// ChatML-style turn markers with a role-specific tag for tool/function
// results. The new input is not truncated here (build_dynamic_prompt
// always passes truncate=false), nor when it is appended to the
// conversation's history; the only length caps are the ones VisitUrl and
// WebSearch apply to their own output.
func formatInput(input conversation.LLMInput) string {
	switch input.Kind {
	case conversation.InputUserMessage:
		return fmt.Sprintf("<|im_start|>user\n%s<|im_end|>", input.UserMessage)
	case conversation.InputInternalFunctionResult:
		return fmt.Sprintf("<|im_start|>user\n[INTERNAL FUNCTION RESULT]:\n%s<|im_end|>", input.InternalFunctionResult.Actual)
	case conversation.InputToolResult:
		return fmt.Sprintf("<|im_start|>user\n[TOOL RESULT]:\n%s<|im_end|>", input.ToolResult.Actual)
	default:
		return ""
	}
}

// formatPreviousThoughts renders the "previous thoughts" section: the
// prior turn's Thoughts field if this is a continuation, or the literal
// NULL sentinel if this is a conversation's first turn.
func formatPreviousThoughts(lastThoughts *string) string {
	if lastThoughts != nil {
		return fmt.Sprintf("system\nTHOUGHTS:\n%s", *lastThoughts)
	}
	return "system\nPREVIOUS THOUGHTS: NULL;"
}

// BuildDynamicPrompt assembles the four labelled sections fed to the
// inference driver for one turn: the worked LLMResponse examples, the
// previous turn's thoughts (or NULL for a fresh conversation), the new
// input, and the assistant-start marker that cues generation.
func BuildDynamicPrompt(newInput conversation.LLMInput, lastThoughts *string) string {
	return fmt.Sprintf(`

--- LLMResponse Examples ---

%s

--- End LLMResponse Examples ---

--- Thoughts from the previous iteration ---

%s

--- End previous thoughts ---

--- New input (User message or an outcome of previous thoughts) ---

%s

--- End new input

<|im_start|>assistant:
`, Examples(), formatPreviousThoughts(lastThoughts), formatInput(newInput))
}

// LastThoughts returns the Thoughts field of the most recent output entry
// in conv's history, or nil if conv has no prior output (a fresh
// conversation's first turn).
func LastThoughts(conv conversation.Conversation) *string {
	for i := len(conv.History) - 1; i >= 0; i-- {
		entry := conv.History[i]
		if entry.IsOutput {
			thoughts := entry.Output.Thoughts
			return &thoughts
		}
	}
	return nil
}
