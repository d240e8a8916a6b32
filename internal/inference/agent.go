// Package inference implements the grammar-constrained, session-cached
// local LLM driver (C2): a static base prompt plus a dynamic tail sampled
// through a context-free grammar. Grounded on
// original_source/chatbot/src/agents.rs and
// original_source/chatbot/src/services/llama_cpp.rs.
package inference

import (
	_ "embed"
)

//go:embed prompts/thinking_agent.txt
var thinkingAgentPrompt string

//go:embed grammars/llm_response.gbnf
var thinkingAgentGrammar string

//go:embed prompts/executor_agent.txt
var executorAgentPrompt string

//go:embed grammars/passthrough.gbnf
var executorAgentGrammar string

// Agent is a named bundle of three artifacts: a static base prompt, an
// on-disk session-cache path, and a grammar constraining generated text.
// Additional agents are added by constructing another value of this type;
// the driver is parameterized over it, never hard-codes a specific one.
type Agent struct {
	Name              string
	Prompt            string
	SessionPath       string
	AssociatedGrammar string
}

// ThinkingAgent is the main reasoning loop: its grammar enforces the
// LLMResponse JSON schema that internal/conversation's Transition parses.
func ThinkingAgent(sessionPath string) Agent {
	return Agent{
		Name:              "thinking",
		Prompt:            thinkingAgentPrompt,
		SessionPath:       sessionPath,
		AssociatedGrammar: thinkingAgentGrammar,
	}
}

// ExecutorAgent is a simple pass-through agent used to sanity-check the
// driver end to end without the full LLMResponse grammar in the loop.
func ExecutorAgent(sessionPath string) Agent {
	return Agent{
		Name:              "executor",
		Prompt:            executorAgentPrompt,
		SessionPath:       sessionPath,
		AssociatedGrammar: executorAgentGrammar,
	}
}
