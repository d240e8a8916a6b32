package inference

// Token is an opaque engine-specific token id, matching the original's
// LlamaToken.
type Token int32

// Context is a single inference context bound to one model/backend pair:
// a KV cache plus the position (n_cur) the driver advances as it decodes.
// No example repo or ecosystem package in the retrieved corpus provides a
// Go binding over a token-level local inference engine exposing
// session-cache save/load, manual batch decode, and a grammar-constrained
// sampler chain (the corpus's local-model story is entirely HTTP-level:
// haasonsaas-nexus's OllamaProvider). Backend is therefore a hand-written
// interface mirroring the shape original_source/chatbot/src/services/llama_cpp.rs
// and agents.rs drive against llama_cpp_2's LlamaContext/LlamaBatch/
// LlamaSampler — a production deployment wires a real cgo binding behind
// it; internal/inference/backend ships a reference implementation only.
type Context interface {
	// Tokenize converts text to tokens. addBOS controls whether a
	// beginning-of-sequence token is prepended (Always for a base
	// prompt, Never for a dynamic tail appended mid-session).
	Tokenize(text string, addBOS bool) ([]Token, error)

	// Decode runs one forward pass over the given batch, starting each
	// token at its corresponding absolute position.
	Decode(tokens []Token, startPos int) error

	// SaveSession persists the context's current KV cache to path,
	// alongside the token sequence that produced it.
	SaveSession(path string, tokens []Token) error

	// LoadSession restores a previously saved KV cache from path and
	// returns the token sequence it represents. An error means no usable
	// cache exists; callers fall back to full prompt evaluation.
	LoadSession(path string, maxTokens int) ([]Token, error)

	// NewSampler builds a sampler chain: temperature, then the named
	// grammar's root rule, then a final distribution sample. Matches
	// LlamaSampler::chain_simple([temp, grammar, dist(seed=0)]).
	NewSampler(temperature float32, grammar string, rootRule string) (Sampler, error)

	// TokenToText maps a single generated token back to text.
	TokenToText(t Token) (string, error)

	// IsEndOfGeneration reports whether t is an end-of-generation token.
	IsEndOfGeneration(t Token) bool
}

// Sampler draws the next token conditioned on everything decoded so far
// at position idx within the context's last batch.
type Sampler interface {
	Sample(ctx Context, idx int) Token
}

// Backend creates inference contexts against a loaded model. It is the
// top-level handle a Driver is constructed from, matching LlamaBackend +
// LlamaModel in the original.
type Backend interface {
	// NewContext creates a fresh inference context with the given
	// context-window size in tokens.
	NewContext(contextSize int) (Context, error)
}
