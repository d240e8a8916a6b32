package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// contextSize mirrors LlamaCppService::CONTEXT_SIZE.
	contextSize = 32768
	// batchChunkSize mirrors LlamaCppService::BATCH_CHUNK_SIZE.
	batchChunkSize = 2048
	// maxGenerationTokens mirrors LlamaCppService::MAX_GENERATION_TOKENS.
	maxGenerationTokens = 8192
	// temperature mirrors LlamaCppService::TEMPERATURE.
	temperature = 0.25
)

// Driver drives one Agent's base-prompt-plus-dynamic-tail generation
// protocol against a Backend. One Driver exists per agent; the thinking
// loop and the executor loop share this same machinery, parameterized by
// Agent per spec.md §4.2's "polymorphic agents" requirement.
type Driver struct {
	backend Backend
	agent   Agent
	logger  *slog.Logger

	baseTokenCount int
}

// NewDriver constructs a Driver and eagerly builds (or rebuilds) the
// agent's on-disk session cache, matching LlamaCppService::new's
// create_session_file call at construction time. A failure to save the
// session file is logged and degrades to full prompt evaluation on every
// request rather than failing construction, matching the original's
// "Warning: Failed to create session file" + continue behavior. Failures
// creating the context or tokenizing or decoding the base prompt are
// returned as errors.
func NewDriver(backend Backend, agent Agent, logger *slog.Logger) (*Driver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{backend: backend, agent: agent, logger: logger}

	ctx, err := backend.NewContext(contextSize)
	if err != nil {
		return nil, fmt.Errorf("inference: creating session-build context: %w", err)
	}
	tokens, err := ctx.Tokenize(agent.Prompt, true)
	if err != nil {
		return nil, fmt.Errorf("inference: tokenizing base prompt: %w", err)
	}
	if err := decodeChunked(ctx, tokens, 0, batchChunkSize); err != nil {
		return nil, fmt.Errorf("inference: decoding base prompt: %w", err)
	}
	if err := ctx.SaveSession(agent.SessionPath, tokens); err != nil {
		logger.Warn("failed to create session file, continuing without caching",
			"agent", agent.Name, "session_path", agent.SessionPath, "error", err)
	}
	d.baseTokenCount = len(tokens)

	return d, nil
}

// Generate runs one full turn: load (or rebuild) the base-prompt session,
// append dynamicPrompt, and sample tokens through the agent's grammar
// until an end-of-generation token or maxGenerationTokens is reached.
// Exactly mirrors get_response_blocking in original_source/chatbot/src/agents.rs.
func (d *Driver) Generate(ctx context.Context, dynamicPrompt string) (string, error) {
	llamaCtx, err := d.backend.NewContext(contextSize)
	if err != nil {
		return "", fmt.Errorf("inference: creating generation context: %w", err)
	}

	baseTokenCount, err := d.loadOrRebuildSession(llamaCtx)
	if err != nil {
		return "", err
	}

	dynamicTokens, err := llamaCtx.Tokenize(dynamicPrompt, false)
	if err != nil {
		return "", fmt.Errorf("inference: tokenizing dynamic prompt: %w", err)
	}
	lastBatchSize, err := decodeChunkedReportingLast(llamaCtx, dynamicTokens, baseTokenCount, batchChunkSize)
	if err != nil {
		return "", fmt.Errorf("inference: decoding dynamic prompt: %w", err)
	}
	nCur := baseTokenCount + len(dynamicTokens)

	sampler, err := llamaCtx.NewSampler(temperature, d.agent.AssociatedGrammar, "root")
	if err != nil {
		return "", fmt.Errorf("inference: building sampler chain: %w", err)
	}

	var generated []Token
	lastIdx := lastBatchSize - 1

	for n := 0; n < maxGenerationTokens; n++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		token := sampler.Sample(llamaCtx, lastIdx)
		if llamaCtx.IsEndOfGeneration(token) {
			break
		}
		generated = append(generated, token)

		if err := llamaCtx.Decode([]Token{token}, nCur); err != nil {
			return "", fmt.Errorf("inference: decoding generated token: %w", err)
		}
		nCur++
		lastIdx = 0
	}

	return decodeTokensLossy(llamaCtx, generated), nil
}

// loadOrRebuildSession attempts to restore the agent's cached KV state;
// on failure it falls back to full prompt evaluation, matching
// Agent::load's eprintln-and-continue behavior.
func (d *Driver) loadOrRebuildSession(ctx Context) (int, error) {
	tokens, err := ctx.LoadSession(d.agent.SessionPath, contextSize)
	if err == nil {
		return len(tokens), nil
	}

	d.logger.Warn("failed to load session file, falling back to full prompt evaluation",
		"agent", d.agent.Name, "session_path", d.agent.SessionPath, "error", err)

	baseTokens, err := ctx.Tokenize(d.agent.Prompt, true)
	if err != nil {
		return 0, fmt.Errorf("inference: tokenizing base prompt: %w", err)
	}
	if err := decodeChunked(ctx, baseTokens, 0, batchChunkSize); err != nil {
		return 0, fmt.Errorf("inference: decoding base prompt: %w", err)
	}
	return len(baseTokens), nil
}

// decodeChunked decodes tokens in chunks of at most chunkSize, each
// token's position offset by startPos plus its index in the sequence.
func decodeChunked(ctx Context, tokens []Token, startPos int, chunkSize int) error {
	_, err := decodeChunkedReportingLast(ctx, tokens, startPos, chunkSize)
	return err
}

// decodeChunkedReportingLast is decodeChunked plus the size of the final
// chunk actually decoded, needed by Generate to know last_idx within the
// context's current batch (mirrors append_prompt's last_batch_size).
func decodeChunkedReportingLast(ctx Context, tokens []Token, startPos int, chunkSize int) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	lastChunkSize := 0
	for offset := 0; offset < len(tokens); offset += chunkSize {
		end := offset + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[offset:end]
		if err := ctx.Decode(chunk, startPos+offset); err != nil {
			return 0, err
		}
		lastChunkSize = len(chunk)
	}
	return lastChunkSize, nil
}

// decodeTokensLossy concatenates each token's text and decodes the result
// as UTF-8 with lossy replacement, matching String::from_utf8_lossy over
// the concatenated token bytes in the original.
func decodeTokensLossy(ctx Context, tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		s, err := ctx.TokenToText(t)
		if err != nil {
			continue
		}
		b.WriteString(s)
	}
	return strings.ToValidUTF8(b.String(), "�")
}
