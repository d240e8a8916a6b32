package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/terminal-alpha-beta/hivebot/internal/tools"
)

// HTTPEmbedder implements tools.Embedder against an OpenAI-compatible
// /embeddings HTTP endpoint, standing in for the original's in-process
// fastembed::TextEmbedding (BGESmallENV15) per C9's grounding — Go has no
// equivalent embedded model binding in this pack, so the embedding step
// is realized as a network call instead, the same shape
// internal/embedding/client.go in the reference pack uses.
type HTTPEmbedder struct {
	client  *http.Client
	baseURL string
	model   string
}

const embedHTTPTimeout = 10 * time.Second

// NewHTTPEmbedder constructs an HTTPEmbedder posting to baseURL (e.g.
// "http://localhost:8081/v1/embeddings") with the given model name.
func NewHTTPEmbedder(baseURL, model string) *HTTPEmbedder {
	return &HTTPEmbedder{client: &http.Client{Timeout: embedHTTPTimeout}, baseURL: baseURL, model: model}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns text's embedding vector.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: []string{text}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("memory: failed to reach embedding endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("memory: embedding endpoint returned %s: %s", resp.Status, b)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("memory: failed to parse embedding response: %w", err)
	}
	if len(parsed.Data) != 1 {
		return nil, fmt.Errorf("memory: expected 1 embedding, got %d", len(parsed.Data))
	}
	return parsed.Data[0].Embedding, nil
}

var _ tools.Embedder = (*HTTPEmbedder)(nil)
