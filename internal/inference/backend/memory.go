// Package backend is the reference/test implementation of
// inference.Backend named in SPEC_FULL.md §4.2: an in-memory, whitespace
// tokenizing engine good enough to exercise internal/inference's session
// caching, chunked batch decode, and generation-loop machinery without a
// real model. It is not meant for production use; a production
// deployment wires a real cgo llama.cpp binding behind the same
// inference.Backend interface.
package backend

import (
	"errors"
	"strings"
	"sync"

	"github.com/terminal-alpha-beta/hivebot/internal/inference"
)

// ErrNoSession is returned by LoadSession when path has no saved state.
var ErrNoSession = errors.New("backend: no session saved at path")

// Memory is an in-memory inference.Backend: tokens are whitespace-split
// words interned into a shared vocabulary, and "decode" is a no-op that
// just validates the sequence of positions it's given. Each agent's
// scripted response is configured up front through New's script map so
// the generation loop has something deterministic to sample.
type Memory struct {
	mu       sync.Mutex
	sessions map[string][]inference.Token
	vocab    *vocabulary
	script   map[string][]inference.Token // grammar -> scripted output tokens
}

// New constructs a Memory backend. script maps a grammar's text verbatim
// to the token sequence NewSampler's Sampler should emit for it, letting
// tests pin an exact generated response per agent.
func New(script map[string]string) *Memory {
	v := newVocabulary()
	scripted := make(map[string][]inference.Token, len(script))
	for grammar, response := range script {
		scripted[grammar] = v.tokenize(response)
	}
	return &Memory{
		sessions: make(map[string][]inference.Token),
		vocab:    v,
		script:   scripted,
	}
}

func (m *Memory) NewContext(contextSize int) (inference.Context, error) {
	return &memoryContext{m: m}, nil
}

type memoryContext struct {
	m *Memory
}

// Tokenize splits text on whitespace, interning each word. addBOS
// prepends a synthetic beginning-of-sequence token, matching AddBos::Always.
func (c *memoryContext) Tokenize(text string, addBOS bool) ([]inference.Token, error) {
	tokens := c.m.vocab.tokenize(text)
	if addBOS {
		tokens = append([]inference.Token{bosToken}, tokens...)
	}
	return tokens, nil
}

func (c *memoryContext) Decode(tokens []inference.Token, startPos int) error {
	if startPos < 0 {
		return errors.New("backend: negative decode position")
	}
	return nil
}

func (c *memoryContext) SaveSession(path string, tokens []inference.Token) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	saved := make([]inference.Token, len(tokens))
	copy(saved, tokens)
	c.m.sessions[path] = saved
	return nil
}

func (c *memoryContext) LoadSession(path string, maxTokens int) ([]inference.Token, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	tokens, ok := c.m.sessions[path]
	if !ok {
		return nil, ErrNoSession
	}
	if len(tokens) > maxTokens {
		return nil, errors.New("backend: saved session exceeds context size")
	}
	out := make([]inference.Token, len(tokens))
	copy(out, tokens)
	return out, nil
}

func (c *memoryContext) NewSampler(temperature float32, grammar string, rootRule string) (inference.Sampler, error) {
	tokens, ok := c.m.script[grammar]
	if !ok {
		return nil, errors.New("backend: no scripted response for this grammar")
	}
	return &scriptedSampler{tokens: tokens}, nil
}

func (c *memoryContext) TokenToText(t inference.Token) (string, error) {
	return c.m.vocab.text(t), nil
}

func (c *memoryContext) IsEndOfGeneration(t inference.Token) bool {
	return t == eogToken
}

type scriptedSampler struct {
	tokens []inference.Token
	pos    int
}

func (s *scriptedSampler) Sample(ctx inference.Context, idx int) inference.Token {
	if s.pos >= len(s.tokens) {
		return eogToken
	}
	t := s.tokens[s.pos]
	s.pos++
	return t
}

const (
	bosToken inference.Token = -1
	eogToken inference.Token = -2
)

// vocabulary interns whitespace-split words (plus a single trailing
// space after every word but the last, so TokenToText round-trips text
// with spacing preserved) to stable integer ids.
type vocabulary struct {
	mu      sync.Mutex
	byWord  map[string]inference.Token
	byToken map[inference.Token]string
	next    inference.Token
}

func newVocabulary() *vocabulary {
	return &vocabulary{
		byWord:  make(map[string]inference.Token),
		byToken: make(map[inference.Token]string),
		next:    1,
	}
}

func (v *vocabulary) tokenize(text string) []inference.Token {
	words := strings.Fields(text)
	tokens := make([]inference.Token, 0, len(words))
	for i, w := range words {
		word := w
		if i < len(words)-1 {
			word += " "
		}
		tokens = append(tokens, v.intern(word))
	}
	return tokens
}

func (v *vocabulary) intern(word string) inference.Token {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t, ok := v.byWord[word]; ok {
		return t
	}
	t := v.next
	v.next++
	v.byWord[word] = t
	v.byToken[t] = word
	return t
}

func (v *vocabulary) text(t inference.Token) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.byToken[t]
}
