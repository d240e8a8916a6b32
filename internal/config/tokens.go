// Package config loads hivebot's two configuration surfaces: the
// platform-credential JSON file spec.md §6 pins the wire format of, and
// the operational RuntimeConfig spec.md leaves unspecified, which this
// repo loads as YAML via gopkg.in/yaml.v3 — the same library the teacher
// (haasonsaas/nexus) uses for its own, much larger configuration.
package config

import (
	"encoding/json"
	"os"
)

// ClientTokens is the JSON object spec.md §6 names: a map from platform
// name (e.g. "discord", "telegram") to that platform's bot token.
type ClientTokens struct {
	Tokens map[string]string `json:"client_tokens"`
}

// LoadClientTokens reads path and parses it as a ClientTokens document.
// Per spec.md §6, "missing or malformed file is tolerated; consumers fail
// at the point of first missing token" — so both a missing file and a
// parse error here return an empty ClientTokens rather than an error;
// Token's zero-value lookup is what actually surfaces the failure, at
// the point a caller tries to use a credential that was never loaded.
func LoadClientTokens(path string) ClientTokens {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientTokens{}
	}
	var tokens ClientTokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return ClientTokens{}
	}
	return tokens
}

// Token returns the configured token for platform, and whether one was
// present at all. Callers that require a token fail explicitly on the
// !ok branch rather than silently starting with an empty credential.
func (c ClientTokens) Token(platform string) (string, bool) {
	if c.Tokens == nil {
		return "", false
	}
	token, ok := c.Tokens[platform]
	return token, ok
}
