package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
)

// RuntimeConfig is hivebot's operational configuration: the knobs
// spec.md leaves as named defaults (idle/watchdog timeouts, truncation
// maxima) plus the handful of purely operational settings spec.md never
// mentions (inference worker concurrency, the model file path). Loaded
// from YAML, matching the teacher's own config stack, since spec.md only
// pins the wire format of the client-token file (see tokens.go), not of
// this document.
type RuntimeConfig struct {
	Conversation ConversationConfig `yaml:"conversation"`
	Inference    InferenceConfig    `yaml:"inference"`
	Memory       MemoryConfig       `yaml:"memory"`
}

// ConversationConfig mirrors conversation.Config's tunables.
type ConversationConfig struct {
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	WatchdogTimeout time.Duration `yaml:"watchdog_timeout"`

	MaxToolActualLength        int `yaml:"max_tool_actual_length"`
	MaxHistoryTextLength       int `yaml:"max_history_text_length"`
	MaxSearchDescriptionLength int `yaml:"max_search_description_length"`
	MaxWebPageActualLength     int `yaml:"max_web_page_actual_length"`
	MaxSimplifiedLength        int `yaml:"max_simplified_length"`

	PreserveRecentOnTimeout bool `yaml:"preserve_recent_on_timeout"`
}

// InferenceConfig configures the local LLM driver's runtime footprint.
type InferenceConfig struct {
	// ModelPath is the gguf weights file path. Overridden by the
	// MODEL_PATH environment variable per spec.md §6; defaults to
	// "./models/hivebot.gguf" when neither is set.
	ModelPath string `yaml:"model_path"`

	// SessionCacheDir holds each agent's on-disk KV-cache file.
	SessionCacheDir string `yaml:"session_cache_dir"`

	// MaxConcurrentGenerations bounds internal/inference.Pool's admitted
	// blocking calls (spec.md §5's blocking-tolerant worker pool).
	MaxConcurrentGenerations int `yaml:"max_concurrent_generations"`
}

// MemoryConfig configures the long-term (Qdrant) memory store and its
// embedding endpoint.
type MemoryConfig struct {
	QdrantHost    string `yaml:"qdrant_host"`
	QdrantPort    int    `yaml:"qdrant_port"`
	QdrantAPIKey  string `yaml:"qdrant_api_key"`
	QdrantUseTLS  bool   `yaml:"qdrant_use_tls"`
	EmbedderURL   string `yaml:"embedder_url"`
	EmbedderModel string `yaml:"embedder_model"`
}

// LoadRuntimeConfig reads path as YAML, applies environment overrides,
// then fills in spec.md's documented defaults for anything left zero.
// A missing file is not an error: RuntimeConfig is entirely optional
// operational tuning, and applyDefaults alone produces a working configuration.
func LoadRuntimeConfig(path string) (RuntimeConfig, error) {
	var cfg RuntimeConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return RuntimeConfig{}, fmt.Errorf("config: failed to read runtime config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return RuntimeConfig{}, fmt.Errorf("config: failed to parse runtime config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *RuntimeConfig) {
	if v := strings.TrimSpace(os.Getenv("MODEL_PATH")); v != "" {
		cfg.Inference.ModelPath = v
	}
	if v := strings.TrimSpace(os.Getenv("HIVEBOT_MAX_CONCURRENT_GENERATIONS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Inference.MaxConcurrentGenerations = n
		}
	}
}

func applyDefaults(cfg *RuntimeConfig) {
	c := &cfg.Conversation
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 300 * time.Second
	}
	if c.WatchdogTimeout == 0 {
		c.WatchdogTimeout = 600 * time.Second
	}
	if c.MaxToolActualLength == 0 {
		c.MaxToolActualLength = 4 * 1024
	}
	if c.MaxHistoryTextLength == 0 {
		c.MaxHistoryTextLength = 1024
	}
	if c.MaxSearchDescriptionLength == 0 {
		c.MaxSearchDescriptionLength = 20
	}
	if c.MaxWebPageActualLength == 0 {
		c.MaxWebPageActualLength = 10 * 1024
	}
	if c.MaxSimplifiedLength == 0 {
		c.MaxSimplifiedLength = 300
	}

	i := &cfg.Inference
	if i.ModelPath == "" {
		i.ModelPath = "./models/hivebot.gguf"
	}
	if i.SessionCacheDir == "" {
		i.SessionCacheDir = "./models/sessions"
	}
	if i.MaxConcurrentGenerations <= 0 {
		i.MaxConcurrentGenerations = 1
	}

	m := &cfg.Memory
	if m.QdrantHost == "" {
		m.QdrantHost = "localhost"
	}
	if m.QdrantPort == 0 {
		m.QdrantPort = 6334
	}
	if m.EmbedderModel == "" {
		m.EmbedderModel = "text-embedding-small"
	}
}

// ConversationConfig converts the loaded YAML tunables into a
// conversation.Config, layering them over conversation.DefaultConfig so
// any field RuntimeConfig doesn't carry (e.g. TimeoutGoodbyeMessage)
// keeps its spec.md default.
func (c ConversationConfig) ToConversationConfig() conversation.Config {
	cfg := conversation.DefaultConfig()
	cfg.IdleTimeout = c.IdleTimeout
	cfg.WatchdogTimeout = c.WatchdogTimeout
	cfg.MaxToolActualLength = c.MaxToolActualLength
	cfg.MaxHistoryTextLength = c.MaxHistoryTextLength
	cfg.MaxSearchDescriptionLength = c.MaxSearchDescriptionLength
	cfg.MaxWebPageActualLength = c.MaxWebPageActualLength
	cfg.MaxSimplifiedLength = c.MaxSimplifiedLength
	cfg.PreserveRecentOnTimeout = c.PreserveRecentOnTimeout
	return cfg
}
