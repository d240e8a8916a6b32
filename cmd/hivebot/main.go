// Command hivebot runs the chat agent: it wires the entity runtime, the
// conversation state machine, the grammar-constrained inference driver,
// the tool/function adapters, the long-term memory store, and the
// platform ingress adapters into one running process, matching the
// startup shape of the teacher's cmd/nexus/main.go (slog setup, config
// load, adapter construction, signal-driven shutdown) trimmed to the
// single conversational agent spec.md describes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/terminal-alpha-beta/hivebot/internal/config"
	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
	"github.com/terminal-alpha-beta/hivebot/internal/inference"
	"github.com/terminal-alpha-beta/hivebot/internal/inference/backend"
	"github.com/terminal-alpha-beta/hivebot/internal/ingress/discord"
	"github.com/terminal-alpha-beta/hivebot/internal/ingress/telegram"
	"github.com/terminal-alpha-beta/hivebot/internal/logging"
	"github.com/terminal-alpha-beta/hivebot/internal/memory"
	"github.com/terminal-alpha-beta/hivebot/internal/prompt"
	"github.com/terminal-alpha-beta/hivebot/internal/tools"
)

func main() {
	logger := logging.New(os.Getenv("HIVEBOT_LOG_LEVEL"))

	if err := run(logger); err != nil {
		logger.Error("fatal startup error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	tokensPath := envOr("HIVEBOT_TOKENS_FILE", "./config/tokens.json")
	runtimePath := envOr("HIVEBOT_CONFIG_FILE", "./config/hivebot.yaml")

	tokens := config.LoadClientTokens(tokensPath)
	runtimeCfg, err := config.LoadRuntimeConfig(runtimePath)
	if err != nil {
		return fmt.Errorf("loading runtime config: %w", err)
	}

	// Backend construction is the one hand-written-interface boundary in
	// this system (internal/inference.Backend, SPEC_FULL.md §4.2): no
	// example repo or ecosystem package binds a local token-level
	// inference engine with session-cache save/load and grammar-
	// constrained sampling. A production deployment supplies a real cgo
	// llama.cpp binding behind inference.Backend; absent one, this
	// process runs the reference in-memory backend so the rest of the
	// system is still exercisable end to end.
	logger.Warn("no production inference.Backend wired; running the in-memory reference backend",
		"model_path", runtimeCfg.Inference.ModelPath)
	be := backend.New(nil)

	thinkingAgent := inference.ThinkingAgent(runtimeCfg.Inference.SessionCacheDir + "/thinking.session")
	thinkingDriver, err := inference.NewDriver(be, thinkingAgent, logger)
	if err != nil {
		return fmt.Errorf("constructing thinking-agent driver: %w", err)
	}
	pool := inference.NewPool(runtimeCfg.Inference.MaxConcurrentGenerations)

	embedder := memory.NewHTTPEmbedder(runtimeCfg.Memory.EmbedderURL, runtimeCfg.Memory.EmbedderModel)
	store, err := memory.New(memory.Config{
		Host:   runtimeCfg.Memory.QdrantHost,
		Port:   runtimeCfg.Memory.QdrantPort,
		APIKey: runtimeCfg.Memory.QdrantAPIKey,
		UseTLS: runtimeCfg.Memory.QdrantUseTLS,
	}, embedder)
	if err != nil {
		return fmt.Errorf("connecting to long-term memory store: %w", err)
	}
	defer store.Close()

	braveToken := os.Getenv("BRAVE_SEARCH_TOKEN")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := &conversation.Env{
		Config: runtimeCfg.Conversation.ToConversationConfig(),
		Decide: func(ctx context.Context, input conversation.LLMInput, conv conversation.Conversation) (conversation.LLMResponse, error) {
			return decide(ctx, pool, thinkingDriver, input, conv)
		},
		ExecuteTool: func(ctx context.Context, call conversation.ToolCall, history []conversation.HistoryEntry) (conversation.ToolResultData, error) {
			return executeTool(ctx, braveToken, call, history)
		},
		ExecuteFunction: func(ctx context.Context, id conversation.UserID, call conversation.FunctionCall, history []conversation.HistoryEntry) (conversation.InternalFunctionResultData, error) {
			return executeFunction(ctx, embedder, store, id, call, history)
		},
		Commit: func(ctx context.Context, id conversation.UserID, conv conversation.Conversation) error {
			return commit(ctx, store, id, conv)
		},
	}

	disp := conversation.NewDispatcher(ctx, env, logger)

	var discordAdapter *discord.Adapter
	var telegramAdapter *telegram.Adapter

	env.Send = func(ctx context.Context, id conversation.UserID, message string) error {
		switch id.Channel {
		case "discord":
			if discordAdapter == nil {
				return fmt.Errorf("discord adapter not configured")
			}
			return discordAdapter.SendToUser(ctx, id.User, message)
		case "telegram":
			if telegramAdapter == nil {
				return fmt.Errorf("telegram adapter not configured")
			}
			return telegramAdapter.SendToUser(ctx, id.User, message)
		default:
			return fmt.Errorf("unknown channel %q", id.Channel)
		}
	}

	var startedAny bool

	if token, ok := tokens.Token("discord"); ok {
		discordAdapter = discord.New(token, os.Getenv("HIVEBOT_DISCORD_HANDLE"), disp, logger)
		if err := discordAdapter.Start(ctx); err != nil {
			return fmt.Errorf("starting discord ingress: %w", err)
		}
		defer discordAdapter.Stop()
		startedAny = true
	}

	if token, ok := tokens.Token("telegram"); ok {
		telegramAdapter, err = telegram.New(token, os.Getenv("HIVEBOT_TELEGRAM_HANDLE"), disp, logger)
		if err != nil {
			return fmt.Errorf("constructing telegram ingress: %w", err)
		}
		go telegramAdapter.Start(ctx)
		startedAny = true
	}

	if !startedAny {
		return fmt.Errorf("no chat platform tokens configured in %s", tokensPath)
	}

	logger.Info("hivebot started")
	waitForShutdown()
	logger.Info("hivebot shutting down")
	return nil
}

// decide renders the dynamic prompt for input against conv's history and
// runs it through the thinking agent, parsing its grammar-constrained
// JSON output as an LLMResponse. A parse failure is a protocol error
// (spec.md §7 tier 2): it bubbles up so the conversation machine resets
// to Idle rather than wedging on malformed output.
func decide(ctx context.Context, pool *inference.Pool, driver *inference.Driver, input conversation.LLMInput, conv conversation.Conversation) (conversation.LLMResponse, error) {
	dynamicPrompt := prompt.BuildDynamicPrompt(input, prompt.LastThoughts(conv))

	raw, err := pool.Run(ctx, driver, dynamicPrompt)
	if err != nil {
		return conversation.LLMResponse{}, fmt.Errorf("inference: %w", err)
	}

	var resp conversation.LLMResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return conversation.LLMResponse{}, fmt.Errorf("parsing LLM response: %w", err)
	}
	return resp, nil
}

func executeTool(ctx context.Context, braveToken string, call conversation.ToolCall, history []conversation.HistoryEntry) (conversation.ToolResultData, error) {
	switch call.Kind {
	case conversation.ToolGetWeather:
		return tools.GetWeather(ctx, nil, call.Location)
	case conversation.ToolWebSearch:
		return tools.WebSearch(ctx, nil, braveToken, call.Query)
	case conversation.ToolVisitURL:
		return tools.VisitUrl(ctx, nil, call.URL)
	case conversation.ToolMathCalculation:
		return tools.ExecuteMath(call.Operations), nil
	default:
		return conversation.ToolResultData{}, fmt.Errorf("unknown tool call kind %q", call.Kind)
	}
}

func executeFunction(ctx context.Context, embedder tools.Embedder, store tools.LongTermStore, id conversation.UserID, call conversation.FunctionCall, history []conversation.HistoryEntry) (conversation.InternalFunctionResultData, error) {
	switch call.Kind {
	case conversation.FunctionRecallShortTerm:
		return tools.RecallShortTerm(history), nil
	case conversation.FunctionRecallLongTerm:
		return tools.RecallLongTerm(ctx, embedder, store, id.String(), call.SearchTerm)
	default:
		return conversation.InternalFunctionResultData{}, fmt.Errorf("unknown function call kind %q", call.Kind)
	}
}

// commit embeds and upserts conv's history into userID's long-term
// collection, giving the CommittingToMemory state (SPEC_FULL.md §4.4's
// supplemented feature) its write side.
func commit(ctx context.Context, store tools.LongTermStore, id conversation.UserID, conv conversation.Conversation) error {
	entries := make([]string, 0, len(conv.History))
	for _, entry := range conv.History {
		if entry.IsOutput {
			if entry.Output.SimpleOutput != "" {
				entries = append(entries, "AGENT: "+entry.Output.SimpleOutput)
			}
			continue
		}
		switch entry.Input.Kind {
		case conversation.InputUserMessage:
			entries = append(entries, "USER: "+entry.Input.UserMessage)
		case conversation.InputToolResult:
			entries = append(entries, "TOOL: "+entry.Input.ToolResult.Simplified)
		case conversation.InputInternalFunctionResult:
			entries = append(entries, "RECALL: "+entry.Input.InternalFunctionResult.Simplified)
		}
	}
	return store.Upsert(ctx, id.String(), entries)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func waitForShutdown() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
