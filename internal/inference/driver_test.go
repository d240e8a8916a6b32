package inference

import (
	"context"
	"testing"

	"github.com/terminal-alpha-beta/hivebot/internal/inference/backend"
)

func TestDriver_GeneratesScriptedResponseForAgent(t *testing.T) {
	agent := ExecutorAgent(t.TempDir() + "/executor.session")
	be := backend.New(map[string]string{
		agent.AssociatedGrammar: "hello there",
	})

	driver, err := NewDriver(be, agent, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	out, err := driver.Generate(context.Background(), "say hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "hello there" {
		t.Fatalf("expected %q, got %q", "hello there", out)
	}
}

func TestDriver_ThinkingAgentUsesEmbeddedGrammar(t *testing.T) {
	agent := ThinkingAgent(t.TempDir() + "/thinking.session")
	response := `{"thoughts":"ok","outcome":{"kind":"message_user","response":"hi"},"simple_output":"greeted"}`
	be := backend.New(map[string]string{
		agent.AssociatedGrammar: response,
	})

	driver, err := NewDriver(be, agent, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	out, err := driver.Generate(context.Background(), "new input: hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != response {
		t.Fatalf("expected scripted response round-trip, got %q", out)
	}
}

func TestDriver_SessionCacheIsReusedAcrossGenerateCalls(t *testing.T) {
	agent := ExecutorAgent(t.TempDir() + "/executor.session")
	be := backend.New(map[string]string{
		agent.AssociatedGrammar: "ack",
	})

	driver, err := NewDriver(be, agent, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	for i := 0; i < 3; i++ {
		out, err := driver.Generate(context.Background(), "turn")
		if err != nil {
			t.Fatalf("Generate call %d: %v", i, err)
		}
		if out != "ack" {
			t.Fatalf("call %d: expected %q, got %q", i, "ack", out)
		}
	}
}

func TestDriver_MissingScriptForGrammarErrors(t *testing.T) {
	agent := ExecutorAgent(t.TempDir() + "/executor.session")
	be := backend.New(nil)

	driver, err := NewDriver(be, agent, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	if _, err := driver.Generate(context.Background(), "anything"); err == nil {
		t.Fatal("expected an error when no script is configured for the agent's grammar")
	}
}
