package context

import (
	"testing"

	"github.com/coredrift/agentcore/internal/llm"
)

func TestFormatConversationForSummary(t *testing.T) {
	msgs := []llm.Message{
		llm.TextMessage("user", "Hello"),
		llm.TextMessage("assistant", "Hi there"),
	}

	out := formatConversationForSummary(msgs)

	for _, want := range []string{"[1] User:", "Hello", "[2] Assistant:", "Hi there"} {
		if !containsSubstring(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestCalculateTokens(t *testing.T) {
	msgs := []llm.Message{
		llm.TextMessage("user", "short"),
	}
	if calculateTokens(msgs) <= 0 {
		t.Error("expected positive token estimate")
	}
	if calculateTokens(nil) != 0 {
		t.Error("expected zero tokens for empty message list")
	}
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
