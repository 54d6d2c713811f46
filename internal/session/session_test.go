package session

import (
	"testing"
	"time"

	"github.com/coredrift/agentcore/internal/config"
	ctxmgr "github.com/coredrift/agentcore/internal/context"
	"github.com/coredrift/agentcore/internal/tools"
)

type nullInput struct{}

func (nullInput) ReadLine(string) (string, error) { return "", nil }

type testOutput struct{}

func (testOutput) PermissionPrompt(toolName string, level tools.PermissionLevel, description string) {
}

func newTestState() *State {
	return New("claude-haiku-4-5-20251001", "system", ctxmgr.DefaultContextConfig(), config.ModeInteractive, nullInput{}, testOutput{})
}

func TestNew(t *testing.T) {
	s := newTestState()
	if s.ID == "" {
		t.Error("expected non-empty ID")
	}
	if s.StartedAt.IsZero() {
		t.Error("expected non-zero StartedAt")
	}
	if s.Context == nil || s.ReadSet == nil || s.Permissions == nil {
		t.Error("expected Context, ReadSet, and Permissions to be initialized")
	}
}

func TestNewGeneratesUniqueIDs(t *testing.T) {
	a := newTestState()
	b := newTestState()
	if a.ID == b.ID {
		t.Error("expected unique session IDs")
	}
}

func TestContextWarningFlag(t *testing.T) {
	s := newTestState()
	if s.ShownContextWarning() {
		t.Error("expected warning flag to start false")
	}
	s.MarkContextWarningShown()
	if !s.ShownContextWarning() {
		t.Error("expected warning flag to be set")
	}
	s.ResetContextWarning()
	if s.ShownContextWarning() {
		t.Error("expected warning flag to be cleared")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"a longer string", 10, "a longe..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	if got := FormatRelativeTime(now); got != "just now" {
		t.Errorf("expected 'just now', got %q", got)
	}
	if got := FormatRelativeTime(now.Add(-2 * time.Hour)); got != "2h ago" {
		t.Errorf("expected '2h ago', got %q", got)
	}
}
