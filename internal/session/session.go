// Package session holds the per-conversation mutable state an Agent needs
// across calls to ProcessQuery: conversation history, the read-before-edit
// set, and permission decisions. A State lives only as long as the host
// process keeps a reference to it; there is no disk persistence or
// /resume support.
package session

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/coredrift/agentcore/internal/config"
	ctxmgr "github.com/coredrift/agentcore/internal/context"
	"github.com/coredrift/agentcore/internal/permissions"
)

// State is one conversation's worth of state: the running context window,
// its read set, and its permission manager (which owns mode + decision
// cache for this conversation only).
type State struct {
	ID          string
	Model       string
	StartedAt   time.Time
	Context     *ctxmgr.ContextManager
	ReadSet     *ctxmgr.ReadSet
	Permissions *permissions.Manager
	Calibrator  *ctxmgr.TokenCalibrator

	shownContextWarning bool
}

// New creates a fresh session: a new random ID, an empty context window
// seeded with systemPrompt, and a permission manager in the given mode.
func New(model, systemPrompt string, ctxCfg ctxmgr.ContextConfig, permMode config.PermissionMode, in permissions.InputHandler, out permissions.OutputHandler) *State {
	return &State{
		ID:          uuid.NewString(),
		Model:       model,
		StartedAt:   time.Now(),
		Context:     ctxmgr.NewContextManager(systemPrompt, ctxCfg),
		ReadSet:     ctxmgr.NewReadSet(),
		Permissions: permissions.NewManager(permMode, in, out),
		Calibrator:  ctxmgr.NewTokenCalibrator(50),
	}
}

// ShownContextWarning reports whether the context-usage warning has already
// fired once this session, so the Runner only shows it once.
func (s *State) ShownContextWarning() bool { return s.shownContextWarning }

// MarkContextWarningShown records that the warning fired.
func (s *State) MarkContextWarningShown() { s.shownContextWarning = true }

// ResetContextWarning clears the warning flag, e.g. after a compaction.
func (s *State) ResetContextWarning() { s.shownContextWarning = false }

// Preview returns a short preview of the first user message, for a session
// list UI.
func (s *State) Preview(maxLen int) string {
	for _, msg := range s.Context.GetMessages() {
		if msg.Role == "user" {
			return truncate(msg.Text(), maxLen)
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// FormatRelativeTime formats a time as a human-readable relative string,
// e.g. for a session list UI.
func FormatRelativeTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return strconv.Itoa(mins) + "m ago"
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return strconv.Itoa(hours) + "h ago"
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return strconv.Itoa(days) + "d ago"
	default:
		if t.Year() == now.Year() {
			return t.Format("Jan 2")
		}
		return t.Format("Jan 2, 2006")
	}
}
