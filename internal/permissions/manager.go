// Package permissions gates tool execution behind the session's permission
// mode, prompting the user through a narrow UI handler when a call needs
// sign-off.
package permissions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coredrift/agentcore/internal/config"
	"github.com/coredrift/agentcore/internal/tools"
)

// PermissionRequest is one outstanding ask-the-user prompt. It exists as a
// distinct value (rather than loose arguments) so a pending request can be
// tracked and resolved from two places at once: the goroutine blocked on
// InputHandler.ReadLine, and a context cancellation observed concurrently.
type PermissionRequest struct {
	ID          string
	ToolID      string
	Args        map[string]any
	RequestedAt time.Time
}

// Decision is a cached per-tool permission outcome.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionAlwaysAllow
	DecisionDeny
	DecisionNeverAllow
)

// InputHandler reads a line of free-form user response to a permission prompt.
type InputHandler interface {
	ReadLine(prompt string) (string, error)
}

// OutputHandler displays a permission prompt before InputHandler reads the reply.
type OutputHandler interface {
	PermissionPrompt(toolName string, level tools.PermissionLevel, description string)
}

// Manager gates tool calls on config.PermissionMode. Reads are always
// implicitly allowed regardless of mode, checked before mode is consulted
// at all.
type Manager struct {
	mode  config.PermissionMode
	input InputHandler
	out   OutputHandler

	mu       sync.Mutex
	cache    map[string]Decision
	prompted map[string]bool // de-dupes (tool, args) prompts within one invocation
	nextID   int
}

// NewManager creates a permission manager bound to one session's mode.
func NewManager(mode config.PermissionMode, input InputHandler, out OutputHandler) *Manager {
	return &Manager{
		mode:     mode,
		input:    input,
		out:      out,
		cache:    make(map[string]Decision),
		prompted: make(map[string]bool),
	}
}

// GetMode returns the current permission mode.
func (m *Manager) GetMode() config.PermissionMode {
	return m.mode
}

// SetMode changes the permission mode, e.g. in response to a /mode command.
func (m *Manager) SetMode(mode config.PermissionMode) {
	m.mode = mode
}

// ResetInvocation clears the per-(tool,args) de-dup set. Call once per
// top-level query so a fresh request can re-prompt.
func (m *Manager) ResetInvocation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompted = make(map[string]bool)
}

// Check decides whether toolID at the given permission level may run.
// alwaysRequire, sourced from the tool's AlwaysRequirePermission(), overrides
// every other fast path: such a tool always reaches the UI handler regardless
// of mode or category. Otherwise: read-only calls are always allowed;
// Danger allows everything; FastEdit additionally bypasses PermissionWrite
// (file-operation) tools while still prompting PermissionExecute ones;
// Interactive prompts every gated call unless a prior always/never decision
// is cached.
//
// ctx is observed while a prompt is pending: if the caller cancels it before
// the user answers, the request resolves as denied rather than blocking
// forever on a reply nobody will give.
func (m *Manager) Check(ctx context.Context, toolID string, level tools.PermissionLevel, alwaysRequire bool, args map[string]any, description string) (bool, error) {
	if !alwaysRequire {
		if level == tools.PermissionRead {
			return true, nil
		}
		if m.mode == config.ModeDanger {
			return true, nil
		}
		if m.mode == config.ModeFastEdit && level == tools.PermissionWrite {
			return true, nil
		}
	}

	m.mu.Lock()
	if decision, ok := m.cache[toolID]; ok {
		m.mu.Unlock()
		switch decision {
		case DecisionAlwaysAllow:
			return true, nil
		case DecisionNeverAllow:
			return false, nil
		}
	} else {
		m.mu.Unlock()
	}

	key := toolID + "|" + description
	m.mu.Lock()
	if m.prompted[key] {
		m.mu.Unlock()
		// Already asked about this exact (tool, args) pair this invocation;
		// treat a repeat as implicitly denied rather than prompting twice.
		return false, nil
	}
	m.prompted[key] = true
	m.nextID++
	req := PermissionRequest{
		ID:          fmt.Sprintf("perm-%d", m.nextID),
		ToolID:      toolID,
		Args:        args,
		RequestedAt: time.Now(),
	}
	m.mu.Unlock()

	return m.promptUser(ctx, req, level, description)
}

func (m *Manager) promptUser(ctx context.Context, req PermissionRequest, level tools.PermissionLevel, description string) (bool, error) {
	m.out.PermissionPrompt(req.ToolID, level, description)

	type reply struct {
		text string
		err  error
	}
	replies := make(chan reply, 1)
	go func() {
		text, err := m.input.ReadLine("[y]es / [n]o / [a]lways / ne[v]er: ")
		replies <- reply{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		// The host cancelled the session while this request was still
		// pending; resolve it as denied rather than waiting on a reply that
		// may never come.
		return false, nil
	case r := <-replies:
		if r.err != nil {
			return false, fmt.Errorf("failed to read response: %w", r.err)
		}
		return m.resolveResponse(req.ToolID, r.text), nil
	}
}

func (m *Manager) resolveResponse(toolID, response string) bool {
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	case "a", "always":
		m.mu.Lock()
		m.cache[toolID] = DecisionAlwaysAllow
		m.mu.Unlock()
		return true
	case "v", "never":
		m.mu.Lock()
		m.cache[toolID] = DecisionNeverAllow
		m.mu.Unlock()
		return false
	default:
		return false
	}
}

// ClearCache discards all cached always/never decisions.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]Decision)
}

// CachedDecision returns a prior always/never decision for toolName, if any.
func (m *Manager) CachedDecision(toolName string) (Decision, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.cache[toolName]
	return d, ok
}
