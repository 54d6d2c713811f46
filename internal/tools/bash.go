package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/coredrift/agentcore/internal/adapter"
)

// CommandExecutor runs a shell command and reports its captured output.
// adapter.Adapter's ExecuteCommand satisfies this directly; BashTool depends
// only on this narrow slice of it.
type CommandExecutor interface {
	ExecuteCommand(ctx context.Context, command string) (adapter.CommandResult, error)
}

// BashTool executes bash commands
type BashTool struct {
	Sandbox    Sandbox // OS-level sandbox; nil means no sandboxing
	ProjectDir string  // Project root for sandbox filesystem restrictions

	// Adapter, when set, is used instead of this tool's own direct
	// exec.Command path. RegisterBuiltins wires in an adapter.Local rooted at
	// the project directory; tests and standalone use leave it nil and fall
	// back to the legacy inline path below.
	Adapter CommandExecutor
}

func (t *BashTool) Name() string {
	return "bash"
}

func (t *BashTool) Description() string {
	return "Execute a bash command. Use for running builds, tests, git operations, and other shell commands. Output is captured and returned."
}

func (t *BashTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The bash command to execute.",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Timeout in seconds (default: 60).",
				"default":     60,
			},
		},
		"required": []string{"command"},
	}
}

func (t *BashTool) Permission() PermissionLevel {
	return PermissionExecute
}

func (t *BashTool) AlwaysRequirePermission() bool {
	return false
}

// maxBashTimeout is the maximum allowed timeout for bash commands (5 minutes)
const maxBashTimeout = 300

func (t *BashTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	command, ok := input["command"].(string)
	if !ok || command == "" {
		return "", fmt.Errorf("command is required")
	}

	// Multi-layer command safety check (blocklist + obfuscation + evasion)
	if err := CheckCommandSafety(command); err != nil {
		return "", err
	}

	timeout := 60
	if tv, ok := input["timeout"].(float64); ok && tv > 0 {
		timeout = int(tv)
	}
	// Cap timeout to prevent indefinitely long-running commands
	if timeout > maxBashTimeout {
		timeout = maxBashTimeout
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	if t.Adapter != nil {
		return t.executeViaAdapter(ctx, command, timeout)
	}

	// Determine command execution: sandboxed or direct
	exe := "bash"
	args := []string{"-c", command}
	if t.Sandbox != nil && t.Sandbox.Available() {
		projectDir := t.ProjectDir
		if projectDir == "" {
			projectDir = "."
		}
		var err error
		exe, args, err = t.Sandbox.Wrap(command, projectDir)
		if err != nil {
			return "", fmt.Errorf("sandbox wrap failed: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Env = SanitizedEnv()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	// Build output
	var result strings.Builder

	if stdout.Len() > 0 {
		result.WriteString(stdout.String())
	}

	if stderr.Len() > 0 {
		if result.Len() > 0 {
			result.WriteString("\n")
		}
		result.WriteString("STDERR:\n")
		result.WriteString(stderr.String())
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("command timed out after %d seconds", timeout)
		}

		// Include exit code in output, not as error
		if result.Len() > 0 {
			result.WriteString("\n")
		}
		result.WriteString(fmt.Sprintf("Exit code: %v", err))
	}

	output := result.String()
	if output == "" {
		output = "(no output)"
	}

	// Truncate very long output
	const maxOutput = 50000
	if len(output) > maxOutput {
		output = output[:maxOutput] + "\n... (output truncated)"
	}

	return output, nil
}

func (t *BashTool) executeViaAdapter(ctx context.Context, command string, timeout int) (string, error) {
	result, err := t.Adapter.ExecuteCommand(ctx, command)
	if err != nil {
		return "", err
	}
	if result.TimedOut {
		return "", fmt.Errorf("command timed out after %d seconds", timeout)
	}

	var out strings.Builder
	if result.Stdout != "" {
		out.WriteString(result.Stdout)
	}
	if result.Stderr != "" {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString("STDERR:\n")
		out.WriteString(result.Stderr)
	}
	if result.ExitCode != 0 {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		fmt.Fprintf(&out, "Exit code: %d", result.ExitCode)
	}

	output := out.String()
	if output == "" {
		output = "(no output)"
	}
	if len(output) > maxToolOutputBash {
		output = output[:maxToolOutputBash] + "\n... (output truncated)"
	}
	return output, nil
}

const maxToolOutputBash = 50000

// GrepTool searches for patterns in files
type GrepTool struct{}

func (t *GrepTool) Name() string {
	return "grep"
}

func (t *GrepTool) Description() string {
	return "Search for a pattern in files using ripgrep (rg). Fast, respects .gitignore."
}

func (t *GrepTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "The regex pattern to search for.",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Path to search in (default: current directory).",
				"default":     ".",
			},
			"file_type": map[string]any{
				"type":        "string",
				"description": "Filter by file type (e.g., 'go', 'ts', 'py').",
			},
			"case_sensitive": map[string]any{
				"type":        "boolean",
				"description": "Case sensitive search (default: false).",
				"default":     false,
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Maximum matched lines to return (default and hard cap: 100).",
				"default":     100,
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *GrepTool) Permission() PermissionLevel {
	return PermissionRead
}

func (t *GrepTool) AlwaysRequirePermission() bool {
	return false
}

func (t *GrepTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	pattern, ok := input["pattern"].(string)
	if !ok || pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}

	path := "."
	if p, ok := input["path"].(string); ok && p != "" {
		path = p
	}

	maxResults := 100
	if mr, ok := input["max_results"].(float64); ok && mr > 0 && int(mr) < maxResults {
		maxResults = int(mr)
	}

	args := []string{"--color=never", "-n"} // No color, show line numbers

	// Case sensitivity
	if caseSensitive, ok := input["case_sensitive"].(bool); !ok || !caseSensitive {
		args = append(args, "-i")
	}

	// File type
	if fileType, ok := input["file_type"].(string); ok && fileType != "" {
		args = append(args, "-t", fileType)
	}

	args = append(args, pattern, path)

	cmd := exec.CommandContext(ctx, "rg", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	// rg returns exit code 1 for no matches, which is not an error
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == 1 {
				return marshalResult(GrepResult{Matches: []GrepMatch{}})
			}
		}
		// Check if rg is not installed, fall back to grep
		if strings.Contains(stderr.String(), "not found") || strings.Contains(err.Error(), "executable file not found") {
			return t.fallbackGrep(ctx, input, maxResults)
		}
		return "", fmt.Errorf("search failed: %s", stderr.String())
	}

	return marshalResult(parseGrepOutput(stdout.String(), maxResults))
}

func (t *GrepTool) fallbackGrep(ctx context.Context, input map[string]any, maxResults int) (string, error) {
	pattern := input["pattern"].(string)
	path := "."
	if p, ok := input["path"].(string); ok && p != "" {
		path = p
	}

	args := []string{"-r", "-n"}

	if caseSensitive, ok := input["case_sensitive"].(bool); !ok || !caseSensitive {
		args = append(args, "-i")
	}

	args = append(args, pattern, path)

	cmd := exec.CommandContext(ctx, "grep", args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	_ = cmd.Run() // Ignore error - grep returns 1 for no matches

	return marshalResult(parseGrepOutput(stdout.String(), maxResults))
}

// parseGrepOutput turns rg/grep's "file:line:content" lines into the
// structured {matches,count,hasMore} shape, capping at maxResults.
func parseGrepOutput(output string, maxResults int) GrepResult {
	result := GrepResult{Matches: []GrepMatch{}}
	if strings.TrimSpace(output) == "" {
		return result
	}

	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		lineNo := 0
		fmt.Sscanf(parts[1], "%d", &lineNo)
		if len(result.Matches) >= maxResults {
			result.HasMore = true
			break
		}
		result.Matches = append(result.Matches, GrepMatch{File: parts[0], Line: lineNo, Content: parts[2]})
	}
	result.Count = len(result.Matches)
	return result
}
