package agent

import (
	"context"
	"fmt"

	ctxmgr "github.com/coredrift/agentcore/internal/context"
	"github.com/coredrift/agentcore/internal/llm"
	"github.com/coredrift/agentcore/internal/permissions"
	"github.com/coredrift/agentcore/internal/tools"
)

// maxToolOutput is the maximum size of tool output before truncation (50KB).
const maxToolOutput = 50000

// toolResult holds the result of one tool execution, ready to feed back into
// the conversation. ID carries the originating ToolUse's id so the
// assistant/user message pair built from a round's results can bear it on
// the matching ToolResult block.
type toolResult struct {
	ID     string
	Name   string
	Result string
	Error  bool
}

// truncateToolOutput truncates tool output if it exceeds maxToolOutput bytes.
func truncateToolOutput(result string) string {
	if len(result) <= maxToolOutput {
		return result
	}
	return result[:maxToolOutput] + "\n\n... (output truncated, showing first 50KB)"
}

// ToolExecutor runs model-issued tool calls against the registry, enforcing
// permissions and caching large results.
type ToolExecutor struct {
	tools       *tools.Registry
	permissions *permissions.Manager
	resultCache *ctxmgr.ToolResultCache
	parallel    *parallelExecutor
}

// NewToolExecutor creates a ToolExecutor bound to one registry/permission
// manager pair.
func NewToolExecutor(registry *tools.Registry, perms *permissions.Manager, cache *ctxmgr.ToolResultCache) *ToolExecutor {
	return &ToolExecutor{
		tools:       registry,
		permissions: perms,
		resultCache: cache,
		parallel:    newParallelExecutor(registry, defaultMaxConcurrency),
	}
}

// canParallelize returns true when every call is read-only and none of them
// overrides the fast path via AlwaysRequirePermission, making them safe to
// run concurrently without serializing on permission prompts.
func (te *ToolExecutor) canParallelize(calls []llm.ToolUse) bool {
	if len(calls) < 2 {
		return false
	}
	for _, call := range calls {
		tool, ok := te.tools.Get(call.Name)
		if !ok || tool.Permission() != tools.PermissionRead || tool.AlwaysRequirePermission() {
			return false
		}
	}
	return true
}

// Execute runs a round of tool calls, taking the read-only fast path when
// every call qualifies and falling back to sequential permission-checked
// execution otherwise.
func (te *ToolExecutor) Execute(ctx context.Context, calls []llm.ToolUse, output Output) []toolResult {
	if te.canParallelize(calls) {
		return te.executeParallel(ctx, calls, output)
	}

	results := make([]toolResult, 0, len(calls))
	for _, call := range calls {
		select {
		case <-ctx.Done():
			// Every ToolUse the model issued still needs a matching
			// ToolResult -- emit an interrupted result for this and every
			// remaining call rather than truncating the slice.
			results = append(results, toolResult{ID: call.ID, Name: call.Name, Result: "Interrupted", Error: true})
			continue
		default:
		}

		tool, ok := te.tools.Get(call.Name)
		if !ok {
			msg := fmt.Sprintf("Unknown tool: %s", call.Name)
			results = append(results, toolResult{ID: call.ID, Name: call.Name, Result: msg, Error: true})
			output.ToolResult(call.Name, msg, true)
			continue
		}

		description := formatToolDescription(call.Name, call.Input)

		allowed, err := te.permissions.Check(ctx, call.Name, tool.Permission(), tool.AlwaysRequirePermission(), call.Input, description)
		if err != nil {
			msg := fmt.Sprintf("Permission error: %s", err)
			results = append(results, toolResult{ID: call.ID, Name: call.Name, Result: msg, Error: true})
			output.ToolResult(call.Name, msg, true)
			continue
		}
		if !allowed {
			results = append(results, toolResult{ID: call.ID, Name: call.Name, Result: "Permission denied by user", Error: true})
			output.ToolResult(call.Name, "Permission denied", true)
			continue
		}

		output.ToolCall(call.Name, description)

		result, err := te.tools.Execute(ctx, call.Name, call.Input)
		if err != nil {
			results = append(results, toolResult{ID: call.ID, Name: call.Name, Result: err.Error(), Error: true})
			output.ToolResult(call.Name, err.Error(), true)
			continue
		}

		result = truncateToolOutput(result)
		contextResult := result
		if te.resultCache != nil && ctxmgr.ShouldCache(result) {
			summary, _ := te.resultCache.Store(call.Name, call.Input, result)
			contextResult = summary
		}
		results = append(results, toolResult{ID: call.ID, Name: call.Name, Result: contextResult})
		output.ToolResult(call.Name, result, false)
	}

	return results
}

// executeParallel runs every call concurrently via parallelExecutor. Called
// only when canParallelize has verified all calls are read-only.
func (te *ToolExecutor) executeParallel(ctx context.Context, calls []llm.ToolUse, output Output) []toolResult {
	for _, call := range calls {
		output.ToolCall(call.Name, formatToolDescription(call.Name, call.Input))
	}

	raw := te.parallel.run(ctx, calls)

	results := make([]toolResult, len(raw))
	for i, r := range raw {
		if r.Error {
			output.ToolResult(r.Name, r.Result, true)
			results[i] = r
			continue
		}
		display := truncateToolOutput(r.Result)
		contextResult := display
		if te.resultCache != nil && ctxmgr.ShouldCache(r.Result) {
			summary, _ := te.resultCache.Store(r.Name, calls[i].Input, r.Result)
			contextResult = summary
		}
		output.ToolResult(r.Name, display, false)
		results[i] = toolResult{ID: r.ID, Name: r.Name, Result: contextResult}
	}
	return results
}

// formatToolDescription creates a human-readable description of a tool call
// for permission prompts and tool-call announcements.
func formatToolDescription(name string, input map[string]any) string {
	getStr := func(key string, maxLen int) string {
		v, _ := input[key].(string)
		if maxLen > 0 && len(v) > maxLen {
			return v[:maxLen] + "..."
		}
		return v
	}

	switch name {
	case "read_file":
		if p := getStr("path", 0); p != "" {
			return fmt.Sprintf("Read %s", p)
		}
	case "write_file":
		if p := getStr("path", 0); p != "" {
			return fmt.Sprintf("Write to %s", p)
		}
	case "edit_file":
		if p := getStr("path", 0); p != "" {
			return fmt.Sprintf("Edit %s", p)
		}
	case "ls":
		path := "."
		if p := getStr("path", 0); p != "" {
			path = p
		}
		return fmt.Sprintf("List files in %s", path)
	case "glob":
		if p := getStr("pattern", 0); p != "" {
			return fmt.Sprintf("Glob: %s", p)
		}
	case "grep":
		if p := getStr("pattern", 60); p != "" {
			return fmt.Sprintf("Grep: %s", p)
		}
	case "bash":
		if cmd := getStr("command", 50); cmd != "" {
			return fmt.Sprintf("Run: %s", cmd)
		}
	case "batch":
		return "Run batched read-only calls"
	case "scratchpad":
		if a := getStr("action", 0); a != "" {
			return fmt.Sprintf("Scratchpad: %s", a)
		}
	case "think":
		return "Think"
	}
	return ""
}
