package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// BatchMaxFanout is the default cap on sub-calls per batch invocation,
// matching config.ToolsConfig.BatchMaxFanout's default.
const BatchMaxFanout = 8

// BatchTool fans a set of read-only sub-calls out to other registered
// tools concurrently, modeled on agent/parallel.go's parallelExecutor and
// narrowed to PermissionRead tools so no sub-call needs a permission prompt
// of its own. The batch call itself always prompts (see
// AlwaysRequirePermission).
type BatchTool struct {
	Registry   *Registry
	MaxFanout  int
}

func (t *BatchTool) Name() string {
	return "batch"
}

func (t *BatchTool) Description() string {
	return "Run multiple read-only tool calls concurrently and collect their results. Only tools with read permission may be batched; writes and shell execution must go through their own call so permissions are checked individually."
}

func (t *BatchTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"calls": map[string]any{
				"type":        "array",
				"description": "The sub-calls to run concurrently.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":  map[string]any{"type": "string", "description": "Tool name."},
						"input": map[string]any{"type": "object", "description": "Tool input."},
					},
					"required": []string{"name", "input"},
				},
			},
		},
		"required": []string{"calls"},
	}
}

func (t *BatchTool) Permission() PermissionLevel {
	return PermissionRead
}

// AlwaysRequirePermission is true for Batch even though its nominal
// Permission() is read-only: without this the Manager's read-only fast path
// would let a batch call skip prompting regardless of mode, including
// Interactive, defeating the per-tool gating its sub-calls would otherwise
// get individually.
func (t *BatchTool) AlwaysRequirePermission() bool {
	return true
}

type batchCall struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

type batchResult struct {
	Name   string `json:"name"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (t *BatchTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	rawCalls, ok := input["calls"].([]any)
	if !ok || len(rawCalls) == 0 {
		return "", fmt.Errorf("calls is required and must be a non-empty array")
	}

	maxFanout := t.MaxFanout
	if maxFanout <= 0 {
		maxFanout = BatchMaxFanout
	}
	if len(rawCalls) > maxFanout {
		return "", fmt.Errorf("batch requests %d calls, exceeds max fanout of %d", len(rawCalls), maxFanout)
	}

	calls := make([]batchCall, len(rawCalls))
	for i, raw := range rawCalls {
		m, ok := raw.(map[string]any)
		if !ok {
			return "", fmt.Errorf("calls[%d] must be an object", i)
		}
		name, _ := m["name"].(string)
		if name == "" {
			return "", fmt.Errorf("calls[%d].name is required", i)
		}
		callInput, _ := m["input"].(map[string]any)

		tool, ok := t.Registry.Get(name)
		if !ok {
			return "", fmt.Errorf("calls[%d]: unknown tool %q", i, name)
		}
		if tool.Permission() != PermissionRead {
			return "", fmt.Errorf("calls[%d]: tool %q is not read-only and cannot be batched", i, name)
		}
		calls[i] = batchCall{Name: name, Input: callInput}
	}

	results := make([]batchResult, len(calls))
	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func(idx int, call batchCall) {
			defer wg.Done()
			out, err := t.Registry.Execute(ctx, call.Name, call.Input)
			if err != nil {
				results[idx] = batchResult{Name: call.Name, Error: err.Error()}
				return
			}
			results[idx] = batchResult{Name: call.Name, Result: out}
		}(i, c)
	}
	wg.Wait()

	var sb strings.Builder
	for _, r := range results {
		enc, _ := json.Marshal(r)
		sb.Write(enc)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
