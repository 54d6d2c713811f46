// Package agent implements the round-bounded tool-use loop: send the
// conversation to a model provider, dispatch any tool calls it asks for,
// feed the results back, and repeat until the model stops asking for tools,
// the round cap is hit, or the caller cancels.
package agent

import (
	"context"
	"fmt"

	ctxmgr "github.com/coredrift/agentcore/internal/context"
	coreerr "github.com/coredrift/agentcore/internal/errors"
	"github.com/coredrift/agentcore/internal/llm"
	"github.com/coredrift/agentcore/internal/session"
	"github.com/coredrift/agentcore/internal/tools"
)

// Result is what one ProcessQuery call returns: the model's final text plus
// the usage of the last round, for callers that want to display it.
type Result struct {
	Text         string
	Rounds       int
	InputTokens  int64
	OutputTokens int64
}

// Agent is a reusable, stateless loop runner: its provider, tool registry,
// and round cap are fixed at construction. Per-conversation mutable state
// (history, read set, permissions, calibrator) lives in session.State and is
// passed into ProcessQuery.
type Agent struct {
	provider  llm.ModelProvider
	tools     *tools.Registry
	maxRounds int
	temp      float64
	maxTokens int
}

// Config holds the construction-time parameters for an Agent.
type Config struct {
	MaxRounds   int
	Temperature float64
	MaxTokens   int
}

// New creates an Agent bound to one provider and tool registry.
func New(provider llm.ModelProvider, registry *tools.Registry, cfg Config) *Agent {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 64
	}
	return &Agent{
		provider:  provider,
		tools:     registry,
		maxRounds: maxRounds,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}
}

// consecutiveParseErrorLimit stops the loop if the provider keeps returning
// malformed tool-call JSON instead of making progress.
const consecutiveParseErrorLimit = 3

// ProcessQuery appends query to the session's context, then runs the
// tool-use loop until the model produces a final answer with no further
// tool calls, the round cap is reached, or ctx is cancelled.
func (a *Agent) ProcessQuery(ctx context.Context, query string, state *session.State, output Output, input Input) (*Result, error) {
	state.Context.AddMessage(llm.TextMessage("user", query))
	state.Permissions.ResetInvocation()

	executor := NewToolExecutor(a.tools, state.Permissions, nil)

	var (
		lastText        string
		parseErrorStreak int
		lastUsage       llm.Usage
	)

	for round := 1; round <= a.maxRounds; round++ {
		select {
		case <-ctx.Done():
			return nil, coreerr.Cancelled()
		default:
		}

		resp, err := a.runOneRound(ctx, state, output)
		if err != nil {
			if err == errParseBudgetExceeded {
				parseErrorStreak++
				if parseErrorStreak >= consecutiveParseErrorLimit {
					return nil, coreerr.ProviderRequestFailed(fmt.Errorf("model returned %d consecutive malformed tool calls", parseErrorStreak))
				}
				continue
			}
			return nil, coreerr.ProviderRequestFailed(err)
		}
		parseErrorStreak = 0

		if resp.Usage != nil {
			lastUsage = *resp.Usage
		}

		text := resp.Text()
		if text != "" {
			lastText = text
			output.Text(text)
		}

		calls := resp.ToolUses()
		if len(calls) == 0 {
			// No ToolUse blocks this round: append the assistant turn
			// verbatim (it's pure text) and terminate the loop.
			state.Context.AddMessage(llm.Message{Role: "assistant", Content: resp.Content})
			return &Result{
				Text:         lastText,
				Rounds:       round,
				InputTokens:  int64(lastUsage.InputTokens),
				OutputTokens: int64(lastUsage.OutputTokens),
			}, nil
		}

		// Append the assistant message exactly as the provider returned it,
		// text and tool_use blocks together, so every ToolUse block that
		// follows has a stable id the next message's ToolResult blocks can
		// reference.
		state.Context.AddMessage(llm.Message{Role: "assistant", Content: resp.Content})

		results := executor.Execute(ctx, calls, output)
		state.Context.AddMessage(llm.ToolResultMessage(toToolResults(results)))

		if err := a.maybeCompact(ctx, state, output); err != nil {
			output.Warning(fmt.Sprintf("context compaction failed: %s", err))
		}
	}

	return nil, coreerr.RoundLimitReached(a.maxRounds)
}

var errParseBudgetExceeded = fmt.Errorf("tool call parse error")

// runOneRound sends the current context to the provider via the streaming
// API (so output can echo tokens as they arrive) and assembles a Response
// from the accumulated chunks.
func (a *Agent) runOneRound(ctx context.Context, state *session.State, output Output) (*llm.Response, error) {
	req := llm.Request{
		Messages:     state.Context.GetMessagesWithMasking(),
		SystemPrompt: "",
		Tools:        toolDefinitions(a.tools.GetDefinitions()),
		Temperature:  a.temp,
		MaxTokens:    a.maxTokens,
	}

	ch := a.provider.ProcessQueryStream(ctx, req)

	resp := &llm.Response{}
	var textBlock string

	for chunk := range ch {
		switch chunk.Type {
		case "text":
			textBlock += chunk.Text
			output.StreamText(chunk.Text)
		case "thinking":
			output.StreamThinking(chunk.Text)
		case "tool_call":
			if textBlock != "" {
				resp.Content = append(resp.Content, llm.Block{Type: llm.BlockText, Text: textBlock})
				textBlock = ""
			}
			resp.Content = append(resp.Content, llm.Block{Type: llm.BlockToolUse, ToolUse: chunk.ToolUse})
		case "error":
			return nil, errParseBudgetExceeded
		case "done":
			output.StreamDone()
		}
	}

	if textBlock != "" {
		resp.Content = append(resp.Content, llm.Block{Type: llm.BlockText, Text: textBlock})
	}

	return resp, nil
}

// maybeCompact runs a summarizing compaction pass when the context window is
// past its auto-compact threshold.
func (a *Agent) maybeCompact(ctx context.Context, state *session.State, output Output) error {
	if !state.Context.ShouldCompact() {
		if state.Context.ShouldWarn() && !state.ShownContextWarning() {
			output.Warning("context window is getting full; consider starting a fresh session soon")
			state.MarkContextWarningShown()
		}
		return nil
	}

	compactor := ctxmgr.NewCompactor(a.provider)
	req := ctxmgr.CompactRequest{
		Messages:     state.Context.GetMessages(),
		PreserveLast: state.Context.GetPreserveLast(),
	}
	result, err := compactor.Compact(ctx, req)
	if err != nil {
		return err
	}

	state.Context.ReplaceWithSummary(result.Summary, result.PreservedMsgs)
	state.ResetContextWarning()
	output.Warning(fmt.Sprintf("compacted conversation: saved ~%d tokens across %d messages", result.TokensSaved, result.MessagesSummarized))
	return nil
}

// toolDefinitions adapts the tool registry's wire shape to the llm
// package's, which is otherwise identical but a distinct type to keep
// internal/tools free of an internal/llm import.
func toolDefinitions(defs []tools.ToolDefinition) []llm.ToolDefinition {
	out := make([]llm.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = llm.ToolDefinition{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema}
	}
	return out
}

// toToolResults converts the executor's internal toolResult slice into the
// id-bearing llm.ToolResult blocks the context window and provider need,
// one per ToolUse in the same order, so invariant (i) -- every ToolUse
// followed by a same-id ToolResult -- holds in the data itself.
func toToolResults(results []toolResult) []llm.ToolResult {
	out := make([]llm.ToolResult, len(results))
	for i, r := range results {
		out[i] = llm.ToolResult{ToolUseID: r.ID, Content: r.Result, IsError: r.Error}
	}
	return out
}
