package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/coredrift/agentcore/internal/config"
	ctxmgr "github.com/coredrift/agentcore/internal/context"
	"github.com/coredrift/agentcore/internal/llm"
	"github.com/coredrift/agentcore/internal/session"
	"github.com/coredrift/agentcore/internal/tools"
)

// fakeProvider replays a fixed script of responses, one per call to
// ProcessQueryStream, ignoring the request contents.
type fakeProvider struct {
	script []llm.Response
	calls  int
	model  string
}

func (f *fakeProvider) ProcessQuery(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return nil, errors.New("not used by the streaming runner")
}

func (f *fakeProvider) ProcessQueryStream(ctx context.Context, req llm.Request) <-chan llm.StreamChunk {
	ch := make(chan llm.StreamChunk, 16)
	go func() {
		defer close(ch)
		if f.calls >= len(f.script) {
			ch <- llm.StreamChunk{Type: "done"}
			return
		}
		resp := f.script[f.calls]
		f.calls++
		for _, b := range resp.Content {
			switch b.Type {
			case "text":
				ch <- llm.StreamChunk{Type: "text", Text: b.Text}
			case "tool_use":
				ch <- llm.StreamChunk{Type: "tool_call", ToolUse: b.ToolUse}
			}
		}
		ch <- llm.StreamChunk{Type: "done"}
	}()
	return ch
}

func (f *fakeProvider) SetModel(model string) { f.model = model }
func (f *fakeProvider) GetModel() string      { return f.model }

type fakeInput struct{}

func (fakeInput) ReadLine(string) (string, error) { return "", nil }

type recordingOutput struct {
	texts []string
	tools []string
}

func (o *recordingOutput) StreamText(string)               {}
func (o *recordingOutput) StreamThinking(string)            {}
func (o *recordingOutput) StreamDone()                      {}
func (o *recordingOutput) StreamDoneWithUsage(int64, int64) {}
func (o *recordingOutput) Text(text string)                 { o.texts = append(o.texts, text) }
func (o *recordingOutput) Error(error)                      {}
func (o *recordingOutput) Warning(string)                   {}
func (o *recordingOutput) ToolCall(name, description string) { o.tools = append(o.tools, name) }
func (o *recordingOutput) ToolResult(string, string, bool)  {}
func (o *recordingOutput) PermissionPrompt(string, tools.PermissionLevel, string) {}

func newTestState() *session.State {
	return session.New("test-model", "system", ctxmgr.DefaultContextConfig(), config.ModeDanger, fakeInput{}, &recordingOutput{})
}

func TestProcessQuery_StopsWhenNoToolCalls(t *testing.T) {
	provider := &fakeProvider{script: []llm.Response{
		{Content: []llm.Block{{Type: "text", Text: "all done"}}},
	}}
	registry := tools.NewRegistry()
	a := New(provider, registry, Config{MaxRounds: 4})

	state := newTestState()
	out := &recordingOutput{}

	result, err := a.ProcessQuery(context.Background(), "hello", state, out, fakeInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "all done" {
		t.Errorf("Text = %q, want %q", result.Text, "all done")
	}
	if result.Rounds != 1 {
		t.Errorf("Rounds = %d, want 1", result.Rounds)
	}
}

func TestProcessQuery_DispatchesToolCallsThenStops(t *testing.T) {
	provider := &fakeProvider{script: []llm.Response{
		{Content: []llm.Block{{Type: "tool_use", ToolUse: &llm.ToolUse{ID: "1", Name: "think", Input: map[string]any{"thought": "hmm"}}}}},
		{Content: []llm.Block{{Type: "text", Text: "finished"}}},
	}}
	registry := tools.NewRegistry()
	registry.Register(&tools.ThinkTool{})
	a := New(provider, registry, Config{MaxRounds: 4})

	state := newTestState()
	out := &recordingOutput{}

	result, err := a.ProcessQuery(context.Background(), "think about it", state, out, fakeInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rounds != 2 {
		t.Errorf("Rounds = %d, want 2", result.Rounds)
	}
	if len(out.tools) != 1 || out.tools[0] != "think" {
		t.Errorf("expected one think tool call recorded, got %v", out.tools)
	}
}

func TestProcessQuery_RoundLimitReached(t *testing.T) {
	toolUse := llm.Block{Type: "tool_use", ToolUse: &llm.ToolUse{ID: "1", Name: "think", Input: map[string]any{"thought": "again"}}}
	provider := &fakeProvider{script: []llm.Response{
		{Content: []llm.Block{toolUse}},
		{Content: []llm.Block{toolUse}},
		{Content: []llm.Block{toolUse}},
	}}
	registry := tools.NewRegistry()
	registry.Register(&tools.ThinkTool{})
	a := New(provider, registry, Config{MaxRounds: 3})

	state := newTestState()
	out := &recordingOutput{}

	_, err := a.ProcessQuery(context.Background(), "loop forever", state, out, fakeInput{})
	if err == nil {
		t.Fatal("expected round-limit error")
	}
}

func TestProcessQuery_CancelledContext(t *testing.T) {
	provider := &fakeProvider{script: []llm.Response{
		{Content: []llm.Block{{Type: "text", Text: "unreachable"}}},
	}}
	registry := tools.NewRegistry()
	a := New(provider, registry, Config{MaxRounds: 4})

	state := newTestState()
	out := &recordingOutput{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.ProcessQuery(ctx, "hello", state, out, fakeInput{})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
