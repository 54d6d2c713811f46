package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/coredrift/agentcore/internal/config"
	"github.com/coredrift/agentcore/internal/logging"
)

// Message is one entry in the conversation sent to a provider: a role plus
// an ordered list of typed content blocks. A user message carrying tool
// results holds one ToolResult block per ToolUse the preceding assistant
// message issued, each bearing that ToolUse's id, so the pairing invariant
// the context window promises is visible in the data itself rather than
// reconstructed from formatted text.
type Message struct {
	Role    string // "user" | "assistant"
	Content []Block
}

// Text concatenates every text block in the message, in order. Used where a
// flat string is still convenient (session previews, token estimation).
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// TextMessage builds a single-text-block message for role (a plain user
// query, or a summary/system-style note).
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: []Block{{Type: BlockText, Text: text}}}
}

// ToolUse is the normalized shape of a model-issued tool call.
type ToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolResult is the outcome of one tool invocation, paired back to the
// ToolUse that requested it by ID.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// Block content-block type tags.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Block is one normalized content block, shared by provider responses
// (text, tool_use) and outbound messages (text, tool_use, tool_result).
type Block struct {
	Type       string // "text" | "tool_use" | "tool_result"
	Text       string
	ToolUse    *ToolUse
	ToolResult *ToolResult
}

// ToolResultMessage builds the single user message that reports back the
// outcome of every ToolUse block the prior assistant message issued, one
// ToolResult block per call, in the same order, so invariant (i) -- every
// ToolUse is followed by a same-ID ToolResult -- holds by construction.
func ToolResultMessage(results []ToolResult) Message {
	blocks := make([]Block, len(results))
	for i, r := range results {
		rc := r
		blocks[i] = Block{Type: BlockToolResult, ToolResult: &rc}
	}
	return Message{Role: "user", Content: blocks}
}

// Usage carries token accounting returned by the provider.
type Usage struct {
	TotalTokens  int
	InputTokens  int
	OutputTokens int
}

// ToolDefinition describes a tool exported to the provider (Registry.Describe output).
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Request is the outbound shape the Model Client composes from the Context
// Window plus the Registry's schema export.
type Request struct {
	Messages     []Message
	SystemPrompt string
	Tools        []ToolDefinition
	Temperature  float64
	MaxTokens    int
}

// Response is the normalized provider response: a content block vector plus
// optional usage.
type Response struct {
	Content    []Block
	Usage      *Usage
	StopReason string
}

// Text concatenates every text block in the response, in order.
func (r *Response) Text() string {
	var out string
	for _, b := range r.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns every tool_use block in the response, in order.
func (r *Response) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, b := range r.Content {
		if b.Type == BlockToolUse && b.ToolUse != nil {
			uses = append(uses, *b.ToolUse)
		}
	}
	return uses
}

// StreamChunk represents one chunk of a streamed response.
type StreamChunk struct {
	Type    string // "text", "thinking", "tool_call", "done", "error"
	Text    string
	ToolUse *ToolUse
	Error   error
}

// ModelProvider is the polymorphism point the Model Client is built against:
// a single request/response contract, plus a streaming variant for
// token-by-token console echo.
type ModelProvider interface {
	ProcessQuery(ctx context.Context, req Request) (*Response, error)
	ProcessQueryStream(ctx context.Context, req Request) <-chan StreamChunk
	SetModel(model string)
	GetModel() string
}

// AnthropicProvider implements ModelProvider over the Anthropic SDK.
type AnthropicProvider struct {
	client *anthropic.Client
	cfg    *config.Config
	model  string
}

// NewAnthropicProvider creates a new provider bound to the given configuration.
func NewAnthropicProvider(cfg *config.Config) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Provider.APIKey),
		option.WithMaxRetries(cfg.RateLimit.MaxRetries),
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.Provider.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{
		client: &client,
		cfg:    cfg,
		model:  cfg.Provider.Model,
	}
}

// SetModel changes the current model.
func (p *AnthropicProvider) SetModel(model string) {
	p.model = model
}

// GetModel returns the current model.
func (p *AnthropicProvider) GetModel() string {
	return p.model
}

// ProcessQuery sends a request and returns the normalized response.
func (p *AnthropicProvider) ProcessQuery(ctx context.Context, req Request) (*Response, error) {
	logging.Debug("ProcessQuery: sending request", logging.F("messages", len(req.Messages)), logging.F("tools", len(req.Tools)))

	params := p.buildParams(req)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		logging.Warn("ProcessQuery: provider error", logging.F("error", err.Error()))
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	logging.Debug("ProcessQuery: received response", logging.F("stop_reason", string(msg.StopReason)))
	return parseResponse(msg), nil
}

// ProcessQueryStream sends a request and streams the response chunk-by-chunk.
func (p *AnthropicProvider) ProcessQueryStream(ctx context.Context, req Request) <-chan StreamChunk {
	ch := make(chan StreamChunk, 100)

	go func() {
		defer close(ch)

		params := p.buildParams(req)
		stream := p.client.Messages.NewStreaming(ctx, params)

		var currentToolUse *ToolUse
		var toolInputJSON string

		for stream.Next() {
			event := stream.Current()

			switch e := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				switch block := e.ContentBlock.AsAny().(type) {
				case anthropic.ToolUseBlock:
					currentToolUse = &ToolUse{ID: block.ID, Name: block.Name}
					toolInputJSON = ""
				}

			case anthropic.ContentBlockDeltaEvent:
				switch delta := e.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					ch <- StreamChunk{Type: "text", Text: delta.Text}
				case anthropic.InputJSONDelta:
					toolInputJSON += delta.PartialJSON
				case anthropic.ThinkingDelta:
					ch <- StreamChunk{Type: "thinking", Text: delta.Thinking}
				}

			case anthropic.ContentBlockStopEvent:
				if currentToolUse != nil {
					input, err := parseToolInput(toolInputJSON)
					if err != nil {
						ch <- StreamChunk{Type: "error", Error: fmt.Errorf("failed to parse tool input: %w", err)}
					} else {
						currentToolUse.Input = input
						ch <- StreamChunk{Type: "tool_call", ToolUse: currentToolUse}
					}
					currentToolUse = nil
					toolInputJSON = ""
				}

			case anthropic.MessageStopEvent:
				ch <- StreamChunk{Type: "done"}
			}
		}

		if err := stream.Err(); err != nil {
			logging.Warn("ProcessQueryStream: stream error", logging.F("error", err.Error()))
			ch <- StreamChunk{Type: "error", Error: err}
		}
	}()

	return ch
}

func (p *AnthropicProvider) buildParams(req Request) anthropic.MessageNewParams {
	var apiMessages []anthropic.MessageParam
	for _, msg := range req.Messages {
		var content []anthropic.ContentBlockParamUnion
		for _, b := range msg.Content {
			switch b.Type {
			case BlockText:
				content = append(content, anthropic.NewTextBlock(b.Text))
			case BlockToolUse:
				if b.ToolUse != nil {
					content = append(content, anthropic.NewToolUseBlock(b.ToolUse.ID, b.ToolUse.Input, b.ToolUse.Name))
				}
			case BlockToolResult:
				if b.ToolResult != nil {
					content = append(content, anthropic.NewToolResultBlock(b.ToolResult.ToolUseID, b.ToolResult.Content, b.ToolResult.IsError))
				}
			}
		}

		if msg.Role == "assistant" {
			apiMessages = append(apiMessages, anthropic.NewAssistantMessage(content...))
		} else {
			apiMessages = append(apiMessages, anthropic.NewUserMessage(content...))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages:  apiMessages,
	}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.SystemPrompt}}
	}

	if len(req.Tools) > 0 {
		var apiTools []anthropic.ToolUnionParam
		for _, tool := range req.Tools {
			schema := buildInputSchema(tool.InputSchema)
			toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)
			toolParam.OfTool.Description = anthropic.String(tool.Description)
			apiTools = append(apiTools, toolParam)
		}
		params.Tools = apiTools
	}

	return params
}

func parseResponse(msg *anthropic.Message) *Response {
	resp := &Response{StopReason: string(msg.StopReason)}

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = append(resp.Content, Block{Type: BlockText, Text: b.Text})
		case anthropic.ToolUseBlock:
			var input map[string]any
			if err := json.Unmarshal(b.Input, &input); err != nil {
				logging.Warn("parseResponse: failed to parse tool input", logging.F("tool", b.Name), logging.F("error", err.Error()))
				input = make(map[string]any)
			}
			resp.Content = append(resp.Content, Block{
				Type:    BlockToolUse,
				ToolUse: &ToolUse{ID: b.ID, Name: b.Name, Input: input},
			})
		}
	}

	if msg.Usage.InputTokens != 0 || msg.Usage.OutputTokens != 0 {
		resp.Usage = &Usage{
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		}
	}

	return resp
}

func parseToolInput(jsonStr string) (map[string]any, error) {
	if jsonStr == "" || jsonStr == "{}" {
		return map[string]any{}, nil
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// buildInputSchema converts a tool's schema map to the SDK's ToolInputSchemaParam.
func buildInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	result := anthropic.ToolInputSchemaParam{}

	if props, ok := schema["properties"].(map[string]any); ok {
		result.Properties = props
	}

	if req, ok := schema["required"]; ok {
		result.ExtraFields = map[string]interface{}{"required": req}
	}

	return result
}
