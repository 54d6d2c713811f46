package context

import (
	"context"
	"fmt"
	"strings"

	"github.com/coredrift/agentcore/internal/llm"
)

const compactionPrompt = `You are summarizing a conversation to preserve context while reducing token usage. Create a concise summary that captures:

1. Key decisions and conclusions reached
2. Important code changes or files discussed (with specific paths and line numbers if mentioned)
3. Critical technical context (paths, functions, errors, configurations)
4. Current task state and any pending actions
5. User preferences or requirements mentioned

Format your summary as clear bullet points. Preserve critical code snippets verbatim if they are essential for context.
Keep the summary focused and factual - avoid unnecessary elaboration.

%s

CONVERSATION TO SUMMARIZE:
%s`

// CompactRequest contains parameters for compaction
type CompactRequest struct {
	Messages     []llm.Message
	FocusPrompt  string // Optional: "preserve code samples", "keep file paths", etc.
	PreserveLast int    // Keep last N messages verbatim
}

// CompactResult contains the result of compaction
type CompactResult struct {
	Summary            string
	PreservedMsgs       []llm.Message
	OriginalTokens      int
	SummaryTokens       int
	TokensSaved         int
	MessagesSummarized  int
}

// Compactor compresses conversation history by asking the model for a summary.
type Compactor struct {
	provider llm.ModelProvider
}

// NewCompactor creates a new compactor bound to a model provider.
func NewCompactor(provider llm.ModelProvider) *Compactor {
	return &Compactor{provider: provider}
}

// Compact compresses a conversation history into a summary.
func (c *Compactor) Compact(ctx context.Context, req CompactRequest) (*CompactResult, error) {
	if len(req.Messages) == 0 {
		return &CompactResult{PreservedMsgs: []llm.Message{}}, nil
	}

	preserveCount := min(len(req.Messages), max(0, req.PreserveLast))

	splitPoint := len(req.Messages) - preserveCount
	toSummarize := req.Messages[:splitPoint]
	toPreserve := make([]llm.Message, preserveCount)
	if preserveCount > 0 {
		copy(toPreserve, req.Messages[splitPoint:])
	}

	if len(toSummarize) == 0 {
		return &CompactResult{
			PreservedMsgs:  toPreserve,
			OriginalTokens: calculateTokens(req.Messages),
		}, nil
	}

	originalTokens := calculateTokens(toSummarize)
	conversationText := formatConversationForSummary(toSummarize)

	focusInstruction := ""
	if req.FocusPrompt != "" {
		focusInstruction = fmt.Sprintf("SPECIAL FOCUS: %s\n", req.FocusPrompt)
	}

	prompt := fmt.Sprintf(compactionPrompt, focusInstruction, conversationText)

	resp, err := c.provider.ProcessQuery(ctx, llm.Request{
		Messages:     []llm.Message{llm.TextMessage("user", prompt)},
		SystemPrompt: "You are a helpful assistant that creates concise, accurate summaries.",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary: %w", err)
	}

	summary := strings.TrimSpace(resp.Text())
	summaryTokens := estimateTokens(summary)
	preservedTokens := calculateTokens(toPreserve)

	return &CompactResult{
		Summary:            summary,
		PreservedMsgs:      toPreserve,
		OriginalTokens:     originalTokens + preservedTokens,
		SummaryTokens:      summaryTokens + preservedTokens,
		TokensSaved:        originalTokens - summaryTokens,
		MessagesSummarized: len(toSummarize),
	}, nil
}

// formatConversationForSummary formats messages into a readable conversation format
func formatConversationForSummary(messages []llm.Message) string {
	var b strings.Builder

	for i, msg := range messages {
		role := msg.Role
		if len(role) > 0 {
			role = strings.ToUpper(role[:1]) + role[1:]
		}
		content := renderMessageForSummary(msg)
		if len(content) > 5000 {
			content = content[:5000] + "\n[... truncated for summarization ...]"
		}
		fmt.Fprintf(&b, "[%d] %s:\n%s\n\n", i+1, role, content)
	}

	return b.String()
}

// renderMessageForSummary flattens a message's typed blocks into readable
// text for the summarization prompt: text verbatim, a tool call as its
// name and arguments, a tool result as its content (flagged if it errored).
func renderMessageForSummary(msg llm.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case llm.BlockText:
			b.WriteString(block.Text)
		case llm.BlockToolUse:
			if block.ToolUse != nil {
				fmt.Fprintf(&b, "[called %s]", block.ToolUse.Name)
			}
		case llm.BlockToolResult:
			if block.ToolResult != nil {
				if block.ToolResult.IsError {
					b.WriteString("[tool error] ")
				}
				b.WriteString(block.ToolResult.Content)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// calculateTokens estimates total tokens for a slice of messages
func calculateTokens(messages []llm.Message) int {
	total := 0
	for _, msg := range messages {
		total += estimateMessageTokens(msg)
		total += 10 // Message structure overhead
	}
	return total
}
