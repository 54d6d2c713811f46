package context

import (
	"fmt"
	"strings"

	"github.com/coredrift/agentcore/internal/llm"
)

// DefaultPreserveRecent is the number of recent tool results to keep unmasked.
const DefaultPreserveRecent = 4

// MaskOldToolResults replaces old tool_result block content with a short
// summary to reduce context usage, leaving the block's ID and IsError
// intact so the use/result pairing survives masking. The last
// `preserveRecent` tool results (counted across the whole transcript, not
// per-message, since one round's results all land in a single message) are
// kept verbatim.
func MaskOldToolResults(messages []llm.Message, preserveRecent int) []llm.Message {
	if preserveRecent <= 0 {
		preserveRecent = DefaultPreserveRecent
	}

	total := 0
	for _, msg := range messages {
		for _, b := range msg.Content {
			if b.Type == llm.BlockToolResult {
				total++
			}
		}
	}
	if total <= preserveRecent {
		return messages
	}
	maskBudget := total - preserveRecent

	result := make([]llm.Message, len(messages))
	for i, msg := range messages {
		if !isToolResultMessage(msg) || maskBudget <= 0 {
			result[i] = msg
			continue
		}

		content := make([]llm.Block, len(msg.Content))
		for j, b := range msg.Content {
			if b.Type != llm.BlockToolResult || maskBudget <= 0 {
				content[j] = b
				continue
			}
			masked := *b.ToolResult
			masked.Content = maskContent(masked.Content)
			content[j] = llm.Block{Type: llm.BlockToolResult, ToolResult: &masked}
			maskBudget--
		}
		result[i] = llm.Message{Role: msg.Role, Content: content}
	}

	return result
}

// maskContent creates a short masked summary of tool output.
func maskContent(content string) string {
	lines := strings.Count(content, "\n") + 1
	preview := content
	if idx := strings.IndexByte(content, '\n'); idx > 0 {
		preview = content[:idx]
	}
	if len(preview) > 80 {
		preview = preview[:77] + "..."
	}
	return fmt.Sprintf("[Masked: %d lines, preview: %s]", lines, preview)
}
