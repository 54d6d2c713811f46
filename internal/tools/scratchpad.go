package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ScratchpadTool is an in-memory note store scoped to one agent run: no
// external process, no persistence across runs. The notes live for exactly
// as long as the Runner that owns the Scratchpad.
type ScratchpadTool struct {
	mu    sync.Mutex
	notes map[string]string
}

// NewScratchpadTool creates an empty scratchpad.
func NewScratchpadTool() *ScratchpadTool {
	return &ScratchpadTool{notes: make(map[string]string)}
}

func (t *ScratchpadTool) Name() string {
	return "scratchpad"
}

func (t *ScratchpadTool) Description() string {
	return "Store or recall short notes for this run: a key-value scratchpad for intermediate findings, plans, or reminders that would otherwise be lost between rounds. Notes do not persist past this run."
}

func (t *ScratchpadTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"description": "'create' to start an empty note, 'write' to overwrite one, 'append' to add to the end, 'read' to recall it, 'list' to see all keys, 'delete' to remove one, 'clear' to remove all, 'replace' to substitute one unique occurrence of old_text with new_text, 'search' to find keys whose content matches a pattern.",
				"enum":        []string{"create", "write", "append", "read", "list", "delete", "clear", "replace", "search"},
			},
			"key": map[string]any{
				"type":        "string",
				"description": "Note key. Required for create, write, append, read, delete, replace.",
			},
			"value": map[string]any{
				"type":        "string",
				"description": "Note content. Required for write; appended for append.",
			},
			"old_text": map[string]any{
				"type":        "string",
				"description": "Text to replace. Required for replace. Must match exactly once in the note.",
			},
			"new_text": map[string]any{
				"type":        "string",
				"description": "Replacement text. Required for replace.",
			},
			"pattern": map[string]any{
				"type":        "string",
				"description": "Substring to search for across all notes. Required for search.",
			},
		},
		"required": []string{"action"},
	}
}

func (t *ScratchpadTool) Permission() PermissionLevel {
	return PermissionRead
}

func (t *ScratchpadTool) AlwaysRequirePermission() bool {
	return false
}

func (t *ScratchpadTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	action, _ := input["action"].(string)

	t.mu.Lock()
	defer t.mu.Unlock()

	switch action {
	case "create":
		key, _ := input["key"].(string)
		if key == "" {
			return "", fmt.Errorf("key is required for create")
		}
		if _, exists := t.notes[key]; exists {
			return "", fmt.Errorf("note %q already exists", key)
		}
		t.notes[key] = ""
		return fmt.Sprintf("Created note %q", key), nil

	case "write":
		key, _ := input["key"].(string)
		value, _ := input["value"].(string)
		if key == "" {
			return "", fmt.Errorf("key is required for write")
		}
		t.notes[key] = value
		return fmt.Sprintf("Stored note %q (%d bytes)", key, len(value)), nil

	case "append":
		key, _ := input["key"].(string)
		value, _ := input["value"].(string)
		if key == "" {
			return "", fmt.Errorf("key is required for append")
		}
		t.notes[key] = t.notes[key] + value
		return fmt.Sprintf("Appended %d bytes to note %q (%d bytes total)", len(value), key, len(t.notes[key])), nil

	case "read":
		key, _ := input["key"].(string)
		if key == "" {
			return "", fmt.Errorf("key is required for read")
		}
		value, ok := t.notes[key]
		if !ok {
			return "", fmt.Errorf("no note found for key %q", key)
		}
		return value, nil

	case "list":
		if len(t.notes) == 0 {
			return "(no notes)", nil
		}
		keys := make([]string, 0, len(t.notes))
		for k := range t.notes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, "\n"), nil

	case "delete":
		key, _ := input["key"].(string)
		if key == "" {
			return "", fmt.Errorf("key is required for delete")
		}
		delete(t.notes, key)
		return fmt.Sprintf("Deleted note %q", key), nil

	case "clear":
		n := len(t.notes)
		t.notes = make(map[string]string)
		return fmt.Sprintf("Cleared %d note(s)", n), nil

	case "replace":
		key, _ := input["key"].(string)
		oldText, _ := input["old_text"].(string)
		newText, _ := input["new_text"].(string)
		if key == "" {
			return "", fmt.Errorf("key is required for replace")
		}
		if oldText == "" {
			return "", fmt.Errorf("old_text is required for replace")
		}
		value, ok := t.notes[key]
		if !ok {
			return "", fmt.Errorf("no note found for key %q", key)
		}
		count := strings.Count(value, oldText)
		if count == 0 {
			return "", fmt.Errorf("old_text not found in note %q", key)
		}
		if count > 1 {
			return "", fmt.Errorf("old_text found %d times in note %q, must be unique; provide more context", count, key)
		}
		t.notes[key] = strings.Replace(value, oldText, newText, 1)
		return fmt.Sprintf("Replaced 1 occurrence in note %q", key), nil

	case "search":
		pattern, _ := input["pattern"].(string)
		if pattern == "" {
			return "", fmt.Errorf("pattern is required for search")
		}
		var matches []string
		for k, v := range t.notes {
			if strings.Contains(v, pattern) || strings.Contains(k, pattern) {
				matches = append(matches, k)
			}
		}
		if len(matches) == 0 {
			return "(no matches)", nil
		}
		sort.Strings(matches)
		return strings.Join(matches, "\n"), nil

	default:
		return "", fmt.Errorf("unknown action %q, expected create/write/append/read/list/delete/clear/replace/search", action)
	}
}
