package tools

import "context"

// ThinkTool is a pure echo: it takes no action and has no side effects. Its
// only purpose is to give the model a place to reason explicitly about a
// plan before committing to tool calls that mutate state, at the cost of
// one round trip.
type ThinkTool struct{}

func (t *ThinkTool) Name() string {
	return "think"
}

func (t *ThinkTool) Description() string {
	return "Use this tool to think out loud about a plan before acting, without taking any action. The thought is recorded and echoed back; nothing else happens."
}

func (t *ThinkTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"thought": map[string]any{
				"type":        "string",
				"description": "The reasoning to record.",
			},
		},
		"required": []string{"thought"},
	}
}

func (t *ThinkTool) Permission() PermissionLevel {
	return PermissionRead
}

func (t *ThinkTool) AlwaysRequirePermission() bool {
	return false
}

func (t *ThinkTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	thought, _ := input["thought"].(string)
	return thought, nil
}
