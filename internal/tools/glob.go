package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coredrift/agentcore/internal/adapter"
)

// Globber is the narrow slice of adapter.Adapter that GlobTool depends on.
type Globber interface {
	Glob(ctx context.Context, root string, pattern string) ([]adapter.DirEntry, error)
}

// GlobTool matches files by shell glob pattern, with a recursive "**"
// expander on top of path/filepath.Glob (which has no "**" support of its
// own). Adapted from file.go's ListFilesTool directory walk, generalized
// from single-directory filepath.Match to full glob syntax.
type GlobTool struct {
	// Adapter, when set, is used instead of this tool's own direct
	// filepath.Walk path. See ReadFileTool.Adapter.
	Adapter Globber
}

func (t *GlobTool) Name() string {
	return "glob"
}

func (t *GlobTool) Description() string {
	return "Find files matching a glob pattern (supports *, ?, character classes, and ** for recursive matching). Results are sorted and capped."
}

func (t *GlobTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "Glob pattern, e.g. '**/*.go' or 'cmd/*/main.go'.",
			},
			"root": map[string]any{
				"type":        "string",
				"description": "Directory to search from (default: current directory).",
				"default":     ".",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Maximum matches to return (default and hard cap: 100).",
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *GlobTool) Permission() PermissionLevel {
	return PermissionRead
}

func (t *GlobTool) AlwaysRequirePermission() bool {
	return false
}

// GlobResultCap bounds the number of matches returned from a single glob
// call, matching the adapter's result cap.
const GlobResultCap = 100

func (t *GlobTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	pattern, ok := input["pattern"].(string)
	if !ok || pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}

	root := "."
	if r, ok := input["root"].(string); ok && r != "" {
		root = r
	}

	cap := GlobResultCap
	if mr, ok := input["max_results"].(float64); ok && mr > 0 && int(mr) < cap {
		cap = int(mr)
	}

	rel, err := t.match(ctx, root, pattern)
	if err != nil {
		return "", err
	}
	sort.Strings(rel)

	hasMore := len(rel) > cap
	if hasMore {
		rel = rel[:cap]
	}

	return marshalResult(GlobResult{Matches: rel, Count: len(rel), HasMore: hasMore})
}

// match resolves matching paths through the configured Adapter, or, when
// none is set, this tool's own direct filepath.Walk path.
func (t *GlobTool) match(ctx context.Context, root, pattern string) ([]string, error) {
	if t.Adapter != nil {
		entries, err := t.Adapter.Glob(ctx, root, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		rel := make([]string, 0, len(entries))
		for _, e := range entries {
			rel = append(rel, e.Path)
		}
		return rel, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	if err := ValidatePath(absRoot); err != nil {
		return nil, err
	}

	var matches []string
	if strings.Contains(pattern, "**") {
		matches, err = globRecursive(absRoot, pattern)
	} else {
		matches, err = filepath.Glob(filepath.Join(absRoot, pattern))
	}
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	rel := make([]string, 0, len(matches))
	for _, m := range matches {
		r, err := filepath.Rel(absRoot, m)
		if err != nil {
			r = m
		}
		rel = append(rel, r)
	}
	return rel, nil
}

// globRecursive expands a single "**" segment into a directory walk,
// applying the remaining pattern at every depth.
func globRecursive(root, pattern string) ([]string, error) {
	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], string(filepath.Separator))
	suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

	walkRoot := root
	if prefix != "" {
		walkRoot = filepath.Join(root, prefix)
	}

	var matches []string
	err := filepath.Walk(walkRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() && strings.HasPrefix(info.Name(), ".") && p != walkRoot {
			return filepath.SkipDir
		}
		if info.IsDir() {
			return nil
		}
		if suffix == "" {
			matches = append(matches, p)
			return nil
		}
		ok, _ := filepath.Match(suffix, info.Name())
		if ok {
			matches = append(matches, p)
		}
		return nil
	})
	return matches, err
}
