package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coredrift/agentcore/internal/adapter"
)

// ReadSetTracker records which absolute paths have been read this session,
// so edit_file can enforce read-before-edit. The agent wires a concrete
// implementation (backed by the context window) into ReadTracker at startup.
type ReadSetTracker interface {
	MarkRead(absPath string)
	WasRead(absPath string) bool
}

// ReadTracker is nil in tests and standalone tool use, which disables the
// read-before-edit check rather than panicking.
var ReadTracker ReadSetTracker

// FileReader is the narrow slice of adapter.Adapter that ReadFileTool
// depends on; any adapter implementation satisfies it directly.
type FileReader interface {
	ReadFile(ctx context.Context, path string, maxBytes int) (string, error)
}

// ReadFileTool reads file contents
type ReadFileTool struct {
	// Adapter, when set, is used instead of this tool's own direct os.ReadFile
	// path. RegisterBuiltins wires in the configured backend (Local, Container,
	// or Remote); tests and standalone use leave it nil and fall back to the
	// legacy inline path below.
	Adapter FileReader
}

func (t *ReadFileTool) Name() string {
	return "read_file"
}

func (t *ReadFileTool) Description() string {
	return "Read the contents of a file. Use this to examine code, configuration files, or any text file. Large files are automatically chunked to save tokens."
}

func (t *ReadFileTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The path to the file to read (relative or absolute).",
			},
			"start_line": map[string]any{
				"type":        "integer",
				"description": "Optional: Start reading from this line number (1-indexed).",
			},
			"end_line": map[string]any{
				"type":        "integer",
				"description": "Optional: Stop reading at this line number (inclusive).",
			},
			"max_tokens": map[string]any{
				"type":        "integer",
				"description": "Optional: Maximum tokens to return (default: 2000, set to 0 for unlimited, hard-capped at the adapter's byte/line ceiling). Large files are chunked into a line-numbered preview with pagination info.",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Permission() PermissionLevel {
	return PermissionRead
}

func (t *ReadFileTool) AlwaysRequirePermission() bool {
	return false
}

// DefaultMaxFileTokens is the default token limit for file reads (roughly 8000 chars)
const DefaultMaxFileTokens = 2000

// ChunkPreviewLines is the number of lines to show in chunked preview
const ChunkPreviewLines = 50

// MaxReadBytes and MaxReadLines are the hard ceilings every read_file call is
// clamped to, regardless of max_tokens, matching the adapter's cap on a
// single read.
const (
	MaxReadBytes = 524288
	MaxReadLines = 1000
)

func (t *ReadFileTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return "", fmt.Errorf("path is required")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	content, err := t.readRaw(ctx, path, absPath)
	if err != nil {
		return "", err
	}

	if ReadTracker != nil {
		ReadTracker.MarkRead(absPath)
	}

	maxTokens := DefaultMaxFileTokens
	if mt, ok := input["max_tokens"].(float64); ok {
		maxTokens = int(mt) // 0 means unlimited
	}

	startLine, hasStart := input["start_line"].(float64)
	endLine, hasEnd := input["end_line"].(float64)

	if hasStart || hasEnd {
		return t.paginatedResult(path, content, hasStart, int(startLine), hasEnd, int(endLine))
	}

	if maxTokens > 0 {
		estimatedTokens := len(content) / 4
		if estimatedTokens > maxTokens {
			return t.chunkFile(path, content, maxTokens)
		}
	}

	return marshalResult(FileReadResult{Path: path, Content: content})
}

// readRaw fetches the file's (already size-clamped) content either through
// the configured Adapter or, when none is set, the tool's own direct path,
// preserving the symlink/project-containment checks that path used before
// an Adapter existed to do them instead.
func (t *ReadFileTool) readRaw(ctx context.Context, path, absPath string) (string, error) {
	if t.Adapter != nil {
		return t.Adapter.ReadFile(ctx, path, 0)
	}

	if err := ValidatePath(absPath); err != nil {
		return "", err
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", path)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) > MaxReadBytes {
		content = content[:MaxReadBytes]
	}
	if lines := strings.Split(string(content), "\n"); len(lines) > MaxReadLines {
		content = []byte(strings.Join(lines[:MaxReadLines], "\n"))
	}
	return string(content), nil
}

// paginatedResult slices content to [start_line, end_line] and attaches
// pagination metadata describing the slice relative to the file's full
// line count.
func (t *ReadFileTool) paginatedResult(path, content string, hasStart bool, startLine int, hasEnd bool, endLine int) (string, error) {
	lines := strings.Split(content, "\n")
	totalLines := len(lines)
	start := 0
	end := totalLines

	if hasStart && startLine > 0 {
		start = startLine - 1
	}
	if hasEnd && endLine > 0 && endLine <= totalLines {
		end = endLine
	}
	if start >= end || start >= totalLines {
		return "", fmt.Errorf("invalid line range")
	}

	var sb strings.Builder
	for i := start; i < end && i < totalLines; i++ {
		fmt.Fprintf(&sb, "%4d | %s\n", i+1, lines[i])
	}

	return marshalResult(FileReadResult{
		Path:    path,
		Content: sb.String(),
		Pagination: &PaginationInfo{
			TotalLines: totalLines,
			StartLine:  start + 1,
			EndLine:    end,
			HasMore:    end < totalLines,
		},
	})
}

// chunkFile returns a chunked preview of a large file with pagination
// metadata describing how much was shown.
func (t *ReadFileTool) chunkFile(path, content string, maxTokens int) (string, error) {
	lines := strings.Split(content, "\n")
	totalLines := len(lines)

	avgLineLen := len(content) / max(totalLines, 1)
	if avgLineLen == 0 {
		avgLineLen = 40
	}
	maxChars := maxTokens * 4
	maxLines := min(max(maxChars/avgLineLen, ChunkPreviewLines), totalLines)

	var sb strings.Builder
	for i := 0; i < maxLines && i < totalLines; i++ {
		fmt.Fprintf(&sb, "%4d | %s\n", i+1, lines[i])
	}

	return marshalResult(FileReadResult{
		Path:    path,
		Content: sb.String(),
		Pagination: &PaginationInfo{
			TotalLines: totalLines,
			StartLine:  1,
			EndLine:    maxLines,
			HasMore:    maxLines < totalLines,
		},
	})
}

// FileWriter is the narrow slice of adapter.Adapter that WriteFileTool
// depends on.
type FileWriter interface {
	WriteFile(ctx context.Context, path string, content string) error
}

// WriteFileTool writes content to a file
type WriteFileTool struct {
	// Adapter, when set, is used instead of this tool's own direct os.WriteFile
	// path. See ReadFileTool.Adapter.
	Adapter FileWriter
}

func (t *WriteFileTool) Name() string {
	return "write_file"
}

func (t *WriteFileTool) Description() string {
	return "Write content to a file. Creates the file if it doesn't exist; an existing file is overwritten only when overwrite is true. Creates parent directories as needed."
}

func (t *WriteFileTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The path to the file to write (relative or absolute).",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The content to write to the file.",
			},
			"overwrite": map[string]any{
				"type":        "boolean",
				"description": "Must be true to overwrite a file that already exists. Required to prevent accidental clobbering of existing content.",
			},
		},
		"required": []string{"path", "content", "overwrite"},
	}
}

func (t *WriteFileTool) Permission() PermissionLevel {
	return PermissionWrite
}

func (t *WriteFileTool) AlwaysRequirePermission() bool {
	return false
}

func (t *WriteFileTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return "", fmt.Errorf("path is required")
	}

	content, ok := input["content"].(string)
	if !ok {
		return "", fmt.Errorf("content is required")
	}

	overwrite, _ := input["overwrite"].(bool)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !overwrite {
		if _, err := os.Lstat(absPath); err == nil {
			return "", fmt.Errorf("file %s already exists; set overwrite=true to replace it", path)
		}
	}

	if t.Adapter != nil {
		if err := t.Adapter.WriteFile(ctx, path, content); err != nil {
			return "", err
		}
		return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
	}

	if err := ValidatePathForWrite(absPath); err != nil {
		return "", err
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	f, err := openNoFollow(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			if writeErr := os.WriteFile(absPath, []byte(content), 0644); writeErr != nil {
				return "", fmt.Errorf("failed to write file: %w", writeErr)
			}
			return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
		}
		return "", fmt.Errorf("failed to open file for writing: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}

// FileEditor is the narrow slice of adapter.Adapter that EditFileTool
// depends on.
type FileEditor interface {
	EditFile(ctx context.Context, path string, oldText string, newText string) error
}

// EditFileTool performs targeted edits on a file
type EditFileTool struct {
	// Adapter, when set, is used instead of this tool's own direct
	// read-modify-write path. See ReadFileTool.Adapter.
	Adapter FileEditor
}

func (t *EditFileTool) Name() string {
	return "edit_file"
}

func (t *EditFileTool) Description() string {
	return "Edit a file by replacing specific text. Use this for targeted modifications instead of rewriting entire files."
}

func (t *EditFileTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The path to the file to edit.",
			},
			"old_text": map[string]any{
				"type":        "string",
				"description": "The exact text to find and replace.",
			},
			"new_text": map[string]any{
				"type":        "string",
				"description": "The text to replace it with.",
			},
		},
		"required": []string{"path", "old_text", "new_text"},
	}
}

func (t *EditFileTool) Permission() PermissionLevel {
	return PermissionWrite
}

func (t *EditFileTool) AlwaysRequirePermission() bool {
	return false
}

func (t *EditFileTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return "", fmt.Errorf("path is required")
	}

	oldText, ok := input["old_text"].(string)
	if !ok {
		return "", fmt.Errorf("old_text is required")
	}

	newText, ok := input["new_text"].(string)
	if !ok {
		return "", fmt.Errorf("new_text is required")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if ReadTracker != nil && !ReadTracker.WasRead(absPath) {
		return "", fmt.Errorf("refusing to edit %s: read it with read_file first so edits are grounded in current content", path)
	}

	if t.Adapter != nil {
		oldContent, readErr := t.peekContent(ctx, path)
		if err := t.Adapter.EditFile(ctx, path, oldText, newText); err != nil {
			return "", err
		}
		if readErr == nil {
			newContent := strings.Replace(oldContent, oldText, newText, 1)
			if diff := GenerateUnifiedDiff(path, oldContent, newContent, 3); diff != "" {
				return fmt.Sprintf("Successfully edited %s\n\n%s", path, diff), nil
			}
		}
		return fmt.Sprintf("Successfully edited %s", path), nil
	}

	if err := ValidatePathForWrite(absPath); err != nil {
		return "", err
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("access denied: refusing to edit through symlink %q", path)
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	if !strings.Contains(string(content), oldText) {
		return "", fmt.Errorf("old_text not found in file")
	}
	count := strings.Count(string(content), oldText)
	if count > 1 {
		return "", fmt.Errorf("old_text found %d times, must be unique; provide more context", count)
	}

	oldContent := string(content)
	newContent := strings.Replace(oldContent, oldText, newText, 1)

	if err := os.WriteFile(absPath, []byte(newContent), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	diff := GenerateUnifiedDiff(path, oldContent, newContent, 3)
	if diff != "" {
		return fmt.Sprintf("Successfully edited %s\n\n%s", path, diff), nil
	}
	return fmt.Sprintf("Successfully edited %s", path), nil
}

// peekContent reads a file's pre-edit content for diff generation only; a
// failure here just means the success message skips the unified diff.
func (t *EditFileTool) peekContent(ctx context.Context, path string) (string, error) {
	reader, ok := t.Adapter.(FileReader)
	if !ok {
		return "", fmt.Errorf("adapter does not support reading")
	}
	return reader.ReadFile(ctx, path, 0)
}

// Lister is the narrow slice of adapter.Adapter that ListFilesTool depends
// on.
type Lister interface {
	Ls(ctx context.Context, dir string, recursive bool) ([]adapter.DirEntry, error)
}

// ListFilesTool lists files in a directory, reported as ls entries.
type ListFilesTool struct {
	// Adapter, when set, is used instead of this tool's own direct
	// filepath.Walk/os.ReadDir path. See ReadFileTool.Adapter.
	Adapter Lister
}

func (t *ListFilesTool) Name() string {
	return "ls"
}

func (t *ListFilesTool) Description() string {
	return "List files and directories at a given path. Useful for exploring project structure."
}

func (t *ListFilesTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "The directory path to list (defaults to current directory).",
				"default":     ".",
			},
			"recursive": map[string]any{
				"type":        "boolean",
				"description": "If true, list files recursively.",
				"default":     false,
			},
			"pattern": map[string]any{
				"type":        "string",
				"description": "Glob pattern matched against each entry's base name (e.g., '*.go').",
			},
			"show_hidden": map[string]any{
				"type":        "boolean",
				"description": "If true, include dotfiles and dot-directories.",
				"default":     false,
			},
			"details": map[string]any{
				"type":        "boolean",
				"description": "If true, include file size and modification time where the backend can report them.",
				"default":     false,
			},
		},
	}
}

func (t *ListFilesTool) Permission() PermissionLevel {
	return PermissionRead
}

func (t *ListFilesTool) AlwaysRequirePermission() bool {
	return false
}

func (t *ListFilesTool) Execute(ctx context.Context, input map[string]any) (string, error) {
	path := "."
	if p, ok := input["path"].(string); ok && p != "" {
		path = p
	}
	recursive, _ := input["recursive"].(bool)
	pattern, _ := input["pattern"].(string)
	showHidden, _ := input["show_hidden"].(bool)
	details, _ := input["details"].(bool)

	entries, err := t.list(ctx, path, recursive)
	if err != nil {
		return "", err
	}

	result := LsResult{Entries: make([]LsEntry, 0, len(entries))}
	for _, e := range entries {
		name := filepath.Base(e.Path)
		if name == "." || name == ".." {
			continue
		}
		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if pattern != "" {
			if matched, _ := filepath.Match(pattern, name); !matched {
				continue
			}
		}
		entry := LsEntry{
			Name:           e.Path,
			IsDirectory:    e.IsDir,
			IsFile:         !e.IsDir && !e.IsSymlink,
			IsSymbolicLink: e.IsSymlink,
		}
		if details {
			entry.Size = e.Size
			if !e.ModTime.IsZero() {
				mt := e.ModTime
				entry.ModifiedAt = &mt
			}
		}
		result.Entries = append(result.Entries, entry)
	}

	return marshalResult(result)
}

// list fetches directory entries through the configured Adapter, or, when
// none is set, this tool's own direct os.ReadDir/filepath.Walk path.
func (t *ListFilesTool) list(ctx context.Context, path string, recursive bool) ([]adapter.DirEntry, error) {
	if t.Adapter != nil {
		return t.Adapter.Ls(ctx, path, recursive)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path not found: %s", path)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	var entries []adapter.DirEntry
	if recursive {
		err = filepath.Walk(absPath, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if fi.IsDir() && strings.HasPrefix(fi.Name(), ".") && p != absPath {
				return filepath.SkipDir
			}
			rel, _ := filepath.Rel(absPath, p)
			if rel == "." {
				return nil
			}
			entries = append(entries, adapter.DirEntry{
				Path:      rel,
				IsDir:     fi.IsDir(),
				IsSymlink: fi.Mode()&os.ModeSymlink != 0,
				Size:      fi.Size(),
				ModTime:   fi.ModTime(),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return entries, nil
	}

	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	for _, e := range dirEntries {
		fi, err := e.Info()
		if err != nil {
			continue
		}
		entries = append(entries, adapter.DirEntry{
			Path:      e.Name(),
			IsDir:     e.IsDir(),
			IsSymlink: fi.Mode()&os.ModeSymlink != 0,
			Size:      fi.Size(),
			ModTime:   fi.ModTime(),
		})
	}
	return entries, nil
}
