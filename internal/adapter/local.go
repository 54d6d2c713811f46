package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Sandbox wraps command execution with OS-level sandboxing. Any value
// satisfying this method set works, including the platform sandboxes
// internal/tools registers at init (their method set is identical; Go
// interfaces are structural, so no adapter shim is needed to pass one in).
type Sandbox interface {
	Wrap(command string, projectDir string) (string, []string, error)
	Available() bool
	Name() string
}

// Local runs every operation as the host process, directly against the
// filesystem rooted at WorkspaceRoot. Grounded on the teacher's
// file_security.go path-containment checks (symlink-safe resolution, parent
// validation for new files) and bash.go's sandbox-aware command execution.
type Local struct {
	WorkspaceRoot string
	Sandbox       Sandbox // nil disables OS-level command sandboxing
	MaxReadBytes  int
	MaxReadLines  int
	GlobCap       int
}

// NewLocal creates a Local adapter rooted at workspaceRoot, applying the
// package's default size ceilings where the caller leaves them zero.
func NewLocal(workspaceRoot string, sandbox Sandbox) *Local {
	root := workspaceRoot
	if root == "" {
		root = "."
	}
	return &Local{
		WorkspaceRoot: root,
		Sandbox:       sandbox,
		MaxReadBytes:  DefaultMaxReadBytes,
		MaxReadLines:  DefaultMaxReadLines,
		GlobCap:       DefaultGlobCap,
	}
}

func (l *Local) Name() string { return "local" }

// resolve validates that path is within WorkspaceRoot and returns its
// absolute form. Existing-component symlink resolution prevents traversal
// via a symlinked ancestor; it does not require the leaf itself to exist,
// so new-file writes still pass.
func (l *Local) resolve(path string) (string, error) {
	root, err := filepath.Abs(l.WorkspaceRoot)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}
	abs = filepath.Clean(abs)

	resolved, err := resolveExisting(abs)
	if err != nil {
		return "", fmt.Errorf("access denied: cannot resolve path %q: %w", path, err)
	}
	if resolved != root && !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("access denied: path %q resolves outside the workspace root", path)
	}
	return abs, nil
}

// resolveExisting walks up from path until it finds an existing ancestor,
// resolves that ancestor's symlinks, then re-appends the missing suffix.
func resolveExisting(path string) (string, error) {
	if _, err := os.Lstat(path); err == nil {
		return filepath.EvalSymlinks(path)
	}
	parent := filepath.Dir(path)
	if parent == path {
		return "", fmt.Errorf("path not found")
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

func (l *Local) ReadFile(ctx context.Context, path string, maxBytes int) (string, error) {
	abs, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return "", fmt.Errorf("file not found: %s", path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", path)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	limit := maxBytes
	if limit <= 0 || limit > l.MaxReadBytes {
		limit = l.MaxReadBytes
	}
	content = clampBytes(content, limit)
	return clampLines(string(content), l.MaxReadLines), nil
}

func (l *Local) WriteFile(ctx context.Context, path string, content string) error {
	abs, err := l.resolve(path)
	if err != nil {
		return err
	}
	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("access denied: refusing to write through symlink %q", path)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (l *Local) EditFile(ctx context.Context, path string, oldText string, newText string) error {
	abs, err := l.resolve(path)
	if err != nil {
		return err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("access denied: refusing to edit through symlink %q", path)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	updated, err := uniqueReplace(string(content), oldText, newText)
	if err != nil {
		return err
	}
	if err := os.WriteFile(abs, []byte(updated), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (l *Local) Ls(ctx context.Context, dir string, recursive bool) ([]DirEntry, error) {
	abs, err := l.resolve(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("path not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	var entries []DirEntry
	if recursive {
		err = filepath.Walk(abs, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if fi.IsDir() && strings.HasPrefix(fi.Name(), ".") && p != abs {
				return filepath.SkipDir
			}
			rel, _ := filepath.Rel(abs, p)
			if rel == "." {
				return nil
			}
			entries = append(entries, entryFromInfo(rel, fi))
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		dirEntries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}
		for _, e := range dirEntries {
			fi, err := e.Info()
			if err != nil {
				continue
			}
			entries = append(entries, entryFromInfo(e.Name(), fi))
		}
	}
	return sortAndCap(entries, 0), nil
}

func (l *Local) Glob(ctx context.Context, root string, pattern string) ([]DirEntry, error) {
	abs, err := l.resolve(root)
	if err != nil {
		return nil, err
	}

	var entries []DirEntry
	err = filepath.Walk(abs, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if fi.IsDir() {
			if strings.HasPrefix(fi.Name(), ".") && p != abs {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(abs, p)
		if matchGlob(pattern, rel) {
			entries = append(entries, entryFromInfo(rel, fi))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortAndCap(entries, l.GlobCap), nil
}

// entryFromInfo builds a DirEntry carrying the size/mtime/symlink metadata
// spec's details=true ls mode reports, when the backend is Local and can
// see it directly via os.FileInfo.
func entryFromInfo(rel string, fi os.FileInfo) DirEntry {
	return DirEntry{
		Path:      rel,
		IsDir:     fi.IsDir(),
		IsSymlink: fi.Mode()&os.ModeSymlink != 0,
		Size:      fi.Size(),
		ModTime:   fi.ModTime(),
	}
}

func (l *Local) ExecuteCommand(ctx context.Context, command string) (CommandResult, error) {
	exe := "bash"
	args := []string{"-c", command}

	if l.Sandbox != nil && l.Sandbox.Available() {
		var err error
		exe, args, err = l.Sandbox.Wrap(command, l.WorkspaceRoot)
		if err != nil {
			return CommandResult{}, fmt.Errorf("sandbox wrap failed: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = l.WorkspaceRoot
	cmd.Env = sanitizedEnv()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	result := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if runErr != nil {
		return result, fmt.Errorf("command failed: %w", runErr)
	}
	return result, nil
}
