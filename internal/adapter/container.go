package adapter

import (
	"context"
	"fmt"
	"strings"
)

// ExecRunner runs a command inside a container and captures its output.
// Every Container operation -- read, write, list, edit -- is expressed as a
// shell command through this one method, since a container typically offers
// no richer API than "run this and capture stdout/stderr/exit code".
type ExecRunner interface {
	ExecWithCapture(ctx context.Context, workDir string, command []string) (stdout, stderr string, exitCode int, err error)
}

// Container runs every operation inside a container via ExecRunner, with
// paths translated relative to ContainerPath the way the host's workspace
// root is for Local. Grounded on the container executor pattern in the
// example pack: no direct host filesystem access, everything shells out
// through one capture-based runner.
type Container struct {
	Runner        ExecRunner
	ContainerPath string // workspace directory inside the container, e.g. "/workspace"
	GlobCap       int
}

// NewContainer creates a Container adapter backed by runner, rooted at
// containerPath inside the container.
func NewContainer(runner ExecRunner, containerPath string) *Container {
	if containerPath == "" {
		containerPath = "/workspace"
	}
	return &Container{Runner: runner, ContainerPath: containerPath, GlobCap: DefaultGlobCap}
}

func (c *Container) Name() string { return "container" }

// normalizePath strips a ContainerPath prefix the model may send verbatim
// (it sees paths as container-absolute), so every operation below can join
// against ContainerPath itself without doubling it.
func (c *Container) normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == c.ContainerPath {
		return "."
	}
	if rest, ok := strings.CutPrefix(path, c.ContainerPath+"/"); ok {
		return rest
	}
	return path
}

func (c *Container) run(ctx context.Context, script string) (string, string, int, error) {
	return c.Runner.ExecWithCapture(ctx, c.ContainerPath, []string{"/bin/sh", "-c", script})
}

func (c *Container) ReadFile(ctx context.Context, path string, maxBytes int) (string, error) {
	rel := shellQuote(c.normalizePath(path))
	limit := maxBytes
	if limit <= 0 || limit > DefaultMaxReadBytes {
		limit = DefaultMaxReadBytes
	}
	stdout, stderr, code, err := c.run(ctx, fmt.Sprintf("head -c %d %s", limit+1, rel))
	if err != nil {
		return "", fmt.Errorf("container exec failed: %w", err)
	}
	if code != 0 {
		return "", fmt.Errorf("read %s: %s", path, strings.TrimSpace(stderr))
	}
	return clampLines(string(clampBytes([]byte(stdout), limit)), DefaultMaxReadLines), nil
}

func (c *Container) WriteFile(ctx context.Context, path string, content string) error {
	rel := c.normalizePath(path)
	script := fmt.Sprintf("mkdir -p %s && head -c %d > %s <<'AGENTCORE_EOF'\n%s\nAGENTCORE_EOF",
		shellQuote(dirname(rel)), len(content), shellQuote(rel), content)
	_, stderr, code, err := c.run(ctx, script)
	if err != nil {
		return fmt.Errorf("container exec failed: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("write %s: %s", path, strings.TrimSpace(stderr))
	}
	return nil
}

func (c *Container) EditFile(ctx context.Context, path string, oldText string, newText string) error {
	current, stderr, code, err := c.run(ctx, "cat "+shellQuote(c.normalizePath(path)))
	if err != nil {
		return fmt.Errorf("container exec failed: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("read %s: %s", path, strings.TrimSpace(stderr))
	}
	updated, err := uniqueReplace(current, oldText, newText)
	if err != nil {
		return err
	}
	return c.WriteFile(ctx, path, updated)
}

func (c *Container) Ls(ctx context.Context, dir string, recursive bool) ([]DirEntry, error) {
	rel := shellQuote(c.normalizePath(dir))
	flag := "-maxdepth 1"
	if recursive {
		flag = ""
	}
	stdout, stderr, code, err := c.run(ctx, fmt.Sprintf("find %s %s -mindepth 1 -printf '%%y %%s %%P\\n'", rel, flag))
	if err != nil {
		return nil, fmt.Errorf("container exec failed: %w", err)
	}
	if code != 0 {
		return nil, fmt.Errorf("ls %s: %s", dir, strings.TrimSpace(stderr))
	}
	return sortAndCap(parseFindOutput(stdout), 0), nil
}

func (c *Container) Glob(ctx context.Context, root string, pattern string) ([]DirEntry, error) {
	entries, err := c.Ls(ctx, root, true)
	if err != nil {
		return nil, err
	}
	var matched []DirEntry
	for _, e := range entries {
		if !e.IsDir && matchGlob(pattern, e.Path) {
			matched = append(matched, e)
		}
	}
	return sortAndCap(matched, c.GlobCap), nil
}

func (c *Container) ExecuteCommand(ctx context.Context, command string) (CommandResult, error) {
	stdout, stderr, code, err := c.Runner.ExecWithCapture(ctx, c.ContainerPath, []string{"/bin/sh", "-c", command})
	if err != nil {
		return CommandResult{}, fmt.Errorf("container exec failed: %w", err)
	}
	return CommandResult{Stdout: stdout, Stderr: stderr, ExitCode: code}, nil
}

func parseFindOutput(out string) []DirEntry {
	var entries []DirEntry
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			continue
		}
		var size int64
		fmt.Sscanf(parts[1], "%d", &size)
		entries = append(entries, DirEntry{
			Path:      parts[2],
			IsDir:     parts[0] == "d",
			IsSymlink: parts[0] == "l",
			Size:      size,
		})
	}
	return entries
}

func dirname(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return "."
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
