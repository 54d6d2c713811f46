package adapter

import "context"

// RemoteSession is the transport a Remote adapter needs: one round-trip
// method per operation, carried over whatever RPC mechanism the host wires
// up (no pack example ships a concrete remote-sandbox client, so this stays
// an interface boundary rather than naming a specific transport library).
type RemoteSession interface {
	Exec(ctx context.Context, command string) (CommandResult, error)
	Read(ctx context.Context, path string, maxBytes int) (string, error)
	Write(ctx context.Context, path string, content string) error
	List(ctx context.Context, dir string, recursive bool) ([]DirEntry, error)
}

// Remote delegates every operation to a RemoteSession, passing paths to the
// session unchanged (RemotePath is recorded but not applied to them). Edit
// is implemented client-side as read-modify-write, same as Container, since
// a RemoteSession offers no edit operation of its own.
type Remote struct {
	Session    RemoteSession
	RemotePath string
	GlobCap    int
}

// NewRemote creates a Remote adapter backed by session, rooted at
// remotePath on the far side.
func NewRemote(session RemoteSession, remotePath string) *Remote {
	if remotePath == "" {
		remotePath = "."
	}
	return &Remote{Session: session, RemotePath: remotePath, GlobCap: DefaultGlobCap}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) ReadFile(ctx context.Context, path string, maxBytes int) (string, error) {
	limit := maxBytes
	if limit <= 0 || limit > DefaultMaxReadBytes {
		limit = DefaultMaxReadBytes
	}
	content, err := r.Session.Read(ctx, path, limit)
	if err != nil {
		return "", err
	}
	return clampLines(string(clampBytes([]byte(content), limit)), DefaultMaxReadLines), nil
}

func (r *Remote) WriteFile(ctx context.Context, path string, content string) error {
	return r.Session.Write(ctx, path, content)
}

func (r *Remote) EditFile(ctx context.Context, path string, oldText string, newText string) error {
	current, err := r.Session.Read(ctx, path, 0)
	if err != nil {
		return err
	}
	updated, err := uniqueReplace(current, oldText, newText)
	if err != nil {
		return err
	}
	return r.Session.Write(ctx, path, updated)
}

func (r *Remote) Ls(ctx context.Context, dir string, recursive bool) ([]DirEntry, error) {
	entries, err := r.Session.List(ctx, dir, recursive)
	if err != nil {
		return nil, err
	}
	return sortAndCap(entries, 0), nil
}

func (r *Remote) Glob(ctx context.Context, root string, pattern string) ([]DirEntry, error) {
	entries, err := r.Session.List(ctx, root, true)
	if err != nil {
		return nil, err
	}
	var matched []DirEntry
	for _, e := range entries {
		if !e.IsDir && matchGlob(pattern, e.Path) {
			matched = append(matched, e)
		}
	}
	return sortAndCap(matched, r.GlobCap), nil
}

func (r *Remote) ExecuteCommand(ctx context.Context, command string) (CommandResult, error) {
	return r.Session.Exec(ctx, command)
}
