package adapter

import "os"

// allowedEnvVars mirrors internal/tools's sandboxed-command allowlist so a
// command run through Local carries the same restricted environment whether
// it was dispatched from BashTool directly or through this adapter.
var allowedEnvVars = []string{
	"PATH", "HOME", "TERM", "GOPATH", "GOROOT", "TMPDIR", "USER", "LOGNAME",
	"LANG", "LC_ALL", "SHELL", "GOFLAGS", "GOPROXY", "GOMODCACHE", "CGO_ENABLED",
	"SSH_AUTH_SOCK", "GIT_AUTHOR_NAME", "GIT_AUTHOR_EMAIL", "GIT_COMMITTER_NAME",
	"GIT_COMMITTER_EMAIL", "EDITOR", "VISUAL",
}

func sanitizedEnv() []string {
	var env []string
	for _, key := range allowedEnvVars {
		if val, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+val)
		}
	}
	return env
}
