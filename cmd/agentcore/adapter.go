package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/coredrift/agentcore/internal/adapter"
	"github.com/coredrift/agentcore/internal/config"
	"github.com/coredrift/agentcore/internal/tools"
)

// buildAdapter constructs the execution backend named by cfg.Adapter.Backend.
// Container and Remote fall back to Local with a warning when the backend
// they need isn't configured, since a misconfigured adapter should degrade
// to something that still runs rather than leave the agent without one.
func buildAdapter(cfg *config.Config, sandbox tools.Sandbox) (adapter.Adapter, string) {
	switch cfg.Adapter.Backend {
	case config.BackendContainer:
		if cfg.Adapter.ContainerName == "" {
			return adapter.NewLocal(cfg.Adapter.WorkspaceRoot, sandbox), "adapter.container_name is required for backend=container; falling back to local"
		}
		runner := &dockerExecRunner{container: cfg.Adapter.ContainerName}
		return adapter.NewContainer(runner, cfg.Adapter.ContainerPath), ""
	case config.BackendRemote:
		return adapter.NewLocal(cfg.Adapter.WorkspaceRoot, sandbox), "backend=remote has no configured transport (no RemoteSession implementation wired); falling back to local"
	default:
		return adapter.NewLocal(cfg.Adapter.WorkspaceRoot, sandbox), ""
	}
}

// dockerExecRunner implements adapter.ExecRunner by shelling out to `docker
// exec`, the same subprocess-capture pattern bash.go already uses for local
// commands, generalized to a named container instead of the host.
type dockerExecRunner struct {
	container string
}

func (d *dockerExecRunner) ExecWithCapture(ctx context.Context, workDir string, command []string) (string, string, int, error) {
	args := append([]string{"exec", "-w", workDir, d.container}, command...)
	cmd := exec.CommandContext(ctx, "docker", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("docker exec failed: %w", err)
	}
	return stdout.String(), stderr.String(), 0, nil
}
