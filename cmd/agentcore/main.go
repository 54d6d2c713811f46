package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	rtdebug "runtime/debug"
	"strings"
	"syscall"

	"github.com/coredrift/agentcore/internal/agent"
	"github.com/coredrift/agentcore/internal/config"
	ctxmgr "github.com/coredrift/agentcore/internal/context"
	coreerr "github.com/coredrift/agentcore/internal/errors"
	"github.com/coredrift/agentcore/internal/llm"
	"github.com/coredrift/agentcore/internal/logging"
	"github.com/coredrift/agentcore/internal/session"
	"github.com/coredrift/agentcore/internal/tools"
)

var Version = "dev"

func main() {
	rtdebug.SetMemoryLimit(3 << 30)

	debugMode := os.Getenv("AGENTCORE_DEBUG") == "1"
	verboseMode := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--debug", "-d":
			debugMode = true
		case "--verbose", "-V":
			verboseMode = true
		}
	}

	logCfg := logging.ConfigFromEnv()
	if debugMode {
		logCfg = logCfg.WithDebugMode(true)
	}
	if verboseMode {
		logCfg = logCfg.WithVerbose(true)
	}
	log, err := logging.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to init logging: %v\n", err)
	}
	defer logging.Close()
	if log != nil {
		log.Event(logging.EventSessionStart, logging.F("version", Version))
	}

	if err := tools.InitProjectRoot(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to init project root: %v\n", err)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]

	if len(args) > 0 && (args[0] == "--version" || args[0] == "-v" || args[0] == "version") {
		fmt.Printf("agentcore version %s\n", Version)
		return nil
	}
	if len(args) > 0 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		printHelp()
		return nil
	}

	args, flags := parseFlags(args)

	cfg, err := config.LoadWithOptions(config.LoadOptions{ModelOverride: flags.model})
	if err != nil {
		return coreerr.ConfigLoadFailed("", err)
	}
	if flags.mode != "" {
		cfg.PermissionMode = flags.mode
	}
	if cfg.Provider.APIKey == "" {
		fmt.Fprintln(os.Stderr, "warning: ANTHROPIC_API_KEY is not set")
	}

	output := agent.NewCLIOutput()
	input := agent.NewCLIInput()

	var provider llm.ModelProvider = llm.NewAnthropicProvider(cfg)
	if cfg.RateLimit.EnableRateLimiting {
		provider = llm.NewResilientProvider(provider, cfg.RateLimit)
	}

	registry := tools.NewRegistry()
	adp, adapterWarning := buildAdapter(cfg, nil)
	if adapterWarning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", adapterWarning)
	}
	registry.RegisterBuiltinsWithAdapter(adp, nil, cfg.Adapter.WorkspaceRoot, cfg.Tools.BatchMaxFanout)

	state := session.New(cfg.Provider.Model, systemPrompt(), toContextConfig(cfg.Context), cfg.PermissionMode, input, output)
	tools.ReadTracker = state.ReadSet

	runner := agent.New(provider, registry, agent.Config{
		MaxRounds:   cfg.MaxRounds,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	defer cancel()

	if len(args) > 0 {
		query := strings.Join(args, " ")
		return runOnce(ctx, runner, state, query, output, input)
	}

	return runInteractive(ctx, runner, state, output, input)
}

type cliFlags struct {
	model string
	mode  config.PermissionMode
}

func parseFlags(args []string) ([]string, cliFlags) {
	var flags cliFlags
	out := args[:0:0]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--debug" || args[i] == "-d" || args[i] == "--verbose" || args[i] == "-V":
			continue
		case args[i] == "--model" && i+1 < len(args):
			flags.model = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--model="):
			flags.model = strings.TrimPrefix(args[i], "--model=")
		case args[i] == "--fast-edit":
			flags.mode = config.ModeFastEdit
		case args[i] == "--danger":
			flags.mode = config.ModeDanger
		case args[i] == "--interactive":
			flags.mode = config.ModeInteractive
		default:
			out = append(out, args[i])
		}
	}
	return out, flags
}

func toContextConfig(c config.ContextConfig) ctxmgr.ContextConfig {
	return ctxmgr.ContextConfig{
		AutoCompactThreshold: c.AutoCompactThreshold,
		WarnThreshold:        c.WarnThreshold,
		PreserveLast:         c.PreserveLast,
		EnableAutoCompact:    c.EnableAutoCompact,
		ContextWindow:        c.ContextWindow,
	}
}

func runOnce(ctx context.Context, runner *agent.Agent, state *session.State, query string, output agent.Output, input agent.Input) error {
	result, err := runner.ProcessQuery(ctx, query, state, output, input)
	if err != nil {
		output.Error(err)
		return err
	}
	output.StreamDoneWithUsage(result.InputTokens, result.OutputTokens)
	return nil
}

func runInteractive(ctx context.Context, runner *agent.Agent, state *session.State, output agent.Output, input agent.Input) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("agentcore - interactive mode. /exit to quit.")
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			return nil
		}

		result, err := runner.ProcessQuery(ctx, line, state, output, input)
		if err != nil {
			output.Error(err)
			if coreerr.GetCategory(err) == "cancellation" {
				return nil
			}
			continue
		}
		output.StreamDoneWithUsage(result.InputTokens, result.OutputTokens)
	}
}

func systemPrompt() string {
	return "You are agentcore, a coding assistant with access to tools for reading, searching, and editing files in the current project, and running shell commands. Use tools when a task needs them; answer directly otherwise."
}

func printHelp() {
	fmt.Print(`agentcore - AI coding assistant

Usage:
  agentcore [query]        Run a one-shot query
  agentcore                Start interactive mode
  agentcore version        Show version
  agentcore help           Show this help

Flags:
  --model <name>        Override model (e.g. "claude-opus-4-1")
  --interactive          Prompt before every write/execute (default)
  --fast-edit            Auto-approve file reads/writes/edits; still prompt for shell commands and any tool marked always-require
  --danger               Auto-approve everything, including writes and shell commands
  --debug, -d            Enable debug tracing
  --verbose, -V           Enable verbose logging
  -v, --version          Show version
  -h, --help             Show help

Environment:
  ANTHROPIC_API_KEY      Required for the Anthropic provider
  ANTHROPIC_BASE_URL     Optional override for testing/proxies

Config files (in priority order):
  ./agentcore.yaml
  ./.agentcore/config.yaml
  ~/.config/agentcore/config.yaml
`)
}
