package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coredrift/agentcore/internal/adapter"
	coreerr "github.com/coredrift/agentcore/internal/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PermissionLevel defines the level of permission required for a tool.
type PermissionLevel int

const (
	PermissionRead    PermissionLevel = 0 // read-only operations, auto-approved in ModeInteractive
	PermissionWrite   PermissionLevel = 1 // file modifications
	PermissionExecute PermissionLevel = 2 // shell execution
)

func (p PermissionLevel) String() string {
	switch p {
	case PermissionRead:
		return "read"
	case PermissionWrite:
		return "write"
	case PermissionExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// Tool is the interface every built-in and registered tool implements.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Execute(ctx context.Context, input map[string]any) (string, error)
	Permission() PermissionLevel

	// AlwaysRequirePermission overrides every fast path: a tool returning
	// true here is gated by the Permission Manager under every mode,
	// including the PermissionRead implicit-allow and FastEdit's
	// file-operation bypass. Batch sets this so fanned-out tools can't be
	// used to dodge a prompt that a direct call would have triggered.
	AlwaysRequirePermission() bool
}

// ToolDefinition is the wire shape handed to the model provider.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// LifecycleEvent identifies which hook point fired.
type LifecycleEvent int

const (
	EventToolStart LifecycleEvent = iota
	EventToolComplete
	EventToolError
)

// LifecycleHook is invoked around tool execution. result is empty and err is
// nil on EventToolStart.
type LifecycleHook func(event LifecycleEvent, toolName string, input map[string]any, result string, err error)

// Unsubscribe removes a previously registered hook.
type Unsubscribe func()

type entry struct {
	tool     Tool
	schema   *jsonschema.Schema
	required []string
}

// Registry holds the tools available to one agent run, in registration
// order, with compiled JSON-Schema validators and lifecycle subscriptions.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
	hooks   map[int]LifecycleHook
	nextID  int
}

// NewRegistry creates an empty registry. Callers populate it with
// RegisterBuiltins or Register.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		hooks:   make(map[int]LifecycleHook),
	}
}

// RegisterBuiltins populates the registry with the standard tool set: bash,
// glob, grep, ls, read_file, edit_file, write_file, think, batch, and
// scratchpad, backed by a Local execution adapter rooted at projectDir.
// sandbox may be nil to disable OS-level bash sandboxing.
func (r *Registry) RegisterBuiltins(sandbox Sandbox, projectDir string, batchMaxFanout int) {
	r.RegisterBuiltinsWithAdapter(adapter.NewLocal(projectDir, sandbox), sandbox, projectDir, batchMaxFanout)
}

// RegisterBuiltinsWithAdapter is RegisterBuiltins generalized to any
// execution backend (Local, Container, Remote): the file tools, ls, glob and
// bash are wired to adp instead of reaching for os/exec directly. grep is
// the exception: the adapter has no grep operation, so GrepTool always runs
// rg (or grep) on the host.
func (r *Registry) RegisterBuiltinsWithAdapter(adp adapter.Adapter, sandbox Sandbox, projectDir string, batchMaxFanout int) {
	r.Register(&ReadFileTool{Adapter: adp})
	r.Register(&WriteFileTool{Adapter: adp})
	r.Register(&EditFileTool{Adapter: adp})
	r.Register(&ListFilesTool{Adapter: adp})
	r.Register(&GlobTool{Adapter: adp})
	r.Register(&BashTool{Sandbox: sandbox, ProjectDir: projectDir, Adapter: adp})
	r.Register(&GrepTool{})
	r.Register(&ThinkTool{})
	r.Register(NewScratchpadTool())
	r.Register(&BatchTool{Registry: r, MaxFanout: batchMaxFanout})
}

// Register adds a tool, compiling its input schema. A tool whose schema
// fails to compile is a programmer error and panics at startup rather than
// failing silently at call time.
func (r *Registry) Register(tool Tool) {
	schema, required := compileToolSchema(tool.Name(), tool.InputSchema())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[tool.Name()]; !exists {
		r.order = append(r.order, tool.Name())
	}
	r.entries[tool.Name()] = &entry{tool: tool, schema: schema, required: required}
}

func compileToolSchema(name string, raw map[string]any) (*jsonschema.Schema, []string) {
	payload, err := json.Marshal(raw)
	if err != nil {
		panic(fmt.Sprintf("tool %s: marshal input schema: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	resource := name + ".schema.json"
	if err := compiler.AddResource(resource, mustDecode(payload)); err != nil {
		panic(fmt.Sprintf("tool %s: add schema resource: %v", name, err))
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		panic(fmt.Sprintf("tool %s: compile input schema: %v", name, err))
	}

	var required []string
	if reqRaw, ok := raw["required"].([]string); ok {
		required = reqRaw
	} else if reqRaw, ok := raw["required"].([]any); ok {
		for _, v := range reqRaw {
			if s, ok := v.(string); ok {
				required = append(required, s)
			}
		}
	}
	return compiled, required
}

func mustDecode(payload []byte) any {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		panic(fmt.Sprintf("decode schema: %v", err))
	}
	return v
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// List returns all registered tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].tool)
	}
	return out
}

// RequiredParameters returns the parameter names listed under the tool's
// schema "required" array, in schema order.
func (r *Registry) RequiredParameters(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil
	}
	return e.required
}

// Subscribe registers a lifecycle hook and returns a func to remove it.
func (r *Registry) Subscribe(hook LifecycleHook) Unsubscribe {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.hooks[id] = hook
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.hooks, id)
		r.mu.Unlock()
	}
}

func (r *Registry) fire(event LifecycleEvent, name string, input map[string]any, result string, err error) {
	r.mu.RLock()
	hooks := make([]LifecycleHook, 0, len(r.hooks))
	for _, h := range r.hooks {
		hooks = append(hooks, h)
	}
	r.mu.RUnlock()

	for _, h := range hooks {
		h(event, name, input, result, err)
	}
}

// Validate checks input against the tool's compiled JSON Schema without
// executing it.
func (r *Registry) Validate(name string, input map[string]any) error {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return coreerr.ToolNotFound(name)
	}
	if e.schema == nil {
		return nil
	}
	if err := e.schema.Validate(input); err != nil {
		return coreerr.InvalidParameter(name, "", err.Error())
	}
	return nil
}

// Execute validates input against the tool's schema, fires lifecycle hooks,
// and runs the tool. It never returns a wrapped ToolRuntimeFailed for
// validation failures -- those are CategoryValidation so the loop can
// feed the schema error straight back to the model.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]any) (string, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		err := coreerr.ToolNotFound(name)
		r.fire(EventToolError, name, input, "", err)
		return "", err
	}

	r.fire(EventToolStart, name, input, "", nil)

	if e.schema != nil {
		if err := e.schema.Validate(input); err != nil {
			verr := coreerr.InvalidParameter(name, "", err.Error())
			r.fire(EventToolError, name, input, "", verr)
			return "", verr
		}
	}

	result, err := e.tool.Execute(ctx, input)
	if err != nil {
		wrapped := coreerr.ToolRuntimeFailed(name, err.Error(), err)
		r.fire(EventToolError, name, input, "", wrapped)
		return "", wrapped
	}

	r.fire(EventToolComplete, name, input, result, nil)
	return result, nil
}

// GetDefinitions returns tool definitions for the model provider's tools
// array, in registration order.
func (r *Registry) GetDefinitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		defs = append(defs, ToolDefinition{
			Name:        e.tool.Name(),
			Description: e.tool.Description(),
			InputSchema: e.tool.InputSchema(),
		})
	}
	return defs
}
