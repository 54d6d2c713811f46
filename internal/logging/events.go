package logging

// Event types for structured logging.
// These constants define the event names used in JSONL traces.
const (
	// Session events
	EventSessionStart  = "session.start"
	EventSessionEnd    = "session.end"
	EventSessionLoad   = "session.load"
	EventSessionResume = "session.resume"
	EventSessionSave   = "session.save"

	// Agent events
	EventAgentPermissionChange = "agent.permission.change"
	EventAgentQueryStart       = "agent.query.start"
	EventAgentQueryComplete    = "agent.query.complete"
	EventAgentRoundLimit       = "agent.round_limit"
	EventAgentCancelled        = "agent.cancelled"

	// Context events
	EventContextAdd     = "context.add"
	EventContextCompact = "context.compact"
	EventContextWarning = "context.warning"
	EventContextClear   = "context.clear"

	// LLM events
	EventLLMRequest     = "llm.request"
	EventLLMResponse    = "llm.response"
	EventLLMError       = "llm.error"
	EventLLMStreamStart = "llm.stream.start"
	EventLLMStreamChunk = "llm.stream.chunk"
	EventLLMStreamEnd   = "llm.stream.end"

	// Tool events
	EventToolStart    = "tool.start"
	EventToolComplete = "tool.complete"
	EventToolDenied   = "tool.denied"
	EventToolError    = "tool.error"

	// Adapter events
	EventAdapterUnavailable = "adapter.unavailable"

	// Error events
	EventError = "error"
)
