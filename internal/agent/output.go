package agent

// Output is the event sink a Runner streams to while processing a query.
// cmd/agentcore's console implementation and any host-embedded implementation
// both satisfy this; the runner never assumes a terminal is attached.
type Output interface {
	// Streaming
	StreamText(text string)
	StreamThinking(text string)
	StreamDone()
	StreamDoneWithUsage(inputTokens, outputTokens int64)

	// Messages
	Text(text string)
	Error(err error)
	Warning(msg string)

	// Tools
	ToolCall(name, description string)
	ToolResult(name, result string, isError bool)
}

// Input is the narrow interface a Runner uses to read follow-up text from a
// host when a tool or the model asks a clarifying question. Permission
// prompts go through permissions.Manager's own handler, not through Input.
type Input interface {
	ReadLine(prompt string) (string, error)
}

// NullOutput discards everything. Useful for tests and headless embedding.
type NullOutput struct{}

func (NullOutput) StreamText(string)                      {}
func (NullOutput) StreamThinking(string)                  {}
func (NullOutput) StreamDone()                             {}
func (NullOutput) StreamDoneWithUsage(int64, int64)        {}
func (NullOutput) Text(string)                             {}
func (NullOutput) Error(error)                              {}
func (NullOutput) Warning(string)                           {}
func (NullOutput) ToolCall(string, string)                  {}
func (NullOutput) ToolResult(string, string, bool)          {}
