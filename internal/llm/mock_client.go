package llm

import (
	"context"
	"sync"
)

// MockProvider implements ModelProvider for testing.
type MockProvider struct {
	ProcessQueryFunc       func(ctx context.Context, req Request) (*Response, error)
	ProcessQueryStreamFunc func(ctx context.Context, req Request) <-chan StreamChunk

	model string
	mu    sync.Mutex

	Calls []Request
}

// NewMockProvider creates a mock provider with sensible defaults.
func NewMockProvider() *MockProvider {
	return &MockProvider{model: "mock-model"}
}

// ProcessQuery calls the injected func or returns a default text-only response.
func (m *MockProvider) ProcessQuery(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()

	if m.ProcessQueryFunc != nil {
		return m.ProcessQueryFunc(ctx, req)
	}
	return &Response{
		Content:    []Block{{Type: "text", Text: "mock response"}},
		StopReason: "end_turn",
	}, nil
}

// ProcessQueryStream calls the injected func or returns a default stream.
func (m *MockProvider) ProcessQueryStream(ctx context.Context, req Request) <-chan StreamChunk {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()

	if m.ProcessQueryStreamFunc != nil {
		return m.ProcessQueryStreamFunc(ctx, req)
	}

	ch := make(chan StreamChunk, 2)
	go func() {
		defer close(ch)
		ch <- StreamChunk{Type: "text", Text: "mock response"}
		ch <- StreamChunk{Type: "done"}
	}()
	return ch
}

// SetModel sets the model name.
func (m *MockProvider) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

// GetModel returns the current model name.
func (m *MockProvider) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}
