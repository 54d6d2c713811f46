package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coredrift/agentcore/internal/config"
)

func TestResilientProvider_SuccessfulQuery(t *testing.T) {
	mock := NewMockProvider()
	rp := NewResilientProvider(mock, config.RateLimitConfig{
		MaxRetries: 3,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   100 * time.Millisecond,
	})

	resp, err := rp.ProcessQuery(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Text())
	}
	if len(mock.Calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(mock.Calls))
	}
}

func TestResilientProvider_RetriesOnFailure(t *testing.T) {
	mock := NewMockProvider()
	callCount := 0
	mock.ProcessQueryFunc = func(ctx context.Context, req Request) (*Response, error) {
		callCount++
		if callCount < 3 {
			return nil, errors.New("temporary error")
		}
		return &Response{Content: []Block{{Type: "text", Text: "recovered"}}}, nil
	}

	rp := NewResilientProvider(mock, config.RateLimitConfig{
		MaxRetries: 3,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   50 * time.Millisecond,
	})

	resp, err := rp.ProcessQuery(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "recovered" {
		t.Errorf("expected 'recovered', got %q", resp.Text())
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestResilientProvider_CircuitBreakerOpens(t *testing.T) {
	mock := NewMockProvider()
	mock.ProcessQueryFunc = func(ctx context.Context, req Request) (*Response, error) {
		return nil, errors.New("always fail")
	}

	rp := NewResilientProvider(mock, config.RateLimitConfig{
		MaxRetries: 0,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   50 * time.Millisecond,
	})

	for i := 0; i < 5; i++ {
		_, _ = rp.ProcessQuery(context.Background(), Request{})
	}

	_, err := rp.ProcessQuery(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from open circuit")
	}
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected open-circuit error, got %v", err)
	}
}

func TestResilientProvider_ContextCancellation(t *testing.T) {
	mock := NewMockProvider()
	mock.ProcessQueryFunc = func(ctx context.Context, req Request) (*Response, error) {
		return nil, errors.New("fail")
	}

	rp := NewResilientProvider(mock, config.RateLimitConfig{
		MaxRetries: 5,
		BaseDelay:  1 * time.Second,
		MaxDelay:   5 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rp.ProcessQuery(ctx, Request{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestResilientProvider_ProcessQueryStream(t *testing.T) {
	mock := NewMockProvider()
	rp := NewResilientProvider(mock, config.RateLimitConfig{
		MaxRetries: 3,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   50 * time.Millisecond,
	})

	ch := rp.ProcessQueryStream(context.Background(), Request{})
	var chunks []StreamChunk
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Type != "text" || chunks[0].Text != "mock response" {
		t.Errorf("unexpected first chunk: %+v", chunks[0])
	}
	if chunks[1].Type != "done" {
		t.Errorf("unexpected second chunk: %+v", chunks[1])
	}
}

func TestResilientProvider_DelegatesModelOps(t *testing.T) {
	mock := NewMockProvider()
	rp := NewResilientProvider(mock, config.RateLimitConfig{})

	rp.SetModel("test-model")
	if rp.GetModel() != "test-model" {
		t.Errorf("expected 'test-model', got %q", rp.GetModel())
	}
}

func TestResilientProvider_DefaultConfig(t *testing.T) {
	mock := NewMockProvider()
	rp := NewResilientProvider(mock, config.RateLimitConfig{})
	if rp.maxRetries != 1 {
		t.Errorf("expected default maxRetries 1, got %d", rp.maxRetries)
	}
	if rp.baseDelay != 1*time.Second {
		t.Errorf("expected default baseDelay 1s, got %v", rp.baseDelay)
	}
	if rp.maxDelay != 30*time.Second {
		t.Errorf("expected default maxDelay 30s, got %v", rp.maxDelay)
	}
}

func TestResilientProvider_BackoffCalculation(t *testing.T) {
	rp := &ResilientProvider{
		baseDelay: 100 * time.Millisecond,
		maxDelay:  1 * time.Second,
	}

	d0 := rp.backoff(0)
	if d0 < 0 || d0 > 100*time.Millisecond {
		t.Errorf("attempt 0 backoff out of range: %v", d0)
	}

	d3 := rp.backoff(3)
	if d3 > 1*time.Second {
		t.Errorf("attempt 3 backoff should be capped at 1s, got %v", d3)
	}
}
