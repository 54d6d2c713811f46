package llm

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/coredrift/agentcore/internal/config"
	coreerr "github.com/coredrift/agentcore/internal/errors"
)

// ErrProviderUnavailable is returned by the circuit breaker while open.
var ErrProviderUnavailable = errors.New("model provider circuit open")

// ResilientProvider wraps a ModelProvider with retry logic and circuit breaking,
// giving the loop one retry with exponential backoff for transient
// provider errors.
type ResilientProvider struct {
	inner      ModelProvider
	cb         *CircuitBreaker
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewResilientProvider wraps the given provider with resilience features.
func NewResilientProvider(inner ModelProvider, cfg config.RateLimitConfig) *ResilientProvider {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 1 * time.Second
	}
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &ResilientProvider{
		inner:      inner,
		cb:         NewCircuitBreaker(5, 30*time.Second),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// ProcessQuery sends a request with retry and circuit breaker protection.
func (rp *ResilientProvider) ProcessQuery(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= rp.maxRetries; attempt++ {
		if !rp.cb.Allow() {
			return nil, coreerr.ProviderUnavailable(ErrProviderUnavailable)
		}

		resp, err := rp.inner.ProcessQuery(ctx, req)
		if err == nil {
			rp.cb.RecordSuccess()
			return resp, nil
		}

		lastErr = err
		rp.cb.RecordFailure()

		if attempt == rp.maxRetries || ctx.Err() != nil {
			break
		}

		delay := rp.backoff(attempt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, coreerr.ProviderRequestFailed(lastErr)
}

// ProcessQueryStream streams with circuit breaker protection (no retry for streams).
func (rp *ResilientProvider) ProcessQueryStream(ctx context.Context, req Request) <-chan StreamChunk {
	if !rp.cb.Allow() {
		ch := make(chan StreamChunk, 1)
		go func() {
			defer close(ch)
			ch <- StreamChunk{Type: "error", Error: coreerr.ProviderUnavailable(ErrProviderUnavailable)}
		}()
		return ch
	}

	innerCh := rp.inner.ProcessQueryStream(ctx, req)

	outCh := make(chan StreamChunk, 100)
	go func() {
		defer close(outCh)
		hadError := false
		for chunk := range innerCh {
			if chunk.Type == "error" {
				hadError = true
			}
			if chunk.Type == "done" && !hadError {
				rp.cb.RecordSuccess()
			}
			outCh <- chunk
		}
		if hadError {
			rp.cb.RecordFailure()
		}
	}()
	return outCh
}

// SetModel delegates to the inner provider.
func (rp *ResilientProvider) SetModel(model string) {
	rp.inner.SetModel(model)
}

// GetModel delegates to the inner provider.
func (rp *ResilientProvider) GetModel() string {
	return rp.inner.GetModel()
}

// backoff calculates the delay for the given attempt using exponential backoff with jitter.
func (rp *ResilientProvider) backoff(attempt int) time.Duration {
	delay := rp.baseDelay * (1 << uint(attempt))
	if delay > rp.maxDelay {
		delay = rp.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay/2) + 1))
	return delay/2 + jitter
}
