package llm

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/coredrift/agentcore/internal/config"
	"github.com/coredrift/agentcore/internal/logging"
	"golang.org/x/time/rate"
)

// TokenEstimator estimates token counts for rate limiting.
type TokenEstimator struct{}

// NewTokenEstimator creates a new token estimator.
func NewTokenEstimator() *TokenEstimator {
	return &TokenEstimator{}
}

// EstimateTokens estimates the number of tokens in a string.
// Uses a rough approximation: chars/4 + 20% buffer.
func (e *TokenEstimator) EstimateTokens(text string) int {
	baseEstimate := len(text) / 4
	return int(float64(baseEstimate) * 1.2)
}

// EstimateMessages estimates tokens for a slice of messages.
func (e *TokenEstimator) EstimateMessages(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += 4 // message structure overhead
		for _, b := range msg.Content {
			switch b.Type {
			case BlockText:
				total += e.EstimateTokens(b.Text)
			case BlockToolUse:
				if b.ToolUse != nil {
					total += e.EstimateTokens(b.ToolUse.Name) + 20
				}
			case BlockToolResult:
				if b.ToolResult != nil {
					total += e.EstimateTokens(b.ToolResult.Content)
				}
			}
		}
	}
	return total
}

// WaitInfo contains information about a rate limit wait.
type WaitInfo struct {
	Duration    time.Duration
	Reason      string
	Attempt     int
	MaxAttempts int
}

// WaitCallback is called when the client needs to wait due to rate limiting.
type WaitCallback func(ctx context.Context, info WaitInfo) error

// TokenBucket implements a token bucket rate limiter.
type TokenBucket struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	onWait  WaitCallback
}

// NewTokenBucket creates a new token bucket rate limiter.
// tokensPerMinute is converted to tokens per second for the limiter.
func NewTokenBucket(tokensPerMinute int) *TokenBucket {
	tokensPerSecond := float64(tokensPerMinute) / 60.0
	burstSize := tokensPerMinute / 6
	if burstSize < 1000 {
		burstSize = 1000
	}

	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(tokensPerSecond), burstSize),
	}
}

// SetWaitCallback sets a callback to be invoked when waiting for tokens.
func (tb *TokenBucket) SetWaitCallback(cb WaitCallback) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.onWait = cb
}

// Wait blocks until the specified number of tokens are available.
func (tb *TokenBucket) Wait(ctx context.Context, tokens int) error {
	tb.mu.Lock()
	onWait := tb.onWait
	tb.mu.Unlock()

	reservation := tb.limiter.ReserveN(time.Now(), tokens)
	if !reservation.OK() {
		logging.Debug("rate limit: tokens exceed burst size, waiting for availability")
	}

	delay := reservation.Delay()
	if delay > 0 {
		logging.Debug("rate limit: waiting for tokens", logging.Duration(delay), logging.Tokens(tokens))

		if onWait != nil {
			if err := onWait(ctx, WaitInfo{Duration: delay, Reason: "token bucket cooldown"}); err != nil {
				reservation.Cancel()
				return err
			}
			return nil
		}

		select {
		case <-time.After(delay):
			return nil
		case <-ctx.Done():
			reservation.Cancel()
			return ctx.Err()
		}
	}

	return nil
}

// RateLimitedProvider wraps an AnthropicProvider with token-bucket rate limiting
// and 429-aware retry, on top of whatever ResilientProvider already provides.
type RateLimitedProvider struct {
	*AnthropicProvider
	tokenBucket *TokenBucket
	estimator   *TokenEstimator
	cfg         *config.RateLimitConfig
	onWait      WaitCallback
}

// NewRateLimitedProvider creates a new rate-limited provider wrapper.
func NewRateLimitedProvider(inner *AnthropicProvider, cfg *config.RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		AnthropicProvider: inner,
		tokenBucket:       NewTokenBucket(cfg.TokensPerMinute),
		estimator:         NewTokenEstimator(),
		cfg:               cfg,
	}
}

// SetWaitCallback sets a callback invoked when waiting due to rate limiting.
func (p *RateLimitedProvider) SetWaitCallback(cb WaitCallback) {
	p.onWait = cb
	p.tokenBucket.SetWaitCallback(cb)
}

// ProcessQuery sends a request with rate limiting and 429-aware retry.
func (p *RateLimitedProvider) ProcessQuery(ctx context.Context, req Request) (*Response, error) {
	estimatedTokens := p.estimateTokens(req)
	logging.Debug("rate limit: estimated tokens for request", logging.Tokens(estimatedTokens))

	if err := p.tokenBucket.Wait(ctx, estimatedTokens); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.calculateBackoff(attempt)
			logging.Debug("rate limit: retrying request", logging.Iteration(attempt), logging.Duration(delay))

			if p.onWait != nil {
				if err := p.onWait(ctx, WaitInfo{Duration: delay, Reason: "API returned 429", Attempt: attempt, MaxAttempts: p.cfg.MaxRetries}); err != nil {
					return nil, err
				}
			} else {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}

		resp, err := p.AnthropicProvider.ProcessQuery(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !isRateLimitError(err) {
			return nil, err
		}
		logging.Warn("rate limit hit", logging.Iteration(attempt+1))
	}

	return nil, lastErr
}

// ProcessQueryStream sends a request with rate limiting and streams the response.
func (p *RateLimitedProvider) ProcessQueryStream(ctx context.Context, req Request) <-chan StreamChunk {
	ch := make(chan StreamChunk, 100)

	go func() {
		defer close(ch)

		estimatedTokens := p.estimateTokens(req)
		if err := p.tokenBucket.Wait(ctx, estimatedTokens); err != nil {
			ch <- StreamChunk{Type: "error", Error: err}
			return
		}

		var lastErr error
		for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
			if attempt > 0 {
				delay := p.calculateBackoff(attempt)
				if p.onWait != nil {
					if err := p.onWait(ctx, WaitInfo{Duration: delay, Reason: "API returned 429", Attempt: attempt, MaxAttempts: p.cfg.MaxRetries}); err != nil {
						ch <- StreamChunk{Type: "error", Error: err}
						return
					}
				} else {
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						ch <- StreamChunk{Type: "error", Error: ctx.Err()}
						return
					}
				}
			}

			stream := p.AnthropicProvider.ProcessQueryStream(ctx, req)

			gotError := false
			for chunk := range stream {
				if chunk.Type == "error" && chunk.Error != nil {
					if isRateLimitError(chunk.Error) {
						lastErr = chunk.Error
						gotError = true
						break
					}
					ch <- chunk
					return
				}
				ch <- chunk
			}

			if !gotError {
				return
			}
		}

		if lastErr != nil {
			ch <- StreamChunk{Type: "error", Error: lastErr}
		}
	}()

	return ch
}

func (p *RateLimitedProvider) estimateTokens(req Request) int {
	estimated := p.estimator.EstimateMessages(req.Messages)
	estimated += p.estimator.EstimateTokens(req.SystemPrompt)
	estimated += len(req.Tools) * 100
	return estimated
}

// calculateBackoff calculates the backoff delay for a retry attempt using
// exponential backoff with jitter.
func (p *RateLimitedProvider) calculateBackoff(attempt int) time.Duration {
	backoff := float64(p.cfg.BaseDelay) * math.Pow(2, float64(attempt-1))
	jitter := backoff * 0.25 * rand.Float64()
	backoff += jitter

	if backoff > float64(p.cfg.MaxDelay) {
		backoff = float64(p.cfg.MaxDelay)
	}

	return time.Duration(backoff)
}

// isRateLimitError checks if an error is a rate limit (429) error.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(strings.ToLower(errStr), "rate limit") ||
		strings.Contains(strings.ToLower(errStr), "too many requests")
}
