package agent

import (
	"context"
	"sync"

	"github.com/coredrift/agentcore/internal/llm"
	"github.com/coredrift/agentcore/internal/tools"
)

const defaultMaxConcurrency = 4

// parallelExecutor runs a batch of already-approved, read-only tool calls
// concurrently with a bounded semaphore. Results preserve call order.
type parallelExecutor struct {
	registry       *tools.Registry
	maxConcurrency int
}

func newParallelExecutor(registry *tools.Registry, maxConcurrency int) *parallelExecutor {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &parallelExecutor{registry: registry, maxConcurrency: maxConcurrency}
}

func (pe *parallelExecutor) run(ctx context.Context, calls []llm.ToolUse) []toolResult {
	results := make([]toolResult, len(calls))
	sem := make(chan struct{}, pe.maxConcurrency)
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c llm.ToolUse) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := pe.registry.Execute(ctx, c.Name, c.Input)
			if err != nil {
				results[idx] = toolResult{ID: c.ID, Name: c.Name, Result: err.Error(), Error: true}
				return
			}
			results[idx] = toolResult{ID: c.ID, Name: c.Name, Result: result}
		}(i, call)
	}
	wg.Wait()
	return results
}
