package resilience

import (
	"context"
	"fmt"

	"github.com/MrWong99/fretscribe/pkg/provider/llm"
)

// LLMFallback implements [llm.Provider] with failover across several model
// backends, each behind its own circuit breaker.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional backend.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Complete sends req to the first healthy backend. Once ctx is done the
// remaining backends are skipped without touching their breakers. When every
// backend fails the returned error wraps [ErrAllFailed] and the last
// backend's error.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return ExecuteWithResult(f.group, func(p llm.Provider) (*llm.CompletionResponse, error) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", errSkipped, err)
		}
		return p.Complete(ctx, req)
	})
}

// Model returns the primary backend's model.
func (f *LLMFallback) Model() string {
	return f.group.entries[0].value.Model()
}

// Backends returns the backend names in try order.
func (f *LLMFallback) Backends() []string { return f.group.Names() }

// Healthy reports whether any backend's breaker admits calls.
func (f *LLMFallback) Healthy() bool { return f.group.Healthy() }
