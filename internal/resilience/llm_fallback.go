package resilience

import (
	"context"

	"github.com/MrWong99/readscript/pkg/provider/llm"
)

// LLMFallback implements [llm.Provider] over a primary and its configured
// fallbacks, each behind its own circuit breaker.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional LLM provider.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Names returns the provider names in failover order.
func (f *LLMFallback) Names() []string { return f.group.Names() }

// Complete sends req to the first healthy provider. A fallback may receive a
// MaxTokens value larger than it supports; [LLMFallback.Capabilities] reports
// the smallest limit so callers can cap it up front.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return ExecuteWithResult(ctx, f.group, func(ctx context.Context, p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}

// Capabilities reports the primary's context window and the smallest non-zero
// output limit across all registered providers.
func (f *LLMFallback) Capabilities() llm.ModelCapabilities {
	if len(f.group.entries) == 0 {
		return llm.ModelCapabilities{}
	}
	caps := f.group.entries[0].value.Capabilities()
	for _, e := range f.group.entries[1:] {
		out := e.value.Capabilities().MaxOutputTokens
		if out > 0 && (caps.MaxOutputTokens == 0 || out < caps.MaxOutputTokens) {
			caps.MaxOutputTokens = out
		}
	}
	return caps
}
