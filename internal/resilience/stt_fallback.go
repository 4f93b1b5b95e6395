package resilience

import (
	"context"

	"github.com/MrWong99/readscript/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] over a primary and its configured
// fallbacks, each behind its own circuit breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional STT provider.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Transcribe sends req to the first healthy provider.
func (f *STTFallback) Transcribe(ctx context.Context, req stt.Request) (*stt.Transcript, error) {
	return ExecuteWithResult(ctx, f.group, func(ctx context.Context, p stt.Provider) (*stt.Transcript, error) {
		return p.Transcribe(ctx, req)
	})
}
