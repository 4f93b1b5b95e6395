// Package mock provides a test double for the stt.Provider interface.
//
// Results and errors can be keyed by file path, which makes it easy to
// simulate one unreadable sample among several good ones:
//
//	p := &mock.Provider{
//	    Results: map[string]*stt.Transcript{"a.mp3": {Text: "one two", Duration: time.Second}},
//	    Errors:  map[string]error{"b.mp3": errors.New("corrupt")},
//	}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/readscript/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Req is the Request passed to Transcribe.
	Req stt.Request
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Results maps a request path to the transcript returned for it.
	Results map[string]*stt.Transcript

	// Errors maps a request path to the error returned for it. Checked
	// before Results.
	Errors map[string]error

	// Default is returned for paths found in neither map. May be nil.
	Default *stt.Transcript

	// DefaultErr is returned for paths found in neither map when Default is nil.
	DefaultErr error

	// TranscribeCalls records every call to Transcribe in order.
	TranscribeCalls []TranscribeCall
}

var _ stt.Provider = (*Provider)(nil)

// Transcribe records the call and returns the configured result for req.Path.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (*stt.Transcript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Req: req})

	if err, ok := p.Errors[req.Path]; ok {
		return nil, err
	}
	if tr, ok := p.Results[req.Path]; ok {
		out := *tr
		return &out, nil
	}
	if p.Default != nil {
		out := *p.Default
		return &out, nil
	}
	return nil, p.DefaultErr
}

// CallCount returns the number of recorded Transcribe calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TranscribeCalls)
}
