// Package openai provides an STT provider backed by the OpenAI audio
// transcription API (POST /v1/audio/transcriptions).
//
// With the whisper-1 model the provider requests the verbose_json format,
// which reports the audio duration alongside the text. Newer models such as
// gpt-4o-transcribe only return plain JSON; the transcript then carries no
// duration and callers measure it from the file.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/readscript/pkg/provider/stt"
)

const defaultModel = oai.AudioModelWhisper1

var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for Provider.
type Option func(*Provider)

// WithModel selects the transcription model (e.g., "whisper-1",
// "gpt-4o-transcribe").
func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = oai.AudioModel(model)
		}
	}
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.timeout = d
	}
}

// Provider implements stt.Provider using the OpenAI API.
type Provider struct {
	client  oai.Client
	model   oai.AudioModel
	baseURL string
	timeout time.Duration
}

// New constructs a new OpenAI transcription Provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	p := &Provider{model: defaultModel}
	for _, o := range opts {
		o(p)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(p.baseURL))
	}
	if p.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: p.timeout}))
	}
	p.client = oai.NewClient(reqOpts...)
	return p, nil
}

// verboseFields are the verbose_json extras not modelled by the SDK type.
type verboseFields struct {
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (*stt.Transcript, error) {
	f, err := os.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("openai: open %q: %w", req.Path, err)
	}
	defer f.Close()

	params := oai.AudioTranscriptionNewParams{
		File:           f,
		Model:          p.model,
		ResponseFormat: oai.AudioResponseFormatJSON,
	}
	if p.supportsVerbose() {
		params.ResponseFormat = oai.AudioResponseFormatVerboseJSON
	}
	if req.Language != "" {
		params.Language = oai.String(req.Language)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: transcribe %q: %w", req.Path, err)
	}

	tr := &stt.Transcript{Text: strings.TrimSpace(resp.Text), Language: req.Language}
	if raw := resp.RawJSON(); raw != "" {
		var extra verboseFields
		if err := json.Unmarshal([]byte(raw), &extra); err == nil {
			tr.Duration = time.Duration(extra.Duration * float64(time.Second))
			if extra.Language != "" {
				tr.Language = extra.Language
			}
		}
	}
	return tr, nil
}

func (p *Provider) supportsVerbose() bool {
	return p.model == oai.AudioModelWhisper1
}
