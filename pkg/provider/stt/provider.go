// Package stt defines the Provider interface for speech-to-text backends.
//
// An STT provider wraps a transcription service (e.g., the OpenAI audio API,
// Deepgram's pre-recorded endpoint, or a local whisper.cpp server) and turns
// one recorded audio file into its transcript. The rate estimator only needs
// the words that were spoken and how long speaking them took, so the
// interface is batch-oriented: one file in, one [Transcript] out.
//
// Implementations must be safe for concurrent use and must not retry failed
// requests on their own.
package stt

import (
	"context"
	"time"
)

// Request identifies the audio to transcribe.
type Request struct {
	// Path is the local filesystem path of the audio sample.
	Path string

	// Language is an optional BCP-47 language hint (e.g., "en", "de").
	// Empty lets the provider auto-detect.
	Language string
}

// Transcript is the result of transcribing one audio sample.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// Duration is the spoken length of the audio as measured by the provider.
	// Zero when the provider does not report it; callers then fall back to
	// reading the duration from the file itself.
	Duration time.Duration

	// Language is the detected or requested language, if reported.
	Language string
}

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe reads the audio at req.Path and returns its transcript.
	//
	// Returns an error if the file cannot be read, the service rejects the
	// request, or ctx is cancelled.
	Transcribe(ctx context.Context, req Request) (*Transcript, error)
}
