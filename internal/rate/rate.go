// Package rate estimates a speaker's reading rate in words per minute from
// recorded audio samples.
package rate

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/audiofile"
	"github.com/MrWong99/readscript/internal/observe"
	"github.com/MrWong99/readscript/pkg/provider/stt"
)

// DurationFunc measures the spoken duration of an audio file.
type DurationFunc func(path string) (time.Duration, error)

// Sample is the measurement for one successfully analysed audio file.
type Sample struct {
	Path       string
	Duration   time.Duration
	Words      int
	WPM        float64
	Transcript string
}

// Skipped records a sample that could not be measured.
type Skipped struct {
	Path   string
	Reason string
}

// Report aggregates the measurements of one estimation run.
//
// TotalWords and TotalSeconds sum over the measured samples only.
type Report struct {
	Samples      []Sample
	Skipped      []Skipped
	AverageWPM   float64
	TotalWords   int
	TotalSeconds float64
	AnalyzedAt   time.Time
}

// Recommended is the average rate rounded to the nearest whole word.
func (r *Report) Recommended() float64 {
	return math.Round(r.AverageWPM)
}

// Estimator turns audio samples into a [Report].
type Estimator struct {
	// STT transcribes each sample. Required.
	STT stt.Provider

	// ProviderName labels metrics. Optional.
	ProviderName string

	// Language is passed to the transcriber; empty lets it detect.
	Language string

	// Durations measures a sample when the transcriber does not report a
	// duration. Default: [audiofile.Duration].
	Durations DurationFunc

	// Metrics records per-sample latency and outcome. Optional.
	Metrics *observe.Metrics

	// Now overrides the clock used for Report.AnalyzedAt. Default: time.Now.
	Now func() time.Time
}

// Estimate transcribes samples one at a time and aggregates their rates.
//
// A sample whose transcription fails, or which yields no words or no
// duration, is skipped with a warning. If no sample can be measured the
// result is [apperr.Fatal]; an empty input is [apperr.NotFound].
func (e *Estimator) Estimate(ctx context.Context, samples []string) (_ *Report, err error) {
	if len(samples) == 0 {
		return nil, apperr.New(apperr.NotFound, "no audio samples to analyse")
	}
	if e.STT == nil {
		return nil, apperr.New(apperr.Fatal, "rate: no transcription provider configured")
	}
	ctx, span := observe.StartSpan(ctx, "rate.estimate")
	defer func() { observe.EndSpan(span, err) }()
	log := observe.Logger(ctx)

	report := &Report{}
	for i, path := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info("analysing sample", "file", filepath.Base(path), "index", i+1, "total", len(samples))

		s, err := e.measure(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("skipping sample", "file", filepath.Base(path), "err", err)
			report.Skipped = append(report.Skipped, Skipped{Path: path, Reason: err.Error()})
			continue
		}
		log.Info("sample measured",
			"file", filepath.Base(path),
			"duration", s.Duration.Round(100*time.Millisecond),
			"words", s.Words,
			"wpm", fmt.Sprintf("%.1f", s.WPM),
		)
		report.Samples = append(report.Samples, *s)
	}

	if len(report.Samples) == 0 {
		return nil, apperr.Newf(apperr.Fatal, "all %d audio samples failed to analyse", len(samples))
	}
	if len(report.Skipped) > 0 {
		names := make([]string, len(report.Skipped))
		for i, s := range report.Skipped {
			names[i] = filepath.Base(s.Path)
		}
		log.Warn("some samples were skipped",
			"skipped", strings.Join(names, ", "),
			"analysed", len(report.Samples),
		)
	}

	var sum float64
	for _, s := range report.Samples {
		sum += s.WPM
		report.TotalWords += s.Words
		report.TotalSeconds += s.Duration.Seconds()
	}
	report.AverageWPM = sum / float64(len(report.Samples))
	report.AnalyzedAt = e.now()
	return report, nil
}

func (e *Estimator) measure(ctx context.Context, path string) (s *Sample, err error) {
	ctx, span := observe.StartSpan(ctx, "rate.sample")
	defer func() { observe.EndSpan(span, err) }()

	start := time.Now()
	tr, err := e.STT.Transcribe(ctx, stt.Request{Path: path, Language: e.Language})
	e.record(ctx, time.Since(start), err)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CollaboratorFailure, "transcription failed")
	}
	if tr == nil {
		return nil, apperr.New(apperr.CollaboratorFailure, "transcriber returned no result")
	}

	dur := tr.Duration
	if dur <= 0 {
		dur, err = e.durations()(path)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.InvalidInput, "measure duration")
		}
	}
	if dur <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "sample has zero duration")
	}

	text := strings.TrimSpace(tr.Text)
	words := CountWords(text)
	if words == 0 {
		return nil, apperr.New(apperr.InvalidInput, "transcript is empty")
	}

	return &Sample{
		Path:       path,
		Duration:   dur,
		Words:      words,
		WPM:        WPM(words, dur),
		Transcript: text,
	}, nil
}

func (e *Estimator) record(ctx context.Context, d time.Duration, err error) {
	if e.Metrics == nil {
		return
	}
	name := e.ProviderName
	if name == "" {
		name = "unknown"
	}
	e.Metrics.STTDuration.Record(ctx, d.Seconds())
	status := "ok"
	if err != nil {
		status = "error"
		e.Metrics.RecordProviderError(ctx, name, observe.KindSTT)
	}
	e.Metrics.RecordProviderRequest(ctx, name, observe.KindSTT, status)
}

func (e *Estimator) durations() DurationFunc {
	if e.Durations != nil {
		return e.Durations
	}
	return audiofile.Duration
}

func (e *Estimator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// WPM is words divided by the duration in minutes. A non-positive duration
// yields 0.
func WPM(words int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(words) / d.Minutes()
}
