// Package plan converts a requested recording duration into an ordered list
// of chunks, each with a target length in minutes and words.
package plan

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/MrWong99/readscript/internal/apperr"
)

// epsilon absorbs floating-point noise when comparing minute values.
const epsilon = 1e-9

// Upper bounds on a single plan. A million words is well over a hundred
// hours of reading.
const (
	MaxChunks = 1000
	MaxWords  = 1_000_000
)

// Request describes the chunking parameters of a generation run. At most one
// of Chunks and ChunkMinutes is authoritative; Chunks wins when both are set.
type Request struct {
	// TotalMinutes is the requested total reading time. Must be ≥ 1.
	TotalMinutes float64

	// Chunks is an explicit chunk count. Zero means unset.
	Chunks int

	// ChunkMinutes is the desired duration of each chunk. Zero means unset.
	ChunkMinutes float64
}

// Entry is one planned chunk.
type Entry struct {
	// Index is the 1-based position of the chunk.
	Index int

	// Minutes is the target reading time of the chunk.
	Minutes float64

	// Words is round(Minutes × WPM).
	Words int
}

// Plan is the full chunk layout for a request.
type Plan struct {
	Entries      []Entry
	TotalMinutes float64
	WPM          float64

	// Warnings holds non-fatal observations about the plan, such as chunks
	// that are shorter than a minute.
	Warnings []string
}

// TotalWords returns the sum of all per-chunk word targets.
func (p *Plan) TotalWords() int {
	total := 0
	for _, e := range p.Entries {
		total += e.Words
	}
	return total
}

// Len returns the number of chunks.
func (p *Plan) Len() int { return len(p.Entries) }

// Words returns the word target for a chunk of the given length.
func Words(minutes, wpm float64) int {
	return int(math.Round(minutes * wpm))
}

// Build computes the chunk plan for req at the given speaking rate.
// Invalid parameters yield an [apperr.InvalidInput] error.
func Build(req Request, wpm float64) (*Plan, error) {
	if err := validate(req, wpm); err != nil {
		return nil, err
	}

	var minutes []float64
	switch {
	case req.Chunks >= 1:
		if req.ChunkMinutes > 0 {
			slog.Debug("chunk count and chunk duration both set, using chunk count",
				"chunks", req.Chunks, "chunk_minutes", req.ChunkMinutes)
		}
		minutes = splitEven(req.TotalMinutes, req.Chunks)
	case req.ChunkMinutes > 0:
		minutes = splitFixed(req.TotalMinutes, req.ChunkMinutes)
	default:
		minutes = []float64{req.TotalMinutes}
	}

	p := &Plan{
		Entries:      make([]Entry, len(minutes)),
		TotalMinutes: req.TotalMinutes,
		WPM:          wpm,
	}
	for i, m := range minutes {
		p.Entries[i] = Entry{Index: i + 1, Minutes: m, Words: Words(m, wpm)}
	}

	if float64(len(minutes)) > req.TotalMinutes {
		p.Warnings = append(p.Warnings, fmt.Sprintf(
			"%d chunks for %.4g minutes: chunks may be very short", len(minutes), req.TotalMinutes))
	}
	for _, e := range p.Entries {
		if e.Words < 1 {
			return nil, apperr.Newf(apperr.InvalidInput,
				"chunk %d would contain no words at %g WPM; use fewer chunks", e.Index, wpm)
		}
	}
	return p, nil
}

func validate(req Request, wpm float64) error {
	switch {
	case math.IsNaN(req.TotalMinutes) || math.IsInf(req.TotalMinutes, 0):
		return apperr.New(apperr.InvalidInput, "duration must be a finite number of minutes")
	case req.TotalMinutes < 1:
		return apperr.Newf(apperr.InvalidInput,
			"duration must be at least 1 minute, got %g", req.TotalMinutes)
	case !(wpm > 0) || math.IsInf(wpm, 0):
		return apperr.Newf(apperr.InvalidInput, "words per minute must be positive, got %g", wpm)
	case req.Chunks < 0:
		return apperr.Newf(apperr.InvalidInput, "chunk count must be at least 1, got %d", req.Chunks)
	case math.IsNaN(req.ChunkMinutes) || req.ChunkMinutes < 0:
		return apperr.Newf(apperr.InvalidInput, "chunk duration must be positive, got %g", req.ChunkMinutes)
	}
	if req.Chunks == 0 && req.ChunkMinutes > req.TotalMinutes+epsilon {
		return apperr.Newf(apperr.InvalidInput,
			"chunk duration %g exceeds total duration %g", req.ChunkMinutes, req.TotalMinutes)
	}
	// Both bounds are checked in float64, before any int conversion.
	if words := req.TotalMinutes * wpm; words > MaxWords {
		return apperr.Newf(apperr.InvalidInput,
			"%g minutes at %g WPM is %.0f words, at most %d are supported", req.TotalMinutes, wpm, words, MaxWords)
	}
	if c := chunkCount(req); c > MaxChunks {
		return apperr.Newf(apperr.InvalidInput, "%.0f chunks requested, at most %d are supported", c, MaxChunks)
	}
	return nil
}

// chunkCount is the number of chunks req asks for.
func chunkCount(req Request) float64 {
	switch {
	case req.Chunks >= 1:
		return float64(req.Chunks)
	case req.ChunkMinutes > 0:
		return math.Ceil(req.TotalMinutes/req.ChunkMinutes - epsilon)
	default:
		return 1
	}
}

// splitEven divides total into n equal parts; the last part absorbs the
// floating-point remainder so the parts sum to total.
func splitEven(total float64, n int) []float64 {
	size := total / float64(n)
	out := make([]float64, n)
	for i := range n - 1 {
		out[i] = size
	}
	out[n-1] = total - size*float64(n-1)
	return out
}

// splitFixed cuts total into parts of length size with a shorter, non-zero
// trailing part when total is not a multiple of size.
func splitFixed(total, size float64) []float64 {
	n := int(math.Ceil(total/size - epsilon))
	if n < 1 {
		n = 1
	}
	last := total - size*float64(n-1)
	if last <= epsilon && n > 1 {
		n--
		last = total - size*float64(n-1)
	}
	out := make([]float64, n)
	for i := range n - 1 {
		out[i] = size
	}
	out[n-1] = last
	return out
}
