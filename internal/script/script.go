// Package script drives a generation run: one completion request per planned
// chunk, each reply written to the session directory as soon as it arrives.
package script

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/observe"
	"github.com/MrWong99/readscript/internal/plan"
	"github.com/MrWong99/readscript/internal/prompt"
	"github.com/MrWong99/readscript/internal/session"
	"github.com/MrWong99/readscript/pkg/provider/llm"
)

// DeviationThreshold is the relative difference between the target and the
// generated word count above which a warning is logged.
const DeviationThreshold = 0.20

// Request describes one generation run.
type Request struct {
	Plan  *plan.Plan
	Style prompt.Style

	// Topic optionally constrains the subject matter.
	Topic string

	// OutputDir is the root under which the session directory is created.
	OutputDir string

	// Temperature is forwarded to the provider. Zero leaves the provider
	// default in place.
	Temperature float64
}

// ChunkResult describes one written chunk.
type ChunkResult struct {
	Index       int
	File        string
	TargetWords int
	Words       int
	Duration    time.Duration
}

// Deviation is the relative difference between Words and TargetWords.
func (c ChunkResult) Deviation() float64 {
	if c.TargetWords == 0 {
		return 0
	}
	return math.Abs(float64(c.Words-c.TargetWords)) / float64(c.TargetWords)
}

// Result summarises a completed run.
type Result struct {
	Dir              string
	SessionID        string
	Files            []string
	Chunks           []ChunkResult
	TotalWords       int
	EstimatedMinutes float64
}

// Generator produces reading scripts with an [llm.Provider].
type Generator struct {
	// LLM generates the chunk text. Required.
	LLM llm.Provider

	// ProviderName and Model are recorded in the session metadata and used
	// as metric labels.
	ProviderName string
	Model        string

	// Metrics is optional.
	Metrics *observe.Metrics

	// Now overrides the clock. Default: time.Now.
	Now func() time.Time

	// OnChunk, when set, is called after each chunk file is written.
	OnChunk func(ChunkResult)
}

// Generate runs req chunk by chunk. It stops at the first failure and leaves
// already written chunk files in place; metadata is only written once every
// chunk succeeded.
func (g *Generator) Generate(ctx context.Context, req Request) (res *Result, err error) {
	if err := g.check(req); err != nil {
		return nil, err
	}

	ctx, span := observe.StartSpan(ctx, "script.generate")
	defer func() { observe.EndSpan(span, err) }()
	log := observe.Logger(ctx)

	w, err := session.New(req.OutputDir, g.now())
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Fatal, "create session directory")
	}
	log.Info("session started", "dir", w.Dir(), "session_id", w.ID(), "chunks", req.Plan.Len())

	meta := &session.Metadata{
		SessionID:             w.ID(),
		GeneratedAt:           w.CreatedAt(),
		Style:                 req.Style.String(),
		Topic:                 req.Topic,
		TargetDurationMinutes: req.Plan.TotalMinutes,
		WPMUsed:               req.Plan.WPM,
		Provider:              g.ProviderName,
		Model:                 g.Model,
	}
	res = &Result{Dir: w.Dir(), SessionID: w.ID()}
	total := req.Plan.Len()
	partial := func(err error) (*Result, error) {
		res.Files = w.Files()
		return res, err
	}

	for _, entry := range req.Plan.Entries {
		if err := ctx.Err(); err != nil {
			return partial(err)
		}

		started := g.now()
		text, elapsed, err := g.chunk(ctx, req, entry, total)
		if err != nil {
			return partial(err)
		}
		name, err := w.WriteChunk(entry.Index, total, text+"\n")
		if err != nil {
			return partial(apperr.Wrapf(err, apperr.Fatal, "chunk %d", entry.Index))
		}

		cr := ChunkResult{
			Index:       entry.Index,
			File:        name,
			TargetWords: entry.Words,
			Words:       len(strings.Fields(text)),
			Duration:    elapsed,
		}
		if dev := cr.Deviation(); dev > DeviationThreshold {
			log.Warn("chunk length differs from target",
				"chunk", cr.Index,
				"target_words", cr.TargetWords,
				"actual_words", cr.Words,
				"deviation", fmt.Sprintf("%.0f%%", dev*100),
			)
		}
		if g.Metrics != nil {
			g.Metrics.RecordChunk(ctx, req.Style.String(), cr.Words)
		}

		res.Chunks = append(res.Chunks, cr)
		res.TotalWords += cr.Words
		meta.Chunks = append(meta.Chunks, session.ChunkRecord{
			File:                     name,
			TargetMinutes:            entry.Minutes,
			TargetWordCount:          entry.Words,
			ActualWordCount:          cr.Words,
			EstimatedDurationMinutes: session.EstimateMinutes(cr.Words, req.Plan.WPM),
			StartedAt:                started,
			FinishedAt:               g.now(),
		})
		if g.OnChunk != nil {
			g.OnChunk(cr)
		}
	}

	meta.Finalize()
	if err := w.WriteMetadata(meta); err != nil {
		return partial(apperr.Wrap(err, apperr.Fatal, "write session metadata"))
	}
	res.Files = w.Files()
	res.EstimatedMinutes = meta.Totals.EstimatedTotalDurationMinutes
	log.Info("session complete",
		"dir", res.Dir,
		"total_words", res.TotalWords,
		"estimated_minutes", res.EstimatedMinutes,
	)
	return res, nil
}

// check rejects requests that would fail part-way through, before anything
// is written.
func (g *Generator) check(req Request) error {
	if g.LLM == nil {
		return apperr.New(apperr.Fatal, "script: no text-generation provider configured")
	}
	if req.Plan == nil || req.Plan.Len() == 0 {
		return apperr.New(apperr.InvalidInput, "script: empty plan")
	}
	if !req.Style.IsValid() {
		return apperr.Newf(apperr.InvalidInput, "unknown style %q", req.Style)
	}
	for _, e := range req.Plan.Entries {
		if e.Words < 1 {
			return apperr.Newf(apperr.InvalidInput,
				"chunk %d would contain no words; use fewer chunks", e.Index)
		}
	}
	return nil
}

// chunk requests and returns the trimmed text of one plan entry.
func (g *Generator) chunk(ctx context.Context, req Request, e plan.Entry, total int) (text string, elapsed time.Duration, err error) {
	ctx, span := observe.StartSpan(ctx, "script.chunk")
	defer func() { observe.EndSpan(span, err) }()

	body, err := prompt.Build(prompt.Params{
		Style:       req.Style,
		Topic:       req.Topic,
		TargetWords: e.Words,
		Part:        e.Index,
		TotalParts:  total,
	})
	if err != nil {
		return "", 0, apperr.Wrapf(err, apperr.InvalidInput, "chunk %d", e.Index)
	}

	creq := llm.CompletionRequest{
		SystemPrompt: prompt.SystemPrompt,
		Messages:     []llm.Message{llm.UserMessage(body)},
		Temperature:  req.Temperature,
		MaxTokens:    g.maxTokens(e.Words),
	}

	observe.Logger(ctx).Info("generating chunk", "chunk", e.Index, "total", total, "target_words", e.Words)
	start := time.Now()
	resp, err := g.LLM.Complete(ctx, creq)
	elapsed = time.Since(start)
	g.record(ctx, elapsed, err)
	if err != nil {
		if ctx.Err() != nil {
			return "", elapsed, ctx.Err()
		}
		return "", elapsed, apperr.Wrapf(err, apperr.CollaboratorFailure, "generate chunk %d of %d", e.Index, total)
	}

	if resp != nil {
		text = strings.TrimSpace(resp.Content)
	}
	if text == "" {
		return "", elapsed, apperr.Newf(apperr.CollaboratorFailure,
			"generate chunk %d of %d: provider returned no text", e.Index, total)
	}
	return text, elapsed, nil
}

func (g *Generator) maxTokens(words int) int {
	n := prompt.MaxTokens(words)
	if limit := g.LLM.Capabilities().MaxOutputTokens; limit > 0 && n > limit {
		return limit
	}
	return n
}

func (g *Generator) record(ctx context.Context, d time.Duration, err error) {
	if g.Metrics == nil {
		return
	}
	name := g.ProviderName
	if name == "" {
		name = "unknown"
	}
	g.Metrics.LLMDuration.Record(ctx, d.Seconds())
	status := "ok"
	if err != nil {
		status = "error"
		g.Metrics.RecordProviderError(ctx, name, observe.KindLLM)
	}
	g.Metrics.RecordProviderRequest(ctx, name, observe.KindLLM, status)
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
