// Package app wires configuration, providers and telemetry into the two
// readscript workflows: generating a reading script and estimating the
// operator's speaking rate.
//
// The App struct owns the lifecycle: New starts telemetry when configured,
// providers are built on first use, and Shutdown tears everything down in
// order.
//
// For testing, inject mock implementations via functional options
// (WithProviders, WithMetrics, WithClock). When an option is not provided,
// New builds real implementations from the config.
package app

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/config"
	"github.com/MrWong99/readscript/internal/observe"
	"github.com/MrWong99/readscript/internal/plan"
	"github.com/MrWong99/readscript/internal/prompt"
	"github.com/MrWong99/readscript/internal/rate"
	"github.com/MrWong99/readscript/internal/script"
)

// Version is reported in telemetry. Overridden at build time with -ldflags.
var Version = "dev"

// App owns all subsystem lifetimes for one command invocation.
type App struct {
	cfg *config.Config
	reg *config.Registry
	env *config.Env

	providers *Providers
	metrics   *observe.Metrics
	now       func() time.Time

	// closers are called in order during Shutdown.
	closers []func(context.Context) error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithProviders injects ready-made providers instead of building them from
// the config. Nil fields are still built on demand.
func WithProviders(p *Providers) Option {
	return func(a *App) { a.providers = p }
}

// WithRegistry sets the registry used to build providers. Default: a
// registry with every built-in provider.
func WithRegistry(reg *config.Registry) Option {
	return func(a *App) { a.reg = reg }
}

// WithEnv sets the environment used to resolve API keys.
func WithEnv(env *config.Env) Option {
	return func(a *App) { a.env = env }
}

// WithMetrics injects a metrics instance and disables the Prometheus
// endpoint.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithClock overrides the clock used for session and analysis timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New creates an App for cfg. When telemetry.metrics_addr is set and no
// metrics were injected, it installs the OTel providers and serves
// /metrics until Shutdown.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, providers: &Providers{}, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	if a.reg == nil {
		a.reg = config.NewRegistry()
		RegisterBuiltinProviders(a.reg)
	}
	if a.metrics == nil && cfg.Telemetry.MetricsAddr != "" {
		if err := a.initTelemetry(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) initTelemetry(ctx context.Context) error {
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: Version})
	if err != nil {
		return apperr.Wrap(err, apperr.Fatal, "init telemetry")
	}
	a.closers = append(a.closers, tel.Shutdown)
	a.metrics = observe.DefaultMetrics()

	srvCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := observe.Serve(srvCtx, a.cfg.Telemetry.MetricsAddr, a.metrics, tel.Gatherer); err != nil {
			slog.Error("metrics endpoint failed", "addr", a.cfg.Telemetry.MetricsAddr, "err", err)
		}
	}()
	// Stop the endpoint before flushing the providers.
	a.closers = slices.Insert(a.closers, 0, func(context.Context) error {
		cancel()
		<-done
		return nil
	})
	return nil
}

// Config returns the effective configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Metrics returns the metrics instance, or nil when telemetry is off.
func (a *App) Metrics() *observe.Metrics { return a.metrics }

// ── Generation ───────────────────────────────────────────────────────────────

// GenerateRequest holds the user's answers for one generation run. Zero
// values fall back to the config.
type GenerateRequest struct {
	Minutes      float64
	Chunks       int
	ChunkMinutes float64
	Style        string
	Topic        string

	// WPM overrides the configured speaking rate for this run.
	WPM float64

	// OutputDir overrides the configured output directory.
	OutputDir string
}

// Job is a validated generation run that has not started yet. It is
// returned separately from [App.Generate] so the caller can show the plan
// first.
type Job struct {
	Plan      *plan.Plan
	Style     prompt.Style
	Topic     string
	OutputDir string
}

// PlanGeneration validates req against the config and computes the chunk
// plan. No provider is contacted and nothing is written.
func (a *App) PlanGeneration(req GenerateRequest) (*Job, error) {
	style, err := prompt.ParseStyle(cmp.Or(req.Style, a.cfg.DefaultStyle))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.InvalidInput, "style")
	}
	if len(a.cfg.AvailableStyles) > 0 && !slices.Contains(a.cfg.AvailableStyles, style.String()) {
		slog.Warn("style is not in available_styles", "style", style, "available", a.cfg.AvailableStyles)
	}

	wpm := cmp.Or(req.WPM, a.cfg.WPM)
	p, err := plan.Build(plan.Request{
		TotalMinutes: req.Minutes,
		Chunks:       req.Chunks,
		ChunkMinutes: req.ChunkMinutes,
	}, wpm)
	if err != nil {
		return nil, err
	}
	for _, w := range p.Warnings {
		slog.Warn(w)
	}

	return &Job{
		Plan:      p,
		Style:     style,
		Topic:     req.Topic,
		OutputDir: cmp.Or(req.OutputDir, a.cfg.OutputDirectory),
	}, nil
}

// Generate runs job with the configured LLM provider. onChunk may be nil.
// On failure the returned result lists the files written so far.
func (a *App) Generate(ctx context.Context, job *Job, onChunk func(script.ChunkResult)) (*script.Result, error) {
	if err := a.ensureLLM(); err != nil {
		return nil, err
	}
	g := &script.Generator{
		LLM:          a.providers.LLM,
		ProviderName: a.providers.LLMName,
		Model:        a.providers.LLMModel,
		Metrics:      a.metrics,
		Now:          a.now,
		OnChunk:      onChunk,
	}
	temperature, _ := optFloat(a.cfg.Providers.LLM.Options, "temperature")
	return g.Generate(ctx, script.Request{
		Plan:        job.Plan,
		Style:       job.Style,
		Topic:       job.Topic,
		OutputDir:   job.OutputDir,
		Temperature: temperature,
	})
}

func (a *App) ensureLLM() error {
	if a.providers.LLM != nil {
		return nil
	}
	ps, err := BuildLLM(a.cfg, a.reg, a.env, a.metrics)
	if err != nil {
		return err
	}
	a.providers.LLM, a.providers.LLMName, a.providers.LLMModel = ps.LLM, ps.LLMName, ps.LLMModel
	return nil
}

// ── Rate estimation ──────────────────────────────────────────────────────────

// RateRequest overrides the rate section of the config for one run.
type RateRequest struct {
	SamplesDir   string
	Patterns     []string
	AnalysisFile string
}

// EstimateRate finds the recorded samples, measures them and writes the
// analysis record. The config is not modified; use [rate.Apply] and
// [config.Save] for that.
func (a *App) EstimateRate(ctx context.Context, req RateRequest) (*rate.Report, error) {
	dir := cmp.Or(req.SamplesDir, a.cfg.Rate.SamplesDir)
	patterns := req.Patterns
	if len(patterns) == 0 {
		patterns = a.cfg.Rate.Patterns
	}
	samples, err := rate.FindSamples(dir, patterns)
	if err != nil {
		return nil, err
	}
	slog.Info("found audio samples", "dir", dir, "count", len(samples))

	if a.providers.STT == nil {
		ps, err := BuildSTT(a.cfg, a.reg, a.env, a.metrics)
		if err != nil {
			return nil, err
		}
		a.providers.STT, a.providers.STTName = ps.STT, ps.STTName
	}
	est := &rate.Estimator{
		STT:          a.providers.STT,
		ProviderName: a.providers.STTName,
		Language:     a.cfg.Rate.Language,
		Metrics:      a.metrics,
		Now:          a.now,
	}
	report, err := est.Estimate(ctx, samples)
	if err != nil {
		return nil, err
	}

	if path := cmp.Or(req.AnalysisFile, a.cfg.Rate.AnalysisFile); path != "" {
		if err := rate.WriteAnalysis(path, report); err != nil {
			return report, apperr.Wrapf(err, apperr.Fatal, "write analysis %s", path)
		}
		slog.Info("analysis written", "path", path)
	}
	return report, nil
}

// Shutdown stops the metrics endpoint and flushes telemetry. It is safe to
// call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
	})
	return shutdownErr
}
