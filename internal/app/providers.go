package app

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/config"
	"github.com/MrWong99/readscript/internal/observe"
	"github.com/MrWong99/readscript/internal/resilience"
	"github.com/MrWong99/readscript/pkg/provider/llm"
	"github.com/MrWong99/readscript/pkg/provider/llm/anyllm"
	oaillm "github.com/MrWong99/readscript/pkg/provider/llm/openai"
	"github.com/MrWong99/readscript/pkg/provider/stt"
	"github.com/MrWong99/readscript/pkg/provider/stt/deepgram"
	oaistt "github.com/MrWong99/readscript/pkg/provider/stt/openai"
	"github.com/MrWong99/readscript/pkg/provider/stt/whisper"
)

// Providers holds the constructed collaborators. A nil field means the
// command does not need that kind.
type Providers struct {
	LLM      llm.Provider
	LLMName  string
	LLMModel string

	STT     stt.Provider
	STTName string
}

// RegisterBuiltinProviders wires all built-in provider factories into reg.
func RegisterBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai goes through the official SDK; every other hosted or local
	// backend goes through any-llm-go.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, oaillm.WithOrganization(org))
		}
		if d, ok := optTimeout(entry.Options); ok {
			opts = append(opts, oaillm.WithTimeout(d))
		}
		return oaillm.New(entry.APIKey, cmp.Or(entry.Model, "gpt-4o-mini"), opts...)
	})

	for _, name := range anyllm.Backends {
		if name == "openai" {
			continue
		}
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" && anyllm.RequiresAPIKey(name) {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(name, entry.Model, opts...)
		})
	}

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []oaistt.Option
		if entry.Model != "" {
			opts = append(opts, oaistt.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, oaistt.WithBaseURL(entry.BaseURL))
		}
		if d, ok := optTimeout(entry.Options); ok {
			opts = append(opts, oaistt.WithTimeout(d))
		}
		return oaistt.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithEndpoint(entry.BaseURL))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	slog.Debug("registered providers", "llm", reg.LLMNames(), "stt", reg.STTNames())
}

// BuildLLM creates the configured LLM provider. When fallbacks are
// configured the result is an [resilience.LLMFallback] over all of them.
func BuildLLM(cfg *config.Config, reg *config.Registry, env *config.Env, m *observe.Metrics) (*Providers, error) {
	primary, err := createLLM(cfg.Providers.LLM, reg, env)
	if err != nil {
		return nil, err
	}
	ps := &Providers{LLM: primary, LLMName: cfg.Providers.LLM.Name, LLMModel: cfg.Providers.LLM.Model}
	if len(cfg.Providers.LLMFallbacks) == 0 {
		return ps, nil
	}

	fb := resilience.NewLLMFallback(primary, cfg.Providers.LLM.Name, failoverConfig(m, observe.KindLLM))
	for _, entry := range cfg.Providers.LLMFallbacks {
		p, err := createLLM(entry, reg, env)
		if err != nil {
			return nil, err
		}
		fb.AddFallback(entry.Name, p)
	}
	slog.Info("llm failover enabled", "order", fb.Names())
	ps.LLM = fb
	return ps, nil
}

// BuildSTT creates the configured STT provider, wrapped for failover when
// fallbacks are configured.
func BuildSTT(cfg *config.Config, reg *config.Registry, env *config.Env, m *observe.Metrics) (*Providers, error) {
	primary, err := createSTT(cfg.Providers.STT, reg, env)
	if err != nil {
		return nil, err
	}
	ps := &Providers{STT: primary, STTName: cfg.Providers.STT.Name}
	if len(cfg.Providers.STTFallbacks) == 0 {
		return ps, nil
	}

	fb := resilience.NewSTTFallback(primary, cfg.Providers.STT.Name, failoverConfig(m, observe.KindSTT))
	for _, entry := range cfg.Providers.STTFallbacks {
		p, err := createSTT(entry, reg, env)
		if err != nil {
			return nil, err
		}
		fb.AddFallback(entry.Name, p)
	}
	ps.STT = fb
	return ps, nil
}

func createLLM(entry config.ProviderEntry, reg *config.Registry, env *config.Env) (llm.Provider, error) {
	entry, err := resolve(entry, env, "llm")
	if err != nil {
		return nil, err
	}
	p, err := reg.CreateLLM(entry)
	if err != nil {
		return nil, creationError("llm", entry.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", entry.Name, "model", entry.Model)
	return p, nil
}

func createSTT(entry config.ProviderEntry, reg *config.Registry, env *config.Env) (stt.Provider, error) {
	entry, err := resolve(entry, env, "stt")
	if err != nil {
		return nil, err
	}
	p, err := reg.CreateSTT(entry)
	if err != nil {
		return nil, creationError("stt", entry.Name, err)
	}
	slog.Info("provider created", "kind", "stt", "name", entry.Name, "model", entry.Model)
	return p, nil
}

func resolve(entry config.ProviderEntry, env *config.Env, kind string) (config.ProviderEntry, error) {
	if entry.Name == "" {
		return entry, apperr.Newf(apperr.Fatal, "no %s provider configured (providers.%s.name)", kind, kind)
	}
	if env == nil {
		return entry, nil
	}
	resolved, err := env.ResolveKey(entry)
	if err != nil {
		return entry, apperr.Wrapf(err, apperr.Fatal, "%s provider credentials", kind)
	}
	return resolved, nil
}

func creationError(kind, name string, err error) error {
	if errors.Is(err, config.ErrProviderNotRegistered) {
		return apperr.Wrapf(err, apperr.InvalidInput, "unknown %s provider %q", kind, name)
	}
	return apperr.Wrapf(err, apperr.Fatal, "create %s provider %q", kind, name)
}

func failoverConfig(m *observe.Metrics, kind string) resilience.FallbackConfig {
	cfg := resilience.FallbackConfig{}
	if m != nil {
		cfg.OnFailure = func(name string, _ error) {
			m.RecordProviderError(context.Background(), name, kind)
		}
	}
	return cfg
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map.
func optString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}

// optFloat extracts a numeric value from a provider Options map. YAML
// decodes integers and floats into different types, so both are accepted.
func optFloat(opts map[string]any, key string) (float64, bool) {
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// optTimeout reads the "timeout_seconds" option.
func optTimeout(opts map[string]any) (time.Duration, bool) {
	v, ok := optFloat(opts, "timeout_seconds")
	if !ok || v <= 0 {
		return 0, false
	}
	return time.Duration(v * float64(time.Second)), true
}
