// Package config provides the configuration schema, loader, and provider
// registry shared by the script generator and the rate estimator.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Defaults applied by [Default] and to fields absent from a config file.
const (
	DefaultWPM                  = 150
	DefaultStyle                = "conversational"
	DefaultChunkDurationMinutes = 5
	DefaultOutputDirectory      = "output"
	DefaultSamplesDir           = "wpm-measure"
	DefaultAnalysisFile         = "user-context/wpm-analysis.json"
	DefaultLLMProvider          = "gemini"
	DefaultLLMModel             = "gemini-2.0-flash"
	DefaultSTTProvider          = "openai"
	DefaultSTTModel             = "whisper-1"
)

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader]
// and written back only through [Save].
type Config struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// WPM is the operator's speaking rate in words per minute. The rate
	// estimator rewrites it.
	WPM float64 `yaml:"wpm"`

	// DefaultStyle is used when no style is given on the command line.
	DefaultStyle string `yaml:"default_style"`

	// AvailableStyles is the operator's preferred subset of styles. Choosing
	// a style outside it only produces a warning.
	AvailableStyles []string `yaml:"available_styles"`

	// DefaultChunkDurationMinutes pre-fills the chunk duration question in
	// interactive mode. It never applies to flag-driven runs.
	DefaultChunkDurationMinutes float64 `yaml:"default_chunk_duration_minutes"`

	// OutputDirectory is the parent of all session directories.
	OutputDirectory string `yaml:"output_directory"`

	Providers ProvidersConfig `yaml:"providers"`
	Rate      RateConfig      `yaml:"rate"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProvidersConfig declares which provider implementation to use for text
// generation and transcription. Each entry selects a named provider
// registered in the [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`

	// LLMFallbacks are tried in order when LLM fails. Empty disables failover.
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks,omitempty"`

	STT ProviderEntry `yaml:"stt"`

	// STTFallbacks are tried in order when STT fails.
	STTFallbacks []ProviderEntry `yaml:"stt_fallbacks,omitempty"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "gemini", "deepgram").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any. When
	// empty the key is taken from the environment.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url,omitempty"`

	// Model selects a specific model within the provider (e.g., "gemini-2.0-flash", "nova-3").
	Model string `yaml:"model,omitempty"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above.
	Options map[string]any `yaml:"options,omitempty"`
}

// RateConfig configures the rate estimator.
type RateConfig struct {
	// SamplesDir holds the recorded audio samples.
	SamplesDir string `yaml:"samples_dir"`

	// Patterns are glob patterns matched against file names in SamplesDir.
	Patterns []string `yaml:"patterns"`

	// AnalysisFile receives the per-sample analysis record. Empty disables it.
	AnalysisFile string `yaml:"analysis_file"`

	// Language is an optional transcription language hint.
	Language string `yaml:"language,omitempty"`
}

// TelemetryConfig configures metrics exposure.
type TelemetryConfig struct {
	// MetricsAddr, when set, serves Prometheus metrics at /metrics on this
	// address for the lifetime of a command (e.g., ":9464").
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel:                    LogInfo,
		WPM:                         DefaultWPM,
		DefaultStyle:                DefaultStyle,
		AvailableStyles:             []string{"conversational", "narrative", "technical", "news_anchor", "storytelling", "educational", "podcast"},
		DefaultChunkDurationMinutes: DefaultChunkDurationMinutes,
		OutputDirectory:             DefaultOutputDirectory,
		Providers: ProvidersConfig{
			LLM: ProviderEntry{Name: DefaultLLMProvider, Model: DefaultLLMModel},
			STT: ProviderEntry{Name: DefaultSTTProvider, Model: DefaultSTTModel},
		},
		Rate: RateConfig{
			SamplesDir:   DefaultSamplesDir,
			Patterns:     []string{"*.mp3", "*.wav"},
			AnalysisFile: DefaultAnalysisFile,
		},
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.AvailableStyles = append([]string(nil), c.AvailableStyles...)
	out.Rate.Patterns = append([]string(nil), c.Rate.Patterns...)
	out.Providers.LLM = c.Providers.LLM.clone()
	out.Providers.STT = c.Providers.STT.clone()
	out.Providers.LLMFallbacks = cloneEntries(c.Providers.LLMFallbacks)
	out.Providers.STTFallbacks = cloneEntries(c.Providers.STTFallbacks)
	return &out
}

func (e ProviderEntry) clone() ProviderEntry {
	if e.Options != nil {
		opts := make(map[string]any, len(e.Options))
		for k, v := range e.Options {
			opts[k] = v
		}
		e.Options = opts
	}
	return e
}

func cloneEntries(in []ProviderEntry) []ProviderEntry {
	if in == nil {
		return nil
	}
	out := make([]ProviderEntry, len(in))
	for i, e := range in {
		out[i] = e.clone()
	}
	return out
}
