package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides of config fields, e.g.
// READSCRIPT_WPM or READSCRIPT_OUTPUT_DIRECTORY.
const EnvPrefix = "READSCRIPT"

// APIKeyEnv maps provider names to the environment variables consulted, in
// order, when a provider entry has no api_key.
var APIKeyEnv = map[string][]string{
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_API_KEY"},
	"mistral":   {"MISTRAL_API_KEY"},
	"groq":      {"GROQ_API_KEY"},
	"deepgram":  {"DEEPGRAM_API_KEY"},
}

// overridable lists the config keys that may be set from the environment.
var overridable = []string{
	"log_level",
	"wpm",
	"default_style",
	"output_directory",
	"telemetry.metrics_addr",
	"rate.samples_dir",
	"rate.language",
}

// Env resolves credentials and config overrides from the process
// environment, after merging a dotenv file into it.
type Env struct {
	v *viper.Viper
}

// LoadEnv merges the dotenv file at path into the process environment
// (existing variables win) and returns an [Env] reading from it. A missing
// file is not an error; an empty path skips dotenv loading.
func LoadEnv(path string) (*Env, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %q: %w", path, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, names := range APIKeyEnv {
		for _, name := range names {
			if err := v.BindEnv(strings.ToLower(name), name); err != nil {
				return nil, fmt.Errorf("config: bind %s: %w", name, err)
			}
		}
	}
	return &Env{v: v}, nil
}

// APIKey returns the first non-empty environment key for provider, or "".
func (e *Env) APIKey(provider string) string {
	for _, name := range APIKeyEnv[provider] {
		if key := e.v.GetString(strings.ToLower(name)); key != "" {
			return key
		}
	}
	return ""
}

// ApplyOverrides copies READSCRIPT_* overrides onto cfg and validates the
// result. Only the keys that are set are touched.
func (e *Env) ApplyOverrides(cfg *Config) error {
	var errs []error
	for _, key := range overridable {
		if !e.v.IsSet(key) {
			continue
		}
		raw := e.v.GetString(key)
		slog.Debug("config overridden from environment", "key", key)
		switch key {
		case "log_level":
			cfg.LogLevel = LogLevel(strings.ToLower(raw))
		case "wpm":
			wpm := e.v.GetFloat64(key)
			if wpm == 0 && raw != "0" {
				errs = append(errs, fmt.Errorf("%s_WPM: %q is not a number", EnvPrefix, raw))
				continue
			}
			cfg.WPM = wpm
		case "default_style":
			cfg.DefaultStyle = raw
		case "output_directory":
			cfg.OutputDirectory = raw
		case "telemetry.metrics_addr":
			cfg.Telemetry.MetricsAddr = raw
		case "rate.samples_dir":
			cfg.Rate.SamplesDir = raw
		case "rate.language":
			cfg.Rate.Language = raw
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return Validate(cfg)
}

// KeylessProviders need no API key: they are local servers.
var KeylessProviders = []string{"ollama", "llamacpp", "llamafile", "whisper"}

// MissingKeyError reports a hosted provider without credentials.
type MissingKeyError struct {
	Provider string
	EnvVars  []string
}

func (e *MissingKeyError) Error() string {
	if len(e.EnvVars) == 0 {
		return fmt.Sprintf("provider %q needs an api_key", e.Provider)
	}
	return fmt.Sprintf("provider %q needs an api_key or %s", e.Provider, strings.Join(e.EnvVars, " / "))
}

// ResolveKey returns entry with APIKey filled from env when the file left it
// empty. Keyless providers are returned unchanged.
func (e *Env) ResolveKey(entry ProviderEntry) (ProviderEntry, error) {
	if entry.APIKey != "" || isKeyless(entry.Name) {
		return entry, nil
	}
	if key := e.APIKey(entry.Name); key != "" {
		entry.APIKey = key
		return entry, nil
	}
	return entry, &MissingKeyError{Provider: entry.Name, EnvVars: APIKeyEnv[entry.Name]}
}

func isKeyless(name string) bool {
	return slices.Contains(KeylessProviders, name)
}
