package config

import (
	"fmt"
	"slices"
	"strings"
)

// Change describes one field that differs between two configs.
type Change struct {
	// Field is the YAML path of the field (e.g., "wpm", "providers.llm.model").
	Field string
	Old   string
	New   string
}

// String renders the change as "field: old → new".
func (c Change) String() string {
	return fmt.Sprintf("%s: %s → %s", c.Field, c.Old, c.New)
}

// Diff compares old and new configs and returns the changed fields in a
// stable order. Credentials are never included in the output.
func Diff(old, new *Config) []Change {
	var changes []Change
	add := func(field, o, n string) {
		if o != n {
			changes = append(changes, Change{Field: field, Old: o, New: n})
		}
	}

	add("log_level", string(old.LogLevel), string(new.LogLevel))
	add("wpm", fmt.Sprintf("%g", old.WPM), fmt.Sprintf("%g", new.WPM))
	add("default_style", old.DefaultStyle, new.DefaultStyle)
	if !slices.Equal(old.AvailableStyles, new.AvailableStyles) {
		add("available_styles", strings.Join(old.AvailableStyles, ","), strings.Join(new.AvailableStyles, ","))
	}
	add("default_chunk_duration_minutes",
		fmt.Sprintf("%g", old.DefaultChunkDurationMinutes), fmt.Sprintf("%g", new.DefaultChunkDurationMinutes))
	add("output_directory", old.OutputDirectory, new.OutputDirectory)

	diffEntry(add, "providers.llm", old.Providers.LLM, new.Providers.LLM)
	diffEntry(add, "providers.stt", old.Providers.STT, new.Providers.STT)
	add("providers.llm_fallbacks", entryNames(old.Providers.LLMFallbacks), entryNames(new.Providers.LLMFallbacks))
	add("providers.stt_fallbacks", entryNames(old.Providers.STTFallbacks), entryNames(new.Providers.STTFallbacks))

	add("rate.samples_dir", old.Rate.SamplesDir, new.Rate.SamplesDir)
	add("rate.patterns", strings.Join(old.Rate.Patterns, ","), strings.Join(new.Rate.Patterns, ","))
	add("rate.analysis_file", old.Rate.AnalysisFile, new.Rate.AnalysisFile)
	add("rate.language", old.Rate.Language, new.Rate.Language)
	add("telemetry.metrics_addr", old.Telemetry.MetricsAddr, new.Telemetry.MetricsAddr)
	return changes
}

func diffEntry(add func(field, o, n string), prefix string, old, new ProviderEntry) {
	add(prefix+".name", old.Name, new.Name)
	add(prefix+".model", old.Model, new.Model)
	add(prefix+".base_url", old.BaseURL, new.BaseURL)
	if old.APIKey != new.APIKey {
		n := redact(new.APIKey)
		if old.APIKey != "" && new.APIKey != "" {
			n = "(changed)"
		}
		add(prefix+".api_key", redact(old.APIKey), n)
	}
}

func redact(key string) string {
	if key == "" {
		return "(unset)"
	}
	return "(set)"
}

func entryNames(entries []ProviderEntry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return strings.Join(names, ",")
}
