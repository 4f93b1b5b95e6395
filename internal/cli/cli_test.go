package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/readscript/internal/app"
	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/cli"
	"github.com/MrWong99/readscript/internal/config"
	"github.com/MrWong99/readscript/pkg/provider/llm"
	llmmock "github.com/MrWong99/readscript/pkg/provider/llm/mock"
	"github.com/MrWong99/readscript/pkg/provider/stt"
	sttmock "github.com/MrWong99/readscript/pkg/provider/stt/mock"
)

// ── helpers ──────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type fixture struct {
	dir     string
	cfgPath string
	cfg     *config.Config
	llm     *llmmock.Provider
	stt     *sttmock.Provider
	stdout  bytes.Buffer
	stdin   string
	tty     bool
}

// newFixture writes a config file into a temp directory. mutate may adjust
// the config before it is saved.
func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.WPM = 100
	cfg.OutputDirectory = filepath.Join(dir, "output")
	cfg.Rate.SamplesDir = filepath.Join(dir, "samples")
	cfg.Rate.AnalysisFile = filepath.Join(dir, "analysis.json")
	if mutate != nil {
		mutate(cfg)
	}
	f := &fixture{
		dir:     dir,
		cfgPath: filepath.Join(dir, "config.yaml"),
		cfg:     cfg,
		llm: &llmmock.Provider{
			CompleteResponse: &llm.CompletionResponse{Content: "a calm and steady line of text"},
		},
		stt: &sttmock.Provider{
			Default: &stt.Transcript{Text: "one two three four", Duration: 2 * time.Second},
		},
	}
	if err := config.Save(f.cfgPath, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return f
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	args = append(args, "--config", f.cfgPath, "--env-file", filepath.Join(f.dir, "missing.env"))
	return cli.Execute(context.Background(), args, cli.Options{
		Stdin:       strings.NewReader(f.stdin),
		Stdout:      &f.stdout,
		Interactive: func() bool { return f.tty },
		AppOptions: []app.Option{
			app.WithProviders(&app.Providers{LLM: f.llm, LLMName: "mock", STT: f.stt, STTName: "mock"}),
			app.WithClock(func() time.Time { return fixedNow }),
		},
	})
}

func (f *fixture) sessionDir() string {
	return filepath.Join(f.cfg.OutputDirectory, "session_20260314_092653")
}

func (f *fixture) writeSamples(t *testing.T, names ...string) {
	t.Helper()
	if err := os.MkdirAll(f.cfg.Rate.SamplesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(f.cfg.Rate.SamplesDir, n), []byte("audio"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

// ── generate ─────────────────────────────────────────────────────────────────

func TestGenerate_Flags(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	if err := f.run(t, "generate", "-d", "3", "-c", "3", "-s", "podcast", "-t", "ocean life"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	out := f.stdout.String()
	for _, want := range []string{"TEXT GENERATION PLAN", "Style:", "podcast", "~100", "Topic hint:", "ocean life", "GENERATION COMPLETE", "chunk_01.txt", "metadata.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, name := range []string{"chunk_01.txt", "chunk_02.txt", "chunk_03.txt", "metadata.json"} {
		if _, err := os.Stat(filepath.Join(f.sessionDir(), name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if got := len(f.llm.Calls()); got != 3 {
		t.Errorf("Complete calls = %d, want 3", got)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("output contains colour codes with colour disabled")
	}
}

func TestGenerate_DurationRequired(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	err := f.run(t, "generate", "-s", "podcast")
	if !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("err = %v, want InvalidInput", err)
	}
	if apperr.ExitCode(err) != 2 {
		t.Errorf("exit code = %d, want 2", apperr.ExitCode(err))
	}
	if len(f.llm.Calls()) != 0 {
		t.Error("provider was called")
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "not a number", args: []string{"generate", "-d", "ten"}},
		{name: "too short", args: []string{"generate", "-d", "0.5"}},
		{name: "unknown style", args: []string{"generate", "-d", "5", "-s", "whisper"}},
		{name: "zero wpm", args: []string{"generate", "-d", "5", "--wpm", "0"}},
		{name: "extra argument", args: []string{"generate", "-d", "5", "extra"}},
		{name: "chunk longer than total", args: []string{"generate", "-d", "5", "--chunk-duration", "6"}},
		{name: "huge chunk count", args: []string{"generate", "-d", "10", "-c", "4611686018427387904"}},
		{name: "tiny chunk duration", args: []string{"generate", "-d", "10", "--chunk-duration", "1e-300"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, nil)
			err := f.run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperr.IsKind(err, apperr.InvalidInput) {
				t.Errorf("err = %v, want InvalidInput", err)
			}
			if _, serr := os.Stat(f.cfg.OutputDirectory); !errors.Is(serr, os.ErrNotExist) {
				t.Error("output directory was created for a rejected request")
			}
		})
	}
}

func TestGenerate_ProviderFailureKeepsChunks(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.llm.CompleteFunc = func(call int, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		if call == 1 {
			return nil, errors.New("rate limited")
		}
		return &llm.CompletionResponse{Content: "first part"}, nil
	}

	err := f.run(t, "generate", "-d", "4", "-c", "2")
	if apperr.ExitCode(err) != 4 {
		t.Fatalf("exit code = %d, want 4 (err: %v)", apperr.ExitCode(err), err)
	}
	if !strings.Contains(f.stdout.String(), "chunk_01.txt") {
		t.Errorf("kept files not listed:\n%s", f.stdout.String())
	}
	if _, err := os.Stat(filepath.Join(f.sessionDir(), "metadata.json")); !errors.Is(err, os.ErrNotExist) {
		t.Error("metadata written for a failed run")
	}
}

func TestGenerate_Interactive(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.tty = true
	// duration, style, chunks (empty), minutes per chunk, topic
	f.stdin = "10\nnarrative\n\n4\nmountain lakes\n"

	if err := f.run(t, "generate"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	calls := f.llm.Calls()
	if len(calls) != 3 {
		t.Fatalf("Complete calls = %d, want 3 (4+4+2 minutes)", len(calls))
	}
	if !strings.Contains(calls[0].Req.Messages[0].Content, "mountain lakes") {
		t.Error("topic missing from the first prompt")
	}
	if !strings.Contains(f.stdout.String(), "Minutes per chunk [5]") {
		t.Errorf("chunk duration question not pre-filled from config:\n%s", f.stdout.String())
	}
}

func TestGenerate_InteractiveInputEnds(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.tty = true
	f.stdin = "10\n"

	err := f.run(t, "generate")
	if !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("err = %v, want InvalidInput", err)
	}
}

func TestGenerate_MissingConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	if err := os.Remove(f.cfgPath); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(f.dir, "elsewhere")
	if err := f.run(t, "generate", "-d", "1", "-o", out); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(f.stdout.String(), "~150") {
		t.Errorf("default rate of 150 WPM not used:\n%s", f.stdout.String())
	}
	if _, err := os.Stat(f.cfgPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("generate must not create the config file")
	}
}

func TestGenerate_BrokenConfig(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	if err := os.WriteFile(f.cfgPath, []byte("wpm: fast\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := f.run(t, "generate", "-d", "5")
	if !apperr.IsKind(err, apperr.InvalidInput) {
		t.Fatalf("err = %v, want InvalidInput", err)
	}
}

// ── wpm ──────────────────────────────────────────────────────────────────────

func TestWPM_NoSamplesLeavesConfigUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.writeSamples(t, "readme.txt")
	before := readFile(t, f.cfgPath)

	err := f.run(t, "wpm", "--apply")
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
	if apperr.ExitCode(err) != 3 {
		t.Errorf("exit code = %d, want 3", apperr.ExitCode(err))
	}
	if after := readFile(t, f.cfgPath); !bytes.Equal(before, after) {
		t.Error("config file changed")
	}
	if f.stt.CallCount() != 0 {
		t.Error("transcriber was called")
	}
}

func TestWPM_Apply(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.writeSamples(t, "one.mp3", "two.wav")

	if err := f.run(t, "wpm", "--apply"); err != nil {
		t.Fatalf("wpm: %v", err)
	}
	cfg, err := config.Load(f.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WPM != 120 {
		t.Errorf("saved wpm = %v, want 120", cfg.WPM)
	}
	out := f.stdout.String()
	for _, want := range []string{"SUMMARY", "Average WPM:", "wpm: 100 → 120", "Updated"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(f.cfg.Rate.AnalysisFile); err != nil {
		t.Errorf("analysis file: %v", err)
	}
}

func TestWPM_ShowsPreviousAnalysis(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.writeSamples(t, "one.mp3")

	if err := f.run(t, "wpm"); err != nil {
		t.Fatalf("first wpm: %v", err)
	}
	if strings.Contains(f.stdout.String(), "Previous average") {
		t.Errorf("first run reports a previous analysis:\n%s", f.stdout.String())
	}

	f.stdout.Reset()
	if err := f.run(t, "wpm"); err != nil {
		t.Fatalf("second wpm: %v", err)
	}
	if !strings.Contains(f.stdout.String(), "Previous average:    120.0 WPM (2026-03-14)") {
		t.Errorf("previous analysis missing:\n%s", f.stdout.String())
	}
}

func TestWPM_NonInteractiveWithoutApply(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.writeSamples(t, "one.mp3")
	before := readFile(t, f.cfgPath)

	if err := f.run(t, "wpm"); err != nil {
		t.Fatalf("wpm: %v", err)
	}
	if after := readFile(t, f.cfgPath); !bytes.Equal(before, after) {
		t.Error("config file changed without --apply")
	}
	if !strings.Contains(f.stdout.String(), "--apply") {
		t.Errorf("missing --apply hint:\n%s", f.stdout.String())
	}
}

func TestWPM_Confirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answer  string
		wantWPM float64
	}{
		{answer: "y\n", wantWPM: 120},
		{answer: "\n", wantWPM: 120},
		{answer: "n\n", wantWPM: 100},
		{answer: "maybe\nno\n", wantWPM: 100},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, nil)
			f.writeSamples(t, "one.mp3")
			f.tty = true
			f.stdin = tt.answer

			if err := f.run(t, "wpm"); err != nil {
				t.Fatalf("wpm: %v", err)
			}
			cfg, err := config.Load(f.cfgPath)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.WPM != tt.wantWPM {
				t.Errorf("wpm = %v, want %v", cfg.WPM, tt.wantWPM)
			}
		})
	}
}

func TestWPM_CreatesMissingConfig(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.writeSamples(t, "one.mp3")
	if err := os.Remove(f.cfgPath); err != nil {
		t.Fatal(err)
	}
	if err := f.run(t, "wpm", "--yes", "--samples", f.cfg.Rate.SamplesDir, "--analysis", f.cfg.Rate.AnalysisFile); err != nil {
		t.Fatalf("wpm: %v", err)
	}
	cfg, err := config.Load(f.cfgPath)
	if err != nil {
		t.Fatalf("load created config: %v", err)
	}
	if cfg.WPM != 120 {
		t.Errorf("wpm = %v, want 120", cfg.WPM)
	}
}

func TestWPM_EnvironmentNotPersisted(t *testing.T) {
	f := newFixture(t, nil)
	f.writeSamples(t, "one.mp3")
	t.Setenv("READSCRIPT_OUTPUT_DIRECTORY", filepath.Join(f.dir, "from-env"))
	t.Setenv("OPENAI_API_KEY", "sk-secret")

	if err := f.run(t, "wpm", "--apply"); err != nil {
		t.Fatalf("wpm: %v", err)
	}
	data := string(readFile(t, f.cfgPath))
	if strings.Contains(data, "from-env") || strings.Contains(data, "sk-secret") {
		t.Errorf("environment leaked into the saved config:\n%s", data)
	}
}

// ── styles ───────────────────────────────────────────────────────────────────

func TestStyles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(c *config.Config) {
		c.AvailableStyles = []string{"conversational", "podcast"}
	})
	if err := f.run(t, "styles"); err != nil {
		t.Fatalf("styles: %v", err)
	}
	out := f.stdout.String()
	for _, name := range []string{"conversational (default)", "narrative (not in available_styles)", "technical", "news_anchor", "storytelling", "educational", "podcast\n"} {
		if !strings.Contains(out, name) {
			t.Errorf("output missing %q:\n%s", name, out)
		}
	}
}

// ── misc ─────────────────────────────────────────────────────────────────────

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   config.LogLevel
		want string
	}{
		{config.LogDebug, "DEBUG"},
		{config.LogInfo, "INFO"},
		{config.LogWarn, "WARN"},
		{config.LogError, "ERROR"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := cli.SlogLevel(tt.in).String(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
