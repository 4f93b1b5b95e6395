// Package cli implements the readscript command line: generate, wpm and
// styles.
//
// Commands print their human-readable output to [Options.Stdout]; logs go
// through slog. Every returned error carries an [apperr.Kind] so that the
// caller can map it to an exit code.
package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MrWong99/readscript/internal/app"
	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/config"
)

// Options holds the process-level dependencies of the command tree.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer

	// Level is set to the configured log level once the config is loaded.
	// May be nil.
	Level *slog.LevelVar

	// Interactive reports whether questions may be asked on Stdin. Nil
	// means never.
	Interactive func() bool

	// Color enables ANSI colours in the plan and summary output.
	Color bool

	// AppOptions are passed to [app.New], after the defaults.
	AppOptions []app.Option
}

// state is shared by all commands of one invocation.
type state struct {
	opts    Options
	cfgPath string
	envFile string

	// fileCfg is the config as stored on disk; nil when the file does not
	// exist. Only this value is ever written back.
	fileCfg *config.Config

	// cfg is fileCfg (or the defaults) with environment overrides applied.
	cfg *config.Config
	env *config.Env
}

// Execute runs the command tree with args (without the program name).
func Execute(ctx context.Context, args []string, o Options) error {
	root := NewRootCommand(o)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the readscript command tree.
func NewRootCommand(o Options) *cobra.Command {
	s := &state{opts: o}
	root := &cobra.Command{
		Use:   "readscript",
		Short: "Generate reading scripts for voice recording sessions",
		Long: "readscript writes text for you to read aloud, sized to the recording\n" +
			"length you ask for at your own speaking rate. Measure that rate once\n" +
			"with \"readscript wpm\", then generate scripts with \"readscript generate\".",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return s.load()
		},
	}
	if o.Stdin != nil {
		root.SetIn(o.Stdin)
	}
	if o.Stdout != nil {
		root.SetOut(o.Stdout)
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperr.Wrap(err, apperr.InvalidInput, "flags")
	})

	pf := root.PersistentFlags()
	pf.StringVar(&s.cfgPath, "config", "config.yaml", "path to the YAML configuration file")
	pf.StringVar(&s.envFile, "env-file", ".env", "dotenv file with provider API keys")

	root.AddCommand(
		newGenerateCommand(s),
		newWPMCommand(s),
		newStylesCommand(s),
	)
	return root
}

// noArgs is cobra.NoArgs classified as invalid input.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return apperr.Wrap(err, apperr.InvalidInput, "arguments")
	}
	return nil
}

// load reads the config file and the environment.
func (s *state) load() error {
	fileCfg, err := config.Load(s.cfgPath)
	base := fileCfg
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("config file not found, using defaults", "path", s.cfgPath)
		base = config.Default()
	case err != nil:
		return apperr.Wrap(err, apperr.InvalidInput, "load config")
	}
	s.fileCfg = fileCfg

	env, err := config.LoadEnv(s.envFile)
	if err != nil {
		return apperr.Wrap(err, apperr.Fatal, "load environment")
	}
	cfg := base.Clone()
	if err := env.ApplyOverrides(cfg); err != nil {
		return apperr.Wrap(err, apperr.InvalidInput, "environment overrides")
	}
	s.env, s.cfg = env, cfg

	if s.opts.Level != nil {
		s.opts.Level.Set(SlogLevel(cfg.LogLevel))
	}
	slog.Debug("config loaded", "path", s.cfgPath, "from_file", fileCfg != nil)
	return nil
}

func (s *state) newApp(ctx context.Context) (*app.App, error) {
	opts := append([]app.Option{app.WithEnv(s.env)}, s.opts.AppOptions...)
	return app.New(ctx, s.cfg, opts...)
}

func (s *state) interactive() bool {
	return s.opts.Interactive != nil && s.opts.Interactive()
}

func (s *state) stdout() io.Writer {
	if s.opts.Stdout == nil {
		return io.Discard
	}
	return s.opts.Stdout
}

func (s *state) printer() *printer {
	return newPrinter(s.stdout(), s.opts.Color)
}

func (s *state) prompter() *prompter {
	return newPrompter(s.opts.Stdin, s.stdout())
}

// SlogLevel maps a config log level onto slog.
func SlogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
