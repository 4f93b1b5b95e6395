package cli

import (
	"cmp"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrWong99/readscript/internal/app"
	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/config"
	"github.com/MrWong99/readscript/internal/observe"
	"github.com/MrWong99/readscript/internal/rate"
)

type wpmFlags struct {
	samples  string
	patterns []string
	analysis string
	apply    bool
	yes      bool
}

func newWPMCommand(s *state) *cobra.Command {
	var f wpmFlags
	cmd := &cobra.Command{
		Use:   "wpm",
		Short: "Measure your speaking rate from recorded samples",
		Long: "Transcribe the audio samples in the samples directory, compute your\n" +
			"average words per minute and offer to store it in the config file.\n\n" +
			"Without --apply the config is only changed after you confirm on a\n" +
			"terminal; otherwise the recommendation is printed and the file is left\n" +
			"untouched.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWPM(cmd, s, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.samples, "samples", "", "directory with recorded samples (default from config)")
	fl.StringArrayVar(&f.patterns, "pattern", nil, "file name glob, repeatable (default from config)")
	fl.StringVar(&f.analysis, "analysis", "", "where to write the analysis JSON (default from config)")
	fl.BoolVar(&f.apply, "apply", false, "write the measured rate to the config file without asking")
	fl.BoolVarP(&f.yes, "yes", "y", false, "answer yes to the confirmation question")
	return cmd
}

func runWPM(cmd *cobra.Command, s *state, f wpmFlags) (err error) {
	ctx, span := observe.StartSpan(cmd.Context(), "cli.wpm")
	defer func() { observe.EndSpan(span, err) }()

	a, err := s.newApp(ctx)
	if err != nil {
		return err
	}
	defer shutdown(ctx, a)

	analysisFile := cmp.Or(f.analysis, s.cfg.Rate.AnalysisFile)
	prev, perr := rate.ReadAnalysis(analysisFile)
	if perr != nil && !apperr.IsKind(perr, apperr.NotFound) {
		observe.Logger(ctx).Warn("ignoring unreadable previous analysis", "path", analysisFile, "err", perr)
	}

	report, err := a.EstimateRate(ctx, app.RateRequest{
		SamplesDir:   f.samples,
		Patterns:     f.patterns,
		AnalysisFile: f.analysis,
	})
	if err != nil {
		return err
	}

	p := s.printer()
	p.report(report, prev, analysisFile)

	// Environment overrides and resolved keys never reach the file.
	base := s.fileCfg
	if base == nil {
		base = config.Default()
	}
	updated := rate.Apply(base, report)
	changes := config.Diff(base, updated)
	out := s.stdout()
	if len(changes) == 0 {
		fmt.Fprintf(out, "\n%s already uses %g WPM.\n", s.cfgPath, updated.WPM)
		return nil
	}
	p.changes(s.cfgPath, changes)

	if !f.apply && !f.yes {
		if !s.interactive() {
			fmt.Fprintf(out, "Run again with --apply to write the recommended rate to %s.\n", s.cfgPath)
			return nil
		}
		ok, err := s.prompter().confirm(fmt.Sprintf("Write to %s?", s.cfgPath), true)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Config left unchanged.")
			return nil
		}
	}

	if err := config.Save(s.cfgPath, updated); err != nil {
		return apperr.Wrapf(err, apperr.Fatal, "save %s", s.cfgPath)
	}
	observe.Logger(ctx).Info("config updated", "path", s.cfgPath, "wpm", updated.WPM)
	p.good.Fprintf(out, "Updated %s: wpm = %g\n", s.cfgPath, updated.WPM)
	return nil
}
