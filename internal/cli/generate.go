package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/readscript/internal/app"
	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/config"
	"github.com/MrWong99/readscript/internal/observe"
	"github.com/MrWong99/readscript/internal/prompt"
)

type generateFlags struct {
	duration      float64
	style         string
	chunks        int
	chunkDuration float64
	topic         string
	wpm           float64
	output        string
	interactive   bool
}

// requestFlags are the flags that describe a run. When none of them is
// given on a terminal the command asks for the values instead.
var requestFlags = []string{"duration", "style", "chunks", "chunk-duration", "topic", "wpm", "output"}

func newGenerateCommand(s *state) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a reading script",
		Long: "Generate a reading script of the requested length, split into chunks.\n\n" +
			"Styles: " + strings.Join(prompt.StyleNames(), ", ") + "\n\n" +
			"When both --chunks and --chunk-duration are given, --chunks wins.",
		Example: "  readscript generate -d 30 -s podcast -c 3 -t \"ocean life\"",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, s, f)
		},
	}

	fl := cmd.Flags()
	fl.Float64VarP(&f.duration, "duration", "d", 0, "total reading time in minutes (at least 1)")
	fl.StringVarP(&f.style, "style", "s", "", "writing style (default from config)")
	fl.IntVarP(&f.chunks, "chunks", "c", 0, "number of chunks to split the script into")
	fl.Float64Var(&f.chunkDuration, "chunk-duration", 0, "target minutes per chunk; the last chunk takes the remainder")
	fl.StringVarP(&f.topic, "topic", "t", "", "optional topic hint")
	fl.Float64Var(&f.wpm, "wpm", 0, "speaking rate in words per minute (default from config)")
	fl.StringVarP(&f.output, "output", "o", "", "output directory (default from config)")
	fl.BoolVarP(&f.interactive, "interactive", "i", false, "ask for the values instead of reading flags")
	return cmd
}

func runGenerate(cmd *cobra.Command, s *state, f generateFlags) (err error) {
	ctx, span := observe.StartSpan(cmd.Context(), "cli.generate")
	defer func() { observe.EndSpan(span, err) }()

	req := app.GenerateRequest{
		Minutes:      f.duration,
		Chunks:       f.chunks,
		ChunkMinutes: f.chunkDuration,
		Style:        f.style,
		Topic:        f.topic,
		WPM:          f.wpm,
		OutputDir:    f.output,
	}
	switch {
	case f.interactive || (!anyChanged(cmd, requestFlags) && s.interactive()):
		if req, err = askGenerate(s.prompter(), s.cfg, req); err != nil {
			return err
		}
	case !cmd.Flags().Changed("duration"):
		return apperr.New(apperr.InvalidInput, "--duration is required")
	}
	if cmd.Flags().Changed("wpm") && !(f.wpm > 0) {
		return apperr.Newf(apperr.InvalidInput, "--wpm must be positive, got %g", f.wpm)
	}

	a, err := s.newApp(ctx)
	if err != nil {
		return err
	}
	defer shutdown(ctx, a)

	job, err := a.PlanGeneration(req)
	if err != nil {
		return err
	}

	p := s.printer()
	llmCfg := s.cfg.Providers.LLM
	p.plan(job, strings.TrimSuffix(llmCfg.Name+" / "+llmCfg.Model, " / "))

	res, err := a.Generate(ctx, job, p.chunk(job.Plan.Len()))
	if err != nil {
		p.partial(res)
		return err
	}
	p.complete(res)
	return nil
}

// askGenerate fills req from answers on the terminal. Values already set
// in req become the defaults.
func askGenerate(q *prompter, cfg *config.Config, req app.GenerateRequest) (app.GenerateRequest, error) {
	var err error

	req.Minutes, err = q.askFloat("Total duration in minutes", formatFloat(req.Minutes), func(v float64) error {
		if v < 1 || math.IsInf(v, 0) {
			return errors.New("duration must be at least 1 minute")
		}
		return nil
	})
	if err != nil {
		return req, err
	}
	if req.Minutes == 0 {
		return req, apperr.New(apperr.InvalidInput, "a duration is required")
	}

	fmt.Fprintf(q.out, "Styles: %s\n", strings.Join(prompt.StyleNames(), ", "))
	for {
		name, err := q.ask("Style", cmp.Or(req.Style, cfg.DefaultStyle))
		if err != nil {
			return req, err
		}
		if _, perr := prompt.ParseStyle(name); perr != nil {
			fmt.Fprintf(q.out, "  unknown style %q\n", name)
			continue
		}
		req.Style = name
		break
	}

	chunks, err := q.askFloat("Number of chunks (empty to split by duration)", formatInt(req.Chunks), func(v float64) error {
		if v < 1 || v != math.Trunc(v) {
			return errors.New("chunk count must be a whole number of at least 1")
		}
		return nil
	})
	if err != nil {
		return req, err
	}
	req.Chunks = int(chunks)

	if req.Chunks == 0 {
		def := req.ChunkMinutes
		if def == 0 {
			def = min(cfg.DefaultChunkDurationMinutes, req.Minutes)
		}
		req.ChunkMinutes, err = q.askFloat("Minutes per chunk", formatFloat(def), func(v float64) error {
			if v <= 0 || v > req.Minutes {
				return fmt.Errorf("chunk duration must be between 0 and %g minutes", req.Minutes)
			}
			return nil
		})
		if err != nil {
			return req, err
		}
	}

	if req.Topic, err = q.ask("Topic (optional)", req.Topic); err != nil {
		return req, err
	}
	fmt.Fprintln(q.out)
	return req, nil
}

func anyChanged(cmd *cobra.Command, names []string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

func shutdown(ctx context.Context, a *app.App) {
	if err := a.Shutdown(context.WithoutCancel(ctx)); err != nil {
		observe.Logger(ctx).Warn("shutdown", "err", err)
	}
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
