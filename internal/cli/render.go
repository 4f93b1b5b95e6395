package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/MrWong99/readscript/internal/app"
	"github.com/MrWong99/readscript/internal/config"
	"github.com/MrWong99/readscript/internal/prompt"
	"github.com/MrWong99/readscript/internal/rate"
	"github.com/MrWong99/readscript/internal/script"
	"github.com/MrWong99/readscript/internal/session"
)

const ruleWidth = 60

// printer renders the human-facing output of the commands.
type printer struct {
	w     io.Writer
	title *color.Color
	good  *color.Color
	warn  *color.Color
	faint *color.Color
}

func newPrinter(w io.Writer, colour bool) *printer {
	p := &printer{
		w:     w,
		title: color.New(color.FgCyan, color.Bold),
		good:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		faint: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.title, p.good, p.warn, p.faint} {
		if colour {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) banner(title string) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(p.w, rule)
	p.title.Fprintln(p.w, title)
	fmt.Fprintln(p.w, rule)
}

func (p *printer) field(label, format string, args ...any) {
	fmt.Fprintf(p.w, "%-20s %s\n", label+":", fmt.Sprintf(format, args...))
}

// plan prints the layout of a generation run before it starts.
func (p *printer) plan(job *app.Job, provider string) {
	pl := job.Plan
	p.banner("TEXT GENERATION PLAN")
	p.field("Total duration", "%g minutes", pl.TotalMinutes)
	p.field("Style", "%s", job.Style)
	p.field("WPM", "%g", pl.WPM)
	p.field("Chunks", "%d", pl.Len())

	first, last := pl.Entries[0], pl.Entries[pl.Len()-1]
	if pl.Len() > 1 && last.Words != first.Words {
		p.field("Duration per chunk", "%.1f minutes (last %.1f)", first.Minutes, last.Minutes)
		p.field("Words per chunk", "~%d (last ~%d)", first.Words, last.Words)
	} else {
		p.field("Duration per chunk", "%.1f minutes", first.Minutes)
		p.field("Words per chunk", "~%d", first.Words)
	}
	p.field("Total words", "~%d", pl.TotalWords())
	if job.Topic != "" {
		p.field("Topic hint", "%s", job.Topic)
	}
	if provider != "" {
		p.field("Provider", "%s", provider)
	}
	fmt.Fprintln(p.w, strings.Repeat("=", ruleWidth))
	for _, w := range pl.Warnings {
		p.warn.Fprintf(p.w, "warning: %s\n", w)
	}
	fmt.Fprintln(p.w)
}

// chunk returns the per-chunk progress callback.
func (p *printer) chunk(total int) func(script.ChunkResult) {
	return func(c script.ChunkResult) {
		line := fmt.Sprintf("chunk %d/%d: %d words (target ~%d) -> %s", c.Index, total, c.Words, c.TargetWords, c.File)
		if c.Deviation() > script.DeviationThreshold {
			p.warn.Fprintf(p.w, "  %s, %.0f%% off target\n", line, c.Deviation()*100)
			return
		}
		fmt.Fprintf(p.w, "  %s\n", line)
	}
}

// complete prints the summary of a finished run.
func (p *printer) complete(res *script.Result) {
	fmt.Fprintln(p.w)
	p.banner("GENERATION COMPLETE")
	p.field("Total words", "%d", res.TotalWords)
	p.field("Reading time", "~%.1f minutes", res.EstimatedMinutes)
	p.field("Output saved to", "%s", res.Dir)
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, "Files created:")
	for _, f := range append(slices.Clone(res.Files), session.MetadataFile) {
		p.good.Fprintf(p.w, "  - %s\n", f)
	}
}

// partial lists what a failed run left behind.
func (p *printer) partial(res *script.Result) {
	if res == nil || len(res.Files) == 0 {
		return
	}
	p.warn.Fprintf(p.w, "Generation stopped. Files kept in %s:\n", res.Dir)
	for _, f := range res.Files {
		fmt.Fprintf(p.w, "  - %s\n", f)
	}
}

// report prints the per-sample measurements and the average.
// report prints the measured samples and the summary. prev, the analysis of
// an earlier run, may be nil.
func (p *printer) report(r *rate.Report, prev *rate.Analysis, analysisFile string) {
	for _, s := range r.Samples {
		fmt.Fprintf(p.w, "%s\n", s.Path)
		p.faint.Fprintf(p.w, "  duration %.1fs, %d words, %.1f WPM\n", s.Duration.Seconds(), s.Words, s.WPM)
	}
	for _, s := range r.Skipped {
		p.warn.Fprintf(p.w, "%s skipped: %s\n", s.Path, s.Reason)
	}
	fmt.Fprintln(p.w)
	p.banner("SUMMARY")
	p.field("Files analyzed", "%d", len(r.Samples))
	if len(r.Skipped) > 0 {
		p.field("Files skipped", "%d", len(r.Skipped))
	}
	p.field("Total words", "%d", r.TotalWords)
	p.field("Total duration", "%.1f seconds (%.2f minutes)", r.TotalSeconds, r.TotalSeconds/60)
	p.field("Average WPM", "%.1f", r.AverageWPM)
	if prev != nil {
		p.field("Previous average", "%.1f WPM (%s)", prev.Summary.AverageWPM, prev.AnalysisDate.Format(time.DateOnly))
	}
	p.good.Fprintf(p.w, "%-20s %g\n", "Recommended WPM:", r.Recommended())
	if analysisFile != "" {
		fmt.Fprintf(p.w, "\nResults saved to: %s\n", analysisFile)
	}
}

func (p *printer) changes(path string, changes []config.Change) {
	fmt.Fprintf(p.w, "\nProposed changes to %s:\n", path)
	for _, c := range changes {
		fmt.Fprintf(p.w, "  %s\n", c)
	}
}

// styles lists every style. Styles outside available_styles are marked, as
// is the default.
func (p *printer) styles(cfg *config.Config) {
	for _, s := range prompt.Styles() {
		name := s.String()
		var tags []string
		if name == cfg.DefaultStyle {
			tags = append(tags, "default")
		}
		if len(cfg.AvailableStyles) > 0 && !slices.Contains(cfg.AvailableStyles, name) {
			tags = append(tags, "not in available_styles")
		}
		p.title.Fprint(p.w, name)
		if len(tags) > 0 {
			p.faint.Fprintf(p.w, " (%s)", strings.Join(tags, ", "))
		}
		fmt.Fprintf(p.w, "\n  %s\n", s.Description())
	}
}
