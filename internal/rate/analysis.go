package rate

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/config"
)

// Analysis is the JSON record written after an estimation run.
type Analysis struct {
	AnalysisDate time.Time       `json:"analysis_date"`
	Summary      AnalysisSummary `json:"summary"`
	Files        []AnalysisFile  `json:"files"`
	Skipped      []AnalysisSkip  `json:"skipped,omitempty"`
}

// AnalysisSummary holds the aggregate figures of an [Analysis].
type AnalysisSummary struct {
	FilesAnalyzed        int     `json:"files_analyzed"`
	FilesSkipped         int     `json:"files_skipped"`
	TotalWords           int     `json:"total_words"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	AverageWPM           float64 `json:"average_wpm"`
}

// AnalysisFile is one measured sample.
type AnalysisFile struct {
	File            string  `json:"file"`
	DurationSeconds float64 `json:"duration_seconds"`
	WordCount       int     `json:"word_count"`
	WPM             float64 `json:"wpm"`
	Transcript      string  `json:"transcript"`
}

// AnalysisSkip is one sample that could not be measured.
type AnalysisSkip struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// NewAnalysis converts a report into its JSON record. Durations are rounded
// to hundredths of a second and rates to one decimal.
func NewAnalysis(r *Report) *Analysis {
	a := &Analysis{
		AnalysisDate: r.AnalyzedAt,
		Summary: AnalysisSummary{
			FilesAnalyzed:        len(r.Samples),
			FilesSkipped:         len(r.Skipped),
			TotalWords:           r.TotalWords,
			TotalDurationSeconds: round(r.TotalSeconds, 2),
			AverageWPM:           round(r.AverageWPM, 1),
		},
		Files: make([]AnalysisFile, 0, len(r.Samples)),
	}
	for _, s := range r.Samples {
		a.Files = append(a.Files, AnalysisFile{
			File:            filepath.Base(s.Path),
			DurationSeconds: round(s.Duration.Seconds(), 2),
			WordCount:       s.Words,
			WPM:             round(s.WPM, 1),
			Transcript:      s.Transcript,
		})
	}
	for _, s := range r.Skipped {
		a.Skipped = append(a.Skipped, AnalysisSkip{File: filepath.Base(s.Path), Reason: s.Reason})
	}
	return a
}

// WriteAnalysis writes the JSON record of r to path, creating parent
// directories. The file is replaced atomically.
func WriteAnalysis(path string, r *Report) error {
	data, err := json.MarshalIndent(NewAnalysis(r), "", "  ")
	if err != nil {
		return apperr.Wrap(err, apperr.Fatal, "encode analysis")
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Wrapf(err, apperr.Fatal, "create %q", dir)
	}
	tmp, err := os.CreateTemp(dir, ".analysis-*.json")
	if err != nil {
		return apperr.Wrap(err, apperr.Fatal, "write analysis")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.Wrap(err, apperr.Fatal, "write analysis")
	}
	if err := tmp.Close(); err != nil {
		return apperr.Wrap(err, apperr.Fatal, "write analysis")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperr.Wrap(err, apperr.Fatal, "write analysis")
	}
	return nil
}

// ReadAnalysis loads a record previously written by [WriteAnalysis].
func ReadAnalysis(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Newf(apperr.NotFound, "no analysis at %q", path)
		}
		return nil, apperr.Wrapf(err, apperr.Fatal, "read %q", path)
	}
	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, apperr.Wrapf(err, apperr.InvalidInput, "parse %q", path)
	}
	return &a, nil
}

// Apply returns a copy of cfg with WPM set to the report's recommendation.
// cfg itself is not modified.
func Apply(cfg *config.Config, r *Report) *config.Config {
	out := cfg.Clone()
	out.WPM = r.Recommended()
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
