package plan_test

import (
	"math"
	"testing"

	"github.com/MrWong99/readscript/internal/apperr"
	"github.com/MrWong99/readscript/internal/plan"
)

func TestBuild_Examples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     plan.Request
		minutes []float64
	}{
		{"no chunk args", plan.Request{TotalMinutes: 30}, []float64{30}},
		{"three chunks", plan.Request{TotalMinutes: 30, Chunks: 3}, []float64{10, 10, 10}},
		{"chunk duration 10", plan.Request{TotalMinutes: 30, ChunkMinutes: 10}, []float64{10, 10, 10}},
		{"uneven chunk duration", plan.Request{TotalMinutes: 25, ChunkMinutes: 10}, []float64{10, 10, 5}},
		{"chunk duration equals total", plan.Request{TotalMinutes: 7, ChunkMinutes: 7}, []float64{7}},
		{"chunk count wins", plan.Request{TotalMinutes: 30, Chunks: 2, ChunkMinutes: 10}, []float64{15, 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := plan.Build(tt.req, 150)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Len() != len(tt.minutes) {
				t.Fatalf("chunks: got %d, want %d", p.Len(), len(tt.minutes))
			}
			for i, e := range p.Entries {
				if e.Index != i+1 {
					t.Errorf("entry %d: index got %d", i, e.Index)
				}
				if math.Abs(e.Minutes-tt.minutes[i]) > 1e-9 {
					t.Errorf("entry %d: minutes got %g, want %g", i, e.Minutes, tt.minutes[i])
				}
				if want := int(math.Round(tt.minutes[i] * 150)); e.Words != want {
					t.Errorf("entry %d: words got %d, want %d", i, e.Words, want)
				}
			}
		})
	}
}

func TestBuild_EqualWordTargets(t *testing.T) {
	t.Parallel()

	p, err := plan.Build(plan.Request{TotalMinutes: 30, Chunks: 3}, 147)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range p.Entries {
		if e.Words != 1470 {
			t.Errorf("chunk %d: words got %d, want 1470", e.Index, e.Words)
		}
	}
	if got := p.TotalWords(); got != 4410 {
		t.Errorf("TotalWords: got %d, want 4410", got)
	}
}

func TestBuild_SumEqualsTotal(t *testing.T) {
	t.Parallel()

	for _, d := range []float64{1, 1.5, 7, 10, 25, 30, 59.9, 90, 241} {
		for c := 1; c <= 13; c++ {
			p, err := plan.Build(plan.Request{TotalMinutes: d, Chunks: c}, 150)
			if err != nil {
				t.Fatalf("D=%g C=%d: unexpected error: %v", d, c, err)
			}
			if p.Len() != c {
				t.Errorf("D=%g C=%d: got %d chunks", d, c, p.Len())
			}
			if sum := sumMinutes(p); math.Abs(sum-d) > 1e-9 {
				t.Errorf("D=%g C=%d: sum %g != total", d, c, sum)
			}
		}
	}
}

func TestBuild_ChunkDurationProperty(t *testing.T) {
	t.Parallel()

	for _, d := range []float64{1, 2.5, 10, 25, 30, 45, 61} {
		for _, size := range []float64{0.5, 1, 3, 7, 10, 12.5} {
			if size > d {
				continue
			}
			p, err := plan.Build(plan.Request{TotalMinutes: d, ChunkMinutes: size}, 150)
			if err != nil {
				t.Fatalf("D=%g d=%g: unexpected error: %v", d, size, err)
			}
			wantC := int(math.Ceil(d/size - 1e-9))
			if p.Len() != wantC {
				t.Errorf("D=%g d=%g: chunks got %d, want %d", d, size, p.Len(), wantC)
			}
			last := p.Entries[p.Len()-1].Minutes
			if want := d - size*float64(p.Len()-1); math.Abs(last-want) > 1e-9 {
				t.Errorf("D=%g d=%g: last got %g, want %g", d, size, last, want)
			}
			if last <= 0 || last > size+1e-9 {
				t.Errorf("D=%g d=%g: last chunk %g outside (0, d]", d, size, last)
			}
			if sum := sumMinutes(p); math.Abs(sum-d) > 1e-9 {
				t.Errorf("D=%g d=%g: sum %g != total", d, size, sum)
			}
		}
	}
}

func TestWords_Rounding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes, wpm float64
		want         int
	}{
		{10, 150, 1500},
		{1, 147.4, 147},
		{1, 147.5, 148},
		{2.5, 133, 333},
		{0.1, 4, 0},
		{1.0 / 3.0, 150, 50},
	}
	for _, tt := range tests {
		if got := plan.Words(tt.minutes, tt.wpm); got != tt.want {
			t.Errorf("Words(%g, %g): got %d, want %d", tt.minutes, tt.wpm, got, tt.want)
		}
	}
}

func TestBuild_ShortChunkWarning(t *testing.T) {
	t.Parallel()

	p, err := plan.Build(plan.Request{TotalMinutes: 2, Chunks: 5}, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Warnings) == 0 {
		t.Error("expected a warning for chunks shorter than a minute")
	}

	p, err = plan.Build(plan.Request{TotalMinutes: 30, Chunks: 3}, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", p.Warnings)
	}
}

func TestBuild_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  plan.Request
		wpm  float64
	}{
		{"zero duration", plan.Request{TotalMinutes: 0}, 150},
		{"sub-minute duration", plan.Request{TotalMinutes: 0.5}, 150},
		{"negative duration", plan.Request{TotalMinutes: -3}, 150},
		{"NaN duration", plan.Request{TotalMinutes: math.NaN()}, 150},
		{"negative chunks", plan.Request{TotalMinutes: 10, Chunks: -1}, 150},
		{"negative chunk duration", plan.Request{TotalMinutes: 10, ChunkMinutes: -2}, 150},
		{"chunk longer than total", plan.Request{TotalMinutes: 10, ChunkMinutes: 11}, 150},
		{"zero wpm", plan.Request{TotalMinutes: 10}, 0},
		{"chunk below one word", plan.Request{TotalMinutes: 1, Chunks: 4}, 1},
		{"huge chunk count", plan.Request{TotalMinutes: 10, Chunks: 1 << 62}, 150},
		{"tiny chunk duration", plan.Request{TotalMinutes: 10, ChunkMinutes: 1e-300}, 150},
		{"subnormal chunk duration", plan.Request{TotalMinutes: 10, ChunkMinutes: 5e-324}, 150},
		{"too many words", plan.Request{TotalMinutes: 1e300}, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := plan.Build(tt.req, tt.wpm)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !apperr.IsKind(err, apperr.InvalidInput) {
				t.Errorf("kind: got %v, want %v", apperr.KindOf(err), apperr.InvalidInput)
			}
		})
	}
}

func TestBuild_Bounds(t *testing.T) {
	t.Parallel()

	p, err := plan.Build(plan.Request{TotalMinutes: 1, Chunks: 4}, 4)
	if err != nil {
		t.Fatalf("one word per chunk: %v", err)
	}
	for _, e := range p.Entries {
		if e.Words != 1 {
			t.Errorf("chunk %d: words got %d, want 1", e.Index, e.Words)
		}
	}

	p, err = plan.Build(plan.Request{TotalMinutes: plan.MaxChunks, ChunkMinutes: 1}, 150)
	if err != nil {
		t.Fatalf("MaxChunks chunks: %v", err)
	}
	if p.Len() != plan.MaxChunks {
		t.Errorf("chunks got %d, want %d", p.Len(), plan.MaxChunks)
	}

	_, err = plan.Build(plan.Request{TotalMinutes: plan.MaxChunks + 1, Chunks: plan.MaxChunks + 1}, 150)
	if !apperr.IsKind(err, apperr.InvalidInput) {
		t.Errorf("MaxChunks+1 chunks: err = %v, want InvalidInput", err)
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

func sumMinutes(p *plan.Plan) float64 {
	var sum float64
	for _, e := range p.Entries {
		sum += e.Minutes
	}
	return sum
}
