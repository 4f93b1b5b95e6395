package apperr_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/MrWong99/readscript/internal/apperr"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	base := apperr.Wrap(fs.ErrNotExist, apperr.NotFound, "samples dir")
	wrapped := fmt.Errorf("rate: %w", base)

	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"nil", nil, apperr.Unknown},
		{"plain", errors.New("boom"), apperr.Unknown},
		{"direct", apperr.New(apperr.InvalidInput, "bad"), apperr.InvalidInput},
		{"wrapped", wrapped, apperr.NotFound},
		{"formatted", apperr.Newf(apperr.Fatal, "no key for %s", "openai"), apperr.Fatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := apperr.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf: got %v, want %v", got, tt.want)
			}
		})
	}

	if !errors.Is(wrapped, fs.ErrNotExist) {
		t.Error("expected cause to remain reachable through errors.Is")
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("x"), 1},
		{apperr.New(apperr.Fatal, "x"), 1},
		{apperr.New(apperr.InvalidInput, "x"), 2},
		{apperr.New(apperr.NotFound, "x"), 3},
		{apperr.Wrapf(errors.New("503"), apperr.CollaboratorFailure, "chunk %d", 2), 4},
	}
	for _, tt := range tests {
		if got := apperr.ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v): got %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := apperr.Wrap(errors.New("timeout"), apperr.CollaboratorFailure, "generate chunk 2")
	if got, want := err.Error(), "generate chunk 2: timeout"; got != want {
		t.Errorf("Error: got %q, want %q", got, want)
	}
	if !apperr.IsKind(err, apperr.CollaboratorFailure) {
		t.Error("IsKind: expected true")
	}
}
