package rate

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MrWong99/readscript/internal/apperr"
)

// FindSamples returns the regular files directly inside dir whose names match
// any of patterns, sorted by path. Matching ignores case, so "*.mp3" also
// picks up "TAKE1.MP3". A missing directory or an empty match set is
// [apperr.NotFound].
func FindSamples(dir string, patterns []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.Newf(apperr.NotFound, "samples directory %q does not exist", dir)
		}
		return nil, apperr.Wrapf(err, apperr.Fatal, "read samples directory %q", dir)
	}

	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ok, err := matchAny(e.Name(), patterns)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	if len(out) == 0 {
		return nil, apperr.Newf(apperr.NotFound, "no audio samples matching %s in %q",
			strings.Join(patterns, ", "), dir)
	}
	slices.Sort(out)
	return out, nil
}

func matchAny(name string, patterns []string) (bool, error) {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		ok, err := filepath.Match(strings.ToLower(p), lower)
		if err != nil {
			return false, apperr.Wrapf(err, apperr.InvalidInput, "sample pattern %q", p)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
