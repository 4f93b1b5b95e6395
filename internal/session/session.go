// Package session owns the on-disk layout of one generation run: a
// timestamp-named directory holding one text file per chunk and a single
// metadata.json written after every chunk succeeded.
//
// Chunk files are written as soon as each chunk is generated. When a later
// chunk fails the directory is left as it is, without metadata, so the
// operator can inspect what was produced.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	// MetadataFile is the name of the per-session metadata record.
	MetadataFile = "metadata.json"

	// SingleChunkFile is used instead of a numbered name when a session has
	// exactly one chunk.
	SingleChunkFile = "script.txt"

	dirPrefix = "session_"
	dirLayout = "20060102_150405"
	filePerm  = 0o644
	dirPerm   = 0o755
)

// ErrMetadataWritten is returned when WriteMetadata is called twice.
var ErrMetadataWritten = errors.New("session: metadata already written")

// DirName returns the session directory name for a run started at t.
func DirName(t time.Time) string {
	return dirPrefix + t.Format(dirLayout)
}

// ChunkFileName returns the file name of the index-th (1-based) chunk in a
// session of total chunks.
func ChunkFileName(index, total int) string {
	if total == 1 {
		return SingleChunkFile
	}
	return fmt.Sprintf("chunk_%02d.txt", index)
}

// Writer writes the artifacts of a single session. It is not safe for
// concurrent use; chunks are produced sequentially.
type Writer struct {
	dir       string
	id        string
	createdAt time.Time
	files     []string
	metadata  bool
}

// New creates the session directory below root for a run started at now.
// A directory with the same name is reused when it already exists.
func New(root string, now time.Time) (*Writer, error) {
	if root == "" {
		return nil, errors.New("session: output root must not be empty")
	}
	dir := filepath.Join(root, DirName(now))
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("session: create %q: %w", dir, err)
	}
	return &Writer{
		dir:       dir,
		id:        uuid.NewString(),
		createdAt: now,
	}, nil
}

// Dir returns the session directory path.
func (w *Writer) Dir() string { return w.dir }

// ID returns the random identifier recorded in the metadata.
func (w *Writer) ID() string { return w.id }

// CreatedAt returns the timestamp the session directory is named after.
func (w *Writer) CreatedAt() time.Time { return w.createdAt }

// Files returns the names of the chunk files written so far, sorted.
func (w *Writer) Files() []string {
	out := slices.Clone(w.files)
	slices.Sort(out)
	return out
}

// WriteChunk writes text as the index-th (1-based) of total chunks and
// returns the file name it used.
func (w *Writer) WriteChunk(index, total int, text string) (string, error) {
	if total < 1 || index < 1 || index > total {
		return "", fmt.Errorf("session: chunk %d out of range 1..%d", index, total)
	}
	name := ChunkFileName(index, total)
	if err := os.WriteFile(filepath.Join(w.dir, name), []byte(text), filePerm); err != nil {
		return "", fmt.Errorf("session: write %s: %w", name, err)
	}
	if !slices.Contains(w.files, name) {
		w.files = append(w.files, name)
	}
	return name, nil
}

// WriteMetadata writes m as indented JSON. It may be called at most once per
// session and refuses to overwrite an existing metadata file.
func (w *Writer) WriteMetadata(m *Metadata) error {
	if w.metadata {
		return ErrMetadataWritten
	}
	if m.SessionID == "" {
		m.SessionID = w.id
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode metadata: %w", err)
	}

	path := filepath.Join(w.dir, MetadataFile)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrMetadataWritten
		}
		return fmt.Errorf("session: create metadata: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("session: write metadata: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("session: close metadata: %w", err)
	}
	w.metadata = true
	return nil
}

// EstimateMinutes converts a word count back into reading minutes at wpm,
// rounded to one decimal place.
func EstimateMinutes(words int, wpm float64) float64 {
	if wpm <= 0 {
		return 0
	}
	return math.Round(float64(words)/wpm*10) / 10
}
