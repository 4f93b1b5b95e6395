// Package audiofile reads the playback duration of recorded samples from
// their container headers. WAV files are parsed from the RIFF chunk list;
// MP3 files are measured by walking every MPEG audio frame with mp3lib,
// which is exact for both constant and variable bit-rate files.
package audiofile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmulholland/mp3lib"
)

// ErrUnsupportedFormat is returned for file extensions Duration cannot read.
var ErrUnsupportedFormat = errors.New("audiofile: unsupported format")

// Duration returns the playback length of the audio file at path.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("audiofile: open %q: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		d, err := WAVDuration(f)
		if err != nil {
			return 0, fmt.Errorf("audiofile: %q: %w", path, err)
		}
		return d, nil
	case ".mp3":
		d, err := MP3Duration(f)
		if err != nil {
			return 0, fmt.Errorf("audiofile: %q: %w", path, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// WAVDuration reads a RIFF/WAVE stream and returns data-chunk size divided
// by the byte rate from the fmt chunk.
func WAVDuration(r io.Reader) (time.Duration, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return 0, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return 0, errors.New("not a RIFF/WAVE file")
	}

	var byteRate uint32
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return 0, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return 0, fmt.Errorf("fmt chunk too short (%d bytes)", size)
			}
			var body [16]byte
			if _, err := io.ReadFull(r, body[:]); err != nil {
				return 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			// byte_rate sits after format(2), channels(2) and sample_rate(4).
			byteRate = binary.LittleEndian.Uint32(body[8:12])
			// Extension bytes plus the pad byte of an odd-sized chunk.
			if rest := int64(size) - 16 + int64(size%2); rest > 0 {
				if _, err := io.CopyN(io.Discard, r, rest); err != nil {
					return 0, fmt.Errorf("skip fmt extension: %w", err)
				}
			}
		case "data":
			if byteRate == 0 {
				return 0, errors.New("data chunk before fmt chunk or zero byte rate")
			}
			return time.Duration(float64(size) / float64(byteRate) * float64(time.Second)), nil
		default:
			skip := int64(size) + int64(size%2)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return 0, fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
	}
}

// MP3Duration walks the MPEG audio frames in r and sums their sample counts.
// A leading Xing or VBRI info frame carries no audio and is not counted.
func MP3Duration(r io.Reader) (time.Duration, error) {
	br := bufio.NewReader(r)

	var (
		seconds float64
		frames  int
	)
	for {
		frame := mp3lib.NextFrame(br)
		if frame == nil {
			break
		}
		frames++
		if frames == 1 && (mp3lib.IsXingHeader(frame) || mp3lib.IsVbriHeader(frame)) {
			continue
		}
		if frame.SamplingRate > 0 {
			seconds += float64(frame.SampleCount) / float64(frame.SamplingRate)
		}
	}
	if seconds == 0 {
		return 0, errors.New("no MPEG audio frames found")
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
