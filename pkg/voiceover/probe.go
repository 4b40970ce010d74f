// Package voiceover measures voiceover audio so dialogue activity windows can
// be sized to the real recording instead of a hand-typed constant.
package voiceover

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// Info describes a decoded audio file.
type Info struct {
	Duration   time.Duration `json:"duration"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Samples    int           `json:"samples"`
}

// Seconds returns the duration in seconds.
func (i Info) Seconds() float64 {
	return i.Duration.Seconds()
}

// Frames returns the number of video frames the audio spans, rounded up.
func (i Info) Frames(fps int) (int, error) {
	return timeline.FramesForSeconds(i.Seconds(), fps)
}

// Extensions lists the file extensions Probe can decode.
func Extensions() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg"}
}

// Supported reports whether name has a decodable extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// Probe decodes the header and sample count of an audio file.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	info, err := ProbeReader(f, filepath.Ext(path))
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// ProbeReader decodes audio of the given extension (".mp3", "wav", ...) from r.
func ProbeReader(r io.Reader, ext string) (Info, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))

	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch ext {
	case "mp3":
		stream, format, err = mp3.Decode(readCloser(r))
	case "wav":
		stream, format, err = wav.Decode(r)
	case "flac":
		stream, format, err = flac.Decode(r)
	case "ogg":
		stream, format, err = vorbis.Decode(readCloser(r))
	default:
		return Info{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Info{}, fmt.Errorf("decode %s: %w", ext, err)
	}
	defer stream.Close()

	n := stream.Len()
	if n <= 0 {
		return Info{}, ErrEmptyAudio
	}

	return Info{
		Duration:   format.SampleRate.D(n),
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Samples:    n,
	}, nil
}

func readCloser(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(r)
}
