package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/teslashibe/go-autonate/pkg/scene"
)

// WriteJSONL writes one JSON object per frame, newline separated.
func WriteJSONL(w io.Writer, frames []scene.FrameState) error {
	sink := JSONLSink(w)
	for _, fs := range frames {
		if err := sink(fs); err != nil {
			return err
		}
	}
	return nil
}

// JSONLSink returns a Sink that encodes each frame as a JSON line.
func JSONLSink(w io.Writer) Sink {
	enc := json.NewEncoder(w)
	return func(fs scene.FrameState) error {
		if err := enc.Encode(fs); err != nil {
			return fmt.Errorf("encode frame %d: %w", fs.Frame, err)
		}
		return nil
	}
}

// ReadJSONL decodes frames written by WriteJSONL.
func ReadJSONL(r io.Reader) ([]scene.FrameState, error) {
	var frames []scene.FrameState
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var fs scene.FrameState
		if err := json.Unmarshal(line, &fs); err != nil {
			return nil, fmt.Errorf("line %d: %w", len(frames)+1, err)
		}
		frames = append(frames, fs)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}
