package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"kiwi/internal/logger"
)

const wavBitDepth = 16

// Recorder writes APU samples to a mono 16 bit WAV file. Samples are
// streamed to disk as they arrive; the header is completed by Close.
type Recorder struct {
	path    string
	file    *os.File
	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	written int
}

// NewRecorder creates the WAV file at path
func NewRecorder(path string, sampleRate int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav recorder: %w", err)
	}

	// format 1 is integer PCM
	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, 1, 1)

	logger.Logf(logger.Allow, "audio", "recording to %s", path)
	return &Recorder{
		path: path,
		file: f,
		enc:  enc,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// Write appends samples. The APU mixer produces 0..1 which is stored as is.
func (r *Recorder) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	r.buf.Data = toPCM16(r.buf.Data[:0], samples)
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("wav recorder: %w", err)
	}
	r.written += len(samples)
	return nil
}

// Samples returns the number of samples written so far
func (r *Recorder) Samples() int {
	return r.written
}

// Close finishes the WAV header and closes the file
func (r *Recorder) Close() (rerr error) {
	defer func() {
		if err := r.file.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wav recorder: %w", err)
		}
	}()

	if err := r.enc.Close(); err != nil {
		return fmt.Errorf("wav recorder: %w", err)
	}
	logger.Logf(logger.Allow, "audio", "wrote %d samples to %s", r.written, r.path)
	return nil
}
