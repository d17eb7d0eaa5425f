//go:build !headless

package audio

import (
	"fmt"
	"sync"
	"time"

	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"kiwi/internal/logger"
)

// about 170ms of stereo float32 at 48kHz
const ringCapacity = 64 * 1024

var (
	contextOnce sync.Once
	audioCtx    *ebaudio.Context
	contextRate int
)

// audioContext returns the process audio context. Ebiten allows a single
// context per process, so the first sample rate wins.
func audioContext(sampleRate int) (*ebaudio.Context, error) {
	contextOnce.Do(func() {
		audioCtx = ebaudio.NewContext(sampleRate)
		contextRate = sampleRate
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already running at %d Hz", contextRate)
	}
	return audioCtx, nil
}

// Player streams mono APU samples to the audio device
type Player struct {
	player *ebaudio.Player
	ring   *RingBuffer
	volume float32
	buf    []byte
}

// NewPlayer starts playback at sampleRate
func NewPlayer(sampleRate int, volume float32) (*Player, error) {
	ctx, err := audioContext(sampleRate)
	if err != nil {
		return nil, err
	}

	ring := NewRingBuffer(ringCapacity, stereoF32Frame)
	p, err := ctx.NewPlayerF32(ring)
	if err != nil {
		return nil, fmt.Errorf("creating audio player: %w", err)
	}
	p.SetBufferSize(50 * time.Millisecond)
	p.Play()

	logger.Logf(logger.Allow, "audio", "playing at %d Hz", sampleRate)
	return &Player{
		player: p,
		ring:   ring,
		volume: volume,
	}, nil
}

// Queue queues mono samples for playback
func (p *Player) Queue(samples []float32) {
	if len(samples) == 0 {
		return
	}
	p.buf = encodeStereoF32(p.buf[:0], samples, p.volume)
	p.ring.Write(p.buf)
}

// SetVolume sets the volume, clamped to 0..1
func (p *Player) SetVolume(volume float32) {
	p.volume = min(max(volume, 0), 1)
}

// Buffered returns the number of bytes waiting for the device
func (p *Player) Buffered() int {
	return p.ring.Buffered()
}

// Close stops playback
func (p *Player) Close() error {
	p.ring.Close()
	return p.player.Close()
}
