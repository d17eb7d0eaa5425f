//go:build headless

package audio

import "errors"

// ErrUnavailable is returned by NewPlayer in headless builds
var ErrUnavailable = errors.New("audio playback not available in headless build")

// Player is not available in headless builds
type Player struct{}

// NewPlayer always fails in headless builds
func NewPlayer(sampleRate int, volume float32) (*Player, error) {
	return nil, ErrUnavailable
}

func (p *Player) Queue(samples []float32) {}
func (p *Player) SetVolume(volume float32) {}
func (p *Player) Buffered() int { return 0 }
func (p *Player) Close() error { return nil }
