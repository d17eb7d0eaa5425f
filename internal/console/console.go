// Package console is the emulator core behind the kiwi facade. It owns a
// bus, loads games into it and steps it on behalf of a host.
package console

import (
	"fmt"
	"sync"

	"kiwi/internal/apu"
	"kiwi/internal/bus"
	"kiwi/internal/cartridge"
	"kiwi/internal/logger"
	"kiwi/internal/romloader"
)

// StepMode selects how much emulation a single Step performs
type StepMode int

const (
	// StepFrame runs until the next complete video frame
	StepFrame StepMode = iota
	// StepInstruction runs a single CPU instruction
	StepInstruction
)

func (m StepMode) String() string {
	switch m {
	case StepFrame:
		return "frame"
	case StepInstruction:
		return "instruction"
	}
	return fmt.Sprintf("StepMode(%d)", int(m))
}

// Option configures a Console
type Option func(*Console)

// WithLogger sends console messages to l instead of the central log
func WithLogger(l *logger.Logger) Option {
	return func(c *Console) {
		c.log = l
	}
}

// WithSampleRate sets the audio sample rate of the APU
func WithSampleRate(rate int) Option {
	return func(c *Console) {
		c.sampleRate = rate
	}
}

// WithStepMode sets the amount of emulation performed by Step
func WithStepMode(mode StepMode) Option {
	return func(c *Console) {
		c.mode = mode
	}
}

// WithExtensions sets the file extensions accepted inside archives
func WithExtensions(extensions ...string) Option {
	return func(c *Console) {
		c.extensions = extensions
	}
}

// Console is a complete NES. All methods are safe for concurrent use.
type Console struct {
	mu sync.Mutex

	bus        *bus.Bus
	log        *logger.Logger
	sampleRate int
	mode       StepMode
	extensions []string
	romPath    string
}

// New creates a console with no game inserted
func New(opts ...Option) *Console {
	c := &Console{
		log:        logger.Central(),
		sampleRate: apu.DefaultSampleRate,
		mode:       StepFrame,
		extensions: romloader.DefaultExtensions,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.bus = c.newBus()
	return c
}

func (c *Console) newBus() *bus.Bus {
	b := bus.New()
	b.SetAudioSampleRate(c.sampleRate)
	return b
}

// InsertGame loads the ROM at path, raw or inside an archive, and powers
// the console on with it. On failure the previous game keeps running.
func (c *Console) InsertGame(path string) error {
	data, name, err := romloader.Load(path, c.extensions)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	cart, err := cartridge.LoadFromBytes(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}

	b := c.newBus()
	b.LoadCartridge(cart)

	c.mu.Lock()
	c.bus = b
	c.romPath = path
	c.mu.Unlock()

	c.log.Logf(logger.Allow, "console", "inserted %s (%v)", name, cart)
	if cart.IsNES20() {
		c.log.Logf(logger.Allow, "console", "%s has a NES 2.0 header, extended fields ignored", name)
	}
	return nil
}

// Step advances the console by one frame or one instruction, depending on
// the step mode. Without a game it does nothing.
func (c *Console) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bus.Cartridge() == nil {
		return
	}
	switch c.mode {
	case StepInstruction:
		c.bus.Step()
	default:
		c.bus.Frame()
	}
}

// ScreenFramebuffer returns the 256x240 screen as 0x00RRGGBB pixels. The
// slice aliases the video buffer and is overwritten by the next Step, so
// read it from the goroutine that steps. Other goroutines use CopyFramebuffer.
func (c *Console) ScreenFramebuffer() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus.GetFrameBuffer()
}

// CopyFramebuffer copies the screen into dst while no Step is running and
// returns it. dst is grown to 256x240 pixels when it is too short.
func (c *Console) CopyFramebuffer(dst []uint32) []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	fb := c.bus.GetFrameBuffer()
	if cap(dst) < len(fb) {
		dst = make([]uint32, len(fb))
	}
	dst = dst[:len(fb)]
	copy(dst, fb)
	return dst
}

// VirtualControllerButtonDown presses a button. Codes 0-7 are controller 1
// A, B, Select, Start, Up, Down, Left, Right and 8-15 controller 2. Other
// codes are ignored.
func (c *Console) VirtualControllerButtonDown(code uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus.Input.Press(code, true)
}

// VirtualControllerButtonUp releases a button
func (c *Console) VirtualControllerButtonUp(code uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus.Input.Press(code, false)
}

// Reset presses the console's reset button
func (c *Console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bus.Cartridge() != nil {
		c.bus.Reset()
	}
}

// AudioSamples drains the audio produced since the last call
func (c *Console) AudioSamples() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus.GetAudioSamples()
}

// SampleRate returns the audio sample rate
func (c *Console) SampleRate() int {
	return c.sampleRate
}

// FrameCount returns the number of frames completed since the game was
// inserted or reset
func (c *Console) FrameCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus.GetFrameCount()
}

// Cartridge returns the inserted cartridge, or nil
func (c *Console) Cartridge() *cartridge.Cartridge {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus.Cartridge()
}

// ROMPath returns the path of the inserted game
func (c *Console) ROMPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.romPath
}

// Snapshot captures the machine state for a save state
func (c *Console) Snapshot() (*bus.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus.Snapshot()
}

// Restore loads a machine state taken from the same game
func (c *Console) Restore(s *bus.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus.Restore(s)
}

// Bus gives direct access to the hardware. Callers must not use it while
// another goroutine is stepping the console.
func (c *Console) Bus() *bus.Bus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bus
}
