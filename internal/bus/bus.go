// Package bus implements the system bus for communication between NES components.
package bus

import (
	"errors"

	"kiwi/internal/apu"
	"kiwi/internal/cartridge"
	"kiwi/internal/cpu"
	"kiwi/internal/input"
	"kiwi/internal/logger"
	"kiwi/internal/memory"
	"kiwi/internal/ppu"
)

// NTSC timing
const (
	CPUFrequency    = 1789773.0
	FrameRate       = 60.0988
	ppuDotsPerCycle = 3
	oamDMACycles    = 513
)

var (
	// ErrNoCartridge is returned by operations that need a loaded game
	ErrNoCartridge = errors.New("no cartridge loaded")
	// ErrStateMismatch is returned when a snapshot belongs to another ROM
	ErrStateMismatch = errors.New("state does not match loaded cartridge")
)

// Bus connects all NES components together
type Bus struct {
	// Core components
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Memory    *memory.Memory
	Input     *input.InputState
	ppuMemory *memory.PPUMemory
	cartridge *cartridge.Cartridge

	// System state
	cpuCycles  uint64
	frameCount uint64
	frameDone  bool

	// OAM DMA stall owed for the current instruction
	dmaStall      uint64
	dmaInProgress bool
}

// New creates a new system bus with all components and no cartridge
func New() *Bus {
	b := &Bus{
		PPU:   ppu.New(),
		APU:   apu.New(),
		Input: input.NewInputState(),
	}

	b.Memory = memory.New(b.PPU, b.APU, nil)
	b.Memory.SetInputSystem(b.Input)
	b.Memory.SetDMACallback(b.TriggerOAMDMA)
	b.CPU = cpu.New(b.Memory)

	b.ppuMemory = memory.NewPPUMemory(nil)
	b.PPU.SetMemory(b.ppuMemory)
	b.PPU.SetFrameCompleteCallback(b.handleFrameComplete)
	b.APU.SetMemoryReader(b.Memory.Read)

	return b
}

// LoadCartridge attaches a cartridge and resets the machine
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.cartridge = cart
	b.Memory.SetCartridge(cart)
	b.Memory.SetRAM(make([]uint8, 0x800))

	b.ppuMemory = memory.NewPPUMemory(cart)
	b.PPU.SetMemory(b.ppuMemory)

	logger.Logf(logger.Allow, "bus", "cartridge loaded: %v", cart)
	b.Reset()
}

// Cartridge returns the loaded cartridge, or nil
func (b *Bus) Cartridge() *cartridge.Cartridge {
	return b.cartridge
}

// Reset resets all components to their initial state
func (b *Bus) Reset() {
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	b.CPU.Reset()

	b.cpuCycles = 0
	b.frameCount = 0
	b.frameDone = false
	b.dmaStall = 0
	b.dmaInProgress = false
}

func (b *Bus) handleFrameComplete() {
	b.frameCount++
	b.frameDone = true
}

// Step executes one CPU instruction, or interrupt entry, and runs the PPU
// and APU for the cycles it took. It returns the CPU cycles consumed,
// including any OAM DMA stall.
func (b *Bus) Step() uint64 {
	cycles := b.CPU.Step()

	if b.dmaStall > 0 {
		b.CPU.AddCycles(b.dmaStall)
		cycles += b.dmaStall
		b.dmaStall = 0
	}

	b.tick(cycles)
	b.dmaInProgress = false
	return cycles
}

// tick runs the PPU and APU for n CPU cycles. Interrupt lines are sampled
// every cycle so the CPU sees them before its next instruction.
func (b *Bus) tick(n uint64) {
	for i := uint64(0); i < n; i++ {
		for dot := 0; dot < ppuDotsPerCycle; dot++ {
			b.PPU.Step()
		}
		b.CPU.SetNMILine(b.PPU.NMILine())

		b.APU.Step()
		b.CPU.SetIRQ(b.APU.IRQ())
	}
	b.cpuCycles += n
}

// TriggerOAMDMA copies a page of CPU memory to OAM. The CPU is stalled for
// 513 cycles, plus one when the transfer starts on an odd cycle.
func (b *Bus) TriggerOAMDMA(page uint8) {
	if b.dmaInProgress {
		return
	}
	b.dmaInProgress = true

	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		b.PPU.WriteOAM(b.Memory.Read(base + i))
	}

	stall := uint64(oamDMACycles)
	if b.CPU.WriteCycle()%2 == 1 {
		stall++
	}
	b.dmaStall += stall
}

// Frame runs until the PPU completes the next frame
func (b *Bus) Frame() {
	b.frameDone = false
	for !b.frameDone {
		b.Step()
	}
}

// Run runs the emulator for a number of frames
func (b *Bus) Run(frames int) {
	for i := 0; i < frames; i++ {
		b.Frame()
	}
}

// RunCycles runs whole instructions until at least n CPU cycles have passed
func (b *Bus) RunCycles(n uint64) {
	target := b.cpuCycles + n
	for b.cpuCycles < target {
		b.Step()
	}
}

// GetFrameBuffer returns the PPU frame buffer. The slice aliases the PPU's
// buffer.
func (b *Bus) GetFrameBuffer() []uint32 {
	return b.PPU.FrameBuffer()
}

// GetAudioSamples drains the audio samples from the APU
func (b *Bus) GetAudioSamples() []float32 {
	return b.APU.GetSamples()
}

// SetAudioSampleRate sets the target audio sample rate for the APU
func (b *Bus) SetAudioSampleRate(rate int) {
	b.APU.SetSampleRate(rate)
}

// GetCycleCount returns the number of CPU cycles run since reset
func (b *Bus) GetCycleCount() uint64 {
	return b.cpuCycles
}

// GetFrameCount returns the number of frames completed since reset
func (b *Bus) GetFrameCount() uint64 {
	return b.frameCount
}

// SetControllerButton sets the state of a controller button (controller
// 0 or 1)
func (b *Bus) SetControllerButton(controller int, button input.Button, pressed bool) {
	b.Input.Controller(controller).SetButton(button, pressed)
}

// SetControllerButtons sets all button states for a controller
func (b *Bus) SetControllerButtons(controller int, buttons [input.ButtonsPerController]bool) {
	b.Input.Controller(controller).SetButtons(buttons)
}

// EnableCPUDebug traces executed instructions to the log
func (b *Bus) EnableCPUDebug(enable bool) {
	b.CPU.EnableDebugLogging(enable)
}
