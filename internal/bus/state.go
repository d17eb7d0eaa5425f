package bus

import (
	"fmt"

	"kiwi/internal/apu"
	"kiwi/internal/cpu"
	"kiwi/internal/ppu"
)

// State is a complete machine snapshot
type State struct {
	CRC32      uint32
	CPU        cpu.State
	PPU        ppu.State
	APU        apu.State
	RAM        []uint8
	VRAM       []uint8
	Palette    []uint8
	CHRRAM     []uint8 `json:",omitempty"`
	SRAM       []uint8
	Banks      []uint8 `json:",omitempty"`
	CPUCycles  uint64
	FrameCount uint64
}

// Snapshot captures the machine state
func (b *Bus) Snapshot() (*State, error) {
	if b.cartridge == nil {
		return nil, ErrNoCartridge
	}
	return &State{
		CRC32:      b.cartridge.CRC32(),
		CPU:        b.CPU.GetState(),
		PPU:        b.PPU.GetState(),
		APU:        b.APU.GetState(),
		RAM:        b.Memory.RAM(),
		VRAM:       b.ppuMemory.VRAM(),
		Palette:    b.ppuMemory.Palette(),
		CHRRAM:     b.cartridge.CHRRAM(),
		SRAM:       b.cartridge.SRAM(),
		Banks:      b.cartridge.MapperBanks(),
		CPUCycles:  b.cpuCycles,
		FrameCount: b.frameCount,
	}, nil
}

// Restore loads a snapshot taken from the same ROM
func (b *Bus) Restore(s *State) error {
	if b.cartridge == nil {
		return ErrNoCartridge
	}
	if s.CRC32 != b.cartridge.CRC32() {
		return fmt.Errorf("%w: snapshot %08X, cartridge %08X", ErrStateMismatch, s.CRC32, b.cartridge.CRC32())
	}

	b.CPU.SetState(s.CPU)
	b.PPU.SetState(s.PPU)
	b.APU.SetState(s.APU)
	b.Memory.SetRAM(s.RAM)
	b.ppuMemory.SetVRAM(s.VRAM)
	b.ppuMemory.SetPalette(s.Palette)
	b.cartridge.SetCHRRAM(s.CHRRAM)
	b.cartridge.SetSRAM(s.SRAM)
	b.cartridge.SetMapperBanks(s.Banks)
	b.cpuCycles = s.CPUCycles
	b.frameCount = s.FrameCount
	b.dmaStall = 0
	return nil
}
