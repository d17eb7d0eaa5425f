// Package memory implements the CPU and PPU address spaces of the NES.
package memory

import (
	"kiwi/internal/cartridge"
)

// Memory represents the CPU memory map
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [0x800]uint8

	ppuRegisters PPUInterface
	apuRegisters APUInterface
	inputSystem  InputInterface
	cartridge    CartridgeInterface

	// Called on writes to $4014
	dmaCallback func(uint8)

	// Last value driven on the data bus, returned for unmapped reads
	openBusValue uint8
}

// PPUInterface defines the interface for PPU register access
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APUInterface defines the interface for APU register access
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for input system access
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface defines the interface for cartridge access. Mirroring
// is asked for on every name table access since mappers may change it.
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	Mirroring() cartridge.MirrorMode
}

// New creates a new Memory instance. cart may be nil.
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppuRegisters: ppu,
		apuRegisters: apu,
		cartridge:    cart,
	}
}

// SetInputSystem sets the input system for controller access
func (m *Memory) SetInputSystem(input InputInterface) {
	m.inputSystem = input
}

// SetDMACallback sets the function called on writes to $4014
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// SetCartridge replaces the cartridge
func (m *Memory) SetCartridge(cart CartridgeInterface) {
	m.cartridge = cart
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	value := m.openBusValue

	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		value = m.ppuRegisters.ReadRegister(0x2000 + address&0x0007)

	case address == 0x4015:
		value = m.apuRegisters.ReadStatus()

	case address == 0x4016 || address == 0x4017:
		if m.inputSystem != nil {
			value = m.inputSystem.Read(address)
		}

	case address < 0x6000:
		// write-only APU registers, test registers and the expansion area

	default:
		if m.cartridge != nil {
			value = m.cartridge.ReadPRG(address)
		}
	}

	m.openBusValue = value
	return value
}

// Peek reads RAM or cartridge space without side effects. Register space
// returns the open bus value.
func (m *Memory) Peek(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return m.ram[address&0x07FF]
	case address >= 0x6000 && m.cartridge != nil:
		return m.cartridge.ReadPRG(address)
	}
	return m.openBusValue
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	m.openBusValue = value

	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppuRegisters.WriteRegister(0x2000+address&0x0007, value)

	case address == 0x4014:
		if m.dmaCallback != nil {
			m.dmaCallback(value)
		} else {
			m.performOAMDMA(value)
		}

	case address == 0x4016:
		if m.inputSystem != nil {
			m.inputSystem.Write(address, value)
		}

	case address <= 0x4013, address == 0x4015, address == 0x4017:
		m.apuRegisters.WriteRegister(address, value)

	case address < 0x6000:
		// test registers and expansion area

	default:
		if m.cartridge != nil {
			m.cartridge.WritePRG(address, value)
		}
	}
}

// performOAMDMA copies a page to OAM immediately, used when no bus is
// attached to account for the stall
func (m *Memory) performOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		m.ppuRegisters.WriteRegister(0x2004, m.Read(base+i))
	}
}

// RAM returns a copy of internal RAM
func (m *Memory) RAM() []uint8 {
	r := make([]uint8, len(m.ram))
	copy(r, m.ram[:])
	return r
}

// SetRAM restores internal RAM
func (m *Memory) SetRAM(data []uint8) {
	copy(m.ram[:], data)
}
