package memory

import (
	"kiwi/internal/cartridge"
)

// PPUMemory is the PPU address space: pattern tables on the cartridge, name
// tables in console VRAM and palette RAM.
type PPUMemory struct {
	vram       [0x1000]uint8 // 2KB on the console, 4KB for four-screen boards
	paletteRAM [32]uint8
	cartridge  CartridgeInterface
}

// NewPPUMemory creates a new PPU memory instance. cart may be nil, in which
// case pattern reads return 0 and mirroring is horizontal.
func NewPPUMemory(cart CartridgeInterface) *PPUMemory {
	mem := &PPUMemory{cartridge: cart}
	for i := 0; i < 32; i += 4 {
		mem.paletteRAM[i] = 0x0F
	}
	return mem
}

// Read reads from PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.cartridge == nil {
			return 0
		}
		return pm.cartridge.ReadCHR(address)
	case address < 0x3F00:
		return pm.vram[pm.nametableIndex(address)]
	default:
		return pm.paletteRAM[paletteIndex(address)]
	}
}

// Write writes to PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.cartridge != nil {
			pm.cartridge.WriteCHR(address, value)
		}
	case address < 0x3F00:
		pm.vram[pm.nametableIndex(address)] = value
	default:
		pm.paletteRAM[paletteIndex(address)] = value & 0x3F
	}
}

func (pm *PPUMemory) mirroring() cartridge.MirrorMode {
	if pm.cartridge == nil {
		return cartridge.MirrorHorizontal
	}
	return pm.cartridge.Mirroring()
}

// nametableIndex maps $2000-$3EFF onto VRAM. $3000-$3EFF mirrors $2000.
func (pm *PPUMemory) nametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	table := address >> 10
	offset := address & 0x3FF

	switch pm.mirroring() {
	case cartridge.MirrorHorizontal:
		return (table>>1)*0x400 + offset
	case cartridge.MirrorVertical:
		return (table&1)*0x400 + offset
	case cartridge.MirrorSingleScreenLower:
		return offset
	case cartridge.MirrorSingleScreenUpper:
		return 0x400 + offset
	case cartridge.MirrorFourScreen:
		return table*0x400 + offset
	}
	return offset
}

// paletteIndex folds the 32 byte palette mirrors. The sprite backdrop
// entries $3F10/$14/$18/$1C are the background entries.
func paletteIndex(address uint16) uint16 {
	index := address & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return index
}

// VRAM returns a copy of name table memory
func (pm *PPUMemory) VRAM() []uint8 {
	v := make([]uint8, len(pm.vram))
	copy(v, pm.vram[:])
	return v
}

// SetVRAM restores name table memory
func (pm *PPUMemory) SetVRAM(data []uint8) {
	copy(pm.vram[:], data)
}

// Palette returns a copy of palette RAM
func (pm *PPUMemory) Palette() []uint8 {
	p := make([]uint8, len(pm.paletteRAM))
	copy(p, pm.paletteRAM[:])
	return p
}

// SetPalette restores palette RAM
func (pm *PPUMemory) SetPalette(data []uint8) {
	copy(pm.paletteRAM[:], data)
}
