package cartridge

// Mapper003 implements CNROM (mapper 3).
// PRG is laid out as NROM. Any write to 0x8000-0xFFFF selects which 8KB CHR
// bank is visible at PPU 0x0000-0x1FFF; only the low two bits are used.
type Mapper003 struct {
	cart      *Cartridge
	prgBanks  uint8
	chrBanks  uint16
	selectCHR uint16
}

// NewMapper003 creates a new CNROM mapper
func NewMapper003(cart *Cartridge) *Mapper003 {
	chrBanks := uint16(len(cart.chrROM) / chrBankSize)
	if chrBanks == 0 {
		chrBanks = 1
	}
	return &Mapper003{
		cart:     cart,
		prgBanks: uint8(len(cart.prgROM) / prgBankSize),
		chrBanks: chrBanks,
	}
}

// ReadPRG reads from PRG ROM/RAM, a single 16KB bank is mirrored
func (m *Mapper003) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		offset := address - 0x8000
		if m.prgBanks == 1 {
			offset &= 0x3FFF
		}
		return m.cart.prgROM[offset]
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	}
	return 0
}

// WritePRG selects the CHR bank on writes to ROM space
func (m *Mapper003) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.selectCHR = uint16(value&0x03) % m.chrBanks
	case address >= 0x6000:
		m.cart.sram[address-0x6000] = value
	}
}

// ReadCHR reads from the selected CHR bank
func (m *Mapper003) ReadCHR(address uint16) uint8 {
	index := int(address&0x1FFF) | int(m.selectCHR)<<13
	if index < len(m.cart.chrROM) {
		return m.cart.chrROM[index]
	}
	return 0
}

// WriteCHR writes through the selected bank when pattern memory is RAM
func (m *Mapper003) WriteCHR(address uint16, value uint8) {
	if !m.cart.hasCHRRAM {
		return
	}
	index := int(address&0x1FFF) | int(m.selectCHR)<<13
	if index < len(m.cart.chrROM) {
		m.cart.chrROM[index] = value
	}
}

// Mirroring is fixed by the board wiring
func (m *Mapper003) Mirroring() MirrorMode {
	return m.cart.mirror
}

// Banks returns the CHR bank register
func (m *Mapper003) Banks() []uint8 {
	return []uint8{uint8(m.selectCHR)}
}

// SetBanks restores the CHR bank register
func (m *Mapper003) SetBanks(banks []uint8) {
	if len(banks) > 0 {
		m.selectCHR = uint16(banks[0]) % m.chrBanks
	}
}
