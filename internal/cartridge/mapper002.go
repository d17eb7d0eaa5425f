package cartridge

// Mapper002 implements UxROM (mapper 2).
// A single register selects the 16KB PRG bank visible at 0x8000-0xBFFF; the
// last bank is fixed at 0xC000-0xFFFF. Pattern memory is normally 8KB CHR RAM.
type Mapper002 struct {
	cart       *Cartridge
	prgBanks   uint8
	selectPRG  uint8
	lastBankAt int
}

// NewMapper002 creates a new UxROM mapper
func NewMapper002(cart *Cartridge) *Mapper002 {
	banks := uint8(len(cart.prgROM) / prgBankSize)
	return &Mapper002{
		cart:       cart,
		prgBanks:   banks,
		lastBankAt: (int(banks) - 1) * prgBankSize,
	}
}

// ReadPRG reads from the switchable or fixed PRG bank, or from PRG RAM
func (m *Mapper002) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0xC000:
		return m.cart.prgROM[m.lastBankAt+int(address&0x3FFF)]
	case address >= 0x8000:
		return m.cart.prgROM[int(m.selectPRG)*prgBankSize+int(address&0x3FFF)]
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	}
	return 0
}

// WritePRG latches the bank register on writes to ROM space
func (m *Mapper002) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.selectPRG = (value & 0x0F) % m.prgBanks
	case address >= 0x6000:
		m.cart.sram[address-0x6000] = value
	}
}

// ReadCHR reads pattern memory
func (m *Mapper002) ReadCHR(address uint16) uint8 {
	if int(address) < len(m.cart.chrROM) {
		return m.cart.chrROM[address]
	}
	return 0
}

// WriteCHR writes pattern memory when it is RAM
func (m *Mapper002) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM && int(address) < len(m.cart.chrROM) {
		m.cart.chrROM[address] = value
	}
}

// Mirroring is fixed by the board wiring
func (m *Mapper002) Mirroring() MirrorMode {
	return m.cart.mirror
}

// Banks returns the bank register
func (m *Mapper002) Banks() []uint8 {
	return []uint8{m.selectPRG}
}

// SetBanks restores the bank register
func (m *Mapper002) SetBanks(banks []uint8) {
	if len(banks) > 0 {
		m.selectPRG = banks[0] % m.prgBanks
	}
}
