// Package ppu implements the Picture Processing Unit for the NES.
package ppu

// Frame dimensions
const (
	ScreenWidth  = 256
	ScreenHeight = 240

	cyclesPerScanline = 341
	preRenderScanline = -1
	vblankScanline    = 241
	lastScanline      = 260
)

// PPUCTRL bits
const (
	ctrlNametable       = 0x03
	ctrlIncrement32     = 0x04
	ctrlSpriteTable     = 0x08
	ctrlBackgroundTable = 0x10
	ctrlSprite8x16      = 0x20
	ctrlNMIEnable       = 0x80
)

// PPUMASK bits
const (
	maskGrayscale      = 0x01
	maskLeftBackground = 0x02
	maskLeftSprites    = 0x04
	maskBackground     = 0x08
	maskSprites        = 0x10
)

// PPUSTATUS bits
const (
	statusOverflow   = 0x20
	statusSprite0Hit = 0x40
	statusVBlank     = 0x80
)

// Memory is the PPU address space ($0000-$3FFF)
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	// PPU Registers (CPU-visible)
	ppuCtrl   uint8 // $2000 - PPUCTRL
	ppuMask   uint8 // $2001 - PPUMASK
	ppuStatus uint8 // $2002 - PPUSTATUS
	oamAddr   uint8 // $2003 - OAMADDR

	// Internal PPU State
	v uint16 // Current VRAM address (15 bits)
	t uint16 // Temporary VRAM address (15 bits)
	x uint8  // Fine X scroll (3 bits)
	w bool   // Write latch (toggles between first/second write)

	// last value written to any register, visible in unused status bits
	busLatch   uint8
	readBuffer uint8

	memory Memory

	// Timing
	scanline   int // Current scanline (-1 to 260)
	cycle      int // Current cycle (0 to 340)
	frameCount uint64
	oddFrame   bool
	cycleCount uint64

	// Background pipeline
	nameTableByte      uint8
	attributeTableByte uint8
	lowTileByte        uint8
	highTileByte       uint8
	tileData           uint64 // 4 bits per pixel, two tiles

	// Sprite Data
	oam              [256]uint8
	spriteCount      int
	spritePatterns   [8]uint32
	spritePositions  [8]uint8
	spritePriorities [8]uint8
	spriteIndexes    [8]uint8

	frameBuffer [ScreenWidth * ScreenHeight]uint32

	frameCompleteCallback func()
}

// New creates a new PPU instance
func New() *PPU {
	p := &PPU{}
	p.Reset()
	return p
}

// Reset resets the PPU to initial state
func (p *PPU) Reset() {
	p.ppuCtrl = 0
	p.ppuMask = 0
	p.ppuStatus = 0
	p.oamAddr = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.busLatch = 0
	p.readBuffer = 0

	p.scanline = preRenderScanline
	p.cycle = 0
	p.frameCount = 0
	p.oddFrame = false
	p.cycleCount = 0
	p.tileData = 0
	p.spriteCount = 0

	for i := range p.oam {
		p.oam[i] = 0
	}
	p.ClearFrameBuffer(0)
}

// SetMemory sets the PPU memory interface
func (p *PPU) SetMemory(memory Memory) {
	p.memory = memory
}

// SetFrameCompleteCallback sets the function called when a frame has been
// fully drawn (at the start of vertical blank)
func (p *PPU) SetFrameCompleteCallback(callback func()) {
	p.frameCompleteCallback = callback
}

// NMILine reports the level of the PPU's NMI output. It is asserted while
// the VBlank flag is set and NMI generation is enabled.
func (p *PPU) NMILine() bool {
	return p.ppuStatus&statusVBlank != 0 && p.ppuCtrl&ctrlNMIEnable != 0
}

// ReadRegister reads from a PPU register (CPU $2000-$2007)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address & 7 {
	case 2: // PPUSTATUS
		value := p.ppuStatus&0xE0 | p.busLatch&0x1F
		p.ppuStatus &^= statusVBlank
		p.w = false
		p.busLatch = value
	case 4: // OAMDATA
		p.busLatch = p.oam[p.oamAddr]
	case 7: // PPUDATA
		p.busLatch = p.readPPUData()
	}
	// write-only registers return the latch
	return p.busLatch
}

// WriteRegister writes to a PPU register (CPU $2000-$2007)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.busLatch = value

	switch address & 7 {
	case 0: // PPUCTRL
		p.ppuCtrl = value
		p.t = p.t&0xF3FF | uint16(value&ctrlNametable)<<10
	case 1: // PPUMASK
		p.ppuMask = value
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5: // PPUSCROLL
		p.writePPUScroll(value)
	case 6: // PPUADDR
		p.writePPUAddr(value)
	case 7: // PPUDATA
		p.writePPUData(value)
	}
}

// WriteOAM writes one byte of an OAM DMA transfer at the current OAMADDR
func (p *PPU) WriteOAM(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

func (p *PPU) writePPUScroll(value uint8) {
	if !p.w {
		p.t = p.t&0xFFE0 | uint16(value)>>3
		p.x = value & 0x07
	} else {
		p.t = p.t&0x8FFF | uint16(value&0x07)<<12
		p.t = p.t&0xFC1F | uint16(value&0xF8)<<2
	}
	p.w = !p.w
}

func (p *PPU) writePPUAddr(value uint8) {
	if !p.w {
		p.t = p.t&0x80FF | uint16(value&0x3F)<<8
	} else {
		p.t = p.t&0xFF00 | uint16(value)
		p.v = p.t
	}
	p.w = !p.w
}

// readPPUData returns the buffered value for VRAM and the palette directly.
// Palette reads still refill the buffer from the name table underneath.
func (p *PPU) readPPUData() uint8 {
	if p.memory == nil {
		return 0
	}
	address := p.v & 0x3FFF
	var value uint8
	if address < 0x3F00 {
		value = p.readBuffer
		p.readBuffer = p.memory.Read(address)
	} else {
		value = p.memory.Read(address)&0x3F | p.busLatch&0xC0
		p.readBuffer = p.memory.Read(address - 0x1000)
	}
	p.incrementAddress()
	return value
}

func (p *PPU) writePPUData(value uint8) {
	if p.memory != nil {
		p.memory.Write(p.v&0x3FFF, value)
	}
	p.incrementAddress()
}

func (p *PPU) incrementAddress() {
	if p.ppuCtrl&ctrlIncrement32 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

func (p *PPU) renderingEnabled() bool {
	return p.ppuMask&(maskBackground|maskSprites) != 0
}

// Step advances the PPU by one dot
func (p *PPU) Step() {
	p.cycleCount++
	p.renderCycle()

	switch {
	case p.scanline == vblankScanline && p.cycle == 1:
		p.ppuStatus |= statusVBlank
		if p.frameCompleteCallback != nil {
			p.frameCompleteCallback()
		}
	case p.scanline == preRenderScanline && p.cycle == 1:
		p.ppuStatus &^= statusVBlank | statusSprite0Hit | statusOverflow
	}

	p.advance()
}

// advance moves to the next dot. The pre-render line of odd frames is one
// dot shorter while rendering is enabled.
func (p *PPU) advance() {
	if p.scanline == preRenderScanline && p.cycle == 339 && p.oddFrame && p.renderingEnabled() {
		p.cycle = 0
		p.scanline = 0
		return
	}

	p.cycle++
	if p.cycle < cyclesPerScanline {
		return
	}
	p.cycle = 0
	p.scanline++
	if p.scanline > lastScanline {
		p.scanline = preRenderScanline
		p.frameCount++
		p.oddFrame = !p.oddFrame
	}
}

// FrameBuffer returns the 256x240 framebuffer of 0x00RRGGBB pixels. The
// slice aliases the PPU's buffer and is overwritten as rendering proceeds.
func (p *PPU) FrameBuffer() []uint32 {
	return p.frameBuffer[:]
}

// GetFrameCount returns the number of frames started since reset
func (p *PPU) GetFrameCount() uint64 {
	return p.frameCount
}

// GetScanline returns the current scanline (-1 to 260)
func (p *PPU) GetScanline() int {
	return p.scanline
}

// GetCycle returns the current dot within the scanline
func (p *PPU) GetCycle() int {
	return p.cycle
}

// GetCycleCount returns the number of dots since reset
func (p *PPU) GetCycleCount() uint64 {
	return p.cycleCount
}

// IsVBlank reports the VBlank status flag
func (p *PPU) IsVBlank() bool {
	return p.ppuStatus&statusVBlank != 0
}

// ClearFrameBuffer fills the frame buffer with color
func (p *PPU) ClearFrameBuffer(color uint32) {
	for i := range p.frameBuffer {
		p.frameBuffer[i] = color
	}
}

// OAM returns a copy of sprite memory
func (p *PPU) OAM() []uint8 {
	o := make([]uint8, len(p.oam))
	copy(o, p.oam[:])
	return o
}

// State is a snapshot of the PPU registers and timing
type State struct {
	Ctrl, Mask, Status, OAMAddr uint8
	V, T                        uint16
	X                           uint8
	W                           bool
	BusLatch, ReadBuffer        uint8
	Scanline, Cycle             int
	FrameCount                  uint64
	OddFrame                    bool
	OAM                         []uint8
}

// GetState captures the PPU state
func (p *PPU) GetState() State {
	return State{
		Ctrl: p.ppuCtrl, Mask: p.ppuMask, Status: p.ppuStatus, OAMAddr: p.oamAddr,
		V: p.v, T: p.t, X: p.x, W: p.w,
		BusLatch: p.busLatch, ReadBuffer: p.readBuffer,
		Scanline: p.scanline, Cycle: p.cycle,
		FrameCount: p.frameCount, OddFrame: p.oddFrame,
		OAM: p.OAM(),
	}
}

// SetState restores the PPU state. Rendering resumes at the next dot.
func (p *PPU) SetState(s State) {
	p.ppuCtrl, p.ppuMask, p.ppuStatus, p.oamAddr = s.Ctrl, s.Mask, s.Status, s.OAMAddr
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.busLatch, p.readBuffer = s.BusLatch, s.ReadBuffer
	p.scanline, p.cycle = s.Scanline, s.Cycle
	p.frameCount, p.oddFrame = s.FrameCount, s.OddFrame
	copy(p.oam[:], s.OAM)
}
