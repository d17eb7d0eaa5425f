// Package cartridge implements ROM loading and parsing for NES cartridges.
package cartridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// Errors returned while parsing a ROM image
var (
	ErrInvalidHeader     = errors.New("invalid iNES header")
	ErrEmptyPRG          = errors.New("invalid ROM: PRG ROM size cannot be zero")
	ErrTruncated         = errors.New("ROM image is truncated")
	ErrUnsupportedMapper = errors.New("unsupported mapper")
)

const (
	headerSize  = 16
	trainerSize = 512
	prgBankSize = 0x4000
	chrBankSize = 0x2000
	sramSize    = 0x2000
)

// Cartridge represents a NES cartridge
type Cartridge struct {
	// ROM data
	prgROM []uint8
	chrROM []uint8 // CHR ROM, or CHR RAM when hasCHRRAM is set

	// Mapper information
	mapperID uint8
	mapper   Mapper

	// Mirroring mode from the header
	mirror MirrorMode

	// Battery-backed RAM
	hasBattery bool
	sram       [sramSize]uint8

	hasCHRRAM bool
	nes2      bool
	crc       uint32
}

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreenLower
	MirrorSingleScreenUpper
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingleScreenLower:
		return "single-screen lower"
	case MirrorSingleScreenUpper:
		return "single-screen upper"
	case MirrorFourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("mirror(%d)", uint8(m))
}

// Mapper interface for different cartridge mappers
type Mapper interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	Mirroring() MirrorMode
}

// BankedMapper is implemented by mappers with bank registers that must be
// preserved in save states.
type BankedMapper interface {
	Banks() []uint8
	SetBanks(banks []uint8)
}

// iNES header structure
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// LoadFromFile loads a cartridge from an iNES file
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromBytes loads a cartridge from an in-memory iNES image
func LoadFromBytes(data []byte) (*Cartridge, error) {
	return LoadFromReader(bytes.NewReader(data))
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	if string(header.Magic[:]) != "NES\x1A" {
		return nil, ErrInvalidHeader
	}

	if header.PRGROMSize == 0 {
		return nil, ErrEmptyPRG
	}

	cart := &Cartridge{
		mapperID:   (header.Flags6 >> 4) | (header.Flags7 & 0xF0),
		hasBattery: (header.Flags6 & 0x02) != 0,
		nes2:       (header.Flags7 & 0x0C) == 0x08,
	}

	if (header.Flags6 & 0x08) != 0 {
		cart.mirror = MirrorFourScreen
	} else if (header.Flags6 & 0x01) != 0 {
		cart.mirror = MirrorVertical
	} else {
		cart.mirror = MirrorHorizontal
	}

	if (header.Flags6 & 0x04) != 0 {
		if _, err := io.CopyN(io.Discard, r, trainerSize); err != nil {
			return nil, fmt.Errorf("%w: trainer: %v", ErrTruncated, err)
		}
	}

	cart.prgROM = make([]uint8, int(header.PRGROMSize)*prgBankSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: PRG ROM: %v", ErrTruncated, err)
	}

	if chrSize := int(header.CHRROMSize) * chrBankSize; chrSize > 0 {
		cart.chrROM = make([]uint8, chrSize)
		if _, err := io.ReadFull(r, cart.chrROM); err != nil {
			return nil, fmt.Errorf("%w: CHR ROM: %v", ErrTruncated, err)
		}
	} else {
		cart.chrROM = make([]uint8, chrBankSize)
		cart.hasCHRRAM = true
	}

	crc := crc32.NewIEEE()
	crc.Write(cart.prgROM)
	if !cart.hasCHRRAM {
		crc.Write(cart.chrROM)
	}
	cart.crc = crc.Sum32()

	mapper, err := createMapper(cart.mapperID, cart)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper

	return cart, nil
}

// createMapper creates the appropriate mapper for the given ID
func createMapper(id uint8, cart *Cartridge) (Mapper, error) {
	switch id {
	case 0:
		return NewMapper000(cart), nil
	case 2:
		return NewMapper002(cart), nil
	case 3:
		return NewMapper003(cart), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMapper, id)
	}
}

// ReadPRG reads from PRG ROM/RAM
func (c *Cartridge) ReadPRG(address uint16) uint8 {
	return c.mapper.ReadPRG(address)
}

// WritePRG writes to PRG ROM/RAM
func (c *Cartridge) WritePRG(address uint16, value uint8) {
	c.mapper.WritePRG(address, value)
}

// ReadCHR reads from CHR ROM/RAM
func (c *Cartridge) ReadCHR(address uint16) uint8 {
	return c.mapper.ReadCHR(address)
}

// WriteCHR writes to CHR ROM/RAM
func (c *Cartridge) WriteCHR(address uint16, value uint8) {
	c.mapper.WriteCHR(address, value)
}

// Mirroring returns the current nametable mirroring. Mappers may change it at
// runtime so the value is resolved through the mapper.
func (c *Cartridge) Mirroring() MirrorMode {
	return c.mapper.Mirroring()
}

// MapperID returns the iNES mapper number
func (c *Cartridge) MapperID() uint8 {
	return c.mapperID
}

// IsNES20 reports whether the header carries the NES 2.0 identifier
func (c *Cartridge) IsNES20() bool {
	return c.nes2
}

// HasBattery reports whether PRG RAM is battery-backed
func (c *Cartridge) HasBattery() bool {
	return c.hasBattery
}

// HasCHRRAM reports whether pattern memory is writable RAM
func (c *Cartridge) HasCHRRAM() bool {
	return c.hasCHRRAM
}

// PRGSize returns the size of PRG ROM in bytes
func (c *Cartridge) PRGSize() int {
	return len(c.prgROM)
}

// CHRSize returns the size of CHR memory in bytes
func (c *Cartridge) CHRSize() int {
	return len(c.chrROM)
}

// CRC32 identifies the ROM contents
func (c *Cartridge) CRC32() uint32 {
	return c.crc
}

// SRAM returns a copy of PRG RAM
func (c *Cartridge) SRAM() []uint8 {
	s := make([]uint8, len(c.sram))
	copy(s, c.sram[:])
	return s
}

// SetSRAM restores PRG RAM. Short slices are copied from the start.
func (c *Cartridge) SetSRAM(data []uint8) {
	copy(c.sram[:], data)
}

// CHRRAM returns a copy of CHR RAM, or nil for CHR ROM cartridges
func (c *Cartridge) CHRRAM() []uint8 {
	if !c.hasCHRRAM {
		return nil
	}
	s := make([]uint8, len(c.chrROM))
	copy(s, c.chrROM)
	return s
}

// SetCHRRAM restores CHR RAM. Ignored for CHR ROM cartridges.
func (c *Cartridge) SetCHRRAM(data []uint8) {
	if c.hasCHRRAM {
		copy(c.chrROM, data)
	}
}

// MapperBanks returns the mapper's bank registers (nil if it has none)
func (c *Cartridge) MapperBanks() []uint8 {
	if b, ok := c.mapper.(BankedMapper); ok {
		return b.Banks()
	}
	return nil
}

// SetMapperBanks restores the mapper's bank registers
func (c *Cartridge) SetMapperBanks(banks []uint8) {
	if b, ok := c.mapper.(BankedMapper); ok {
		b.SetBanks(banks)
	}
}

// String summarises the cartridge for logging
func (c *Cartridge) String() string {
	return fmt.Sprintf("mapper %d, PRG %dKB, CHR %dKB (ram=%t), %s, battery=%t",
		c.mapperID, len(c.prgROM)/1024, len(c.chrROM)/1024, c.hasCHRRAM, c.mirror, c.hasBattery)
}
