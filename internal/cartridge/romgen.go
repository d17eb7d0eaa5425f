package cartridge

// ROMImage describes a synthetic iNES image. It is used to build test ROMs
// without shipping binary fixtures.
type ROMImage struct {
	PRG    []uint8 // padded to a multiple of 16KB, at least one bank
	CHR    []uint8 // padded to a multiple of 8KB; empty means CHR RAM
	Mapper uint8

	Vertical   bool
	FourScreen bool
	Battery    bool
	Trainer    bool

	// Vectors are written into the last six bytes of PRG when non-zero
	NMI, Reset, IRQ uint16
}

// BuildINES assembles an iNES file from img
func BuildINES(img ROMImage) []uint8 {
	prgBanks := (len(img.PRG) + prgBankSize - 1) / prgBankSize
	if prgBanks == 0 {
		prgBanks = 1
	}
	chrBanks := (len(img.CHR) + chrBankSize - 1) / chrBankSize

	prg := make([]uint8, prgBanks*prgBankSize)
	copy(prg, img.PRG)
	end := len(prg)
	putVector := func(offset int, v uint16) {
		if v != 0 {
			prg[end-offset] = uint8(v)
			prg[end-offset+1] = uint8(v >> 8)
		}
	}
	putVector(6, img.NMI)
	putVector(4, img.Reset)
	putVector(2, img.IRQ)

	flags6 := (img.Mapper & 0x0F) << 4
	if img.Vertical {
		flags6 |= 0x01
	}
	if img.Battery {
		flags6 |= 0x02
	}
	if img.Trainer {
		flags6 |= 0x04
	}
	if img.FourScreen {
		flags6 |= 0x08
	}

	out := make([]uint8, 0, headerSize+len(prg)+chrBanks*chrBankSize+trainerSize)
	out = append(out, 'N', 'E', 'S', 0x1A, uint8(prgBanks), uint8(chrBanks), flags6, img.Mapper&0xF0)
	out = append(out, make([]uint8, headerSize-8)...)
	if img.Trainer {
		out = append(out, make([]uint8, trainerSize)...)
	}
	out = append(out, prg...)
	if chrBanks > 0 {
		chr := make([]uint8, chrBanks*chrBankSize)
		copy(chr, img.CHR)
		out = append(out, chr...)
	}
	return out
}

// ProgramROM is a shortcut for a 16KB NROM image running program from 0x8000.
// The NMI and IRQ vectors point at an RTI placed at 0xBFF0.
func ProgramROM(program []uint8) []uint8 {
	prg := make([]uint8, prgBankSize)
	copy(prg, program)
	prg[0x3FF0] = 0x40 // RTI
	return BuildINES(ROMImage{
		PRG:   prg,
		CHR:   make([]uint8, chrBankSize),
		Reset: 0x8000,
		NMI:   0xBFF0,
		IRQ:   0xBFF0,
	})
}
