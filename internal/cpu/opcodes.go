package cpu

// Instruction describes one opcode
type Instruction struct {
	Name      string
	Opcode    uint8
	Bytes     uint8
	Cycles    uint8
	Mode      AddressingMode
	PageCycle bool // one more cycle when indexing crosses a page
	Official  bool

	exec operation
}

// instructions is the decode table. Opcodes not listed behave as a 2 cycle
// single byte NOP.
var instructions [256]Instruction

// Lookup returns the decode table entry for opcode
func Lookup(opcode uint8) Instruction {
	return instructions[opcode]
}

type variant struct {
	opcode uint8
	mode   AddressingMode
	cycles uint8
	page   bool
}

func v(opcode uint8, mode AddressingMode, cycles uint8) variant {
	return variant{opcode, mode, cycles, false}
}

// vp is a variant that takes the page crossing penalty
func vp(opcode uint8, mode AddressingMode, cycles uint8) variant {
	return variant{opcode, mode, cycles, true}
}

func define(name string, official bool, exec operation, variants ...variant) {
	for _, vr := range variants {
		instructions[vr.opcode] = Instruction{
			Name:      name,
			Opcode:    vr.opcode,
			Bytes:     1 + operandBytes[vr.mode],
			Cycles:    vr.cycles,
			Mode:      vr.mode,
			PageCycle: vr.page,
			Official:  official,
			exec:      exec,
		}
	}
}

// read-type instructions share the same eight addressing variants
func readGroup(base uint8) []variant {
	return []variant{
		v(base|0x09, Immediate, 2),
		v(base|0x05, ZeroPage, 3),
		v(base|0x15, ZeroPageX, 4),
		v(base|0x0D, Absolute, 4),
		vp(base|0x1D, AbsoluteX, 4),
		vp(base|0x19, AbsoluteY, 4),
		v(base|0x01, IndexedIndirect, 6),
		vp(base|0x11, IndirectIndexed, 5),
	}
}

// read-modify-write instructions on memory
func rmwGroup(base uint8) []variant {
	return []variant{
		v(base|0x06, ZeroPage, 5),
		v(base|0x16, ZeroPageX, 6),
		v(base|0x0E, Absolute, 6),
		v(base|0x1E, AbsoluteX, 7),
	}
}

// unofficial combined read-modify-write instructions
func comboGroup(base uint8) []variant {
	return []variant{
		v(base|0x07, ZeroPage, 5),
		v(base|0x17, ZeroPageX, 6),
		v(base|0x0F, Absolute, 6),
		v(base|0x1F, AbsoluteX, 7),
		v(base|0x1B, AbsoluteY, 7),
		v(base|0x03, IndexedIndirect, 8),
		v(base|0x13, IndirectIndexed, 8),
	}
}

func init() {
	for i := range instructions {
		instructions[i] = Instruction{Name: "NOP", Opcode: uint8(i), Bytes: 1, Cycles: 2, Mode: Implied, exec: nop}
	}

	define("ORA", true, ora, readGroup(0x00)...)
	define("AND", true, and, readGroup(0x20)...)
	define("EOR", true, eor, readGroup(0x40)...)
	define("ADC", true, adc, readGroup(0x60)...)
	define("CMP", true, cmp, readGroup(0xC0)...)
	define("SBC", true, sbc, readGroup(0xE0)...)
	define("LDA", true, lda, readGroup(0xA0)...)
	define("STA", true, sta,
		v(0x85, ZeroPage, 3), v(0x95, ZeroPageX, 4), v(0x8D, Absolute, 4),
		v(0x9D, AbsoluteX, 5), v(0x99, AbsoluteY, 5),
		v(0x81, IndexedIndirect, 6), v(0x91, IndirectIndexed, 6))

	define("LDX", true, ldx,
		v(0xA2, Immediate, 2), v(0xA6, ZeroPage, 3), v(0xB6, ZeroPageY, 4),
		v(0xAE, Absolute, 4), vp(0xBE, AbsoluteY, 4))
	define("LDY", true, ldy,
		v(0xA0, Immediate, 2), v(0xA4, ZeroPage, 3), v(0xB4, ZeroPageX, 4),
		v(0xAC, Absolute, 4), vp(0xBC, AbsoluteX, 4))
	define("STX", true, stx, v(0x86, ZeroPage, 3), v(0x96, ZeroPageY, 4), v(0x8E, Absolute, 4))
	define("STY", true, sty, v(0x84, ZeroPage, 3), v(0x94, ZeroPageX, 4), v(0x8C, Absolute, 4))
	define("CPX", true, cpx, v(0xE0, Immediate, 2), v(0xE4, ZeroPage, 3), v(0xEC, Absolute, 4))
	define("CPY", true, cpy, v(0xC0, Immediate, 2), v(0xC4, ZeroPage, 3), v(0xCC, Absolute, 4))
	define("BIT", true, bit, v(0x24, ZeroPage, 3), v(0x2C, Absolute, 4))

	define("ASL", true, asl, append(rmwGroup(0x00), v(0x0A, Accumulator, 2))...)
	define("ROL", true, rol, append(rmwGroup(0x20), v(0x2A, Accumulator, 2))...)
	define("LSR", true, lsr, append(rmwGroup(0x40), v(0x4A, Accumulator, 2))...)
	define("ROR", true, ror, append(rmwGroup(0x60), v(0x6A, Accumulator, 2))...)
	define("DEC", true, dec, rmwGroup(0xC0)...)
	define("INC", true, inc, rmwGroup(0xE0)...)

	define("INX", true, inx, v(0xE8, Implied, 2))
	define("INY", true, iny, v(0xC8, Implied, 2))
	define("DEX", true, dex, v(0xCA, Implied, 2))
	define("DEY", true, dey, v(0x88, Implied, 2))
	define("TAX", true, tax, v(0xAA, Implied, 2))
	define("TAY", true, tay, v(0xA8, Implied, 2))
	define("TXA", true, txa, v(0x8A, Implied, 2))
	define("TYA", true, tya, v(0x98, Implied, 2))
	define("TSX", true, tsx, v(0xBA, Implied, 2))
	define("TXS", true, txs, v(0x9A, Implied, 2))

	define("PHA", true, pha, v(0x48, Implied, 3))
	define("PHP", true, php, v(0x08, Implied, 3))
	define("PLA", true, pla, v(0x68, Implied, 4))
	define("PLP", true, plp, v(0x28, Implied, 4))

	define("CLC", true, clc, v(0x18, Implied, 2))
	define("SEC", true, sec, v(0x38, Implied, 2))
	define("CLI", true, cli, v(0x58, Implied, 2))
	define("SEI", true, sei, v(0x78, Implied, 2))
	define("CLV", true, clv, v(0xB8, Implied, 2))
	define("CLD", true, cld, v(0xD8, Implied, 2))
	define("SED", true, sed, v(0xF8, Implied, 2))

	define("JMP", true, jmp, v(0x4C, Absolute, 3), v(0x6C, Indirect, 5))
	define("JSR", true, jsr, v(0x20, Absolute, 6))
	define("RTS", true, rts, v(0x60, Implied, 6))
	define("RTI", true, rti, v(0x40, Implied, 6))
	define("BRK", true, brk, v(0x00, Implied, 7))
	define("NOP", true, nop, v(0xEA, Implied, 2))

	define("BPL", true, bpl, v(0x10, Relative, 2))
	define("BMI", true, bmi, v(0x30, Relative, 2))
	define("BVC", true, bvc, v(0x50, Relative, 2))
	define("BVS", true, bvs, v(0x70, Relative, 2))
	define("BCC", true, bcc, v(0x90, Relative, 2))
	define("BCS", true, bcs, v(0xB0, Relative, 2))
	define("BNE", true, bne, v(0xD0, Relative, 2))
	define("BEQ", true, beq, v(0xF0, Relative, 2))

	// Unofficial
	define("NOP", false, nop,
		v(0x1A, Implied, 2), v(0x3A, Implied, 2), v(0x5A, Implied, 2),
		v(0x7A, Implied, 2), v(0xDA, Implied, 2), v(0xFA, Implied, 2),
		v(0x80, Immediate, 2), v(0x82, Immediate, 2), v(0x89, Immediate, 2),
		v(0xC2, Immediate, 2), v(0xE2, Immediate, 2),
		v(0x04, ZeroPage, 3), v(0x44, ZeroPage, 3), v(0x64, ZeroPage, 3),
		v(0x14, ZeroPageX, 4), v(0x34, ZeroPageX, 4), v(0x54, ZeroPageX, 4),
		v(0x74, ZeroPageX, 4), v(0xD4, ZeroPageX, 4), v(0xF4, ZeroPageX, 4),
		v(0x0C, Absolute, 4),
		vp(0x1C, AbsoluteX, 4), vp(0x3C, AbsoluteX, 4), vp(0x5C, AbsoluteX, 4),
		vp(0x7C, AbsoluteX, 4), vp(0xDC, AbsoluteX, 4), vp(0xFC, AbsoluteX, 4))
	define("SBC", false, sbc, v(0xEB, Immediate, 2))
	define("LAX", false, lax,
		v(0xA7, ZeroPage, 3), v(0xB7, ZeroPageY, 4), v(0xAF, Absolute, 4),
		vp(0xBF, AbsoluteY, 4), v(0xA3, IndexedIndirect, 6), vp(0xB3, IndirectIndexed, 5))
	define("SAX", false, sax,
		v(0x87, ZeroPage, 3), v(0x97, ZeroPageY, 4), v(0x8F, Absolute, 4), v(0x83, IndexedIndirect, 6))
	define("SLO", false, slo, comboGroup(0x00)...)
	define("RLA", false, rla, comboGroup(0x20)...)
	define("SRE", false, sre, comboGroup(0x40)...)
	define("RRA", false, rra, comboGroup(0x60)...)
	define("DCP", false, dcp, comboGroup(0xC0)...)
	define("ISB", false, isb, comboGroup(0xE0)...)
	define("ANC", false, anc, v(0x0B, Immediate, 2), v(0x2B, Immediate, 2))
	define("ALR", false, alr, v(0x4B, Immediate, 2))
	define("ARR", false, arr, v(0x6B, Immediate, 2))
	define("AXS", false, axs, v(0xCB, Immediate, 2))
}
