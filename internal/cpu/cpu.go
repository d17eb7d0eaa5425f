// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

import (
	"fmt"

	"kiwi/internal/logger"
)

// AddressingMode identifies how an instruction locates its operand
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// operand bytes following the opcode, by addressing mode
var operandBytes = [...]uint8{
	Implied:         0,
	Accumulator:     0,
	Immediate:       1,
	ZeroPage:        1,
	ZeroPageX:       1,
	ZeroPageY:       1,
	Relative:        1,
	Absolute:        2,
	AbsoluteX:       2,
	AbsoluteY:       2,
	Indirect:        2,
	IndexedIndirect: 1,
	IndirectIndexed: 1,
}

const (
	stackBase = 0x0100

	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	pageMask = 0xFF00

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	interruptCycles = 7
)

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter

	// Status register flags
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode (no effect on the 2A03)
	B bool // Break
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface

	cycles uint64
	// base cycles of the instruction being executed, 0 between instructions
	busCycles uint64

	// NMI is edge triggered, IRQ is level triggered
	nmiLine    bool
	nmiPending bool
	irqLine    bool

	debugLogging bool
}

// New creates a new CPU instance
func New(memory MemoryInterface) *CPU {
	return &CPU{
		memory: memory,
		SP:     0xFD,
		I:      true,
	}
}

// Reset puts the registers in their power-up state and loads PC from the
// reset vector. The sequence takes 7 cycles.
func (cpu *CPU) Reset() {
	cpu.A, cpu.X, cpu.Y = 0, 0, 0
	cpu.SP = 0xFD
	cpu.SetStatusByte(unusedMask | iFlagMask)
	cpu.nmiLine = false
	cpu.nmiPending = false
	cpu.irqLine = false
	cpu.PC = cpu.read16(resetVector)
	cpu.cycles += interruptCycles
}

// Step executes a single instruction, or services a pending interrupt, and
// returns the number of cycles taken.
func (cpu *CPU) Step() uint64 {
	if cpu.nmiPending {
		cpu.nmiPending = false
		cpu.interrupt(nmiVector)
		return interruptCycles
	}
	if cpu.irqLine && !cpu.I {
		cpu.interrupt(irqVector)
		return interruptCycles
	}

	pc := cpu.PC
	opcode := cpu.memory.Read(pc)
	ins := &instructions[opcode]

	if cpu.debugLogging {
		logger.Logf(logger.Allow, "cpu", "%04X  %-12s A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
			pc, cpu.disassemble(pc, ins), cpu.A, cpu.X, cpu.Y, cpu.GetStatusByte(), cpu.SP, cpu.cycles)
	}

	address, pageCrossed := cpu.getOperandAddress(ins.Mode)

	total := uint64(ins.Cycles)
	cpu.busCycles = total
	total += uint64(ins.exec(cpu, address, ins.Mode))
	cpu.busCycles = 0
	if pageCrossed && ins.PageCycle {
		total++
	}

	cpu.cycles += total
	return total
}

// getOperandAddress advances PC past the instruction and returns the
// effective address, and whether indexing crossed a page boundary.
func (cpu *CPU) getOperandAddress(mode AddressingMode) (uint16, bool) {
	operand := cpu.PC + 1
	cpu.PC += 1 + uint16(operandBytes[mode])

	switch mode {
	case Immediate:
		return operand, false

	case ZeroPage:
		return uint16(cpu.memory.Read(operand)), false

	case ZeroPageX:
		return uint16(cpu.memory.Read(operand) + cpu.X), false

	case ZeroPageY:
		return uint16(cpu.memory.Read(operand) + cpu.Y), false

	case Relative:
		offset := int8(cpu.memory.Read(operand))
		return uint16(int32(cpu.PC) + int32(offset)), false

	case Absolute:
		return cpu.read16(operand), false

	case AbsoluteX:
		base := cpu.read16(operand)
		address := base + uint16(cpu.X)
		return address, base&pageMask != address&pageMask

	case AbsoluteY:
		base := cpu.read16(operand)
		address := base + uint16(cpu.Y)
		return address, base&pageMask != address&pageMask

	case Indirect:
		// The high byte is fetched without carrying into the page
		return cpu.read16Wrapped(cpu.read16(operand)), false

	case IndexedIndirect:
		ptr := cpu.memory.Read(operand) + cpu.X
		return cpu.read16ZeroPage(ptr), false

	case IndirectIndexed:
		base := cpu.read16ZeroPage(cpu.memory.Read(operand))
		address := base + uint16(cpu.Y)
		return address, base&pageMask != address&pageMask
	}

	return 0, false
}

func (cpu *CPU) read16(address uint16) uint16 {
	lo := uint16(cpu.memory.Read(address))
	hi := uint16(cpu.memory.Read(address + 1))
	return hi<<8 | lo
}

// read16Wrapped reads a word whose high byte stays within the same page
func (cpu *CPU) read16Wrapped(address uint16) uint16 {
	lo := uint16(cpu.memory.Read(address))
	hi := uint16(cpu.memory.Read(address&pageMask | uint16(uint8(address)+1)))
	return hi<<8 | lo
}

func (cpu *CPU) read16ZeroPage(ptr uint8) uint16 {
	lo := uint16(cpu.memory.Read(uint16(ptr)))
	hi := uint16(cpu.memory.Read(uint16(ptr + 1)))
	return hi<<8 | lo
}

func (cpu *CPU) push(value uint8) {
	cpu.memory.Write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.memory.Read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value))
}

func (cpu *CPU) popWord() uint16 {
	lo := uint16(cpu.pop())
	hi := uint16(cpu.pop())
	return hi<<8 | lo
}

func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = value&nFlagMask != 0
}

// interrupt pushes PC and status (B clear) and jumps through vector
func (cpu *CPU) interrupt(vector uint16) {
	cpu.pushWord(cpu.PC)
	cpu.push(cpu.GetStatusByte()&^bFlagMask | unusedMask)
	cpu.I = true
	cpu.PC = cpu.read16(vector)
	cpu.cycles += interruptCycles
}

// SetNMILine drives the NMI input. An NMI is latched on the transition from
// released to asserted and serviced before the next instruction.
func (cpu *CPU) SetNMILine(asserted bool) {
	if asserted && !cpu.nmiLine {
		cpu.nmiPending = true
	}
	cpu.nmiLine = asserted
}

// TriggerNMI latches an NMI regardless of the line state
func (cpu *CPU) TriggerNMI() {
	cpu.nmiPending = true
}

// SetIRQ sets the IRQ line state. The interrupt fires while the line is
// asserted and the I flag is clear.
func (cpu *CPU) SetIRQ(asserted bool) {
	cpu.irqLine = asserted
}

// NMIPending reports whether an NMI is waiting to be serviced
func (cpu *CPU) NMIPending() bool {
	return cpu.nmiPending
}

// Cycles returns the total number of cycles executed
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// WriteCycle returns the cycle on which a write made by the executing
// instruction lands. Stores write on their last cycle. Outside an
// instruction it is the current cycle count.
func (cpu *CPU) WriteCycle() uint64 {
	if cpu.busCycles == 0 {
		return cpu.cycles
	}
	return cpu.cycles + cpu.busCycles - 1
}

// AddCycles accounts for cycles spent outside instruction execution, such
// as OAM DMA stalls.
func (cpu *CPU) AddCycles(n uint64) {
	cpu.cycles += n
}

// GetStatusByte returns the status register as a byte. Bit 5 always reads 1.
func (cpu *CPU) GetStatusByte() uint8 {
	status := uint8(unusedMask)
	for _, f := range []struct {
		set  bool
		mask uint8
	}{
		{cpu.N, nFlagMask}, {cpu.V, vFlagMask}, {cpu.B, bFlagMask}, {cpu.D, dFlagMask},
		{cpu.I, iFlagMask}, {cpu.Z, zFlagMask}, {cpu.C, cFlagMask},
	} {
		if f.set {
			status |= f.mask
		}
	}
	return status
}

// SetStatusByte sets the status register from a byte
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = status&nFlagMask != 0
	cpu.V = status&vFlagMask != 0
	cpu.B = status&bFlagMask != 0
	cpu.D = status&dFlagMask != 0
	cpu.I = status&iFlagMask != 0
	cpu.Z = status&zFlagMask != 0
	cpu.C = status&cFlagMask != 0
}

// EnableDebugLogging traces every executed instruction to the central log
func (cpu *CPU) EnableDebugLogging(enable bool) {
	cpu.debugLogging = enable
}

// State is a snapshot of the CPU used by save states
type State struct {
	A, X, Y, SP, P uint8
	PC             uint16
	Cycles         uint64
	NMILine        bool
	NMIPending     bool
	IRQLine        bool
}

// GetState captures the CPU registers
func (cpu *CPU) GetState() State {
	return State{
		A: cpu.A, X: cpu.X, Y: cpu.Y, SP: cpu.SP, P: cpu.GetStatusByte(),
		PC:         cpu.PC,
		Cycles:     cpu.cycles,
		NMILine:    cpu.nmiLine,
		NMIPending: cpu.nmiPending,
		IRQLine:    cpu.irqLine,
	}
}

// SetState restores the CPU registers
func (cpu *CPU) SetState(s State) {
	cpu.A, cpu.X, cpu.Y, cpu.SP = s.A, s.X, s.Y, s.SP
	cpu.SetStatusByte(s.P)
	cpu.PC = s.PC
	cpu.cycles = s.Cycles
	cpu.nmiLine = s.NMILine
	cpu.nmiPending = s.NMIPending
	cpu.irqLine = s.IRQLine
}

// Disassemble returns the instruction at address in assembler syntax
func (cpu *CPU) Disassemble(address uint16) string {
	return cpu.disassemble(address, &instructions[cpu.memory.Read(address)])
}

func (cpu *CPU) disassemble(pc uint16, ins *Instruction) string {
	lo := cpu.memory.Read(pc + 1)
	word := uint16(cpu.memory.Read(pc+2))<<8 | uint16(lo)

	switch ins.Mode {
	case Accumulator:
		return ins.Name + " A"
	case Immediate:
		return fmt.Sprintf("%s #$%02X", ins.Name, lo)
	case ZeroPage:
		return fmt.Sprintf("%s $%02X", ins.Name, lo)
	case ZeroPageX:
		return fmt.Sprintf("%s $%02X,X", ins.Name, lo)
	case ZeroPageY:
		return fmt.Sprintf("%s $%02X,Y", ins.Name, lo)
	case Relative:
		return fmt.Sprintf("%s $%04X", ins.Name, uint16(int32(pc)+2+int32(int8(lo))))
	case Absolute:
		return fmt.Sprintf("%s $%04X", ins.Name, word)
	case AbsoluteX:
		return fmt.Sprintf("%s $%04X,X", ins.Name, word)
	case AbsoluteY:
		return fmt.Sprintf("%s $%04X,Y", ins.Name, word)
	case Indirect:
		return fmt.Sprintf("%s ($%04X)", ins.Name, word)
	case IndexedIndirect:
		return fmt.Sprintf("%s ($%02X,X)", ins.Name, lo)
	case IndirectIndexed:
		return fmt.Sprintf("%s ($%02X),Y", ins.Name, lo)
	}
	return ins.Name
}
