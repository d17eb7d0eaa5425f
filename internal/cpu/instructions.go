package cpu

// operation executes an instruction body and returns cycles beyond the base
// count (only branches take extra cycles this way).
type operation func(cpu *CPU, address uint16, mode AddressingMode) uint8

// Load and store

func lda(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.A = cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func ldx(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.X = cpu.memory.Read(address)
	cpu.setZN(cpu.X)
	return 0
}

func ldy(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.Y = cpu.memory.Read(address)
	cpu.setZN(cpu.Y)
	return 0
}

func sta(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.memory.Write(address, cpu.A)
	return 0
}

func stx(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.memory.Write(address, cpu.X)
	return 0
}

func sty(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.memory.Write(address, cpu.Y)
	return 0
}

// Arithmetic. The 2A03 has no decimal mode so D is ignored.

func (cpu *CPU) addWithCarry(value uint8) {
	sum := uint16(cpu.A) + uint16(value)
	if cpu.C {
		sum++
	}
	result := uint8(sum)
	cpu.C = sum > 0xFF
	cpu.V = (cpu.A^result)&(value^result)&0x80 != 0
	cpu.A = result
	cpu.setZN(result)
}

func adc(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.addWithCarry(cpu.memory.Read(address))
	return 0
}

func sbc(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.addWithCarry(^cpu.memory.Read(address))
	return 0
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.C = register >= value
	cpu.setZN(register - value)
}

func cmp(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.compare(cpu.A, cpu.memory.Read(address))
	return 0
}

func cpx(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.compare(cpu.X, cpu.memory.Read(address))
	return 0
}

func cpy(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.compare(cpu.Y, cpu.memory.Read(address))
	return 0
}

// Logic

func and(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.A &= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func ora(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.A |= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func eor(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.A ^= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func bit(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	value := cpu.memory.Read(address)
	cpu.N = value&nFlagMask != 0
	cpu.V = value&vFlagMask != 0
	cpu.Z = cpu.A&value == 0
	return 0
}

// Shifts and rotates operate on A or on memory depending on the mode

func (cpu *CPU) modify(address uint16, mode AddressingMode, f func(uint8) uint8) uint8 {
	if mode == Accumulator {
		cpu.A = f(cpu.A)
		cpu.setZN(cpu.A)
		return cpu.A
	}
	value := f(cpu.memory.Read(address))
	cpu.memory.Write(address, value)
	cpu.setZN(value)
	return value
}

func (cpu *CPU) shiftLeft(v uint8) uint8 {
	cpu.C = v&0x80 != 0
	return v << 1
}

func (cpu *CPU) shiftRight(v uint8) uint8 {
	cpu.C = v&0x01 != 0
	return v >> 1
}

func (cpu *CPU) rotateLeft(v uint8) uint8 {
	carry := cpu.C
	cpu.C = v&0x80 != 0
	v <<= 1
	if carry {
		v |= 0x01
	}
	return v
}

func (cpu *CPU) rotateRight(v uint8) uint8 {
	carry := cpu.C
	cpu.C = v&0x01 != 0
	v >>= 1
	if carry {
		v |= 0x80
	}
	return v
}

func asl(cpu *CPU, address uint16, mode AddressingMode) uint8 {
	cpu.modify(address, mode, cpu.shiftLeft)
	return 0
}

func lsr(cpu *CPU, address uint16, mode AddressingMode) uint8 {
	cpu.modify(address, mode, cpu.shiftRight)
	return 0
}

func rol(cpu *CPU, address uint16, mode AddressingMode) uint8 {
	cpu.modify(address, mode, cpu.rotateLeft)
	return 0
}

func ror(cpu *CPU, address uint16, mode AddressingMode) uint8 {
	cpu.modify(address, mode, cpu.rotateRight)
	return 0
}

// Increments and decrements

func inc(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.modify(address, ZeroPage, func(v uint8) uint8 { return v + 1 })
	return 0
}

func dec(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.modify(address, ZeroPage, func(v uint8) uint8 { return v - 1 })
	return 0
}

func inx(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.X++
	cpu.setZN(cpu.X)
	return 0
}

func iny(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.Y++
	cpu.setZN(cpu.Y)
	return 0
}

func dex(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.X--
	cpu.setZN(cpu.X)
	return 0
}

func dey(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.Y--
	cpu.setZN(cpu.Y)
	return 0
}

// Transfers

func tax(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.X = cpu.A
	cpu.setZN(cpu.X)
	return 0
}

func tay(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.Y = cpu.A
	cpu.setZN(cpu.Y)
	return 0
}

func txa(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.A = cpu.X
	cpu.setZN(cpu.A)
	return 0
}

func tya(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.A = cpu.Y
	cpu.setZN(cpu.A)
	return 0
}

func tsx(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.X = cpu.SP
	cpu.setZN(cpu.X)
	return 0
}

// TXS does not affect flags
func txs(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.SP = cpu.X
	return 0
}

// Stack

func pha(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.push(cpu.A)
	return 0
}

func php(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.push(cpu.GetStatusByte() | bFlagMask)
	return 0
}

func pla(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.A = cpu.pop()
	cpu.setZN(cpu.A)
	return 0
}

// PLP ignores the B bit, it only exists on the stack
func plp(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	b := cpu.B
	cpu.SetStatusByte(cpu.pop())
	cpu.B = b
	return 0
}

// Flags

func clc(cpu *CPU, _ uint16, _ AddressingMode) uint8 { cpu.C = false; return 0 }
func sec(cpu *CPU, _ uint16, _ AddressingMode) uint8 { cpu.C = true; return 0 }
func cli(cpu *CPU, _ uint16, _ AddressingMode) uint8 { cpu.I = false; return 0 }
func sei(cpu *CPU, _ uint16, _ AddressingMode) uint8 { cpu.I = true; return 0 }
func clv(cpu *CPU, _ uint16, _ AddressingMode) uint8 { cpu.V = false; return 0 }
func cld(cpu *CPU, _ uint16, _ AddressingMode) uint8 { cpu.D = false; return 0 }
func sed(cpu *CPU, _ uint16, _ AddressingMode) uint8 { cpu.D = true; return 0 }

// Control flow

func jmp(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.PC = address
	return 0
}

// JSR pushes the address of its own last byte
func jsr(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.pushWord(cpu.PC - 1)
	cpu.PC = address
	return 0
}

func rts(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.PC = cpu.popWord() + 1
	return 0
}

func rti(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	plp(cpu, 0, Implied)
	cpu.PC = cpu.popWord()
	return 0
}

// BRK skips a padding byte, so the pushed return address is PC+2
func brk(cpu *CPU, _ uint16, _ AddressingMode) uint8 {
	cpu.pushWord(cpu.PC + 1)
	cpu.push(cpu.GetStatusByte() | bFlagMask)
	cpu.I = true
	cpu.PC = cpu.read16(irqVector)
	return 0
}

func nop(*CPU, uint16, AddressingMode) uint8 { return 0 }

// branch returns 1 extra cycle when taken and 2 when the target is on
// another page
func branch(cond func(cpu *CPU) bool) operation {
	return func(cpu *CPU, target uint16, _ AddressingMode) uint8 {
		if !cond(cpu) {
			return 0
		}
		from := cpu.PC
		cpu.PC = target
		if from&pageMask != target&pageMask {
			return 2
		}
		return 1
	}
}

var (
	bcc = branch(func(cpu *CPU) bool { return !cpu.C })
	bcs = branch(func(cpu *CPU) bool { return cpu.C })
	bne = branch(func(cpu *CPU) bool { return !cpu.Z })
	beq = branch(func(cpu *CPU) bool { return cpu.Z })
	bpl = branch(func(cpu *CPU) bool { return !cpu.N })
	bmi = branch(func(cpu *CPU) bool { return cpu.N })
	bvc = branch(func(cpu *CPU) bool { return !cpu.V })
	bvs = branch(func(cpu *CPU) bool { return cpu.V })
)

// Unofficial opcodes that games and test ROMs rely on

func lax(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.A = cpu.memory.Read(address)
	cpu.X = cpu.A
	cpu.setZN(cpu.A)
	return 0
}

func sax(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.memory.Write(address, cpu.A&cpu.X)
	return 0
}

func dcp(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	value := cpu.memory.Read(address) - 1
	cpu.memory.Write(address, value)
	cpu.compare(cpu.A, value)
	return 0
}

func isb(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	value := cpu.memory.Read(address) + 1
	cpu.memory.Write(address, value)
	cpu.addWithCarry(^value)
	return 0
}

func slo(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	value := cpu.shiftLeft(cpu.memory.Read(address))
	cpu.memory.Write(address, value)
	cpu.A |= value
	cpu.setZN(cpu.A)
	return 0
}

func rla(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	value := cpu.rotateLeft(cpu.memory.Read(address))
	cpu.memory.Write(address, value)
	cpu.A &= value
	cpu.setZN(cpu.A)
	return 0
}

func sre(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	value := cpu.shiftRight(cpu.memory.Read(address))
	cpu.memory.Write(address, value)
	cpu.A ^= value
	cpu.setZN(cpu.A)
	return 0
}

func rra(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	value := cpu.rotateRight(cpu.memory.Read(address))
	cpu.memory.Write(address, value)
	cpu.addWithCarry(value)
	return 0
}

// ANC: AND then copy N into C
func anc(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	and(cpu, address, Immediate)
	cpu.C = cpu.N
	return 0
}

// ALR: AND then LSR A
func alr(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.A &= cpu.memory.Read(address)
	cpu.A = cpu.shiftRight(cpu.A)
	cpu.setZN(cpu.A)
	return 0
}

// ARR: AND then ROR A, with C and V taken from bits 6 and 5 of the result
func arr(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	cpu.A &= cpu.memory.Read(address)
	cpu.A = cpu.rotateRight(cpu.A)
	cpu.setZN(cpu.A)
	cpu.C = cpu.A&0x40 != 0
	cpu.V = (cpu.A>>6^cpu.A>>5)&1 != 0
	return 0
}

// AXS: X = (A & X) - operand, without borrow
func axs(cpu *CPU, address uint16, _ AddressingMode) uint8 {
	value := cpu.memory.Read(address)
	ax := cpu.A & cpu.X
	cpu.C = ax >= value
	cpu.X = ax - value
	cpu.setZN(cpu.X)
	return 0
}
