package apu

// envelope is the volume unit shared by the pulse and noise channels
type envelope struct {
	loop     bool // Length counter halt / envelope loop
	constant bool // Constant volume flag
	volume   uint8
	start    bool
	divider  uint8
	decay    uint8
}

func (e *envelope) write(value uint8) {
	e.loop = value&0x20 != 0
	e.constant = value&0x10 != 0
	e.volume = value & 0x0F
}

func (e *envelope) clock() {
	if e.start {
		e.start = false
		e.decay = 15
		e.divider = e.volume
		return
	}
	if e.divider > 0 {
		e.divider--
		return
	}
	e.divider = e.volume
	if e.decay > 0 {
		e.decay--
	} else if e.loop {
		e.decay = 15
	}
}

func (e *envelope) level() uint8 {
	if e.constant {
		return e.volume
	}
	return e.decay
}

func (e *envelope) register() uint8 {
	var v uint8
	if e.loop {
		v |= 0x20
	}
	if e.constant {
		v |= 0x10
	}
	return v | e.volume
}

// Duty cycle lookup table (8 steps each)
var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 75% (inverted 25%)
}

// PulseChannel represents a pulse wave channel
type PulseChannel struct {
	enabled  bool
	envelope envelope

	dutyCycle    uint8
	sequencerPos uint8

	// Sweep unit
	sweepEnable    bool
	sweepPeriod    uint8
	sweepNegate    bool
	sweepShift     uint8
	sweepReload    bool
	sweepCounter   uint8
	onesComplement bool // pulse 1 negates with one's complement

	timer        uint16 // 11-bit period
	timerCounter uint16

	lengthCounter uint8
}

func (p *PulseChannel) setEnabled(enabled bool) {
	p.enabled = enabled
	if !enabled {
		p.lengthCounter = 0
	}
}

func (p *PulseChannel) writeControl(value uint8) {
	p.dutyCycle = value >> 6
	p.envelope.write(value)
}

func (p *PulseChannel) writeSweep(value uint8) {
	p.sweepEnable = value&0x80 != 0
	p.sweepPeriod = (value >> 4) & 0x07
	p.sweepNegate = value&0x08 != 0
	p.sweepShift = value & 0x07
	p.sweepReload = true
}

func (p *PulseChannel) writeTimerLow(value uint8) {
	p.timer = p.timer&0xFF00 | uint16(value)
}

func (p *PulseChannel) writeTimerHigh(value uint8) {
	p.timer = p.timer&0x00FF | uint16(value&0x07)<<8
	if p.enabled {
		p.lengthCounter = lengthTable[value>>3]
	}
	p.envelope.start = true
	p.sequencerPos = 0
}

func (p *PulseChannel) stepTimer() {
	if p.timerCounter == 0 {
		p.timerCounter = p.timer
		p.sequencerPos = (p.sequencerPos + 1) & 0x07
	} else {
		p.timerCounter--
	}
}

func (p *PulseChannel) clockLength() {
	if !p.envelope.loop && p.lengthCounter > 0 {
		p.lengthCounter--
	}
}

func (p *PulseChannel) sweepTarget() uint16 {
	change := p.timer >> p.sweepShift
	if !p.sweepNegate {
		return p.timer + change
	}
	if p.onesComplement {
		change++
	}
	if change > p.timer {
		return 0
	}
	return p.timer - change
}

func (p *PulseChannel) clockSweep() {
	if p.sweepCounter == 0 && p.sweepEnable && p.sweepShift > 0 && !p.muted() {
		p.timer = p.sweepTarget()
	}
	if p.sweepCounter == 0 || p.sweepReload {
		p.sweepCounter = p.sweepPeriod
		p.sweepReload = false
	} else {
		p.sweepCounter--
	}
}

func (p *PulseChannel) muted() bool {
	return p.timer < 8 || p.sweepTarget() > 0x7FF
}

func (p *PulseChannel) output() uint8 {
	if !p.enabled || p.lengthCounter == 0 || p.muted() {
		return 0
	}
	if dutyTable[p.dutyCycle][p.sequencerPos] == 0 {
		return 0
	}
	return p.envelope.level()
}

func (p *PulseChannel) registers(r []uint8) {
	r[0] = p.dutyCycle<<6 | p.envelope.register()
	r[1] = p.sweepShift | p.sweepPeriod<<4
	if p.sweepEnable {
		r[1] |= 0x80
	}
	if p.sweepNegate {
		r[1] |= 0x08
	}
	r[2] = uint8(p.timer)
	r[3] = uint8(p.timer>>8) & 0x07
}

// Triangle wave sequence (32 steps)
var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// TriangleChannel represents the triangle wave channel
type TriangleChannel struct {
	enabled bool

	control             bool // Length counter halt / linear counter control
	linearCounterLoad   uint8
	linearCounter       uint8
	linearCounterReload bool

	timer        uint16
	timerCounter uint16

	lengthCounter uint8
	sequencerPos  uint8
}

func (t *TriangleChannel) setEnabled(enabled bool) {
	t.enabled = enabled
	if !enabled {
		t.lengthCounter = 0
	}
}

func (t *TriangleChannel) writeControl(value uint8) {
	t.control = value&0x80 != 0
	t.linearCounterLoad = value & 0x7F
}

func (t *TriangleChannel) writeTimerLow(value uint8) {
	t.timer = t.timer&0xFF00 | uint16(value)
}

func (t *TriangleChannel) writeTimerHigh(value uint8) {
	t.timer = t.timer&0x00FF | uint16(value&0x07)<<8
	if t.enabled {
		t.lengthCounter = lengthTable[value>>3]
	}
	t.linearCounterReload = true
}

func (t *TriangleChannel) stepTimer() {
	if t.timerCounter > 0 {
		t.timerCounter--
		return
	}
	t.timerCounter = t.timer
	if t.lengthCounter > 0 && t.linearCounter > 0 {
		t.sequencerPos = (t.sequencerPos + 1) & 0x1F
	}
}

func (t *TriangleChannel) clockLinear() {
	if t.linearCounterReload {
		t.linearCounter = t.linearCounterLoad
	} else if t.linearCounter > 0 {
		t.linearCounter--
	}
	if !t.control {
		t.linearCounterReload = false
	}
}

func (t *TriangleChannel) clockLength() {
	if !t.control && t.lengthCounter > 0 {
		t.lengthCounter--
	}
}

func (t *TriangleChannel) output() uint8 {
	// ultrasonic periods are silenced instead of aliasing
	if !t.enabled || t.timer < 2 {
		return 0
	}
	return triangleTable[t.sequencerPos]
}

func (t *TriangleChannel) registers(r []uint8) {
	r[0] = t.linearCounterLoad
	if t.control {
		r[0] |= 0x80
	}
	r[2] = uint8(t.timer)
	r[3] = uint8(t.timer>>8) & 0x07
}

// Noise period table (NTSC)
var noisePeriodTable = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160,
	202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// NoiseChannel represents the noise channel
type NoiseChannel struct {
	enabled  bool
	envelope envelope

	mode         bool // short mode, feedback from bit 6
	periodIndex  uint8
	timerCounter uint16

	lengthCounter uint8
	shiftRegister uint16 // 15-bit LFSR
}

func (n *NoiseChannel) setEnabled(enabled bool) {
	n.enabled = enabled
	if !enabled {
		n.lengthCounter = 0
	}
}

func (n *NoiseChannel) writeControl(value uint8) {
	n.envelope.write(value)
}

func (n *NoiseChannel) writePeriod(value uint8) {
	n.mode = value&0x80 != 0
	n.periodIndex = value & 0x0F
}

func (n *NoiseChannel) writeLength(value uint8) {
	if n.enabled {
		n.lengthCounter = lengthTable[value>>3]
	}
	n.envelope.start = true
}

func (n *NoiseChannel) stepTimer() {
	if n.timerCounter > 0 {
		n.timerCounter--
		return
	}
	n.timerCounter = noisePeriodTable[n.periodIndex] / 2

	bit := uint16(1)
	if n.mode {
		bit = 6
	}
	feedback := (n.shiftRegister ^ n.shiftRegister>>bit) & 0x01
	n.shiftRegister = n.shiftRegister>>1 | feedback<<14
}

func (n *NoiseChannel) clockLength() {
	if !n.envelope.loop && n.lengthCounter > 0 {
		n.lengthCounter--
	}
}

func (n *NoiseChannel) output() uint8 {
	if !n.enabled || n.lengthCounter == 0 || n.shiftRegister&0x01 != 0 {
		return 0
	}
	return n.envelope.level()
}

func (n *NoiseChannel) registers(r []uint8) {
	r[0] = n.envelope.register()
	r[2] = n.periodIndex
	if n.mode {
		r[2] |= 0x80
	}
}
