// Package apu implements the Audio Processing Unit for the NES.
package apu

const (
	// CPUFrequency is the NTSC CPU clock in Hz
	CPUFrequency = 1789773.0

	// DefaultSampleRate is the output rate used unless SetSampleRate is called
	DefaultSampleRate = 44100
)

// Frame counter step points in CPU cycles
const (
	frameStep1     = 7457
	frameStep2     = 14913
	frameStep3     = 22371
	frameStep4     = 29829
	frameLength4   = 29830
	frameStep5     = 37281
	frameLength5   = 37282
	maxSampleQueue = 1 << 16
)

// APU represents the NES Audio Processing Unit
type APU struct {
	// APU channels
	pulse1   PulseChannel
	pulse2   PulseChannel
	triangle TriangleChannel
	noise    NoiseChannel
	dmc      DMCChannel

	// Frame counter
	frameCounter   uint32
	frameMode      bool // false = 4-step, true = 5-step
	frameIRQEnable bool
	frameIRQFlag   bool

	// Audio generation
	sampleBuffer     []float32
	sampleRate       int
	cycleAccumulator float64

	cycles uint64
}

// New creates a new APU instance
func New() *APU {
	apu := &APU{
		sampleBuffer: make([]float32, 0, 4096),
		sampleRate:   DefaultSampleRate,
	}
	apu.Reset()
	return apu
}

// Reset resets the APU to its initial state
func (apu *APU) Reset() {
	apu.pulse1 = PulseChannel{onesComplement: true}
	apu.pulse2 = PulseChannel{}
	apu.triangle = TriangleChannel{}
	apu.noise = NoiseChannel{shiftRegister: 1}
	memory := apu.dmc.memory
	apu.dmc = DMCChannel{memory: memory, silence: true}

	apu.frameCounter = 0
	apu.frameMode = false
	apu.frameIRQEnable = true
	apu.frameIRQFlag = false

	apu.cycles = 0
	apu.cycleAccumulator = 0
	apu.sampleBuffer = apu.sampleBuffer[:0]
}

// SetMemoryReader sets the function the DMC uses to fetch sample bytes from
// CPU address space
func (apu *APU) SetMemoryReader(read func(address uint16) uint8) {
	apu.dmc.memory = read
}

// Step advances the APU by one CPU cycle
func (apu *APU) Step() {
	apu.cycles++

	apu.stepFrameCounter()

	// triangle runs at CPU rate, the others at half rate
	apu.triangle.stepTimer()
	if apu.cycles%2 == 0 {
		apu.pulse1.stepTimer()
		apu.pulse2.stepTimer()
		apu.noise.stepTimer()
	}
	apu.dmc.stepTimer()

	apu.generateSample()
}

func (apu *APU) stepFrameCounter() {
	apu.frameCounter++

	if apu.frameMode {
		switch apu.frameCounter {
		case frameStep1, frameStep3:
			apu.clockQuarterFrame()
		case frameStep2, frameStep5:
			apu.clockQuarterFrame()
			apu.clockHalfFrame()
		case frameLength5:
			apu.frameCounter = 0
		}
		return
	}

	switch apu.frameCounter {
	case frameStep1, frameStep3:
		apu.clockQuarterFrame()
	case frameStep2:
		apu.clockQuarterFrame()
		apu.clockHalfFrame()
	case frameStep4:
		apu.clockQuarterFrame()
		apu.clockHalfFrame()
		apu.raiseFrameIRQ()
	case frameLength4:
		apu.raiseFrameIRQ()
		apu.frameCounter = 0
	}
}

func (apu *APU) raiseFrameIRQ() {
	if apu.frameIRQEnable {
		apu.frameIRQFlag = true
	}
}

// clockQuarterFrame clocks envelopes and the triangle linear counter
func (apu *APU) clockQuarterFrame() {
	apu.pulse1.envelope.clock()
	apu.pulse2.envelope.clock()
	apu.noise.envelope.clock()
	apu.triangle.clockLinear()
}

// clockHalfFrame clocks length counters and sweep units
func (apu *APU) clockHalfFrame() {
	apu.pulse1.clockLength()
	apu.pulse1.clockSweep()
	apu.pulse2.clockLength()
	apu.pulse2.clockSweep()
	apu.triangle.clockLength()
	apu.noise.clockLength()
}

func (apu *APU) generateSample() {
	apu.cycleAccumulator += float64(apu.sampleRate) / CPUFrequency
	if apu.cycleAccumulator < 1.0 {
		return
	}
	apu.cycleAccumulator -= 1.0

	if len(apu.sampleBuffer) >= maxSampleQueue {
		// nobody is draining; keep the newest audio
		apu.sampleBuffer = apu.sampleBuffer[:copy(apu.sampleBuffer, apu.sampleBuffer[len(apu.sampleBuffer)/2:])]
	}
	apu.sampleBuffer = append(apu.sampleBuffer, apu.output())
}

func (apu *APU) output() float32 {
	return mixChannels(
		apu.pulse1.output(),
		apu.pulse2.output(),
		apu.triangle.output(),
		apu.noise.output(),
		apu.dmc.outputLevel,
	)
}

// WriteRegister writes to an APU register
func (apu *APU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x4000:
		apu.pulse1.writeControl(value)
	case 0x4001:
		apu.pulse1.writeSweep(value)
	case 0x4002:
		apu.pulse1.writeTimerLow(value)
	case 0x4003:
		apu.pulse1.writeTimerHigh(value)

	case 0x4004:
		apu.pulse2.writeControl(value)
	case 0x4005:
		apu.pulse2.writeSweep(value)
	case 0x4006:
		apu.pulse2.writeTimerLow(value)
	case 0x4007:
		apu.pulse2.writeTimerHigh(value)

	case 0x4008:
		apu.triangle.writeControl(value)
	case 0x400A:
		apu.triangle.writeTimerLow(value)
	case 0x400B:
		apu.triangle.writeTimerHigh(value)

	case 0x400C:
		apu.noise.writeControl(value)
	case 0x400E:
		apu.noise.writePeriod(value)
	case 0x400F:
		apu.noise.writeLength(value)

	case 0x4010:
		apu.dmc.writeControl(value)
	case 0x4011:
		apu.dmc.outputLevel = value & 0x7F
	case 0x4012:
		apu.dmc.writeAddress(value)
	case 0x4013:
		apu.dmc.writeLength(value)

	case 0x4015:
		apu.writeChannelEnable(value)
	case 0x4017:
		apu.writeFrameCounter(value)
	}
}

func (apu *APU) writeChannelEnable(value uint8) {
	apu.pulse1.setEnabled(value&0x01 != 0)
	apu.pulse2.setEnabled(value&0x02 != 0)
	apu.triangle.setEnabled(value&0x04 != 0)
	apu.noise.setEnabled(value&0x08 != 0)
	apu.dmc.setEnabled(value&0x10 != 0)
	apu.dmc.irqFlag = false
}

func (apu *APU) writeFrameCounter(value uint8) {
	apu.frameMode = value&0x80 != 0
	apu.frameIRQEnable = value&0x40 == 0
	if !apu.frameIRQEnable {
		apu.frameIRQFlag = false
	}

	apu.frameCounter = 0
	if apu.frameMode {
		apu.clockQuarterFrame()
		apu.clockHalfFrame()
	}
}

// ReadStatus reads the APU status register ($4015). Reading clears the
// frame IRQ flag.
func (apu *APU) ReadStatus() uint8 {
	var status uint8
	if apu.pulse1.lengthCounter > 0 {
		status |= 0x01
	}
	if apu.pulse2.lengthCounter > 0 {
		status |= 0x02
	}
	if apu.triangle.lengthCounter > 0 {
		status |= 0x04
	}
	if apu.noise.lengthCounter > 0 {
		status |= 0x08
	}
	if apu.dmc.bytesRemaining > 0 {
		status |= 0x10
	}
	if apu.frameIRQFlag {
		status |= 0x40
	}
	if apu.dmc.irqFlag {
		status |= 0x80
	}

	apu.frameIRQFlag = false
	return status
}

// IRQ reports whether the APU is asserting the CPU IRQ line
func (apu *APU) IRQ() bool {
	return apu.frameIRQFlag || apu.dmc.irqFlag
}

// GetSamples drains and returns the queued audio samples
func (apu *APU) GetSamples() []float32 {
	samples := make([]float32, len(apu.sampleBuffer))
	copy(samples, apu.sampleBuffer)
	apu.sampleBuffer = apu.sampleBuffer[:0]
	return samples
}

// SetSampleRate sets the target audio sample rate
func (apu *APU) SetSampleRate(rate int) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	apu.sampleRate = rate
	apu.cycleAccumulator = 0
}

// GetSampleRate returns the current sample rate
func (apu *APU) GetSampleRate() int {
	return apu.sampleRate
}

// GetChannelOutput returns the raw output level of a channel (0 pulse 1,
// 1 pulse 2, 2 triangle, 3 noise, 4 DMC)
func (apu *APU) GetChannelOutput(channel int) uint8 {
	switch channel {
	case 0:
		return apu.pulse1.output()
	case 1:
		return apu.pulse2.output()
	case 2:
		return apu.triangle.output()
	case 3:
		return apu.noise.output()
	case 4:
		return apu.dmc.outputLevel
	}
	return 0
}

// IsChannelEnabled returns whether a channel is enabled via $4015
func (apu *APU) IsChannelEnabled(channel int) bool {
	switch channel {
	case 0:
		return apu.pulse1.enabled
	case 1:
		return apu.pulse2.enabled
	case 2:
		return apu.triangle.enabled
	case 3:
		return apu.noise.enabled
	case 4:
		return apu.dmc.enabled
	}
	return false
}

// mixChannels applies the NES non-linear mixer. Output is in the range 0
// to 1, silence is 0.
func mixChannels(pulse1, pulse2, triangle, noise, dmc uint8) float32 {
	var pulseOut float64
	if sum := float64(pulse1) + float64(pulse2); sum != 0 {
		pulseOut = 95.88 / (8128.0/sum + 100.0)
	}

	var tndOut float64
	tnd := float64(triangle)/8227.0 + float64(noise)/12241.0 + float64(dmc)/22638.0
	if tnd != 0 {
		tndOut = 159.79 / (1.0/tnd + 100.0)
	}

	return float32(pulseOut + tndOut)
}

// Length counter lookup table
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

// State is the register level snapshot used for save states. Channel
// phase is not captured.
type State struct {
	Registers      [0x18]uint8
	FrameMode      bool
	FrameIRQEnable bool
	FrameIRQFlag   bool
	FrameCounter   uint32
	Lengths        [4]uint8
	DMCOutput      uint8
}

// GetState captures the APU state. Register values are reconstructed from
// the channel fields.
func (apu *APU) GetState() State {
	s := State{
		FrameMode:      apu.frameMode,
		FrameIRQEnable: apu.frameIRQEnable,
		FrameIRQFlag:   apu.frameIRQFlag,
		FrameCounter:   apu.frameCounter,
		Lengths: [4]uint8{
			apu.pulse1.lengthCounter, apu.pulse2.lengthCounter,
			apu.triangle.lengthCounter, apu.noise.lengthCounter,
		},
		DMCOutput: apu.dmc.outputLevel,
	}
	apu.pulse1.registers(s.Registers[0x00:0x04])
	apu.pulse2.registers(s.Registers[0x04:0x08])
	apu.triangle.registers(s.Registers[0x08:0x0C])
	apu.noise.registers(s.Registers[0x0C:0x10])
	apu.dmc.registers(s.Registers[0x10:0x14])
	s.Registers[0x15] = apu.enableMask()
	return s
}

// SetState restores an APU snapshot by replaying register writes
func (apu *APU) SetState(s State) {
	apu.Reset()
	// channels are still disabled so length counters are not loaded
	for address := uint16(0x4000); address < 0x4014; address++ {
		apu.WriteRegister(address, s.Registers[address-0x4000])
	}
	apu.writeChannelEnable(s.Registers[0x15])
	apu.pulse1.lengthCounter = s.Lengths[0]
	apu.pulse2.lengthCounter = s.Lengths[1]
	apu.triangle.lengthCounter = s.Lengths[2]
	apu.noise.lengthCounter = s.Lengths[3]
	apu.dmc.outputLevel = s.DMCOutput

	apu.frameMode = s.FrameMode
	apu.frameIRQEnable = s.FrameIRQEnable
	apu.frameIRQFlag = s.FrameIRQFlag
	apu.frameCounter = s.FrameCounter
}

func (apu *APU) enableMask() uint8 {
	var mask uint8
	for i := 0; i < 5; i++ {
		if apu.IsChannelEnabled(i) {
			mask |= 1 << i
		}
	}
	return mask
}
