package apu

// DMC rate table (NTSC), in CPU cycles
var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}

// DMCChannel represents the Delta Modulation Channel
type DMCChannel struct {
	enabled   bool
	irqEnable bool
	loop      bool
	rateIndex uint8

	outputLevel uint8 // 7-bit DAC value

	addressRegister uint8
	lengthRegister  uint8
	sampleAddress   uint16
	sampleLength    uint16

	timerCounter   uint16
	currentAddress uint16
	bytesRemaining uint16

	// sample buffer filled by the memory reader
	sampleBuffer     uint8
	sampleBufferFull bool

	// output unit
	shiftRegister uint8
	bitsRemaining uint8
	silence       bool

	irqFlag bool

	memory func(address uint16) uint8
}

func (d *DMCChannel) writeControl(value uint8) {
	d.irqEnable = value&0x80 != 0
	d.loop = value&0x40 != 0
	d.rateIndex = value & 0x0F
	if !d.irqEnable {
		d.irqFlag = false
	}
}

func (d *DMCChannel) setEnabled(enabled bool) {
	d.enabled = enabled
	if !enabled {
		d.bytesRemaining = 0
		return
	}
	if d.bytesRemaining == 0 {
		d.restart()
	}
}

func (d *DMCChannel) restart() {
	d.currentAddress = d.sampleAddress
	d.bytesRemaining = d.sampleLength
}

func (d *DMCChannel) writeAddress(value uint8) {
	d.addressRegister = value
	d.sampleAddress = 0xC000 | uint16(value)<<6
}

func (d *DMCChannel) writeLength(value uint8) {
	d.lengthRegister = value
	d.sampleLength = uint16(value)<<4 | 1
}

// fetch refills the sample buffer from CPU memory
func (d *DMCChannel) fetch() {
	var value uint8
	if d.memory != nil {
		value = d.memory(d.currentAddress)
	}
	d.sampleBuffer = value
	d.sampleBufferFull = true

	d.currentAddress++
	if d.currentAddress == 0 {
		d.currentAddress = 0x8000
	}
	d.bytesRemaining--
	if d.bytesRemaining == 0 {
		if d.loop {
			d.restart()
		} else if d.irqEnable {
			d.irqFlag = true
		}
	}
}

func (d *DMCChannel) stepTimer() {
	if !d.sampleBufferFull && d.bytesRemaining > 0 {
		d.fetch()
	}

	if d.timerCounter > 0 {
		d.timerCounter--
		return
	}
	d.timerCounter = dmcRateTable[d.rateIndex] - 1

	if !d.silence {
		if d.shiftRegister&0x01 != 0 {
			if d.outputLevel <= 125 {
				d.outputLevel += 2
			}
		} else if d.outputLevel >= 2 {
			d.outputLevel -= 2
		}
	}
	d.shiftRegister >>= 1

	if d.bitsRemaining > 0 {
		d.bitsRemaining--
	}
	if d.bitsRemaining == 0 {
		d.bitsRemaining = 8
		if d.sampleBufferFull {
			d.silence = false
			d.shiftRegister = d.sampleBuffer
			d.sampleBufferFull = false
		} else {
			d.silence = true
		}
	}
}

func (d *DMCChannel) registers(r []uint8) {
	r[0] = d.rateIndex
	if d.irqEnable {
		r[0] |= 0x80
	}
	if d.loop {
		r[0] |= 0x40
	}
	r[1] = d.outputLevel
	r[2] = d.addressRegister
	r[3] = d.lengthRegister
}
