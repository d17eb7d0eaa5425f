package graphics

// VideoProcessor applies brightness, contrast and saturation to frames
type VideoProcessor struct {
	brightness float32
	contrast   float32
	saturation float32
	out        []uint32
}

// NewVideoProcessor creates a new video processor. 1.0 leaves a setting
// unchanged.
func NewVideoProcessor(brightness, contrast, saturation float32) *VideoProcessor {
	return &VideoProcessor{
		brightness: brightness,
		contrast:   contrast,
		saturation: saturation,
	}
}

// Identity reports whether ProcessFrame would leave frames unchanged
func (vp *VideoProcessor) Identity() bool {
	return vp.brightness == 1 && vp.contrast == 1 && vp.saturation == 1
}

// ProcessFrame returns frameBuffer adjusted by the current settings. The
// input is never modified; the result is reused by the next call.
func (vp *VideoProcessor) ProcessFrame(frameBuffer []uint32) []uint32 {
	if vp.Identity() {
		return frameBuffer
	}

	if cap(vp.out) < len(frameBuffer) {
		vp.out = make([]uint32, len(frameBuffer))
	}
	vp.out = vp.out[:len(frameBuffer)]

	for i, px := range frameBuffer {
		vp.out[i] = vp.adjust(px)
	}
	return vp.out
}

func (vp *VideoProcessor) adjust(px uint32) uint32 {
	r := float32(px>>16&0xFF) / 255
	g := float32(px>>8&0xFF) / 255
	b := float32(px&0xFF) / 255

	r, g, b = r*vp.brightness, g*vp.brightness, b*vp.brightness
	r = (r-0.5)*vp.contrast + 0.5
	g = (g-0.5)*vp.contrast + 0.5
	b = (b-0.5)*vp.contrast + 0.5

	// saturation moves each channel away from (or towards) the Rec. 601 luma
	if vp.saturation != 1 {
		y := 0.299*r + 0.587*g + 0.114*b
		r = y + (r-y)*vp.saturation
		g = y + (g-y)*vp.saturation
		b = y + (b-y)*vp.saturation
	}

	return uint32(toByte(r))<<16 | uint32(toByte(g))<<8 | uint32(toByte(b))
}

func toByte(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

// SetBrightness updates the brightness value
func (vp *VideoProcessor) SetBrightness(brightness float32) {
	vp.brightness = brightness
}

// SetContrast updates the contrast value
func (vp *VideoProcessor) SetContrast(contrast float32) {
	vp.contrast = contrast
}

// SetSaturation updates the saturation value
func (vp *VideoProcessor) SetSaturation(saturation float32) {
	vp.saturation = saturation
}
