package audio

import (
	"encoding/binary"
	"math"
)

// bytes in one stereo float32 frame
const stereoF32Frame = 8

// encodeStereoF32 appends each sample twice, as little endian float32,
// scaled by volume
func encodeStereoF32(dst []byte, samples []float32, volume float32) []byte {
	var b [4]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(s*volume))
		dst = append(dst, b[:]...)
		dst = append(dst, b[:]...)
	}
	return dst
}

// toPCM16 converts samples in the range -1..1 to 16 bit integers
func toPCM16(dst []int, samples []float32) []int {
	for _, s := range samples {
		s = min(max(s, -1), 1)
		dst = append(dst, int(s*math.MaxInt16))
	}
	return dst
}
