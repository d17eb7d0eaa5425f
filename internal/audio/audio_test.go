package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-audio/wav"
)

func TestRingBuffer_WriteRead(t *testing.T) {
	rb := NewRingBuffer(16, 1)
	rb.Write([]byte{1, 2, 3, 4, 5})

	if rb.Buffered() != 5 {
		t.Fatalf("Expected 5 buffered bytes, got %d", rb.Buffered())
	}

	out := make([]byte, 5)
	n, err := rb.Read(out)
	if err != nil || n != 5 {
		t.Fatalf("Expected 5 bytes, got %d (%v)", n, err)
	}
	if !bytes.Equal(out, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Unexpected data %v", out)
	}
}

func TestRingBuffer_UnderrunPadsSilence(t *testing.T) {
	rb := NewRingBuffer(16, 1)
	rb.Write([]byte{9, 9})

	out := []byte{7, 7, 7, 7, 7}
	n, err := rb.Read(out)
	if err != nil || n != len(out) {
		t.Fatalf("Expected a full read, got %d (%v)", n, err)
	}
	if !bytes.Equal(out, []byte{9, 9, 0, 0, 0}) {
		t.Errorf("Expected data then silence, got %v", out)
	}
}

func TestRingBuffer_OverflowDropsOldest(t *testing.T) {
	tests := []struct {
		name   string
		writes [][]byte
		want   []byte
	}{
		{"partial", [][]byte{{1, 2, 3, 4, 5, 6}, {7, 8, 9, 10, 11}}, []byte{4, 5, 6, 7, 8, 9, 10, 11}},
		{"larger than capacity", [][]byte{{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}, []byte{3, 4, 5, 6, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRingBuffer(8, 1)
			for _, w := range tt.writes {
				rb.Write(w)
			}
			if rb.Buffered() != 8 {
				t.Fatalf("Expected 8 buffered, got %d", rb.Buffered())
			}
			out := make([]byte, 8)
			rb.Read(out)
			if !bytes.Equal(out, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, out)
			}
		})
	}
}

func TestRingBuffer_WrapAround(t *testing.T) {
	rb := NewRingBuffer(8, 1)
	rb.Write([]byte{1, 2, 3, 4, 5, 6})
	rb.Read(make([]byte, 4))
	rb.Write([]byte{7, 8, 9, 10, 11})

	if rb.Buffered() != 7 {
		t.Fatalf("Expected 7 buffered, got %d", rb.Buffered())
	}
	out := make([]byte, 7)
	rb.Read(out)
	if !bytes.Equal(out, []byte{5, 6, 7, 8, 9, 10, 11}) {
		t.Errorf("Unexpected data %v", out)
	}
}

func TestRingBuffer_FrameAlignedReads(t *testing.T) {
	rb := NewRingBuffer(64, 8)
	rb.Write(bytes.Repeat([]byte{0xAA}, 12))

	out := make([]byte, 12)
	rb.Read(out)
	if !bytes.Equal(out[:8], bytes.Repeat([]byte{0xAA}, 8)) || !bytes.Equal(out[8:], make([]byte, 4)) {
		t.Errorf("Expected one whole frame then silence, got %v", out)
	}
	if rb.Buffered() != 4 {
		t.Errorf("Expected partial frame kept, got %d", rb.Buffered())
	}
}

func TestRingBuffer_CloseDrainsThenEOF(t *testing.T) {
	rb := NewRingBuffer(16, 1)
	rb.Write([]byte{1, 2})
	rb.Close()

	out := make([]byte, 4)
	n, err := rb.Read(out)
	if err != nil || n != 2 {
		t.Fatalf("Expected remaining 2 bytes, got %d (%v)", n, err)
	}
	if _, err := rb.Read(out); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer(16, 1)
	rb.Write([]byte{1, 2, 3})
	rb.Clear()
	if rb.Buffered() != 0 {
		t.Errorf("Expected empty buffer, got %d", rb.Buffered())
	}
}

func TestRingBuffer_ConcurrentReadWrite(t *testing.T) {
	rb := NewRingBuffer(1024, 8)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		data := make([]byte, 96)
		for i := 0; i < 100; i++ {
			rb.Write(data)
		}
		rb.Close()
	}()
	go func() {
		defer wg.Done()
		buf := make([]byte, 64)
		for {
			if _, err := rb.Read(buf); err == io.EOF {
				return
			}
		}
	}()
	wg.Wait()
}

func TestEncodeStereoF32(t *testing.T) {
	out := encodeStereoF32(nil, []float32{0.5, 1}, 0.5)
	if len(out) != 2*stereoF32Frame {
		t.Fatalf("Expected 16 bytes, got %d", len(out))
	}

	want := []float32{0.25, 0.25, 0.5, 0.5}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(out[i*4:]))
		if got != w {
			t.Errorf("Value %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestToPCM16_Clamps(t *testing.T) {
	got := toPCM16(nil, []float32{0, 1, -1, 2, -3})
	want := []int{0, math.MaxInt16, -math.MaxInt16, math.MaxInt16, -math.MaxInt16}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestRecorder_WritesValidWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	rec, err := NewRecorder(path, 44100)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	samples := make([]float32, 441)
	for i := range samples {
		samples[i] = float32(i%2) * 0.5
	}
	for i := 0; i < 10; i++ {
		if err := rec.Write(samples); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if rec.Samples() != 4410 {
		t.Errorf("Expected 4410 samples, got %d", rec.Samples())
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("Expected a valid WAV file")
	}
	if dec.SampleRate != 44100 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("Unexpected format: %d Hz, %d channels, %d bits", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if len(buf.Data) != 4410 {
		t.Fatalf("Expected 4410 decoded samples, got %d", len(buf.Data))
	}
	if buf.Data[0] != 0 || buf.Data[1] != 16383 {
		t.Errorf("Unexpected samples %d %d", buf.Data[0], buf.Data[1])
	}
}

func TestNewRecorder_BadPath(t *testing.T) {
	if _, err := NewRecorder(filepath.Join(t.TempDir(), "missing", "out.wav"), 44100); err == nil {
		t.Error("Expected error for missing directory")
	}
}
