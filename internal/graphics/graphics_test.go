package graphics

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testFrame() []uint32 {
	fb := make([]uint32, ScreenWidth*ScreenHeight)
	for i := range fb {
		fb[i] = uint32(i) & 0x00FFFFFF
	}
	return fb
}

func newHeadlessWindow(t *testing.T, config Config) *HeadlessWindow {
	t.Helper()
	backend := NewHeadlessBackend()
	if err := backend.Initialize(config); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	window, err := backend.CreateWindow("test", 512, 480)
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}
	return window.(*HeadlessWindow)
}

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		backendType BackendType
		name        string
		wantErr     bool
	}{
		{BackendHeadless, "Headless", false},
		{"bogus", "", true},
	}

	for _, tt := range tests {
		backend, err := CreateBackend(tt.backendType)
		if (err != nil) != tt.wantErr {
			t.Errorf("CreateBackend(%q): unexpected error %v", tt.backendType, err)
			continue
		}
		if err == nil && backend.GetName() != tt.name {
			t.Errorf("CreateBackend(%q): expected %s, got %s", tt.backendType, tt.name, backend.GetName())
		}
	}

	if backend, err := CreateBackend(BackendEbitengine); err != nil || backend == nil {
		t.Errorf("Expected an Ebitengine backend (or its stub), got %v", err)
	}
}

func TestFrameToRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	fb := make([]uint32, ScreenWidth*ScreenHeight)
	fb[0] = 0x00123456
	fb[ScreenWidth+1] = 0x00FF8000

	FrameToRGBA(img, fb)

	want := map[[2]int][4]uint8{
		{0, 0}: {0x12, 0x34, 0x56, 0xFF},
		{1, 1}: {0xFF, 0x80, 0x00, 0xFF},
		{5, 5}: {0, 0, 0, 0xFF},
	}
	for pos, rgba := range want {
		c := img.RGBAAt(pos[0], pos[1])
		if got := [4]uint8{c.R, c.G, c.B, c.A}; got != rgba {
			t.Errorf("Pixel %v: expected %v, got %v", pos, rgba, got)
		}
	}
}

func TestHeadlessBackend_Lifecycle(t *testing.T) {
	backend := NewHeadlessBackend()
	if _, err := backend.CreateWindow("x", 1, 1); err == nil {
		t.Error("Expected error before Initialize")
	}
	if err := backend.Initialize(Config{}); err != nil {
		t.Fatal(err)
	}
	if err := backend.Initialize(Config{}); err == nil {
		t.Error("Expected error on double Initialize")
	}
	if !backend.IsHeadless() {
		t.Error("Expected headless backend")
	}
	if err := backend.Cleanup(); err != nil {
		t.Error(err)
	}
}

func TestHeadlessWindow_SavesRequestedFrames(t *testing.T) {
	dir := t.TempDir()
	w := newHeadlessWindow(t, Config{SnapshotFrames: []int{2}, SnapshotDir: dir})

	fb := testFrame()
	for i := 0; i < 3; i++ {
		if err := w.RenderFrame(fb); err != nil {
			t.Fatalf("RenderFrame failed: %v", err)
		}
	}

	if w.GetFrameCount() != 3 {
		t.Errorf("Expected 3 frames, got %d", w.GetFrameCount())
	}
	saved := w.Saved()
	if len(saved) != 1 || saved[0] != filepath.Join(dir, "frame_00002.png") {
		t.Fatalf("Expected frame 2 saved, got %v", saved)
	}

	f, err := os.Open(saved[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Expected a valid PNG: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, ScreenWidth, ScreenHeight) {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}
	r, g, b, _ := img.At(5, 0).RGBA()
	if r != 0 || g != 0 || b>>8 != 5 {
		t.Errorf("Unexpected pixel (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestHeadlessWindow_Basics(t *testing.T) {
	w := newHeadlessWindow(t, Config{})
	w.SetTitle("renamed")
	if width, height := w.GetSize(); width != 512 || height != 480 {
		t.Errorf("Unexpected size %dx%d", width, height)
	}
	if w.PollEvents() != nil {
		t.Error("Expected no events")
	}
	if w.ShouldClose() {
		t.Error("Window should be open")
	}
	w.Cleanup()
	if !w.ShouldClose() {
		t.Error("Window should close after Cleanup")
	}
}

func TestVideoProcessor_IdentityReturnsInput(t *testing.T) {
	vp := NewVideoProcessor(1, 1, 1)
	fb := testFrame()
	out := vp.ProcessFrame(fb)
	if &out[0] != &fb[0] {
		t.Error("Expected the input buffer back")
	}
}

func TestVideoProcessor_Adjustments(t *testing.T) {
	tests := []struct {
		name                 string
		brightness, contrast float32
		saturation           float32
		in, want             uint32
	}{
		{"brightness doubles", 2, 1, 1, 0x00404040, 0x00808080},
		{"brightness clamps", 2, 1, 1, 0x00C0C0C0, 0x00FFFFFF},
		{"zero contrast is grey", 1, 0, 1, 0x00FF0000, 0x00808080},
		{"zero saturation is luma", 1, 1, 0, 0x00FFFFFF, 0x00FFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := NewVideoProcessor(tt.brightness, tt.contrast, tt.saturation)
			in := []uint32{tt.in}
			out := vp.ProcessFrame(in)
			if out[0] != tt.want {
				t.Errorf("Expected 0x%06X, got 0x%06X", tt.want, out[0])
			}
			if in[0] != tt.in {
				t.Error("Input must not be modified")
			}
		})
	}
}

func TestVideoProcessor_Desaturate(t *testing.T) {
	vp := NewVideoProcessor(1, 1, 0)
	out := vp.ProcessFrame([]uint32{0x00FF0000})
	r, g, b := out[0]>>16&0xFF, out[0]>>8&0xFF, out[0]&0xFF
	if r != g || g != b {
		t.Errorf("Expected grey, got 0x%06X", out[0])
	}

	vp.SetSaturation(1)
	vp.SetBrightness(1)
	vp.SetContrast(1)
	if !vp.Identity() {
		t.Error("Expected identity after resetting settings")
	}
}
