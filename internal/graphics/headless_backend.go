package graphics

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"

	"kiwi/internal/logger"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow keeps the last frame in memory and writes the frames
// listed in Config.SnapshotFrames to PNG files
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount int
	snapshots  []int
	outputDir  string
	image      *image.RGBA
	saved      []string
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	dir := b.config.SnapshotDir
	if dir == "" {
		dir = "."
	}
	return &HeadlessWindow{
		title:     title,
		width:     width,
		height:    height,
		running:   true,
		snapshots: b.config.SnapshotFrames,
		outputDir: dir,
		image:     image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight)),
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true once the window has been cleaned up
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns no events; there is no input in headless mode
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame converts the frame and saves it when its number was asked for
func (w *HeadlessWindow) RenderFrame(frameBuffer []uint32) error {
	w.frameCount++
	FrameToRGBA(w.image, frameBuffer)

	if slices.Contains(w.snapshots, w.frameCount) {
		name := filepath.Join(w.outputDir, fmt.Sprintf("frame_%05d.png", w.frameCount))
		if err := w.SavePNG(name); err != nil {
			return err
		}
	}
	return nil
}

// SavePNG writes the last rendered frame to path
func (w *HeadlessWindow) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving frame: %w", err)
	}
	if err := png.Encode(f, w.image); err != nil {
		f.Close()
		return fmt.Errorf("encoding frame: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("saving frame: %w", err)
	}

	w.saved = append(w.saved, path)
	logger.Logf(logger.Allow, "graphics", "saved frame %d to %s", w.frameCount, path)
	return nil
}

// Image returns the last rendered frame
func (w *HeadlessWindow) Image() *image.RGBA {
	return w.image
}

// Saved returns the files written so far
func (w *HeadlessWindow) Saved() []string {
	return w.saved
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// GetFrameCount returns the number of frames rendered
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}
