// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"errors"
	"fmt"
	"image"
)

// NES screen size
const (
	ScreenWidth  = 256
	ScreenHeight = 240
)

// ErrUnavailable is returned by backends not compiled into this build
var ErrUnavailable = errors.New("graphics backend not available in this build")

// Backend represents a graphics rendering backend
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if the backend never shows a window
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	SetTitle(title string)
	GetSize() (width, height int)
	ShouldClose() bool

	// PollEvents returns the input events since the last call
	PollEvents() []InputEvent

	// RenderFrame shows a 256x240 0x00RRGGBB frame
	RenderFrame(frameBuffer []uint32) error

	Cleanup() error
}

// Runner is a Window that owns the main loop. Run calls update once per
// host frame until the window closes or update returns an error.
type Runner interface {
	Run(update func() error) error
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool
	Filter       string // "nearest", "linear"

	// KeyBindings maps key names, as spelled by ebiten (e.g. "ArrowUp",
	// "Enter", "KeyJ" or "J"), to virtual controller codes
	KeyBindings map[string]uint8

	// frames saved as PNG by the headless backend
	SnapshotFrames []int
	SnapshotDir    string

	Headless bool
	Debug    bool
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type      InputEventType
	Key       Key
	Code      uint8 // virtual controller code for InputEventTypeButton
	Pressed   bool
	Modifiers ModifierKey
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeButton
	InputEventTypeQuit
)

// Key represents the hotkeys handled by the application
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyPause
	KeyReset
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// ModifierKey represents modifier keys
type ModifierKey int

const (
	ModifierNone  ModifierKey = 0
	ModifierShift ModifierKey = 1 << iota
	ModifierCtrl
	ModifierAlt
)

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine, "":
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	}
	return nil, fmt.Errorf("unknown graphics backend %q", backendType)
}

// FrameToRGBA copies a 0x00RRGGBB frame into img, which must be 256x240
func FrameToRGBA(img *image.RGBA, frameBuffer []uint32) {
	pix := img.Pix
	for i, px := range frameBuffer {
		if i >= ScreenWidth*ScreenHeight {
			break
		}
		o := i * 4
		pix[o] = uint8(px >> 16)
		pix[o+1] = uint8(px >> 8)
		pix[o+2] = uint8(px)
		pix[o+3] = 0xFF
	}
}
