//go:build !headless

package graphics

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"kiwi/internal/logger"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
}

// EbitengineWindow implements Window and Runner on top of ebiten.RunGame
type EbitengineWindow struct {
	title   string
	width   int
	height  int
	game    *ebitengineGame
	running bool
	events  []InputEvent
	update  func() error
}

type ebitengineGame struct {
	window       *EbitengineWindow
	frameImage   *ebiten.Image
	imageBuffer  *image.RGBA
	windowWidth  int
	windowHeight int
	bindings     map[ebiten.Key]uint8
}

var hotkeys = map[ebiten.Key]Key{
	ebiten.KeyEscape:    KeyEscape,
	ebiten.KeyP:         KeyPause,
	ebiten.KeyBackspace: KeyReset,
	ebiten.KeyF1:        KeyF1,
	ebiten.KeyF2:        KeyF2,
	ebiten.KeyF3:        KeyF3,
	ebiten.KeyF4:        KeyF4,
	ebiten.KeyF5:        KeyF5,
	ebiten.KeyF6:        KeyF6,
	ebiten.KeyF7:        KeyF7,
	ebiten.KeyF8:        KeyF8,
	ebiten.KeyF9:        KeyF9,
	ebiten.KeyF10:       KeyF10,
	ebiten.KeyF11:       KeyF11,
	ebiten.KeyF12:       KeyF12,
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow configures the Ebitengine window. Nothing is shown until
// Run is called.
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}

	bindings, err := resolveKeyBindings(b.config.KeyBindings)
	if err != nil {
		return nil, err
	}

	game := &ebitengineGame{
		frameImage:   ebiten.NewImage(ScreenWidth, ScreenHeight),
		imageBuffer:  image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight)),
		windowWidth:  width,
		windowHeight: height,
		bindings:     bindings,
	}
	window := &EbitengineWindow{
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetFullscreen(b.config.Fullscreen)
	ebiten.SetScreenFilterEnabled(b.config.Filter == "linear")

	return window, nil
}

// resolveKeyBindings turns key names into ebiten keys. A name may be the
// ebiten spelling ("KeyJ", "ArrowUp") or the same without the Key prefix.
func resolveKeyBindings(names map[string]uint8) (map[ebiten.Key]uint8, error) {
	byName := make(map[string]ebiten.Key, int(ebiten.KeyMax)+1)
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		byName[k.String()] = k
	}

	bindings := make(map[ebiten.Key]uint8, len(names))
	for name, code := range names {
		k, ok := byName[name]
		if !ok {
			k, ok = byName["Key"+name]
		}
		if !ok {
			return nil, fmt.Errorf("unknown key name %q", name)
		}
		bindings[k] = code
	}
	return bindings, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns the events gathered since the last call
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads a frame to the texture drawn by the game loop
func (w *EbitengineWindow) RenderFrame(frameBuffer []uint32) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	FrameToRGBA(w.game.imageBuffer, frameBuffer)
	w.game.frameImage.WritePixels(w.game.imageBuffer.Pix)
	return nil
}

// Cleanup stops the game loop at its next update
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop. It blocks until the window closes.
func (w *EbitengineWindow) Run(update func() error) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	w.update = update
	return ebiten.RunGame(w.game)
}

func (g *ebitengineGame) Update() error {
	w := g.window
	if ebiten.IsWindowBeingClosed() {
		w.running = false
	}
	if !w.running {
		return ebiten.Termination
	}

	g.pollInput()

	if w.update != nil {
		if err := w.update(); err != nil {
			logger.Logf(logger.Allow, "graphics", "update error: %v", err)
			return err
		}
	}
	if !w.running {
		return ebiten.Termination
	}
	return nil
}

func (g *ebitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	// largest scale that keeps the aspect ratio, centred
	scale := min(float64(g.windowWidth)/ScreenWidth, float64(g.windowHeight)/ScreenHeight)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(
		(float64(g.windowWidth)-ScreenWidth*scale)/2,
		(float64(g.windowHeight)-ScreenHeight*scale)/2,
	)
	screen.DrawImage(g.frameImage, op)
}

func (g *ebitengineGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

func (g *ebitengineGame) pollInput() {
	var mods ModifierKey
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModifierShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModifierCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModifierAlt
	}

	w := g.window
	for k, code := range g.bindings {
		switch {
		case inpututil.IsKeyJustPressed(k):
			w.events = append(w.events, InputEvent{Type: InputEventTypeButton, Code: code, Pressed: true, Modifiers: mods})
		case inpututil.IsKeyJustReleased(k):
			w.events = append(w.events, InputEvent{Type: InputEventTypeButton, Code: code, Modifiers: mods})
		}
	}

	for k, key := range hotkeys {
		if _, bound := g.bindings[k]; bound {
			continue
		}
		if inpututil.IsKeyJustPressed(k) {
			w.events = append(w.events, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: true, Modifiers: mods})
		}
	}
}
