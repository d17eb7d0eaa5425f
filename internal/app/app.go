// Package app implements the kiwi desktop application: configuration, the
// main loop, input routing, save states and audio output around a console.
package app

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"kiwi/internal/audio"
	"kiwi/internal/console"
	"kiwi/internal/graphics"
	"kiwi/internal/logger"
)

// errQuit ends a runner-owned main loop without reporting an error
var errQuit = errors.New("quit")

// Options are the per-run settings that do not belong in the config file
type Options struct {
	Headless       bool
	SnapshotFrames []int
	SnapshotDir    string
	RecordPath     string

	// FrameHook, when set, sees every rendered frame with the console's
	// frame number
	FrameHook func(frameBuffer []uint32, frame uint64) error
}

// Application represents the main NES emulator application
type Application struct {
	console *console.Console

	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor

	player   *audio.Player
	recorder *audio.Recorder

	config   *Config
	options  Options
	emulator *Emulator
	states   *StateManager

	running     atomic.Bool
	paused      atomic.Bool
	initialized bool

	frameCount  uint64
	startTime   time.Time
	lastFPSTime time.Time
	fpsFrames   uint64
	currentFPS  float64

	romPath     string
	lastESCTime time.Time
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplicationWithOptions creates a new NES emulator application
func NewApplicationWithOptions(configPath string, opts Options) (*Application, error) {
	app := &Application{
		config:    NewConfig(),
		options:   opts,
		startTime: time.Now(),
	}

	if configPath != "" {
		if err := app.config.LoadFromFile(configPath); err != nil {
			return nil, &ApplicationError{Component: "config", Operation: "load", Err: err}
		}
	}

	if app.config.Debug.EnableLogging {
		logger.SetEcho(os.Stderr)
	}

	if err := app.initializeComponents(); err != nil {
		app.Cleanup()
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}

	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	mode, err := app.config.StepMode()
	if err != nil {
		return err
	}
	app.console = console.New(
		console.WithSampleRate(app.config.Audio.SampleRate),
		console.WithStepMode(mode),
	)

	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	if err := app.initializeAudio(); err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}

	app.emulator = NewEmulator(app.console, app.config.Emulation.FrameRate)
	app.states = NewStateManager(app.config.Paths.SaveStates, app.config.Emulation.SaveStateSlots)

	app.initialized = true
	return nil
}

// initializeGraphicsBackend initializes the graphics backend based on configuration
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendType(app.config.Video.Backend)
	if app.options.Headless {
		backendType = graphics.BackendHeadless
	}

	bindings, err := app.config.KeyBindings()
	if err != nil {
		return err
	}

	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}

	width, height := app.config.GetWindowResolution()
	graphicsConfig := graphics.Config{
		WindowTitle:    "kiwi",
		WindowWidth:    width,
		WindowHeight:   height,
		Fullscreen:     app.config.Window.Fullscreen,
		VSync:          app.config.Video.VSync,
		Filter:         app.config.Video.Filter,
		KeyBindings:    bindings,
		SnapshotFrames: app.options.SnapshotFrames,
		SnapshotDir:    app.options.SnapshotDir,
		Headless:       backendType == graphics.BackendHeadless,
		Debug:          app.config.Debug.EnableLogging,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return err
		}
		// no display or a headless build
		logger.Logf(logger.Allow, "app", "ebitengine backend failed (%v), falling back to headless", err)
		app.graphicsBackend = graphics.NewHeadlessBackend()
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
	}

	app.window, err = app.graphicsBackend.CreateWindow(graphicsConfig.WindowTitle, width, height)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	app.videoProcessor = graphics.NewVideoProcessor(
		app.config.Video.Brightness,
		app.config.Video.Contrast,
		app.config.Video.Saturation,
	)
	return nil
}

// initializeAudio opens the speaker and the WAV recorder as configured.
// Playback failures are logged and the application runs silent.
func (app *Application) initializeAudio() error {
	rate := app.console.SampleRate()

	if app.config.Audio.Enabled && !app.graphicsBackend.IsHeadless() {
		player, err := audio.NewPlayer(rate, app.config.Audio.Volume)
		if err != nil {
			logger.Logf(logger.Allow, "app", "audio disabled: %v", err)
		} else {
			app.player = player
		}
	}

	if app.options.RecordPath != "" {
		recorder, err := audio.NewRecorder(app.options.RecordPath, rate)
		if err != nil {
			return err
		}
		app.recorder = recorder
	}
	return nil
}

// LoadROM loads a ROM file, or an archive holding one, into the emulator
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	// keep the battery RAM of the game being replaced
	app.saveSRAM()

	if err := app.console.InsertGame(romPath); err != nil {
		return &ApplicationError{
			Component: "cartridge",
			Operation: "load ROM",
			Err:       err,
		}
	}
	app.romPath = romPath

	if app.config.Emulation.SaveSRAM {
		if err := LoadSRAM(app.console.Cartridge(), app.sramPath()); err != nil {
			logger.Logf(logger.Allow, "app", "%v", err)
		}
	}
	if app.config.Debug.CPUTracing {
		app.console.Bus().EnableCPUDebug(true)
	}

	app.window.SetTitle(app.title())
	app.emulator.Reset()
	app.emulator.Start()
	return nil
}

func (app *Application) title() string {
	if app.romPath == "" {
		return "kiwi"
	}
	return fmt.Sprintf("kiwi - %s", filepath.Base(app.romPath))
}

func (app *Application) sramPath() string {
	return SRAMPath(app.config.Paths.SaveData, app.romPath)
}

func (app *Application) saveSRAM() {
	if !app.config.Emulation.SaveSRAM || app.romPath == "" {
		return
	}
	if err := SaveSRAM(app.console.Cartridge(), app.sramPath()); err != nil {
		logger.Logf(logger.Allow, "app", "%v", err)
	}
}

// Run starts the main application loop. It returns when the window closes
// or Stop is called.
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running.Store(true)
	app.startTime = time.Now()
	app.lastFPSTime = app.startTime
	logger.Logf(logger.Allow, "app", "running with %s backend", app.graphicsBackend.GetName())

	if runner, ok := app.window.(graphics.Runner); ok {
		err := runner.Run(app.frame)
		app.running.Store(false)
		if errors.Is(err, errQuit) {
			return nil
		}
		return err
	}

	target := app.emulator.GetTargetFrameTime()
	for {
		frameStart := time.Now()
		if err := app.frame(); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
		if sleep := target - time.Since(frameStart); sleep > 0 {
			time.Sleep(sleep)
		}
	}
}

// RunHeadless runs exactly frames host frames as fast as possible
func (app *Application) RunHeadless(frames int) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running.Store(true)
	defer app.running.Store(false)
	app.startTime = time.Now()
	app.lastFPSTime = app.startTime

	for i := 0; i < frames; i++ {
		if err := app.frame(); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
	return nil
}

// frame runs one host frame: input, emulation, audio and rendering
func (app *Application) frame() error {
	if !app.running.Load() || app.window.ShouldClose() {
		return errQuit
	}

	app.processInput()

	if !app.paused.Load() {
		app.emulator.Update()
	}
	if err := app.drainAudio(); err != nil {
		return err
	}
	if err := app.render(); err != nil {
		return err
	}

	app.updateFPS()
	if !app.running.Load() {
		return errQuit
	}
	return nil
}

func (app *Application) drainAudio() error {
	samples := app.console.AudioSamples()
	if len(samples) == 0 {
		return nil
	}
	if app.player != nil {
		app.player.Queue(samples)
	}
	if app.recorder != nil {
		if err := app.recorder.Write(samples); err != nil {
			return &ApplicationError{Component: "audio", Operation: "record", Err: err}
		}
	}
	return nil
}

func (app *Application) render() error {
	frame := app.videoProcessor.ProcessFrame(app.console.ScreenFramebuffer())
	if err := app.window.RenderFrame(frame); err != nil {
		return &ApplicationError{Component: "graphics", Operation: "render", Err: err}
	}
	if app.options.FrameHook != nil {
		if err := app.options.FrameHook(frame, app.console.FrameCount()); err != nil {
			return &ApplicationError{Component: "debug", Operation: "frame hook", Err: err}
		}
	}
	return nil
}

func (app *Application) updateFPS() {
	app.frameCount++
	app.fpsFrames++

	now := time.Now()
	elapsed := now.Sub(app.lastFPSTime)
	if elapsed < time.Second {
		return
	}
	app.currentFPS = float64(app.fpsFrames) / elapsed.Seconds()
	app.fpsFrames = 0
	app.lastFPSTime = now

	if app.config.Debug.ShowFPS {
		app.window.SetTitle(fmt.Sprintf("%s (%.1f FPS)", app.title(), app.currentFPS))
	}
}

// processInput routes window events to the controllers and hotkeys
func (app *Application) processInput() {
	for _, event := range app.window.PollEvents() {
		app.handleEvent(event)
	}
}

func (app *Application) handleEvent(event graphics.InputEvent) {
	switch event.Type {
	case graphics.InputEventTypeQuit:
		app.Stop()
	case graphics.InputEventTypeButton:
		if event.Pressed {
			app.console.VirtualControllerButtonDown(event.Code)
		} else {
			app.console.VirtualControllerButtonUp(event.Code)
		}
	case graphics.InputEventTypeKey:
		if event.Pressed {
			app.handleHotkey(event)
		}
	}
}

// handleHotkey handles F1-F10 save (Shift: load), F11 single step, F12
// screenshot, pause, reset and a double-tapped escape to quit
func (app *Application) handleHotkey(event graphics.InputEvent) {
	if event.Key != graphics.KeyEscape {
		app.lastESCTime = time.Time{}
	}

	switch event.Key {
	case graphics.KeyEscape:
		now := time.Now()
		if !app.lastESCTime.IsZero() && now.Sub(app.lastESCTime) < 3*time.Second {
			logger.Log(logger.Allow, "app", "escape pressed twice, shutting down")
			app.Stop()
			return
		}
		logger.Log(logger.Allow, "app", "press escape again within 3 seconds to quit")
		app.lastESCTime = now

	case graphics.KeyPause:
		app.TogglePause()

	case graphics.KeyReset:
		app.Reset()

	case graphics.KeyF11:
		if app.IsPaused() {
			app.emulator.StepFrame()
		}

	case graphics.KeyF12:
		if path, err := app.Screenshot(); err != nil {
			logger.Logf(logger.Allow, "app", "screenshot failed: %v", err)
		} else {
			logger.Logf(logger.Allow, "app", "screenshot saved to %s", path)
		}

	default:
		if event.Key < graphics.KeyF1 || event.Key > graphics.KeyF10 {
			return
		}
		slot := int(event.Key - graphics.KeyF1)
		if event.Modifiers&graphics.ModifierShift != 0 {
			if err := app.LoadState(slot); err != nil {
				logger.Logf(logger.Allow, "app", "failed to load state %d: %v", slot, err)
			}
		} else if err := app.SaveState(slot); err != nil {
			logger.Logf(logger.Allow, "app", "failed to save state %d: %v", slot, err)
		}
	}
}

// Screenshot writes the current frame as a PNG into the screenshot
// directory and returns its path
func (app *Application) Screenshot() (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, graphics.ScreenWidth, graphics.ScreenHeight))
	graphics.FrameToRGBA(img, app.videoProcessor.ProcessFrame(app.console.ScreenFramebuffer()))

	name := "kiwi"
	if app.romPath != "" {
		base := filepath.Base(app.romPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	dir := app.config.Paths.Screenshots
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%06d.png", name, time.Now().Format("20060102-150405"), app.frameCount))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// Stop stops the application
func (app *Application) Stop() {
	app.running.Store(false)
}

// Pause pauses the emulator
func (app *Application) Pause() {
	app.paused.Store(true)
}

// Resume resumes the emulator
func (app *Application) Resume() {
	app.paused.Store(false)
}

// TogglePause toggles pause state
func (app *Application) TogglePause() {
	app.paused.Store(!app.paused.Load())
}

// SaveState saves the current emulator state
func (app *Application) SaveState(slot int) error {
	return app.states.SaveState(app.console, slot)
}

// LoadState loads a saved emulator state
func (app *Application) LoadState(slot int) error {
	return app.states.LoadState(app.console, slot)
}

// Reset resets the emulator
func (app *Application) Reset() {
	app.console.Reset()
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// IsPaused returns whether the emulator is paused
func (app *Application) IsPaused() bool {
	return app.paused.Load()
}

// GetFPS returns the frames per second measured over the last second
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the number of host frames run
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the application uptime
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// GetConsole returns the emulated console
func (app *Application) GetConsole() *console.Console {
	return app.console
}

// GetEmulator returns the frame driver
func (app *Application) GetEmulator() *Emulator {
	return app.emulator
}

// GetStates returns the save state manager
func (app *Application) GetStates() *StateManager {
	return app.states
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	var errs []error

	app.saveSRAM()

	if app.recorder != nil {
		if err := app.recorder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("recorder: %w", err))
		}
		app.recorder = nil
	}
	if app.player != nil {
		if err := app.player.Close(); err != nil {
			errs = append(errs, fmt.Errorf("audio player: %w", err))
		}
		app.player = nil
	}
	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("window: %w", err))
		}
		app.window = nil
	}
	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("graphics backend: %w", err))
		}
		app.graphicsBackend = nil
	}

	app.initialized = false
	return errors.Join(errs...)
}
