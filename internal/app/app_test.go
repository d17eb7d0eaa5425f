package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kiwi/internal/cartridge"
	"kiwi/internal/graphics"
	"kiwi/internal/input"
)

// testConfig writes a headless config whose directories live under a
// temporary directory
func testConfig(t *testing.T, mutate func(*Config)) string {
	t.Helper()
	dir := t.TempDir()

	c := NewConfig()
	c.Video.Backend = "headless"
	c.Audio.Enabled = false
	c.Paths = PathsConfig{
		ROMs:        filepath.Join(dir, "roms"),
		SaveData:    filepath.Join(dir, "saves"),
		SaveStates:  filepath.Join(dir, "states"),
		Screenshots: filepath.Join(dir, "screenshots"),
	}
	if mutate != nil {
		mutate(c)
	}

	path := filepath.Join(dir, "kiwi.json")
	if err := c.SaveToFile(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestApp(t *testing.T, opts Options, mutate func(*Config)) *Application {
	t.Helper()
	opts.Headless = true
	app, err := NewApplicationWithOptions(testConfig(t, mutate), opts)
	if err != nil {
		t.Fatalf("NewApplicationWithOptions failed: %v", err)
	}
	t.Cleanup(func() { app.Cleanup() })
	return app
}

func TestApplication_RunHeadlessWithoutROM(t *testing.T) {
	app := newTestApp(t, Options{}, nil)

	if err := app.RunHeadless(5); err != nil {
		t.Fatalf("RunHeadless failed: %v", err)
	}
	if app.GetFrameCount() != 5 {
		t.Errorf("Expected 5 host frames, got %d", app.GetFrameCount())
	}
	if app.GetConsole().FrameCount() != 0 {
		t.Error("Console must not run without a game")
	}
	if app.IsRunning() {
		t.Error("Expected application stopped after RunHeadless")
	}
}

func TestApplication_LoadROMAndSnapshot(t *testing.T) {
	snapDir := t.TempDir()
	app := newTestApp(t, Options{SnapshotFrames: []int{2}, SnapshotDir: snapDir}, nil)

	rom := writeROM(t, t.TempDir(), "counter.nes", cartridge.ProgramROM(counterProgram))
	if err := app.LoadROM(rom); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if app.GetROMPath() != rom {
		t.Errorf("Expected ROM path %s, got %s", rom, app.GetROMPath())
	}

	if err := app.RunHeadless(3); err != nil {
		t.Fatalf("RunHeadless failed: %v", err)
	}
	if app.GetConsole().FrameCount() == 0 {
		t.Error("Expected the console to run")
	}
	if app.GetEmulator().GetStepCount() != 3 {
		t.Errorf("Expected 3 steps, got %d", app.GetEmulator().GetStepCount())
	}
	if _, err := os.Stat(filepath.Join(snapDir, "frame_00002.png")); err != nil {
		t.Errorf("Expected snapshot of frame 2: %v", err)
	}
}

func TestApplication_LoadROMErrors(t *testing.T) {
	app := newTestApp(t, Options{}, nil)

	err := app.LoadROM(filepath.Join(t.TempDir(), "missing.nes"))
	var appErr *ApplicationError
	if !errors.As(err, &appErr) || appErr.Component != "cartridge" {
		t.Fatalf("Expected cartridge ApplicationError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist in chain, got %v", err)
	}

	bad := writeROM(t, t.TempDir(), "bad.nes", []byte("not a rom at all"))
	if err := app.LoadROM(bad); !errors.Is(err, cartridge.ErrInvalidHeader) {
		t.Errorf("Expected ErrInvalidHeader, got %v", err)
	}
}

func TestApplication_ButtonEvents(t *testing.T) {
	app := newTestApp(t, Options{}, nil)
	rom := writeROM(t, t.TempDir(), "counter.nes", cartridge.ProgramROM(counterProgram))
	if err := app.LoadROM(rom); err != nil {
		t.Fatal(err)
	}

	app.handleEvent(graphics.InputEvent{Type: graphics.InputEventTypeButton, Code: 0, Pressed: true})
	app.handleEvent(graphics.InputEvent{Type: graphics.InputEventTypeButton, Code: 12, Pressed: true})

	in := app.GetConsole().Bus().Input
	if !in.Controller(0).IsPressed(input.ButtonA) {
		t.Error("Expected player 1 A pressed")
	}
	if !in.Controller(1).IsPressed(input.ButtonUp) {
		t.Error("Expected player 2 Up pressed")
	}

	app.handleEvent(graphics.InputEvent{Type: graphics.InputEventTypeButton, Code: 0, Pressed: false})
	if in.Controller(0).IsPressed(input.ButtonA) {
		t.Error("Expected player 1 A released")
	}
}

func TestApplication_Hotkeys(t *testing.T) {
	app := newTestApp(t, Options{}, nil)
	rom := writeROM(t, t.TempDir(), "counter.nes", cartridge.ProgramROM(counterProgram))
	if err := app.LoadROM(rom); err != nil {
		t.Fatal(err)
	}
	if err := app.RunHeadless(2); err != nil {
		t.Fatal(err)
	}

	key := func(k graphics.Key, mods graphics.ModifierKey) {
		app.handleEvent(graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: k, Pressed: true, Modifiers: mods})
	}

	key(graphics.KeyF3, graphics.ModifierNone)
	if !app.GetStates().HasSaveState(app.GetConsole(), 2) {
		t.Fatal("Expected F3 to save slot 2")
	}
	frames := app.GetConsole().FrameCount()

	key(graphics.KeyPause, graphics.ModifierNone)
	if !app.IsPaused() {
		t.Fatal("Expected pause")
	}
	app.RunHeadless(2)
	if app.GetConsole().FrameCount() != frames {
		t.Error("Console must not run while paused")
	}

	key(graphics.KeyF11, graphics.ModifierNone)
	if app.GetConsole().FrameCount() != frames+1 {
		t.Error("Expected F11 to step one frame while paused")
	}

	key(graphics.KeyF3, graphics.ModifierShift)
	if app.GetConsole().FrameCount() != frames {
		t.Errorf("Expected Shift+F3 to restore frame %d, got %d", frames, app.GetConsole().FrameCount())
	}

	key(graphics.KeyPause, graphics.ModifierNone)
	if app.IsPaused() {
		t.Error("Expected resume")
	}

	app.running.Store(true)
	key(graphics.KeyEscape, graphics.ModifierNone)
	if !app.IsRunning() {
		t.Error("A single escape must not quit")
	}
	key(graphics.KeyEscape, graphics.ModifierNone)
	if app.IsRunning() {
		t.Error("Expected double escape to stop the application")
	}
}

func TestApplication_QuitEvent(t *testing.T) {
	app := newTestApp(t, Options{}, nil)
	app.running.Store(true)
	app.handleEvent(graphics.InputEvent{Type: graphics.InputEventTypeQuit})
	if app.IsRunning() {
		t.Error("Expected quit event to stop the application")
	}
}

func TestApplication_RunReturnsAfterStop(t *testing.T) {
	app := newTestApp(t, Options{}, nil)

	done := make(chan error, 1)
	go func() { done <- app.Run() }()

	time.Sleep(50 * time.Millisecond)
	app.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run should return cleanly once stopped, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestApplication_SRAMPersistsAcrossRuns(t *testing.T) {
	romDir := t.TempDir()
	rom := writeROM(t, romDir, "battery.nes", batteryROM())
	config := testConfig(t, nil)

	first, err := NewApplicationWithOptions(config, Options{Headless: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := first.LoadROM(rom); err != nil {
		t.Fatal(err)
	}
	if err := first.RunHeadless(1); err != nil {
		t.Fatal(err)
	}
	if err := first.Cleanup(); err != nil {
		t.Fatal(err)
	}

	second, err := NewApplicationWithOptions(config, Options{Headless: true})
	if err != nil {
		t.Fatal(err)
	}
	defer second.Cleanup()
	if err := second.LoadROM(rom); err != nil {
		t.Fatal(err)
	}
	if sram := second.GetConsole().Cartridge().SRAM(); sram[0] != 0x42 {
		t.Errorf("Expected battery RAM restored, got %#x", sram[0])
	}
}

func TestApplication_RecordsAudio(t *testing.T) {
	wav := filepath.Join(t.TempDir(), "out.wav")
	app := newTestApp(t, Options{RecordPath: wav}, nil)
	rom := writeROM(t, t.TempDir(), "counter.nes", cartridge.ProgramROM(counterProgram))
	if err := app.LoadROM(rom); err != nil {
		t.Fatal(err)
	}
	if err := app.RunHeadless(3); err != nil {
		t.Fatal(err)
	}
	if err := app.Cleanup(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(wav)
	if err != nil {
		t.Fatalf("Expected WAV file: %v", err)
	}
	if info.Size() <= 44 {
		t.Errorf("Expected samples after the WAV header, got %d bytes", info.Size())
	}
}

func TestApplication_Screenshot(t *testing.T) {
	app := newTestApp(t, Options{}, nil)
	rom := writeROM(t, t.TempDir(), "counter.nes", cartridge.ProgramROM(counterProgram))
	if err := app.LoadROM(rom); err != nil {
		t.Fatal(err)
	}

	path, err := app.Screenshot()
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if filepath.Dir(path) != app.GetConfig().Paths.Screenshots {
		t.Errorf("Expected screenshot in %s, got %s", app.GetConfig().Paths.Screenshots, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error(err)
	}
}

func TestApplication_BadConfig(t *testing.T) {
	path := testConfig(t, func(c *Config) {
		c.Input.Player1Keys.B = c.Input.Player1Keys.A
	})
	if _, err := NewApplicationWithOptions(path, Options{Headless: true}); err == nil {
		t.Error("Expected error for duplicate key bindings")
	}
}

func TestApplication_FrameHook(t *testing.T) {
	var frames []uint64
	hook := func(fb []uint32, frame uint64) error {
		if len(fb) != graphics.ScreenWidth*graphics.ScreenHeight {
			t.Errorf("Unexpected frame size %d", len(fb))
		}
		frames = append(frames, frame)
		return nil
	}
	app := newTestApp(t, Options{FrameHook: hook}, nil)
	rom := writeROM(t, t.TempDir(), "counter.nes", cartridge.ProgramROM(counterProgram))
	if err := app.LoadROM(rom); err != nil {
		t.Fatal(err)
	}
	if err := app.RunHeadless(3); err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 || frames[2] <= frames[0] {
		t.Errorf("Expected three increasing frame numbers, got %v", frames)
	}

	failing := newTestApp(t, Options{FrameHook: func([]uint32, uint64) error { return errors.New("boom") }}, nil)
	var appErr *ApplicationError
	if err := failing.RunHeadless(1); !errors.As(err, &appErr) || appErr.Component != "debug" {
		t.Errorf("Expected debug ApplicationError, got %v", err)
	}
}
