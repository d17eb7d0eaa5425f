package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kiwi/internal/console"
)

func TestNewConfig_DefaultsAreValid(t *testing.T) {
	c := NewConfig()
	if err := c.validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if c.Video.Backend != "ebitengine" {
		t.Errorf("Expected ebitengine backend, got %s", c.Video.Backend)
	}
	if w, h := c.GetWindowResolution(); w != 512 || h != 480 {
		t.Errorf("Expected 512x480, got %dx%d", w, h)
	}
}

func TestConfig_KeyBindings(t *testing.T) {
	bindings, err := NewConfig().KeyBindings()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := map[string]uint8{
		"J":            0,
		"K":            1,
		"Space":        2,
		"Enter":        3,
		"W":            4,
		"S":            5,
		"A":            6,
		"D":            7,
		"N":            8,
		"ArrowRight":   15,
		"ControlRight": 10,
	}
	for name, code := range want {
		if got, ok := bindings[name]; !ok || got != code {
			t.Errorf("Key %s: expected code %d, got %d (bound %v)", name, code, got, ok)
		}
	}
	if len(bindings) != 16 {
		t.Errorf("Expected 16 bindings, got %d", len(bindings))
	}
}

func TestConfig_KeyBindings_DuplicateAndUnbound(t *testing.T) {
	c := NewConfig()
	c.Input.Player2Keys.A = "J"
	if _, err := c.KeyBindings(); err == nil {
		t.Error("Expected error for a key bound twice")
	}

	c = NewConfig()
	c.Input.Player2Keys = KeyMapping{}
	bindings, err := c.KeyBindings()
	if err != nil {
		t.Fatal(err)
	}
	if len(bindings) != 8 {
		t.Errorf("Expected only player 1 bindings, got %d", len(bindings))
	}
}

func TestConfig_LoadFromFile_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "kiwi.json")

	c := NewConfig()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected config file to be written: %v", err)
	}
	if c.GetConfigPath() != path {
		t.Errorf("Expected config path %s, got %s", path, c.GetConfigPath())
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kiwi.json")

	c := NewConfig()
	c.Paths = PathsConfig{
		ROMs:        filepath.Join(dir, "roms"),
		SaveData:    filepath.Join(dir, "saves"),
		SaveStates:  filepath.Join(dir, "states"),
		Screenshots: filepath.Join(dir, "shots"),
	}
	c.Audio.Volume = 0.25
	c.Emulation.StepMode = "instruction"
	c.Input.Player1Keys.A = "Z"
	if err := c.SaveToFile(path); err != nil {
		t.Fatal(err)
	}

	loaded := NewConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if !loaded.IsLoaded() {
		t.Error("Expected loaded flag")
	}
	if loaded.Audio.Volume != 0.25 || loaded.Input.Player1Keys.A != "Z" {
		t.Errorf("Values not restored: %+v", loaded)
	}
	if mode, _ := loaded.StepMode(); mode != console.StepInstruction {
		t.Errorf("Expected instruction step mode, got %v", mode)
	}
	for _, d := range []string{"roms", "saves", "states", "shots"} {
		if _, err := os.Stat(filepath.Join(dir, d)); err != nil {
			t.Errorf("Expected directory %s: %v", d, err)
		}
	}
}

func TestConfig_LoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if err := NewConfig().LoadFromFile(bad); err == nil {
		t.Error("Expected parse error")
	}

	c := NewConfig()
	c.Video.Backend = "terminal"
	data, _ := json.Marshal(c)
	backend := filepath.Join(dir, "backend.json")
	os.WriteFile(backend, data, 0644)

	err := NewConfig().LoadFromFile(backend)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "video.backend" {
		t.Errorf("Expected ConfigError for video.backend, got %v", err)
	}
}

func TestConfig_ValidateClampsValues(t *testing.T) {
	c := NewConfig()
	c.Audio.Volume = 4
	c.Audio.SampleRate = 0
	c.Video.Brightness = 10
	c.Emulation.SaveStateSlots = 0
	c.Window.Scale = 0

	if err := c.validate(); err != nil {
		t.Fatal(err)
	}
	if c.Audio.Volume != 0.8 || c.Audio.SampleRate != 44100 || c.Video.Brightness != 1 {
		t.Errorf("Values not clamped: %+v %+v", c.Audio, c.Video)
	}
	if c.Emulation.SaveStateSlots != 10 || c.Window.Scale != 1 {
		t.Errorf("Values not clamped: %+v %+v", c.Emulation, c.Window)
	}

	c.Emulation.StepMode = "scanline"
	if err := c.validate(); err == nil {
		t.Error("Expected error for unknown step mode")
	}
}

func TestConfig_WindowResolutionFromScale(t *testing.T) {
	c := NewConfig()
	c.Window.Width, c.Window.Height, c.Window.Scale = 0, 0, 3
	if w, h := c.GetWindowResolution(); w != 768 || h != 720 {
		t.Errorf("Expected 768x720, got %dx%d", w, h)
	}
}

func TestConfig_Clone(t *testing.T) {
	c := NewConfig()
	clone := c.Clone()
	clone.Input.Player1Keys.A = "X"
	clone.Audio.Volume = 0.1

	if c.Input.Player1Keys.A != "J" || c.Audio.Volume != 0.8 {
		t.Error("Clone must not share state with the original")
	}
}
