// Package app provides configuration management for the NES emulator.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kiwi/internal/console"
	"kiwi/internal/input"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // NES resolution multiplier, used when width or height is 0
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	VSync      bool    `json:"vsync"`
	Filter     string  `json:"filter"`  // "nearest", "linear"
	Backend    string  `json:"backend"` // "ebitengine", "headless"
	Brightness float32 `json:"brightness"`
	Contrast   float32 `json:"contrast"`
	Saturation float32 `json:"saturation"`
}

// AudioConfig contains audio configuration
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sample_rate"`
	Volume     float32 `json:"volume"`
}

// InputConfig contains input configuration
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping names the keyboard key for each NES controller button. Names
// follow ebiten's spelling ("ArrowUp", "Enter", "ShiftRight", "J").
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// keys returns the key names in controller shift order
func (k KeyMapping) keys() [input.ButtonsPerController]string {
	return [input.ButtonsPerController]string{k.A, k.B, k.Select, k.Start, k.Up, k.Down, k.Left, k.Right}
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	FrameRate      float64 `json:"frame_rate"`       // Target frame rate for non-vsync backends
	StepMode       string  `json:"step_mode"`        // "frame" or "instruction"
	SaveStateSlots int     `json:"save_state_slots"` // Number of save state slots
	SaveSRAM       bool    `json:"save_sram"`        // Persist battery RAM on exit
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	ShowFPS       bool `json:"show_fps"`
	EnableLogging bool `json:"enable_logging"`
	CPUTracing    bool `json:"cpu_tracing"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	ROMs        string `json:"roms"`
	SaveData    string `json:"save_data"`
	SaveStates  string `json:"save_states"`
	Screenshots string `json:"screenshots"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  512,
			Height: 480,
			Scale:  2,
		},
		Video: VideoConfig{
			VSync:      true,
			Filter:     "nearest",
			Backend:    "ebitengine",
			Brightness: 1.0,
			Contrast:   1.0,
			Saturation: 1.0,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Volume:     0.8,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up:     "W",
				Down:   "S",
				Left:   "A",
				Right:  "D",
				A:      "J",
				B:      "K",
				Start:  "Enter",
				Select: "Space",
			},
			Player2Keys: KeyMapping{
				Up:     "ArrowUp",
				Down:   "ArrowDown",
				Left:   "ArrowLeft",
				Right:  "ArrowRight",
				A:      "N",
				B:      "M",
				Start:  "ShiftRight",
				Select: "ControlRight",
			},
		},
		Emulation: EmulationConfig{
			FrameRate:      60.0988,
			StepMode:       "frame",
			SaveStateSlots: 10,
			SaveSRAM:       true,
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			SaveData:    "./saves",
			SaveStates:  "./states",
			Screenshots: "./screenshots",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.createDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// validate rejects values that cannot be repaired and clamps the rest to
// their defaults
func (c *Config) validate() error {
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return &ConfigError{Field: "window", Value: fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height), Err: errors.New("negative window size")}
	}
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	switch c.Video.Backend {
	case "ebitengine", "headless":
	case "":
		c.Video.Backend = "ebitengine"
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: errors.New("unknown backend")}
	}
	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}
	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}
	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}

	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.Volume < 0.0 || c.Audio.Volume > 1.0 {
		c.Audio.Volume = 0.8
	}

	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = 60.0988
	}
	if c.Emulation.SaveStateSlots <= 0 {
		c.Emulation.SaveStateSlots = 10
	}
	if _, err := c.StepMode(); err != nil {
		return &ConfigError{Field: "emulation.step_mode", Value: c.Emulation.StepMode, Err: err}
	}

	if _, err := c.KeyBindings(); err != nil {
		return &ConfigError{Field: "input", Value: "", Err: err}
	}

	return nil
}

// createDirectories creates required directories
func (c *Config) createDirectories() error {
	dirs := []string{
		c.Paths.ROMs,
		c.Paths.SaveData,
		c.Paths.SaveStates,
		c.Paths.Screenshots,
	}

	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

// StepMode returns the console step mode named by Emulation.StepMode
func (c *Config) StepMode() (console.StepMode, error) {
	switch strings.ToLower(c.Emulation.StepMode) {
	case "", "frame":
		return console.StepFrame, nil
	case "instruction":
		return console.StepInstruction, nil
	}
	return 0, fmt.Errorf("unknown step mode %q", c.Emulation.StepMode)
}

// KeyBindings maps every configured key name to its virtual controller
// code. Player 1 uses codes 0-7, player 2 codes 8-15. Empty names are
// unbound; a key bound twice is an error.
func (c *Config) KeyBindings() (map[string]uint8, error) {
	bindings := make(map[string]uint8)
	for player, mapping := range []KeyMapping{c.Input.Player1Keys, c.Input.Player2Keys} {
		for i, name := range mapping.keys() {
			if name == "" {
				continue
			}
			code := uint8(player*input.ButtonsPerController + i)
			if prev, ok := bindings[name]; ok {
				return nil, fmt.Errorf("key %q bound to codes %d and %d", name, prev, code)
			}
			bindings[name] = code
		}
	}
	return bindings, nil
}

// GetWindowResolution returns the window size, derived from the scale when
// the configured size is 0
func (c *Config) GetWindowResolution() (int, int) {
	if c.Window.Width > 0 && c.Window.Height > 0 {
		return c.Window.Width, c.Window.Height
	}
	return 256 * c.Window.Scale, 240 * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}

	clone.configPath = c.configPath
	clone.loaded = c.loaded
	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/kiwi.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
