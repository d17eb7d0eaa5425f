package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kiwi/internal/bus"
	"kiwi/internal/cartridge"
	"kiwi/internal/logger"
)

// StateVersion is written into every save file
const StateVersion = "1.0"

// ErrInvalidSlot is returned for slot numbers outside the configured range
var ErrInvalidSlot = errors.New("invalid save slot")

// ErrNoState is returned when loading from an empty slot
var ErrNoState = errors.New("no save state")

// Machine is what the state manager saves and restores
type Machine interface {
	Snapshot() (*bus.State, error)
	Restore(*bus.State) error
	Cartridge() *cartridge.Cartridge
	ROMPath() string
}

// StateManager manages save states. Slots are keyed by the CRC32 of the
// running ROM so renamed or re-archived games find their states.
type StateManager struct {
	saveDirectory string
	maxSlots      int
}

// SaveState represents a saved emulator state
type SaveState struct {
	Version     string     `json:"version"`
	Timestamp   time.Time  `json:"timestamp"`
	ROMPath     string     `json:"rom_path"`
	ROMChecksum string     `json:"rom_checksum"`
	SlotNumber  int        `json:"slot_number"`
	Description string     `json:"description"`
	State       *bus.State `json:"state"`
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber  int       `json:"slot_number"`
	Used        bool      `json:"used"`
	Timestamp   time.Time `json:"timestamp"`
	ROMPath     string    `json:"rom_path"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
}

// NewStateManager creates a new state manager
func NewStateManager(saveDirectory string, maxSlots int) *StateManager {
	if maxSlots <= 0 {
		maxSlots = 10
	}
	return &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      maxSlots,
	}
}

func (sm *StateManager) checkSlot(slot int) error {
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidSlot, slot, sm.maxSlots-1)
	}
	return nil
}

// SaveState saves the current emulator state to a slot
func (sm *StateManager) SaveState(m Machine, slot int) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}

	filePath, err := sm.SlotPath(m, slot)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := sm.writeState(m, filePath, slot, fmt.Sprintf("Slot %d %s", slot, now.Format("2006-01-02 15:04:05"))); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	logger.Logf(logger.Allow, "states", "saved slot %d to %s", slot, filePath)
	return nil
}

// LoadState loads a saved state from a slot
func (sm *StateManager) LoadState(m Machine, slot int) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}

	filePath, err := sm.SlotPath(m, slot)
	if err != nil {
		return err
	}

	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w in slot %d", ErrNoState, slot)
	}

	if err := sm.readState(m, filePath); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	logger.Logf(logger.Allow, "states", "loaded slot %d from %s", slot, filePath)
	return nil
}

// ExportState writes the current state to an arbitrary file
func (sm *StateManager) ExportState(m Machine, filePath string) error {
	return sm.writeState(m, filePath, -1, fmt.Sprintf("Export %s", time.Now().Format("2006-01-02 15:04:05")))
}

// ImportState restores a state written by ExportState or SaveState
func (sm *StateManager) ImportState(m Machine, filePath string) error {
	if err := sm.readState(m, filePath); err != nil {
		return fmt.Errorf("failed to import state: %w", err)
	}
	return nil
}

func (sm *StateManager) writeState(m Machine, filePath string, slot int, description string) error {
	state, err := m.Snapshot()
	if err != nil {
		return err
	}

	saveState := &SaveState{
		Version:     StateVersion,
		Timestamp:   time.Now(),
		ROMPath:     m.ROMPath(),
		ROMChecksum: fmt.Sprintf("%08X", state.CRC32),
		SlotNumber:  slot,
		Description: description,
		State:       state,
	}
	return saveToFile(saveState, filePath)
}

func (sm *StateManager) readState(m Machine, filePath string) error {
	saveState, err := loadFromFile(filePath)
	if err != nil {
		return err
	}
	if err := validateSaveState(saveState); err != nil {
		return fmt.Errorf("invalid save state: %w", err)
	}
	return m.Restore(saveState.State)
}

// saveToFile saves a state to a file
func saveToFile(state *SaveState, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// loadFromFile loads a state from a file
func loadFromFile(filePath string) (*SaveState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var state SaveState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// validateSaveState validates a loaded save state. ROM identity is checked
// by Restore against the CRC32 in the snapshot.
func validateSaveState(state *SaveState) error {
	if state.Version == "" {
		return errors.New("missing version information")
	}
	if state.Version != StateVersion {
		return fmt.Errorf("unsupported version %q", state.Version)
	}
	if state.State == nil {
		return errors.New("missing machine state")
	}
	return nil
}

// SlotPath returns the file used for a slot of the running game
func (sm *StateManager) SlotPath(m Machine, slot int) (string, error) {
	cart := m.Cartridge()
	if cart == nil {
		return "", bus.ErrNoCartridge
	}
	return sm.slotFilePath(cart.CRC32(), slot), nil
}

func (sm *StateManager) slotFilePath(crc uint32, slot int) string {
	return filepath.Join(sm.saveDirectory, fmt.Sprintf("%08X_slot%d.json", crc, slot))
}

// GetSlotInfo returns information about all save slots of the running game
func (sm *StateManager) GetSlotInfo(m Machine) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)
	cart := m.Cartridge()

	for i := range slots {
		slots[i].SlotNumber = i
		if cart == nil {
			continue
		}

		filePath := sm.slotFilePath(cart.CRC32(), i)
		stat, err := os.Stat(filePath)
		if err != nil {
			continue
		}
		slots[i].Used = true
		slots[i].FilePath = filePath
		slots[i].FileSize = stat.Size()
		slots[i].Timestamp = stat.ModTime()

		if state, err := loadFromFile(filePath); err == nil {
			slots[i].ROMPath = state.ROMPath
			slots[i].Description = state.Description
			slots[i].Timestamp = state.Timestamp
		}
	}
	return slots
}

// DeleteState deletes a save state from a slot
func (sm *StateManager) DeleteState(m Machine, slot int) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}

	filePath, err := sm.SlotPath(m, slot)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w in slot %d", ErrNoState, slot)
		}
		return fmt.Errorf("failed to delete save state: %w", err)
	}
	return nil
}

// HasSaveState checks if a save state exists in a slot
func (sm *StateManager) HasSaveState(m Machine, slot int) bool {
	if sm.checkSlot(slot) != nil {
		return false
	}
	filePath, err := sm.SlotPath(m, slot)
	if err != nil {
		return false
	}
	_, err = os.Stat(filePath)
	return err == nil
}

// GetMaxSlots returns the maximum number of save slots
func (sm *StateManager) GetMaxSlots() int {
	return sm.maxSlots
}

// GetSaveDirectory returns the save directory path
func (sm *StateManager) GetSaveDirectory() string {
	return sm.saveDirectory
}

// SRAMPath returns the battery save file for a ROM: the ROM's base name
// with a .sav extension inside dir
func SRAMPath(dir, romPath string) string {
	base := filepath.Base(romPath)
	return filepath.Join(dir, base[:len(base)-len(filepath.Ext(base))]+".sav")
}

// LoadSRAM fills the cartridge's battery RAM from path. A missing file is
// not an error.
func LoadSRAM(cart *cartridge.Cartridge, path string) error {
	if cart == nil || !cart.HasBattery() {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read battery save: %w", err)
	}
	cart.SetSRAM(data)
	logger.Logf(logger.Allow, "sram", "loaded %d bytes from %s", len(data), path)
	return nil
}

// SaveSRAM writes the cartridge's battery RAM to path
func SaveSRAM(cart *cartridge.Cartridge, path string) error {
	if cart == nil || !cart.HasBattery() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, cart.SRAM(), 0644); err != nil {
		return fmt.Errorf("failed to write battery save: %w", err)
	}
	logger.Logf(logger.Allow, "sram", "saved %s", path)
	return nil
}
