// Package kiwi is the public face of the kiwi NES emulator. A Kiwi forwards
// every call to an emulator core; the default core is the console in
// internal/console.
package kiwi

import (
	"sync"

	"kiwi/internal/console"
)

// Core is an emulator able to run NES games
type Core interface {
	// InsertGame loads the ROM image at path and powers the machine on
	InsertGame(path string) error
	// Step advances emulation by one step
	Step()
	// ScreenFramebuffer returns the current screen, 256x240 0x00RRGGBB
	// pixels, row by row
	ScreenFramebuffer() []uint32
	VirtualControllerButtonDown(button uint8)
	VirtualControllerButtonUp(button uint8)
}

// Kiwi wraps a Core
type Kiwi struct {
	core Core
}

// New returns a Kiwi driving core
func New(core Core) *Kiwi {
	return &Kiwi{core: core}
}

var (
	sharedOnce sync.Once
	shared     *Kiwi
)

// Shared returns the process-wide emulator, creating it on first use
func Shared() *Kiwi {
	sharedOnce.Do(func() {
		shared = New(console.New())
	})
	return shared
}

// Insert loads a game from rom
func (k *Kiwi) Insert(rom string) error {
	return k.core.InsertGame(rom)
}

// Step advances emulation
func (k *Kiwi) Step() {
	k.core.Step()
}

// ScreenFramebuffer returns the core's screen buffer. The buffer is owned
// by the core and is rewritten on every Step.
func (k *Kiwi) ScreenFramebuffer() []uint32 {
	return k.core.ScreenFramebuffer()
}

// VirtualControllerButtonDown presses button
func (k *Kiwi) VirtualControllerButtonDown(button uint8) {
	k.core.VirtualControllerButtonDown(button)
}

// VirtualControllerButtonUp releases button
func (k *Kiwi) VirtualControllerButtonUp(button uint8) {
	k.core.VirtualControllerButtonUp(button)
}
