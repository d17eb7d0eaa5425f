// Package input implements controller handling for the NES.
package input

import (
	"kiwi/internal/logger"
)

// Button represents NES controller buttons. The bit order is the order the
// controller shifts them out.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonNames = map[Button]string{
	ButtonA:      "A",
	ButtonB:      "B",
	ButtonSelect: "Select",
	ButtonStart:  "Start",
	ButtonUp:     "Up",
	ButtonDown:   "Down",
	ButtonLeft:   "Left",
	ButtonRight:  "Right",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return "Unknown"
}

// ButtonsPerController is the number of buttons on a standard controller
const ButtonsPerController = 8

// ButtonFromCode maps a virtual controller code to a player and button.
// Codes 0-7 are controller 1 (A, B, Select, Start, Up, Down, Left, Right),
// 8-15 controller 2 in the same order. Any other code is not a button.
func ButtonFromCode(code uint8) (player int, button Button, ok bool) {
	if code >= 2*ButtonsPerController {
		return 0, 0, false
	}
	return int(code / ButtonsPerController), Button(1 << (code % ButtonsPerController)), true
}

// Controller represents a NES controller
type Controller struct {
	// Current button states (8 buttons: A, B, Select, Start, Up, Down, Left, Right)
	buttons uint8

	// Shift register for serial reading
	shiftRegister uint8
	strobe        bool

	// Bit position within the read sequence (0-7 for buttons, 8+ after)
	bitPosition uint8

	debugEnabled bool
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}

	// a held strobe reloads continuously
	if c.strobe {
		c.shiftRegister = c.buttons
	}

	if c.debugEnabled {
		logger.Logf(logger.Allow, "input", "button %v pressed=%t state=%#02x", button, pressed, c.buttons)
	}
}

// SetButtons sets all button states at once, in A, B, Select, Start, Up,
// Down, Left, Right order
func (c *Controller) SetButtons(buttons [ButtonsPerController]bool) {
	var state uint8
	for i, pressed := range buttons {
		if pressed {
			state |= 1 << i
		}
	}
	c.buttons = state
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// Buttons returns the raw button bits
func (c *Controller) Buttons() uint8 {
	return c.buttons
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles writes to the controller register ($4016)
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.shiftRegister = c.buttons
		c.bitPosition = 0
	}
}

// Read returns the next button bit. While the strobe is held it always
// returns A. After all eight buttons the official controller returns 1.
func (c *Controller) Read() uint8 {
	if c.strobe {
		c.bitPosition = 0
		return c.buttons & 1
	}

	if c.bitPosition >= ButtonsPerController {
		return 1
	}

	result := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.bitPosition++
	return result
}

// Reset clears the strobe and shift state. Held buttons stay pressed: the
// console's reset line does not reach the pads.
func (c *Controller) Reset() {
	c.shiftRegister = 0
	c.strobe = false
	c.bitPosition = 0
}

// EnableDebug enables debug logging for this controller
func (c *Controller) EnableDebug(enable bool) {
	c.debugEnabled = enable
}

// GetBitPosition returns the current bit position
func (c *Controller) GetBitPosition() uint8 {
	return c.bitPosition
}

// InputState represents the state of all input devices
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates a new input state with two controllers
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Controller returns the controller for player 0 or 1
func (is *InputState) Controller(player int) *Controller {
	if player == 1 {
		return is.Controller2
	}
	return is.Controller1
}

// Reset resets the serial state of both controllers, keeping held buttons
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// EnableDebug enables debug logging for all controllers
func (is *InputState) EnableDebug(enable bool) {
	is.Controller1.EnableDebug(enable)
	is.Controller2.EnableDebug(enable)
}

// Press applies a virtual controller code. Unknown codes are ignored.
func (is *InputState) Press(code uint8, pressed bool) {
	player, button, ok := ButtonFromCode(code)
	if !ok {
		return
	}
	is.Controller(player).SetButton(button, pressed)
}

// Read reads from controller ports. The upper bits come from open bus,
// which on a stock console reads back as $40.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read() | 0x40
	case 0x4017:
		return is.Controller2.Read() | 0x40
	}
	return 0
}

// Write writes to controller ports. Both controllers share the strobe line.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
