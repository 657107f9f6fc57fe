package emu

import "sync"

// Device key codes. Printable keys use their ASCII uppercase value; the
// arrows use the 0x25-0x28 block.
const (
	KeyBackspace = 0x08
	KeyTab       = 0x09
	KeyEnter     = 0x0A
	KeyShift     = 0x10
	KeyCtrl      = 0x11
	KeyEscape    = 0x1B
	KeySpace     = 0x20
	KeyLeft      = 0x25
	KeyUp        = 0x26
	KeyRight     = 0x27
	KeyDown      = 0x28
)

// Classic keys register bits.
const (
	ClassicKeyUp    = 0x01
	ClassicKeyDown  = 0x02
	ClassicKeyLeft  = 0x04
	ClassicKeyRight = 0x08
	ClassicKeyB     = 0x10
	ClassicKeyZ     = 0x20
	ClassicKeyX     = 0x40
	ClassicKeyC     = 0x80
)

// Mouse button bits for the held/pressed/released registers.
const (
	MouseLeft   = 0x01
	MouseRight  = 0x02
	MouseMiddle = 0x04
)

// KeySet is a 256-bit set indexed by device key code.
type KeySet [4]uint64

// Set adds code to the set.
func (s *KeySet) Set(code uint8) {
	s[code>>6] |= 1 << (code & 63)
}

// Has reports whether code is in the set.
func (s *KeySet) Has(code uint8) bool {
	return s[code>>6]&(1<<(code&63)) != 0
}

// Input mirrors host keyboard and mouse state into device registers. The
// UI goroutine replaces the state once per frame while the writer polls
// it through the MMIO window, so the mirror carries its own lock.
type Input struct {
	mu       sync.Mutex
	held     KeySet
	pressed  KeySet
	released KeySet

	mouseX, mouseY int32
	mouseHeld      uint32
	mousePressed   uint32
	mouseReleased  uint32

	// Latched key selections for the select-then-read register pairs
	selHeld     uint8
	selPressed  uint8
	selReleased uint8
}

// NewInput creates a mirror with the pointer parked off-display.
func NewInput() *Input {
	return &Input{mouseX: -1, mouseY: -1}
}

// UpdateKeys replaces the key sets. pressed and released are this frame's
// edges, not accumulated history.
func (inp *Input) UpdateKeys(held, pressed, released KeySet) {
	inp.mu.Lock()
	inp.held = held
	inp.pressed = pressed
	inp.released = released
	inp.mu.Unlock()
}

// UpdateMouse replaces the pointer state. x and y are display pixels, -1
// when the pointer is outside the display.
func (inp *Input) UpdateMouse(x, y int32, held, pressed, released uint32) {
	inp.mu.Lock()
	inp.mouseX = x
	inp.mouseY = y
	inp.mouseHeld = held
	inp.mousePressed = pressed
	inp.mouseReleased = released
	inp.mu.Unlock()
}

// WriteRegister latches a key code for one of the select-then-read
// pairs. Unknown offsets and non-word writes are ignored.
func (inp *Input) WriteRegister(offs uint32, size int, value uint32) {
	if size != 4 {
		return
	}
	inp.mu.Lock()
	switch offs {
	case RegKeyHeld:
		inp.selHeld = uint8(value)
	case RegKeyPressed:
		inp.selPressed = uint8(value)
	case RegKeyReleased:
		inp.selReleased = uint8(value)
	}
	inp.mu.Unlock()
}

// ReadRegister reads an input register by offset. The key registers
// answer for the most recently latched code.
func (inp *Input) ReadRegister(offs uint32, size int) uint32 {
	if size != 4 {
		return 0
	}
	inp.mu.Lock()
	defer inp.mu.Unlock()
	switch offs {
	case RegKeyHeld:
		return boolToUint32(inp.held.Has(inp.selHeld))
	case RegKeyPressed:
		return boolToUint32(inp.pressed.Has(inp.selPressed))
	case RegKeyReleased:
		return boolToUint32(inp.released.Has(inp.selReleased))
	case RegMouseX:
		return uint32(inp.mouseX)
	case RegMouseY:
		return uint32(inp.mouseY)
	case RegMouseHeld:
		return inp.mouseHeld
	case RegMousePressed:
		return inp.mousePressed
	case RegMouseReleased:
		return inp.mouseReleased
	}
	return 0
}

// classicKeys builds the classic keys byte from the held set.
func (inp *Input) classicKeys() uint8 {
	inp.mu.Lock()
	defer inp.mu.Unlock()

	var keys uint8
	if inp.held.Has(KeyUp) {
		keys |= ClassicKeyUp
	}
	if inp.held.Has(KeyDown) {
		keys |= ClassicKeyDown
	}
	if inp.held.Has(KeyLeft) {
		keys |= ClassicKeyLeft
	}
	if inp.held.Has(KeyRight) {
		keys |= ClassicKeyRight
	}
	if inp.held.Has('B') {
		keys |= ClassicKeyB
	}
	if inp.held.Has('Z') {
		keys |= ClassicKeyZ
	}
	if inp.held.Has('X') {
		keys |= ClassicKeyX
	}
	if inp.held.Has('C') {
		keys |= ClassicKeyC
	}
	return keys
}

// latchedSelections returns the three latch registers for serialization.
func (inp *Input) latchedSelections() [3]uint8 {
	inp.mu.Lock()
	defer inp.mu.Unlock()
	return [3]uint8{inp.selHeld, inp.selPressed, inp.selReleased}
}

// restoreSelections reloads the latch registers from a saved state.
func (inp *Input) restoreSelections(sel [3]uint8) {
	inp.mu.Lock()
	inp.selHeld = sel[0]
	inp.selPressed = sel[1]
	inp.selReleased = sel[2]
	inp.mu.Unlock()
}
