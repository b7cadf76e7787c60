// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package wsi defines the input vocabulary shared by the
// hosts that drive an XR session (browser DOM, desktop
// window).
// Hosts translate their native events into the Key and
// Button values defined here and deliver them to a
// KeyboardHandler and a PointerHandler.
package wsi

import (
	"errors"
	"strings"
)

// Key is the type of keyboard keys.
type Key int

// Keyboard keys.
// Only keys that a host can meaningfully deliver to
// the viewer controls are enumerated.
const (
	KeyUnknown Key = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	KeyReturn
	KeySpace
	KeyEsc
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// String returns the key's name as accepted by ParseKey.
func (k Key) String() string {
	switch {
	case k >= KeyA && k <= KeyZ:
		return string(rune('A' + int(k-KeyA)))
	case k >= KeyReturn && k <= KeyRight:
		return namedKeys[k-KeyReturn]
	}
	return "Unknown"
}

var namedKeys = [...]string{"Enter", "Space", "Escape", "ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight"}

// ErrUnknownKey means that a key name could not be parsed.
var ErrUnknownKey = errors.New("wsi: unknown key")

// ParseKey converts a key name into a Key.
// Single letters are case-insensitive; named keys use
// the DOM KeyboardEvent.key spelling ("ArrowUp",
// "Enter", "Escape", " " or "Space").
func ParseKey(name string) (Key, error) {
	if k := keyFrom(name); k != KeyUnknown {
		return k, nil
	}
	return KeyUnknown, ErrUnknownKey
}

// Button is the type of pointer buttons.
type Button int

// Pointer buttons.
const (
	BtnUnknown Button = iota
	BtnLeft
	BtnRight
	BtnMiddle
	BtnBack
	BtnForward
)

// String returns the button's name as accepted by
// ParseButton.
func (b Button) String() string {
	switch b {
	case BtnLeft:
		return "left"
	case BtnRight:
		return "right"
	case BtnMiddle:
		return "middle"
	case BtnBack:
		return "back"
	case BtnForward:
		return "forward"
	}
	return "unknown"
}

// ErrUnknownButton means that a button name could not
// be parsed.
var ErrUnknownButton = errors.New("wsi: unknown button")

// ParseButton converts a button name into a Button.
func ParseButton(name string) (Button, error) {
	for b := BtnLeft; b <= BtnForward; b++ {
		if strings.EqualFold(name, b.String()) {
			return b, nil
		}
	}
	return BtnUnknown, ErrUnknownButton
}

// ButtonMask is a set of pointer buttons held down.
// Bit values follow the DOM MouseEvent.buttons layout,
// so browser hosts can convert with a plain cast.
type ButtonMask int

// Mask returns the bit that represents b in a ButtonMask.
func (b Button) Mask() ButtonMask {
	switch b {
	case BtnLeft:
		return 1
	case BtnRight:
		return 2
	case BtnMiddle:
		return 4
	case BtnBack:
		return 8
	case BtnForward:
		return 16
	}
	return 0
}

// Has reports whether b is held in m.
func (m ButtonMask) Has(b Button) bool {
	bit := b.Mask()
	return bit != 0 && m&bit == bit
}

// Modifier is the type of modifier flags.
type Modifier int

// Modifier flags.
const (
	ModCapsLock Modifier = 1 << iota
	ModShift
	ModCtrl
	ModAlt
)

// KeyboardHandler is the interface that defines the methods
// for handling keyboard events.
type KeyboardHandler interface {
	// KeyboardKey is called when a key is pressed/released.
	KeyboardKey(key Key, pressed bool, modMask Modifier)
}

// PointerHandler is the interface that defines the methods
// for handling pointer events.
type PointerHandler interface {
	// PointerMotion is called when the pointer moves.
	// dx and dy are the relative motion since the last
	// event and held contains the buttons that are down.
	PointerMotion(dx, dy float32, held ButtonMask)

	// PointerButton is called when a button is pressed/released.
	PointerButton(btn Button, pressed bool)
}
