// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

import "strings"

// keyFrom returns the Key value that represents a
// DOM-style key name.
// Single-rune names are matched case-insensitively,
// so that "w" and "W" (shift held) map to KeyW.
func keyFrom(name string) Key {
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return KeyA + Key(c-'a')
		case c >= 'A' && c <= 'Z':
			return KeyA + Key(c-'A')
		case c == ' ':
			return KeySpace
		}
		return KeyUnknown
	}
	if k, ok := keymap[name]; ok {
		return k
	}
	// KeyboardEvent.code spelling ("KeyW").
	if len(name) == 4 && strings.HasPrefix(name, "Key") {
		return keyFrom(name[3:])
	}
	return KeyUnknown
}

var keymap = map[string]Key{
	"Enter":      KeyReturn,
	"Return":     KeyReturn,
	"Space":      KeySpace,
	"Escape":     KeyEsc,
	"Esc":        KeyEsc,
	"ArrowUp":    KeyUp,
	"Up":         KeyUp,
	"ArrowDown":  KeyDown,
	"Down":       KeyDown,
	"ArrowLeft":  KeyLeft,
	"Left":       KeyLeft,
	"ArrowRight": KeyRight,
	"Right":      KeyRight,
}
