package ui

import (
	"fmt"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/user-none/enc1020/emu"
)

// keyNameMap maps short key name strings to ebiten.Key values.
var keyNameMap = map[string]ebiten.Key{
	"A":          ebiten.KeyA,
	"B":          ebiten.KeyB,
	"C":          ebiten.KeyC,
	"D":          ebiten.KeyD,
	"E":          ebiten.KeyE,
	"F":          ebiten.KeyF,
	"G":          ebiten.KeyG,
	"H":          ebiten.KeyH,
	"I":          ebiten.KeyI,
	"J":          ebiten.KeyJ,
	"K":          ebiten.KeyK,
	"L":          ebiten.KeyL,
	"M":          ebiten.KeyM,
	"N":          ebiten.KeyN,
	"O":          ebiten.KeyO,
	"P":          ebiten.KeyP,
	"Q":          ebiten.KeyQ,
	"R":          ebiten.KeyR,
	"S":          ebiten.KeyS,
	"T":          ebiten.KeyT,
	"U":          ebiten.KeyU,
	"V":          ebiten.KeyV,
	"W":          ebiten.KeyW,
	"X":          ebiten.KeyX,
	"Y":          ebiten.KeyY,
	"Z":          ebiten.KeyZ,
	"0":          ebiten.Key0,
	"1":          ebiten.Key1,
	"2":          ebiten.Key2,
	"3":          ebiten.Key3,
	"4":          ebiten.Key4,
	"5":          ebiten.Key5,
	"6":          ebiten.Key6,
	"7":          ebiten.Key7,
	"8":          ebiten.Key8,
	"9":          ebiten.Key9,
	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Semicolon":  ebiten.KeySemicolon,
	"Comma":      ebiten.KeyComma,
	"Period":     ebiten.KeyPeriod,
	"Slash":      ebiten.KeySlash,
	"Escape":     ebiten.KeyEscape,
	"Shift":      ebiten.KeyShift,
	"CapsLock":   ebiten.KeyCapsLock,
	"PageUp":     ebiten.KeyPageUp,
	"PageDown":   ebiten.KeyPageDown,
	"Home":       ebiten.KeyHome,
	"End":        ebiten.KeyEnd,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"`":          ebiten.KeyBackquote,
	"[":          ebiten.KeyLeftBracket,
	"]":          ebiten.KeyRightBracket,
	"-":          ebiten.KeyMinus,
	"=":          ebiten.KeyEqual,
	"'":          ebiten.KeyApostrophe,
	"F1":         ebiten.KeyF1,
	"F2":         ebiten.KeyF2,
	"F3":         ebiten.KeyF3,
	"F4":         ebiten.KeyF4,
	"F5":         ebiten.KeyF5,
	"F6":         ebiten.KeyF6,
	"F7":         ebiten.KeyF7,
	"F8":         ebiten.KeyF8,
	"F9":         ebiten.KeyF9,
	"F10":        ebiten.KeyF10,
	"F11":        ebiten.KeyF11,
}

// reservedKeys drive frontend functions and cannot be bound to the keypad.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyTab:     true, // speed-up toggle
	ebiten.KeyF12:     true, // screenshot
	ebiten.KeyControl: true, // hotkey modifier
	ebiten.KeyAlt:     true,
	ebiten.KeyMeta:    true,
}

// hostLayout places host keys over the device's main keypad (emu.MainKeys).
var hostLayout = [5][10]string{
	{"", "", "", "1", "2", "3", "4", "5", "6", "7"},
	{"Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P"},
	{"A", "S", "D", "F", "G", "H", "J", "K", "L", "Enter"},
	{"Z", "X", "C", "V", "B", "N", "M", "PageUp", "ArrowUp", "PageDown"},
	{"`", "Shift", "CapsLock", "Escape", "0", "Period", "=", "ArrowLeft", "ArrowDown", "ArrowRight"},
}

// functionKeyNames places host keys over emu.FunctionKeys.
var functionKeyNames = [5]string{"F1", "F2", "F3", "F4", "F10"}

// DefaultBindings returns the built-in host key name to keycode map.
func DefaultBindings() map[string]emu.Keycode {
	b := make(map[string]emu.Keycode)
	for r, row := range emu.MainKeys {
		for c, code := range row {
			if code == emu.NoKey || hostLayout[r][c] == "" {
				continue
			}
			b[hostLayout[r][c]] = code
		}
	}
	for i, code := range emu.FunctionKeys {
		b[functionKeyNames[i]] = code
	}
	return b
}

// BuildKeymap resolves the default bindings plus overrides into ebiten
// keys. An override with a negative code removes the binding.
func BuildKeymap(overrides map[string]int) (map[ebiten.Key]emu.Keycode, error) {
	names := DefaultBindings()
	for name, code := range overrides {
		kc := emu.Keycode(code)
		if code < 0 {
			delete(names, name)
			continue
		}
		if !kc.Valid() {
			return nil, fmt.Errorf("key %q: keycode 0x%02X out of range", name, code)
		}
		names[name] = kc
	}

	keymap := make(map[ebiten.Key]emu.Keycode, len(names))
	for name, code := range names {
		k, ok := keyNameMap[name]
		if !ok {
			return nil, fmt.Errorf("unknown key name %q", name)
		}
		if reservedKeys[k] {
			return nil, fmt.Errorf("key %q is reserved", name)
		}
		keymap[k] = code
	}
	return keymap, nil
}

// KeyPoller turns host key transitions into keypad events. Several host
// keys may share a keycode; the keycode stays pressed while any of them is
// held.
type KeyPoller struct {
	keymap map[ebiten.Key]emu.Keycode
	keys   []ebiten.Key // sorted for a stable event order
	held   map[ebiten.Key]bool
	down   map[emu.Keycode]int // held host keys per keycode
}

// NewKeyPoller creates a poller for keymap.
func NewKeyPoller(keymap map[ebiten.Key]emu.Keycode) *KeyPoller {
	keys := make([]ebiten.Key, 0, len(keymap))
	for k := range keymap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return &KeyPoller{
		keymap: keymap,
		keys:   keys,
		held:   make(map[ebiten.Key]bool),
		down:   make(map[emu.Keycode]int),
	}
}

// Poll reports this frame's transitions to set. Presses are dropped when
// acceptPresses is false (a hotkey modifier is down); releases always go
// through so no key sticks.
func (p *KeyPoller) Poll(set func(emu.Keycode, bool), acceptPresses bool) {
	for _, k := range p.keys {
		if acceptPresses && inpututil.IsKeyJustPressed(k) {
			p.press(k, set)
		}
		if inpututil.IsKeyJustReleased(k) {
			p.release(k, set)
		}
	}
}

// ReleaseAll releases every held key, used when the window loses focus.
func (p *KeyPoller) ReleaseAll(set func(emu.Keycode, bool)) {
	for _, k := range p.keys {
		p.release(k, set)
	}
}

// press marks host key k held and reports the keycode's first press.
func (p *KeyPoller) press(k ebiten.Key, set func(emu.Keycode, bool)) {
	if p.held[k] {
		return
	}
	p.held[k] = true
	code := p.keymap[k]
	p.down[code]++
	if p.down[code] == 1 {
		set(code, true)
	}
}

// release lets go of host key k and reports the keycode's release once no
// other host key holds it.
func (p *KeyPoller) release(k ebiten.Key, set func(emu.Keycode, bool)) {
	if !p.held[k] {
		return
	}
	delete(p.held, k)
	code := p.keymap[k]
	p.down[code]--
	if p.down[code] <= 0 {
		delete(p.down, code)
		set(code, false)
	}
}
