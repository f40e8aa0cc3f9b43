package emu

// Keycode identifies a key in the NC1020 keypad matrix. The low three bits
// select the matrix row, the next three the column.
type Keycode int

// NoKey marks an unused cell of the keypad layout.
const NoKey Keycode = -1

// Named keys outside the character matrix.
const (
	KeyF1    Keycode = 0x10
	KeyF2    Keycode = 0x11
	KeyF3    Keycode = 0x12
	KeyF4    Keycode = 0x13
	KeyPower Keycode = 0x0F
)

// FunctionKeys is the function key strip, left to right.
var FunctionKeys = [5]Keycode{KeyF1, KeyF2, KeyF3, KeyF4, KeyPower}

// MainKeys is the 5x10 main keypad as laid out on the device, top row first.
var MainKeys = [5][10]Keycode{
	{NoKey, NoKey, NoKey, 0x0B, 0x0C, 0x0D, 0x0A, 0x09, 0x08, 0x0E},
	{0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x18, 0x1C},
	{0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F, 0x19, 0x1D},
	{0x30, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x1A, 0x1E},
	{0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E, 0x3F, 0x1B, 0x1F},
}

// Valid reports whether k addresses a key in the matrix.
func (k Keycode) Valid() bool {
	return k >= 0 && k <= 0x3F
}

// matrixBits returns the keypad matrix row and the column bits set when k
// is held. The power key drives every column of its row except bit 0.
func (k Keycode) matrixBits() (row int, bits uint8) {
	row = int(k % 8)
	bits = 1 << uint(k/8)
	if k == KeyPower {
		bits = 0xFE
	}
	return row, bits
}

// wakeUpFlags maps the keys that wake a sleeping machine to the value
// the ROM expects at the wake-up flag location.
var wakeUpFlags = map[Keycode]uint8{
	0x08: 0x00,
	0x09: 0x0A,
	0x0A: 0x08,
	0x0B: 0x06,
	0x0C: 0x04,
	0x0D: 0x02,
	0x0F: 0x00,
}
