package emu

import (
	"errors"
	"path/filepath"
)

const (
	Name    = "enc1020"
	Version = "0.3.0"
)

// LCD geometry. The display controller packs 8 pixels per byte, MSB first.
const (
	Rows         = 80
	Cols         = 160
	BytesPerRow  = Cols / 8
	PackedSize   = Rows * BytesPerRow // 1600
	ExpandedSize = Rows * Cols        // 12800
)

// Image file names inside the data directory.
const (
	ROMFileName   = "obj_lu.bin"
	NORFileName   = "nc1020.fls"
	StateFileName = "nc1020.sts"
)

// ErrImageMissing is returned by Initialize when a required image cannot be read.
var ErrImageMissing = errors.New("required image missing")

// Paths locates the three persisted images of a session.
type Paths struct {
	ROM   string
	NOR   string
	State string // optional, may not exist yet
}

// DefaultPaths returns the standard image locations inside dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		ROM:   filepath.Join(dir, ROMFileName),
		NOR:   filepath.Join(dir, NORFileName),
		State: filepath.Join(dir, StateFileName),
	}
}

// Core is the synchronous contract the frame pipeline drives.
// Implementations are not required to be safe for concurrent use.
type Core interface {
	// Initialize prepares the core for stepping. A non-nil error is fatal
	// for the session.
	Initialize(paths Paths) error
	// Reset restores the power-on state.
	Reset() error
	// Load restores the most recent persisted state, if any.
	Load() error
	// Save persists the current state.
	Save() error
	SetKey(code Keycode, pressed bool)
	// Step advances emulation by sliceMs milliseconds of emulated time.
	Step(sliceMs int, speedUp bool)
	// CopyDisplayBuffer fills dst (PackedSize bytes) with the current LCD
	// contents. It reports false when no frame is available yet.
	CopyDisplayBuffer(dst []byte) bool
	// Cycles returns the cumulative emulated cycle count.
	Cycles() uint64
}
