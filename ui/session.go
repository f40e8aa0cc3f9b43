package ui

import (
	"errors"
	"fmt"
	"log"

	"github.com/user-none/enc1020/emu"
	"github.com/user-none/enc1020/ui/storage"
)

// ErrNoImageSource is returned by FactoryReset when there is nowhere to
// restore the pristine flash image from.
var ErrNoImageSource = errors.New("no image source configured")

// flashEraser is implemented by cores that persist flash and state images.
type flashEraser interface {
	DeleteStateAndNOR() error
}

// OpenMachine installs missing firmware images into dataDir from source,
// initializes a machine on them and restores the last saved state. A
// failed state restore is logged and the machine starts from power-on.
func OpenMachine(dataDir, source string) (*emu.Machine, error) {
	installed, err := storage.InstallImages(dataDir, source)
	if err != nil {
		return nil, err
	}
	for _, name := range installed {
		log.Printf("Installed %s from %s", name, source)
	}

	m := emu.NewMachine(nil)
	if err := m.Initialize(emu.DefaultPaths(dataDir)); err != nil {
		return nil, fmt.Errorf("failed to initialize machine: %w", err)
	}
	if err := m.Load(); err != nil {
		log.Printf("Failed to restore state: %v", err)
	}
	return m, nil
}

// FactoryReset erases the flash and state images in dataDir, copies the
// pristine flash back from source and resets the core. The loop is held
// off for the whole operation.
func FactoryReset(d *Driver, dataDir, source string) error {
	if source == "" {
		return ErrNoImageSource
	}
	return d.Exec(func(core emu.Core) error {
		eraser, ok := core.(flashEraser)
		if !ok {
			return errors.New("core does not support factory reset")
		}
		if err := eraser.DeleteStateAndNOR(); err != nil {
			return fmt.Errorf("failed to erase images: %w", err)
		}
		if _, err := storage.InstallImages(dataDir, source); err != nil {
			return err
		}
		if err := core.Initialize(emu.DefaultPaths(dataDir)); err != nil {
			return err
		}
		return core.Reset()
	})
}
