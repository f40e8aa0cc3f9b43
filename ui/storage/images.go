package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/user-none/enc1020/emu"
	"github.com/user-none/enc1020/romloader"
)

// firmwareImages are the files a data directory needs before a session can start.
var firmwareImages = []string{emu.ROMFileName, emu.NORFileName}

// InstallImages copies any firmware image missing from dir out of source,
// which is either a directory holding the images or an archive containing
// them. It returns the names it installed. An empty source installs nothing.
func InstallImages(dir, source string) ([]string, error) {
	var installed []string
	for _, name := range firmwareImages {
		dst := filepath.Join(dir, name)
		if _, err := os.Stat(dst); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return installed, err
		}
		if source == "" {
			continue
		}

		data, err := readImageFrom(source, name)
		if err != nil {
			return installed, fmt.Errorf("failed to install %s: %w", name, err)
		}
		if err := AtomicWriteFile(dst, data); err != nil {
			return installed, fmt.Errorf("failed to install %s: %w", name, err)
		}
		installed = append(installed, name)
	}
	return installed, nil
}

func readImageFrom(source, name string) ([]byte, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	path := source
	if info.IsDir() {
		path = filepath.Join(source, name)
	}
	data, _, err := romloader.Load(path, []string{name})
	return data, err
}
