package storage

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// KeymapFile is the layout of a key binding file:
//
//	[bindings]
//	"Q" = 0x20
//	"F10" = 0x0F
type KeymapFile struct {
	Bindings map[string]int `toml:"bindings"`
}

// LoadKeymap reads host key name to NC1020 keycode overrides from a TOML file.
func LoadKeymap(path string) (map[string]int, error) {
	var f KeymapFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to parse keymap %s: %w", path, err)
	}
	return f.Bindings, nil
}
