package storage

import (
	"errors"
	"fmt"
	"image/color"
	"os"
)

// Frame rate bounds accepted from config.json.
const (
	minFrameRate = 10
	maxFrameRate = 240
)

// LoadConfig loads the configuration from config.json.
// If the file doesn't exist, it returns default configuration.
// If the file is corrupted, it returns an error.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	config := &Config{}
	if err := ReadJSON(path, config); err != nil {
		return nil, err
	}

	return migrateConfig(config), nil
}

// SaveConfig saves the configuration to config.json atomically
func SaveConfig(config *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	return AtomicWriteJSON(path, config)
}

// SaveWindowSize records the window size in config.json and leaves every
// other setting as it is on disk. Session overrides held in memory are not
// written.
func SaveWindowSize(width, height int) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}
	config.Window.Width = width
	config.Window.Height = height
	return SaveConfig(config)
}

// CreateConfigIfMissing creates a default config.json if it doesn't exist
func CreateConfigIfMissing() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return SaveConfig(DefaultConfig())
	}

	return nil
}

// migrateConfig fills zero or out-of-range fields with defaults
func migrateConfig(config *Config) *Config {
	if config.Version == 0 {
		config.Version = 1
	}

	if config.Emulation.FrameRate < minFrameRate || config.Emulation.FrameRate > maxFrameRate {
		config.Emulation.FrameRate = DefaultFrameRate
	}
	if config.Video.Scale <= 0 {
		config.Video.Scale = DefaultScale
	}
	if _, err := ParseColor(config.Video.Foreground); err != nil {
		config.Video.Foreground = DefaultForeground
	}
	if _, err := ParseColor(config.Video.Background); err != nil {
		config.Video.Background = DefaultBackground
	}
	if config.Window.Width == 0 {
		config.Window.Width = 160 * config.Video.Scale
	}
	if config.Window.Height == 0 {
		config.Window.Height = 80 * config.Video.Scale
	}

	return config
}

// ParseColor parses a "#RRGGBB" string into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	var c color.RGBA
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c.A = 0xFF
	return c, nil
}
