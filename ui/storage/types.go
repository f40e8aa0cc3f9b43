package storage

// Config represents the application configuration stored in config.json
type Config struct {
	Version   int             `json:"version"`
	Emulation EmulationConfig `json:"emulation"`
	Video     VideoConfig     `json:"video"`
	Window    WindowConfig    `json:"window"`
	Keymap    string          `json:"keymap,omitempty"` // path to a TOML key binding file
}

// EmulationConfig contains emulation pacing and persistence settings
type EmulationConfig struct {
	FrameRate   int    `json:"frameRate"`             // frames per second, 60 or 50
	SpeedUp     bool   `json:"speedUp"`               // start with pacing disabled
	SaveOnExit  bool   `json:"saveOnExit"`            // persist NOR and state when the session ends
	ImageSource string `json:"imageSource,omitempty"` // directory or archive holding obj_lu.bin and nc1020.fls
}

// VideoConfig contains display settings
type VideoConfig struct {
	Scale      int    `json:"scale"`      // host pixels per LCD pixel
	Foreground string `json:"foreground"` // "#RRGGBB"
	Background string `json:"background"` // "#RRGGBB"
	ShowPerf   bool   `json:"showPerf"`
}

// WindowConfig contains window size
type WindowConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Defaults
const (
	DefaultFrameRate  = 60
	DefaultScale      = 4
	DefaultForeground = "#000000"
	DefaultBackground = "#9BBC0F"
)

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Emulation: EmulationConfig{
			FrameRate:  DefaultFrameRate,
			SaveOnExit: true,
		},
		Video: VideoConfig{
			Scale:      DefaultScale,
			Foreground: DefaultForeground,
			Background: DefaultBackground,
		},
		Window: WindowConfig{
			Width:  160 * DefaultScale,
			Height: 80 * DefaultScale,
		},
	}
}
