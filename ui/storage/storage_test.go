package storage

import (
	"archive/zip"
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/user-none/enc1020/emu"
)

// useTempBaseDir points storage at a fresh directory for the test
func useTempBaseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetBaseDir(dir)
	t.Cleanup(func() { SetBaseDir("") })
	return dir
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version != 1 {
		t.Errorf("expected version 1, got %d", config.Version)
	}
	if config.Emulation.FrameRate != 60 {
		t.Errorf("expected frame rate 60, got %d", config.Emulation.FrameRate)
	}
	if !config.Emulation.SaveOnExit {
		t.Error("expected save on exit by default")
	}
	if config.Window.Width != 640 || config.Window.Height != 320 {
		t.Errorf("expected window 640x320, got %dx%d", config.Window.Width, config.Window.Height)
	}
}

func TestAtomicWriteJSON(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "sub", "test.json")

	data := struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}{
		Name:  "test",
		Value: 42,
	}

	if err := AtomicWriteJSON(path, data); err != nil {
		t.Fatalf("AtomicWriteJSON failed: %v", err)
	}

	var result struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}
	if err := ReadJSON(path, &result); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if result.Name != data.Name || result.Value != data.Value {
		t.Errorf("data mismatch: expected %+v, got %+v", data, result)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file was not cleaned up")
	}
}

func TestLoadConfig_MissingReturnsDefaults(t *testing.T) {
	useTempBaseDir(t)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Emulation.FrameRate != DefaultFrameRate {
		t.Errorf("expected default frame rate, got %d", config.Emulation.FrameRate)
	}
}

func TestSaveLoadConfig(t *testing.T) {
	dir := useTempBaseDir(t)

	config := DefaultConfig()
	config.Emulation.FrameRate = 50
	config.Emulation.SpeedUp = true
	config.Video.Foreground = "#102030"
	config.Keymap = "keys.toml"
	if err := SaveConfig(config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("config.json not written: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *loaded != *config {
		t.Errorf("config mismatch: expected %+v, got %+v", config, loaded)
	}
}

func TestSaveWindowSize(t *testing.T) {
	useTempBaseDir(t)

	onDisk := DefaultConfig()
	onDisk.Emulation.FrameRate = 50
	if err := SaveConfig(onDisk); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	if err := SaveWindowSize(800, 400); err != nil {
		t.Fatalf("SaveWindowSize failed: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Window.Width != 800 || loaded.Window.Height != 400 {
		t.Errorf("expected 800x400 window, got %dx%d", loaded.Window.Width, loaded.Window.Height)
	}
	if loaded.Emulation.FrameRate != 50 {
		t.Errorf("expected frame rate kept at 50, got %d", loaded.Emulation.FrameRate)
	}
}

func TestSaveWindowSize_CorruptedConfigUntouched(t *testing.T) {
	dir := useTempBaseDir(t)
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := SaveWindowSize(800, 400); err == nil {
		t.Error("expected error for corrupted config")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Error("corrupted config was overwritten")
	}
}

func TestLoadConfig_Corrupted(t *testing.T) {
	dir := useTempBaseDir(t)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for corrupted config")
	}
}

func TestCreateConfigIfMissing(t *testing.T) {
	dir := useTempBaseDir(t)

	if err := CreateConfigIfMissing(); err != nil {
		t.Fatalf("CreateConfigIfMissing failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("config.json not created: %v", err)
	}
}

func TestMigrateConfig(t *testing.T) {
	testCases := []struct {
		name      string
		in        Config
		frameRate int
		scale     int
		fg        string
	}{
		{"zero", Config{}, 60, DefaultScale, DefaultForeground},
		{"pal", Config{Emulation: EmulationConfig{FrameRate: 50}}, 50, DefaultScale, DefaultForeground},
		{"too fast", Config{Emulation: EmulationConfig{FrameRate: 1000}}, 60, DefaultScale, DefaultForeground},
		{"negative scale", Config{Video: VideoConfig{Scale: -2}}, 60, DefaultScale, DefaultForeground},
		{"custom", Config{Video: VideoConfig{Scale: 2, Foreground: "#FFFFFF"}}, 60, 2, "#FFFFFF"},
		{"bad color", Config{Video: VideoConfig{Foreground: "red"}}, 60, DefaultScale, DefaultForeground},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			c := migrateConfig(&in)
			if c.Version != 1 {
				t.Errorf("expected version 1, got %d", c.Version)
			}
			if c.Emulation.FrameRate != tc.frameRate {
				t.Errorf("frame rate: expected %d, got %d", tc.frameRate, c.Emulation.FrameRate)
			}
			if c.Video.Scale != tc.scale {
				t.Errorf("scale: expected %d, got %d", tc.scale, c.Video.Scale)
			}
			if c.Video.Foreground != tc.fg {
				t.Errorf("foreground: expected %s, got %s", tc.fg, c.Video.Foreground)
			}
			if c.Window.Width != 160*c.Video.Scale || c.Window.Height != 80*c.Video.Scale {
				t.Errorf("unexpected window %dx%d", c.Window.Width, c.Window.Height)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	testCases := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#000000", color.RGBA{0, 0, 0, 255}, true},
		{"#9BBC0F", color.RGBA{0x9B, 0xBC, 0x0F, 255}, true},
		{"#ff8000", color.RGBA{0xFF, 0x80, 0x00, 255}, true},
		{"000000", color.RGBA{}, false},
		{"#12345", color.RGBA{}, false},
		{"#GGGGGG", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}

	for _, tc := range testCases {
		got, err := ParseColor(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseColor(%q): unexpected error state %v", tc.in, err)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("ParseColor(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestLoadKeymap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.toml")
	content := "[bindings]\n\"Q\" = 0x20\n\"F10\" = 15\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	bindings, err := LoadKeymap(path)
	if err != nil {
		t.Fatalf("LoadKeymap failed: %v", err)
	}
	if bindings["Q"] != 0x20 || bindings["F10"] != 0x0F {
		t.Errorf("unexpected bindings: %v", bindings)
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(bad, []byte("[bindings\n"), 0644)
	if _, err := LoadKeymap(bad); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestInstallImages_FromDirectory(t *testing.T) {
	source := t.TempDir()
	rom := []byte{1, 2, 3}
	nor := []byte{4, 5}
	os.WriteFile(filepath.Join(source, emu.ROMFileName), rom, 0644)
	os.WriteFile(filepath.Join(source, emu.NORFileName), nor, 0644)

	dir := t.TempDir()
	installed, err := InstallImages(dir, source)
	if err != nil {
		t.Fatalf("InstallImages failed: %v", err)
	}
	if len(installed) != 2 {
		t.Fatalf("expected 2 installed images, got %v", installed)
	}

	got, _ := os.ReadFile(filepath.Join(dir, emu.NORFileName))
	if !bytes.Equal(got, nor) {
		t.Errorf("NOR mismatch: %v", got)
	}

	// Existing images are left alone.
	os.WriteFile(filepath.Join(dir, emu.NORFileName), []byte{9}, 0644)
	installed, err = InstallImages(dir, source)
	if err != nil || len(installed) != 0 {
		t.Fatalf("expected nothing installed, got %v %v", installed, err)
	}
	got, _ = os.ReadFile(filepath.Join(dir, emu.NORFileName))
	if !bytes.Equal(got, []byte{9}) {
		t.Error("existing NOR was overwritten")
	}
}

func TestInstallImages_FromArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "nc1020.zip")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, data := range map[string][]byte{
		"fw/" + emu.ROMFileName: {0xAA},
		"fw/" + emu.NORFileName: {0xBB},
	} {
		fw, _ := w.Create(name)
		fw.Write(data)
	}
	w.Close()
	f.Close()

	dir := t.TempDir()
	installed, err := InstallImages(dir, archive)
	if err != nil {
		t.Fatalf("InstallImages failed: %v", err)
	}
	if len(installed) != 2 {
		t.Fatalf("expected 2 installed images, got %v", installed)
	}
	got, _ := os.ReadFile(filepath.Join(dir, emu.ROMFileName))
	if !bytes.Equal(got, []byte{0xAA}) {
		t.Errorf("ROM mismatch: %v", got)
	}
}

func TestInstallImages_NoSource(t *testing.T) {
	dir := t.TempDir()
	installed, err := InstallImages(dir, "")
	if err != nil || len(installed) != 0 {
		t.Fatalf("expected no-op, got %v %v", installed, err)
	}

	if _, err := InstallImages(dir, filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing source")
	}
}
