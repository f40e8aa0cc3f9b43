package ui

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/user-none/enc1020/emu"
)

// writeSourceImages creates a minimal ROM and NOR pair in a new directory.
func writeSourceImages(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	rom := make([]byte, 0x8000)
	rom[0x7FFC] = 0x00
	rom[0x7FFD] = 0x40
	nor := bytes.Repeat([]byte{0x5A}, 0x8000)
	if err := os.WriteFile(filepath.Join(dir, emu.ROMFileName), rom, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, emu.NORFileName), nor, 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestOpenMachine_InstallsImages(t *testing.T) {
	source := writeSourceImages(t)
	dataDir := t.TempDir()

	m, err := OpenMachine(dataDir, source)
	if err != nil {
		t.Fatalf("OpenMachine failed: %v", err)
	}
	if m == nil {
		t.Fatal("expected a machine")
	}
	for _, name := range []string{emu.ROMFileName, emu.NORFileName} {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err != nil {
			t.Errorf("expected %s installed: %v", name, err)
		}
	}
}

func TestOpenMachine_MissingImages(t *testing.T) {
	_, err := OpenMachine(t.TempDir(), "")
	if !errors.Is(err, emu.ErrImageMissing) {
		t.Errorf("expected ErrImageMissing, got %v", err)
	}
}

func TestFactoryReset(t *testing.T) {
	source := writeSourceImages(t)
	dataDir := t.TempDir()

	m, err := OpenMachine(dataDir, source)
	if err != nil {
		t.Fatalf("OpenMachine failed: %v", err)
	}
	d := NewDriver(m, NewSharedFramebuffer(), DriverConfig{})
	if err := d.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	paths := emu.DefaultPaths(dataDir)
	if _, err := os.Stat(paths.State); err != nil {
		t.Fatalf("expected state file after save: %v", err)
	}

	if err := FactoryReset(d, dataDir, source); err != nil {
		t.Fatalf("FactoryReset failed: %v", err)
	}

	if _, err := os.Stat(paths.State); !os.IsNotExist(err) {
		t.Errorf("expected state file removed, got %v", err)
	}
	got, err := os.ReadFile(paths.NOR)
	if err != nil {
		t.Fatalf("failed to read NOR: %v", err)
	}
	want, _ := os.ReadFile(filepath.Join(source, emu.NORFileName))
	if !bytes.Equal(got, want) {
		t.Error("expected NOR restored from the pristine image")
	}
}

func TestFactoryReset_Errors(t *testing.T) {
	d := NewDriver(&fakeCore{}, NewSharedFramebuffer(), DriverConfig{})

	if err := FactoryReset(d, t.TempDir(), ""); !errors.Is(err, ErrNoImageSource) {
		t.Errorf("expected ErrNoImageSource, got %v", err)
	}
	if err := FactoryReset(d, t.TempDir(), writeSourceImages(t)); err == nil {
		t.Error("expected error for a core without flash images")
	}
}
