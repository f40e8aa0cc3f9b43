package ui

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestScreenshotManager(t *testing.T) (*ScreenshotManager, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "screenshots")
	return &ScreenshotManager{
		dir: func() (string, error) { return dir, nil },
		now: func() time.Time { return time.Unix(1700000000, 0) },
	}, dir
}

func TestTakeScreenshot(t *testing.T) {
	m, dir := newTestScreenshotManager(t)
	img := image.NewNRGBA(image.Rect(0, 0, 160, 80))

	path, err := m.TakeScreenshot(img)
	if err != nil {
		t.Fatalf("TakeScreenshot failed: %v", err)
	}
	if path != filepath.Join(dir, "1700000000.png") {
		t.Errorf("unexpected path %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open screenshot: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("screenshot is not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 160 || decoded.Bounds().Dy() != 80 {
		t.Errorf("unexpected bounds %v", decoded.Bounds())
	}
}

func TestTakeScreenshot_SameSecond(t *testing.T) {
	m, dir := newTestScreenshotManager(t)
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))

	first, err := m.TakeScreenshot(img)
	if err != nil {
		t.Fatalf("first screenshot failed: %v", err)
	}
	second, err := m.TakeScreenshot(img)
	if err != nil {
		t.Fatalf("second screenshot failed: %v", err)
	}
	if first == second {
		t.Error("expected distinct paths")
	}
	if second != filepath.Join(dir, "1700000000-1.png") {
		t.Errorf("unexpected path %s", second)
	}
}
