package ui

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user-none/enc1020/ui/storage"
	"golang.design/x/clipboard"
)

// ErrClipboardUnavailable is returned when the system clipboard could not
// be initialized.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// ScreenshotManager saves LCD snapshots as PNG files and copies them to
// the clipboard.
type ScreenshotManager struct {
	dir func() (string, error)
	now func() time.Time
}

// NewScreenshotManager creates a manager that writes to the storage
// screenshot directory.
func NewScreenshotManager() *ScreenshotManager {
	return &ScreenshotManager{
		dir: storage.GetScreenshotDir,
		now: time.Now,
	}
}

// TakeScreenshot writes img as <unix time>.png and returns the path.
func (m *ScreenshotManager) TakeScreenshot(img image.Image) (string, error) {
	dir, err := m.dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	// Two shots in the same second get a numeric suffix.
	base := fmt.Sprintf("%d", m.now().Unix())
	path := filepath.Join(dir, base+".png")
	for i := 1; ; i++ {
		if _, err := os.Stat(path); err != nil {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d.png", base, i))
	}

	if err := storage.AtomicWriteFile(path, data); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}

// CopyToClipboard places img on the system clipboard as PNG.
func (m *ScreenshotManager) CopyToClipboard(img image.Image) error {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, clipboardErr)
	}

	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
