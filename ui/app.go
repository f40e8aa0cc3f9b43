package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sqweek/dialog"
	"github.com/user-none/enc1020/emu"
	"github.com/user-none/enc1020/ui/storage"
)

// App is the main application struct that implements ebiten.Game
type App struct {
	config      *storage.Config
	dataDir     string
	imageSource string

	driver       *Driver
	presenter    *Presenter
	keys         *KeyPoller
	notification *Notification
	perf         *PerfOverlay
	screenshots  *ScreenshotManager

	showPerf    bool
	focusPaused bool
	confirming  atomic.Bool

	// Logical screen size; Ebiten scales it to the window.
	width, height int
	// Window tracking for persistence
	windowWidth  int
	windowHeight int
}

// NewApp creates the application around a machine that is already
// initialized. imageSource is where factory reset restores flash from.
func NewApp(config *storage.Config, core emu.Core, dataDir, imageSource string) (*App, error) {
	fg, err := storage.ParseColor(config.Video.Foreground)
	if err != nil {
		return nil, err
	}
	bg, err := storage.ParseColor(config.Video.Background)
	if err != nil {
		return nil, err
	}

	var overrides map[string]int
	if config.Keymap != "" {
		overrides, err = storage.LoadKeymap(config.Keymap)
		if err != nil {
			return nil, err
		}
	}
	keymap, err := BuildKeymap(overrides)
	if err != nil {
		return nil, fmt.Errorf("invalid key bindings: %w", err)
	}

	fb := NewSharedFramebuffer()
	width := emu.Cols * config.Video.Scale
	height := emu.Rows * config.Video.Scale

	return &App{
		config:      config,
		dataDir:     dataDir,
		imageSource: imageSource,
		driver: NewDriver(core, fb, DriverConfig{
			FrameRate:  config.Emulation.FrameRate,
			SpeedUp:    config.Emulation.SpeedUp,
			SaveOnExit: config.Emulation.SaveOnExit,
		}),
		presenter:    NewPresenter(fb, width, fg, bg),
		keys:         NewKeyPoller(keymap),
		notification: NewNotification(),
		perf:         NewPerfOverlay(),
		screenshots:  NewScreenshotManager(),
		showPerf:     config.Video.ShowPerf,
		width:        width,
		height:       height,
	}, nil
}

// Run opens the window and blocks until it is closed. The driver is
// stopped and has finished its exit save before Run returns.
func (a *App) Run(ctx context.Context) error {
	ebiten.SetWindowSize(a.config.Window.Width, a.config.Window.Height)
	ebiten.SetWindowTitle(fmt.Sprintf("%s %s", emu.Name, emu.Version))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(emu.Cols, emu.Rows, -1, -1)
	ebiten.SetWindowClosingHandled(true)

	a.driver.Start(ctx)
	err := ebiten.RunGame(a)
	a.shutdown()
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// shutdown stops the driver and persists the window size.
func (a *App) shutdown() {
	a.driver.Stop()
	a.driver.Wait()
	a.saveWindowState()
}

// saveWindowState saves the current window size to config.json. The
// in-memory config carries command-line overrides, so only the window
// fields are written.
func (a *App) saveWindowState() {
	if a.windowWidth == 0 || a.windowHeight == 0 {
		return
	}
	if err := storage.SaveWindowSize(a.windowWidth, a.windowHeight); err != nil {
		log.Printf("Failed to save config: %v", err)
	}
}

// Update implements ebiten.Game
func (a *App) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	select {
	case <-a.driver.Done():
		return ebiten.Termination
	default:
	}

	a.windowWidth, a.windowHeight = ebiten.WindowSize()

	if !a.setFocused(ebiten.IsFocused()) {
		return nil
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	if ctrl {
		a.handleHotkeys()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		if a.driver.ToggleSpeedUp() {
			a.notification.ShowShort("Speed-up on")
		} else {
			a.notification.ShowShort("Speed-up off")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		a.takeScreenshot()
	}

	a.keys.Poll(a.driver.SetKey, !ctrl)

	if a.showPerf {
		a.perf.Update(time.Now(), a.driver.Frames(), a.driver.Cycles())
	}
	return nil
}

// setFocused tracks window focus and reports whether input should be
// handled this frame. Losing focus pauses emulation, lets go of every held
// key and drops any message on screen.
func (a *App) setFocused(focused bool) bool {
	if !focused {
		if !a.focusPaused {
			a.keys.ReleaseAll(a.driver.SetKey)
			a.driver.Pause()
			a.notification.Clear()
			a.focusPaused = true
		}
		return false
	}
	if a.focusPaused {
		a.driver.Resume()
		a.focusPaused = false
	}
	return true
}

// handleHotkeys runs the Ctrl (or Cmd) shortcuts.
func (a *App) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete) && ebiten.IsKeyPressed(ebiten.KeyShift):
		a.confirmFactoryReset()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		a.runControl("Reset", a.driver.Reset)
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		a.runControl("Load", a.driver.Load)
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		a.runControl("Save", a.driver.Save)
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		if err := a.screenshots.CopyToClipboard(a.presenter.Snapshot()); err != nil {
			log.Printf("Clipboard copy failed: %v", err)
			a.notification.ShowDefault("Clipboard copy failed")
			return
		}
		a.notification.ShowShort("Copied to clipboard")
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		a.showPerf = !a.showPerf
	}
}

// runControl performs a control operation and reports its outcome.
func (a *App) runControl(name string, op func() error) {
	if err := op(); err != nil {
		log.Printf("%s failed: %v", name, err)
		a.notification.ShowDefault(name + " failed")
		return
	}
	a.notification.ShowShort(name + " done")
}

func (a *App) takeScreenshot() {
	path, err := a.screenshots.TakeScreenshot(a.presenter.Snapshot())
	if err != nil {
		log.Printf("Screenshot failed: %v", err)
		a.notification.ShowDefault("Screenshot failed")
		return
	}
	log.Printf("Screenshot saved to %s", path)
	a.notification.ShowShort("Screenshot saved")
}

// confirmFactoryReset asks before erasing the flash and state images.
func (a *App) confirmFactoryReset() {
	if a.imageSource == "" {
		a.notification.ShowDefault("Factory reset needs an image source")
		return
	}
	if !a.confirming.CompareAndSwap(false, true) {
		return
	}

	// Run dialog in goroutine to avoid blocking Ebiten's main thread
	go func() {
		defer a.confirming.Store(false)
		ok := dialog.Message("%s", "Erase the flash and saved state and restore the factory image?").
			Title("Factory Reset").
			YesNo()
		if !ok {
			return
		}
		if err := FactoryReset(a.driver, a.dataDir, a.imageSource); err != nil {
			log.Printf("Factory reset failed: %v", err)
			a.notification.ShowDefault("Factory reset failed")
			return
		}
		a.notification.ShowDefault("Factory reset complete")
	}()
}

// Draw implements ebiten.Game
func (a *App) Draw(screen *ebiten.Image) {
	a.presenter.Draw(screen)
	if a.showPerf {
		a.perf.Draw(screen)
	}
	a.notification.Draw(screen)
}

// Layout implements ebiten.Game
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.width, a.height
}
