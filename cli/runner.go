// Package cli provides a headless runner for the emulator.
// It drives the frame pipeline without a window and writes the last
// presented frame as a PNG.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"time"

	"github.com/user-none/enc1020/emu"
	"github.com/user-none/enc1020/ui"
	"github.com/user-none/enc1020/ui/storage"
)

// pollInterval is how often Run checks the driver's progress.
const pollInterval = 5 * time.Millisecond

// Runner wraps a core for command-line mode.
type Runner struct {
	driver    *ui.Driver
	presenter *ui.Presenter

	// Report, when set, receives a perf line once per second.
	Report func(line string)
	perf   ui.PerfCounter
}

// NewRunner creates a new Runner around an initialized core.
func NewRunner(core emu.Core, cfg ui.DriverConfig, foreground, background color.RGBA) *Runner {
	fb := ui.NewSharedFramebuffer()
	return &Runner{
		driver:    ui.NewDriver(core, fb, cfg),
		presenter: ui.NewPresenter(fb, emu.Cols, foreground, background),
	}
}

// Run steps the core for frames loop iterations, or until ctx is done
// when frames is zero. The driver has stopped and saved before Run
// returns. If out is not empty the last frame is written there as PNG.
func (r *Runner) Run(ctx context.Context, frames uint64, out string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.driver.Start(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
wait:
	for frames == 0 || r.driver.Steps() < frames {
		select {
		case <-ctx.Done():
			break wait
		case <-r.driver.Done():
			break wait
		case now := <-ticker.C:
			if r.Report != nil && r.perf.Sample(now, r.driver.Frames(), r.driver.Cycles()) {
				r.Report(r.perf.String())
			}
		}
	}

	r.driver.Stop()
	r.driver.Wait()

	if out == "" {
		return nil
	}
	return r.WriteFrame(out)
}

// WriteFrame writes the current frame to path as PNG.
func (r *Runner) WriteFrame(path string) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.presenter.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return storage.AtomicWriteFile(path, buf.Bytes())
}

// Steps returns the loop iterations run so far.
func (r *Runner) Steps() uint64 {
	return r.driver.Steps()
}

// Frames returns the frames published so far.
func (r *Runner) Frames() uint64 {
	return r.driver.Frames()
}
