package ui

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user-none/enc1020/emu"
)

// DriverConfig holds the pacing and persistence settings of a Driver.
type DriverConfig struct {
	FrameRate  int  // frames per second; <= 0 selects 60
	SpeedUp    bool // start with pacing disabled
	SaveOnExit bool // call Save once after the loop ends
}

// Driver runs the emulation loop on its own goroutine: step the core by a
// time slice, copy and unpack the LCD, publish the frame, then sleep out
// the rest of the frame interval unless speed-up is on.
//
// All core access goes through one mutex, so the control methods (Reset,
// Load, Save, SetKey, Exec) are safe to call from the Ebiten thread while
// the loop runs.
type Driver struct {
	core     *lockedCore
	fb       *SharedFramebuffer
	control  *EmuControl
	interval time.Duration

	saveOnExit bool
	speedUp    atomic.Bool
	frames     atomic.Uint64
	steps      atomic.Uint64

	packed []byte

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)

	startOnce sync.Once
	done      chan struct{}
}

// NewDriver creates a driver for an initialized core.
func NewDriver(core emu.Core, fb *SharedFramebuffer, cfg DriverConfig) *Driver {
	fps := cfg.FrameRate
	if fps <= 0 {
		fps = 60
	}
	d := &Driver{
		core:       &lockedCore{core: core},
		fb:         fb,
		control:    NewEmuControl(),
		interval:   time.Second / time.Duration(fps),
		saveOnExit: cfg.SaveOnExit,
		packed:     make([]byte, emu.PackedSize),
		now:        time.Now,
		sleep:      sleepContext,
		done:       make(chan struct{}),
	}
	d.speedUp.Store(cfg.SpeedUp)
	return d
}

// Interval returns the target frame interval.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Start launches Run on a new goroutine. Later calls do nothing.
func (d *Driver) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		go d.Run(ctx)
	})
}

// Run executes the emulation loop until Stop is called or ctx is done.
// It blocks; use Start for the usual background goroutine.
func (d *Driver) Run(ctx context.Context) {
	defer close(d.done)
	defer d.control.markExited()

	slice := d.interval
	var carry time.Duration

	for d.control.CheckPause(ctx) && ctx.Err() == nil {
		start := d.now()
		speedUp := d.speedUp.Load()

		var ms int
		ms, carry = splitMillis(slice + carry)
		d.core.Step(ms, speedUp)
		d.steps.Add(1)

		if d.core.CopyDisplayBuffer(d.packed) {
			emu.Unpack(d.fb.Back(), d.packed)
			d.fb.Publish()
			d.frames.Add(1)
		}

		var wait time.Duration
		wait, slice = pace(d.now().Sub(start), d.interval, speedUp)
		if wait > 0 {
			d.sleep(ctx, wait)
		}
	}

	if d.saveOnExit {
		if err := d.core.Save(); err != nil {
			log.Printf("Failed to save on exit: %v", err)
		}
	}
}

// pace returns how long to sleep after an iteration that took elapsed and
// how much emulated time the next slice should cover. The slice never drops
// below one interval and grows to match a host that fell behind.
func pace(elapsed, interval time.Duration, speedUp bool) (sleep, next time.Duration) {
	if elapsed < interval && !speedUp {
		sleep = interval - elapsed
	}
	next = max(elapsed, interval)
	return sleep, next
}

// splitMillis splits d into whole milliseconds and the remainder.
func splitMillis(d time.Duration) (int, time.Duration) {
	ms := d / time.Millisecond
	return int(ms), d - ms*time.Millisecond
}

// sleepContext sleeps for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Stop asks the loop to exit after the current iteration.
func (d *Driver) Stop() {
	d.control.Stop()
}

// Wait blocks until the loop has exited, including the save on exit.
func (d *Driver) Wait() {
	<-d.done
}

// Done is closed once the loop has exited.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Pause parks the loop between iterations and blocks until it is parked.
func (d *Driver) Pause() {
	d.control.RequestPause()
}

// Resume releases a paused loop.
func (d *Driver) Resume() {
	d.control.RequestResume()
}

// Paused reports whether the loop is parked.
func (d *Driver) Paused() bool {
	return d.control.IsPaused()
}

// SetSpeedUp enables or disables uncapped emulation.
func (d *Driver) SetSpeedUp(on bool) {
	d.speedUp.Store(on)
}

// ToggleSpeedUp flips speed-up and returns the new setting.
func (d *Driver) ToggleSpeedUp() bool {
	for {
		old := d.speedUp.Load()
		if d.speedUp.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// SpeedUp reports whether pacing is disabled.
func (d *Driver) SpeedUp() bool {
	return d.speedUp.Load()
}

// Frames returns the number of frames published so far.
func (d *Driver) Frames() uint64 {
	return d.frames.Load()
}

// Steps returns the number of loop iterations run so far, whether or not
// they produced a frame.
func (d *Driver) Steps() uint64 {
	return d.steps.Load()
}

// Cycles returns the core's cumulative cycle count.
func (d *Driver) Cycles() uint64 {
	return d.core.Cycles()
}

// Reset restores the power-on state.
func (d *Driver) Reset() error {
	return d.core.Reset()
}

// Load restores the persisted state.
func (d *Driver) Load() error {
	return d.core.Load()
}

// Save persists the current state.
func (d *Driver) Save() error {
	return d.core.Save()
}

// SetKey forwards a key transition to the core.
func (d *Driver) SetKey(code emu.Keycode, pressed bool) {
	d.core.SetKey(code, pressed)
}

// Exec runs fn with exclusive access to the core.
func (d *Driver) Exec(fn func(emu.Core) error) error {
	d.core.mu.Lock()
	defer d.core.mu.Unlock()
	return fn(d.core.core)
}

// lockedCore serializes every call into a core.
type lockedCore struct {
	mu   sync.Mutex
	core emu.Core
}

var _ emu.Core = (*lockedCore)(nil)

func (c *lockedCore) Initialize(paths emu.Paths) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Initialize(paths)
}

func (c *lockedCore) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Reset()
}

func (c *lockedCore) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Load()
}

func (c *lockedCore) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Save()
}

func (c *lockedCore) SetKey(code emu.Keycode, pressed bool) {
	c.mu.Lock()
	c.core.SetKey(code, pressed)
	c.mu.Unlock()
}

func (c *lockedCore) Step(sliceMs int, speedUp bool) {
	c.mu.Lock()
	c.core.Step(sliceMs, speedUp)
	c.mu.Unlock()
}

func (c *lockedCore) CopyDisplayBuffer(dst []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.CopyDisplayBuffer(dst)
}

func (c *lockedCore) Cycles() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Cycles()
}
