package ui

import (
	"context"
	"sync"

	"github.com/user-none/enc1020/emu"
)

// SharedFramebuffer hands expanded LCD frames from the emulation goroutine
// to the Ebiten thread. The writer fills a private back buffer and swaps it
// to the front under the lock; the reader copies the front buffer out under
// the same lock. A reader therefore always sees one complete frame.
//
// There is one writer (the driver) and one reader (the presenter).
type SharedFramebuffer struct {
	mu       sync.Mutex
	front    []byte // last published frame, guarded by mu
	back     []byte // owned by the writer between publishes
	readCopy []byte // owned by the reader
	seq      uint64
}

// NewSharedFramebuffer creates a framebuffer sized for one expanded LCD frame.
func NewSharedFramebuffer() *SharedFramebuffer {
	return &SharedFramebuffer{
		front:    make([]byte, emu.ExpandedSize),
		back:     make([]byte, emu.ExpandedSize),
		readCopy: make([]byte, emu.ExpandedSize),
	}
}

// Back returns the writer's buffer. Only the writer may touch it, and only
// until the next Publish.
func (sf *SharedFramebuffer) Back() []byte {
	return sf.back
}

// Publish makes the back buffer the current frame.
func (sf *SharedFramebuffer) Publish() {
	sf.mu.Lock()
	sf.front, sf.back = sf.back, sf.front
	sf.seq++
	sf.mu.Unlock()
}

// Read returns a snapshot of the current frame and its publish sequence
// number. Sequence 0 means nothing has been published yet. The returned
// slice stays valid until the next Read.
func (sf *SharedFramebuffer) Read() (pixels []byte, seq uint64) {
	sf.mu.Lock()
	copy(sf.readCopy, sf.front)
	seq = sf.seq
	sf.mu.Unlock()
	return sf.readCopy, seq
}

// EmuControl manages pause/resume/stop coordination between
// the Ebiten thread and the emulation goroutine.
type EmuControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	stopped  bool
	wake     chan struct{} // closed on resume or stop
	ackCh    chan struct{}
	exited   chan struct{}
	exitOnce sync.Once
}

// NewEmuControl creates a new emulation control.
func NewEmuControl() *EmuControl {
	return &EmuControl{
		ackCh:  make(chan struct{}, 1),
		exited: make(chan struct{}),
	}
}

// RequestPause asks the emulation goroutine to pause and blocks until it
// acknowledges or exits.
func (ec *EmuControl) RequestPause() {
	ec.mu.Lock()
	if ec.stopped || ec.paused || ec.pauseReq {
		ec.mu.Unlock()
		return
	}
	ec.pauseReq = true
	ec.wake = make(chan struct{})
	ec.mu.Unlock()

	select {
	case <-ec.ackCh:
	case <-ec.exited:
	}
}

// RequestResume tells the emulation goroutine to resume. The control
// counts as running from here on, so a RequestPause that follows waits for
// a fresh acknowledgement.
func (ec *EmuControl) RequestResume() {
	ec.mu.Lock()
	if ec.pauseReq {
		ec.pauseReq = false
		ec.paused = false
		close(ec.wake)
	}
	ec.mu.Unlock()
}

// CheckPause is called by the emulation goroutine between frames. If a
// pause has been requested it acknowledges and blocks until resumed,
// stopped or ctx is done. Returns false if the goroutine should exit.
func (ec *EmuControl) CheckPause(ctx context.Context) bool {
	ec.mu.Lock()
	if ec.stopped {
		ec.mu.Unlock()
		return false
	}
	if !ec.pauseReq {
		ec.mu.Unlock()
		return true
	}
	ec.paused = true
	wake := ec.wake
	ec.mu.Unlock()

	select {
	case ec.ackCh <- struct{}{}:
	default:
	}

	select {
	case <-wake:
	case <-ctx.Done():
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.paused = false
	return !ec.stopped && ctx.Err() == nil
}

// Stop signals the emulation goroutine to exit. It is advisory: an
// iteration already in progress completes first.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	ec.stopped = true
	if ec.pauseReq {
		ec.pauseReq = false
		close(ec.wake)
	}
	ec.mu.Unlock()
}

// ShouldRun returns true if the goroutine should continue running.
func (ec *EmuControl) ShouldRun() bool {
	ec.mu.Lock()
	r := !ec.stopped
	ec.mu.Unlock()
	return r
}

// IsPaused returns true if the emulation goroutine is currently paused.
func (ec *EmuControl) IsPaused() bool {
	ec.mu.Lock()
	p := ec.paused
	ec.mu.Unlock()
	return p
}

// markExited releases any RequestPause waiting on a goroutine that is gone.
func (ec *EmuControl) markExited() {
	ec.exitOnce.Do(func() { close(ec.exited) })
}
