package ui

import (
	"math"
	"testing"
	"time"

	"github.com/user-none/enc1020/emu"
)

func TestPerfCounter_Sample(t *testing.T) {
	var p PerfCounter
	t0 := time.Unix(1000, 0)

	if p.Sample(t0, 0, 0) {
		t.Error("first sample should only start the window")
	}
	if p.Sample(t0.Add(500*time.Millisecond), 30, emu.CyclesPerSecond/2) {
		t.Error("window should not close before one second")
	}
	if !p.Sample(t0.Add(time.Second), 60, emu.CyclesPerSecond) {
		t.Fatal("expected the window to close at one second")
	}

	if p.FPS() != 60 {
		t.Errorf("expected 60 fps, got %v", p.FPS())
	}
	if math.Abs(p.Speed()-100) > 1e-9 {
		t.Errorf("expected 100%%, got %v", p.Speed())
	}
}

func TestPerfCounter_SpeedUp(t *testing.T) {
	var p PerfCounter
	t0 := time.Unix(1000, 0)
	p.Sample(t0, 100, 0)
	p.Sample(t0.Add(2*time.Second), 500, 4*emu.CyclesPerSecond)

	if p.FPS() != 200 {
		t.Errorf("expected 200 fps, got %v", p.FPS())
	}
	if math.Abs(p.Speed()-200) > 1e-9 {
		t.Errorf("expected 200%%, got %v", p.Speed())
	}
	if got, want := p.String(), "200 fps  20480000 cycles  200%"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPerfOverlay_Update(t *testing.T) {
	o := NewPerfOverlay()
	t0 := time.Unix(1000, 0)
	o.Update(t0, 0, 0)
	if o.line != "" {
		t.Errorf("expected no line before the first window, got %q", o.line)
	}
	o.Update(t0.Add(time.Second), 60, emu.CyclesPerSecond)
	if o.line == "" {
		t.Error("expected a line after one second")
	}
}
