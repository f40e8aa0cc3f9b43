package ui

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user-none/enc1020/emu"
)

func TestSharedFramebuffer_PublishAndRead(t *testing.T) {
	sf := NewSharedFramebuffer()

	pixels, seq := sf.Read()
	if seq != 0 {
		t.Fatalf("expected seq 0 before publish, got %d", seq)
	}
	if len(pixels) != emu.ExpandedSize {
		t.Fatalf("expected %d bytes, got %d", emu.ExpandedSize, len(pixels))
	}

	back := sf.Back()
	for i := range back {
		back[i] = byte(i % 256)
	}
	sf.Publish()

	pixels, seq = sf.Read()
	if seq != 1 {
		t.Fatalf("expected seq 1, got %d", seq)
	}
	for i := range pixels {
		if pixels[i] != byte(i%256) {
			t.Fatalf("pixel mismatch at %d: expected %d, got %d", i, byte(i%256), pixels[i])
		}
	}

	// The snapshot is a copy: writing the next back buffer does not touch it.
	next := sf.Back()
	for i := range next {
		next[i] = 0xEE
	}
	if pixels[0] != 0 {
		t.Fatal("snapshot changed before the next Read")
	}
}

func TestSharedFramebuffer_NoMixedFrames(t *testing.T) {
	sf := NewSharedFramebuffer()
	const frames = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= frames; i++ {
			back := sf.Back()
			v := byte(i)
			for j := range back {
				back[j] = v
			}
			sf.Publish()
		}
	}()

	var lastSeq uint64
	for lastSeq < frames {
		pixels, seq := sf.Read()
		if seq < lastSeq {
			t.Fatalf("sequence went backwards: %d -> %d", lastSeq, seq)
		}
		lastSeq = seq
		first := pixels[0]
		for j, v := range pixels {
			if v != first {
				t.Fatalf("mixed frame at seq %d: byte %d is %d, byte 0 is %d", seq, j, v, first)
			}
		}
		if seq > 0 && first != byte(seq) {
			t.Fatalf("seq %d carries frame %d", seq, first)
		}
	}
	wg.Wait()
}

func TestEmuControl_PauseResume(t *testing.T) {
	ec := NewEmuControl()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer ec.markExited()
		for ec.CheckPause(ctx) {
			time.Sleep(time.Millisecond)
		}
	}()

	ec.RequestPause()
	if !ec.IsPaused() {
		t.Fatal("expected paused after RequestPause")
	}

	ec.RequestResume()
	deadline := time.Now().Add(time.Second)
	for ec.IsPaused() {
		if time.Now().After(deadline) {
			t.Fatal("expected not paused after RequestResume")
		}
		time.Sleep(time.Millisecond)
	}

	ec.Stop()
	<-done
}

func TestEmuControl_PauseAfterQuickResume(t *testing.T) {
	for i := 0; i < 50; i++ {
		ec := NewEmuControl()
		ctx := context.Background()

		var steps atomic.Uint64
		done := make(chan struct{})
		go func() {
			defer close(done)
			defer ec.markExited()
			for ec.CheckPause(ctx) {
				steps.Add(1)
				time.Sleep(100 * time.Microsecond)
			}
		}()

		ec.RequestPause()
		ec.RequestResume()
		ec.RequestPause()

		parked := steps.Load()
		time.Sleep(5 * time.Millisecond)
		if got := steps.Load(); got != parked {
			ec.Stop()
			<-done
			t.Fatalf("run %d: loop kept stepping after the second pause (%d -> %d)", i, parked, got)
		}
		if !ec.IsPaused() {
			t.Fatalf("run %d: expected paused", i)
		}

		ec.Stop()
		<-done
	}
}

func TestEmuControl_Stop(t *testing.T) {
	ec := NewEmuControl()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ec.ShouldRun() {
			if !ec.CheckPause(context.Background()) {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	ec.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not exit after Stop")
	}
}

func TestEmuControl_StopWhilePaused(t *testing.T) {
	ec := NewEmuControl()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ec.CheckPause(context.Background()) {
			time.Sleep(time.Millisecond)
		}
	}()

	ec.RequestPause()
	ec.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not exit after Stop while paused")
	}
}

func TestEmuControl_CancelWhilePaused(t *testing.T) {
	ec := NewEmuControl()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ec.CheckPause(ctx) {
			time.Sleep(time.Millisecond)
		}
	}()

	ec.RequestPause()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not exit after cancel while paused")
	}
}

func TestEmuControl_DoubleRequestPause(t *testing.T) {
	ec := NewEmuControl()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ec.CheckPause(context.Background()) {
			time.Sleep(time.Millisecond)
		}
	}()

	ec.RequestPause()
	// Second pause is a no-op
	ec.RequestPause()

	if !ec.IsPaused() {
		t.Fatal("expected still paused")
	}

	ec.Stop()
	<-done
}
