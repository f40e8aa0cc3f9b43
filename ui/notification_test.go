package ui

import (
	"testing"
	"time"
)

func TestNotification_Expiry(t *testing.T) {
	now := time.Unix(1000, 0)
	n := NewNotification()
	n.now = func() time.Time { return now }

	if n.Current() != "" {
		t.Error("expected no message initially")
	}

	n.ShowShort("Save done")
	if got := n.Current(); got != "Save done" {
		t.Errorf("expected %q, got %q", "Save done", got)
	}

	now = now.Add(999 * time.Millisecond)
	if n.Current() == "" {
		t.Error("message expired early")
	}
	now = now.Add(time.Millisecond)
	if got := n.Current(); got != "" {
		t.Errorf("expected message to expire, got %q", got)
	}
}

func TestNotification_Clear(t *testing.T) {
	n := NewNotification()
	n.ShowDefault("Load failed")
	n.Clear()
	if got := n.Current(); got != "" {
		t.Errorf("expected cleared message, got %q", got)
	}

	n.ShowDefault("Reset done")
	if got := n.Current(); got != "Reset done" {
		t.Errorf("expected a new message after Clear, got %q", got)
	}
}
