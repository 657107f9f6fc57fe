package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/user-none/emld/emu"
)

// --- SharedFramebuffer tests ---

func TestSharedFramebuffer_RoundTrip(t *testing.T) {
	sf := NewSharedFramebuffer()

	frame := make([]byte, emu.ScreenSize*emu.ScreenSize*4)
	for i := range frame {
		frame[i] = byte(i)
	}
	sf.Update(frame)

	if !bytes.Equal(sf.Read(), frame) {
		t.Error("expected the frame to round-trip through the shared buffer")
	}
}

func TestSharedFramebuffer_ReadBeforeUpdate(t *testing.T) {
	sf := NewSharedFramebuffer()

	got := sf.Read()
	if len(got) != emu.ScreenSize*emu.ScreenSize*4 {
		t.Fatalf("expected a full-size frame, got %d bytes", len(got))
	}
	for i, b := range got {
		if b != 0 {
			t.Fatalf("expected a zero frame before the first update, got 0x%02X at %d", b, i)
		}
	}
}

// --- EmuControl tests ---

func TestEmuControl_PauseResumeStop(t *testing.T) {
	ec := NewEmuControl()

	ticks := make(chan struct{}, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ec.CheckPause() {
			select {
			case ticks <- struct{}{}:
			default:
			}
			time.Sleep(time.Millisecond)
		}
	}()

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("expected the driver to start ticking")
	}

	ec.RequestPause()
	if !ec.IsPaused() {
		t.Error("expected the driver paused after the acknowledged request")
	}

	for len(ticks) > 0 {
		<-ticks
	}
	time.Sleep(20 * time.Millisecond)
	if len(ticks) != 0 {
		t.Error("expected no driver progress while paused")
	}

	ec.RequestResume()
	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("expected the driver to resume")
	}

	ec.RequestStop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected the driver to exit after stop")
	}
	if ec.ShouldRun() {
		t.Error("expected ShouldRun false after stop")
	}
}

func TestEmuControl_PauseAfterStopReturns(t *testing.T) {
	ec := NewEmuControl()
	ec.RequestStop()

	ec.RequestPause() // must not block with no driver left to acknowledge
	if ec.IsPaused() {
		t.Error("expected no pause after stop")
	}
}

func TestEmuControl_StopUnparksPausedDriver(t *testing.T) {
	ec := NewEmuControl()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ec.CheckPause() {
		}
	}()

	ec.RequestPause()
	ec.RequestStop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected a paused driver to exit on stop")
	}
}
