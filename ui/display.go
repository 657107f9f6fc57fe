// Package ui holds the shared state between the Ebiten thread and the
// driver goroutine: the published frame and the pause/stop control.
package ui

import (
	"sync"
	"time"

	"github.com/user-none/emld/emu"
)

// SharedFramebuffer carries published frames from the presenter goroutine
// to Ebiten's Draw() method. Separate write and read copies let Draw hand
// its snapshot to the GPU without holding the lock against the presenter.
type SharedFramebuffer struct {
	mu    sync.Mutex
	write []byte
	read  []byte
}

// NewSharedFramebuffer creates a pre-allocated framebuffer.
func NewSharedFramebuffer() *SharedFramebuffer {
	const n = emu.ScreenSize * emu.ScreenSize * 4
	return &SharedFramebuffer{
		write: make([]byte, n),
		read:  make([]byte, n),
	}
}

// Update replaces the shared frame. Called by the presenter goroutine.
func (sf *SharedFramebuffer) Update(pixels []byte) {
	sf.mu.Lock()
	copy(sf.write, pixels)
	sf.mu.Unlock()
}

// Read snapshots the shared frame and returns the snapshot buffer. The
// returned slice stays valid until the next Read.
func (sf *SharedFramebuffer) Read() []byte {
	sf.mu.Lock()
	copy(sf.read, sf.write)
	sf.mu.Unlock()
	return sf.read
}

// EmuControl coordinates pause and stop between the Ebiten thread and the
// driver goroutine. The driver calls CheckPause between operations; the
// Ebiten thread issues the requests.
type EmuControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	stopped  bool
	ackCh    chan struct{}
}

// NewEmuControl creates a new driver control.
func NewEmuControl() *EmuControl {
	return &EmuControl{ackCh: make(chan struct{}, 1)}
}

// RequestPause asks the driver to pause and blocks until it acknowledges.
// No-op when already pausing or stopped.
func (ec *EmuControl) RequestPause() {
	ec.mu.Lock()
	if ec.paused || ec.pauseReq || ec.stopped {
		ec.mu.Unlock()
		return
	}
	ec.pauseReq = true
	ec.mu.Unlock()

	<-ec.ackCh
}

// RequestResume releases a paused driver.
func (ec *EmuControl) RequestResume() {
	ec.mu.Lock()
	ec.pauseReq = false
	ec.paused = false
	ec.mu.Unlock()
}

// RequestStop tells the driver to exit. A parked driver unblocks and
// exits on its next check.
func (ec *EmuControl) RequestStop() {
	ec.mu.Lock()
	ec.stopped = true
	ec.pauseReq = false
	ec.mu.Unlock()
}

// CheckPause is called by the driver between operations. When a pause is
// pending it acknowledges once and parks until resumed. Returns false
// once the driver should exit.
func (ec *EmuControl) CheckPause() bool {
	for {
		ec.mu.Lock()
		if ec.stopped {
			ec.mu.Unlock()
			return false
		}
		if !ec.pauseReq {
			ec.paused = false
			ec.mu.Unlock()
			return true
		}
		first := !ec.paused
		ec.paused = true
		ec.mu.Unlock()

		if first {
			select {
			case ec.ackCh <- struct{}{}:
			default:
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// ShouldRun reports whether the driver should keep running.
func (ec *EmuControl) ShouldRun() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return !ec.stopped
}

// IsPaused reports whether the driver is parked in CheckPause.
func (ec *EmuControl) IsPaused() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.paused
}
