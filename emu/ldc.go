package emu

import (
	"image"
	"sync"
)

// Name identifies the device in window titles and state files.
const Name = "emld"

const (
	// ScreenSize is the width and height of the output frame in pixels.
	ScreenSize = 128

	// classicSize is the width and height of the classic pixel grid.
	// Classic frames are pixel-doubled into the output frame.
	classicSize = 64
)

const (
	// enhancedSwitchValue is the smallest classic control write that
	// switches the device to enhanced mode.
	enhancedSwitchValue = 257

	defaultMsPerFrame = 16
)

// LDC is the emulated LED display controller. A single writer goroutine
// drives it through Write/Read; other goroutines observe it through
// Status, Frame, and WaitFrame.
type LDC struct {
	// Classic mode buffers, one byte per pixel, row-major 64x64.
	classicBack  [classicBufSize]uint8
	classicFront [classicBufSize]uint8

	// Enhanced VRAM regions
	fb       [fbSize]uint8
	tmTable  [tmTableSize]uint8
	sprTable [sprTableSize]uint8
	tmGfx    [tileGfxSize]uint8
	sprGfx   [tileGfxSize]uint8

	// Palette RAM, 256 entries x 4 bytes stored [B, G, R, 0]. The
	// backdrop is the opaque color behind all layers; writes to palette
	// entry 0 retarget it.
	palette  [256 * 4]uint8
	backdrop [4]uint8

	// Tilemap scroll registers, stored as written, wrapped at use
	tmScx int32
	tmScy int32

	dirty dirtySet

	// Layer caches holding resolved RGBA; alpha 0 means transparent
	fbLayer   *image.RGBA
	tmLoLayer *image.RGBA
	tmHiLayer *image.RGBA
	sprLayer  *image.RGBA

	// scratch is the compositing target, private to the writer
	scratch *image.RGBA

	input *Input

	// Frame rendezvous
	frameCh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// mu guards the fields below for cross-goroutine readers (Status,
	// Frame). The writer goroutine also reads them directly.
	mu         sync.Mutex
	enhanced   bool
	fbEnabled  bool
	tmEnabled  bool
	fbInFront  bool
	msPerFrame int
	lastCtrl   uint32
	frames     uint64
	anomaly    bool
	out        *image.RGBA
}

// Status is a point-in-time snapshot of the device's mode and pacing.
type Status struct {
	Enhanced   bool
	FbEnabled  bool
	TmEnabled  bool
	FbInFront  bool
	MsPerFrame int
	Frames     uint64 // frames published since power-on
	Anomaly    bool   // sticky: an out-of-range classic write was seen
}

// New creates a powered-on controller in classic mode with an initial
// black frame already published.
func New() *LDC {
	d := &LDC{
		input:     NewInput(),
		frameCh:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		out:       newLayer(),
		scratch:   newLayer(),
		fbLayer:   newLayer(),
		tmLoLayer: newLayer(),
		tmHiLayer: newLayer(),
		sprLayer:  newLayer(),
	}
	d.Reset()
	return d
}

// Reset returns the device to power-on state: classic mode, cleared
// memory, default palette, black frame. The input mirror keeps its host
// state so keys held across a reset stay held. Reset is a writer-side
// operation; callers on other goroutines must stop the writer first.
func (d *LDC) Reset() {
	d.classicBack = [classicBufSize]uint8{}
	d.classicFront = [classicBufSize]uint8{}
	d.fb = [fbSize]uint8{}
	d.tmTable = [tmTableSize]uint8{}
	d.sprTable = [sprTableSize]uint8{}
	d.tmGfx = [tileGfxSize]uint8{}
	d.sprGfx = [tileGfxSize]uint8{}
	d.tmScx = 0
	d.tmScy = 0
	d.defaultPalette()
	d.dirty.markAll()

	d.mu.Lock()
	d.enhanced = false
	d.fbEnabled = false
	d.tmEnabled = false
	d.fbInFront = false
	d.msPerFrame = defaultMsPerFrame
	d.lastCtrl = 0
	d.frames = 0
	d.anomaly = false
	d.mu.Unlock()

	d.renderClassic()
	d.publish()
}

// Close releases any goroutine blocked in WaitFrame. The device stays
// readable afterwards.
func (d *LDC) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

// Input returns the device's input mirror.
func (d *LDC) Input() *Input {
	return d.input
}

// Status returns the current mode snapshot. Safe from any goroutine.
func (d *LDC) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Enhanced:   d.enhanced,
		FbEnabled:  d.fbEnabled,
		TmEnabled:  d.tmEnabled,
		FbInFront:  d.fbInFront,
		MsPerFrame: d.msPerFrame,
		Frames:     d.frames,
		Anomaly:    d.anomaly,
	}
}

// Frame copies the latest published frame into dst as RGBA rows. dst must
// hold at least ScreenSize*ScreenSize*4 bytes. It never blocks on the
// writer.
func (d *LDC) Frame(dst []byte) {
	d.mu.Lock()
	copy(dst, d.out.Pix)
	d.mu.Unlock()
}

// WaitFrame blocks until the next published frame or Close, returning
// false once the device is closed. Readers loop on it to observe frames
// at the writer's pace. Signals are coalesced: a reader that falls behind
// wakes once for any number of missed frames.
func (d *LDC) WaitFrame() bool {
	select {
	case <-d.frameCh:
		return true
	case <-d.done:
		return false
	}
}

// publish copies the scratch frame into the published image, bumps the
// frame counter, and signals the rendezvous.
func (d *LDC) publish() {
	d.mu.Lock()
	copy(d.out.Pix, d.scratch.Pix)
	d.frames++
	d.mu.Unlock()
	d.signalFrame()
}

// signalFrame is a non-blocking send; an unconsumed signal is coalesced.
func (d *LDC) signalFrame() {
	select {
	case d.frameCh <- struct{}{}:
	default:
	}
}

// writeClassicCtrl handles the classic control register. A value of 257
// or more switches the device to enhanced mode; anything lower publishes
// the classic frame.
func (d *LDC) writeClassicCtrl(value uint32) {
	if value >= enhancedSwitchValue {
		d.enterEnhanced(value)
		return
	}
	d.flipClassic(value)
}

// enterEnhanced switches to enhanced mode. The transition is one-way;
// only Reset returns the device to classic. The rendezvous is signaled so
// a reader blocked on the classic pacing re-inspects the mode.
func (d *LDC) enterEnhanced(value uint32) {
	d.mu.Lock()
	d.enhanced = true
	d.mu.Unlock()
	d.programCtrl(value)
	d.signalFrame()
}

// programCtrl applies an enhanced control write: layer enables from the
// low bits, frame pacing from bits 23:16. Mode 0 is treated as
// framebuffer-only. The pacing field clamps to 10-100 ms, so a zero field
// yields 10.
func (d *LDC) programCtrl(value uint32) {
	mode := value & 3
	if mode == 0 {
		mode = 1
	}
	ms := int((value >> 16) & 0xFF)
	if ms > 100 {
		ms = 100
	}
	if ms < 10 {
		ms = 10
	}

	fbOn := mode&1 != 0
	tmOn := mode&2 != 0

	// A layer enabled after being disabled may cache colors from an
	// older palette; rebuild it.
	if fbOn && !d.fbEnabled {
		d.dirty.fb = true
	}
	if tmOn && !d.tmEnabled {
		d.dirty.tm = true
	}

	d.mu.Lock()
	d.fbEnabled = fbOn
	d.tmEnabled = tmOn
	d.msPerFrame = ms
	d.lastCtrl = value
	d.mu.Unlock()
}

func (d *LDC) writeOrder(value uint32) {
	d.mu.Lock()
	d.fbInFront = value != 0
	d.mu.Unlock()
}
