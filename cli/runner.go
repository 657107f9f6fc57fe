// Package cli runs the display controller in a window. A driver
// goroutine executes the writer program, a presenter goroutine forwards
// published frames, and the Ebiten thread polls input and renders.
package cli

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	emubridge "github.com/user-none/emld/bridge/ebiten"
	"github.com/user-none/emld/emu"
	"github.com/user-none/emld/script"
	"github.com/user-none/emld/ui"
)

// keyBinds maps the non-printable Ebiten keys to device key codes.
// Letters and digits are mapped by range in pollInput.
var keyBinds = map[ebiten.Key]uint8{
	ebiten.KeyArrowUp:      emu.KeyUp,
	ebiten.KeyArrowDown:    emu.KeyDown,
	ebiten.KeyArrowLeft:    emu.KeyLeft,
	ebiten.KeyArrowRight:   emu.KeyRight,
	ebiten.KeyBackspace:    emu.KeyBackspace,
	ebiten.KeyTab:          emu.KeyTab,
	ebiten.KeyEnter:        emu.KeyEnter,
	ebiten.KeyShiftLeft:    emu.KeyShift,
	ebiten.KeyShiftRight:   emu.KeyShift,
	ebiten.KeyControlLeft:  emu.KeyCtrl,
	ebiten.KeyControlRight: emu.KeyCtrl,
	ebiten.KeyEscape:       emu.KeyEscape,
	ebiten.KeySpace:        emu.KeySpace,
}

// Runner wires the device, the writer program, and the window together.
// It implements ebiten.Game.
type Runner struct {
	dev     *emu.LDC
	program script.Program
	viewer  *emubridge.Viewer

	control     *ui.EmuControl
	framebuffer *ui.SharedFramebuffer

	statePath  string
	showStatus bool
	showGrid   bool

	mu        sync.Mutex
	cancelRun func()

	resetCh       chan struct{}
	driverDone    chan struct{}
	presenterDone chan struct{}
}

// NewRunner creates a runner and starts the driver and presenter
// goroutines. statePath is the file used by the save and load hotkeys.
func NewRunner(dev *emu.LDC, program script.Program, statePath string) *Runner {
	r := &Runner{
		dev:           dev,
		program:       program,
		viewer:        emubridge.NewViewer(),
		control:       ui.NewEmuControl(),
		framebuffer:   ui.NewSharedFramebuffer(),
		statePath:     statePath,
		showStatus:    true,
		resetCh:       make(chan struct{}, 1),
		driverDone:    make(chan struct{}),
		presenterDone: make(chan struct{}),
	}

	go r.driverLoop()
	go r.presenterLoop()

	return r
}

// Close stops the goroutines and releases the device.
func (r *Runner) Close() {
	r.control.RequestStop()
	r.cancelProgram()
	<-r.driverDone

	r.dev.Close()
	<-r.presenterDone
}

// driverLoop owns the device's writer side. It runs the program, then
// idles on the last frame; a reset request restarts the program against
// a freshly reset device.
func (r *Runner) driverLoop() {
	defer close(r.driverDone)

	for {
		ctx, cancel := context.WithCancel(context.Background())
		r.mu.Lock()
		r.cancelRun = cancel
		r.mu.Unlock()

		err := r.program.Run(ctx, r.dev, r.control)
		cancel()
		if err != nil && err != script.ErrStopped {
			log.Printf("program: %v", err)
		}

		if !r.idleUntilReset() {
			return
		}
		r.dev.Reset()
	}
}

// idleUntilReset parks the driver after the program ends. Reports false
// when the runner is stopping.
func (r *Runner) idleUntilReset() bool {
	for {
		if !r.control.CheckPause() {
			return false
		}
		select {
		case <-r.resetCh:
			return true
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// presenterLoop forwards each published frame into the shared
// framebuffer, starting with the frame published before it began.
func (r *Runner) presenterLoop() {
	defer close(r.presenterDone)

	buf := make([]byte, emu.ScreenSize*emu.ScreenSize*4)

	r.dev.Frame(buf)
	r.framebuffer.Update(buf)

	for r.dev.WaitFrame() {
		r.dev.Frame(buf)
		r.framebuffer.Update(buf)
	}
}

func (r *Runner) cancelProgram() {
	r.mu.Lock()
	cancel := r.cancelRun
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// requestReset aborts the running program; the driver performs the
// device reset and the restart on its own goroutine.
func (r *Runner) requestReset() {
	select {
	case r.resetCh <- struct{}{}:
	default:
	}
	r.cancelProgram()
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	r.pollInput()
	r.handleHotkeys()
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	r.viewer.Draw(screen, r.framebuffer.Read())

	st := r.dev.Status()
	if r.showGrid {
		r.viewer.DrawGrid(screen, st.Enhanced)
	}
	if r.showStatus {
		r.viewer.DrawStatus(screen, st, r.control.IsPaused())
	}
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// pollInput mirrors the keyboard and mouse into the device's input
// registers, one wholesale replacement per tick.
func (r *Runner) pollInput() {
	var held, pressed, released emu.KeySet

	record := func(k ebiten.Key, code uint8) {
		if ebiten.IsKeyPressed(k) {
			held.Set(code)
		}
		if inpututil.IsKeyJustPressed(k) {
			pressed.Set(code)
		}
		if inpututil.IsKeyJustReleased(k) {
			released.Set(code)
		}
	}

	for k := ebiten.KeyA; k <= ebiten.KeyZ; k++ {
		record(k, uint8('A'+int(k-ebiten.KeyA)))
	}
	for k := ebiten.KeyDigit0; k <= ebiten.KeyDigit9; k++ {
		record(k, uint8('0'+int(k-ebiten.KeyDigit0)))
	}
	for k, code := range keyBinds {
		record(k, code)
	}
	r.dev.Input().UpdateKeys(held, pressed, released)

	wx, wy := ebiten.CursorPosition()
	mx, my := r.viewer.DevicePixel(wx, wy)

	var mouseHeld, mousePressed, mouseReleased uint32
	buttons := []struct {
		b   ebiten.MouseButton
		bit uint32
	}{
		{ebiten.MouseButtonLeft, emu.MouseLeft},
		{ebiten.MouseButtonRight, emu.MouseRight},
		{ebiten.MouseButtonMiddle, emu.MouseMiddle},
	}
	for _, mb := range buttons {
		if ebiten.IsMouseButtonPressed(mb.b) {
			mouseHeld |= mb.bit
		}
		if inpututil.IsMouseButtonJustPressed(mb.b) {
			mousePressed |= mb.bit
		}
		if inpututil.IsMouseButtonJustReleased(mb.b) {
			mouseReleased |= mb.bit
		}
	}
	r.dev.Input().UpdateMouse(int32(mx), int32(my), mouseHeld, mousePressed, mouseReleased)
}

func (r *Runner) handleHotkeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if r.control.IsPaused() {
			r.control.RequestResume()
		} else {
			r.control.RequestPause()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		r.saveState()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF7) {
		r.loadState()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		r.screenshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		r.requestReset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		r.showStatus = !r.showStatus
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		r.showGrid = !r.showGrid
	}
}

// saveState pauses the driver so the device is quiescent, captures the
// state, and resumes. A pause the user requested stays in place.
func (r *Runner) saveState() {
	wasPaused := r.control.IsPaused()
	r.control.RequestPause()
	data := r.dev.Serialize()
	if !wasPaused {
		r.control.RequestResume()
	}

	if err := os.WriteFile(r.statePath, data, 0644); err != nil {
		log.Printf("save state: %v", err)
		return
	}
	log.Printf("state saved to %s", r.statePath)
}

// loadState restores a saved state under a paused driver. The running
// program keeps going against the restored device.
func (r *Runner) loadState() {
	data, err := os.ReadFile(r.statePath)
	if err != nil {
		log.Printf("load state: %v", err)
		return
	}

	wasPaused := r.control.IsPaused()
	r.control.RequestPause()
	err = r.dev.Deserialize(data)
	if !wasPaused {
		r.control.RequestResume()
	}

	if err != nil {
		log.Printf("load state: %v", err)
		return
	}
	log.Printf("state loaded from %s", r.statePath)
}

func (r *Runner) screenshot() {
	name, err := r.viewer.Screenshot(r.framebuffer.Read())
	if err != nil {
		log.Printf("screenshot: %v", err)
		return
	}
	log.Printf("screenshot saved to %s", name)
}
