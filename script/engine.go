package script

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/user-none/emld/emu"
)

// Engine runs a Lua program against the device. The script sees one
// global table, emld, carrying the register map and the access bindings.
type Engine struct {
	name   string
	path   string
	source string
}

// NewEngine returns a program that runs the Lua file at path.
func NewEngine(path string) *Engine {
	return &Engine{name: filepath.Base(path), path: path}
}

// NewEngineSource returns a program that runs an in-memory Lua chunk.
func NewEngineSource(name, source string) *Engine {
	return &Engine{name: name, source: source}
}

// Run implements Program. The VM carries ctx, so cancellation interrupts
// even a chunk that never calls back into a binding.
func (e *Engine) Run(ctx context.Context, dev *emu.LDC, ctrl Control) error {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	b := &binder{dev: dev, ctrl: ctrl}
	b.register(L)

	var err error
	if e.path != "" {
		err = L.DoFile(e.path)
	} else {
		err = L.DoString(e.source)
	}
	if err != nil {
		if b.stopped || ctx.Err() != nil {
			return ErrStopped
		}
		return fmt.Errorf("script %s: %w", e.name, err)
	}
	return nil
}

// deviceConstants is the register map and flag set published to scripts
// as fields of the emld table.
var deviceConstants = []struct {
	name  string
	value uint32
}{
	{"CTRL", emu.RegCtrl},
	{"ORDER", emu.RegOrder},
	{"SYNC", emu.RegSync},
	{"FB_CLEAR", emu.RegFbClear},
	{"PAL_RESET", emu.RegPalReset},
	{"TM_SCX", emu.RegTmScx},
	{"TM_SCY", emu.RegTmScy},

	{"KEY_HELD", emu.RegKeyHeld},
	{"KEY_PRESSED", emu.RegKeyPressed},
	{"KEY_RELEASED", emu.RegKeyReleased},
	{"MOUSE_X", emu.RegMouseX},
	{"MOUSE_Y", emu.RegMouseY},
	{"MOUSE_HELD", emu.RegMouseHeld},
	{"MOUSE_PRESSED", emu.RegMousePressed},
	{"MOUSE_RELEASED", emu.RegMouseReleased},

	{"PAL", emu.PaletteBase},
	{"FB", emu.FbBase},
	{"TM_TABLE", emu.TmTableBase},
	{"SPR_TABLE", emu.SprTableBase},
	{"TM_GFX", emu.TmGfxBase},
	{"SPR_GFX", emu.SprGfxBase},

	{"KEYS", emu.ClassicKeys},
	{"BUF", emu.ClassicBuffer},

	{"KEY_UP", emu.KeyUp},
	{"KEY_DOWN", emu.KeyDown},
	{"KEY_LEFT", emu.KeyLeft},
	{"KEY_RIGHT", emu.KeyRight},
	{"KEY_SPACE", emu.KeySpace},
	{"KEY_ENTER", emu.KeyEnter},
	{"KEY_ESCAPE", emu.KeyEscape},
	{"KEY_SHIFT", emu.KeyShift},
	{"KEY_CTRL", emu.KeyCtrl},
	{"KEY_TAB", emu.KeyTab},
	{"KEY_BACKSPACE", emu.KeyBackspace},

	{"CKEY_UP", emu.ClassicKeyUp},
	{"CKEY_DOWN", emu.ClassicKeyDown},
	{"CKEY_LEFT", emu.ClassicKeyLeft},
	{"CKEY_RIGHT", emu.ClassicKeyRight},
	{"CKEY_B", emu.ClassicKeyB},
	{"CKEY_Z", emu.ClassicKeyZ},
	{"CKEY_X", emu.ClassicKeyX},
	{"CKEY_C", emu.ClassicKeyC},

	{"MOUSE_LEFT", emu.MouseLeft},
	{"MOUSE_RIGHT", emu.MouseRight},
	{"MOUSE_MIDDLE", emu.MouseMiddle},

	{"SPR_ENABLE", emu.SprFlagEnable},
	{"SPR_VFLIP", emu.SprFlagVFlip},
	{"SPR_HFLIP", emu.SprFlagHFlip},
	{"SPR_LARGE", emu.SprFlagLarge},

	{"TILE_PRIORITY", emu.TileFlagPriority},
	{"TILE_VFLIP", emu.TileFlagVFlip},
	{"TILE_HFLIP", emu.TileFlagHFlip},
}

// binder holds one run's device access state for the Lua bindings.
type binder struct {
	dev     *emu.LDC
	ctrl    Control
	stopped bool
}

func (b *binder) register(L *lua.LState) {
	t := L.NewTable()
	for _, c := range deviceConstants {
		L.SetField(t, c.name, lua.LNumber(c.value))
	}
	L.SetField(t, "poke", L.NewFunction(b.poke))
	L.SetField(t, "peek", L.NewFunction(b.peek))
	L.SetField(t, "fill", L.NewFunction(b.fill))
	L.SetField(t, "rgb", L.NewFunction(b.rgb))
	L.SetField(t, "sleep", L.NewFunction(b.sleepFn))
	L.SetField(t, "sync", L.NewFunction(b.syncFn))
	L.SetField(t, "frames", L.NewFunction(b.framesFn))
	L.SetGlobal("emld", t)
}

// gate honors pause and aborts the VM on a stop request. Every binding
// that touches the device or sleeps passes through here, so a script is
// stoppable at each device operation.
func (b *binder) gate(L *lua.LState) {
	if !b.ctrl.CheckPause() {
		b.stopped = true
		L.RaiseError("program stopped")
	}
}

// sleep waits in short slices, re-checking the gate so pause and stop
// stay responsive during long waits.
func (b *binder) sleep(L *lua.LState, ms int) {
	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)
	for {
		b.gate(L)
		remain := time.Until(deadline)
		if remain <= 0 {
			return
		}
		if remain > 10*time.Millisecond {
			remain = 10 * time.Millisecond
		}
		time.Sleep(remain)
	}
}

// poke(addr, value [, size]) stores size bytes (default 4) at addr.
func (b *binder) poke(L *lua.LState) int {
	b.gate(L)
	addr := uint32(L.CheckInt64(1))
	value := uint32(L.CheckInt64(2))
	size := L.OptInt(3, 4)
	b.dev.Write(addr, size, value)
	return 0
}

// peek(addr [, size]) loads size bytes (default 4) from addr.
func (b *binder) peek(L *lua.LState) int {
	b.gate(L)
	addr := uint32(L.CheckInt64(1))
	size := L.OptInt(2, 4)
	L.Push(lua.LNumber(b.dev.Read(addr, size)))
	return 1
}

// fill(addr, count, value) stores count copies of the low byte of value.
func (b *binder) fill(L *lua.LState) int {
	b.gate(L)
	addr := uint32(L.CheckInt64(1))
	count := L.CheckInt(2)
	value := uint32(L.CheckInt64(3))
	for i := 0; i < count; i++ {
		b.dev.Write(addr+uint32(i), 1, value)
	}
	return 0
}

// rgb(r, g, b) packs a palette color word.
func (b *binder) rgb(L *lua.LState) int {
	r := uint32(L.CheckInt(1)) & 0xFF
	g := uint32(L.CheckInt(2)) & 0xFF
	bl := uint32(L.CheckInt(3)) & 0xFF
	L.Push(lua.LNumber(r<<16 | g<<8 | bl))
	return 1
}

// sleep(ms) pauses the writer.
func (b *binder) sleepFn(L *lua.LState) int {
	b.sleep(L, L.CheckInt(1))
	return 0
}

// sync() publishes a frame and waits out the device's frame pacing.
func (b *binder) syncFn(L *lua.LState) int {
	b.gate(L)
	b.dev.Write(emu.RegSync, 4, 0)
	b.sleep(L, b.dev.Status().MsPerFrame)
	return 0
}

// frames() returns the number of frames published since power-on.
func (b *binder) framesFn(L *lua.LState) int {
	b.gate(L)
	L.Push(lua.LNumber(b.dev.Status().Frames))
	return 1
}
