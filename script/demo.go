package script

import (
	"context"
	"time"

	"github.com/user-none/emld/emu"
)

const classicSide = 64

// Palette entries and tile slots used by the enhanced scene.
const (
	demoBlockTile  = 1
	demoRingTile   = 2
	demoSpriteTile = 1

	demoBlockEntry = 0xD0
	demoRingEntry  = 0xD1
	demoSprEntry   = 0xD2
)

// Demo is the built-in program used when no script is given. It walks
// the device through both modes: classic plotting with frame flips
// first, then an enhanced scene with a scrolling tilemap over a
// framebuffer gradient and a sprite the arrow keys steer. The enhanced
// phase runs until stopped.
type Demo struct {
	// ClassicFrames bounds the classic phase. 0 means the default.
	ClassicFrames int
}

// Run implements Program.
func (dm Demo) Run(ctx context.Context, dev *emu.LDC, ctrl Control) error {
	d := &demoRun{ctx: ctx, dev: dev, ctrl: ctrl}

	frames := dm.ClassicFrames
	if frames == 0 {
		frames = 180
	}
	if !d.classicPhase(frames) {
		return nil
	}
	d.enhancedPhase()
	return nil
}

type demoRun struct {
	ctx  context.Context
	dev  *emu.LDC
	ctrl Control
}

// step gates one unit of work. False means stop.
func (d *demoRun) step() bool {
	if d.ctx.Err() != nil {
		return false
	}
	return d.ctrl.CheckPause()
}

// wait sleeps ms in gate-checked slices so pause and stop stay
// responsive.
func (d *demoRun) wait(ms int) bool {
	deadline := time.Now().Add(time.Duration(ms) * time.Millisecond)
	for {
		if !d.step() {
			return false
		}
		remain := time.Until(deadline)
		if remain <= 0 {
			return true
		}
		if remain > 10*time.Millisecond {
			remain = 10 * time.Millisecond
		}
		time.Sleep(remain)
	}
}

func (d *demoRun) plot(x, y int, c uint32) {
	d.dev.Write(emu.ClassicBuffer+uint32(y*classicSide+x), 1, c)
}

// classicPhase bounces a ball inside a color-cycling border, one buffer
// flip per frame. Reports false when stopped.
func (d *demoRun) classicPhase(frames int) bool {
	x, y := 10, 20
	vx, vy := 1, 1

	for t := 0; t < frames; t++ {
		if !d.step() {
			return false
		}

		for i := 0; i < classicSide; i++ {
			c := uint32(1 + (i/4+t/8)%7)
			d.plot(i, 0, c)
			d.plot(i, classicSide-1, c)
			d.plot(0, i, c)
			d.plot(classicSide-1, i, c)
		}

		d.plot(x, y, 7)
		d.plot(x+1, y, 7)
		d.plot(x, y+1, 7)
		d.plot(x+1, y+1, 7)

		x += vx
		y += vy
		if x <= 1 || x >= classicSide-3 {
			vx = -vx
		}
		if y <= 1 || y >= classicSide-3 {
			vy = -vy
		}

		d.dev.Write(emu.RegCtrl, 4, 1)
		if !d.wait(d.dev.Status().MsPerFrame) {
			return false
		}
	}
	return true
}

// writeTile stores one 8x8 tile's indices into a graphics region.
func (d *demoRun) writeTile(base uint32, tile int, px [64]uint8) {
	for i := 0; i < 64; i += 4 {
		v := uint32(px[i]) | uint32(px[i+1])<<8 |
			uint32(px[i+2])<<16 | uint32(px[i+3])<<24
		d.dev.Write(base+uint32(tile*64+i), 4, v)
	}
}

func (d *demoRun) loadTiles() {
	var solid, ring [64]uint8
	for i := range solid {
		solid[i] = demoBlockEntry
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x == 0 || y == 0 || x == 7 || y == 7 {
				ring[y*8+x] = demoRingEntry
			}
		}
	}
	d.writeTile(emu.TmGfxBase, demoBlockTile, solid)
	d.writeTile(emu.TmGfxBase, demoRingTile, ring)

	// a 16x16 diamond spread across four sprite tiles in reading order
	var quad [4][64]uint8
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			dx, dy := x-8, y-8
			if dx < 0 {
				dx = -dx - 1
			}
			if dy < 0 {
				dy = -dy - 1
			}
			if dx+dy < 7 {
				quad[(y/8)*2+x/8][(y%8)*8+x%8] = demoSprEntry
			}
		}
	}
	for i, px := range quad {
		d.writeTile(emu.SprGfxBase, demoSpriteTile+i, px)
	}
}

func (d *demoRun) buildMap() {
	for cy := 0; cy < 32; cy++ {
		for cx := 0; cx < 32; cx++ {
			tile := uint32(demoRingTile)
			if (cx+cy)%2 == 0 {
				tile = demoBlockTile
			}
			d.dev.Write(emu.TmTableBase+uint32((cy*32+cx)*2), 2, tile)
		}
	}
}

// paintGradient fills the framebuffer with a diagonal ramp through the
// default gray entries. It shows through the ring tiles' open centers.
func (d *demoRun) paintGradient() {
	for y := 0; y < emu.ScreenSize; y++ {
		for x := 0; x < emu.ScreenSize; x += 4 {
			var v uint32
			for i := 0; i < 4; i++ {
				v |= uint32(128+((x+i+y)/2)&0x7F) << (8 * i)
			}
			d.dev.Write(emu.FbBase+uint32(y*emu.ScreenSize+x), 4, v)
		}
	}
}

func (d *demoRun) enhancedPhase() {
	dev := d.dev

	// both layers, 16 ms pacing; this write also leaves classic mode
	dev.Write(emu.RegCtrl, 4, 0x00100003)

	dev.Write(emu.PaletteBase+demoBlockEntry*4, 4, 0x00203040)
	dev.Write(emu.PaletteBase+demoRingEntry*4, 4, 0x00FFB000)
	dev.Write(emu.PaletteBase+demoSprEntry*4, 4, 0x0000E060)

	d.loadTiles()
	d.buildMap()
	d.paintGradient()

	spr := func(x, y int) {
		w := uint32(uint8(x)) | uint32(uint8(y))<<8 |
			uint32(demoSpriteTile)<<16 |
			uint32(emu.SprFlagEnable|emu.SprFlagLarge)<<24
		dev.Write(emu.SprTableBase, 4, w)
	}
	held := func(code uint8) bool {
		dev.Write(emu.RegKeyHeld, 4, uint32(code))
		return dev.Read(emu.RegKeyHeld, 4) != 0
	}

	sx, sy := 56, 56
	for t := 0; ; t++ {
		if !d.step() {
			return
		}

		dev.Write(emu.RegTmScx, 4, uint32(t)&0xFF)
		dev.Write(emu.RegTmScy, 4, uint32(t/2)&0xFF)

		if held(emu.KeyLeft) && sx > -15 {
			sx--
		}
		if held(emu.KeyRight) && sx < emu.ScreenSize-1 {
			sx++
		}
		if held(emu.KeyUp) && sy > -15 {
			sy--
		}
		if held(emu.KeyDown) && sy < emu.ScreenSize-1 {
			sy++
		}
		spr(sx, sy)

		// breathe the ring color
		level := t % 510
		if level > 255 {
			level = 510 - level
		}
		dev.Write(emu.PaletteBase+demoRingEntry*4, 4, 0xFF0000|uint32(level)<<8)

		dev.Write(emu.RegSync, 4, 0)
		if !d.wait(dev.Status().MsPerFrame) {
			return
		}
	}
}
