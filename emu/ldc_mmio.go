package emu

// The device decodes a 64KB window. Classic layout:
//
//	0x0000           control (any word write publishes a frame)
//	0x0004           keys, read-only
//	0x0008 - 0x1007  64x64 back buffer, one byte per pixel
//	0x1008 - 0x3007  dead zone, stores absorbed
//	0x3008 - 0xFFFF  out of range, stores set the anomaly flag
//
// Enhanced layout, by 4KB page:
//
//	page 0   global registers (offset < 0x40, word only), input mirror
//	         (0x40 - 0x5F), palette RAM (0xC00 - 0xFFF)
//	1 - 4    framebuffer, 128x128 color indices
//	5        tilemap table (offset < 0x800), then sprite table
//	6 - 9    tilemap tile graphics
//	A - D    sprite tile graphics
//	E - F    unmapped
const (
	RegCtrl     = 0x0000
	RegOrder    = 0x0004
	RegSync     = 0x0008
	RegFbClear  = 0x000C
	RegPalReset = 0x0010
	RegTmScx    = 0x0020
	RegTmScy    = 0x0024

	RegKeyHeld       = 0x0040
	RegKeyPressed    = 0x0044
	RegKeyReleased   = 0x0048
	RegMouseX        = 0x004C
	RegMouseY        = 0x0050
	RegMouseHeld     = 0x0054
	RegMousePressed  = 0x0058
	RegMouseReleased = 0x005C

	PaletteBase  = 0x0C00
	FbBase       = 0x1000
	TmTableBase  = 0x5000
	SprTableBase = 0x5800
	TmGfxBase    = 0x6000
	SprGfxBase   = 0xA000

	// Classic-map offsets. The control register is shared with RegCtrl.
	ClassicKeys   = 0x0004
	ClassicBuffer = 0x0008
)

// Write stores size bytes (1, 2, or 4) of value at the device offset
// addr. Malformed or unmapped writes are ignored.
func (d *LDC) Write(addr uint32, size int, value uint32) {
	if size != 1 && size != 2 && size != 4 {
		return
	}
	addr &= 0xFFFF
	if !d.enhanced {
		d.classicWrite(addr, size, value)
		return
	}
	d.enhancedWrite(addr, size, value)
}

// Read loads size bytes (1, 2, or 4) from the device offset addr.
// Unmapped space reads as zero.
func (d *LDC) Read(addr uint32, size int) uint32 {
	if size != 1 && size != 2 && size != 4 {
		return 0
	}
	addr &= 0xFFFF
	if !d.enhanced {
		return d.classicRead(addr, size)
	}
	return d.enhancedRead(addr, size)
}

func (d *LDC) classicWrite(addr uint32, size int, value uint32) {
	switch {
	case addr < ClassicBuffer:
		if addr == RegCtrl && size == 4 {
			d.writeClassicCtrl(value)
		}
	case addr < ClassicBuffer+classicBufSize:
		writeRegion(d.classicBack[:], addr-ClassicBuffer, size, value)
	case addr < classicDeadEnd:
		// dead zone
	default:
		d.mu.Lock()
		d.anomaly = true
		d.mu.Unlock()
	}
}

func (d *LDC) classicRead(addr uint32, size int) uint32 {
	switch {
	case addr == ClassicKeys:
		if size == 4 {
			return uint32(d.input.classicKeys())
		}
		return 0
	case addr >= ClassicBuffer && addr < ClassicBuffer+classicBufSize:
		return readRegion(d.classicBack[:], addr-ClassicBuffer, size)
	default:
		return 0
	}
}

func (d *LDC) enhancedWrite(addr uint32, size int, value uint32) {
	page := (addr >> 12) & 0xF
	offs := addr & 0xFFF

	switch {
	case page == 0:
		switch {
		case offs < 0x40 && size == 4:
			d.writeGlobal(offs, value)
		case offs < 0x60:
			d.input.WriteRegister(offs, size, value)
		case offs >= PaletteBase:
			d.writePalette(offs-PaletteBase, size, value)
		}
	case page <= 4:
		writeRegion(d.fb[:], addr-FbBase, size, value)
		d.dirty.fb = true
	case page == 5:
		if offs < tmTableSize {
			writeRegion(d.tmTable[:], offs, size, value)
			d.dirty.tm = true
		} else {
			writeRegion(d.sprTable[:], offs-tmTableSize, size, value)
			d.dirty.spr = true
		}
	case page <= 9:
		writeRegion(d.tmGfx[:], addr-TmGfxBase, size, value)
		d.dirty.tm = true
	case page <= 0xD:
		writeRegion(d.sprGfx[:], addr-SprGfxBase, size, value)
		d.dirty.spr = true
	}
}

func (d *LDC) enhancedRead(addr uint32, size int) uint32 {
	page := (addr >> 12) & 0xF
	offs := addr & 0xFFF

	switch {
	case page == 0:
		switch {
		case offs < 0x40 && size == 4:
			return d.readGlobal(offs)
		case offs < 0x60:
			return d.input.ReadRegister(offs, size)
		case offs >= PaletteBase:
			return readRegion(d.palette[:], offs-PaletteBase, size)
		}
		return 0
	case page <= 4:
		return readRegion(d.fb[:], addr-FbBase, size)
	case page == 5:
		if offs < tmTableSize {
			return readRegion(d.tmTable[:], offs, size)
		}
		return readRegion(d.sprTable[:], offs-tmTableSize, size)
	case page <= 9:
		return readRegion(d.tmGfx[:], addr-TmGfxBase, size)
	case page <= 0xD:
		return readRegion(d.sprGfx[:], addr-SprGfxBase, size)
	}
	return 0
}

func (d *LDC) writeGlobal(offs, value uint32) {
	switch offs {
	case RegCtrl:
		d.programCtrl(value)
	case RegOrder:
		d.writeOrder(value)
	case RegSync:
		d.compositeFrame()
	case RegFbClear:
		d.clearFb()
	case RegPalReset:
		d.defaultPalette()
		d.dirty.palette = true
	case RegTmScx:
		d.tmScx = int32(value)
		d.dirty.tm = true
	case RegTmScy:
		d.tmScy = int32(value)
		d.dirty.tm = true
	}
}

func (d *LDC) readGlobal(offs uint32) uint32 {
	switch offs {
	case RegCtrl:
		return d.lastCtrl
	case RegOrder:
		return boolToUint32(d.fbInFront)
	case RegTmScx:
		return uint32(d.tmScx)
	case RegTmScy:
		return uint32(d.tmScy)
	}
	return 0
}

// writeRegion stores size bytes of value little-endian into region at
// offs, clipping silently at the region end.
func writeRegion(region []uint8, offs uint32, size int, value uint32) {
	for i := 0; i < size; i++ {
		p := int(offs) + i
		if p >= len(region) {
			return
		}
		region[p] = uint8(value >> (8 * i))
	}
}

// readRegion assembles up to size bytes little-endian from region at
// offs. Bytes past the region end read as zero.
func readRegion(region []uint8, offs uint32, size int) uint32 {
	var v uint32
	for i := 0; i < size; i++ {
		p := int(offs) + i
		if p >= len(region) {
			break
		}
		v |= uint32(region[p]) << (8 * i)
	}
	return v
}
