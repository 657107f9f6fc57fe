package emu

// rgb222 maps a 2-bit channel level to its display intensity.
var rgb222 = [4]uint8{0, 63, 127, 255}

// defaultPalette loads the power-on palette: entry 0 transparent, 1-63 an
// RGB222 cube, 64-79 the classic colors, 80-127 black, 128-255 a gray
// ramp. The backdrop resets to opaque black.
func (d *LDC) defaultPalette() {
	for i := range d.palette {
		d.palette[i] = 0
	}
	for i := 1; i < 64; i++ {
		d.setPaletteRGB(i, rgb222[(i>>4)&3], rgb222[(i>>2)&3], rgb222[i&3])
	}
	for i, c := range classicColors {
		d.setPaletteRGB(64+i, c[0], c[1], c[2])
	}
	for i := 128; i < 256; i++ {
		level := uint8((i - 128) * 2)
		d.setPaletteRGB(i, level, level, level)
	}
	d.backdrop = [4]uint8{0, 0, 0, 255}
}

// setPaletteRGB stores one entry. Entries are kept as [B, G, R, 0].
func (d *LDC) setPaletteRGB(entry int, r, g, b uint8) {
	p := entry * 4
	d.palette[p] = b
	d.palette[p+1] = g
	d.palette[p+2] = r
	d.palette[p+3] = 0
}

// paletteColor resolves a color index to R, G, B.
func (d *LDC) paletteColor(index uint8) (r, g, b uint8) {
	p := int(index) * 4
	return d.palette[p+2], d.palette[p+1], d.palette[p]
}

// writePalette merges a write into palette RAM. Entry 0 always renders
// transparent, so writes to it retarget the backdrop color instead and
// skip the dirty flag.
func (d *LDC) writePalette(offs uint32, size int, value uint32) {
	entry := int(offs / 4)
	byteOffs := int(offs & 3)
	if entry == 0 {
		mergeColor(d.backdrop[:], byteOffs, size, value)
		return
	}
	mergeColor(d.palette[entry*4:entry*4+4], byteOffs, size, value)
	d.dirty.palette = true
}

// mergeColor applies a partial write to one [B, G, R, x] entry. A word
// write carries 0x00RRGGBB; a halfword at the entry start carries green
// and blue, anywhere else red; a byte lands on the channel at its offset.
// The fourth byte is untouched.
func mergeColor(c []uint8, offs, size int, value uint32) {
	switch size {
	case 4:
		c[0] = uint8(value)
		c[1] = uint8(value >> 8)
		c[2] = uint8(value >> 16)
	case 2:
		if offs == 0 {
			c[0] = uint8(value)
			c[1] = uint8(value >> 8)
		} else {
			c[2] = uint8(value)
		}
	case 1:
		if offs < 3 {
			c[offs] = uint8(value)
		}
	}
}
