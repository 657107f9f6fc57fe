package emu

const (
	tmTableSize = 0x800  // 32x32 entries x 2 bytes
	tileGfxSize = 0x4000 // 256 tiles x 64 bytes
	tileSize    = 8
	tmCells     = 32
)

// Tilemap entry flag bits (second byte of each entry).
const (
	TileFlagPriority = 0x01
	TileFlagVFlip    = 0x02
	TileFlagHFlip    = 0x04
)

// tilePixel returns the color index at px, py within a tile, honoring the
// flip flags. Tiles are 64 bytes, one index per pixel in reading order.
func tilePixel(gfx []uint8, tile uint8, px, py int, hFlip, vFlip bool) uint8 {
	if hFlip {
		px = tileSize - 1 - px
	}
	if vFlip {
		py = tileSize - 1 - py
	}
	return gfx[int(tile)*64+py*tileSize+px]
}

// buildTmLayers renders the scrolled tilemap into the two cached layers,
// low-priority tiles in one and high-priority in the other. The 32x32 map
// spans 256 pixels each way and scroll wraps modulo that span, so a
// stored -1 lands identically to 255.
func (d *LDC) buildTmLayers() {
	clearLayer(d.tmLoLayer)
	clearLayer(d.tmHiLayer)

	scx := int(uint8(d.tmScx))
	scy := int(uint8(d.tmScy))

	for y := 0; y < ScreenSize; y++ {
		mapY := (y + scy) & 0xFF
		cellY := mapY / tileSize
		pixY := mapY % tileSize
		for x := 0; x < ScreenSize; x++ {
			mapX := (x + scx) & 0xFF
			cellX := mapX / tileSize
			pixX := mapX % tileSize

			entry := (cellY*tmCells + cellX) * 2
			tile := d.tmTable[entry]
			flags := d.tmTable[entry+1]

			idx := tilePixel(d.tmGfx[:], tile, pixX, pixY,
				flags&TileFlagHFlip != 0, flags&TileFlagVFlip != 0)
			if idx == 0 {
				continue
			}

			layer := d.tmLoLayer
			if flags&TileFlagPriority != 0 {
				layer = d.tmHiLayer
			}
			r, g, b := d.paletteColor(idx)
			p := y*layer.Stride + x*4
			layer.Pix[p] = r
			layer.Pix[p+1] = g
			layer.Pix[p+2] = b
			layer.Pix[p+3] = 0xFF
		}
	}
}
