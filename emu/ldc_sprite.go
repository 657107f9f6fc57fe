package emu

const (
	sprTableSize = 0x400 // 256 entries x 4 bytes
	sprCount     = 256
)

// Sprite entry flag bits (fourth byte of each entry). The high nibble
// selects a palette row added to the sprite's color indices.
const (
	SprFlagEnable = 0x01
	SprFlagVFlip  = 0x02
	SprFlagHFlip  = 0x04
	SprFlagLarge  = 0x08 // 16x16 instead of 8x8
)

// buildSprLayer renders all enabled sprites into the cached layer.
// Entries draw from 255 down to 0 so sprite 0 ends up topmost.
func (d *LDC) buildSprLayer() {
	clearLayer(d.sprLayer)

	for i := sprCount - 1; i >= 0; i-- {
		e := i * 4
		flags := d.sprTable[e+3]
		if flags&SprFlagEnable == 0 {
			continue
		}

		x := int(int8(d.sprTable[e]))
		y := int(int8(d.sprTable[e+1]))
		tile := d.sprTable[e+2]
		hFlip := flags&SprFlagHFlip != 0
		vFlip := flags&SprFlagVFlip != 0
		palRow := (flags >> 4) & 0x0F

		size := tileSize
		if flags&SprFlagLarge != 0 {
			size = tileSize * 2
		}

		d.drawSprite(x, y, tile, size, hFlip, vFlip, palRow)
	}
}

// drawSprite paints one sprite, clipping at the display edges. 16x16
// sprites read four consecutive tiles in reading order; flips mirror the
// whole sprite, which both swaps the quadrants and flips within them.
func (d *LDC) drawSprite(x, y int, tile uint8, size int, hFlip, vFlip bool, palRow uint8) {
	pix := d.sprLayer.Pix
	stride := d.sprLayer.Stride

	for sy := 0; sy < size; sy++ {
		oy := y + sy
		if oy < 0 || oy >= ScreenSize {
			continue
		}

		ty := sy
		if vFlip {
			ty = size - 1 - ty
		}

		for sx := 0; sx < size; sx++ {
			ox := x + sx
			if ox < 0 || ox >= ScreenSize {
				continue
			}

			tx := sx
			if hFlip {
				tx = size - 1 - tx
			}

			t := tile
			if size > tileSize {
				t += uint8((ty/tileSize)*2 + tx/tileSize)
			}

			idx := tilePixel(d.sprGfx[:], t, tx%tileSize, ty%tileSize, false, false)
			if idx == 0 {
				continue
			}
			idx += palRow * 16

			r, g, b := d.paletteColor(idx)
			p := oy*stride + ox*4
			pix[p] = r
			pix[p+1] = g
			pix[p+2] = b
			pix[p+3] = 0xFF
		}
	}
}
