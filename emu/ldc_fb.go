package emu

const fbSize = ScreenSize * ScreenSize

// clearFb zeroes the framebuffer region.
func (d *LDC) clearFb() {
	d.fb = [fbSize]uint8{}
	d.dirty.fb = true
}

// buildFbLayer resolves framebuffer color indices into the cached layer.
// Index 0 stays transparent so lower layers show through.
func (d *LDC) buildFbLayer() {
	pix := d.fbLayer.Pix
	for i, idx := range d.fb {
		p := i * 4
		if idx == 0 {
			pix[p] = 0
			pix[p+1] = 0
			pix[p+2] = 0
			pix[p+3] = 0
			continue
		}
		r, g, b := d.paletteColor(idx)
		pix[p] = r
		pix[p+1] = g
		pix[p+2] = b
		pix[p+3] = 0xFF
	}
}
