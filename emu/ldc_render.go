package emu

import "image"

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func newLayer() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, ScreenSize, ScreenSize))
}

// clearLayer resets every pixel to transparent.
func clearLayer(img *image.RGBA) {
	pix := img.Pix
	for i := range pix {
		pix[i] = 0
	}
}

// fillBackdrop paints the opaque backdrop color across the scratch frame.
func (d *LDC) fillBackdrop() {
	pix := d.scratch.Pix
	r := d.backdrop[2]
	g := d.backdrop[1]
	b := d.backdrop[0]
	for p := 0; p < len(pix); p += 4 {
		pix[p] = r
		pix[p+1] = g
		pix[p+2] = b
		pix[p+3] = 0xFF
	}
}

// overlay copies src onto the scratch frame, skipping transparent pixels.
func (d *LDC) overlay(src *image.RGBA) {
	dst := d.scratch.Pix
	s := src.Pix
	for p := 0; p < len(s); p += 4 {
		if s[p+3] == 0 {
			continue
		}
		dst[p] = s[p]
		dst[p+1] = s[p+1]
		dst[p+2] = s[p+2]
		dst[p+3] = 0xFF
	}
}

// compositeFrame rebuilds dirty layers and merges them back to front into
// a published frame. Runs on a sync register write.
//
// Merge orders:
//
//	fb only            backdrop, fb, sprites
//	tm only            backdrop, tm low, sprites, tm high
//	both, fb behind    backdrop, fb, tm low, sprites, tm high
//	both, fb in front  backdrop, tm low, sprites, tm high, fb
//
// Sprites composite in every mode.
func (d *LDC) compositeFrame() {
	d.dirty.cascade(d.fbEnabled, d.tmEnabled)

	if d.dirty.fb {
		d.buildFbLayer()
		d.dirty.fb = false
	}
	if d.dirty.tm {
		d.buildTmLayers()
		d.dirty.tm = false
	}
	if d.dirty.spr {
		d.buildSprLayer()
		d.dirty.spr = false
	}

	d.fillBackdrop()
	switch {
	case d.fbEnabled && !d.tmEnabled:
		d.overlay(d.fbLayer)
		d.overlay(d.sprLayer)
	case !d.fbEnabled && d.tmEnabled:
		d.overlay(d.tmLoLayer)
		d.overlay(d.sprLayer)
		d.overlay(d.tmHiLayer)
	case d.fbInFront:
		d.overlay(d.tmLoLayer)
		d.overlay(d.sprLayer)
		d.overlay(d.tmHiLayer)
		d.overlay(d.fbLayer)
	default:
		d.overlay(d.fbLayer)
		d.overlay(d.tmLoLayer)
		d.overlay(d.sprLayer)
		d.overlay(d.tmHiLayer)
	}
	d.publish()
}
