package emu

// dirtySet tracks which cached layers must be rebuilt before the next
// composite. The palette bit fans out: palette changes invalidate every
// layer that resolves colors through it.
type dirtySet struct {
	palette bool
	fb      bool
	tm      bool
	spr     bool
}

// markAll flags every cache. Used at reset and state restore.
func (d *dirtySet) markAll() {
	d.palette = true
	d.fb = true
	d.tm = true
	d.spr = true
}

// cascade propagates the palette bit into the layers that depend on it,
// then clears it. fbOn and tmOn gate the fan-out to layers that will
// actually composite; sprites always composite, so they are always marked.
func (d *dirtySet) cascade(fbOn, tmOn bool) {
	if !d.palette {
		return
	}
	if fbOn {
		d.fb = true
	}
	if tmOn {
		d.tm = true
	}
	d.spr = true
	d.palette = false
}
