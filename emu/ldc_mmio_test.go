package emu

import "testing"

// --- Dispatch tests ---

func TestMMIO_WidthGate(t *testing.T) {
	d := makeTestLDC()
	d.Write(RegCtrl, 4, 257)
	frames := d.Status().Frames

	// global registers are word-only
	d.Write(RegSync, 1, 1)
	d.Write(RegSync, 2, 1)
	if got := d.Status().Frames; got != frames {
		t.Errorf("expected narrow sync writes ignored, frames went %d to %d", frames, got)
	}

	d.Write(RegSync, 4, 1)
	if got := d.Status().Frames; got != frames+1 {
		t.Errorf("expected word sync to composite, got %d frames", got)
	}

	// malformed sizes are dropped everywhere
	d.Write(FbBase, 3, 0xFF)
	if d.fb[0] != 0 {
		t.Errorf("expected size-3 write ignored, got 0x%02X", d.fb[0])
	}
	if v := d.Read(FbBase, 8); v != 0 {
		t.Errorf("expected size-8 read to return 0, got 0x%08X", v)
	}
}

func TestMMIO_RegionRoundTrip(t *testing.T) {
	d := makeTestLDC()
	d.Write(RegCtrl, 4, 257)

	regions := []struct {
		name string
		base uint32
	}{
		{"framebuffer", FbBase},
		{"tilemap table", TmTableBase},
		{"sprite table", SprTableBase},
		{"tilemap graphics", TmGfxBase},
		{"sprite graphics", SprGfxBase},
	}

	for _, reg := range regions {
		d.Write(reg.base+4, 4, 0x11223344)
		if v := d.Read(reg.base+4, 4); v != 0x11223344 {
			t.Errorf("%s: expected word round-trip, got 0x%08X", reg.name, v)
		}
		// little-endian byte order
		if v := d.Read(reg.base+4, 1); v != 0x44 {
			t.Errorf("%s: expected low byte first, got 0x%02X", reg.name, v)
		}
		if v := d.Read(reg.base+6, 2); v != 0x1122 {
			t.Errorf("%s: expected high half at +2, got 0x%04X", reg.name, v)
		}
	}
}

func TestMMIO_RegionClipping(t *testing.T) {
	d := makeTestLDC()
	d.Write(RegCtrl, 4, 257)

	// the last framebuffer byte is at FbBase+fbSize-1
	d.Write(FbBase+fbSize-2, 4, 0xAABBCCDD)
	if d.fb[fbSize-2] != 0xDD || d.fb[fbSize-1] != 0xCC {
		t.Errorf("expected clipped write to store leading bytes, got 0x%02X 0x%02X",
			d.fb[fbSize-2], d.fb[fbSize-1])
	}
	if d.tmTable[0] != 0 {
		t.Error("expected clipped write not to spill into the next region")
	}

	if v := d.Read(FbBase+fbSize-2, 4); v != 0x0000CCDD {
		t.Errorf("expected clipped read to zero-fill, got 0x%08X", v)
	}
}

func TestMMIO_PageFiveSplit(t *testing.T) {
	d := makeTestLDC()
	d.Write(RegCtrl, 4, 257)

	d.Write(TmTableBase+0x7FE, 2, 0x0102)
	d.Write(SprTableBase, 2, 0x0304)

	if d.tmTable[0x7FE] != 0x02 || d.tmTable[0x7FF] != 0x01 {
		t.Error("expected write below 0x800 to land in the tilemap table")
	}
	if d.sprTable[0] != 0x04 || d.sprTable[1] != 0x03 {
		t.Error("expected write at 0x800 to land in the sprite table")
	}
}

func TestMMIO_UnmappedPages(t *testing.T) {
	d := makeTestLDC()
	d.Write(RegCtrl, 4, 257)

	d.Write(0xE000, 4, 0xFFFFFFFF)
	d.Write(0xF123, 1, 0xFF)

	if v := d.Read(0xE000, 4); v != 0 {
		t.Errorf("expected unmapped read 0, got 0x%08X", v)
	}
	if d.Status().Anomaly {
		t.Error("expected enhanced unmapped writes not to raise the anomaly flag")
	}
}

func TestMMIO_DirtyMarking(t *testing.T) {
	d := makeTestLDC()
	d.Write(RegCtrl, 4, 0x00100103)
	d.Write(RegSync, 4, 1) // settle all dirty bits

	cases := []struct {
		name  string
		write func()
		check func() bool
	}{
		{"framebuffer", func() { d.Write(FbBase, 1, 1) }, func() bool { return d.dirty.fb }},
		{"tilemap table", func() { d.Write(TmTableBase, 1, 1) }, func() bool { return d.dirty.tm }},
		{"tilemap graphics", func() { d.Write(TmGfxBase, 1, 1) }, func() bool { return d.dirty.tm }},
		{"sprite table", func() { d.Write(SprTableBase, 1, 1) }, func() bool { return d.dirty.spr }},
		{"sprite graphics", func() { d.Write(SprGfxBase, 1, 1) }, func() bool { return d.dirty.spr }},
		{"scroll x", func() { d.Write(RegTmScx, 4, 1) }, func() bool { return d.dirty.tm }},
		{"scroll y", func() { d.Write(RegTmScy, 4, 1) }, func() bool { return d.dirty.tm }},
		{"palette", func() { d.Write(PaletteBase+8, 4, 1) }, func() bool { return d.dirty.palette }},
		{"palette reset", func() { d.Write(RegPalReset, 4, 1) }, func() bool { return d.dirty.palette }},
		{"fb clear", func() { d.Write(RegFbClear, 4, 1) }, func() bool { return d.dirty.fb }},
	}

	for _, tc := range cases {
		d.Write(RegSync, 4, 1)
		tc.write()
		if !tc.check() {
			t.Errorf("%s: expected write to mark its layer dirty", tc.name)
		}
	}
}

func TestMMIO_ScrollReadback(t *testing.T) {
	d := makeTestLDC()
	d.Write(RegCtrl, 4, 257)

	d.Write(RegTmScx, 4, 0xFFFFFFFF)
	d.Write(RegTmScy, 4, 513)

	if v := d.Read(RegTmScx, 4); v != 0xFFFFFFFF {
		t.Errorf("expected raw scroll readback, got 0x%08X", v)
	}
	if v := d.Read(RegTmScy, 4); v != 513 {
		t.Errorf("expected raw scroll readback, got %d", v)
	}
}
