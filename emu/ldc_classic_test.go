package emu

import "testing"

// --- Classic mode tests ---

func TestClassic_BufferWriteAndRead(t *testing.T) {
	d := makeTestLDC()

	d.Write(ClassicBuffer, 4, 0x04030201)
	if v := d.Read(ClassicBuffer, 4); v != 0x04030201 {
		t.Errorf("expected buffer round-trip, got 0x%08X", v)
	}
	if d.classicBack[0] != 1 || d.classicBack[3] != 4 {
		t.Error("expected little-endian pixel order in the back buffer")
	}
}

func TestClassic_FlipCopiesAndClears(t *testing.T) {
	d := makeTestLDC()

	d.Write(ClassicBuffer, 1, 7)

	// zero control: copy without clearing
	d.Write(RegCtrl, 4, 0)
	if d.classicFront[0] != 7 {
		t.Error("expected flip to copy back to front")
	}
	if d.classicBack[0] != 7 {
		t.Error("expected zero control to preserve the back buffer")
	}

	// non-zero control: copy then clear
	d.Write(RegCtrl, 4, 1)
	if d.classicFront[0] != 7 {
		t.Error("expected flip to copy the surviving pixel")
	}
	if d.classicBack[0] != 0 {
		t.Error("expected non-zero control to clear the back buffer")
	}

	// the next flip publishes the cleared buffer
	d.Write(RegCtrl, 4, 1)
	if d.classicFront[0] != 0 {
		t.Error("expected the cleared buffer to reach the front")
	}
}

func TestClassic_EndToEndRedPixel(t *testing.T) {
	d := makeTestLDC()

	d.Write(ClassicBuffer, 1, 1) // color 1 is red
	d.Write(RegCtrl, 4, 1)

	// one classic pixel covers a 2x2 output block
	for _, pt := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		r, g, b, _ := framePixel(d, pt[0], pt[1])
		if r != 255 || g != 0 || b != 0 {
			t.Errorf("expected red at %d,%d, got %d,%d,%d", pt[0], pt[1], r, g, b)
		}
	}
	if r, _, _, _ := framePixel(d, 2, 0); r != 0 {
		t.Errorf("expected black beside the doubled pixel, got r=%d", r)
	}
}

func TestClassic_HighNibbleIgnored(t *testing.T) {
	d := makeTestLDC()

	d.Write(ClassicBuffer, 1, 0xF7) // low nibble 7 is white
	d.Write(RegCtrl, 4, 0)

	r, g, b, _ := framePixel(d, 0, 0)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("expected white from the low nibble, got %d,%d,%d", r, g, b)
	}
}

func TestClassic_PixelPlacement(t *testing.T) {
	d := makeTestLDC()

	// pixel (5, 3) in the 64x64 grid
	d.Write(ClassicBuffer+3*64+5, 1, 4) // color 4 is green
	d.Write(RegCtrl, 4, 0)

	r, g, b, _ := framePixel(d, 10, 6)
	if r != 0 || g != 255 || b != 0 {
		t.Errorf("expected green at the doubled position, got %d,%d,%d", r, g, b)
	}
}

func TestClassic_DeadZoneIgnored(t *testing.T) {
	d := makeTestLDC()

	d.Write(0x1008, 4, 0xFFFFFFFF)
	d.Write(0x2008, 1, 0xFF)
	d.Write(0x3007, 1, 0xFF)

	if d.Status().Anomaly {
		t.Error("expected dead zone writes not to raise the anomaly flag")
	}
	if v := d.Read(0x2008, 4); v != 0 {
		t.Errorf("expected dead zone to read 0, got 0x%08X", v)
	}
}

func TestClassic_OutOfRangeSetsAnomaly(t *testing.T) {
	d := makeTestLDC()

	d.Write(0x3008, 4, 1)
	if !d.Status().Anomaly {
		t.Error("expected out-of-range write to set the anomaly flag")
	}

	// sticky until reset
	d.Write(RegCtrl, 4, 0)
	if !d.Status().Anomaly {
		t.Error("expected the anomaly flag to stay set")
	}
	d.Reset()
	if d.Status().Anomaly {
		t.Error("expected reset to clear the anomaly flag")
	}
}

func TestClassic_KeysReadOnly(t *testing.T) {
	d := makeTestLDC()

	var held KeySet
	held.Set(KeyLeft)
	held.Set('Z')
	d.Input().UpdateKeys(held, KeySet{}, KeySet{})

	if v := d.Read(ClassicKeys, 4); v != ClassicKeyLeft|ClassicKeyZ {
		t.Errorf("expected left+Z bits, got 0x%02X", v)
	}

	// writes to the keys word land nowhere
	d.Write(ClassicKeys, 4, 0xFF)
	if v := d.Read(ClassicKeys, 4); v != ClassicKeyLeft|ClassicKeyZ {
		t.Errorf("expected keys unchanged by write, got 0x%02X", v)
	}

	// narrow reads are not decoded
	if v := d.Read(ClassicKeys, 1); v != 0 {
		t.Errorf("expected narrow keys read to return 0, got 0x%02X", v)
	}
}
