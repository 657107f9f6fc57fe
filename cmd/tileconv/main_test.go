package main

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

// redCellImage builds a 24x8 image: a solid red cell, a transparent
// cell, then another solid red cell.
func redCellImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 24, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
			img.Set(16+x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	return img
}

func TestConvert_DedupAndQuantize(t *testing.T) {
	gfx, table, count, err := convert(redCellImage())
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected the blank tile plus one red tile, got %d tiles", count)
	}
	if len(gfx) != 2*tileBytes {
		t.Errorf("expected %d gfx bytes, got %d", 2*tileBytes, len(gfx))
	}

	// Pure red matches RGB222 entry 0x30 exactly.
	if gfx[tileBytes] != 0x30 {
		t.Errorf("expected red quantized to palette entry 0x30, got 0x%02X", gfx[tileBytes])
	}

	if table[0] != 1 {
		t.Errorf("expected first cell to use tile 1, got %d", table[0])
	}
	if table[2] != 0 {
		t.Errorf("expected transparent cell to keep the blank tile, got %d", table[2])
	}
	if table[4] != 1 {
		t.Errorf("expected third cell deduplicated onto tile 1, got %d", table[4])
	}
}

func TestConvert_TransparentPixelsStayZero(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(3, 3, color.RGBA{0, 255, 0, 255})

	gfx, _, count, err := convert(img)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected two tiles, got %d", count)
	}
	tile := gfx[tileBytes : 2*tileBytes]
	for i, b := range tile {
		switch {
		case i == 3*8+3 && b == 0:
			t.Errorf("expected the green pixel quantized to a nonzero entry")
		case i != 3*8+3 && b != 0:
			t.Errorf("expected transparent pixel at %d to stay 0, got 0x%02X", i, b)
		}
	}
}

func TestWriteLua_SkipsZeroWords(t *testing.T) {
	gfx, table, count, err := convert(redCellImage())
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	var sb strings.Builder
	if err := writeLua(&sb, "cells.png", count, gfx, table); err != nil {
		t.Fatalf("writeLua failed: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "emld.poke(emld.TM_GFX + 0x40, 0x30303030)") {
		t.Errorf("expected a poke for the red tile row, got:\n%s", out)
	}
	if !strings.Contains(out, "emld.poke(emld.TM_TABLE + 0x0, 0x00000001)") {
		t.Errorf("expected a poke for the first tilemap word, got:\n%s", out)
	}
	if strings.Contains(out, "0x00000000") {
		t.Errorf("expected zero words skipped, got:\n%s", out)
	}
}

func TestConvert_RejectsTooManyTiles(t *testing.T) {
	// 256 cells each carrying a distinct bit pattern, plus the blank
	// tile, overflows the tile byte.
	img := image.NewRGBA(image.Rect(0, 0, 256, 64))
	white := color.RGBA{255, 255, 255, 255}
	n := 0
	for cy := 0; cy < 8; cy++ {
		for cx := 0; cx < 32; cx++ {
			img.Set(cx*8, cy*8+1, white)
			for bit := 0; bit < 8; bit++ {
				if n&(1<<bit) != 0 {
					img.Set(cx*8+bit, cy*8, white)
				}
			}
			n++
		}
	}

	if _, _, _, err := convert(img); err == nil {
		t.Errorf("expected an error for more than 256 unique tiles")
	}
}
