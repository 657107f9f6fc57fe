// Command tileconv converts a PNG into tile graphics and a tilemap table
// for the display controller. Pixels are quantized to the device's
// default palette, transparent pixels map to index 0, and identical 8x8
// cells share one tile slot. Images larger than 256x256 are cropped to
// the top-left corner.
//
// The default output is a Lua chunk of emld.poke lines ready for the
// script engine; -format raw emits the full tile graphics region
// followed by the tilemap table as binary.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
)

const (
	tileBytes   = 64
	maxTiles    = 256
	mapCells    = 32
	gfxRegion   = 0x4000
	tableRegion = 0x800
)

// Lookup tables for the device's power-on palette.
var (
	intensity = [4]uint8{0, 63, 127, 255}

	classicColors = [16][3]uint8{
		{0, 0, 0},
		{255, 0, 0},
		{255, 127, 0},
		{255, 255, 0},
		{0, 255, 0},
		{51, 102, 255},
		{255, 0, 255},
		{255, 255, 255},
		{63, 63, 63},
		{127, 0, 0},
		{127, 63, 0},
		{192, 142, 91},
		{0, 127, 0},
		{25, 50, 127},
		{63, 0, 127},
		{127, 127, 127},
	}
)

// defaultPalette mirrors the device's power-on palette: entries 1-63 are
// the RGB222 block, 64-79 the classic colors, 128-255 a gray ramp.
func defaultPalette() [256][3]uint8 {
	var pal [256][3]uint8
	for i := 1; i < 64; i++ {
		pal[i] = [3]uint8{
			intensity[(i>>4)&3],
			intensity[(i>>2)&3],
			intensity[i&3],
		}
	}
	for i, c := range classicColors {
		pal[64+i] = c
	}
	for i := 128; i < 256; i++ {
		g := uint8((i - 128) * 2)
		pal[i] = [3]uint8{g, g, g}
	}
	return pal
}

// nearestEntry finds the palette entry closest to r,g,b. Entry 0 is
// transparent and never matched.
func nearestEntry(pal *[256][3]uint8, r, g, b uint8) uint8 {
	best := 1
	bestDist := 1 << 30
	for i := 1; i < 256; i++ {
		dr := int(pal[i][0]) - int(r)
		dg := int(pal[i][1]) - int(g)
		db := int(pal[i][2]) - int(b)
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return uint8(best)
}

// convert quantizes img and splits it into deduplicated tiles plus a
// tilemap table. Tile 0 is always the blank tile so uncovered cells stay
// transparent. Returns the packed tile graphics, the table, and the tile
// count.
func convert(img image.Image) (gfx, table []byte, count int, err error) {
	pal := defaultPalette()
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > mapCells*8 {
		w = mapCells * 8
	}
	if h > mapCells*8 {
		h = mapCells * 8
	}

	blank := make([]byte, tileBytes)
	tiles := map[string]int{string(blank): 0}
	gfx = append(gfx, blank...)
	table = make([]byte, tableRegion)

	for cy := 0; cy*8 < h; cy++ {
		for cx := 0; cx*8 < w; cx++ {
			tile := make([]byte, tileBytes)
			for py := 0; py < 8; py++ {
				for px := 0; px < 8; px++ {
					x, y := cx*8+px, cy*8+py
					if x >= w || y >= h {
						continue
					}
					c := color.RGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
					if c.A < 128 {
						continue
					}
					tile[py*8+px] = nearestEntry(&pal, c.R, c.G, c.B)
				}
			}

			idx, ok := tiles[string(tile)]
			if !ok {
				idx = len(tiles)
				if idx >= maxTiles {
					return nil, nil, 0, fmt.Errorf("too many unique tiles (limit %d)", maxTiles)
				}
				tiles[string(tile)] = idx
				gfx = append(gfx, tile...)
			}
			table[(cy*mapCells+cx)*2] = byte(idx)
		}
	}
	return gfx, table, len(tiles), nil
}

// writeLua emits the converted data as emld.poke lines, skipping words
// that are zero since the regions power on cleared.
func writeLua(w io.Writer, src string, count int, gfx, table []byte) error {
	if _, err := fmt.Fprintf(w, "-- generated by tileconv from %s (%d tiles)\n", src, count); err != nil {
		return err
	}
	regions := []struct {
		base string
		data []byte
	}{
		{"TM_GFX", gfx},
		{"TM_TABLE", table},
	}
	for _, reg := range regions {
		for i := 0; i+4 <= len(reg.data); i += 4 {
			v := binary.LittleEndian.Uint32(reg.data[i:])
			if v == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "emld.poke(emld.%s + 0x%X, 0x%08X)\n", reg.base, i, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeRaw emits the full tile graphics region followed by the tilemap
// table, both zero-padded to their device sizes.
func writeRaw(w io.Writer, gfx, table []byte) error {
	padded := make([]byte, gfxRegion+tableRegion)
	copy(padded, gfx)
	copy(padded[gfxRegion:], table)
	_, err := w.Write(padded)
	return err
}

func main() {
	out := flag.String("o", "", "output file (stdout when empty)")
	format := flag.String("format", "lua", "output format: lua or raw")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: tileconv [options] input.png")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	gfx, table, count, err := convert(img)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	var dst io.Writer = os.Stdout
	if *out != "" {
		of, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		defer of.Close()
		dst = of
	}

	switch *format {
	case "lua":
		err = writeLua(dst, flag.Arg(0), count, gfx, table)
	case "raw":
		err = writeRaw(dst, gfx, table)
	default:
		log.Fatalf("Error: unsupported format %q", *format)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}
