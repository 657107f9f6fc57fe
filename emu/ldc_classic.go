package emu

const (
	classicBufSize = classicSize * classicSize

	// classicDeadEnd bounds the absorbed window past the back buffer.
	// The address space once held a secondary buffer there, so stores
	// into it are ignored rather than flagged.
	classicDeadEnd = 0x3008
)

// classicColors is the fixed classic-mode palette, one RGB triple per
// low-nibble color index. It reappears in the enhanced default palette as
// entries 64-79.
var classicColors = [16][3]uint8{
	{0, 0, 0},       // black
	{255, 0, 0},     // red
	{255, 127, 0},   // orange
	{255, 255, 0},   // yellow
	{0, 255, 0},     // green
	{51, 102, 255},  // blue
	{255, 0, 255},   // magenta
	{255, 255, 255}, // white
	{63, 63, 63},    // dim gray
	{127, 0, 0},     // dark red
	{127, 63, 0},    // brown
	{192, 142, 91},  // tan
	{0, 127, 0},     // dark green
	{25, 50, 127},   // navy
	{63, 0, 127},    // violet
	{127, 127, 127}, // gray
}

// flipClassic publishes the back buffer. Any control write copies back to
// front; a non-zero value then wipes the back buffer so the writer starts
// the next frame from black.
func (d *LDC) flipClassic(value uint32) {
	d.classicFront = d.classicBack
	if value != 0 {
		d.classicBack = [classicBufSize]uint8{}
	}
	d.renderClassic()
	d.publish()
}

// renderClassic paints the front buffer into the scratch frame, doubling
// each classic pixel to 2x2 output pixels.
func (d *LDC) renderClassic() {
	pix := d.scratch.Pix
	stride := d.scratch.Stride

	for y := 0; y < classicSize; y++ {
		row := y * classicSize
		for x := 0; x < classicSize; x++ {
			c := classicColors[d.classicFront[row+x]&0x0F]
			for dy := 0; dy < 2; dy++ {
				p := (y*2+dy)*stride + x*2*4
				pix[p] = c[0]
				pix[p+1] = c[1]
				pix[p+2] = c[2]
				pix[p+3] = 0xFF
				pix[p+4] = c[0]
				pix[p+5] = c[1]
				pix[p+6] = c[2]
				pix[p+7] = 0xFF
			}
		}
	}
}
