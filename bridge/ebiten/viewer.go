// Package ebiten presents the device's published frames in an Ebiten
// window, with optional status and grid overlays and screenshot capture.
package ebiten

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/user-none/emld/emu"
)

const frameBytes = emu.ScreenSize * emu.ScreenSize * 4

// Viewer renders cached device frames to the screen.
type Viewer struct {
	offscreen *ebiten.Image           // Offscreen buffer at the device's native resolution
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation

	clipboardOnce sync.Once
	clipboardOK   bool

	// Placement of the device image on the last draw, used by the mouse
	// mapping and the grid overlay.
	scale   float64
	offsetX float64
	offsetY float64
}

// NewViewer creates a viewer. The offscreen image is allocated on the
// first draw.
func NewViewer() *Viewer {
	return &Viewer{}
}

// Draw renders a ScreenSize-square RGBA frame scaled to fit the screen,
// nearest-neighbor, centered.
func (v *Viewer) Draw(screen *ebiten.Image, pixels []byte) {
	if len(pixels) < frameBytes {
		return
	}
	if v.offscreen == nil {
		v.offscreen = ebiten.NewImage(emu.ScreenSize, emu.ScreenSize)
	}
	v.offscreen.WritePixels(pixels[:frameBytes])

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	native := float64(emu.ScreenSize)
	scale := float64(screenW) / native
	if s := float64(screenH) / native; s < scale {
		scale = s
	}
	v.scale = scale
	v.offsetX = (float64(screenW) - native*scale) / 2
	v.offsetY = (float64(screenH) - native*scale) / 2

	v.drawOpts = ebiten.DrawImageOptions{}
	v.drawOpts.GeoM.Scale(scale, scale)
	v.drawOpts.GeoM.Translate(v.offsetX, v.offsetY)
	v.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(v.offscreen, &v.drawOpts)
}

// DevicePixel maps window coordinates to output-frame pixels. Returns
// -1, -1 when the cursor lies outside the displayed frame.
func (v *Viewer) DevicePixel(wx, wy int) (int, int) {
	if v.scale <= 0 {
		return -1, -1
	}
	x := int((float64(wx) - v.offsetX) / v.scale)
	y := int((float64(wy) - v.offsetY) / v.scale)
	if x < 0 || y < 0 || x >= emu.ScreenSize || y >= emu.ScreenSize {
		return -1, -1
	}
	return x, y
}

// DrawGrid overlays cell boundaries on the frame: classic LED cells are
// two output pixels, enhanced tile cells are eight.
func (v *Viewer) DrawGrid(screen *ebiten.Image, enhanced bool) {
	if v.scale <= 0 {
		return
	}
	step := 2
	if enhanced {
		step = 8
	}
	gridColor := color.RGBA{70, 70, 70, 255}
	size := float64(emu.ScreenSize) * v.scale
	for i := 0; i <= emu.ScreenSize; i += step {
		p := v.offsetX + float64(i)*v.scale
		ebitenutil.DrawLine(screen, p, v.offsetY, p, v.offsetY+size, gridColor)
		q := v.offsetY + float64(i)*v.scale
		ebitenutil.DrawLine(screen, v.offsetX, q, v.offsetX+size, q, gridColor)
	}
}

// DrawStatus paints the status bar along the bottom edge: mode, pacing,
// frame count, the hotkey legend, and a warning when out-of-range
// classic stores have been seen.
func (v *Viewer) DrawStatus(screen *ebiten.Image, st emu.Status, paused bool) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	const barHeight = 30
	if barHeight >= h {
		return
	}
	y := h - barHeight
	ebitenutil.DrawRect(screen, 0, float64(y), float64(w), barHeight, color.RGBA{0, 0, 0, 180})

	face := basicfont.Face7x13
	labelColor := color.RGBA{190, 190, 190, 255}
	legendColor := color.RGBA{120, 120, 120, 255}
	warnColor := color.RGBA{255, 80, 80, 255}

	mode := "CLASSIC"
	if st.Enhanced {
		mode = "ENHANCED"
		if st.FbEnabled {
			mode += " FB"
		}
		if st.TmEnabled {
			mode += " TM"
		}
		if st.FbInFront {
			mode += " FRONT"
		}
	}
	line := fmt.Sprintf("%s  %d ms  frame %d  %.0f fps", mode, st.MsPerFrame, st.Frames, ebiten.ActualFPS())
	if paused {
		line += "  PAUSED"
	}
	text.Draw(screen, line, face, 6, y+12, labelColor)

	legend := "P pause  F5 save  F7 load  F9 shot  F10 reset  F11 full  F12 bar  G grid"
	text.Draw(screen, legend, face, 6, y+25, legendColor)

	if st.Anomaly {
		warn := "OUT-OF-RANGE STORE"
		wx := w - text.BoundString(face, warn).Dx() - 6
		text.Draw(screen, warn, face, wx, y+12, warnColor)
	}
}

// Screenshot encodes the frame as PNG, writes it to a timestamped file
// in the working directory, and places the image on the system
// clipboard. Returns the file name.
func (v *Viewer) Screenshot(pixels []byte) (string, error) {
	if len(pixels) < frameBytes {
		return "", fmt.Errorf("screenshot: short frame (%d bytes)", len(pixels))
	}
	img := &image.RGBA{
		Pix:    make([]byte, frameBytes),
		Stride: emu.ScreenSize * 4,
		Rect:   image.Rect(0, 0, emu.ScreenSize, emu.ScreenSize),
	}
	copy(img.Pix, pixels)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s.png", emu.Name, time.Now().Format("20060102_150405"))
	if err := os.WriteFile(name, buf.Bytes(), 0644); err != nil {
		return "", err
	}

	v.clipboardOnce.Do(func() {
		v.clipboardOK = clipboard.Init() == nil
	})
	if v.clipboardOK {
		clipboard.Write(clipboard.FmtImage, buf.Bytes())
	}
	return name, nil
}
