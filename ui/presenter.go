package ui

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/enc1020/emu"
)

// Presenter draws the latest published LCD frame. It runs on the Ebiten
// thread and only ever blocks on the framebuffer's lock.
type Presenter struct {
	fb         *SharedFramebuffer
	foreground color.RGBA
	background color.RGBA
	scale      float64

	lcd      *ebiten.Image
	rgba     []byte
	lastSeq  uint64
	drawOpts ebiten.DrawImageOptions
}

// NewPresenter creates a presenter that scales the LCD to hostWidth pixels.
// The scale is fixed for the presenter's lifetime.
func NewPresenter(fb *SharedFramebuffer, hostWidth int, foreground, background color.RGBA) *Presenter {
	return &Presenter{
		fb:         fb,
		foreground: foreground,
		background: background,
		scale:      lcdScale(hostWidth),
		rgba:       make([]byte, emu.ExpandedSize*4),
	}
}

// lcdScale returns the host pixels per LCD pixel for a host width.
func lcdScale(hostWidth int) float64 {
	if hostWidth <= 0 {
		return 1
	}
	return float64(hostWidth) / emu.Cols
}

// Scale returns the fixed host pixels per LCD pixel.
func (p *Presenter) Scale() float64 {
	return p.scale
}

// Draw fills the background and draws the LCD scaled on top. A nil screen
// is ignored.
func (p *Presenter) Draw(screen *ebiten.Image) {
	if screen == nil {
		return
	}

	pixels, seq := p.fb.Read()
	if p.lcd == nil {
		p.lcd = ebiten.NewImage(emu.Cols, emu.Rows)
	}
	if seq != p.lastSeq {
		colorize(p.rgba, pixels, p.foreground)
		p.lcd.WritePixels(p.rgba)
		p.lastSeq = seq
	}

	screen.Fill(p.background)

	screenH := float64(screen.Bounds().Dy())
	offsetY := (screenH - emu.Rows*p.scale) / 2
	if offsetY < 0 {
		offsetY = 0
	}

	p.drawOpts = ebiten.DrawImageOptions{}
	p.drawOpts.GeoM.Scale(p.scale, p.scale)
	p.drawOpts.GeoM.Translate(0, offsetY)
	p.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(p.lcd, &p.drawOpts)
}

// Snapshot composes the current frame over the background at native
// resolution.
func (p *Presenter) Snapshot() *image.NRGBA {
	pixels, _ := p.fb.Read()
	return composeFrame(pixels, p.foreground, p.background)
}

// colorize writes premultiplied RGBA for each LCD pixel into dst: the
// foreground color with the pixel value as alpha.
func colorize(dst, pixels []byte, fg color.RGBA) {
	for i, a := range pixels {
		o := dst[i*4 : i*4+4 : i*4+4]
		o[0] = byte(uint16(fg.R) * uint16(a) / 0xFF)
		o[1] = byte(uint16(fg.G) * uint16(a) / 0xFF)
		o[2] = byte(uint16(fg.B) * uint16(a) / 0xFF)
		o[3] = a
	}
}

// composeFrame blends the foreground over the background by pixel value.
func composeFrame(pixels []byte, fg, bg color.RGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, emu.Cols, emu.Rows))
	for i, a := range pixels[:emu.ExpandedSize] {
		o := img.Pix[i*4 : i*4+4 : i*4+4]
		o[0] = blend(bg.R, fg.R, a)
		o[1] = blend(bg.G, fg.G, a)
		o[2] = blend(bg.B, fg.B, a)
		o[3] = 0xFF
	}
	return img
}

func blend(bg, fg, a byte) byte {
	return byte((uint16(bg)*uint16(0xFF-a) + uint16(fg)*uint16(a)) / 0xFF)
}
