package ui

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/user-none/enc1020/emu"
	"golang.org/x/image/font/basicfont"
)

const perfWindow = time.Second

// PerfCounter samples frame and cycle totals and reports rates over the
// last full window.
type PerfCounter struct {
	start      time.Time
	frames     uint64
	cycles     uint64
	started    bool
	fps        float64
	speed      float64 // percent of the native clock
	lastCycles uint64
}

// Sample records the running totals at now. It reports true when a new
// window was closed and the rates changed.
func (p *PerfCounter) Sample(now time.Time, frames, cycles uint64) bool {
	p.lastCycles = cycles
	if !p.started {
		p.start, p.frames, p.cycles, p.started = now, frames, cycles, true
		return false
	}

	elapsed := now.Sub(p.start)
	if elapsed < perfWindow {
		return false
	}

	secs := elapsed.Seconds()
	p.fps = float64(frames-p.frames) / secs
	p.speed = float64(cycles-p.cycles) / secs / emu.CyclesPerSecond * 100
	p.start, p.frames, p.cycles = now, frames, cycles
	return true
}

// FPS returns frames per second over the last window.
func (p *PerfCounter) FPS() float64 {
	return p.fps
}

// Speed returns emulation speed as a percentage of 5.12 MHz.
func (p *PerfCounter) Speed() float64 {
	return p.speed
}

func (p *PerfCounter) String() string {
	return fmt.Sprintf("%.0f fps  %d cycles  %.0f%%", p.fps, p.lastCycles, p.speed)
}

// PerfOverlay draws the perf line in the top-left corner.
type PerfOverlay struct {
	counter  PerfCounter
	line     string
	fontFace text.Face
	bg       *ebiten.Image
}

// NewPerfOverlay creates an overlay with an empty line.
func NewPerfOverlay() *PerfOverlay {
	return &PerfOverlay{
		fontFace: text.NewGoXFace(basicfont.Face7x13),
	}
}

// Update feeds the driver totals. The text only changes once per window.
func (o *PerfOverlay) Update(now time.Time, frames, cycles uint64) {
	if o.counter.Sample(now, frames, cycles) {
		o.line = o.counter.String()
	}
}

// Draw renders the current line, if any.
func (o *PerfOverlay) Draw(screen *ebiten.Image) {
	if o.line == "" {
		return
	}
	w, h := text.Measure(o.line, o.fontFace, 0)
	o.bg = drawPanel(screen, o.bg, notificationMargin, notificationMargin,
		int(w)+notificationPadding*2, int(h)+notificationPadding*2)

	opts := &text.DrawOptions{}
	opts.GeoM.Translate(float64(notificationMargin+notificationPadding), float64(notificationMargin+notificationPadding))
	opts.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, o.line, o.fontFace, opts)
}
