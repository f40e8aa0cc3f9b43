package ui

import (
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

const (
	notificationPadding = 6
	notificationMargin  = 4
)

var overlayBackground = color.RGBA{0, 0, 0, 153} // 60% black

// Notification displays a temporary message in the bottom-right corner.
// Show may be called from any goroutine; Draw runs on the Ebiten thread.
type Notification struct {
	mu        sync.Mutex
	message   string
	startTime time.Time
	duration  time.Duration

	now      func() time.Time
	fontFace text.Face
	bg       *ebiten.Image
}

// NewNotification creates a new notification system
func NewNotification() *Notification {
	return &Notification{
		now:      time.Now,
		fontFace: text.NewGoXFace(basicfont.Face7x13),
	}
}

// Show displays a notification message
func (n *Notification) Show(message string, duration time.Duration) {
	n.mu.Lock()
	n.message = message
	n.startTime = n.now()
	n.duration = duration
	n.mu.Unlock()
}

// ShowDefault displays a notification with default 3 second duration
func (n *Notification) ShowDefault(message string) {
	n.Show(message, 3*time.Second)
}

// ShowShort displays a notification with 1 second duration
func (n *Notification) ShowShort(message string) {
	n.Show(message, time.Second)
}

// Clear hides the current message
func (n *Notification) Clear() {
	n.mu.Lock()
	n.message = ""
	n.mu.Unlock()
}

// Current returns the visible message, or "" once it has expired
func (n *Notification) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.message == "" || n.now().Sub(n.startTime) >= n.duration {
		return ""
	}
	return n.message
}

// Draw renders the notification
func (n *Notification) Draw(screen *ebiten.Image) {
	msg := n.Current()
	if msg == "" {
		return
	}

	bounds := screen.Bounds()
	textWidth, textHeight := text.Measure(msg, n.fontFace, 0)
	bgWidth := int(textWidth) + notificationPadding*2
	bgHeight := int(textHeight) + notificationPadding*2
	bgX := bounds.Dx() - bgWidth - notificationMargin
	bgY := bounds.Dy() - bgHeight - notificationMargin

	n.bg = drawPanel(screen, n.bg, bgX, bgY, bgWidth, bgHeight)

	textOpts := &text.DrawOptions{}
	textOpts.GeoM.Translate(float64(bgX+notificationPadding), float64(bgY+notificationPadding))
	textOpts.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, msg, n.fontFace, textOpts)
}

// drawPanel draws a translucent box, reusing cached when it has the right size.
func drawPanel(screen, cached *ebiten.Image, x, y, w, h int) *ebiten.Image {
	if w <= 0 || h <= 0 {
		return cached
	}
	if cached == nil || cached.Bounds().Dx() != w || cached.Bounds().Dy() != h {
		if cached != nil {
			cached.Deallocate()
		}
		cached = ebiten.NewImage(w, h)
		cached.Fill(overlayBackground)
	}
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(cached, opts)
	return cached
}
