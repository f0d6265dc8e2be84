package matrixvision

import (
	"fmt"
	"image"
	"io"
	"time"
)

type Terminal interface {
	ResetCursor(rows int)
	ShowCursor(show bool)
}

type Xterm struct {
	Writer io.Writer
}

// Move the cursor to the beginning of the line and up rows
func (term *Xterm) ResetCursor(rows int) {
	term.Writer.Write([]byte(fmt.Sprintf("\033[999D\033[%dA", rows)))
}

func (term *Xterm) ShowCursor(show bool) {
	if show {
		term.Writer.Write([]byte("\033[?12l\033[?25h"))
	} else {
		term.Writer.Write([]byte("\033[?25l"))
	}
}

// Player draws successive frames over each other in a terminal at a fixed
// frame rate.
type Player struct {
	enc   *BrailleEncoder
	t     Terminal
	delay time.Duration
	next  <-chan time.Time
	drawn int
}

// NewPlayer returns a Player writing to w. If t is nil an Xterm on w is used.
func NewPlayer(w io.Writer, t Terminal, fps int, opts ...BrailleOpt) *Player {
	if t == nil {
		t = &Xterm{
			Writer: w,
		}
	}
	return &Player{
		enc:   NewBrailleEncoder(w, opts...),
		t:     t,
		delay: time.Second / time.Duration(fps),
	}
}

// Start hides the cursor. Call Stop when done.
func (p *Player) Start() {
	p.t.ShowCursor(false)
}

// Show waits out the previous frame's delay, then draws img in place of it.
func (p *Player) Show(img image.Image) error {
	if p.next != nil {
		<-p.next
	}
	p.next = time.After(p.delay)
	if p.drawn > 0 {
		p.t.ResetCursor(p.drawn)
	}
	if err := p.enc.Encode(img); err != nil {
		return err
	}
	p.drawn = p.enc.Lines(img)
	return nil
}

// Stop restores the cursor below the last frame.
func (p *Player) Stop() {
	p.t.ShowCursor(true)
}
