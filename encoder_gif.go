package matrixvision

import (
	"image"
	"image/color"
	"image/gif"
	"math"
)

// greenPalette is a 256 step ramp from black to MatrixGreen. Every pixel the
// compositor produces is MatrixGreen scaled by some coverage, so the ramp
// holds the frames without dithering.
var greenPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.RGBA{
			R: uint8(uint32(MatrixGreen.R) * uint32(i) / 0xff),
			G: uint8(uint32(MatrixGreen.G) * uint32(i) / 0xff),
			B: uint8(uint32(MatrixGreen.B) * uint32(i) / 0xff),
			A: 0xff,
		}
	}
	return p
}()

// gifEncoder converts frames to the green palette and writes an animated
// GIF on Finalize. GIF delays are in hundredths of a second, so frame rates
// that do not divide 100 play slightly off speed.
type gifEncoder struct {
	frameGate
	out   sink
	delay int
	anim  gif.GIF
}

func newGIFEncoder(out sink, cfg AnimationConfig) *gifEncoder {
	return &gifEncoder{
		frameGate: frameGate{format: FormatGIF},
		out:       out,
		delay:     max(int(math.Round(100/float64(cfg.FrameRate))), 1),
	}
}

func (e *gifEncoder) AddFrame(frame *image.RGBA) error {
	if err := e.admit(frame); err != nil {
		return err
	}
	e.anim.Image = append(e.anim.Image, toGreenPaletted(frame))
	e.anim.Delay = append(e.anim.Delay, e.delay)
	e.anim.Disposal = append(e.anim.Disposal, gif.DisposalNone)
	e.n++
	return nil
}

func (e *gifEncoder) Finalize() error {
	if err := e.finish(e.out); err != nil {
		return err
	}
	if err := gif.EncodeAll(e.out, &e.anim); err != nil {
		return e.fail(e.out, -1, err)
	}
	if err := e.out.Commit(); err != nil {
		return e.fail(e.out, -1, err)
	}
	return nil
}

func (e *gifEncoder) Abort() error {
	e.done = true
	e.anim = gif.GIF{}
	return e.out.Discard()
}

// toGreenPaletted indexes each pixel by its green channel, the brightest
// channel of MatrixGreen.
func toGreenPaletted(frame *image.RGBA) *image.Paletted {
	b := frame.Bounds()
	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), greenPalette)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := frame.PixOffset(b.Min.X+x, b.Min.Y+y)
			g := uint32(frame.Pix[i+1])
			p.Pix[y*p.Stride+x] = uint8(min(g*0xff/uint32(MatrixGreen.G), 0xff))
		}
	}
	return p
}
