package matrixvision

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/kevin-cantwell/matrixvision/internal/avi"
)

// aviEncoder compresses each frame to JPEG as it arrives and writes a
// Motion-JPEG AVI on Finalize.
type aviEncoder struct {
	frameGate
	out     sink
	w       *avi.Writer
	rate    int
	quality int
	buf     bytes.Buffer
}

func newAVIEncoder(out sink, cfg AnimationConfig) *aviEncoder {
	return &aviEncoder{
		frameGate: frameGate{format: FormatAVI},
		out:       out,
		rate:      cfg.FrameRate,
		quality:   cfg.Quality,
	}
}

func (e *aviEncoder) AddFrame(frame *image.RGBA) error {
	if err := e.admit(frame); err != nil {
		return err
	}
	if e.w == nil {
		e.w = avi.NewWriter(e.size.X, e.size.Y, e.rate)
	}
	e.buf.Reset()
	if err := jpeg.Encode(&e.buf, frame, &jpeg.Options{Quality: e.quality}); err != nil {
		return e.fail(e.out, e.n, err)
	}
	e.w.AddFrame(e.buf.Bytes())
	e.n++
	return nil
}

func (e *aviEncoder) Finalize() error {
	if err := e.finish(e.out); err != nil {
		return err
	}
	if _, err := e.w.WriteTo(e.out); err != nil {
		return e.fail(e.out, -1, err)
	}
	if err := e.out.Commit(); err != nil {
		return e.fail(e.out, -1, err)
	}
	return nil
}

func (e *aviEncoder) Abort() error {
	e.done = true
	return e.out.Discard()
}
