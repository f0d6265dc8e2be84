package matrixvision

import (
	"bytes"
	"errors"
	"image"
	"io"

	"github.com/kevin-cantwell/matrixvision/internal/scratch"
)

// VideoEncoder accepts frames in presentation order and serializes them into
// one video. Frames may be reused by the caller once AddFrame returns.
type VideoEncoder interface {
	// AddFrame appends a frame. Frames must all share the first frame's size.
	AddFrame(frame *image.RGBA) error
	// Finalize writes the finished container. It fails with
	// *EmptyAnimationError when no frame was added.
	Finalize() error
	// Abort drops everything written so far.
	Abort() error
	// Frames is the number of frames accepted.
	Frames() int
}

// NewFileEncoder returns an encoder for cfg.Format writing to path. Nothing
// appears at path unless Finalize succeeds.
func NewFileEncoder(path string, cfg AnimationConfig) (VideoEncoder, error) {
	return newEncoder(cfg, scratch.NewAtomicFile(path))
}

// NewStreamEncoder returns an encoder for cfg.Format writing to w. The video is
// buffered and only written to w by a successful Finalize.
func NewStreamEncoder(w io.Writer, cfg AnimationConfig) (VideoEncoder, error) {
	return newEncoder(cfg, &bufferedSink{w: w})
}

func newEncoder(cfg AnimationConfig, out sink) (VideoEncoder, error) {
	switch cfg.Format {
	case FormatGIF:
		return newGIFEncoder(out, cfg), nil
	case FormatMP4:
		return newMP4Encoder(out, cfg)
	default:
		return newAVIEncoder(out, cfg), nil
	}
}

var errFinished = errors.New("encoder already finalized or aborted")

// sink is where a finished container goes.
type sink interface {
	io.Writer
	Commit() error
	Discard() error
}

// bufferedSink holds output in memory until Commit.
type bufferedSink struct {
	w   io.Writer
	buf bytes.Buffer
}

func (s *bufferedSink) Write(p []byte) (int, error) { return s.buf.Write(p) }

func (s *bufferedSink) Commit() error {
	_, err := s.buf.WriteTo(s.w)
	return err
}

func (s *bufferedSink) Discard() error {
	s.buf.Reset()
	return nil
}

// frameGate enforces the shared frame rules of every encoder.
type frameGate struct {
	format Format
	size   image.Point
	n      int
	done   bool
}

func (g *frameGate) admit(frame *image.RGBA) error {
	if g.done {
		return &EncodeError{Format: g.format, Frame: g.n, Err: errFinished}
	}
	size := frame.Bounds().Size()
	if g.n == 0 {
		g.size = size
	} else if size != g.size {
		return &EncodeError{Format: g.format, Frame: g.n, Err: ErrFrameSize}
	}
	return nil
}

// fail discards out and wraps err for the caller, along with any error from
// the discard itself.
func (g *frameGate) fail(out sink, frame int, err error) error {
	g.done = true
	if derr := out.Discard(); derr != nil {
		err = errors.Join(err, derr)
	}
	return &EncodeError{Format: g.format, Frame: frame, Err: err}
}

// finish closes the gate and reports an empty animation.
func (g *frameGate) finish(out sink) error {
	if g.done {
		return &EncodeError{Format: g.format, Frame: -1, Err: errFinished}
	}
	g.done = true
	if g.n == 0 {
		empty := &EmptyAnimationError{Format: g.format}
		if err := out.Discard(); err != nil {
			return errors.Join(empty, &EncodeError{Format: g.format, Frame: -1, Err: err})
		}
		return empty
	}
	return nil
}

func (g *frameGate) Frames() int { return g.n }
