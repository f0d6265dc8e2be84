package matrixvision

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrEmptyInput is wrapped by a DecodeError when no image bytes were given.
	ErrEmptyInput = errors.New("empty input")
	// ErrImageTooLarge is wrapped by a DecodeError when the image declares
	// more than MaxImagePixels pixels.
	ErrImageTooLarge = errors.New("image too large")
	// ErrNoGlyphs is wrapped by a FontLoadError when the font renders none of
	// the alphabet.
	ErrNoGlyphs = errors.New("font renders none of the alphabet")
	// ErrFrameSize is wrapped by an EncodeError when a frame disagrees with the
	// dimensions of the first frame.
	ErrFrameSize = errors.New("frame size differs from first frame")
)

// DecodeError reports image bytes that are empty, of an unsupported format,
// or truncated.
type DecodeError struct {
	Format string // Detected format, empty if none matched
	Size   int    // Length of the rejected input
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("matrixvision: decode %s image (%d bytes): %v", e.Format, e.Size, e.Err)
	}
	return fmt.Sprintf("matrixvision: decode image (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FontLoadError reports a font resource that cannot be read, parsed, or that
// renders none of the requested glyphs.
type FontLoadError struct {
	Path string // Empty when the font was given as bytes
	Err  error
}

func (e *FontLoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("matrixvision: load font %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("matrixvision: load font: %v", e.Err)
}

func (e *FontLoadError) Unwrap() error { return e.Err }

// CompositionError reports components whose dimensions disagree. It always
// indicates a construction bug and is not recoverable within a run.
type CompositionError struct {
	What string
	Want image.Point
	Got  image.Point
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("matrixvision: %s mismatch: want %dx%d, got %dx%d",
		e.What, e.Want.X, e.Want.Y, e.Got.X, e.Got.Y)
}

// EncodeError reports a frame that cannot be accepted or a container write
// that failed. Partial output has been discarded when it is returned.
type EncodeError struct {
	Format Format
	Frame  int // Index of the offending frame, -1 when not frame specific
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("matrixvision: encode %s frame %d: %v", e.Format, e.Frame, e.Err)
	}
	return fmt.Sprintf("matrixvision: encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// EmptyAnimationError is returned by Finalize when no frame was submitted.
type EmptyAnimationError struct {
	Format Format
}

func (e *EmptyAnimationError) Error() string {
	return fmt.Sprintf("matrixvision: finalize %s: no frames were submitted", e.Format)
}
