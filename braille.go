package matrixvision

import (
	"image"
	"io"
	"strings"
)

type dot int

const (
	filled dot = 1
	nofill dot = 0
)

// BrailleOpt adjusts a BrailleEncoder.
type BrailleOpt func(enc *BrailleEncoder)

// WithLuminosity sets the brightness above which a pixel becomes a dot.
func WithLuminosity(lum float64) BrailleOpt {
	return func(enc *BrailleEncoder) {
		enc.luminosity = lum
	}
}

// If used, lit pixels are left empty and dark pixels get dots.
func WithInvertedColors() BrailleOpt {
	return func(enc *BrailleEncoder) {
		enc.invert = true
	}
}

// WithLineStyle decorates every output line, typically with terminal colors.
func WithLineStyle(style func(string) string) BrailleOpt {
	return func(enc *BrailleEncoder) {
		enc.style = style
	}
}

// BrailleEncoder previews frames in a terminal, one braille symbol per 2x4
// pixel block.
type BrailleEncoder struct {
	writer     io.Writer // Output
	luminosity float64   // Threshold, 0-1
	invert     bool      // Invert dots
	style      func(string) string
}

func NewBrailleEncoder(w io.Writer, opts ...BrailleOpt) *BrailleEncoder {
	enc := BrailleEncoder{
		writer:     w,
		luminosity: 0.15,
		invert:     false,
	}
	for _, opt := range opts {
		opt(&enc)
	}
	return &enc
}

// Lines is the number of text lines Encode writes for img.
func (enc *BrailleEncoder) Lines(img image.Image) int {
	return (img.Bounds().Dy() + 3) / 4
}

func (enc *BrailleEncoder) Encode(img image.Image) error {
	bounds := img.Bounds()

	// An image's bounds do not necessarily start at (0, 0), so the two loops start
	// at bounds.Min.Y and bounds.Min.X. Looping over Y first and X second is more
	// likely to result in better memory access patterns than X first and Y second.
	var line strings.Builder
	for py := bounds.Min.Y; py < bounds.Max.Y; py += 4 {
		line.Reset()
		for px := bounds.Min.X; px < bounds.Max.X; px += 2 {
			var dots pattern
			// Draw left-right, top-bottom.
			for y := 0; y < 4; y++ {
				for x := 0; x < 2; x++ {
					// Braille symbols are 2x4, which may end up adding
					// pixels to the right or bottom of the image. In those
					// cases we just don't fill the dots.
					if px+x >= bounds.Max.X || py+y >= bounds.Max.Y {
						dots[x][y] = nofill
						continue
					}
					dots[x][y] = enc.dotAt(img, px+x, py+y)
				}
			}
			line.WriteRune(dots.CodePoint())
		}
		out := line.String()
		if enc.style != nil {
			out = enc.style(out)
		}
		if _, err := io.WriteString(enc.writer, out+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (enc *BrailleEncoder) dotAt(img image.Image, x, y int) dot {
	if (luma(img.At(x, y)) > enc.luminosity) != enc.invert {
		return filled
	}
	return nofill
}

// Represents an 8 dot braille pattern using x,y coordinates. Eg:
// +----------+
// |(0,0)(1,0)|
// |(0,1)(1,1)|
// |(0,2)(1,2)|
// |(0,3)(1,3)|
// +----------+
type pattern [2][4]dot

// CodePoint maps each point in pattern to a braille number and
// calculates the corresponding unicode symbol.
// +------+
// |(1)(4)|
// |(2)(5)|
// |(3)(6)|
// |(7)(8)|
// +------+
// See https://en.wikipedia.org/wiki/Braille_Patterns#Identifying.2C_naming_and_ordering)
func (dots pattern) CodePoint() rune {
	lowEndian := [8]dot{dots[0][0], dots[0][1], dots[0][2], dots[1][0], dots[1][1], dots[1][2], dots[0][3], dots[1][3]}
	var v int
	for i, x := range lowEndian {
		v += int(x) << uint(i)
	}
	return rune(v) + '\u2800'
}

func (dots pattern) String() string {
	return string(dots.CodePoint())
}
