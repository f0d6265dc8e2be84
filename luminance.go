package matrixvision

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LuminanceMap is an immutable grid of brightness values, one per glyph cell.
type LuminanceMap struct {
	cols, rows int
	levels     int
	values     []float64 // Normalized 0.0-1.0
	quant      []uint8   // Quantized to [0, levels-1]
}

// Cols is the grid width in cells.
func (m *LuminanceMap) Cols() int { return m.cols }

// Rows is the grid height in cells.
func (m *LuminanceMap) Rows() int { return m.rows }

// Levels is the number of quantization levels.
func (m *LuminanceMap) Levels() int { return m.levels }

// Value returns the normalized brightness of a cell.
func (m *LuminanceMap) Value(col, row int) float64 { return m.values[row*m.cols+col] }

// Level returns the quantized brightness of a cell.
func (m *LuminanceMap) Level(col, row int) int { return int(m.quant[row*m.cols+col]) }

// ColumnMean returns the average normalized brightness down one column.
func (m *LuminanceMap) ColumnMean(col int) float64 {
	if m.rows == 0 {
		return 0
	}
	var sum float64
	for row := 0; row < m.rows; row++ {
		sum += m.values[row*m.cols+col]
	}
	return sum / float64(m.rows)
}

// MaxImagePixels bounds the declared size of an input image. Larger images
// are refused before their pixels are allocated.
const MaxImagePixels = 64 << 20

// DecodeLuminance decodes raw image bytes, fits the image onto the canvas
// described by cfg and samples it into a LuminanceMap with cfg.Levels levels.
// Any failure to decode is reported as a *DecodeError.
func DecodeLuminance(data []byte, cfg AnimationConfig) (*LuminanceMap, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: ErrEmptyInput}
	}
	if c, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && c.Width*c.Height > MaxImagePixels {
		return nil, &DecodeError{Format: format, Size: len(data), Err: ErrImageTooLarge}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// The header may still have been recognized, which tells a
		// truncated file apart from an unknown one.
		_, format, _ = image.DecodeConfig(bytes.NewReader(data))
		return nil, &DecodeError{Format: format, Size: len(data), Err: err}
	}
	canvas := fitCanvas(adjust(img, cfg), cfg)
	return NewLuminanceMap(canvas, cfg.CellWidth, cfg.CellHeight, cfg.Levels), nil
}

// adjust applies gamma, then brightness, then contrast.
func adjust(img image.Image, cfg AnimationConfig) image.Image {
	if cfg.Gamma != 0 && cfg.Gamma != 1 {
		img = imaging.AdjustGamma(img, cfg.Gamma)
	}
	if cfg.Brightness != 0 {
		img = imaging.AdjustBrightness(img, cfg.Brightness)
	}
	if cfg.Contrast != 0 {
		img = imaging.AdjustContrast(img, cfg.Contrast)
	}
	return img
}

// fitCanvas resamples img to exactly cfg.Width × cfg.Height using an
// area-averaging box filter.
func fitCanvas(img image.Image, cfg AnimationConfig) *image.NRGBA {
	if cfg.Fit != FitFill {
		return imaging.Resize(img, cfg.Width, cfg.Height, imaging.Box)
	}
	b := img.Bounds()
	scale := math.Max(float64(cfg.Width)/float64(b.Dx()), float64(cfg.Height)/float64(b.Dy()))
	w := max(int(math.Ceil(float64(b.Dx())*scale)), cfg.Width)
	h := max(int(math.Ceil(float64(b.Dy())*scale)), cfg.Height)
	return imaging.CropCenter(imaging.Resize(img, w, h, imaging.Box), cfg.Width, cfg.Height)
}

// NewLuminanceMap averages the perceptual brightness of every cellW × cellH
// block of img and quantizes it into levels steps. Partial blocks at the right
// and bottom edges are dropped.
func NewLuminanceMap(img image.Image, cellW, cellH, levels int) *LuminanceMap {
	bounds := img.Bounds()
	cols, rows := bounds.Dx()/cellW, bounds.Dy()/cellH
	m := &LuminanceMap{
		cols:   cols,
		rows:   rows,
		levels: levels,
		values: make([]float64, cols*rows),
		quant:  make([]uint8, cols*rows),
	}
	area := float64(cellW * cellH)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			var sum float64
			x0, y0 := bounds.Min.X+col*cellW, bounds.Min.Y+row*cellH
			for y := y0; y < y0+cellH; y++ {
				for x := x0; x < x0+cellW; x++ {
					sum += luma(img.At(x, y))
				}
			}
			v := math.Min(math.Max(sum/area, 0), 1)
			m.values[row*cols+col] = v
			m.quant[row*cols+col] = quantize(v, levels)
		}
	}
	return m
}

// quantize maps v in [0, 1] onto [0, levels-1].
func quantize(v float64, levels int) uint8 {
	q := int(math.Round(v * float64(levels-1)))
	if q < 0 {
		return 0
	}
	if q > levels-1 {
		return uint8(levels - 1)
	}
	return uint8(q)
}

// luma returns the normalized perceptual brightness of c composited over
// black. Colors are alpha-premultiplied, so transparency darkens.
func luma(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return grayscale(r, g, b) / 0xffff
}

// Standard-ish algorithm for determining the best grayscale for human eyes
// 0.21 R + 0.72 G + 0.07 B
func grayscale(r, g, b uint32) float64 {
	return 0.21*float64(r) + 0.72*float64(g) + 0.07*float64(b)
}
