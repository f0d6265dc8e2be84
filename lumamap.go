package matrixvision

import (
	"image"
	"image/color"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
)

// gridColor outlines the cells of a luminance map drawing.
var gridColor = color.RGBA{R: 0x00, G: 0x3b, B: 0x0f, A: 0xff}

// DrawLuminanceMap paints every cell of lm as a gray rectangle of its
// quantized level, outlined in dark green. Handy for seeing how a photo will
// drive the rain.
func DrawLuminanceMap(lm *LuminanceMap, cellW, cellH int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, lm.Cols()*cellW, lm.Rows()*cellH))
	gc := draw2dimg.NewGraphicContext(img)
	gc.SetStrokeColor(gridColor)
	gc.SetLineWidth(1)
	for row := 0; row < lm.Rows(); row++ {
		for col := 0; col < lm.Cols(); col++ {
			v := uint8(lm.Level(col, row) * 0xff / (lm.Levels() - 1))
			gc.SetFillColor(color.Gray{Y: v})
			gc.BeginPath()
			x, y := float64(col*cellW), float64(row*cellH)
			draw2dkit.Rectangle(gc, x, y, x+float64(cellW), y+float64(cellH))
			gc.FillStroke()
		}
	}
	return img
}

// SaveLuminanceMap writes DrawLuminanceMap's output as a PNG file.
func SaveLuminanceMap(path string, lm *LuminanceMap, cellW, cellH int) error {
	return draw2dimg.SaveToPngFile(path, DrawLuminanceMap(lm, cellW, cellH))
}
