package matrixvision

import (
	"image"
	"runtime"
	"sync"
)

// Compositor renders one frame per tick from the luminance map, the glyph
// atlas and the rain column state.
type Compositor struct {
	atlas        *GlyphAtlas
	cols, rows   int
	cellW, cellH int
	workers      int
}

// NewCompositor checks that atlas matches cfg and returns a compositor for
// cfg's canvas. workers <= 0 uses GOMAXPROCS.
func NewCompositor(atlas *GlyphAtlas, cfg AnimationConfig, workers int) (*Compositor, error) {
	cell := image.Pt(cfg.CellWidth, cfg.CellHeight)
	if got := atlas.CellSize(); got != cell {
		return nil, &CompositionError{What: "atlas cell size", Want: cell, Got: got}
	}
	if atlas.Levels() != cfg.Levels {
		return nil, &CompositionError{What: "brightness levels", Want: image.Pt(cfg.Levels, 1), Got: image.Pt(atlas.Levels(), 1)}
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Compositor{
		atlas:   atlas,
		cols:    cfg.Cols(),
		rows:    cfg.Rows(),
		cellW:   cfg.CellWidth,
		cellH:   cfg.CellHeight,
		workers: min(workers, max(cfg.Cols(), 1)),
	}, nil
}

// Bounds is the rectangle of every frame this compositor renders.
func (c *Compositor) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.cols*c.cellW, c.rows*c.cellH)
}

// NewFrame allocates a frame buffer of the canvas size.
func (c *Compositor) NewFrame() *image.RGBA {
	return image.NewRGBA(c.Bounds())
}

// Render draws columns into dst. Every occupied trailing cell takes the
// brighter of its trail intensity (the head is brightest, fading towards the
// tail) and the image brightness underneath it; everything else is black.
func (c *Compositor) Render(lm *LuminanceMap, columns []RainColumn, dst *image.RGBA) error {
	if got := image.Pt(lm.Cols(), lm.Rows()); got != image.Pt(c.cols, c.rows) {
		return &CompositionError{What: "luminance map", Want: image.Pt(c.cols, c.rows), Got: got}
	}
	if lm.Levels() != c.atlas.Levels() {
		return &CompositionError{What: "brightness levels", Want: image.Pt(c.atlas.Levels(), 1), Got: image.Pt(lm.Levels(), 1)}
	}
	if len(columns) != c.cols {
		return &CompositionError{What: "rain columns", Want: image.Pt(c.cols, c.rows), Got: image.Pt(len(columns), c.rows)}
	}
	if dst.Bounds() != c.Bounds() {
		return &CompositionError{What: "frame", Want: c.Bounds().Size(), Got: dst.Bounds().Size()}
	}
	clearFrame(dst)

	if c.workers <= 1 {
		for col := range columns {
			c.renderColumn(lm, col, &columns[col], dst)
		}
		return nil
	}
	// Columns own disjoint pixel ranges, so bands can be drawn concurrently.
	var wg sync.WaitGroup
	band := (c.cols + c.workers - 1) / c.workers
	for start := 0; start < c.cols; start += band {
		end := min(start+band, c.cols)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for col := start; col < end; col++ {
				c.renderColumn(lm, col, &columns[col], dst)
			}
		}(start, end)
	}
	wg.Wait()
	return nil
}

func (c *Compositor) renderColumn(lm *LuminanceMap, col int, rc *RainColumn, dst *image.RGBA) {
	levels := c.atlas.Levels()
	top, bottom := max(rc.Tail(), 0), min(rc.Head, c.rows-1)
	for row := top; row <= bottom; row++ {
		d := rc.Head - row
		level := max(trailLevel(d, rc.Trail, levels), lm.Level(col, row))
		if level == 0 {
			continue
		}
		blit(dst, c.atlas.Cell(rc.Glyphs[d], level), col*c.cellW, row*c.cellH)
	}
}

// trailLevel is the intensity of the glyph d rows above the head: levels-1 at
// the head, decaying linearly and never reaching 0 inside the trail.
func trailLevel(d, trail, levels int) int {
	if d < 0 || d >= trail {
		return 0
	}
	return ((levels-1)*(trail-d) + trail - 1) / trail
}

// blit copies cell into dst with its top-left corner at (x, y).
func blit(dst, cell *image.RGBA, x, y int) {
	b := cell.Bounds()
	width := b.Dx() * 4
	for row := 0; row < b.Dy(); row++ {
		si := row * cell.Stride
		di := dst.PixOffset(x, y+row)
		copy(dst.Pix[di:di+width], cell.Pix[si:si+width])
	}
}

// clearFrame paints dst opaque black.
func clearFrame(dst *image.RGBA) {
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i+0] = 0
		dst.Pix[i+1] = 0
		dst.Pix[i+2] = 0
		dst.Pix[i+3] = 0xff
	}
}
