package matrixvision

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/ioutil"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// DefaultAlphabet is the curated glyph set: half-width katakana, digits and
// a handful of symbols. Fonts that lack some of them simply render fewer.
const DefaultAlphabet = "ｦｱｳｴｵｶｷｹｺｻｼｽｾｿﾀﾂﾃﾅﾆﾇﾈﾊﾋﾎﾏﾐﾑﾒﾓﾔﾕﾗﾘﾜ" +
	"0123456789" + "Z:.\"=*+-<>|" + "ABCDEFGHIJKLMNOPQRSTUVWXY"

// MatrixGreen is the tint of a fully lit glyph.
var MatrixGreen = color.RGBA{R: 0x00, G: 0xff, B: 0x41, A: 0xff}

// fontScale is the font size relative to the cell height.
const fontScale = 0.85

// AtlasOptions describes how glyphs are rasterized.
type AtlasOptions struct {
	CellWidth  int
	CellHeight int
	Levels     int
	Alphabet   string // DefaultAlphabet when empty
}

// AtlasOptionsFor derives atlas options matching cfg.
func AtlasOptionsFor(cfg AnimationConfig, alphabet string) AtlasOptions {
	return AtlasOptions{
		CellWidth:  cfg.CellWidth,
		CellHeight: cfg.CellHeight,
		Levels:     cfg.Levels,
		Alphabet:   alphabet,
	}
}

// GlyphAtlas holds every glyph of the alphabet pre-rendered at every
// brightness level. It is immutable and safe for concurrent use.
type GlyphAtlas struct {
	cellW, cellH int
	levels       int
	runes        []rune
	cells        []*image.RGBA // Indexed by glyph*levels + level
}

// Len is the number of renderable glyphs.
func (a *GlyphAtlas) Len() int { return len(a.runes) }

// Levels is the number of brightness levels.
func (a *GlyphAtlas) Levels() int { return a.levels }

// CellSize is the size of every cell bitmap.
func (a *GlyphAtlas) CellSize() image.Point { return image.Pt(a.cellW, a.cellH) }

// Rune returns the character behind a glyph index.
func (a *GlyphAtlas) Rune(glyph int) rune { return a.runes[glyph] }

// Cell returns the bitmap for a glyph at a brightness level. Level 0 is
// always pure black.
func (a *GlyphAtlas) Cell(glyph, level int) *image.RGBA {
	return a.cells[glyph*a.levels+level]
}

// LoadAtlas reads a TrueType font from path and builds an atlas from it.
func LoadAtlas(path string, opts AtlasOptions) (*GlyphAtlas, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, &FontLoadError{Path: path, Err: err}
	}
	atlas, err := NewAtlas(data, opts)
	if err != nil {
		var fe *FontLoadError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	return atlas, nil
}

// NewAtlas parses TrueType font data and rasterizes the alphabet.
func NewAtlas(fontData []byte, opts AtlasOptions) (*GlyphAtlas, error) {
	if opts.CellWidth < 1 || opts.CellHeight < 1 {
		return nil, fmt.Errorf("invalid cell size %dx%d", opts.CellWidth, opts.CellHeight)
	}
	if opts.Levels < 2 || opts.Levels > 256 {
		return nil, fmt.Errorf("levels out of range (2-256): got %d", opts.Levels)
	}
	if opts.Alphabet == "" {
		opts.Alphabet = DefaultAlphabet
	}
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, &FontLoadError{Err: err}
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    float64(opts.CellHeight) * fontScale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	atlas := &GlyphAtlas{
		cellW:  opts.CellWidth,
		cellH:  opts.CellHeight,
		levels: opts.Levels,
	}
	seen := make(map[rune]bool)
	for _, r := range norm.NFC.String(opts.Alphabet) {
		if seen[r] || f.Index(r) == 0 {
			continue
		}
		seen[r] = true
		mask := rasterize(face, r, opts.CellWidth, opts.CellHeight)
		if mask == nil {
			continue
		}
		atlas.runes = append(atlas.runes, r)
		for level := 0; level < opts.Levels; level++ {
			atlas.cells = append(atlas.cells, shade(mask, level, opts.Levels))
		}
	}
	if len(atlas.runes) == 0 {
		return nil, &FontLoadError{Err: ErrNoGlyphs}
	}
	return atlas, nil
}

// rasterize draws r white on black, centred in a w × h coverage mask. Glyphs
// that do not fit are drawn at their natural size and scaled down. It
// returns nil for glyphs without a single covered pixel.
func rasterize(face font.Face, r rune, w, h int) *image.Gray {
	adv, ok := face.GlyphAdvance(r)
	if !ok {
		return nil
	}
	metrics := face.Metrics()
	ascent, descent := metrics.Ascent.Ceil(), metrics.Descent.Ceil()
	gw, gh := max(adv.Ceil(), w), max(ascent+descent, h)

	mask := image.NewGray(image.Rect(0, 0, gw, gh))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: face,
		Dot: fixed.Point26_6{
			X: (fixed.I(gw) - adv) / 2,
			Y: fixed.I((gh-ascent-descent)/2 + ascent),
		},
	}
	d.DrawString(string(r))

	if gw != w || gh != h {
		fitted, ok := resize.Resize(uint(w), uint(h), mask, resize.Bilinear).(*image.Gray)
		if !ok {
			return nil
		}
		mask = fitted
	}
	for _, v := range mask.Pix {
		if v != 0 {
			return mask
		}
	}
	return nil
}

// shade blends the mask over black at an opacity proportional to level.
func shade(mask *image.Gray, level, levels int) *image.RGBA {
	b := mask.Bounds()
	cell := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	opacity := uint32(level) * 0xff / uint32(levels-1)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			cov := uint32(mask.Pix[y*mask.Stride+x]) * opacity / 0xff
			i := y*cell.Stride + x*4
			cell.Pix[i+0] = uint8(uint32(MatrixGreen.R) * cov / 0xff)
			cell.Pix[i+1] = uint8(uint32(MatrixGreen.G) * cov / 0xff)
			cell.Pix[i+2] = uint8(uint32(MatrixGreen.B) * cov / 0xff)
			cell.Pix[i+3] = 0xff
		}
	}
	return cell
}

// AtlasProvider builds one atlas lazily on first use and hands the same
// immutable instance to every caller afterwards. Pass it to whatever needs
// an atlas instead of parsing the font per request.
type AtlasProvider struct {
	load  func() (*GlyphAtlas, error)
	once  sync.Once
	atlas *GlyphAtlas
	err   error
}

// NewAtlasProvider returns a provider that loads the font at path.
func NewAtlasProvider(path string, opts AtlasOptions) *AtlasProvider {
	return &AtlasProvider{load: func() (*GlyphAtlas, error) {
		return LoadAtlas(path, opts)
	}}
}

// NewAtlasProviderFromBytes returns a provider backed by in-memory font data.
func NewAtlasProviderFromBytes(fontData []byte, opts AtlasOptions) *AtlasProvider {
	return &AtlasProvider{load: func() (*GlyphAtlas, error) {
		return NewAtlas(fontData, opts)
	}}
}

// Atlas returns the shared atlas, building it on the first call. A failed
// build is remembered and returned to every caller.
func (p *AtlasProvider) Atlas() (*GlyphAtlas, error) {
	p.once.Do(func() {
		p.atlas, p.err = p.load()
	})
	return p.atlas, p.err
}
