package matrixvision

import (
	"errors"
	"image"
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"golang.org/x/image/font/gofont/gomono"
)

var _ = Describe("GlyphAtlas", func() {
	var (
		cfg   AnimationConfig
		atlas *GlyphAtlas
	)

	BeforeEach(func() {
		cfg = testConfig()
		atlas = testAtlas(cfg)
	})

	It("renders every glyph of the alphabet", func() {
		Expect(atlas.Len()).To(Equal(20))
		Expect(atlas.Levels()).To(Equal(cfg.Levels))
		Expect(atlas.CellSize()).To(Equal(image.Pt(12, 16)))
		Expect(atlas.Rune(0)).To(Equal('0'))
		Expect(atlas.Rune(19)).To(Equal('J'))
	})

	It("makes level 0 pure black", func() {
		for g := 0; g < atlas.Len(); g++ {
			cell := atlas.Cell(g, 0)
			for i := 0; i < len(cell.Pix); i += 4 {
				Expect(cell.Pix[i : i+4]).To(Equal([]uint8{0, 0, 0, 0xff}))
			}
		}
	})

	It("brightens with the level", func() {
		sum := func(cell *image.RGBA) (g int) {
			for i := 1; i < len(cell.Pix); i += 4 {
				g += int(cell.Pix[i])
			}
			return g
		}
		for g := 0; g < atlas.Len(); g++ {
			prev := -1
			for level := 0; level < atlas.Levels(); level++ {
				s := sum(atlas.Cell(g, level))
				Expect(s).To(BeNumerically(">=", prev))
				prev = s
			}
			Expect(prev).To(BeNumerically(">", 0))
		}
	})

	It("sizes every cell bitmap to the cell", func() {
		for g := 0; g < atlas.Len(); g++ {
			for level := 0; level < atlas.Levels(); level++ {
				Expect(atlas.Cell(g, level).Bounds()).To(Equal(image.Rect(0, 0, 12, 16)))
			}
		}
	})

	It("drops repeated characters", func() {
		a, err := NewAtlas(gomono.TTF, AtlasOptionsFor(cfg, "AAB"))
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Len()).To(Equal(2))
	})

	It("skips characters the font lacks", func() {
		a, err := NewAtlas(gomono.TTF, AtlasOptionsFor(cfg, "ｦｱ01"))
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Len()).To(Equal(2))
		Expect(a.Rune(0)).To(Equal('0'))
	})

	Context("with an unusable font", func() {
		It("reports an alphabet the font cannot render", func() {
			_, err := NewAtlas(gomono.TTF, AtlasOptionsFor(cfg, "ｦｱｳ"))
			var fe *FontLoadError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(errors.Is(err, ErrNoGlyphs)).To(BeTrue())
		})

		It("reports data that is not a font", func() {
			_, err := NewAtlas([]byte("not a font"), AtlasOptionsFor(cfg, testAlphabet))
			var fe *FontLoadError
			Expect(errors.As(err, &fe)).To(BeTrue())
		})

		It("reports a missing file with its path", func() {
			_, err := LoadAtlas("/nonexistent/matrix.ttf", AtlasOptionsFor(cfg, testAlphabet))
			var fe *FontLoadError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Path).To(Equal("/nonexistent/matrix.ttf"))
		})
	})

	It("loads fonts from disk", func() {
		dir, err := ioutil.TempDir("", "matrixvision")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "gomono.ttf")
		Expect(ioutil.WriteFile(path, gomono.TTF, 0644)).To(Succeed())

		a, err := LoadAtlas(path, AtlasOptionsFor(cfg, testAlphabet))
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Len()).To(Equal(20))
	})
})

var _ = Describe("AtlasProvider", func() {
	It("builds the atlas once and shares it", func() {
		p := NewAtlasProviderFromBytes(gomono.TTF, AtlasOptionsFor(testConfig(), testAlphabet))
		first, err := p.Atlas()
		Expect(err).NotTo(HaveOccurred())

		done := make(chan *GlyphAtlas, 4)
		for i := 0; i < 4; i++ {
			go func() {
				a, _ := p.Atlas()
				done <- a
			}()
		}
		for i := 0; i < 4; i++ {
			Expect(<-done == first).To(BeTrue())
		}
	})

	It("remembers a failed build", func() {
		p := NewAtlasProvider("/nonexistent/matrix.ttf", AtlasOptionsFor(testConfig(), testAlphabet))
		_, err1 := p.Atlas()
		_, err2 := p.Atlas()
		Expect(err1).To(HaveOccurred())
		Expect(err2 == err1).To(BeTrue())
	})
})
