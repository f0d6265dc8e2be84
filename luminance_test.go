package matrixvision

import (
	"errors"
	"image"
	"image/color"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("DecodeLuminance", func() {
	var cfg AnimationConfig

	BeforeEach(func() {
		cfg = testConfig()
	})

	It("maps the image onto the cell grid", func() {
		lm, err := DecodeLuminance(solidPNG(100, 100, color.Gray{Y: 0x80}), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(lm.Cols()).To(Equal(10))
		Expect(lm.Rows()).To(Equal(6))
		Expect(lm.Levels()).To(Equal(cfg.Levels))
	})

	It("keeps every level in range", func() {
		img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8(x + y), A: 0xff})
			}
		}
		lm, err := DecodeLuminance(encodePNG(img), cfg)
		Expect(err).NotTo(HaveOccurred())
		for row := 0; row < lm.Rows(); row++ {
			for col := 0; col < lm.Cols(); col++ {
				Expect(lm.Level(col, row)).To(BeNumerically(">=", 0))
				Expect(lm.Level(col, row)).To(BeNumerically("<=", cfg.Levels-1))
				Expect(lm.Value(col, row)).To(BeNumerically(">=", 0.0))
				Expect(lm.Value(col, row)).To(BeNumerically("<=", 1.0))
			}
		}
	})

	It("maps black to level 0 and white to the top level", func() {
		black, err := DecodeLuminance(solidPNG(50, 40, color.Black), cfg)
		Expect(err).NotTo(HaveOccurred())
		white, err := DecodeLuminance(solidPNG(50, 40, color.White), cfg)
		Expect(err).NotTo(HaveOccurred())
		for row := 0; row < cfg.Rows(); row++ {
			for col := 0; col < cfg.Cols(); col++ {
				Expect(black.Level(col, row)).To(Equal(0))
				Expect(white.Level(col, row)).To(Equal(cfg.Levels - 1))
			}
		}
		Expect(white.ColumnMean(0)).To(BeNumerically("~", 1.0, 0.001))
	})

	It("follows the image left to right", func() {
		img := solidImage(120, 96, color.Black)
		for y := 0; y < 96; y++ {
			for x := 60; x < 120; x++ {
				img.Set(x, y, color.White)
			}
		}
		lm, err := DecodeLuminance(encodePNG(img), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(lm.Level(0, 3)).To(Equal(0))
		Expect(lm.Level(9, 3)).To(Equal(cfg.Levels - 1))
	})

	It("crops to the canvas aspect in fill mode", func() {
		cfg.Fit = FitFill
		lm, err := DecodeLuminance(solidPNG(400, 50, color.White), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(lm.Cols()).To(Equal(10))
		Expect(lm.Rows()).To(Equal(6))
		Expect(lm.Level(5, 5)).To(Equal(cfg.Levels - 1))
	})

	It("darkens with negative brightness", func() {
		plain, err := DecodeLuminance(solidPNG(20, 20, color.Gray{Y: 0xc0}), cfg)
		Expect(err).NotTo(HaveOccurred())
		cfg.Brightness = -50
		dark, err := DecodeLuminance(solidPNG(20, 20, color.Gray{Y: 0xc0}), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(dark.Value(0, 0)).To(BeNumerically("<", plain.Value(0, 0)))
	})

	Context("with bad input", func() {
		It("reports empty input", func() {
			_, err := DecodeLuminance(nil, cfg)
			var de *DecodeError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(errors.Is(err, ErrEmptyInput)).To(BeTrue())
		})

		It("reports unknown formats", func() {
			_, err := DecodeLuminance([]byte("definitely not an image"), cfg)
			var de *DecodeError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Format).To(BeEmpty())
			Expect(de.Size).To(Equal(23))
		})

		It("names the format of a truncated image", func() {
			data := solidPNG(100, 100, color.White)
			_, err := DecodeLuminance(data[:40], cfg)
			var de *DecodeError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Format).To(Equal("png"))
		})

		It("refuses an image that declares too many pixels", func() {
			// A bare GIF screen descriptor for 60000x60000.
			data := []byte("GIF89a\x60\xea\x60\xea\x00\x00\x00")
			_, err := DecodeLuminance(data, cfg)
			var de *DecodeError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Format).To(Equal("gif"))
			Expect(errors.Is(err, ErrImageTooLarge)).To(BeTrue())
		})
	})
})

var _ = Describe("quantize", func() {
	It("rounds onto the level range", func() {
		Expect(quantize(0, 16)).To(BeEquivalentTo(0))
		Expect(quantize(1, 16)).To(BeEquivalentTo(15))
		Expect(quantize(0.5, 3)).To(BeEquivalentTo(1))
		Expect(quantize(1.5, 4)).To(BeEquivalentTo(3))
	})
})
