package matrixvision

import (
	"bytes"
	"image"
	"image/color"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("pattern", func() {
	It("maps dots to braille code points", func() {
		var dots pattern
		Expect(dots.CodePoint()).To(Equal('\u2800'))

		dots[0][0] = filled
		Expect(dots.CodePoint()).To(Equal('\u2801'))

		dots = pattern{}
		dots[1][3] = filled
		Expect(dots.CodePoint()).To(Equal('\u2880'))

		dots = pattern{{filled, filled, filled, filled}, {filled, filled, filled, filled}}
		Expect(dots.String()).To(Equal("\u28ff"))
	})
})

var _ = Describe("BrailleEncoder", func() {
	It("writes one line per four pixel rows", func() {
		var buf bytes.Buffer
		img := solidImage(4, 8, color.White)
		enc := NewBrailleEncoder(&buf)
		Expect(enc.Lines(img)).To(Equal(2))
		Expect(enc.Encode(img)).To(Succeed())
		Expect(buf.String()).To(Equal("\u28ff\u28ff\n\u28ff\u28ff\n"))
	})

	It("leaves dots off past the image edge", func() {
		var buf bytes.Buffer
		Expect(NewBrailleEncoder(&buf).Encode(solidImage(1, 1, color.White))).To(Succeed())
		Expect(buf.String()).To(Equal("\u2801\n"))
	})

	It("inverts on request", func() {
		var buf bytes.Buffer
		Expect(NewBrailleEncoder(&buf, WithInvertedColors()).Encode(solidImage(2, 4, color.White))).To(Succeed())
		Expect(buf.String()).To(Equal("\u2800\n"))
	})

	It("thresholds on luminosity", func() {
		gray := solidImage(2, 4, color.Gray{Y: 0x80})
		var lo, hi bytes.Buffer
		Expect(NewBrailleEncoder(&lo, WithLuminosity(0.4)).Encode(gray)).To(Succeed())
		Expect(NewBrailleEncoder(&hi, WithLuminosity(0.6)).Encode(gray)).To(Succeed())
		Expect(lo.String()).To(Equal("\u28ff\n"))
		Expect(hi.String()).To(Equal("\u2800\n"))
	})

	It("styles each line", func() {
		var buf bytes.Buffer
		enc := NewBrailleEncoder(&buf, WithLineStyle(func(s string) string { return "<" + s + ">" }))
		Expect(enc.Encode(solidImage(2, 8, color.Black))).To(Succeed())
		Expect(buf.String()).To(Equal("<\u2800>\n<\u2800>\n"))
	})
})

type fakeTerminal struct {
	resets []int
	cursor []bool
}

func (t *fakeTerminal) ResetCursor(rows int) { t.resets = append(t.resets, rows) }
func (t *fakeTerminal) ShowCursor(show bool) { t.cursor = append(t.cursor, show) }

var _ = Describe("Player", func() {
	It("draws each frame over the last", func() {
		var buf bytes.Buffer
		term := &fakeTerminal{}
		p := NewPlayer(&buf, term, 120)
		p.Start()
		frame := image.Image(solidImage(4, 12, color.White))
		for i := 0; i < 3; i++ {
			Expect(p.Show(frame)).To(Succeed())
		}
		p.Stop()

		Expect(term.cursor).To(Equal([]bool{false, true}))
		Expect(term.resets).To(Equal([]int{3, 3}))
		Expect(strings.Count(buf.String(), "\n")).To(Equal(9))
	})

	It("writes xterm escapes by default", func() {
		var buf bytes.Buffer
		p := NewPlayer(&buf, nil, 120)
		p.Start()
		Expect(p.Show(solidImage(2, 4, color.White))).To(Succeed())
		Expect(p.Show(solidImage(2, 4, color.White))).To(Succeed())
		p.Stop()
		Expect(strings.HasPrefix(buf.String(), "\033[?25l")).To(BeTrue())
		Expect(buf.String()).To(ContainSubstring("\033[999D\033[1A"))
		Expect(strings.HasSuffix(buf.String(), "\033[?12l\033[?25h")).To(BeTrue())
	})
})
