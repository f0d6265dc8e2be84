package main

import (
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/kevin-cantwell/matrixvision"
)

var _ = Describe("parseDims", func() {
	It("parses WxH", func() {
		w, h, err := parseDims("640x480")
		Expect(err).NotTo(HaveOccurred())
		Expect([]int{w, h}).To(Equal([]int{640, 480}))

		w, h, err = parseDims(" 12 X 16 ")
		Expect(err).NotTo(HaveOccurred())
		Expect([]int{w, h}).To(Equal([]int{12, 16}))
	})

	It("rejects anything else", func() {
		for _, s := range []string{"", "640", "640x", "x480", "640x480x2", "axb"} {
			_, _, err := parseDims(s)
			Expect(err).To(HaveOccurred(), s)
		}
	})
})

var _ = Describe("previewFit", func() {
	It("parses COLS,LINES", func() {
		cols, lines, err := previewFit("80,25")
		Expect(err).NotTo(HaveOccurred())
		Expect([]int{cols, lines}).To(Equal([]int{80, 25}))
	})

	It("needs room for at least one line of output", func() {
		_, _, err := previewFit("80,1")
		Expect(err).To(HaveOccurred())
		_, _, err = previewFit("80")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("planJobs", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = ioutil.TempDir("", "matrixvision")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("writes a single image to the named file", func() {
		out := filepath.Join(dir, "neo.gif")
		jobs, err := planJobs([]string{"photos/neo.jpg"}, out, matrixvision.FormatGIF)
		Expect(err).NotTo(HaveOccurred())
		Expect(jobs).To(Equal([]job{{in: "photos/neo.jpg", out: out}}))
	})

	It("names outputs after their inputs inside a directory", func() {
		out := filepath.Join(dir, "videos")
		jobs, err := planJobs([]string{
			"photos/neo.jpg",
			"https://example.com/trinity.png?size=large",
			"other/neo.png",
		}, out, matrixvision.FormatAVI)
		Expect(err).NotTo(HaveOccurred())
		Expect(jobs).To(Equal([]job{
			{in: "photos/neo.jpg", out: filepath.Join(out, "neo.avi")},
			{in: "https://example.com/trinity.png?size=large", out: filepath.Join(out, "trinity.avi")},
			{in: "other/neo.png", out: filepath.Join(out, "neo-1.avi")},
		}))
		info, err := os.Stat(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("never issues the same output twice", func() {
		out := filepath.Join(dir, "videos")
		jobs, err := planJobs([]string{"a-1.png", "a.jpg", "a.png", "b/a-1.gif"}, out, matrixvision.FormatAVI)
		Expect(err).NotTo(HaveOccurred())
		Expect(jobs).To(Equal([]job{
			{in: "a-1.png", out: filepath.Join(out, "a-1.avi")},
			{in: "a.jpg", out: filepath.Join(out, "a.avi")},
			{in: "a.png", out: filepath.Join(out, "a-2.avi")},
			{in: "b/a-1.gif", out: filepath.Join(out, "a-1-1.avi")},
		}))
	})

	It("treats an existing directory as the destination for one image", func() {
		jobs, err := planJobs([]string{"neo.jpg"}, dir, matrixvision.FormatMP4)
		Expect(err).NotTo(HaveOccurred())
		Expect(jobs[0].out).To(Equal(filepath.Join(dir, "neo.mp4")))
	})
})
