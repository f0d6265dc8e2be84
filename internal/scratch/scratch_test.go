package scratch

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("scratch", func() {
	var dir string

	entries := func() []string {
		infos, err := ioutil.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		var names []string
		for _, info := range infos {
			names = append(names, info.Name())
		}
		return names
	}

	BeforeEach(func() {
		var err error
		dir, err = ioutil.TempDir("", "scratch")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	Context("Path", func() {
		It("reserves a file matching the pattern", func() {
			path, release, err := Path(dir, "frames-*.mp4")
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Dir(path)).To(Equal(dir))
			Expect(strings.HasPrefix(filepath.Base(path), "frames-")).To(BeTrue())
			Expect(filepath.Ext(path)).To(Equal(".mp4"))
			Expect(entries()).To(HaveLen(1))

			Expect(release()).To(Succeed())
			Expect(release()).To(Succeed())
			Expect(entries()).To(BeEmpty())
		})
	})

	Context("With", func() {
		It("removes the file after success", func() {
			var seen string
			err := With(dir, "job-*", func(path string) error {
				seen = path
				return ioutil.WriteFile(path, []byte("video"), 0644)
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).NotTo(BeEmpty())
			Expect(entries()).To(BeEmpty())
		})

		It("removes the file and keeps the error after failure", func() {
			boom := errors.New("boom")
			err := With(dir, "job-*", func(string) error { return boom })
			Expect(err).To(Equal(boom))
			Expect(entries()).To(BeEmpty())
		})

		It("removes the file when fn panics", func() {
			Expect(func() {
				With(dir, "job-*", func(string) error { panic("boom") })
			}).To(Panic())
			Expect(entries()).To(BeEmpty())
		})
	})

	Context("AtomicFile", func() {
		var target string

		BeforeEach(func() {
			target = filepath.Join(dir, "rain.avi")
		})

		It("creates nothing until written", func() {
			a := NewAtomicFile(target)
			Expect(a.Name()).To(Equal(target))
			Expect(entries()).To(BeEmpty())
		})

		It("hides partial content and publishes it on Commit", func() {
			a := NewAtomicFile(target)
			_, err := a.Write([]byte("RIFF"))
			Expect(err).NotTo(HaveOccurred())
			_, err = os.Stat(target)
			Expect(os.IsNotExist(err)).To(BeTrue())

			Expect(a.Commit()).To(Succeed())
			Expect(entries()).To(Equal([]string{"rain.avi"}))
			data, err := ioutil.ReadFile(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("RIFF"))
		})

		It("replaces an existing target", func() {
			Expect(ioutil.WriteFile(target, []byte("old"), 0644)).To(Succeed())
			a := NewAtomicFile(target)
			a.Write([]byte("new"))
			Expect(a.Commit()).To(Succeed())
			data, err := ioutil.ReadFile(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("new"))
		})

		It("drops everything on Discard", func() {
			a := NewAtomicFile(target)
			a.Write([]byte("RIFF"))
			Expect(a.Discard()).To(Succeed())
			Expect(entries()).To(BeEmpty())
		})

		It("is closed after Commit or Discard", func() {
			a := NewAtomicFile(target)
			Expect(a.Commit()).To(Succeed())
			_, err := a.Write([]byte("late"))
			Expect(err).To(Equal(ErrClosed))
			Expect(a.Commit()).To(Equal(ErrClosed))
			Expect(a.Discard()).To(Succeed())
		})
	})
})
