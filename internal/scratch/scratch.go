// Package scratch hands out request-scoped temporary files and commits
// finished files atomically.
package scratch

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
)

// Path reserves a unique temporary file in dir (os.TempDir when empty) and
// returns its path with a release func that removes whatever is there. The
// release func is safe to call more than once.
func Path(dir, pattern string) (string, func() error, error) {
	f, err := ioutil.TempFile(dir, pattern)
	if err != nil {
		return "", nil, err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", nil, err
	}
	release := func() error {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return name, release, nil
}

// With runs fn with a fresh temporary path and removes the file afterwards,
// whether fn succeeds, fails or panics.
func With(dir, pattern string, fn func(path string) error) (err error) {
	path, release, err := Path(dir, pattern)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); err == nil {
			err = rerr
		}
	}()
	return fn(path)
}

// ErrClosed is returned by an AtomicFile after Commit or Discard.
var ErrClosed = errors.New("scratch: file already committed or discarded")

// AtomicFile writes to a hidden sibling of its target and renames it into
// place on Commit, so the target either holds complete content or does not
// exist. The sibling is created lazily on the first Write.
type AtomicFile struct {
	target string
	f      *os.File
	done   bool
}

// NewAtomicFile prepares an atomic write of target.
func NewAtomicFile(target string) *AtomicFile {
	return &AtomicFile{target: target}
}

// Name is the path the file will be committed to.
func (a *AtomicFile) Name() string { return a.target }

func (a *AtomicFile) open() error {
	if a.f != nil {
		return nil
	}
	dir, base := filepath.Split(a.target)
	if dir == "" {
		dir = "."
	}
	f, err := ioutil.TempFile(dir, "."+base+".*.part")
	if err != nil {
		return err
	}
	a.f = f
	return nil
}

func (a *AtomicFile) Write(p []byte) (int, error) {
	if a.done {
		return 0, ErrClosed
	}
	if err := a.open(); err != nil {
		return 0, err
	}
	return a.f.Write(p)
}

// Commit flushes the written content and moves it to the target path.
func (a *AtomicFile) Commit() error {
	if a.done {
		return ErrClosed
	}
	if err := a.open(); err != nil {
		return err
	}
	a.done = true
	name := a.f.Name()
	// TempFile creates 0600; the target is an ordinary output file.
	if err := a.f.Chmod(0644); err != nil {
		a.f.Close()
		os.Remove(name)
		return err
	}
	if err := a.f.Sync(); err != nil {
		a.f.Close()
		os.Remove(name)
		return err
	}
	if err := a.f.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, a.target); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// Discard drops everything written so far. The target is left untouched.
func (a *AtomicFile) Discard() error {
	if a.done {
		return nil
	}
	a.done = true
	if a.f == nil {
		return nil
	}
	name := a.f.Name()
	a.f.Close()
	return os.Remove(name)
}
