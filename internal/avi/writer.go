// Package avi reads and writes Motion-JPEG video in an AVI (RIFF) container.
package avi

import (
	"encoding/binary"
	"io"
)

const (
	avihSize = 56
	strhSize = 56
	strfSize = 40
	strlSize = 4 + (8 + strhSize) + (8 + strfSize)
	hdrlSize = 4 + (8 + avihSize) + (8 + strlSize)

	flagHasIndex = 0x10 // AVIF_HASINDEX
	flagKeyframe = 0x10 // AVIIF_KEYFRAME
)

// Writer accumulates JPEG frames and writes them as a single-stream AVI.
// Chunk sizes are only known once every frame is in, so nothing is written
// until WriteTo.
type Writer struct {
	width, height int
	fps           int
	frames        [][]byte
	largest       int
	total         int64
}

// NewWriter returns a Writer for frames of the given size and rate.
func NewWriter(width, height, fps int) *Writer {
	return &Writer{width: width, height: height, fps: fps}
}

// AddFrame appends one JPEG-encoded frame. The data is copied.
func (w *Writer) AddFrame(jpeg []byte) {
	w.frames = append(w.frames, append([]byte(nil), jpeg...))
	w.largest = max(w.largest, len(jpeg))
	w.total += int64(len(jpeg))
}

// Len is the number of frames added so far.
func (w *Writer) Len() int { return len(w.frames) }

// WriteTo writes the complete container to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	frames := uint32(len(w.frames))
	moviSize := uint32(4)
	for _, f := range w.frames {
		moviSize += 8 + padded(len(f))
	}
	idx1Size := frames * 16
	fileSize := 4 + (8 + hdrlSize) + (8 + moviSize) + (8 + idx1Size)

	bw := &binaryWriter{w: dst}

	bw.fourCC("RIFF")
	bw.u32(fileSize)
	bw.fourCC("AVI ")

	bw.fourCC("LIST")
	bw.u32(hdrlSize)
	bw.fourCC("hdrl")

	bw.fourCC("avih")
	bw.u32(avihSize)
	bw.u32(uint32(1000000 / w.fps)) // microseconds per frame
	bw.u32(uint32(w.maxBytesPerSec()))
	bw.u32(0) // padding granularity
	bw.u32(flagHasIndex)
	bw.u32(frames)
	bw.u32(0) // initial frames
	bw.u32(1) // streams
	bw.u32(uint32(w.largest))
	bw.u32(uint32(w.width))
	bw.u32(uint32(w.height))
	bw.u32(0) // reserved
	bw.u32(0)
	bw.u32(0)
	bw.u32(0)

	bw.fourCC("LIST")
	bw.u32(strlSize)
	bw.fourCC("strl")

	bw.fourCC("strh")
	bw.u32(strhSize)
	bw.fourCC("vids")
	bw.fourCC("MJPG")
	bw.u32(0) // flags
	bw.u16(0) // priority
	bw.u16(0) // language
	bw.u32(0) // initial frames
	bw.u32(1) // scale
	bw.u32(uint32(w.fps))
	bw.u32(0) // start
	bw.u32(frames)
	bw.u32(uint32(w.largest))
	bw.u32(0xffffffff) // default quality
	bw.u32(0)          // sample size
	bw.u16(0)          // frame rect
	bw.u16(0)
	bw.u16(uint16(w.width))
	bw.u16(uint16(w.height))

	bw.fourCC("strf")
	bw.u32(strfSize)
	bw.u32(strfSize)
	bw.u32(uint32(w.width))
	bw.u32(uint32(w.height))
	bw.u16(1)  // planes
	bw.u16(24) // bits per pixel
	bw.fourCC("MJPG")
	bw.u32(uint32(w.width * w.height * 3))
	bw.u32(0) // x pels/m
	bw.u32(0) // y pels/m
	bw.u32(0) // colors used
	bw.u32(0) // colors important

	bw.fourCC("LIST")
	bw.u32(moviSize)
	bw.fourCC("movi")
	for _, f := range w.frames {
		bw.fourCC("00dc")
		bw.u32(uint32(len(f)))
		bw.bytes(f)
		if len(f)%2 != 0 {
			bw.bytes([]byte{0})
		}
	}

	bw.fourCC("idx1")
	bw.u32(idx1Size)
	offset := uint32(4) // relative to the "movi" list type
	for _, f := range w.frames {
		bw.fourCC("00dc")
		bw.u32(flagKeyframe)
		bw.u32(offset)
		bw.u32(uint32(len(f)))
		offset += 8 + padded(len(f))
	}
	return bw.n, bw.err
}

func (w *Writer) maxBytesPerSec() int64 {
	if len(w.frames) == 0 {
		return 0
	}
	return int64(w.largest) * int64(w.fps)
}

// padded rounds a chunk size up to the even boundary RIFF requires.
func padded(n int) uint32 {
	return uint32(n + n%2)
}

// binaryWriter accumulates the first error so the layout code above can stay
// linear.
type binaryWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (bw *binaryWriter) bytes(data []byte) {
	if bw.err != nil {
		return
	}
	n, err := bw.w.Write(data)
	bw.n += int64(n)
	bw.err = err
}

func (bw *binaryWriter) fourCC(s string) {
	bw.bytes([]byte(s))
}

func (bw *binaryWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	bw.bytes(b[:])
}

func (bw *binaryWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	bw.bytes(b[:])
}
