package avi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"io/ioutil"
)

var (
	ErrInvalidRIFF = errors.New("avi: invalid RIFF header")
	ErrTruncated   = errors.New("avi: truncated data")
	ErrNoHeader    = errors.New("avi: missing avih header")
)

// Info describes the video stream of an AVI file.
type Info struct {
	Width, Height int
	FrameRate     int
	Frames        int // Frame count declared in the main header
}

// Reader holds the parsed frames of an AVI file.
type Reader struct {
	info   Info
	frames [][]byte
}

// NewReader parses a complete AVI file from r.
func NewReader(r io.Reader) (*Reader, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		return nil, ErrInvalidRIFF
	}
	size := int(binary.LittleEndian.Uint32(data[4:8]))
	if size < 4 || size+8 > len(data) {
		return nil, ErrTruncated
	}
	rd := &Reader{}
	var sawHeader bool
	err = walk(data[12:8+size], func(id string, payload []byte) error {
		switch id {
		case "avih":
			if len(payload) < avihSize {
				return ErrTruncated
			}
			rd.info.Frames = int(le32(payload, 16))
			rd.info.Width = int(le32(payload, 32))
			rd.info.Height = int(le32(payload, 36))
			if us := le32(payload, 0); us > 0 {
				rd.info.FrameRate = int(1000000 / us)
			}
			sawHeader = true
		case "strh":
			if len(payload) < strhSize || string(payload[0:4]) != "vids" {
				return nil
			}
			if scale, rate := le32(payload, 20), le32(payload, 24); scale > 0 {
				rd.info.FrameRate = int(rate / scale)
			}
		case "00dc", "00db":
			rd.frames = append(rd.frames, payload)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !sawHeader {
		return nil, ErrNoHeader
	}
	return rd, nil
}

// walk calls fn for every leaf chunk, descending into LIST chunks. The idx1
// index is skipped; frames are taken from the movi list in file order.
func walk(data []byte, fn func(id string, payload []byte) error) error {
	for len(data) >= 8 {
		id := string(data[0:4])
		size := int(binary.LittleEndian.Uint32(data[4:8]))
		if 8+size > len(data) {
			return ErrTruncated
		}
		payload := data[8 : 8+size]
		switch id {
		case "LIST":
			if len(payload) < 4 {
				return ErrTruncated
			}
			if err := walk(payload[4:], fn); err != nil {
				return err
			}
		case "idx1":
		default:
			if err := fn(id, payload); err != nil {
				return err
			}
		}
		next := 8 + int(padded(size))
		if next > len(data) {
			break
		}
		data = data[next:]
	}
	return nil
}

func le32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// Info returns the stream description from the file headers.
func (r *Reader) Info() Info { return r.info }

// Len is the number of frame chunks found in the movi list.
func (r *Reader) Len() int { return len(r.frames) }

// Frame returns the raw JPEG data of frame i.
func (r *Reader) Frame(i int) []byte { return r.frames[i] }

// Decode decodes frame i.
func (r *Reader) Decode(i int) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(r.frames[i]))
	if err != nil {
		return nil, fmt.Errorf("avi: frame %d: %v", i, err)
	}
	return img, nil
}

// Frame is one decoded frame delivered by ReadAll.
type Frame struct {
	Index int
	Image image.Image
	Err   error
}

// ReadAll decodes frames in order on a separate goroutine. The channel is
// closed after the last frame or after the first error.
func (r *Reader) ReadAll() <-chan Frame {
	frames := make(chan Frame)
	go func() {
		defer close(frames)
		for i := range r.frames {
			img, err := r.Decode(i)
			frames <- Frame{Index: i, Image: img, Err: err}
			if err != nil {
				return
			}
		}
	}()
	return frames
}
