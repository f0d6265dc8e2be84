package matrixvision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kevin-cantwell/matrixvision/internal/scratch"
)

// FFmpegPath is the ffmpeg binary used for MP4 output.
var FFmpegPath = "ffmpeg"

// mp4Encoder pipes raw RGBA frames into an ffmpeg child process that writes
// H.264 to a scratch file. The scratch file is copied to the sink on
// Finalize and removed on every path.
type mp4Encoder struct {
	frameGate
	out     sink
	fps     int
	bin     string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	tmp     string
	release func() error
}

func newMP4Encoder(out sink, cfg AnimationConfig) (*mp4Encoder, error) {
	if cfg.Width%2 != 0 || cfg.Height%2 != 0 {
		return nil, &EncodeError{Format: FormatMP4, Frame: -1,
			Err: fmt.Errorf("yuv420p needs even dimensions, got %dx%d", cfg.Width, cfg.Height)}
	}
	bin, err := exec.LookPath(FFmpegPath)
	if err != nil {
		return nil, &EncodeError{Format: FormatMP4, Frame: -1, Err: err}
	}
	return &mp4Encoder{
		frameGate: frameGate{format: FormatMP4},
		out:       out,
		fps:       cfg.FrameRate,
		bin:       bin,
	}, nil
}

// start launches ffmpeg once the first frame fixes the video size.
func (e *mp4Encoder) start(size image.Point) error {
	tmp, release, err := scratch.Path("", "matrixvision-*.mp4")
	if err != nil {
		return err
	}
	e.tmp, e.release = tmp, release
	e.cmd = exec.Command(e.bin,
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", size.X, size.Y),
		"-framerate", fmt.Sprintf("%d", e.fps),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-f", "mp4",
		tmp,
	)
	e.cmd.Stderr = &e.stderr
	if e.stdin, err = e.cmd.StdinPipe(); err != nil {
		release()
		return err
	}
	if err := e.cmd.Start(); err != nil {
		release()
		return err
	}
	return nil
}

func (e *mp4Encoder) AddFrame(frame *image.RGBA) error {
	if err := e.admit(frame); err != nil {
		return err
	}
	b := frame.Bounds()
	if e.n == 0 {
		if err := e.start(b.Size()); err != nil {
			return e.fail(e.out, 0, err)
		}
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := frame.PixOffset(b.Min.X, y)
		if _, err := e.stdin.Write(frame.Pix[i : i+b.Dx()*4]); err != nil {
			e.kill()
			return e.fail(e.out, e.n, e.ffmpegErr(err))
		}
	}
	e.n++
	return nil
}

func (e *mp4Encoder) Finalize() error {
	if err := e.finish(e.out); err != nil {
		return err
	}
	defer e.release()
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return e.fail(e.out, -1, e.ffmpegErr(err))
	}
	f, err := os.Open(e.tmp)
	if err != nil {
		return e.fail(e.out, -1, err)
	}
	defer f.Close()
	if _, err := io.Copy(e.out, f); err != nil {
		return e.fail(e.out, -1, err)
	}
	if err := e.out.Commit(); err != nil {
		return e.fail(e.out, -1, err)
	}
	return nil
}

func (e *mp4Encoder) Abort() error {
	if e.done {
		return nil
	}
	e.done = true
	e.kill()
	return e.out.Discard()
}

// kill stops a running ffmpeg and removes its scratch file.
func (e *mp4Encoder) kill() {
	if e.cmd == nil || e.cmd.Process == nil {
		return
	}
	e.stdin.Close()
	e.cmd.Process.Kill()
	e.cmd.Wait()
	e.release()
	e.cmd = nil
}

func (e *mp4Encoder) ffmpegErr(err error) error {
	if msg := strings.TrimSpace(e.stderr.String()); msg != "" {
		return fmt.Errorf("ffmpeg: %v: %s", err, msg)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("ffmpeg: %v", err)
	}
	return err
}
