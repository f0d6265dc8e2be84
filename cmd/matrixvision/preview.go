package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/codegangsta/cli"
	"github.com/kevin-cantwell/matrixvision"
	"github.com/muesli/termenv"
	"github.com/nfnt/resize"
)

var errStop = errors.New("stop")

func preview(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return exit(err)
	}
	engine, err := engineFor(s)
	if err != nil {
		return exit(err)
	}
	data, err := readInput(c.Args().First())
	if err != nil {
		return exit(err)
	}
	cols, lines, err := previewFit(c.String("fit"))
	if err != nil {
		return exit(err)
	}
	ctx, stop := interruptible()
	defer stop()

	out := termenv.NewOutput(os.Stdout)
	green := out.Color("#00FF41")
	opts := []matrixvision.BrailleOpt{
		matrixvision.WithLuminosity(c.Float64("luminosity")),
		matrixvision.WithLineStyle(func(line string) string {
			return out.String(line).Foreground(green).String()
		}),
	}
	if c.Bool("invert") {
		opts = append(opts, matrixvision.WithInvertedColors())
	}
	shrink := func(frame *image.RGBA) image.Image {
		// Braille symbols are 2x4 dots; leave a line for the prompt.
		return resize.Thumbnail(uint(cols*2), uint((lines-1)*4), frame, resize.Bilinear)
	}

	if c.Bool("play") {
		player := matrixvision.NewPlayer(os.Stdout, nil, engine.Config().FrameRate, opts...)
		player.Start()
		defer player.Stop()
		err := engine.Frames(ctx, data, func(_ int, frame *image.RGBA) error {
			return player.Show(shrink(frame))
		})
		if err != nil && ctx.Err() == nil {
			return exit(err)
		}
		return nil
	}

	want := c.Int("frame")
	if want < 0 {
		want = engine.Config().FrameCount() / 2
	}
	if want >= engine.Config().FrameCount() {
		return exit(fmt.Errorf("frame %d out of range, the animation has %d", want, engine.Config().FrameCount()))
	}
	var picked image.Image
	err = engine.Frames(ctx, data, func(i int, frame *image.RGBA) error {
		if i < want {
			return nil
		}
		picked = shrink(frame)
		return errStop
	})
	if err != nil && err != errStop {
		return exit(err)
	}
	if err := matrixvision.NewBrailleEncoder(os.Stdout, opts...).Encode(picked); err != nil {
		return exit(err)
	}
	return nil
}

// previewFit parses "COLS,LINES", falling back to the terminal's size and
// then to 80x25.
func previewFit(fit string) (int, int, error) {
	if fit == "" {
		if cols, lines, err := getTerminalSize(); err == nil && cols > 0 && lines > 1 {
			return cols, lines, nil
		}
		return 80, 25, nil // Small, but a pretty standard default
	}
	parts := strings.Split(fit, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("fit: want COLS,LINES, got %q", fit)
	}
	cols, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || cols < 1 {
		return 0, 0, fmt.Errorf("fit: want COLS,LINES, got %q", fit)
	}
	lines, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || lines < 2 {
		return 0, 0, fmt.Errorf("fit: want COLS,LINES, got %q", fit)
	}
	return cols, lines, nil
}
