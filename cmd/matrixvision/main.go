package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/codegangsta/cli"
	"github.com/kevin-cantwell/matrixvision"
	"golang.org/x/image/font/gofont/gomono"
)

func main() {
	app := cli.NewApp()
	app.Version = "0.1.0"
	app.Name = "matrixvision"
	app.Usage = "Turns photos into Matrix digital rain videos."
	app.Author = "Kevin Cantwell"
	app.Email = "kevin.cantwell@gmail.com"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "YAML `FILE` with font, alphabet and animation settings.",
		},
		cli.StringFlag{
			Name:  "font",
			Usage: "TrueType `FONT` to draw glyphs with. Defaults to the built-in Go Mono.",
		},
		cli.StringFlag{
			Name:  "alphabet",
			Usage: "`GLYPHS` to rain. Characters missing from the font are skipped.",
		},
		cli.BoolFlag{
			Name:  "verbose,v",
			Usage: "Log progress to stderr.",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "render",
			Usage:     "Render one video per image.",
			ArgsUsage: "[file|url ...]",
			Flags: append(animationFlags(),
				cli.StringFlag{
					Name:  "out,o",
					Usage: "Output `PATH`. A directory when rendering several images. Omit to write to stdout.",
				},
				cli.IntFlag{
					Name:  "jobs,j",
					Usage: "Render up to `N` images at once.",
					Value: 2,
				},
			),
			Action: render,
		},
		{
			Name:      "preview",
			Usage:     "Print a frame in the terminal as braille.",
			ArgsUsage: "[file|url]",
			Flags: append(animationFlags(),
				cli.StringFlag{
					Name:  "fit",
					Usage: "`FIT` = 80,25 scales the frame to fit 80 columns and 25 lines.",
				},
				cli.IntFlag{
					Name:  "frame",
					Usage: "Index of the `FRAME` to print. Defaults to the middle one.",
					Value: -1,
				},
				cli.BoolFlag{
					Name:  "play,p",
					Usage: "Play the whole animation in the terminal.",
				},
				cli.BoolFlag{
					Name:  "invert,i",
					Usage: "Inverts the dots.",
				},
				cli.Float64Flag{
					Name:  "luminosity",
					Usage: "`LUMINOSITY` above which a pixel becomes a dot, 0-1.",
					Value: 0.15,
				},
			),
			Action: preview,
		},
		{
			Name:      "lumamap",
			Usage:     "Draw the luminance map of an image to a PNG file.",
			ArgsUsage: "IMAGE OUT.png",
			Flags:     animationFlags(),
			Action:    lumamap,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func animationFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "format,f",
			Usage: "Container `FORMAT`: avi, gif or mp4 (needs ffmpeg). Guessed from --out when unset.",
		},
		cli.IntFlag{
			Name:  "fps,r",
			Usage: "Frames per second.",
			Value: matrixvision.DefaultFrameRate,
		},
		cli.DurationFlag{
			Name:  "duration,d",
			Usage: "Animation `LENGTH`.",
			Value: matrixvision.DefaultDuration,
		},
		cli.StringFlag{
			Name:  "size,s",
			Usage: "Canvas `WxH` in pixels.",
			Value: fmt.Sprintf("%dx%d", matrixvision.DefaultWidth, matrixvision.DefaultHeight),
		},
		cli.StringFlag{
			Name:  "cell",
			Usage: "Glyph cell `WxH` in pixels. Must divide the canvas.",
			Value: fmt.Sprintf("%dx%d", matrixvision.DefaultCellWidth, matrixvision.DefaultCellHeight),
		},
		cli.IntFlag{
			Name:  "levels",
			Usage: "Number of brightness `LEVELS`.",
			Value: matrixvision.DefaultLevels,
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "Random `SEED`. 0 picks a new one every run.",
		},
		cli.StringFlag{
			Name:  "fit-mode",
			Usage: "`MODE` = stretch resizes the photo to the canvas, fill crops it to keep its aspect.",
			Value: string(matrixvision.FitStretch),
		},
		cli.IntFlag{
			Name:  "quality,q",
			Usage: "JPEG `QUALITY` of AVI frames.",
			Value: matrixvision.DefaultQuality,
		},
		cli.Float64Flag{
			Name:  "gamma,g",
			Usage: "`GAMMA` = 1.0 gives the original image. GAMMA less than 1.0 darkens the image and GAMMA greater than 1.0 lightens it.",
			Value: 1.0,
		},
		cli.Float64Flag{
			Name:  "brightness,b",
			Usage: "`BRIGHTNESS` = 0 gives the original image. BRIGHTNESS = -100 gives solid black image. BRIGHTNESS = 100 gives solid white image.",
		},
		cli.Float64Flag{
			Name:  "contrast,c",
			Usage: "`CONTRAST` = 0 gives the original image. CONTRAST = -100 gives solid grey image. CONTRAST = 100 gives maximum contrast.",
		},
	}
}

// settings is everything a command needs, merged from defaults, the config
// file and flags, in that order.
type settings struct {
	cfg    matrixvision.AnimationConfig
	atlas  *matrixvision.AtlasProvider
	logger *log.Logger
}

func loadSettings(c *cli.Context) (*settings, error) {
	fc := &matrixvision.FileConfig{
		Alphabet:  matrixvision.DefaultAlphabet,
		Animation: matrixvision.DefaultConfig(),
	}
	if path := c.GlobalString("config"); path != "" {
		var err error
		if fc, err = matrixvision.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if c.GlobalIsSet("font") {
		fc.Font = c.GlobalString("font")
	}
	if c.GlobalIsSet("alphabet") {
		fc.Alphabet = c.GlobalString("alphabet")
	}
	cfg := &fc.Animation
	if err := applyFlags(c, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &settings{
		cfg:    *cfg,
		logger: log.New(ioutil.Discard, "", 0),
	}
	if c.GlobalBool("verbose") {
		s.logger = log.New(os.Stderr, "matrixvision: ", log.LstdFlags)
	}
	opts := matrixvision.AtlasOptionsFor(s.cfg, fc.Alphabet)
	if fc.Font != "" {
		s.atlas = matrixvision.NewAtlasProvider(fc.Font, opts)
	} else {
		s.atlas = matrixvision.NewAtlasProviderFromBytes(gomono.TTF, opts)
	}
	return s, nil
}

func applyFlags(c *cli.Context, cfg *matrixvision.AnimationConfig) error {
	if c.IsSet("fps") {
		cfg.FrameRate = c.Int("fps")
	}
	if c.IsSet("duration") {
		cfg.Duration = c.Duration("duration")
	}
	if c.IsSet("size") {
		w, h, err := parseDims(c.String("size"))
		if err != nil {
			return fmt.Errorf("size: %v", err)
		}
		cfg.Width, cfg.Height = w, h
	}
	if c.IsSet("cell") {
		w, h, err := parseDims(c.String("cell"))
		if err != nil {
			return fmt.Errorf("cell: %v", err)
		}
		cfg.CellWidth, cfg.CellHeight = w, h
	}
	if c.IsSet("levels") {
		cfg.Levels = c.Int("levels")
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Int64("seed")
	}
	if c.IsSet("fit-mode") {
		cfg.Fit = matrixvision.FitMode(c.String("fit-mode"))
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("gamma") {
		cfg.Gamma = c.Float64("gamma")
	}
	if c.IsSet("brightness") {
		cfg.Brightness = c.Float64("brightness")
	}
	if c.IsSet("contrast") {
		cfg.Contrast = c.Float64("contrast")
	}
	switch {
	case c.IsSet("format"):
		cfg.Format = matrixvision.Format(strings.ToLower(c.String("format")))
	case c.String("out") != "":
		if f, ok := matrixvision.FormatFromPath(c.String("out")); ok {
			cfg.Format = f
		}
	}
	return nil
}

// parseDims parses "WxH".
func parseDims(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want WxH, got %q", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("want WxH, got %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("want WxH, got %q", s)
	}
	return w, h, nil
}

// readInput reads a file, a url or, for "" and "-", stdin.
func readInput(input string) ([]byte, error) {
	if input == "" || input == "-" {
		return ioutil.ReadAll(os.Stdin)
	}
	// Is it a file?
	if file, err := os.Open(input); err == nil {
		defer file.Close()
		return ioutil.ReadAll(file)
	}
	// Is it a url?
	resp, err := http.Get(input)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", input, resp.Status)
	}
	return ioutil.ReadAll(io.LimitReader(resp.Body, 64<<20))
}

func engineFor(s *settings) (*matrixvision.Engine, error) {
	start := time.Now()
	atlas, err := s.atlas.Atlas()
	if err != nil {
		return nil, err
	}
	s.logger.Printf("atlas ready: %d glyphs x %d levels in %s", atlas.Len(), atlas.Levels(), time.Since(start))
	return matrixvision.NewEngine(atlas, s.cfg, matrixvision.WithLogger(s.logger))
}

// interruptible returns a context cancelled by SIGINT or SIGTERM.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func exit(err error) error {
	return cli.NewExitError(err.Error(), 1)
}
