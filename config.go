package matrixvision

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Format names a video container/codec combination.
type Format string

const (
	FormatAVI Format = "avi" // Motion-JPEG in AVI
	FormatGIF Format = "gif" // Animated GIF, green palette
	FormatMP4 Format = "mp4" // H.264 in MP4, needs ffmpeg on PATH
)

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))); f {
	case FormatAVI, FormatGIF, FormatMP4:
		return f, true
	}
	return "", false
}

// FitMode controls how the source image is mapped onto the canvas.
type FitMode string

const (
	FitStretch FitMode = "stretch" // Resize to the canvas, ignoring aspect ratio
	FitFill    FitMode = "fill"    // Cover the canvas and crop the overflow
)

// Default configuration values.
const (
	DefaultFrameRate  = 30
	DefaultDuration   = 5 * time.Second
	DefaultWidth      = 640
	DefaultHeight     = 480
	DefaultCellWidth  = 10
	DefaultCellHeight = 16
	DefaultLevels     = 16
	DefaultMinSpeed   = 0.3
	DefaultMaxSpeed   = 1.2
	DefaultMinTrail   = 6
	DefaultMaxTrail   = 24
	DefaultFlicker    = 1.0
	DefaultQuality    = 85
)

// AnimationConfig holds the fixed parameters of a run. It is never mutated
// once an Engine has been built from it.
type AnimationConfig struct {
	FrameRate  int           `yaml:"fps"`         // Frames per second
	Duration   time.Duration `yaml:"duration"`    // Total animation length
	Width      int           `yaml:"width"`       // Canvas width in pixels
	Height     int           `yaml:"height"`      // Canvas height in pixels
	CellWidth  int           `yaml:"cell_width"`  // Glyph cell width in pixels
	CellHeight int           `yaml:"cell_height"` // Glyph cell height in pixels
	Levels     int           `yaml:"levels"`      // Brightness discretization level count K
	MinSpeed   float64       `yaml:"min_speed"`   // Rows per tick
	MaxSpeed   float64       `yaml:"max_speed"`
	MinTrail   int           `yaml:"min_trail"` // Rows
	MaxTrail   int           `yaml:"max_trail"`
	Flicker    float64       `yaml:"flicker"` // Chance a trailing glyph changes per tick
	Seed       int64         `yaml:"seed"`    // 0 picks a time based seed per run
	Fit        FitMode       `yaml:"fit"`
	Gamma      float64       `yaml:"gamma"`      // 1.0 leaves the image untouched
	Contrast   float64       `yaml:"contrast"`   // -100..100
	Brightness float64       `yaml:"brightness"` // -100..100
	Format     Format        `yaml:"format"`
	Quality    int           `yaml:"quality"` // JPEG quality for AVI frames
}

// ConfigOpt adjusts an AnimationConfig.
type ConfigOpt func(cfg *AnimationConfig)

// WithFrameRate sets the frames per second.
func WithFrameRate(fps int) ConfigOpt {
	return func(cfg *AnimationConfig) {
		cfg.FrameRate = fps
	}
}

// WithDuration sets the total animation length.
func WithDuration(d time.Duration) ConfigOpt {
	return func(cfg *AnimationConfig) {
		cfg.Duration = d
	}
}

// WithCanvas sets the output frame size.
func WithCanvas(width, height int) ConfigOpt {
	return func(cfg *AnimationConfig) {
		cfg.Width, cfg.Height = width, height
	}
}

// WithCell sets the glyph cell size.
func WithCell(width, height int) ConfigOpt {
	return func(cfg *AnimationConfig) {
		cfg.CellWidth, cfg.CellHeight = width, height
	}
}

// WithLevels sets the brightness level count shared by the atlas and the
// luminance map.
func WithLevels(levels int) ConfigOpt {
	return func(cfg *AnimationConfig) {
		cfg.Levels = levels
	}
}

// WithSeed fixes the random seed, making runs reproducible.
func WithSeed(seed int64) ConfigOpt {
	return func(cfg *AnimationConfig) {
		cfg.Seed = seed
	}
}

// WithFormat selects the output container.
func WithFormat(f Format) ConfigOpt {
	return func(cfg *AnimationConfig) {
		cfg.Format = f
	}
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() AnimationConfig {
	return AnimationConfig{
		FrameRate:  DefaultFrameRate,
		Duration:   DefaultDuration,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		CellWidth:  DefaultCellWidth,
		CellHeight: DefaultCellHeight,
		Levels:     DefaultLevels,
		MinSpeed:   DefaultMinSpeed,
		MaxSpeed:   DefaultMaxSpeed,
		MinTrail:   DefaultMinTrail,
		MaxTrail:   DefaultMaxTrail,
		Flicker:    DefaultFlicker,
		Fit:        FitStretch,
		Gamma:      1.0,
		Format:     FormatAVI,
		Quality:    DefaultQuality,
	}
}

// NewConfig returns DefaultConfig with opts applied.
func NewConfig(opts ...ConfigOpt) AnimationConfig {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// FrameCount is FrameRate × Duration, truncated to whole frames.
func (cfg AnimationConfig) FrameCount() int {
	return int(int64(cfg.FrameRate) * int64(cfg.Duration) / int64(time.Second))
}

// Cols is the number of glyph columns across the canvas.
func (cfg AnimationConfig) Cols() int { return cfg.Width / cfg.CellWidth }

// Rows is the number of glyph rows down the canvas.
func (cfg AnimationConfig) Rows() int { return cfg.Height / cfg.CellHeight }

// Validate reports the first invalid field.
func (cfg AnimationConfig) Validate() error {
	switch {
	case cfg.FrameRate < 1 || cfg.FrameRate > 120:
		return fmt.Errorf("fps out of range (1-120): got %d", cfg.FrameRate)
	case cfg.Duration <= 0:
		return fmt.Errorf("duration must be positive: got %s", cfg.Duration)
	case cfg.FrameCount() < 1:
		return fmt.Errorf("duration %s at %d fps yields no frames", cfg.Duration, cfg.FrameRate)
	case cfg.Width < 1 || cfg.Height < 1 || cfg.Width > 4096 || cfg.Height > 4096:
		return fmt.Errorf("canvas out of range (1-4096): got %dx%d", cfg.Width, cfg.Height)
	case cfg.CellWidth < 1 || cfg.CellHeight < 1:
		return fmt.Errorf("invalid cell size %dx%d", cfg.CellWidth, cfg.CellHeight)
	case cfg.Width%cfg.CellWidth != 0 || cfg.Height%cfg.CellHeight != 0:
		return fmt.Errorf("canvas %dx%d is not a multiple of cell %dx%d",
			cfg.Width, cfg.Height, cfg.CellWidth, cfg.CellHeight)
	case cfg.Levels < 2 || cfg.Levels > 256:
		return fmt.Errorf("levels out of range (2-256): got %d", cfg.Levels)
	case cfg.MinSpeed <= 0 || cfg.MaxSpeed < cfg.MinSpeed:
		return errors.New("invalid fall speed range")
	case cfg.MinTrail < 1 || cfg.MaxTrail < cfg.MinTrail:
		return errors.New("invalid trail length range")
	case cfg.Flicker < 0 || cfg.Flicker > 1:
		return fmt.Errorf("flicker out of range (0-1): got %.2f", cfg.Flicker)
	case cfg.Gamma <= 0:
		return fmt.Errorf("gamma must be positive: got %.2f", cfg.Gamma)
	case cfg.Contrast < -100 || cfg.Contrast > 100:
		return fmt.Errorf("contrast out of range (-100-100): got %.1f", cfg.Contrast)
	case cfg.Brightness < -100 || cfg.Brightness > 100:
		return fmt.Errorf("brightness out of range (-100-100): got %.1f", cfg.Brightness)
	case cfg.Quality < 1 || cfg.Quality > 100:
		return fmt.Errorf("quality out of range (1-100): got %d", cfg.Quality)
	}
	switch cfg.Fit {
	case FitStretch, FitFill:
	default:
		return fmt.Errorf("unknown fit mode %q", cfg.Fit)
	}
	switch cfg.Format {
	case FormatAVI, FormatGIF, FormatMP4:
	default:
		return fmt.Errorf("unknown format %q", cfg.Format)
	}
	return nil
}

// FileConfig is the on-disk configuration: the font resource, the glyph
// alphabet and the animation parameters.
type FileConfig struct {
	Font      string          `yaml:"font"`
	Alphabet  string          `yaml:"alphabet"`
	Animation AnimationConfig `yaml:"animation"`
}

// LoadConfig reads a YAML configuration file. Fields absent from the file
// keep their defaults.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data on top of the defaults.
func ParseConfig(data []byte) (*FileConfig, error) {
	fc := FileConfig{
		Alphabet:  DefaultAlphabet,
		Animation: DefaultConfig(),
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %v", err)
	}
	if err := fc.Animation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}
	return &fc, nil
}
