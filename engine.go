package matrixvision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"log"
	"math/rand"
	"time"
)

// EngineOpt adjusts an Engine.
type EngineOpt func(e *Engine)

// WithLogger sets where the engine reports progress. The default discards.
func WithLogger(l *log.Logger) EngineOpt {
	return func(e *Engine) {
		e.log = l
	}
}

// WithWorkers caps the goroutines used to render the columns of one frame.
func WithWorkers(n int) EngineOpt {
	return func(e *Engine) {
		e.workers = n
	}
}

// Engine turns image bytes into a matrix rain video. It holds no mutable
// state, so one Engine may serve any number of concurrent runs; each run owns
// its random source, rain state and frames, and shares only the atlas.
type Engine struct {
	atlas   *GlyphAtlas
	cfg     AnimationConfig
	log     *log.Logger
	workers int
}

// NewEngine validates cfg against atlas.
func NewEngine(atlas *GlyphAtlas, cfg AnimationConfig, opts ...EngineOpt) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("matrixvision: %v", err)
	}
	e := &Engine{
		atlas: atlas,
		cfg:   cfg,
		log:   log.New(ioutil.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, err := NewCompositor(atlas, cfg, e.workers); err != nil {
		return nil, err
	}
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() AnimationConfig { return e.cfg }

// Run renders img and writes the video to path. Nothing is left at path
// when any step fails or ctx is cancelled.
func (e *Engine) Run(ctx context.Context, img []byte, path string) error {
	lm, err := e.decode(img)
	if err != nil {
		return err
	}
	enc, err := NewFileEncoder(path, e.cfg)
	if err != nil {
		return err
	}
	if err := e.encode(ctx, lm, enc); err != nil {
		return err
	}
	e.log.Printf("wrote %s (%d frames)", path, enc.Frames())
	return nil
}

// RunTo renders img and writes the video to w. w receives nothing unless the
// whole run succeeds.
func (e *Engine) RunTo(ctx context.Context, img []byte, w io.Writer) error {
	lm, err := e.decode(img)
	if err != nil {
		return err
	}
	enc, err := NewStreamEncoder(w, e.cfg)
	if err != nil {
		return err
	}
	return e.encode(ctx, lm, enc)
}

// RunBytes renders img and returns the video.
func (e *Engine) RunBytes(ctx context.Context, img []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.RunTo(ctx, img, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Frames renders img and hands every frame to fn in order without encoding.
// A frame is only valid until fn returns. An error from fn stops the run and
// is returned as is.
func (e *Engine) Frames(ctx context.Context, img []byte, fn func(i int, frame *image.RGBA) error) error {
	lm, err := e.decode(img)
	if err != nil {
		return err
	}
	return e.animate(ctx, lm, fn)
}

func (e *Engine) decode(img []byte) (*LuminanceMap, error) {
	start := time.Now()
	lm, err := DecodeLuminance(img, e.cfg)
	if err != nil {
		return nil, err
	}
	e.log.Printf("decoded %d bytes into %dx%d cells in %s", len(img), lm.Cols(), lm.Rows(), time.Since(start))
	return lm, nil
}

func (e *Engine) encode(ctx context.Context, lm *LuminanceMap, enc VideoEncoder) error {
	err := e.animate(ctx, lm, func(_ int, frame *image.RGBA) error {
		return enc.AddFrame(frame)
	})
	if err != nil {
		if aerr := enc.Abort(); aerr != nil {
			e.log.Printf("discarding partial output: %v", aerr)
		}
		return err
	}
	return enc.Finalize()
}

// animate runs the tick loop. Ticks are strictly sequential; fn is always
// called from this goroutine, in frame order.
func (e *Engine) animate(ctx context.Context, lm *LuminanceMap, fn func(int, *image.RGBA) error) error {
	seed := e.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	comp, err := NewCompositor(e.atlas, e.cfg, e.workers)
	if err != nil {
		return err
	}
	sim := NewRainSimulator(lm, e.atlas.Len(), e.cfg, rand.New(rand.NewSource(seed)))
	frames := e.cfg.FrameCount()
	e.log.Printf("rendering %d frames at %d fps, canvas %dx%d, seed %d",
		frames, e.cfg.FrameRate, e.cfg.Width, e.cfg.Height, seed)

	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("matrixvision: stopped at frame %d of %d: %w", i, frames, err)
		}
		sim.AdvanceTick()
		frame := comp.NewFrame()
		if err := comp.Render(lm, sim.State(), frame); err != nil {
			return err
		}
		if err := fn(i, frame); err != nil {
			return err
		}
	}
	return nil
}
