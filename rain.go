package matrixvision

import (
	"math"
	"math/rand"
)

// luminanceBias is how strongly a column's brightness pulls its speed and
// trail length towards the top of their ranges.
const luminanceBias = 0.5

// RainColumn is one vertical stream of falling glyphs.
type RainColumn struct {
	Head     int     // Row of the brightest glyph, negative while above the frame
	Progress float64 // Fraction of a row accumulated towards the next step
	Speed    float64 // Rows per tick
	Trail    int     // Rows lit including the head
	Glyphs   []int   // Glyphs[d] is the glyph index d rows above the head
	Life     int     // Number of times the column has respawned
}

// Tail is the topmost row still lit by the column.
func (c *RainColumn) Tail() int { return c.Head - c.Trail + 1 }

// RainSimulator owns the per-column falling-stream state of one run.
type RainSimulator struct {
	columns []RainColumn
	bias    []float64
	rows    int
	glyphs  int
	cfg     AnimationConfig
	rng     *rand.Rand
}

// NewRainSimulator creates one column per luminance map column, each spawned
// above the visible frame. glyphs is the alphabet size to draw from.
func NewRainSimulator(lm *LuminanceMap, glyphs int, cfg AnimationConfig, rng *rand.Rand) *RainSimulator {
	s := &RainSimulator{
		columns: make([]RainColumn, lm.Cols()),
		bias:    make([]float64, lm.Cols()),
		rows:    lm.Rows(),
		glyphs:  glyphs,
		cfg:     cfg,
		rng:     rng,
	}
	for col := range s.columns {
		s.bias[col] = lm.ColumnMean(col)
		s.columns[col].Glyphs = make([]int, 0, cfg.MaxTrail)
		s.spawn(col)
	}
	return s
}

// Rows is the number of visible rows per column.
func (s *RainSimulator) Rows() int { return s.rows }

// State returns the live column slice. Callers must treat it as read-only
// and must not keep it across AdvanceTick.
func (s *RainSimulator) State() []RainColumn { return s.columns }

// Snapshot returns a deep copy of the column state.
func (s *RainSimulator) Snapshot() []RainColumn {
	out := make([]RainColumn, len(s.columns))
	for i, c := range s.columns {
		out[i] = c
		out[i].Glyphs = append([]int(nil), c.Glyphs...)
	}
	return out
}

// AdvanceTick moves every column down by its speed, flickers trailing glyphs
// and respawns columns whose trail has left the bottom edge.
func (s *RainSimulator) AdvanceTick() {
	for col := range s.columns {
		c := &s.columns[col]
		c.Progress += c.Speed
		step := int(c.Progress)
		c.Progress -= float64(step)
		if step > 0 {
			c.Head += step
			// Glyphs stay on their rows as the head moves past them.
			if step < len(c.Glyphs) {
				copy(c.Glyphs[step:], c.Glyphs[:len(c.Glyphs)-step])
			}
			for d := 0; d < step && d < len(c.Glyphs); d++ {
				c.Glyphs[d] = s.rng.Intn(s.glyphs)
			}
		}
		for d := range c.Glyphs {
			if s.cfg.Flicker >= 1 || (s.cfg.Flicker > 0 && s.rng.Float64() < s.cfg.Flicker) {
				c.Glyphs[d] = s.rng.Intn(s.glyphs)
			}
		}
		if c.Tail() >= s.rows {
			s.spawn(col)
			c.Life++
		}
	}
}

// spawn places a column at a random offset above the frame with a fresh speed,
// trail and glyph sequence. Brighter columns lean towards faster, longer rain.
func (s *RainSimulator) spawn(col int) {
	c := &s.columns[col]
	cfg := s.cfg
	c.Head = -1 - s.rng.Intn(max(s.rows, 1))
	c.Progress = 0
	c.Speed = cfg.MinSpeed + (cfg.MaxSpeed-cfg.MinSpeed)*s.biased(col)
	c.Trail = cfg.MinTrail + int(math.Round(float64(cfg.MaxTrail-cfg.MinTrail)*s.biased(col)))
	c.Glyphs = c.Glyphs[:c.Trail]
	for d := range c.Glyphs {
		c.Glyphs[d] = s.rng.Intn(s.glyphs)
	}
}

// biased draws a uniform value in [0, 1] mixed with the column brightness.
func (s *RainSimulator) biased(col int) float64 {
	return s.rng.Float64()*(1-luminanceBias) + s.bias[col]*luminanceBias
}
