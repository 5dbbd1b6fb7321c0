// Package extensibility provides the default collaborators plugged into the
// procession controller: an asset catalog of vector sprites with fallback
// generation, and renderer wrappers.
package extensibility

import (
	"fmt"
	"image/color"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/comalice/procession/internal/formation"
)

// OpKind selects a drawing primitive.
type OpKind string

const (
	OpLine       OpKind = "line"     // Points: x0,y0,x1,y1
	OpRect       OpKind = "rect"     // Points: x,y,w,h
	OpStrokeRect OpKind = "stroke"   // Points: x,y,w,h
	OpTriangle   OpKind = "triangle" // Points: x0,y0,x1,y1,x2,y2
	OpCircle     OpKind = "circle"   // Points: cx,cy,r
)

// DrawOp is one vector instruction in sprite-local pixels.
type DrawOp struct {
	Kind   OpKind    `yaml:"kind" json:"kind"`
	Color  string    `yaml:"color" json:"color"` // "#rrggbb"
	Width  float64   `yaml:"width,omitempty" json:"width,omitempty"`
	Points []float64 `yaml:"points" json:"points"`
}

// RGBA parses Color. Malformed colours draw as opaque magenta.
func (op DrawOp) RGBA() color.RGBA {
	c, err := ParseHexColor(op.Color)
	if err != nil {
		return color.RGBA{R: 0xff, B: 0xff, A: 0xff}
	}
	return c
}

// Sprite is a drawable asset described as vector operations.
type Sprite struct {
	Key      string   `yaml:"key" json:"key"`
	Width    int      `yaml:"width" json:"width"`
	Height   int      `yaml:"height" json:"height"`
	Ops      []DrawOp `yaml:"ops" json:"ops"`
	Fallback bool     `yaml:"-" json:"fallback"`
}

// Generator builds a placeholder sprite for a key.
type Generator func(key string) (Sprite, error)

// Catalog implements core.AssetProvider over registered sprites.
type Catalog struct {
	mu         sync.RWMutex
	sprites    map[string]Sprite
	generators map[string]Generator
}

// NewCatalog returns an empty catalog that knows how to draw placeholders
// for the four procession assets.
func NewCatalog() *Catalog {
	c := &Catalog{
		sprites:    make(map[string]Sprite),
		generators: make(map[string]Generator),
	}
	for key, gen := range builtinFallbacks {
		c.generators[key] = gen
	}
	return c
}

// Register adds or replaces a sprite.
func (c *Catalog) Register(s Sprite) error {
	if strings.TrimSpace(s.Key) == "" {
		return fmt.Errorf("sprite key is required")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("sprite %q: size %dx%d must be positive", s.Key, s.Width, s.Height)
	}
	for i, op := range s.Ops {
		if err := op.validate(); err != nil {
			return fmt.Errorf("sprite %q op %d: %w", s.Key, i, err)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sprites[s.Key] = s
	return nil
}

// SetGenerator installs the fallback generator for key.
func (c *Catalog) SetGenerator(key string, gen Generator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generators[key] = gen
}

// AssetExists reports whether key is registered.
func (c *Catalog) AssetExists(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sprites[key]
	return ok
}

// GenerateFallback registers a placeholder for key.
func (c *Catalog) GenerateFallback(key string) error {
	c.mu.RLock()
	gen, ok := c.generators[key]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no fallback generator for %q", key)
	}
	s, err := gen(key)
	if err != nil {
		return fmt.Errorf("generate %q: %w", key, err)
	}
	s.Key = key
	s.Fallback = true
	return c.Register(s)
}

// Sprite returns the sprite for key.
func (c *Catalog) Sprite(key string) (Sprite, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sprites[key]
	return s, ok
}

// Keys returns registered keys in sorted order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.sprites))
	for k := range c.sprites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type spriteFile struct {
	Sprites []Sprite `yaml:"sprites"`
}

// LoadFile registers every sprite in a YAML sprite sheet:
//
//	sprites:
//	  - key: nazareno
//	    width: 64
//	    height: 64
//	    ops:
//	      - {kind: rect, color: "#7e1e9c", points: [16, 32, 32, 32]}
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var f spriteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("yaml unmarshal %s: %w", path, err)
	}
	for _, s := range f.Sprites {
		if err := c.Register(s); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func (op DrawOp) validate() error {
	want := map[OpKind]int{OpLine: 4, OpRect: 4, OpStrokeRect: 4, OpTriangle: 6, OpCircle: 3}
	n, ok := want[op.Kind]
	if !ok {
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
	if len(op.Points) != n {
		return fmt.Errorf("%s needs %d coordinates, got %d", op.Kind, n, len(op.Points))
	}
	if _, err := ParseHexColor(op.Color); err != nil {
		return err
	}
	return nil
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

const (
	gold     = "#ffd700"
	purple   = "#7e1e9c"
	darkRed  = "#8b0000"
	steelSky = "#4682b4"
)

func float(bodyColor string) Generator {
	return func(key string) (Sprite, error) {
		return Sprite{Key: key, Width: 128, Height: 96, Ops: []DrawOp{
			{Kind: OpRect, Color: bodyColor, Points: []float64{8, 16, 112, 64}},
			{Kind: OpRect, Color: gold, Points: []float64{8, 8, 112, 8}},
			{Kind: OpRect, Color: gold, Points: []float64{8, 80, 112, 8}},
			{Kind: OpStrokeRect, Color: gold, Width: 2, Points: []float64{8, 16, 112, 64}},
		}}, nil
	}
}

var builtinFallbacks = map[string]Generator{
	formation.AssetVanguard: func(key string) (Sprite, error) {
		return Sprite{Key: key, Width: 64, Height: 64, Ops: []DrawOp{
			{Kind: OpLine, Color: gold, Width: 4, Points: []float64{32, 8, 32, 56}},
			{Kind: OpLine, Color: gold, Width: 4, Points: []float64{16, 20, 48, 20}},
		}}, nil
	},
	formation.AssetBearer: func(key string) (Sprite, error) {
		return Sprite{Key: key, Width: 64, Height: 64, Ops: []DrawOp{
			{Kind: OpTriangle, Color: purple, Points: []float64{16, 0, 32, 32, 48, 0}},
			{Kind: OpRect, Color: purple, Points: []float64{16, 32, 32, 32}},
		}}, nil
	},
	formation.AssetMisterio: float(darkRed),
	formation.AssetGloria:   float(steelSky),
}
