package viewer

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/comalice/procession/internal/core"
	"github.com/comalice/procession/internal/extensibility"
	"github.com/comalice/procession/internal/primitives"
)

// Sprites are authored at 64px for walkers and 128px for floats; on the map
// they are drawn at half size.
const spriteScale = 0.5

// spriteCache rasterizes catalog sprites once per key.
type spriteCache struct {
	catalog *extensibility.Catalog
	images  map[string]*ebiten.Image
}

func newSpriteCache(c *extensibility.Catalog) *spriteCache {
	return &spriteCache{catalog: c, images: make(map[string]*ebiten.Image)}
}

// image returns the rasterized sprite for key, or nil when the catalog has
// none.
func (c *spriteCache) image(key string) *ebiten.Image {
	if img, ok := c.images[key]; ok {
		return img
	}
	s, ok := c.catalog.Sprite(key)
	if !ok {
		return nil
	}
	img := ebiten.NewImage(s.Width, s.Height)
	for _, op := range s.Ops {
		drawOp(img, op)
	}
	c.images[key] = img
	return img
}

func drawOp(dst *ebiten.Image, op extensibility.DrawOp) {
	col := op.RGBA()
	p := func(i int) float32 { return float32(op.Points[i]) }
	width := float32(op.Width)
	if width <= 0 {
		width = 1
	}
	switch op.Kind {
	case extensibility.OpLine:
		vector.StrokeLine(dst, p(0), p(1), p(2), p(3), width, col, true)
	case extensibility.OpRect:
		vector.FillRect(dst, p(0), p(1), p(2), p(3), col, false)
	case extensibility.OpStrokeRect:
		vector.StrokeRect(dst, p(0), p(1), p(2), p(3), width, col, false)
	case extensibility.OpCircle:
		vector.FillCircle(dst, p(0), p(1), p(2), col, true)
	case extensibility.OpTriangle:
		var path vector.Path
		path.MoveTo(p(0), p(1))
		path.LineTo(p(2), p(3))
		path.LineTo(p(4), p(5))
		path.Close()
		opts := &vector.DrawPathOptions{AntiAlias: true}
		opts.ColorScale.ScaleWithColor(col)
		vector.FillPath(dst, &path, &vector.FillOptions{}, opts)
	}
}

// drawFrame draws one participant centred on its position, turned to face
// along its heading and shifted sideways by its sway.
func (c *spriteCache) drawFrame(screen *ebiten.Image, f core.Frame, alpha float64, habit color.RGBA, tinted bool) {
	if alpha <= 0 {
		return
	}
	img := c.image(f.AssetKey)
	if img == nil {
		vector.FillCircle(screen, float32(f.Position.X), float32(f.Position.Y), 4,
			color.RGBA{R: 255, G: 0, B: 255, A: uint8(255 * alpha)}, true)
		return
	}
	b := img.Bounds()
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2)
	opts.GeoM.Scale(spriteScale, spriteScale)
	opts.GeoM.Rotate(f.Orientation + math.Pi/2)
	opts.GeoM.Translate(
		f.Position.X-math.Sin(f.Orientation)*f.Sway,
		f.Position.Y+math.Cos(f.Orientation)*f.Sway,
	)
	if tinted && f.Type == primitives.Bearer {
		opts.ColorScale.ScaleWithColor(habit)
	}
	opts.ColorScale.ScaleAlpha(float32(alpha))
	opts.Filter = ebiten.FilterLinear
	screen.DrawImage(img, opts)
}
