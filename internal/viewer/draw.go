package viewer

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
)

var (
	colBackground = color.RGBA{R: 34, G: 30, B: 26, A: 255}
	colStreet     = color.RGBA{R: 52, G: 46, B: 40, A: 255}
	colSeat       = color.RGBA{R: 160, G: 140, B: 110, A: 255}
	colSelected   = color.RGBA{R: 255, G: 215, B: 0, A: 255}
	colRoute      = color.RGBA{R: 200, G: 170, B: 90, A: 140}
	colDraft      = color.RGBA{R: 120, G: 200, B: 255, A: 220}
	colPanel      = color.RGBA{R: 10, G: 8, B: 6, A: 210}
	colPanelEdge  = color.RGBA{R: 110, G: 90, B: 60, A: 180}
	colText       = color.RGBA{R: 235, G: 225, B: 205, A: 255}
	colBar        = color.RGBA{R: 200, G: 40, B: 60, A: 255}
)

const (
	lineH = 15
	charW = 7
	padX  = 6
	padY  = 5
	grid  = 40
)

var helpLines = []string{
	"click     add point (opens a route)",
	"Enter     close route at the seat",
	"Backspace remove last point",
	"Esc       discard route",
	"Tab       next brotherhood",
	"S         start procession",
	"Space     pause / resume",
	"X         cancel procession",
	", .       slower / faster",
	"C V       copy / paste route",
	"Y         next year",
	"F5        quick save",
}

// Draw renders the map, routes, participants and HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	for x := 0; x < Width; x += grid {
		vector.StrokeLine(screen, float32(x), 0, float32(x), Height, 1, colStreet, false)
	}
	for y := 0; y < Height; y += grid {
		vector.StrokeLine(screen, 0, float32(y), Width, float32(y), 1, colStreet, false)
	}

	g.drawSeats(screen)
	if r := g.sim.LastRoute(); r != nil {
		drawPolyline(screen, r.Points, 3, colRoute)
	}
	g.drawDraft(screen)

	now := time.Now()
	for _, f := range g.scene.Frames() {
		g.sprites.drawFrame(screen, f, g.scene.Alpha(f.ParticipantID, now), g.habit, g.tinted)
	}

	g.drawHUD(screen)
}

func (g *Game) drawSeats(screen *ebiten.Image) {
	current := g.sim.World.Actor()
	for _, a := range g.roster {
		x, y := float32(a.Anchor.X), float32(a.Anchor.Y)
		col := colSeat
		if current != nil && current.ID == a.ID {
			col = colSelected
			vector.StrokeCircle(screen, x, y, float32(g.sim.Builder.ProximityThreshold()), 1, col, true)
		}
		vector.FillRect(screen, x-8, y-8, 16, 16, col, false)
		g.drawText(screen, a.ID, float64(x)+12, float64(y)-6, col)
	}
}

func (g *Game) drawDraft(screen *ebiten.Image) {
	pts := g.sim.Builder.Points()
	if len(pts) == 0 {
		return
	}
	drawPolyline(screen, pts, 2, colDraft)
	for _, p := range pts {
		vector.FillCircle(screen, float32(p.X), float32(p.Y), 4, colDraft, true)
	}
	mx, my := ebiten.CursorPosition()
	last := pts[len(pts)-1]
	faint := colDraft
	faint.A = 90
	vector.StrokeLine(screen, float32(last.X), float32(last.Y), float32(mx), float32(my), 1, faint, true)
}

func drawPolyline(screen *ebiten.Image, pts []geometry.Point, width float32, col color.Color) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), width, col, true)
	}
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y float64, col color.Color) {
	opts := &text.DrawOptions{}
	opts.GeoM.Translate(x, y)
	opts.ColorScale.ScaleWithColor(col)
	opts.LineSpacing = lineH
	text.Draw(screen, s, g.face, opts)
}

// panel draws lines in a boxed panel with its top-left corner at (x, y) and
// returns the panel height.
func (g *Game) panel(screen *ebiten.Image, lines []string, x, y float32) float32 {
	maxLen := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > maxLen {
			maxLen = n
		}
	}
	w := float32(maxLen*charW + padX*2)
	h := float32(len(lines)*lineH + padY*2)
	vector.FillRect(screen, x, y, w, h, colPanel, false)
	vector.StrokeRect(screen, x, y, w, h, 1, colPanelEdge, false)
	g.drawText(screen, strings.Join(lines, "\n"), float64(x+padX), float64(y+padY), colText)
	return h
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	ctl := g.sim.Controller
	state := ctl.State()
	actor := "none"
	if a := g.sim.World.Actor(); a != nil {
		actor = a.ID
	}
	lines := []string{
		fmt.Sprintf("%s  %d", actor, g.sim.World.Year()),
		fmt.Sprintf("state %s  speed %gx", state, speeds[g.speedIdx]),
	}
	if snap := ctl.Snapshot(); snap != nil && state != primitives.StateIdle {
		elapsed := (time.Duration(snap.ElapsedMs) * time.Millisecond).Round(time.Second)
		lines = append(lines, fmt.Sprintf("elapsed %s  home %d/%d", elapsed, snap.CompletedCount, len(snap.Participants)))
	}
	if b := g.sim.Builder; b.Active() {
		lines = append(lines, fmt.Sprintf("route %s, %d points", b.Phase(), len(b.Points())))
	}
	h := g.panel(screen, lines, 8, 8)

	if state.Running() || state == primitives.StateCompleted {
		const barW = 200
		p := float32(ctl.Progress())
		vector.FillRect(screen, 8, 8+h+4, barW, 6, colPanel, false)
		vector.FillRect(screen, 8, 8+h+4, barW*p, 6, colBar, false)
	}

	if status := g.scene.Status(); len(status) > 0 {
		sh := float32(len(status)*lineH + padY*2)
		g.panel(screen, status, 8, Height-sh-8)
	}
	if g.showHelp {
		w := float32(36*charW + padX*2)
		g.panel(screen, helpLines, Width-w-8, 8)
	}
}
