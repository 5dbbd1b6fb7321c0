// Package viewer is the ebiten front end: it draws the seat of every
// brotherhood, the route being authored and the procession walking it, and
// turns mouse and keyboard input into builder calls and runtime commands.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/basicfont"

	"github.com/comalice/procession"
	"github.com/comalice/procession/internal/bus"
	"github.com/comalice/procession/internal/extensibility"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/viewer/scene"
	"github.com/comalice/procession/realtime"
)

// Window size in pixels; world coordinates map 1:1 onto it.
const (
	Width  = 1280
	Height = 800
)

var speeds = []float64{0.5, 1, 2, 4, 8}

// Game implements ebiten.Game over a Simulation whose renderer is scene.
type Game struct {
	sim     *procession.Simulation
	scene   *scene.Scene
	rt      *realtime.Runtime
	sprites *spriteCache
	face    text.Face
	log     zerolog.Logger
	events  *bus.Subscription

	roster   []primitives.Actor
	actorIdx int
	habit    color.RGBA
	tinted   bool

	speedIdx  int
	tickAccum float64
	showHelp  bool

	prevKeys      map[ebiten.Key]bool
	prevMouseLeft bool
}

// New builds the game. sc must be the renderer sim was created with.
func New(sim *procession.Simulation, sc *scene.Scene) *Game {
	g := &Game{
		sim:   sim,
		scene: sc,
		rt: realtime.NewRuntime(sim.Controller, realtime.Config{
			TickRate: time.Second / 60,
			Logger:   sim.Log,
		}),
		sprites:  newSpriteCache(sim.Assets),
		face:     text.NewGoXFace(basicfont.Face7x13),
		log:      sim.World.Logger("viewer"),
		roster:   sim.Config.Actors,
		speedIdx: 1,
		prevKeys: map[ebiten.Key]bool{},
	}
	g.events = sim.World.Bus.OnAll(sc.Observe)
	if a := sim.World.Actor(); a != nil {
		for i := range g.roster {
			if g.roster[i].ID == a.ID {
				g.actorIdx = i
			}
		}
		g.setTint(a)
	}
	sc.Notify("click to start a route, H for keys")
	return g
}

// Close detaches the game from the bus.
func (g *Game) Close() {
	g.events.Cancel()
}

// Update handles input and advances the procession. Fractional speeds
// accumulate across frames.
func (g *Game) Update() error {
	g.handleInput()

	g.tickAccum += speeds[g.speedIdx]
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.rt.Step()
	}
	return nil
}

// Layout fixes the logical screen size.
func (g *Game) Layout(int, int) (int, int) {
	return Width, Height
}

func (g *Game) setTint(a *primitives.Actor) {
	g.tinted = false
	if a == nil || a.HabitColor == "" {
		return
	}
	c, err := extensibility.ParseHexColor(a.HabitColor)
	if err != nil {
		g.log.Warn().Err(err).Str("actor", a.ID).Msg("ignoring habit colour")
		return
	}
	// Halfway to white so the tint lightens the sprite instead of muddying it.
	g.habit = color.RGBA{R: c.R/2 + 128, G: c.G/2 + 128, B: c.B/2 + 128, A: 255}
	g.tinted = true
}

// pressed reports a key going down this frame.
func (g *Game) pressed(k ebiten.Key, current map[ebiten.Key]bool) bool {
	current[k] = ebiten.IsKeyPressed(k)
	return current[k] && !g.prevKeys[k]
}

// handleInput processes edge-triggered keys and clicks.
func (g *Game) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	b := g.sim.Builder

	// Authoring.
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && !g.prevMouseLeft {
		mx, my := ebiten.CursorPosition()
		g.click(geometry.Pt(float64(mx), float64(my)))
	}
	g.prevMouseLeft = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	if g.pressed(ebiten.KeyEnter, currentKeys) && b.Active() {
		_, _ = b.Finish()
	}
	if g.pressed(ebiten.KeyBackspace, currentKeys) {
		b.RemoveLastPoint()
	}
	if g.pressed(ebiten.KeyEscape, currentKeys) {
		b.Cancel()
	}
	if g.pressed(ebiten.KeyTab, currentKeys) {
		g.nextActor()
	}

	// Procession.
	if g.pressed(ebiten.KeyS, currentKeys) {
		g.send(realtime.StartCommand(g.sim.World.Actor(), g.sim.LastRoute()))
	}
	if g.pressed(ebiten.KeySpace, currentKeys) {
		g.send(realtime.PauseCommand())
	}
	if g.pressed(ebiten.KeyX, currentKeys) {
		g.send(realtime.CancelCommand())
	}

	// Sim speed: ,=slower .=faster.
	if g.pressed(ebiten.KeyComma, currentKeys) && g.speedIdx > 0 {
		g.speedIdx--
	}
	if g.pressed(ebiten.KeyPeriod, currentKeys) && g.speedIdx < len(speeds)-1 {
		g.speedIdx++
	}

	if g.pressed(ebiten.KeyF5, currentKeys) {
		g.quickSave()
	}
	if g.pressed(ebiten.KeyY, currentKeys) {
		g.advanceYear()
	}
	if g.pressed(ebiten.KeyH, currentKeys) {
		g.showHelp = !g.showHelp
	}

	// Clipboard.
	if g.pressed(ebiten.KeyC, currentKeys) {
		g.copyRoute()
	}
	if g.pressed(ebiten.KeyV, currentKeys) {
		g.pasteRoute()
	}

	g.prevKeys = currentKeys
}

// click opens a session for the current actor if none is open, then adds the
// point.
func (g *Game) click(p geometry.Point) {
	b := g.sim.Builder
	if g.sim.Controller.State().Running() {
		return
	}
	if !b.Active() {
		if err := b.StartForActor(nil); err != nil {
			return
		}
	}
	_, _ = b.AddPoint(p)
}

func (g *Game) nextActor() {
	if len(g.roster) == 0 || g.sim.Builder.Active() || g.sim.Controller.State().Running() {
		return
	}
	g.actorIdx = (g.actorIdx + 1) % len(g.roster)
	id := g.roster[g.actorIdx].ID
	if err := g.sim.SelectActor(id); err != nil {
		return
	}
	g.setTint(g.sim.World.Actor())
	g.scene.Clear()
	g.scene.Notify("selected " + id)
}

func (g *Game) send(cmd realtime.Command) {
	if err := g.rt.Send(cmd); err != nil {
		g.log.Warn().Err(err).Str("command", string(cmd.Kind)).Msg("command dropped")
	}
}

func (g *Game) copyRoute() {
	r := g.sim.LastRoute()
	if r == nil {
		g.scene.Notify("no route to copy")
		return
	}
	if err := clipboard.WriteAll(scene.RouteText(r)); err != nil {
		g.log.Warn().Err(err).Msg("clipboard write failed")
		g.scene.Notify("clipboard unavailable")
		return
	}
	g.scene.Notify(fmt.Sprintf("copied %s", r.ID))
}

func (g *Game) pasteRoute() {
	if g.sim.Builder.Active() || g.sim.Controller.State().Running() {
		return
	}
	s, err := clipboard.ReadAll()
	if err != nil {
		g.log.Warn().Err(err).Msg("clipboard read failed")
		g.scene.Notify("clipboard unavailable")
		return
	}
	pts, err := scene.ParsePoints(s)
	if err != nil {
		g.scene.Notify("clipboard holds no route")
		return
	}
	// Builder events report the outcome on the HUD.
	_, _ = g.sim.AuthorRoute(pts)
}

// advanceYear lets a year pass between processions. The HUD line comes from
// the TIME_ADVANCED event.
func (g *Game) advanceYear() {
	if g.sim.Controller.State().Running() {
		return
	}
	if _, err := g.sim.AdvanceYears(1); err != nil {
		g.scene.Notify(err.Error())
	}
}

// QuickSlot is the save slot written by F5; load it with -load quick.
const QuickSlot = "quick"

func (g *Game) quickSave() {
	if err := g.sim.SaveGame(context.Background(), QuickSlot); err != nil {
		g.scene.Notify("save failed: " + err.Error())
		return
	}
	g.scene.Notify("saved to slot " + QuickSlot)
}
