// Package scene holds the drawable state of the viewer independently of any
// graphics backend: the latest frames pushed by the controller, running fades,
// the status line and the text form of routes shared through the clipboard.
package scene

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/comalice/procession/internal/core"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
)

const maxStatus = 6

// fade is a scheduled disappearance with its absolute start time.
type fade struct {
	start    time.Time
	duration time.Duration
}

// Scene implements core.Renderer. The controller writes from the tick
// goroutine; the draw loop reads.
type Scene struct {
	clock primitives.Clock

	mu     sync.Mutex
	frames []core.Frame
	fades  map[string]fade
	status []string
}

// New returns an empty scene timing fades with clock.
func New(clock primitives.Clock) *Scene {
	if clock == nil {
		clock = primitives.SystemClock{}
	}
	return &Scene{clock: clock, fades: make(map[string]fade)}
}

// Render replaces the frames. A new procession clears old fades.
func (s *Scene) Render(frames []core.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fades) > 0 && len(frames) > 0 && !anyCompleted(frames) {
		s.fades = make(map[string]fade)
	}
	s.frames = append(s.frames[:0], frames...)
}

// FadeOut schedules every entry of plan relative to now.
func (s *Scene) FadeOut(plan []core.Fade) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range plan {
		s.fades[f.ParticipantID] = fade{start: now.Add(f.Delay), duration: f.Duration}
	}
}

// Frames returns a copy of the frames in draw order.
func (s *Scene) Frames() []core.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Frame(nil), s.frames...)
}

// Alpha is the opacity of participant id at now: 1 until its fade starts,
// then linear down to 0.
func (s *Scene) Alpha(id string, now time.Time) float64 {
	s.mu.Lock()
	f, ok := s.fades[id]
	s.mu.Unlock()
	if !ok || now.Before(f.start) {
		return 1
	}
	if f.duration <= 0 {
		return 0
	}
	a := 1 - float64(now.Sub(f.start))/float64(f.duration)
	if a < 0 {
		return 0
	}
	return a
}

// Faded reports whether every scheduled fade has finished at now. A scene
// with no fades is not faded.
func (s *Scene) Faded(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fades) == 0 {
		return false
	}
	for _, f := range s.fades {
		if now.Before(f.start.Add(f.duration)) {
			return false
		}
	}
	return true
}

// Clear drops frames and fades.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = s.frames[:0]
	s.fades = make(map[string]fade)
}

// Observe appends a status line for events worth showing on the HUD.
func (s *Scene) Observe(ev primitives.Event) {
	line := Describe(ev)
	if line == "" {
		return
	}
	s.Notify(line)
}

// Notify appends a free-form status line.
func (s *Scene) Notify(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = append(s.status, line)
	if len(s.status) > maxStatus {
		s.status = s.status[len(s.status)-maxStatus:]
	}
}

// Status returns the recent status lines, oldest first.
func (s *Scene) Status() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.status...)
}

func anyCompleted(frames []core.Frame) bool {
	for _, f := range frames {
		if f.Completed {
			return true
		}
	}
	return false
}

// Describe renders an event as one HUD line. Progress events are skipped
// because the HUD draws its own bar.
func Describe(ev primitives.Event) string {
	switch p := ev.Payload.(type) {
	case primitives.RouteCreationStarted:
		return fmt.Sprintf("route for %s: click to add points", p.ActorID)
	case primitives.RouteFinishSuggested:
		return "back at the seat: press Enter to close the route"
	case primitives.RouteCreated:
		return fmt.Sprintf("route %s created (%d points)", p.Route.ID, len(p.Route.Points))
	case primitives.RouteCreationCancelled:
		return "route discarded"
	case primitives.RouteCreationError:
		return "route: " + p.Reason
	case primitives.Started:
		return fmt.Sprintf("%s leaves with %d participants", p.ActorID, p.ParticipantCount)
	case primitives.PauseChanged:
		if p.IsPaused {
			return "paused"
		}
		return "resumed"
	case primitives.Completed:
		return fmt.Sprintf("%s is home after %s", p.ActorID, (time.Duration(p.ElapsedMs) * time.Millisecond).Round(time.Second))
	case primitives.Cancelled:
		return fmt.Sprintf("%s called off", p.ActorID)
	case primitives.Error:
		return fmt.Sprintf("%s error: %s", p.Source, p.Reason)
	case primitives.TimeAdvanced:
		line := fmt.Sprintf("year %d", p.ToYear)
		if p.ActorID != "" {
			line += fmt.Sprintf(", %s popularity %d", p.ActorID, p.Popularity)
		}
		if n := len(p.Events); n > 0 {
			line += "; " + p.Events[n-1].Description
		}
		return line
	}
	return ""
}

// FormatPoints writes points as "x,y" pairs separated by spaces, the form
// accepted by the simulate and route build commands.
func FormatPoints(points []geometry.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

// RouteText returns the waypoints of r between its seat endpoints, so pasting
// the text into a new session rebuilds the same route.
func RouteText(r *primitives.Route) string {
	if r == nil || len(r.Points) < 2 {
		return ""
	}
	pts := r.Points[1:]
	if n := len(pts); pts[n-1] == r.Points[0] {
		pts = pts[:n-1]
	}
	return FormatPoints(pts)
}

// ParsePoints is the inverse of FormatPoints. Pairs may also be separated by
// semicolons or newlines.
func ParsePoints(s string) ([]geometry.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ';' || r == '\n' || r == '\t' || r == '\r'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no points", primitives.ErrValidation)
	}
	points := make([]geometry.Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("%w: point %q is not x,y", primitives.ErrValidation, f)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: point %q: %w", primitives.ErrValidation, f, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: point %q: %w", primitives.ErrValidation, f, err)
		}
		points = append(points, geometry.Pt(x, y))
	}
	return points, nil
}
