// Package procession assembles the choreography engine into a playable
// session: configuration, logging, the shared world, the route builder, the
// procession controller, the asset catalog and save-game storage.
//
// # Example Usage
//
//	cfg, _ := config.Load("procession.toml")
//	sim, _ := procession.New(procession.WithConfig(cfg))
//	defer sim.Close()
//
//	_ = sim.SelectActor("macarena")
//	_ = sim.Builder.StartForActor(nil)
//	_, _ = sim.Builder.AddPoint(geometry.Pt(300, 120))
//	_, _ = sim.Builder.AddPoint(geometry.Pt(320, 260))
//	r, _ := sim.Builder.Finish()
//
//	_ = sim.Start(r)
//	ticks, _ := sim.RunHeadless(10000)
package procession

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/bus"
	"github.com/comalice/procession/internal/config"
	"github.com/comalice/procession/internal/core"
	"github.com/comalice/procession/internal/extensibility"
	"github.com/comalice/procession/internal/formation"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/logging"
	"github.com/comalice/procession/internal/movement"
	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/production"
	"github.com/comalice/procession/internal/route"
	"github.com/comalice/procession/internal/world"
	"github.com/comalice/procession/realtime"
)

// Simulation is one playable session.
type Simulation struct {
	Config     config.Config
	Log        zerolog.Logger
	World      *world.Context
	Builder    *route.Builder
	Controller *core.Controller
	Assets     *extensibility.Catalog

	store    core.Store
	journal  *bus.Journal
	routeSub *bus.Subscription

	mu     sync.Mutex
	routes []*primitives.Route
}

type options struct {
	cfg      config.Config
	log      *zerolog.Logger
	clock    primitives.Clock
	renderer core.Renderer
	store    core.Store
	journal  io.Writer
	rand     world.Rand
}

// Option configures New.
type Option func(*options)

// WithConfig replaces config.Default().
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger replaces the logger built from the [log] section.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = &log }
}

// WithClock injects the clock used for timestamps.
func WithClock(c primitives.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRenderer attaches a rendering collaborator to the controller.
func WithRenderer(r core.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithStore replaces the file store built from the [storage] section.
func WithStore(s core.Store) Option {
	return func(o *options) { o.store = s }
}

// WithRand fixes the random source used when years pass.
func WithRand(r world.Rand) Option {
	return func(o *options) { o.rand = r }
}

// WithJournal writes every bus event to w as JSON lines.
func WithJournal(w io.Writer) Option {
	return func(o *options) { o.journal = w }
}

// New wires a session. The configuration is validated first.
func New(opts ...Option) (*Simulation, error) {
	o := options{cfg: config.Default(), clock: primitives.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", primitives.ErrValidation, err)
	}

	log := newLogger(cfg.Log)
	if o.log != nil {
		log = *o.log
	}

	catalog := extensibility.NewCatalog()
	if cfg.Assets.Sprites != "" {
		if err := catalog.LoadFile(cfg.Assets.Sprites); err != nil {
			return nil, fmt.Errorf("%w: %w", primitives.ErrAsset, err)
		}
	}

	wopts := []world.Option{world.WithClock(o.clock), world.WithLogger(log), world.WithYear(cfg.World.Year)}
	if len(cfg.Actors) > 0 {
		wopts = append(wopts, world.WithActor(cfg.Actors[0]))
	}
	if o.rand != nil {
		wopts = append(wopts, world.WithRand(o.rand))
	}
	w := world.New(wopts...)

	copts := []core.Option{
		core.WithComposer(formation.NewComposer(cfg.Formation)),
		core.WithMover(movement.NewEngine(cfg.Movement)),
		core.WithAssets(catalog),
		core.WithConfig(cfg.Procession),
	}
	if o.renderer != nil {
		copts = append(copts, core.WithRenderer(o.renderer))
	}

	s := &Simulation{
		Config: cfg,
		Log:    w.Logger("session"),
		World:  w,
		Builder: route.NewBuilder(w,
			route.WithProximityThreshold(cfg.Route.ProximityThreshold),
			route.WithMinPoints(cfg.Route.MinPoints),
		),
		Controller: core.NewController(w, copts...),
		Assets:     catalog,
		store:      o.store,
	}
	s.routeSub = bus.Subscribe(w.Bus, func(ev primitives.RouteCreated) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.routes = append(s.routes, ev.Route)
	})
	if o.journal != nil {
		s.journal = bus.NewJournal(w.Bus, o.journal)
	}
	return s, nil
}

func newLogger(lc config.LogConfig) zerolog.Logger {
	opts := logging.DefaultOptions(logging.ProfileRuntime)
	opts.Level, opts.Format = lc.Level, lc.Format
	logging.ApplyEnv(&opts)
	return logging.New(os.Stderr, opts)
}

// SelectActor makes the roster entry id the current actor.
func (s *Simulation) SelectActor(id string) error {
	a, ok := s.Config.Actor(id)
	if !ok {
		err := fmt.Errorf("%w: unknown actor %q", primitives.ErrValidation, id)
		s.Log.Warn().Err(err).Msg("actor selection rejected")
		return err
	}
	s.World.SetActor(&a)
	s.Log.Info().Str("actor", a.ID).Int("popularity", a.Popularity).Msg("actor selected")
	return nil
}

// AdvanceYears lets years pass for the current actor. A procession already
// under way keeps the actor it started with.
func (s *Simulation) AdvanceYears(years int) (primitives.TimeAdvanced, error) {
	ta, err := s.World.Advance(years)
	if err != nil {
		s.Log.Warn().Err(err).Msg("time advance rejected")
		return ta, err
	}
	return ta, nil
}

// Routes returns the routes created this session, oldest first.
func (s *Simulation) Routes() []*primitives.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*primitives.Route(nil), s.routes...)
}

// LastRoute returns the most recent route, or nil.
func (s *Simulation) LastRoute() *primitives.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.routes) == 0 {
		return nil
	}
	return s.routes[len(s.routes)-1]
}

// AddRoute records a route authored elsewhere (a file or the clipboard).
func (s *Simulation) AddRoute(r *primitives.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, r)
}

// AuthorRoute drives the builder for the current actor as a user clicking
// each of points would, then closes the route. A failure discards the session.
func (s *Simulation) AuthorRoute(points []geometry.Point) (*primitives.Route, error) {
	if err := s.Builder.StartForActor(nil); err != nil {
		return nil, err
	}
	for _, p := range points {
		if _, err := s.Builder.AddPoint(p); err != nil {
			s.Builder.Cancel()
			return nil, err
		}
	}
	r, err := s.Builder.Finish()
	if err != nil {
		s.Builder.Cancel()
		return nil, err
	}
	return r, nil
}

// Start begins a procession of the current actor on r. A nil r uses the last
// created route.
func (s *Simulation) Start(r *primitives.Route) error {
	if r == nil {
		r = s.LastRoute()
	}
	return s.Controller.Start(s.World.Actor(), r)
}

// NewRuntime returns a runtime ticking the controller at the configured rate.
func (s *Simulation) NewRuntime() *realtime.Runtime {
	return realtime.NewRuntime(s.Controller, realtime.Config{
		TickRate: s.Config.Runtime.TickInterval,
		Logger:   s.Log,
	})
}

// RunHeadless steps the controller without wall-clock waits until the
// procession leaves the running states or maxTicks ticks have run. It returns
// the number of ticks.
func (s *Simulation) RunHeadless(maxTicks int) (int, error) {
	if s.Controller.State() != primitives.StateActive {
		return 0, fmt.Errorf("%w: no procession is active", primitives.ErrState)
	}
	rt := s.NewRuntime()
	n := 0
	for ; n < maxTicks && s.Controller.State() == primitives.StateActive; n++ {
		rt.Step()
	}
	if s.Controller.State() == primitives.StateActive {
		return n, fmt.Errorf("%w: procession still %s after %d ticks", primitives.ErrRuntime, s.Controller.State(), n)
	}
	return n, nil
}

// Store returns the save-game store, creating the configured file store on
// first use.
func (s *Simulation) Store() (core.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return s.store, nil
	}
	st, err := production.NewStore(s.Config.Storage.Format, s.Config.Storage.Dir,
		production.WithLockTimeout(s.Config.Storage.LockTimeout))
	if err != nil {
		return nil, err
	}
	s.store = st
	return st, nil
}

// SaveGame writes the session under id.
func (s *Simulation) SaveGame(ctx context.Context, id string) error {
	st, err := s.Store()
	if err != nil {
		return err
	}
	snap := core.GameSnapshot{
		ID:         id,
		Actor:      s.World.Actor(),
		Year:       s.World.Year(),
		Routes:     s.Routes(),
		Procession: s.Controller.Snapshot(),
		SavedAt:    s.World.Clock.Now(),
	}
	if err := st.Save(ctx, snap); err != nil {
		s.Log.Error().Err(err).Str("save", id).Msg("save failed")
		return err
	}
	s.Log.Info().Str("save", id).Int("routes", len(snap.Routes)).Msg("game saved")
	return nil
}

// LoadGame restores the session saved under id. A saved procession is
// adopted by the controller, which must not be running.
func (s *Simulation) LoadGame(ctx context.Context, id string) error {
	st, err := s.Store()
	if err != nil {
		return err
	}
	snap, err := st.Load(ctx, id)
	if err != nil {
		s.Log.Error().Err(err).Str("save", id).Msg("load failed")
		return err
	}
	if snap.Procession != nil {
		if err := s.Controller.Adopt(snap.Procession); err != nil {
			return err
		}
	}
	s.World.SetActor(snap.Actor)
	if snap.Year != 0 {
		s.World.SetYear(snap.Year)
	}
	s.mu.Lock()
	s.routes = snap.Routes
	s.mu.Unlock()
	s.Log.Info().Str("save", id).Int("routes", len(snap.Routes)).Msg("game loaded")
	return nil
}

// Close detaches the journal and route tracking. It returns the first journal
// write error, if any.
func (s *Simulation) Close() error {
	s.routeSub.Cancel()
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}
