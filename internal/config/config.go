// Package config loads engine tuning and the actor roster from TOML.
//
// Files are decoded into a raw mirror struct and merged field by field over
// Default(), so a file only needs the keys it wants to change.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/logging"
	"github.com/comalice/procession/internal/primitives"
)

type Config struct {
	World      WorldConfig
	Route      RouteConfig
	Formation  FormationConfig
	Movement   MovementConfig
	Procession ProcessionConfig
	Runtime    RuntimeConfig
	Storage    StorageConfig
	Assets     AssetsConfig
	Log        LogConfig
	Actors     []primitives.Actor
}

type WorldConfig struct {
	Year int
}

type RouteConfig struct {
	ProximityThreshold float64
	MinPoints          int
}

type FormationConfig struct {
	BaseSpeed            float64
	MaxBearers           int
	BearerDecay          float64
	VanguardFactor       float64
	PrimaryFloatFactor   float64
	SecondaryFloatFactor float64
}

type MovementConfig struct {
	FloatSway  float64
	WalkerSway float64
	SwayPeriod float64
}

type ProcessionConfig struct {
	ProgressInterval time.Duration
	FadeStagger      time.Duration
	FadeDuration     time.Duration
}

type RuntimeConfig struct {
	TickInterval time.Duration
}

type StorageConfig struct {
	Dir         string
	Format      string // "json" or "yaml"
	LockTimeout time.Duration
}

// AssetsConfig points at an optional YAML sprite file loaded over the
// built-in placeholders.
type AssetsConfig struct {
	Sprites string
}

type LogConfig struct {
	Level  zerolog.Level
	Format logging.Format
}

// Default returns the stock tuning.
func Default() Config {
	return Config{
		World: WorldConfig{Year: 2026},
		Route: RouteConfig{
			ProximityThreshold: 50,
			MinPoints:          primitives.MinRoutePoints,
		},
		Formation: FormationConfig{
			BaseSpeed:            1.0,
			MaxBearers:           50,
			BearerDecay:          0.005,
			VanguardFactor:       1.1,
			PrimaryFloatFactor:   0.8,
			SecondaryFloatFactor: 0.75,
		},
		Movement: MovementConfig{
			FloatSway:  0.05,
			WalkerSway: 0.02,
			SwayPeriod: 10,
		},
		Procession: ProcessionConfig{
			ProgressInterval: 30 * time.Second,
			FadeStagger:      100 * time.Millisecond,
			FadeDuration:     time.Second,
		},
		Runtime: RuntimeConfig{TickInterval: 100 * time.Millisecond},
		Storage: StorageConfig{
			Dir:         "saves",
			Format:      "json",
			LockTimeout: 2 * time.Second,
		},
		Log: LogConfig{
			Level:  zerolog.InfoLevel,
			Format: logging.FormatConsole,
		},
	}
}

// Validate rejects settings that would break movement or formation rules.
func (c Config) Validate() error {
	var errs []error
	if c.Route.ProximityThreshold <= 0 {
		errs = append(errs, fmt.Errorf("route.proximity_threshold must be positive, got %v", c.Route.ProximityThreshold))
	}
	if c.Route.MinPoints < primitives.MinRoutePoints {
		errs = append(errs, fmt.Errorf("route.min_points must be at least %d, got %d", primitives.MinRoutePoints, c.Route.MinPoints))
	}
	f := c.Formation
	if f.BaseSpeed <= 0 {
		errs = append(errs, fmt.Errorf("formation.base_speed must be positive, got %v", f.BaseSpeed))
	}
	if f.MaxBearers < 0 {
		errs = append(errs, fmt.Errorf("formation.max_bearers must not be negative, got %d", f.MaxBearers))
	}
	if f.BearerDecay < 0 || float64(f.MaxBearers)*f.BearerDecay >= 1 {
		errs = append(errs, fmt.Errorf("formation.bearer_decay %v leaves the slowest of %d bearers without positive speed", f.BearerDecay, f.MaxBearers))
	}
	if f.VanguardFactor <= 0 || f.PrimaryFloatFactor <= 0 || f.SecondaryFloatFactor <= 0 {
		errs = append(errs, errors.New("formation speed factors must be positive"))
	}
	if c.Movement.SwayPeriod <= 0 {
		errs = append(errs, fmt.Errorf("movement.sway_period must be positive, got %v", c.Movement.SwayPeriod))
	}
	if c.Procession.ProgressInterval <= 0 {
		errs = append(errs, errors.New("procession.progress_interval must be positive"))
	}
	if c.Procession.FadeStagger < 0 || c.Procession.FadeDuration < 0 {
		errs = append(errs, errors.New("procession fade timings must not be negative"))
	}
	if c.Runtime.TickInterval <= 0 {
		errs = append(errs, errors.New("runtime.tick_interval must be positive"))
	}
	switch c.Storage.Format {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("storage.format must be json or yaml, got %q", c.Storage.Format))
	}
	seen := make(map[string]bool)
	for i, a := range c.Actors {
		if strings.TrimSpace(a.ID) == "" {
			errs = append(errs, fmt.Errorf("actors[%d]: id is required", i))
			continue
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("actors[%d]: duplicate id %q", i, a.ID))
		}
		seen[a.ID] = true
		if a.Kind != primitives.StageMisterio && a.Kind != primitives.StageGloria {
			errs = append(errs, fmt.Errorf("actors[%d]: kind must be misterio or gloria, got %q", i, a.Kind))
		}
	}
	return errors.Join(errs...)
}

// Actor returns the roster entry with the given id.
func (c Config) Actor(id string) (primitives.Actor, bool) {
	for _, a := range c.Actors {
		if a.ID == id {
			return a, true
		}
	}
	return primitives.Actor{}, false
}

type fileConfig struct {
	World struct {
		Year int `toml:"year"`
	} `toml:"world"`
	Route struct {
		ProximityThreshold float64 `toml:"proximity_threshold"`
		MinPoints          int     `toml:"min_points"`
	} `toml:"route"`
	Formation struct {
		BaseSpeed            float64 `toml:"base_speed"`
		MaxBearers           int     `toml:"max_bearers"`
		BearerDecay          float64 `toml:"bearer_decay"`
		VanguardFactor       float64 `toml:"vanguard_factor"`
		PrimaryFloatFactor   float64 `toml:"primary_float_factor"`
		SecondaryFloatFactor float64 `toml:"secondary_float_factor"`
	} `toml:"formation"`
	Movement struct {
		FloatSway  float64 `toml:"float_sway"`
		WalkerSway float64 `toml:"walker_sway"`
		SwayPeriod float64 `toml:"sway_period"`
	} `toml:"movement"`
	Procession struct {
		ProgressInterval string `toml:"progress_interval"`
		FadeStagger      string `toml:"fade_stagger"`
		FadeDuration     string `toml:"fade_duration"`
	} `toml:"procession"`
	Runtime struct {
		TickInterval string `toml:"tick_interval"`
	} `toml:"runtime"`
	Storage struct {
		Dir         string `toml:"dir"`
		Format      string `toml:"format"`
		LockTimeout string `toml:"lock_timeout"`
	} `toml:"storage"`
	Assets struct {
		Sprites string `toml:"sprites"`
	} `toml:"assets"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
	Actors []actorFile `toml:"actors"`
}

type actorFile struct {
	ID           string  `toml:"id"`
	Name         string  `toml:"name"`
	Popularity   int     `toml:"popularity"`
	AnchorX      float64 `toml:"anchor_x"`
	AnchorY      float64 `toml:"anchor_y"`
	Secondary    bool    `toml:"secondary_stage"`
	Kind         string  `toml:"kind"`
	HabitColor   string  `toml:"habit_color"`
	FoundingYear int     `toml:"founding_year"`
}

// Load reads path and merges it over Default. The result is validated.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return merge(raw, meta)
}

// Parse is Load for in-memory TOML.
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return merge(raw, meta)
}

func merge(raw fileConfig, meta toml.MetaData) (Config, error) {
	cfg := Default()

	if meta.IsDefined("world", "year") {
		cfg.World.Year = raw.World.Year
	}
	if meta.IsDefined("route", "proximity_threshold") {
		cfg.Route.ProximityThreshold = raw.Route.ProximityThreshold
	}
	if meta.IsDefined("route", "min_points") {
		cfg.Route.MinPoints = raw.Route.MinPoints
	}

	if meta.IsDefined("formation", "base_speed") {
		cfg.Formation.BaseSpeed = raw.Formation.BaseSpeed
	}
	if meta.IsDefined("formation", "max_bearers") {
		cfg.Formation.MaxBearers = raw.Formation.MaxBearers
	}
	if meta.IsDefined("formation", "bearer_decay") {
		cfg.Formation.BearerDecay = raw.Formation.BearerDecay
	}
	if meta.IsDefined("formation", "vanguard_factor") {
		cfg.Formation.VanguardFactor = raw.Formation.VanguardFactor
	}
	if meta.IsDefined("formation", "primary_float_factor") {
		cfg.Formation.PrimaryFloatFactor = raw.Formation.PrimaryFloatFactor
	}
	if meta.IsDefined("formation", "secondary_float_factor") {
		cfg.Formation.SecondaryFloatFactor = raw.Formation.SecondaryFloatFactor
	}

	if meta.IsDefined("movement", "float_sway") {
		cfg.Movement.FloatSway = raw.Movement.FloatSway
	}
	if meta.IsDefined("movement", "walker_sway") {
		cfg.Movement.WalkerSway = raw.Movement.WalkerSway
	}
	if meta.IsDefined("movement", "sway_period") {
		cfg.Movement.SwayPeriod = raw.Movement.SwayPeriod
	}

	durations := []struct {
		key []string
		raw string
		dst *time.Duration
	}{
		{[]string{"procession", "progress_interval"}, raw.Procession.ProgressInterval, &cfg.Procession.ProgressInterval},
		{[]string{"procession", "fade_stagger"}, raw.Procession.FadeStagger, &cfg.Procession.FadeStagger},
		{[]string{"procession", "fade_duration"}, raw.Procession.FadeDuration, &cfg.Procession.FadeDuration},
		{[]string{"runtime", "tick_interval"}, raw.Runtime.TickInterval, &cfg.Runtime.TickInterval},
		{[]string{"storage", "lock_timeout"}, raw.Storage.LockTimeout, &cfg.Storage.LockTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key...) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", strings.Join(d.key, "."), err)
		}
		*d.dst = v
	}

	if meta.IsDefined("storage", "dir") {
		cfg.Storage.Dir = strings.TrimSpace(raw.Storage.Dir)
	}
	if meta.IsDefined("storage", "format") {
		cfg.Storage.Format = strings.ToLower(strings.TrimSpace(raw.Storage.Format))
	}

	if meta.IsDefined("assets", "sprites") {
		cfg.Assets.Sprites = strings.TrimSpace(raw.Assets.Sprites)
	}

	if meta.IsDefined("log", "level") {
		lvl, ok := logging.ParseLevel(raw.Log.Level)
		if !ok {
			return Config{}, fmt.Errorf("parse log.level: unknown level %q", raw.Log.Level)
		}
		cfg.Log.Level = lvl
	}
	if meta.IsDefined("log", "format") {
		f, ok := logging.ParseFormat(raw.Log.Format)
		if !ok {
			return Config{}, fmt.Errorf("parse log.format: unknown format %q", raw.Log.Format)
		}
		cfg.Log.Format = f
	}

	for _, a := range raw.Actors {
		kind := primitives.StageKind(strings.ToLower(strings.TrimSpace(a.Kind)))
		if kind == "" {
			kind = primitives.StageMisterio
		}
		cfg.Actors = append(cfg.Actors, primitives.Actor{
			ID:                strings.TrimSpace(a.ID),
			Name:              strings.TrimSpace(a.Name),
			Popularity:        a.Popularity,
			Anchor:            geometry.Pt(a.AnchorX, a.AnchorY),
			HasSecondaryStage: a.Secondary,
			Kind:              kind,
			HabitColor:        strings.TrimSpace(a.HabitColor),
			FoundingYear:      a.FoundingYear,
		})
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SampleRoster returns three brotherhoods for sessions whose config names no
// actors.
func SampleRoster() []primitives.Actor {
	return []primitives.Actor{
		{ID: "macarena", Name: "hermandad de la macarena", Popularity: 23, Anchor: geometry.Pt(120, 80), HasSecondaryStage: true, Kind: primitives.StageMisterio, HabitColor: "#1f6b3a", FoundingYear: 1595},
		{ID: "gran-poder", Name: "hermandad del gran poder", Popularity: 18, Anchor: geometry.Pt(400, 220), Kind: primitives.StageMisterio, HabitColor: "#3b2f2f", FoundingYear: 1431},
		{ID: "rocio", Name: "hermandad del rocío", Popularity: 6, Anchor: geometry.Pt(640, 420), Kind: primitives.StageGloria, HabitColor: "#f4f1e8", FoundingYear: 1653},
	}
}
