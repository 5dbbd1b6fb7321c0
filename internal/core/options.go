package core

import (
	"time"

	"github.com/comalice/procession/internal/config"
)

// Option applies configuration to a Controller.
type Option func(*Controller)

// WithComposer replaces the formation composer.
func WithComposer(c Composer) Option {
	return func(ctl *Controller) {
		ctl.composer = c
	}
}

// WithMover replaces the movement engine.
func WithMover(m Mover) Option {
	return func(ctl *Controller) {
		ctl.mover = m
	}
}

// WithAssets configures asset checks on Start.
func WithAssets(a AssetProvider) Option {
	return func(ctl *Controller) {
		ctl.assets = a
	}
}

// WithRenderer configures the rendering collaborator.
func WithRenderer(r Renderer) Option {
	return func(ctl *Controller) {
		ctl.renderer = r
	}
}

// WithProgressInterval sets the elapsed time between PROGRESS events.
func WithProgressInterval(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.progressInterval = d
		}
	}
}

// WithFade sets the completion fade stagger and duration.
func WithFade(stagger, duration time.Duration) Option {
	return func(ctl *Controller) {
		ctl.fadeStagger = stagger
		ctl.fadeDuration = duration
	}
}

// WithConfig applies the procession timings of cfg.
func WithConfig(cfg config.ProcessionConfig) Option {
	return func(ctl *Controller) {
		WithProgressInterval(cfg.ProgressInterval)(ctl)
		WithFade(cfg.FadeStagger, cfg.FadeDuration)(ctl)
	}
}
