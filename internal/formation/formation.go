// Package formation derives the ordered participants of a procession from an
// actor's attributes: one vanguard cross, a column of bearers sized by
// popularity and one or two floats.
package formation

import (
	"fmt"
	"math"

	"github.com/comalice/procession/internal/config"
	"github.com/comalice/procession/internal/primitives"
)

// Asset keys of the required visual set.
const (
	AssetVanguard = "cruz_guia"
	AssetBearer   = "nazareno"
	AssetMisterio = "paso_misterio"
	AssetGloria   = "paso_gloria"
)

// RequiredAssets lists every key a procession may render.
var RequiredAssets = []string{AssetVanguard, AssetBearer, AssetMisterio, AssetGloria}

// Participant ids.
const (
	VanguardID       = "vanguard"
	PrimaryFloatID   = "float-primary"
	SecondaryFloatID = "float-secondary"
)

// BearerID returns the id of the i-th bearer (0-based), e.g. "bearer-01".
func BearerID(i int) string { return fmt.Sprintf("bearer-%02d", i+1) }

// Composer builds formations from a FormationConfig.
type Composer struct {
	cfg config.FormationConfig
}

// NewComposer returns a composer using cfg.
func NewComposer(cfg config.FormationConfig) *Composer {
	return &Composer{cfg: cfg}
}

// Default returns a composer with the stock tuning.
func Default() *Composer { return NewComposer(config.Default().Formation) }

// BearerCount returns min(ceil(popularity/2), maxBearers); negative popularity
// yields 0.
func BearerCount(popularity, maxBearers int) int {
	if popularity <= 0 {
		return 0
	}
	n := int(math.Ceil(float64(popularity) / 2))
	return min(n, maxBearers)
}

// ParticipantCount is the formation size for an actor.
func (c *Composer) ParticipantCount(a *primitives.Actor) int {
	n := 2 + BearerCount(a.Popularity, c.cfg.MaxBearers)
	if a.HasSecondaryStage {
		n++
	}
	return n
}

// Compose returns the participants in formation order, all placed at the
// first route point.
func (c *Composer) Compose(a *primitives.Actor, r *primitives.Route) ([]*primitives.Participant, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: actor is required", primitives.ErrValidation)
	}
	if r == nil || len(r.Points) == 0 {
		return nil, fmt.Errorf("%w: route has no points", primitives.ErrValidation)
	}
	origin := r.Points[0]
	base := c.cfg.BaseSpeed
	out := make([]*primitives.Participant, 0, c.ParticipantCount(a))

	add := func(id string, typ primitives.ParticipantType, speed float64, asset string) {
		out = append(out, &primitives.Participant{
			ID:          id,
			Type:        typ,
			SpeedFactor: speed,
			Position:    origin,
			AssetKey:    asset,
			Depth:       len(out),
		})
	}

	add(VanguardID, primitives.Vanguard, base*c.cfg.VanguardFactor, AssetVanguard)
	for i := range BearerCount(a.Popularity, c.cfg.MaxBearers) {
		add(BearerID(i), primitives.Bearer, base*(1-float64(i)*c.cfg.BearerDecay), AssetBearer)
	}
	add(PrimaryFloatID, primitives.Float, base*c.cfg.PrimaryFloatFactor, PrimaryFloatAsset(a))
	if a.HasSecondaryStage {
		add(SecondaryFloatID, primitives.Float, base*c.cfg.SecondaryFloatFactor, AssetGloria)
	}
	return out, nil
}

// PrimaryFloatAsset picks the primary float sprite for an actor's stage kind.
func PrimaryFloatAsset(a *primitives.Actor) string {
	if a.Kind == primitives.StageGloria {
		return AssetGloria
	}
	return AssetMisterio
}

// AssetsFor lists the asset keys a formation for a needs, without duplicates.
func (c *Composer) AssetsFor(a *primitives.Actor) []string {
	keys := []string{AssetVanguard}
	if BearerCount(a.Popularity, c.cfg.MaxBearers) > 0 {
		keys = append(keys, AssetBearer)
	}
	primary := PrimaryFloatAsset(a)
	keys = append(keys, primary)
	if a.HasSecondaryStage && primary != AssetGloria {
		keys = append(keys, AssetGloria)
	}
	return keys
}
