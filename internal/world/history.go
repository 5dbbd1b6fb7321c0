package world

import (
	"fmt"
	"slices"

	"github.com/comalice/procession/internal/primitives"
)

// Year bounds accepted by Advance and AdvanceTo.
const (
	MinYear = 1550
	MaxYear = 2050
)

// DefaultMembers seeds an actor that has never aged.
const DefaultMembers = 50

// Yearly odds and ranges for aging an actor.
const (
	growthChance          = 0.3  // a year with new members
	growthMin             = 0.05 // fraction of members gained
	growthSpan            = 0.10
	growthEventMembers    = 20 // gains above this are chronicled
	popularityDrop        = 4  // yearly change is in [-4, +5]
	popularitySpan        = 10
	minPopularity         = 1
	maxPopularity         = 100
	actorEventChance      = 0.1
	cityEventChance       = 0.15 // once per advance
	cityEventImpactLevels = 5
)

var (
	actorEventKinds = []string{"crisis", "celebration", "renewal", "seat change"}
	cityEventKinds  = []string{"war", "epidemic", "political change", "cultural renewal", "religious reform"}
)

// Rand is the random source behind aging. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	Float64() float64
}

// Advance moves the year forward by years, stopping at MaxYear, and ages the
// current actor one year at a time. TIME_ADVANCED is published unless the
// year was already MaxYear.
func (w *Context) Advance(years int) (primitives.TimeAdvanced, error) {
	if years <= 0 {
		return primitives.TimeAdvanced{}, fmt.Errorf("%w: cannot advance by %d years", primitives.ErrValidation, years)
	}
	w.mu.Lock()
	ta := w.advance(min(w.year+years, MaxYear))
	w.mu.Unlock()
	w.publish(ta)
	return ta, nil
}

// AdvanceTo moves the year forward to year. Moving backwards or outside
// [MinYear, MaxYear] is rejected; use SetYear to restore a saved year.
func (w *Context) AdvanceTo(year int) (primitives.TimeAdvanced, error) {
	if year < MinYear || year > MaxYear {
		return primitives.TimeAdvanced{}, fmt.Errorf("%w: year %d outside %d-%d", primitives.ErrValidation, year, MinYear, MaxYear)
	}
	w.mu.Lock()
	if year < w.year {
		cur := w.year
		w.mu.Unlock()
		return primitives.TimeAdvanced{}, fmt.Errorf("%w: cannot move back from %d to %d", primitives.ErrValidation, cur, year)
	}
	ta := w.advance(year)
	w.mu.Unlock()
	w.publish(ta)
	return ta, nil
}

// History returns every chronicled event, ordered by year.
func (w *Context) History() []primitives.HistoricalEvent {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := slices.Clone(w.history)
	slices.SortStableFunc(out, func(a, b primitives.HistoricalEvent) int { return a.Year - b.Year })
	return out
}

func (w *Context) publish(ta primitives.TimeAdvanced) {
	if ta.FromYear == ta.ToYear {
		return
	}
	log := w.Logger("world")
	ev := log.Info().Int("from", ta.FromYear).Int("to", ta.ToYear).Int("events", len(ta.Events))
	if ta.ActorID != "" {
		ev = ev.Str("actor", ta.ActorID).Int("popularity", ta.Popularity).Int("members", ta.Members)
	}
	ev.Msg("time advanced")
	w.Bus.Emit(ta)
}

// advance must be called with w.mu held.
func (w *Context) advance(to int) primitives.TimeAdvanced {
	from := w.year
	ta := primitives.TimeAdvanced{FromYear: from, ToYear: to}
	if to == from {
		return ta
	}
	if a := w.actor; a != nil {
		ta.Events = w.age(a, from, to)
		ta.ActorID, ta.Popularity, ta.Members = a.ID, a.Popularity, a.Members
	}
	if w.rand.Float64() > 1-cityEventChance {
		year := from + w.pick(to-from)
		kind := cityEventKinds[w.pick(len(cityEventKinds))]
		ta.Events = append(ta.Events, primitives.HistoricalEvent{
			Year:        year,
			Kind:        kind,
			Description: "the city lives through " + kind,
			Impact:      1 + w.pick(cityEventImpactLevels),
		})
	}
	w.history = append(w.history, ta.Events...)
	w.year = to
	return ta
}

// age grows a from the year after from up to to. An actor with a founding
// year that has never aged records its founding instead and starts counting
// from to.
func (w *Context) age(a *primitives.Actor, from, to int) []primitives.HistoricalEvent {
	if a.Members <= 0 {
		a.Members = DefaultMembers
	}
	if a.FoundingYear > to {
		return nil
	}
	if a.ChronicleYear == 0 && a.FoundingYear != 0 {
		a.ChronicleYear = to
		return []primitives.HistoricalEvent{actorEvent(a, a.FoundingYear, "founding", "founding of "+displayName(a))}
	}

	var evs []primitives.HistoricalEvent
	first := max(from, a.ChronicleYear, a.FoundingYear) + 1
	for y := first; y <= to; y++ {
		if w.rand.Float64() > 1-growthChance {
			gained := int(float64(a.Members) * (growthMin + w.rand.Float64()*growthSpan))
			a.Members += gained
			if gained > growthEventMembers {
				evs = append(evs, actorEvent(a, y, "growth", fmt.Sprintf("%s gains %d members", displayName(a), gained)))
			}
		}
		change := w.pick(popularitySpan) - popularityDrop
		a.Popularity = min(max(a.Popularity+change, minPopularity), maxPopularity)
		if w.rand.Float64() > 1-actorEventChance {
			kind := actorEventKinds[w.pick(len(actorEventKinds))]
			evs = append(evs, actorEvent(a, y, kind, fmt.Sprintf("%s goes through a %s", displayName(a), kind)))
		}
	}
	a.ChronicleYear = max(a.ChronicleYear, to)
	return evs
}

func actorEvent(a *primitives.Actor, year int, kind, desc string) primitives.HistoricalEvent {
	return primitives.HistoricalEvent{Year: year, Kind: kind, Description: desc, ActorID: a.ID}
}

func displayName(a *primitives.Actor) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// pick returns an int in [0, n).
func (w *Context) pick(n int) int {
	if n <= 0 {
		return 0
	}
	return min(int(w.rand.Float64()*float64(n)), n-1)
}
