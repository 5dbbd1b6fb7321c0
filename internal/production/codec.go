// Package production provides production integrations: persistence of routes,
// processions and save games, bus event publishing and lifecycle visualization.
package production

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/comalice/procession/internal/core"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/primitives"
)

// RecordVersion is written into every save record.
const RecordVersion = 1

// PointRecord is the stored form of a point.
type PointRecord struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// RouteRecord is the stored form of a route.
type RouteRecord struct {
	ID        string        `json:"id" yaml:"id"`
	OwnerID   string        `json:"ownerId" yaml:"ownerId"`
	Points    []PointRecord `json:"points" yaml:"points"`
	CreatedAt time.Time     `json:"createdAt" yaml:"createdAt"`
}

// ParticipantRecord is the stored form of a participant.
type ParticipantRecord struct {
	ID           string      `json:"id" yaml:"id"`
	Type         string      `json:"type" yaml:"type"`
	SpeedFactor  float64     `json:"speedFactor" yaml:"speedFactor"`
	SegmentIndex int         `json:"segmentIndex" yaml:"segmentIndex"`
	Progress     float64     `json:"progress" yaml:"progress"`
	Completed    bool        `json:"completed" yaml:"completed"`
	Position     PointRecord `json:"position" yaml:"position"`
	AssetKey     string      `json:"assetKey,omitempty" yaml:"assetKey,omitempty"`
	Depth        int         `json:"depth" yaml:"depth"`
}

// ActorRecord is the stored form of an actor.
type ActorRecord struct {
	ID                string      `json:"id" yaml:"id"`
	Name              string      `json:"name" yaml:"name"`
	Popularity        int         `json:"popularity" yaml:"popularity"`
	Anchor            PointRecord `json:"anchor" yaml:"anchor"`
	HasSecondaryStage bool        `json:"hasSecondaryStage" yaml:"hasSecondaryStage"`
	Kind              string      `json:"kind,omitempty" yaml:"kind,omitempty"`
	HabitColor        string      `json:"habitColor,omitempty" yaml:"habitColor,omitempty"`
	FoundingYear      int         `json:"foundingYear,omitempty" yaml:"foundingYear,omitempty"`
}

// ProcessionRecord is the stored form of a procession.
type ProcessionRecord struct {
	Actor          ActorRecord         `json:"actor" yaml:"actor"`
	Route          RouteRecord         `json:"route" yaml:"route"`
	Participants   []ParticipantRecord `json:"participants" yaml:"participants"`
	State          string              `json:"state" yaml:"state"`
	ElapsedMs      float64             `json:"elapsedMs" yaml:"elapsedMs"`
	StepCount      int                 `json:"stepCount" yaml:"stepCount"`
	CompletedCount int                 `json:"completedCount" yaml:"completedCount"`
}

// GameRecord is the stored form of a save game.
type GameRecord struct {
	Version    int               `json:"version" yaml:"version"`
	ID         string            `json:"id" yaml:"id"`
	Actor      *ActorRecord      `json:"actor,omitempty" yaml:"actor,omitempty"`
	Year       int               `json:"year" yaml:"year"`
	Routes     []RouteRecord     `json:"routes,omitempty" yaml:"routes,omitempty"`
	Procession *ProcessionRecord `json:"procession,omitempty" yaml:"procession,omitempty"`
	SavedAt    time.Time         `json:"savedAt" yaml:"savedAt"`
}

func pointRecord(p geometry.Point) PointRecord { return PointRecord{X: p.X, Y: p.Y} }
func (p PointRecord) point() geometry.Point  { return geometry.Pt(p.X, p.Y) }

// NewRouteRecord converts r for storage.
func NewRouteRecord(r *primitives.Route) RouteRecord {
	rec := RouteRecord{ID: r.ID, OwnerID: r.OwnerID, CreatedAt: r.CreatedAt.UTC(), Points: make([]PointRecord, len(r.Points))}
	for i, p := range r.Points {
		rec.Points[i] = pointRecord(p)
	}
	return rec
}

// Route validates rec and rebuilds the route.
func (rec RouteRecord) Route() (*primitives.Route, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: route record has no id", primitives.ErrValidation)
	}
	if len(rec.Points) < primitives.MinRoutePoints {
		return nil, fmt.Errorf("%w: route %s has %d points, need %d", primitives.ErrValidation, rec.ID, len(rec.Points), primitives.MinRoutePoints)
	}
	pts := make([]geometry.Point, len(rec.Points))
	for i, p := range rec.Points {
		pts[i] = p.point()
	}
	return primitives.NewRoute(rec.ID, rec.OwnerID, pts, rec.CreatedAt.UTC()), nil
}

// NewActorRecord converts a for storage.
func NewActorRecord(a *primitives.Actor) ActorRecord {
	return ActorRecord{
		ID:                a.ID,
		Name:              a.Name,
		Popularity:        a.Popularity,
		Anchor:            pointRecord(a.Anchor),
		HasSecondaryStage: a.HasSecondaryStage,
		Kind:              string(a.Kind),
		HabitColor:        a.HabitColor,
		FoundingYear:      a.FoundingYear,
	}
}

// Actor rebuilds the actor.
func (rec ActorRecord) Actor() *primitives.Actor {
	return &primitives.Actor{
		ID:                rec.ID,
		Name:              rec.Name,
		Popularity:        rec.Popularity,
		Anchor:            rec.Anchor.point(),
		HasSecondaryStage: rec.HasSecondaryStage,
		Kind:              primitives.StageKind(rec.Kind),
		HabitColor:        rec.HabitColor,
		FoundingYear:      rec.FoundingYear,
	}
}

// NewProcessionRecord converts p for storage.
func NewProcessionRecord(p *primitives.Procession) ProcessionRecord {
	rec := ProcessionRecord{
		Actor:          NewActorRecord(p.Actor),
		Route:          NewRouteRecord(p.Route),
		State:          string(p.State),
		ElapsedMs:      p.ElapsedMs,
		StepCount:      p.StepCount,
		CompletedCount: p.CompletedCount,
		Participants:   make([]ParticipantRecord, len(p.Participants)),
	}
	for i, part := range p.Participants {
		rec.Participants[i] = ParticipantRecord{
			ID:           part.ID,
			Type:         string(part.Type),
			SpeedFactor:  part.SpeedFactor,
			SegmentIndex: part.SegmentIndex,
			Progress:     part.Progress,
			Completed:    part.Completed,
			Position:     pointRecord(part.Position),
			AssetKey:     part.AssetKey,
			Depth:        part.Depth,
		}
	}
	return rec
}

// Procession validates rec and rebuilds the procession.
func (rec ProcessionRecord) Procession() (*primitives.Procession, error) {
	r, err := rec.Route.Route()
	if err != nil {
		return nil, err
	}
	state := primitives.LifecycleState(rec.State)
	if !state.Valid() {
		return nil, fmt.Errorf("%w: unknown procession state %q", primitives.ErrValidation, rec.State)
	}
	p := &primitives.Procession{
		Actor:          rec.Actor.Actor(),
		Route:          r,
		State:          state,
		ElapsedMs:      rec.ElapsedMs,
		StepCount:      rec.StepCount,
		CompletedCount: rec.CompletedCount,
		Participants:   make([]*primitives.Participant, len(rec.Participants)),
	}
	for i, pr := range rec.Participants {
		typ := primitives.ParticipantType(pr.Type)
		if !typ.Valid() {
			return nil, fmt.Errorf("%w: participant %s has unknown type %q", primitives.ErrValidation, pr.ID, pr.Type)
		}
		if pr.SegmentIndex < 0 || pr.SegmentIndex > len(r.Points)-2 {
			return nil, fmt.Errorf("%w: participant %s segment %d out of range", primitives.ErrValidation, pr.ID, pr.SegmentIndex)
		}
		p.Participants[i] = &primitives.Participant{
			ID:           pr.ID,
			Type:         typ,
			SpeedFactor:  pr.SpeedFactor,
			SegmentIndex: pr.SegmentIndex,
			Progress:     pr.Progress,
			Completed:    pr.Completed,
			Position:     pr.Position.point(),
			AssetKey:     pr.AssetKey,
			Depth:        pr.Depth,
		}
	}
	return p, nil
}

// NewGameRecord converts snap for storage.
func NewGameRecord(snap core.GameSnapshot) GameRecord {
	rec := GameRecord{
		Version: RecordVersion,
		ID:      snap.ID,
		Year:    snap.Year,
		SavedAt: snap.SavedAt.UTC(),
	}
	if snap.Actor != nil {
		a := NewActorRecord(snap.Actor)
		rec.Actor = &a
	}
	for _, r := range snap.Routes {
		rec.Routes = append(rec.Routes, NewRouteRecord(r))
	}
	if snap.Procession != nil {
		p := NewProcessionRecord(snap.Procession)
		rec.Procession = &p
	}
	return rec
}

// Snapshot validates rec and rebuilds the game snapshot.
func (rec GameRecord) Snapshot() (core.GameSnapshot, error) {
	if rec.Version > RecordVersion {
		return core.GameSnapshot{}, fmt.Errorf("%w: save version %d is newer than supported %d", primitives.ErrValidation, rec.Version, RecordVersion)
	}
	snap := core.GameSnapshot{ID: rec.ID, Year: rec.Year, SavedAt: rec.SavedAt.UTC()}
	if rec.Actor != nil {
		snap.Actor = rec.Actor.Actor()
	}
	for _, rr := range rec.Routes {
		r, err := rr.Route()
		if err != nil {
			return core.GameSnapshot{}, err
		}
		snap.Routes = append(snap.Routes, r)
	}
	if rec.Procession != nil {
		p, err := rec.Procession.Procession()
		if err != nil {
			return core.GameSnapshot{}, err
		}
		snap.Procession = p
	}
	return snap, nil
}

// SerializeRoute encodes r as JSON.
func SerializeRoute(r *primitives.Route) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil route", primitives.ErrValidation)
	}
	data, err := json.Marshal(NewRouteRecord(r))
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return data, nil
}

// RestoreRoute decodes a route written by SerializeRoute.
func RestoreRoute(data []byte) (*primitives.Route, error) {
	var rec RouteRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: json unmarshal: %v", primitives.ErrValidation, err)
	}
	return rec.Route()
}

// SerializeProcession encodes p as JSON.
func SerializeProcession(p *primitives.Procession) ([]byte, error) {
	if p == nil || p.Actor == nil || p.Route == nil {
		return nil, fmt.Errorf("%w: incomplete procession", primitives.ErrValidation)
	}
	data, err := json.Marshal(NewProcessionRecord(p))
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return data, nil
}

// RestoreProcession decodes a procession written by SerializeProcession.
func RestoreProcession(data []byte) (*primitives.Procession, error) {
	var rec ProcessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: json unmarshal: %v", primitives.ErrValidation, err)
	}
	return rec.Procession()
}
