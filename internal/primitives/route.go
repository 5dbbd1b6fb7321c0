package primitives

import (
	"time"

	"github.com/comalice/procession/internal/geometry"
)

// MinRoutePoints is the fewest points a valid route may have.
const MinRoutePoints = 3

// Route is a validated polyline closed at its owner's seat.
//
// Routes are produced by the route builder (or restored from storage) and are
// immutable afterwards: fields are exported for read-only convenience, but
// consumers MUST NOT modify them. Use Clone when a mutable copy is needed.
type Route struct {
	ID        string           `json:"id" yaml:"id"`
	OwnerID   string           `json:"ownerId" yaml:"ownerId"`
	Points    []geometry.Point `json:"points" yaml:"points"`
	CreatedAt time.Time        `json:"createdAt" yaml:"createdAt"`
}

// NewRoute builds a Route from a private copy of points.
func NewRoute(id, ownerID string, points []geometry.Point, createdAt time.Time) *Route {
	pts := make([]geometry.Point, len(points))
	copy(pts, points)
	return &Route{
		ID:        id,
		OwnerID:   ownerID,
		Points:    pts,
		CreatedAt: createdAt,
	}
}

// Segments returns the number of segments (len(Points)-1, or 0).
func (r *Route) Segments() int {
	if r == nil || len(r.Points) < 2 {
		return 0
	}
	return len(r.Points) - 1
}

// Length returns the polyline length of the route.
func (r *Route) Length() float64 {
	if r == nil {
		return 0
	}
	return geometry.PolylineLength(r.Points)
}

// First returns the starting point.
func (r *Route) First() geometry.Point { return r.Points[0] }

// Last returns the final point.
func (r *Route) Last() geometry.Point { return r.Points[len(r.Points)-1] }

// ClosedAt reports whether both ends lie within radius of anchor.
func (r *Route) ClosedAt(anchor geometry.Point, radius float64) bool {
	if r == nil || len(r.Points) == 0 {
		return false
	}
	return geometry.Within(r.First(), anchor, radius) && geometry.Within(r.Last(), anchor, radius)
}

// Clone returns a deep copy of r.
func (r *Route) Clone() *Route {
	if r == nil {
		return nil
	}
	return NewRoute(r.ID, r.OwnerID, r.Points, r.CreatedAt)
}

// Equal compares two routes field by field. Times compare with time.Equal.
func (r *Route) Equal(o *Route) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.ID != o.ID || r.OwnerID != o.OwnerID || !r.CreatedAt.Equal(o.CreatedAt) {
		return false
	}
	if len(r.Points) != len(o.Points) {
		return false
	}
	for i := range r.Points {
		if r.Points[i] != o.Points[i] {
			return false
		}
	}
	return true
}
