package primitives

import (
	"time"

	"github.com/comalice/procession/internal/geometry"
)

// EventName identifies a bus notification. Each payload type has exactly one name.
type EventName string

const (
	EventRouteCreationStarted   EventName = "ROUTE_CREATION_STARTED"
	EventRoutePointAdded        EventName = "ROUTE_POINT_ADDED"
	EventRoutePointRemoved      EventName = "ROUTE_POINT_REMOVED"
	EventRouteFinishSuggested   EventName = "ROUTE_FINISH_SUGGESTED"
	EventRouteCreated           EventName = "ROUTE_CREATED"
	EventRouteCreationCancelled EventName = "ROUTE_CREATION_CANCELLED"
	EventRouteCreationError     EventName = "ROUTE_CREATION_ERROR"
	EventStarted                EventName = "STARTED"
	EventProgress               EventName = "PROGRESS"
	EventCompleted              EventName = "COMPLETED"
	EventCancelled              EventName = "CANCELLED"
	EventPauseChanged           EventName = "PAUSE_CHANGED"
	EventError                  EventName = "ERROR"
	EventTimeAdvanced           EventName = "TIME_ADVANCED"
)

// EventNames lists every name in emission-domain order (builder first).
var EventNames = []EventName{
	EventRouteCreationStarted,
	EventRoutePointAdded,
	EventRoutePointRemoved,
	EventRouteFinishSuggested,
	EventRouteCreated,
	EventRouteCreationCancelled,
	EventRouteCreationError,
	EventStarted,
	EventProgress,
	EventCompleted,
	EventCancelled,
	EventPauseChanged,
	EventError,
	EventTimeAdvanced,
}

// Payload is implemented by every typed event body.
type Payload interface {
	EventName() EventName
}

// Event is the envelope delivered to bus handlers.
//
// Events are values; handlers MUST NOT modify the payload (route payloads share
// the immutable Route).
type Event struct {
	Name    EventName `json:"name" yaml:"name"`
	Payload Payload   `json:"payload" yaml:"payload"`
	Seq     uint64    `json:"seq" yaml:"seq"`
	At      time.Time `json:"at" yaml:"at"`
}

// NewEvent wraps payload in an envelope named after it.
func NewEvent(payload Payload, seq uint64, at time.Time) Event {
	return Event{
		Name:    payload.EventName(),
		Payload: payload,
		Seq:     seq,
		At:      at,
	}
}

type RouteCreationStarted struct {
	ActorID string         `json:"actorId" yaml:"actorId"`
	Anchor  geometry.Point `json:"anchor" yaml:"anchor"`
}

type RoutePointAdded struct {
	PointIndex  int            `json:"pointIndex" yaml:"pointIndex"`
	Point       geometry.Point `json:"point" yaml:"point"`
	TotalPoints int            `json:"totalPoints" yaml:"totalPoints"`
}

type RoutePointRemoved struct {
	Point           geometry.Point `json:"point" yaml:"point"`
	RemainingPoints int            `json:"remainingPoints" yaml:"remainingPoints"`
}

type RouteFinishSuggested struct {
	PointCount int `json:"pointCount" yaml:"pointCount"`
}

type RouteCreated struct {
	Route *Route `json:"route" yaml:"route"`
}

type RouteCreationCancelled struct {
	ActorID string `json:"actorId" yaml:"actorId"`
}

type RouteCreationError struct {
	Reason     string `json:"reason" yaml:"reason"`
	PointCount int    `json:"pointCount" yaml:"pointCount"`
}

type Started struct {
	ParticipantCount int     `json:"participantCount" yaml:"participantCount"`
	ActorID          string  `json:"actorId" yaml:"actorId"`
	RouteID          string  `json:"routeId" yaml:"routeId"`
	RouteLength      float64 `json:"routeLength" yaml:"routeLength"`
}

type Progress struct {
	Progress         float64 `json:"progress" yaml:"progress"`
	ElapsedMs        float64 `json:"elapsedMs" yaml:"elapsedMs"`
	CompletedCount   int     `json:"completedCount" yaml:"completedCount"`
	ParticipantCount int     `json:"participantCount" yaml:"participantCount"`
}

type Completed struct {
	ElapsedMs        float64 `json:"elapsedMs" yaml:"elapsedMs"`
	ActorID          string  `json:"actorId" yaml:"actorId"`
	ParticipantCount int     `json:"participantCount" yaml:"participantCount"`
}

type Cancelled struct {
	ElapsedMs float64 `json:"elapsedMs" yaml:"elapsedMs"`
	ActorID   string  `json:"actorId" yaml:"actorId"`
}

type PauseChanged struct {
	IsPaused  bool    `json:"isPaused" yaml:"isPaused"`
	ElapsedMs float64 `json:"elapsedMs" yaml:"elapsedMs"`
}

// Error reports a failure a UI should surface. Source names the component
// ("route", "procession", ...); Kind is the ErrorKind label.
type Error struct {
	Source string `json:"source" yaml:"source"`
	Kind   string `json:"kind" yaml:"kind"`
	Reason string `json:"reason" yaml:"reason"`
}

// HistoricalEvent is one entry of the chronicle kept while years pass. ActorID
// is empty for events that touch the whole city; Impact (1-5) is only set on
// those.
type HistoricalEvent struct {
	Year        int    `json:"year" yaml:"year"`
	Kind        string `json:"kind" yaml:"kind"`
	Description string `json:"description" yaml:"description"`
	ActorID     string `json:"actorId,omitempty" yaml:"actorId,omitempty"`
	Impact      int    `json:"impact,omitempty" yaml:"impact,omitempty"`
}

// TimeAdvanced reports the year moving forward and the current actor after
// aging. ActorID is empty when no actor is selected.
type TimeAdvanced struct {
	FromYear   int               `json:"fromYear" yaml:"fromYear"`
	ToYear     int               `json:"toYear" yaml:"toYear"`
	ActorID    string            `json:"actorId,omitempty" yaml:"actorId,omitempty"`
	Popularity int               `json:"popularity" yaml:"popularity"`
	Members    int               `json:"members" yaml:"members"`
	Events     []HistoricalEvent `json:"events,omitempty" yaml:"events,omitempty"`
}

func (RouteCreationStarted) EventName() EventName   { return EventRouteCreationStarted }
func (RoutePointAdded) EventName() EventName        { return EventRoutePointAdded }
func (RoutePointRemoved) EventName() EventName      { return EventRoutePointRemoved }
func (RouteFinishSuggested) EventName() EventName   { return EventRouteFinishSuggested }
func (RouteCreated) EventName() EventName           { return EventRouteCreated }
func (RouteCreationCancelled) EventName() EventName { return EventRouteCreationCancelled }
func (RouteCreationError) EventName() EventName     { return EventRouteCreationError }
func (Started) EventName() EventName                { return EventStarted }
func (Progress) EventName() EventName               { return EventProgress }
func (Completed) EventName() EventName              { return EventCompleted }
func (Cancelled) EventName() EventName              { return EventCancelled }
func (PauseChanged) EventName() EventName           { return EventPauseChanged }
func (Error) EventName() EventName                  { return EventError }
func (TimeAdvanced) EventName() EventName           { return EventTimeAdvanced }

// ErrorPayload builds an Error payload from a failure.
func ErrorPayload(source string, err error) Error {
	return Error{Source: source, Kind: ErrorKind(err), Reason: err.Error()}
}
