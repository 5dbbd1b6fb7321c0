// Package primitives provides the foundational data structures shared by every
// tier of the procession engine: actors, routes, participants, the procession
// record, lifecycle states, typed bus events and the error taxonomy.
//
// Core invariants:
// - Routes are immutable once built (consumers MUST NOT modify Points)
// - A participant's (SegmentIndex, Progress) pair never decreases
// - Completed latches true exactly once per participant
//
// Types here carry json and yaml tags so the production tier can persist them
// without mirror structs where the shapes already match.
package primitives
