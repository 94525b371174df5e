// Package shift implements the kitchen service lifecycle slice of state.
package shift

// State captures the replayed shift context for command gating.
//
// The command engine uses this slice to decide whether shift-scoped commands
// may proceed: cooking requires an open shift.
type State struct {
	// Opened indicates whether an open command has been accepted.
	Opened bool
	// Closed indicates whether the active shift has been concluded.
	Closed bool
	// ShiftID is the canonical identifier scoping shift-local commands.
	ShiftID string
	// Name is a human-facing label for the running shift.
	Name string
}
