// Package command defines the command envelope and validation entry points.
package command

import (
	"encoding/json"
	"errors"
)

var (
	// ErrKitchenIDRequired indicates a missing kitchen id.
	ErrKitchenIDRequired = errors.New("kitchen id is required")
	// ErrTypeRequired indicates a missing command type.
	ErrTypeRequired = errors.New("command type is required")
	// ErrTypeUnknown indicates an unregistered command type.
	ErrTypeUnknown = errors.New("command type is not registered")
	// ErrStationMetadataRequired indicates missing station metadata for station commands.
	ErrStationMetadataRequired = errors.New("station metadata is required for station commands")
	// ErrStationMetadataForbidden indicates station metadata on core commands.
	ErrStationMetadataForbidden = errors.New("station metadata must be empty for core commands")
	// ErrActorTypeInvalid indicates an unknown actor type.
	ErrActorTypeInvalid = errors.New("actor type is invalid")
	// ErrActorIDRequired indicates a missing actor id for cook/manager.
	ErrActorIDRequired = errors.New("actor id is required for cook or manager")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Type identifies the command type string, e.g. "ingredient.add".
type Type string

// Owner identifies whether a command type is core or station-owned.
type Owner string

const (
	// OwnerCore indicates a core domain command.
	OwnerCore Owner = "core"
	// OwnerStation indicates a station-owned command.
	OwnerStation Owner = "station"
)

// GateScope declares when a command is subject to the shift gate.
type GateScope string

const (
	// GateScopeNone indicates the command is never gated.
	GateScopeNone GateScope = "none"
	// GateScopeShift indicates the command requires an open shift.
	GateScopeShift GateScope = "shift"
)

// GatePolicy declares how a command behaves relative to the shift gate.
type GatePolicy struct {
	Scope GateScope
	// AllowWhenClosed lets a shift-scoped command through while no shift is
	// open. Used by the commands that open and close shifts themselves.
	AllowWhenClosed bool
}

// Command is the write-path intent envelope. It mirrors the event envelope
// minus the fields persistence assigns.
type Command struct {
	KitchenID      string
	Type           Type
	ActorType      string
	ActorID        string
	ShiftID        string
	RequestID      string
	StationID      string
	StationVersion string
	PayloadJSON    json.RawMessage
}
