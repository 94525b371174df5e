// Package oven is the built-in oven station module. It keeps a small slice
// of station state (lit flag and target temperature) and demonstrates the
// full module surface: commands, events, decider, fold router, and state
// factory.
package oven

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/station"
)

const (
	// ModuleID identifies the oven station module.
	ModuleID = "oven"
	// ModuleVersion is the current oven module version.
	ModuleVersion = "v1"

	// CommandTypePreheat lights the oven at a target temperature.
	CommandTypePreheat command.Type = "oven.preheat"
	// CommandTypeOff turns the oven off.
	CommandTypeOff command.Type = "oven.off"

	// EventTypePreheated records a lit oven and its target temperature.
	EventTypePreheated event.Type = "oven.preheated"
	// EventTypeTurnedOff records the oven being switched off.
	EventTypeTurnedOff event.Type = "oven.turned_off"

	// EntityType labels oven entities in the event envelope.
	EntityType = "station"

	// maxTemperatureC bounds the accepted preheat target.
	maxTemperatureC = 500

	rejectionCodeTemperatureInvalid = "OVEN_TEMPERATURE_INVALID"
	rejectionCodeNotLit             = "OVEN_NOT_LIT"
)

// State is the oven station sub-state.
type State struct {
	Lit          bool `json:"lit"`
	TemperatureC int  `json:"temperature_c"`
}

// PreheatPayload carries the preheat target. It doubles as the preheated
// event payload.
type PreheatPayload struct {
	TemperatureC int `json:"temperature_c"`
}

// OffPayload is empty; the turned_off event carries no data.
type OffPayload struct{}

// Module implements station.Module for the oven.
type Module struct{}

// New returns the oven station module.
func New() *Module {
	return &Module{}
}

// ID implements station.Module.
func (m *Module) ID() string { return ModuleID }

// Version implements station.Module.
func (m *Module) Version() string { return ModuleVersion }

// RegisterCommands implements station.Module. Oven commands require an open
// shift like any other kitchen work.
func (m *Module) RegisterCommands(registry *command.Registry) error {
	if err := registry.Register(command.Definition{
		Type:            CommandTypePreheat,
		Owner:           command.OwnerStation,
		Gate:            command.GatePolicy{Scope: command.GateScopeShift},
		ValidatePayload: validatePreheatPayload,
	}); err != nil {
		return err
	}
	return registry.Register(command.Definition{
		Type:  CommandTypeOff,
		Owner: command.OwnerStation,
		Gate:  command.GatePolicy{Scope: command.GateScopeShift},
	})
}

// RegisterEvents implements station.Module.
func (m *Module) RegisterEvents(registry *event.Registry) error {
	if err := registry.Register(event.Definition{
		Type:            EventTypePreheated,
		Owner:           event.OwnerStation,
		ValidatePayload: validatePreheatPayload,
	}); err != nil {
		return err
	}
	return registry.Register(event.Definition{
		Type:            EventTypeTurnedOff,
		Owner:           event.OwnerStation,
		ValidatePayload: validateOffPayload,
	})
}

// EmittableEventTypes implements station.Module.
func (m *Module) EmittableEventTypes() []event.Type {
	return []event.Type{EventTypePreheated, EventTypeTurnedOff}
}

// Decider implements station.Module.
func (m *Module) Decider() station.Decider { return decider{} }

// Folder implements station.Module.
func (m *Module) Folder() station.Folder { return newFoldRouter() }

// StateFactory implements station.Module.
func (m *Module) StateFactory() station.StateFactory { return stateFactory{} }

type stateFactory struct{}

func (stateFactory) NewState(kitchenID string) (any, error) {
	return State{}, nil
}

type decider struct{}

// DeciderHandledCommands implements station.CommandTyper.
func (decider) DeciderHandledCommands() []command.Type {
	return []command.Type{CommandTypePreheat, CommandTypeOff}
}

// Decide handles oven commands. Preheating a lit oven just retargets the
// temperature; turning off an unlit oven is rejected.
func (decider) Decide(state any, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	oven, ok := state.(State)
	if !ok {
		return command.RejectWith("OVEN_STATE_INVALID", fmt.Sprintf("oven decider requires oven.State, got %T", state))
	}
	switch cmd.Type {
	case CommandTypePreheat:
		return decidePreheat(cmd, now)
	case CommandTypeOff:
		return decideOff(oven, cmd, now)
	}
	return command.RejectWith("OVEN_COMMAND_UNSUPPORTED", fmt.Sprintf("oven decider cannot handle %s", cmd.Type))
}

func decidePreheat(cmd command.Command, now func() time.Time) command.Decision {
	var payload PreheatPayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return command.RejectWith(rejectionCodeTemperatureInvalid, "preheat payload is malformed")
	}
	if payload.TemperatureC <= 0 || payload.TemperatureC > maxTemperatureC {
		return command.RejectWith(rejectionCodeTemperatureInvalid, fmt.Sprintf("temperature must be between 1 and %d celsius", maxTemperatureC))
	}
	raw, err := json.Marshal(PreheatPayload{TemperatureC: payload.TemperatureC})
	if err != nil {
		return command.RejectWith(rejectionCodeTemperatureInvalid, "preheat payload could not be encoded")
	}
	return command.Accept(command.NewEvent(cmd, EventTypePreheated, EntityType, ModuleID, raw, now()))
}

func decideOff(oven State, cmd command.Command, now func() time.Time) command.Decision {
	if !oven.Lit {
		return command.RejectWith(rejectionCodeNotLit, "oven is not lit")
	}
	return command.Accept(command.NewEvent(cmd, EventTypeTurnedOff, EntityType, ModuleID, nil, now()))
}

func newFoldRouter() *station.FoldRouter[State] {
	router := station.NewFoldRouter(assertState)
	router.Handle(EventTypePreheated, station.HandleFold(foldPreheated))
	router.Handle(EventTypeTurnedOff, station.HandleFold(foldTurnedOff))
	return router
}

func assertState(state any) (State, error) {
	oven, ok := state.(State)
	if !ok {
		return State{}, fmt.Errorf("oven fold requires oven.State, got %T", state)
	}
	return oven, nil
}

func foldPreheated(oven State, _ event.Event, payload PreheatPayload) (State, error) {
	oven.Lit = true
	oven.TemperatureC = payload.TemperatureC
	return oven, nil
}

func foldTurnedOff(oven State, _ event.Event, _ OffPayload) (State, error) {
	oven.Lit = false
	oven.TemperatureC = 0
	return oven, nil
}

func validatePreheatPayload(raw json.RawMessage) error {
	var payload PreheatPayload
	return json.Unmarshal(raw, &payload)
}

func validateOffPayload(raw json.RawMessage) error {
	var payload OffPayload
	return json.Unmarshal(raw, &payload)
}
