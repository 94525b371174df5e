package shift

import (
	"encoding/json"
	"errors"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
)

// EmittableEventTypes returns the event types the shift decider can emit.
func EmittableEventTypes() []event.Type {
	return []event.Type{EventTypeOpened, EventTypeClosed}
}

// RegisterCommands registers shift commands with the shared registry.
// Both lifecycle commands carry AllowWhenClosed so they stay dispatchable
// while the gate they control is closed.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypeOpen,
		Owner:           command.OwnerCore,
		ValidatePayload: validateOpenPayload,
		Gate: command.GatePolicy{
			Scope:           command.GateScopeShift,
			AllowWhenClosed: true,
		},
	}); err != nil {
		return err
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeClose,
		Owner:           command.OwnerCore,
		ValidatePayload: validateClosePayload,
		Gate: command.GatePolicy{
			Scope:           command.GateScopeShift,
			AllowWhenClosed: true,
		},
	})
}

// RegisterEvents registers shift events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	if err := registry.Register(event.Definition{
		Type:            EventTypeOpened,
		Owner:           event.OwnerCore,
		ValidatePayload: validateOpenPayload,
	}); err != nil {
		return err
	}
	return registry.Register(event.Definition{
		Type:            EventTypeClosed,
		Owner:           event.OwnerCore,
		ValidatePayload: validateClosePayload,
	})
}

// validateOpenPayload ensures open payloads match the open shape.
func validateOpenPayload(raw json.RawMessage) error {
	var payload OpenPayload
	return json.Unmarshal(raw, &payload)
}

// validateClosePayload ensures close payloads match the close shape.
func validateClosePayload(raw json.RawMessage) error {
	var payload ClosePayload
	return json.Unmarshal(raw, &payload)
}
