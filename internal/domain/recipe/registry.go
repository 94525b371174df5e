package recipe

import (
	"encoding/json"
	"errors"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
)

// EmittableEventTypes returns the event types the recipe decider can emit.
func EmittableEventTypes() []event.Type {
	return []event.Type{EventTypeAdded, EventTypeRemoved}
}

// RegisterCommands registers recipe commands with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	if err := registry.Register(command.Definition{
		Type:            CommandTypeAdd,
		Owner:           command.OwnerCore,
		ValidatePayload: validateAddPayload,
	}); err != nil {
		return err
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeRemove,
		Owner:           command.OwnerCore,
		ValidatePayload: validateRemovePayload,
	})
}

// RegisterEvents registers recipe events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	if err := registry.Register(event.Definition{
		Type:            EventTypeAdded,
		Owner:           event.OwnerCore,
		Addressing:      event.AddressingPolicyEntityTarget,
		ValidatePayload: validateAddPayload,
	}); err != nil {
		return err
	}
	return registry.Register(event.Definition{
		Type:            EventTypeRemoved,
		Owner:           event.OwnerCore,
		Addressing:      event.AddressingPolicyEntityTarget,
		ValidatePayload: validateRemovePayload,
	})
}

// validateAddPayload ensures add payloads match the add shape.
func validateAddPayload(raw json.RawMessage) error {
	var payload AddPayload
	return json.Unmarshal(raw, &payload)
}

// validateRemovePayload ensures remove payloads match the remove shape.
func validateRemovePayload(raw json.RawMessage) error {
	var payload RemovePayload
	return json.Unmarshal(raw, &payload)
}
