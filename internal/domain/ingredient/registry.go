package ingredient

import (
	"encoding/json"
	"errors"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
)

// EmittableEventTypes returns the event types the ingredient decider can emit.
func EmittableEventTypes() []event.Type {
	return []event.Type{EventTypeAdded, EventTypeConsumed}
}

// RegisterCommands registers ingredient commands with the shared registry.
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
		Type:            CommandTypeConsume,
		Owner:           command.OwnerCore,
		ValidatePayload: validateConsumePayload,
	})
}

// RegisterEvents registers ingredient events with the shared registry.
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
		Type:            EventTypeConsumed,
		Owner:           event.OwnerCore,
		Addressing:      event.AddressingPolicyEntityTarget,
		ValidatePayload: validateConsumePayload,
	})
}

// validateAddPayload ensures add payloads match the add shape.
func validateAddPayload(raw json.RawMessage) error {
	var payload AddPayload
	return json.Unmarshal(raw, &payload)
}

// validateConsumePayload ensures consume payloads match the consume shape.
func validateConsumePayload(raw json.RawMessage) error {
	var payload ConsumePayload
	return json.Unmarshal(raw, &payload)
}
