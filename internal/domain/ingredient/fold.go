package ingredient

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/galley/internal/domain/event"
)

// FoldHandledTypes returns the event types handled by the ingredient fold function.
func FoldHandledTypes() []event.Type {
	return []event.Type{EventTypeAdded, EventTypeConsumed}
}

// Fold applies an event to one ingredient's state. It returns an error if a
// recognized event carries a payload that cannot be unmarshalled.
//
// Fold is pure and total: the returned state is always usable, and event
// types outside this slice pass through with the input unchanged.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case EventTypeAdded:
		var payload AddPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("ingredient fold %s: %w", evt.Type, err)
		}
		if state.Name == "" {
			state.Name = payload.Name
		}
		if state.Unit == "" {
			state.Unit = payload.Unit
		}
		state.Quantity += payload.Quantity
	case EventTypeConsumed:
		var payload ConsumePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("ingredient fold %s: %w", evt.Type, err)
		}
		state.Quantity -= payload.Quantity
		if state.Quantity < 0 {
			state.Quantity = 0
		}
	}
	return state, nil
}
