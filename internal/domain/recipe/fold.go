package recipe

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/galley/internal/domain/event"
)

// FoldHandledTypes returns the event types handled by the recipe fold function.
func FoldHandledTypes() []event.Type {
	return []event.Type{EventTypeAdded, EventTypeRemoved}
}

// Fold applies an event to one recipe's state. Event types outside this
// slice pass through with the input unchanged.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case EventTypeAdded:
		var payload AddPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("recipe fold %s: %w", evt.Type, err)
		}
		state.Name = payload.Name
		state.CookTimeMinutes = payload.CookTimeMinutes
		state.Items = append([]Item(nil), payload.Items...)
		state.Removed = false
	case EventTypeRemoved:
		state.Removed = true
	}
	return state, nil
}
