package shift

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/galley/internal/domain/event"
)

// FoldHandledTypes returns the event types handled by the shift fold function.
func FoldHandledTypes() []event.Type {
	return []event.Type{EventTypeOpened, EventTypeClosed}
}

// Fold applies an event to shift state. It returns an error if a recognized
// event carries a payload that cannot be unmarshalled.
//
// Every shift transition is represented as an event so tests and replay both
// observe the same gate behavior.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case EventTypeOpened:
		state.Opened = true
		state.Closed = false
		var payload OpenPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("shift fold %s: %w", evt.Type, err)
		}
		state.ShiftID = payload.ShiftID
		state.Name = payload.Name
	case EventTypeClosed:
		state.Closed = true
		state.Opened = false
		var payload ClosePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("shift fold %s: %w", evt.Type, err)
		}
		if payload.ShiftID != "" {
			state.ShiftID = payload.ShiftID
		}
	}
	return state, nil
}
