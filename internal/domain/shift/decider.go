package shift

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
)

const (
	// CommandTypeOpen opens a kitchen shift.
	CommandTypeOpen command.Type = "shift.open"
	// CommandTypeClose closes the active shift.
	CommandTypeClose command.Type = "shift.close"

	// EventTypeOpened records an opened shift.
	EventTypeOpened event.Type = "shift.opened"
	// EventTypeClosed records a closed shift.
	EventTypeClosed event.Type = "shift.closed"

	// EntityType labels shift entities in the event envelope.
	EntityType = "shift"

	rejectionCodeShiftIDRequired = "SHIFT_ID_REQUIRED"
	rejectionCodeAlreadyOpen     = "SHIFT_ALREADY_OPEN"
	rejectionCodeNotOpen         = "SHIFT_NOT_OPEN"
)

// DeciderHandledCommands returns the command types the shift decider handles.
func DeciderHandledCommands() []command.Type {
	return []command.Type{CommandTypeOpen, CommandTypeClose}
}

// Decide returns the decision for a shift command against current state.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	switch cmd.Type {
	case CommandTypeOpen:
		if state.Opened {
			return command.RejectWith(rejectionCodeAlreadyOpen, "shift already open")
		}
		var payload OpenPayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		shiftID := strings.TrimSpace(payload.ShiftID)
		if shiftID == "" {
			return command.RejectWith(rejectionCodeShiftIDRequired, "shift id is required")
		}
		normalized := OpenPayload{ShiftID: shiftID, Name: strings.TrimSpace(payload.Name)}
		payloadJSON, _ := json.Marshal(normalized)
		evt := command.NewEvent(cmd, EventTypeOpened, EntityType, shiftID, payloadJSON, now().UTC())
		evt.ShiftID = shiftID
		return command.Accept(evt)

	case CommandTypeClose:
		if !state.Opened {
			return command.RejectWith(rejectionCodeNotOpen, "no shift is open")
		}
		var payload ClosePayload
		_ = json.Unmarshal(cmd.PayloadJSON, &payload)
		shiftID := strings.TrimSpace(payload.ShiftID)
		if shiftID == "" {
			shiftID = state.ShiftID
		}
		payloadJSON, _ := json.Marshal(ClosePayload{ShiftID: shiftID})
		evt := command.NewEvent(cmd, EventTypeClosed, EntityType, shiftID, payloadJSON, now().UTC())
		evt.ShiftID = shiftID
		return command.Accept(evt)
	}

	return command.RejectWith("SHIFT_COMMAND_UNSUPPORTED", "shift decider cannot handle "+string(cmd.Type))
}
