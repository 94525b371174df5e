package ingredient

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
)

const (
	// CommandTypeAdd adds stock for an ingredient.
	CommandTypeAdd command.Type = "ingredient.add"
	// CommandTypeConsume removes stock for an ingredient.
	CommandTypeConsume command.Type = "ingredient.consume"

	// EventTypeAdded records added stock.
	EventTypeAdded event.Type = "ingredient.added"
	// EventTypeConsumed records consumed stock.
	EventTypeConsumed event.Type = "ingredient.consumed"

	// EntityType labels ingredient entities in the event envelope.
	EntityType = "ingredient"

	rejectionCodeNameRequired    = "INGREDIENT_NAME_REQUIRED"
	rejectionCodeQuantityInvalid = "INGREDIENT_QUANTITY_INVALID"
	rejectionCodeUnknown         = "INGREDIENT_UNKNOWN"
	rejectionCodeInsufficient    = "INGREDIENT_INSUFFICIENT_STOCK"
	rejectionCodeUnitMismatch    = "INGREDIENT_UNIT_MISMATCH"
)

// DeciderHandledCommands returns the command types the ingredient decider handles.
func DeciderHandledCommands() []command.Type {
	return []command.Type{CommandTypeAdd, CommandTypeConsume}
}

// Decide returns the decision for an ingredient command against current stock.
//
// The stock map is the ingredient slice of aggregate state keyed by Key. It
// is read only; accepted commands express their effect purely as events.
func Decide(stock map[string]State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	switch cmd.Type {
	case CommandTypeAdd:
		return decideAdd(stock, cmd, now)
	case CommandTypeConsume:
		return decideConsume(stock, cmd, now)
	}
	return command.RejectWith("INGREDIENT_COMMAND_UNSUPPORTED", fmt.Sprintf("ingredient decider cannot handle %s", cmd.Type))
}

func decideAdd(stock map[string]State, cmd command.Command, now func() time.Time) command.Decision {
	var payload AddPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return command.RejectWith(rejectionCodeNameRequired, "ingredient name is required")
	}
	if payload.Quantity <= 0 {
		return command.RejectWith(rejectionCodeQuantityInvalid, "quantity must be positive")
	}
	key := Key(name)
	unit := strings.TrimSpace(payload.Unit)
	if existing, ok := stock[key]; ok && unit != "" && existing.Unit != "" && existing.Unit != unit {
		return command.RejectWith(rejectionCodeUnitMismatch, fmt.Sprintf("ingredient %s is stocked in %s, not %s", name, existing.Unit, unit))
	}

	normalized := AddPayload{Name: name, Quantity: payload.Quantity, Unit: unit}
	payloadJSON, _ := json.Marshal(normalized)
	return command.Accept(command.NewEvent(cmd, EventTypeAdded, EntityType, key, payloadJSON, now().UTC()))
}

func decideConsume(stock map[string]State, cmd command.Command, now func() time.Time) command.Decision {
	var payload ConsumePayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return command.RejectWith(rejectionCodeNameRequired, "ingredient name is required")
	}
	if payload.Quantity <= 0 {
		return command.RejectWith(rejectionCodeQuantityInvalid, "quantity must be positive")
	}
	key := Key(name)
	existing, ok := stock[key]
	if !ok {
		return command.RejectWith(rejectionCodeUnknown, fmt.Sprintf("ingredient %s is not stocked", name))
	}
	if existing.Quantity < payload.Quantity {
		return command.RejectWith(rejectionCodeInsufficient, fmt.Sprintf("ingredient %s has %d in stock, need %d", name, existing.Quantity, payload.Quantity))
	}

	normalized := ConsumePayload{Name: name, Quantity: payload.Quantity, Reason: strings.TrimSpace(payload.Reason)}
	payloadJSON, _ := json.Marshal(normalized)
	return command.Accept(command.NewEvent(cmd, EventTypeConsumed, EntityType, key, payloadJSON, now().UTC()))
}
