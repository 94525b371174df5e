// Package cooking implements the cook workflow: a cross-slice decider that
// turns one cook command into ingredient consumption plus a cooked fact.
package cooking

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/recipe"
)

const (
	// CommandTypeCook cooks one recipe, consuming its ingredients.
	CommandTypeCook command.Type = "cooking.cook"

	// EventTypeCooked records a completed cook.
	EventTypeCooked event.Type = "cooking.cooked"

	// EntityType labels cook entities in the event envelope.
	EntityType = "cook"

	rejectionCodeRecipeRequired = "COOK_RECIPE_REQUIRED"
	rejectionCodeRecipeUnknown  = "COOK_RECIPE_UNKNOWN"
	rejectionCodeOutOfStock     = "COOK_OUT_OF_STOCK"
)

// State tallies completed cooks for the kitchen.
type State struct {
	Cooked     int
	LastRecipe string
}

// CookPayload carries the cooking.cook command body.
type CookPayload struct {
	Recipe string `json:"recipe"`
}

// CookedPayload carries the cooking.cooked event body.
type CookedPayload struct {
	Recipe          string `json:"recipe"`
	CookTimeMinutes int    `json:"cook_time_minutes"`
}

// DeciderHandledCommands returns the command types the cooking decider handles.
func DeciderHandledCommands() []command.Type {
	return []command.Type{CommandTypeCook}
}

// EmittableEventTypes returns the event types the cooking decider can emit.
// Ingredient consumption reuses the ingredient slice's event type so stock
// stays folded in exactly one place.
func EmittableEventTypes() []event.Type {
	return []event.Type{EventTypeCooked, ingredient.EventTypeConsumed}
}

// FoldHandledTypes returns the event types handled by the cooking fold function.
func FoldHandledTypes() []event.Type {
	return []event.Type{EventTypeCooked}
}

// Decide checks the recipe and stock, then emits one ingredient.consumed per
// recipe item followed by cooking.cooked. All-or-nothing: any shortfall
// rejects the whole command so stock never goes negative mid-cook.
func Decide(book map[string]recipe.State, stock map[string]ingredient.State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	if cmd.Type != CommandTypeCook {
		return command.RejectWith("COOK_COMMAND_UNSUPPORTED", fmt.Sprintf("cooking decider cannot handle %s", cmd.Type))
	}

	var payload CookPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	name := strings.TrimSpace(payload.Recipe)
	if name == "" {
		return command.RejectWith(rejectionCodeRecipeRequired, "recipe name is required")
	}

	entry, ok := book[recipe.Key(name)]
	if !ok || entry.Removed {
		return command.RejectWith(rejectionCodeRecipeUnknown, fmt.Sprintf("recipe %s is not in the book", name))
	}

	var shortfalls []command.Rejection
	for _, item := range entry.Items {
		have := stock[ingredient.Key(item.Ingredient)]
		if have.Quantity < item.Quantity {
			shortfalls = append(shortfalls, command.Rejection{
				Code:    rejectionCodeOutOfStock,
				Message: fmt.Sprintf("ingredient %s has %d in stock, recipe needs %d", item.Ingredient, have.Quantity, item.Quantity),
			})
		}
	}
	if len(shortfalls) > 0 {
		return command.Reject(shortfalls...)
	}

	stamp := now().UTC()
	events := make([]event.Event, 0, len(entry.Items)+1)
	for _, item := range entry.Items {
		consumed, _ := json.Marshal(ingredient.ConsumePayload{
			Name:     item.Ingredient,
			Quantity: item.Quantity,
			Reason:   entry.Name,
		})
		events = append(events, command.NewEvent(cmd, ingredient.EventTypeConsumed, ingredient.EntityType, ingredient.Key(item.Ingredient), consumed, stamp))
	}
	cooked, _ := json.Marshal(CookedPayload{Recipe: entry.Name, CookTimeMinutes: entry.CookTimeMinutes})
	events = append(events, command.NewEvent(cmd, EventTypeCooked, EntityType, recipe.Key(entry.Name), cooked, stamp))
	return command.Accept(events...)
}

// Fold tallies cooked events. Event types outside this slice pass through
// with the input unchanged.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case EventTypeCooked:
		var payload CookedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("cooking fold %s: %w", evt.Type, err)
		}
		state.Cooked++
		state.LastRecipe = payload.Recipe
	}
	return state, nil
}

// RegisterCommands registers cooking commands with the shared registry.
// The cook command is shift-gated: it is rejected while no shift is open.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	return registry.Register(command.Definition{
		Type:            CommandTypeCook,
		Owner:           command.OwnerCore,
		ValidatePayload: validateCookPayload,
		Gate: command.GatePolicy{
			Scope: command.GateScopeShift,
		},
	})
}

// RegisterEvents registers cooking events with the shared registry.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	return registry.Register(event.Definition{
		Type:            EventTypeCooked,
		Owner:           event.OwnerCore,
		Addressing:      event.AddressingPolicyEntityTarget,
		ValidatePayload: validateCookedPayload,
	})
}

func validateCookPayload(raw json.RawMessage) error {
	var payload CookPayload
	return json.Unmarshal(raw, &payload)
}

func validateCookedPayload(raw json.RawMessage) error {
	var payload CookedPayload
	return json.Unmarshal(raw, &payload)
}
