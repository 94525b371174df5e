package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
)

const (
	// CommandTypeAdd adds a recipe to the book.
	CommandTypeAdd command.Type = "recipe.add"
	// CommandTypeRemove removes a recipe from the book.
	CommandTypeRemove command.Type = "recipe.remove"

	// EventTypeAdded records a new recipe.
	EventTypeAdded event.Type = "recipe.added"
	// EventTypeRemoved records a recipe removal.
	EventTypeRemoved event.Type = "recipe.removed"

	// EntityType labels recipe entities in the event envelope.
	EntityType = "recipe"

	rejectionCodeNameRequired    = "RECIPE_NAME_REQUIRED"
	rejectionCodeCookTimeInvalid = "RECIPE_COOK_TIME_INVALID"
	rejectionCodeItemInvalid     = "RECIPE_ITEM_INVALID"
	rejectionCodeDuplicate       = "RECIPE_ALREADY_EXISTS"
	rejectionCodeUnknown         = "RECIPE_UNKNOWN"
)

// DeciderHandledCommands returns the command types the recipe decider handles.
func DeciderHandledCommands() []command.Type {
	return []command.Type{CommandTypeAdd, CommandTypeRemove}
}

// Decide returns the decision for a recipe command against the current book.
func Decide(book map[string]State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	switch cmd.Type {
	case CommandTypeAdd:
		return decideAdd(book, cmd, now)
	case CommandTypeRemove:
		return decideRemove(book, cmd, now)
	}
	return command.RejectWith("RECIPE_COMMAND_UNSUPPORTED", fmt.Sprintf("recipe decider cannot handle %s", cmd.Type))
}

func decideAdd(book map[string]State, cmd command.Command, now func() time.Time) command.Decision {
	var payload AddPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return command.RejectWith(rejectionCodeNameRequired, "recipe name is required")
	}
	if payload.CookTimeMinutes <= 0 {
		return command.RejectWith(rejectionCodeCookTimeInvalid, "cook time must be positive minutes")
	}
	for _, item := range payload.Items {
		if strings.TrimSpace(item.Ingredient) == "" || item.Quantity <= 0 {
			return command.RejectWith(rejectionCodeItemInvalid, "recipe items need an ingredient name and positive quantity")
		}
	}
	key := Key(name)
	if existing, ok := book[key]; ok && !existing.Removed {
		return command.RejectWith(rejectionCodeDuplicate, fmt.Sprintf("recipe %s already exists", name))
	}

	items := make([]Item, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, Item{
			Ingredient: strings.TrimSpace(item.Ingredient),
			Quantity:   item.Quantity,
		})
	}
	normalized := AddPayload{Name: name, CookTimeMinutes: payload.CookTimeMinutes, Items: items}
	payloadJSON, _ := json.Marshal(normalized)
	return command.Accept(command.NewEvent(cmd, EventTypeAdded, EntityType, key, payloadJSON, now().UTC()))
}

func decideRemove(book map[string]State, cmd command.Command, now func() time.Time) command.Decision {
	var payload RemovePayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return command.RejectWith(rejectionCodeNameRequired, "recipe name is required")
	}
	key := Key(name)
	existing, ok := book[key]
	if !ok || existing.Removed {
		return command.RejectWith(rejectionCodeUnknown, fmt.Sprintf("recipe %s is not in the book", name))
	}

	payloadJSON, _ := json.Marshal(RemovePayload{Name: name})
	return command.Accept(command.NewEvent(cmd, EventTypeRemoved, EntityType, key, payloadJSON, now().UTC()))
}
