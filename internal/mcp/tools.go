package mcp

import "github.com/modelcontextprotocol/go-sdk/mcp"

// IngredientAddInput represents the MCP tool input for stocking an ingredient.
type IngredientAddInput struct {
	KitchenID string `json:"kitchen_id,omitempty" jsonschema:"kitchen identifier (defaults to server kitchen)"`
	Name      string `json:"name" jsonschema:"ingredient name"`
	Quantity  int    `json:"quantity" jsonschema:"quantity to add"`
	Unit      string `json:"unit,omitempty" jsonschema:"unit label, e.g. g or piece"`
}

// IngredientConsumeInput represents the MCP tool input for consuming stock.
type IngredientConsumeInput struct {
	KitchenID string `json:"kitchen_id,omitempty" jsonschema:"kitchen identifier (defaults to server kitchen)"`
	Name      string `json:"name" jsonschema:"ingredient name"`
	Quantity  int    `json:"quantity" jsonschema:"quantity to consume"`
	Reason    string `json:"reason,omitempty" jsonschema:"optional reason, e.g. a recipe name"`
}

// RecipeAddInput represents the MCP tool input for adding a recipe.
type RecipeAddInput struct {
	KitchenID       string           `json:"kitchen_id,omitempty" jsonschema:"kitchen identifier (defaults to server kitchen)"`
	Name            string           `json:"name" jsonschema:"recipe name"`
	CookTimeMinutes int              `json:"cook_time_minutes" jsonschema:"cook time in minutes"`
	Items           []RecipeItemSpec `json:"items,omitempty" jsonschema:"ingredients the recipe consumes"`
}

// RecipeItemSpec is one ingredient line in a recipe.
type RecipeItemSpec struct {
	Ingredient string `json:"ingredient" jsonschema:"ingredient name"`
	Quantity   int    `json:"quantity" jsonschema:"quantity consumed per cook"`
}

// RecipeRemoveInput represents the MCP tool input for removing a recipe.
type RecipeRemoveInput struct {
	KitchenID string `json:"kitchen_id,omitempty" jsonschema:"kitchen identifier (defaults to server kitchen)"`
	Name      string `json:"name" jsonschema:"recipe name"`
}

// ShiftOpenInput represents the MCP tool input for opening a shift.
type ShiftOpenInput struct {
	KitchenID string `json:"kitchen_id,omitempty" jsonschema:"kitchen identifier (defaults to server kitchen)"`
	ShiftID   string `json:"shift_id" jsonschema:"shift identifier"`
	Name      string `json:"name,omitempty" jsonschema:"optional shift label"`
}

// ShiftCloseInput represents the MCP tool input for closing the open shift.
type ShiftCloseInput struct {
	KitchenID string `json:"kitchen_id,omitempty" jsonschema:"kitchen identifier (defaults to server kitchen)"`
	ShiftID   string `json:"shift_id,omitempty" jsonschema:"shift identifier (defaults to the open shift)"`
}

// CookInput represents the MCP tool input for cooking a recipe.
type CookInput struct {
	KitchenID string `json:"kitchen_id,omitempty" jsonschema:"kitchen identifier (defaults to server kitchen)"`
	Recipe    string `json:"recipe" jsonschema:"recipe name to cook"`
}

// StateGetInput represents the MCP tool input for reading kitchen state.
type StateGetInput struct {
	KitchenID string `json:"kitchen_id,omitempty" jsonschema:"kitchen identifier (defaults to server kitchen)"`
}

// EventListInput represents the MCP tool input for listing journal events.
type EventListInput struct {
	KitchenID string `json:"kitchen_id,omitempty" jsonschema:"kitchen identifier (defaults to server kitchen)"`
	AfterSeq  uint64 `json:"after_seq,omitempty" jsonschema:"return events with seq greater than this"`
	Cursor    string `json:"cursor,omitempty" jsonschema:"opaque pagination token from a prior call (overrides after_seq)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum events to return (default 50)"`
}

// RejectionEntry reports a domain-level decline.
type RejectionEntry struct {
	Code    string `json:"code" jsonschema:"rejection code"`
	Message string `json:"message" jsonschema:"human-readable reason"`
}

// EventRef identifies an appended event.
type EventRef struct {
	Seq  uint64 `json:"seq" jsonschema:"journal sequence"`
	Type string `json:"type" jsonschema:"event type"`
}

// DispatchResult represents the MCP tool output for command dispatch.
type DispatchResult struct {
	Accepted   bool             `json:"accepted" jsonschema:"whether the command was accepted"`
	Events     []EventRef       `json:"events,omitempty" jsonschema:"appended events"`
	Rejections []RejectionEntry `json:"rejections,omitempty" jsonschema:"domain rejections"`
}

// IngredientEntry is one stock line in the state view.
type IngredientEntry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
}

// RecipeEntry is one recipe line in the state view.
type RecipeEntry struct {
	Name            string           `json:"name"`
	CookTimeMinutes int              `json:"cook_time_minutes"`
	Items           []RecipeItemSpec `json:"items,omitempty"`
	Removed         bool             `json:"removed,omitempty"`
}

// ShiftStatus reports the shift slice in the state view.
type ShiftStatus struct {
	Open    bool   `json:"open"`
	ShiftID string `json:"shift_id,omitempty"`
	Name    string `json:"name,omitempty"`
}

// StationStatus reports one station slice in the state view.
type StationStatus struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	State   string `json:"state" jsonschema:"station state as JSON"`
}

// StateResult represents the MCP tool output for state_get.
type StateResult struct {
	KitchenID   string            `json:"kitchen_id"`
	Ingredients []IngredientEntry `json:"ingredients,omitempty"`
	Recipes     []RecipeEntry     `json:"recipes,omitempty"`
	Shift       ShiftStatus       `json:"shift"`
	Cooked      int               `json:"cooked"`
	LastRecipe  string            `json:"last_recipe,omitempty"`
	Stations    []StationStatus   `json:"stations,omitempty"`
}

// EventEntry is one journal row in the event_list view.
type EventEntry struct {
	Seq       uint64 `json:"seq"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp" jsonschema:"RFC3339 timestamp"`
	ActorType string `json:"actor_type"`
	ActorID   string `json:"actor_id,omitempty"`
	EntityID  string `json:"entity_id,omitempty"`
	Payload   string `json:"payload" jsonschema:"event payload as JSON"`
}

// EventListResult represents the MCP tool output for event_list.
type EventListResult struct {
	KitchenID  string       `json:"kitchen_id"`
	Events     []EventEntry `json:"events,omitempty"`
	LastSeq    uint64       `json:"last_seq"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// IngredientAddTool defines the MCP tool schema for stocking an ingredient.
func IngredientAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ingredient_add",
		Description: "Adds stock for an ingredient",
	}
}

// IngredientConsumeTool defines the MCP tool schema for consuming stock.
func IngredientConsumeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ingredient_consume",
		Description: "Consumes ingredient stock",
	}
}

// RecipeAddTool defines the MCP tool schema for adding a recipe.
func RecipeAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recipe_add",
		Description: "Adds a recipe to the kitchen book",
	}
}

// RecipeRemoveTool defines the MCP tool schema for removing a recipe.
func RecipeRemoveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "recipe_remove",
		Description: "Removes a recipe from the kitchen book",
	}
}

// ShiftOpenTool defines the MCP tool schema for opening a shift.
func ShiftOpenTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "shift_open",
		Description: "Opens a kitchen shift; shift-scoped commands dispatch only while one is open",
	}
}

// ShiftCloseTool defines the MCP tool schema for closing the open shift.
func ShiftCloseTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "shift_close",
		Description: "Closes the open kitchen shift",
	}
}

// CookTool defines the MCP tool schema for cooking a recipe.
func CookTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "cook",
		Description: "Cooks a recipe, consuming its ingredients",
	}
}

// StateGetTool defines the MCP tool schema for reading kitchen state.
func StateGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "state_get",
		Description: "Returns the kitchen's current aggregate state",
	}
}

// EventListTool defines the MCP tool schema for listing journal events.
func EventListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_list",
		Description: "Lists journal events in sequence order",
	}
}
