// Package recipe implements the recipe book slice of kitchen state.
package recipe

import "strings"

// Item names one ingredient requirement of a recipe.
type Item struct {
	Ingredient string `json:"ingredient"`
	Quantity   int    `json:"quantity"`
}

// State captures one recipe entry.
//
// Removal tombstones the entry instead of deleting it so a fold never has to
// produce an absent state and replay stays order-insensitive to re-adds.
type State struct {
	Name            string
	CookTimeMinutes int
	Items           []Item
	Removed         bool
}

// Key normalizes a recipe name into its entity id.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
