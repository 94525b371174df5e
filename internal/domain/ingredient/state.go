// Package ingredient implements the pantry stock slice of kitchen state:
// commands, events, decider, and fold for ingredient quantities.
package ingredient

import "strings"

// State captures the stock level for one ingredient.
type State struct {
	// Name is the display name as first added.
	Name string
	// Quantity is the current stock level in Unit terms.
	Quantity int
	// Unit labels the quantity, e.g. "g" or "piece".
	Unit string
}

// Key normalizes an ingredient name into its entity id. All addressing of
// ingredient state goes through this so "Flour " and "flour" share stock.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
