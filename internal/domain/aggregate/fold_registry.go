package aggregate

import (
	"fmt"

	"github.com/louisbranch/galley/internal/domain/cooking"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/recipe"
	"github.com/louisbranch/galley/internal/domain/shift"
)

// foldEntry describes how a set of event types maps to a fold function that
// updates one slice of aggregate state. Each entry is either direct (single
// field on State) or entity-keyed (map on State keyed by EntityID).
type foldEntry struct {
	// types returns the event types handled by this fold entry.
	types func() []event.Type
	// fold applies a single event to a sub-state and writes the result back
	// into the aggregate state. Entity-keyed entries receive the EntityID
	// from the event envelope.
	fold func(state *State, evt event.Event) error
}

// coreFoldEntries returns the declarative fold dispatch table for all core
// slices. Adding a new core slice requires only adding an entry here.
func coreFoldEntries() []foldEntry {
	return []foldEntry{
		{
			types: ingredient.FoldHandledTypes,
			fold: func(state *State, evt event.Event) error {
				if evt.EntityID == "" {
					return fmt.Errorf("ingredient fold requires EntityID but got empty for %s", evt.Type)
				}
				if state.Ingredients == nil {
					state.Ingredients = make(map[string]ingredient.State)
				}
				iState := state.Ingredients[evt.EntityID]
				updated, err := ingredient.Fold(iState, evt)
				if err != nil {
					return err
				}
				state.Ingredients[evt.EntityID] = updated
				return nil
			},
		},
		{
			types: recipe.FoldHandledTypes,
			fold: func(state *State, evt event.Event) error {
				if evt.EntityID == "" {
					return fmt.Errorf("recipe fold requires EntityID but got empty for %s", evt.Type)
				}
				if state.Recipes == nil {
					state.Recipes = make(map[string]recipe.State)
				}
				rState := state.Recipes[evt.EntityID]
				updated, err := recipe.Fold(rState, evt)
				if err != nil {
					return err
				}
				state.Recipes[evt.EntityID] = updated
				return nil
			},
		},
		{
			types: shift.FoldHandledTypes,
			fold: func(state *State, evt event.Event) error {
				updated, err := shift.Fold(state.Shift, evt)
				if err != nil {
					return err
				}
				state.Shift = updated
				return nil
			},
		},
		{
			types: cooking.FoldHandledTypes,
			fold: func(state *State, evt event.Event) error {
				updated, err := cooking.Fold(state.Cooking, evt)
				if err != nil {
					return err
				}
				state.Cooking = updated
				return nil
			},
		},
	}
}
