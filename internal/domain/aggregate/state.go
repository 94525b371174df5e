// Package aggregate assembles the kitchen's full state from its slices and
// folds journal events into it.
package aggregate

import (
	"fmt"
	"reflect"

	"github.com/louisbranch/galley/internal/domain/cooking"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/recipe"
	"github.com/louisbranch/galley/internal/domain/shift"
	"github.com/louisbranch/galley/internal/domain/station"
)

// State captures aggregate kitchen state.
type State struct {
	Ingredients map[string]ingredient.State
	Recipes     map[string]recipe.State
	Shift       shift.State
	Cooking     cooking.State
	Stations    map[station.Key]any
}

// AssertState converts an opaque state value into a concrete state type.
// Values, pointers, and nil all resolve: nil and nil pointers yield the zero
// state so callers never start a fold from an invalid value.
func AssertState[T any](state any) (T, error) {
	var zero T
	if state == nil {
		return zero, nil
	}
	switch typed := state.(type) {
	case T:
		return typed, nil
	case *T:
		if typed == nil {
			return zero, nil
		}
		return *typed, nil
	}
	return zero, fmt.Errorf("expected %s, got %T", reflect.TypeOf(zero).String(), state)
}
