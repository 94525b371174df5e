package engine

import (
	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/cooking"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/recipe"
	"github.com/louisbranch/galley/internal/domain/shift"
)

// CoreDomain bundles the registration hooks that every core slice package
// exports. Adding a new core slice means creating a CoreDomain entry in
// CoreDomains() and wiring its fold function in the aggregate folder — the
// compiler and startup validators catch the rest.
type CoreDomain struct {
	name                   string
	RegisterCommands       func(*command.Registry) error
	RegisterEvents         func(*event.Registry) error
	EmittableEventTypes    func() []event.Type
	FoldHandledTypes       func() []event.Type
	DeciderHandledCommands func() []command.Type
}

// Name returns a human-readable label for error messages and diagnostics.
func (d CoreDomain) Name() string { return d.name }

// CoreDomains returns the authoritative list of core slice registrations.
// BuildRegistries iterates this slice so adding a new slice is a single
// append rather than editing 5+ locations.
func CoreDomains() []CoreDomain {
	return []CoreDomain{
		{
			name:                   "ingredient",
			RegisterCommands:       ingredient.RegisterCommands,
			RegisterEvents:         ingredient.RegisterEvents,
			EmittableEventTypes:    ingredient.EmittableEventTypes,
			FoldHandledTypes:       ingredient.FoldHandledTypes,
			DeciderHandledCommands: ingredient.DeciderHandledCommands,
		},
		{
			name:                   "recipe",
			RegisterCommands:       recipe.RegisterCommands,
			RegisterEvents:         recipe.RegisterEvents,
			EmittableEventTypes:    recipe.EmittableEventTypes,
			FoldHandledTypes:       recipe.FoldHandledTypes,
			DeciderHandledCommands: recipe.DeciderHandledCommands,
		},
		{
			name:                   "shift",
			RegisterCommands:       shift.RegisterCommands,
			RegisterEvents:         shift.RegisterEvents,
			EmittableEventTypes:    shift.EmittableEventTypes,
			FoldHandledTypes:       shift.FoldHandledTypes,
			DeciderHandledCommands: shift.DeciderHandledCommands,
		},
		{
			name:                   "cooking",
			RegisterCommands:       cooking.RegisterCommands,
			RegisterEvents:         cooking.RegisterEvents,
			EmittableEventTypes:    cooking.EmittableEventTypes,
			FoldHandledTypes:       cooking.FoldHandledTypes,
			DeciderHandledCommands: cooking.DeciderHandledCommands,
		},
	}
}
