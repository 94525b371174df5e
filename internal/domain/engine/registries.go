package engine

import (
	"fmt"
	"strings"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/station"
)

// Registries bundles the command/event/station registries.
type Registries struct {
	Commands *command.Registry
	Events   *event.Registry
	Stations *station.Registry
}

// BuildRegistries registers core slices and station modules.
//
// This is the shared bootstrap point where all command/event contracts become
// a single validated registry consumed by the write handler. Every coverage
// validator runs here so a miswired slice or module fails at startup instead
// of at the first affected command.
func BuildRegistries(modules ...station.Module) (Registries, error) {
	commandRegistry := command.NewRegistry()
	eventRegistry := event.NewRegistry()
	stationRegistry := station.NewRegistry()

	for _, domain := range CoreDomains() {
		if err := domain.RegisterCommands(commandRegistry); err != nil {
			return Registries{}, fmt.Errorf("register %s commands: %w", domain.Name(), err)
		}
		if err := domain.RegisterEvents(eventRegistry); err != nil {
			return Registries{}, fmt.Errorf("register %s events: %w", domain.Name(), err)
		}
	}

	if err := validateCoreEmittableEventTypes(eventRegistry); err != nil {
		return Registries{}, err
	}

	for _, mod := range modules {
		if err := stationRegistry.Register(mod); err != nil {
			return Registries{}, err
		}
		beforeCommands := commandTypeSet(commandRegistry.ListDefinitions())
		if err := mod.RegisterCommands(commandRegistry); err != nil {
			return Registries{}, err
		}
		beforeEvents := eventTypeSet(eventRegistry.ListDefinitions())
		if err := mod.RegisterEvents(eventRegistry); err != nil {
			return Registries{}, err
		}
		if err := validateStationTypePrefixes(mod, beforeCommands, beforeEvents, commandRegistry.ListDefinitions(), eventRegistry.ListDefinitions()); err != nil {
			return Registries{}, err
		}
		if err := validateStationEmittableEventTypes(mod, eventRegistry); err != nil {
			return Registries{}, err
		}
	}

	if err := ValidateStationFoldCoverage(stationRegistry); err != nil {
		return Registries{}, err
	}
	if err := ValidateStationDeciderCommandCoverage(stationRegistry, commandRegistry); err != nil {
		return Registries{}, err
	}
	if err := ValidateCoreDeciderCommandCoverage(commandRegistry); err != nil {
		return Registries{}, err
	}
	if err := ValidateFoldCoverage(eventRegistry); err != nil {
		return Registries{}, err
	}
	if err := ValidateAggregateFoldDispatch(eventRegistry); err != nil {
		return Registries{}, err
	}
	if err := ValidateEntityKeyedAddressing(eventRegistry); err != nil {
		return Registries{}, err
	}

	// Collect all fold handled types (core + station) for intent-guard validation.
	var allFoldHandled []event.Type
	for _, domain := range CoreDomains() {
		allFoldHandled = append(allFoldHandled, domain.FoldHandledTypes()...)
	}
	for _, mod := range modules {
		if folder := mod.Folder(); folder != nil {
			allFoldHandled = append(allFoldHandled, folder.FoldHandledTypes()...)
		}
	}
	if err := ValidateNoFoldHandlersForAuditOnlyEvents(eventRegistry, allFoldHandled); err != nil {
		return Registries{}, err
	}

	missing := eventRegistry.MissingPayloadValidators()
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, t := range missing {
			names[i] = string(t)
		}
		return Registries{}, fmt.Errorf("non-audit events without payload validators: %s", strings.Join(names, ", "))
	}

	return Registries{
		Commands: commandRegistry,
		Events:   eventRegistry,
		Stations: stationRegistry,
	}, nil
}

// commandTypeSet creates a set view for prefix validation comparisons.
func commandTypeSet(definitions []command.Definition) map[command.Type]struct{} {
	result := make(map[command.Type]struct{}, len(definitions))
	for _, definition := range definitions {
		result[definition.Type] = struct{}{}
	}
	return result
}

// eventTypeSet creates a set view for prefix validation comparisons.
func eventTypeSet(definitions []event.Definition) map[event.Type]struct{} {
	result := make(map[event.Type]struct{}, len(definitions))
	for _, definition := range definitions {
		result[definition.Type] = struct{}{}
	}
	return result
}

// validateStationTypePrefixes enforces module namespace naming for
// station-owned command/event types.
func validateStationTypePrefixes(
	mod station.Module,
	knownCommands map[command.Type]struct{},
	knownEvents map[event.Type]struct{},
	commands []command.Definition,
	events []event.Definition,
) error {
	moduleID := strings.TrimSpace(mod.ID())
	if moduleID == "" {
		return fmt.Errorf("station module id is required for naming validation")
	}
	expectedPrefix := moduleID + "."

	for _, definition := range commands {
		if definition.Owner != command.OwnerStation {
			continue
		}
		if _, exists := knownCommands[definition.Type]; exists {
			continue
		}
		if strings.HasPrefix(string(definition.Type), expectedPrefix) {
			continue
		}
		return fmt.Errorf("station module %s command %s must use %s prefix", moduleID, definition.Type, expectedPrefix)
	}

	for _, definition := range events {
		if definition.Owner != event.OwnerStation {
			continue
		}
		if _, exists := knownEvents[definition.Type]; exists {
			continue
		}
		if strings.HasPrefix(string(definition.Type), expectedPrefix) {
			continue
		}
		return fmt.Errorf("station module %s event %s must use %s prefix", moduleID, definition.Type, expectedPrefix)
	}
	return nil
}
