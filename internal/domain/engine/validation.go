package engine

import (
	"fmt"
	"strings"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/station"
)

// validateCoreEmittableEventTypes ensures every event type a core slice
// decider declares as emittable is registered in the event registry.
func validateCoreEmittableEventTypes(events *event.Registry) error {
	var missing []string
	for _, domain := range CoreDomains() {
		for _, t := range domain.EmittableEventTypes() {
			if _, ok := events.Definition(t); !ok {
				missing = append(missing, string(t))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("core emittable event types not in registry: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// validateStationEmittableEventTypes ensures every event type a station
// module decider declares as emittable is registered in the event registry.
func validateStationEmittableEventTypes(mod station.Module, events *event.Registry) error {
	var missing []string
	for _, t := range mod.EmittableEventTypes() {
		if _, ok := events.Definition(t); !ok {
			missing = append(missing, string(t))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("station module %s emittable event types not in registry: %s",
			mod.ID(), strings.Join(missing, ", "))
	}
	return nil
}

// ValidateFoldCoverage verifies that every core replay event has a fold
// handler declared via FoldHandledTypes in the slice packages.
//
// This is a startup-time safety check: if a developer adds a new event that
// affects aggregate state and forgets the fold case, the server refuses to
// start.
func ValidateFoldCoverage(events *event.Registry) error {
	if events == nil {
		return fmt.Errorf("event registry is required for fold coverage validation")
	}

	handled := make(map[event.Type]struct{})
	for _, domain := range CoreDomains() {
		for _, t := range domain.FoldHandledTypes() {
			handled[t] = struct{}{}
		}
	}

	var missing []string
	for _, def := range events.ListDefinitions() {
		if def.Owner != event.OwnerCore {
			continue
		}
		if def.Intent != event.IntentReplay {
			continue
		}
		if _, ok := handled[def.Type]; !ok {
			missing = append(missing, string(def.Type))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("core replay events missing fold handlers: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateStationFoldCoverage verifies that every event type a station
// module can emit is handled by that module's folder.
func ValidateStationFoldCoverage(stations *station.Registry) error {
	if stations == nil {
		return fmt.Errorf("station registry is required for fold coverage validation")
	}

	for _, mod := range stations.List() {
		folder := mod.Folder()
		if folder == nil {
			return fmt.Errorf("station module %s has no folder", mod.ID())
		}
		handled := make(map[event.Type]struct{})
		for _, t := range folder.FoldHandledTypes() {
			handled[t] = struct{}{}
		}
		var missing []string
		for _, t := range mod.EmittableEventTypes() {
			if _, ok := handled[t]; !ok {
				missing = append(missing, string(t))
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("station module %s emittable events missing fold handlers: %s",
				mod.ID(), strings.Join(missing, ", "))
		}
	}
	return nil
}

// ValidateStationDeciderCommandCoverage verifies that every station-owned
// command type is claimed by its module's decider.
func ValidateStationDeciderCommandCoverage(stations *station.Registry, commands *command.Registry) error {
	if stations == nil {
		return fmt.Errorf("station registry is required for decider coverage validation")
	}
	if commands == nil {
		return fmt.Errorf("command registry is required for decider coverage validation")
	}

	declared := make(map[command.Type]struct{})
	for _, mod := range stations.List() {
		decider := mod.Decider()
		if decider == nil {
			return fmt.Errorf("station module %s has no decider", mod.ID())
		}
		typer, ok := decider.(station.CommandTyper)
		if !ok {
			return fmt.Errorf("station module %s decider does not declare handled commands", mod.ID())
		}
		for _, t := range typer.DeciderHandledCommands() {
			declared[t] = struct{}{}
		}
	}

	var missing []string
	for _, def := range commands.ListDefinitions() {
		if def.Owner != command.OwnerStation {
			continue
		}
		if _, ok := declared[def.Type]; !ok {
			missing = append(missing, string(def.Type))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("station commands missing decider handlers: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateCoreDeciderCommandCoverage verifies that every core-owned command
// type in the command registry is claimed by some CoreDomain's
// DeciderHandledCommands, and conversely that every declared handler has a
// matching registration.
func ValidateCoreDeciderCommandCoverage(commands *command.Registry) error {
	if commands == nil {
		return fmt.Errorf("command registry is required for core decider coverage validation")
	}

	declared := make(map[command.Type]struct{})
	for _, domain := range CoreDomains() {
		if domain.DeciderHandledCommands == nil {
			continue
		}
		for _, t := range domain.DeciderHandledCommands() {
			declared[t] = struct{}{}
		}
	}

	registered := make(map[command.Type]struct{})
	var missing []string
	for _, def := range commands.ListDefinitions() {
		if def.Owner != command.OwnerCore {
			continue
		}
		registered[def.Type] = struct{}{}
		if _, ok := declared[def.Type]; !ok {
			missing = append(missing, string(def.Type))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("core commands missing decider handlers: %s", strings.Join(missing, ", "))
	}

	var stale []string
	for t := range declared {
		if _, ok := registered[t]; !ok {
			stale = append(stale, string(t))
		}
	}
	if len(stale) > 0 {
		return fmt.Errorf("stale core decider handler declarations without registration: %s",
			strings.Join(stale, ", "))
	}
	return nil
}

// ValidateAggregateFoldDispatch verifies that every core event type declared
// in CoreDomains().FoldHandledTypes is actually wired into the aggregate
// folder's dispatch sets.
func ValidateAggregateFoldDispatch(events *event.Registry) error {
	if events == nil {
		return fmt.Errorf("event registry is required for aggregate fold dispatch validation")
	}

	folder := &aggregate.Folder{}
	dispatched := make(map[event.Type]struct{})
	for _, t := range folder.FoldDispatchedTypes() {
		dispatched[t] = struct{}{}
	}

	declared := make(map[event.Type]struct{})
	for _, domain := range CoreDomains() {
		for _, t := range domain.FoldHandledTypes() {
			declared[t] = struct{}{}
		}
	}

	var missing []string
	for t := range declared {
		if _, ok := dispatched[t]; !ok {
			missing = append(missing, string(t))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("core fold types declared but not dispatched by aggregate folder: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// ValidateEntityKeyedAddressing verifies addressing consistency within each
// core slice. A slice is entity-keyed when ANY of its registered
// FoldHandledTypes have AddressingPolicyEntityTarget. Once identified as
// entity-keyed, ALL fold types in that slice must have the same policy.
func ValidateEntityKeyedAddressing(events *event.Registry) error {
	if events == nil {
		return fmt.Errorf("event registry is required for entity-keyed addressing validation")
	}

	var missing []string
	for _, domain := range CoreDomains() {
		types := domain.FoldHandledTypes()

		hasEntityAddressing := false
		for _, t := range types {
			def, ok := events.Definition(t)
			if !ok {
				continue
			}
			if def.Addressing == event.AddressingPolicyEntityTarget {
				hasEntityAddressing = true
				break
			}
		}
		if !hasEntityAddressing {
			continue
		}

		for _, t := range types {
			def, ok := events.Definition(t)
			if !ok {
				continue
			}
			if def.Addressing != event.AddressingPolicyEntityTarget {
				missing = append(missing, string(t))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("entity-keyed fold types missing AddressingPolicyEntityTarget: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// ValidateNoFoldHandlersForAuditOnlyEvents verifies that no fold handler
// exists for an audit-only event. Such a handler would be dead code: the
// aggregate folder skips audit-only events at runtime, so it would never
// execute.
func ValidateNoFoldHandlersForAuditOnlyEvents(events *event.Registry, foldHandled []event.Type) error {
	if events == nil {
		return fmt.Errorf("event registry is required for audit-only fold guard")
	}

	var dead []string
	for _, t := range foldHandled {
		def, ok := events.Definition(t)
		if !ok {
			continue
		}
		if def.Intent == event.IntentAuditOnly {
			dead = append(dead, string(t))
		}
	}
	if len(dead) > 0 {
		return fmt.Errorf("fold handlers registered for audit-only events (dead code): %s",
			strings.Join(dead, ", "))
	}
	return nil
}
