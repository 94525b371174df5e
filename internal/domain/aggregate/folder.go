package aggregate

import (
	"errors"
	"sync"

	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/station"
)

// Folder folds events into aggregate state.
//
// The folder is where the domain boundary stays deterministic: each event
// type updates exactly one aggregate slice and is replayed identically
// whether during request execution or historical reconstruction.
//
// Core dispatch is declarative: coreFoldEntries() defines the mapping from
// event types to fold functions. Adding a new core slice requires only
// adding an entry in fold_registry.go.
type Folder struct {
	// Events provides event definitions so the folder can skip audit-only
	// events that do not affect aggregate state.
	Events *event.Registry
	// StationRegistry routes station events to their module-specific folder.
	StationRegistry *station.Registry

	// foldIndex is lazily built on first Fold to avoid dispatch into fold
	// functions that cannot possibly handle the event type.
	foldOnce  sync.Once
	foldIndex map[event.Type]func(*State, event.Event) error
}

// initFoldIndex builds a type-to-handler lookup from the declarative fold entries.
func (a *Folder) initFoldIndex() {
	a.foldOnce.Do(func() {
		entries := coreFoldEntries()
		a.foldIndex = make(map[event.Type]func(*State, event.Event) error)
		for _, entry := range entries {
			fn := entry.fold
			for _, t := range entry.types() {
				a.foldIndex[t] = fn
			}
		}
	})
}

// FoldDispatchedTypes returns the union of all event types wired into the
// folder's dispatch index. Startup validation uses this to verify that every
// type a core decider can emit actually reaches a fold function at runtime.
func (a *Folder) FoldDispatchedTypes() []event.Type {
	a.initFoldIndex()
	types := make([]event.Type, 0, len(a.foldIndex))
	for t := range a.foldIndex {
		types = append(types, t)
	}
	return types
}

// Fold applies a single event to aggregate state.
//
// The function only mutates aggregate state through fold functions so state
// transitions remain visible in one place per slice and replay behavior
// matches request-time behavior.
func (a *Folder) Fold(state any, evt event.Event) (any, error) {
	// Skip audit-only events: they do not affect aggregate state and should
	// not be passed to fold functions.
	if a.Events != nil {
		if def, ok := a.Events.Definition(evt.Type); ok && def.Intent == event.IntentAuditOnly {
			current, err := AssertState[State](state)
			if err != nil {
				return State{}, err
			}
			return current, nil
		}
	}

	a.initFoldIndex()

	current, err := AssertState[State](state)
	if err != nil {
		return State{}, err
	}

	if fn, ok := a.foldIndex[evt.Type]; ok {
		if err := fn(&current, evt); err != nil {
			return current, err
		}
	}

	if evt.StationID != "" || evt.StationVersion != "" {
		if current.Stations == nil {
			current.Stations = make(map[station.Key]any)
		}
		if evt.StationID == "" || evt.StationVersion == "" {
			return current, errors.New("station id and version are required")
		}
		registry := a.StationRegistry
		if registry == nil {
			return current, errors.New("station registry is required")
		}
		key := station.Key{ID: evt.StationID, Version: evt.StationVersion}
		stationState := current.Stations[key]
		mod := registry.Get(evt.StationID, evt.StationVersion)
		if mod != nil && stationState == nil {
			if factory := mod.StateFactory(); factory != nil {
				seed, err := factory.NewState(evt.KitchenID)
				if err != nil {
					return current, err
				}
				stationState = seed
			}
		}
		updated, err := station.RouteEvent(registry, stationState, evt)
		if err != nil {
			return current, err
		}
		current.Stations[key] = updated
	}

	return current, nil
}
