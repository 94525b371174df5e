// Package station defines pluggable kitchen station modules: self-contained
// sub-state slices with their own commands, events, deciders, and folds,
// routed by the (StationID, StationVersion) pair on the envelope.
package station

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
)

var (
	// ErrStationIDRequired indicates a missing station id.
	ErrStationIDRequired = errors.New("station id is required")
	// ErrStationVersionRequired indicates a missing station version.
	ErrStationVersionRequired = errors.New("station version is required")
	// ErrStationAlreadyRegistered indicates a duplicate module registration.
	ErrStationAlreadyRegistered = errors.New("station module already registered")
	// ErrRegistryRequired indicates a missing registry.
	ErrRegistryRequired = errors.New("registry is required")
	// ErrModuleNotFound indicates a missing station module.
	ErrModuleNotFound = errors.New("station module is not registered")
	// ErrDeciderRequired indicates a missing station decider.
	ErrDeciderRequired = errors.New("station decider is required")
	// ErrFolderRequired indicates a missing station folder.
	ErrFolderRequired = errors.New("station folder is required")
)

// Decider handles station-owned commands.
type Decider interface {
	Decide(state any, cmd command.Command, now func() time.Time) command.Decision
}

// Folder folds station-owned events into station state.
//
// FoldHandledTypes declares which event types the Fold method handles, so
// startup validation can verify that every emittable replay event type has a
// fold handler.
type Folder interface {
	Fold(state any, evt event.Event) (any, error)
	FoldHandledTypes() []event.Type
}

// CommandTyper must be implemented by deciders whose modules register
// station commands, so decider coverage can be validated at startup.
type CommandTyper interface {
	DeciderHandledCommands() []command.Type
}

// StateFactory seeds initial station state. The aggregate folder calls
// NewState lazily on the first station event for a (StationID, StationVersion)
// key. Implementations must be deterministic because replay depends on it.
type StateFactory interface {
	NewState(kitchenID string) (any, error)
}

// Module defines the interface for a station module.
type Module interface {
	ID() string
	Version() string
	RegisterCommands(registry *command.Registry) error
	RegisterEvents(registry *event.Registry) error
	// EmittableEventTypes returns all event types this module's decider can
	// emit, so startup validation can catch missing event registrations.
	EmittableEventTypes() []event.Type
	Decider() Decider
	Folder() Folder
	StateFactory() StateFactory
}

// Key identifies a specific station module version.
type Key struct {
	ID      string
	Version string
}

// Registry manages registered station modules.
type Registry struct {
	mu       sync.RWMutex
	modules  map[Key]Module
	defaults map[string]string
}

// NewRegistry creates a new station module registry.
func NewRegistry() *Registry {
	return &Registry{
		modules:  make(map[Key]Module),
		defaults: make(map[string]string),
	}
}

// RouteCommand routes a station command to the registered module decider.
func RouteCommand(registry *Registry, state any, cmd command.Command, now func() time.Time) (command.Decision, error) {
	if registry == nil {
		return command.Decision{}, ErrRegistryRequired
	}
	stationID := strings.TrimSpace(cmd.StationID)
	if stationID == "" {
		return command.Decision{}, ErrStationIDRequired
	}
	stationVersion := strings.TrimSpace(cmd.StationVersion)
	if stationVersion == "" {
		return command.Decision{}, ErrStationVersionRequired
	}
	module := registry.Get(stationID, stationVersion)
	if module == nil {
		return command.Decision{}, fmt.Errorf("%w: %s@%s", ErrModuleNotFound, stationID, stationVersion)
	}
	decider := module.Decider()
	if decider == nil {
		return command.Decision{}, ErrDeciderRequired
	}
	return decider.Decide(state, cmd, now), nil
}

// RouteEvent routes a station event to the registered module folder.
func RouteEvent(registry *Registry, state any, evt event.Event) (any, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	stationID := strings.TrimSpace(evt.StationID)
	if stationID == "" {
		return nil, ErrStationIDRequired
	}
	stationVersion := strings.TrimSpace(evt.StationVersion)
	if stationVersion == "" {
		return nil, ErrStationVersionRequired
	}
	module := registry.Get(stationID, stationVersion)
	if module == nil {
		return nil, fmt.Errorf("%w: %s@%s", ErrModuleNotFound, stationID, stationVersion)
	}
	folder := module.Folder()
	if folder == nil {
		return nil, ErrFolderRequired
	}
	return folder.Fold(state, evt)
}

// Register adds a station module to the registry. The first registered
// version of an id becomes its default.
func (r *Registry) Register(module Module) error {
	if r == nil {
		return ErrRegistryRequired
	}
	if module == nil {
		return errors.New("station module is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := strings.TrimSpace(module.ID())
	if id == "" {
		return ErrStationIDRequired
	}
	version := strings.TrimSpace(module.Version())
	if version == "" {
		return ErrStationVersionRequired
	}
	key := Key{ID: id, Version: version}
	if _, exists := r.modules[key]; exists {
		return fmt.Errorf("%w: %s@%s", ErrStationAlreadyRegistered, id, version)
	}
	if _, exists := r.defaults[id]; !exists {
		r.defaults[id] = version
	}
	r.modules[key] = module
	return nil
}

// Get returns the station module for the given id and version.
// If version is empty, the default registered version is returned.
func (r *Registry) Get(id, version string) Module {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolvedID := strings.TrimSpace(id)
	resolvedVersion := strings.TrimSpace(version)
	if resolvedID == "" {
		return nil
	}
	if resolvedVersion == "" {
		resolvedVersion = r.defaults[resolvedID]
	}
	if resolvedVersion == "" {
		return nil
	}
	return r.modules[Key{ID: resolvedID, Version: resolvedVersion}]
}

// DefaultVersion returns the default registered version for the given id.
func (r *Registry) DefaultVersion(id string) string {
	if r == nil {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defaults[strings.TrimSpace(id)]
}

// List returns all registered station modules.
func (r *Registry) List() []Module {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make([]Module, 0, len(r.modules))
	for _, module := range r.modules {
		modules = append(modules, module)
	}
	return modules
}
