package command

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/louisbranch/galley/internal/domain/event"
)

// Definition declares a command type's ownership, gate policy, and payload
// validator.
type Definition struct {
	Type            Type
	Owner           Owner
	Gate            GatePolicy
	ValidatePayload func(json.RawMessage) error
}

// Registry holds command definitions and validates commands before decision.
type Registry struct {
	mu          sync.RWMutex
	definitions map[Type]Definition
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a definition. Duplicate types are rejected.
func (r *Registry) Register(def Definition) error {
	if strings.TrimSpace(string(def.Type)) == "" {
		return ErrTypeRequired
	}
	if def.Owner != OwnerCore && def.Owner != OwnerStation {
		return fmt.Errorf("command %s: owner must be core or station", def.Type)
	}
	if def.Gate.Scope == "" {
		def.Gate.Scope = GateScopeNone
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("command %s is already registered", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// Definition returns the definition for a type.
func (r *Registry) Definition(t Type) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[t]
	return def, ok
}

// Types returns all registered types sorted by name.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]Type, 0, len(r.definitions))
	for t := range r.definitions {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ListDefinitions returns all registered definitions sorted by type.
func (r *Registry) ListDefinitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	definitions := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		definitions = append(definitions, def)
	}
	sort.Slice(definitions, func(i, j int) bool { return definitions[i].Type < definitions[j].Type })
	return definitions
}

// ValidateForDecision checks a command against its definition and returns
// the normalized command.
func (r *Registry) ValidateForDecision(cmd Command) (Command, error) {
	cmd.KitchenID = strings.TrimSpace(cmd.KitchenID)
	if cmd.KitchenID == "" {
		return Command{}, ErrKitchenIDRequired
	}
	if strings.TrimSpace(string(cmd.Type)) == "" {
		return Command{}, ErrTypeRequired
	}
	def, ok := r.Definition(cmd.Type)
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrTypeUnknown, cmd.Type)
	}

	switch event.ActorType(cmd.ActorType) {
	case event.ActorTypeSystem:
	case event.ActorTypeCook, event.ActorTypeManager:
		if strings.TrimSpace(cmd.ActorID) == "" {
			return Command{}, ErrActorIDRequired
		}
	default:
		return Command{}, ErrActorTypeInvalid
	}

	switch def.Owner {
	case OwnerStation:
		if strings.TrimSpace(cmd.StationID) == "" || strings.TrimSpace(cmd.StationVersion) == "" {
			return Command{}, ErrStationMetadataRequired
		}
	default:
		if cmd.StationID != "" || cmd.StationVersion != "" {
			return Command{}, ErrStationMetadataForbidden
		}
	}

	if len(cmd.PayloadJSON) > 0 && !json.Valid(cmd.PayloadJSON) {
		return Command{}, ErrPayloadInvalid
	}
	if def.ValidatePayload != nil {
		payload := cmd.PayloadJSON
		if len(payload) == 0 {
			payload = json.RawMessage("{}")
		}
		if err := def.ValidatePayload(payload); err != nil {
			return Command{}, fmt.Errorf("validate %s payload: %w", cmd.Type, err)
		}
	}
	return cmd, nil
}
