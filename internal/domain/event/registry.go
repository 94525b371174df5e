package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrKitchenIDRequired indicates a missing kitchen id.
	ErrKitchenIDRequired = errors.New("kitchen id is required")
	// ErrTypeRequired indicates a missing event type.
	ErrTypeRequired = errors.New("event type is required")
	// ErrTypeUnknown indicates an unregistered event type.
	ErrTypeUnknown = errors.New("event type is not registered")
	// ErrTypeAlreadyRegistered indicates a duplicate registration.
	ErrTypeAlreadyRegistered = errors.New("event type is already registered")
	// ErrActorTypeInvalid indicates an unknown actor type.
	ErrActorTypeInvalid = errors.New("actor type is invalid")
	// ErrActorIDRequired indicates a missing actor id for cook/manager actors.
	ErrActorIDRequired = errors.New("actor id is required for cook or manager")
	// ErrStationMetadataRequired indicates missing station metadata on station events.
	ErrStationMetadataRequired = errors.New("station metadata is required for station events")
	// ErrStationMetadataForbidden indicates station metadata on core events.
	ErrStationMetadataForbidden = errors.New("station metadata must be empty for core events")
	// ErrEntityTypeRequired indicates a missing entity type.
	ErrEntityTypeRequired = errors.New("entity type is required")
	// ErrEntityIDRequired indicates a missing entity id.
	ErrEntityIDRequired = errors.New("entity id is required")
	// ErrPayloadInvalid indicates malformed payload JSON.
	ErrPayloadInvalid = errors.New("payload json must be valid")
)

// Definition declares an event type's ownership, replay intent, addressing
// policy, and payload validator.
type Definition struct {
	Type            Type
	Owner           Owner
	Intent          Intent
	Addressing      AddressingPolicy
	ValidatePayload func(json.RawMessage) error
}

// Registry holds event definitions and validates events before append.
type Registry struct {
	mu          sync.RWMutex
	definitions map[Type]Definition
}

// NewRegistry creates an empty event registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[Type]Definition)}
}

// Register adds a definition. Duplicate types are rejected so ownership of
// an event type stays with exactly one registrant.
func (r *Registry) Register(def Definition) error {
	if strings.TrimSpace(string(def.Type)) == "" {
		return ErrTypeRequired
	}
	if def.Owner != OwnerCore && def.Owner != OwnerStation {
		return fmt.Errorf("event %s: owner must be core or station", def.Type)
	}
	if def.Intent == "" {
		def.Intent = IntentReplay
	}
	if def.Addressing == "" {
		def.Addressing = AddressingPolicyNone
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("%w: %s", ErrTypeAlreadyRegistered, def.Type)
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

// MissingPayloadValidators returns the replay event types registered without
// a payload validator. Audit-only events are exempt.
func (r *Registry) MissingPayloadValidators() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []Type
	for _, def := range r.definitions {
		if def.Intent == IntentAuditOnly {
			continue
		}
		if def.ValidatePayload == nil {
			missing = append(missing, def.Type)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

// ValidateForAppend checks an event against its definition and returns the
// normalized event. Integrity fields are not checked here; the journal
// assigns them after validation.
func (r *Registry) ValidateForAppend(evt Event) (Event, error) {
	if strings.TrimSpace(evt.KitchenID) == "" {
		return Event{}, ErrKitchenIDRequired
	}
	if strings.TrimSpace(string(evt.Type)) == "" {
		return Event{}, ErrTypeRequired
	}
	def, ok := r.Definition(evt.Type)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrTypeUnknown, evt.Type)
	}
	if !evt.ActorType.valid() {
		return Event{}, ErrActorTypeInvalid
	}
	if evt.ActorType != ActorTypeSystem && strings.TrimSpace(evt.ActorID) == "" {
		return Event{}, ErrActorIDRequired
	}

	switch def.Owner {
	case OwnerStation:
		if strings.TrimSpace(evt.StationID) == "" || strings.TrimSpace(evt.StationVersion) == "" {
			return Event{}, ErrStationMetadataRequired
		}
	default:
		if evt.StationID != "" || evt.StationVersion != "" {
			return Event{}, ErrStationMetadataForbidden
		}
	}

	needsAddressing := def.Owner == OwnerStation || def.Addressing == AddressingPolicyEntityTarget
	if needsAddressing {
		if strings.TrimSpace(evt.EntityType) == "" {
			return Event{}, ErrEntityTypeRequired
		}
		if strings.TrimSpace(evt.EntityID) == "" {
			return Event{}, ErrEntityIDRequired
		}
	}

	if len(evt.PayloadJSON) > 0 && !json.Valid(evt.PayloadJSON) {
		return Event{}, ErrPayloadInvalid
	}
	if def.ValidatePayload != nil {
		payload := evt.PayloadJSON
		if len(payload) == 0 {
			payload = json.RawMessage("{}")
		}
		if err := def.ValidatePayload(payload); err != nil {
			return Event{}, fmt.Errorf("validate %s payload: %w", evt.Type, err)
		}
	}
	return evt, nil
}
