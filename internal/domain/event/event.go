package event

import (
	"encoding/json"
	"time"
)

// Type identifies the event type string, e.g. "ingredient.added".
type Type string

// Owner identifies whether an event type is core or station-owned.
type Owner string

const (
	// OwnerCore indicates a core domain event.
	OwnerCore Owner = "core"
	// OwnerStation indicates a station-owned event.
	OwnerStation Owner = "station"
)

// ActorType identifies who caused an event.
type ActorType string

const (
	// ActorTypeSystem indicates the service itself emitted the event.
	ActorTypeSystem ActorType = "system"
	// ActorTypeCook indicates a kitchen cook emitted the event.
	ActorTypeCook ActorType = "cook"
	// ActorTypeManager indicates a kitchen manager emitted the event.
	ActorTypeManager ActorType = "manager"
)

// Intent declares how an event participates in state reconstruction.
type Intent string

const (
	// IntentReplay marks events that fold into aggregate state.
	IntentReplay Intent = "replay"
	// IntentAuditOnly marks events recorded for audit that folds must skip.
	IntentAuditOnly Intent = "audit_only"
)

// AddressingPolicy declares whether an event must target a specific entity.
type AddressingPolicy string

const (
	// AddressingPolicyNone leaves entity addressing optional.
	AddressingPolicyNone AddressingPolicy = "none"
	// AddressingPolicyEntityTarget requires entity type and id.
	AddressingPolicyEntityTarget AddressingPolicy = "entity_target"
)

// Event is the canonical envelope for every recorded kitchen fact.
//
// Events are immutable: once appended to a journal the envelope fields,
// payload, and integrity fields never change. Seq, Hash, PrevHash,
// ChainHash, Signature, and SignatureKeyID are assigned by the journal at
// append time and must be zero before then.
type Event struct {
	// KitchenID scopes the event to one kitchen's journal.
	KitchenID string
	// Seq is the 1-based position within the kitchen journal.
	Seq uint64
	// Type is the registered event type discriminator.
	Type Type
	// Timestamp records when the event occurred, UTC.
	Timestamp time.Time
	// ActorType and ActorID attribute the event to its originator.
	ActorType ActorType
	ActorID   string
	// ShiftID scopes the event to a kitchen shift when one is open.
	ShiftID string
	// RequestID correlates the event with the request that produced it.
	RequestID string
	// EntityType and EntityID address the entity the event concerns.
	EntityType string
	EntityID   string
	// StationID and StationVersion route station-owned events to their module.
	StationID      string
	StationVersion string
	// PayloadJSON carries the event-type-specific payload.
	PayloadJSON json.RawMessage
	// Integrity fields assigned at append time.
	Hash           string
	PrevHash       string
	ChainHash      string
	Signature      string
	SignatureKeyID string
}

// validActorTypes enumerates accepted actor discriminators.
func (a ActorType) valid() bool {
	switch a {
	case ActorTypeSystem, ActorTypeCook, ActorTypeManager:
		return true
	}
	return false
}
