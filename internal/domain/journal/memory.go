// Package journal persists the ordered event log for each kitchen.
package journal

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/louisbranch/galley/internal/domain/event"
)

var (
	// ErrRegistryRequired indicates a missing event registry.
	ErrRegistryRequired = errors.New("event registry is required")
	// ErrKitchenIDRequired indicates a missing kitchen id.
	ErrKitchenIDRequired = errors.New("kitchen id is required")
)

// Signer signs a chain hash so readers can verify the journal was written by
// a holder of the kitchen's integrity key. Optional: an unsigned journal
// still carries the hash chain.
type Signer interface {
	SignEvent(kitchenID, chainHash string) (signature, keyID string, err error)
}

// Memory stores journal events in memory. Events are scoped per kitchen with
// a monotonic sequence, a content hash, and a chained hash linking each
// event to its predecessor.
type Memory struct {
	registry *event.Registry

	// Signer, when set, signs the chain hash of each appended event.
	Signer Signer

	mu     sync.Mutex
	events map[string][]event.Event
}

// NewMemory creates an in-memory journal validated against the registry.
func NewMemory(registry *event.Registry) *Memory {
	return &Memory{
		registry: registry,
		events:   make(map[string][]event.Event),
	}
}

// Append validates an event, assigns its sequence and integrity fields, and
// stores it.
func (m *Memory) Append(ctx context.Context, evt event.Event) (event.Event, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return event.Event{}, err
		}
	}
	if m == nil {
		return event.Event{}, errors.New("journal is required")
	}
	if m.registry == nil {
		return event.Event{}, ErrRegistryRequired
	}

	validated, err := m.registry.ValidateForAppend(evt)
	if err != nil {
		return event.Event{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.events[validated.KitchenID]
	validated.Seq = uint64(len(log)) + 1

	prevChainHash := ""
	if len(log) > 0 {
		prevChainHash = log[len(log)-1].ChainHash
	}
	hash, err := event.EventHash(validated)
	if err != nil {
		return event.Event{}, err
	}
	chainHash, err := event.ChainHash(validated, prevChainHash)
	if err != nil {
		return event.Event{}, err
	}
	validated.Hash = hash
	validated.PrevHash = prevChainHash
	validated.ChainHash = chainHash

	if m.Signer != nil {
		signature, keyID, err := m.Signer.SignEvent(validated.KitchenID, chainHash)
		if err != nil {
			return event.Event{}, err
		}
		validated.Signature = signature
		validated.SignatureKeyID = keyID
	}

	m.events[validated.KitchenID] = append(log, validated)
	return validated, nil
}

// ListEvents returns up to limit events with Seq greater than afterSeq, in
// sequence order. A non-positive limit returns all remaining events.
func (m *Memory) ListEvents(ctx context.Context, kitchenID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if m == nil {
		return nil, errors.New("journal is required")
	}
	kitchenID = strings.TrimSpace(kitchenID)
	if kitchenID == "" {
		return nil, ErrKitchenIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.events[kitchenID]
	if afterSeq >= uint64(len(log)) {
		return nil, nil
	}
	remaining := log[afterSeq:]
	if limit > 0 && limit < len(remaining) {
		remaining = remaining[:limit]
	}
	page := make([]event.Event, len(remaining))
	copy(page, remaining)
	return page, nil
}

// LastSeq returns the highest assigned sequence for a kitchen, zero when the
// journal is empty.
func (m *Memory) LastSeq(ctx context.Context, kitchenID string) (uint64, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	if m == nil {
		return 0, errors.New("journal is required")
	}
	kitchenID = strings.TrimSpace(kitchenID)
	if kitchenID == "" {
		return 0, ErrKitchenIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return uint64(len(m.events[kitchenID])), nil
}
