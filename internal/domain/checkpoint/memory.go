// Package checkpoint provides the in-memory progress and snapshot store
// backing tests and the non-persistent runtime.
package checkpoint

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/replay"
)

// ErrKitchenIDRequired indicates a missing kitchen id.
var ErrKitchenIDRequired = errors.New("kitchen id is required")

var errStoreRequired = errors.New("checkpoint store is required")

// Memory keeps per-kitchen checkpoints and state snapshots.
//
// Checkpoints and snapshots advance independently, mirroring the SQLite
// store: saving one never touches the other, so a checkpoint that ran
// ahead cannot inflate the sequence reported for a snapshot.
type Memory struct {
	mu      sync.Mutex
	records map[string]*record
}

type record struct {
	checkpoint    replay.Checkpoint
	hasCheckpoint bool
	snapshot      any
	snapshotSeq   uint64
	hasSnapshot   bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*record)}
}

// Get retrieves a kitchen's checkpoint.
func (m *Memory) Get(ctx context.Context, kitchenID string) (replay.Checkpoint, error) {
	kitchenID, err := m.guard(ctx, kitchenID)
	if err != nil {
		return replay.Checkpoint{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[kitchenID]
	if !ok || !rec.hasCheckpoint {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	return rec.checkpoint, nil
}

// Save persists a checkpoint.
func (m *Memory) Save(ctx context.Context, checkpoint replay.Checkpoint) error {
	kitchenID, err := m.guard(ctx, checkpoint.KitchenID)
	if err != nil {
		return err
	}
	checkpoint.KitchenID = kitchenID
	if checkpoint.UpdatedAt.IsZero() {
		checkpoint.UpdatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.record(kitchenID)
	rec.checkpoint = checkpoint
	rec.hasCheckpoint = true
	return nil
}

// GetState retrieves a kitchen's snapshot and the sequence it was taken at.
func (m *Memory) GetState(ctx context.Context, kitchenID string) (any, uint64, error) {
	kitchenID, err := m.guard(ctx, kitchenID)
	if err != nil {
		return nil, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[kitchenID]
	if !ok || !rec.hasSnapshot {
		return nil, 0, replay.ErrCheckpointNotFound
	}
	return cloneState(rec.snapshot), rec.snapshotSeq, nil
}

// SaveState persists a snapshot taken at lastSeq.
func (m *Memory) SaveState(ctx context.Context, kitchenID string, lastSeq uint64, state any) error {
	kitchenID, err := m.guard(ctx, kitchenID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.record(kitchenID)
	rec.snapshot = cloneState(state)
	rec.snapshotSeq = lastSeq
	rec.hasSnapshot = true
	return nil
}

// record returns the kitchen's record, creating it if needed. Callers
// hold the mutex.
func (m *Memory) record(kitchenID string) *record {
	rec, ok := m.records[kitchenID]
	if !ok {
		rec = &record{}
		m.records[kitchenID] = rec
	}
	return rec
}

func (m *Memory) guard(ctx context.Context, kitchenID string) (string, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	if m == nil {
		return "", errStoreRequired
	}
	kitchenID = strings.TrimSpace(kitchenID)
	if kitchenID == "" {
		return "", ErrKitchenIDRequired
	}
	return kitchenID, nil
}

// cloneState isolates stored snapshots from caller mutations. Aggregate
// maps are shallow-copied; slice values inside station states are owned
// by the station modules, which treat them as immutable.
func cloneState(state any) any {
	switch typed := state.(type) {
	case aggregate.State:
		return cloneAggregate(typed)
	case *aggregate.State:
		if typed == nil {
			return aggregate.State{}
		}
		return cloneAggregate(*typed)
	default:
		return state
	}
}

func cloneAggregate(source aggregate.State) aggregate.State {
	source.Ingredients = maps.Clone(source.Ingredients)
	source.Recipes = maps.Clone(source.Recipes)
	source.Stations = maps.Clone(source.Stations)
	return source
}
