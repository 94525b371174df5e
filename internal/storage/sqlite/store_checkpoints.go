package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/cooking"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/recipe"
	"github.com/louisbranch/galley/internal/domain/replay"
	"github.com/louisbranch/galley/internal/domain/shift"
	"github.com/louisbranch/galley/internal/domain/station"
)

// Get retrieves the replay checkpoint for a kitchen.
func (s *Store) Get(ctx context.Context, kitchenID string) (replay.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return replay.Checkpoint{}, err
	}
	if s == nil || s.sqlDB == nil {
		return replay.Checkpoint{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(kitchenID) == "" {
		return replay.Checkpoint{}, fmt.Errorf("kitchen id is required")
	}

	var (
		lastSeq   int64
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT last_seq, updated_at FROM checkpoints WHERE kitchen_id = ?",
		kitchenID,
	).Scan(&lastSeq, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return replay.Checkpoint{}, replay.ErrCheckpointNotFound
	}
	if err != nil {
		return replay.Checkpoint{}, fmt.Errorf("get checkpoint: %w", err)
	}
	return replay.Checkpoint{
		KitchenID: kitchenID,
		LastSeq:   uint64(lastSeq),
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}

// Save upserts the replay checkpoint for a kitchen.
func (s *Store) Save(ctx context.Context, checkpoint replay.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(checkpoint.KitchenID) == "" {
		return fmt.Errorf("kitchen id is required")
	}

	updatedAt := checkpoint.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO checkpoints (kitchen_id, last_seq, updated_at) VALUES (?, ?, ?)
ON CONFLICT(kitchen_id) DO UPDATE SET last_seq = excluded.last_seq, updated_at = excluded.updated_at`,
		checkpoint.KitchenID, int64(checkpoint.LastSeq), toMillis(updatedAt),
	); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// snapshotDocument is the persisted JSON shape for aggregate snapshots.
//
// Station slices are keyed "id@version" because their Go types are only known
// to the owning station module; loading rehydrates them through the station
// registry's state factories.
type snapshotDocument struct {
	Ingredients map[string]ingredient.State `json:"ingredients,omitempty"`
	Recipes     map[string]recipe.State     `json:"recipes,omitempty"`
	Shift       shift.State                 `json:"shift"`
	Cooking     cooking.State               `json:"cooking"`
	Stations    map[string]json.RawMessage  `json:"stations,omitempty"`
}

// GetState retrieves the latest aggregate snapshot and its sequence.
func (s *Store) GetState(ctx context.Context, kitchenID string) (any, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(kitchenID) == "" {
		return nil, 0, fmt.Errorf("kitchen id is required")
	}

	var (
		lastSeq   int64
		stateJSON string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT last_seq, state_json FROM snapshots WHERE kitchen_id = ?",
		kitchenID,
	).Scan(&lastSeq, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, replay.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get snapshot: %w", err)
	}

	var doc snapshotDocument
	if err := json.Unmarshal([]byte(stateJSON), &doc); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot: %w", err)
	}

	state := aggregate.State{
		Ingredients: doc.Ingredients,
		Recipes:     doc.Recipes,
		Shift:       doc.Shift,
		Cooking:     doc.Cooking,
	}
	if len(doc.Stations) > 0 {
		state.Stations = make(map[station.Key]any, len(doc.Stations))
		for encoded, raw := range doc.Stations {
			key, stationState, err := s.decodeStationState(kitchenID, encoded, raw)
			if err != nil {
				return nil, 0, err
			}
			state.Stations[key] = stationState
		}
	}
	return state, uint64(lastSeq), nil
}

// SaveState persists an aggregate snapshot at the provided sequence.
func (s *Store) SaveState(ctx context.Context, kitchenID string, lastSeq uint64, state any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(kitchenID) == "" {
		return fmt.Errorf("kitchen id is required")
	}

	typed, err := aggregate.AssertState[aggregate.State](state)
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}

	doc := snapshotDocument{
		Ingredients: typed.Ingredients,
		Recipes:     typed.Recipes,
		Shift:       typed.Shift,
		Cooking:     typed.Cooking,
	}
	if len(typed.Stations) > 0 {
		doc.Stations = make(map[string]json.RawMessage, len(typed.Stations))
		for key, stationState := range typed.Stations {
			raw, err := json.Marshal(stationState)
			if err != nil {
				return fmt.Errorf("encode station state %s@%s: %w", key.ID, key.Version, err)
			}
			doc.Stations[key.ID+"@"+key.Version] = raw
		}
	}

	stateJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO snapshots (kitchen_id, last_seq, state_json, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(kitchen_id) DO UPDATE SET last_seq = excluded.last_seq, state_json = excluded.state_json, updated_at = excluded.updated_at`,
		kitchenID, int64(lastSeq), string(stateJSON), toMillis(time.Now().UTC()),
	); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// decodeStationState rehydrates a persisted station slice into the concrete
// type produced by the owning module's state factory.
func (s *Store) decodeStationState(kitchenID, encoded string, raw json.RawMessage) (station.Key, any, error) {
	id, version, ok := strings.Cut(encoded, "@")
	if !ok || id == "" || version == "" {
		return station.Key{}, nil, fmt.Errorf("invalid station snapshot key %q", encoded)
	}
	key := station.Key{ID: id, Version: version}

	if s.stations == nil {
		return station.Key{}, nil, fmt.Errorf("station registry is required to decode station state %s", encoded)
	}
	module := s.stations.Get(id, version)
	if module == nil {
		return station.Key{}, nil, fmt.Errorf("decode station state %s: %w", encoded, station.ErrModuleNotFound)
	}
	factory := module.StateFactory()
	if factory == nil {
		return station.Key{}, nil, fmt.Errorf("station %s has no state factory", encoded)
	}
	seed, err := factory.NewState(kitchenID)
	if err != nil {
		return station.Key{}, nil, fmt.Errorf("seed station state %s: %w", encoded, err)
	}
	if seed == nil {
		return station.Key{}, nil, fmt.Errorf("station %s produced nil state", encoded)
	}

	ptr := reflect.New(reflect.TypeOf(seed))
	ptr.Elem().Set(reflect.ValueOf(seed))
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return station.Key{}, nil, fmt.Errorf("decode station state %s: %w", encoded, err)
	}
	return key, ptr.Elem().Interface(), nil
}
