package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/cooking"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/replay"
	"github.com/louisbranch/galley/internal/domain/shift"
	"github.com/louisbranch/galley/internal/domain/station"
	"github.com/louisbranch/galley/internal/domain/station/oven"
)

func TestCheckpointSaveAndGet(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get(context.Background(), "kitchen-1"); !errors.Is(err, replay.ErrCheckpointNotFound) {
		t.Fatalf("expected checkpoint not found, got %v", err)
	}

	saved := replay.Checkpoint{
		KitchenID: "kitchen-1",
		LastSeq:   7,
		UpdatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}

	got, err := store.Get(context.Background(), "kitchen-1")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if got.LastSeq != 7 {
		t.Fatalf("expected last seq 7, got %d", got.LastSeq)
	}
	if !got.UpdatedAt.Equal(saved.UpdatedAt) {
		t.Fatalf("expected updated at %v, got %v", saved.UpdatedAt, got.UpdatedAt)
	}

	saved.LastSeq = 9
	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}
	got, err = store.Get(context.Background(), "kitchen-1")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if got.LastSeq != 9 {
		t.Fatalf("expected last seq 9 after upsert, got %d", got.LastSeq)
	}
}

func TestCheckpointRequiresKitchenID(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get(context.Background(), ""); err == nil {
		t.Fatal("expected error for missing kitchen id")
	}
	if err := store.Save(context.Background(), replay.Checkpoint{}); err == nil {
		t.Fatal("expected error for missing kitchen id")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if _, _, err := store.GetState(context.Background(), "kitchen-1"); !errors.Is(err, replay.ErrCheckpointNotFound) {
		t.Fatalf("expected snapshot not found, got %v", err)
	}

	state := aggregate.State{
		Ingredients: map[string]ingredient.State{
			"flour": {Name: "Flour", Quantity: 200, Unit: "g"},
		},
		Shift:   shift.State{Opened: true, ShiftID: "morning", Name: "Morning"},
		Cooking: cooking.State{Cooked: 1, LastRecipe: "Bread"},
		Stations: map[station.Key]any{
			{ID: oven.ModuleID, Version: oven.ModuleVersion}: oven.State{Lit: true, TemperatureC: 220},
		},
	}
	if err := store.SaveState(context.Background(), "kitchen-1", 4, state); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loaded, lastSeq, err := store.GetState(context.Background(), "kitchen-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if lastSeq != 4 {
		t.Fatalf("expected last seq 4, got %d", lastSeq)
	}

	typed, err := aggregate.AssertState[aggregate.State](loaded)
	if err != nil {
		t.Fatalf("assert state: %v", err)
	}
	if typed.Ingredients["flour"].Quantity != 200 {
		t.Fatalf("expected flour quantity 200, got %d", typed.Ingredients["flour"].Quantity)
	}
	if !typed.Shift.Opened || typed.Shift.ShiftID != "morning" {
		t.Fatalf("expected open morning shift, got %+v", typed.Shift)
	}
	if typed.Cooking.LastRecipe != "Bread" {
		t.Fatalf("expected last recipe Bread, got %s", typed.Cooking.LastRecipe)
	}

	ovenState, ok := typed.Stations[station.Key{ID: oven.ModuleID, Version: oven.ModuleVersion}].(oven.State)
	if !ok {
		t.Fatalf("expected oven.State, got %T", typed.Stations[station.Key{ID: oven.ModuleID, Version: oven.ModuleVersion}])
	}
	if !ovenState.Lit || ovenState.TemperatureC != 220 {
		t.Fatalf("expected lit oven at 220, got %+v", ovenState)
	}
}

func TestSnapshotOverwrite(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveState(context.Background(), "kitchen-1", 1, aggregate.State{}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	next := aggregate.State{
		Ingredients: map[string]ingredient.State{"salt": {Name: "Salt", Quantity: 50, Unit: "g"}},
	}
	if err := store.SaveState(context.Background(), "kitchen-1", 2, next); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loaded, lastSeq, err := store.GetState(context.Background(), "kitchen-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if lastSeq != 2 {
		t.Fatalf("expected last seq 2, got %d", lastSeq)
	}
	typed, err := aggregate.AssertState[aggregate.State](loaded)
	if err != nil {
		t.Fatalf("assert state: %v", err)
	}
	if typed.Ingredients["salt"].Quantity != 50 {
		t.Fatalf("expected salt quantity 50, got %d", typed.Ingredients["salt"].Quantity)
	}
}

func TestSnapshotRejectsNonAggregateState(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveState(context.Background(), "kitchen-1", 1, "bogus"); err == nil {
		t.Fatal("expected error for non-aggregate state")
	}
}
