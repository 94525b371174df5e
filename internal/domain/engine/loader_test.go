package engine

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/checkpoint"
	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/journal"
	"github.com/louisbranch/galley/internal/domain/replay"
	"github.com/louisbranch/galley/internal/domain/shift"
)

func loaderJournal(t *testing.T, count int) *journal.Memory {
	t.Helper()
	registry := event.NewRegistry()
	if err := ingredient.RegisterEvents(registry); err != nil {
		t.Fatalf("register events: %v", err)
	}
	store := journal.NewMemory(registry)
	for idx := 0; idx < count; idx++ {
		_, err := store.Append(context.Background(), event.Event{
			KitchenID:   "kitchen-1",
			Type:        ingredient.EventTypeAdded,
			ActorType:   event.ActorTypeSystem,
			EntityType:  ingredient.EntityType,
			EntityID:    "flour",
			PayloadJSON: []byte(`{"name":"Flour","quantity":100,"unit":"g"}`),
		})
		if err != nil {
			t.Fatalf("append %d: %v", idx, err)
		}
	}
	return store
}

func TestReplayStateLoader_BuildsStateFromJournal(t *testing.T) {
	loader := ReplayStateLoader{
		Events: loaderJournal(t, 3),
		Folder: &aggregate.Folder{},
		StateFactory: func() any {
			return aggregate.State{}
		},
	}

	state, err := loader.Load(context.Background(), command.Command{KitchenID: "kitchen-1"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	typed, err := aggregate.AssertState[aggregate.State](state)
	if err != nil {
		t.Fatalf("AssertState error = %v", err)
	}
	if got := typed.Ingredients["flour"].Quantity; got != 300 {
		t.Fatalf("flour stock = %d, want 300", got)
	}
}

func TestReplayStateLoader_ResumesFromSnapshot(t *testing.T) {
	snapshots := checkpoint.NewMemory()
	seeded := aggregate.State{
		Ingredients: map[string]ingredient.State{
			"flour": {Name: "Flour", Quantity: 200, Unit: "g"},
		},
	}
	if err := snapshots.SaveState(context.Background(), "kitchen-1", 2, seeded); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loader := ReplayStateLoader{
		Events:    loaderJournal(t, 3),
		Snapshots: snapshots,
		Folder:    &aggregate.Folder{},
		StateFactory: func() any {
			return aggregate.State{}
		},
	}

	state, err := loader.Load(context.Background(), command.Command{KitchenID: "kitchen-1"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	typed, err := aggregate.AssertState[aggregate.State](state)
	if err != nil {
		t.Fatalf("AssertState error = %v", err)
	}
	// Snapshot covers seqs 1-2, replay folds only seq 3 on top of it.
	if got := typed.Ingredients["flour"].Quantity; got != 300 {
		t.Fatalf("flour stock = %d, want 300", got)
	}
}

func TestReplayStateLoader_SnapshotSeqBeatsStaleMarkers(t *testing.T) {
	// The journal holds three events, the snapshot only covers the first.
	// A progress marker recorded past the snapshot must not shorten the
	// fold: events two and three still have to land in the loaded state.
	stores := checkpoint.NewMemory()
	seeded := aggregate.State{
		Ingredients: map[string]ingredient.State{
			"flour": {Name: "Flour", Quantity: 100, Unit: "g"},
		},
	}
	if err := stores.SaveState(context.Background(), "kitchen-1", 1, seeded); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	if err := stores.Save(context.Background(), replay.Checkpoint{KitchenID: "kitchen-1", LastSeq: 3}); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}

	loader := ReplayStateLoader{
		Events:    loaderJournal(t, 3),
		Snapshots: stores,
		Folder:    &aggregate.Folder{},
		StateFactory: func() any {
			return aggregate.State{}
		},
	}

	state, err := loader.Load(context.Background(), command.Command{KitchenID: "kitchen-1"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	typed, err := aggregate.AssertState[aggregate.State](state)
	if err != nil {
		t.Fatalf("AssertState error = %v", err)
	}
	if got := typed.Ingredients["flour"].Quantity; got != 300 {
		t.Fatalf("flour stock = %d, want 300", got)
	}
}

func TestReplayStateLoader_LoadEmitsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})

	loader := ReplayStateLoader{
		Events: loaderJournal(t, 2),
		Folder: &aggregate.Folder{},
		StateFactory: func() any {
			return aggregate.State{}
		},
	}
	if _, err := loader.Load(context.Background(), command.Command{KitchenID: "kitchen-1"}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Name != "state.load" {
		t.Fatalf("span name = %q, want state.load", spans[0].Name)
	}
}

func TestReplayStateLoader_RequiresStores(t *testing.T) {
	base := ReplayStateLoader{
		Events: loaderJournal(t, 0),
		Folder: &aggregate.Folder{},
	}

	missingEvents := base
	missingEvents.Events = nil
	if _, err := missingEvents.Load(context.Background(), command.Command{KitchenID: "kitchen-1"}); !errors.Is(err, replay.ErrEventStoreRequired) {
		t.Fatalf("missing events error = %v", err)
	}

	missingFolder := base
	missingFolder.Folder = nil
	if _, err := missingFolder.Load(context.Background(), command.Command{KitchenID: "kitchen-1"}); !errors.Is(err, replay.ErrFolderRequired) {
		t.Fatalf("missing folder error = %v", err)
	}
}

func TestReplayGateStateLoader_NarrowsToShift(t *testing.T) {
	registry := event.NewRegistry()
	if err := shift.RegisterEvents(registry); err != nil {
		t.Fatalf("register events: %v", err)
	}
	store := journal.NewMemory(registry)
	if _, err := store.Append(context.Background(), event.Event{
		KitchenID:   "kitchen-1",
		Type:        shift.EventTypeOpened,
		ActorType:   event.ActorTypeSystem,
		PayloadJSON: []byte(`{"shift_id":"morning"}`),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	gateLoader := ReplayGateStateLoader{StateLoader: ReplayStateLoader{
		Events: store,
		Folder: &aggregate.Folder{},
		StateFactory: func() any {
			return aggregate.State{}
		},
	}}

	state, err := gateLoader.LoadShift(context.Background(), "kitchen-1", "")
	if err != nil {
		t.Fatalf("LoadShift() error = %v", err)
	}
	if !state.Opened || state.ShiftID != "morning" {
		t.Fatalf("shift state = %+v, want open morning shift", state)
	}
}
