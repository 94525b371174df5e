package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/galley/internal/domain/engine"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/ingredient"
	"github.com/louisbranch/galley/internal/domain/station/oven"
	"github.com/louisbranch/galley/internal/storage/integrity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	registries, err := engine.BuildRegistries(oven.New())
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	keyring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("test-secret")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}

	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path, keyring, registries.Events, WithStationRegistry(registries.Stations))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func testEvent(t *testing.T, kitchenID, name string, quantity int) event.Event {
	t.Helper()

	payload, err := json.Marshal(ingredient.AddPayload{Name: name, Quantity: quantity, Unit: "g"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return event.Event{
		KitchenID:   kitchenID,
		Type:        ingredient.EventTypeAdded,
		Timestamp:   time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		ActorType:   event.ActorTypeCook,
		ActorID:     "cook-1",
		EntityType:  ingredient.EntityType,
		EntityID:    ingredient.Key(name),
		PayloadJSON: payload,
	}
}

func TestAppendAssignsSeqAndChain(t *testing.T) {
	store := openTestStore(t)

	first, err := store.Append(context.Background(), testEvent(t, "kitchen-1", "Flour", 500))
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
	if first.Seq != 1 {
		t.Fatalf("expected seq 1, got %d", first.Seq)
	}
	if first.Hash == "" || first.ChainHash == "" {
		t.Fatal("expected non-empty hash and chain hash")
	}
	if first.PrevHash != "" {
		t.Fatalf("expected empty prev hash on first event, got %s", first.PrevHash)
	}
	if first.Signature == "" || first.SignatureKeyID != "v1" {
		t.Fatalf("expected signed event with key id v1, got key id %s", first.SignatureKeyID)
	}

	second, err := store.Append(context.Background(), testEvent(t, "kitchen-1", "Salt", 100))
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
	if second.Seq != 2 {
		t.Fatalf("expected seq 2, got %d", second.Seq)
	}
	if second.PrevHash != first.ChainHash {
		t.Fatalf("expected prev hash %s, got %s", first.ChainHash, second.PrevHash)
	}
}

func TestAppendScopesSeqPerKitchen(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Append(context.Background(), testEvent(t, "kitchen-1", "Flour", 500)); err != nil {
		t.Fatalf("append event: %v", err)
	}
	other, err := store.Append(context.Background(), testEvent(t, "kitchen-2", "Flour", 500))
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
	if other.Seq != 1 {
		t.Fatalf("expected seq 1 for second kitchen, got %d", other.Seq)
	}
	if other.PrevHash != "" {
		t.Fatal("expected independent chain for second kitchen")
	}
}

func TestAppendDeduplicatesRedeliveredRequest(t *testing.T) {
	store := openTestStore(t)

	evt := testEvent(t, "kitchen-1", "Flour", 500)
	evt.RequestID = "req-1"

	first, err := store.Append(context.Background(), evt)
	if err != nil {
		t.Fatalf("append event: %v", err)
	}

	// Redelivery carries the same caller-supplied envelope, no seq or hashes.
	again, err := store.Append(context.Background(), evt)
	if err != nil {
		t.Fatalf("append redelivered event: %v", err)
	}
	if again.Seq != first.Seq || again.Hash != first.Hash || again.ChainHash != first.ChainHash {
		t.Fatalf("redelivery stored a new event: first seq=%d hash=%s, again seq=%d hash=%s",
			first.Seq, first.Hash, again.Seq, again.Hash)
	}

	last, err := store.LastSeq(context.Background(), "kitchen-1")
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if last != first.Seq {
		t.Fatalf("journal grew on redelivery: last seq = %d, want %d", last, first.Seq)
	}

	// A distinct request with the same payload still appends normally.
	other := testEvent(t, "kitchen-1", "Flour", 500)
	other.RequestID = "req-2"
	stored, err := store.Append(context.Background(), other)
	if err != nil {
		t.Fatalf("append distinct request: %v", err)
	}
	if stored.Seq != first.Seq+1 {
		t.Fatalf("distinct request seq = %d, want %d", stored.Seq, first.Seq+1)
	}
}

func TestAppendRejectsUnregisteredType(t *testing.T) {
	store := openTestStore(t)

	evt := testEvent(t, "kitchen-1", "Flour", 500)
	evt.Type = "ingredient.vaporized"
	if _, err := store.Append(context.Background(), evt); err == nil {
		t.Fatal("expected error for unregistered event type")
	}
}

func TestListEventsPagination(t *testing.T) {
	store := openTestStore(t)

	names := []string{"Flour", "Salt", "Sugar", "Butter"}
	for _, name := range names {
		if _, err := store.Append(context.Background(), testEvent(t, "kitchen-1", name, 100)); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	page, err := store.ListEvents(context.Background(), "kitchen-1", 1, 2)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page))
	}
	if page[0].Seq != 2 || page[1].Seq != 3 {
		t.Fatalf("expected seqs 2 and 3, got %d and %d", page[0].Seq, page[1].Seq)
	}

	all, err := store.ListEvents(context.Background(), "kitchen-1", 0, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(all) != len(names) {
		t.Fatalf("expected %d events, got %d", len(names), len(all))
	}
}

func TestGetEventBySeqRoundTrip(t *testing.T) {
	store := openTestStore(t)

	stored, err := store.Append(context.Background(), testEvent(t, "kitchen-1", "Flour", 500))
	if err != nil {
		t.Fatalf("append event: %v", err)
	}

	got, err := store.GetEventBySeq(context.Background(), "kitchen-1", 1)
	if err != nil {
		t.Fatalf("get event by seq: %v", err)
	}
	if got.Hash != stored.Hash {
		t.Fatal("expected hash to match")
	}
	if got.Type != ingredient.EventTypeAdded {
		t.Fatalf("expected type %s, got %s", ingredient.EventTypeAdded, got.Type)
	}
	if !got.Timestamp.Equal(stored.Timestamp) {
		t.Fatalf("expected timestamp %v, got %v", stored.Timestamp, got.Timestamp)
	}

	if _, err := store.GetEventBySeq(context.Background(), "kitchen-1", 99); err == nil {
		t.Fatal("expected error for missing seq")
	}
}

func TestLastSeq(t *testing.T) {
	store := openTestStore(t)

	seq, err := store.LastSeq(context.Background(), "kitchen-1")
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if seq != 0 {
		t.Fatalf("expected seq 0 for empty journal, got %d", seq)
	}

	if _, err := store.Append(context.Background(), testEvent(t, "kitchen-1", "Flour", 500)); err != nil {
		t.Fatalf("append event: %v", err)
	}
	seq, err = store.LastSeq(context.Background(), "kitchen-1")
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if seq != 1 {
		t.Fatalf("expected seq 1, got %d", seq)
	}
}

func TestVerifyEventIntegrity(t *testing.T) {
	store := openTestStore(t)

	for _, name := range []string{"Flour", "Salt", "Sugar"} {
		if _, err := store.Append(context.Background(), testEvent(t, "kitchen-1", name, 100)); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	if err := store.VerifyEventIntegrity(context.Background()); err != nil {
		t.Fatalf("verify integrity: %v", err)
	}
}

func TestVerifyEventIntegrityDetectsTampering(t *testing.T) {
	store := openTestStore(t)

	for _, name := range []string{"Flour", "Salt"} {
		if _, err := store.Append(context.Background(), testEvent(t, "kitchen-1", name, 100)); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	if _, err := store.sqlDB.Exec(
		"UPDATE events SET payload_json = ? WHERE kitchen_id = ? AND seq = 1",
		`{"name":"Flour","quantity":9999,"unit":"g"}`, "kitchen-1",
	); err != nil {
		t.Fatalf("tamper event: %v", err)
	}

	if err := store.VerifyEventIntegrity(context.Background()); err == nil {
		t.Fatal("expected integrity failure after tampering")
	}
}
