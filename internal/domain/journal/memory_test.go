package journal

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/galley/internal/domain/event"
)

func testRegistry(t *testing.T) *event.Registry {
	t.Helper()
	registry := event.NewRegistry()
	if err := registry.Register(event.Definition{
		Type:  event.Type("shift.opened"),
		Owner: event.OwnerCore,
	}); err != nil {
		t.Fatalf("register event: %v", err)
	}
	return registry
}

func TestMemoryAppend_AssignsSeqAndHashes(t *testing.T) {
	store := NewMemory(testRegistry(t))
	stamp := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

	first, err := store.Append(context.Background(), event.Event{
		KitchenID:   "kitchen-1",
		Type:        event.Type("shift.opened"),
		Timestamp:   stamp,
		ActorType:   event.ActorTypeSystem,
		PayloadJSON: []byte(`{"shift_id":"morning"}`),
	})
	if err != nil {
		t.Fatalf("append first: %v", err)
	}
	if first.Seq != 1 {
		t.Fatalf("first seq = %d, want %d", first.Seq, 1)
	}
	if first.Hash == "" {
		t.Fatal("expected first hash")
	}
	if first.PrevHash != "" {
		t.Fatalf("first prev hash = %q, want empty", first.PrevHash)
	}
	if first.ChainHash == "" {
		t.Fatal("expected first chain hash")
	}

	second, err := store.Append(context.Background(), event.Event{
		KitchenID:   "kitchen-1",
		Type:        event.Type("shift.opened"),
		Timestamp:   stamp.Add(time.Minute),
		ActorType:   event.ActorTypeSystem,
		PayloadJSON: []byte(`{"shift_id":"evening"}`),
	})
	if err != nil {
		t.Fatalf("append second: %v", err)
	}
	if second.Seq != 2 {
		t.Fatalf("second seq = %d, want %d", second.Seq, 2)
	}
	if second.PrevHash != first.ChainHash {
		t.Fatalf("second prev hash = %q, want %q", second.PrevHash, first.ChainHash)
	}
}

func TestMemoryAppend_RejectsUnregisteredType(t *testing.T) {
	store := NewMemory(testRegistry(t))

	_, err := store.Append(context.Background(), event.Event{
		KitchenID: "kitchen-1",
		Type:      event.Type("mystery.event"),
		ActorType: event.ActorTypeSystem,
	})
	if err == nil {
		t.Fatal("expected append of unregistered type to fail")
	}
}

func TestMemoryAppend_ScopesSeqPerKitchen(t *testing.T) {
	store := NewMemory(testRegistry(t))
	stamp := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

	for _, kitchenID := range []string{"kitchen-1", "kitchen-2"} {
		appended, err := store.Append(context.Background(), event.Event{
			KitchenID: kitchenID,
			Type:      event.Type("shift.opened"),
			Timestamp: stamp,
			ActorType: event.ActorTypeSystem,
		})
		if err != nil {
			t.Fatalf("append %s: %v", kitchenID, err)
		}
		if appended.Seq != 1 {
			t.Fatalf("%s seq = %d, want 1", kitchenID, appended.Seq)
		}
	}
}

func TestMemoryListEvents_RespectsAfterSeqAndLimit(t *testing.T) {
	store := NewMemory(testRegistry(t))
	stamp := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

	for idx := 0; idx < 3; idx++ {
		_, err := store.Append(context.Background(), event.Event{
			KitchenID:   "kitchen-1",
			Type:        event.Type("shift.opened"),
			Timestamp:   stamp.Add(time.Duration(idx) * time.Minute),
			ActorType:   event.ActorTypeSystem,
			PayloadJSON: []byte(`{"shift_id":"morning"}`),
		})
		if err != nil {
			t.Fatalf("append %d: %v", idx, err)
		}
	}

	page, err := store.ListEvents(context.Background(), "kitchen-1", 1, 2)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page length = %d, want %d", len(page), 2)
	}
	if page[0].Seq != 2 || page[1].Seq != 3 {
		t.Fatalf("page seqs = %d,%d, want 2,3", page[0].Seq, page[1].Seq)
	}

	empty, err := store.ListEvents(context.Background(), "kitchen-1", 3, 10)
	if err != nil {
		t.Fatalf("list events past end: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("page past end length = %d, want 0", len(empty))
	}
}

func TestMemoryLastSeq(t *testing.T) {
	store := NewMemory(testRegistry(t))

	last, err := store.LastSeq(context.Background(), "kitchen-1")
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if last != 0 {
		t.Fatalf("empty journal last seq = %d, want 0", last)
	}

	if _, err := store.Append(context.Background(), event.Event{
		KitchenID: "kitchen-1",
		Type:      event.Type("shift.opened"),
		ActorType: event.ActorTypeSystem,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	last, err = store.LastSeq(context.Background(), "kitchen-1")
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if last != 1 {
		t.Fatalf("last seq = %d, want 1", last)
	}
}

type fakeSigner struct{}

func (fakeSigner) SignEvent(kitchenID, chainHash string) (string, string, error) {
	return "sig:" + chainHash, "key-1", nil
}

func TestMemoryAppend_SignsChainHash(t *testing.T) {
	store := NewMemory(testRegistry(t))
	store.Signer = fakeSigner{}

	appended, err := store.Append(context.Background(), event.Event{
		KitchenID: "kitchen-1",
		Type:      event.Type("shift.opened"),
		ActorType: event.ActorTypeSystem,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if appended.Signature != "sig:"+appended.ChainHash {
		t.Fatalf("signature = %q, want signed chain hash", appended.Signature)
	}
	if appended.SignatureKeyID != "key-1" {
		t.Fatalf("signature key id = %q, want key-1", appended.SignatureKeyID)
	}
}
