package event

import (
	"testing"
	"time"
)

func TestEventHashDeterministic(t *testing.T) {
	evt := Event{
		KitchenID:   "kit-1",
		Seq:         1,
		Type:        Type("ingredient.added"),
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ActorType:   ActorTypeSystem,
		PayloadJSON: []byte(`{"name":"flour","quantity":2}`),
	}

	first, err := EventHash(evt)
	if err != nil {
		t.Fatalf("first hash: %v", err)
	}
	second, err := EventHash(evt)
	if err != nil {
		t.Fatalf("second hash: %v", err)
	}
	if first != second {
		t.Fatalf("hash not deterministic: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestEventHashSensitiveToPayload(t *testing.T) {
	base := Event{
		KitchenID:   "kit-1",
		Seq:         1,
		Type:        Type("ingredient.added"),
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ActorType:   ActorTypeSystem,
		PayloadJSON: []byte(`{"name":"flour"}`),
	}
	changed := base
	changed.PayloadJSON = []byte(`{"name":"salt"}`)

	baseHash, err := EventHash(base)
	if err != nil {
		t.Fatalf("base hash: %v", err)
	}
	changedHash, err := EventHash(changed)
	if err != nil {
		t.Fatalf("changed hash: %v", err)
	}
	if baseHash == changedHash {
		t.Fatal("expected different hashes for different payloads")
	}
}

func TestChainHashLinksPredecessor(t *testing.T) {
	evt := Event{
		KitchenID: "kit-1",
		Seq:       2,
		Type:      Type("ingredient.added"),
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ActorType: ActorTypeSystem,
	}

	genesis, err := ChainHash(evt, "")
	if err != nil {
		t.Fatalf("genesis chain hash: %v", err)
	}
	linked, err := ChainHash(evt, "prev-hash")
	if err != nil {
		t.Fatalf("linked chain hash: %v", err)
	}
	if genesis == linked {
		t.Fatal("expected prev hash to alter chain hash")
	}
}
