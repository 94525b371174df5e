package ingredient

import (
	"testing"

	"github.com/louisbranch/galley/internal/domain/event"
)

func TestFoldAddedAccumulatesQuantity(t *testing.T) {
	state := State{}

	state, err := Fold(state, event.Event{
		Type:        EventTypeAdded,
		PayloadJSON: []byte(`{"name":"Flour","quantity":500,"unit":"g"}`),
	})
	if err != nil {
		t.Fatalf("fold added: %v", err)
	}
	if state.Name != "Flour" || state.Quantity != 500 || state.Unit != "g" {
		t.Fatalf("unexpected state after add: %+v", state)
	}

	state, err = Fold(state, event.Event{
		Type:        EventTypeAdded,
		PayloadJSON: []byte(`{"name":"Flour","quantity":250,"unit":"g"}`),
	})
	if err != nil {
		t.Fatalf("fold second add: %v", err)
	}
	if state.Quantity != 750 {
		t.Fatalf("quantity = %d, want 750", state.Quantity)
	}
}

func TestFoldConsumedClampsAtZero(t *testing.T) {
	state := State{Name: "Salt", Quantity: 10, Unit: "g"}

	state, err := Fold(state, event.Event{
		Type:        EventTypeConsumed,
		PayloadJSON: []byte(`{"name":"Salt","quantity":25}`),
	})
	if err != nil {
		t.Fatalf("fold consumed: %v", err)
	}
	if state.Quantity != 0 {
		t.Fatalf("quantity = %d, want 0", state.Quantity)
	}
}

func TestFoldUnknownTypeReturnsInputUnchanged(t *testing.T) {
	state := State{Name: "Yeast", Quantity: 3, Unit: "packet"}

	next, err := Fold(state, event.Event{
		Type:        event.Type("shift.opened"),
		PayloadJSON: []byte(`{"shift_id":"s1"}`),
	})
	if err != nil {
		t.Fatalf("fold unknown type: %v", err)
	}
	if next != state {
		t.Fatalf("state changed for unknown type: %+v vs %+v", next, state)
	}
}

func TestFoldMalformedPayloadReturnsStateAndError(t *testing.T) {
	state := State{Name: "Yeast", Quantity: 3}

	next, err := Fold(state, event.Event{
		Type:        EventTypeAdded,
		PayloadJSON: []byte(`{"quantity":`),
	})
	if err == nil {
		t.Fatal("expected unmarshal error")
	}
	if next != state {
		t.Fatalf("expected input state back on error, got %+v", next)
	}
}
