package replay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/louisbranch/galley/internal/domain/event"
)

type sliceStore struct {
	events []event.Event
	lists  int
}

func (s *sliceStore) ListEvents(_ context.Context, kitchenID string, afterSeq uint64, limit int) ([]event.Event, error) {
	s.lists++
	var page []event.Event
	for _, evt := range s.events {
		if evt.KitchenID != kitchenID || evt.Seq <= afterSeq {
			continue
		}
		page = append(page, evt)
		if limit > 0 && len(page) == limit {
			break
		}
	}
	return page, nil
}

type countFolder struct{}

func (countFolder) Fold(state any, evt event.Event) (any, error) {
	count, _ := state.(int)
	return count + 1, nil
}

func kitchenEvents(kitchenID string, count int) []event.Event {
	events := make([]event.Event, 0, count)
	for seq := 1; seq <= count; seq++ {
		events = append(events, event.Event{KitchenID: kitchenID, Seq: uint64(seq), Type: "shift.opened"})
	}
	return events
}

func TestReplayFoldsAllEvents(t *testing.T) {
	store := &sliceStore{events: kitchenEvents("kitchen-1", 5)}

	result, err := Replay(context.Background(), store, countFolder{}, "kitchen-1", 0, Options{PageSize: 2})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if result.Applied != 5 || result.LastSeq != 5 {
		t.Fatalf("result = %+v, want 5 applied through seq 5", result)
	}
	if count := result.State.(int); count != 5 {
		t.Fatalf("state = %d, want 5", count)
	}
}

func TestReplayStartsAfterSeq(t *testing.T) {
	store := &sliceStore{events: kitchenEvents("kitchen-1", 5)}

	result, err := Replay(context.Background(), store, countFolder{}, "kitchen-1", 0, Options{AfterSeq: 3})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if result.Applied != 2 || result.LastSeq != 5 {
		t.Fatalf("result = %+v, want 2 applied through seq 5", result)
	}
}

func TestReplayIsDeterministicAcrossRuns(t *testing.T) {
	store := &sliceStore{events: kitchenEvents("kitchen-1", 4)}

	first, err := Replay(context.Background(), store, countFolder{}, "kitchen-1", 0, Options{})
	if err != nil {
		t.Fatalf("first Replay() error = %v", err)
	}
	second, err := Replay(context.Background(), store, countFolder{}, "kitchen-1", 0, Options{})
	if err != nil {
		t.Fatalf("second Replay() error = %v", err)
	}
	if first.Applied != second.Applied || first.LastSeq != second.LastSeq {
		t.Fatalf("runs diverged: first %+v second %+v", first, second)
	}
	if first.State.(int) != second.State.(int) {
		t.Fatalf("state diverged: first %d second %d", first.State.(int), second.State.(int))
	}
}

func TestReplayHonorsUntilSeq(t *testing.T) {
	store := &sliceStore{events: kitchenEvents("kitchen-1", 5)}

	result, err := Replay(context.Background(), store, countFolder{}, "kitchen-1", 0, Options{UntilSeq: 3})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if result.Applied != 3 || result.LastSeq != 3 {
		t.Fatalf("result = %+v, want 3 applied through seq 3", result)
	}
}

func TestReplayDetectsSequenceGap(t *testing.T) {
	events := kitchenEvents("kitchen-1", 4)
	gapped := append(events[:2:2], events[3])
	store := &sliceStore{events: gapped}

	_, err := Replay(context.Background(), store, countFolder{}, "kitchen-1", 0, Options{})
	if err == nil || !strings.Contains(err.Error(), "sequence gap") {
		t.Fatalf("Replay() error = %v, want sequence gap", err)
	}
}

func TestReplayValidatesInputs(t *testing.T) {
	store := &sliceStore{}

	if _, err := Replay(context.Background(), nil, countFolder{}, "kitchen-1", 0, Options{}); !errors.Is(err, ErrEventStoreRequired) {
		t.Fatalf("missing store error = %v", err)
	}
	if _, err := Replay(context.Background(), store, nil, "kitchen-1", 0, Options{}); !errors.Is(err, ErrFolderRequired) {
		t.Fatalf("missing folder error = %v", err)
	}
	if _, err := Replay(context.Background(), store, countFolder{}, " ", 0, Options{}); !errors.Is(err, ErrKitchenIDRequired) {
		t.Fatalf("missing kitchen id error = %v", err)
	}
}
