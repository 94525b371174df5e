package oven

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func preheatCommand(t *testing.T, temperature int) command.Command {
	t.Helper()
	raw, err := json.Marshal(PreheatPayload{TemperatureC: temperature})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return command.Command{
		KitchenID:      "kitchen-1",
		Type:           CommandTypePreheat,
		ActorType:      string(event.ActorTypeCook),
		ActorID:        "cook-1",
		StationID:      ModuleID,
		StationVersion: ModuleVersion,
		PayloadJSON:    raw,
	}
}

func TestDecidePreheat(t *testing.T) {
	module := New()

	decision := module.Decider().Decide(State{}, preheatCommand(t, 220), fixedNow)
	if len(decision.Rejections) != 0 {
		t.Fatalf("Decide() rejections = %+v, want none", decision.Rejections)
	}
	if len(decision.Events) != 1 {
		t.Fatalf("Decide() events = %d, want 1", len(decision.Events))
	}
	evt := decision.Events[0]
	if evt.Type != EventTypePreheated {
		t.Fatalf("event type = %s, want %s", evt.Type, EventTypePreheated)
	}
	if evt.StationID != ModuleID || evt.StationVersion != ModuleVersion {
		t.Fatalf("event station = %s@%s, want %s@%s", evt.StationID, evt.StationVersion, ModuleID, ModuleVersion)
	}

	var payload PreheatPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		t.Fatalf("unmarshal event payload: %v", err)
	}
	if payload.TemperatureC != 220 {
		t.Fatalf("payload temperature = %d, want 220", payload.TemperatureC)
	}
}

func TestDecidePreheatRejectsBadTemperature(t *testing.T) {
	module := New()

	for _, temperature := range []int{0, -10, maxTemperatureC + 1} {
		decision := module.Decider().Decide(State{}, preheatCommand(t, temperature), fixedNow)
		if len(decision.Events) != 0 {
			t.Fatalf("Decide(%d) emitted events, want rejection", temperature)
		}
		if len(decision.Rejections) != 1 || decision.Rejections[0].Code != rejectionCodeTemperatureInvalid {
			t.Fatalf("Decide(%d) rejections = %+v, want %s", temperature, decision.Rejections, rejectionCodeTemperatureInvalid)
		}
	}
}

func TestDecideOff(t *testing.T) {
	module := New()
	cmd := command.Command{
		KitchenID:      "kitchen-1",
		Type:           CommandTypeOff,
		ActorType:      string(event.ActorTypeCook),
		ActorID:        "cook-1",
		StationID:      ModuleID,
		StationVersion: ModuleVersion,
	}

	decision := module.Decider().Decide(State{Lit: true, TemperatureC: 220}, cmd, fixedNow)
	if len(decision.Events) != 1 || decision.Events[0].Type != EventTypeTurnedOff {
		t.Fatalf("Decide() decision = %+v, want single turned_off event", decision)
	}

	decision = module.Decider().Decide(State{}, cmd, fixedNow)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Code != rejectionCodeNotLit {
		t.Fatalf("Decide() cold oven rejections = %+v, want %s", decision.Rejections, rejectionCodeNotLit)
	}
}

func TestFoldLifecycle(t *testing.T) {
	module := New()
	folder := module.Folder()

	raw, err := json.Marshal(PreheatPayload{TemperatureC: 180})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	state, err := folder.Fold(State{}, event.Event{
		Type:        EventTypePreheated,
		StationID:   ModuleID,
		PayloadJSON: raw,
	})
	if err != nil {
		t.Fatalf("Fold(preheated) error = %v", err)
	}
	oven, ok := state.(State)
	if !ok {
		t.Fatalf("Fold() state type = %T, want oven.State", state)
	}
	if !oven.Lit || oven.TemperatureC != 180 {
		t.Fatalf("Fold(preheated) state = %+v, want lit at 180", oven)
	}

	state, err = folder.Fold(oven, event.Event{Type: EventTypeTurnedOff, StationID: ModuleID})
	if err != nil {
		t.Fatalf("Fold(turned_off) error = %v", err)
	}
	oven = state.(State)
	if oven.Lit || oven.TemperatureC != 0 {
		t.Fatalf("Fold(turned_off) state = %+v, want cold oven", oven)
	}
}

func TestFoldHandledTypesCoverEmittable(t *testing.T) {
	module := New()
	handled := make(map[event.Type]bool)
	for _, eventType := range module.Folder().FoldHandledTypes() {
		handled[eventType] = true
	}
	for _, eventType := range module.EmittableEventTypes() {
		if !handled[eventType] {
			t.Fatalf("emittable event %s has no fold handler", eventType)
		}
	}
}

func TestRegisterDefinitions(t *testing.T) {
	module := New()
	commands := command.NewRegistry()
	events := event.NewRegistry()

	if err := module.RegisterCommands(commands); err != nil {
		t.Fatalf("RegisterCommands() error = %v", err)
	}
	if err := module.RegisterEvents(events); err != nil {
		t.Fatalf("RegisterEvents() error = %v", err)
	}

	def, ok := commands.Definition(CommandTypePreheat)
	if !ok {
		t.Fatalf("preheat command is not registered")
	}
	if def.Owner != command.OwnerStation {
		t.Fatalf("preheat owner = %s, want station", def.Owner)
	}
	if def.Gate.Scope != command.GateScopeShift {
		t.Fatalf("preheat gate scope = %s, want shift", def.Gate.Scope)
	}

	evtDef, ok := events.Definition(EventTypePreheated)
	if !ok {
		t.Fatalf("preheated event is not registered")
	}
	if evtDef.Owner != event.OwnerStation {
		t.Fatalf("preheated owner = %s, want station", evtDef.Owner)
	}
}
