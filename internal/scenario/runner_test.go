package scenario

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/galley/internal/domain/aggregate"
	"github.com/louisbranch/galley/internal/domain/engine"
	"github.com/louisbranch/galley/internal/domain/journal"
	"github.com/louisbranch/galley/internal/domain/station/oven"
)

func newTestRunner(t *testing.T) Runner {
	t.Helper()

	registries, err := engine.BuildRegistries(oven.New())
	if err != nil {
		t.Fatalf("build registries: %v", err)
	}
	journalStore := journal.NewMemory(registries.Events)
	folder := &aggregate.Folder{Events: registries.Events, StationRegistry: registries.Stations}
	loader := engine.ReplayStateLoader{
		Events: journalStore,
		Folder: folder,
		StateFactory: func() any {
			return aggregate.State{}
		},
	}
	handler := engine.Handler{
		Commands:        registries.Commands,
		Events:          registries.Events,
		Journal:         journalStore,
		Gate:            engine.DecisionGate{Registry: registries.Commands},
		GateStateLoader: engine.ReplayGateStateLoader{StateLoader: loader},
		StateLoader:     loader,
		Decider:         engine.CoreDecider{Stations: registries.Stations},
		Now: func() time.Time {
			return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		},
	}
	return Runner{
		Handler:   handler,
		Loader:    loader,
		KitchenID: "kitchen-1",
		ActorID:   "cook-1",
	}
}

func TestLoadStringBuildsSteps(t *testing.T) {
	script := `
local s = Scenario.new("smoke")
s:open_shift("morning", "Morning")
s:add_ingredient{name = "Flour", quantity = 500, unit = "g"}
s:expect_stock("Flour", 500)
return s
`
	scenario, err := LoadString("fallback", script)
	if err != nil {
		t.Fatalf("load string: %v", err)
	}
	if scenario.Name != "smoke" {
		t.Fatalf("expected name smoke, got %s", scenario.Name)
	}
	if len(scenario.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(scenario.Steps))
	}
	if scenario.Steps[0].Kind != "open_shift" {
		t.Fatalf("expected open_shift first, got %s", scenario.Steps[0].Kind)
	}
	if scenario.Steps[1].Args["quantity"] != 500 {
		t.Fatalf("expected quantity 500, got %v", scenario.Steps[1].Args["quantity"])
	}
}

func TestLoadStringNameFallback(t *testing.T) {
	scenario, err := LoadString("fallback", "return Scenario.new()")
	if err != nil {
		t.Fatalf("load string: %v", err)
	}
	if scenario.Name != "fallback" {
		t.Fatalf("expected fallback name, got %s", scenario.Name)
	}
}

func TestLoadStringRejectsNonScenarioReturn(t *testing.T) {
	if _, err := LoadString("bad", "return 42"); err == nil {
		t.Fatal("expected error for non-scenario return")
	}
}

func TestRunCookScenario(t *testing.T) {
	script := `
local s = Scenario.new("morning bake")
s:open_shift("morning", "Morning")
s:add_ingredient{name = "Flour", quantity = 500, unit = "g"}
s:add_recipe{name = "Bread", cook_time_minutes = 40,
    items = {{ingredient = "flour", quantity = 300}}}
s:cook("Bread")
s:expect_stock("Flour", 200)
s:expect_cooked(1)
return s
`
	scenario, err := LoadString("", script)
	if err != nil {
		t.Fatalf("load string: %v", err)
	}

	runner := newTestRunner(t)
	report, err := runner.Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Failed() {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
	if report.Steps != 6 {
		t.Fatalf("expected 6 steps, got %d", report.Steps)
	}
}

func TestRunStationScenario(t *testing.T) {
	script := `
local s = Scenario.new("oven warm-up")
s:open_shift("morning")
s:preheat_oven(220)
s:expect_oven{lit = true, temperature_c = 220}
s:oven_off()
s:expect_oven{lit = false}
return s
`
	scenario, err := LoadString("", script)
	if err != nil {
		t.Fatalf("load string: %v", err)
	}

	runner := newTestRunner(t)
	report, err := runner.Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Failed() {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
}

func TestRunExpectedRejection(t *testing.T) {
	script := `
local s = Scenario.new("closed kitchen")
s:cook("Bread")
s:expect_rejected("SHIFT_NOT_OPEN")
return s
`
	scenario, err := LoadString("", script)
	if err != nil {
		t.Fatalf("load string: %v", err)
	}

	runner := newTestRunner(t)
	report, err := runner.Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Failed() {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
}

func TestRunReportsUnexpectedRejection(t *testing.T) {
	script := `
local s = Scenario.new("forgot the shift")
s:cook("Bread")
return s
`
	scenario, err := LoadString("", script)
	if err != nil {
		t.Fatalf("load string: %v", err)
	}

	runner := newTestRunner(t)
	report, err := runner.Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Failed() {
		t.Fatal("expected failure for unexpected rejection")
	}
	if !strings.Contains(report.Failures[0], "SHIFT_NOT_OPEN") {
		t.Fatalf("expected SHIFT_NOT_OPEN in failure, got %s", report.Failures[0])
	}
}

func TestRunReportsFailedExpectation(t *testing.T) {
	script := `
local s = Scenario.new("wrong count")
s:open_shift("morning")
s:add_ingredient{name = "Flour", quantity = 500, unit = "g"}
s:expect_stock("Flour", 9999)
return s
`
	scenario, err := LoadString("", script)
	if err != nil {
		t.Fatalf("load string: %v", err)
	}

	runner := newTestRunner(t)
	report, err := runner.Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Failed() {
		t.Fatal("expected failure for wrong stock expectation")
	}
}

func TestRunRequiresScenario(t *testing.T) {
	runner := newTestRunner(t)
	if _, err := runner.Run(context.Background(), nil); err != ErrScenarioRequired {
		t.Fatalf("expected ErrScenarioRequired, got %v", err)
	}
}
