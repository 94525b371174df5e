package scenario

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.KitchenID != "kitchen" {
		t.Fatalf("expected default kitchen id, got %q", cfg.KitchenID)
	}
	if cfg.ActorID != "scenario" {
		t.Fatalf("expected default actor id, got %q", cfg.ActorID)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("GALLEY_KITCHEN_ID", "env-kitchen")
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-kitchen", "flag-kitchen", "-scenario", "steps.lua"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.KitchenID != "flag-kitchen" {
		t.Fatalf("expected flag override, got %q", cfg.KitchenID)
	}
	if cfg.Scenario != "steps.lua" {
		t.Fatalf("expected scenario path, got %q", cfg.Scenario)
	}
}

func TestRunRequiresScenarioPath(t *testing.T) {
	err := Run(context.Background(), Config{}, nil)
	if err == nil {
		t.Fatal("expected error without scenario path")
	}
}

func TestRunExecutesScript(t *testing.T) {
	script := `
local s = Scenario.new("smoke")
s:open_shift("morning", "Morning")
s:add_ingredient{name = "Flour", quantity = 500, unit = "g"}
s:expect_stock("Flour", 500)
return s
`
	path := filepath.Join(t.TempDir(), "smoke.lua")
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}

	var out bytes.Buffer
	err := Run(context.Background(), Config{Scenario: path, KitchenID: "kitchen-1", ActorID: "tester"}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "PASS") {
		t.Fatalf("expected PASS in output, got %q", out.String())
	}
}

func TestRunReportsFailedExpectation(t *testing.T) {
	script := `
local s = Scenario.new("short")
s:add_ingredient{name = "Flour", quantity = 100, unit = "g"}
s:expect_stock("Flour", 999)
return s
`
	path := filepath.Join(t.TempDir(), "short.lua")
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}

	var out bytes.Buffer
	err := Run(context.Background(), Config{Scenario: path, KitchenID: "kitchen-1"}, &out)
	if err == nil {
		t.Fatal("expected failure for unmet expectation")
	}
	if !strings.Contains(out.String(), "FAIL") {
		t.Fatalf("expected FAIL in output, got %q", out.String())
	}
}
