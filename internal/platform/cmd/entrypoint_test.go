package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type entrypointConfig struct {
	Name string `env:"GALLEY_ENTRYPOINT_TEST_NAME" envDefault:"galley"`
}

func TestParseConfigFromArgs(t *testing.T) {
	var cfg entrypointConfig
	fs := flag.NewFlagSet("galley", flag.ContinueOnError)
	fs.StringVar(&cfg.Name, "name", cfg.Name, "service name")

	if err := ParseConfigFromArgs(&cfg, fs, []string{"-name", "override"}); err != nil {
		t.Fatalf("parse config from args: %v", err)
	}
	if cfg.Name != "override" {
		t.Fatalf("expected flag override, got %q", cfg.Name)
	}
}

func TestParseConfigNilTarget(t *testing.T) {
	if err := ParseConfig[entrypointConfig](nil); err == nil {
		t.Fatal("expected error for nil config target")
	}
}

func TestRunWithTelemetryRequiresService(t *testing.T) {
	err := RunWithTelemetry(context.Background(), "  ", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for blank service name")
	}
}

func TestRunWithTelemetryPropagatesRunError(t *testing.T) {
	want := errors.New("run failed")
	err := RunWithTelemetry(context.Background(), ServiceGalley, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected run error, got %v", err)
	}
}
