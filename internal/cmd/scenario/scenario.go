// Package scenario parses scenario command flags and runs Lua scripts
// against a kitchen runtime.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/galley/internal/app"
	entrypoint "github.com/louisbranch/galley/internal/platform/cmd"
	"github.com/louisbranch/galley/internal/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario    string `env:"GALLEY_SCENARIO_FILE"`
	StoragePath string `env:"GALLEY_STORAGE_PATH"`
	KitchenID   string `env:"GALLEY_KITCHEN_ID" envDefault:"kitchen"`
	ActorID     string `env:"GALLEY_SCENARIO_ACTOR" envDefault:"scenario"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.StringVar(&cfg.StoragePath, "storage", cfg.StoragePath, "journal database path (empty runs in memory)")
	fs.StringVar(&cfg.KitchenID, "kitchen", cfg.KitchenID, "kitchen identifier")
	fs.StringVar(&cfg.ActorID, "actor", cfg.ActorID, "actor identifier recorded in the journal")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command and writes the report to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	loaded, err := scenario.LoadFile(cfg.Scenario)
	if err != nil {
		return err
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, func(ctx context.Context) error {
		runtime, err := app.New(app.Options{StoragePath: cfg.StoragePath})
		if err != nil {
			return err
		}
		defer runtime.Close()

		runner := scenario.Runner{
			Handler:   runtime.Handler,
			Loader:    runtime.Loader,
			KitchenID: cfg.KitchenID,
			ActorID:   cfg.ActorID,
		}
		report, err := runner.Run(ctx, loaded)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "scenario %s: %d steps\n", report.Scenario, report.Steps)
		for _, failure := range report.Failures {
			fmt.Fprintf(out, "  FAIL %s\n", failure)
		}
		if report.Failed() {
			return fmt.Errorf("scenario %s failed with %d expectation(s)", report.Scenario, len(report.Failures))
		}
		fmt.Fprintln(out, "  PASS")
		return nil
	})
}
