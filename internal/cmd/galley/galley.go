// Package galley parses server flags and starts the kitchen MCP runtime.
package galley

import (
	"context"
	"flag"

	"github.com/louisbranch/galley/internal/app"
	"github.com/louisbranch/galley/internal/mcp"
	entrypoint "github.com/louisbranch/galley/internal/platform/cmd"
)

// Config holds galley server configuration.
type Config struct {
	StoragePath string `env:"GALLEY_STORAGE_PATH"`
	KitchenID   string `env:"GALLEY_KITCHEN_ID" envDefault:"kitchen"`
	ActorID     string `env:"GALLEY_MCP_ACTOR" envDefault:"mcp"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.StoragePath, "storage", cfg.StoragePath, "journal database path (empty runs in memory)")
	fs.StringVar(&cfg.KitchenID, "kitchen", cfg.KitchenID, "default kitchen identifier")
	fs.StringVar(&cfg.ActorID, "actor", cfg.ActorID, "actor identifier recorded in the journal")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run assembles the runtime and serves the MCP tools over stdio.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGalley, func(ctx context.Context) error {
		runtime, err := app.New(app.Options{StoragePath: cfg.StoragePath})
		if err != nil {
			return err
		}
		defer runtime.Close()

		server, err := mcp.New(&mcp.Service{
			Handler:   runtime.Handler,
			Loader:    runtime.Loader,
			Events:    runtime.Journal,
			KitchenID: cfg.KitchenID,
			ActorID:   cfg.ActorID,
		})
		if err != nil {
			return err
		}
		return server.Serve(ctx)
	})
}
