// Package export parses export command flags and moves journals between
// installations: it writes a kitchen's signed journal document, and checks
// a previously written document before import.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/louisbranch/galley/internal/app"
	entrypoint "github.com/louisbranch/galley/internal/platform/cmd"
	"github.com/louisbranch/galley/internal/transfer"
)

// Config holds export command configuration.
type Config struct {
	StoragePath string `env:"GALLEY_STORAGE_PATH"`
	KitchenID   string `env:"GALLEY_KITCHEN_ID" envDefault:"kitchen"`
	Output      string `env:"GALLEY_EXPORT_FILE"`
	Check       string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.StoragePath, "storage", cfg.StoragePath, "journal database path")
	fs.StringVar(&cfg.KitchenID, "kitchen", cfg.KitchenID, "kitchen identifier to export")
	fs.StringVar(&cfg.Output, "out", cfg.Output, "export document path (default stdout)")
	fs.StringVar(&cfg.Check, "check", cfg.Check, "verify an export document instead of exporting")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the export command.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if cfg.Check != "" {
		return runCheck(cfg, out)
	}
	return runExport(ctx, cfg, out)
}

func runExport(ctx context.Context, cfg Config, out io.Writer) error {
	if cfg.StoragePath == "" {
		return errors.New("storage path is required")
	}

	signer, err := transfer.LoadSignerConfigFromEnv(nil)
	if err != nil {
		return err
	}

	runtime, err := app.New(app.Options{StoragePath: cfg.StoragePath})
	if err != nil {
		return err
	}
	defer runtime.Close()

	exporter := transfer.Exporter{Events: runtime.Journal, Signer: signer}
	doc, err := exporter.Export(ctx, cfg.KitchenID)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export document: %w", err)
	}
	if cfg.Output == "" {
		_, err = fmt.Fprintln(out, string(encoded))
		return err
	}
	if err := os.WriteFile(cfg.Output, encoded, 0o600); err != nil {
		return fmt.Errorf("write export document: %w", err)
	}
	fmt.Fprintf(out, "exported kitchen %s: %d event(s) to %s\n", doc.Manifest.KitchenID, doc.Manifest.EventCount, cfg.Output)
	return nil
}

func runCheck(cfg Config, out io.Writer) error {
	raw, err := os.ReadFile(cfg.Check)
	if err != nil {
		return fmt.Errorf("read export document: %w", err)
	}
	var doc transfer.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode export document: %w", err)
	}

	verifier, err := transfer.LoadVerifierConfigFromEnv(nil)
	if err != nil {
		return err
	}
	claims, err := transfer.VerifyDocument(doc, verifier)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "document %s: kitchen %s, %d event(s), grant OK\n", cfg.Check, claims.KitchenID, doc.Manifest.EventCount)
	return nil
}
