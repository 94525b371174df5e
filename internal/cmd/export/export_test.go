package export

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/galley/internal/app"
	"github.com/louisbranch/galley/internal/domain/command"
	"github.com/louisbranch/galley/internal/domain/event"
	"github.com/louisbranch/galley/internal/domain/ingredient"
)

func setGrantEnv(t *testing.T) {
	t.Helper()

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	t.Setenv("GALLEY_TRANSFER_GRANT_ISSUER", "galley-test")
	t.Setenv("GALLEY_TRANSFER_GRANT_AUDIENCE", "galley-import")
	t.Setenv("GALLEY_TRANSFER_GRANT_PRIVATE_KEY", base64.RawStdEncoding.EncodeToString(privateKey))
	t.Setenv("GALLEY_TRANSFER_GRANT_PUBLIC_KEY", base64.RawStdEncoding.EncodeToString(publicKey))
}

func seedJournal(t *testing.T, path string) {
	t.Helper()

	runtime, err := app.New(app.Options{StoragePath: path})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	payload, err := json.Marshal(ingredient.AddPayload{Name: "Flour", Quantity: 500, Unit: "g"})
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	result, err := runtime.Handler.Execute(context.Background(), command.Command{
		KitchenID:   "kitchen-1",
		Type:        ingredient.CommandTypeAdd,
		ActorType:   string(event.ActorTypeCook),
		ActorID:     "cook-1",
		PayloadJSON: payload,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.Decision.Rejections) > 0 {
		t.Fatalf("unexpected rejections: %v", result.Decision.Rejections)
	}
	if err := runtime.Close(); err != nil {
		t.Fatalf("close runtime: %v", err)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.KitchenID != "kitchen" {
		t.Fatalf("expected default kitchen id, got %q", cfg.KitchenID)
	}
}

func TestRunRequiresStoragePath(t *testing.T) {
	setGrantEnv(t)
	if err := Run(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error without storage path")
	}
}

func TestExportThenCheckRoundTrip(t *testing.T) {
	setGrantEnv(t)
	t.Setenv("GALLEY_EVENT_HMAC_KEY", "test-secret")

	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal.db")
	docPath := filepath.Join(dir, "export.json")
	seedJournal(t, journalPath)

	var out bytes.Buffer
	err := Run(context.Background(), Config{
		StoragePath: journalPath,
		KitchenID:   "kitchen-1",
		Output:      docPath,
	}, &out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out.String(), "exported kitchen kitchen-1: 1 event(s)") {
		t.Fatalf("expected export summary, got %q", out.String())
	}

	out.Reset()
	if err := Run(context.Background(), Config{Check: docPath}, &out); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out.String(), "grant OK") {
		t.Fatalf("expected grant OK, got %q", out.String())
	}
}

func TestCheckRejectsTamperedDocument(t *testing.T) {
	setGrantEnv(t)
	t.Setenv("GALLEY_EVENT_HMAC_KEY", "test-secret")

	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal.db")
	docPath := filepath.Join(dir, "export.json")
	seedJournal(t, journalPath)

	if err := Run(context.Background(), Config{StoragePath: journalPath, KitchenID: "kitchen-1", Output: docPath}, nil); err != nil {
		t.Fatalf("export: %v", err)
	}

	tampered := filepath.Join(dir, "tampered.json")
	raw, err := os.ReadFile(docPath)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	raw = bytes.Replace(raw, []byte(`"Flour"`), []byte(`"Sugar"`), 1)
	if err := os.WriteFile(tampered, raw, 0o600); err != nil {
		t.Fatalf("write tampered document: %v", err)
	}

	if err := Run(context.Background(), Config{Check: tampered}, nil); err == nil {
		t.Fatal("expected error for tampered document")
	}
}
