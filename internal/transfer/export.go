package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/galley/internal/domain/event"
)

var (
	// ErrEventStoreRequired indicates the exporter has no journal to read.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrEmptyJournal indicates there is nothing to export for the kitchen.
	ErrEmptyJournal = errors.New("journal is empty")
)

// EventStore pages a kitchen's journal in sequence order.
type EventStore interface {
	ListEvents(ctx context.Context, kitchenID string, afterSeq uint64, limit int) ([]event.Event, error)
}

// Manifest describes an exported journal.
type Manifest struct {
	KitchenID  string    `json:"kitchen_id"`
	LastSeq    uint64    `json:"last_seq"`
	EventCount int       `json:"event_count"`
	ExportedAt time.Time `json:"exported_at"`
	Grant      string    `json:"grant"`
}

// Document is a self-contained journal export.
type Document struct {
	Manifest Manifest      `json:"manifest"`
	Events   []event.Event `json:"events"`
}

// Exporter bundles a kitchen journal with a signed grant manifest.
type Exporter struct {
	Events   EventStore
	Signer   SignerConfig
	PageSize int
}

// Export reads the full journal for a kitchen and mints its grant.
func (e Exporter) Export(ctx context.Context, kitchenID string) (Document, error) {
	if e.Events == nil {
		return Document{}, ErrEventStoreRequired
	}
	if strings.TrimSpace(kitchenID) == "" {
		return Document{}, fmt.Errorf("kitchen id is required")
	}
	pageSize := e.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}

	var events []event.Event
	var lastSeq uint64
	for {
		page, err := e.Events.ListEvents(ctx, kitchenID, lastSeq, pageSize)
		if err != nil {
			return Document{}, fmt.Errorf("list events: %w", err)
		}
		if len(page) == 0 {
			break
		}
		events = append(events, page...)
		lastSeq = page[len(page)-1].Seq
	}
	if len(events) == 0 {
		return Document{}, ErrEmptyJournal
	}

	grant, err := MintGrant(e.Signer, kitchenID, lastSeq)
	if err != nil {
		return Document{}, err
	}

	now := e.Signer.Now
	if now == nil {
		now = time.Now
	}
	return Document{
		Manifest: Manifest{
			KitchenID:  kitchenID,
			LastSeq:    lastSeq,
			EventCount: len(events),
			ExportedAt: now().UTC(),
			Grant:      grant,
		},
		Events: events,
	}, nil
}

// VerifyDocument checks an export's grant, manifest consistency, sequence
// continuity, and hash chain.
//
// Chain signatures are installation-local HMACs and are intentionally not
// checked here; the hash chain plus the ed25519 grant carry the cross-
// installation trust.
func VerifyDocument(doc Document, cfg VerifierConfig) (GrantClaims, error) {
	claims, err := ValidateGrant(doc.Manifest.Grant, doc.Manifest.KitchenID, doc.Manifest.LastSeq, cfg)
	if err != nil {
		return GrantClaims{}, err
	}

	if doc.Manifest.EventCount != len(doc.Events) {
		return GrantClaims{}, fmt.Errorf("%w: event count", ErrGrantMismatch)
	}
	if len(doc.Events) == 0 {
		return GrantClaims{}, ErrEmptyJournal
	}
	if doc.Events[len(doc.Events)-1].Seq != doc.Manifest.LastSeq {
		return GrantClaims{}, fmt.Errorf("%w: last seq", ErrGrantMismatch)
	}

	prevChainHash := ""
	var lastSeq uint64
	for _, evt := range doc.Events {
		if evt.KitchenID != doc.Manifest.KitchenID {
			return GrantClaims{}, fmt.Errorf("event kitchen mismatch seq=%d", evt.Seq)
		}
		if evt.Seq != lastSeq+1 {
			return GrantClaims{}, fmt.Errorf("event sequence gap expected=%d got=%d", lastSeq+1, evt.Seq)
		}
		if evt.Seq == 1 && evt.PrevHash != "" {
			return GrantClaims{}, errors.New("first event prev hash must be empty")
		}
		if evt.Seq > 1 && evt.PrevHash != prevChainHash {
			return GrantClaims{}, fmt.Errorf("prev hash mismatch seq=%d", evt.Seq)
		}

		hash, err := event.EventHash(evt)
		if err != nil {
			return GrantClaims{}, fmt.Errorf("compute event hash seq=%d: %w", evt.Seq, err)
		}
		if hash != evt.Hash {
			return GrantClaims{}, fmt.Errorf("event hash mismatch seq=%d", evt.Seq)
		}

		chainHash, err := event.ChainHash(evt, prevChainHash)
		if err != nil {
			return GrantClaims{}, fmt.Errorf("compute chain hash seq=%d: %w", evt.Seq, err)
		}
		if chainHash != evt.ChainHash {
			return GrantClaims{}, fmt.Errorf("chain hash mismatch seq=%d", evt.Seq)
		}

		prevChainHash = evt.ChainHash
		lastSeq = evt.Seq
	}

	return claims, nil
}
