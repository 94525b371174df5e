package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/galley/internal/domain/event"
)

const eventColumns = `kitchen_id, seq, event_hash, prev_event_hash, chain_hash,
signature_key_id, event_signature, timestamp, event_type, shift_id, request_id,
actor_type, actor_id, entity_type, entity_id, station_id, station_version, payload_json`

// Append atomically appends an event and returns it with sequence, hash chain,
// and signature set.
func (s *Store) Append(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}

	validated, err := s.events.ValidateForAppend(evt)
	if err != nil {
		return event.Event{}, err
	}
	evt = validated

	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if evt.RequestID != "" {
		stored, found, err := findByRequest(ctx, tx, evt)
		if err != nil {
			return event.Event{}, err
		}
		if found {
			return stored, nil
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO event_seq (kitchen_id, next_seq) VALUES (?, 1)",
		evt.KitchenID,
	); err != nil {
		return event.Event{}, fmt.Errorf("init event seq: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		"SELECT next_seq FROM event_seq WHERE kitchen_id = ?",
		evt.KitchenID,
	).Scan(&seq); err != nil {
		return event.Event{}, fmt.Errorf("get event seq: %w", err)
	}
	if seq <= 0 {
		return event.Event{}, fmt.Errorf("event seq is required")
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE event_seq SET next_seq = next_seq + 1 WHERE kitchen_id = ?",
		evt.KitchenID,
	); err != nil {
		return event.Event{}, fmt.Errorf("increment event seq: %w", err)
	}
	evt.Seq = uint64(seq)

	hash, err := event.EventHash(evt)
	if err != nil {
		return event.Event{}, fmt.Errorf("compute event hash: %w", err)
	}
	if strings.TrimSpace(hash) == "" {
		return event.Event{}, fmt.Errorf("event hash is required")
	}
	evt.Hash = hash

	prevHash := ""
	if evt.Seq > 1 {
		if err := tx.QueryRowContext(ctx,
			"SELECT chain_hash FROM events WHERE kitchen_id = ? AND seq = ?",
			evt.KitchenID, seq-1,
		).Scan(&prevHash); err != nil {
			return event.Event{}, fmt.Errorf("load previous event: %w", err)
		}
	}

	chainHash, err := event.ChainHash(evt, prevHash)
	if err != nil {
		return event.Event{}, fmt.Errorf("compute chain hash: %w", err)
	}
	if strings.TrimSpace(chainHash) == "" {
		return event.Event{}, fmt.Errorf("chain hash is required")
	}

	signature, keyID, err := s.keyring.SignChainHash(evt.KitchenID, chainHash)
	if err != nil {
		return event.Event{}, fmt.Errorf("sign chain hash: %w", err)
	}

	evt.PrevHash = prevHash
	evt.ChainHash = chainHash
	evt.Signature = signature
	evt.SignatureKeyID = keyID

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		evt.KitchenID, int64(evt.Seq), evt.Hash, prevHash, chainHash,
		keyID, signature, toMillis(evt.Timestamp), string(evt.Type), evt.ShiftID, evt.RequestID,
		string(evt.ActorType), evt.ActorID, evt.EntityType, evt.EntityID,
		evt.StationID, evt.StationVersion, string(evt.PayloadJSON),
	); err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit: %w", err)
	}

	return evt, nil
}

// ListEvents returns events for a kitchen with seq greater than afterSeq,
// ordered by seq ascending. A non-positive limit returns all remaining events.
func (s *Store) ListEvents(ctx context.Context, kitchenID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(kitchenID) == "" {
		return nil, fmt.Errorf("kitchen id is required")
	}

	query := "SELECT " + eventColumns + " FROM events WHERE kitchen_id = ? AND seq > ? ORDER BY seq ASC"
	args := []any{kitchenID, int64(afterSeq)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// GetEventBySeq retrieves a single event by its kitchen sequence number.
func (s *Store) GetEventBySeq(ctx context.Context, kitchenID string, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE kitchen_id = ? AND seq = ?",
		kitchenID, int64(seq),
	)
	evt, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, fmt.Errorf("event not found kitchen_id=%s seq=%d", kitchenID, seq)
	}
	return evt, err
}

// LastSeq returns the highest assigned sequence for a kitchen, zero when the
// journal is empty.
func (s *Store) LastSeq(ctx context.Context, kitchenID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var seq sql.NullInt64
	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT MAX(seq) FROM events WHERE kitchen_id = ?",
		kitchenID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get latest seq: %w", err)
	}
	if !seq.Valid || seq.Int64 < 0 {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}

// VerifyEventIntegrity walks every kitchen's journal and checks sequence
// continuity, event hashes, chain hashes, and chain signatures.
func (s *Store) VerifyEventIntegrity(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	kitchenIDs, err := s.listEventKitchenIDs(ctx)
	if err != nil {
		return err
	}
	for _, kitchenID := range kitchenIDs {
		if err := s.verifyKitchenEvents(ctx, kitchenID); err != nil {
			return err
		}
	}
	return nil
}

// ListKitchenIDs returns every kitchen with at least one stored event.
func (s *Store) ListKitchenIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	return s.listEventKitchenIDs(ctx)
}

func (s *Store) listEventKitchenIDs(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT DISTINCT kitchen_id FROM events ORDER BY kitchen_id")
	if err != nil {
		return nil, fmt.Errorf("list kitchen ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan kitchen id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kitchen ids: %w", err)
	}
	return ids, nil
}

func (s *Store) verifyKitchenEvents(ctx context.Context, kitchenID string) error {
	var lastSeq uint64
	prevChainHash := ""
	for {
		events, err := s.ListEvents(ctx, kitchenID, lastSeq, 200)
		if err != nil {
			return fmt.Errorf("list events kitchen_id=%s: %w", kitchenID, err)
		}
		if len(events) == 0 {
			return nil
		}
		for _, evt := range events {
			if evt.Seq != lastSeq+1 {
				return fmt.Errorf("event sequence gap kitchen_id=%s expected=%d got=%d", kitchenID, lastSeq+1, evt.Seq)
			}
			if evt.Seq == 1 && evt.PrevHash != "" {
				return fmt.Errorf("first event prev hash must be empty kitchen_id=%s", kitchenID)
			}
			if evt.Seq > 1 && evt.PrevHash != prevChainHash {
				return fmt.Errorf("prev hash mismatch kitchen_id=%s seq=%d", kitchenID, evt.Seq)
			}

			hash, err := event.EventHash(evt)
			if err != nil {
				return fmt.Errorf("compute event hash kitchen_id=%s seq=%d: %w", kitchenID, evt.Seq, err)
			}
			if hash != evt.Hash {
				return fmt.Errorf("event hash mismatch kitchen_id=%s seq=%d", kitchenID, evt.Seq)
			}

			chainHash, err := event.ChainHash(evt, prevChainHash)
			if err != nil {
				return fmt.Errorf("compute chain hash kitchen_id=%s seq=%d: %w", kitchenID, evt.Seq, err)
			}
			if chainHash != evt.ChainHash {
				return fmt.Errorf("chain hash mismatch kitchen_id=%s seq=%d", kitchenID, evt.Seq)
			}

			if err := s.keyring.VerifyChainHash(kitchenID, chainHash, evt.Signature, evt.SignatureKeyID); err != nil {
				return fmt.Errorf("signature mismatch kitchen_id=%s seq=%d: %w", kitchenID, evt.Seq, err)
			}

			prevChainHash = evt.ChainHash
			lastSeq = evt.Seq
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt       event.Event
		seq       int64
		timestamp int64
		eventType string
		actorType string
		payload   string
	)
	if err := row.Scan(
		&evt.KitchenID, &seq, &evt.Hash, &evt.PrevHash, &evt.ChainHash,
		&evt.SignatureKeyID, &evt.Signature, &timestamp, &eventType, &evt.ShiftID, &evt.RequestID,
		&actorType, &evt.ActorID, &evt.EntityType, &evt.EntityID,
		&evt.StationID, &evt.StationVersion, &payload,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	evt.Seq = uint64(seq)
	evt.Timestamp = fromMillis(timestamp)
	evt.Type = event.Type(eventType)
	evt.ActorType = event.ActorType(actorType)
	evt.PayloadJSON = []byte(payload)
	return evt, nil
}

// findByRequest looks for an already appended event matching a redelivered
// envelope. Sequence and hashes are assigned at append time, so the match
// uses only caller-supplied fields.
func findByRequest(ctx context.Context, tx *sql.Tx, evt event.Event) (event.Event, bool, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE kitchen_id = ? AND request_id = ? AND event_type = ? AND entity_type = ? AND entity_id = ? LIMIT 1",
		evt.KitchenID, evt.RequestID, string(evt.Type), evt.EntityType, evt.EntityID,
	)
	stored, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, false, nil
	}
	if err != nil {
		return event.Event{}, false, fmt.Errorf("find event by request: %w", err)
	}
	return stored, true, nil
}
