package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashEnvelope is the canonical serialized form used for content hashing.
// Field order is fixed here and nowhere else so the hash contract cannot
// drift between the journal implementations.
type hashEnvelope struct {
	KitchenID      string          `json:"kitchen_id"`
	Seq            uint64          `json:"seq"`
	Type           Type            `json:"type"`
	Timestamp      int64           `json:"timestamp_ms"`
	ActorType      ActorType       `json:"actor_type"`
	ActorID        string          `json:"actor_id"`
	ShiftID        string          `json:"shift_id"`
	RequestID      string          `json:"request_id"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	StationID      string          `json:"station_id"`
	StationVersion string          `json:"station_version"`
	PayloadJSON    json.RawMessage `json:"payload_json"`
}

func canonicalEnvelope(evt Event) ([]byte, error) {
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	encoded, err := json.Marshal(hashEnvelope{
		KitchenID:      evt.KitchenID,
		Seq:            evt.Seq,
		Type:           evt.Type,
		Timestamp:      evt.Timestamp.UTC().UnixMilli(),
		ActorType:      evt.ActorType,
		ActorID:        evt.ActorID,
		ShiftID:        evt.ShiftID,
		RequestID:      evt.RequestID,
		EntityType:     evt.EntityType,
		EntityID:       evt.EntityID,
		StationID:      evt.StationID,
		StationVersion: evt.StationVersion,
		PayloadJSON:    payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal hash envelope: %w", err)
	}
	return encoded, nil
}

// EventHash computes the SHA-256 content hash of an event envelope.
func EventHash(evt Event) (string, error) {
	encoded, err := canonicalEnvelope(evt)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// ChainHash computes the SHA-256 hash linking an event to its predecessor.
// The first event of a journal uses an empty prevHash.
func ChainHash(evt Event, prevHash string) (string, error) {
	hash, err := EventHash(evt)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(prevHash + ":" + hash))
	return hex.EncodeToString(sum[:]), nil
}
