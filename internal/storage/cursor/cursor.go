// Package cursor provides opaque pagination token encoding/decoding for
// journal reads.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Cursor represents the internal state of a pagination token. Tokens are
// scoped to one kitchen so a token minted against one journal cannot be
// replayed against another.
type Cursor struct {
	// Seq is the last sequence number the client has seen; the next page
	// starts after it.
	Seq uint64 `json:"seq"`
	// KitchenHash invalidates tokens when the kitchen changes.
	KitchenHash string `json:"kitchen_hash,omitempty"`
}

// New creates a cursor that resumes after seq for the given kitchen.
func New(seq uint64, kitchenID string) Cursor {
	return Cursor{Seq: seq, KitchenHash: hashKitchen(kitchenID)}
}

// Encode encodes a cursor to an opaque base64 string.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode decodes an opaque base64 string to a cursor.
// Returns an error if the token is invalid or malformed.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("empty token")
	}

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode base64: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("unmarshal cursor: %w", err)
	}
	return c, nil
}

// Validate checks that the cursor was minted for the given kitchen.
func Validate(c Cursor, kitchenID string) error {
	if c.KitchenHash != hashKitchen(kitchenID) {
		return fmt.Errorf("cursor does not match kitchen")
	}
	return nil
}

// hashKitchen computes a short hash of the kitchen id for token validation.
func hashKitchen(kitchenID string) string {
	if kitchenID == "" {
		return ""
	}
	h := sha256.Sum256([]byte(kitchenID))
	// A 64-bit hash is sufficient for validation.
	return hex.EncodeToString(h[:8])
}
