// Package sqlite provides a SQLite-backed journal, checkpoint, and snapshot
// store for kitchen event streams.
//
// The store keeps a per-kitchen sequence counter, hashes every appended event,
// links it to its predecessor through a chain hash, and signs the chain with
// the configured HMAC keyring so the journal can be verified end to end.
package sqlite
