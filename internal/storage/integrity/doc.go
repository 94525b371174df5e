// Package integrity signs and verifies the journal's tamper-evident
// chain. It derives a per-kitchen HMAC keyring from a root secret and
// keeps key handling away from storage and replay code. Hashing itself
// lives next to the event envelope in the event package.
package integrity
