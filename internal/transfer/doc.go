// Package transfer exports a kitchen's journal for hand-off to another
// installation.
//
// An export bundles the full event stream with a manifest whose grant is an
// ed25519-signed JWT binding issuer, audience, kitchen id, and last sequence.
// Import verifies the grant and replays the hash chain before accepting any
// events, so a tampered or truncated export is rejected up front.
package transfer
