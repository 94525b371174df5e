// Package event defines the canonical event envelope and event-type registry
// used by the kitchen write path.
//
// Events are immutable facts emitted by accepted decisions. The registry
// enforces ownership boundaries (core vs station), actor metadata, and
// payload validity before persistence assigns sequence and integrity fields.
//
// A stable event contract is the foundation for replay and for every fold
// function that depends on the same semantic names.
package event
