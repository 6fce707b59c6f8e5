// Package coordinator owns the outlet's device state and reacts to every
// input the device has.
//
// # Architecture
//
// All inputs converge on one event channel:
//
//	button gestures  ─┐
//	network monitor  ─┤
//	pairing changes  ─┼──> events ──> Run (single goroutine) ──> relay, LED,
//	remote writes    ─┤                                          attribute,
//	identify         ─┘                                          reset
//
// Run is the only goroutine that mutates coordinator state. This makes the
// awkward invariants cheap: the network-dependent initialization happens
// exactly once because the initialized flag has a single writer, and state
// recomputation can never interleave with a pairing change.
//
// Device state is derived, never stored: unconfigured network means awaiting
// provisioning, unverified connectivity means connecting, and a confirmed
// network is either awaiting pairing or paired depending on whether any
// controller is registered. Each state owns a persistent LED pattern.
//
// The factory reset sequence (long press) runs on its own goroutine because
// it sleeps between steps; it interacts with the rest of the coordinator
// only through the resetting latch, which ignores repeat requests until the
// restart that ends the sequence.
package coordinator
