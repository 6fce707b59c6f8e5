// Package attribute persists the outlet's on/off state.
//
// The single "on" attribute survives restarts in SQLite and is restored at
// startup so the relay comes back in its last state. Subscribers receive
// change notifications from Set but not from SetSilent; the coordinator uses
// the silent path for remote writes so the remote side never sees its own
// write echoed back.
package attribute
