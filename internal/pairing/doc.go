// Package pairing manages the outlet's paired controllers and their MQTT
// transport.
//
// # Architecture
//
// The Registry persists pairings in SQLite; the device is "paired" while at
// least one controller row exists, and removing the last one returns it to
// the unpaired state. The Server subscribes to the command topics under
// outlet/{serial}, verifies pair/add requests against the setup code, and
// raises callbacks toward the coordinator for anything that changes device
// behaviour. State flows the other way as retained publications (accessory
// identity, on/off state, online status) so a controller connecting later
// still sees current values.
//
// The server never touches the relay or LED itself; it only translates
// between broker traffic and coordinator events.
package pairing
