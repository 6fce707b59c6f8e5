// Package mqtt provides MQTT client connectivity for outletd.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the remote-pairing transport: paired controllers send attribute
// writes and pairing lifecycle messages to the outlet, and the outlet
// publishes retained state and identity in return.
//
//	Controllers ↔ MQTT Broker ↔ outletd (pairing server)
//
// The accessory topic scheme itself lives in the pairing package; this
// package is transport only.
package mqtt
