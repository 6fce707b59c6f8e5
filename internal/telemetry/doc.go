// Package telemetry records device state history to InfluxDB.
//
// Everything here is best effort: points are batched and written
// asynchronously, and failures are logged rather than surfaced, so telemetry
// can never interfere with controlling the relay.
package telemetry
