// Package config loads and validates outletd configuration.
//
// Configuration comes from a YAML file with hardcoded defaults underneath
// and OUTLETD_* environment variable overrides on top. Validation runs
// after all three layers are merged, so a bad file value can be corrected
// from the environment without editing the file.
//
// Secrets (setup code, MQTT password, telemetry token) should always be
// supplied through the environment rather than the file.
package config
