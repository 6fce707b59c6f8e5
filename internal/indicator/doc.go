// Package indicator plays blink patterns on the outlet's status LED.
//
// The LED is the only user-visible readout of device state, so the pattern
// vocabulary is fixed and matches the original appliance firmware: the
// persistent pattern tracks device state (no config / connecting / unpaired /
// normal) and transient signals (identify, reset) interrupt it once before
// it resumes.
//
// The coordinator decides which pattern plays; this package only does the
// timing.
package indicator
