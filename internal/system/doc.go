// Package system wraps host-level operations the daemon needs, currently
// just restarting the device after a factory reset.
package system
