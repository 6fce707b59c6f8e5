// Package gpio drives the outlet's physical pins: the relay output, the
// status LED line and the push-button input.
//
// The real implementation uses the Linux GPIO character device via
// go-gpiocdev. Everything above the Line interface is hardware-independent
// so the coordinator and indicator can be tested against fakes.
//
// The button classifier mirrors the gesture semantics of the original
// appliance firmware: debounced edges, click counting with a grouping
// window (single/double press), and a held long press.
package gpio
