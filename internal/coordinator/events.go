package coordinator

import (
	"github.com/pwallis/outletd/internal/gpio"
	"github.com/pwallis/outletd/internal/provisioning"
)

// Event is a device event consumed by the coordinator's dispatch loop.
// All event sources (button, network monitor, pairing server) funnel into
// one channel, so handlers never race each other.
type Event interface {
	isEvent()
}

// ButtonEvent carries a classified button gesture.
type ButtonEvent struct {
	Gesture gpio.Gesture
}

func (ButtonEvent) isEvent() {}

// ProvisioningEvent carries a network status change.
type ProvisioningEvent struct {
	Status provisioning.Status
}

func (ProvisioningEvent) isEvent() {}

// PairingChange describes how the pairing set changed.
type PairingChange int

const (
	// PairingAdded means a controller paired; the device is now paired.
	PairingAdded PairingChange = iota

	// LastPairingRemoved means the final controller unpaired; the device
	// is back in the unpaired state.
	LastPairingRemoved
)

// PairingEvent carries a pairing set change. Removals that leave other
// pairings in place never reach the coordinator; only the transition
// between paired and unpaired matters to device state.
type PairingEvent struct {
	Change PairingChange
}

func (PairingEvent) isEvent() {}

// AttributeWriteEvent carries a remote on/off write from a controller.
type AttributeWriteEvent struct {
	On bool
}

func (AttributeWriteEvent) isEvent() {}

// IdentifyEvent asks the device to identify itself on the LED.
type IdentifyEvent struct{}

func (IdentifyEvent) isEvent() {}
