package pairing

import "fmt"

// Topics builds the accessory's MQTT topic names.
//
// Every topic is rooted at outlet/{serial} so multiple outlets share a
// broker without collisions. Command topics (pair/add, pair/remove, on/set,
// identify) are consumed by the device; state topics (on/state, accessory,
// status) are retained publications for controllers.
type Topics struct {
	serial string
}

// NewTopics creates the topic set for the given device serial number.
func NewTopics(serial string) Topics {
	return Topics{serial: serial}
}

func (t Topics) root() string {
	return "outlet/" + t.serial
}

// PairAdd is the command topic for adding a controller pairing.
func (t Topics) PairAdd() string {
	return t.root() + "/pair/add"
}

// PairRemove is the command topic for removing a controller pairing.
func (t Topics) PairRemove() string {
	return t.root() + "/pair/remove"
}

// SetOn is the command topic for remote on/off writes.
func (t Topics) SetOn() string {
	return t.root() + "/on/set"
}

// OnState is the retained state topic mirroring the on/off attribute.
func (t Topics) OnState() string {
	return t.root() + "/on/state"
}

// Identify is the command topic that triggers the identify blink.
func (t Topics) Identify() string {
	return t.root() + "/identify"
}

// Accessory is the retained topic carrying the accessory identity record.
func (t Topics) Accessory() string {
	return t.root() + "/accessory"
}

// Status is the retained online/offline topic, also used as the LWT.
func (t Topics) Status() string {
	return t.root() + "/status"
}

// String implements fmt.Stringer for logging.
func (t Topics) String() string {
	return fmt.Sprintf("Topics(%s)", t.root())
}
