package pairing

import (
	"fmt"
	"net"
	"strings"
)

// Identity is the accessory record published (retained) on the accessory
// topic so controllers can display the device before and after pairing.
type Identity struct {
	Name             string `json:"name"`
	SerialNumber     string `json:"serial_number"`
	Model            string `json:"model"`
	Manufacturer     string `json:"manufacturer"`
	FirmwareRevision string `json:"firmware_revision"`
	Paired           bool   `json:"paired"`
}

// AccessoryName derives the advertised accessory name by appending the last
// three bytes of the device's MAC address, so identical outlets on one
// network remain distinguishable (e.g. "Outlet-A1B2C3").
//
// If no hardware address can be found the base name is returned unchanged.
func AccessoryName(base string) string {
	suffix := macSuffix()
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}

// macSuffix returns the last three MAC bytes of the first usable interface
// as uppercase hex, or "" if none exists.
func macSuffix() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) < 3 {
			continue
		}
		hw := iface.HardwareAddr
		return strings.ToUpper(fmt.Sprintf("%02x%02x%02x", hw[len(hw)-3], hw[len(hw)-2], hw[len(hw)-1]))
	}
	return ""
}
