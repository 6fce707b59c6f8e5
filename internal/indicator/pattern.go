package indicator

// Pattern is an immutable looping LED blink pattern.
//
// Intervals are signed milliseconds: positive values light the LED for that
// long, negative values keep it dark. The player loops the sequence until
// another pattern replaces it.
type Pattern struct {
	Name      string
	Intervals []int
}

// Named blink patterns. Timings match the original appliance firmware so
// users familiar with the device read the LED the same way.
var (
	// Normal: one short blink every 3 seconds (paired, connected).
	Normal = Pattern{Name: "normal", Intervals: []int{100, -2900}}

	// ConnectingToWifi: two short blinks every 3 seconds.
	ConnectingToWifi = Pattern{Name: "connecting_to_wifi", Intervals: []int{100, -100, 100, -2700}}

	// NoWifiConfig: long blink, long wait.
	NoWifiConfig = Pattern{Name: "no_wifi_config", Intervals: []int{2000, -2000}}

	// Unpaired: short blink, long blink, long wait.
	Unpaired = Pattern{Name: "unpaired", Intervals: []int{100, -100, 800, -1000}}

	// Reset: three short blinks (transient signal).
	Reset = Pattern{Name: "reset", Intervals: []int{100, -100, 100, -100, 100, -4500}}

	// Identify: three series of two short blinks (transient signal).
	Identify = Pattern{Name: "identify", Intervals: []int{100, -100, 100, -350, 100, -100, 100, -350, 100, -100, 100, -2500}}
)

// IsZero reports whether the pattern is the unset zero value.
func (p Pattern) IsZero() bool {
	return p.Name == "" && len(p.Intervals) == 0
}
