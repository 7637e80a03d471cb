package proximity

// Zone buckets a signal strength reading into a coarse distance band.
// Coarse on purpose: RSSI is too noisy for anything finer, and the UI
// only needs "how close, roughly".
type Zone string

const (
	ZoneHere   Zone = "here"
	ZoneClose  Zone = "close"
	ZoneNearby Zone = "nearby"
)

const (
	hereThreshold  = -55
	closeThreshold = -75
)

// ZoneForRSSI maps an RSSI reading to its zone.
func ZoneForRSSI(rssi int) Zone {
	switch {
	case rssi >= hereThreshold:
		return ZoneHere
	case rssi >= closeThreshold:
		return ZoneClose
	default:
		return ZoneNearby
	}
}
