package proximity

import "time"

// Radio duty cycle and peer bookkeeping tuning. These are fixed rather
// than configurable: the advertise/scan cadence has to match what the
// battery budget on handsets tolerates, and both sides of an encounter
// must age peers at the same rate.
const (
	// PayloadPrefix marks advertisements that belong to this service.
	PayloadPrefix = "E:"

	// ScanWindow and ScanPause define the background duty cycle:
	// scan for the window, rest for the pause, repeat.
	ScanWindow = 10 * time.Second
	ScanPause  = 2 * time.Second

	// PeerStaleAfter is how long a peer stays listed without being
	// re-observed. PruneInterval is how often the table is swept.
	PeerStaleAfter = 30 * time.Second
	PruneInterval  = 5 * time.Second

	// UpsertCoalesce batches rapid observation bursts into a single
	// change notification.
	UpsertCoalesce = 300 * time.Millisecond

	// ConnectTimeout bounds the connect-and-read payload fallback.
	// ReadCooldown is the minimum gap between fallback attempts
	// against the same peer.
	ConnectTimeout = 5 * time.Second
	ReadCooldown   = 30 * time.Second
)
