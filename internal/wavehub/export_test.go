package wavehub

import "time"

// SetPresenceRefreshInterval shortens the presence keepalive for tests
// and returns a restore func.
func SetPresenceRefreshInterval(d time.Duration) func() {
	prev := presenceRefreshInterval
	presenceRefreshInterval = d
	return func() { presenceRefreshInterval = prev }
}
