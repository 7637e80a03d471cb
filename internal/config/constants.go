package config

import "time"

const (
	// Ephemeral token lifecycle
	TokenTTL            = 15 * time.Minute
	TokenRefreshBuffer  = 3 * time.Minute
	TokenBytes          = 8
	TokenEncodedLen     = 16
	TokenRetryBaseDelay = 30 * time.Second
	TokenRetryMaxDelay  = 5 * time.Minute

	// Waves
	WaveLifetime           = 15 * time.Minute
	WaveRateLimitWindow    = time.Minute
	WaveRateLimitMax       = 10
	ConsumedWaveRetention  = 24 * time.Hour
	UnconsumedWaveExpiry   = time.Hour
	ExpiredTokenSweepGrace = time.Hour

	// Presence. The TTL outlives two refresh cycles so one missed beat
	// never flaps an account offline.
	PresenceTTL             = 90 * time.Second
	PresenceRefreshInterval = 30 * time.Second
)
