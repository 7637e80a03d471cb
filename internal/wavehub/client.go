package wavehub

import "echogo/backend/internal/models"

// Client is one live realtime connection for an account. It abstracts the
// transport so the hub can route events without knowing about websockets.
type Client interface {
	// GetUserID returns the account the connection is authenticated as.
	GetUserID() string

	// GetSendChannel returns the channel the hub writes outbound events to.
	GetSendChannel() chan<- models.Event

	// Run starts the connection's read and write pumps.
	Run()

	// Close shuts the connection down and releases its send channel.
	Close()
}
