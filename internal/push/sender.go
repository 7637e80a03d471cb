// Package push is the delivery boundary for platform push notifications.
// Delivery is best-effort: failures are logged by callers, never propagated
// into the matching path.
package push

import "context"

// MatchNotification is the payload delivered when a match forms while the
// recipient has no live realtime connection.
type MatchNotification struct {
	MatchID       string
	MatchedUserID string
	ContactHandle string
	CreatedAt     string
}

// Sender delivers a notification to one device token.
type Sender interface {
	SendMatch(ctx context.Context, deviceToken, platform string, n MatchNotification) error
}

// Nop discards every notification. Used when no provider is configured and
// in tests.
type Nop struct{}

func (Nop) SendMatch(ctx context.Context, deviceToken, platform string, n MatchNotification) error {
	return nil
}
