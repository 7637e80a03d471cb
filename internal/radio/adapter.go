// Package radio defines the short-range radio capability the proximity
// engine consumes: broadcast a small payload, scan for others' payloads,
// report signal strength and adapter power state. Platform drivers live
// behind this interface; the package ships a simulated in-memory bus and a
// no-op adapter for platforms without radio support.
package radio

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by adapters on platforms without the
// capability.
var ErrUnsupported = errors.New("radio: not supported on this platform")

// State is the adapter power/authorization state.
type State int

const (
	StateUnknown State = iota
	StateResetting
	StateUnsupported
	StateUnauthorized
	StatePoweredOff
	StatePoweredOn
)

func (s State) String() string {
	switch s {
	case StateResetting:
		return "Resetting"
	case StateUnsupported:
		return "Unsupported"
	case StateUnauthorized:
		return "Unauthorized"
	case StatePoweredOff:
		return "PoweredOff"
	case StatePoweredOn:
		return "PoweredOn"
	default:
		return "Unknown"
	}
}

// Observation is one scan event. Payload may be empty when the platform
// suppresses the advertisement name (background mode); callers then fall
// back to ReadPayload.
type Observation struct {
	// PeerID is the locally stable radio identifier of the peer device.
	PeerID string
	// Payload is the advertised payload, or "" when suppressed.
	Payload string
	// RSSI is the received signal strength in dBm.
	RSSI int
}

// ScanHandler receives observations while a scan is active.
type ScanHandler func(Observation)

// Adapter is the platform radio capability. Implementations must be safe
// for concurrent use.
type Adapter interface {
	// Supported reports whether the platform can advertise and scan at all.
	Supported() bool

	// State returns the current adapter state.
	State() State

	// OnStateChange registers a state listener; the returned cancel
	// removes it.
	OnStateChange(fn func(State)) (cancel func())

	// StartAdvertising begins broadcasting the payload continuously.
	StartAdvertising(payload string) error

	// UpdatePayload swaps the broadcast payload without stopping.
	UpdatePayload(payload string) error

	// StopAdvertising halts the broadcast.
	StopAdvertising() error

	// StartScan begins delivering observations to the handler.
	StartScan(h ScanHandler) error

	// StopScan halts observation delivery.
	StopScan() error

	// ReadPayload connects to the peer and reads its payload directly,
	// the fallback path when advertisements arrive without one.
	ReadPayload(ctx context.Context, peerID string) (string, error)
}
