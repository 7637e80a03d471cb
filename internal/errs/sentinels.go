// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrNotReady indicates a precondition is unmet (permission or token missing);
	// the caller resolves the precondition and retries.
	ErrNotReady = errors.New("not ready")

	// ErrNotFound indicates the requested entity does not exist or the caller
	// is not a participant.
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken indicates a malformed, unknown, or expired ephemeral token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthenticated indicates missing or expired session credentials.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUndoExpired indicates no open wave exists to undo (consumed, expired,
	// or never sent).
	ErrUndoExpired = errors.New("undo expired")

	// ErrTxConflict indicates a serialization conflict between concurrent
	// matching transactions; the request is safe to retry as-is.
	ErrTxConflict = errors.New("transaction conflict")

	// ErrRadio indicates a recoverable radio scan/advertise failure.
	ErrRadio = errors.New("radio error")
)
