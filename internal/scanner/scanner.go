package scanner

import (
	"context"
	"errors"
)

// Common errors returned by scanners
var (
	// ErrAlreadyScanning means Start was called while a scan session was
	// active. At most one session may hold the device at a time.
	ErrAlreadyScanning = errors.New("a scan session is already active")

	// ErrNotScanning means a decode or stop was attempted with no
	// active session.
	ErrNotScanning = errors.New("no scan session is active")
)

// Callbacks receives the outcome of a scan session. Exactly one of
// OnDecode or OnError fires per session, after which the session's
// device handle has been released.
type Callbacks struct {
	OnDecode func(code string)
	OnError  func(err error)
}

// Scanner models the barcode capture capability. One Start acquires the
// underlying device for a single decode; the device is released on
// decode, on Stop, and on startup failure, never leaking a handle.
type Scanner interface {
	// Start begins a scan session. It returns without blocking; the
	// result arrives through cb. Cancelling ctx ends the session.
	Start(ctx context.Context, cb Callbacks) error

	// Stop cancels the active session, releasing the device. Stopping
	// an idle scanner is a no-op.
	Stop() error
}
