package backend

import "errors"

var (
	// ErrBackendUnavailable indicates a call failed after exhausting its
	// retry budget. It wraps the last underlying failure.
	ErrBackendUnavailable = errors.New("backend: service unavailable")

	// ErrBroadcastRejected indicates the backend accepted the call but
	// rejected the transaction (double-spend, fee too low, ...). The
	// backend's rejection reason is carried verbatim. Never retried.
	ErrBroadcastRejected = errors.New("backend: broadcast rejected")

	// ErrConnectionFailed indicates the client could not reach the backend.
	ErrConnectionFailed = errors.New("backend: connection failed")

	// ErrInvalidResponse indicates the backend returned a malformed or
	// unexpected response.
	ErrInvalidResponse = errors.New("backend: invalid response")

	// ErrTokenDataUnavailable indicates the backend kind carries no token
	// index (bare JSON-RPC nodes).
	ErrTokenDataUnavailable = errors.New("backend: token data not available on this backend")

	// ErrUnknownKind indicates an unrecognized interface kind in the config.
	ErrUnknownKind = errors.New("backend: unknown interface kind")

	// ErrMissingURL indicates no endpoint URL could be resolved.
	ErrMissingURL = errors.New("backend: endpoint URL required")
)
