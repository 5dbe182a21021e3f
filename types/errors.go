package types

import "errors"

var (
	// ErrInvalidHashLength is returned when decoding a hash of the wrong size.
	ErrInvalidHashLength = errors.New("invalid hash length")
	// ErrNilHeader is returned when a block has no header.
	ErrNilHeader = errors.New("block header is nil")
	// ErrNilBody is returned when a block has no body.
	ErrNilBody = errors.New("block body is nil")
	// ErrEmptyParams is returned when unpacking parameters from an empty payload.
	ErrEmptyParams = errors.New("transaction params are empty")

	// ErrClientShutDown is returned by a cross-chain client that has been shut down.
	// It is a signal, not a failure: callers that cannot consult the client must
	// not block on it.
	ErrClientShutDown = errors.New("cross chain client is shut down")
)
