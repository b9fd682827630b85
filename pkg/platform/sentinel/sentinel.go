package sentinel

import "errors"

// Infrastructure facts returned by stores and resolvers, optionally wrapped.
// Services translate them into pkg/domain-errors codes.
//
//   - ErrNotFound: no record for the key (endpoint, transaction id, device, DID)
//   - ErrInvalidState: record exists but cannot take the requested transition
//   - ErrAlreadyUsed: one-shot transition already applied (a second wallet response)
//   - ErrNotInitialized: the storage record has not been created yet
//   - ErrUnavailable: backing service could not be reached
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("invalid state")
	ErrAlreadyUsed    = errors.New("already used")
	ErrNotInitialized = errors.New("not initialized")
	ErrUnavailable    = errors.New("unavailable")
)
