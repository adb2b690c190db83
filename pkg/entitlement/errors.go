package entitlement

import "errors"

var (
	// ErrHolderNotFound marks a structurally invalid holder reference.
	// "No subscription" is not this error; that is a handled state.
	ErrHolderNotFound = errors.New("entitlement: holder reference is invalid")

	// ErrInvalidFeatureKind is returned when TryConsume targets a toggle or
	// metered grant. Consuming only makes sense for quotas.
	ErrInvalidFeatureKind = errors.New("entitlement: feature is not a quota")

	// ErrFeatureNotGranted is returned when the resolved plan carries no
	// grant for the requested feature key.
	ErrFeatureNotGranted = errors.New("entitlement: feature not granted by plan")
)
