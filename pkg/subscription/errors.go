package subscription

import "errors"

var (
	ErrNotFound        = errors.New("subscription: subscription not found")
	ErrAlreadyExists   = errors.New("subscription: holder already has an active subscription")
	ErrVersionConflict = errors.New("subscription: concurrent update detected")
	ErrNotActive       = errors.New("subscription: subscription is not active")

	ErrDowngradeNotPossible = errors.New("subscription: current usage exceeds target plan caps")
)
