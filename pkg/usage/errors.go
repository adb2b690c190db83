package usage

import "errors"

var (
	ErrInvalidAmount = errors.New("usage: increment amount must be positive")
)
