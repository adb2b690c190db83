package holder

import "errors"

var (
	ErrInvalidKind = errors.New("holder: invalid holder kind")
	ErrInvalidID   = errors.New("holder: invalid holder id")
)
