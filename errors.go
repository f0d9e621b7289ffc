package chatfmt

import "errors"

// Sentinel errors for formatter construction.
var (
	ErrInvalidCharRange = errors.New("invalid character range")
	ErrInvalidLabel     = errors.New("invalid label")
)
