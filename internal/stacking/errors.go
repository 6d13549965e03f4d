package stacking

import "errors"

// ErrInvalidGridSize is returned when the grid resolution is outside the
// configured bounds.
var ErrInvalidGridSize = errors.New("invalid grid size")

// ErrUnknownDirection is returned by ParseDirection.
var ErrUnknownDirection = errors.New("unknown polar direction")
