package symmetry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownLayerGroup is returned when a label has no catalog entry.
	ErrUnknownLayerGroup = errors.New("unknown layer group")

	// ErrInvalidCatalog marks malformed catalog data: non-orthogonal
	// matrices, duplicate names, unknown operation references.
	ErrInvalidCatalog = errors.New("invalid symmetry catalog")

	// ErrUnknownOperation is returned when an operation name cannot be
	// resolved against the operation table.
	ErrUnknownOperation = errors.New("unknown symmetry operation")

	// ErrDegenerateOperation is the advisory kind for operations with
	// (I + R) = 0. It is never returned as a failure.
	ErrDegenerateOperation = errors.New("degenerate symmetry operation")
)

// DegenerateOperationError reports one catalog operation that the
// preservation test can never mark as broken.
type DegenerateOperationError struct {
	LayerGroup string
	Operation  string
}

func (e *DegenerateOperationError) Error() string {
	return fmt.Sprintf("layer group %s: operation %s has I+R = 0 and is always preserved", e.LayerGroup, e.Operation)
}

// Is lets errors.Is match ErrDegenerateOperation.
func (e *DegenerateOperationError) Is(target error) bool {
	return target == ErrDegenerateOperation
}
