package sourceterm

import "errors"

var (
	// ErrInvalidConfiguration reports a malformed term definition: bad id,
	// wrong subset location, unknown value kind. Detected at definition or
	// mask-build time; the registry must be corrected and rebuilt.
	ErrInvalidConfiguration = errors.New("invalid source term configuration")

	// ErrUnsupportedConfiguration reports a (scheme, support, definition,
	// quadrature) combination with no implemented evaluator. Detected at
	// dispatch-resolution time, before any assembly runs.
	ErrUnsupportedConfiguration = errors.New("unsupported source term configuration")

	// ErrNumericalDegeneracy reports a zero geometric divisor, such as a
	// vanishing dual-cell volume, found while evaluating one cell.
	ErrNumericalDegeneracy = errors.New("numerical degeneracy")
)
