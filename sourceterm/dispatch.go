package sourceterm

import (
	"fmt"

	"github.com/cdokit/cdoassembly/geom"
	"github.com/cdokit/cdoassembly/quadrature"
)

// Scheme selects the space discretization the source terms feed.
type Scheme uint8

const (
	// VertexBased: degrees of freedom at primal vertices only. Accepts
	// dual-cell density and vertex-potential terms.
	VertexBased Scheme = iota
	// VertexCellHybrid: degrees of freedom at primal vertices plus one per
	// cell. Accepts vertex+cell potential terms only; density terms under
	// this scheme have no evaluator yet.
	VertexCellHybrid
)

func (s Scheme) String() string {
	switch s {
	case VertexBased:
		return "vertex-based"
	case VertexCellHybrid:
		return "vertex+cell hybrid"
	default:
		return "unknown"
	}
}

// NumDoFs returns the local degree-of-freedom count of one cell under the
// scheme.
func (s Scheme) NumDoFs(cell *geom.Cell) int {
	if s == VertexCellHybrid {
		return cell.NumVerts() + 1
	}
	return cell.NumVerts()
}

// SysFlags carries metadata about the algebraic system derived during
// dispatch resolution.
type SysFlags uint8

const (
	// SysSourceTerm is set when at least one source term is defined.
	SysSourceTerm SysFlags = 1 << iota
	// SysHodge is set when some term needs a cellwise Hodge operator, an
	// explicit sequencing obligation on the caller: the operator must be
	// stored in the Builder before ComputeCellwise runs on a cell.
	SysHodge
)

// CellwiseFunc computes one term's contribution on one cell and adds it to
// the caller's buffer. Implementations never overwrite out.
type CellwiseFunc func(t *Term, cell *geom.Cell, b *Builder, out []float64) error

// Resolve selects a compute handle for every term of the registry under the
// given scheme. The handle is picked from a fixed decision table keyed by
// (scheme, support kind, definition kind, quadrature order); any combination
// without an implemented evaluator fails with ErrUnsupportedConfiguration
// here, before assembly starts, never silently at evaluation time. An
// undefined term slot fails with ErrInvalidConfiguration.
func Resolve(scheme Scheme, r *Registry) ([]CellwiseFunc, SysFlags, error) {
	handles := make([]CellwiseFunc, r.NumTerms())
	var flags SysFlags

	for id := 0; id < r.NumTerms(); id++ {
		t := r.Term(id)
		if t == nil {
			return nil, 0, fmt.Errorf("%w: term %d was never defined",
				ErrInvalidConfiguration, id)
		}
		h, f, err := resolveTerm(scheme, t)
		if err != nil {
			return nil, 0, err
		}
		handles[id] = h
		flags |= f | SysSourceTerm
	}
	return handles, flags, nil
}

func resolveTerm(scheme Scheme, t *Term) (CellwiseFunc, SysFlags, error) {
	unsupported := func(detail string) error {
		return fmt.Errorf("%w: term %q (%s, %s, %s under %s scheme): %s",
			ErrUnsupportedConfiguration,
			t.name, t.support, t.def, t.value, scheme, detail)
	}

	// Only scalar evaluators exist so far; vector and tensor definitions are
	// recorded by the registry but cannot be assembled yet.
	if t.value != Scalar {
		return nil, 0, unsupported("no non-scalar evaluator")
	}

	switch scheme {
	case VertexBased:
		switch t.support {
		case DualCellDensity:
			switch t.def {
			case DefByValue:
				return densityByValue, 0, nil
			case DefByArray:
				return densityByArray, 0, nil
			case DefByAnalytic:
				switch t.quad {
				case quadrature.Bary:
					return densityBaryAnalytic, 0, nil
				case quadrature.BarySubdiv:
					return densitySubdivAnalytic, 0, nil
				case quadrature.Order2:
					return densityOrder2Analytic, 0, nil
				case quadrature.Order3:
					return densityOrder3Analytic, 0, nil
				}
				return nil, 0, unsupported(fmt.Sprintf("unknown quadrature %d", t.quad))
			}

		case VertexPotential:
			switch t.def {
			case DefByValue:
				return potVertexByValue, SysHodge, nil
			case DefByAnalytic:
				return potVertexByAnalytic, SysHodge, nil
			case DefByArray:
				return nil, 0, unsupported("potential terms cannot be defined by array")
			}

		case VertexAndCellPotential:
			return nil, 0, unsupported("cell unknowns need the hybrid scheme")
		}

	case VertexCellHybrid:
		switch t.support {
		case VertexAndCellPotential:
			switch t.def {
			case DefByValue:
				return potVertexCellByValue, SysHodge, nil
			case DefByAnalytic:
				return potVertexCellByAnalytic, SysHodge, nil
			case DefByArray:
				return nil, 0, unsupported("potential terms cannot be defined by array")
			}
		case DualCellDensity, VertexPotential:
			return nil, 0, unsupported("hybrid scheme carries vertex+cell potentials only")
		}

	default:
		return nil, 0, fmt.Errorf("%w: unknown scheme %d", ErrInvalidConfiguration, scheme)
	}

	return nil, 0, unsupported("no evaluator in the decision table")
}
