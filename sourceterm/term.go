// Package sourceterm assembles volumetric source-term contributions into the
// cellwise right-hand side of CDO discretizations. Terms are defined once in
// a Registry, restricted to cells through a CellMask, resolved into per-term
// compute handles for the active scheme, and evaluated cell by cell.
package sourceterm

import (
	"github.com/cdokit/cdoassembly/geom"
	"github.com/cdokit/cdoassembly/quadrature"
)

// SupportKind states where a term's degrees of freedom live.
type SupportKind uint8

const (
	// VertexPotential: a potential held at primal vertices, combined with a
	// cellwise Hodge operator.
	VertexPotential SupportKind = iota
	// VertexAndCellPotential: a potential held at primal vertices plus the
	// cell center (hybrid vertex+cell schemes).
	VertexAndCellPotential
	// DualCellDensity: a density integrated over the dual cell attached to
	// each vertex.
	DualCellDensity
)

func (s SupportKind) String() string {
	switch s {
	case VertexPotential:
		return "vertex potential"
	case VertexAndCellPotential:
		return "vertex+cell potential"
	case DualCellDensity:
		return "dual-cell density"
	default:
		return "unknown"
	}
}

// ValueKind states the tensorial nature of the term's values.
type ValueKind uint8

const (
	Scalar ValueKind = iota
	Vector
	Tensor
)

func (v ValueKind) String() string {
	switch v {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	case Tensor:
		return "tensor"
	default:
		return "unknown"
	}
}

// components returns the number of scalar components of the value kind, or 0
// if the kind is not recognized.
func (v ValueKind) components() int {
	switch v {
	case Scalar:
		return 1
	case Vector:
		return 3
	case Tensor:
		return 9
	default:
		return 0
	}
}

// DefKind states how a term's field is specified.
type DefKind uint8

const (
	DefByValue DefKind = iota
	DefByAnalytic
	DefByArray
)

func (d DefKind) String() string {
	switch d {
	case DefByValue:
		return "constant value"
	case DefByAnalytic:
		return "analytic function"
	case DefByArray:
		return "external array"
	default:
		return "unknown"
	}
}

// AnalyticFunc evaluates a field at a set of points for the given simulation
// time, writing one value per point into out. Callers guarantee
// len(out) == len(pts). Implementations must be pure and reentrant: the
// parallel assembly pass calls them concurrently.
type AnalyticFunc func(time float64, pts []geom.Point, out []float64)

// Location identifies the mesh entities a subset indexes.
type Location uint8

const (
	LocCells Location = iota
	LocVertices
	LocFaces
)

func (l Location) String() string {
	switch l {
	case LocCells:
		return "cells"
	case LocVertices:
		return "vertices"
	case LocFaces:
		return "faces"
	default:
		return "unknown"
	}
}

// Subset names the part of the mesh a term is defined on. A nil IDs slice
// means every entity at the subset's location. Source terms require
// cell-indexed subsets.
type Subset struct {
	Name string
	Loc  Location
	IDs  []int
}

// AllCells is the full-domain subset.
var AllCells = Subset{Name: "all_cells", Loc: LocCells}

// full reports whether the subset covers the whole domain.
func (s Subset) full() bool { return s.IDs == nil }

// Term describes one source term: where it applies, where its degrees of
// freedom live, and how its field is specified. Terms are created through
// the Registry Define methods and immutable afterwards, except for the
// quadrature order which SetQuadrature may change before dispatch
// resolution.
type Term struct {
	id      int
	name    string
	subset  Subset
	support SupportKind
	value   ValueKind
	def     DefKind
	quad    quadrature.Order

	// Definition payload; exactly one of these is meaningful, selected by
	// def. constVal holds 1, 3 or 9 components depending on the value kind.
	constVal  [9]float64
	analytic  AnalyticFunc
	array     []float64
	ownsArray bool
}

// ID returns the term's id within its registry.
func (t *Term) ID() int { return t.id }

// Name returns the term's name.
func (t *Term) Name() string { return t.name }

// Subset returns the mesh subset the term applies to.
func (t *Term) Subset() Subset { return t.subset }

// Support returns the support kind of the term.
func (t *Term) Support() SupportKind { return t.support }

// ValueKind returns the tensorial kind of the term's values.
func (t *Term) ValueKind() ValueKind { return t.value }

// DefKind returns how the term's field is specified.
func (t *Term) DefKind() DefKind { return t.def }

// Quadrature returns the quadrature order used for analytic definitions.
func (t *Term) Quadrature() quadrature.Order { return t.quad }

// Value returns the constant components of a DefByValue term.
func (t *Term) Value() []float64 {
	n := t.value.components()
	return t.constVal[:n]
}

// Array returns the external array of a DefByArray term, nil after Destroy
// has released an owned array.
func (t *Term) Array() []float64 { return t.array }

// OwnsArray reports whether the registry took ownership of the external
// array.
func (t *Term) OwnsArray() bool { return t.ownsArray }

// FullDomain reports whether the term applies to every cell.
func (t *Term) FullDomain() bool { return t.subset.full() }
