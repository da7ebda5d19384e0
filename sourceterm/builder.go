package sourceterm

import (
	"github.com/cdokit/cdoassembly/geom"
	"gonum.org/v1/gonum/mat"
)

// Builder carries the per-worker state needed to evaluate terms on one cell:
// the current simulation time, the cellwise Hodge operator, and reusable
// scratch buffers. Builders must not be shared between concurrent workers;
// each worker owns one.
type Builder struct {
	// Time is the current simulation time passed to analytic functions.
	Time float64

	// Hodge is the cellwise discrete Hodge operator. The caller must set it
	// to a matrix sized to the cell's local degree-of-freedom count before
	// evaluating any potential-type term on that cell.
	Hodge mat.Matrix

	vals []float64
	pts  []geom.Point
	ids  []int
}

// NewBuilder creates a builder with scratch space pre-sized for cells of up
// to maxVerts vertices. Buffers grow on demand, so maxVerts is a sizing
// hint, not a limit.
func NewBuilder(maxVerts int) *Builder {
	n := maxVerts + 1
	return &Builder{
		vals: make([]float64, 2*n),
		pts:  make([]geom.Point, n),
		ids:  make([]int, n),
	}
}

func (b *Builder) values(n int) []float64 {
	if cap(b.vals) < n {
		b.vals = make([]float64, n)
	}
	return b.vals[:n]
}

func (b *Builder) points(n int) []geom.Point {
	if cap(b.pts) < n {
		b.pts = make([]geom.Point, n)
	}
	return b.pts[:n]
}

func (b *Builder) ints(n int) []int {
	if cap(b.ids) < n {
		b.ids = make([]int, n)
	}
	return b.ids[:n]
}
