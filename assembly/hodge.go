package assembly

import (
	"fmt"

	"github.com/cdokit/cdoassembly/geom"
	"github.com/cdokit/cdoassembly/sourceterm"
	"gonum.org/v1/gonum/mat"
)

// LumpedHodge is a diagonal (mass-lumped) Hodge operator. Under the
// vertex-based scheme each vertex carries its dual volume, so constants are
// integrated exactly. Under the hybrid scheme the cell volume is shared 3:1
// between the vertex block and the cell unknown, the usual lumping for
// vertex+cell potentials. Consistent (non-diagonal) Hodge operators come
// from the discretization layer, outside this module; the lumped operator is
// enough for testing and for schemes that lump their mass anyway.
type LumpedHodge struct{}

// CellHodge returns the diagonal operator for one cell.
func (LumpedHodge) CellHodge(cell *geom.Cell, scheme sourceterm.Scheme) (mat.Matrix, error) {
	nv := cell.NumVerts()

	switch scheme {
	case sourceterm.VertexBased:
		d := mat.NewDiagDense(nv, nil)
		for v := 0; v < nv; v++ {
			d.SetDiag(v, cell.DualWeight[v]*cell.Volume)
		}
		return d, nil

	case sourceterm.VertexCellHybrid:
		d := mat.NewDiagDense(nv+1, nil)
		for v := 0; v < nv; v++ {
			d.SetDiag(v, 0.75*cell.DualWeight[v]*cell.Volume)
		}
		d.SetDiag(nv, 0.25*cell.Volume)
		return d, nil

	default:
		return nil, fmt.Errorf("%w: no lumped Hodge for scheme %d",
			sourceterm.ErrUnsupportedConfiguration, scheme)
	}
}
