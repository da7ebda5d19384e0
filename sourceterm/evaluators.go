package sourceterm

import (
	"fmt"

	"github.com/cdokit/cdoassembly/geom"
	"github.com/cdokit/cdoassembly/quadrature"
	"gonum.org/v1/gonum/mat"
)

// The density evaluators integrate a field over the dual cell attached to
// each vertex by decomposing the cell into elementary half-tetrahedra: for
// each face f, each of its edges e = (v1, v2) spans the tetrahedron
// (xv1, xv2, xf, xc), split at the edge center into the half-tet
// (xv, xe, xf, xc) belonging to each endpoint's dual cell. Degenerate
// half-tets contribute through their (near-zero) volume weight and need no
// special casing.

// applyHodge multiplies the local evaluation vector by the cellwise Hodge
// operator and adds the product to out.
func applyHodge(b *Builder, cellID, n int, eval, out []float64) error {
	if b.Hodge == nil {
		return fmt.Errorf("%w: cell %d: potential term needs a Hodge operator in the builder",
			ErrInvalidConfiguration, cellID)
	}
	rows, cols := b.Hodge.Dims()
	if rows != n || cols != n {
		return fmt.Errorf("%w: cell %d: Hodge operator is %dx%d, cell has %d local DoFs",
			ErrInvalidConfiguration, cellID, rows, cols, n)
	}

	prod := mat.NewVecDense(n, eval[n:2*n])
	prod.MulVec(b.Hodge, mat.NewVecDense(n, eval[:n]))
	for i := 0; i < n; i++ {
		out[i] += eval[n+i]
	}
	return nil
}

// potVertexByValue: scalar potential at primal vertices, constant value.
// Integration means applying the scheme's discrete mass operator, so the
// constant is evaluated at the vertices and pushed through the Hodge matrix.
func potVertexByValue(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	nv := cell.NumVerts()
	eval := b.values(2 * nv)
	for v := 0; v < nv; v++ {
		eval[v] = t.constVal[0]
	}
	return applyHodge(b, cell.ID, nv, eval, out)
}

// potVertexByAnalytic: scalar potential at primal vertices, analytic field
// evaluated at the vertex coordinates.
func potVertexByAnalytic(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	nv := cell.NumVerts()
	eval := b.values(2 * nv)
	t.analytic(b.Time, cell.Verts, eval[:nv])
	return applyHodge(b, cell.ID, nv, eval, out)
}

// potVertexCellByValue: hybrid support, constant value at the vertices and
// the cell center.
func potVertexCellByValue(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	n := cell.NumVerts() + 1
	eval := b.values(2 * n)
	for i := 0; i < n; i++ {
		eval[i] = t.constVal[0]
	}
	return applyHodge(b, cell.ID, n, eval, out)
}

// potVertexCellByAnalytic: hybrid support, analytic field evaluated at the
// vertices and the cell center.
func potVertexCellByAnalytic(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	n := cell.NumVerts() + 1
	pts := b.points(n)
	copy(pts, cell.Verts)
	pts[n-1] = cell.Center

	eval := b.values(2 * n)
	t.analytic(b.Time, pts, eval[:n])
	return applyHodge(b, cell.ID, n, eval, out)
}

// densityByValue: constant density over each dual cell. The contribution at
// vertex v is value * dual volume, exact by construction.
func densityByValue(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	val := t.constVal[0]
	for v := 0; v < cell.NumVerts(); v++ {
		out[v] += val * cell.DualWeight[v] * cell.Volume
	}
	return nil
}

// densityByArray: density taken from an external per-cell array, otherwise
// identical to densityByValue.
func densityByArray(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	if cell.ID < 0 || cell.ID >= len(t.array) {
		return fmt.Errorf("%w: term %q array has %d entries, cell id is %d",
			ErrInvalidConfiguration, t.name, len(t.array), cell.ID)
	}
	val := t.array[cell.ID]
	for v := 0; v < cell.NumVerts(); v++ {
		out[v] += val * cell.DualWeight[v] * cell.Volume
	}
	return nil
}

// densityBaryAnalytic: one field evaluation per vertex, at the barycenter of
// the vertex's aggregated dual cell, weighted by the dual volume. Exact for
// affine fields.
func densityBaryAnalytic(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	nv := cell.NumVerts()
	xc := cell.Center

	// Accumulate the volume-weighted barycenter of each dual cell from the
	// half-tet decomposition. The barycenter of the half-tet (xv, xe, xf,
	// xc) expands to 0.25*(xf+xc) + 0.375*xv + 0.125*xother since
	// xe = 0.5*(xv + xother).
	xg := b.points(nv)
	for v := range xg {
		xg[v] = geom.Point{}
	}
	for f := range cell.FaceEdges {
		xf := cell.FaceCenters[f]
		var xfc geom.Point
		for k := 0; k < 3; k++ {
			xfc[k] = 0.25 * (xf[k] + xc[k])
		}
		for _, e := range cell.FaceEdges[f] {
			v1, v2 := cell.EdgeVerts[e][0], cell.EdgeVerts[e][1]
			xv1, xv2 := cell.Verts[v1], cell.Verts[v2]
			half := 0.5 * geom.TetVolume(xv1, xv2, xf, xc)
			for k := 0; k < 3; k++ {
				xg[v1][k] += half * (xfc[k] + 0.375*xv1[k] + 0.125*xv2[k])
				xg[v2][k] += half * (xfc[k] + 0.375*xv2[k] + 0.125*xv1[k])
			}
		}
	}

	// Normalize by the dual volumes. A vanishing dual volume would turn the
	// division into NaN, so it is reported instead of propagated.
	for v := 0; v < nv; v++ {
		dual := cell.Volume * cell.DualWeight[v]
		if dual <= 0 {
			return fmt.Errorf("%w: term %q cell %d: dual volume of vertex %d is %g",
				ErrNumericalDegeneracy, t.name, cell.ID, v, dual)
		}
		xg[v] = xg[v].Scale(1.0 / dual)
	}

	res := b.values(nv)
	t.analytic(b.Time, xg, res)
	for v := 0; v < nv; v++ {
		out[v] += cell.Volume * cell.DualWeight[v] * res[v]
	}
	return nil
}

// densityQuadAnalytic integrates the field over every half-tet with the
// given per-tet point expansion, batching all evaluation points into a
// single analytic call. owner[i] is the vertex whose dual cell receives the
// weighted value of point i.
func densityQuadAnalytic(t *Term, cell *geom.Cell, b *Builder, out []float64,
	ptsPerTet int,
	expand func(xv, xe, xf, xc geom.Point, vol float64, pts []geom.Point, w []float64)) error {

	// Two half-tets per (face, edge) incidence.
	nHalf := 0
	for f := range cell.FaceEdges {
		nHalf += 2 * len(cell.FaceEdges[f])
	}
	nPts := nHalf * ptsPerTet

	pts := b.points(nPts)
	scratch := b.values(2 * nPts)
	weights, res := scratch[:nPts], scratch[nPts:]
	owner := b.ints(nPts)

	i := 0
	xc := cell.Center
	for f := range cell.FaceEdges {
		xf := cell.FaceCenters[f]
		for _, e := range cell.FaceEdges[f] {
			xe := cell.EdgeCenters[e]
			v1, v2 := cell.EdgeVerts[e][0], cell.EdgeVerts[e][1]
			half := 0.5 * geom.TetVolume(cell.Verts[v1], cell.Verts[v2], xf, xc)

			for _, v := range cell.EdgeVerts[e] {
				expand(cell.Verts[v], xe, xf, xc, half, pts[i:i+ptsPerTet], weights[i:i+ptsPerTet])
				for j := i; j < i+ptsPerTet; j++ {
					owner[j] = v
				}
				i += ptsPerTet
			}
		}
	}

	t.analytic(b.Time, pts, res)
	for j := 0; j < nPts; j++ {
		out[owner[j]] += weights[j] * res[j]
	}
	return nil
}

// densitySubdivAnalytic: one field evaluation per half-tet, at its
// barycenter, weighted by its own volume. First-order exact like the
// barycentric rule, with a finer sampling of the cell.
func densitySubdivAnalytic(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	return densityQuadAnalytic(t, cell, b, out, 1,
		func(xv, xe, xf, xc geom.Point, vol float64, pts []geom.Point, w []float64) {
			pts[0] = quadrature.TetBarycenter(xv, xe, xf, xc)
			w[0] = vol
		})
}

// densityOrder2Analytic: ten-point rule per half-tet, exact for quadratic
// fields.
func densityOrder2Analytic(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	return densityQuadAnalytic(t, cell, b, out, 10,
		func(xv, xe, xf, xc geom.Point, vol float64, pts []geom.Point, w []float64) {
			quadrature.Tet10Pts(xv, xe, xf, xc, vol,
				(*[10]geom.Point)(pts), (*[10]float64)(w))
		})
}

// densityOrder3Analytic: five-point rule per half-tet, exact for cubic
// fields. Many field evaluations per cell; reserve it for accuracy-critical
// terms.
func densityOrder3Analytic(t *Term, cell *geom.Cell, b *Builder, out []float64) error {
	return densityQuadAnalytic(t, cell, b, out, 5,
		func(xv, xe, xf, xc geom.Point, vol float64, pts []geom.Point, w []float64) {
			quadrature.Tet5Pts(xv, xe, xf, xc, vol,
				(*[5]geom.Point)(pts), (*[5]float64)(w))
		})
}
