package sourceterm

import (
	"math"
	"testing"

	"github.com/cdokit/cdoassembly/geom"
	"github.com/cdokit/cdoassembly/quadrature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func unitCube(t *testing.T) *geom.Cell {
	t.Helper()
	cell, err := geom.NewHexCell([8]geom.Point{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	})
	require.NoError(t, err)
	return cell
}

/// shearedHex is an affine image of the unit cube: planar faces and
// non-trivial dual volumes.
func shearedHex(t *testing.T) *geom.Cell {
	t.Helper()
	raw := [8]geom.Point{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	var verts [8]geom.Point
	for i, p := range raw {
		verts[i] = geom.Point{
			2*p[0] + 0.3*p[1] - 0.1*p[2],
			1.5*p[1] + 0.25*p[2],
			p[0]*0.2 + p[2],
		}
	}
	cell, err := geom.NewHexCell(verts)
	require.NoError(t, err)
	return cell
}

var allOrders = []quadrature.Order{
	quadrature.Bary, quadrature.BarySubdiv, quadrature.Order2, quadrature.Order3,
}

// densityContrib resolves and runs a single analytic density term on one
// cell.
func densityContrib(t *testing.T, cell *geom.Cell, f AnalyticFunc, q quadrature.Order) []float64 {
	t.Helper()
	reg, err := NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, reg.DefineByAnalytic(0, "f", Scalar, AllCells, DualCellDensity, f))
	require.NoError(t, reg.SetQuadrature(0, q))

	handles, _, err := Resolve(VertexBased, reg)
	require.NoError(t, err)

	out := make([]float64, cell.NumVerts())
	require.NoError(t, handles[0](reg.Term(0), cell, NewBuilder(cell.NumVerts()), out))
	return out
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func TestDensityConstantExactness(t *testing.T) {
	const c = 3.7
	f := func(time float64, pts []geom.Point, out []float64) {
		for i := range pts {
			out[i] = c
		}
	}

	for _, cell := range []*geom.Cell{unitCube(t), shearedHex(t)} {
		want := c * cell.Volume
		for _, q := range allOrders {
			got := sum(densityContrib(t, cell, f, q))
			assert.InDeltaf(t, want, got, 1e-10*math.Abs(want),
				"order %v on cell volume %g", q, cell.Volume)
		}

		// Definition by value must match as well.
		reg, err := NewRegistry(1)
		require.NoError(t, err)
		require.NoError(t, reg.DefineByValue(0, "c", Scalar, AllCells, DualCellDensity,
			[]float64{c}))
		handles, _, err := Resolve(VertexBased, reg)
		require.NoError(t, err)
		out := make([]float64, cell.NumVerts())
		require.NoError(t, handles[0](reg.Term(0), cell, NewBuilder(8), out))
		assert.InDelta(t, want, sum(out), 1e-10*math.Abs(want))
	}
}

func TestDensityAffineExactness(t *testing.T) {
	f := func(time float64, pts []geom.Point, out []float64) {
		for i, p := range pts {
			out[i] = 2*p[0] - p[1] + 0.5*p[2] + 3
		}
	}
	fAt := func(p geom.Point) float64 { return 2*p[0] - p[1] + 0.5*p[2] + 3 }

	cell := shearedHex(t)
	// For an affine field integrated over an affine image of the cube, the
	// exact integral is volume times the value at the centroid, which is
	// the vertex average.
	want := cell.Volume * fAt(cell.Center)

	results := make([][]float64, len(allOrders))
	for i, q := range allOrders {
		results[i] = densityContrib(t, cell, f, q)
		assert.InDeltaf(t, want, sum(results[i]), 1e-10*math.Abs(want), "order %v", q)
	}

	// All four rules are at least degree-1 exact on each dual cell, so the
	// per-vertex contributions agree too.
	for i := 1; i < len(results); i++ {
		for v := range results[0] {
			assert.InDeltaf(t, results[0][v], results[i][v], 1e-10,
				"order %v vertex %d", allOrders[i], v)
		}
	}
}

func TestDensityQuadraticDiscrimination(t *testing.T) {
	f := func(time float64, pts []geom.Point, out []float64) {
		for i, p := range pts {
			out[i] = p[0] * p[0]
		}
	}

	cell := unitCube(t)
	exact := 1.0 / 3.0 // integral of x^2 over the unit cube

	bary := sum(densityContrib(t, cell, f, quadrature.Bary))
	subdiv := sum(densityContrib(t, cell, f, quadrature.BarySubdiv))
	o2 := sum(densityContrib(t, cell, f, quadrature.Order2))
	o3 := sum(densityContrib(t, cell, f, quadrature.Order3))

	// First-order rules miss quadratics measurably.
	assert.Greater(t, math.Abs(bary-exact), 1e-3)
	assert.Greater(t, math.Abs(subdiv-exact), 1e-4)

	// Second- and third-order rules hit them.
	assert.InDelta(t, exact, o2, 1e-12)
	assert.InDelta(t, exact, o3, 1e-12)
	assert.InDelta(t, o2, o3, 1e-12)
}

func TestDensityCubicExactnessOrder3(t *testing.T) {
	f := func(time float64, pts []geom.Point, out []float64) {
		for i, p := range pts {
			out[i] = p[0] * p[0] * p[0]
		}
	}

	cell := unitCube(t)
	exact := 1.0 / 4.0 // integral of x^3 over the unit cube
	o3 := sum(densityContrib(t, cell, f, quadrature.Order3))
	assert.InDelta(t, exact, o3, 1e-12)
}

func TestDensityEvaluatorsAccumulate(t *testing.T) {
	cell := unitCube(t)
	reg, err := NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, reg.DefineByValue(0, "c", Scalar, AllCells, DualCellDensity,
		[]float64{1}))
	handles, _, err := Resolve(VertexBased, reg)
	require.NoError(t, err)

	out := make([]float64, 8)
	for i := range out {
		out[i] = 10
	}
	require.NoError(t, handles[0](reg.Term(0), cell, NewBuilder(8), out))
	for v := range out {
		assert.InDelta(t, 10+0.125, out[v], 1e-13, "contributions add, never overwrite")
	}
}

func TestDensityByArray(t *testing.T) {
	cell := unitCube(t)
	cell.ID = 2
	arr := []float64{0, 0, 4.0, 0}

	reg, err := NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, reg.DefineByArray(0, "arr", Scalar, AllCells, DualCellDensity,
		arr, false))
	handles, _, err := Resolve(VertexBased, reg)
	require.NoError(t, err)

	out := make([]float64, 8)
	require.NoError(t, handles[0](reg.Term(0), cell, NewBuilder(8), out))
	assert.InDelta(t, 4.0, sum(out), 1e-12)

	// Cell id beyond the array is a configuration error, not a panic.
	cell.ID = 17
	err = handles[0](reg.Term(0), cell, NewBuilder(8), out)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestBaryDegenerateDualVolume(t *testing.T) {
	cell := unitCube(t)
	cell.DualWeight[3] = 0 // simulate broken geometry

	f := func(time float64, pts []geom.Point, out []float64) {
		for i := range pts {
			out[i] = 1
		}
	}
	reg, err := NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, reg.DefineByAnalytic(0, "f", Scalar, AllCells, DualCellDensity, f))
	handles, _, err := Resolve(VertexBased, reg)
	require.NoError(t, err)

	out := make([]float64, 8)
	err = handles[0](reg.Term(0), cell, NewBuilder(8), out)
	assert.ErrorIs(t, err, ErrNumericalDegeneracy)
}

func TestAnalyticTimeDependence(t *testing.T) {
	cell := unitCube(t)
	f := func(time float64, pts []geom.Point, out []float64) {
		for i := range pts {
			out[i] = time
		}
	}
	reg, err := NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, reg.DefineByAnalytic(0, "f", Scalar, AllCells, DualCellDensity, f))
	handles, _, err := Resolve(VertexBased, reg)
	require.NoError(t, err)

	b := NewBuilder(8)
	b.Time = 2.5
	out := make([]float64, 8)
	require.NoError(t, handles[0](reg.Term(0), cell, b, out))
	assert.InDelta(t, 2.5*cell.Volume, sum(out), 1e-12)
}

// lumpedDiag builds the diagonal dual-volume mass operator for one cell.
func lumpedDiag(cell *geom.Cell, n int) *mat.DiagDense {
	d := mat.NewDiagDense(n, nil)
	for v := 0; v < cell.NumVerts(); v++ {
		d.SetDiag(v, cell.DualWeight[v]*cell.Volume)
	}
	return d
}

func TestPotentialByValueWithHodge(t *testing.T) {
	cell := unitCube(t)
	const c = 2.0

	reg, err := NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, reg.DefineByValue(0, "p", Scalar, AllCells, VertexPotential,
		[]float64{c}))
	handles, flags, err := Resolve(VertexBased, reg)
	require.NoError(t, err)
	require.NotZero(t, flags&SysHodge)

	b := NewBuilder(8)
	b.Hodge = lumpedDiag(cell, 8)
	out := make([]float64, 8)
	require.NoError(t, handles[0](reg.Term(0), cell, b, out))

	// With the lumped mass operator the total equals c * volume.
	assert.InDelta(t, c*cell.Volume, sum(out), 1e-12)
}

func TestPotentialMissingHodge(t *testing.T) {
	cell := unitCube(t)
	reg, err := NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, reg.DefineByValue(0, "p", Scalar, AllCells, VertexPotential,
		[]float64{1}))
	handles, _, err := Resolve(VertexBased, reg)
	require.NoError(t, err)

	out := make([]float64, 8)
	err = handles[0](reg.Term(0), cell, NewBuilder(8), out)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	// Wrong-sized operator is caught too.
	b := NewBuilder(8)
	b.Hodge = mat.NewDiagDense(5, nil)
	err = handles[0](reg.Term(0), cell, b, out)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestHybridPotentialByAnalytic(t *testing.T) {
	cell := unitCube(t)
	f := func(time float64, pts []geom.Point, out []float64) {
		for i, p := range pts {
			out[i] = p[0]
		}
	}
	reg, err := NewRegistry(1)
	require.NoError(t, err)
	require.NoError(t, reg.DefineByAnalytic(0, "p", Scalar, AllCells,
		VertexAndCellPotential, f))
	handles, _, err := Resolve(VertexCellHybrid, reg)
	require.NoError(t, err)

	// Hybrid lumping: 3/4 of the mass on vertices, 1/4 on the cell.
	n := 9
	d := mat.NewDiagDense(n, nil)
	for v := 0; v < 8; v++ {
		d.SetDiag(v, 0.75*cell.DualWeight[v]*cell.Volume)
	}
	d.SetDiag(8, 0.25*cell.Volume)

	b := NewBuilder(8)
	b.Hodge = d
	out := make([]float64, n)
	require.NoError(t, handles[0](reg.Term(0), cell, b, out))

	// Vertices sample x in {0, 1}, the cell center samples 0.5: with this
	// lumping the total is again volume * 0.5.
	assert.InDelta(t, 0.5, sum(out), 1e-12)
	assert.InDelta(t, 0.25*0.5, out[8], 1e-13, "cell unknown carries a quarter of the mass")
}
