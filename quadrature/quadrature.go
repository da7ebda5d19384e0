// Package quadrature provides numerical integration rules over tetrahedra,
// used to integrate source fields over the tetrahedral sub-decomposition of
// polyhedral cells.
package quadrature

import "github.com/cdokit/cdoassembly/geom"

// Order selects the integration rule applied to analytically defined fields.
// Each rule is exact up to the stated polynomial degree on every tetrahedron
// of the sub-decomposition.
type Order uint8

const (
	// Bary evaluates the field once per dual cell, at the dual cell's
	// volume-weighted barycenter. Exact for affine fields.
	Bary Order = iota
	// BarySubdiv evaluates the field at the barycenter of each individual
	// sub-tetrahedron. Also exact for affine fields, with a better
	// intra-cell distribution of the integrand.
	BarySubdiv
	// Order2 applies a ten-point rule per sub-tetrahedron, exact for
	// quadratic fields.
	Order2
	// Order3 applies a five-point rule per sub-tetrahedron, exact for cubic
	// fields. The most expensive choice.
	Order3
)

func (o Order) String() string {
	switch o {
	case Bary:
		return "barycentric"
	case BarySubdiv:
		return "subdivided barycentric"
	case Order2:
		return "10-point (order 2)"
	case Order3:
		return "5-point (order 3)"
	default:
		return "unknown"
	}
}

// TetBarycenter returns the centroid of the tetrahedron (a, b, c, d).
func TetBarycenter(a, b, c, d geom.Point) geom.Point {
	var g geom.Point
	for k := 0; k < 3; k++ {
		g[k] = 0.25 * (a[k] + b[k] + c[k] + d[k])
	}
	return g
}

// Tet5Pts fills pts and weights with the classical five-point rule on the
// tetrahedron (a, b, c, d) of volume vol: the centroid carries weight
// -4/5*vol and the four points at barycentric coordinates (1/2, 1/6, 1/6,
// 1/6) carry weight 9/20*vol each. The rule is exact for polynomials of
// degree 3.
func Tet5Pts(a, b, c, d geom.Point, vol float64, pts *[5]geom.Point, weights *[5]float64) {
	const (
		wc = -4.0 / 5.0
		wp = 9.0 / 20.0
		s1 = 1.0 / 6.0
		s2 = 1.0 / 2.0
	)

	pts[0] = TetBarycenter(a, b, c, d)
	weights[0] = wc * vol

	corners := [4]geom.Point{a, b, c, d}
	for i := 0; i < 4; i++ {
		var p geom.Point
		for k := 0; k < 3; k++ {
			p[k] = s1 * (a[k] + b[k] + c[k] + d[k])
			p[k] += (s2 - s1) * corners[i][k]
		}
		pts[i+1] = p
		weights[i+1] = wp * vol
	}
}

// Tet10Pts fills pts and weights with the ten-point rule on the tetrahedron
// (a, b, c, d) of volume vol: the four corners carry weight -1/20*vol and the
// six edge midpoints carry weight 1/5*vol. The rule is exact for polynomials
// of degree 2.
func Tet10Pts(a, b, c, d geom.Point, vol float64, pts *[10]geom.Point, weights *[10]float64) {
	const (
		wCorner = -1.0 / 20.0
		wMid    = 1.0 / 5.0
	)

	pts[0], pts[1], pts[2], pts[3] = a, b, c, d
	pts[4] = a.Mid(b)
	pts[5] = a.Mid(c)
	pts[6] = a.Mid(d)
	pts[7] = b.Mid(c)
	pts[8] = b.Mid(d)
	pts[9] = c.Mid(d)

	for i := 0; i < 4; i++ {
		weights[i] = wCorner * vol
	}
	for i := 4; i < 10; i++ {
		weights[i] = wMid * vol
	}
}
