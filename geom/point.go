package geom

// Point is a position in 3D space.
type Point [3]float64

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p[0] + q[0], p[1] + q[1], p[2] + q[2]}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p[0] - q[0], p[1] - q[1], p[2] - q[2]}
}

// Scale returns s * p.
func (p Point) Scale(s float64) Point {
	return Point{s * p[0], s * p[1], s * p[2]}
}

// Mid returns the midpoint of p and q.
func (p Point) Mid(q Point) Point {
	return Point{0.5 * (p[0] + q[0]), 0.5 * (p[1] + q[1]), 0.5 * (p[2] + q[2])}
}

// TetVolume returns the (unsigned) volume of the tetrahedron (a, b, c, d).
func TetVolume(a, b, c, d Point) float64 {
	u := b.Sub(a)
	v := c.Sub(a)
	w := d.Sub(a)

	det := u[0]*(v[1]*w[2]-v[2]*w[1]) -
		u[1]*(v[0]*w[2]-v[2]*w[0]) +
		u[2]*(v[0]*w[1]-v[1]*w[0])
	if det < 0 {
		det = -det
	}
	return det / 6.0
}
