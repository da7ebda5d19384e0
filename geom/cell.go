package geom

import (
	"fmt"
	"sort"
)

// Cell holds the local geometry of one polyhedral mesh cell: vertex
// coordinates, face->edge->vertex connectivity, precomputed centers, the cell
// volume and the dual-volume weight attached to each vertex.
//
// The dual-volume weights DualWeight sum to 1 over the cell's vertices;
// DualWeight[v]*Volume is the portion of the cell volume assigned to vertex v
// by the tetrahedral sub-decomposition (vertex, edge center, face center,
// cell center).
type Cell struct {
	ID int // global cell index

	Verts       []Point // vertex coordinates, cell-local numbering
	Center      Point   // cell center
	FaceCenters []Point // one per face
	EdgeCenters []Point // one per edge
	Volume      float64

	// Connectivity. FaceEdges[f] lists the edge ids bounding face f;
	// EdgeVerts[e] holds the two local vertex ids of edge e.
	FaceEdges [][]int
	EdgeVerts [][2]int

	DualWeight []float64 // per-vertex fraction of Volume, sums to 1
}

// NumVerts returns the number of vertices of the cell.
func (c *Cell) NumVerts() int { return len(c.Verts) }

// NumFaces returns the number of faces of the cell.
func (c *Cell) NumFaces() int { return len(c.FaceEdges) }

// NumEdges returns the number of edges of the cell.
func (c *Cell) NumEdges() int { return len(c.EdgeVerts) }

// NewPolyhedralCell builds the full Cell record from vertex coordinates and a
// face list, each face given as an ordered loop of local vertex ids. Edges
// are derived from the face loops. The cell center is the vertex centroid and
// face centers are face-vertex centroids, so the construction is valid for
// cells with planar faces that are star-shaped with respect to the vertex
// centroid. Volume and dual-volume weights come from the same tetrahedral
// decomposition the quadrature rules use, so both are mutually consistent.
func NewPolyhedralCell(verts []Point, faces [][]int) (*Cell, error) {
	if len(verts) < 4 {
		return nil, fmt.Errorf("polyhedral cell needs at least 4 vertices, got %d", len(verts))
	}
	if len(faces) < 4 {
		return nil, fmt.Errorf("polyhedral cell needs at least 4 faces, got %d", len(faces))
	}

	c := &Cell{
		Verts: append([]Point(nil), verts...),
	}

	// Cell center: vertex centroid.
	for _, p := range verts {
		c.Center = c.Center.Add(p)
	}
	c.Center = c.Center.Scale(1.0 / float64(len(verts)))

	// Derive the edge list from the face loops. Edges are keyed by their
	// sorted vertex pair so that the two faces sharing an edge agree on its
	// id.
	edgeID := make(map[[2]int]int)
	c.FaceEdges = make([][]int, len(faces))
	c.FaceCenters = make([]Point, len(faces))

	for f, loop := range faces {
		if len(loop) < 3 {
			return nil, fmt.Errorf("face %d has %d vertices, need at least 3", f, len(loop))
		}
		var fc Point
		for i, v := range loop {
			if v < 0 || v >= len(verts) {
				return nil, fmt.Errorf("face %d references vertex %d, cell has %d vertices",
					f, v, len(verts))
			}
			fc = fc.Add(verts[v])

			w := loop[(i+1)%len(loop)]
			key := [2]int{v, w}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			e, ok := edgeID[key]
			if !ok {
				e = len(c.EdgeVerts)
				edgeID[key] = e
				c.EdgeVerts = append(c.EdgeVerts, [2]int{loop[i], w})
				c.EdgeCenters = append(c.EdgeCenters, verts[loop[i]].Mid(verts[w]))
			}
			c.FaceEdges[f] = append(c.FaceEdges[f], e)
		}
		c.FaceCenters[f] = fc.Scale(1.0 / float64(len(loop)))
	}

	// Keep face edge lists in a deterministic order.
	for f := range c.FaceEdges {
		sort.Ints(c.FaceEdges[f])
	}

	// Volume and per-vertex dual volumes from the sub-tet decomposition:
	// each (face, edge) pair spans the tet (v1, v2, face center, cell
	// center), split evenly between the edge endpoints.
	dual := make([]float64, len(verts))
	for f := range c.FaceEdges {
		xf := c.FaceCenters[f]
		for _, e := range c.FaceEdges[f] {
			v1, v2 := c.EdgeVerts[e][0], c.EdgeVerts[e][1]
			vol := TetVolume(verts[v1], verts[v2], xf, c.Center)
			c.Volume += vol
			dual[v1] += 0.5 * vol
			dual[v2] += 0.5 * vol
		}
	}
	if c.Volume <= 0 {
		return nil, fmt.Errorf("cell has non-positive volume %g", c.Volume)
	}

	c.DualWeight = dual
	inv := 1.0 / c.Volume
	for v := range c.DualWeight {
		c.DualWeight[v] *= inv
	}

	return c, nil
}

// hexFaces lists the six quadrilateral faces of a hexahedron with vertices
// numbered 0-3 on the bottom loop and 4-7 directly above them.
var hexFaces = [][]int{
	{0, 3, 2, 1}, // bottom
	{4, 5, 6, 7}, // top
	{0, 1, 5, 4},
	{1, 2, 6, 5},
	{2, 3, 7, 6},
	{3, 0, 4, 7},
}

// NewHexCell builds a hexahedral cell from its eight corner coordinates,
// numbered 0-3 around the bottom face and 4-7 around the top face with
// vertex v+4 above vertex v.
func NewHexCell(verts [8]Point) (*Cell, error) {
	return NewPolyhedralCell(verts[:], hexFaces)
}

// NewTetCell builds a tetrahedral cell from its four corner coordinates.
func NewTetCell(verts [4]Point) (*Cell, error) {
	faces := [][]int{
		{0, 2, 1},
		{0, 1, 3},
		{1, 2, 3},
		{0, 3, 2},
	}
	return NewPolyhedralCell(verts[:], faces)
}
