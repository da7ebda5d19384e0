// Package mesh provides a structured hexahedral box mesh implementing the
// cell-geometry collaborator the assembly pass consumes. It stands in for
// the externally supplied meshes of a full solver, giving tests and the CLI
// a real multi-cell domain.
package mesh

import (
	"fmt"

	"github.com/cdokit/cdoassembly/geom"
)

// HexBox is an nx*ny*nz grid of hexahedral cells filling the axis-aligned
// box [0,Lx]x[0,Ly]x[0,Lz]. Cells and vertices are numbered x-fastest.
type HexBox struct {
	nx, ny, nz int
	dx, dy, dz float64
}

// NewHexBox creates the box mesh.
func NewHexBox(nx, ny, nz int, lx, ly, lz float64) (*HexBox, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("hex box needs at least one cell per direction, got %dx%dx%d",
			nx, ny, nz)
	}
	if lx <= 0 || ly <= 0 || lz <= 0 {
		return nil, fmt.Errorf("hex box needs positive extents, got %gx%gx%g", lx, ly, lz)
	}
	return &HexBox{
		nx: nx, ny: ny, nz: nz,
		dx: lx / float64(nx),
		dy: ly / float64(ny),
		dz: lz / float64(nz),
	}, nil
}

// NumCells returns the number of cells in the mesh.
func (m *HexBox) NumCells() int { return m.nx * m.ny * m.nz }

// NumVertices returns the number of distinct vertices in the mesh.
func (m *HexBox) NumVertices() int {
	return (m.nx + 1) * (m.ny + 1) * (m.nz + 1)
}

// vertexID returns the global id of grid vertex (i, j, k).
func (m *HexBox) vertexID(i, j, k int) int {
	return i + (m.nx+1)*(j+(m.ny+1)*k)
}

// cellIJK decomposes a cell id into grid indices.
func (m *HexBox) cellIJK(c int) (i, j, k int) {
	i = c % m.nx
	j = (c / m.nx) % m.ny
	k = c / (m.nx * m.ny)
	return
}

// CellVertices returns the eight global vertex ids of cell c, ordered with
// the bottom face loop first and the top face loop above it, matching
// geom.NewHexCell's corner convention.
func (m *HexBox) CellVertices(c int) []int {
	i, j, k := m.cellIJK(c)
	return []int{
		m.vertexID(i, j, k),
		m.vertexID(i+1, j, k),
		m.vertexID(i+1, j+1, k),
		m.vertexID(i, j+1, k),
		m.vertexID(i, j, k+1),
		m.vertexID(i+1, j, k+1),
		m.vertexID(i+1, j+1, k+1),
		m.vertexID(i, j+1, k+1),
	}
}

// CellGeometry builds the full local geometry record of cell c.
func (m *HexBox) CellGeometry(c int) (*geom.Cell, error) {
	if c < 0 || c >= m.NumCells() {
		return nil, fmt.Errorf("cell %d out of range, mesh has %d cells", c, m.NumCells())
	}
	i, j, k := m.cellIJK(c)

	x0, y0, z0 := float64(i)*m.dx, float64(j)*m.dy, float64(k)*m.dz
	x1, y1, z1 := x0+m.dx, y0+m.dy, z0+m.dz

	cell, err := geom.NewHexCell([8]geom.Point{
		{x0, y0, z0},
		{x1, y0, z0},
		{x1, y1, z0},
		{x0, y1, z0},
		{x0, y0, z1},
		{x1, y0, z1},
		{x1, y1, z1},
		{x0, y1, z1},
	})
	if err != nil {
		return nil, fmt.Errorf("cell %d: %w", c, err)
	}
	cell.ID = c
	return cell, nil
}
