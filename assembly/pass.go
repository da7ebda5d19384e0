// Package assembly runs the source-term engine over every cell of a mesh
// and gathers the cellwise contributions into a global right-hand side.
package assembly

import (
	"context"
	"fmt"
	"runtime"

	"github.com/cdokit/cdoassembly/geom"
	"github.com/cdokit/cdoassembly/sourceterm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Mesh is the mesh-geometry collaborator: per-cell local geometry plus the
// cell-to-global vertex numbering needed to scatter local contributions.
type Mesh interface {
	NumCells() int
	NumVertices() int
	CellGeometry(c int) (*geom.Cell, error)
	CellVertices(c int) []int
}

// HodgeProvider supplies the cellwise discrete Hodge operator for potential
// terms. The returned matrix must be sized to the cell's local
// degree-of-freedom count under the scheme.
type HodgeProvider interface {
	CellHodge(cell *geom.Cell, scheme sourceterm.Scheme) (mat.Matrix, error)
}

// Config parameterizes a Pass.
type Config struct {
	Scheme   sourceterm.Scheme
	Registry *sourceterm.Registry

	// Hodge is required when the registry carries potential terms.
	Hodge HodgeProvider

	// Workers caps the number of concurrent cell workers; 0 means
	// runtime.GOMAXPROCS(0).
	Workers int

	// Time is the simulation time handed to analytic definitions.
	Time float64

	Log *zap.Logger
}

// Pass holds the one-shot derived state of an assembly sweep: the per-cell
// term mask and the resolved dispatch table. Building it is strictly
// sequential; Run may then fan out over cells freely, since a Pass is
// read-only afterwards.
type Pass struct {
	cfg   Config
	mask  sourceterm.CellMask
	table []sourceterm.CellwiseFunc
	flags sourceterm.SysFlags

	nCells, nVerts, nDoFs int
}

// NewPass builds the cell mask and resolves the dispatch table for the given
// mesh and configuration. Every configuration error surfaces here, before
// any cell is visited.
func NewPass(cfg Config, m Mesh) (*Pass, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("%w: assembly pass needs a registry",
			sourceterm.ErrInvalidConfiguration)
	}

	mask, err := sourceterm.BuildCellMask(cfg.Registry, m.NumCells())
	if err != nil {
		return nil, err
	}
	table, flags, err := sourceterm.Resolve(cfg.Scheme, cfg.Registry)
	if err != nil {
		return nil, err
	}
	if flags&sourceterm.SysHodge != 0 && cfg.Hodge == nil {
		return nil, fmt.Errorf("%w: potential terms need a Hodge provider",
			sourceterm.ErrInvalidConfiguration)
	}

	p := &Pass{
		cfg:    cfg,
		mask:   mask,
		table:  table,
		flags:  flags,
		nCells: m.NumCells(),
		nVerts: m.NumVertices(),
		nDoFs:  m.NumVertices(),
	}
	if cfg.Scheme == sourceterm.VertexCellHybrid {
		p.nDoFs += m.NumCells()
	}
	if cfg.Log != nil {
		cfg.Log.Info("assembly pass ready",
			zap.Stringer("scheme", cfg.Scheme),
			zap.Int("terms", cfg.Registry.NumTerms()),
			zap.Int("cells", p.nCells),
			zap.Int("dofs", p.nDoFs),
			zap.Bool("masked", mask != nil))
	}
	return p, nil
}

// NumDoFs returns the length of the assembled right-hand side: one entry per
// mesh vertex, plus one per cell under the hybrid scheme (cell unknowns
// follow the vertex block).
func (p *Pass) NumDoFs() int { return p.nDoFs }

// Run sweeps every cell and returns the assembled right-hand side. Cells are
// strided across workers; each worker owns its scratch builder and a private
// partial vector, reduced once all workers finish, so no locking is needed
// inside the loop. The first per-cell failure cancels the remaining work and
// aborts the whole pass.
func (p *Pass) Run(ctx context.Context, m Mesh) ([]float64, error) {
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > p.nCells {
		workers = p.nCells
	}
	if workers < 1 {
		workers = 1
	}

	partials := make([][]float64, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		partial := make([]float64, p.nDoFs)
		partials[w] = partial
		first := w

		g.Go(func() error {
			b := sourceterm.NewBuilder(8)
			b.Time = p.cfg.Time
			var out []float64

			for c := first; c < p.nCells; c += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				cell, err := m.CellGeometry(c)
				if err != nil {
					return err
				}
				if p.flags&sourceterm.SysHodge != 0 {
					b.Hodge, err = p.cfg.Hodge.CellHodge(cell, p.cfg.Scheme)
					if err != nil {
						return fmt.Errorf("cell %d: %w", c, err)
					}
				}

				n := p.cfg.Scheme.NumDoFs(cell)
				if cap(out) < n {
					out = make([]float64, n)
				}
				out = out[:n]

				err = sourceterm.ComputeCellwise(p.cfg.Registry.NumTerms(),
					p.cfg.Registry, cell, p.flags, p.mask, p.table, b, out)
				if err != nil {
					return err
				}

				verts := m.CellVertices(c)
				for i, gv := range verts {
					partial[gv] += out[i]
				}
				if p.cfg.Scheme == sourceterm.VertexCellHybrid {
					partial[p.nVerts+c] += out[n-1]
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	rhs := partials[0]
	for _, partial := range partials[1:] {
		for i, v := range partial {
			rhs[i] += v
		}
	}
	if p.cfg.Log != nil {
		p.cfg.Log.Info("assembly pass done",
			zap.Int("cells", p.nCells),
			zap.Int("workers", workers))
	}
	return rhs, nil
}
