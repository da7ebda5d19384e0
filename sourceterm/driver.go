package sourceterm

import (
	"fmt"

	"github.com/cdokit/cdoassembly/geom"
)

// ComputeCellwise accumulates every active source term of one cell into out.
// out must be sized to the cell's local degree-of-freedom count under the
// active scheme; it is reset to zero first and owned by the caller. The
// term selection honors the cell mask: a nil mask means every term applies
// everywhere. A nil handle for an active term id means dispatch resolution
// and the mask disagree, which is an internal consistency violation, not a
// configuration error.
func ComputeCellwise(nTerms int, r *Registry, cell *geom.Cell, flags SysFlags,
	mask CellMask, handles []CellwiseFunc, b *Builder, out []float64) error {

	for i := range out {
		out[i] = 0
	}
	if flags&SysSourceTerm == 0 {
		return nil
	}
	if nTerms > r.NumTerms() || nTerms > len(handles) {
		return fmt.Errorf("internal: %d terms requested, registry has %d, dispatch table has %d",
			nTerms, r.NumTerms(), len(handles))
	}

	for id := 0; id < nTerms; id++ {
		if !mask.Applies(cell.ID, id) {
			continue
		}
		h := handles[id]
		if h == nil {
			return fmt.Errorf("internal: term %d active on cell %d but has no compute handle",
				id, cell.ID)
		}
		t := r.Term(id)
		if t == nil {
			return fmt.Errorf("internal: term %d active on cell %d but undefined in registry",
				id, cell.ID)
		}
		if err := h(t, cell, b, out); err != nil {
			return fmt.Errorf("source term %q on cell %d: %w", t.name, cell.ID, err)
		}
	}
	return nil
}
