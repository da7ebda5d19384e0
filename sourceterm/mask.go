package sourceterm

import "fmt"

// CellMask restricts terms to cells: bit i of word c is set iff term i
// applies to cell c. A nil CellMask is the "no mask" sentinel meaning every
// term applies everywhere, letting the per-cell driver skip membership
// checks entirely.
type CellMask []uint64

// Applies reports whether term id is active on cell c. The nil sentinel is
// unconditionally true.
func (m CellMask) Applies(c, id int) bool {
	if m == nil {
		return true
	}
	return m[c]&(1<<uint(id)) != 0
}

// BuildCellMask derives the per-cell term mask from the registry. If every
// defined term covers the full domain it returns nil, the "no mask"
// sentinel. Otherwise each term sets its bit for every cell of its subset;
// full-domain terms iterate the whole cell range so bit semantics stay
// uniform across terms. The cost is proportional to the total subset
// membership size.
func BuildCellMask(r *Registry, nCells int) (CellMask, error) {
	if nCells < 0 {
		return nil, fmt.Errorf("%w: negative cell count %d", ErrInvalidConfiguration, nCells)
	}

	needMask := false
	for id := 0; id < r.NumTerms(); id++ {
		t := r.Term(id)
		if t != nil && !t.FullDomain() {
			needMask = true
			break
		}
	}
	if !needMask {
		return nil, nil
	}

	mask := make(CellMask, nCells)
	for id := 0; id < r.NumTerms(); id++ {
		t := r.Term(id)
		if t == nil {
			continue
		}
		bit := uint64(1) << uint(id)
		if t.FullDomain() {
			for c := 0; c < nCells; c++ {
				mask[c] |= bit
			}
			continue
		}
		for _, c := range t.subset.IDs {
			if c < 0 || c >= nCells {
				return nil, fmt.Errorf("%w: term %d subset %q lists cell %d, mesh has %d cells",
					ErrInvalidConfiguration, id, t.subset.Name, c, nCells)
			}
			mask[c] |= bit
		}
	}
	return mask, nil
}
