package sourceterm

import (
	"fmt"

	"github.com/cdokit/cdoassembly/quadrature"
)

// MaxTerms bounds the number of source terms per equation. One bit per term
// must fit in a CellMask word.
const MaxTerms = 64

// Registry is the ordered collection of source-term descriptors for one
// equation. It is populated at configuration time, then treated as read-only
// by the mask build, dispatch resolution and the per-cell assembly.
type Registry struct {
	terms []*Term
}

// NewRegistry creates a registry with room for nTerms term ids (0..nTerms-1).
func NewRegistry(nTerms int) (*Registry, error) {
	if nTerms < 0 || nTerms > MaxTerms {
		return nil, fmt.Errorf("%w: %d terms requested, limit is %d",
			ErrInvalidConfiguration, nTerms, MaxTerms)
	}
	return &Registry{terms: make([]*Term, nTerms)}, nil
}

// NumTerms returns the number of term slots in the registry, defined or not.
func (r *Registry) NumTerms() int { return len(r.terms) }

// Term returns the descriptor for the given id, or nil if the id is out of
// range or not yet defined.
func (r *Registry) Term(id int) *Term {
	if id < 0 || id >= len(r.terms) {
		return nil
	}
	return r.terms[id]
}

// checkDefine validates the arguments shared by every Define method and
// returns the term skeleton on success.
func (r *Registry) checkDefine(id int, name string, vk ValueKind, subset Subset, support SupportKind) (*Term, error) {
	if id < 0 || id >= len(r.terms) {
		return nil, fmt.Errorf("%w: term id %d out of range [0,%d)",
			ErrInvalidConfiguration, id, len(r.terms))
	}
	if subset.Loc != LocCells {
		return nil, fmt.Errorf("%w: term %d subset %q indexes %s, source terms need a cell subset",
			ErrInvalidConfiguration, id, subset.Name, subset.Loc)
	}
	if vk.components() == 0 {
		return nil, fmt.Errorf("%w: term %d has unrecognized value kind %d",
			ErrInvalidConfiguration, id, vk)
	}
	if name == "" {
		name = fmt.Sprintf("sourceterm_%d", id)
	}
	return &Term{
		id:      id,
		name:    name,
		subset:  subset,
		support: support,
		value:   vk,
	}, nil
}

// DefineByValue defines term id as a constant field. val must carry the
// number of components of the value kind (1, 3 or 9). The default quadrature
// is barycentric; constant fields are integrated exactly regardless.
func (r *Registry) DefineByValue(id int, name string, vk ValueKind, subset Subset, support SupportKind, val []float64) error {
	t, err := r.checkDefine(id, name, vk, subset, support)
	if err != nil {
		return err
	}
	if len(val) != vk.components() {
		return fmt.Errorf("%w: term %d is %s, needs %d components, got %d",
			ErrInvalidConfiguration, id, vk, vk.components(), len(val))
	}
	t.def = DefByValue
	copy(t.constVal[:], val)
	r.terms[id] = t
	return nil
}

// DefineByAnalytic defines term id through a time-dependent analytic
// function.
func (r *Registry) DefineByAnalytic(id int, name string, vk ValueKind, subset Subset, support SupportKind, f AnalyticFunc) error {
	t, err := r.checkDefine(id, name, vk, subset, support)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: term %d has a nil analytic function",
			ErrInvalidConfiguration, id)
	}
	t.def = DefByAnalytic
	t.analytic = f
	r.terms[id] = t
	return nil
}

// DefineByArray defines term id through an externally supplied per-cell
// array. When owned is true the registry takes responsibility for releasing
// the array in Destroy; otherwise the caller keeps the array alive for the
// registry's lifetime.
func (r *Registry) DefineByArray(id int, name string, vk ValueKind, subset Subset, support SupportKind, array []float64, owned bool) error {
	t, err := r.checkDefine(id, name, vk, subset, support)
	if err != nil {
		return err
	}
	if array == nil {
		return fmt.Errorf("%w: term %d has a nil array", ErrInvalidConfiguration, id)
	}
	t.def = DefByArray
	t.array = array
	t.ownsArray = owned
	r.terms[id] = t
	return nil
}

// SetQuadrature overrides the quadrature order of an already defined term.
func (r *Registry) SetQuadrature(id int, q quadrature.Order) error {
	t := r.Term(id)
	if t == nil {
		return fmt.Errorf("%w: cannot set quadrature, term %d is not defined",
			ErrInvalidConfiguration, id)
	}
	t.quad = q
	return nil
}

// Destroy releases the registry's term descriptors. Owned arrays lose their
// last registry reference here; borrowed arrays are never touched. Destroy
// is idempotent and safe on an empty registry.
func (r *Registry) Destroy() {
	for i, t := range r.terms {
		if t == nil {
			continue
		}
		if t.ownsArray {
			t.array = nil
		}
		r.terms[i] = nil
	}
}
