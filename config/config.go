// Package config builds a source-term registry from a declarative YAML
// description, the configuration surface a solver deck would use. Analytic
// definitions cannot be expressed in a file and are registered through the
// sourceterm API directly.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/cdokit/cdoassembly/quadrature"
	"github.com/cdokit/cdoassembly/sourceterm"
	"gopkg.in/yaml.v3"
)

// TermSpec describes one source term in a configuration file. Exactly one
// of Value and Array must be present.
type TermSpec struct {
	Name    string `yaml:"name"`
	Support string `yaml:"support"` // "density", "potential", "potential+cell"

	Value *float64  `yaml:"value,omitempty"` // constant scalar field
	Array []float64 `yaml:"array,omitempty"` // per-cell scalar field

	Quadrature string `yaml:"quadrature,omitempty"` // "bary" (default), "subdiv", "order2", "order3"
	Cells      []int  `yaml:"cells,omitempty"`      // empty means the whole domain
}

// File is the top-level configuration document.
type File struct {
	Scheme string     `yaml:"scheme"` // "vertex" or "vertex+cell"
	Terms  []TermSpec `yaml:"terms"`
}

// Load parses a configuration document.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing source term config: %w", err)
	}
	return &f, nil
}

// LoadPath parses the configuration file at path.
func LoadPath(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Load(fh)
}

// SchemeKind resolves the configured scheme name.
func (f *File) SchemeKind() (sourceterm.Scheme, error) {
	switch f.Scheme {
	case "", "vertex":
		return sourceterm.VertexBased, nil
	case "vertex+cell":
		return sourceterm.VertexCellHybrid, nil
	default:
		return 0, fmt.Errorf("%w: unknown scheme %q",
			sourceterm.ErrInvalidConfiguration, f.Scheme)
	}
}

// BuildRegistry turns the configured terms into a populated registry.
// Arrays loaded from a file are owned by the registry.
func (f *File) BuildRegistry() (*sourceterm.Registry, error) {
	reg, err := sourceterm.NewRegistry(len(f.Terms))
	if err != nil {
		return nil, err
	}

	for id, ts := range f.Terms {
		support, err := supportKind(ts.Support)
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", ts.Name, err)
		}
		subset := sourceterm.AllCells
		if len(ts.Cells) > 0 {
			subset = sourceterm.Subset{
				Name: fmt.Sprintf("%s_cells", ts.Name),
				Loc:  sourceterm.LocCells,
				IDs:  ts.Cells,
			}
		}

		switch {
		case ts.Value != nil && ts.Array != nil:
			return nil, fmt.Errorf("%w: term %q sets both value and array",
				sourceterm.ErrInvalidConfiguration, ts.Name)
		case ts.Value != nil:
			err = reg.DefineByValue(id, ts.Name, sourceterm.Scalar, subset, support,
				[]float64{*ts.Value})
		case ts.Array != nil:
			err = reg.DefineByArray(id, ts.Name, sourceterm.Scalar, subset, support,
				ts.Array, true)
		default:
			return nil, fmt.Errorf("%w: term %q sets neither value nor array",
				sourceterm.ErrInvalidConfiguration, ts.Name)
		}
		if err != nil {
			return nil, err
		}

		if ts.Quadrature != "" {
			q, err := quadOrder(ts.Quadrature)
			if err != nil {
				return nil, fmt.Errorf("term %q: %w", ts.Name, err)
			}
			if err := reg.SetQuadrature(id, q); err != nil {
				return nil, err
			}
		}
	}
	return reg, nil
}

func supportKind(s string) (sourceterm.SupportKind, error) {
	switch s {
	case "", "density":
		return sourceterm.DualCellDensity, nil
	case "potential":
		return sourceterm.VertexPotential, nil
	case "potential+cell":
		return sourceterm.VertexAndCellPotential, nil
	default:
		return 0, fmt.Errorf("%w: unknown support %q",
			sourceterm.ErrInvalidConfiguration, s)
	}
}

func quadOrder(s string) (quadrature.Order, error) {
	switch s {
	case "bary":
		return quadrature.Bary, nil
	case "subdiv":
		return quadrature.BarySubdiv, nil
	case "order2":
		return quadrature.Order2, nil
	case "order3":
		return quadrature.Order3, nil
	default:
		return 0, fmt.Errorf("%w: unknown quadrature %q",
			sourceterm.ErrInvalidConfiguration, s)
	}
}
