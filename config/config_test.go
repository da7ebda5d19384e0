package config

import (
	"strings"
	"testing"

	"github.com/cdokit/cdoassembly/quadrature"
	"github.com/cdokit/cdoassembly/sourceterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
scheme: vertex
terms:
  - name: heating
    support: density
    value: 2.0
    quadrature: order2
  - name: measured
    support: density
    array: [1.0, 2.0, 3.0, 4.0]
    cells: [0, 1]
  - name: background
    value: 0.5
`

func TestLoadAndBuildRegistry(t *testing.T) {
	f, err := Load(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	scheme, err := f.SchemeKind()
	require.NoError(t, err)
	assert.Equal(t, sourceterm.VertexBased, scheme)

	reg, err := f.BuildRegistry()
	require.NoError(t, err)
	require.Equal(t, 3, reg.NumTerms())

	t0 := reg.Term(0)
	assert.Equal(t, "heating", t0.Name())
	assert.Equal(t, sourceterm.DefByValue, t0.DefKind())
	assert.Equal(t, []float64{2.0}, t0.Value())
	assert.Equal(t, quadrature.Order2, t0.Quadrature())
	assert.True(t, t0.FullDomain())

	t1 := reg.Term(1)
	assert.Equal(t, sourceterm.DefByArray, t1.DefKind())
	assert.True(t, t1.OwnsArray(), "file-loaded arrays belong to the registry")
	assert.False(t, t1.FullDomain())
	assert.Equal(t, []int{0, 1}, t1.Subset().IDs)

	t2 := reg.Term(2)
	assert.Equal(t, sourceterm.DualCellDensity, t2.Support(), "density is the default support")

	// The built registry must resolve under the configured scheme.
	_, _, err = sourceterm.Resolve(scheme, reg)
	assert.NoError(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("scheme: vertex\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestBuildRegistryErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"both value and array", `
terms:
  - name: x
    value: 1.0
    array: [1.0]
`},
		{"neither value nor array", `
terms:
  - name: x
`},
		{"unknown support", `
terms:
  - name: x
    support: edges
    value: 1.0
`},
		{"unknown quadrature", `
terms:
  - name: x
    value: 1.0
    quadrature: order9
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Load(strings.NewReader(tc.yaml))
			require.NoError(t, err)
			_, err = f.BuildRegistry()
			assert.Error(t, err)
		})
	}
}

func TestUnknownScheme(t *testing.T) {
	f, err := Load(strings.NewReader("scheme: facets\n"))
	require.NoError(t, err)
	_, err = f.SchemeKind()
	assert.ErrorIs(t, err, sourceterm.ErrInvalidConfiguration)
}
