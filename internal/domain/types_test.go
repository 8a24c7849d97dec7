package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() LatticeParameters {
	return LatticeParameters{
		Dimensions: 3,
		NodeCount:  8,
		Connections: []Connection{
			{From: 0, To: 1, Weight: 1.0},
			{From: 1, To: 7, Weight: 0.5},
		},
		ColorScheme:     "spectral",
		Transformations: []string{"rotate", "shear"},
		ExtraParams:     map[string]string{"symmetry": "radial"},
	}
}

func TestLatticeParametersValidate(t *testing.T) {
	t.Run("valid parameters pass", func(t *testing.T) {
		p := validParams()
		assert.NoError(t, p.Validate())
	})

	t.Run("zero dimensions rejected", func(t *testing.T) {
		p := validParams()
		p.Dimensions = 0
		assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
	})

	t.Run("single node rejected", func(t *testing.T) {
		p := validParams()
		p.NodeCount = 1
		assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
	})

	t.Run("connection out of node range rejected", func(t *testing.T) {
		p := validParams()
		p.Connections = append(p.Connections, Connection{From: 0, To: 8, Weight: 1})
		assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
	})

	t.Run("non-finite weight rejected", func(t *testing.T) {
		p := validParams()
		p.Connections[0].Weight = math.NaN()
		assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
	})

	t.Run("connection list over cap rejected", func(t *testing.T) {
		p := validParams()
		p.NodeCount = 1000
		p.Connections = make([]Connection, MaxConnections+1)
		assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
	})
}

func TestLatticeParametersCanonicalHash(t *testing.T) {
	p := validParams()
	h1, err := p.CanonicalHash()
	require.NoError(t, err)
	require.Len(t, h1, 64)

	// Map iteration order must not affect the hash
	p.ExtraParams = map[string]string{"symmetry": "radial"}
	h2, err := p.CanonicalHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	// Any structural change must change the hash
	p.NodeCount = 9
	h3, err := p.CanonicalHash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestTokenIDMetadataLocator(t *testing.T) {
	id := TokenID{CollectionID: 4, TokenIndex: 12}
	assert.Equal(t, "ipfs://Qmbase/12", id.MetadataLocator("ipfs://Qmbase"))
	assert.Equal(t, "ipfs://Qmbase/12", id.MetadataLocator("ipfs://Qmbase/"))
	assert.Equal(t, "4/12", id.String())
}
