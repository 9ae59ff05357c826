package facekit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	facekit "github.com/facekit/facekit/core"
)

func TestNewCascade_ReadsWindowSize(t *testing.T) {
	c := facekit.NewCascade([]float64{20, 24, 0})
	assert.Equal(t, 20, c.WindowW)
	assert.Equal(t, 24, c.WindowH)
}

func TestCascade_ChecksumStableAndMemoized(t *testing.T) {
	c := facekit.NewCascade([]float64{20, 24, 1.5, 2.5})
	a := c.Checksum()
	b := c.Checksum()
	assert.Equal(t, a, b)

	other := facekit.NewCascade([]float64{20, 24, 1.5, 2.6})
	assert.NotEqual(t, a, other.Checksum())
}

func TestCascade_JSONRoundTrip(t *testing.T) {
	c := facekit.NewCascade([]float64{20, 24, 1, -1, 0.5})
	b, err := c.MarshalJSON()
	require.NoError(t, err)

	back, err := facekit.UnmarshalCascadeJSON(b)
	require.NoError(t, err)
	assert.Equal(t, c.Data, back.Data)
	assert.Equal(t, c.WindowW, back.WindowW)
	assert.Equal(t, c.WindowH, back.WindowH)
}
