package facekit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	facekit "github.com/facekit/facekit/core"
)

// S2 grayscale.
func TestGrayscale_S2(t *testing.T) {
	rgba := []byte{
		255, 255, 255, 255,
		0, 0, 0, 255,
		255, 0, 0, 255,
	}
	p, err := facekit.Grayscale(rgba, 3, 1)
	require.NoError(t, err)

	assert.EqualValues(t, 255, p.Pix[0])
	assert.EqualValues(t, 0, p.Pix[1])
	assert.InDelta(t, 54, int(p.Pix[2]), 1)
}

// Invariant 2: grayscale is idempotent under re-conversion.
func TestGrayscale_Idempotent(t *testing.T) {
	rgba := []byte{
		12, 200, 77, 255,
		250, 10, 3, 128,
	}
	filled, err := facekit.GrayscaleRGBA(rgba, 2, 1)
	require.NoError(t, err)

	again, err := facekit.GrayscaleRGBA(filled, 2, 1)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		assert.Equal(t, filled[i*4], again[i*4], "luma channel should be stable under re-conversion")
		assert.Equal(t, filled[i*4+3], again[i*4+3], "alpha must be preserved")
	}
}

func TestGrayscale_RejectsZeroSize(t *testing.T) {
	_, err := facekit.Grayscale(nil, 0, 0)
	assert.Error(t, err)
}

func TestPlane_CloneIsIndependent(t *testing.T) {
	p, err := facekit.NewPlane(2, 2)
	require.NoError(t, err)
	p.Pix[0] = 7

	c := p.Clone()
	c.Pix[0] = 9

	assert.EqualValues(t, 7, p.Pix[0])
	assert.EqualValues(t, 9, c.Pix[0])
}
