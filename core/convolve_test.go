package facekit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	facekit "github.com/facekit/facekit/core"
)

func samplePlane(t *testing.T) *facekit.Plane {
	t.Helper()
	p, err := facekit.NewPlane(5, 5)
	require.NoError(t, err)
	for i := range p.Pix {
		p.Pix[i] = uint8((i * 17) % 256)
	}
	return p
}

// Invariant 4: SeparableConvolve with a [1] kernel in one direction
// collapses to a plain convolution in the other.
func TestSeparableConvolve_CollapsesToSingleAxis(t *testing.T) {
	p := samplePlane(t)
	kernel := []float64{1, 2, 1}
	identity := []float64{1}

	gotH := facekit.SeparableConvolve(p, identity, kernel)
	wantH := facekit.HorizontalConvolve(p, kernel)
	assert.Equal(t, wantH.Pix, gotH.Pix)

	gotV := facekit.SeparableConvolve(p, kernel, identity)
	wantV := facekit.VerticalConvolve(p, kernel)
	assert.Equal(t, wantV.Pix, gotV.Pix)
}

func TestHorizontalConvolve_ClampsToEdge(t *testing.T) {
	p, _ := facekit.NewPlane(3, 1)
	p.Pix[0], p.Pix[1], p.Pix[2] = 10, 20, 30

	// out[x] = p[x-1]; at x=0 the left neighbor is clamped to p[0].
	out := facekit.HorizontalConvolve(p, []float64{1, 0, 0})
	assert.EqualValues(t, 10, out.Pix[0])
	assert.EqualValues(t, 10, out.Pix[1])
	assert.EqualValues(t, 20, out.Pix[2])
}

func TestSobel_ZeroOnFlatPlane(t *testing.T) {
	p, _ := facekit.NewPlane(6, 6)
	for i := range p.Pix {
		p.Pix[i] = 128
	}
	out := facekit.Sobel(p)
	for _, v := range out.Pix {
		assert.EqualValues(t, 0, v)
	}
}

func TestSobel_NonZeroAtEdge(t *testing.T) {
	p, _ := facekit.NewPlane(6, 6)
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			if x >= 3 {
				p.Pix[y*6+x] = 255
			}
		}
	}
	out := facekit.Sobel(p)
	assert.Greater(t, out.Pix[3*6+3], uint8(0))
}
