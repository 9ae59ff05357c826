package facekit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	facekit "github.com/facekit/facekit/core"
)

// buildFaceWithEyeSpots draws two dark square "eyes" inside an
// otherwise light face rectangle so the gradient-projection fallback
// has strong, symmetric vertical edges to latch onto.
func buildFaceWithEyeSpots(t *testing.T) *facekit.Plane {
	t.Helper()
	p, err := facekit.NewPlane(60, 60)
	require.NoError(t, err)
	for i := range p.Pix {
		p.Pix[i] = 220
	}
	square := func(x0, y0, side int, v uint8) {
		for y := y0; y < y0+side; y++ {
			for x := x0; x < x0+side; x++ {
				p.Pix[y*p.Width+x] = v
			}
		}
	}
	square(12, 20, 6, 30) // left eye
	square(42, 20, 6, 30) // right eye
	return p
}

func TestEyeLocalizer_Locate_GradientFallback_LeftBeforeRight(t *testing.T) {
	plane := buildFaceWithEyeSpots(t)
	el := &facekit.EyeLocalizer{}

	eyes, err := el.Locate(plane, facekit.Rectangle{X: 0, Y: 0, Width: plane.Width, Height: plane.Height})
	require.NoError(t, err)
	assert.Less(t, eyes.Left.X, eyes.Right.X)
}

func TestEyeLocalizer_Locate_RefinedStaysWithinFace(t *testing.T) {
	plane := buildFaceWithEyeSpots(t)
	el := &facekit.EyeLocalizer{Refine: true, Perturbs: 9}
	face := facekit.Rectangle{X: 0, Y: 0, Width: plane.Width, Height: plane.Height}

	eyes, err := el.Locate(plane, face)
	require.NoError(t, err)

	for _, pt := range []facekit.Point{eyes.Left, eyes.Right} {
		assert.GreaterOrEqual(t, pt.X, face.X)
		assert.LessOrEqual(t, pt.X, face.X+face.Width)
		assert.GreaterOrEqual(t, pt.Y, face.Y)
		assert.LessOrEqual(t, pt.Y, face.Y+face.Height)
	}
}

func TestEyeLocalizer_Locate_CascadeNoDetections_ReturnsErrNoEyes(t *testing.T) {
	plane := buildFaceWithEyeSpots(t)
	el := &facekit.EyeLocalizer{
		EyeCascade: facekit.NewCascade([]float64{2, 2, 1000, 1, 0, 1, 0, 0, 2, 2, 1, 0, -1, 1}),
		DetectorParams: facekit.DetectorParams{
			InitialScale: 1,
			ScaleFactor:  1.25,
			StepSize:     1,
		},
	}
	face := facekit.Rectangle{X: 0, Y: 0, Width: plane.Width, Height: plane.Height}

	_, err := el.Locate(plane, face)
	assert.ErrorIs(t, err, facekit.ErrNoEyes)
}
