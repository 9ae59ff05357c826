package facekit_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	facekit "github.com/facekit/facekit/core"
)

// S3 angle/distance.
func TestDistanceAngleCenter_S3(t *testing.T) {
	left := facekit.Point{X: 100, Y: 100}
	right := facekit.Point{X: 200, Y: 100}

	assert.InDelta(t, 0, facekit.Angle(left, right, true), 1e-9)
	assert.InDelta(t, 100, facekit.Distance(left, right), 1e-9)

	c := facekit.Center(left, right)
	assert.Equal(t, facekit.Point{X: 150, Y: 100}, c)
}

// S4 angle.
func TestAngle_S4(t *testing.T) {
	left := facekit.Point{X: 0, Y: 0}
	right := facekit.Point{X: 10, Y: 10}
	assert.InDelta(t, 45, facekit.Angle(left, right, true), 1e-6)
}

// Invariant 3: distance symmetry, non-negativity, triangle inequality.
func TestDistance_Invariants(t *testing.T) {
	a := facekit.Point{X: 0, Y: 0}
	b := facekit.Point{X: 3, Y: 4}
	c := facekit.Point{X: 10, Y: -2}

	assert.InDelta(t, facekit.Distance(a, b), facekit.Distance(b, a), 1e-9)
	assert.GreaterOrEqual(t, facekit.Distance(a, b), 0.0)
	assert.Equal(t, 0.0, facekit.Distance(a, a))
	assert.LessOrEqual(t, facekit.Distance(a, c), facekit.Distance(a, b)+facekit.Distance(b, c)+1e-9)
}

func TestFindMaxIndex_TieResolvesFirst(t *testing.T) {
	seq := []float64{1, 5, 5, 1}
	idx := facekit.FindMaxIndex(seq, 0, 0)
	assert.Equal(t, 1, idx)
}

func TestFindMaxIndex_Smoothing(t *testing.T) {
	// A single sharp spike should still win under a wide smoothing
	// window as long as it dominates its neighborhood.
	seq := []float64{0, 0, 0, 100, 0, 0, 0}
	idx := facekit.FindMaxIndex(seq, 2, 2)
	assert.Equal(t, 3, idx)
}

func TestEqualizeHist_StretchesFlatImage(t *testing.T) {
	p, _ := facekit.NewPlane(4, 4)
	for i := range p.Pix {
		p.Pix[i] = 100
	}
	facekit.EqualizeHist(p, 1, nil)
	for _, v := range p.Pix {
		assert.EqualValues(t, 255, v)
	}
}

func TestHorizontalSymmetry_CenteredBand(t *testing.T) {
	p, _ := facekit.NewPlane(11, 4)
	for y := 0; y < 4; y++ {
		p.Pix[y*11+5] = 255
	}
	axis := facekit.HorizontalSymmetry(p)
	assert.InDelta(t, 5, axis, 1)
}

func TestGradientX_ZeroAtLastColumn(t *testing.T) {
	p, _ := facekit.NewPlane(3, 1)
	p.Pix[0], p.Pix[1], p.Pix[2] = 10, 50, 90
	gx := facekit.GradientX(p)
	assert.EqualValues(t, math.Pow(50-10, 2), gx[0])
	assert.EqualValues(t, 0, gx[2])
}
