package facekit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	facekit "github.com/facekit/facekit/core"
)

// alwaysRejectCascade's only stage demands a stage score higher than
// any single weak classifier can contribute, so every window fails.
func alwaysRejectCascade() *facekit.Cascade {
	return facekit.NewCascade([]float64{
		2, 2, // windowW, windowH
		1000, 1, // stageThreshold, weakCount
		0, 1, // tilted=false, rectCount=1
		0, 0, 2, 2, 1, // rect x,y,w,h,weight
		0, -1, 1, // nodeThreshold, leafLeft, leafRight
	})
}

// alwaysPassCascade has a single stage with zero weak classifiers and
// a threshold no positive stage sum can fail to clear.
func alwaysPassCascade() *facekit.Cascade {
	return facekit.NewCascade([]float64{
		2, 2,
		-1, 0,
	})
}

// alwaysPassCascadeWithExtraStage is alwaysPassCascade with one extra
// always-passing stage appended.
func alwaysPassCascadeWithExtraStage() *facekit.Cascade {
	return facekit.NewCascade([]float64{
		2, 2,
		-1, 0,
		-1, 0,
	})
}

func uniformPlane(t *testing.T, side int, v uint8) *facekit.Plane {
	t.Helper()
	p, err := facekit.NewPlane(side, side)
	require.NoError(t, err)
	for i := range p.Pix {
		p.Pix[i] = v
	}
	return p
}

// S7: a detector scanning a uniform-gray plane with a cascade that
// cannot be satisfied by any window yields zero detections.
func TestDetect_S7_UniformGrayYieldsNoDetections(t *testing.T) {
	plane := uniformPlane(t, 8, 128)
	dets, err := facekit.Detect(plane, alwaysRejectCascade(), facekit.DetectorParams{
		InitialScale: 1,
		ScaleFactor:  1.25,
		StepSize:     1,
	})
	require.NoError(t, err)
	assert.Empty(t, dets)
}

// Invariant 5: appending an always-passing stage to a cascade must not
// change which windows are accepted.
func TestDetect_Invariant5_ExtraPassingStageIsNoOp(t *testing.T) {
	plane := uniformPlane(t, 6, 90)
	params := facekit.DetectorParams{
		InitialScale: 1,
		ScaleFactor:  2,
		StepSize:     1,
		Neighbors:    0,
	}

	base, err := facekit.Detect(plane, alwaysPassCascade(), params)
	require.NoError(t, err)

	extended, err := facekit.Detect(plane, alwaysPassCascadeWithExtraStage(), params)
	require.NoError(t, err)

	require.Equal(t, len(base), len(extended))
	for i := range base {
		assert.Equal(t, base[i].Rect, extended[i].Rect)
	}
}

// Invariant 8: raising the neighbors requirement can only shrink (or
// leave unchanged) the number of surviving merged groups, since a
// group must clear a strictly higher membership bar to survive.
func TestDetect_Invariant8_HigherNeighborsNeverIncreasesCount(t *testing.T) {
	plane := uniformPlane(t, 8, 60)
	base := facekit.DetectorParams{
		InitialScale: 1,
		ScaleFactor:  10,
		StepSize:     1,
	}

	counts := make([]int, 0, 4)
	for n := 0; n <= 3; n++ {
		p := base
		p.Neighbors = n
		dets, err := facekit.Detect(plane, alwaysPassCascade(), p)
		require.NoError(t, err)
		counts = append(counts, len(dets))
	}

	for i := 1; i < len(counts); i++ {
		assert.LessOrEqualf(t, counts[i], counts[i-1],
			"neighbors=%d produced more detections (%d) than neighbors=%d (%d)",
			i, counts[i], i-1, counts[i-1])
	}
}

func TestDetect_RejectsZeroSizedImage(t *testing.T) {
	_, err := facekit.Detect(&facekit.Plane{}, alwaysPassCascade(), facekit.DetectorParams{
		InitialScale: 1,
		ScaleFactor:  1.1,
		StepSize:     1,
	})
	assert.Error(t, err)
}

func TestDetect_RejectsBadScaleFactor(t *testing.T) {
	plane := uniformPlane(t, 4, 10)
	_, err := facekit.Detect(plane, alwaysPassCascade(), facekit.DetectorParams{
		InitialScale: 1,
		ScaleFactor:  1,
		StepSize:     1,
	})
	assert.Error(t, err)
}
