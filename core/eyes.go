package facekit

import (
	"errors"
	"math/rand"
	"sort"
)

// ErrNoEyes is returned when a face ROI yields no eyes under either
// localization strategy.
var ErrNoEyes = errors.New("facekit: no eyes detected")

// EyeLocalizer locates a left/right eye pair inside a face rectangle.
type EyeLocalizer struct {
	// EyeCascade, if set, is used for the cascade-based strategy
	// (spec.md §4.5). If nil, the gradient-projection fallback is
	// used unconditionally.
	EyeCascade *Cascade

	// Refine enables the perturbation-ensemble median refinement of
	// the gradient-projection fallback, grounded on the teacher's
	// pupil-localization perturb-and-median technique (see
	// SPEC_FULL.md §4.5). Ignored when EyeCascade is set.
	Refine bool
	// Perturbs is the ensemble size used when Refine is true.
	// Defaults to 15.
	Perturbs int

	// DetectorParams tunes the cascade-based ROI scan when
	// EyeCascade is set. Callers typically pass a small StepSize and
	// a ScaleFactor close to 1 since the ROI is already small.
	DetectorParams DetectorParams
}

// Eyes is a located left/right eye pair, in source-image coordinates.
type Eyes struct {
	Left, Right Point
}

// Locate finds the eye pair inside face, a face rectangle in plane's
// coordinate system. plane must already be the full source image (not
// a crop), so the returned points are directly usable by the
// normalizer.
func (el *EyeLocalizer) Locate(plane *Plane, face Rectangle) (Eyes, error) {
	if el.EyeCascade != nil {
		return el.locateCascade(plane, face)
	}
	return el.locateGradient(plane, face)
}

// locateCascade implements spec.md §4.5's cascade-based strategy: run
// the Viola-Jones detector over the left/right halves of the upper
// face, independently, and pick the largest detection in each half by
// area (ties -> earliest).
func (el *EyeLocalizer) locateCascade(plane *Plane, face Rectangle) (Eyes, error) {
	fw, fh := float64(face.Width), float64(face.Height)

	leftROI := Rectangle{
		X:      face.X + int(0.15*fw),
		Y:      face.Y + int(0.25*fh),
		Width:  int(0.30 * fw),
		Height: int(0.25 * fh),
	}
	rightROI := Rectangle{
		X:      face.X + int(0.55*fw),
		Y:      face.Y + int(0.25*fh),
		Width:  int(0.30 * fw),
		Height: int(0.25 * fh),
	}

	leftPt, leftOK := el.largestInROI(plane, leftROI)
	rightPt, rightOK := el.largestInROI(plane, rightROI)
	if !leftOK || !rightOK {
		return Eyes{}, ErrNoEyes
	}
	return Eyes{Left: leftPt, Right: rightPt}, nil
}

func (el *EyeLocalizer) largestInROI(plane *Plane, roi Rectangle) (Point, bool) {
	sub, err := cropPlane(plane, roi)
	if err != nil {
		return Point{}, false
	}
	dets, err := Detect(sub, el.EyeCascade, el.DetectorParams)
	if err != nil || len(dets) == 0 {
		return Point{}, false
	}

	best := dets[0]
	bestArea := best.Rect.Width * best.Rect.Height
	for _, d := range dets[1:] {
		a := d.Rect.Width * d.Rect.Height
		if a > bestArea {
			best = d
			bestArea = a
		}
	}
	cx := roi.X + best.Rect.X + best.Rect.Width/2
	cy := roi.Y + best.Rect.Y + best.Rect.Height/2
	return Point{X: cx, Y: cy}, true
}

// locateGradient implements spec.md §4.5's gradient-projection
// fallback: on the grayscale, histogram-equalized face, find the
// vertical symmetry axis, then project Gx vertically and Gy
// horizontally over each side's eye band.
func (el *EyeLocalizer) locateGradient(plane *Plane, face Rectangle) (Eyes, error) {
	faceROI := Rectangle{X: face.X, Y: face.Y, Width: face.Width, Height: face.Height}
	sub, err := cropPlane(plane, faceROI)
	if err != nil {
		return Eyes{}, err
	}
	EqualizeHist(sub, 5, nil)

	axis := HorizontalSymmetry(sub)

	fh := sub.Height
	bandY1 := int(0.25 * float64(fh))
	bandY2 := int(0.50 * float64(fh))

	leftEstimate := func() (int, int) {
		roi := &ROI{X1: 0, X2: axis, Y1: bandY1, Y2: bandY2}
		return projectEyePoint(sub, roi)
	}
	rightEstimate := func() (int, int) {
		roi := &ROI{X1: axis, X2: sub.Width, Y1: bandY1, Y2: bandY2}
		return projectEyePoint(sub, roi)
	}

	var lx, ly, rx, ry int
	if el.Refine {
		n := el.Perturbs
		if n <= 0 {
			n = 15
		}
		lx, ly = medianEstimate(sub, &ROI{X1: 0, X2: axis, Y1: bandY1, Y2: bandY2}, n)
		rx, ry = medianEstimate(sub, &ROI{X1: axis, X2: sub.Width, Y1: bandY1, Y2: bandY2}, n)
	} else {
		lx, ly = leftEstimate()
		rx, ry = rightEstimate()
	}

	return Eyes{
		Left:  Point{X: face.X + lx, Y: face.Y + ly},
		Right: Point{X: face.X + rx, Y: face.Y + ry},
	}, nil
}

// projectEyePoint finds the eye x from a vertical projection of Gx and
// the eye y from a horizontal projection of Gy, both restricted to
// roi, smoothed with a [4,4] moving average as spec.md §4.5 requires.
func projectEyePoint(plane *Plane, roi *ROI) (int, int) {
	gx := GradientX(plane)
	gy := GradientY(plane)

	colProfile := ProjectionX(gx, plane.Width, plane.Height, roi)
	rowProfile := ProjectionY(gy, plane.Width, plane.Height, roi)

	x := roi.X1 + FindMaxIndex(colProfile, 4, 4)
	y := roi.Y1 + FindMaxIndex(rowProfile, 4, 4)
	return x, y
}

// medianEstimate is grounded on the teacher's PuplocCascade.RunDetector
// perturb-and-median pattern: it re-estimates the eye point over a set
// of randomly jittered sub-bands (jitter proportional to the band
// size, mirroring the teacher's 0.15*(0.5-rand()) position jitter) and
// returns the component-wise median, rather than trusting a single
// estimate.
func medianEstimate(plane *Plane, roi *ROI, perturbs int) (int, int) {
	xs := make([]int, 0, perturbs)
	ys := make([]int, 0, perturbs)

	bw := roi.X2 - roi.X1
	bh := roi.Y2 - roi.Y1

	for i := 0; i < perturbs; i++ {
		jx := int(float64(bw) * 0.15 * (0.5 - rand.Float64()))
		jy := int(float64(bh) * 0.15 * (0.5 - rand.Float64()))

		jittered := &ROI{
			X1: clampInt(roi.X1+jx, 0, plane.Width-1),
			X2: clampInt(roi.X2+jx, 1, plane.Width),
			Y1: clampInt(roi.Y1+jy, 0, plane.Height-1),
			Y2: clampInt(roi.Y2+jy, 1, plane.Height),
		}
		if jittered.X2 <= jittered.X1 || jittered.Y2 <= jittered.Y1 {
			jittered = roi
		}
		x, y := projectEyePoint(plane, jittered)
		xs = append(xs, x)
		ys = append(ys, y)
	}

	sort.Ints(xs)
	sort.Ints(ys)
	mid := perturbs / 2
	return xs[mid], ys[mid]
}

// cropPlane returns a new Plane holding the pixels of roi, clamped to
// plane's bounds.
func cropPlane(plane *Plane, roi Rectangle) (*Plane, error) {
	x1 := clampInt(roi.X, 0, plane.Width)
	y1 := clampInt(roi.Y, 0, plane.Height)
	x2 := clampInt(roi.X+roi.Width, 0, plane.Width)
	y2 := clampInt(roi.Y+roi.Height, 0, plane.Height)
	if x2 <= x1 || y2 <= y1 {
		return nil, errors.New("facekit: empty roi")
	}
	out, err := NewPlane(x2-x1, y2-y1)
	if err != nil {
		return nil, err
	}
	for y := y1; y < y2; y++ {
		copy(out.Pix[(y-y1)*out.Width:(y-y1)*out.Width+out.Width], plane.Pix[y*plane.Width+x1:y*plane.Width+x2])
	}
	return out, nil
}
