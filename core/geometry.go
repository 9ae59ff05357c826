package facekit

import "math"

// Point is an integer pixel coordinate, used throughout this package
// for eye centers and ROI corners.
type Point struct {
	X, Y int
}

// Distance returns the Euclidean distance between two points.
func Distance(p1, p2 Point) float64 {
	dx := float64(p1.X - p2.X)
	dy := float64(p1.Y - p2.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Angle returns the angle of the line from p1 to p2, in radians unless
// degrees is true.
func Angle(p1, p2 Point, degrees bool) float64 {
	rad := math.Atan2(float64(p2.Y-p1.Y), float64(p2.X-p1.X))
	if degrees {
		return rad * 180 / math.Pi
	}
	return rad
}

// Center returns the midpoint of p1 and p2.
func Center(p1, p2 Point) Point {
	return Point{X: (p1.X + p2.X) / 2, Y: (p1.Y + p2.Y) / 2}
}

// CenterF is the float64 midpoint, used where sub-pixel placement
// matters (the normalizer's rotation center).
func CenterF(p1, p2 Point) (float64, float64) {
	return float64(p1.X+p2.X) / 2, float64(p1.Y+p2.Y) / 2
}

// GradientX returns squared forward differences along rows; an
// out-of-frame right neighbor is treated as identical to the current
// pixel, giving zero gradient at the last column.
func GradientX(p *Plane) []float64 {
	out := make([]float64, p.Width*p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			cur := float64(p.Pix[y*p.Width+x])
			next := cur
			if x+1 < p.Width {
				next = float64(p.Pix[y*p.Width+x+1])
			}
			d := next - cur
			out[y*p.Width+x] = d * d
		}
	}
	return out
}

// GradientY returns squared forward differences along columns, with
// the same out-of-frame convention as GradientX.
func GradientY(p *Plane) []float64 {
	out := make([]float64, p.Width*p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			cur := float64(p.Pix[y*p.Width+x])
			next := cur
			if y+1 < p.Height {
				next = float64(p.Pix[(y+1)*p.Width+x])
			}
			d := next - cur
			out[y*p.Width+x] = d * d
		}
	}
	return out
}

// ROI is an axis-aligned sub-rectangle used to restrict a projection.
type ROI struct {
	X1, X2, Y1, Y2 int
}

// ProjectionX sums each column of plane (or of the samples directly, if
// a gradient magnitude array is passed) within the optional ROI,
// producing a width-length profile.
func ProjectionX(samples []float64, w, h int, roi *ROI) []float64 {
	x1, x2, y1, y2 := 0, w, 0, h
	if roi != nil {
		x1, x2, y1, y2 = roi.X1, roi.X2, roi.Y1, roi.Y2
	}
	out := make([]float64, x2-x1)
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			out[x-x1] += samples[y*w+x]
		}
	}
	return out
}

// ProjectionY sums each row within the optional ROI, producing a
// height-length profile.
func ProjectionY(samples []float64, w, h int, roi *ROI) []float64 {
	x1, x2, y1, y2 := 0, w, 0, h
	if roi != nil {
		x1, x2, y1, y2 = roi.X1, roi.X2, roi.Y1, roi.Y2
	}
	out := make([]float64, y2-y1)
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			out[y-y1] += samples[y*w+x]
		}
	}
	return out
}

// FindMaxIndex returns the index of the maximum of a centered moving
// average over seq, with window size before+after+1. Ties resolve to
// the first occurrence.
func FindMaxIndex(seq []float64, before, after int) int {
	if len(seq) == 0 {
		return -1
	}
	best := 0
	bestVal := movingAvg(seq, 0, before, after)
	for i := 1; i < len(seq); i++ {
		v := movingAvg(seq, i, before, after)
		if v > bestVal {
			bestVal = v
			best = i
		}
	}
	return best
}

func movingAvg(seq []float64, i, before, after int) float64 {
	lo := i - before
	hi := i + after
	if lo < 0 {
		lo = 0
	}
	if hi >= len(seq) {
		hi = len(seq) - 1
	}
	var sum float64
	for j := lo; j <= hi; j++ {
		sum += seq[j]
	}
	return sum / float64(hi-lo+1)
}

// HorizontalSymmetry computes a Hann-windowed column projection whose
// argmax is the vertical axis of left/right facial symmetry.
func HorizontalSymmetry(p *Plane) int {
	col := make([]float64, p.Width)
	for x := 0; x < p.Width; x++ {
		var sum float64
		for y := 0; y < p.Height; y++ {
			sum += float64(p.Pix[y*p.Width+x])
		}
		col[x] = sum
	}
	for x := 0; x < p.Width; x++ {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(x)/float64(p.Width-1)))
		col[x] *= w
	}
	return FindMaxIndex(col, 0, 0)
}

// EqualizeHist performs histogram equalization in place (or into dst,
// if non-nil), sampling the 256-bin histogram every step pixels and
// normalizing the CDF by 255*step/len(plane.Pix). Step > 1 is a
// documented performance/quality trade: it changes which pixels build
// the histogram, not which pixels get remapped.
func EqualizeHist(p *Plane, step int, dst *Plane) {
	if step < 1 {
		step = 1
	}
	var hist [256]int
	for i := 0; i < len(p.Pix); i += step {
		hist[p.Pix[i]]++
	}

	var cdf [256]float64
	var running float64
	norm := 255.0 * float64(step) / float64(len(p.Pix))
	for v := 0; v < 256; v++ {
		running += float64(hist[v])
		cdf[v] = running * norm
	}

	target := dst
	if target == nil {
		target = p
	} else {
		if target != p {
			copy(target.Pix, p.Pix)
		}
	}
	for i, v := range p.Pix {
		target.Pix[i] = clampByte(cdf[v])
	}
}
