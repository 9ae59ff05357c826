package facekit

import "errors"

// Integral is a same-shape running-sum image (SAT) permitting O(1)
// computation of any axis-aligned rectangular sum. Sum[x,y] holds the
// total of all samples with u<=x, v<=y; reads before the first row or
// column are 0, reads past the last one are clamped to it.
type Integral struct {
	Sum    []int64
	Width  int
	Height int
}

// At returns the prefix sum at (x, y). A negative coordinate reads as 0;
// a coordinate past the last column or row is clamped to it, which for
// a SAT equals the sum over the image extended with zero samples.
func (in *Integral) At(x, y int) int64 {
	if x < 0 || y < 0 {
		return 0
	}
	if x >= in.Width {
		x = in.Width - 1
	}
	if y >= in.Height {
		y = in.Height - 1
	}
	return in.Sum[y*in.Width+x]
}

// RectSum returns the sum of samples in the half-open rectangle
// [x1,x2) x [y1,y2) via four corner lookups.
func (in *Integral) RectSum(x1, y1, x2, y2 int) int64 {
	return in.At(x2-1, y2-1) - in.At(x1-1, y2-1) - in.At(x2-1, y1-1) + in.At(x1-1, y1-1)
}

// IntegralOutputs selects which integral images computeIntegralImages
// should populate. At least one must be requested.
type IntegralOutputs struct {
	Sum    bool
	SumSq  bool
	Tilted bool
	Sobel  bool
}

// IntegralSet holds whichever integral images were requested.
type IntegralSet struct {
	Sum    *Integral // standard SAT over the luminance plane
	SumSq  *Integral // SAT over the squared luminance plane
	Tilted *Integral // 45-degree rotated SAT (RSAT)
	Sobel  *Integral // SAT over the Sobel gradient-magnitude plane
}

// ComputeIntegralImages fills any subset of the four parallel integral
// images described in spec.md §3 in as close to a single pass as each
// recurrence allows. Requesting none of the four outputs is a usage
// error.
func ComputeIntegralImages(p *Plane, outputs IntegralOutputs) (*IntegralSet, error) {
	if !outputs.Sum && !outputs.SumSq && !outputs.Tilted && !outputs.Sobel {
		return nil, errors.New("facekit: computeIntegralImages requires at least one output")
	}
	w, h := p.Width, p.Height
	set := &IntegralSet{}

	if outputs.Sum {
		set.Sum = buildSAT(p.Pix, w, h, func(v uint8) int64 { return int64(v) })
	}
	if outputs.SumSq {
		set.SumSq = buildSAT(p.Pix, w, h, func(v uint8) int64 { return int64(v) * int64(v) })
	}
	if outputs.Tilted {
		set.Tilted = buildRSAT(p.Pix, w, h)
	}
	if outputs.Sobel {
		mag := Sobel(p)
		set.Sobel = buildSAT(mag.Pix, w, h, func(v uint8) int64 { return int64(v) })
	}
	return set, nil
}

// buildSAT constructs a standard summed-area table using the recurrence
// S[x,y] = S[x-1,y] + S[x,y-1] + f(I[x,y]) - S[x-1,y-1].
func buildSAT(pix []uint8, w, h int, f func(uint8) int64) *Integral {
	sum := make([]int64, w*h)
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += f(pix[y*w+x])
			above := int64(0)
			if y > 0 {
				above = sum[(y-1)*w+x]
			}
			sum[y*w+x] = rowSum + above
		}
	}
	return &Integral{Sum: sum, Width: w, Height: h}
}

// buildRSAT constructs the tilted (45-degree rotated) integral image
// using R[x,y] = R[x-1,y-1] + R[x+1,y-1] - R[x,y-2] + I[x,y] + I[x,y-1].
func buildRSAT(pix []uint8, w, h int) *Integral {
	get := func(r []int64, x, y int) int64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return r[y*w+x]
	}
	pixAt := func(x, y int) int64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return int64(pix[y*w+x])
	}
	r := make([]int64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r[y*w+x] = get(r, x-1, y-1) + get(r, x+1, y-1) - get(r, x, y-2) + pixAt(x, y) + pixAt(x, y-1)
		}
	}
	return &Integral{Sum: r, Width: w, Height: h}
}

// TiltedRectSum returns the sum of the 45-degree-rotated rectangle
// anchored at (x, y) with legs w, h, using the four-corner combination
// over the RSAT that the OpenCV tilted-feature convention defines:
// the rectangle's four corners are (x,y), (x-h,y+h), (x+w,y+w) and
// (x+w-h,y+w+h).
func (in *Integral) TiltedRectSum(x, y, w, h int) int64 {
	return in.At(x, y) - in.At(x-h, y+h) - in.At(x+w, y+w) + in.At(x+w-h, y+w+h)
}
