package facekit

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Rectangle is a half-open, integer-pixel axis-aligned box.
type Rectangle struct {
	X, Y, Width, Height int
}

// Detection is a single merged face/eye/mouth candidate.
type Detection struct {
	Rect      Rectangle
	Score     float64
	Neighbors int
}

// DetectorParams are the tuning parameters for one multi-scale scan,
// per spec.md §6.
type DetectorParams struct {
	InitialScale float64 // >= 1
	ScaleFactor  float64 // > 1, 1.05-1.25 typical
	StepSize     float64 // >= 1
	EdgesDensity float64 // 0 disables early Sobel-density rejection
	Neighbors    int     // >= 0; 0 disables merge filtering
}

// window is one candidate sliding-window position at one scale.
type window struct {
	x, y, sw, sh int
	scaleIdx     int
}

// Detect runs a multi-scale Viola-Jones scan of cascade over plane and
// returns merged detections in source-image coordinates, ordered by
// scale (smallest first), then y, then x (spec.md §5).
func Detect(plane *Plane, cascade *Cascade, params DetectorParams) ([]Detection, error) {
	return DetectContext(context.Background(), plane, cascade, params)
}

// DetectContext is Detect with cancellation checked once per scale,
// never inside a window scan (spec.md §5: "no suspension points
// within the hot path").
func DetectContext(ctx context.Context, plane *Plane, cascade *Cascade, params DetectorParams) ([]Detection, error) {
	if plane.Width <= 0 || plane.Height <= 0 {
		return nil, errors.New("facekit: zero-sized image")
	}
	if params.ScaleFactor <= 1 {
		return nil, errors.New("facekit: scaleFactor must be > 1")
	}
	if params.InitialScale < 1 {
		return nil, errors.New("facekit: initialScale must be >= 1")
	}
	if cascade.WindowW <= 0 || cascade.WindowH <= 0 {
		return nil, errors.New("facekit: cascade has no window size")
	}

	outputs := IntegralOutputs{Sum: true, SumSq: true, Tilted: true}
	if params.EdgesDensity > 0 {
		outputs.Sobel = true
	}
	integrals, err := ComputeIntegralImages(plane, outputs)
	if err != nil {
		return nil, err
	}

	scales := buildScales(plane.Width, plane.Height, cascade.WindowW, cascade.WindowH, params)

	results := make([][]window, len(scales))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))

	for i, scale := range scales {
		i, scale := i, scale
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			results[i] = scanScale(plane, integrals, cascade, params, scale, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []window
	for _, r := range results {
		all = append(all, r...)
	}

	merged := mergeDetections(all, params.Neighbors)
	return merged, nil
}

// buildScales enumerates every scale at which the detection window
// still fits inside the image, per spec.md §4.4.
func buildScales(w, h, winW, winH int, params DetectorParams) []float64 {
	var scales []float64
	scale := params.InitialScale
	for int(scale*float64(winW)) <= w && int(scale*float64(winH)) <= h {
		scales = append(scales, scale)
		scale *= params.ScaleFactor
	}
	return scales
}

// scanScale slides the detection window over one scale, returning the
// windows that survive every cascade stage.
func scanScale(plane *Plane, integrals *IntegralSet, cascade *Cascade, params DetectorParams, scale float64, scaleIdx int) []window {
	sw := int(scale * float64(cascade.WindowW))
	sh := int(scale * float64(cascade.WindowH))
	step := int(params.StepSize * scale)
	if step < 1 {
		step = 1
	}

	var out []window
	for y := 0; y+sh <= plane.Height; y += step {
		for x := 0; x+sw <= plane.Width; x += step {
			if params.EdgesDensity > 0 && integrals.Sobel != nil {
				edge := integrals.Sobel.RectSum(x, y, x+sw, y+sh)
				area := float64(sw * sh)
				if area <= 0 || float64(edge)/(area*255) < params.EdgesDensity {
					continue
				}
			}

			if evalCascade(cascade, integrals, x, y, sw, sh, scale) {
				out = append(out, window{x: x, y: y, sw: sw, sh: sh, scaleIdx: scaleIdx})
			}
		}
	}
	return out
}

// evalCascade walks every stage of cascade for one window, terminating
// at the first rejecting stage (classical cascade early-out); returns
// true iff every stage passes.
func evalCascade(cascade *Cascade, integrals *IntegralSet, x, y, sw, sh int, scale float64) bool {
	area := float64(sw * sh)
	mean := float64(integrals.Sum.RectSum(x, y, x+sw, y+sh)) / area
	variance := float64(integrals.SumSq.RectSum(x, y, x+sw, y+sh))/area - mean*mean
	sigma := 1.0
	if variance > 1 {
		sigma = math.Sqrt(variance)
	}

	data := cascade.Data
	cursor := 2 // skip windowW, windowH

	for cursor < len(data) {
		stageThreshold := data[cursor]
		weakCount := int(data[cursor+1])
		cursor += 2

		var stageSum float64
		for w := 0; w < weakCount; w++ {
			tilted := data[cursor] != 0
			rectCount := int(data[cursor+1])
			cursor += 2

			var featureSum float64
			for r := 0; r < rectCount; r++ {
				rx := int(data[cursor] * scale)
				ry := int(data[cursor+1] * scale)
				rw := int(data[cursor+2] * scale)
				rh := int(data[cursor+3] * scale)
				weight := data[cursor+4]
				cursor += 5

				var sum int64
				if tilted {
					sum = integrals.Tilted.TiltedRectSum(x+rx, y+ry, rw, rh)
				} else {
					sum = integrals.Sum.RectSum(x+rx, y+ry, x+rx+rw, y+ry+rh)
				}
				featureSum += weight * float64(sum)
			}

			nodeThreshold := data[cursor]
			leafLeft := data[cursor+1]
			leafRight := data[cursor+2]
			cursor += 3

			if featureSum/area/sigma < nodeThreshold {
				stageSum += leafLeft
			} else {
				stageSum += leafRight
			}
		}

		if stageSum < stageThreshold {
			return false
		}
	}
	return true
}

// mergeDetections groups windows whose centers lie within
// min(w,h)*0.2 of each other, or whose IoU is >= 0.5, and emits the
// component-wise average rectangle of each group with at least
// neighbors+1 members. With neighbors == 0 every survivor is kept
// unmerged (one singleton group per window). Output preserves
// spec.md §5 ordering: scale ascending, then y, then x, with ties
// broken by the earliest-seen representative.
func mergeDetections(windows []window, neighbors int) []Detection {
	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].scaleIdx != windows[j].scaleIdx {
			return windows[i].scaleIdx < windows[j].scaleIdx
		}
		if windows[i].y != windows[j].y {
			return windows[i].y < windows[j].y
		}
		return windows[i].x < windows[j].x
	})

	if neighbors == 0 {
		out := make([]Detection, len(windows))
		for i, w := range windows {
			out[i] = Detection{
				Rect:      Rectangle{X: w.x, Y: w.y, Width: w.sw, Height: w.sh},
				Neighbors: 1,
			}
		}
		return out
	}

	n := len(windows)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if overlaps(windows[i], windows[j]) {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		r := find(i)
		groups[r] = append(groups[r], i)
	}

	var roots []int
	for r, members := range groups {
		if len(members) >= neighbors+1 {
			roots = append(roots, r)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		return earliestIndexIn(groups[roots[i]]) < earliestIndexIn(groups[roots[j]])
	})

	out := make([]Detection, 0, len(roots))
	for _, r := range roots {
		members := groups[r]
		var sx, sy, sw, sh float64
		for _, idx := range members {
			w := windows[idx]
			sx += float64(w.x)
			sy += float64(w.y)
			sw += float64(w.sw)
			sh += float64(w.sh)
		}
		count := float64(len(members))
		out = append(out, Detection{
			Rect: Rectangle{
				X:      int(sx / count),
				Y:      int(sy / count),
				Width:  int(sw / count),
				Height: int(sh / count),
			},
			Neighbors: len(members),
		})
	}
	return out
}

func earliestIndexIn(members []int) int {
	min := members[0]
	for _, m := range members[1:] {
		if m < min {
			min = m
		}
	}
	return min
}

// overlaps implements spec.md §4.4's merge criterion: center distance
// below min(w,h)*0.2, or IoU >= 0.5.
func overlaps(a, b window) bool {
	acx, acy := float64(a.x+a.sw/2), float64(a.y+a.sh/2)
	bcx, bcy := float64(b.x+b.sw/2), float64(b.y+b.sh/2)
	dx, dy := acx-bcx, acy-bcy
	dist := math.Sqrt(dx*dx + dy*dy)

	minSide := a.sw
	if a.sh < minSide {
		minSide = a.sh
	}
	if b.sw < minSide {
		minSide = b.sw
	}
	if b.sh < minSide {
		minSide = b.sh
	}
	if dist < float64(minSide)*0.2 {
		return true
	}
	return iou(a, b) >= 0.5
}

func iou(a, b window) float64 {
	ax1, ay1, ax2, ay2 := a.x, a.y, a.x+a.sw, a.y+a.sh
	bx1, by1, bx2, by2 := b.x, b.y, b.x+b.sw, b.y+b.sh

	ix1, iy1 := max2(ax1, bx1), max2(ay1, by1)
	ix2, iy2 := min2(ax2, bx2), min2(ay2, by2)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := float64((ix2 - ix1) * (iy2 - iy1))
	areaA := float64(a.sw * a.sh)
	areaB := float64(b.sw * b.sh)
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func max2(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}
