package facekit

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// OffsetPercent expresses crop padding as a fraction of the
// inter-ocular distance, per spec.md §4.6/§6.
type OffsetPercent struct {
	X, Y float64
}

// DefaultOffsetPercent is the spec's default padding, 0.5 on each
// axis.
var DefaultOffsetPercent = OffsetPercent{X: 0.5, Y: 0.5}

// DefaultDestSize is the spec's default normalized crop side, 150.
const DefaultDestSize = 150

// NormalizeResult carries the normalized crop plus the geometry used
// to produce it, useful for the pipeline façade's reporting.
type NormalizeResult struct {
	Crop     *Plane
	Angle    float64 // radians, as computed before de-rotation
	Distance float64 // inter-ocular distance in source pixels
}

// Normalize rotates, translates and scales plane so eyeLeft/eyeRight
// lie on a canonical horizontal line, then crops and resizes to a
// destSize x destSize square, per spec.md §4.6. Padding outside the
// source image is white (luminance 255).
func Normalize(plane *Plane, eyeLeft, eyeRight Point, offset OffsetPercent, destSize int) (*NormalizeResult, error) {
	if destSize <= 0 {
		return nil, errors.New("facekit: destSize must be positive")
	}

	angle := Angle(eyeLeft, eyeRight, false)
	cx, cy := CenterF(eyeLeft, eyeRight)
	dist := Distance(eyeLeft, eyeRight)

	if dist == 0 {
		return &NormalizeResult{Crop: whitePlane(destSize), Angle: angle, Distance: 0}, nil
	}

	rotated, pivotX, pivotY := rotateAboutPoint(plane, cx, cy, -angle)

	xLRot := pivotX - dist/2
	yLRot := pivotY

	offX := math.Round(offset.X * dist)
	offY := math.Round(offset.Y * dist)
	edge := int(math.Round(dist + 2*offX))
	if edge <= 0 {
		return &NormalizeResult{Crop: whitePlane(destSize), Angle: angle, Distance: dist}, nil
	}

	cropX := int(math.Round(xLRot - offX))
	cropY := int(math.Round(yLRot - offY))

	canvas := whitePlane(edge)
	// canvas[i,j] must read rotated[cropX+i, cropY+j], so the source is
	// pasted at the negated crop origin; pixels of the window that fall
	// outside rotated are left at canvas's white fill.
	pasteClamped(canvas, rotated, -cropX, -cropY)

	resized := resizeBilinear(canvas, destSize, destSize)
	return &NormalizeResult{Crop: resized, Angle: angle, Distance: dist}, nil
}

// whitePlane allocates a side x side plane filled with luminance 255.
func whitePlane(side int) *Plane {
	if side < 0 {
		side = 0
	}
	p := &Plane{Pix: make([]uint8, side*side), Width: side, Height: side}
	for i := range p.Pix {
		p.Pix[i] = 255
	}
	return p
}

// rotateAboutPoint rotates plane by angle radians about (px, py),
// keeping (px, py) fixed at the result's own center by first pasting
// the source onto a white canvas large enough that the pivot sits at
// its center, then delegating the actual rotation to
// disintegration/imaging's center-pivot Rotate, matching the
// teacher's own use of imaging.Rotate in cmd/pigo/main.go. It returns
// the rotated plane along with the pivot's coordinates in the result.
func rotateAboutPoint(plane *Plane, px, py float64, angle float64) (*Plane, float64, float64) {
	half := plane.Width
	if plane.Height > half {
		half = plane.Height
	}
	canvasSide := 2 * half
	canvas := whitePlane(canvasSide)

	offsetX := canvasSide/2 - int(math.Round(px))
	offsetY := canvasSide/2 - int(math.Round(py))
	pasteClamped(canvas, plane, offsetX, offsetY)

	img := canvas.ToGray()
	degrees := -angle * 180 / math.Pi
	rotatedImg := imaging.Rotate(img, degrees, color.White)

	rotatedPlane, err := PlaneFromImage(rotatedImg)
	if err != nil {
		return canvas, float64(canvasSide) / 2, float64(canvasSide) / 2
	}
	return rotatedPlane, float64(rotatedPlane.Width) / 2, float64(rotatedPlane.Height) / 2
}

// pasteClamped copies src into dst at (x, y), clipping to dst's
// bounds; pixels of src that land outside dst are silently dropped.
func pasteClamped(dst, src *Plane, x, y int) {
	for sy := 0; sy < src.Height; sy++ {
		dy := y + sy
		if dy < 0 || dy >= dst.Height {
			continue
		}
		for sx := 0; sx < src.Width; sx++ {
			dx := x + sx
			if dx < 0 || dx >= dst.Width {
				continue
			}
			dst.Pix[dy*dst.Width+dx] = src.Pix[sy*src.Width+sx]
		}
	}
}

// resizeBilinear scales src to w x h using golang.org/x/image/draw's
// bilinear scaler, the direct idiomatic match for spec.md §4.6 step 5.
func resizeBilinear(src *Plane, w, h int) *Plane {
	srcImg := src.ToGray()
	dstImg := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Over, nil)

	out, _ := NewPlane(w, h)
	copy(out.Pix, dstImg.Pix)
	return out
}
