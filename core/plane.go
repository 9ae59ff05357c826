package facekit

import (
	"errors"
	"image"
	"image/color"
)

// Plane is a dense, row-major 8-bit luminance buffer. It is the
// fundamental pixel representation consumed by every other primitive in
// this package: grayscale conversion produces one, the detector scans
// one, the normalizer crops and resizes one.
type Plane struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewPlane allocates a zeroed plane of the given size.
func NewPlane(w, h int) (*Plane, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New("facekit: plane dimensions must be positive")
	}
	return &Plane{Pix: make([]uint8, w*h), Width: w, Height: h}, nil
}

// At returns the luminance sample at (x, y), or 0 outside the plane.
func (p *Plane) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return 0
	}
	return p.Pix[y*p.Width+x]
}

// Grayscale converts an interleaved RGBA byte buffer to an 8-bit
// luminance plane using the BT.601 integer approximation
// (R*13933 + G*46871 + B*4732) >> 16, which agrees with the float form
// 0.299R + 0.587G + 0.114B within +/-1 per channel.
func Grayscale(rgba []byte, w, h int) (*Plane, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New("facekit: zero-sized image")
	}
	if len(rgba) < w*h*4 {
		return nil, errors.New("facekit: rgba buffer too small for dimensions")
	}
	pix := make([]uint8, w*h)
	for i := 0; i < w*h; i++ {
		r := uint32(rgba[i*4+0])
		g := uint32(rgba[i*4+1])
		b := uint32(rgba[i*4+2])
		pix[i] = uint8((r*13933 + g*46871 + b*4732) >> 16)
	}
	return &Plane{Pix: pix, Width: w, Height: h}, nil
}

// GrayscaleRGBA converts an interleaved RGBA buffer to an RGBA buffer in
// which R=G=B=luma and the source alpha channel is preserved.
func GrayscaleRGBA(rgba []byte, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New("facekit: zero-sized image")
	}
	if len(rgba) < w*h*4 {
		return nil, errors.New("facekit: rgba buffer too small for dimensions")
	}
	out := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		r := uint32(rgba[i*4+0])
		g := uint32(rgba[i*4+1])
		b := uint32(rgba[i*4+2])
		luma := uint8((r*13933 + g*46871 + b*4732) >> 16)
		out[i*4+0] = luma
		out[i*4+1] = luma
		out[i*4+2] = luma
		out[i*4+3] = rgba[i*4+3]
	}
	return out, nil
}

// PlaneFromImage adapts a decoded image.Image into a luminance Plane.
// Decoding the source bytes into an image.Image is the caller's
// responsibility; ToGray and ToNRGBA convert a Plane back into standard
// image types.
func PlaneFromImage(img image.Image) (*Plane, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("facekit: zero-sized image")
	}
	p, err := NewPlane(w, h)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// RGBA() returns 16-bit-per-channel premultiplied values.
			r8, g8, b8 := r>>8, g>>8, b>>8
			p.Pix[y*w+x] = uint8((r8*13933 + g8*46871 + b8*4732) >> 16)
		}
	}
	return p, nil
}

// ToGray renders the plane as a standard library *image.Gray, useful
// when handing a result to an encoder or to another image/* consumer.
func (p *Plane) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	copy(img.Pix, p.Pix)
	return img
}

// ToNRGBA renders the plane as an opaque grayscale *image.NRGBA.
func (p *Plane) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i, v := range p.Pix {
		img.Set(i%p.Width, i/p.Width, color.Gray{Y: v})
	}
	return img
}

// Clone returns a deep copy of the plane.
func (p *Plane) Clone() *Plane {
	out := &Plane{Pix: make([]uint8, len(p.Pix)), Width: p.Width, Height: p.Height}
	copy(out.Pix, p.Pix)
	return out
}
