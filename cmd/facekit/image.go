package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	core "github.com/facekit/facekit/core"
)

// pipeName is the flag value that means "use the standard stream
// instead of a named file", matching the teacher's cmd/pigo convention.
const pipeName = "-"

// openSource resolves the -in flag into a grayscale Plane, reading
// from stdin when path is pipeName. decoded carries the original
// image so commands that draw an overlay can reuse its pixels.
func openSource(path string) (*core.Plane, image.Image, error) {
	var r io.Reader
	if path == pipeName {
		if isTerminal(os.Stdin) {
			return nil, nil, fmt.Errorf("facekit: %q should be used with a pipe for stdin", pipeName)
		}
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		r = f
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, nil, fmt.Errorf("facekit: decoding %s: %w", path, err)
	}
	plane, err := core.PlaneFromImage(img)
	if err != nil {
		return nil, nil, err
	}
	return plane, img, nil
}

// openDestination resolves the -out flag into a writer plus the image
// format implied by its extension (or jpeg if writing to a pipe).
func openDestination(path string) (io.WriteCloser, string, error) {
	if path == pipeName {
		if isTerminal(os.Stdout) {
			return nil, "", fmt.Errorf("facekit: %q should be used with a pipe for stdout", pipeName)
		}
		return nopCloser{os.Stdout}, "jpeg", nil
	}

	switch ext := filepath.Ext(path); ext {
	case ".png":
		f, err := os.Create(path)
		return f, "png", err
	case ".jpg", ".jpeg", "":
		f, err := os.Create(path)
		return f, "jpeg", err
	default:
		return nil, "", fmt.Errorf("facekit: unsupported output extension %q", ext)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
