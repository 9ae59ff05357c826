package facekit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrNoFace is returned when no face is found above the configured
// confidence in the source image.
var ErrNoFace = errors.New("facekit: no face detected")

// Pipeline glues face detection, eye localization and normalization
// into the single synchronous call spec.md §4.7 describes.
type Pipeline struct {
	FaceCascade    *Cascade
	DetectorParams DetectorParams
	EyeLocalizer   *EyeLocalizer
	Offset         OffsetPercent
	DestSize       int
	Logger         *slog.Logger
}

// Result is the pipeline's output: the chosen face, its eyes, the
// inter-ocular distance and rotation angle used by the normalizer,
// and the normalized crop itself.
type Result struct {
	Face           Rectangle
	Eyes           Eyes
	Distance       float64
	Angle          float64
	NormalizedCrop *Plane
}

// Run executes the full detect -> localize -> normalize pipeline.
// ctx is handed to the face scan, which checks it once per scale, and is
// checked again between the detect and localize stages; nothing checks
// it inside a single scale's window scan.
func (pl *Pipeline) Run(ctx context.Context, plane *Plane) (*Result, error) {
	runID := uuid.New()
	logger := pl.logger()
	start := time.Now()

	offset := pl.Offset
	if offset.X == 0 && offset.Y == 0 {
		offset = DefaultOffsetPercent
	}
	destSize := pl.DestSize
	if destSize == 0 {
		destSize = DefaultDestSize
	}

	faces, err := DetectContext(ctx, plane, pl.FaceCascade, pl.DetectorParams)
	if err != nil {
		return nil, err
	}
	logger.Debug("face scan complete", "run", runID, "candidates", len(faces), "elapsed", time.Since(start))

	if len(faces) == 0 {
		return nil, ErrNoFace
	}
	face := largestFace(faces)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eyes, err := pl.EyeLocalizer.Locate(plane, face.Rect)
	if err != nil {
		logger.Debug("eye localization failed", "run", runID, "err", err)
		return nil, err
	}
	logger.Debug("eye localization complete", "run", runID, "left", eyes.Left, "right", eyes.Right)

	norm, err := Normalize(plane, eyes.Left, eyes.Right, offset, destSize)
	if err != nil {
		return nil, err
	}

	logger.Debug("pipeline complete", "run", runID, "elapsed", time.Since(start))
	return &Result{
		Face:           face.Rect,
		Eyes:           eyes,
		Distance:       norm.Distance,
		Angle:          norm.Angle,
		NormalizedCrop: norm.Crop,
	}, nil
}

func (pl *Pipeline) logger() *slog.Logger {
	if pl.Logger != nil {
		return pl.Logger
	}
	return slog.Default()
}

// largestFace picks the strictly-largest-area detection, ties broken
// by earliest in the detector's output order (spec.md §5).
func largestFace(faces []Detection) Detection {
	best := faces[0]
	bestArea := best.Rect.Width * best.Rect.Height
	for _, f := range faces[1:] {
		a := f.Rect.Width * f.Rect.Height
		if a > bestArea {
			best = f
			bestArea = a
		}
	}
	return best
}
