package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"

	"github.com/facekit/facekit/cascadesrc"
	core "github.com/facekit/facekit/core"
)

type detectFlags struct {
	source, destination string
	cascadeFile          string
	initialScale, scaleFactor, stepSize, edgesDensity float64
	neighbors                                         int
	jsonPath                                           string
	noDraw                                             bool
}

func newDetectCmd() *cobra.Command {
	var fl detectFlags

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect faces in an image and draw the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(fl)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fl.source, "in", pipeName, "source image")
	f.StringVar(&fl.destination, "out", pipeName, "destination image with detections drawn")
	f.StringVar(&fl.cascadeFile, "cascade", "", "face cascade XML file, local path or s3://bucket/key")
	f.Float64Var(&fl.initialScale, "initial-scale", 1.0, "smallest detection window scale")
	f.Float64Var(&fl.scaleFactor, "scale", 1.15, "scale step between successive passes")
	f.Float64Var(&fl.stepSize, "step", 1.5, "sliding window step as a multiple of scale")
	f.Float64Var(&fl.edgesDensity, "edges-density", 0, "minimum edge density required before full cascade evaluation (0 disables)")
	f.IntVar(&fl.neighbors, "neighbors", 1, "minimum overlapping detections required to keep a merged group")
	f.StringVar(&fl.jsonPath, "json", "", "write detections as JSON to this path (- for stdout)")
	f.BoolVar(&fl.noDraw, "no-draw", false, "skip writing the overlay image, reporting detections only")
	cmd.MarkFlagRequired("cascade")

	return cmd
}

func runDetect(fl detectFlags) error {
	start := time.Now()
	status := startStage("Detecting faces")
	fail := status.fail

	plane, img, err := openSource(fl.source)
	if err != nil {
		return fail(err)
	}

	src := &cascadesrc.Source{}
	r, err := src.Open(fl.cascadeFile)
	if err != nil {
		return fail(err)
	}
	defer r.Close()
	cascade, err := core.LoadCascadeXML(r)
	if err != nil {
		return fail(err)
	}

	dets, err := core.Detect(plane, cascade, core.DetectorParams{
		InitialScale: fl.initialScale,
		ScaleFactor:  fl.scaleFactor,
		StepSize:     fl.stepSize,
		EdgesDensity: fl.edgesDensity,
		Neighbors:    fl.neighbors,
	})
	if err != nil {
		return fail(err)
	}
	slog.Debug("detect complete", "count", len(dets), "elapsed", time.Since(start))
	status.succeed()

	if !fl.noDraw {
		if err := drawAndEncode(img, dets, fl.destination); err != nil {
			return err
		}
	}
	if fl.jsonPath != "" {
		if err := writeDetectionsJSON(dets, fl.jsonPath); err != nil {
			return err
		}
	}

	fmt.Printf("%s%d%s face(s) detected in %.2fs\n", successColor, len(dets), defaultColor, time.Since(start).Seconds())
	return nil
}

func drawAndEncode(img image.Image, dets []core.Detection, destination string) error {
	dc := gg.NewContextForImage(img)
	dc.SetLineWidth(2.0)
	dc.SetStrokeStyle(gg.NewSolidPattern(color.RGBA{R: 255, A: 255}))
	for _, d := range dets {
		dc.DrawRectangle(float64(d.Rect.X), float64(d.Rect.Y), float64(d.Rect.Width), float64(d.Rect.Height))
	}
	dc.Stroke()

	w, format, err := openDestination(destination)
	if err != nil {
		return err
	}
	defer w.Close()

	switch format {
	case "png":
		return png.Encode(w, dc.Image())
	default:
		return jpeg.Encode(w, dc.Image(), &jpeg.Options{Quality: 95})
	}
}

func writeDetectionsJSON(dets []core.Detection, path string) error {
	var w *os.File
	if path == pipeName {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return json.NewEncoder(w).Encode(dets)
}
