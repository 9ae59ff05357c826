package main

import (
	"context"
	"image/jpeg"
	"image/png"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/facekit/facekit/cascadesrc"
	core "github.com/facekit/facekit/core"
)

type alignFlags struct {
	source, destination string
	faceCascade          string
	eyeCascade           string
	destSize             int
	refineEyes           bool
}

func newAlignCmd() *cobra.Command {
	var fl alignFlags

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Detect a face, locate its eyes and write a normalized crop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlign(fl)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fl.source, "in", pipeName, "source image")
	f.StringVar(&fl.destination, "out", pipeName, "destination normalized crop")
	f.StringVar(&fl.faceCascade, "face-cascade", "", "face cascade XML file, local path or s3://bucket/key")
	f.StringVar(&fl.eyeCascade, "eye-cascade", "", "eye cascade XML file; if omitted, the gradient-projection fallback is used")
	f.IntVar(&fl.destSize, "size", core.DefaultDestSize, "normalized crop side, in pixels")
	f.BoolVar(&fl.refineEyes, "refine-eyes", false, "refine the gradient-projection fallback with a perturbation ensemble")
	cmd.MarkFlagRequired("face-cascade")

	return cmd
}

func runAlign(fl alignFlags) error {
	start := time.Now()
	status := startStage("Aligning face")
	fail := status.fail

	plane, _, err := openSource(fl.source)
	if err != nil {
		return fail(err)
	}

	src := &cascadesrc.Source{}
	faceCascade, err := loadCascade(src, fl.faceCascade)
	if err != nil {
		return fail(err)
	}

	var eyeCascade *core.Cascade
	if fl.eyeCascade != "" {
		eyeCascade, err = loadCascade(src, fl.eyeCascade)
		if err != nil {
			return fail(err)
		}
	}

	pl := &core.Pipeline{
		FaceCascade: faceCascade,
		DetectorParams: core.DetectorParams{
			InitialScale: 1,
			ScaleFactor:  1.15,
			StepSize:     1.5,
			Neighbors:    1,
		},
		EyeLocalizer: &core.EyeLocalizer{
			EyeCascade: eyeCascade,
			Refine:     fl.refineEyes,
			DetectorParams: core.DetectorParams{
				InitialScale: 1,
				ScaleFactor:  1.1,
				StepSize:     1,
				Neighbors:    1,
			},
		},
		DestSize: fl.destSize,
	}

	res, err := pl.Run(context.Background(), plane)
	if err != nil {
		return fail(err)
	}
	slog.Debug("align complete", "angle", res.Angle, "distance", res.Distance, "elapsed", time.Since(start))
	status.succeed()

	w, format, err := openDestination(fl.destination)
	if err != nil {
		return err
	}
	defer w.Close()

	img := res.NormalizedCrop.ToGray()
	if format == "png" {
		return png.Encode(w, img)
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
}

func loadCascade(src *cascadesrc.Source, ref string) (*core.Cascade, error) {
	r, err := src.Open(ref)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return core.LoadCascadeXML(r)
}
