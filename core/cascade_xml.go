package facekit

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// xmlStorage mirrors the OpenCV Haar-cascade XML schema described in
// spec.md §3/§4.3/§6: root opencv_storage/cascade with width, height,
// a stages list and a features list, each entry spelled "_" per the
// OpenCV convention for anonymous sequence elements.
type xmlStorage struct {
	Cascade xmlCascade `xml:"cascade"`
}

type xmlCascade struct {
	Width    int             `xml:"width"`
	Height   int             `xml:"height"`
	Stages   []xmlStage      `xml:"stages>_"`
	Features []xmlFeatureRef `xml:"features>_"`
}

type xmlStage struct {
	StageThreshold  string         `xml:"stageThreshold"`
	WeakClassifiers []xmlWeakClass `xml:"weakClassifiers>_"`
}

type xmlWeakClass struct {
	InternalNodes string `xml:"internalNodes"`
	LeafValues    string `xml:"leafValues"`
}

type xmlFeatureRef struct {
	Rects  []string `xml:"rects>_"`
	Tilted string   `xml:"tilted"`
}

// feature is the decoded form of an xmlFeatureRef. The XML <tilted>
// element itself is ignored: spec.md §4.3 takes the authoritative
// tilted flag from each weak classifier's internalNodes[0] instead.
type feature struct {
	rects [][5]float64
}

// LoadCascadeXML parses an OpenCV Haar-cascade XML document into the
// flat numeric Cascade layout spec.md §3 defines. Malformed XML,
// missing required fields, or non-numeric tokens where numbers are
// required are reported as a single wrapped error; no partial cascade
// is ever returned.
func LoadCascadeXML(r io.Reader) (*Cascade, error) {
	var storage xmlStorage
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&storage); err != nil {
		return nil, errors.Wrap(err, "facekit: malformed cascade xml")
	}

	c := storage.Cascade
	if c.Width <= 0 || c.Height <= 0 {
		return nil, errors.New("facekit: cascade xml missing width/height")
	}
	if len(c.Stages) == 0 {
		return nil, errors.New("facekit: cascade xml has no stages")
	}

	features := make([]feature, len(c.Features))
	for i, fr := range c.Features {
		f, err := decodeFeature(fr)
		if err != nil {
			return nil, errors.Wrapf(err, "facekit: feature %d", i)
		}
		features[i] = f
	}

	data := []float64{float64(c.Width), float64(c.Height)}

	for si, stage := range c.Stages {
		threshold, err := parseFloat(stage.StageThreshold)
		if err != nil {
			return nil, errors.Wrapf(err, "facekit: stage %d threshold", si)
		}
		data = append(data, threshold, float64(len(stage.WeakClassifiers)))

		for wi, weak := range stage.WeakClassifiers {
			nodes, err := parseFloats(weak.InternalNodes)
			if err != nil {
				return nil, errors.Wrapf(err, "facekit: stage %d weak %d internalNodes", si, wi)
			}
			if len(nodes) < 4 {
				return nil, errors.Errorf("facekit: stage %d weak %d internalNodes has %d tokens, want 4", si, wi, len(nodes))
			}
			// internalNodes = [tilted, _unused, featureIndex, nodeThreshold]
			tilted := nodes[0]
			featureIndex := int(nodes[2])
			nodeThreshold := nodes[3]

			if featureIndex < 0 || featureIndex >= len(features) {
				return nil, errors.Errorf("facekit: stage %d weak %d feature index %d out of range", si, wi, featureIndex)
			}
			f := features[featureIndex]

			leaves, err := parseFloats(weak.LeafValues)
			if err != nil {
				return nil, errors.Wrapf(err, "facekit: stage %d weak %d leafValues", si, wi)
			}
			if len(leaves) < 2 {
				return nil, errors.Errorf("facekit: stage %d weak %d leafValues has %d tokens, want 2", si, wi, len(leaves))
			}

			data = append(data, tilted, float64(len(f.rects)))
			for _, rect := range f.rects {
				data = append(data, rect[0], rect[1], rect[2], rect[3], rect[4])
			}
			data = append(data, nodeThreshold, leaves[0], leaves[1])
		}
	}

	return NewCascade(data), nil
}

// LoadCascadeFile is a convenience wrapper for loading a cascade from
// a local filesystem path; remote sources go through cascadesrc, which
// only ever hands C3 an io.Reader.
func LoadCascadeFile(path string) (*Cascade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "facekit: opening cascade file %s", path)
	}
	defer f.Close()
	return LoadCascadeXML(f)
}

func decodeFeature(fr xmlFeatureRef) (feature, error) {
	if len(fr.Rects) == 0 {
		return feature{}, errors.New("facekit: feature has no rects")
	}
	rects := make([][5]float64, len(fr.Rects))
	for i, raw := range fr.Rects {
		vals, err := parseFloats(raw)
		if err != nil {
			return feature{}, errors.Wrapf(err, "rect %d", i)
		}
		if len(vals) < 5 {
			return feature{}, errors.Errorf("rect %d has %d tokens, want 5", i, len(vals))
		}
		rects[i] = [5]float64{vals[0], vals[1], vals[2], vals[3], vals[4]}
	}
	return feature{rects: rects}, nil
}

// parseFloats splits whitespace-separated numeric tokens, matching the
// "explicit-array handling off; numeric coercion best-effort per
// token" policy of spec.md §6.
func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "token %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
