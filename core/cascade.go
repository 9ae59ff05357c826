package facekit

import (
	"encoding/json"
	"hash/fnv"
	"math"
)

// Cascade is the immutable, flat numeric representation of a trained
// Haar classifier, laid out exactly as spec.md §3 describes:
//
//	[ windowW, windowH,
//	  for each stage:
//	    stageThreshold, weakCount,
//	    for each weak classifier:
//	      tilted, rectCount,
//	      for each rect: x, y, w, h, weight
//	      nodeThreshold, leafLeft, leafRight ]
//
// No per-node objects exist at runtime; the detector walks Data by
// cursor. A Cascade is read-only after construction and may be shared
// across concurrent detections without synchronization.
type Cascade struct {
	Data     []float64
	WindowW  int
	WindowH  int
	checksum uint64
}

// NewCascade wraps a pre-built flat array, as produced by the XML
// loader (C3) or by UnmarshalCascadeJSON.
func NewCascade(data []float64) *Cascade {
	c := &Cascade{Data: data}
	if len(data) >= 2 {
		c.WindowW = int(data[0])
		c.WindowH = int(data[1])
	}
	return c
}

// Checksum returns the FNV-1a hash of the cascade's flat array,
// computed on the first call and memoized. Nothing in this module uses
// it as a cache key; cascadesrc caches by bucket/key path.
func (c *Cascade) Checksum() uint64 {
	if c.checksum != 0 {
		return c.checksum
	}
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, v := range c.Data {
		bits := math.Float64bits(v)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf)
	}
	c.checksum = h.Sum64()
	return c.checksum
}

// MarshalJSON emits the stable cross-process wire form described in
// spec.md §6: a plain JSON array of numbers in the §3 layout.
func (c *Cascade) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Data)
}

// UnmarshalCascadeJSON parses the JSON array wire form back into a
// Cascade.
func UnmarshalCascadeJSON(b []byte) (*Cascade, error) {
	var data []float64
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return NewCascade(data), nil
}
