package dpc

import (
	"fmt"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
)

// Stats counts kernel decisions over a frame.
type Stats struct {
	Pixels          int
	NotOutlier      int
	WithinThreshold int
	Corrected       [numDirections]int
}

// Add records one decision.
func (s *Stats) Add(d Decision) {
	s.Pixels++
	switch d.Outcome {
	case NotOutlier:
		s.NotOutlier++
	case WithinThreshold:
		s.WithinThreshold++
	case Corrected:
		s.Corrected[d.Direction]++
	}
}

// TotalCorrected returns the number of replaced pixels.
func (s Stats) TotalCorrected() int {
	n := 0
	for _, c := range s.Corrected {
		n += c
	}
	return n
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("pixels=%d corrected=%d (v=%d h=%d dl=%d dr=%d) not_outlier=%d within_threshold=%d",
		s.Pixels, s.TotalCorrected(),
		s.Corrected[Vertical], s.Corrected[Horizontal], s.Corrected[MainDiagonal], s.Corrected[AntiDiagonal],
		s.NotOutlier, s.WithinThreshold)
}

// Process runs correction over a fully materialized image and returns a new
// image. Every window is read from the unmodified input, so the result does
// not depend on visiting order.
//
// When cfg.Enable is false the result is a copy of img and the stats count
// pixels only.
func Process(img *pixel.Image, cfg Config) (*pixel.Image, Stats, error) {
	var st Stats
	if err := cfg.Validate(); err != nil {
		return nil, st, err
	}
	if err := img.Validate(); err != nil {
		return nil, st, fmt.Errorf("dpc: %w", err)
	}

	out := img.Clone()
	if !cfg.Enable {
		st.Pixels = len(img.Pix)
		return out, st, nil
	}

	thr := cfg.threshold()
	var n Neighborhood
	for y := 0; y < img.Height; y++ {
		row := out.Row(y)
		for x := 0; x < img.Width; x++ {
			n.Load(img, x, y)
			v, d := Correct(&n, thr)
			st.Add(d)
			row[x] = uint16(v)
		}
	}
	return out, st, nil
}
