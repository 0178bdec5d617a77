// Package dpc implements dynamic defect pixel correction.
//
// A pixel is treated as defective when it lies strictly outside the range of
// its eight distance-2 neighbors and differs from every one of its eight
// immediate neighbors by more than a threshold. A defective pixel is
// replaced by the truncating average of the two immediate neighbors along
// the direction of smallest second-order gradient, with ties resolved in
// the order vertical, horizontal, main diagonal, anti diagonal.
//
// The same per-pixel kernel drives both the batch path (Process), which has
// random access to the frame, and the streaming path (Streamer), which sees
// one pixel at a time through a bounded line buffer.
package dpc

import (
	"fmt"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/window"
)

// Config controls the correction stage.
type Config struct {
	Enable    bool
	Threshold int
}

// Validate reports a negative threshold as a *pixel.ConfigError.
func (c Config) Validate() error {
	if c.Threshold < 0 {
		return &pixel.ConfigError{Field: "dpc threshold", Msg: fmt.Sprintf("%d must be non-negative", c.Threshold)}
	}
	return nil
}

// Every absolute difference between two 16-bit samples is below this, so a
// larger threshold behaves identically and the value fits int32.
const thresholdCap = 1 << 16

func (c Config) threshold() int32 {
	if c.Threshold > thresholdCap {
		return thresholdCap
	}
	return int32(c.Threshold)
}

// Direction is a correction direction, in tie-break order.
type Direction int

const (
	Vertical Direction = iota
	Horizontal
	MainDiagonal
	AntiDiagonal
	numDirections
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	case MainDiagonal:
		return "main diagonal"
	case AntiDiagonal:
		return "anti diagonal"
	default:
		return "Unknown"
	}
}

// pairs maps a direction to the two set positions it averages or
// differentiates. Outer and Inner share the layout.
var pairs = [numDirections][2]int{
	Vertical:     {window.Up, window.Down},
	Horizontal:   {window.Left, window.Right},
	MainDiagonal: {window.UpLeft, window.DownRight},
	AntiDiagonal: {window.UpRight, window.DownLeft},
}

// Outcome classifies what the kernel did with one pixel.
type Outcome int

const (
	// NotOutlier means the center lies within the outer neighbor range.
	NotOutlier Outcome = iota
	// WithinThreshold means some immediate neighbor is within the threshold.
	WithinThreshold
	// Corrected means the pixel was replaced.
	Corrected
)

// Decision is the kernel verdict for one pixel.
type Decision struct {
	Outcome Outcome
	// Direction is meaningful only when Outcome is Corrected.
	Direction Direction
}

// Neighborhood is the window the kernel operates on.
type Neighborhood struct {
	Center int32
	Outer  [8]int32
	Inner  [8]int32
}

// Load fills n from src around (x, y) with clamp-to-edge extension.
func (n *Neighborhood) Load(src window.Source, x, y int) {
	n.Center = int32(src.Pixel(x, y))
	window.Gather(&n.Outer, src, x, y, &window.Outer)
	window.Gather(&n.Inner, src, x, y, &window.Inner)
}

// Correct applies detection and correction to a loaded neighborhood.
func Correct(n *Neighborhood, threshold int32) (int32, Decision) {
	c := n.Center

	lo, hi := n.Outer[0], n.Outer[0]
	for _, v := range n.Outer[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if c >= lo && c <= hi {
		return c, Decision{Outcome: NotOutlier}
	}

	for _, v := range n.Inner {
		if abs(c-v) <= threshold {
			return c, Decision{Outcome: WithinThreshold}
		}
	}

	best := Vertical
	var bestGrad int32
	for d := Vertical; d < numDirections; d++ {
		p := pairs[d]
		g := abs(2*c - n.Outer[p[0]] - n.Outer[p[1]])
		if d == Vertical || g < bestGrad {
			best, bestGrad = d, g
		}
	}

	p := pairs[best]
	return (n.Inner[p[0]] + n.Inner[p[1]]) / 2, Decision{Outcome: Corrected, Direction: best}
}

// CorrectAt runs the kernel on the pixel at (x, y) of src.
func CorrectAt(src window.Source, x, y int, cfg Config) (uint16, Decision) {
	var n Neighborhood
	n.Load(src, x, y)
	v, d := Correct(&n, cfg.threshold())
	return uint16(v), d
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
