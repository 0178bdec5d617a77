// Package linebuf implements a raster-order streaming window engine.
//
// An Engine accepts one pixel per step and, once the full clamp-extended
// neighborhood of a focus pixel has arrived, evaluates a kernel on it. Only
// a small ring of rows is kept, so memory is proportional to the image width
// and independent of its height.
//
// The engine has a fixed latency: the output for raster index n is produced
// on the step that consumes input n+Latency. Outputs whose window would need
// input beyond the end of the frame are produced by input-less Drain steps,
// using the same clamp-to-edge rule as a full-frame sampler.
package linebuf

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/window"
)

var (
	// ErrFrameComplete is returned by a step after the frame is finished.
	ErrFrameComplete = errors.New("linebuf: frame already complete")
	// ErrFrameIncomplete is returned by Drain before the last input pixel.
	ErrFrameIncomplete = errors.New("linebuf: frame input not complete")
)

// State is the engine's position in the frame.
type State int

const (
	// Filling means inputs are accepted but no output is ready yet.
	Filling State = iota
	// Steady means every input step produces one output.
	Steady
	// Draining means all input has arrived and outputs remain.
	Draining
	// Done means every output has been produced.
	Done
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Filling:
		return "filling"
	case Steady:
		return "steady"
	case Draining:
		return "draining"
	case Done:
		return "done"
	default:
		return "Unknown"
	}
}

// Kernel computes the output for the focus pixel (x, y). src exposes the
// buffered rows with the full frame geometry; reading a pixel that is not
// buffered panics.
type Kernel func(src window.Source, x, y int) uint16

// Output is one produced pixel.
type Output struct {
	X, Y  int
	Value uint16
}

// Engine is a single-frame streaming window engine. It is not safe for
// concurrent use.
type Engine struct {
	width, height int
	radius        int
	latency       int
	depth         int
	kernel        Kernel

	ring []uint16 // depth rows of width samples; row y lives in slot y%depth

	in  int // inputs consumed
	out int // outputs produced
}

// New returns an engine for a width x height frame that evaluates k on
// windows of the given radius.
func New(width, height, radius int, k Kernel) (*Engine, error) {
	if err := pixel.CheckDimensions(width, height); err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, &pixel.ConfigError{Field: "window radius", Msg: fmt.Sprintf("%d must be non-negative", radius)}
	}
	if k == nil {
		return nil, &pixel.ConfigError{Field: "kernel", Msg: "must not be nil"}
	}

	e := &Engine{
		width:   width,
		height:  height,
		radius:  radius,
		latency: radius*width + radius,
		depth:   Depth(width, radius),
		kernel:  k,
	}
	e.ring = make([]uint16, e.depth*width)
	return e, nil
}

// Depth returns the number of rows an engine keeps for a given width and
// window radius.
//
// When input n+Latency is being written, the focus row f=n/W still needs
// row f-radius, and the row being written is f+radius plus one more when
// the column offset wraps past the end of the row.
func Depth(width, radius int) int {
	return 2*radius + 1 + (width-1+radius)/width
}

// Latency returns the number of input steps between consuming a pixel and
// producing the output at the same raster index.
func (e *Engine) Latency() int {
	return e.latency
}

// Depth returns the number of buffered rows.
func (e *Engine) Depth() int {
	return e.depth
}

// State returns the engine's current state.
func (e *Engine) State() State {
	total := e.width * e.height
	switch {
	case e.out == total:
		return Done
	case e.in == total:
		return Draining
	case e.out > 0:
		return Steady
	default:
		return Filling
	}
}

// Push consumes the next raster pixel. It returns an output once the
// engine is past its latency.
func (e *Engine) Push(v uint16) (Output, bool, error) {
	total := e.width * e.height
	if e.in == total {
		return Output{}, false, ErrFrameComplete
	}

	y, x := e.in/e.width, e.in%e.width
	e.ring[(y%e.depth)*e.width+x] = v
	e.in++

	if e.in-1 < e.latency {
		return Output{}, false, nil
	}
	return e.emit(), true, nil
}

// Drain produces the next output after the last input pixel has arrived.
func (e *Engine) Drain() (Output, bool, error) {
	total := e.width * e.height
	switch {
	case e.out == total:
		return Output{}, false, ErrFrameComplete
	case e.in < total:
		return Output{}, false, ErrFrameIncomplete
	}
	return e.emit(), true, nil
}

func (e *Engine) emit() Output {
	x, y := e.out%e.width, e.out/e.width
	v := e.kernel(e, x, y)
	e.out++
	return Output{X: x, Y: y, Value: v}
}

// Size implements window.Source.
func (e *Engine) Size() (int, int) {
	return e.width, e.height
}

// Pixel implements window.Source over the buffered rows.
func (e *Engine) Pixel(x, y int) uint16 {
	if !e.buffered(x, y) {
		panic(fmt.Sprintf("linebuf: pixel (%d, %d) not buffered (consumed %d of %dx%d, depth %d)",
			x, y, e.in, e.width, e.height, e.depth))
	}
	return e.ring[(y%e.depth)*e.width+x]
}

func (e *Engine) buffered(x, y int) bool {
	if x < 0 || x >= e.width || y < 0 || e.in == 0 {
		return false
	}
	// Row last shares its slot with row last-depth, which is treated as
	// gone as soon as the first pixel of row last is written.
	last := (e.in - 1) / e.width
	switch {
	case y > last, y <= last-e.depth:
		return false
	case y == last:
		return x <= (e.in-1)%e.width
	}
	return true
}
