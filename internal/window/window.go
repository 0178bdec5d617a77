// Package window gathers fixed-shape pixel neighborhoods around a focus
// coordinate.
//
// Out-of-range coordinates are pinned to the nearest edge (clamp-to-edge).
// The same clamp rule is applied whether the pixels come from a full frame
// or from the bounded row store of a streaming engine, which is what lets
// both execution models compute identical windows.
package window

// Radius is the largest offset, in either axis, used by any declared window.
const Radius = 2

// Extent is the side length of the square that contains every declared
// window.
const Extent = 2*Radius + 1

// Offset is a relative (dx, dy) position from the focus pixel.
type Offset struct {
	DX, DY int
}

// Set is an ordered list of eight offsets.
type Set [8]Offset

// Outer holds the distance-2 cross-and-corner samples used for detection
// and gradient direction.
var Outer = Set{
	{-2, -2}, {-2, 0}, {-2, 2},
	{0, -2}, {0, 2},
	{2, -2}, {2, 0}, {2, 2},
}

// Inner holds the immediate 3x3 ring used for threshold confirmation and
// replacement.
var Inner = Set{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Positions within a Set. Both Outer and Inner share this layout, so a
// direction's pair of samples sits at the same indices in either set.
const (
	UpLeft    = 0 // (-d, -d)
	Left      = 1 // (-d, 0)
	DownLeft  = 2 // (-d, +d)
	Up        = 3 // (0, -d)
	Down      = 4 // (0, +d)
	UpRight   = 5 // (+d, -d)
	Right     = 6 // (+d, 0)
	DownRight = 7 // (+d, +d)
)

// Source is anything that can be read as a width x height pixel grid.
// Pixel is only called with in-range coordinates.
type Source interface {
	Size() (width, height int)
	Pixel(x, y int) uint16
}

// At returns the sample at (x, y) of src with clamp-to-edge extension.
func At(src Source, x, y int) int32 {
	w, h := src.Size()
	return int32(src.Pixel(clamp(x, 0, w-1), clamp(y, 0, h-1)))
}

// Sample returns one sample per offset, in declared order, around (x, y).
func Sample(src Source, x, y int, offsets []Offset) []int32 {
	out := make([]int32, len(offsets))
	for i, o := range offsets {
		out[i] = At(src, x+o.DX, y+o.DY)
	}
	return out
}

// Gather fills dst with the samples of set around (x, y). It does not
// allocate and is used on the per-pixel hot path.
func Gather(dst *[8]int32, src Source, x, y int, set *Set) {
	w, h := src.Size()
	for i, o := range set {
		dst[i] = int32(src.Pixel(clamp(x+o.DX, 0, w-1), clamp(y+o.DY, 0, h-1)))
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
