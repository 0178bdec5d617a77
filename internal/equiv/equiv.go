// Package equiv compares two pixel sequences for exact equality.
package equiv

import (
	"fmt"
	"strings"
)

// Result describes the outcome of a comparison. Lengths are compared first;
// when they differ no sample is inspected and Index is -1.
type Result struct {
	Equal bool
	LenA  int
	LenB  int
	// Index is the first differing position, or -1.
	Index int
	A, B  uint16
	// Mismatches is the total number of differing positions when the lengths
	// agree.
	Mismatches int
}

// Compare checks a and b sample by sample.
func Compare(a, b []uint16) Result {
	r := Result{LenA: len(a), LenB: len(b), Index: -1}
	if len(a) != len(b) {
		return r
	}
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if r.Mismatches == 0 {
			r.Index, r.A, r.B = i, a[i], b[i]
		}
		r.Mismatches++
	}
	r.Equal = r.Mismatches == 0
	return r
}

// CompareImage is Compare with raster coordinates in the report.
func CompareImage(a, b []uint16, width int) Report {
	return Report{Result: Compare(a, b), Width: width}
}

// Report is a Result that knows the image width so it can print the first
// mismatch as a (row, col) position.
type Report struct {
	Result
	Width int
}

func (r Report) String() string {
	if r.Equal || r.Index < 0 || r.Width <= 0 {
		return r.Result.String()
	}
	return fmt.Sprintf("%s at (row %d, col %d)", r.Result.String(), r.Index/r.Width, r.Index%r.Width)
}

func (r Result) String() string {
	var b strings.Builder
	switch {
	case r.LenA != r.LenB:
		fmt.Fprintf(&b, "length mismatch: %d vs %d", r.LenA, r.LenB)
	case r.Equal:
		fmt.Fprintf(&b, "equal (%d samples)", r.LenA)
	default:
		fmt.Fprintf(&b, "%d of %d samples differ; first at index %d: %d vs %d",
			r.Mismatches, r.LenA, r.Index, r.A, r.B)
	}
	return b.String()
}
