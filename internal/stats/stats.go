// Package stats summarizes how a correction pass changed an image.
package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the differences between a frame before and after
// correction. Magnitudes are absolute per-pixel changes over changed pixels
// only.
type Summary struct {
	Total     int     `json:"total"`
	Changed   int     `json:"changed"`
	Percent   float64 `json:"percent"`
	MeanDelta float64 `json:"mean_delta"`
	StdDelta  float64 `json:"std_delta"`
	MaxDelta  float64 `json:"max_delta"`
	P95Delta  float64 `json:"p95_delta"`
}

// Summarize compares before and after, which must have equal length.
func Summarize(before, after []uint16) (Summary, error) {
	if len(before) != len(after) {
		return Summary{}, fmt.Errorf("stats: length mismatch: %d vs %d", len(before), len(after))
	}
	s := Summary{Total: len(before)}

	var deltas []float64
	for i := range before {
		if before[i] == after[i] {
			continue
		}
		d := float64(before[i]) - float64(after[i])
		if d < 0 {
			d = -d
		}
		deltas = append(deltas, d)
	}
	s.Changed = len(deltas)
	if s.Total > 0 {
		s.Percent = 100 * float64(s.Changed) / float64(s.Total)
	}
	if len(deltas) == 0 {
		return s, nil
	}

	sort.Float64s(deltas)
	s.MeanDelta, s.StdDelta = stat.MeanStdDev(deltas, nil)
	if len(deltas) == 1 {
		s.StdDelta = 0
	}
	s.MaxDelta = deltas[len(deltas)-1]
	s.P95Delta = stat.Quantile(0.95, stat.Empirical, deltas, nil)
	return s, nil
}

func (s Summary) String() string {
	if s.Changed == 0 {
		return fmt.Sprintf("0 of %d pixels changed", s.Total)
	}
	return fmt.Sprintf("%d of %d pixels changed (%.3f%%), |delta| mean %.1f std %.1f p95 %.0f max %.0f",
		s.Changed, s.Total, s.Percent, s.MeanDelta, s.StdDelta, s.P95Delta, s.MaxDelta)
}
