// Package regress runs randomized end-to-end regression cases.
//
// Every case draws a frame size, crop settings, correction settings, a bit
// depth and a synthesized image from a single seed, runs the pipeline and
// checks that both paths agree and that the output holds the expected
// number of pixels. A seed always reproduces the same cases.
package regress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/samber/lo"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	rawisp "github.com/mrjoshuak/go-rawisp"
	"github.com/mrjoshuak/go-rawisp/internal/crop"
	"github.com/mrjoshuak/go-rawisp/internal/dpc"
	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/synth"
)

// Patterns are the generators random cases draw from.
var Patterns = []synth.Kind{synth.KindUniform, synth.KindRamp, synth.KindImpulse, synth.KindOutliers}

// BitDepths are the sample widths random cases draw from.
var BitDepths = []int{8, 10, 12, 14, 16}

// Options configures a regression run.
type Options struct {
	Count int
	Seed  uint64
	// MaxDim bounds the random frame width and height.
	MaxDim int
	// Workers bounds the number of cases run at once. Zero means GOMAXPROCS.
	Workers int
	// Streaming is passed to every pipeline run.
	Streaming bool
	Logger    *slog.Logger
}

// DefaultOptions returns 100 cases on frames up to 8x8, seeded with 1.
func DefaultOptions() Options {
	return Options{Count: 100, Seed: 1, MaxDim: 8, Streaming: true}
}

// Case is one random pipeline configuration. Field names follow the
// register names of a run configuration.
type Case struct {
	Width      int    `json:"image_width"`
	Height     int    `json:"image_height"`
	BitDepth   int    `json:"image_data_bitwidth"`
	Pattern    string `json:"pattern"`
	ImageSeed  uint64 `json:"image_seed"`
	CropEnable int    `json:"crop_enable"`
	CropStartX int    `json:"crop_start_x"`
	CropStartY int    `json:"crop_start_y"`
	CropEndX   int    `json:"crop_end_x"`
	CropEndY   int    `json:"crop_end_y"`
	DPCEnable  int    `json:"dpc_enable"`
	Threshold  int    `json:"dpc_threshold"`
}

// Region returns the crop rectangle.
func (c Case) Region() crop.Region {
	return crop.Region{StartX: c.CropStartX, StartY: c.CropStartY, EndX: c.CropEndX, EndY: c.CropEndY}
}

// Expected returns the number of pixels the pipeline must emit.
func (c Case) Expected() int {
	if c.CropEnable == 0 {
		return c.Width * c.Height
	}
	r := c.Region()
	return max(0, r.Width()) * max(0, r.Height())
}

// Options returns pipeline options for the case.
func (c Case) Options(streaming bool, log *slog.Logger) *rawisp.Options {
	return &rawisp.Options{
		CropEnable: c.CropEnable != 0,
		Region:     c.Region(),
		DPC:        dpc.Config{Enable: c.DPCEnable != 0, Threshold: c.Threshold},
		Streaming:  streaming,
		Logger:     log,
	}
}

// Image synthesizes the case's source frame.
func (c Case) Image() (*pixel.Image, error) {
	k, err := synth.ParseKind(c.Pattern)
	if err != nil {
		return nil, err
	}
	limit := int(pixel.MaxValue(c.BitDepth))
	return synth.Generate(k, synth.Options{
		Width:    c.Width,
		Height:   c.Height,
		BitDepth: c.BitDepth,
		Seed:     c.ImageSeed,
		Density:  0.05,
		Margin:   limit / 16,
	})
}

// Generate draws n cases from seed. Crop regions of enabled cases are
// always valid; disabled cases carry a zero region.
func Generate(n int, seed uint64, maxDim int) []Case {
	r := rand.New(rand.NewSource(seed))
	return lo.Times(n, func(int) Case {
		c := Case{
			Width:     1 + r.Intn(maxDim),
			Height:    1 + r.Intn(maxDim),
			BitDepth:  BitDepths[r.Intn(len(BitDepths))],
			Pattern:   Patterns[r.Intn(len(Patterns))].String(),
			ImageSeed: r.Uint64(),
		}
		if r.Intn(2) == 1 {
			c.CropEnable = 1
			c.CropStartX = r.Intn(c.Width)
			c.CropStartY = r.Intn(c.Height)
			c.CropEndX = c.CropStartX + r.Intn(c.Width-c.CropStartX)
			c.CropEndY = c.CropStartY + r.Intn(c.Height-c.CropStartY)
		}
		c.DPCEnable = r.Intn(2)
		c.Threshold = r.Intn(int(pixel.MaxValue(c.BitDepth)) + 1)
		return c
	})
}

// CaseResult records the outcome of one case.
type CaseResult struct {
	TestID   int    `json:"test_id"`
	Config   Case   `json:"config"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// Report is the outcome of a regression run.
type Report struct {
	TestCount int          `json:"test_count"`
	Seed      uint64       `json:"seed"`
	Passed    int          `json:"passed"`
	Failed    int          `json:"failed"`
	Results   []CaseResult `json:"results"`
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Failures returns the failed cases.
func (r *Report) Failures() []CaseResult {
	return lo.Filter(r.Results, func(c CaseResult, _ int) bool { return !c.Success })
}

// PassRate returns the percentage of passed cases.
func (r *Report) PassRate() float64 {
	if r.TestCount == 0 {
		return 0
	}
	return 100 * float64(r.Passed) / float64(r.TestCount)
}

func (r *Report) String() string {
	return fmt.Sprintf("%d cases, seed %d: %d passed, %d failed (%.1f%%)",
		r.TestCount, r.Seed, r.Passed, r.Failed, r.PassRate())
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFile writes the report to path as JSON.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Run generates and runs opts.Count cases. Case failures are recorded in
// the report; only cancellation aborts the run.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Count < 0 {
		return nil, &pixel.ConfigError{Field: "count", Msg: fmt.Sprintf("%d must be non-negative", opts.Count)}
	}
	if opts.MaxDim < 1 {
		return nil, &pixel.ConfigError{Field: "max dim", Msg: fmt.Sprintf("%d must be positive", opts.MaxDim)}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	cases := Generate(opts.Count, opts.Seed, opts.MaxDim)
	results := make([]CaseResult, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runCase(gctx, i+1, c, opts.Streaming)
			if !results[i].Success {
				log.WarnContext(gctx, "case failed", "test_id", i+1, "message", results[i].Message)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	passed := lo.CountBy(results, func(r CaseResult) bool { return r.Success })
	rep := &Report{
		TestCount: len(cases),
		Seed:      opts.Seed,
		Passed:    passed,
		Failed:    len(cases) - passed,
		Results:   results,
	}
	log.InfoContext(ctx, "regression done", "passed", rep.Passed, "failed", rep.Failed, "seed", rep.Seed)
	return rep, nil
}

func runCase(ctx context.Context, id int, c Case, streaming bool) CaseResult {
	res := CaseResult{TestID: id, Config: c, Expected: c.Expected()}
	img, err := c.Image()
	if err != nil {
		res.Message = fmt.Sprintf("generate image: %v", err)
		return res
	}
	out, err := rawisp.Run(ctx, img, c.Options(streaming, nil))
	if err != nil {
		res.Message = err.Error()
		return res
	}
	res.Actual = len(out.Stream.Pix)
	if err := out.Err(); err != nil {
		res.Message = err.Error()
		return res
	}
	if res.Actual != res.Expected {
		res.Message = fmt.Sprintf("expected %d pixels, got %d", res.Expected, res.Actual)
		return res
	}
	res.Success = true
	res.Message = fmt.Sprintf("%d pixels, %d corrected", res.Actual, out.BatchStats.TotalCorrected())
	return res
}
