// Package rawisp implements a two-stage raw image preprocessing pipeline:
// rectangular crop followed by dynamic defect pixel correction.
//
// Every frame can be processed two ways. The batch path works on a fully
// materialized image. The streaming path consumes pixels in raster order
// through a line buffer holding a few rows, with a fixed output latency, the
// way a hardware pipeline would. Both paths must produce bit-identical
// output; Run executes both and reports any divergence.
//
// Basic usage:
//
//	img, _ := rawio.ReadFile("frame.txt", rawio.Header{Width: 640, Height: 480, BitDepth: 10})
//	opts := rawisp.DefaultOptions()
//	opts.Region = rawisp.Region{StartX: 16, StartY: 16, EndX: 623, EndY: 463}
//	res, err := rawisp.Run(ctx, img, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := res.Err(); err != nil {
//	    log.Fatal(err)
//	}
package rawisp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrjoshuak/go-rawisp/internal/crop"
	"github.com/mrjoshuak/go-rawisp/internal/dpc"
	"github.com/mrjoshuak/go-rawisp/internal/equiv"
	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/rawio"
	"github.com/mrjoshuak/go-rawisp/internal/stats"
)

// Image is a single-channel raw frame.
type Image = pixel.Image

// Region is an inclusive crop rectangle.
type Region = crop.Region

// DPCConfig controls defect pixel correction.
type DPCConfig = dpc.Config

// Format is a frame file layout.
type Format = rawio.Format

// File formats.
const (
	FormatHex     = rawio.FormatHex
	FormatDecimal = rawio.FormatDecimal
	FormatRaw16   = rawio.FormatRaw16
	FormatPGM     = rawio.FormatPGM
	FormatTIFF    = rawio.FormatTIFF
	FormatPNG     = rawio.FormatPNG
	FormatPacked  = rawio.FormatPacked
)

// ErrMismatch is wrapped by Result.Err when the two paths disagree.
var ErrMismatch = errors.New("rawisp: batch and streaming outputs differ")

// Options holds the pipeline settings.
type Options struct {
	// CropEnable turns the crop stage on. When false Region is ignored.
	CropEnable bool

	// Region is the inclusive crop rectangle in source coordinates.
	Region Region

	// DPC configures defect pixel correction.
	DPC DPCConfig

	// Streaming feeds the streaming path from the raw frame through the
	// streaming crop filter instead of from the batch crop output, so the
	// whole streaming path runs in bounded memory.
	Streaming bool

	// Logger receives stage progress. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns options with crop disabled, correction enabled at
// threshold 64, and the fully streamed path.
func DefaultOptions() *Options {
	return &Options{
		DPC:       DPCConfig{Enable: true, Threshold: 64},
		Streaming: true,
	}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Result holds both paths' outputs and how they compare.
type Result struct {
	// Cropped is the batch crop output.
	Cropped *Image
	// StreamCropped is the streaming crop output when Options.Streaming is
	// set, otherwise the same image as Cropped.
	StreamCropped *Image

	// Batch and Stream are the corrected frames of each path.
	Batch  *Image
	Stream *Image

	BatchStats  dpc.Stats
	StreamStats dpc.Stats

	// CropEquiv compares the crop outputs; Equiv compares the final frames.
	CropEquiv equiv.Report
	Equiv     equiv.Report

	// Summary describes what correction changed on the batch path.
	Summary stats.Summary

	Elapsed time.Duration
}

// Err returns nil when both paths agree, otherwise an error wrapping
// ErrMismatch with the first difference.
func (r *Result) Err() error {
	if !r.CropEquiv.Equal {
		return fmt.Errorf("%w: crop: %s", ErrMismatch, r.CropEquiv)
	}
	if !r.Equiv.Equal {
		return fmt.Errorf("%w: dpc: %s", ErrMismatch, r.Equiv)
	}
	return nil
}

// Run crops img and corrects it on both paths concurrently, then compares
// the outputs. Configuration and validation problems are returned as
// errors before any pixel is processed; a divergence between the paths is
// reported through Result.Err.
func Run(ctx context.Context, img *Image, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.logger()
	start := time.Now()

	if err := opts.DPC.Validate(); err != nil {
		return nil, err
	}
	cropped, err := crop.Crop(img, opts.Region, opts.CropEnable)
	if err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("rawisp: %w", err)
	}
	log.DebugContext(ctx, "crop done",
		"source", img.String(), "output", cropped.String(),
		"enable", opts.CropEnable, "region", opts.Region.String())

	res := &Result{Cropped: cropped}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, st, err := dpc.Process(cropped, opts.DPC)
		if err != nil {
			return fmt.Errorf("batch: %w", err)
		}
		res.Batch, res.BatchStats = out, st
		log.DebugContext(gctx, "batch path done", "stats", st.String())
		return nil
	})

	g.Go(func() error {
		if !opts.Streaming {
			out, st, err := dpc.ProcessStream(gctx, cropped, opts.DPC)
			if err != nil {
				return fmt.Errorf("stream: %w", err)
			}
			res.StreamCropped, res.Stream, res.StreamStats = cropped, out, st
			log.DebugContext(gctx, "streaming path done", "stats", st.String())
			return nil
		}

		cw, ch := opts.Region.Width(), opts.Region.Height()
		if !opts.CropEnable {
			cw, ch = img.Width, img.Height
		}
		cropSink := &collector{pix: make([]uint16, 0, cw*ch)}
		outSink := &collector{pix: make([]uint16, 0, cw*ch)}
		st, err := Stream(gctx, &sliceSource{pix: img.Pix}, rawio.Header{
			Width: img.Width, Height: img.Height, BitDepth: img.BitDepth,
		}, opts, outSink, cropSink)
		if err != nil {
			return fmt.Errorf("stream: %w", err)
		}
		res.StreamCropped = &Image{Width: cw, Height: ch, BitDepth: img.BitDepth, Pix: cropSink.pix}
		res.Stream = &Image{Width: cw, Height: ch, BitDepth: img.BitDepth, Pix: outSink.pix}
		res.StreamStats = st
		log.DebugContext(gctx, "streaming path done", "stats", st.String())
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.CropEquiv = equiv.CompareImage(res.Cropped.Pix, res.StreamCropped.Pix, cropped.Width)
	res.Equiv = equiv.CompareImage(res.Batch.Pix, res.Stream.Pix, cropped.Width)
	res.Summary, err = stats.Summarize(cropped.Pix, res.Batch.Pix)
	if err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)

	if err := res.Err(); err != nil {
		log.ErrorContext(ctx, "paths diverge", "error", err)
	} else {
		log.InfoContext(ctx, "frame processed",
			"size", cropped.String(),
			"corrected", res.BatchStats.TotalCorrected(),
			"elapsed", res.Elapsed)
	}
	return res, nil
}
