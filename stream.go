package rawisp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mrjoshuak/go-rawisp/internal/crop"
	"github.com/mrjoshuak/go-rawisp/internal/dpc"
	"github.com/mrjoshuak/go-rawisp/internal/linebuf"
	"github.com/mrjoshuak/go-rawisp/internal/rawio"
)

// Stream runs the fully streamed pipeline: raw pixels from src pass through
// the streaming crop filter into the streaming corrector, and corrected
// pixels are written to dst. Memory use is bounded by the line buffer and
// does not depend on the frame height. src must yield exactly
// hdr.Width*hdr.Height samples.
//
// When cropTap is non-nil every pixel leaving the crop stage is also
// written to it.
func Stream(ctx context.Context, src dpc.PixelSource, hdr rawio.Header, opts *Options, dst, cropTap dpc.PixelSink) (dpc.Stats, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	cs, err := crop.NewStream(hdr.Width, hdr.Height, opts.Region, opts.CropEnable)
	if err != nil {
		return dpc.Stats{}, err
	}
	ow, oh := cs.OutputSize()
	ds, err := dpc.NewStreamer(ow, oh, hdr.BitDepth, opts.DPC)
	if err != nil {
		return dpc.Stats{}, err
	}

	write := func(v uint16, ok bool) error {
		if !ok {
			return nil
		}
		if err := dst.WritePixel(v); err != nil {
			return fmt.Errorf("rawisp: write pixel: %w", err)
		}
		return nil
	}

	last := false
	for !cs.Done() {
		if err := ctx.Err(); err != nil {
			return ds.Stats(), err
		}
		v, err := src.Next()
		if errors.Is(err, io.EOF) {
			return ds.Stats(), fmt.Errorf("rawisp: %w after %d crop outputs", linebuf.ErrFrameIncomplete, cs.Emitted())
		}
		if err != nil {
			return ds.Stats(), fmt.Errorf("rawisp: read pixel: %w", err)
		}
		s, ok, err := cs.Push(v)
		if err != nil {
			return ds.Stats(), err
		}
		if !ok {
			continue
		}
		if cropTap != nil {
			if err := cropTap.WritePixel(s.Value); err != nil {
				return ds.Stats(), fmt.Errorf("rawisp: write crop pixel: %w", err)
			}
		}
		out, ok, err := ds.Push(s.Value)
		if err != nil {
			return ds.Stats(), err
		}
		if err := write(out, ok); err != nil {
			return ds.Stats(), err
		}
		last = s.Last
	}
	if !last {
		return ds.Stats(), fmt.Errorf("rawisp: crop stream ended without a last sample")
	}

	for ds.State() == linebuf.Draining {
		out, ok, err := ds.Drain()
		if err != nil {
			return ds.Stats(), err
		}
		if err := write(out, ok); err != nil {
			return ds.Stats(), err
		}
	}
	return ds.Stats(), nil
}

// StreamFile runs Stream from a streamable input file format to an output
// writer, one sample at a time.
func StreamFile(ctx context.Context, r io.Reader, in rawio.Format, hdr rawio.Header, w io.Writer, out rawio.Format, opts *Options) (dpc.Stats, error) {
	sc, err := rawio.NewScanner(r, in, hdr.BitDepth)
	if err != nil {
		return dpc.Stats{}, err
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	ow := hdr.Width
	if opts.CropEnable {
		if err := opts.Region.Validate(hdr.Width, hdr.Height); err != nil {
			return dpc.Stats{}, err
		}
		ow = opts.Region.Width()
	}
	wr, err := rawio.NewWriter(w, out, ow, hdr.BitDepth)
	if err != nil {
		return dpc.Stats{}, err
	}
	st, err := Stream(ctx, sc, hdr, opts, wr, nil)
	if err != nil {
		return st, err
	}
	opts.logger().InfoContext(ctx, "stream done",
		"samples_in", sc.Count(), "samples_out", wr.Count(), "stats", st.String())
	return st, wr.Flush()
}

// sliceSource feeds a sample slice.
type sliceSource struct {
	pix []uint16
	i   int
}

func (s *sliceSource) Next() (uint16, error) {
	if s.i == len(s.pix) {
		return 0, io.EOF
	}
	v := s.pix[s.i]
	s.i++
	return v, nil
}

// collector gathers written samples.
type collector struct {
	pix []uint16
}

func (c *collector) WritePixel(v uint16) error {
	c.pix = append(c.pix, v)
	return nil
}
