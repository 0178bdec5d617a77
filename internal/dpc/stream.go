package dpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mrjoshuak/go-rawisp/internal/linebuf"
	"github.com/mrjoshuak/go-rawisp/internal/pixel"
	"github.com/mrjoshuak/go-rawisp/internal/window"
)

// PixelSource yields raster-ordered samples and returns io.EOF after the
// last one.
type PixelSource interface {
	Next() (uint16, error)
}

// PixelSink receives raster-ordered samples.
type PixelSink interface {
	WritePixel(v uint16) error
}

// Streamer runs correction over a raster pixel stream with bounded memory.
// It is a single-frame object; create a new one per frame.
type Streamer struct {
	cfg      Config
	bitDepth int
	limit    uint16
	engine   *linebuf.Engine
	stats    Stats
}

// NewStreamer returns a streamer for a width x height frame of the given
// bit depth. A disabled configuration still runs through the line buffer so
// that both settings share the same latency.
func NewStreamer(width, height, bitDepth int, cfg Config) (*Streamer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := pixel.CheckBitDepth(bitDepth); err != nil {
		return nil, err
	}
	s := &Streamer{cfg: cfg, bitDepth: bitDepth, limit: pixel.MaxValue(bitDepth)}

	thr := cfg.threshold()
	var n Neighborhood
	kernel := func(src window.Source, x, y int) uint16 {
		if !cfg.Enable {
			s.stats.Pixels++
			return src.Pixel(x, y)
		}
		n.Load(src, x, y)
		v, d := Correct(&n, thr)
		s.stats.Add(d)
		return uint16(v)
	}

	e, err := linebuf.New(width, height, window.Radius, kernel)
	if err != nil {
		return nil, err
	}
	s.engine = e
	return s, nil
}

// Latency returns the number of input pixels between a pixel entering and
// its corrected value leaving.
func (s *Streamer) Latency() int {
	return s.engine.Latency()
}

// State returns the underlying engine state.
func (s *Streamer) State() linebuf.State {
	return s.engine.State()
}

// Stats returns the decisions made so far.
func (s *Streamer) Stats() Stats {
	return s.stats
}

// Push consumes one input pixel and returns at most one corrected pixel.
func (s *Streamer) Push(v uint16) (uint16, bool, error) {
	if v > s.limit {
		return 0, false, &pixel.ConfigError{Field: "sample", Msg: fmt.Sprintf("value %d exceeds %d-bit range", v, s.bitDepth)}
	}
	o, ok, err := s.engine.Push(v)
	return o.Value, ok, err
}

// Drain produces one of the outputs still buffered after the last input.
func (s *Streamer) Drain() (uint16, bool, error) {
	o, ok, err := s.engine.Drain()
	return o.Value, ok, err
}

// Run pumps src through the streamer into dst until the frame is complete.
// src must yield exactly width*height samples.
func (s *Streamer) Run(ctx context.Context, src PixelSource, dst PixelSink) error {
	for s.engine.State() < linebuf.Draining {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := src.Next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("dpc: %w", linebuf.ErrFrameIncomplete)
		}
		if err != nil {
			return fmt.Errorf("dpc: read pixel: %w", err)
		}
		out, ok, err := s.Push(v)
		if err != nil {
			return fmt.Errorf("dpc: %w", err)
		}
		if ok {
			if err := dst.WritePixel(out); err != nil {
				return fmt.Errorf("dpc: write pixel: %w", err)
			}
		}
	}
	for s.engine.State() == linebuf.Draining {
		out, _, err := s.Drain()
		if err != nil {
			return fmt.Errorf("dpc: %w", err)
		}
		if err := dst.WritePixel(out); err != nil {
			return fmt.Errorf("dpc: write pixel: %w", err)
		}
	}
	return nil
}

// sliceSource adapts a sample slice to PixelSource.
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

// sliceSink collects samples into a preallocated slice.
type sliceSink struct {
	pix []uint16
}

func (s *sliceSink) WritePixel(v uint16) error {
	s.pix = append(s.pix, v)
	return nil
}

// ProcessStream runs the streaming path over a materialized image, feeding
// it one pixel at a time. It exists so the streaming result can be compared
// against Process.
func ProcessStream(ctx context.Context, img *pixel.Image, cfg Config) (*pixel.Image, Stats, error) {
	if err := img.Validate(); err != nil {
		return nil, Stats{}, fmt.Errorf("dpc: %w", err)
	}
	s, err := NewStreamer(img.Width, img.Height, img.BitDepth, cfg)
	if err != nil {
		return nil, Stats{}, err
	}
	sink := &sliceSink{pix: make([]uint16, 0, len(img.Pix))}
	if err := s.Run(ctx, &sliceSource{pix: img.Pix}, sink); err != nil {
		return nil, s.Stats(), err
	}
	return &pixel.Image{Width: img.Width, Height: img.Height, BitDepth: img.BitDepth, Pix: sink.pix}, s.Stats(), nil
}
