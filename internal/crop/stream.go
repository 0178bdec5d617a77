package crop

import (
	"errors"
	"fmt"
)

// ErrFrameComplete is returned when a stream receives more samples than its
// frame holds.
var ErrFrameComplete = errors.New("crop: frame already complete")

// Sample is one pixel leaving the streaming crop.
type Sample struct {
	Value uint16
	// Last marks the final sample of the cropped frame.
	Last bool
}

// Stream crops a raster-ordered pixel stream. Every source pixel is pushed
// exactly once; pixels inside the region are forwarded in order and the
// final forwarded pixel carries Last.
type Stream struct {
	width, height int
	region        Region
	enable        bool

	x, y     int
	consumed int
	emitted  int
	expected int
}

// NewStream validates the region against a width x height frame and returns
// a filter ready for the first pixel.
func NewStream(width, height int, r Region, enable bool) (*Stream, error) {
	if width <= 0 || height <= 0 {
		return nil, &ValidationError{Reason: ReasonSizeMismatch, Msg: fmt.Sprintf("frame %dx%d", width, height)}
	}
	s := &Stream{width: width, height: height, region: r, enable: enable}
	if enable {
		if err := r.Validate(width, height); err != nil {
			return nil, err
		}
		s.expected = r.Width() * r.Height()
	} else {
		s.region = Full(width, height)
		s.expected = width * height
	}
	return s, nil
}

// OutputSize returns the dimensions of the frame the stream emits.
func (s *Stream) OutputSize() (width, height int) {
	return s.region.Width(), s.region.Height()
}

// Push consumes the next source pixel. It returns the forwarded sample and
// true when the pixel lies inside the region.
func (s *Stream) Push(v uint16) (Sample, bool, error) {
	if s.consumed == s.width*s.height {
		return Sample{}, false, ErrFrameComplete
	}
	x, y := s.x, s.y
	s.consumed++
	s.x++
	if s.x == s.width {
		s.x = 0
		s.y++
	}

	if !s.region.Contains(x, y) {
		return Sample{}, false, nil
	}
	s.emitted++
	return Sample{Value: v, Last: s.emitted == s.expected}, true, nil
}

// Done reports whether the full source frame has been consumed.
func (s *Stream) Done() bool {
	return s.consumed == s.width*s.height
}

// Emitted returns the number of samples forwarded so far.
func (s *Stream) Emitted() int {
	return s.emitted
}
