// Package crop implements rectangular region extraction, both over a
// materialized image and as a raster-order stream filter.
//
// Regions are inclusive on both ends. An invalid region is always an error:
// coordinates are never clamped into range and no partial output is produced.
package crop

import (
	"fmt"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
)

// Reason identifies which validation check rejected a crop request.
type Reason int

const (
	// ReasonSizeMismatch means the pixel buffer length is not width*height.
	ReasonSizeMismatch Reason = iota + 1
	// ReasonNegativeCoordinate means a region coordinate is below zero.
	ReasonNegativeCoordinate
	// ReasonInverted means a start coordinate is greater than its end.
	ReasonInverted
	// ReasonOutOfBounds means a coordinate lies outside the source image.
	ReasonOutOfBounds
	// ReasonEmpty means the resulting crop has no pixels.
	ReasonEmpty
	// ReasonTooLarge means the crop is larger than the source image.
	ReasonTooLarge
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonSizeMismatch:
		return "size mismatch"
	case ReasonNegativeCoordinate:
		return "negative coordinate"
	case ReasonInverted:
		return "inverted region"
	case ReasonOutOfBounds:
		return "out of bounds"
	case ReasonEmpty:
		return "empty region"
	case ReasonTooLarge:
		return "region too large"
	default:
		return "Unknown"
	}
}

// ValidationError reports a malformed crop request.
type ValidationError struct {
	Reason Reason
	Msg    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("crop: %s: %s", e.Reason, e.Msg)
}

// Region is an inclusive rectangle in source image coordinates.
type Region struct {
	StartX int
	StartY int
	EndX   int
	EndY   int
}

// Full returns the region covering an entire width x height image.
func Full(width, height int) Region {
	return Region{EndX: width - 1, EndY: height - 1}
}

// Width returns the number of columns in the region.
func (r Region) Width() int {
	return r.EndX - r.StartX + 1
}

// Height returns the number of rows in the region.
func (r Region) Height() int {
	return r.EndY - r.StartY + 1
}

// Contains reports whether (x, y) lies inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.StartX && x <= r.EndX && y >= r.StartY && y <= r.EndY
}

// String returns the region as "(sx,sy)-(ex,ey)".
func (r Region) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.StartX, r.StartY, r.EndX, r.EndY)
}

// Validate checks the region against a width x height source.
func (r Region) Validate(width, height int) error {
	if r.StartX < 0 || r.StartY < 0 || r.EndX < 0 || r.EndY < 0 {
		return &ValidationError{Reason: ReasonNegativeCoordinate, Msg: fmt.Sprintf("region %s", r)}
	}
	if r.StartX > r.EndX || r.StartY > r.EndY {
		return &ValidationError{Reason: ReasonInverted, Msg: fmt.Sprintf("region %s: start must not exceed end", r)}
	}
	if r.StartX >= width || r.EndX >= width || r.StartY >= height || r.EndY >= height {
		return &ValidationError{Reason: ReasonOutOfBounds, Msg: fmt.Sprintf("region %s exceeds %dx%d image", r, width, height)}
	}
	cw, ch := r.Width(), r.Height()
	if cw <= 0 || ch <= 0 {
		return &ValidationError{Reason: ReasonEmpty, Msg: fmt.Sprintf("crop size %dx%d", cw, ch)}
	}
	if cw > width || ch > height {
		return &ValidationError{Reason: ReasonTooLarge, Msg: fmt.Sprintf("crop size %dx%d exceeds %dx%d", cw, ch, width, height)}
	}
	return nil
}

// Crop extracts region r from img.
//
// When enable is false the input image is returned unchanged. Otherwise the
// result is a new image that shares no storage with img.
func Crop(img *pixel.Image, r Region, enable bool) (*pixel.Image, error) {
	if !enable {
		return img, nil
	}
	if want := img.Width * img.Height; len(img.Pix) != want {
		return nil, &ValidationError{
			Reason: ReasonSizeMismatch,
			Msg:    fmt.Sprintf("have %d samples, want %d (%dx%d)", len(img.Pix), want, img.Width, img.Height),
		}
	}
	if err := r.Validate(img.Width, img.Height); err != nil {
		return nil, err
	}

	cw, ch := r.Width(), r.Height()
	out := &pixel.Image{
		Width:    cw,
		Height:   ch,
		BitDepth: img.BitDepth,
		Pix:      make([]uint16, cw*ch),
	}
	for y := 0; y < ch; y++ {
		src := img.Pix[(r.StartY+y)*img.Width+r.StartX:]
		copy(out.Pix[y*cw:(y+1)*cw], src[:cw])
	}
	return out, nil
}
