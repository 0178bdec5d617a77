// Package pixel provides the single-channel raw pixel buffer shared by every
// stage of the pipeline.
//
// Samples are stored as uint16 regardless of the configured bit depth; the
// bit depth bounds the legal value range and is checked on construction and
// on every Set. Intermediate arithmetic elsewhere in the module is done in
// int32 so that gradient terms, which can go negative and need two extra bits
// over a 16-bit sample, never overflow.
package pixel

import (
	"fmt"
)

// Bit depth limits.
const (
	// MinBitDepth is the smallest supported sample width.
	MinBitDepth = 1
	// MaxBitDepth is the largest supported sample width.
	MaxBitDepth = 16
	// DefaultBitDepth is the sample width used when none is configured.
	DefaultBitDepth = 16
)

// MaxPixels bounds the sample count of a frame.
const MaxPixels = 1 << 28

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// Image is a row-major single-channel image.
type Image struct {
	// Width is the number of pixels per row.
	Width int
	// Height is the number of rows.
	Height int
	// BitDepth is the number of significant bits per sample (1-16).
	BitDepth int
	// Pix holds Width*Height samples. The sample at (x, y) is Pix[y*Width+x].
	Pix []uint16
}

// New allocates a zeroed image.
func New(width, height, bitDepth int) (*Image, error) {
	if err := CheckDimensions(width, height); err != nil {
		return nil, err
	}
	if err := CheckBitDepth(bitDepth); err != nil {
		return nil, err
	}
	return &Image{
		Width:    width,
		Height:   height,
		BitDepth: bitDepth,
		Pix:      make([]uint16, width*height),
	}, nil
}

// FromSlice wraps pix as an image after validating its length and values.
// The slice is not copied.
func FromSlice(pix []uint16, width, height, bitDepth int) (*Image, error) {
	img := &Image{Width: width, Height: height, BitDepth: bitDepth, Pix: pix}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// CheckDimensions validates image dimensions.
func CheckDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return &ConfigError{Field: "dimensions", Msg: fmt.Sprintf("%dx%d must both be positive", width, height)}
	}
	if int64(width)*int64(height) > MaxPixels {
		return &ConfigError{Field: "dimensions", Msg: fmt.Sprintf("%dx%d exceeds %d pixels", width, height, MaxPixels)}
	}
	return nil
}

// CheckBitDepth validates a sample width.
func CheckBitDepth(bitDepth int) error {
	if bitDepth < MinBitDepth || bitDepth > MaxBitDepth {
		return &ConfigError{Field: "bit depth", Msg: fmt.Sprintf("%d outside [%d, %d]", bitDepth, MinBitDepth, MaxBitDepth)}
	}
	return nil
}

// MaxValue returns the largest sample value representable in bitDepth bits.
func MaxValue(bitDepth int) uint16 {
	return uint16((uint32(1) << uint(bitDepth)) - 1)
}

// Validate checks dimensions, bit depth, buffer length and sample range.
func (m *Image) Validate() error {
	if err := CheckDimensions(m.Width, m.Height); err != nil {
		return err
	}
	if err := CheckBitDepth(m.BitDepth); err != nil {
		return err
	}
	if len(m.Pix) != m.Width*m.Height {
		return &ConfigError{
			Field: "pixel count",
			Msg:   fmt.Sprintf("have %d samples, want %d (%dx%d)", len(m.Pix), m.Width*m.Height, m.Width, m.Height),
		}
	}
	limit := m.MaxValue()
	for i, v := range m.Pix {
		if v > limit {
			return &ConfigError{
				Field: "sample",
				Msg:   fmt.Sprintf("value %d at (%d, %d) exceeds %d-bit range", v, i%m.Width, i/m.Width, m.BitDepth),
			}
		}
	}
	return nil
}

// MaxValue returns the largest legal sample for the image's bit depth.
func (m *Image) MaxValue() uint16 {
	return MaxValue(m.BitDepth)
}

// Size returns the image dimensions.
func (m *Image) Size() (width, height int) {
	return m.Width, m.Height
}

// Pixel returns the sample at (x, y). The coordinates must be in range.
func (m *Image) Pixel(x, y int) uint16 {
	return m.Pix[y*m.Width+x]
}

// At returns the sample at (x, y) with clamp-to-edge extension.
func (m *Image) At(x, y int) uint16 {
	return m.Pix[ClampInt(y, 0, m.Height-1)*m.Width+ClampInt(x, 0, m.Width-1)]
}

// Set stores v at (x, y), rejecting values wider than the bit depth.
func (m *Image) Set(x, y int, v uint16) error {
	if v > m.MaxValue() {
		return &ConfigError{Field: "sample", Msg: fmt.Sprintf("value %d exceeds %d-bit range", v, m.BitDepth)}
	}
	m.Pix[y*m.Width+x] = v
	return nil
}

// Row returns row y as a slice aliasing the image buffer.
func (m *Image) Row(y int) []uint16 {
	return m.Pix[y*m.Width : (y+1)*m.Width]
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	pix := make([]uint16, len(m.Pix))
	copy(pix, m.Pix)
	return &Image{Width: m.Width, Height: m.Height, BitDepth: m.BitDepth, Pix: pix}
}

// Equal reports whether two images have the same geometry and samples.
func (m *Image) Equal(o *Image) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Width != o.Width || m.Height != o.Height || len(m.Pix) != len(o.Pix) {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// String returns a short description such as "640x480@12".
func (m *Image) String() string {
	return fmt.Sprintf("%dx%d@%d", m.Width, m.Height, m.BitDepth)
}

// ClampInt clamps v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
