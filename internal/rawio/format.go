// Package rawio reads and writes single-channel raw frames.
//
// Text formats follow the dump layout used by hardware test benches: one
// hexadecimal sample per line followed by a "# (row, col)" comment, or free
// whitespace-separated decimal values. Binary formats cover headerless
// little-endian 16-bit samples, binary PGM, 16-bit grayscale TIFF and PNG.
// Samples are never rescaled: a 10-bit frame stored as PNG keeps its 10-bit
// values in a 16-bit container.
package rawio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
)

// Format identifies a file layout.
type Format int

const (
	// FormatHex is one zero-padded hexadecimal sample per line.
	FormatHex Format = iota
	// FormatDecimal is whitespace-separated decimal samples.
	FormatDecimal
	// FormatRaw16 is headerless little-endian 16-bit samples.
	FormatRaw16
	// FormatPGM is binary Netpbm graymap (P5).
	FormatPGM
	// FormatTIFF is grayscale TIFF.
	FormatTIFF
	// FormatPNG is grayscale PNG.
	FormatPNG
	// FormatPacked is headerless MSB-first samples of exactly bit-depth
	// bits each, zero-padded to a whole byte at the end.
	FormatPacked
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatHex:
		return "hex"
	case FormatDecimal:
		return "decimal"
	case FormatRaw16:
		return "raw16"
	case FormatPGM:
		return "pgm"
	case FormatTIFF:
		return "tiff"
	case FormatPNG:
		return "png"
	case FormatPacked:
		return "packed"
	default:
		return "Unknown"
	}
}

// Headerless reports whether the format carries no geometry, so width,
// height and bit depth must come from the caller.
func (f Format) Headerless() bool {
	return f == FormatHex || f == FormatDecimal || f == FormatRaw16 || f == FormatPacked
}

// Streamable reports whether the format can be read and written one sample
// at a time.
func (f Format) Streamable() bool {
	return f.Headerless()
}

var formatNames = map[string]Format{
	"hex":     FormatHex,
	"decimal": FormatDecimal,
	"dec":     FormatDecimal,
	"raw16":   FormatRaw16,
	"raw":     FormatRaw16,
	"pgm":     FormatPGM,
	"tiff":    FormatTIFF,
	"tif":     FormatTIFF,
	"png":     FormatPNG,
	"packed":  FormatPacked,
	"bin":     FormatPacked,
}

// ParseFormat accepts a format name or a file extension without the dot.
func ParseFormat(s string) (Format, error) {
	if f, ok := formatNames[strings.ToLower(s)]; ok {
		return f, nil
	}
	return 0, &pixel.ConfigError{Field: "format", Msg: fmt.Sprintf("unknown format %q", s)}
}

// DetectFormat infers the format from a file extension. ".txt" and ".hex"
// are hex dumps.
func DetectFormat(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "txt", "hex":
		return FormatHex, nil
	case "":
		return 0, &pixel.ConfigError{Field: "format", Msg: fmt.Sprintf("cannot detect format of %q: no extension", path)}
	}
	return ParseFormat(ext)
}

// Header carries the geometry that headerless formats cannot store.
type Header struct {
	Width, Height int
	BitDepth      int
}
