package rawio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/bits"

	"golang.org/x/image/tiff"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
)

// ToImage converts a frame to *image.Gray for bit depths up to 8 and to
// *image.Gray16 otherwise. Sample values are copied unscaled.
func ToImage(m *pixel.Image) image.Image {
	r := image.Rect(0, 0, m.Width, m.Height)
	if m.BitDepth <= 8 {
		img := image.NewGray(r)
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				img.Pix[y*img.Stride+x] = uint8(m.Pix[y*m.Width+x])
			}
		}
		return img
	}
	img := image.NewGray16(r)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: m.Pix[y*m.Width+x]})
		}
	}
	return img
}

// FromImage converts a grayscale image to a frame. A bitDepth of 0 takes
// the container's depth (8 for Gray, 16 otherwise). Other image types are
// converted through color.Gray16Model.
func FromImage(img image.Image, bitDepth int) (*pixel.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var pix []uint16
	switch src := img.(type) {
	case *image.Gray:
		if bitDepth == 0 {
			bitDepth = 8
		}
		pix = make([]uint16, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				pix[(y-b.Min.Y)*w+(x-b.Min.X)] = uint16(src.GrayAt(x, y).Y)
			}
		}

	case *image.Gray16:
		if bitDepth == 0 {
			bitDepth = 16
		}
		pix = make([]uint16, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				pix[(y-b.Min.Y)*w+(x-b.Min.X)] = src.Gray16At(x, y).Y
			}
		}

	default:
		if bitDepth == 0 {
			bitDepth = 16
		}
		pix = make([]uint16, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				pix[(y-b.Min.Y)*w+(x-b.Min.X)] = color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
			}
		}
	}
	return pixel.FromSlice(pix, w, h, bitDepth)
}

// EncodePGM writes m as a binary P5 graymap with maxval 2^BitDepth-1.
func EncodePGM(w io.Writer, m *pixel.Image) error {
	bw := bufio.NewWriter(w)
	maxval := m.MaxValue()
	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n%d\n", m.Width, m.Height, maxval); err != nil {
		return err
	}
	if maxval < 256 {
		for _, v := range m.Pix {
			if err := bw.WriteByte(byte(v)); err != nil {
				return err
			}
		}
	} else {
		var buf [2]byte
		for _, v := range m.Pix {
			binary.BigEndian.PutUint16(buf[:], v)
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// DecodePGM reads a binary P5 graymap. The bit depth is the width of maxval.
func DecodePGM(r io.Reader) (*pixel.Image, error) {
	br := bufio.NewReader(r)
	var fields [4]int
	magic, err := pgmToken(br)
	if err != nil {
		return nil, fmt.Errorf("rawio: pgm header: %w", err)
	}
	if magic != "P5" {
		return nil, fmt.Errorf("rawio: pgm: unsupported magic %q", magic)
	}
	for i := 0; i < 3; i++ {
		tok, err := pgmToken(br)
		if err != nil {
			return nil, fmt.Errorf("rawio: pgm header: %w", err)
		}
		if _, err := fmt.Sscanf(tok, "%d", &fields[i]); err != nil {
			return nil, fmt.Errorf("rawio: pgm header field %q: %w", tok, err)
		}
	}
	w, h, maxval := fields[0], fields[1], fields[2]
	if maxval < 1 || maxval > 65535 {
		return nil, fmt.Errorf("rawio: pgm: maxval %d out of range", maxval)
	}
	if err := pixel.CheckDimensions(w, h); err != nil {
		return nil, err
	}

	pix := make([]uint16, w*h)
	if maxval < 256 {
		buf := make([]byte, w*h)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("rawio: pgm data: %w", err)
		}
		for i, b := range buf {
			pix[i] = uint16(b)
		}
	} else {
		buf := make([]byte, 2*w*h)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("rawio: pgm data: %w", err)
		}
		for i := range pix {
			pix[i] = binary.BigEndian.Uint16(buf[2*i:])
		}
	}
	return pixel.FromSlice(pix, w, h, bits.Len16(uint16(maxval)))
}

// pgmToken reads one whitespace-delimited header token, skipping comments.
// The single whitespace byte after the token is consumed.
func pgmToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if len(tok) > 0 && err == io.EOF {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case c == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", err
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, c)
		}
	}
}

// EncodeTIFF writes m as an uncompressed grayscale TIFF.
func EncodeTIFF(w io.Writer, m *pixel.Image) error {
	return tiff.Encode(w, ToImage(m), nil)
}

// DecodeTIFF reads a grayscale TIFF. bitDepth 0 keeps the container depth.
func DecodeTIFF(r io.Reader, bitDepth int) (*pixel.Image, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("rawio: tiff: %w", err)
	}
	return FromImage(img, bitDepth)
}

// EncodePNG writes m as a grayscale PNG.
func EncodePNG(w io.Writer, m *pixel.Image) error {
	return png.Encode(w, ToImage(m))
}

// DecodePNG reads a grayscale PNG. bitDepth 0 keeps the container depth.
func DecodePNG(r io.Reader, bitDepth int) (*pixel.Image, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("rawio: png: %w", err)
	}
	return FromImage(img, bitDepth)
}
