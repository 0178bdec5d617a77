package rawio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mrjoshuak/go-rawisp/internal/pixel"
)

// Decode reads a whole frame from r. Headerless formats take their geometry
// from hdr and must hold exactly Width*Height samples; other formats use
// hdr.BitDepth (when non-zero) and ignore the rest.
func Decode(r io.Reader, f Format, hdr Header) (*pixel.Image, error) {
	switch f {
	case FormatPGM:
		return DecodePGM(r)
	case FormatTIFF:
		return DecodeTIFF(r, hdr.BitDepth)
	case FormatPNG:
		return DecodePNG(r, hdr.BitDepth)
	}

	img, err := pixel.New(hdr.Width, hdr.Height, hdr.BitDepth)
	if err != nil {
		return nil, err
	}
	s, err := NewScanner(r, f, hdr.BitDepth)
	if err != nil {
		return nil, err
	}
	for i := range img.Pix {
		v, err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("rawio: have %d samples, want %d (%dx%d)", i, len(img.Pix), hdr.Width, hdr.Height)
		}
		if err != nil {
			return nil, err
		}
		img.Pix[i] = v
	}
	if f == FormatPacked {
		// Padding of the last byte may decode as extra zero samples.
		return img, nil
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("rawio: more than %d samples (%dx%d)", len(img.Pix), hdr.Width, hdr.Height)
		}
		return nil, err
	}
	return img, nil
}

// Encode writes a whole frame to w.
func Encode(w io.Writer, f Format, m *pixel.Image) error {
	switch f {
	case FormatPGM:
		return EncodePGM(w, m)
	case FormatTIFF:
		return EncodeTIFF(w, m)
	case FormatPNG:
		return EncodePNG(w, m)
	}

	sw, err := NewWriter(w, f, m.Width, m.BitDepth)
	if err != nil {
		return err
	}
	for _, v := range m.Pix {
		if err := sw.WritePixel(v); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// ReadFile reads a frame, detecting the format from the extension.
func ReadFile(path string, hdr Header) (*pixel.Image, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := Decode(file, f, hdr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// WriteFile writes a frame, detecting the format from the extension.
func WriteFile(path string, m *pixel.Image) error {
	f, err := DetectFormat(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(file, f, m); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return file.Close()
}

// ReadSamples reads every sample of a streamable file without requiring
// its geometry. It is used to compare dumps whose sizes may disagree.
// Packed files narrower than 8 bits per sample may yield trailing zero
// samples decoded from the final byte's padding.
func ReadSamples(path string, bitDepth int) ([]uint16, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if !f.Streamable() {
		img, err := ReadFile(path, Header{BitDepth: bitDepth})
		if err != nil {
			return nil, err
		}
		return img.Pix, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := NewScanner(file, f, bitDepth)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for {
		v, err := s.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, v)
	}
}
