package rawio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mrjoshuak/go-rawisp/internal/bitpack"
	"github.com/mrjoshuak/go-rawisp/internal/pixel"
)

// Scanner reads samples from a streamable format one at a time.
type Scanner struct {
	format Format
	limit  uint16
	depth  int

	lines   *bufio.Scanner
	br      *bufio.Reader
	bits    *bitpack.Reader
	lineNo  int
	pending []string
	count   int
}

// NewScanner returns a scanner over r. Samples wider than bitDepth are
// rejected.
func NewScanner(r io.Reader, f Format, bitDepth int) (*Scanner, error) {
	if !f.Streamable() {
		return nil, &pixel.ConfigError{Field: "format", Msg: fmt.Sprintf("%s cannot be streamed", f)}
	}
	if err := pixel.CheckBitDepth(bitDepth); err != nil {
		return nil, err
	}
	s := &Scanner{format: f, limit: pixel.MaxValue(bitDepth), depth: bitDepth}
	switch f {
	case FormatRaw16:
		s.br = bufio.NewReader(r)
	case FormatPacked:
		s.bits = bitpack.NewReader(bufio.NewReader(r))
	default:
		s.lines = bufio.NewScanner(r)
	}
	return s, nil
}

// Next returns the next sample, or io.EOF after the last one.
func (s *Scanner) Next() (uint16, error) {
	var v uint16
	var err error
	switch s.format {
	case FormatRaw16:
		v, err = s.nextBinary()
	case FormatPacked:
		v, err = s.bits.ReadSample(s.depth)
		if errors.Is(err, bitpack.ErrTruncated) {
			err = fmt.Errorf("rawio: after %d samples: %w", s.count, err)
		}
	default:
		v, err = s.nextText()
	}
	if err != nil {
		return 0, err
	}
	if v > s.limit {
		return 0, &pixel.ConfigError{
			Field: "sample",
			Msg:   fmt.Sprintf("sample %d (value %d) exceeds %d-bit range", s.count, v, s.depth),
		}
	}
	s.count++
	return v, nil
}

// Count returns the number of samples returned so far.
func (s *Scanner) Count() int {
	return s.count
}

func (s *Scanner) nextBinary() (uint16, error) {
	var buf [2]byte
	_, err := io.ReadFull(s.br, buf[:])
	switch {
	case errors.Is(err, io.EOF):
		return 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return 0, fmt.Errorf("rawio: truncated sample after %d samples", s.count)
	case err != nil:
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (s *Scanner) nextText() (uint16, error) {
	for len(s.pending) == 0 {
		if !s.lines.Scan() {
			if err := s.lines.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		s.lineNo++
		line := s.lines.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		s.pending = strings.Fields(line)
	}

	tok := s.pending[0]
	s.pending = s.pending[1:]
	base := 10
	if s.format == FormatHex {
		base = 16
		tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
	}
	v, err := strconv.ParseUint(tok, base, 16)
	if err != nil {
		return 0, fmt.Errorf("rawio: line %d: %w", s.lineNo, err)
	}
	return uint16(v), nil
}

// Writer writes samples in a streamable format. Call Flush when done.
type Writer struct {
	format Format
	width  int
	depth  int
	bw     *bufio.Writer
	bits   *bitpack.Writer
	n      int
}

// NewWriter returns a writer for a frame width samples wide. The width is
// used for the (row, col) annotations of hex dumps and the line breaks of
// decimal output; bitDepth sets the sample size of packed output.
func NewWriter(w io.Writer, f Format, width, bitDepth int) (*Writer, error) {
	if !f.Streamable() {
		return nil, &pixel.ConfigError{Field: "format", Msg: fmt.Sprintf("%s cannot be streamed", f)}
	}
	if width <= 0 {
		return nil, &pixel.ConfigError{Field: "width", Msg: fmt.Sprintf("%d must be positive", width)}
	}
	if err := pixel.CheckBitDepth(bitDepth); err != nil {
		return nil, err
	}
	wr := &Writer{format: f, width: width, depth: bitDepth, bw: bufio.NewWriter(w)}
	if f == FormatPacked {
		wr.bits = bitpack.NewWriter(wr.bw)
	}
	return wr, nil
}

// WritePixel appends one sample.
func (w *Writer) WritePixel(v uint16) error {
	row, col := w.n/w.width, w.n%w.width
	w.n++

	var err error
	switch w.format {
	case FormatHex:
		_, err = fmt.Fprintf(w.bw, "%04x  # (%4d, %4d)\n", v, row, col)
	case FormatDecimal:
		sep := byte(' ')
		if col == w.width-1 {
			sep = '\n'
		}
		if _, err = w.bw.WriteString(strconv.Itoa(int(v))); err == nil {
			err = w.bw.WriteByte(sep)
		}
	case FormatRaw16:
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], v)
		_, err = w.bw.Write(buf[:])
	case FormatPacked:
		err = w.bits.WriteSample(v, w.depth)
	}
	return err
}

// Count returns the number of samples written.
func (w *Writer) Count() int {
	return w.n
}

// Flush writes any buffered data to the underlying writer. Packed output
// is padded to a whole byte, so Flush is called once, after the last sample.
func (w *Writer) Flush() error {
	if w.bits != nil {
		if err := w.bits.Flush(); err != nil {
			return err
		}
	}
	return w.bw.Flush()
}
