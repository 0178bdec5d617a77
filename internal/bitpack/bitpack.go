// Package bitpack provides MSB-first bit-level I/O for packed sample
// streams.
//
// Packed raw frames store each sample in exactly bit-depth bits with no
// per-row alignment, so a 10-bit frame spends 10 bits per pixel instead of
// 16. The last byte is zero-padded.
package bitpack

import (
	"errors"
	"fmt"
	"io"
)

// ErrTruncated is returned when the input ends inside a sample.
var ErrTruncated = errors.New("bitpack: truncated sample")

// Reader provides bit-level reading from a byte stream.
type Reader struct {
	r   io.ByteReader
	buf byte  // Current byte buffer
	cnt uint8 // Number of unread bits in buf (0-8)
}

// NewReader creates a new bit reader.
func NewReader(r io.ByteReader) *Reader {
	return &Reader{r: r}
}

// ReadBit reads a single bit (0 or 1). It returns io.EOF when the input is
// exhausted.
func (r *Reader) ReadBit() (int, error) {
	if r.cnt == 0 {
		b, err := r.r.ReadByte()
		if err != nil {
			return 0, err
		}
		r.buf = b
		r.cnt = 8
	}
	r.cnt--
	return int((r.buf >> r.cnt) & 1), nil
}

// ReadBits reads n bits (0-32).
func (r *Reader) ReadBits(n uint) (uint32, error) {
	var result uint32
	for i := uint(0); i < n; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			if errors.Is(err, io.EOF) && i > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		result = (result << 1) | uint32(bit)
	}
	return result, nil
}

// ReadSample reads one bitDepth-bit sample. It returns io.EOF at the end of
// the stream, including when only the zero padding of the final byte
// remains, and ErrTruncated when a sample is cut short.
func (r *Reader) ReadSample(bitDepth int) (uint16, error) {
	var v uint16
	for i := 0; i < bitDepth; i++ {
		bit, err := r.ReadBit()
		if errors.Is(err, io.EOF) {
			if i < 8 && v == 0 {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("%w: %d of %d bits", ErrTruncated, i, bitDepth)
		}
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint16(bit)
	}
	return v, nil
}

// Align discards any remaining bits in the current byte.
func (r *Reader) Align() {
	r.cnt = 0
}

// Writer provides bit-level writing to a byte stream.
type Writer struct {
	w   io.ByteWriter
	buf byte  // Current byte buffer
	cnt uint8 // Number of valid bits in buf (0-7)
}

// NewWriter creates a new bit writer.
func NewWriter(w io.ByteWriter) *Writer {
	return &Writer{w: w}
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit int) error {
	w.buf = (w.buf << 1) | byte(bit&1)
	w.cnt++
	if w.cnt == 8 {
		return w.flushByte()
	}
	return nil
}

// WriteBits writes n bits from the lowest n bits of val.
func (w *Writer) WriteBits(val uint32, n uint) error {
	for i := n; i > 0; i-- {
		if err := w.WriteBit(int((val >> (i - 1)) & 1)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSample writes the low bitDepth bits of v.
func (w *Writer) WriteSample(v uint16, bitDepth int) error {
	return w.WriteBits(uint32(v), uint(bitDepth))
}

func (w *Writer) flushByte() error {
	err := w.w.WriteByte(w.buf)
	w.buf = 0
	w.cnt = 0
	return err
}

// Flush writes any remaining bits, padding with zeros.
func (w *Writer) Flush() error {
	if w.cnt > 0 {
		w.buf <<= (8 - w.cnt)
		return w.flushByte()
	}
	return nil
}

// PackedSize returns the number of bytes n samples of bitDepth bits occupy.
func PackedSize(n, bitDepth int) int {
	return (n*bitDepth + 7) / 8
}
