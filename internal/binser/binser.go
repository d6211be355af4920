// Package binser implements the little-endian, length-prefixed binary
// framing used by the flat-state snapshot format. It generalises the
// fixed-size ToBytes/FromBytes/Size convention used elsewhere in this
// codebase's ancestry to the variable-length byte slices and maps a
// snapshot needs, streaming through an io.Writer/io.Reader pair instead of
// building one in-memory byte slice per field.
package binser

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer frames values onto an underlying io.Writer using little-endian,
// length-prefixed encoding. The first write error sticks: every
// subsequent write becomes a no-op and Err() keeps reporting that error,
// so callers may chain a sequence of writes and check Err() once at the end.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w for framed writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered by any write call.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.write([]byte{v})
}

// WriteUint64 writes v as 8 little-endian bytes.
func (w *Writer) WriteUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.write(buf[:])
}

// WriteBytes writes a uint32 little-endian length prefix followed by the
// raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
	w.write(lenBuf[:])
	w.write(b)
}

// WriteString writes a string using the same framing as WriteBytes.
func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// WriteFixed writes exactly len(b) raw bytes with no length prefix; the
// reader must know the size up front (used for fixed-size hash/key
// arrays).
func (w *Writer) WriteFixed(b []byte) {
	w.write(b)
}

// Reader parses values framed by Writer from an underlying io.Reader. Like
// Writer, the first error sticks: every subsequent read becomes a no-op
// returning zero values once Err() is non-nil.
type Reader struct {
	r   io.Reader
	err error
}

// NewReader wraps r for framed reads.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first error encountered by any read call.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) read(p []byte) {
	if r.err != nil {
		return
	}
	_, r.err = io.ReadFull(r.r, p)
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() uint8 {
	var buf [1]byte
	r.read(buf[:])
	return buf[0]
}

// ReadUint64 reads 8 little-endian bytes.
func (r *Reader) ReadUint64() uint64 {
	var buf [8]byte
	r.read(buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// maxFrameLen bounds a single length-prefixed frame to guard against a
// corrupt or adversarial length prefix driving an enormous allocation.
// Must stay below 1<<32 (the largest value a uint32 length prefix can
// hold) or the check below can never trigger.
const maxFrameLen = 1 << 28

// ReadBytes reads a uint32 length prefix followed by that many bytes.
func (r *Reader) ReadBytes() []byte {
	if r.err != nil {
		return nil
	}
	var lenBuf [4]byte
	r.read(lenBuf[:])
	if r.err != nil {
		return nil
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if uint64(n) > maxFrameLen {
		r.err = fmt.Errorf("binser: frame length %d exceeds limit", n)
		return nil
	}
	buf := make([]byte, n)
	r.read(buf)
	if r.err != nil {
		return nil
	}
	return buf
}

// ReadString reads a string framed the same way as ReadBytes.
func (r *Reader) ReadString() string {
	return string(r.ReadBytes())
}

// ReadFixed reads exactly len(buf) raw bytes into buf.
func (r *Reader) ReadFixed(buf []byte) {
	r.read(buf)
}
