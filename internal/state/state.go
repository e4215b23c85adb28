// Package state implements the fixed-layout binary encoding used for save
// states. Components append their fields to a Writer in a fixed order and
// read them back from a Reader in the same order.
package state

import (
	"encoding/binary"
	"errors"
)

// ErrShortRead is reported by a Reader that ran past the end of its data.
var ErrShortRead = errors.New("state: unexpected end of data")

// Stater is implemented by every component that is part of a save state.
type Stater interface {
	Save(*Writer)
	Load(*Reader)
}

// Writer appends little-endian fields to a byte slice.
type Writer struct {
	raw []byte
}

// NewWriter returns a Writer with room for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{raw: make([]byte, 0, size)}
}

func (w *Writer) Write8(v uint8) { w.raw = append(w.raw, v) }

func (w *Writer) Write16(v uint16) { w.raw = binary.LittleEndian.AppendUint16(w.raw, v) }

func (w *Writer) Write32(v uint32) { w.raw = binary.LittleEndian.AppendUint32(w.raw, v) }

func (w *Writer) Write64(v uint64) { w.raw = binary.LittleEndian.AppendUint64(w.raw, v) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.raw = append(w.raw, 1)
		return
	}
	w.raw = append(w.raw, 0)
}

// WriteInt stores a signed counter as 32 bits.
func (w *Writer) WriteInt(v int) { w.Write32(uint32(int32(v))) }

// WriteData appends raw bytes without a length prefix.
func (w *Writer) WriteData(p []byte) { w.raw = append(w.raw, p...) }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.raw) }

// Bytes returns the encoded data.
func (w *Writer) Bytes() []byte { return w.raw }

// Reader consumes fields written by a Writer. Once a read runs past the
// end the Reader stays in the error state and returns zero values.
type Reader struct {
	raw []byte
	pos int
	err error
}

func NewReader(raw []byte) *Reader { return &Reader{raw: raw} }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.raw) {
		r.err = ErrShortRead
		return nil
	}
	p := r.raw[r.pos : r.pos+n]
	r.pos += n
	return p
}

func (r *Reader) Read8() uint8 {
	p := r.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (r *Reader) Read16() uint16 {
	p := r.take(2)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(p)
}

func (r *Reader) Read32() uint32 {
	p := r.take(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

func (r *Reader) Read64() uint64 {
	p := r.take(8)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(p)
}

func (r *Reader) ReadBool() bool { return r.Read8() != 0 }

func (r *Reader) ReadInt() int { return int(int32(r.Read32())) }

// ReadData fills p completely.
func (r *Reader) ReadData(p []byte) {
	src := r.take(len(p))
	if src == nil {
		return
	}
	copy(p, src)
}

// Remaining reports how many bytes have not been consumed.
func (r *Reader) Remaining() int { return len(r.raw) - r.pos }

// Err returns the first error encountered.
func (r *Reader) Err() error { return r.err }
