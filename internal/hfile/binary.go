// Package hfile encodes and decodes the on-disk structures of the restart
// container: an HDF5 profile fixed to little-endian byte order, 8-byte file
// offsets and lengths, a version 2 superblock, version 2 object headers,
// and contiguous dataset storage. The profile covers exactly what the
// container driver emits; structures outside it (chunked storage, B-tree
// groups, non-numeric datatypes beyond strings) are rejected on read.
package hfile

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// OffsetSize and LengthSize are fixed by the profile.
const (
	OffsetSize = 8
	LengthSize = 8
)

// Undef is the HDF5 "undefined address" for the fixed 8-byte offset size.
const Undef = ^uint64(0)

// Encoder appends profile-ordered (little-endian) fields to a buffer.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) Bytes() []byte { return e.buf }
func (e *Encoder) Len() int      { return len(e.buf) }

func (e *Encoder) U8(v uint8)   { e.buf = append(e.buf, v) }
func (e *Encoder) U16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *Encoder) U32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *Encoder) U64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

// Offset and Length are aliases kept distinct at call sites so the encoder
// reads like the format specification.
func (e *Encoder) Offset(v uint64) { e.U64(v) }
func (e *Encoder) Length(v uint64) { e.U64(v) }

func (e *Encoder) Raw(p []byte) { e.buf = append(e.buf, p...) }

func (e *Encoder) Zeros(n int) {
	for i := 0; i < n; i++ {
		e.buf = append(e.buf, 0)
	}
}

// CString appends s with a NUL terminator.
func (e *Encoder) CString(s string) {
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
}

// Decoder walks a buffer of profile-ordered fields. The first decode error
// sticks; callers check Err once after a run of reads.
type Decoder struct {
	buf []byte
	off int
	err error
}

func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

func (d *Decoder) Err() error      { return d.err }
func (d *Decoder) Pos() int        { return d.off }
func (d *Decoder) Remaining() int  { return len(d.buf) - d.off }
func (d *Decoder) fail(msg string) { d.err = errors.New("hfile: " + msg) }

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.Remaining() < n {
		d.fail("truncated structure")
		return nil
	}
	p := d.buf[d.off : d.off+n]
	d.off += n
	return p
}

func (d *Decoder) U8() uint8 {
	p := d.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (d *Decoder) U16() uint16 {
	p := d.take(2)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(p)
}

func (d *Decoder) U32() uint32 {
	p := d.take(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

func (d *Decoder) U64() uint64 {
	p := d.take(8)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(p)
}

func (d *Decoder) Offset() uint64 { return d.U64() }
func (d *Decoder) Length() uint64 { return d.U64() }

func (d *Decoder) Raw(n int) []byte {
	p := d.take(n)
	if p == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, p)
	return out
}

func (d *Decoder) Skip(n int) { d.take(n) }
